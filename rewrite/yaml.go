package rewrite

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// CatalogConfig is the on-disk shape of a rule catalog.
type CatalogConfig struct {
	Groups []Group `yaml:"groups"`
}

// ParseCatalog decodes a YAML catalog. Patterns and templates are not
// validated here; broken rules surface as errored outcomes when applied.
func ParseCatalog(data []byte) (*Catalog, error) {
	var cfg CatalogConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to decode catalog: %w", err)
	}
	for i, g := range cfg.Groups {
		if g.Name == "" {
			return nil, fmt.Errorf("group %d has no name", i+1)
		}
	}
	return NewCatalog(cfg.Groups...), nil
}

// LoadCatalog reads and decodes the YAML catalog at path.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c, err := ParseCatalog(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// MarshalCatalog encodes c in the shape read by ParseCatalog.
func MarshalCatalog(c *Catalog) ([]byte, error) {
	return yaml.Marshal(CatalogConfig{Groups: c.Groups()})
}
