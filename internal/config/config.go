package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// DefaultFile is the configuration file looked up in the working directory.
const DefaultFile = ".tagmig.yaml"

// EnvPrefix prefixes environment overrides, e.g. TAGMIG_LOG_LEVEL.
const EnvPrefix = "TAGMIG"

// Log configures the zap logger.
type Log struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// Config is the tool configuration.
type Config struct {
	Log Log `mapstructure:"log" yaml:"log"`
	// Rules is a YAML catalog path; empty selects the built-in catalog.
	Rules       string   `mapstructure:"rules" yaml:"rules"`
	Extensions  []string `mapstructure:"extensions" yaml:"extensions"`
	Exclude     []string `mapstructure:"exclude" yaml:"exclude"`
	Workers     int      `mapstructure:"workers" yaml:"workers"`
	CacheDir    string   `mapstructure:"cache_dir" yaml:"cache_dir"`
	MetricsFile string   `mapstructure:"metrics_file" yaml:"metrics_file"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Log:        Log{Level: "info", Format: "console"},
		Extensions: []string{".jsp", ".jspf", ".tag"},
		Exclude:    []string{},
	}
}

// New returns a viper instance with defaults and environment overrides
// registered. Flags may be bound on it before calling Load.
func New() *viper.Viper {
	v := viper.New()
	d := Default()
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("rules", d.Rules)
	v.SetDefault("extensions", d.Extensions)
	v.SetDefault("exclude", d.Exclude)
	v.SetDefault("workers", d.Workers)
	v.SetDefault("cache_dir", d.CacheDir)
	v.SetDefault("metrics_file", d.MetricsFile)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the configuration file into v and decodes the result.
// An explicit path must exist; without one a missing DefaultFile is fine.
func Load(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(strings.TrimSuffix(DefaultFile, ".yaml"))
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	normalize(&cfg)
	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func normalize(cfg *Config) {
	for i, ext := range cfg.Extensions {
		ext = strings.TrimSpace(ext)
		if ext != "" && !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		cfg.Extensions[i] = ext
	}
}

func validate(cfg *Config) error {
	if cfg.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", cfg.Workers)
	}
	if len(cfg.Extensions) == 0 {
		return errors.New("at least one file extension is required")
	}
	switch cfg.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("unknown log format %q", cfg.Log.Format)
	}
	return nil
}

// Write stores cfg as YAML at path, creating or truncating the file.
func Write(path string, cfg Config) error {
	if path == "" {
		path = DefaultFile
	}

	d, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = f.Write(d)
	return err
}
