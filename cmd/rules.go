package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/gnolang/tagmig/rewrite"
)

var exportPath string

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "List the active rule groups and rules",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadCatalog(cfg.Rules)
		if err != nil {
			return err
		}
		return printRules(cmd.OutOrStdout(), c)
	},
}

var exportRulesCmd = &cobra.Command{
	Use:   "export-rules",
	Short: "Write the active rule catalog as YAML",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadCatalog(cfg.Rules)
		if err != nil {
			return err
		}
		return exportRules(cmd.OutOrStdout(), c, exportPath)
	},
}

func init() {
	exportRulesCmd.Flags().StringVarP(&exportPath, "output", "o", "", "Output file (default stdout)")
}

func printRules(w io.Writer, c *rewrite.Catalog) error {
	for _, g := range c.Groups() {
		if _, err := fmt.Fprintf(w, "%s (%d rules)\n", g.Name, len(g.Rules)); err != nil {
			return err
		}
		for i, r := range g.Rules {
			name := r.Name
			if name == "" {
				name = fmt.Sprintf("%d", i+1)
			}
			if _, err := fmt.Fprintf(w, "  %-20s %s\n", name, r.Pattern); err != nil {
				return err
			}
		}
	}
	return nil
}

func exportRules(w io.Writer, c *rewrite.Catalog, path string) error {
	data, err := rewrite.MarshalCatalog(c)
	if err != nil {
		return fmt.Errorf("error marshaling rules: %w", err)
	}
	if path == "" {
		_, err = w.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("error writing rules: %w", err)
	}
	_, err = fmt.Fprintf(w, "Rules written to %s\n", path)
	return err
}
