package cmd

import (
	"errors"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gnolang/tagmig/internal/config"
	tlog "github.com/gnolang/tagmig/internal/logger"
)

const defaultTimeout = 5 * time.Minute

// errFailures makes the process exit non-zero once the report is printed.
var errFailures = errors.New("conversion finished with failures")

var (
	cfgFile string
	timeout time.Duration

	v      = config.New()
	cfg    = defaultConfig()
	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:               "tagmig [paths...]",
	Short:             "tagmig - convert Struts JSP tags to Spring and JSTL tags",
	TraverseChildren:  true, // Prioritize subcommands
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	RunE: func(cmd *cobra.Command, args []string) error {
		// no subcommand
		if len(args) == 0 {
			return cmd.Help()
		}
		// Format: tagmig [path1 path2 ...] => behaves like the convert subcommand
		convertCmd.SetContext(cmd.Context())
		return convertCmd.RunE(convertCmd, args)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "Path to the configuration file (default .tagmig.yaml)")
	flags.String("log-level", "info", "Log level (debug, info, warn, error)")
	flags.String("log-format", "console", "Log format (console, json)")
	flags.String("rules", "", "YAML rule catalog replacing the built-in one")
	flags.DurationVar(&timeout, "timeout", defaultTimeout, "Timeout for a conversion run")

	_ = v.BindPFlag("log.level", flags.Lookup("log-level"))
	_ = v.BindPFlag("log.format", flags.Lookup("log-format"))
	_ = v.BindPFlag("rules", flags.Lookup("rules"))

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(convertCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(rulesCmd)
	rootCmd.AddCommand(exportRulesCmd)
}

func defaultConfig() *config.Config {
	c := config.Default()
	return &c
}

// setup loads the configuration and builds the logger for every command.
func setup(_ *cobra.Command, _ []string) error {
	loaded, err := config.Load(v, cfgFile)
	if err != nil {
		return err
	}
	cfg = loaded

	l, err := tlog.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	logger = l
	return nil
}
