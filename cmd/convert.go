package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gnolang/tagmig/internal/cache"
	"github.com/gnolang/tagmig/internal/report"
	"github.com/gnolang/tagmig/migrate"
)

var (
	outputPath string
	outDir     string
	inPlace    bool
	dryRun     bool
	jsonOutput bool
	noProgress bool
)

var convertCmd = &cobra.Command{
	Use:   "convert [paths...]",
	Short: "Convert JSP files or directories",
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return errors.New("please provide file or directory paths")
		}
		if outputPath != "" && len(args) != 1 {
			return errors.New("--output needs exactly one input file")
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		sess, err := newSession(cfg, logger)
		if err != nil {
			return err
		}

		opts := migrate.Options{
			Output:     outputPath,
			OutDir:     outDir,
			InPlace:    inPlace,
			DryRun:     dryRun,
			Stdout:     cmd.OutOrStdout(),
			Extensions: cfg.Extensions,
			Exclude:    cfg.Exclude,
			Workers:    cfg.Workers,
			Progress:   !noProgress && !jsonOutput,
		}

		return runConvert(ctx, sess, args, opts, jsonOutput, cmd.OutOrStdout(), cmd.ErrOrStderr())
	},
}

func init() {
	flags := convertCmd.Flags()
	flags.StringVarP(&outputPath, "output", "o", "", "Output file for a single input file")
	flags.StringVar(&outDir, "out-dir", "", "Directory receiving the converted tree")
	flags.BoolVar(&inPlace, "in-place", false, "Overwrite the input files")
	flags.BoolVar(&dryRun, "dry-run", false, "Convert without writing anything")
	flags.BoolVar(&jsonOutput, "json", false, "Print the report in JSON format")
	flags.BoolVar(&noProgress, "no-progress", false, "Hide the progress bar")
	flags.StringSlice("exclude", nil, "Glob patterns of files to skip")
	flags.Int("workers", 0, "Number of concurrent conversions (default: number of CPUs)")
	convertCmd.MarkFlagsMutuallyExclusive("output", "out-dir", "in-place")

	_ = v.BindPFlag("exclude", flags.Lookup("exclude"))
	_ = v.BindPFlag("workers", flags.Lookup("workers"))
}

func runConvert(
	ctx context.Context,
	sess *session,
	paths []string,
	opts migrate.Options,
	asJSON bool,
	stdout, stderr io.Writer,
) error {
	if sess.cfg.CacheDir != "" && !opts.DryRun {
		c, err := cache.New(sess.cfg.CacheDir, sess.catalog.Fingerprint())
		if err != nil {
			sess.logger.Warn("Cache disabled", zap.Error(err))
		} else {
			opts.Cache = c
		}
	}

	results, err := migrate.ProcessFiles(ctx, sess.logger, sess.engine, paths, opts)
	defer sess.flushMetrics()

	if reportErr := printReport(results, opts, asJSON, stdout, stderr); reportErr != nil {
		sess.logger.Error("Error printing report", zap.Error(reportErr))
	}

	if err != nil {
		return fmt.Errorf("error processing files: %w", err)
	}
	for _, fr := range results {
		if fr.Failed() {
			return errFailures
		}
	}
	return nil
}

// printReport keeps stdout free for converted text when that is where it goes.
func printReport(results []migrate.FileResult, opts migrate.Options, asJSON bool, stdout, stderr io.Writer) error {
	contentOnStdout := !opts.DryRun && opts.Output == "" && opts.OutDir == "" && !opts.InPlace
	w := stdout
	if contentOnStdout {
		w = stderr
	}

	if asJSON {
		return report.JSON(w, results)
	}
	return report.Text(stderr, results)
}
