package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gnolang/tagmig/internal/report"
	"github.com/gnolang/tagmig/internal/watch"
	"github.com/gnolang/tagmig/migrate"
)

var (
	watchOutDir  string
	watchInPlace bool
)

var watchCmd = &cobra.Command{
	Use:   "watch [dirs...]",
	Short: "Convert files again whenever they change",
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			args = []string{"."}
		}
		if watchOutDir == "" && !watchInPlace {
			return errors.New("watch needs --out-dir or --in-place")
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		sess, err := newSession(cfg, logger)
		if err != nil {
			return err
		}

		w, err := newWatcher(sess, args, watchOutDir, cmd.ErrOrStderr())
		if err != nil {
			return err
		}

		logger.Info("Watching for changes", zap.Strings("dirs", args))
		return w.Run(ctx)
	},
}

func init() {
	watchCmd.Flags().StringVar(&watchOutDir, "out-dir", "", "Directory receiving converted files")
	watchCmd.Flags().BoolVar(&watchInPlace, "in-place", false, "Overwrite changed files")
	watchCmd.MarkFlagsMutuallyExclusive("out-dir", "in-place")
}

// newWatcher watches roots, leaving out outDir so converted files are
// not picked up as new input.
func newWatcher(sess *session, roots []string, outDir string, out io.Writer) (*watch.Watcher, error) {
	w, err := watch.New(sess.logger, sess.cfg.Extensions, watchHandler(sess, roots, outDir, out))
	if err != nil {
		return nil, err
	}
	w.Ignore(outDir)
	if err := w.Add(roots...); err != nil {
		_ = w.Close()
		return nil, err
	}
	return w, nil
}

// watchHandler converts one changed file into outDir, mirroring its
// position below the watched root, or in place when outDir is empty.
func watchHandler(sess *session, roots []string, outDir string, out io.Writer) watch.Handler {
	return func(ctx context.Context, path string) {
		opts := migrate.Options{InPlace: outDir == ""}
		if outDir != "" {
			opts.Output = filepath.Join(outDir, relativeTo(roots, path))
		}

		fr, err := migrate.ConvertFile(ctx, sess.logger, sess.engine, path, opts)
		if err != nil {
			sess.logger.Error("Error converting file", zap.String("file", path), zap.Error(err))
			return
		}
		fmt.Fprint(out, report.FormatFile(*fr))
		sess.flushMetrics()
	}
}

// relativeTo returns path relative to the first root containing it.
func relativeTo(roots []string, path string) string {
	for _, root := range roots {
		rel, err := filepath.Rel(root, path)
		if err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return rel
		}
	}
	return filepath.Base(path)
}
