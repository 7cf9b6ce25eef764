package cmd

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/gnolang/tagmig/catalog"
	"github.com/gnolang/tagmig/internal/config"
	"github.com/gnolang/tagmig/internal/metrics"
	"github.com/gnolang/tagmig/rewrite"
)

// session is everything a conversion command needs.
type session struct {
	catalog  *rewrite.Catalog
	engine   *rewrite.Engine
	recorder *metrics.Recorder
	logger   *zap.Logger
	cfg      *config.Config
}

// loadCatalog returns the YAML catalog at path, or the built-in one.
func loadCatalog(path string) (*rewrite.Catalog, error) {
	if path == "" {
		return catalog.StrutsToSpring(), nil
	}
	c, err := rewrite.LoadCatalog(path)
	if err != nil {
		return nil, fmt.Errorf("error loading rules: %w", err)
	}
	return c, nil
}

func newSession(cfg *config.Config, logger *zap.Logger) (*session, error) {
	c, err := loadCatalog(cfg.Rules)
	if err != nil {
		return nil, err
	}

	rec := metrics.New()
	engine := rewrite.NewEngine(c, rewrite.WithObserver(rewrite.Observers{
		rewrite.NewLogObserver(logger),
		rec,
	}))

	logger.Debug("Rule catalog loaded",
		zap.String("source", catalogSource(cfg.Rules)),
		zap.Int("rules", c.Len()),
		zap.String("fingerprint", c.Fingerprint()))

	return &session{
		catalog:  c,
		engine:   engine,
		recorder: rec,
		logger:   logger,
		cfg:      cfg,
	}, nil
}

func catalogSource(path string) string {
	if path == "" {
		return "built-in"
	}
	return path
}

// flushMetrics writes the metrics textfile when one is configured.
func (sess *session) flushMetrics() {
	if sess.cfg.MetricsFile == "" {
		return
	}
	if err := sess.recorder.WriteTextfile(sess.cfg.MetricsFile); err != nil {
		sess.logger.Error("Error writing metrics", zap.String("file", sess.cfg.MetricsFile), zap.Error(err))
	}
}
