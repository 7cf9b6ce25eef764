package rewrite

import (
	"go.uber.org/zap"
)

// Observer receives conversion events. Implementations must not
// modify the Result passed to ConversionFinished.
type Observer interface {
	ConversionStarted(id string, inputLen int)
	RuleApplied(id string, o Outcome)
	RuleFailed(id string, o Outcome)
	ConversionFinished(res *Result)
}

// NopObserver discards all events.
type NopObserver struct{}

func (NopObserver) ConversionStarted(string, int) {}
func (NopObserver) RuleApplied(string, Outcome)   {}
func (NopObserver) RuleFailed(string, Outcome)    {}
func (NopObserver) ConversionFinished(*Result)    {}

// Observers fans events out to each observer in order.
type Observers []Observer

func (obs Observers) ConversionStarted(id string, inputLen int) {
	for _, o := range obs {
		o.ConversionStarted(id, inputLen)
	}
}

func (obs Observers) RuleApplied(id string, out Outcome) {
	for _, o := range obs {
		o.RuleApplied(id, out)
	}
}

func (obs Observers) RuleFailed(id string, out Outcome) {
	for _, o := range obs {
		o.RuleFailed(id, out)
	}
}

func (obs Observers) ConversionFinished(res *Result) {
	for _, o := range obs {
		o.ConversionFinished(res)
	}
}

// LogObserver writes conversion events to a zap logger.
type LogObserver struct {
	logger *zap.Logger
}

// NewLogObserver returns an observer logging to logger. A nil logger discards.
func NewLogObserver(logger *zap.Logger) *LogObserver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogObserver{logger: logger}
}

func (l *LogObserver) ConversionStarted(id string, inputLen int) {
	l.logger.Info("Starting conversion", zap.String("id", id), zap.Int("bytes", inputLen))
}

func (l *LogObserver) RuleApplied(id string, o Outcome) {
	l.logger.Debug("Applied rule",
		zap.String("id", id),
		zap.String("rule", o.Rule),
		zap.String("pattern", o.Pattern),
		zap.Int("replacements", o.Replacements),
	)
}

func (l *LogObserver) RuleFailed(id string, o Outcome) {
	l.logger.Error("Error applying rule",
		zap.String("id", id),
		zap.String("rule", o.Rule),
		zap.String("pattern", o.Pattern),
		zap.Error(o.Err),
	)
}

func (l *LogObserver) ConversionFinished(res *Result) {
	l.logger.Info("Conversion complete",
		zap.String("id", res.ID),
		zap.Int("replacements", res.Replacements()),
		zap.Int("errors", len(res.Errored())),
		zap.Duration("elapsed", res.Timing.Elapsed),
	)
}
