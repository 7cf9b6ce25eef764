package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/gnolang/tagmig/rewrite"
)

// Recorder collects conversion metrics. It implements rewrite.Observer.
type Recorder struct {
	registry *prometheus.Registry

	Conversions        prometheus.Counter
	RuleApplications   *prometheus.CounterVec
	Replacements       *prometheus.CounterVec
	ConversionDuration prometheus.Histogram
	InputBytes         prometheus.Counter
}

var _ rewrite.Observer = (*Recorder)(nil)

// New registers the conversion metrics on a fresh registry.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		Conversions: factory.NewCounter(prometheus.CounterOpts{
			Name: "tagmig_conversions_total",
			Help: "Total number of documents converted",
		}),
		RuleApplications: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tagmig_rule_applications_total",
				Help: "Total number of rule applications by group and status",
			},
			[]string{"group", "status"},
		),
		Replacements: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tagmig_replacements_total",
				Help: "Total number of substitutions by group",
			},
			[]string{"group"},
		),
		ConversionDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "tagmig_conversion_duration_seconds",
			Help:    "Duration of one document conversion in seconds",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
		InputBytes: factory.NewCounter(prometheus.CounterOpts{
			Name: "tagmig_input_bytes_total",
			Help: "Total number of input bytes converted",
		}),
	}
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

func (r *Recorder) ConversionStarted(_ string, inputLen int) {
	r.InputBytes.Add(float64(inputLen))
}

func (r *Recorder) RuleApplied(_ string, o rewrite.Outcome) {
	r.RuleApplications.WithLabelValues(o.Group, string(rewrite.StatusApplied)).Inc()
	if o.Replacements > 0 {
		r.Replacements.WithLabelValues(o.Group).Add(float64(o.Replacements))
	}
}

func (r *Recorder) RuleFailed(_ string, o rewrite.Outcome) {
	r.RuleApplications.WithLabelValues(o.Group, string(rewrite.StatusErrored)).Inc()
}

func (r *Recorder) ConversionFinished(res *rewrite.Result) {
	r.Conversions.Inc()
	r.ConversionDuration.Observe(res.Timing.Elapsed.Seconds())
}

// WriteTextfile dumps all metrics in the text exposition format,
// suitable for the node exporter textfile collector.
func (r *Recorder) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}
