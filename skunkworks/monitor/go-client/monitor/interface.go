package monitor

type Labels map[string]string

type Monitor interface {
	// NewLabeledCounter creates a new LabeledCounter based on the provided metric name and
	// partitioned by the given label names. At least one label name must be
	// provided.
	NewLabeledCounter(metric string, labelNames []string) LabeledCounter

	// NewLabeledSummary creates a new LabeledSummary. The default objectives
	// {0.5: 0.05, 0.9: 0.01, 0.99: 0.001} are used when quantile is nil.
	NewLabeledSummary(metric string, labelNames []string, quantile map[float64]float64) LabeledSummary

	// NewLabeledHistogram creates a new LabeledHistogram. The default buckets
	// {.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10} are used when buckets is nil.
	NewLabeledHistogram(metric string, labelNames []string, buckets []float64) LabeledHistogram
}

type Counter interface {
	// Inc increments the counter by 1.
	Inc()
	// Add adds the given value to the counter. It panics if the value is < 0.
	Add(float64)
}

type LabeledCounter interface {
	WithLabelValues(lvs ...string) Counter
	With(labels Labels) Counter
}

type Summary interface {
	Observe(float64)
}

type LabeledSummary interface {
	WithLabelValues(lvs ...string) Summary
	With(labels Labels) Summary
}

type Histogram interface {
	Observe(float64)
}

type LabeledHistogram interface {
	// WithLabelValues allows shortcuts like
	// histogram.WithLabelValues("nextcloud", "add_group", "success").Observe(42.21)
	WithLabelValues(lvs ...string) Histogram
	With(labels Labels) Histogram
}
