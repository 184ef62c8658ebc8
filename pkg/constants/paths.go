package constants

const (
	// MetricsPath is the path on which the example server exposes prometheus metrics.
	MetricsPath = "/metrics"
)
