package telemetry

import (
	"sort"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	MetricSchemaValidationTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "rpccheck",
		Name:      "schema_validation_total",
		Help:      "Total number of schema validations by method and outcome (passed, failed, skipped).",
	}, []string{"method", "outcome"})

	MetricSoftAssertionFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "rpccheck",
		Name:      "soft_assertion_failures_total",
		Help:      "Total number of failed expectations recorded into ledgers.",
	})

	MetricCaseTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "rpccheck",
		Name:      "case_total",
		Help:      "Total number of conformance cases run by method and outcome.",
	}, []string{"method", "outcome"})

	MetricSchemaValidationDuration *prometheus.HistogramVec
)

var DefaultHistogramBuckets = []float64{
	0.0001, // 100 µs
	0.0005, // 500 µs
	0.001,  // 1 ms
	0.005,  // 5 ms
	0.01,   // 10 ms
	0.05,   // 50 ms
	0.1,    // 100 ms
	0.5,    // 500 ms
	1,      // 1 s
}

func init() {
	if err := SetHistogramBuckets(""); err != nil {
		panic(err)
	}
}

// SetHistogramBuckets re-registers the duration histograms with the given
// comma-separated bucket bounds in seconds. An empty string restores the defaults.
func SetHistogramBuckets(bucketsStr string) error {
	buckets, err := ParseHistogramBuckets(bucketsStr)
	if err != nil {
		return err
	}

	if MetricSchemaValidationDuration != nil {
		prometheus.DefaultRegisterer.Unregister(MetricSchemaValidationDuration)
	}
	MetricSchemaValidationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "rpccheck",
		Name:      "schema_validation_duration_seconds",
		Help:      "Duration of schema compilation and validation per method.",
		Buckets:   buckets,
	}, []string{"method"})

	return nil
}

func ParseHistogramBuckets(bucketsStr string) ([]float64, error) {
	if bucketsStr == "" {
		return DefaultHistogramBuckets, nil
	}

	parts := strings.Split(bucketsStr, ",")
	buckets := make([]float64, 0, len(parts))

	for _, part := range parts {
		value, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return nil, err
		}
		buckets = append(buckets, value)
	}

	sort.Float64s(buckets)
	return buckets, nil
}
