package telemetry

import (
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Label-bound children are cached so hot validation loops skip the Vec lookup.

type counterKey struct {
	vec *prometheus.CounterVec
	key string
}

type observerKey struct {
	vec *prometheus.HistogramVec
	key string
}

var (
	counterHandleCache  sync.Map // map[counterKey]prometheus.Counter
	observerHandleCache sync.Map // map[observerKey]prometheus.Observer
)

func labelsKey(labels []string) string {
	return strings.Join(labels, "\x1f")
}

// CounterHandle returns a cached child counter for the given labels.
func CounterHandle(cv *prometheus.CounterVec, labels ...string) prometheus.Counter {
	k := counterKey{vec: cv, key: labelsKey(labels)}
	if v, ok := counterHandleCache.Load(k); ok {
		return v.(prometheus.Counter)
	}
	actual, _ := counterHandleCache.LoadOrStore(k, cv.WithLabelValues(labels...))
	return actual.(prometheus.Counter)
}

// ObserverHandle returns a cached child observer for the given labels.
func ObserverHandle(hv *prometheus.HistogramVec, labels ...string) prometheus.Observer {
	k := observerKey{vec: hv, key: labelsKey(labels)}
	if v, ok := observerHandleCache.Load(k); ok {
		return v.(prometheus.Observer)
	}
	actual, _ := observerHandleCache.LoadOrStore(k, hv.WithLabelValues(labels...))
	return actual.(prometheus.Observer)
}
