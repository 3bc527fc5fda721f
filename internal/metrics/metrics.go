// Package metrics exposes Prometheus instrumentation for the key-value store.
package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/mmynk/visitlog/internal/storage"
)

const namespace = "visitlog"

// Result label values.
const (
	resultOK       = "ok"
	resultNotFound = "not_found"
	resultError    = "error"
)

// StoreMetrics holds the collectors shared by instrumented stores.
type StoreMetrics struct {
	ops     *prometheus.CounterVec
	latency *prometheus.HistogramVec
}

// NewStoreMetrics creates the store collectors and registers them with reg.
func NewStoreMetrics(reg prometheus.Registerer) (*StoreMetrics, error) {
	m := &StoreMetrics{
		ops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "operations_total",
			Help:      "Key-value store operations by backend, operation and result.",
		}, []string{"backend", "op", "result"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "operation_duration_seconds",
			Help:      "Latency of key-value store operations.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"backend", "op"}),
	}
	for _, c := range []prometheus.Collector{m.ops, m.latency} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Instrument wraps store so every call is counted and timed under backend.
func (m *StoreMetrics) Instrument(backend string, store storage.Store) storage.Store {
	return &instrumentedStore{next: store, backend: backend, m: m}
}

type instrumentedStore struct {
	next    storage.Store
	backend string
	m       *StoreMetrics
}

func (s *instrumentedStore) Get(ctx context.Context, key string) ([]byte, error) {
	start := time.Now()
	v, err := s.next.Get(ctx, key)
	s.observe("get", start, err)
	return v, err
}

func (s *instrumentedStore) Set(ctx context.Context, key string, value []byte) error {
	start := time.Now()
	err := s.next.Set(ctx, key, value)
	s.observe("set", start, err)
	return err
}

func (s *instrumentedStore) Remove(ctx context.Context, keys ...string) error {
	start := time.Now()
	err := s.next.Remove(ctx, keys...)
	s.observe("remove", start, err)
	return err
}

func (s *instrumentedStore) Close() error {
	return s.next.Close()
}

func (s *instrumentedStore) observe(op string, start time.Time, err error) {
	s.m.latency.WithLabelValues(s.backend, op).Observe(time.Since(start).Seconds())
	s.m.ops.WithLabelValues(s.backend, op, result(err)).Inc()
}

func result(err error) string {
	switch {
	case err == nil:
		return resultOK
	case errors.Is(err, storage.ErrNotFound):
		return resultNotFound
	default:
		return resultError
	}
}
