package middleware

import (
	"context"
	"errors"
	"time"

	"github.com/aretw0/passivate/pkg/domain"
	"github.com/aretw0/passivate/pkg/ports"
	"github.com/prometheus/client_golang/prometheus"
)

// StoreMetrics are the collectors recorded by NewMetricsMiddleware.
type StoreMetrics struct {
	Duration *prometheus.HistogramVec
	Bytes    prometheus.Histogram
}

// NewStoreMetrics creates the collectors and registers them with reg (if not nil).
func NewStoreMetrics(reg prometheus.Registerer) *StoreMetrics {
	m := &StoreMetrics{
		Duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "passivate_store_operation_duration_seconds",
				Help:    "Duration of checkpoint store operations",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"op", "result"},
		),
		Bytes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "passivate_checkpoint_size_bytes",
			Help:    "Size of checkpoints written to the store",
			Buckets: prometheus.ExponentialBuckets(64, 4, 8),
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Duration, m.Bytes)
	}
	return m
}

type metricsMiddleware struct {
	next    ports.CheckpointStore
	metrics *StoreMetrics
}

// NewMetricsMiddleware records latency and outcome of every store call.
func NewMetricsMiddleware(metrics *StoreMetrics) Middleware {
	return func(next ports.CheckpointStore) ports.CheckpointStore {
		return &metricsMiddleware{next: next, metrics: metrics}
	}
}

func (m *metricsMiddleware) observe(op string, started time.Time, err error) {
	result := "ok"
	switch {
	case errors.Is(err, domain.ErrCheckpointNotFound):
		result = "not_found"
	case err != nil:
		result = "error"
	}
	m.metrics.Duration.WithLabelValues(op, result).Observe(time.Since(started).Seconds())
}

func (m *metricsMiddleware) Put(ctx context.Context, key string, data []byte) error {
	started := time.Now()
	err := m.next.Put(ctx, key, data)
	m.observe("put", started, err)
	if err == nil {
		m.metrics.Bytes.Observe(float64(len(data)))
	}
	return err
}

func (m *metricsMiddleware) Get(ctx context.Context, key string) ([]byte, error) {
	started := time.Now()
	data, err := m.next.Get(ctx, key)
	m.observe("get", started, err)
	return data, err
}

func (m *metricsMiddleware) Delete(ctx context.Context, key string) error {
	started := time.Now()
	err := m.next.Delete(ctx, key)
	m.observe("delete", started, err)
	return err
}

func (m *metricsMiddleware) List(ctx context.Context) ([]string, error) {
	started := time.Now()
	keys, err := m.next.List(ctx)
	m.observe("list", started, err)
	return keys, err
}
