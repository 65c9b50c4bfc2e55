// Package cache holds the aggregation window: a sharded key to metric table
// that folds repeated samples per key until the window is flushed.
package cache

import (
	"context"
	"hash/fnv"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/Albibek/bioyino-metric/metric"
)

const DefaultShards = 16

type Cache[F metric.Float] struct {
	shards []*shard[F]
}

type shard[F metric.Float] struct {
	mu      sync.RWMutex
	metrics map[string]*metric.Metric[F]
}

// Flushed is one drained aggregate with its key.
type Flushed[F metric.Float] struct {
	Key    string
	Metric metric.Metric[F]
}

func New[F metric.Float](shards int) *Cache[F] {
	if shards <= 0 {
		shards = DefaultShards
	}
	c := &Cache[F]{shards: make([]*shard[F], shards)}
	for i := range c.shards {
		c.shards[i] = &shard[F]{metrics: make(map[string]*metric.Metric[F])}
	}
	return c
}

func (c *Cache[F]) shardFor(key string) *shard[F] {
	h := fnv.New32a()
	h.Write([]byte(key))
	return c.shards[h.Sum32()%uint32(len(c.shards))]
}

// Accumulate folds a freshly constructed metric into the aggregate for key,
// inserting it when the key is new. A cross-kind sample is rejected: the
// existing aggregate stays untouched, the rejection is logged and counted,
// and metric.ErrAggregating is returned so the caller drops the sample.
func (c *Cache[F]) Accumulate(ctx context.Context, key string, m metric.Metric[F]) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	s := c.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.metrics[key]
	if !ok {
		s.metrics[key] = &m
		samplesAccumulated.Inc()
		return nil
	}

	if err := existing.Accumulate(m); err != nil {
		mergeRejections.Inc()
		log.Warn().
			Err(err).
			Str("key", key).
			Str("have", existing.Type.Kind().String()).
			Str("got", m.Type.Kind().String()).
			Msg("rejected metric merge")
		return err
	}
	samplesAccumulated.Inc()
	return nil
}

// Flush drains the whole window and resets it. Entry order is unspecified.
func (c *Cache[F]) Flush(ctx context.Context) ([]Flushed[F], error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	var out []Flushed[F]
	for _, s := range c.shards {
		s.mu.Lock()
		for key, m := range s.metrics {
			out = append(out, Flushed[F]{Key: key, Metric: *m})
		}
		s.metrics = make(map[string]*metric.Metric[F])
		s.mu.Unlock()
	}
	flushesTotal.Inc()
	flushedMetrics.Add(float64(len(out)))
	return out, nil
}

// Len returns the number of distinct keys currently aggregated.
func (c *Cache[F]) Len() int {
	total := 0
	for _, s := range c.shards {
		s.mu.RLock()
		total += len(s.metrics)
		s.mu.RUnlock()
	}
	return total
}
