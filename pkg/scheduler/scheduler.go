// Package scheduler drives collection passes on a fixed cadence, publishing
// each completed pass's snapshot for scrapers to read.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"

	"github.com/FelipeRosa/lnd-exporter/pkg/collector"
)

// Collector runs one collection pass.
type Collector interface {
	Collect(ctx context.Context) (*collector.Snapshot, error)
}

// Publisher receives the snapshot produced by a completed pass.
type Publisher interface {
	Publish(snap *collector.Snapshot)
}

// Scheduler ties a Collector to a Publisher on a fixed interval.
type Scheduler struct {
	collector Collector
	publisher Publisher
	interval  time.Duration

	log logr.Logger
}

// Option is a type used by functional arguments to override the scheduler's
// default behavior.
type Option func(s *Scheduler)

// WithInterval overrides the default 30s poll interval.
func WithInterval(v time.Duration) Option {
	return func(s *Scheduler) {
		s.interval = v
	}
}

// WithLogger overrides the default development logger.
func WithLogger(v logr.Logger) Option {
	return func(s *Scheduler) {
		s.log = v
	}
}

func New(c Collector, p Publisher, opts ...Option) (*Scheduler, error) {
	defaultLogger, err := zap.NewDevelopment()
	if err != nil {
		return nil, fmt.Errorf("zap new development: %w", err)
	}

	s := &Scheduler{
		collector: c,
		publisher: p,
		interval:  30 * time.Second,
		log:       zapr.NewLogger(defaultLogger.Named("scheduler")),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// Run performs an immediate first pass and then one pass per tick until ctx
// is cancelled.
//
// Passes run on this goroutine, one at a time: a tick arriving while a pass
// is still in flight is dropped by the ticker, never queued, so passes can
// neither overlap nor pile up behind a slow node.
func (s *Scheduler) Run(ctx context.Context) error {
	s.pass(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("stopping")
			return ctx.Err()

		case <-ticker.C:
			s.pass(ctx)
		}
	}
}

func (s *Scheduler) pass(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	started := time.Now()

	snap, err := s.collector.Collect(ctx)
	if err != nil {
		s.log.Error(err, "pass skipped, previous snapshot remains current")
		return
	}

	s.publisher.Publish(snap)

	s.log.Info("pass published",
		"records", len(snap.Records),
		"generation", snap.Generation,
		"took", time.Since(started).String(),
	)
}
