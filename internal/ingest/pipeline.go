// Package ingest keeps the local shop mirror current by applying catalog
// feed batches to the store.
package ingest

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/motoatlas/shop-discovery-service/internal/domain"
	"github.com/motoatlas/shop-discovery-service/internal/observability"
)

// BatchExtractor reads up to batchSize raw events from the feed.
type BatchExtractor interface {
	ExtractBatch(ctx context.Context, batchSize int) ([]domain.RawEvent, error)
}

// BatchApplier writes a batch of typed catalog events to the store.
type BatchApplier interface {
	ApplyBatch(ctx context.Context, events []domain.CatalogEvent) error
}

// Pipeline orchestrates the extract-parse-apply ingest loop.
type Pipeline struct {
	extractor BatchExtractor
	applier   BatchApplier
	logger    *slog.Logger
	metrics   *observability.Metrics
	ready     atomic.Bool
	batchSize int
}

// New creates a Pipeline with the given stages and observability.
func New(e BatchExtractor, a BatchApplier, logger *slog.Logger, metrics *observability.Metrics, batchSize int) *Pipeline {
	return &Pipeline{
		extractor: e,
		applier:   a,
		logger:    logger,
		metrics:   metrics,
		batchSize: batchSize,
	}
}

// CheckReadiness returns nil once the pipeline has applied at least one batch,
// or an error describing why the mirror is not yet ready.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("catalog ingest has not applied any events yet")
	}
	return nil
}

// Run executes the ingest loop until the context is cancelled.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("catalog ingest started", "batch_size", p.batchSize)
	p.metrics.IngestRunning.Set(1)
	defer p.metrics.IngestRunning.Set(0)

	// Exponential backoff: start at 200ms, double each retry, cap at 5s.
	// Keeps retry storms short without tight-looping through a store outage.
	backoff := 200 * time.Millisecond
	maxBackoff := 5 * time.Second

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("catalog ingest stopping", "reason", ctx.Err())
			return nil
		default:
		}

		if !p.processBatch(ctx, &backoff, maxBackoff) {
			return nil
		}
	}
}

// processBatch runs one extract-parse-apply cycle. Returns false if the
// pipeline should stop.
func (p *Pipeline) processBatch(ctx context.Context, backoff *time.Duration, maxBackoff time.Duration) bool {
	start := time.Now()

	rawBatch, err := p.extractor.ExtractBatch(ctx, p.batchSize)
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		p.logger.Error("extract batch failed", "error", err)
		return p.backoffOrStop(ctx, backoff, maxBackoff)
	}

	if len(rawBatch) == 0 {
		return ctx.Err() == nil
	}

	p.metrics.IngestEventsConsumed.Add(float64(len(rawBatch)))
	p.metrics.IngestBatchSize.Observe(float64(len(rawBatch)))
	*backoff = 200 * time.Millisecond

	applied, ok := p.parseAndApply(ctx, rawBatch, backoff, maxBackoff)
	if !ok {
		return false
	}

	if applied > 0 {
		p.metrics.IngestBatchDuration.Observe(time.Since(start).Seconds())
		p.ready.Store(true)
	}
	return true
}

// parseAndApply parses each event in the batch, applies the valid ones, and
// commits offsets. Malformed events are skipped and committed so they are
// never redelivered. Returns the number of applied events and false if the
// pipeline should stop.
func (p *Pipeline) parseAndApply(ctx context.Context, rawBatch []domain.RawEvent, backoff *time.Duration, maxBackoff time.Duration) (int, bool) {
	parsed := make([]domain.CatalogEvent, 0, len(rawBatch))
	parsedRaws := make([]domain.RawEvent, 0, len(rawBatch))

	for _, raw := range rawBatch {
		event, err := domain.ParseCatalogEvent(raw)
		if err != nil {
			p.logger.Warn("parse failed, skipping event",
				"error", err,
				"topic", raw.Topic,
				"partition", raw.Partition,
				"offset", raw.Offset,
			)
			p.metrics.IngestParseErrors.Inc()
			p.commitOffset(ctx, raw)
			continue
		}
		parsed = append(parsed, event)
		parsedRaws = append(parsedRaws, raw)
	}

	if len(parsed) == 0 {
		return 0, true
	}

	if err := p.applier.ApplyBatch(ctx, parsed); err != nil {
		p.logger.Error("apply batch failed", "error", err, "batch_size", len(parsed))
		return 0, p.backoffOrStop(ctx, backoff, maxBackoff)
	}

	p.metrics.IngestEventsApplied.Add(float64(len(parsed)))

	for _, raw := range parsedRaws {
		p.commitOffset(ctx, raw)
	}

	return len(parsed), true
}

// backoffOrStop checks for context cancellation, sleeps with the current
// backoff, and advances the backoff. Returns false if the pipeline should stop.
func (p *Pipeline) backoffOrStop(ctx context.Context, backoff *time.Duration, maxBackoff time.Duration) bool {
	if ctx.Err() != nil {
		return false
	}
	if !sleepWithContext(ctx, *backoff) {
		return false
	}
	*backoff = nextBackoff(*backoff, maxBackoff)
	return true
}

// commitOffset commits the event offset if a commit function is available.
func (p *Pipeline) commitOffset(ctx context.Context, raw domain.RawEvent) {
	if raw.Commit == nil {
		return
	}
	if err := raw.Commit(ctx); err != nil {
		p.logger.Warn("commit offset failed", "error", err,
			"topic", raw.Topic, "partition", raw.Partition, "offset", raw.Offset)
	}
}

func nextBackoff(current, maxBackoff time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
