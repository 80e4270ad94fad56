// Package hotstorage is the projector: it drains the event bus and
// maintains the relational store's "comments" table as current state, with
// at-least-once retry on failure.
package hotstorage

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/pablitocbr/commenter-edge/internal/comment"
	"github.com/pablitocbr/commenter-edge/internal/eventbus"
	"github.com/pablitocbr/commenter-edge/internal/platform"
	"github.com/pablitocbr/commenter-edge/internal/store"
)

// pollCeiling bounds each consumer poll so the loop can observe ctx
// cancellation promptly even when the bus is idle.
const pollCeiling = time.Second

// busConsumer is the subset of eventbus.Consumer the projector depends on,
// broken out so Run can be exercised by a fake without a live broker.
type busConsumer interface {
	Poll(ctx context.Context, timeout time.Duration) ([]eventbus.Record, error)
	CommitRecords(ctx context.Context) error
}

// writer is the subset of store.Store the projector depends on.
type writer interface {
	Upsert(ctx context.Context, c comment.Comment) error
}

// Projector upserts decoded comments into the store, committing the
// consumer's offset only after a successful write.
type Projector struct {
	consumer busConsumer
	store    writer
	metrics  *platform.Metrics
	logger   zerolog.Logger
}

// New builds a Projector. consumer must be constructed with
// eventbus.ManualCommit: offsets only advance after the corresponding write
// durably lands in store.
func New(consumer *eventbus.Consumer, st *store.Store, metrics *platform.Metrics, logger zerolog.Logger) *Projector {
	return &Projector{consumer: consumer, store: st, metrics: metrics, logger: logger}
}

// Run drives the poll/decode/upsert/commit loop until ctx is cancelled.
func (p *Projector) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		records, err := p.consumer.Poll(ctx, pollCeiling)
		if err != nil {
			p.logger.Warn().Err(err).Msg("consumer poll error")
			continue
		}
		if len(records) == 0 {
			continue
		}

		if p.processBatch(ctx, records) {
			if err := p.consumer.CommitRecords(ctx); err != nil {
				p.logger.Warn().Err(err).Msg("commit failed, records will be redelivered")
			}
		}
	}
}

// processBatch upserts every record in the batch. It returns false on the
// first failure — decode or store — without committing, so the whole batch
// (including records already applied) is redelivered and retried. Upserts
// are idempotent, so replaying the prefix is harmless.
func (p *Projector) processBatch(ctx context.Context, records []eventbus.Record) bool {
	for _, rec := range records {
		cm, err := comment.Decode(rec.Value)
		if err != nil {
			p.logger.Error().Err(err).Msg("decode failed, not committing batch")
			if p.metrics != nil {
				p.metrics.StoreFailures.Inc()
			}
			return false
		}

		if err := p.store.Upsert(ctx, cm); err != nil {
			p.logger.Error().Err(err).Str("comment_id", cm.ID).Msg("upsert failed, not committing batch")
			if p.metrics != nil {
				p.metrics.StoreFailures.Inc()
			}
			return false
		}

		if p.metrics != nil {
			p.metrics.StoreUpserts.Inc()
		}
	}
	return true
}
