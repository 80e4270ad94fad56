package edge

import (
	"context"
	"time"

	"github.com/pablitocbr/commenter-edge/internal/comment"
	"github.com/pablitocbr/commenter-edge/internal/eventbus"
	"github.com/pablitocbr/commenter-edge/internal/frame"
)

// busConsumer is the subset of eventbus.Consumer the consume loop depends
// on, broken out so it can be driven by a fake in tests without a live
// broker.
type busConsumer interface {
	Poll(ctx context.Context, timeout time.Duration) ([]eventbus.Record, error)
}

// ConsumeLoop is the single process-wide consumer task: it blocks on the
// bus, decodes each record to a Comment, and broadcasts a MESSAGE frame to
// every connection subscribed to that comment's group_id. Runs until ctx is
// cancelled. A record that fails to decode is logged and skipped; the loop
// never dies over bad data.
func (o *Orchestrator) ConsumeLoop(ctx context.Context, consumer busConsumer) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		records, err := consumer.Poll(ctx, time.Second)
		if err != nil {
			o.logger.Warn().Err(err).Msg("consumer poll error")
			continue
		}

		for _, rec := range records {
			cm, err := comment.Decode(rec.Value)
			if err != nil {
				o.logger.Warn().Err(err).Msg("dropping undecodable bus record")
				continue
			}

			if o.metrics != nil {
				o.metrics.MessagesConsumed.Inc()
			}

			sf := frame.NewMessage(cm.GroupID, cm.ID, cm.State.String(), cm.Text)
			o.dist.Broadcast(cm.GroupID, sf)

			if o.metrics != nil {
				o.metrics.MessagesBroadcast.Inc()
			}
		}
	}
}
