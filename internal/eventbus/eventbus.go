// Package eventbus wraps franz-go (twmb/franz-go/pkg/kgo) for the two roles
// the system needs: a keyed producer for client-originated comment
// mutations, and a consumer used both by the edge (auto-commit, no
// durability requirement) and by the hotstorage projector (manual commit
// after a durable write).
package eventbus

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/twmb/franz-go/pkg/kgo"
)

// Topic is the single event-bus topic this system speaks.
const Topic = "comments"

// Record is one decoded-key, undecoded-value bus record handed to a
// consumer's caller.
type Record struct {
	Key   []byte
	Value []byte
}

// Producer produces keyed records to Topic. Partitioning is keyed on
// group_id, so all events for one group land on a single partition and are
// ordered there.
type Producer struct {
	client  *kgo.Client
	timeout time.Duration
	logger  zerolog.Logger
}

// ProducerConfig configures a Producer.
type ProducerConfig struct {
	Brokers []string
	Timeout time.Duration // applied to every Produce call; defaults to 5s
	Logger  zerolog.Logger
}

// NewProducer builds a Producer. cfg.Timeout is applied uniformly to every
// Produce call via context.
func NewProducer(cfg ProducerConfig) (*Producer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("eventbus: at least one broker is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	client, err := kgo.NewClient(kgo.SeedBrokers(cfg.Brokers...))
	if err != nil {
		return nil, fmt.Errorf("eventbus: creating producer client: %w", err)
	}

	return &Producer{client: client, timeout: timeout, logger: cfg.Logger}, nil
}

// Produce sends one keyed record to topic, blocking until the broker acks or
// the configured timeout elapses.
func (p *Producer) Produce(ctx context.Context, topic string, key, value []byte) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	record := &kgo.Record{Topic: topic, Key: key, Value: value}

	results := p.client.ProduceSync(ctx, record)
	if err := results.FirstErr(); err != nil {
		p.logger.Error().Err(err).Str("topic", topic).Bytes("key", key).Msg("produce failed")
		return fmt.Errorf("eventbus: produce: %w", err)
	}
	return nil
}

// Close releases the underlying client.
func (p *Producer) Close() {
	p.client.Close()
}

// CommitMode selects how a Consumer advances its consumer-group offsets.
type CommitMode int

const (
	// AutoCommit commits offsets periodically regardless of processing
	// outcome — fan-out has no durability requirement, a missed message is
	// acceptable.
	AutoCommit CommitMode = iota
	// ManualCommit disables auto-commit; the caller must call
	// Consumer.CommitRecords after a record is durably handled.
	ManualCommit
)

// ConsumerConfig configures a Consumer.
type ConsumerConfig struct {
	Brokers       []string
	ConsumerGroup string
	Topic         string
	Mode          CommitMode
	Logger        zerolog.Logger
}

// Consumer wraps a kgo.Client in consumer-group mode.
type Consumer struct {
	client *kgo.Client
	logger zerolog.Logger
}

// NewConsumer builds a Consumer subscribed to cfg.Topic under
// cfg.ConsumerGroup, in the commit mode the caller selects.
func NewConsumer(cfg ConsumerConfig) (*Consumer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("eventbus: at least one broker is required")
	}
	if cfg.ConsumerGroup == "" {
		return nil, fmt.Errorf("eventbus: consumer group is required")
	}

	opts := []kgo.Opt{
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.ConsumerGroup(cfg.ConsumerGroup),
		kgo.ConsumeTopics(cfg.Topic),
		kgo.FetchMaxWait(500 * time.Millisecond),
	}

	switch cfg.Mode {
	case AutoCommit:
		opts = append(opts, kgo.AutoCommitInterval(5*time.Second))
	case ManualCommit:
		opts = append(opts, kgo.DisableAutoCommit())
	}

	client, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("eventbus: creating consumer client: %w", err)
	}

	return &Consumer{client: client, logger: cfg.Logger}, nil
}

// Poll blocks up to timeout waiting for records, returning whatever batch
// (possibly empty) is available. A timeout with no records is not an error
// — callers loop and poll again.
func (c *Consumer) Poll(ctx context.Context, timeout time.Duration) ([]Record, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	fetches := c.client.PollFetches(ctx)
	if ctx.Err() != nil && len(fetches.Records()) == 0 {
		return nil, nil
	}

	if errs := fetches.Errors(); len(errs) > 0 {
		for _, e := range errs {
			c.logger.Error().Err(e.Err).Str("topic", e.Topic).Int32("partition", e.Partition).Msg("fetch error")
		}
	}

	var records []Record
	fetches.EachRecord(func(r *kgo.Record) {
		records = append(records, Record{Key: r.Key, Value: r.Value})
	})
	return records, nil
}

// CommitRecords synchronously commits the offsets of every record polled so
// far that is not yet committed, including records from earlier batches.
// Used by ManualCommit consumers after a durable write succeeds.
func (c *Consumer) CommitRecords(ctx context.Context) error {
	return c.client.CommitUncommittedOffsets(ctx)
}

// Close releases the underlying client.
func (c *Consumer) Close() {
	c.client.Close()
}
