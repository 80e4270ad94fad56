package hotstorage

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pablitocbr/commenter-edge/internal/comment"
	"github.com/pablitocbr/commenter-edge/internal/eventbus"
	"github.com/pablitocbr/commenter-edge/internal/platform"
)

type fakeConsumer struct {
	batches   [][]eventbus.Record
	calls     int32
	commits   int32
	commitErr error
}

func (f *fakeConsumer) Poll(ctx context.Context, timeout time.Duration) ([]eventbus.Record, error) {
	n := atomic.AddInt32(&f.calls, 1) - 1
	if int(n) >= len(f.batches) {
		<-ctx.Done()
		return nil, nil
	}
	return f.batches[n], nil
}

func (f *fakeConsumer) CommitRecords(ctx context.Context) error {
	atomic.AddInt32(&f.commits, 1)
	return f.commitErr
}

type fakeWriter struct {
	mu       sync.Mutex
	upserted []comment.Comment
	failOn   string
}

func (f *fakeWriter) Upsert(ctx context.Context, c comment.Comment) error {
	if f.failOn != "" && c.ID == f.failOn {
		return errors.New("store unavailable")
	}
	f.mu.Lock()
	f.upserted = append(f.upserted, c)
	f.mu.Unlock()
	return nil
}

func newTestProjector(consumer busConsumer, w writer) *Projector {
	metrics := platform.NewMetrics(prometheus.NewRegistry())
	return &Projector{consumer: consumer, store: w, metrics: metrics, logger: zerolog.Nop()}
}

func TestRunUpsertsAndCommitsOnSuccess(t *testing.T) {
	cm := comment.Comment{ID: "c1", GroupID: "g1", Text: "hi", State: comment.Created}
	consumer := &fakeConsumer{batches: [][]eventbus.Record{
		{{Value: comment.Encode(cm)}},
	}}
	w := &fakeWriter{}
	p := newTestProjector(consumer, w)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	p.Run(ctx)

	require.Len(t, w.upserted, 1)
	assert.Equal(t, cm, w.upserted[0])
	assert.Equal(t, int32(1), atomic.LoadInt32(&consumer.commits))
}

func TestRunDoesNotCommitOnDecodeFailure(t *testing.T) {
	consumer := &fakeConsumer{batches: [][]eventbus.Record{
		{{Value: []byte{0xFF, 0xFF, 0xFF}}},
	}}
	w := &fakeWriter{}
	p := newTestProjector(consumer, w)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	p.Run(ctx)

	assert.Empty(t, w.upserted)
	assert.Equal(t, int32(0), atomic.LoadInt32(&consumer.commits))
}

func TestRunDoesNotCommitOnStoreFailure(t *testing.T) {
	cm := comment.Comment{ID: "c1", GroupID: "g1", Text: "hi", State: comment.Created}
	consumer := &fakeConsumer{batches: [][]eventbus.Record{
		{{Value: comment.Encode(cm)}},
	}}
	w := &fakeWriter{failOn: "c1"}
	p := newTestProjector(consumer, w)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	p.Run(ctx)

	assert.Empty(t, w.upserted)
	assert.Equal(t, int32(0), atomic.LoadInt32(&consumer.commits))
}

func TestRunStopsOnContextCancel(t *testing.T) {
	consumer := &fakeConsumer{}
	p := newTestProjector(consumer, &fakeWriter{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after context cancellation")
	}
}
