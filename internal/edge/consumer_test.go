package edge

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pablitocbr/commenter-edge/internal/comment"
	"github.com/pablitocbr/commenter-edge/internal/eventbus"
)

type fakeBusConsumer struct {
	batches [][]eventbus.Record
	calls   int32
}

func (f *fakeBusConsumer) Poll(ctx context.Context, timeout time.Duration) ([]eventbus.Record, error) {
	n := atomic.AddInt32(&f.calls, 1) - 1
	if int(n) >= len(f.batches) {
		<-ctx.Done()
		return nil, nil
	}
	return f.batches[n], nil
}

func TestConsumeLoopBroadcastsToSubscribers(t *testing.T) {
	o, reg, dist := newTestOrchestrator(&fakeProducer{}, &fakeResolver{})
	c, q := newTestConnection(reg)
	require.NoError(t, dist.Subscribe(c.id, "group-1"))

	cm := comment.Comment{ID: "c1", GroupID: "group-1", Text: "hi", State: comment.Created}
	fake := &fakeBusConsumer{batches: [][]eventbus.Record{
		{{Key: []byte("group-1"), Value: comment.Encode(cm)}},
	}}

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	o.ConsumeLoop(ctx, fake)

	f, ok := q.Pop()
	require.True(t, ok)
	assert.Equal(t, "group-1", f.Headers["destination"])
	assert.Equal(t, "c1", f.Headers["id"])
	assert.Equal(t, "CREATED", f.Headers["action"])
	assert.Equal(t, "hi", f.Text)
}

func TestConsumeLoopSkipsUndecodableRecord(t *testing.T) {
	o, reg, dist := newTestOrchestrator(&fakeProducer{}, &fakeResolver{})
	c, q := newTestConnection(reg)
	require.NoError(t, dist.Subscribe(c.id, "group-1"))

	fake := &fakeBusConsumer{batches: [][]eventbus.Record{
		{{Key: []byte("group-1"), Value: []byte{0xFF, 0xFF, 0xFF}}},
	}}

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	o.ConsumeLoop(ctx, fake)

	assert.Equal(t, 0, q.Len())
}

func TestConsumeLoopStopsOnContextCancel(t *testing.T) {
	o, _, _ := newTestOrchestrator(&fakeProducer{}, &fakeResolver{})

	fake := &fakeBusConsumer{}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		o.ConsumeLoop(ctx, fake)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("ConsumeLoop did not stop after context cancellation")
	}
}
