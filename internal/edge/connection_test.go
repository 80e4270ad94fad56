package edge

import (
	"net"
	"testing"
	"time"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pablitocbr/commenter-edge/internal/frame"
	"github.com/pablitocbr/commenter-edge/internal/registry"
)

func newPipeConnection(t *testing.T, reg *registry.Registry) (*connection, *registry.Queue, net.Conn) {
	t.Helper()
	server, client := net.Pipe()
	t.Cleanup(func() {
		server.Close()
		client.Close()
	})

	q := registry.NewQueue()
	t.Cleanup(q.Close)
	id := reg.Add(q)
	c := &connection{id: id, conn: server, subscriptions: make(map[string]string)}
	return c, q, client
}

func TestReadPumpDispatchesSubscribeAndStopsOnDisconnect(t *testing.T) {
	o, reg, dist := newTestOrchestrator(&fakeProducer{}, &fakeResolver{})
	c, _, client := newPipeConnection(t, reg)

	done := make(chan struct{})
	go func() {
		o.readPump(c)
		close(done)
	}()

	err := wsutil.WriteClientMessage(client, ws.OpText, []byte("SUBSCRIBE\ndestination:room-1\nid:s1\n\n"))
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		for _, id := range dist.Members("room-1") {
			if id == c.id {
				return true
			}
		}
		return false
	}, time.Second, 10*time.Millisecond)

	err = wsutil.WriteClientMessage(client, ws.OpText, []byte("DISCONNECT\n\n"))
	require.NoError(t, err)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("readPump did not stop after DISCONNECT")
	}
}

func TestReadPumpSkipsUnparseableFrame(t *testing.T) {
	o, reg, dist := newTestOrchestrator(&fakeProducer{}, &fakeResolver{})
	c, _, client := newPipeConnection(t, reg)

	done := make(chan struct{})
	go func() {
		o.readPump(c)
		close(done)
	}()

	require.NoError(t, wsutil.WriteClientMessage(client, ws.OpText, []byte("WIGGLE\n\n")))
	require.NoError(t, wsutil.WriteClientMessage(client, ws.OpText, []byte("SUBSCRIBE\ndestination:room-1\nid:s1\n\n")))

	assert.Eventually(t, func() bool {
		return len(dist.Members("room-1")) == 1
	}, time.Second, 10*time.Millisecond)

	require.NoError(t, wsutil.WriteClientMessage(client, ws.OpText, []byte("DISCONNECT\n\n")))
	<-done
}

func TestWritePumpWritesQueuedFrames(t *testing.T) {
	o, reg, _ := newTestOrchestrator(&fakeProducer{}, &fakeResolver{})
	c, q, client := newPipeConnection(t, reg)

	go o.writePump(c, q)

	sent := frame.NewMessage("room-1", "x", "CREATED", "hi")
	require.True(t, q.Push(sent))

	client.SetReadDeadline(time.Now().Add(time.Second))
	data, op, err := wsutil.ReadServerData(client)
	require.NoError(t, err)
	require.Equal(t, ws.OpText, op)

	got, err := frame.DecodeServerFrame(data)
	require.NoError(t, err)
	assert.Equal(t, sent.Command, got.Command)
	assert.Equal(t, sent.Headers, got.Headers)
	assert.Equal(t, sent.Text, got.Text)
}

func TestWritePumpClosesSocketWhenQueueCloses(t *testing.T) {
	o, reg, _ := newTestOrchestrator(&fakeProducer{}, &fakeResolver{})
	c, q, client := newPipeConnection(t, reg)

	go o.writePump(c, q)
	q.Close()

	client.SetReadDeadline(time.Now().Add(time.Second))
	_, _, err := wsutil.ReadServerData(client)
	assert.Error(t, err)
}
