// Package edge is the WebSocket orchestrator: it upgrades connections,
// runs their egress/ingress pumps, dispatches decoded client frames against
// the resolver and event bus, and runs the single process-wide consumer
// task that turns bus records into broadcasts.
package edge

import (
	"net"
	"sync"
	"time"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"

	"github.com/pablitocbr/commenter-edge/internal/frame"
	"github.com/pablitocbr/commenter-edge/internal/registry"
)

// Pump timings.
const (
	writeWait  = 5 * time.Second
	pongWait   = 30 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// connection is one accepted WebSocket, paired with its registry identity
// and its per-connection subscription table. Subscriptions are keyed by the
// SUBSCRIBE frame's "id" header: UNSUBSCRIBE carries only that id, and this
// table is how it maps back to the group_id being unsubscribed.
type connection struct {
	id   registry.ID
	conn net.Conn

	mu            sync.Mutex
	subscriptions map[string]string // subscribe id header -> group_id
}

// writePump is the connection's egress task: it drains the outbound queue,
// writing each frame to the socket, and sends a ping on pingPeriod so idle
// connections are detected.
func (o *Orchestrator) writePump(c *connection, q *registry.Queue) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	defer c.conn.Close()

	popped := make(chan frame.ServerFrame)
	closed := make(chan struct{})
	done := make(chan struct{})
	defer close(done)
	go func() {
		for {
			f, ok := q.Pop()
			if !ok {
				close(closed)
				return
			}
			select {
			case popped <- f:
			case <-done:
				return
			}
		}
	}()

	for {
		select {
		case f := <-popped:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := wsutil.WriteServerMessage(c.conn, ws.OpText, frame.Encode(f)); err != nil {
				o.logger.Debug().Int64("connection_id", int64(c.id)).Err(err).Msg("write failed, closing connection")
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := wsutil.WriteServerMessage(c.conn, ws.OpPing, nil); err != nil {
				o.logger.Debug().Int64("connection_id", int64(c.id)).Err(err).Msg("ping failed, closing connection")
				return
			}
		case <-closed:
			wsutil.WriteServerMessage(c.conn, ws.OpClose, nil)
			return
		}
	}
}

// readPump is the ingress loop: read one WS message, decode it, dispatch
// it, repeat. Sequential by construction — a SEND that blocks on the
// resolver or the bus blocks only this connection's further reads.
func (o *Orchestrator) readPump(c *connection) {
	c.conn.SetReadDeadline(time.Now().Add(pongWait))

	for {
		msg, op, err := wsutil.ReadClientData(c.conn)
		if err != nil {
			return
		}
		c.conn.SetReadDeadline(time.Now().Add(pongWait))

		if op == ws.OpClose {
			return
		}
		if op != ws.OpText {
			continue
		}

		cf, err := frame.Decode(msg)
		if err != nil {
			o.logger.Debug().Int64("connection_id", int64(c.id)).Err(err).Msg("dropping unparseable frame")
			if o.metrics != nil {
				o.metrics.FramesParseErrors.Inc()
			}
			continue
		}

		if cf.Kind == frame.KindDisconnect {
			return
		}

		o.dispatch(c, cf)
	}
}
