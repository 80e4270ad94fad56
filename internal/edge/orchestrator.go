package edge

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gobwas/ws"
	"github.com/rs/zerolog"

	"github.com/pablitocbr/commenter-edge/internal/comment"
	"github.com/pablitocbr/commenter-edge/internal/distribution"
	"github.com/pablitocbr/commenter-edge/internal/eventbus"
	"github.com/pablitocbr/commenter-edge/internal/frame"
	"github.com/pablitocbr/commenter-edge/internal/platform"
	"github.com/pablitocbr/commenter-edge/internal/registry"
	"github.com/pablitocbr/commenter-edge/internal/resolver"
)

// producer is the subset of eventbus.Producer the orchestrator depends on,
// broken out so dispatch logic can be tested against a fake without a live
// broker.
type producer interface {
	Produce(ctx context.Context, topic string, key, value []byte) error
}

// resolverClient is the subset of resolver.Resolver the orchestrator
// depends on, broken out for the same reason.
type resolverClient interface {
	Resolve(ctx context.Context, id string) (comment.Comment, error)
}

// Orchestrator wires the registry, distribution map, resolver, and event bus
// together into the connection lifecycle: upgrade, register, pump, dispatch,
// and — for the lifetime of the process — consume.
type Orchestrator struct {
	registry        *registry.Registry
	dist            *distribution.Map
	resolver        resolverClient
	resolverTimeout time.Duration
	producer        producer
	metrics         *platform.Metrics
	logger          zerolog.Logger
}

// New builds an Orchestrator from its already-constructed collaborators.
// resolverTimeout bounds each Resolve call dispatched from an UPDATE/DELETE
// SEND and should be the same RESOLVER_TIMEOUT duration used to build res's
// http.Client, so the two stay in sync.
func New(reg *registry.Registry, dist *distribution.Map, res *resolver.Resolver, resolverTimeout time.Duration, prod *eventbus.Producer, metrics *platform.Metrics, logger zerolog.Logger) *Orchestrator {
	return &Orchestrator{registry: reg, dist: dist, resolver: res, resolverTimeout: resolverTimeout, producer: prod, metrics: metrics, logger: logger}
}

// HandleUpgrade is the http.HandlerFunc that accepts one WebSocket
// connection and runs its lifecycle to completion: build the outbound
// queue, register, spawn the egress pump, run the ingress loop, tear down.
func (o *Orchestrator) HandleUpgrade(w http.ResponseWriter, r *http.Request) {
	conn, _, _, err := ws.UpgradeHTTP(r, w)
	if err != nil {
		o.logger.Error().Err(err).Msg("websocket upgrade failed")
		return
	}

	q := registry.NewQueue()
	id := o.registry.Add(q)

	if o.metrics != nil {
		o.metrics.ConnectionsTotal.Inc()
		o.metrics.ConnectionsActive.Inc()
	}

	c := &connection{
		id:            id,
		conn:          conn,
		subscriptions: make(map[string]string),
	}

	go o.writePump(c, q)
	o.readPump(c)

	o.dist.RemoveConnection(id)
	o.registry.Remove(id)
	q.Close()

	if o.metrics != nil {
		o.metrics.ConnectionsActive.Dec()
	}
}

// dispatch handles one decoded client frame.
func (o *Orchestrator) dispatch(c *connection, cf frame.ClientFrame) {
	if o.metrics != nil {
		o.metrics.FramesDecoded.WithLabelValues(kindLabel(cf.Kind)).Inc()
	}

	switch cf.Kind {
	case frame.KindSubscribe:
		o.handleSubscribe(c, cf)
	case frame.KindUnsubscribe:
		o.handleUnsubscribe(c, cf)
	case frame.KindSendCreate:
		o.handleSendCreate(c, cf)
	case frame.KindSendUpdate:
		o.handleSendUpdate(c, cf)
	case frame.KindSendDelete:
		o.handleSendDelete(c, cf)
	}
}

func (o *Orchestrator) handleSubscribe(c *connection, cf frame.ClientFrame) {
	if err := o.dist.Subscribe(c.id, cf.Destination); err != nil {
		o.logger.Debug().Int64("connection_id", int64(c.id)).Str("group_id", cf.Destination).Err(err).Msg("subscribe rejected")
		return
	}
	c.mu.Lock()
	c.subscriptions[cf.SubscribeID] = cf.Destination
	c.mu.Unlock()
}

// handleUnsubscribe looks up which group the subscription id belongs to:
// the frame carries only an "id" header, which is the subscription id
// assigned at SUBSCRIBE time, not the group_id itself. The per-connection
// subscriptions table (populated in handleSubscribe) maps that id back to
// the group it was subscribed to.
func (o *Orchestrator) handleUnsubscribe(c *connection, cf frame.ClientFrame) {
	c.mu.Lock()
	group, ok := c.subscriptions[cf.UnsubscribeID]
	if ok {
		delete(c.subscriptions, cf.UnsubscribeID)
	}
	c.mu.Unlock()

	if !ok {
		return
	}
	o.dist.Unsubscribe(c.id, group)
}

func (o *Orchestrator) handleSendCreate(c *connection, cf frame.ClientFrame) {
	cm := comment.Comment{
		ID:      uuid.NewString(),
		GroupID: cf.Destination,
		Text:    cf.Text,
		State:   comment.Created,
	}
	o.produce(c, cm)
}

func (o *Orchestrator) handleSendUpdate(c *connection, cf frame.ClientFrame) {
	prior, err := o.resolve(c, cf.ID)
	if err != nil {
		return
	}
	cm := comment.Comment{
		ID:      cf.ID,
		GroupID: prior.GroupID,
		Text:    cf.Text,
		State:   comment.Updated,
	}
	o.produce(c, cm)
}

func (o *Orchestrator) handleSendDelete(c *connection, cf frame.ClientFrame) {
	prior, err := o.resolve(c, cf.ID)
	if err != nil {
		return
	}
	cm := comment.Comment{
		ID:      cf.ID,
		GroupID: prior.GroupID,
		Text:    prior.Text,
		State:   comment.Deleted,
	}
	o.produce(c, cm)
}

// resolve fetches prior state for an UPDATE/DELETE SEND. The call is
// synchronous from the caller's perspective, and since readPump is the
// single ingress task for this connection, nothing else on it proceeds
// until resolution completes.
func (o *Orchestrator) resolve(c *connection, id string) (comment.Comment, error) {
	ctx, cancel := context.WithTimeout(context.Background(), o.resolverTimeout)
	defer cancel()

	cm, err := o.resolver.Resolve(ctx, id)
	if err != nil {
		o.logger.Debug().Int64("connection_id", int64(c.id)).Str("comment_id", id).Err(err).Msg("resolver error, dropping send")
	}
	return cm, err
}

func (o *Orchestrator) produce(c *connection, cm comment.Comment) {
	if err := cm.Valid(); err != nil {
		o.logger.Debug().Int64("connection_id", int64(c.id)).Err(err).Msg("refusing to produce invalid comment")
		return
	}

	ctx := context.Background()
	payload := comment.Encode(cm)
	if err := o.producer.Produce(ctx, eventbus.Topic, []byte(cm.GroupID), payload); err != nil {
		o.logger.Warn().Int64("connection_id", int64(c.id)).Str("comment_id", cm.ID).Err(err).Msg("produce failed")
		return
	}
	if o.metrics != nil {
		o.metrics.MessagesProduced.Inc()
	}
}

func kindLabel(k frame.Kind) string {
	switch k {
	case frame.KindSendCreate:
		return "SEND_CREATE"
	case frame.KindSendUpdate:
		return "SEND_UPDATE"
	case frame.KindSendDelete:
		return "SEND_DELETE"
	case frame.KindSubscribe:
		return "SUBSCRIBE"
	case frame.KindUnsubscribe:
		return "UNSUBSCRIBE"
	case frame.KindDisconnect:
		return "DISCONNECT"
	default:
		return "UNKNOWN"
	}
}
