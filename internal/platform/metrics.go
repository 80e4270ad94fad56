package platform

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics covers what the system's components actually move: connection
// counts on the edge, message flow across the frame codec and distribution
// map, and projector upserts.
type Metrics struct {
	ConnectionsTotal  prometheus.Counter
	ConnectionsActive prometheus.Gauge
	FramesDecoded     *prometheus.CounterVec
	FramesParseErrors prometheus.Counter
	MessagesProduced  prometheus.Counter
	MessagesConsumed  prometheus.Counter
	MessagesBroadcast prometheus.Counter
	StoreUpserts      prometheus.Counter
	StoreFailures     prometheus.Counter
}

// NewMetrics registers and returns the metric set against reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ConnectionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "commenter_connections_total",
			Help: "Total WebSocket connections established.",
		}),
		ConnectionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "commenter_connections_active",
			Help: "Current number of active WebSocket connections.",
		}),
		FramesDecoded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "commenter_client_frames_decoded_total",
			Help: "Client frames decoded, by command.",
		}, []string{"command"}),
		FramesParseErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "commenter_client_frame_parse_errors_total",
			Help: "Client frames dropped for failing to parse.",
		}),
		MessagesProduced: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "commenter_messages_produced_total",
			Help: "Comments produced to the event bus.",
		}),
		MessagesConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "commenter_messages_consumed_total",
			Help: "Comments consumed from the event bus.",
		}),
		MessagesBroadcast: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "commenter_messages_broadcast_total",
			Help: "MESSAGE frames fanned out to subscribers.",
		}),
		StoreUpserts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "commenter_store_upserts_total",
			Help: "Successful projector upserts.",
		}),
		StoreFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "commenter_store_failures_total",
			Help: "Projector records that failed to decode or upsert and were not committed.",
		}),
	}

	reg.MustRegister(
		m.ConnectionsTotal,
		m.ConnectionsActive,
		m.FramesDecoded,
		m.FramesParseErrors,
		m.MessagesProduced,
		m.MessagesConsumed,
		m.MessagesBroadcast,
		m.StoreUpserts,
		m.StoreFailures,
	)

	return m
}
