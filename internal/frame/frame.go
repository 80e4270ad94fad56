// Package frame implements the STOMP-like line-oriented frame protocol
// spoken over client WebSocket connections: decoding inbound client frames
// and encoding outbound server frames.
//
// Wire grammar:
//
//	COMMAND LF
//	HEADER-LINE LF
//	...
//	HEADER-LINE LF
//	LF
//	BODY
//	NUL
//
// LF is accepted as either "\n" or "\r\n", and the two forms may be mixed
// within a single frame. HEADER-LINE is "name:value", split on exactly one
// colon; no trimming, no escaping.
package frame

import "fmt"

// Client commands recognized on input.
const (
	CmdSend        = "SEND"
	CmdSubscribe   = "SUBSCRIBE"
	CmdUnsubscribe = "UNSUBSCRIBE"
	CmdDisconnect  = "DISCONNECT"
)

// Server command emitted on output.
const CmdMessage = "MESSAGE"

// Header names used by the protocol.
const (
	HeaderDestination = "destination"
	HeaderID          = "id"
	HeaderAction      = "action"
)

// Send actions.
const (
	ActionCreate = "CREATE"
	ActionUpdate = "UPDATE"
	ActionDelete = "DELETE"
)

// Kind tags the variant of a decoded ClientFrame.
type Kind int

const (
	KindSendCreate Kind = iota
	KindSendUpdate
	KindSendDelete
	KindSubscribe
	KindUnsubscribe
	KindDisconnect
)

// ClientFrame is the decoded form of a frame sent by a client. It is a
// tagged union over Kind; only the fields relevant to that Kind are set.
type ClientFrame struct {
	Kind Kind

	// SEND CREATE
	Destination string
	Text        string

	// SEND UPDATE / SEND DELETE
	ID string

	// SUBSCRIBE
	SubscribeID string // the "id" header value for SUBSCRIBE

	// UNSUBSCRIBE
	UnsubscribeID string // the "id" header value for UNSUBSCRIBE
}

// ServerFrame is a frame the edge emits to a client. The protocol only ever
// emits MESSAGE frames, but Command is kept generic so the codec isn't
// hand-tied to one variant.
type ServerFrame struct {
	Command string
	Headers map[string]string
	Text    string
}

// NewMessage builds the single server-to-client frame shape the protocol
// uses: a MESSAGE with destination/id/action headers and a text body.
func NewMessage(destination, id, action, text string) ServerFrame {
	return ServerFrame{
		Command: CmdMessage,
		Headers: map[string]string{
			HeaderDestination: destination,
			HeaderID:          id,
			HeaderAction:      action,
		},
		Text: text,
	}
}

// ParseError describes a malformed or unsupported client frame.
type ParseError struct {
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("frame: parse error: %s", e.Reason)
}

func parseErrorf(format string, args ...any) error {
	return &ParseError{Reason: fmt.Sprintf(format, args...)}
}
