package ws

import "github.com/stratking/matchmaker/internal/model"

// MessageType tags an inbound client message.
// The set is closed: every recognized tag is listed here and the handler
// switches over it exhaustively, with unknown tags answered by an error
// event rather than a connection close.
type MessageType string

const (
	MessageQueueJoin  MessageType = "queue_join"
	MessageQueueLeave MessageType = "queue_leave"
	MessagePing       MessageType = "ping"
)

// InboundMessage is a decoded client message
type InboundMessage struct {
	Type MessageType `json:"type"`
	// GameMode is required for queue_join and queue_leave
	GameMode model.GameMode `json:"game_mode,omitempty"`
}
