package server

// WebSocket event types pushed to connected clients.
const (
	EventMembershipChanged = "membership_changed"
	EventLikeChanged       = "like_changed"
)

// wsFrame is the envelope for events pushed over WebSocket.
type wsFrame struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}
