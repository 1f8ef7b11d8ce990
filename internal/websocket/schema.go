package websocket

import "github.com/stemsi/formbuilder/internal/model"

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionDragStart Action = "drag_start"
	ActionHover     Action = "hover"
	ActionDrop      Action = "drop"
	ActionCancel    Action = "cancel"
	ActionPing      Action = "ping"
)

// Request is one client message. Index is required by drag_start and hover.
type Request struct {
	Action Action `json:"action"`
	Index  *int   `json:"index,omitempty"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventDragging Event = "dragging"
	EventMoved    Event = "moved"
	EventIdle     Event = "idle"
	EventError    Event = "error"
	EventPong     Event = "pong"
)

// DraggingResponse confirms a grab and echoes the tracked index.
type DraggingResponse struct {
	Event Event `json:"event"`
	Index int   `json:"index"`
}

// MovedResponse carries the committed reorder and the resulting form.
type MovedResponse struct {
	Event     Event        `json:"event"`
	From      int          `json:"from"`
	To        int          `json:"to"`
	Questions model.Forest `json:"questions"`
}

// IdleResponse is sent after a drop or cancel.
type IdleResponse struct {
	Event Event `json:"event"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
