package boarddto

// Client event types.
const (
	EventPointerMove = "pointermove"
	EventClick       = "click"
	EventScroll      = "scroll"
	EventReset       = "reset"
)

// ClientEvent is an inbound pointer or view event. X and Y are normalized
// device coordinates; Progress is the scroll progress in [0,1].
type ClientEvent struct {
	Type     string  `json:"type"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Progress float64 `json:"progress"`
	FEN      string  `json:"fen,omitempty"`
}

// Server message types.
const (
	MessageFrame = "frame"
	MessageClick = "click"
	MessageError = "error"
)

// ServerMessage wraps outbound websocket payloads. Outcome answers a click.
type ServerMessage struct {
	Type    string       `json:"type"`
	Frame   *Frame       `json:"frame,omitempty"`
	Outcome string       `json:"outcome,omitempty"`
	Error   *DomainError `json:"error,omitempty"`
}

// ResetRequest is the body of POST /reset.
type ResetRequest struct {
	FEN string `json:"fen"`
}

type HealthResponse struct {
	Status string `json:"status"`
	Seq    uint64 `json:"seq"`
}
