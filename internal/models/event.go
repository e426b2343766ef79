package models

// Inbound frame types understood by the websocket endpoint.
const (
	ClientEventJoin    = "join"
	ClientEventMessage = "message"
)

// ClientEvent is an inbound websocket frame. Type discriminates the variant;
// the remaining fields are optional depending on the type.
type ClientEvent struct {
	Type  string `json:"type"`
	Room  string `json:"room"`
	Text  string `json:"message,omitempty"`
	Image string `json:"image,omitempty"`
}

// JoinedEvent acknowledges a join privately to the joining connection and
// carries its assigned identity so clients can recognize their own echoes.
type JoinedEvent struct {
	Type string `json:"type"`
	SID  string `json:"sid"`
}

// NewJoinedEvent builds a joined acknowledgment.
func NewJoinedEvent(sid string) JoinedEvent {
	return JoinedEvent{Type: "joined", SID: sid}
}

// StatusEvent announces a new member to everyone already in the room.
type StatusEvent struct {
	Type string `json:"type"`
	Msg  string `json:"msg"`
	SID  string `json:"sid"`
}

// NewMemberJoinedEvent builds the member-joined announcement.
func NewMemberJoinedEvent(sid string) StatusEvent {
	return StatusEvent{Type: "status", Msg: "A user has entered the room.", SID: sid}
}

// MessageEvent carries a live or replayed message. Image is the servable
// attachment URL, or "" when the message has no attachment.
type MessageEvent struct {
	Type      string `json:"type"`
	Text      string `json:"message"`
	Image     string `json:"image"`
	Timestamp string `json:"timestamp"`
	SenderSID string `json:"sender_sid"`
}

// NewMessageEvent builds the message frame from a stored row and its
// servable attachment URL.
func NewMessageEvent(msg Message, imageURL string) MessageEvent {
	return MessageEvent{
		Type:      "message",
		Text:      msg.Text,
		Image:     imageURL,
		Timestamp: msg.DisplayTime(),
		SenderSID: msg.SenderSID,
	}
}

// ErrorEvent reports a validation or storage failure privately to the sender.
type ErrorEvent struct {
	Type string `json:"type"`
	Msg  string `json:"msg"`
}

// NewErrorEvent builds an error frame.
func NewErrorEvent(msg string) ErrorEvent {
	return ErrorEvent{Type: "error", Msg: msg}
}
