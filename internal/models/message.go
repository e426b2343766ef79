package models

import "time"

// Message represents one stored chat message. The Image column holds the
// opaque attachment reference (the stored filename) or "" for text-only
// messages. Timestamp is the server-assigned arrival time in UTC and is the
// sole ordering and retention key.
type Message struct {
	ID        int64     `db:"id" json:"id"`
	Room      string    `db:"room" json:"room"`
	Text      string    `db:"message" json:"message"`
	Image     string    `db:"image" json:"image"`
	Timestamp time.Time `db:"timestamp" json:"timestamp"`
	SenderSID string    `db:"sender_sid" json:"sender_sid"`
}

// DisplayTimeFormat renders arrival times with whole-second precision,
// matching what clients show next to each message.
const DisplayTimeFormat = "2006-01-02 15:04:05"

// DisplayTime formats the arrival time for client-facing events.
func (m Message) DisplayTime() string {
	return m.Timestamp.UTC().Format(DisplayTimeFormat)
}
