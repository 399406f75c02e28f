package types

import "time"

// Message is a short text message exchanged between two users. It is
// jointly owned by its sender and recipient; no third user may observe
// or mutate it.
type Message struct {
	// ID is the unique identifier of the message.
	ID int `json:"id" db:"id"`

	// FromUsername is the username of the sender.
	FromUsername string `json:"from_username" db:"from_username"`

	// ToUsername is the username of the recipient.
	ToUsername string `json:"to_username" db:"to_username"`

	// Body is the message text.
	Body string `json:"body" db:"body"`

	// SentAt is the timestamp the message was created. Immutable.
	SentAt time.Time `json:"sent_at" db:"sent_at"`

	// ReadAt is the timestamp the recipient marked the message read.
	// Nil until then; once set it never changes.
	ReadAt *time.Time `json:"read_at" db:"read_at"`
}

// MessageDetail is a Message with both participants' profiles resolved.
type MessageDetail struct {
	ID       int        `json:"id"`
	FromUser Profile    `json:"from_user"`
	ToUser   Profile    `json:"to_user"`
	Body     string     `json:"body"`
	SentAt   time.Time  `json:"sent_at"`
	ReadAt   *time.Time `json:"read_at"`
}

// InboxMessage is a received message with the sender's profile resolved.
type InboxMessage struct {
	ID       int        `json:"id"`
	FromUser Profile    `json:"from_user"`
	Body     string     `json:"body"`
	SentAt   time.Time  `json:"sent_at"`
	ReadAt   *time.Time `json:"read_at"`
}

// OutboxMessage is a sent message with the recipient's profile resolved.
type OutboxMessage struct {
	ID     int        `json:"id"`
	ToUser Profile    `json:"to_user"`
	Body   string     `json:"body"`
	SentAt time.Time  `json:"sent_at"`
	ReadAt *time.Time `json:"read_at"`
}

// Message returns the flat message record underlying the detail view.
func (d MessageDetail) Message() Message {
	return Message{
		ID:           d.ID,
		FromUsername: d.FromUser.Username,
		ToUsername:   d.ToUser.Username,
		Body:         d.Body,
		SentAt:       d.SentAt,
		ReadAt:       d.ReadAt,
	}
}
