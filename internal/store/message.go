package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/messagely/apiserver/types"
)

// MessageRepository handles persistence for messages.
type MessageRepository struct {
	db *sql.DB
}

func NewMessageRepository(db *sql.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

func (r *MessageRepository) Create(ctx context.Context, from, to, body string, sentAt time.Time) (types.Message, error) {
	const query = `
		INSERT INTO messages (from_username, to_username, body, sent_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id`
	msg := types.Message{
		FromUsername: from,
		ToUsername:   to,
		Body:         body,
		SentAt:       sentAt,
	}
	if err := r.db.QueryRowContext(ctx, query, from, to, body, sentAt).Scan(&msg.ID); err != nil {
		return types.Message{}, err
	}
	return msg, nil
}

// GetByID returns the message with both participants' profiles resolved.
func (r *MessageRepository) GetByID(ctx context.Context, id int) (types.MessageDetail, error) {
	const query = `
		SELECT m.id, m.body, m.sent_at, m.read_at,
			f.username, f.first_name, f.last_name, f.phone,
			t.username, t.first_name, t.last_name, t.phone
		FROM messages m
		JOIN users f ON f.username = m.from_username
		JOIN users t ON t.username = m.to_username
		WHERE m.id = $1`
	var d types.MessageDetail
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&d.ID,
		&d.Body,
		&d.SentAt,
		&d.ReadAt,
		&d.FromUser.Username,
		&d.FromUser.FirstName,
		&d.FromUser.LastName,
		&d.FromUser.Phone,
		&d.ToUser.Username,
		&d.ToUser.FirstName,
		&d.ToUser.LastName,
		&d.ToUser.Phone,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.MessageDetail{}, ErrNotFound
		}
		return types.MessageDetail{}, err
	}
	return d, nil
}

// MarkRead stamps read_at on an unread message and returns the updated
// record. Re-marking an already-read message is a no-op that returns the
// original timestamp.
func (r *MessageRepository) MarkRead(ctx context.Context, id int, at time.Time) (types.Message, error) {
	const update = `
		UPDATE messages
		SET read_at = $1
		WHERE id = $2 AND read_at IS NULL`
	if _, err := r.db.ExecContext(ctx, update, at, id); err != nil {
		return types.Message{}, err
	}

	const query = `
		SELECT id, from_username, to_username, body, sent_at, read_at
		FROM messages
		WHERE id = $1`
	var msg types.Message
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&msg.ID,
		&msg.FromUsername,
		&msg.ToUsername,
		&msg.Body,
		&msg.SentAt,
		&msg.ReadAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Message{}, ErrNotFound
		}
		return types.Message{}, err
	}
	return msg, nil
}

// ListTo returns the messages addressed to a user, newest first, with each
// sender's profile resolved.
func (r *MessageRepository) ListTo(ctx context.Context, username string) ([]types.InboxMessage, error) {
	const query = `
		SELECT m.id, m.body, m.sent_at, m.read_at,
			f.username, f.first_name, f.last_name, f.phone
		FROM messages m
		JOIN users f ON f.username = m.from_username
		WHERE m.to_username = $1
		ORDER BY m.sent_at DESC, m.id DESC`
	rows, err := r.db.QueryContext(ctx, query, username)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := []types.InboxMessage{}
	for rows.Next() {
		var m types.InboxMessage
		err := rows.Scan(
			&m.ID,
			&m.Body,
			&m.SentAt,
			&m.ReadAt,
			&m.FromUser.Username,
			&m.FromUser.FirstName,
			&m.FromUser.LastName,
			&m.FromUser.Phone,
		)
		if err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// ListFrom returns the messages sent by a user, newest first, with each
// recipient's profile resolved.
func (r *MessageRepository) ListFrom(ctx context.Context, username string) ([]types.OutboxMessage, error) {
	const query = `
		SELECT m.id, m.body, m.sent_at, m.read_at,
			t.username, t.first_name, t.last_name, t.phone
		FROM messages m
		JOIN users t ON t.username = m.to_username
		WHERE m.from_username = $1
		ORDER BY m.sent_at DESC, m.id DESC`
	rows, err := r.db.QueryContext(ctx, query, username)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := []types.OutboxMessage{}
	for rows.Next() {
		var m types.OutboxMessage
		err := rows.Scan(
			&m.ID,
			&m.Body,
			&m.SentAt,
			&m.ReadAt,
			&m.ToUser.Username,
			&m.ToUser.FirstName,
			&m.ToUser.LastName,
			&m.ToUser.Phone,
		)
		if err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}
