package services

import (
	"context"
	"errors"
	"time"

	"github.com/messagely/apiserver/internal/store"
	"github.com/messagely/apiserver/types"
)

// ErrUnknownRecipient is returned by Send when the target username does not
// resolve to an existing user.
var ErrUnknownRecipient = errors.New("unknown recipient")

// MessageRepository defines persistence operations for messages.
type MessageRepository interface {
	Create(ctx context.Context, from, to, body string, sentAt time.Time) (types.Message, error)
	GetByID(ctx context.Context, id int) (types.MessageDetail, error)
	MarkRead(ctx context.Context, id int, at time.Time) (types.Message, error)
	ListTo(ctx context.Context, username string) ([]types.InboxMessage, error)
	ListFrom(ctx context.Context, username string) ([]types.OutboxMessage, error)
}

// MessageService encapsulates message use-cases. Access decisions stay with
// the caller; the service only enforces that a recipient exists before a
// message is created.
type MessageService struct {
	repo  MessageRepository
	users UserRepository
}

func NewMessageService(repo MessageRepository, users UserRepository) *MessageService {
	return &MessageService{repo: repo, users: users}
}

// Send creates a message from the authenticated sender to the named
// recipient. The recipient must exist; sending to oneself is allowed.
func (s *MessageService) Send(ctx context.Context, from, to, body string) (types.Message, error) {
	if _, err := s.users.GetByUsername(ctx, to); err != nil {
		if isNotFound(err) {
			return types.Message{}, ErrUnknownRecipient
		}
		return types.Message{}, err
	}
	return s.repo.Create(ctx, from, to, body, time.Now())
}

func (s *MessageService) Get(ctx context.Context, id int) (types.MessageDetail, error) {
	return s.repo.GetByID(ctx, id)
}

// MarkRead stamps read_at on the message. The caller must have already
// established that the acting user is the recipient. Marking an
// already-read message leaves the original timestamp in place.
func (s *MessageService) MarkRead(ctx context.Context, id int) (types.Message, error) {
	return s.repo.MarkRead(ctx, id, time.Now())
}

func (s *MessageService) Inbox(ctx context.Context, username string) ([]types.InboxMessage, error) {
	return s.repo.ListTo(ctx, username)
}

func (s *MessageService) Outbox(ctx context.Context, username string) ([]types.OutboxMessage, error) {
	return s.repo.ListFrom(ctx, username)
}

func isNotFound(err error) bool {
	return errors.Is(err, store.ErrNotFound)
}
