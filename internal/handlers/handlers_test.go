package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/messagely/apiserver/internal/services"
	"github.com/messagely/apiserver/internal/store"
	"github.com/messagely/apiserver/internal/token"
	"github.com/messagely/apiserver/types"
	"github.com/stretchr/testify/require"
)

const testSecret = "handlers-test-secret"

// In-memory repositories mirroring the SQL stores' contracts: duplicate
// usernames conflict, mark-read only stamps unread rows, lookups miss with
// store.ErrNotFound.

type memUserRepo struct {
	users map[string]types.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: map[string]types.User{}}
}

func (r *memUserRepo) GetByUsername(ctx context.Context, username string) (types.User, error) {
	user, ok := r.users[username]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return user, nil
}

func (r *memUserRepo) List(ctx context.Context) ([]types.Profile, error) {
	profiles := []types.Profile{}
	for _, u := range r.users {
		profiles = append(profiles, u.Profile())
	}
	return profiles, nil
}

func (r *memUserRepo) Create(ctx context.Context, user types.User) (types.User, error) {
	if _, ok := r.users[user.Username]; ok {
		return types.User{}, store.ErrDuplicateUsername
	}
	user.JoinAt = time.Now()
	r.users[user.Username] = user
	return user, nil
}

func (r *memUserRepo) SetLastLogin(ctx context.Context, username string, at time.Time) error {
	user, ok := r.users[username]
	if !ok {
		return store.ErrNotFound
	}
	user.LastLoginAt = &at
	r.users[username] = user
	return nil
}

func (r *memUserRepo) delete(username string) {
	delete(r.users, username)
}

type memMessageRepo struct {
	nextID   int
	messages map[int]types.Message
	users    *memUserRepo
}

func newMemMessageRepo(users *memUserRepo) *memMessageRepo {
	return &memMessageRepo{nextID: 1, messages: map[int]types.Message{}, users: users}
}

func (r *memMessageRepo) Create(ctx context.Context, from, to, body string, sentAt time.Time) (types.Message, error) {
	msg := types.Message{
		ID:           r.nextID,
		FromUsername: from,
		ToUsername:   to,
		Body:         body,
		SentAt:       sentAt,
	}
	r.nextID++
	r.messages[msg.ID] = msg
	return msg, nil
}

func (r *memMessageRepo) GetByID(ctx context.Context, id int) (types.MessageDetail, error) {
	msg, ok := r.messages[id]
	if !ok {
		return types.MessageDetail{}, store.ErrNotFound
	}
	return types.MessageDetail{
		ID:       msg.ID,
		FromUser: r.users.users[msg.FromUsername].Profile(),
		ToUser:   r.users.users[msg.ToUsername].Profile(),
		Body:     msg.Body,
		SentAt:   msg.SentAt,
		ReadAt:   msg.ReadAt,
	}, nil
}

func (r *memMessageRepo) MarkRead(ctx context.Context, id int, at time.Time) (types.Message, error) {
	msg, ok := r.messages[id]
	if !ok {
		return types.Message{}, store.ErrNotFound
	}
	if msg.ReadAt == nil {
		msg.ReadAt = &at
		r.messages[id] = msg
	}
	return msg, nil
}

func (r *memMessageRepo) ListTo(ctx context.Context, username string) ([]types.InboxMessage, error) {
	messages := []types.InboxMessage{}
	for _, msg := range r.messages {
		if msg.ToUsername != username {
			continue
		}
		messages = append(messages, types.InboxMessage{
			ID:       msg.ID,
			FromUser: r.users.users[msg.FromUsername].Profile(),
			Body:     msg.Body,
			SentAt:   msg.SentAt,
			ReadAt:   msg.ReadAt,
		})
	}
	return messages, nil
}

func (r *memMessageRepo) ListFrom(ctx context.Context, username string) ([]types.OutboxMessage, error) {
	messages := []types.OutboxMessage{}
	for _, msg := range r.messages {
		if msg.FromUsername != username {
			continue
		}
		messages = append(messages, types.OutboxMessage{
			ID:     msg.ID,
			ToUser: r.users.users[msg.ToUsername].Profile(),
			Body:   msg.Body,
			SentAt: msg.SentAt,
			ReadAt: msg.ReadAt,
		})
	}
	return messages, nil
}

type testApp struct {
	router *chi.Mux
	users  *memUserRepo
	codec  *token.Codec
}

// newTestApp wires the full route tree over in-memory repositories, the
// same shape server.New builds over postgres.
func newTestApp(t *testing.T) *testApp {
	t.Helper()

	userRepo := newMemUserRepo()
	messageRepo := newMemMessageRepo(userRepo)

	userService := services.NewUserService(userRepo)
	messageService := services.NewMessageService(messageRepo, userRepo)

	codec := token.NewCodec(testSecret, time.Hour)
	authMiddleware := RequireAuth(codec)

	router := chi.NewRouter()
	router.Route("/auth", func(r chi.Router) {
		AuthRouter(r, userService, codec)
	})
	router.Route("/users", func(r chi.Router) {
		UserRouter(r, userService, messageService, authMiddleware)
	})
	router.Route("/messages", func(r chi.Router) {
		MessageRouter(r, messageService, authMiddleware)
	})

	return &testApp{router: router, users: userRepo, codec: codec}
}

func (a *testApp) do(t *testing.T, method, path, bearer string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func (a *testApp) register(t *testing.T, username string) string {
	t.Helper()

	rec := a.do(t, http.MethodPost, "/auth/register", "", RegisterRequest{
		Username:  username,
		Password:  "password",
		FirstName: "Test",
		LastName:  "User",
		Phone:     "+14155550000",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp AuthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var value T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &value))
	return value
}
