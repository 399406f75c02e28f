package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/messagely/apiserver/internal/services"
	"github.com/messagely/apiserver/internal/store"
	"github.com/messagely/apiserver/types"
)

// UserHandler provides HTTP handlers for user profiles and their
// inbox/outbox views.
type UserHandler struct {
	userService    *services.UserService
	messageService *services.MessageService
}

func NewUserHandler(userService *services.UserService, messageService *services.MessageService) *UserHandler {
	return &UserHandler{
		userService:    userService,
		messageService: messageService,
	}
}

// UserRouter registers user routes on the given router. Listing requires
// authentication only; everything under /{username} is restricted to that
// user.
func UserRouter(
	r chi.Router,
	userService *services.UserService,
	messageService *services.MessageService,
	authMiddleware func(http.Handler) http.Handler,
) {
	handler := NewUserHandler(userService, messageService)

	r.With(authMiddleware).Get("/", handler.ListUsers)
	r.Route("/{username}", func(r chi.Router) {
		r.Use(authMiddleware, RequireSameUser)
		r.Get("/", handler.GetUser)
		r.Get("/to", handler.Inbox)
		r.Get("/from", handler.Outbox)
	})
}

func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.userService.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list users")
		return
	}
	writeJSON(w, http.StatusOK, UserListResponse{Users: users})
}

func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")

	user, err := h.userService.Get(r.Context(), username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to fetch user")
		return
	}
	writeJSON(w, http.StatusOK, UserResponse{User: user})
}

// Inbox returns the messages sent to the user, each with the sender's
// profile.
func (h *UserHandler) Inbox(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")

	messages, err := h.messageService.Inbox(r.Context(), username)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to fetch messages")
		return
	}
	writeJSON(w, http.StatusOK, InboxResponse{Messages: messages})
}

// Outbox returns the messages sent by the user, each with the recipient's
// profile.
func (h *UserHandler) Outbox(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")

	messages, err := h.messageService.Outbox(r.Context(), username)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to fetch messages")
		return
	}
	writeJSON(w, http.StatusOK, OutboxResponse{Messages: messages})
}

type UserListResponse struct {
	Users []types.Profile `json:"users"`
}

type UserResponse struct {
	User types.User `json:"user"`
}

type InboxResponse struct {
	Messages []types.InboxMessage `json:"messages"`
}

type OutboxResponse struct {
	Messages []types.OutboxMessage `json:"messages"`
}
