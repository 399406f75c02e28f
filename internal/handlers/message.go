package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/messagely/apiserver/internal/policy"
	"github.com/messagely/apiserver/internal/services"
	"github.com/messagely/apiserver/internal/store"
	"github.com/messagely/apiserver/types"
)

// MessageHandler provides HTTP handlers for messages. Every route requires
// authentication; per-message access is decided by the policy predicates
// against a fresh read of the message.
type MessageHandler struct {
	messageService *services.MessageService
}

func NewMessageHandler(messageService *services.MessageService) *MessageHandler {
	return &MessageHandler{messageService: messageService}
}

// MessageRouter registers message routes on the given router.
func MessageRouter(
	r chi.Router,
	messageService *services.MessageService,
	authMiddleware func(http.Handler) http.Handler,
) {
	handler := NewMessageHandler(messageService)

	r.Use(authMiddleware)
	r.Post("/", handler.SendMessage)
	r.Route("/{messageID}", func(r chi.Router) {
		r.Get("/", handler.GetMessage)
		r.Post("/read", handler.MarkRead)
	})
}

// SendMessage creates a message from the authenticated caller to the named
// recipient.
func (h *MessageHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	caller, err := usernameFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	req.ToUsername = strings.TrimSpace(req.ToUsername)
	if req.ToUsername == "" || strings.TrimSpace(req.Body) == "" {
		writeError(w, http.StatusBadRequest, "missing required fields")
		return
	}

	msg, err := h.messageService.Send(r.Context(), caller, req.ToUsername, req.Body)
	if err != nil {
		if errors.Is(err, services.ErrUnknownRecipient) {
			writeError(w, http.StatusNotFound, "recipient not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to send message")
		return
	}

	writeJSON(w, http.StatusCreated, MessageResponse{Message: msg})
}

// GetMessage returns the message detail. Only the sender or the recipient
// may view it; anyone else gets a 403 even though the message exists.
func (h *MessageHandler) GetMessage(w http.ResponseWriter, r *http.Request) {
	caller, err := usernameFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := parseMessageID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	detail, err := h.messageService.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "message not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to fetch message")
		return
	}

	if !policy.CanRead(caller, detail.Message()) {
		writeError(w, http.StatusForbidden, "not authorized to view this message")
		return
	}

	writeJSON(w, http.StatusOK, MessageDetailResponse{Message: detail})
}

// MarkRead stamps read_at on the message. Only the recipient may; the
// sender is refused even though they can read it.
func (h *MessageHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	caller, err := usernameFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := parseMessageID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	detail, err := h.messageService.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "message not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to fetch message")
		return
	}

	if !policy.CanMarkRead(caller, detail.Message()) {
		writeError(w, http.StatusForbidden, "not authorized to mark this message as read")
		return
	}

	msg, err := h.messageService.MarkRead(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to mark message as read")
		return
	}

	writeJSON(w, http.StatusOK, MarkReadResponse{
		Message: MarkReadResult{ID: msg.ID, ReadAt: msg.ReadAt},
	})
}

func parseMessageID(r *http.Request) (int, error) {
	raw := chi.URLParam(r, "messageID")
	id, err := strconv.Atoi(raw)
	if err != nil || id < 1 {
		return 0, errors.New("invalid message id")
	}
	return id, nil
}

type SendMessageRequest struct {
	ToUsername string `json:"to_username"`
	Body       string `json:"body"`
}

type MessageResponse struct {
	Message types.Message `json:"message"`
}

type MessageDetailResponse struct {
	Message types.MessageDetail `json:"message"`
}

type MarkReadResult struct {
	ID     int        `json:"id"`
	ReadAt *time.Time `json:"read_at"`
}

type MarkReadResponse struct {
	Message MarkReadResult `json:"message"`
}
