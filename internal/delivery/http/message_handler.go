package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"wassup/internal/entity"
	"wassup/internal/usecase"

	"github.com/go-chi/chi/v5"
)

type MessageHandler struct {
	messageUc usecase.MessageUsecase
}

func NewMessageHandler(messageUc usecase.MessageUsecase) *MessageHandler {
	return &MessageHandler{
		messageUc: messageUc,
	}
}

// GET /api/messages/users
// Sidebar payload: every other user plus the unseen counts keyed by
// their id. Users with nothing unseen are omitted from the map.
func (h *MessageHandler) GetUsers(w http.ResponseWriter, r *http.Request) {
	claims, ok := r.Context().Value(UserContextKey).(*entity.TokenClaims)
	if !ok {
		writeFailure(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	users, counts, err := h.messageUc.SidebarUsers(r.Context(), claims.UserId)
	if err != nil {
		log.Printf("Sidebar users error: %v", err)
		writeFailure(w, http.StatusOK, "internal server error")
		return
	}

	writeSuccess(w, map[string]any{
		"users":          users,
		"unSeenMessages": counts,
	})
}

// GET /api/messages/{id}
// Fetches the thread with the given peer and marks their messages
// seen as a side effect.
func (h *MessageHandler) GetMessages(w http.ResponseWriter, r *http.Request) {
	claims, ok := r.Context().Value(UserContextKey).(*entity.TokenClaims)
	if !ok {
		writeFailure(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	peerId := chi.URLParam(r, "id")
	if peerId == "" {
		writeFailure(w, http.StatusOK, "missing user id")
		return
	}

	messages, err := h.messageUc.GetConversation(r.Context(), claims.UserId, peerId)
	if err != nil {
		log.Printf("Get conversation error: %v", err)
		writeFailure(w, http.StatusOK, "internal server error")
		return
	}

	writeSuccess(w, map[string]any{"messages": messages})
}

// POST /api/messages/send/{id}
func (h *MessageHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	claims, ok := r.Context().Value(UserContextKey).(*entity.TokenClaims)
	if !ok {
		writeFailure(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	receiverId := chi.URLParam(r, "id")
	if receiverId == "" {
		writeFailure(w, http.StatusOK, "missing user id")
		return
	}

	var req struct {
		Text  string `json:"text"`
		Image string `json:"image"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFailure(w, http.StatusOK, "invalid request body")
		return
	}

	message, err := h.messageUc.SendMessage(r.Context(), claims.UserId, receiverId, req.Text, req.Image)
	if err != nil {
		if errors.Is(err, usecase.ErrEmptyMessage) {
			writeFailure(w, http.StatusOK, err.Error())
			return
		}
		log.Printf("Send message error: %v", err)
		writeFailure(w, http.StatusOK, "internal server error")
		return
	}

	writeSuccess(w, map[string]any{"newMessage": message})
}

// PUT /api/messages/mark/{id}
func (h *MessageHandler) MarkMessageSeen(w http.ResponseWriter, r *http.Request) {
	messageId := chi.URLParam(r, "id")
	if messageId == "" {
		writeFailure(w, http.StatusOK, "missing message id")
		return
	}

	if err := h.messageUc.MarkSeen(r.Context(), messageId); err != nil {
		log.Printf("Mark seen error: %v", err)
		writeFailure(w, http.StatusOK, "internal server error")
		return
	}

	writeSuccess(w, nil)
}
