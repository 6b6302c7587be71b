package handler

import (
	"net/http"

	"github.com/Rrens/stackbot/internal/api/response"
	"github.com/Rrens/stackbot/internal/domain"
	"github.com/Rrens/stackbot/internal/service"
)

// ConversationHandler handles conversation endpoints
type ConversationHandler struct {
	conversationService *service.ConversationService
}

// NewConversationHandler creates a new conversation handler
func NewConversationHandler(conversationService *service.ConversationService) *ConversationHandler {
	return &ConversationHandler{conversationService: conversationService}
}

// List handles listing conversations
func (h *ConversationHandler) List(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.conversationService.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	response.OK(w, summaries)
}

// Create handles conversation creation
func (h *ConversationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input domain.ConversationCreate
	if !decode(w, r, &input) {
		return
	}

	conv, err := h.conversationService.Create(r.Context(), input.Name)
	if err != nil {
		writeError(w, err)
		return
	}

	response.Created(w, conv)
}

// Delete handles conversation deletion
func (h *ConversationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "conversationID")
	if !ok {
		return
	}

	if err := h.conversationService.Remove(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}

	response.Success(w, "")
}

// ListMessages handles listing the exchanges of a conversation
func (h *ConversationHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "conversationID")
	if !ok {
		return
	}

	messages, err := h.conversationService.ListMessages(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	response.OK(w, messages)
}

// AppendMessage handles sending a message within a conversation
func (h *ConversationHandler) AppendMessage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "conversationID")
	if !ok {
		return
	}

	var input domain.MessageCreate
	if !decode(w, r, &input) {
		return
	}

	reply, err := h.conversationService.AppendMessage(r.Context(), id, input.Message)
	if err != nil {
		writeError(w, err)
		return
	}

	response.OK(w, ReplyResponse{Reply: reply})
}

// DeleteMessage handles removing one exchange from a conversation
func (h *ConversationHandler) DeleteMessage(w http.ResponseWriter, r *http.Request) {
	convID, ok := pathID(w, r, "conversationID")
	if !ok {
		return
	}
	msgID, ok := pathID(w, r, "messageID")
	if !ok {
		return
	}

	if err := h.conversationService.DeleteMessage(r.Context(), convID, msgID); err != nil {
		writeError(w, err)
		return
	}

	response.Success(w, "")
}
