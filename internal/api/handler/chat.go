package handler

import (
	"net/http"

	"github.com/Rrens/stackbot/internal/api/response"
	"github.com/Rrens/stackbot/internal/domain"
	"github.com/Rrens/stackbot/internal/service"
)

// ChatHandler handles the standalone chat log endpoints
type ChatHandler struct {
	chatService *service.ChatService
}

// NewChatHandler creates a new chat handler
func NewChatHandler(chatService *service.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

// Send handles a one-off chat message
func (h *ChatHandler) Send(w http.ResponseWriter, r *http.Request) {
	var input domain.MessageCreate
	if !decode(w, r, &input) {
		return
	}

	reply, err := h.chatService.Send(r.Context(), input.Message)
	if err != nil {
		writeError(w, err)
		return
	}

	response.OK(w, ReplyResponse{Reply: reply})
}

// History handles listing the latest messages
func (h *ChatHandler) History(w http.ResponseWriter, r *http.Request) {
	messages, err := h.chatService.History(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	response.OK(w, messages)
}

// Clear handles deleting the whole log
func (h *ChatHandler) Clear(w http.ResponseWriter, r *http.Request) {
	if err := h.chatService.Clear(r.Context()); err != nil {
		writeError(w, err)
		return
	}

	response.Success(w, "History cleared")
}

// Delete handles deleting one message
func (h *ChatHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "messageID")
	if !ok {
		return
	}

	if err := h.chatService.DeleteOne(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}

	response.Success(w, "Chat deleted")
}
