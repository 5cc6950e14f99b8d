package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"smooze.app/wingman/internal/core"
	"smooze.app/wingman/internal/store"
	"smooze.app/wingman/internal/ui"
)

const defaultTurnsLimit = 50

type APIHandler struct {
	chatService *core.ChatService
	theme       ui.Theme
}

func NewAPIHandler(cs *core.ChatService, theme ui.Theme) *APIHandler {
	return &APIHandler{chatService: cs, theme: theme}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

// conversation resolves the {conversationID} URL parameter, writing a 404 when
// it is unknown.
func (h *APIHandler) conversation(w http.ResponseWriter, r *http.Request) (*core.Conversation, bool) {
	id := chi.URLParam(r, "conversationID")
	conv, err := h.chatService.GetConversation(id)
	if err != nil {
		http.Error(w, "Conversation not found", http.StatusNotFound)
		return nil, false
	}
	return conv, true
}

func (h *APIHandler) ThemeHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.theme)
}

type ConversationResponse struct {
	ID        string         `json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	State     core.TurnState `json:"state"`
	Bubbles   []ui.Bubble    `json:"bubbles"`
}

func (h *APIHandler) conversationResponse(conv *core.Conversation) ConversationResponse {
	return ConversationResponse{
		ID:        conv.ID,
		CreatedAt: conv.CreatedAt,
		State:     conv.State(),
		Bubbles:   ui.Render(conv.Messages(), h.theme),
	}
}

func (h *APIHandler) CreateConversationHandler(w http.ResponseWriter, r *http.Request) {
	conv := h.chatService.CreateConversation()
	writeJSON(w, http.StatusCreated, h.conversationResponse(conv))
}

func (h *APIHandler) GetConversationHandler(w http.ResponseWriter, r *http.Request) {
	conv, ok := h.conversation(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.conversationResponse(conv))
}

func (h *APIHandler) DeleteConversationHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "conversationID")
	if err := h.chatService.CloseConversation(id); err != nil {
		http.Error(w, "Conversation not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type PostMessageRequest struct {
	Text string `json:"text"`
}

type PostMessageResponse struct {
	Outcome     store.TurnOutcome `json:"outcome"`
	UserMessage store.Message     `json:"user_message"`
	BotMessage  *store.Message    `json:"bot_message,omitempty"`
	Bubbles     []ui.Bubble       `json:"bubbles"`
}

// PostMessageHandler submits a user message and waits for the turn to end.
// Inference failures are not errors here: the turn ends with the fallback
// reply and outcome "fallback".
func (h *APIHandler) PostMessageHandler(w http.ResponseWriter, r *http.Request) {
	conv, ok := h.conversation(w, r)
	if !ok {
		return
	}

	var req PostMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	turn, err := conv.Submit(r.Context(), req.Text)
	switch {
	case errors.Is(err, core.ErrEmptyMessage):
		http.Error(w, "Message text cannot be empty", http.StatusBadRequest)
		return
	case errors.Is(err, core.ErrConversationClosed):
		http.Error(w, "Conversation closed", http.StatusGone)
		return
	case err != nil:
		log.Printf("Error submitting message to conversation %s: %v", conv.ID, err)
		http.Error(w, "Failed to post message", http.StatusInternalServerError)
		return
	}

	res, err := turn.Wait(r.Context())
	if err != nil {
		// Client went away; the turn keeps running and lands in the log.
		log.Printf("Client left before turn %s finished: %v", turn.ID, err)
		return
	}

	writeJSON(w, http.StatusOK, PostMessageResponse{
		Outcome:     res.Outcome(),
		UserMessage: turn.UserMessage,
		BotMessage:  res.BotMessage,
		Bubbles:     ui.Render(conv.Messages(), h.theme),
	})
}

func (h *APIHandler) ListTurnsHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "conversationID")

	limit := defaultTurnsLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = n
	}

	turns, err := h.chatService.GetTurns(id, limit)
	if err != nil {
		if errors.Is(err, core.ErrConversationNotFound) {
			http.Error(w, "Conversation not found", http.StatusNotFound)
			return
		}
		log.Printf("Error listing turns for conversation %s: %v", id, err)
		http.Error(w, "Failed to list turns", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, turns)
}
