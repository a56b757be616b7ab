package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/slok/todochat/internal/app/chat"
	"github.com/slok/todochat/internal/app/conversation"
	"github.com/slok/todochat/internal/auth"
	"github.com/slok/todochat/internal/model"
	"github.com/slok/todochat/internal/tool"
)

type chatRequest struct {
	ConversationID string `json:"conversation_id"`
	Message        string `json:"message"`
}

type chatResponse struct {
	ConversationID string                   `json:"conversation_id"`
	Response       string                   `json:"response"`
	ToolCalls      []tool.InvocationPayload `json:"tool_calls"`
	Error          string                   `json:"error,omitempty"`
}

type conversationResponse struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type messageResponse struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h handler) handleChat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner, _ := auth.OwnerFromContext(ctx)

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := h.chat.Run(ctx, chat.Request{
		OwnerID:        owner,
		ConversationID: req.ConversationID,
		Message:        req.Message,
	})
	if err != nil {
		// The turn ran but could not be recorded, the reply is still returned.
		if resp != nil && errors.Is(err, model.ErrPersistence) {
			h.logger.WithCtxValues(ctx).Errorf("chat turn not recorded: %s", err)
			out := newChatResponse(*resp)
			out.Error = "the conversation could not be saved"
			writeJSON(w, http.StatusInternalServerError, out)
			return
		}
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, newChatResponse(*resp))
}

func (h handler) handleConversationList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner, _ := auth.OwnerFromContext(ctx)

	convs, err := h.conversations.List(ctx, conversation.ListRequest{OwnerID: owner})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	out := make([]conversationResponse, 0, len(convs))
	for _, c := range convs {
		out = append(out, conversationResponse{
			ID:        c.ID,
			CreatedAt: c.CreatedAt.UTC(),
			UpdatedAt: c.UpdatedAt.UTC(),
		})
	}

	writeJSON(w, http.StatusOK, out)
}

func (h handler) handleConversationMessages(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner, _ := auth.OwnerFromContext(ctx)

	turns, err := h.conversations.Messages(ctx, conversation.MessagesRequest{
		OwnerID:        owner,
		ConversationID: r.PathValue("id"),
	})
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			writeError(w, http.StatusNotFound, "conversation not found")
			return
		}
		h.writeServiceError(w, r, err)
		return
	}

	out := make([]messageResponse, 0, len(turns))
	for _, t := range turns {
		out = append(out, messageResponse{
			ID:        t.ID,
			Role:      string(t.Role),
			Content:   t.Content,
			CreatedAt: t.CreatedAt.UTC(),
		})
	}

	writeJSON(w, http.StatusOK, out)
}

func newChatResponse(resp model.TurnResponse) chatResponse {
	return chatResponse{
		ConversationID: resp.ConversationID,
		Response:       resp.Reply,
		ToolCalls:      tool.NewInvocationPayloads(resp.ToolInvocations),
	}
}

func (h handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, model.ErrNotValid):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, model.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, auth.ErrUnauthenticated):
		writeError(w, http.StatusUnauthorized, "could not validate credentials")
	default:
		h.logger.WithCtxValues(r.Context()).Errorf("request failed: %s", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
