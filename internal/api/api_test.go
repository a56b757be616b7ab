package api_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/slok/todochat/internal/agent"
	"github.com/slok/todochat/internal/api"
	"github.com/slok/todochat/internal/app/chat"
	"github.com/slok/todochat/internal/app/conversation"
	"github.com/slok/todochat/internal/app/task"
	"github.com/slok/todochat/internal/app/tasklist"
	"github.com/slok/todochat/internal/llm/fake"
	"github.com/slok/todochat/internal/model"
	"github.com/slok/todochat/internal/storage/memory"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newHandler(t *testing.T) http.Handler {
	t.Helper()

	store, err := memory.NewStore(memory.StoreConfig{})
	require.NoError(t, err)

	o, err := agent.NewOrchestrator(agent.OrchestratorConfig{Model: fake.NewRules()})
	require.NoError(t, err)

	chatSvc, err := chat.NewService(chat.ServiceConfig{Transactor: store, Runner: o})
	require.NoError(t, err)

	convSvc, err := conversation.NewService(conversation.ServiceConfig{Repository: store.Conversations()})
	require.NoError(t, err)

	taskSvc, err := task.NewService(task.ServiceConfig{Transactor: store})
	require.NoError(t, err)

	taskListSvc, err := tasklist.NewService(tasklist.ServiceConfig{Repository: store.Tasks()})
	require.NoError(t, err)

	h, err := api.NewHandler(api.HandlerConfig{
		Chat:          chatSvc,
		Conversations: convSvc,
		Tasks:         taskSvc,
		TaskList:      taskListSvc,
	})
	require.NoError(t, err)

	return h
}

func newRequest(method, path, owner, body string) *http.Request {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if owner != "" {
		req.Header.Set("X-Owner-ID", owner)
	}
	return req
}

func TestNewHandler(t *testing.T) {
	tests := map[string]struct {
		config api.HandlerConfig
	}{
		"Missing services should fail.": {
			config: api.HandlerConfig{},
		},
		"A task service without the task list service should fail.": {
			config: api.HandlerConfig{Chat: chatFunc(nil), Conversations: noConversations{}, Tasks: &task.Service{}},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := api.NewHandler(test.config)
			assert.Error(t, err)
		})
	}
}

func TestChatEndpoint(t *testing.T) {
	tests := map[string]struct {
		owner     string
		body      string
		expStatus int
		expBody   func(t *testing.T, body map[string]any)
	}{
		"A request without owner should be unauthorized.": {
			body:      `{"message": "add buy milk"}`,
			expStatus: http.StatusUnauthorized,
		},

		"An invalid body should be a bad request.": {
			owner:     "alice",
			body:      `{"message":`,
			expStatus: http.StatusBadRequest,
		},

		"An empty message should be a bad request.": {
			owner:     "alice",
			body:      `{"message": "  "}`,
			expStatus: http.StatusBadRequest,
		},

		"Adding a task should return the reply and the tool calls.": {
			owner:     "alice",
			body:      `{"message": "add buy milk"}`,
			expStatus: http.StatusOK,
			expBody: func(t *testing.T, body map[string]any) {
				assert.NotEmpty(t, body["conversation_id"])
				assert.Equal(t, "✅ Task 'buy milk' has been added successfully!", body["response"])

				calls := body["tool_calls"].([]any)
				require.Len(t, calls, 1)
				call := calls[0].(map[string]any)
				assert.Equal(t, "add_task", call["tool"])
				assert.Equal(t, map[string]any{"title": "buy milk"}, call["args"])
				result := call["result"].(map[string]any)
				assert.Equal(t, "created", result["status"])
				assert.Equal(t, "buy milk", result["title"])
				assert.NotEmpty(t, result["task_id"])
			},
		},

		"A greeting should reply without tool calls.": {
			owner:     "alice",
			body:      `{"message": "hello there"}`,
			expStatus: http.StatusOK,
			expBody: func(t *testing.T, body map[string]any) {
				assert.Equal(t, []any{}, body["tool_calls"])
				assert.NotEmpty(t, body["response"])
			},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			h := newHandler(t)

			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, newRequest(http.MethodPost, "/api/chat", test.owner, test.body))

			assert.Equal(t, test.expStatus, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			var body map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			if test.expStatus != http.StatusOK {
				assert.NotEmpty(t, body["error"])
				return
			}
			test.expBody(t, body)
		})
	}
}

func TestConversationEndpoints(t *testing.T) {
	srv := httptest.NewServer(newHandler(t))
	defer srv.Close()
	cli := srv.Client()

	do := func(method, path, owner, body string) (int, []byte) {
		var r io.Reader
		if body != "" {
			r = strings.NewReader(body)
		}
		req, err := http.NewRequest(method, srv.URL+path, r)
		require.NoError(t, err)
		if owner != "" {
			req.Header.Set("X-Owner-ID", owner)
		}
		resp, err := cli.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		b, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		return resp.StatusCode, b
	}

	// Two turns in the same conversation.
	status, b := do(http.MethodPost, "/api/chat", "alice", `{"message": "add buy milk"}`)
	require.Equal(t, http.StatusOK, status)
	var chatResp struct {
		ConversationID string `json:"conversation_id"`
	}
	require.NoError(t, json.Unmarshal(b, &chatResp))
	convID := chatResp.ConversationID

	status, _ = do(http.MethodPost, "/api/chat", "alice", fmt.Sprintf(`{"conversation_id": %q, "message": "show my tasks"}`, convID))
	require.Equal(t, http.StatusOK, status)

	t.Run("Listing conversations should only return the owner ones.", func(t *testing.T) {
		status, b := do(http.MethodGet, "/api/conversations", "alice", "")
		require.Equal(t, http.StatusOK, status)
		var convs []map[string]any
		require.NoError(t, json.Unmarshal(b, &convs))
		require.Len(t, convs, 1)
		assert.Equal(t, convID, convs[0]["id"])

		status, b = do(http.MethodGet, "/api/conversations", "bob", "")
		require.Equal(t, http.StatusOK, status)
		assert.JSONEq(t, `[]`, string(b))
	})

	t.Run("The messages of an owned conversation should be in order.", func(t *testing.T) {
		status, b := do(http.MethodGet, "/api/conversations/"+convID+"/messages", "alice", "")
		require.Equal(t, http.StatusOK, status)

		var msgs []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		}
		require.NoError(t, json.Unmarshal(b, &msgs))
		require.Len(t, msgs, 4)
		assert.Equal(t, "user", msgs[0].Role)
		assert.Equal(t, "add buy milk", msgs[0].Content)
		assert.Equal(t, "assistant", msgs[1].Role)
		assert.Equal(t, "show my tasks", msgs[2].Content)
		assert.Equal(t, "📋 Your tasks:\n⬜ 1. buy milk", msgs[3].Content)
	})

	t.Run("The messages of another owner conversation should not be found.", func(t *testing.T) {
		status, _ := do(http.MethodGet, "/api/conversations/"+convID+"/messages", "bob", "")
		assert.Equal(t, http.StatusNotFound, status)
	})

	t.Run("The messages of a missing conversation should not be found.", func(t *testing.T) {
		status, _ := do(http.MethodGet, "/api/conversations/01KG0000000000000000000000/messages", "alice", "")
		assert.Equal(t, http.StatusNotFound, status)
	})

	t.Run("Listing conversations without owner should be unauthorized.", func(t *testing.T) {
		status, _ := do(http.MethodGet, "/api/conversations", "", "")
		assert.Equal(t, http.StatusUnauthorized, status)
	})
}

type chatFunc func(ctx context.Context, req chat.Request) (*model.TurnResponse, error)

func (f chatFunc) Run(ctx context.Context, req chat.Request) (*model.TurnResponse, error) {
	return f(ctx, req)
}

type noConversations struct{}

func (noConversations) List(context.Context, conversation.ListRequest) ([]model.Conversation, error) {
	return nil, nil
}

func (noConversations) Messages(context.Context, conversation.MessagesRequest) ([]model.Turn, error) {
	return nil, nil
}

func TestChatEndpointErrors(t *testing.T) {
	tests := map[string]struct {
		chat        chatFunc
		expStatus   int
		expResponse string
	}{
		"A turn that could not be recorded should return the reply with an error.": {
			chat: func(ctx context.Context, req chat.Request) (*model.TurnResponse, error) {
				return &model.TurnResponse{ConversationID: "c1", Reply: "done"}, fmt.Errorf("could not append turn: %w", model.ErrPersistence)
			},
			expStatus:   http.StatusInternalServerError,
			expResponse: "done",
		},

		"A failure before the turn should be an internal error.": {
			chat: func(ctx context.Context, req chat.Request) (*model.TurnResponse, error) {
				return nil, fmt.Errorf("could not begin: %w", model.ErrPersistence)
			},
			expStatus: http.StatusInternalServerError,
		},

		"A panic should be recovered as an internal error.": {
			chat: func(ctx context.Context, req chat.Request) (*model.TurnResponse, error) {
				panic("boom")
			},
			expStatus: http.StatusInternalServerError,
		},

		"The owner should reach the chat service.": {
			chat: func(ctx context.Context, req chat.Request) (*model.TurnResponse, error) {
				return &model.TurnResponse{ConversationID: "c1", Reply: req.OwnerID}, nil
			},
			expStatus:   http.StatusOK,
			expResponse: "alice",
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			h, err := api.NewHandler(api.HandlerConfig{Chat: test.chat, Conversations: noConversations{}})
			require.NoError(t, err)

			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, newRequest(http.MethodPost, "/api/chat", "alice", `{"message": "hi"}`))

			assert.Equal(t, test.expStatus, rec.Code)
			var body map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			if test.expResponse != "" {
				assert.Equal(t, test.expResponse, body["response"])
			}
			if test.expStatus != http.StatusOK {
				assert.NotEmpty(t, body["error"])
			}
		})
	}
}

func TestRequestID(t *testing.T) {
	h := newHandler(t)

	tests := map[string]struct {
		reqID string
	}{
		"A missing request ID should be generated.": {},
		"An incoming request ID should be echoed.":  {reqID: "req-123"},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			req := newRequest(http.MethodGet, "/healthz", "", "")
			if test.reqID != "" {
				req.Header.Set("X-Request-ID", test.reqID)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusOK, rec.Code)
			got := rec.Header().Get("X-Request-ID")
			assert.NotEmpty(t, got)
			if test.reqID != "" {
				assert.Equal(t, test.reqID, got)
			}
		})
	}
}

func TestTaskEndpoints(t *testing.T) {
	srv := httptest.NewServer(newHandler(t))
	defer srv.Close()
	cli := srv.Client()

	do := func(method, path, owner, body string) (int, []byte) {
		var r io.Reader
		if body != "" {
			r = strings.NewReader(body)
		}
		req, err := http.NewRequest(method, srv.URL+path, r)
		require.NoError(t, err)
		if owner != "" {
			req.Header.Set("X-Owner-ID", owner)
		}
		resp, err := cli.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		b, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		return resp.StatusCode, b
	}

	type taskBody struct {
		ID          string  `json:"id"`
		OwnerID     string  `json:"owner_id"`
		Title       string  `json:"title"`
		Description *string `json:"description"`
		Completed   bool    `json:"completed"`
	}

	status, b := do(http.MethodPost, "/api/tasks", "alice", `{"title": "buy milk"}`)
	require.Equal(t, http.StatusCreated, status)
	var milk taskBody
	require.NoError(t, json.Unmarshal(b, &milk))
	assert.NotEmpty(t, milk.ID)
	assert.Equal(t, "alice", milk.OwnerID)
	assert.Equal(t, "buy milk", milk.Title)
	assert.Nil(t, milk.Description)
	assert.False(t, milk.Completed)

	status, _ = do(http.MethodPost, "/api/tasks", "alice", `{"title": "call mom", "description": "sunday"}`)
	require.Equal(t, http.StatusCreated, status)

	t.Run("Creating a task without title should be a bad request.", func(t *testing.T) {
		status, _ := do(http.MethodPost, "/api/tasks", "alice", `{"title": " "}`)
		assert.Equal(t, http.StatusBadRequest, status)
	})

	t.Run("Task endpoints without owner should be unauthorized.", func(t *testing.T) {
		status, _ := do(http.MethodGet, "/api/tasks", "", "")
		assert.Equal(t, http.StatusUnauthorized, status)
	})

	t.Run("Another owner task should not be found.", func(t *testing.T) {
		status, _ := do(http.MethodGet, "/api/tasks/"+milk.ID, "bob", "")
		assert.Equal(t, http.StatusNotFound, status)

		status, _ = do(http.MethodPut, "/api/tasks/"+milk.ID, "bob", `{"title": "hacked"}`)
		assert.Equal(t, http.StatusNotFound, status)

		status, _ = do(http.MethodPatch, "/api/tasks/"+milk.ID+"/complete", "bob", `{"completed": true}`)
		assert.Equal(t, http.StatusNotFound, status)

		status, _ = do(http.MethodDelete, "/api/tasks/"+milk.ID, "bob", "")
		assert.Equal(t, http.StatusNotFound, status)

		status, b := do(http.MethodGet, "/api/tasks", "bob", "")
		require.Equal(t, http.StatusOK, status)
		assert.JSONEq(t, `[]`, string(b))

		status, b = do(http.MethodGet, "/api/tasks/"+milk.ID, "alice", "")
		require.Equal(t, http.StatusOK, status)
		var got taskBody
		require.NoError(t, json.Unmarshal(b, &got))
		assert.Equal(t, milk, got)
	})

	t.Run("Updating a task should change the given fields.", func(t *testing.T) {
		status, b := do(http.MethodPut, "/api/tasks/"+milk.ID, "alice", `{"description": "2 liters"}`)
		require.Equal(t, http.StatusOK, status)
		var got taskBody
		require.NoError(t, json.Unmarshal(b, &got))
		assert.Equal(t, "buy milk", got.Title)
		require.NotNil(t, got.Description)
		assert.Equal(t, "2 liters", *got.Description)
	})

	t.Run("Completing a task requires the completed field.", func(t *testing.T) {
		status, _ := do(http.MethodPatch, "/api/tasks/"+milk.ID+"/complete", "alice", `{}`)
		assert.Equal(t, http.StatusBadRequest, status)
	})

	t.Run("Completing a task should be reflected on the filtered list.", func(t *testing.T) {
		status, _ := do(http.MethodPatch, "/api/tasks/"+milk.ID+"/complete", "alice", `{"completed": true}`)
		require.Equal(t, http.StatusOK, status)

		status, b := do(http.MethodGet, "/api/tasks?completed=true", "alice", "")
		require.Equal(t, http.StatusOK, status)
		var done []taskBody
		require.NoError(t, json.Unmarshal(b, &done))
		require.Len(t, done, 1)
		assert.Equal(t, milk.ID, done[0].ID)

		status, b = do(http.MethodGet, "/api/tasks?completed=false", "alice", "")
		require.Equal(t, http.StatusOK, status)
		var pending []taskBody
		require.NoError(t, json.Unmarshal(b, &pending))
		require.Len(t, pending, 1)
		assert.Equal(t, "call mom", pending[0].Title)
	})

	t.Run("Invalid list query values should be a bad request.", func(t *testing.T) {
		status, _ := do(http.MethodGet, "/api/tasks?completed=maybe", "alice", "")
		assert.Equal(t, http.StatusBadRequest, status)

		status, _ = do(http.MethodGet, "/api/tasks?limit=-1", "alice", "")
		assert.Equal(t, http.StatusBadRequest, status)
	})

	t.Run("Paging the list should return the tasks in creation order.", func(t *testing.T) {
		status, b := do(http.MethodGet, "/api/tasks?offset=1&limit=1", "alice", "")
		require.Equal(t, http.StatusOK, status)
		var page []taskBody
		require.NoError(t, json.Unmarshal(b, &page))
		require.Len(t, page, 1)
		assert.Equal(t, "call mom", page[0].Title)
	})

	t.Run("A deleted task should not be found.", func(t *testing.T) {
		status, _ := do(http.MethodDelete, "/api/tasks/"+milk.ID, "alice", "")
		require.Equal(t, http.StatusOK, status)

		status, _ = do(http.MethodGet, "/api/tasks/"+milk.ID, "alice", "")
		assert.Equal(t, http.StatusNotFound, status)
	})
}
