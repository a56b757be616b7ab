package openai_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slok/todochat/internal/llm"
	"github.com/slok/todochat/internal/llm/openai"
)

func TestNewClient(t *testing.T) {
	_, err := openai.NewClient(openai.ClientConfig{})
	assert.Error(t, err)

	_, err = openai.NewClient(openai.ClientConfig{APIKey: "k"})
	assert.NoError(t, err)
}

func TestClientComplete(t *testing.T) {
	req := llm.Request{
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: "be nice"},
			{Role: llm.RoleUser, Content: "buy milk"},
		},
		Tools: []llm.ToolDeclaration{
			{
				Name:        "add_task",
				Description: "Create a new task",
				Parameters: []llm.Parameter{
					{Name: "title", Type: llm.ParameterTypeString, Description: "The title", Required: true},
					{Name: "description", Type: llm.ParameterTypeString},
				},
			},
		},
		ToolChoice: llm.ToolChoiceAuto,
	}

	tests := map[string]struct {
		handler func(t *testing.T, calls int32) (int, string)
		expResp *llm.Response
		expErr  bool
	}{
		"A tool call answer should be returned with raw arguments.": {
			handler: func(t *testing.T, _ int32) (int, string) {
				return http.StatusOK, `{"choices":[{"message":{"role":"assistant","content":null,"tool_calls":[
					{"id":"call_1","type":"function","function":{"name":"add_task","arguments":"{\"title\":\"buy milk\"}"}}
				]}}]}`
			},
			expResp: &llm.Response{
				ToolCalls: []llm.ToolCall{
					{ID: "call_1", Name: "add_task", Arguments: json.RawMessage(`{"title":"buy milk"}`)},
				},
			},
		},

		"A text answer should be returned.": {
			handler: func(t *testing.T, _ int32) (int, string) {
				return http.StatusOK, `{"choices":[{"message":{"role":"assistant","content":"Hello!"}}]}`
			},
			expResp: &llm.Response{Text: "Hello!"},
		},

		"A rate limited request should be retried.": {
			handler: func(t *testing.T, calls int32) (int, string) {
				if calls == 1 {
					return http.StatusTooManyRequests, `slow down`
				}
				return http.StatusOK, `{"choices":[{"message":{"role":"assistant","content":"ok"}}]}`
			},
			expResp: &llm.Response{Text: "ok"},
		},

		"A client error should fail without retries.": {
			handler: func(t *testing.T, calls int32) (int, string) {
				if calls > 1 {
					t.Errorf("unexpected retry")
				}
				return http.StatusUnauthorized, `{"error":{"message":"bad key"}}`
			},
			expErr: true,
		},

		"Continuous server errors should fail after the retries.": {
			handler: func(t *testing.T, _ int32) (int, string) {
				return http.StatusBadGateway, `upstream`
			},
			expErr: true,
		},

		"An API error in the body should fail.": {
			handler: func(t *testing.T, _ int32) (int, string) {
				return http.StatusOK, `{"error":{"message":"model not found"}}`
			},
			expErr: true,
		},

		"A response without choices should fail.": {
			handler: func(t *testing.T, _ int32) (int, string) {
				return http.StatusOK, `{"choices":[]}`
			},
			expErr: true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)
			require := require.New(t)

			var calls int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				n := atomic.AddInt32(&calls, 1)

				assert.Equal("/chat/completions", r.URL.Path)
				assert.Equal("Bearer test-key", r.Header.Get("Authorization"))

				body, err := io.ReadAll(r.Body)
				assert.NoError(err)
				var got map[string]any
				assert.NoError(json.Unmarshal(body, &got))
				assert.Equal("llama-3.1-8b-instant", got["model"])
				assert.Equal("auto", got["tool_choice"])

				status, respBody := test.handler(t, n)
				w.WriteHeader(status)
				_, _ = w.Write([]byte(respBody))
			}))
			defer srv.Close()

			c, err := openai.NewClient(openai.ClientConfig{
				APIKey:       "test-key",
				BaseURL:      srv.URL + "/",
				MaxRetries:   2,
				RetryBackoff: time.Millisecond,
			})
			require.NoError(err)

			resp, err := c.Complete(context.Background(), req)

			if test.expErr {
				assert.Error(err)
			} else {
				require.NoError(err)
				assert.Equal(test.expResp, resp)
			}
		})
	}
}

func TestClientCompleteRequestBody(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"ok"}}]}`))
	}))
	defer srv.Close()

	c, err := openai.NewClient(openai.ClientConfig{APIKey: "k", BaseURL: srv.URL, Model: "m1"})
	require.NoError(t, err)

	temp := 0.5
	_, err = c.Complete(context.Background(), llm.Request{
		Model:       "m2",
		Temperature: &temp,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: "hi"}},
		Tools: []llm.ToolDeclaration{{
			Name:       "complete_task",
			Parameters: []llm.Parameter{{Name: "task_id", Type: llm.ParameterTypeString, Required: true}},
		}},
	})
	require.NoError(t, err)

	assert.Equal(t, "m2", got["model"])
	assert.Equal(t, 0.5, got["temperature"])
	assert.Equal(t, []any{map[string]any{"role": "user", "content": "hi"}}, got["messages"])

	tools := got["tools"].([]any)
	require.Len(t, tools, 1)
	fn := tools[0].(map[string]any)["function"].(map[string]any)
	assert.Equal(t, "complete_task", fn["name"])
	params := fn["parameters"].(map[string]any)
	assert.Equal(t, "object", params["type"])
	assert.Equal(t, []any{"task_id"}, params["required"])
}

func TestClientCompleteContextCancel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c, err := openai.NewClient(openai.ClientConfig{APIKey: "k", BaseURL: srv.URL, RetryBackoff: time.Hour})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err = c.Complete(ctx, llm.Request{Messages: []llm.Message{{Role: llm.RoleUser, Content: "hi"}}})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
