package openai_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skylens/skylens/internal/llm"
	llmopenai "github.com/skylens/skylens/internal/llm/openai"
)

// chatResponse mirrors the subset of the chat completion wire format the
// client consumes.
type chatResponse struct {
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

func newStubServer(t *testing.T, content string, status int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)

		if status != http.StatusOK {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"error":{"message":"upstream failure","type":"server_error"}}`))
			return
		}

		var resp chatResponse
		resp.Choices = make([]struct {
			Message struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"message"`
		}, 1)
		resp.Choices[0].Message.Role = "assistant"
		resp.Choices[0].Message.Content = content
		resp.Usage.PromptTokens = 10
		resp.Usage.CompletionTokens = 5

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

func TestClient_Complete(t *testing.T) {
	server := newStubServer(t, `{"intent":"visualization"}`, http.StatusOK)
	defer server.Close()

	client := llmopenai.NewClient(llmopenai.ClientConfig{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Logger:  zerolog.Nop(),
	})

	out, err := client.Complete(context.Background(), llm.Request{
		System: "classify the query",
		User:   "show me Seattle",
	})
	require.NoError(t, err)
	assert.Equal(t, `{"intent":"visualization"}`, out)
}

func TestClient_Complete_ServerError(t *testing.T) {
	server := newStubServer(t, "", http.StatusInternalServerError)
	defer server.Close()

	client := llmopenai.NewClient(llmopenai.ClientConfig{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Logger:  zerolog.Nop(),
	})

	_, err := client.Complete(context.Background(), llm.Request{User: "hello"})
	assert.ErrorIs(t, err, llm.ErrUnavailable)
}

func TestClient_Complete_EmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[],"usage":{}}`))
	}))
	defer server.Close()

	client := llmopenai.NewClient(llmopenai.ClientConfig{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Logger:  zerolog.Nop(),
	})

	_, err := client.Complete(context.Background(), llm.Request{User: "hello"})
	assert.ErrorIs(t, err, llm.ErrEmptyResponse)
}
