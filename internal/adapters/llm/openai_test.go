package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAIClient_Generate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req openai.ChatCompletionRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "llama-3.1-8b-instant", req.Model)
		require.Len(t, req.Messages, 1)
		assert.Equal(t, "Hi", req.Messages[0].Content)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(openai.ChatCompletionResponse{
			Choices: []openai.ChatCompletionChoice{
				{Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: "Hello there!"}},
			},
		})
	}))
	defer server.Close()

	client, err := NewOpenAIClient("test-key", server.URL, "llama-3.1-8b-instant", nil)
	require.NoError(t, err)

	resp, err := client.Generate(context.Background(), "Hi")
	require.NoError(t, err)
	assert.Equal(t, "Hello there!", resp)
}

func TestOpenAIClient_NoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer server.Close()

	client, err := NewOpenAIClient("test-key", server.URL, "", nil)
	require.NoError(t, err)

	_, err = client.Generate(context.Background(), "Hi")
	assert.ErrorContains(t, err, "no choices")
}

func TestOpenAIClient_RequiresKey(t *testing.T) {
	_, err := NewOpenAIClient("", "", "", nil)
	assert.Error(t, err)
}
