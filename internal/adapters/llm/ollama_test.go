package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOllamaLLM_Generate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		var req ollamaGenerateRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.False(t, req.Stream)
		assert.Equal(t, "Hi", req.Prompt)
		json.NewEncoder(w).Encode(map[string]any{
			"response": "Hello there!",
			"done":     true,
		})
	}))
	defer server.Close()

	adapter := NewOllamaLLMAdapter(server.URL, "test-model", nil)
	resp, err := adapter.Generate(context.Background(), "Hi")

	require.NoError(t, err)
	assert.Equal(t, "Hello there!", resp)
}

func TestOllamaLLM_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	adapter := NewOllamaLLMAdapter(server.URL, "test", nil)
	_, err := adapter.Generate(context.Background(), "test")

	assert.Error(t, err, "should error on 404")
}

func TestOllamaLLM_DefaultValues(t *testing.T) {
	adapter := NewOllamaLLMAdapter("", "", nil)
	assert.Equal(t, "http://localhost:11434", adapter.baseURL)
	assert.Equal(t, "llama3.2", adapter.model)
}

func TestOpenAIClient_GenerateRawJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req["model"])

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":     "cmpl-1",
			"object": "chat.completion",
			"model":  "test-model",
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": "Rotate keys every 90 days."},
			}},
		})
	}))
	defer server.Close()

	client, err := NewOpenAIClient("test-key", server.URL, "test-model", nil)
	require.NoError(t, err)

	resp, err := client.Generate(context.Background(), "How often?")
	require.NoError(t, err)
	assert.Equal(t, "Rotate keys every 90 days.", resp)
}

func TestOpenAIClient_NoChoicesRawJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"id": "cmpl-1", "choices": []any{}})
	}))
	defer server.Close()

	client, err := NewOpenAIClient("test-key", server.URL, "", nil)
	require.NoError(t, err)

	_, err = client.Generate(context.Background(), "x")
	assert.Error(t, err)
}

func TestOpenAIClient_RequiresKeyRawJSON(t *testing.T) {
	_, err := NewOpenAIClient("", "", "", nil)
	assert.Error(t, err)
}
