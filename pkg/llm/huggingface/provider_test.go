package huggingface

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"ai-companion-be/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatReturnsCompletion(t *testing.T) {
	var gotBody chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": "hello there"}},
			},
		})
	}))
	defer server.Close()

	p := NewHuggingFaceProvider("test-key", server.URL, "test-model")
	reply, err := p.Chat(context.Background(), []llm.Message{{Role: "user", Content: "hi"}},
		llm.WithMaxTokens(1500), llm.WithTemperature(0.7))
	require.NoError(t, err)

	assert.Equal(t, "hello there", reply)
	assert.Equal(t, "test-model", gotBody.Model)
	assert.Equal(t, 1500, gotBody.MaxTokens)
	assert.False(t, gotBody.Stream)
}

func TestChatClassifiesQuotaError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		fmt.Fprint(w, `{"error":{"message":"You have exceeded your monthly included credits"}}`)
	}))
	defer server.Close()

	p := NewHuggingFaceProvider("k", server.URL, "m")
	_, err := p.Chat(context.Background(), []llm.Message{{Role: "user", Content: "hi"}})
	assert.ErrorIs(t, err, llm.ErrQuotaExceeded)
}

func TestChatClassifiesLoadingError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprint(w, `{"error":"Model test-model is currently loading","estimated_time":20}`)
	}))
	defer server.Close()

	p := NewHuggingFaceProvider("k", server.URL, "m")
	_, err := p.Chat(context.Background(), []llm.Message{{Role: "user", Content: "hi"}})
	assert.ErrorIs(t, err, llm.ErrTransientUnavailable)
}

func TestChatStreamParsesSSE(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.True(t, req.Stream)

		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"I \"}}]}\n\n")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"missed \"}}]}\n\n")
		fmt.Fprint(w, ": keep-alive comment\n\n")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"you\"}}]}\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer server.Close()

	p := NewHuggingFaceProvider("k", server.URL, "m")
	chunks, err := p.ChatStream(context.Background(), []llm.Message{{Role: "user", Content: "hi"}})
	require.NoError(t, err)

	var got string
	for chunk := range chunks {
		require.NoError(t, chunk.Err)
		got += chunk.Content
	}
	assert.Equal(t, "I missed you", got)
}

func TestChatStreamRejectsQuotaBeforeStreaming(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		fmt.Fprint(w, "402 payment required")
	}))
	defer server.Close()

	p := NewHuggingFaceProvider("k", server.URL, "m")
	_, err := p.ChatStream(context.Background(), []llm.Message{{Role: "user", Content: "hi"}})
	assert.ErrorIs(t, err, llm.ErrQuotaExceeded)
}
