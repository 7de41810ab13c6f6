package huggingface

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ai-companion-be/pkg/imagegen"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProvider(serverURL string) (*HuggingFaceProvider, *int) {
	p := NewHuggingFaceProvider("key", serverURL, "test-model")
	sleeps := 0
	p.sleep = func(ctx context.Context, d time.Duration) error {
		sleeps++
		return nil
	}
	return p, &sleeps
}

func TestGenerateImageSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/test-model", r.URL.Path)
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))
		w.Write([]byte("png-bytes"))
	}))
	defer server.Close()

	p, sleeps := newTestProvider(server.URL)
	data, err := p.GenerateImage(context.Background(), imagegen.Request{Prompt: "a sunset"})
	require.NoError(t, err)
	assert.Equal(t, []byte("png-bytes"), data)
	assert.Equal(t, 0, *sleeps)
}

func TestGenerateImageRetriesWhileLoading(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"error":"Model test-model is currently loading","estimated_time":30}`))
			return
		}
		w.Write([]byte("png-bytes"))
	}))
	defer server.Close()

	p, sleeps := newTestProvider(server.URL)
	data, err := p.GenerateImage(context.Background(), imagegen.Request{Prompt: "a beach"})
	require.NoError(t, err)
	assert.Equal(t, []byte("png-bytes"), data)
	assert.Equal(t, 3, attempts)
	assert.Equal(t, 2, *sleeps)
}

func TestGenerateImageGivesUpAfterMaxAttempts(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"error":"Model test-model is currently loading"}`))
	}))
	defer server.Close()

	p, sleeps := newTestProvider(server.URL)
	_, err := p.GenerateImage(context.Background(), imagegen.Request{Prompt: "x"})
	require.ErrorIs(t, err, imagegen.ErrModelBusy)
	assert.NotErrorIs(t, err, imagegen.ErrGenerationFailed)
	assert.Equal(t, maxAttempts, attempts)
	assert.Equal(t, maxAttempts-1, *sleeps)
}

func TestGenerateImageClassifiesQuotaExhaustion(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusPaymentRequired)
		w.Write([]byte(`{"error":"monthly included credits exceeded"}`))
	}))
	defer server.Close()

	p, sleeps := newTestProvider(server.URL)
	_, err := p.GenerateImage(context.Background(), imagegen.Request{Prompt: "x"})
	require.ErrorIs(t, err, imagegen.ErrQuotaExceeded)
	assert.Equal(t, 1, attempts)
	assert.Equal(t, 0, *sleeps)
}

func TestGenerateImageClassifiesSafetyRejection(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"error":"request blocked by NSFW safety checker"}`))
	}))
	defer server.Close()

	p, sleeps := newTestProvider(server.URL)
	_, err := p.GenerateImage(context.Background(), imagegen.Request{Prompt: "x"})
	require.ErrorIs(t, err, imagegen.ErrContentRejected)
	assert.Equal(t, 1, attempts)
	assert.Equal(t, 0, *sleeps)
}

func TestGenerateImageDoesNotRetryTerminalErrors(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"invalid prompt"}`))
	}))
	defer server.Close()

	p, sleeps := newTestProvider(server.URL)
	_, err := p.GenerateImage(context.Background(), imagegen.Request{Prompt: "x"})
	require.ErrorIs(t, err, imagegen.ErrGenerationFailed)
	assert.Equal(t, 1, attempts)
	assert.Equal(t, 0, *sleeps)
}
