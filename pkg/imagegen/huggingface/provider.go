package huggingface

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"ai-companion-be/pkg/imagegen"
)

const (
	maxAttempts   = 3
	retryInterval = 15 * time.Second
)

type HuggingFaceProvider struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client

	// sleep is swapped out in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

var _ imagegen.Provider = &HuggingFaceProvider{}

type inferenceRequest struct {
	Inputs     string              `json:"inputs"`
	Parameters inferenceParameters `json:"parameters"`
}

type inferenceParameters struct {
	NegativePrompt string `json:"negative_prompt,omitempty"`
}

func NewHuggingFaceProvider(apiKey, baseURL, model string) *HuggingFaceProvider {
	if baseURL == "" {
		baseURL = "https://api-inference.huggingface.co" // Default Inference API URL
	}
	return &HuggingFaceProvider{
		apiKey:  apiKey,
		baseURL: baseURL,
		model:   model,
		client: &http.Client{
			Timeout: 120 * time.Second,
		},
		sleep: sleepWithContext,
	}
}

// GenerateImage posts the prompt to the hosted inference endpoint. Cold
// models answer with a loading notice instead of bytes; those attempts are
// retried after a fixed pause, up to maxAttempts in total; exhausting them
// yields ErrModelBusy. Any other failure is terminal on the first occurrence.
func (p *HuggingFaceProvider) GenerateImage(ctx context.Context, req imagegen.Request) ([]byte, error) {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		data, err := p.invoke(ctx, req)
		if err == nil {
			return data, nil
		}
		lastErr = err

		if !errors.Is(err, imagegen.ErrModelLoading) {
			return nil, err
		}
		if attempt == maxAttempts {
			break
		}
		if err := p.sleep(ctx, retryInterval); err != nil {
			return nil, err
		}
	}
	return nil, fmt.Errorf("%w: model still loading after %d attempts: %v", imagegen.ErrModelBusy, maxAttempts, lastErr)
}

func (p *HuggingFaceProvider) invoke(ctx context.Context, req imagegen.Request) ([]byte, error) {
	payload, err := json.Marshal(inferenceRequest{
		Inputs: req.Prompt,
		Parameters: inferenceParameters{
			NegativePrompt: req.NegativePrompt,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s", p.baseURL, p.model)
	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		httpReq.Header.Set("Authorization", fmt.Sprintf("Bearer %s", p.apiKey))
	}

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		if classified := imagegen.ClassifyError(resp.StatusCode, string(bodyBytes)); classified != nil {
			return nil, fmt.Errorf("%w: status %d, body: %s", classified, resp.StatusCode, string(bodyBytes))
		}
		return nil, fmt.Errorf("%w: status %d, body: %s", imagegen.ErrGenerationFailed, resp.StatusCode, string(bodyBytes))
	}

	return bodyBytes, nil
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
