// Package imagegen abstracts text-to-image backends behind a small
// provider interface returning raw encoded image bytes.
package imagegen

import (
	"context"
)

// Request carries a single text-to-image invocation.
type Request struct {
	Prompt         string
	NegativePrompt string
}

// Provider produces one encoded image (PNG or JPEG bytes) per request.
type Provider interface {
	GenerateImage(ctx context.Context, req Request) ([]byte, error)
}
