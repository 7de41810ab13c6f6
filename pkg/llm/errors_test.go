package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyError(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"payment required status", 402, "anything", ErrQuotaExceeded},
		{"quota text with code", 500, "error 402: monthly credits exceeded", ErrQuotaExceeded},
		{"model loading", 503, "Model X is currently loading", ErrTransientUnavailable},
		{"safety filter", 422, "request flagged by safety checker", ErrContentRejected},
		{"nsfw filter", 422, "NSFW content detected", ErrContentRejected},
		{"unclassified", 500, "internal server error", nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ClassifyError(tc.status, tc.body))
		})
	}
}
