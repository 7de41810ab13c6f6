package llm

import (
	"errors"
	"strings"
)

// Typed gateway failures. Callers branch on these with errors.Is; anything
// not classified below is a generic upstream failure.
var (
	ErrQuotaExceeded        = errors.New("llm: quota exceeded")
	ErrContentRejected      = errors.New("llm: content rejected by safety filter")
	ErrTransientUnavailable = errors.New("llm: model is warming up")
)

// ClassifyError inspects an upstream error body/status text and maps it onto
// the typed failures. The match strings follow the hosted inference API's
// observed error payloads.
func ClassifyError(statusCode int, body string) error {
	lower := strings.ToLower(body)

	if statusCode == 402 || (strings.Contains(lower, "payment required") || strings.Contains(lower, "exceeded")) && strings.Contains(lower, "402") {
		return ErrQuotaExceeded
	}
	if strings.Contains(lower, "currently loading") || strings.Contains(lower, "is loading") {
		return ErrTransientUnavailable
	}
	if strings.Contains(lower, "nsfw") || strings.Contains(lower, "safety") {
		return ErrContentRejected
	}
	return nil
}
