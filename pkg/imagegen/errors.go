package imagegen

import (
	"errors"
	"strings"
)

var (
	// ErrModelLoading signals the backend is warming the model up and the
	// same request may succeed shortly.
	ErrModelLoading = errors.New("imagegen: model is loading")

	// ErrModelBusy signals the model never finished loading within the
	// retry budget.
	ErrModelBusy = errors.New("imagegen: model is busy")

	// ErrQuotaExceeded signals the backend's usage allowance ran out.
	ErrQuotaExceeded = errors.New("imagegen: quota exceeded")

	// ErrContentRejected signals the prompt tripped the backend's safety
	// checker.
	ErrContentRejected = errors.New("imagegen: content rejected")

	// ErrGenerationFailed signals any other terminal backend failure.
	ErrGenerationFailed = errors.New("imagegen: generation failed")
)

// ClassifyError maps an upstream error response onto the package sentinels.
// Returns nil when the response matches none of the known shapes.
func ClassifyError(statusCode int, body string) error {
	lower := strings.ToLower(body)

	if statusCode == 402 || (strings.Contains(lower, "payment required") || strings.Contains(lower, "exceeded")) && strings.Contains(lower, "402") {
		return ErrQuotaExceeded
	}
	if strings.Contains(lower, "currently loading") || strings.Contains(lower, "is loading") {
		return ErrModelLoading
	}
	if strings.Contains(lower, "nsfw") || strings.Contains(lower, "safety") {
		return ErrContentRejected
	}
	return nil
}
