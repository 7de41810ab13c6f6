// Package media abstracts object storage for generated assets.
package media

import "context"

// Uploader persists encoded media bytes and returns a public URL.
type Uploader interface {
	UploadImage(ctx context.Context, data []byte) (string, error)
}
