// Package cloudinary uploads generated media to Cloudinary via its signed
// REST upload endpoint and returns the public delivery URL.
package cloudinary

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"
)

const uploadFolder = "leo_generations"

type Uploader struct {
	cloudName string
	apiKey    string
	apiSecret string
	client    *http.Client

	// now is swapped out in tests.
	now func() time.Time
}

type uploadResponse struct {
	SecureURL string `json:"secure_url"`
	PublicID  string `json:"public_id"`
	Error     *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func NewUploader(cloudName, apiKey, apiSecret string) *Uploader {
	return &Uploader{
		cloudName: cloudName,
		apiKey:    apiKey,
		apiSecret: apiSecret,
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
		now: time.Now,
	}
}

// UploadImage stores the encoded image bytes and returns the https delivery
// URL. Uploads land in a fixed folder so generated media stays separated
// from any other assets in the account.
func (u *Uploader) UploadImage(ctx context.Context, data []byte) (string, error) {
	timestamp := strconv.FormatInt(u.now().Unix(), 10)
	params := map[string]string{
		"folder":    uploadFolder,
		"timestamp": timestamp,
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", "generation.png")
	if err != nil {
		return "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return "", fmt.Errorf("write image payload: %w", err)
	}

	for key, value := range params {
		if err := writer.WriteField(key, value); err != nil {
			return "", fmt.Errorf("write field %s: %w", key, err)
		}
	}
	if err := writer.WriteField("api_key", u.apiKey); err != nil {
		return "", fmt.Errorf("write api key: %w", err)
	}
	if err := writer.WriteField("signature", u.sign(params)); err != nil {
		return "", fmt.Errorf("write signature: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("close multipart writer: %w", err)
	}

	url := fmt.Sprintf("https://api.cloudinary.com/v1_1/%s/image/upload", u.cloudName)
	req, err := http.NewRequestWithContext(ctx, "POST", url, &body)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := u.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload request failed: %w", err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	var uploadResp uploadResponse
	if err := json.Unmarshal(respBytes, &uploadResp); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		if uploadResp.Error != nil {
			return "", fmt.Errorf("cloudinary upload rejected: %s", uploadResp.Error.Message)
		}
		return "", fmt.Errorf("cloudinary upload failed: status %d", resp.StatusCode)
	}

	if uploadResp.SecureURL == "" {
		return "", fmt.Errorf("cloudinary response missing secure_url")
	}
	return uploadResp.SecureURL, nil
}

// sign builds the SHA-1 signature Cloudinary expects: all parameters except
// file and api_key, sorted by name, joined as a query string, with the API
// secret appended.
func (u *Uploader) sign(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for key := range params {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, key := range keys {
		pairs = append(pairs, key+"="+params[key])
	}

	sum := sha1.Sum([]byte(strings.Join(pairs, "&") + u.apiSecret))
	return hex.EncodeToString(sum[:])
}
