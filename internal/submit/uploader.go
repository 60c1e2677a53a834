package submit

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Payload is the finished strip handed to the upload collaborator.
type Payload struct {
	// Image is the PNG-encoded surface.
	Image []byte
	// TemplateRef identifies the background the strip was composited on.
	TemplateRef string
}

// Receipt is the collaborator's acknowledgement; ImageRef is the only handle
// the print/admin side ever gets.
type Receipt struct {
	StripID  string `json:"strip_id"`
	ImageRef string `json:"image_ref"`
}

// Uploader hands a finished strip to the storage collaborator.
type Uploader interface {
	Upload(ctx context.Context, p Payload) (Receipt, error)
}

// HTTPUploader posts strips as JSON to the upload collaborator.
type HTTPUploader struct {
	URL    string
	Client *http.Client
}

// NewHTTPUploader builds an uploader for url. The client timeout bounds a
// single attempt; the pipeline adds per-attempt deadlines on top.
func NewHTTPUploader(url string) *HTTPUploader {
	return &HTTPUploader{
		URL:    url,
		Client: &http.Client{Timeout: 60 * time.Second},
	}
}

type uploadRequest struct {
	Image       string `json:"image"`
	TemplateRef string `json:"template_ref,omitempty"`
}

// Upload submits the payload. Transport failures map to ErrNetwork, 5xx
// responses to ErrServer, and 4xx responses to a terminal RejectedError.
func (u *HTTPUploader) Upload(ctx context.Context, p Payload) (Receipt, error) {
	body, err := json.Marshal(uploadRequest{
		Image:       base64.StdEncoding.EncodeToString(p.Image),
		TemplateRef: p.TemplateRef,
	})
	if err != nil {
		return Receipt{}, fmt.Errorf("failed to marshal upload request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.URL, bytes.NewReader(body))
	if err != nil {
		return Receipt{}, fmt.Errorf("failed to create upload request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := u.Client.Do(req)
	if err != nil {
		return Receipt{}, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		var receipt Receipt
		if err := json.NewDecoder(resp.Body).Decode(&receipt); err != nil {
			return Receipt{}, fmt.Errorf("failed to decode upload response: %w", err)
		}
		return receipt, nil
	case resp.StatusCode >= 500:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return Receipt{}, fmt.Errorf("%w: status %d: %s", ErrServer, resp.StatusCode, bytes.TrimSpace(msg))
	default:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return Receipt{}, &RejectedError{Status: resp.StatusCode, Body: string(bytes.TrimSpace(msg))}
	}
}
