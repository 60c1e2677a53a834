// Package submit serializes a composited strip, validates it, and hands it
// to the upload collaborator with bounded retry.
package submit

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"time"

	"github.com/lakeshore-events/photostrip/internal/frame"
	"github.com/lakeshore-events/photostrip/internal/validate"
)

var (
	// ErrNoPhotos rejects a submission before any network traffic when
	// nothing has been captured.
	ErrNoPhotos = errors.New("no photos captured")
	// ErrBlankComposite aborts a submission whose surface still lacks
	// photographic content after the recovery redraw. Retrying cannot fix a
	// structurally blank strip.
	ErrBlankComposite = errors.New("blank composite")
	// ErrPayloadTooSmall catches implausibly small encodings, a second check
	// on blank output at the serialization layer.
	ErrPayloadTooSmall = errors.New("encoded payload too small")
	// ErrNetwork marks transport-level upload failures; retryable.
	ErrNetwork = errors.New("network failure")
	// ErrServer marks 5xx responses from the upload collaborator; retryable.
	ErrServer = errors.New("server error")
)

// RejectedError is a terminal 4xx response from the upload collaborator.
type RejectedError struct {
	Status int
	Body   string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("upload rejected with status %d: %s", e.Status, e.Body)
}

// MinPayloadBytes is the byte-size floor for an encoded strip.
const MinPayloadBytes = 4096

// Renderer produces a freshly composited surface: background, every photo in
// slot order, then the overlay, with the all-settle barrier already applied.
type Renderer func(ctx context.Context) (*image.RGBA, error)

// Pipeline runs one submission attempt end to end.
type Pipeline struct {
	Uploader Uploader
	Layout   frame.Layout

	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	AttemptTimeout time.Duration
	MinPayload     int

	// sleep is swapped out in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewPipeline builds a pipeline with the standard retry policy: up to three
// attempts with doubling backoff and a bounded per-attempt timeout.
func NewPipeline(uploader Uploader, layout frame.Layout) *Pipeline {
	return &Pipeline{
		Uploader:       uploader,
		Layout:         layout,
		MaxAttempts:    3,
		InitialBackoff: 500 * time.Millisecond,
		MaxBackoff:     5 * time.Second,
		AttemptTimeout: 60 * time.Second,
		MinPayload:     MinPayloadBytes,
		sleep:          sleepCtx,
	}
}

// Run composites, validates, serializes, and uploads one strip.
func (p *Pipeline) Run(ctx context.Context, render Renderer, expected int, templateRef string) (Receipt, error) {
	if expected < 1 {
		return Receipt{}, ErrNoPhotos
	}

	surface, err := render(ctx)
	if err != nil {
		return Receipt{}, fmt.Errorf("failed to composite strip: %w", err)
	}

	if !validate.HasExpectedContent(surface, p.Layout, expected) {
		// One forced rebuild before giving up; a half-drawn surface from a
		// lost race is recoverable, a structurally blank one is not.
		slog.Warn("Composite failed validation, forcing rebuild", "expected", expected)
		surface, err = render(ctx)
		if err != nil {
			return Receipt{}, fmt.Errorf("failed to rebuild strip: %w", err)
		}
		if !validate.HasExpectedContent(surface, p.Layout, expected) {
			return Receipt{}, ErrBlankComposite
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, surface); err != nil {
		return Receipt{}, fmt.Errorf("failed to encode strip: %w", err)
	}
	if buf.Len() < p.minPayload() {
		return Receipt{}, fmt.Errorf("%w: %d bytes", ErrPayloadTooSmall, buf.Len())
	}

	payload := Payload{Image: buf.Bytes(), TemplateRef: templateRef}
	receipt, err := p.upload(ctx, payload)
	if err != nil {
		return Receipt{}, err
	}

	slog.Info("Strip submitted", "strip_id", receipt.StripID, "bytes", len(payload.Image))
	return receipt, nil
}

func (p *Pipeline) upload(ctx context.Context, payload Payload) (Receipt, error) {
	backoff := p.InitialBackoff
	var lastErr error

	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, p.AttemptTimeout)
		receipt, err := p.Uploader.Upload(attemptCtx, payload)
		cancel()
		if err == nil {
			return receipt, nil
		}
		// Timeouts count as transient network failures.
		if errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("%w: attempt timed out: %v", ErrNetwork, err)
		}
		if !retryable(err) {
			return Receipt{}, err
		}

		lastErr = err
		if attempt == p.MaxAttempts {
			break
		}
		slog.Warn("Upload attempt failed, retrying", "attempt", attempt, "backoff", backoff, "error", err)
		if err := p.sleep(ctx, backoff); err != nil {
			return Receipt{}, err
		}
		backoff *= 2
		if backoff > p.MaxBackoff {
			backoff = p.MaxBackoff
		}
	}

	return Receipt{}, fmt.Errorf("upload failed after %d attempts: %w", p.MaxAttempts, lastErr)
}

func (p *Pipeline) minPayload() int {
	if p.MinPayload > 0 {
		return p.MinPayload
	}
	return MinPayloadBytes
}

// retryable reports whether an upload error is worth another attempt: only
// transport failures and 5xx-class responses qualify.
func retryable(err error) bool {
	return errors.Is(err, ErrNetwork) || errors.Is(err, ErrServer)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
