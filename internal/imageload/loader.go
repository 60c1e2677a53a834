// Package imageload wraps decoding an image from a byte source as an
// awaitable unit of work. It is the leaf dependency of the compositing
// pipeline.
package imageload

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
)

// MinDimension is the smallest width or height a capture may have.
const MinDimension = 100

var (
	// ErrInvalidImage is returned for captures that do not decode or are
	// below the minimum dimensions.
	ErrInvalidImage = errors.New("invalid image")
	// ErrDecodeFailed marks byte sources the image registry cannot decode.
	ErrDecodeFailed = errors.New("decode failed")
)

// Decode decodes an image and enforces the minimum capture dimensions.
func Decode(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w: %v", ErrInvalidImage, ErrDecodeFailed, err)
	}

	b := img.Bounds()
	if b.Dx() < MinDimension || b.Dy() < MinDimension {
		return nil, fmt.Errorf("%w: %dx%d below %dx%d minimum", ErrInvalidImage, b.Dx(), b.Dy(), MinDimension, MinDimension)
	}
	return img, nil
}

// Result is the outcome of one asynchronous decode.
type Result struct {
	Image image.Image
	Err   error
}

// Load decodes data off the calling goroutine. The returned channel is
// buffered and always receives exactly one Result; a caller that has been
// cancelled can simply abandon it. Cancellation is observed before the
// decode starts.
func Load(ctx context.Context, data []byte) <-chan Result {
	ch := make(chan Result, 1)
	go func() {
		if err := ctx.Err(); err != nil {
			ch <- Result{Err: err}
			return
		}
		img, err := Decode(data)
		ch <- Result{Image: img, Err: err}
	}()
	return ch
}
