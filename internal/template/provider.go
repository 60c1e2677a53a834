// Package template resolves the strip background: the most recent remote
// fetch, a cached copy from a prior run, or a synthesized default. The strip
// is never composited on a literally blank background.
package template

import (
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// minTemplateBytes guards against placeholder responses; a real template
// image is never this small.
const minTemplateBytes = 1024

// maxTemplateBytes caps how much of a remote template we are willing to read.
const maxTemplateBytes = 20 << 20

// cacheFilename is the on-disk name of the last successfully decoded
// remote template.
const cacheFilename = "template.png"

// Source records where a resolved template came from, most preferred first.
type Source int

const (
	SourceRemote Source = iota
	SourceCached
	SourceDefault
)

func (s Source) String() string {
	switch s {
	case SourceRemote:
		return "remote"
	case SourceCached:
		return "cached"
	default:
		return "default"
	}
}

// Resolution is a resolved background. Source doubles as the degradation
// marker: anything other than SourceRemote means a fallback was taken.
type Resolution struct {
	Image  image.Image
	Ref    string
	Source Source
}

// Provider caches the current template. The cached Resolution is replaced,
// never mutated, so concurrent readers always observe a complete template.
type Provider struct {
	client   *http.Client
	cacheDir string

	mu      sync.RWMutex
	current *Resolution
}

// NewProvider creates a provider that caches decoded templates under
// cacheDir. An empty cacheDir disables the disk cache.
func NewProvider(cacheDir string) *Provider {
	return &Provider{
		client:   &http.Client{Timeout: 30 * time.Second},
		cacheDir: cacheDir,
	}
}

// Refresh fetches and decodes ref, updating the current template on success.
// Failures degrade silently: the previous template (or the disk cache, or
// the synthesized default) keeps serving.
func (p *Provider) Refresh(ctx context.Context, ref string) {
	if ref == "" {
		return
	}

	p.mu.RLock()
	unchanged := p.current != nil && p.current.Ref == ref && p.current.Source == SourceRemote
	p.mu.RUnlock()
	if unchanged {
		return
	}

	img, err := p.fetch(ctx, ref)
	if err != nil {
		slog.Warn("Template fetch failed, keeping fallback", "ref", ref, "error", err)
		return
	}

	p.mu.Lock()
	p.current = &Resolution{Image: img, Ref: ref, Source: SourceRemote}
	p.mu.Unlock()

	if err := p.writeCache(img); err != nil {
		slog.Warn("Failed to cache template", "error", err)
	}
	slog.Info("Template refreshed", "ref", ref)
}

// Resolve returns the current background, falling back to the disk cache and
// then the synthesized default. It never fails.
func (p *Provider) Resolve() Resolution {
	p.mu.RLock()
	current := p.current
	p.mu.RUnlock()
	if current != nil {
		return *current
	}

	if img, err := p.readCache(); err == nil {
		res := &Resolution{Image: img, Source: SourceCached}
		p.mu.Lock()
		if p.current == nil {
			p.current = res
		}
		p.mu.Unlock()
		return *res
	}

	return Resolution{Image: Default(), Source: SourceDefault}
}

func (p *Provider) fetch(ctx context.Context, ref string) (image.Image, error) {
	if strings.HasPrefix(ref, "data:") {
		return decodeDataURI(ref)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch template: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("template URL returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxTemplateBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read template data: %w", err)
	}
	if len(data) < minTemplateBytes {
		return nil, fmt.Errorf("template too small (likely placeholder), size: %d bytes", len(data))
	}

	img, _, err := image.Decode(strings.NewReader(string(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to decode template: %w", err)
	}
	return img, nil
}

func decodeDataURI(ref string) (image.Image, error) {
	idx := strings.Index(ref, ",")
	if idx < 0 {
		return nil, fmt.Errorf("malformed data URI")
	}
	data, err := base64.StdEncoding.DecodeString(ref[idx+1:])
	if err != nil {
		return nil, fmt.Errorf("failed to decode data URI: %w", err)
	}
	img, _, err := image.Decode(strings.NewReader(string(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to decode inline template: %w", err)
	}
	return img, nil
}

func (p *Provider) writeCache(img image.Image) error {
	if p.cacheDir == "" {
		return nil
	}
	if err := os.MkdirAll(p.cacheDir, 0755); err != nil {
		return err
	}
	f, err := os.Create(filepath.Join(p.cacheDir, cacheFilename))
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, img)
}

func (p *Provider) readCache() (image.Image, error) {
	if p.cacheDir == "" {
		return nil, os.ErrNotExist
	}
	f, err := os.Open(filepath.Join(p.cacheDir, cacheFilename))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode cached template: %w", err)
	}
	return img, nil
}
