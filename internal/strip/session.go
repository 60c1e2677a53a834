// Package strip owns the capture sequence and the strip surface. One Session
// is the sole writer of its surface: every mutation happens inside a redraw
// pass, and a second mutation request while a pass is outstanding is
// rejected rather than interleaved. Two redraws racing to completion is
// exactly the bug class that prints blank strips.
package strip

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sync"
	"time"

	"github.com/lakeshore-events/photostrip/internal/frame"
	"github.com/lakeshore-events/photostrip/internal/imageload"
	"github.com/lakeshore-events/photostrip/internal/submit"
	"github.com/lakeshore-events/photostrip/internal/template"
)

// MaxPhotos is the number of slots on a strip.
const MaxPhotos = frame.SlotCount

// DefaultGraceDelay keeps a submitted session visible before the auto-reset,
// long enough for any in-flight read of the surface to finish.
const DefaultGraceDelay = 3 * time.Second

var (
	// ErrBusy rejects a capture or submission while another pass owns the
	// surface, or while the session is not accepting captures.
	ErrBusy = errors.New("strip busy")
	// ErrClosed is returned once the session has been shut down.
	ErrClosed = errors.New("session closed")
)

// CapturedPhoto is one successful capture. Immutable once created; a retake
// resets the whole sequence rather than replacing a single record.
type CapturedPhoto struct {
	// Data is the encoded bitmap as it arrived from the camera.
	Data []byte
	// Slot is the destination rectangle on the surface.
	Slot image.Rectangle
}

// pass is the redraw token. Holding the (single) pass grants exclusive
// write access to the surface for one full composite. The token also pins
// the surface generation it was issued against: a reset bumps the
// generation, and a pass from an earlier generation must discard its work
// instead of painting a surface that no longer belongs to it.
type pass struct {
	reason string
	began  time.Time
	gen    uint64
}

// Options configures a Session.
type Options struct {
	Layout     frame.Layout
	Templates  *template.Provider
	Pipeline   *submit.Pipeline
	Label      string
	GraceDelay time.Duration
}

// Session tracks capture progress, owns the photo list and the surface, and
// sequences recomposition.
type Session struct {
	layout     frame.Layout
	templates  *template.Provider
	pipeline   *submit.Pipeline
	label      string
	graceDelay time.Duration

	ctx    context.Context
	cancel context.CancelFunc

	mu         sync.Mutex
	phase      Phase
	failReason string
	photos     []CapturedPhoto
	surface    *image.RGBA
	gen        uint64
	current    *pass
	resetTimer *time.Timer
}

// NewSession creates an idle session with a freshly synthesized background.
func NewSession(opts Options) *Session {
	if len(opts.Layout.Slots) != MaxPhotos {
		opts.Layout = frame.DefaultLayout()
	}
	if opts.Templates == nil {
		opts.Templates = template.NewProvider("")
	}
	if opts.GraceDelay <= 0 {
		opts.GraceDelay = DefaultGraceDelay
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		layout:     opts.Layout,
		templates:  opts.Templates,
		pipeline:   opts.Pipeline,
		label:      opts.Label,
		graceDelay: opts.GraceDelay,
		ctx:        ctx,
		cancel:     cancel,
		surface:    frame.NewSurface(),
	}
	s.drawBackgroundLocked()
	return s
}

// Capture decodes one camera capture and composites it into the next open
// slot. It fails with imageload.ErrInvalidImage when the bytes do not decode
// to at least 100x100, and with ErrBusy when another pass owns the surface,
// a submission is in flight, or all slots are filled.
func (s *Session) Capture(ctx context.Context, raw []byte) error {
	s.mu.Lock()
	if s.phase != PhaseIdle && s.phase != PhaseAwaitingCapture {
		s.mu.Unlock()
		return ErrBusy
	}
	tok, err := s.beginPassLocked("capture")
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.mu.Unlock()
	defer s.endPass(tok)

	res := <-imageload.Load(ctx, raw)
	if s.ctx.Err() != nil {
		// Session closed while the decode was in flight; discard.
		return ErrClosed
	}
	if res.Err != nil {
		return res.Err
	}

	s.mu.Lock()
	if s.gen != tok.gen {
		// Reset won the race; the decoded photo belongs to a dead sequence.
		s.mu.Unlock()
		return ErrBusy
	}
	photo := CapturedPhoto{Data: raw, Slot: s.layout.Slots[len(s.photos)]}
	s.photos = append(s.photos, photo)
	if len(s.photos) == MaxPhotos {
		s.phase = PhaseReady
	} else {
		s.phase = PhaseAwaitingCapture
	}
	count := len(s.photos)
	s.mu.Unlock()

	if err := s.renderPass(ctx, tok); err != nil {
		// The capture only counts once it is on the surface; roll the
		// append back so a retry does not fill two slots with one photo.
		s.mu.Lock()
		if s.gen == tok.gen && len(s.photos) > 0 {
			s.photos = s.photos[:len(s.photos)-1]
			if len(s.photos) == 0 {
				s.phase = PhaseIdle
			} else {
				s.phase = PhaseAwaitingCapture
			}
		}
		s.mu.Unlock()
		return err
	}
	slog.Info("Photo captured", "slot", count, "phase", s.Phase().String())
	return nil
}

// Submit runs the submission pipeline over the current capture list. On
// transient failure the photos are preserved and the session returns to its
// pre-submit phase so the user can retry without recapturing; structural
// failures park the session in PhaseFailed until it is reset.
func (s *Session) Submit(ctx context.Context) (submit.Receipt, error) {
	if s.pipeline == nil {
		return submit.Receipt{}, fmt.Errorf("no submission pipeline configured")
	}

	s.mu.Lock()
	if s.current != nil || s.phase == PhaseSubmitting || s.phase == PhaseDone {
		s.mu.Unlock()
		return submit.Receipt{}, ErrBusy
	}
	count := len(s.photos)
	if count == 0 {
		s.mu.Unlock()
		return submit.Receipt{}, submit.ErrNoPhotos
	}
	prev := s.phase
	s.phase = PhaseSubmitting
	s.mu.Unlock()

	templateRef := s.templates.Resolve().Ref
	receipt, err := s.pipeline.Run(ctx, s.Render, count, templateRef)

	s.mu.Lock()
	if err != nil {
		if terminal(err) {
			s.phase = PhaseFailed
			s.failReason = err.Error()
		} else {
			s.phase = prev
		}
		s.mu.Unlock()
		return submit.Receipt{}, err
	}
	s.phase = PhaseDone
	s.mu.Unlock()

	s.scheduleReset()
	return receipt, nil
}

// terminal reports whether a submission error cannot be fixed by retrying
// with the same composite.
func terminal(err error) bool {
	var rejected *submit.RejectedError
	return errors.Is(err, submit.ErrBlankComposite) ||
		errors.Is(err, submit.ErrPayloadTooSmall) ||
		errors.As(err, &rejected)
}

// Render forces a full composite pass and returns the surface. Used by the
// submission pipeline as its redraw barrier.
func (s *Session) Render(ctx context.Context) (*image.RGBA, error) {
	s.mu.Lock()
	tok, err := s.beginPassLocked("render")
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	s.mu.Unlock()
	defer s.endPass(tok)

	if err := s.renderPass(ctx, tok); err != nil {
		return nil, err
	}

	s.mu.Lock()
	surface := s.surface
	s.mu.Unlock()
	return surface, nil
}

// renderPass performs one composite: background, photos in slot order, then
// overlay and label. All photo decodes settle (success or failure) before
// anything is drawn, so a slow decode can never race the final frame. The
// caller must hold the pass token; a token from before a reset draws
// nothing and reports ErrBusy.
func (s *Session) renderPass(ctx context.Context, tok *pass) error {
	s.mu.Lock()
	photos := make([]CapturedPhoto, len(s.photos))
	copy(photos, s.photos)
	label := s.label
	s.mu.Unlock()

	// Decode every photo concurrently, then wait for all of them.
	chans := make([]<-chan imageload.Result, len(photos))
	for i, p := range photos {
		chans[i] = imageload.Load(ctx, p.Data)
	}
	decoded := make([]image.Image, len(photos))
	for i, ch := range chans {
		res := <-ch
		if res.Err != nil {
			// The slot stays background; the validator catches it later.
			slog.Warn("Photo decode failed during composite", "slot", i+1, "error", res.Err)
			continue
		}
		decoded[i] = res.Image
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	if s.ctx.Err() != nil {
		return ErrClosed
	}

	background := s.templates.Resolve()
	if background.Source != template.SourceRemote {
		slog.Debug("Compositing on fallback background", "source", background.Source.String())
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != tok.gen {
		return ErrBusy
	}
	frame.DrawBackground(s.surface, background.Image)
	for i, img := range decoded {
		if img == nil {
			continue
		}
		frame.PlacePhoto(s.surface, img, photos[i].Slot)
	}
	frame.DrawOverlay(s.surface, s.layout)
	frame.DrawLabel(s.surface, s.layout, label)
	return nil
}

// Reset returns the session to Idle from any state: photos cleared, surface
// replaced, background re-synthesized. The old surface is not cleared in
// place, so a reader holding it across the grace window stays valid. A pass
// still outstanding at reset time is invalidated by the generation bump: it
// will report ErrBusy instead of painting its stale photo list onto the
// fresh surface.
func (s *Session) Reset() {
	s.mu.Lock()
	if s.resetTimer != nil {
		s.resetTimer.Stop()
		s.resetTimer = nil
	}
	s.photos = nil
	s.phase = PhaseIdle
	s.failReason = ""
	s.gen++
	s.current = nil
	s.surface = frame.NewSurface()
	s.drawBackgroundLocked()
	s.mu.Unlock()
	slog.Info("Session reset")
}

// Close stops the session. In-flight decode completions are discarded
// rather than applied.
func (s *Session) Close() {
	s.cancel()
	s.mu.Lock()
	if s.resetTimer != nil {
		s.resetTimer.Stop()
		s.resetTimer = nil
	}
	s.mu.Unlock()
}

// Phase returns the current phase.
func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// PhotoCount returns the number of captured photos.
func (s *Session) PhotoCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.photos)
}

// FailReason reports why the session entered PhaseFailed, if it did.
func (s *Session) FailReason() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failReason
}

// Surface exposes the raster target. Callers must not draw on it; it is
// owned by the session's redraw passes.
func (s *Session) Surface() *image.RGBA {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.surface
}

func (s *Session) beginPassLocked(reason string) (*pass, error) {
	if s.ctx.Err() != nil {
		return nil, ErrClosed
	}
	if s.current != nil {
		return nil, ErrBusy
	}
	tok := &pass{reason: reason, began: time.Now(), gen: s.gen}
	s.current = tok
	return tok, nil
}

func (s *Session) endPass(tok *pass) {
	s.mu.Lock()
	if s.current == tok {
		s.current = nil
	}
	s.mu.Unlock()
}

func (s *Session) scheduleReset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.resetTimer != nil {
		s.resetTimer.Stop()
	}
	s.resetTimer = time.AfterFunc(s.graceDelay, func() {
		s.mu.Lock()
		done := s.phase == PhaseDone
		s.mu.Unlock()
		if done {
			s.Reset()
		}
	})
}

// drawBackgroundLocked paints the resolved background and overlay onto the
// surface. Callers hold s.mu (or are the only reference holder).
func (s *Session) drawBackgroundLocked() {
	res := s.templates.Resolve()
	frame.DrawBackground(s.surface, res.Image)
	frame.DrawOverlay(s.surface, s.layout)
	frame.DrawLabel(s.surface, s.layout, s.label)
}
