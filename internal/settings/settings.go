// Package settings polls the settings collaborator for the event label and
// template reference. Failures degrade to whatever was last known; the
// capture flow is never blocked on settings.
package settings

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// DefaultPollInterval is how often the collaborator is re-read.
const DefaultPollInterval = 30 * time.Second

// Settings is the collaborator's payload. TemplateRef is either empty, a
// remote URL, or an inline data URI.
type Settings struct {
	EventLabel  string `json:"event_label"`
	TemplateRef string `json:"template_ref,omitempty"`
}

// Client fetches settings over HTTP.
type Client struct {
	URL        string
	HTTPClient *http.Client
}

// NewClient builds a settings client for url.
func NewClient(url string) *Client {
	return &Client{
		URL:        url,
		HTTPClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// Fetch reads the current settings.
func (c *Client) Fetch(ctx context.Context) (Settings, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL, nil)
	if err != nil {
		return Settings{}, fmt.Errorf("failed to create settings request: %w", err)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return Settings{}, fmt.Errorf("failed to fetch settings: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Settings{}, fmt.Errorf("settings endpoint returned status %d", resp.StatusCode)
	}

	var s Settings
	if err := json.NewDecoder(resp.Body).Decode(&s); err != nil {
		return Settings{}, fmt.Errorf("failed to decode settings: %w", err)
	}
	return s, nil
}

// Poller re-reads settings on a fixed interval and hands each changed
// result to OnUpdate; an unchanged poll is a no-op downstream. The last
// good value is kept across fetch failures.
type Poller struct {
	Client   *Client
	Interval time.Duration
	OnUpdate func(Settings)

	mu   sync.RWMutex
	last Settings
	seen bool
}

// NewPoller builds a poller; interval <= 0 selects the default.
func NewPoller(client *Client, interval time.Duration, onUpdate func(Settings)) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Poller{Client: client, Interval: interval, OnUpdate: onUpdate}
}

// Current returns the most recently fetched settings.
func (p *Poller) Current() Settings {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.last
}

// Run polls until ctx is cancelled. The first fetch happens immediately.
func (p *Poller) Run(ctx context.Context) {
	p.poll(ctx)

	ticker := time.NewTicker(p.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.poll(ctx)
		}
	}
}

func (p *Poller) poll(ctx context.Context) {
	s, err := p.Client.Fetch(ctx)
	if err != nil {
		slog.Warn("Settings poll failed, keeping last known", "error", err)
		return
	}

	p.mu.Lock()
	// The first successful fetch always counts, even when it matches the
	// zero value; after that only real changes propagate downstream.
	changed := !p.seen || s != p.last
	p.seen = true
	p.last = s
	p.mu.Unlock()

	if !changed {
		return
	}
	slog.Info("Settings updated", "event_label", s.EventLabel, "template_ref", s.TemplateRef != "")
	if p.OnUpdate != nil {
		p.OnUpdate(s)
	}
}
