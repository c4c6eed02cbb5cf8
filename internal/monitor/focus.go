package monitor

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/GriffinCanCode/meeting-sentinel/internal/config"
	"github.com/GriffinCanCode/meeting-sentinel/internal/probe"
	"github.com/GriffinCanCode/meeting-sentinel/internal/trigger"
)

// Focus watches the foreground application for meeting activity.
// A switch to a meeting app starts immediately; a switch away stops
// only after the indicating state has lasted the configured floor, so
// brief app-switcher flicker does not end a real meeting.
type Focus struct {
	cfg   *config.Config
	probe probe.Foreground
	pub   trigger.Publisher
	flush trigger.Flusher // nil when the publisher holds nothing for retry

	mu          sync.Mutex
	currentApp  string
	active      bool
	activeSince time.Time
	lastSample  time.Time
}

// NewFocus creates the foreground-application monitor.
func NewFocus(cfg *config.Config, p probe.Foreground, pub trigger.Publisher) *Focus {
	m := &Focus{cfg: cfg, probe: p, pub: pub}
	if f, ok := pub.(trigger.Flusher); ok {
		m.flush = f
	}
	return m
}

// Runner returns the loop runner for this monitor.
func (m *Focus) Runner() *Runner {
	return NewRunner("app-focus", m.cfg.Focus.PollInterval(), m.Step)
}

// Step performs one poll: flush any held marker write, query the
// probe, classify, and apply edge detection. A probe failure is a
// missed sample, never fatal.
func (m *Focus) Step(ctx context.Context, now time.Time) {
	if m.flush != nil {
		if err := m.flush.Flush(); err != nil {
			slog.Warn("trigger flush failed", "error", err)
		}
	}

	pctx, cancel := context.WithTimeout(ctx, m.cfg.Focus.ProbeTimeout())
	sample, err := m.probe.Sample(pctx)
	cancel()
	if err != nil {
		slog.Debug("foreground probe miss", "error", err)
		sample = probe.FocusSample{ObservedAt: now}
	}

	m.observe(sample, now)
}

// observe applies classification and edge detection for one sample.
func (m *Focus) observe(sample probe.FocusSample, now time.Time) {
	var ev *trigger.Event

	m.mu.Lock()
	m.lastSample = now

	if sample.AppName != m.currentApp {
		if sample.AppName != "" {
			slog.Info("foreground app changed", "app", sample.AppName)
		}
		m.currentApp = sample.AppName
	}

	indicating := Classify(sample, m.cfg.Apps)
	switch {
	case indicating && !m.active:
		m.active = true
		m.activeSince = now
		slog.Info("meeting app detected", "app", sample.AppName, "title", sample.WindowTitle)
		ev = &trigger.Event{Kind: trigger.KindStart, Source: trigger.SourceAppFocus, At: now, Detail: sample.AppName}

	case !indicating && m.active:
		if now.Sub(m.activeSince) >= m.cfg.Focus.MinDuration() {
			m.active = false
			m.activeSince = time.Time{}
			slog.Info("meeting app no longer active", "app", m.currentApp)
			ev = &trigger.Event{Kind: trigger.KindStop, Source: trigger.SourceAppFocus, At: now}
		}
		// Below the floor the state stays active: the switch away is
		// treated as flicker until the floor has elapsed.
	}
	m.mu.Unlock()

	if ev != nil {
		m.publish(*ev)
	}
}

// Snapshot returns the monitor's current state.
func (m *Focus) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Snapshot{
		Monitor:     "app-focus",
		Active:      m.active,
		ActiveSince: m.activeSince,
		LastSample:  m.lastSample,
		CurrentApp:  m.currentApp,
	}
}

func (m *Focus) publish(ev trigger.Event) {
	if err := m.pub.Publish(ev); err != nil {
		slog.Error("trigger publish failed", "kind", ev.Kind, "error", err)
	}
}

// Classify reports whether a focus sample indicates meeting activity.
// Dedicated communication apps indicate unconditionally; browsers
// indicate only when the window title contains a meeting keyword,
// matched case-insensitively as a substring.
func Classify(sample probe.FocusSample, apps config.AppsConfig) bool {
	if sample.AppName == "" {
		return false
	}
	if !apps.IsMonitored(sample.AppName) {
		return false
	}
	if apps.IsBrowser(sample.AppName) {
		if sample.WindowTitle == "" {
			return false
		}
		title := strings.ToLower(sample.WindowTitle)
		for _, kw := range apps.MeetingKeywords {
			if strings.Contains(title, strings.ToLower(kw)) {
				return true
			}
		}
		return false
	}
	return true
}
