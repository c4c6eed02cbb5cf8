package monitor

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/GriffinCanCode/meeting-sentinel/internal/config"
	"github.com/GriffinCanCode/meeting-sentinel/internal/probe"
	"github.com/GriffinCanCode/meeting-sentinel/internal/trigger"
)

// Audio watches ambient loudness for meeting activity using two
// independent timers: starting requires continuous loudness for the
// configured minimum, stopping requires sustained silence. Single
// glitches in either direction never toggle the state.
type Audio struct {
	cfg   *config.Config
	probe probe.AudioLevel
	pub   trigger.Publisher
	flush trigger.Flusher

	mu             sync.Mutex
	active         bool
	candidateStart time.Time // first sample of the current continuous-loud run
	lastSignal     time.Time // last loud sample, drives the stop side
	lastLevel      float64
	lastSample     time.Time
}

// NewAudio creates the audio-level monitor.
func NewAudio(cfg *config.Config, p probe.AudioLevel, pub trigger.Publisher) *Audio {
	m := &Audio{cfg: cfg, probe: p, pub: pub}
	if f, ok := pub.(trigger.Flusher); ok {
		m.flush = f
	}
	return m
}

// Runner returns the loop runner for this monitor.
func (m *Audio) Runner() *Runner {
	return NewRunner("audio-level", m.cfg.Audio.PollInterval(), m.Step)
}

// Step performs one poll. A probe failure is treated as a quiet
// sample: a vanished capture device during an active meeting drains
// into the normal silence path instead of wedging the state.
func (m *Audio) Step(ctx context.Context, now time.Time) {
	if m.flush != nil {
		if err := m.flush.Flush(); err != nil {
			slog.Warn("trigger flush failed", "error", err)
		}
	}

	pctx, cancel := context.WithTimeout(ctx, m.cfg.Audio.ProbeTimeout())
	sample, err := m.probe.Sample(pctx)
	cancel()
	if err != nil {
		slog.Debug("audio probe miss", "error", err)
		sample = probe.AudioSample{LevelDB: probe.QuietFloorDB, ObservedAt: now}
	}

	m.observe(sample.LevelDB, now)
}

// observe applies the two-threshold hysteresis for one level sample.
func (m *Audio) observe(levelDB float64, now time.Time) {
	var ev *trigger.Event

	m.mu.Lock()
	m.lastLevel = levelDB
	m.lastSample = now

	if levelDB > m.cfg.Audio.ThresholdDB {
		if !m.active {
			if m.candidateStart.IsZero() {
				m.candidateStart = now
				slog.Info("audio signal detected", "level_db", levelDB)
			} else if now.Sub(m.candidateStart) >= m.cfg.Audio.MinDuration() {
				m.active = true
				slog.Info("sustained audio detected, meeting start", "level_db", levelDB)
				ev = &trigger.Event{Kind: trigger.KindStart, Source: trigger.SourceAudioLevel, At: now}
			}
		}
		m.lastSignal = now
	} else {
		switch {
		case m.active:
			if !m.lastSignal.IsZero() && now.Sub(m.lastSignal) >= m.cfg.Audio.MaxSilence() {
				m.active = false
				m.candidateStart = time.Time{}
				slog.Info("extended silence detected, meeting stop", "level_db", levelDB)
				ev = &trigger.Event{Kind: trigger.KindStop, Source: trigger.SourceAudioLevel, At: now}
			}
		default:
			// A quiet blip resets the start timer: the sustained
			// window requires continuous loudness, not cumulative.
			m.candidateStart = time.Time{}
		}
	}
	m.mu.Unlock()

	if ev != nil {
		m.publish(*ev)
	}
}

// Snapshot returns the monitor's current state.
func (m *Audio) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Snapshot{
		Monitor:     "audio-level",
		Active:      m.active,
		ActiveSince: m.candidateStart,
		LastSignal:  m.lastSignal,
		LastSample:  m.lastSample,
		LastLevelDB: m.lastLevel,
	}
}

func (m *Audio) publish(ev trigger.Event) {
	if err := m.pub.Publish(ev); err != nil {
		slog.Error("trigger publish failed", "kind", ev.Kind, "error", err)
	}
}
