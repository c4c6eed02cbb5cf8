// Package config handles monitor configuration
package config

import (
	"encoding/json"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/GriffinCanCode/meeting-sentinel/internal/errors"
)

// Configuration defaults are used when values are not specified.
const (
	DefaultAudioThresholdDB    = -50.0
	DefaultAudioMinDurationSec = 10.0
	DefaultMaxSilenceSec       = 30.0
	DefaultAudioPollSec        = 1.0
	DefaultFocusMinDurationSec = 30.0
	DefaultFocusPollSec        = 3.0
	DefaultProbeTimeoutSec     = 5.0
	DefaultCaptureWindowSec    = 1.0

	DefaultTriggerDir  = "/tmp"
	DefaultStartMarker = "meeting_trigger"
	DefaultStopMarker  = "meeting_stop"
)

// AppsConfig lists the applications and window-title keywords that
// indicate meeting activity.
type AppsConfig struct {
	MonitoredApps   []string `json:"monitored_apps" validate:"min=1,dive,required"`
	BrowserApps     []string `json:"browser_apps" validate:"dive,required"`
	MeetingKeywords []string `json:"meeting_keywords" validate:"dive,required"`
}

// IsMonitored reports whether the app name is in the monitored set.
func (a AppsConfig) IsMonitored(name string) bool { return contains(a.MonitoredApps, name) }

// IsBrowser reports whether the app name is a browser, requiring a
// window-title keyword match instead of unconditional classification.
func (a AppsConfig) IsBrowser(name string) bool { return contains(a.BrowserApps, name) }

func contains(list []string, name string) bool {
	for _, s := range list {
		if s == name {
			return true
		}
	}
	return false
}

// FocusConfig holds foreground-app monitor timing parameters.
type FocusConfig struct {
	MinDurationSeconds  float64 `json:"min_duration_seconds" validate:"gt=0"`
	PollIntervalSeconds float64 `json:"poll_interval_seconds" validate:"gt=0"`
	ProbeTimeoutSeconds float64 `json:"probe_timeout_seconds" validate:"gt=0"`
}

// MinDuration returns the stop-side debounce floor.
func (f FocusConfig) MinDuration() time.Duration { return seconds(f.MinDurationSeconds) }

// PollInterval returns the loop sleep interval.
func (f FocusConfig) PollInterval() time.Duration { return seconds(f.PollIntervalSeconds) }

// ProbeTimeout returns the per-call probe timeout.
func (f FocusConfig) ProbeTimeout() time.Duration { return seconds(f.ProbeTimeoutSeconds) }

// AudioConfig holds audio-level monitor thresholds and timing parameters.
type AudioConfig struct {
	ThresholdDB          float64  `json:"threshold_db" validate:"lt=0"`
	MinDurationSeconds   float64  `json:"min_duration_seconds" validate:"gt=0"`
	MaxSilenceSeconds    float64  `json:"max_silence_seconds" validate:"gt=0"`
	PollIntervalSeconds  float64  `json:"poll_interval_seconds" validate:"gt=0"`
	ProbeTimeoutSeconds  float64  `json:"probe_timeout_seconds" validate:"gt=0"`
	CaptureWindowSeconds float64  `json:"capture_window_seconds" validate:"gt=0"`
	DeviceKeywords       []string `json:"device_keywords"`
	SoxDevice            string   `json:"sox_device"`
}

// MinDuration returns the sustained-loudness window required to start.
func (a AudioConfig) MinDuration() time.Duration { return seconds(a.MinDurationSeconds) }

// MaxSilence returns the sustained-silence window required to stop.
func (a AudioConfig) MaxSilence() time.Duration { return seconds(a.MaxSilenceSeconds) }

// PollInterval returns the loop sleep interval.
func (a AudioConfig) PollInterval() time.Duration { return seconds(a.PollIntervalSeconds) }

// ProbeTimeout returns the per-call probe timeout.
func (a AudioConfig) ProbeTimeout() time.Duration { return seconds(a.ProbeTimeoutSeconds) }

// CaptureWindow returns the capture window a single level estimate covers.
func (a AudioConfig) CaptureWindow() time.Duration { return seconds(a.CaptureWindowSeconds) }

// TriggerConfig holds the marker file locations consumed by the
// external recording orchestrator.
type TriggerConfig struct {
	Dir         string `json:"dir" validate:"required"`
	StartMarker string `json:"start_marker" validate:"required"`
	StopMarker  string `json:"stop_marker" validate:"required"`
}

// ServerConfig holds the optional status server addresses, one per monitor.
type ServerConfig struct {
	Enabled   bool   `json:"enabled"`
	AppAddr   string `json:"app_addr" validate:"required_if=Enabled true"`
	AudioAddr string `json:"audio_addr" validate:"required_if=Enabled true"`
}

// LogConfig holds the append-only per-monitor log file location.
// An empty Dir disables file logging; stdout logging always stays on.
type LogConfig struct {
	Dir string `json:"dir"`
}

// Config holds all monitor configuration. It is loaded once at startup
// and immutable for the process lifetime.
type Config struct {
	Apps     AppsConfig    `json:"apps"`
	Focus    FocusConfig   `json:"focus"`
	Audio    AudioConfig   `json:"audio"`
	Triggers TriggerConfig `json:"triggers"`
	Server   ServerConfig  `json:"server"`
	Log      LogConfig     `json:"log"`
}

// Default returns the built-in configuration matching the reference
// deployment.
func Default() *Config {
	return &Config{
		Apps: AppsConfig{
			MonitoredApps: []string{
				"zoom.us", "Microsoft Teams", "Slack", "FaceTime", "Discord",
				"Google Chrome", "Safari", "Microsoft Edge", "Firefox",
			},
			BrowserApps: []string{"Google Chrome", "Safari", "Microsoft Edge", "Firefox"},
			MeetingKeywords: []string{
				"zoom", "meet.google", "teams.microsoft", "webex", "whereby", "meeting",
			},
		},
		Focus: FocusConfig{
			MinDurationSeconds:  DefaultFocusMinDurationSec,
			PollIntervalSeconds: DefaultFocusPollSec,
			ProbeTimeoutSeconds: DefaultProbeTimeoutSec,
		},
		Audio: AudioConfig{
			ThresholdDB:          DefaultAudioThresholdDB,
			MinDurationSeconds:   DefaultAudioMinDurationSec,
			MaxSilenceSeconds:    DefaultMaxSilenceSec,
			PollIntervalSeconds:  DefaultAudioPollSec,
			ProbeTimeoutSeconds:  DefaultProbeTimeoutSec,
			CaptureWindowSeconds: DefaultCaptureWindowSec,
			DeviceKeywords:       []string{"blackhole", "loopback", "soundflower", "aggregate"},
			SoxDevice:            "BlackHole 2ch",
		},
		Triggers: TriggerConfig{
			Dir:         DefaultTriggerDir,
			StartMarker: DefaultStartMarker,
			StopMarker:  DefaultStopMarker,
		},
		Server: ServerConfig{
			Enabled:   false,
			AppAddr:   ":8701",
			AudioAddr: ":8702",
		},
		Log: LogConfig{Dir: "logs"},
	}
}

// Load reads configuration from the given JSON file, applies environment
// overrides, and validates the result. File values are layered over the
// built-in defaults, so a partial file is valid; a missing or malformed
// file is fatal to the caller — the monitors cannot run without
// thresholds.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, errors.CodeConfigMissing, "read config %s", path)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, errors.CodeConfigInvalid, "parse config %s", path)
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field constraints and cross-field invariants.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(err, errors.CodeConfigInvalid, "config validation failed")
	}
	if c.Audio.MaxSilenceSeconds < c.Audio.PollIntervalSeconds {
		return errors.Newf(errors.CodeConfigInvalid,
			"audio max_silence_seconds (%.1f) must be >= poll_interval_seconds (%.1f)",
			c.Audio.MaxSilenceSeconds, c.Audio.PollIntervalSeconds)
	}
	return nil
}

// applyEnv layers environment overrides on top of file values.
func applyEnv(cfg *Config) {
	cfg.Triggers.Dir = getEnv("TRIGGER_DIR", cfg.Triggers.Dir)
	cfg.Log.Dir = getEnv("LOG_DIR", cfg.Log.Dir)
	cfg.Server.Enabled = getEnvBool("STATUS_SERVER_ENABLED", cfg.Server.Enabled)
	cfg.Server.AppAddr = getEnv("APP_STATUS_ADDR", cfg.Server.AppAddr)
	cfg.Server.AudioAddr = getEnv("AUDIO_STATUS_ADDR", cfg.Server.AudioAddr)
	cfg.Audio.ThresholdDB = getEnvFloat("AUDIO_THRESHOLD_DB", cfg.Audio.ThresholdDB)
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return f
		}
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		return v == "true" || v == "1"
	}
	return def
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
