// Package probe queries the operating system for foreground-application
// and audio-level samples. Probes are pure queries with no state of
// their own; failures are reported as errors and treated by callers as
// a missed sample, never as fatal.
package probe

import (
	"context"
	"time"
)

// QuietFloorDB is the level reported when no signal at all is measured.
const QuietFloorDB = -100.0

// FocusSample is one observation of the focused application.
// An empty AppName means the probe could not classify anything.
type FocusSample struct {
	AppName     string
	WindowTitle string
	ObservedAt  time.Time
}

// AudioSample is one instantaneous loudness estimate.
type AudioSample struct {
	LevelDB    float64
	ObservedAt time.Time
}

// Foreground queries the currently focused application.
type Foreground interface {
	Sample(ctx context.Context) (FocusSample, error)
}

// AudioLevel queries an audio capture source for a loudness estimate
// over a short window.
type AudioLevel interface {
	Sample(ctx context.Context) (AudioSample, error)
}
