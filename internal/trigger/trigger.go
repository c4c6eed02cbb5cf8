// Package trigger publishes meeting-state transitions as durable
// markers that downstream, independently scheduled processes observe.
// A marker is one file per transition kind holding "<epoch>:<detail>";
// its presence plus recency is the entire contract.
package trigger

import (
	"strconv"
	"strings"
	"time"

	"github.com/GriffinCanCode/meeting-sentinel/internal/errors"
)

// Kind identifies the transition direction.
type Kind string

const (
	KindStart Kind = "start"
	KindStop  Kind = "stop"
)

// Source identifies which monitor observed the transition.
type Source string

const (
	SourceAppFocus   Source = "app_focus"
	SourceAudioLevel Source = "audio_level"
)

// Event is one meeting-state transition.
type Event struct {
	Kind   Kind      `json:"kind"`
	Source Source    `json:"source"`
	At     time.Time `json:"at"`
	Detail string    `json:"detail,omitempty"`
}

// Payload renders the marker contents: POSIX epoch seconds with
// fractional part, followed by ":<detail>" when a detail is present.
func (e Event) Payload() string {
	ts := strconv.FormatFloat(float64(e.At.UnixNano())/1e9, 'f', 6, 64)
	if e.Detail == "" {
		return ts
	}
	return ts + ":" + e.Detail
}

// ParsePayload parses marker contents back into a timestamp and detail.
func ParsePayload(payload string) (time.Time, string, error) {
	ts, detail, _ := strings.Cut(strings.TrimSpace(payload), ":")
	epoch, err := strconv.ParseFloat(ts, 64)
	if err != nil {
		return time.Time{}, "", errors.Wrapf(err, errors.CodeInternal, "parse marker timestamp %q", ts)
	}
	return time.Unix(0, int64(epoch*1e9)), detail, nil
}

// Publisher is the single integration point between the monitors and
// the outside world. Implementations must be safe to call from a
// single monitor loop and must write markers atomically.
type Publisher interface {
	Publish(Event) error
}

// Flusher is implemented by publishers that hold a failed event for
// retry; monitors call Flush on every scheduled check so a transition
// is not silently lost to one bad write.
type Flusher interface {
	Flush() error
}
