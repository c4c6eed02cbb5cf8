//go:build !darwin

package probe

import (
	"context"
	"time"

	"github.com/GriffinCanCode/meeting-sentinel/internal/errors"
)

type unsupportedForeground struct{}

// NewForeground creates the platform foreground-application probe.
// Platforms without a foreground query report every sample as a miss,
// so the focus monitor degrades to "no classification".
func NewForeground() Foreground { return &unsupportedForeground{} }

func (p *unsupportedForeground) Sample(_ context.Context) (FocusSample, error) {
	return FocusSample{ObservedAt: time.Now()},
		errors.New(errors.CodeProbeUnavailable, "foreground query not supported on this platform")
}
