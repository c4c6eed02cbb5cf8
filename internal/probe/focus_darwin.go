//go:build darwin

package probe

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
	"time"

	"github.com/GriffinCanCode/meeting-sentinel/internal/errors"
)

const (
	frontAppScript = `tell application "System Events" to get name of first application process whose frontmost is true`

	windowTitleScript = `tell application "System Events" to get name of front window of (first application process whose frontmost is true)`
)

type osascriptForeground struct{}

// NewForeground creates the platform foreground-application probe.
func NewForeground() Foreground { return &osascriptForeground{} }

// Sample queries System Events for the frontmost app and its window
// title. A missing window title is not an error: menu-bar apps and
// windowless processes legitimately have none.
func (p *osascriptForeground) Sample(ctx context.Context) (FocusSample, error) {
	sample := FocusSample{ObservedAt: time.Now()}

	name, err := runOSAScript(ctx, frontAppScript)
	if err != nil {
		return sample, err
	}
	sample.AppName = name

	if title, err := runOSAScript(ctx, windowTitleScript); err == nil {
		sample.WindowTitle = title
	}
	return sample, nil
}

func runOSAScript(ctx context.Context, script string) (string, error) {
	cmd := exec.CommandContext(ctx, "osascript", "-e", script)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", errors.Wrap(ctx.Err(), errors.CodeProbeTimeout, "osascript timed out")
		}
		return "", errors.Wrapf(err, errors.CodeProbeUnavailable,
			"osascript failed: %s", strings.TrimSpace(stderr.String()))
	}
	return strings.TrimSpace(stdout.String()), nil
}
