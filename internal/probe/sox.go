// Fallback audio level probe using the sox CLI.
package probe

import (
	"bytes"
	"context"
	"log/slog"
	"math"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/GriffinCanCode/meeting-sentinel/internal/errors"
)

// DegradedLevelDB is the estimate reported when no measurement tool is
// available at all. A moderate level rather than silence keeps the
// monitor from declaring a false stop while degraded.
const DegradedLevelDB = -60.0

// SoxLevel measures loudness by capturing a short window through the
// sox CLI and parsing its stat output. It is the fallback when the
// portaudio backend cannot be used.
type SoxLevel struct {
	device  string
	window  time.Duration
	soxPath string // empty when sox is not installed
}

// NewSoxLevel creates the fallback probe. A missing sox binary is not
// an error; the probe degrades to a fixed estimate.
func NewSoxLevel(device string, window time.Duration) *SoxLevel {
	path, err := exec.LookPath("sox")
	if err != nil {
		slog.Warn("sox not found, audio level degrades to a fixed estimate", "estimate_db", DegradedLevelDB)
		path = ""
	}
	return &SoxLevel{device: device, window: window, soxPath: path}
}

// Sample captures one window through sox and reports its RMS level.
func (p *SoxLevel) Sample(ctx context.Context) (AudioSample, error) {
	sample := AudioSample{ObservedAt: time.Now()}

	if p.soxPath == "" {
		sample.LevelDB = DegradedLevelDB
		return sample, nil
	}

	args := soxArgs(p.device, p.window)
	cmd := exec.CommandContext(ctx, p.soxPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr // sox writes stat output to stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return sample, errors.Wrap(ctx.Err(), errors.CodeProbeTimeout, "sox capture timed out")
		}
		return sample, errors.Wrapf(err, errors.CodeProbeUnavailable,
			"sox capture failed: %s", strings.TrimSpace(lastLine(stderr.String())))
	}

	rms, ok := parseRMSAmplitude(stderr.String())
	if !ok {
		sample.LevelDB = QuietFloorDB
		return sample, nil
	}
	sample.LevelDB = amplitudeDB(rms)
	return sample, nil
}

func soxArgs(device string, window time.Duration) []string {
	dur := strconv.FormatFloat(window.Seconds(), 'f', -1, 64)
	if runtime.GOOS == "darwin" {
		return []string{"-t", "coreaudio", device, "-n", "trim", "0", dur, "stat"}
	}
	return []string{"-d", "-n", "trim", "0", dur, "stat"}
}

// parseRMSAmplitude extracts the "RMS amplitude" value from sox stat
// output.
func parseRMSAmplitude(out string) (float64, bool) {
	for _, line := range strings.Split(out, "\n") {
		if !strings.Contains(line, "RMS") || !strings.Contains(line, "amplitude") {
			continue
		}
		_, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		rms, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			continue
		}
		return rms, true
	}
	return 0, false
}

func amplitudeDB(rms float64) float64 {
	if rms <= 0 {
		return QuietFloorDB
	}
	db := 20 * math.Log10(rms)
	if db < QuietFloorDB {
		db = QuietFloorDB
	}
	return db
}

func lastLine(out string) string {
	lines := strings.Split(strings.TrimSpace(out), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return ""
}
