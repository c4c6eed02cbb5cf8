// Audio level capture backed by portaudio.
package probe

import (
	"context"
	"log/slog"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/gordonklaus/portaudio"

	"github.com/GriffinCanCode/meeting-sentinel/internal/errors"
)

const (
	captureSampleRate = 16000
	framesPerBuffer   = 1024
)

// CaptureLevel measures loudness from a portaudio input device. The
// stream runs continuously; each Sample call reports the RMS level of
// the most recent capture window in dBFS.
type CaptureLevel struct {
	stream *portaudio.Stream
	window int // samples covered by one estimate

	mu      sync.Mutex
	samples []float32
}

// NewCaptureLevel opens a capture stream on the first input device whose
// name matches one of the keywords, falling back to the default input
// device. The caller owns the probe and must Close it on shutdown.
func NewCaptureLevel(deviceKeywords []string, window time.Duration) (*CaptureLevel, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, errors.Wrap(err, errors.CodeProbeUnavailable, "initialize portaudio")
	}

	dev, err := pickInputDevice(deviceKeywords)
	if err != nil {
		_ = portaudio.Terminate()
		return nil, err
	}

	c := &CaptureLevel{
		window: int(captureSampleRate * window.Seconds()),
	}
	if c.window <= 0 {
		c.window = captureSampleRate
	}

	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   dev,
			Channels: 1,
			Latency:  dev.DefaultLowInputLatency,
		},
		SampleRate:      captureSampleRate,
		FramesPerBuffer: framesPerBuffer,
	}

	stream, err := portaudio.OpenStream(params, c.onInput)
	if err != nil {
		_ = portaudio.Terminate()
		return nil, errors.Wrapf(err, errors.CodeProbeUnavailable, "open stream on %s", dev.Name)
	}
	if err := stream.Start(); err != nil {
		_ = stream.Close()
		_ = portaudio.Terminate()
		return nil, errors.Wrapf(err, errors.CodeProbeUnavailable, "start stream on %s", dev.Name)
	}

	c.stream = stream
	slog.Info("audio capture started", "device", dev.Name, "sample_rate", captureSampleRate)
	return c, nil
}

func (c *CaptureLevel) onInput(in []float32) {
	c.mu.Lock()
	c.samples = append(c.samples, in...)
	if over := len(c.samples) - c.window; over > 0 {
		c.samples = c.samples[over:]
	}
	c.mu.Unlock()
}

// Sample reports the RMS loudness of the most recent capture window.
func (c *CaptureLevel) Sample(_ context.Context) (AudioSample, error) {
	c.mu.Lock()
	buf := make([]float32, len(c.samples))
	copy(buf, c.samples)
	c.mu.Unlock()

	sample := AudioSample{ObservedAt: time.Now()}
	if len(buf) == 0 {
		return sample, errors.New(errors.CodeProbeUnavailable, "no audio captured yet")
	}
	sample.LevelDB = rmsDB(buf)
	return sample, nil
}

// Close stops the capture stream and releases portaudio.
func (c *CaptureLevel) Close() error {
	if c.stream != nil {
		_ = c.stream.Stop()
		_ = c.stream.Close()
	}
	return portaudio.Terminate()
}

// rmsDB converts samples in [-1, 1] to an RMS level in dBFS, floored
// at QuietFloorDB.
func rmsDB(samples []float32) float64 {
	var sum float64
	for _, s := range samples {
		sum += float64(s) * float64(s)
	}
	rms := math.Sqrt(sum / float64(len(samples)))
	if rms <= 0 {
		return QuietFloorDB
	}
	db := 20 * math.Log10(rms)
	if db < QuietFloorDB {
		db = QuietFloorDB
	}
	return db
}

func pickInputDevice(keywords []string) (*portaudio.DeviceInfo, error) {
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeProbeUnavailable, "list audio devices")
	}

	// Keyword order expresses preference: loopback devices that carry
	// system audio rank ahead of plain microphones.
	for _, kw := range keywords {
		for _, dev := range devices {
			if dev.MaxInputChannels < 1 {
				continue
			}
			if containsIgnoreCase(dev.Name, kw) {
				return dev, nil
			}
		}
	}

	if dev, err := portaudio.DefaultInputDevice(); err == nil && dev.MaxInputChannels >= 1 {
		return dev, nil
	}
	return nil, errors.New(errors.CodeProbeUnavailable, "no audio input device available")
}

func containsIgnoreCase(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
