// Audio monitor - watches ambient loudness for meeting activity and
// publishes start/stop trigger markers.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/GriffinCanCode/meeting-sentinel/internal/config"
	"github.com/GriffinCanCode/meeting-sentinel/internal/logging"
	"github.com/GriffinCanCode/meeting-sentinel/internal/monitor"
	"github.com/GriffinCanCode/meeting-sentinel/internal/probe"
	"github.com/GriffinCanCode/meeting-sentinel/internal/server"
	"github.com/GriffinCanCode/meeting-sentinel/internal/trigger"
)

func main() {
	cfg, err := config.Load(configPath())
	if err != nil {
		slog.Error("configuration error", "error", err)
		os.Exit(1)
	}

	if logFile := logging.Setup(cfg.Log.Dir, "audio-monitor.log"); logFile != nil {
		defer func() { _ = logFile.Close() }()
	}

	slog.Info("starting audio monitor",
		"threshold_db", cfg.Audio.ThresholdDB,
		"min_duration", cfg.Audio.MinDuration(),
		"max_silence", cfg.Audio.MaxSilence(),
		"poll_interval", cfg.Audio.PollInterval())

	level := audioProbe(cfg)
	if closer, ok := level.(interface{ Close() error }); ok {
		defer func() { _ = closer.Close() }()
	}

	pub := trigger.NewFilePublisher(cfg.Triggers.Dir, cfg.Triggers.StartMarker, cfg.Triggers.StopMarker)
	events := trigger.NewBroadcast(pub)
	mon := monitor.NewAudio(cfg, level, events)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Server.Enabled {
		srv := server.New(mon, events)
		go func() {
			if err := srv.ListenAndServe(ctx, cfg.Server.AudioAddr); err != nil {
				slog.Error("status server error", "error", err)
			}
		}()
	}

	mon.Runner().Run(ctx)
	slog.Info("audio monitor shut down")
}

// audioProbe builds the level probe, preferring the portaudio capture
// backend and degrading to the sox CLI. An inaccurate reading beats a
// crashed monitor.
func audioProbe(cfg *config.Config) probe.AudioLevel {
	capture, err := probe.NewCaptureLevel(cfg.Audio.DeviceKeywords, cfg.Audio.CaptureWindow())
	if err != nil {
		slog.Warn("audio capture unavailable, falling back to sox", "error", err)
		return probe.NewSoxLevel(cfg.Audio.SoxDevice, cfg.Audio.CaptureWindow())
	}
	return capture
}

func configPath() string {
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		return p
	}
	return "config.json"
}
