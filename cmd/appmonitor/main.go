// App monitor - watches the foreground application for meeting activity
// and publishes start/stop trigger markers.
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

	if logFile := logging.Setup(cfg.Log.Dir, "app-monitor.log"); logFile != nil {
		defer func() { _ = logFile.Close() }()
	}

	slog.Info("starting app monitor",
		"monitored_apps", cfg.Apps.MonitoredApps,
		"meeting_keywords", cfg.Apps.MeetingKeywords,
		"poll_interval", cfg.Focus.PollInterval())

	pub := trigger.NewFilePublisher(cfg.Triggers.Dir, cfg.Triggers.StartMarker, cfg.Triggers.StopMarker)
	events := trigger.NewBroadcast(pub)
	mon := monitor.NewFocus(cfg, probe.NewForeground(), events)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Server.Enabled {
		srv := server.New(mon, events)
		go func() {
			if err := srv.ListenAndServe(ctx, cfg.Server.AppAddr); err != nil {
				slog.Error("status server error", "error", err)
			}
		}()
	}

	mon.Runner().Run(ctx)
	slog.Info("app monitor shut down")
}

func configPath() string {
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		return p
	}
	return "config.json"
}
