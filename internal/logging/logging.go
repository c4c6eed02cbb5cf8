// Package logging sets up per-monitor structured logging: stdout plus
// an append-only log file, acquired at startup and released on
// shutdown by the caller.
package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// Setup installs the default slog logger. When dir is non-empty the
// log stream is duplicated into an append-only file there; a file that
// cannot be opened downgrades to stdout-only with a warning rather
// than failing the monitor.
func Setup(dir, filename string) *os.File {
	var out io.Writer = os.Stdout
	var file *os.File

	if dir != "" {
		if err := os.MkdirAll(dir, 0o755); err == nil {
			f, err := os.OpenFile(filepath.Join(dir, filename), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
			if err == nil {
				out = io.MultiWriter(os.Stdout, f)
				file = f
			}
		}
	}

	logger := slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: slog.LevelDebug}))
	slog.SetDefault(logger)

	if dir != "" && file == nil {
		slog.Warn("log file unavailable, logging to stdout only", "dir", dir, "file", filename)
	}
	return file
}
