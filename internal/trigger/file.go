package trigger

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/GriffinCanCode/meeting-sentinel/internal/errors"
	"github.com/GriffinCanCode/meeting-sentinel/internal/resilience"
)

// FilePublisher writes transition markers as files, one location per
// kind, atomically replaced on every publish. Last write wins: an
// unconsumed marker of the same kind is simply overwritten.
type FilePublisher struct {
	dir       string
	startName string
	stopName  string
	retry     resilience.RetryConfig

	mu      sync.Mutex
	pending *Event
}

// NewFilePublisher creates a publisher writing markers under dir.
func NewFilePublisher(dir, startName, stopName string) *FilePublisher {
	return &FilePublisher{
		dir:       dir,
		startName: startName,
		stopName:  stopName,
		retry:     resilience.PublishRetryConfig(),
	}
}

// Publish writes the event's marker. On failure the event is kept as
// pending so the owning monitor can Flush it on its next tick.
func (p *FilePublisher) Publish(ev Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.write(ev); err != nil {
		held := ev
		p.pending = &held
		return errors.Wrapf(err, errors.CodePublishFailed, "write %s marker", ev.Kind)
	}
	p.pending = nil
	return nil
}

// Flush retries the pending event, if any. A nil return means there is
// nothing outstanding.
func (p *FilePublisher) Flush() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.pending == nil {
		return nil
	}
	ev := *p.pending
	if err := p.write(ev); err != nil {
		return errors.Wrapf(err, errors.CodePublishFailed, "retry %s marker", ev.Kind)
	}
	p.pending = nil
	slog.Info("republished trigger marker after earlier failure", "kind", ev.Kind, "source", ev.Source)
	return nil
}

// Pending reports whether an event is held for retry.
func (p *FilePublisher) Pending() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pending != nil
}

func (p *FilePublisher) write(ev Event) error {
	path := p.markerPath(ev.Kind)
	payload := []byte(ev.Payload())

	return resilience.Retry(context.Background(), p.retry, func() error {
		return atomicWrite(path, payload)
	})
}

func (p *FilePublisher) markerPath(kind Kind) string {
	name := p.stopName
	if kind == KindStart {
		name = p.startName
	}
	return filepath.Join(p.dir, name)
}

// atomicWrite writes via a temp file and rename so a reader never
// observes a partially written marker.
func atomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+"-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return nil
}
