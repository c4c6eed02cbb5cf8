package trigger

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/GriffinCanCode/meeting-sentinel/internal/errors"
)

// Watcher is the consumer side of the marker contract: it watches the
// trigger directory and emits each observed transition exactly once.
// It exists for the external orchestrator's benefit; the monitors
// themselves never read markers.
type Watcher struct {
	fw    *fsnotify.Watcher
	dir   string
	kinds map[string]Kind // marker file name -> kind

	mu     sync.Mutex
	lastAt map[Kind]time.Time

	events chan Event
}

// NewWatcher watches dir for the two marker files.
func NewWatcher(dir, startName, stopName string) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "create fs watcher")
	}
	if err := fw.Add(dir); err != nil {
		_ = fw.Close()
		return nil, errors.Wrapf(err, errors.CodeInternal, "watch %s", dir)
	}
	return &Watcher{
		fw:  fw,
		dir: dir,
		kinds: map[string]Kind{
			startName: KindStart,
			stopName:  KindStop,
		},
		lastAt: make(map[Kind]time.Time),
		events: make(chan Event, 16),
	}, nil
}

// Events returns the channel of observed transitions.
func (w *Watcher) Events() <-chan Event { return w.events }

// Run consumes filesystem events until the context ends. Marker writes
// carrying a timestamp not newer than the last observed one for that
// kind are suppressed, so an overwrite of the same transition is
// delivered once.
func (w *Watcher) Run(ctx context.Context) error {
	defer close(w.events)

	// Markers written before the watcher started still count: the
	// contract is presence plus recency, not the write event itself.
	for name := range w.kinds {
		w.emitMarker(filepath.Join(w.dir, name))
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case fsEv, ok := <-w.fw.Events:
			if !ok {
				return nil
			}
			if fsEv.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			if _, watched := w.kinds[filepath.Base(fsEv.Name)]; !watched {
				continue
			}
			w.emitMarker(fsEv.Name)
		case err, ok := <-w.fw.Errors:
			if !ok {
				return nil
			}
			slog.Warn("trigger watch error", "error", err)
		}
	}
}

// Close releases the underlying filesystem watcher.
func (w *Watcher) Close() error { return w.fw.Close() }

func (w *Watcher) emitMarker(path string) {
	kind := w.kinds[filepath.Base(path)]

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("read trigger marker failed", "path", path, "error", err)
		}
		return
	}

	at, detail, err := ParsePayload(string(data))
	if err != nil {
		slog.Warn("malformed trigger marker", "path", path, "error", err)
		return
	}

	w.mu.Lock()
	if last, seen := w.lastAt[kind]; seen && !at.After(last) {
		w.mu.Unlock()
		return
	}
	w.lastAt[kind] = at
	w.mu.Unlock()

	select {
	case w.events <- Event{Kind: kind, At: at, Detail: detail}:
	default:
		slog.Warn("trigger watcher consumer lagging, event dropped", "kind", kind)
	}
}
