// Package watcher is a scoped background observer that posts
// paths-changed events to a bounded, lossless queue read by the
// orchestrator's Update (spec.md §4.8).
//
// Grounded on open-policy-agent/opa's filewatcher/filewatcher.go: an
// fsnotify.Watcher wrapped in a small type that spawns one goroutine over
// watcher.Events and hands processed results to the caller. Two things
// differ from that model, both called out where they depart: Update is
// a polling consumer (spec.md's reload protocol runs from the host's
// main loop, not a callback), so this package exposes Drain instead of
// an onReload callback; and every change is debounced per path with an
// added content-fingerprint check, since spec.md adds "if the same path
// changes multiple times within a short window, coalesce to one event"
// on top of what filewatcher.go does.
package watcher

import (
	"context"
	"io"
	"os"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/fsnotify/fsnotify"

	"github.com/mun-lang/mun-runtime/internal/rtlog"
)

// DefaultDebounce is the coalescing window spec.md §4.8 names explicitly.
const DefaultDebounce = 50 * time.Millisecond

// changeMask is every fsnotify operation that counts as a reload trigger.
const changeMask = fsnotify.Create | fsnotify.Write | fsnotify.Remove | fsnotify.Rename

// Watcher observes a fixed set of assembly files (and their declared
// dependency files) and accumulates the set of paths that changed since
// the last Drain.
type Watcher struct {
	debounce time.Duration
	logger   rtlog.Logger

	fsw *fsnotify.Watcher

	mu        sync.Mutex
	timers    map[string]*time.Timer
	lastHash  map[string]uint64
	pending   map[string]struct{}
	wake      chan struct{}
	closeOnce sync.Once
	done      chan struct{}
}

// New creates a Watcher over paths. It does not start observing until
// Start is called.
func New(paths []string, debounce time.Duration, logger rtlog.Logger) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = rtlog.Global()
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	for _, p := range paths {
		logger.WithField("path", p).Debug("watching path")
		if err := fsw.Add(p); err != nil {
			fsw.Close()
			return nil, err
		}
	}
	return &Watcher{
		debounce: debounce,
		logger:   logger,
		fsw:      fsw,
		timers:   make(map[string]*time.Timer),
		lastHash: make(map[string]uint64),
		pending:  make(map[string]struct{}),
		wake:     make(chan struct{}, 1),
		done:     make(chan struct{}),
	}, nil
}

// Start spawns the background goroutine that reads fsnotify events. It
// returns immediately; the goroutine runs until ctx is cancelled or
// Close is called.
func (w *Watcher) Start(ctx context.Context) {
	go w.run(ctx)
}

func (w *Watcher) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case evt, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if evt.Op&changeMask == 0 {
				continue
			}
			w.logger.WithField("event", evt.String()).Debug("file event")
			w.scheduleDebounced(evt.Name)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.WithField("error", err).Warn("watcher error")
		}
	}
}

// scheduleDebounced resets path's per-path timer; the timer firing is
// what actually enqueues the change, so N events within the window
// collapse to the one timer that survives to fire.
func (w *Watcher) scheduleDebounced(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.timers[path]; ok {
		t.Stop()
	}
	w.timers[path] = time.AfterFunc(w.debounce, func() { w.fire(path) })
}

// fire runs after the debounce window elapses with no further events for
// path. A content-fingerprint check absorbs the common editor pattern of
// writing the file, then immediately rewriting the exact same bytes
// (e.g. an atomic-rename save): if the content hash is unchanged from
// the last time this path was enqueued, the event is dropped instead of
// queued.
func (w *Watcher) fire(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	delete(w.timers, path)

	hash, hadContent := fingerprintFile(path)
	if hadContent && w.lastHash[path] == hash {
		return
	}
	if hadContent {
		w.lastHash[path] = hash
	} else {
		delete(w.lastHash, path)
	}

	w.pending[path] = struct{}{}
	select {
	case w.wake <- struct{}{}:
	default:
	}
}

// fingerprintFile hashes a file's current content. A file that no longer
// exists (removed, or mid-rename) reports hadContent=false, which always
// forces the event through — there is nothing to compare against.
func fingerprintFile(path string) (hash uint64, hadContent bool) {
	f, err := os.Open(path)
	if err != nil {
		return 0, false
	}
	defer f.Close()

	h := xxhash.New()
	if _, err := io.Copy(h, f); err != nil {
		return 0, false
	}
	return h.Sum64(), true
}

// Drain returns every path that changed since the last Drain call and
// clears the pending set. It never blocks: an empty result just means
// nothing changed. This is the "bounded, lossless queue" of spec.md
// §4.8 rendered as a coalesced set rather than a channel of individual
// events — bounded because it never grows past one entry per watched
// path, lossless because entries are merged, never dropped, while
// waiting to be drained.
func (w *Watcher) Drain() []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	if len(w.pending) == 0 {
		return nil
	}
	out := make([]string, 0, len(w.pending))
	for p := range w.pending {
		out = append(out, p)
	}
	w.pending = make(map[string]struct{})
	return out
}

// Close stops the background goroutine and releases the underlying
// fsnotify watcher. Safe to call more than once.
func (w *Watcher) Close() error {
	w.closeOnce.Do(func() { close(w.done) })
	return w.fsw.Close()
}
