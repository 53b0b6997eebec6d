// # internal/core/watcher/watcher.go
package watcher

import (
	"context"
	"distiller/internal/core/scan"
	"distiller/internal/shared/observability"
	"distiller/internal/shared/util"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

type Options struct {
	Debounce time.Duration
	// MaxRate caps how often one file is re-distilled, in runs per second.
	MaxRate float64
	Burst   int
}

// Watcher reports batches of changed source files. Files whose content is
// unchanged since the last report are dropped, and a file that changes
// faster than MaxRate is held back until its limiter allows it.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	scanner   *scan.Scanner
	onChange  func([]scan.File)
	limiters  *util.LimiterRegistry

	callbackMu sync.Mutex

	rootsMu sync.RWMutex
	roots   []string

	pendingMu sync.Mutex
	debounce  time.Duration
	pending   map[string]bool
	timer     *time.Timer

	hashMu sync.Mutex
	hashes map[string]string

	cancel context.CancelFunc
	done   chan struct{}
}

func NewWatcher(scanner *scan.Scanner, opts Options, onChange func([]scan.File)) (*Watcher, error) {
	if onChange == nil || scanner == nil {
		return nil, os.ErrInvalid
	}
	if opts.Debounce <= 0 {
		opts.Debounce = 300 * time.Millisecond
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Watcher{
		fsWatcher: fsw,
		scanner:   scanner,
		onChange:  onChange,
		limiters:  util.NewLimiterRegistry(ctx, opts.MaxRate, opts.Burst, 10*time.Minute),
		debounce:  opts.Debounce,
		pending:   make(map[string]bool),
		hashes:    make(map[string]string),
		cancel:    cancel,
		done:      make(chan struct{}),
	}, nil
}

func (w *Watcher) SetDebounce(debounce time.Duration) {
	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()
	w.debounce = debounce
}

// Prime records the current content of files so that a later event that
// leaves them unchanged is not reported. Paths are made absolute to match
// the paths events arrive with.
func (w *Watcher) Prime(files []scan.File) {
	for _, f := range files {
		abs, err := filepath.Abs(f.Path)
		if err != nil {
			continue
		}
		if data, err := os.ReadFile(abs); err == nil {
			w.remember(abs, util.ContentHash(data))
		}
	}
}

// Watch registers every directory under roots and starts the event loop.
func (w *Watcher) Watch(roots []string) error {
	for _, root := range roots {
		abs, err := filepath.Abs(root)
		if err != nil {
			return err
		}
		w.rootsMu.Lock()
		w.roots = append(w.roots, abs)
		w.rootsMu.Unlock()
		if err := w.watchRecursive(abs); err != nil {
			return err
		}
	}

	go w.run()
	return nil
}

func (w *Watcher) watchRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && w.scanner.SkipDir(d.Name()) {
			return filepath.SkipDir
		}
		return w.fsWatcher.Add(path)
	})
}

func (w *Watcher) run() {
	defer close(w.done)
	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			observability.WatcherEventsTotal.Inc()
			w.handle(event)

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			slog.Error("watcher error", "error", err)
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	if event.Has(fsnotify.Create) {
		info, err := os.Stat(event.Name)
		if err == nil && info.IsDir() {
			if w.scanner.SkipDir(filepath.Base(event.Name)) {
				return
			}
			if err := w.watchRecursive(event.Name); err != nil {
				slog.Warn("failed to watch new directory", "path", event.Name, "error", err)
				return
			}
			w.enqueueExistingFiles(event.Name)
			return
		}
	}

	if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
		w.forget(event.Name)
		return
	}
	if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
		w.scheduleChange(event.Name)
	}
}

func (w *Watcher) rootFor(path string) (string, bool) {
	w.rootsMu.RLock()
	defer w.rootsMu.RUnlock()
	best := ""
	for _, root := range w.roots {
		rel, err := filepath.Rel(root, path)
		if err != nil || strings.HasPrefix(rel, "..") {
			continue
		}
		if len(root) > len(best) {
			best = root
		}
	}
	return best, best != ""
}

func (w *Watcher) accept(path string) (scan.File, bool) {
	root, ok := w.rootFor(path)
	if !ok {
		return scan.File{}, false
	}
	return w.scanner.Accept(root, path)
}

func (w *Watcher) scheduleChange(path string) {
	if _, ok := w.accept(path); !ok {
		return
	}

	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()

	w.pending[path] = true
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.flushChanges)
}

func (w *Watcher) flushChanges() {
	w.pendingMu.Lock()
	paths := util.SortedStringKeys(w.pending)
	w.pending = make(map[string]bool)
	w.pendingMu.Unlock()

	var (
		changed  []scan.File
		deferred []string
	)
	for _, path := range paths {
		f, ok := w.accept(path)
		if !ok {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			slog.Debug("skipping unreadable file", "path", path, "error", err)
			continue
		}
		hash := util.ContentHash(data)
		if w.unchanged(path, hash) {
			slog.Debug("skipping unchanged file", "path", path)
			continue
		}
		if !w.limiters.Allow(path) {
			deferred = append(deferred, path)
			continue
		}
		w.remember(path, hash)
		changed = append(changed, f)
	}

	for _, path := range deferred {
		slog.Debug("rate limited, retrying later", "path", path)
		w.scheduleChange(path)
	}

	if len(changed) > 0 {
		sort.Slice(changed, func(i, j int) bool { return changed[i].Path < changed[j].Path })
		w.callbackMu.Lock()
		defer w.callbackMu.Unlock()
		w.onChange(changed)
	}
}

func (w *Watcher) unchanged(path, hash string) bool {
	w.hashMu.Lock()
	defer w.hashMu.Unlock()
	return w.hashes[path] == hash
}

func (w *Watcher) remember(path, hash string) {
	w.hashMu.Lock()
	defer w.hashMu.Unlock()
	w.hashes[path] = hash
}

func (w *Watcher) forget(path string) {
	w.hashMu.Lock()
	defer w.hashMu.Unlock()
	prefix := path + string(filepath.Separator)
	for known := range w.hashes {
		if known == path || strings.HasPrefix(known, prefix) {
			delete(w.hashes, known)
		}
	}
}

func (w *Watcher) enqueueExistingFiles(root string) {
	_ = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		w.scheduleChange(path)
		return nil
	})
}

func (w *Watcher) Close() error {
	w.pendingMu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.pendingMu.Unlock()
	w.cancel()
	return w.fsWatcher.Close()
}
