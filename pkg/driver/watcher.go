package driver

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"twaddle/interpreter-go/pkg/lookup"
)

// DefaultReloadDelay batches bursts of file events into one reload.
const DefaultReloadDelay = 200 * time.Millisecond

// Watcher reloads dictionaries into a Manager whenever a .dic file under
// its directories changes.
type Watcher struct {
	manager *lookup.Manager
	dirs    []string
	logger  *zap.Logger
	delay   time.Duration

	// OnReload, if set, is called after every reload attempt.
	OnReload func(dicts []*lookup.Dictionary, err error)

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewWatcher(manager *lookup.Manager, dirs []string, logger *zap.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{
		manager: manager,
		dirs:    append([]string(nil), dirs...),
		logger:  logger,
		delay:   DefaultReloadDelay,
		watcher: fsw,
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}, nil
}

// SetDelay changes how long the watcher waits for events to settle.
func (w *Watcher) SetDelay(d time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.delay = d
}

// Start registers every directory and returns; events are handled in the
// background until Close or ctx is done. If a directory cannot be watched
// the watcher is left stopped and Close only releases it.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return nil
	}
	for _, dir := range w.dirs {
		if err := w.addTree(dir); err != nil {
			return err
		}
	}
	w.running = true
	go w.run(ctx, w.delay)
	return nil
}

// Close stops the watcher and waits for its goroutine to exit.
func (w *Watcher) Close() error {
	w.mu.Lock()
	running := w.running
	w.running = false
	w.mu.Unlock()

	if running {
		close(w.stopCh)
		<-w.doneCh
	}
	return w.watcher.Close()
}

func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return w.watcher.Add(path)
	})
}

func (w *Watcher) run(ctx context.Context, delay time.Duration) {
	defer close(w.doneCh)

	timer := time.NewTimer(delay)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if w.handleEvent(event) {
				timer.Reset(delay)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("dictionary watcher error", zap.Error(err))
		case <-timer.C:
			w.reload(ctx)
		}
	}
}

// handleEvent reports whether event should trigger a reload.
func (w *Watcher) handleEvent(event fsnotify.Event) bool {
	if event.Op.Has(fsnotify.Create) {
		if isDir(event.Name) {
			if err := w.addTree(event.Name); err != nil {
				w.logger.Warn("watching new directory", zap.String("dir", event.Name), zap.Error(err))
			}
			return true
		}
	}
	if !strings.EqualFold(filepath.Ext(event.Name), DictionaryExt) {
		return false
	}
	if event.Op == fsnotify.Chmod {
		return false
	}
	w.logger.Debug("dictionary file changed", zap.String("file", event.Name), zap.String("op", event.Op.String()))
	return true
}

func (w *Watcher) reload(ctx context.Context) {
	dicts, err := LoadDirs(ctx, w.dirs, w.logger)
	if err != nil {
		w.logger.Warn("dictionary reload failed, keeping previous set", zap.Error(err))
	} else {
		w.manager.Replace(dicts)
		w.logger.Info("dictionaries reloaded", zap.Int("dictionaries", len(dicts)))
	}
	if w.OnReload != nil {
		w.OnReload(dicts, err)
	}
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
