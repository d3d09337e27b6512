package library

import (
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"podcats/internal/metadata"
)

// Watcher calls onChange after the tree below root changes in a way that can
// alter the channel. Bursts of events collapse into one call once the tree has
// been quiet for the debounce interval. Calls never overlap, and Close returns
// only after the last call has finished.
type Watcher struct {
	root     string
	debounce time.Duration
	onChange func()
	logger   *log.Logger

	fsw  *fsnotify.Watcher
	stop chan struct{}
	done chan struct{}

	closeOnce sync.Once
	closeErr  error
}

// NewWatcher starts watching root and every directory below it.
func NewWatcher(root string, debounce time.Duration, onChange func(), logger *log.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.Default()
	}

	w := &Watcher{
		root:     root,
		debounce: debounce,
		onChange: onChange,
		logger:   logger,
		fsw:      fsw,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	w.watchTree(root)

	go w.loop()
	return w, nil
}

// Close stops watching. A pending change that has not fired yet is dropped.
func (w *Watcher) Close() error {
	w.closeOnce.Do(func() {
		close(w.stop)
		<-w.done
		w.closeErr = w.fsw.Close()
	})
	return w.closeErr
}

// loop owns the debounce timer and runs onChange on its own goroutine, which
// serialises the callbacks.
func (w *Watcher) loop() {
	defer close(w.done)

	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-w.stop:
			return
		default:
		}

		select {
		case <-w.stop:
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !w.affectsChannel(event) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(w.debounce)
			fire = timer.C
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Printf("warning: watch %s: %v", w.root, err)
		case <-fire:
			fire = nil
			w.onChange()
		}
	}
}

// affectsChannel reports whether event can change the assembled channel. New
// directories are added to the watch set as a side effect.
func (w *Watcher) affectsChannel(event fsnotify.Event) bool {
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			w.watchTree(event.Name)
			return true
		}
	}
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}
	if metadata.IsAudio(event.Name) || isCoverImage(filepath.Base(event.Name)) {
		return true
	}
	// A vanished directory can no longer be stat'ed; judge it by its name.
	return (event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename)) && filepath.Ext(event.Name) == ""
}

func (w *Watcher) watchTree(dir string) {
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			w.logger.Printf("warning: watch %s: %v", path, err)
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if err := w.fsw.Add(path); err != nil {
			w.logger.Printf("warning: watch %s: %v", path, err)
		}
		return nil
	})
	if err != nil {
		w.logger.Printf("warning: watch %s: %v", dir, err)
	}
}
