package server

import (
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/theirongolddev/sessionlens/internal/logger"
)

const debounceInterval = 500 * time.Millisecond

// watcher calls onChange, debounced, when a session log under root is
// written or created. fsnotify is not recursive, so every directory under
// root is watched, including subagent dirs, and directories created later
// are added along with anything already inside them.
type watcher struct {
	fs       *fsnotify.Watcher
	onChange func()
	done     chan struct{}
}

func newWatcher(root string, onChange func()) (*watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(root); err != nil {
		_ = fw.Close()
		return nil, err
	}

	w := &watcher{fs: fw, onChange: onChange, done: make(chan struct{})}
	w.addTree(root)
	go w.loop()
	return w, nil
}

// addTree watches dir and every directory below it. Unreadable or vanished
// subtrees are logged and skipped.
func (w *watcher) addTree(dir string) {
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			logger.Debug("walking watch tree", "path", path, "err", err)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if err := w.fs.Add(path); err != nil {
			logger.Debug("watching dir", "dir", path, "err", err)
		}
		return nil
	})
}

func (w *watcher) loop() {
	var debounce *time.Timer
	defer func() {
		if debounce != nil {
			debounce.Stop()
		}
	}()

	for {
		select {
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					w.addTree(event.Name)
					continue
				}
			}
			if filepath.Ext(event.Name) != ".jsonl" {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				// Debounce rapid appends
				if debounce != nil {
					debounce.Stop()
				}
				debounce = time.AfterFunc(debounceInterval, w.onChange)
			}

		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			logger.Warn("file watcher error", "err", err)

		case <-w.done:
			return
		}
	}
}

// Close stops the watcher.
func (w *watcher) Close() {
	close(w.done)
	if err := w.fs.Close(); err != nil {
		logger.Error("failed to close watcher", "err", err)
	}
}
