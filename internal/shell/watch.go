package shell

import (
	"log/slog"

	"github.com/fsnotify/fsnotify"
)

// fileWatcher hot-reloads the rc file and completion-config file for an
// interactive session (AMBIENT STACK "fsnotify ... watches the rc file and
// the JSON completion-config file for external edits ... and hot-reloads
// them"), grounded on the directory-watch-plus-debounced-reprocess shape of
// the pack's cmd/covtree/json_watch.go (fsnotify.NewWatcher, watcher.Add
// per path, a select loop over watcher.Events/Errors).
type fileWatcher struct {
	watcher *fsnotify.Watcher
	done    chan struct{}
}

// watchConfig starts watching rcPath and ccPath (ccPath may be empty) and
// reloads s's profile/completion registry whenever either changes on disk.
// Errors creating the watcher are logged, not fatal: hot-reload is a
// convenience, not a correctness requirement.
func (s *Shell) watchConfig(rcPath, ccPath string) *fileWatcher {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		s.it.Logger.Warn("completion/rc file watcher unavailable", slog.Any("error", err))
		return nil
	}
	for _, p := range []string{rcPath, ccPath} {
		if p == "" {
			continue
		}
		if err := w.Add(p); err != nil {
			s.it.Logger.Warn("cannot watch file", slog.String("path", p), slog.Any("error", err))
		}
	}

	fw := &fileWatcher{watcher: w, done: make(chan struct{})}
	go func() {
		for {
			select {
			case <-fw.done:
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				switch ev.Name {
				case rcPath:
					if p, err := LoadProfile(rcPath); err == nil {
						s.profile = p
						s.applyProfile(p)
						s.it.SyncOptions()
					}
				case ccPath:
					_ = s.loadCompletionConfig(ccPath)
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				s.it.Logger.Warn("config file watcher error", slog.Any("error", err))
			}
		}
	}()
	return fw
}

// Stop ends the watch goroutine and releases the underlying fsnotify
// watcher.
func (fw *fileWatcher) Stop() {
	if fw == nil {
		return
	}
	close(fw.done)
	fw.watcher.Close()
}
