package notionpub

import (
	"context"
	"log"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

const reloadDelay = 300 * time.Millisecond

// SiteWatcher reloads the site file when it changes on disk.
type SiteWatcher struct {
	watcher *fsnotify.Watcher
	cancel  context.CancelFunc
	done    chan struct{}
}

// WatchSiteFile reloads path into the app whenever it is written. The parent
// directory is watched since editors often replace files instead of writing
// them in place. It returns nil when path is empty.
func (a *App) WatchSiteFile(path string) (*SiteWatcher, error) {
	if path == "" {
		return nil, nil
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		w.Close()
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	sw := &SiteWatcher{watcher: w, cancel: cancel, done: make(chan struct{})}
	go sw.run(ctx, abs, a.reloadSiteFile)
	log.Printf("watch: %s", abs)
	return sw, nil
}

func (sw *SiteWatcher) run(ctx context.Context, path string, reload func(string)) {
	defer close(sw.done)
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-sw.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if abs, _ := filepath.Abs(event.Name); abs != path {
				continue
			}
			// Coalesce the burst of events a single save produces.
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(reloadDelay, func() { reload(path) })
		case err, ok := <-sw.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("watch: %v", err)
		}
	}
}

// Close stops watching.
func (sw *SiteWatcher) Close() error {
	sw.cancel()
	err := sw.watcher.Close()
	<-sw.done
	return err
}

func (a *App) reloadSiteFile(path string) {
	f, err := LoadSiteFile(path)
	if err != nil {
		log.Printf("watch: %v", err)
		return
	}
	if err := a.applySiteFile(f); err != nil {
		log.Printf("watch: %s: %v", path, err)
		return
	}
	log.Printf("watch: reloaded %s", path)
}
