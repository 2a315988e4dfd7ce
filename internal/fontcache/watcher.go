package fontcache

import (
	"log"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// Watcher invalidates cached font entries when the backing TTF files in the
// local font directory change on disk, so a replaced asset takes effect
// without a restart.
type Watcher struct {
	cache   *Cache
	watcher *fsnotify.Watcher
	done    chan struct{}
}

// Watch starts watching the cache's font directory. The directory must
// exist; callers that lazily create it should start the watcher afterwards.
func (c *Cache) Watch() (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(c.dir); err != nil {
		fw.Close()
		return nil, err
	}

	w := &Watcher{cache: c, watcher: fw, done: make(chan struct{})}
	go w.run()
	return w, nil
}

func (w *Watcher) run() {
	for {
		select {
		case <-w.done:
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Remove) {
				continue
			}
			base := filepath.Base(ev.Name)
			if !strings.HasSuffix(strings.ToLower(base), ".ttf") {
				continue
			}
			w.invalidateByFile(base)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("font watcher error: %v", err)
		}
	}
}

// invalidateByFile drops every cached family whose asset file name matches.
// File names have spaces stripped, so the family cannot be reconstructed
// directly from the name.
func (w *Watcher) invalidateByFile(base string) {
	w.cache.mu.Lock()
	for family := range w.cache.fonts {
		if FontFileName(family) == base {
			delete(w.cache.fonts, family)
			log.Printf("font %q changed on disk, cache entry dropped", family)
		}
	}
	w.cache.mu.Unlock()
}

func (w *Watcher) Close() error {
	close(w.done)
	return w.watcher.Close()
}
