package fs

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watch emits the node name whenever its contract file changes on disk.
// It is dev-mode tooling: a running engine never re-reads its contract, but
// watchers let CLIs and ops surfaces tell operators a restart would pick up
// new transitions.
//
// The returned channel is closed when the context is canceled.
func (s *Source) Watch(ctx context.Context) (<-chan string, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	// fsnotify does not recurse; register every directory under the root.
	err = filepath.WalkDir(s.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return watcher.Add(p)
		}
		return nil
	})
	if err != nil {
		_ = watcher.Close()
		return nil, err
	}

	events := make(chan string, 16)
	go s.watchLoop(ctx, watcher, events)
	return events, nil
}

func (s *Source) watchLoop(ctx context.Context, watcher *fsnotify.Watcher, events chan<- string) {
	defer close(events)
	defer watcher.Close()

	last := make(map[string]time.Time)
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}

			// New directories need their own watch registration.
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = watcher.Add(event.Name)
				}
			}

			if filepath.Base(event.Name) != ContractFileName {
				continue
			}

			// Editors fire bursts of events for one save; debounce per path.
			now := time.Now()
			if t, ok := last[event.Name]; ok && now.Sub(t) < 100*time.Millisecond {
				continue
			}
			last[event.Name] = now

			node := s.nodeForContractFile(event.Name)
			if node == "" {
				continue
			}

			select {
			case events <- node:
			case <-ctx.Done():
				return
			}
		case <-watcher.Errors:
			// Watch errors are not fatal for dev tooling; keep serving events.
		case <-ctx.Done():
			return
		}
	}
}

// nodeForContractFile maps an absolute contract path back to its node name.
func (s *Source) nodeForContractFile(abs string) string {
	rel, err := filepath.Rel(s.root, abs)
	if err != nil {
		return ""
	}
	return nodeFromContractPath(filepath.ToSlash(rel))
}
