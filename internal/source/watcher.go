package source

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fsnotify/fsnotify"
)

// ChangedMsg reports vault-relative paths of notes that changed since the
// last message.
type ChangedMsg struct {
	Paths []string
}

type WatchErrMsg struct {
	Err error
}

// Watcher turns filesystem events under a vault into bubbletea messages.
// Bursts of events within the settle window are delivered as one message.
type Watcher struct {
	watcher *fsnotify.Watcher
	vault   string
	settle  time.Duration
	done    chan struct{}
	once    sync.Once
	onClose func()
}

func NewWatcher(vault string, settle time.Duration) (*Watcher, error) {
	normalized := normalizePath(vault)
	if normalized == "" {
		return nil, errors.New("vault directory cannot be empty")
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	watcher := &Watcher{
		watcher: w,
		vault:   normalized,
		settle:  settle,
		done:    make(chan struct{}),
	}
	if err := watcher.addRecursive(normalized); err != nil {
		_ = watcher.Close()
		return nil, err
	}
	return watcher, nil
}

// Start returns a command that blocks until the next batch of changes. The
// receiver is expected to call Start again after handling the message.
func (w *Watcher) Start() tea.Cmd {
	if w == nil {
		return nil
	}

	return func() tea.Msg {
		changed := make(map[string]struct{})
		var settle <-chan time.Time

		for {
			select {
			case <-w.done:
				return nil
			case <-settle:
				return ChangedMsg{Paths: sortedKeys(changed)}
			case event, ok := <-w.watcher.Events:
				if !ok {
					return nil
				}

				if event.Op&fsnotify.Create != 0 {
					if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
						_ = w.addRecursive(event.Name)
						continue
					}
				}

				rel, ok := w.relevant(event)
				if !ok {
					continue
				}
				changed[rel] = struct{}{}
				if w.settle <= 0 {
					return ChangedMsg{Paths: sortedKeys(changed)}
				}
				if settle == nil {
					settle = time.After(w.settle)
				}
			case err, ok := <-w.watcher.Errors:
				if !ok {
					return nil
				}
				if err != nil {
					return WatchErrMsg{Err: err}
				}
			}
		}
	}
}

func (w *Watcher) Close() error {
	if w == nil {
		return nil
	}

	var closeErr error
	w.once.Do(func() {
		close(w.done)
		closeErr = w.watcher.Close()
		if w.onClose != nil {
			w.onClose()
		}
	})
	return closeErr
}

// OnClose registers a callback invoked exactly once when the watcher shuts
// down.
func (w *Watcher) OnClose(fn func()) {
	if w == nil {
		return
	}
	w.onClose = fn
}

func (w *Watcher) addRecursive(root string) error {
	normalized := normalizePath(root)
	return filepath.WalkDir(normalized, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrPermission) {
				return filepath.SkipDir
			}
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != w.vault && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return w.watcher.Add(path)
	})
}

func (w *Watcher) relevant(event fsnotify.Event) (string, bool) {
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return "", false
	}
	rel, err := vaultRelative(w.vault, event.Name)
	if err != nil || rel == "." || rel == "" || strings.HasPrefix(rel, "..") {
		return "", false
	}
	if !strings.EqualFold(filepath.Ext(rel), ".md") {
		return "", false
	}
	return rel, true
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
