// Copyright 2026 The tcgref Authors
// SPDX-License-Identifier: Apache-2.0

package dataset

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/tcgref/tcgref/lib/clock"
	"github.com/tcgref/tcgref/lib/ingest"
)

// DefaultDebounce is how long the watcher waits after the last event
// before emitting a change set.
const DefaultDebounce = 500 * time.Millisecond

// WatchRepository is the Repository of change sets from a Watcher.
const WatchRepository = "local"

// WatcherConfig configures a Watcher.
type WatcherConfig struct {
	Root     string
	Debounce time.Duration
	Clock    clock.Clock
	Logger   *slog.Logger
}

// Watcher emits a change set for every burst of edits under a local
// dataset directory.
type Watcher struct {
	root     string
	debounce time.Duration
	clock    clock.Clock
	logger   *slog.Logger
	fs       *fsnotify.Watcher
}

// NewWatcher starts watching the layout's directories under
// config.Root. Directories that do not exist yet are picked up when
// they are created.
func NewWatcher(config WatcherConfig) (*Watcher, error) {
	if config.Root == "" {
		return nil, errors.New("dataset: watcher root is required")
	}
	if config.Debounce <= 0 {
		config.Debounce = DefaultDebounce
	}
	if config.Clock == nil {
		config.Clock = clock.Real()
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating filesystem watcher: %w", err)
	}
	watcher := &Watcher{
		root:     config.Root,
		debounce: config.Debounce,
		clock:    config.Clock,
		logger:   config.Logger.With("component", "dataset-watcher", "root", config.Root),
		fs:       fsWatcher,
	}
	if err := fsWatcher.Add(config.Root); err != nil {
		fsWatcher.Close()
		return nil, fmt.Errorf("watching %s: %w", config.Root, err)
	}
	for _, dir := range Directories()[1:] {
		watcher.addDir(dir)
	}
	return watcher, nil
}

func (w *Watcher) addDir(dir string) {
	full := filepath.Join(w.root, filepath.FromSlash(dir))
	if info, err := os.Stat(full); err != nil || !info.IsDir() {
		return
	}
	if err := w.fs.Add(full); err != nil {
		w.logger.Warn("watching dataset directory failed", "dir", dir, "error", err)
	}
}

// Run emits change sets until ctx ends, then closes the watcher.
func (w *Watcher) Run(ctx context.Context, emit func(ingest.ChangeSet)) error {
	defer w.fs.Close()

	pending := make(map[string]struct{})
	var settle <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			names := w.relevant(event)
			if len(names) == 0 {
				continue
			}
			for _, name := range names {
				pending[name] = struct{}{}
			}
			settle = w.clock.After(w.debounce)

		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("filesystem watcher error", "error", err)

		case <-settle:
			settle = nil
			files := make([]string, 0, len(pending))
			for name := range pending {
				files = append(files, name)
			}
			clear(pending)
			slices.Sort(files)
			w.logger.Info("local dataset changed", "files", files)
			emit(ingest.ChangeSet{Repository: WatchRepository, Files: files})
		}
	}
}

// relevant maps an event to the dataset paths it changed, keeping
// only paths the layout owns. Newly created layout directories are
// added to the watch list.
func (w *Watcher) relevant(event fsnotify.Event) []string {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return nil
	}
	rel, err := filepath.Rel(w.root, event.Name)
	if err != nil {
		return nil
	}
	name := filepath.ToSlash(rel)

	candidates := []string{name}
	if event.Has(fsnotify.Create) && slices.Contains(Directories(), name) {
		w.addDir(name)
		// Files written before the watch was added produce no events.
		candidates, _ = DirSource{Root: w.root}.ListFiles(context.Background(), name)
	}

	var names []string
	for _, candidate := range candidates {
		if FieldsFor([]string{candidate}) != 0 {
			names = append(names, candidate)
		}
	}
	return names
}
