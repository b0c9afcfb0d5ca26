// Copyright 2024 Institute of the Czech National Corpus,
//                Faculty of Arts, Charles University
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package taxonomy

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

// Watcher keeps a taxonomy dictionary loaded from a file and
// reloads it each time the file is rewritten. A failed reload
// keeps the previous version of the dictionary.
type Watcher struct {
	path     string
	dict     Dictionary
	lock     sync.RWMutex
	watcher  *fsnotify.Watcher
	onReload func(Dictionary)
}

// Dictionary returns the most recently loaded dictionary.
// Callers must treat the returned map as read-only.
func (w *Watcher) Dictionary() Dictionary {
	w.lock.RLock()
	defer w.lock.RUnlock()
	return w.dict
}

func (w *Watcher) reload() error {
	dict, err := LoadFile(w.path)
	if err != nil {
		return err
	}
	w.lock.Lock()
	w.dict = dict
	w.lock.Unlock()
	log.Info().
		Str("file", w.path).
		Int("numVerbs", len(dict)).
		Msg("taxonomy loaded")
	if w.onReload != nil {
		w.onReload(dict)
	}
	return nil
}

// Start watches the directory of the taxonomy file (editors often
// replace files instead of writing into them) until ctx is done.
func (w *Watcher) Start(ctx context.Context) {
	if err := w.watcher.Add(filepath.Dir(w.path)); err != nil {
		log.Error().Err(err).Str("file", w.path).Msg("failed to watch taxonomy file")
		return
	}
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-w.watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != w.path {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				if err := w.reload(); err != nil {
					log.Error().Err(err).Str("file", w.path).Msg("failed to reload taxonomy, keeping previous version")
				}
			case err, ok := <-w.watcher.Errors:
				if !ok {
					return
				}
				log.Error().Err(err).Str("file", w.path).Msg("taxonomy watcher error")
			}
		}
	}()
}

func (w *Watcher) Stop(ctx context.Context) error {
	log.Info().Str("file", w.path).Msg("stopping taxonomy watcher")
	return w.watcher.Close()
}

// NewWatcher loads the taxonomy file and prepares a watcher for it.
// The optional onReload callback is called after each successful reload.
func NewWatcher(path string, onReload func(Dictionary)) (*Watcher, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve taxonomy path: %w", err)
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create taxonomy watcher: %w", err)
	}
	ans := &Watcher{
		path:     absPath,
		watcher:  fsw,
		onReload: onReload,
	}
	if err := ans.reload(); err != nil {
		fsw.Close()
		return nil, err
	}
	return ans, nil
}
