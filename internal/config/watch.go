// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"context"
	"log"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// =============================================================================
// CONFIG WATCHER
// =============================================================================

// DefaultDebounce coalesces the burst of events an editor save produces.
const DefaultDebounce = 200 * time.Millisecond

// Watcher reloads a config file when it changes.
type Watcher struct {
	path     string
	debounce time.Duration
	onChange func(*Config, error)
	watcher  *fsnotify.Watcher
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// Watch starts watching path and calls onChange with each reload. The
// containing directory is watched so editors that replace the file by
// rename are seen too.
func Watch(path string, onChange func(*Config, error)) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		fsw.Close()
		return nil, err
	}
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		fsw.Close()
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	w := &Watcher{
		path:     abs,
		debounce: DefaultDebounce,
		onChange: onChange,
		watcher:  fsw,
		ctx:      ctx,
		cancel:   cancel,
	}
	w.wg.Add(1)
	go w.processEvents()
	return w, nil
}

// processEvents filters events for the config file and reloads after the
// debounce interval.
func (w *Watcher) processEvents() {
	defer w.wg.Done()

	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-w.ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			cfg, err := LoadFromPath(w.path)
			if err != nil {
				log.Printf("Config: reload of %s failed: %v", w.path, err)
			} else {
				log.Printf("Config: reloaded %s", w.path)
			}
			w.onChange(cfg, err)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("Config: watcher error: %v", err)
		}
	}
}

// Close stops watching.
func (w *Watcher) Close() error {
	w.cancel()
	err := w.watcher.Close()
	w.wg.Wait()
	return err
}
