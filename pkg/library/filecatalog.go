// Tilesync Core
// Copyright (c) 2025 The Tilesync Project Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of Tilesync Core.
//
// Tilesync Core is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Tilesync Core is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Tilesync Core.  If not, see <http://www.gnu.org/licenses/>.

package library

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

// FileCatalog is a Library backed by a JSON export of the host's game
// database. The export sits next to the host's media files, so icon
// references resolve relative to the export's directory.
type FileCatalog struct {
	fs      afero.Fs
	path    string
	mu      sync.RWMutex
	games   map[GameID]Game
	subs    map[int]func(Event)
	nextSub int
}

type wireAction struct {
	Type       string `json:"type"`
	Path       string `json:"path"`
	WorkingDir string `json:"workingDir"`
	Arguments  string `json:"arguments"`
}

type wireGame struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Source     string     `json:"source"`
	Icon       string     `json:"icon"`
	Background string     `json:"background"`
	Cover      string     `json:"cover"`
	Modified   time.Time  `json:"modified"`
	Action     wireAction `json:"action"`
	Hidden     bool       `json:"hidden"`
	Installed  bool       `json:"installed"`
	Manual     bool       `json:"manual"`
}

// NewFileCatalog loads the export at path. The file must exist and parse.
func NewFileCatalog(fsys afero.Fs, path string) (*FileCatalog, error) {
	c := &FileCatalog{
		fs:    fsys,
		path:  path,
		games: make(map[GameID]Game),
		subs:  make(map[int]func(Event)),
	}
	if err := c.Reload(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *FileCatalog) Games() ([]Game, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Game, 0, len(c.games))
	for _, g := range c.games {
		out = append(out, g)
	}
	return out, nil
}

func (c *FileCatalog) Game(id GameID) (Game, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	g, ok := c.games[id]
	return g, ok
}

// IconPath resolves a game's icon reference against the export directory.
func (c *FileCatalog) IconPath(g *Game) string {
	if g.IconRef == "" {
		return ""
	}
	if filepath.IsAbs(g.IconRef) {
		return g.IconRef
	}
	return filepath.Join(filepath.Dir(c.path), g.IconRef)
}

func (c *FileCatalog) FileStoragePath(id GameID) string {
	return filepath.Join(filepath.Dir(c.path), "files", id.String())
}

func (c *FileCatalog) Subscribe(fn func(Event)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.subs, id)
	}
}

// Reload re-reads the export and emits change events for the difference
// against the previous state.
func (c *FileCatalog) Reload() error {
	data, err := afero.ReadFile(c.fs, c.path)
	if err != nil {
		return fmt.Errorf("failed to read catalog %s: %w", c.path, err)
	}
	var wire []wireGame
	if err := json.Unmarshal(data, &wire); err != nil {
		return fmt.Errorf("failed to parse catalog %s: %w", c.path, err)
	}

	next := make(map[GameID]Game, len(wire))
	for i := range wire {
		g, err := fromWire(&wire[i])
		if err != nil {
			log.Warn().Err(err).Msgf("skipping catalog entry %q", wire[i].Name)
			continue
		}
		next[g.ID] = g
	}

	c.mu.Lock()
	prev := c.games
	c.games = next
	subs := make([]func(Event), 0, len(c.subs))
	for _, fn := range c.subs {
		subs = append(subs, fn)
	}
	c.mu.Unlock()

	emit := func(ev Event) {
		for _, fn := range subs {
			fn(ev)
		}
	}
	for id, g := range next {
		old, ok := prev[id]
		switch {
		case !ok:
			emit(Event{Kind: EventAdded, New: &g})
		case old != g:
			emit(Event{Kind: EventUpdated, Old: &old, New: &g})
		}
	}
	for id, old := range prev {
		if _, ok := next[id]; !ok {
			emit(Event{Kind: EventRemoved, Old: &old})
		}
	}
	return nil
}

// Watch reloads the catalog whenever the export file changes on disk. The
// returned cancel stops the watcher.
func (c *FileCatalog) Watch() (func(), error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create catalog watcher: %w", err)
	}
	// Watch the directory; editors and exporters typically replace the file
	// rather than writing in place.
	if err := w.Add(filepath.Dir(c.path)); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("failed to watch catalog directory: %w", err)
	}

	base := strings.ToLower(filepath.Base(c.path))
	go func() {
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
					continue
				}
				if !strings.EqualFold(filepath.Base(ev.Name), base) {
					continue
				}
				if err := c.Reload(); err != nil {
					log.Warn().Err(err).Msg("catalog reload failed")
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				log.Warn().Err(err).Msg("catalog watcher error")
			}
		}
	}()
	return func() { _ = w.Close() }, nil
}

func fromWire(w *wireGame) (Game, error) {
	id, err := uuid.Parse(w.ID)
	if err != nil {
		return Game{}, fmt.Errorf("invalid game id %q: %w", w.ID, err)
	}
	kind := ActionNone
	switch strings.ToLower(w.Action.Type) {
	case "file":
		kind = ActionFile
	case "url":
		kind = ActionURL
	}
	return Game{
		ID:              id,
		Name:            w.Name,
		Source:          w.Source,
		IconRef:         w.Icon,
		BackgroundRef:   w.Background,
		CoverRef:        w.Cover,
		Modified:        w.Modified,
		Hidden:          w.Hidden,
		Installed:       w.Installed,
		ManuallyCreated: w.Manual,
		Action: LaunchAction{
			Path:       w.Action.Path,
			WorkingDir: w.Action.WorkingDir,
			Arguments:  w.Action.Arguments,
			Kind:       kind,
		},
	}, nil
}
