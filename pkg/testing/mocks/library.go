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

package mocks

import (
	"path/filepath"
	"sort"
	"sync"

	"github.com/TilesyncProject/tilesync-core/pkg/library"
)

// MockLibrary is an in-memory game catalog for tests. Mutations emit the
// same events a real catalog would, so subscription paths can be exercised
// without a running frontend.
type MockLibrary struct {
	mu         sync.RWMutex
	games      map[library.GameID]library.Game
	subs       map[int]func(library.Event)
	nextSub    int
	StorageDir string

	// GamesErr, when set, is returned by Games to simulate catalog outages.
	GamesErr error
}

// NewMockLibrary creates an empty catalog storing game files under dir.
func NewMockLibrary(dir string) *MockLibrary {
	return &MockLibrary{
		games:      make(map[library.GameID]library.Game),
		subs:       make(map[int]func(library.Event)),
		StorageDir: dir,
	}
}

func (m *MockLibrary) Games() ([]library.Game, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.GamesErr != nil {
		return nil, m.GamesErr
	}
	out := make([]library.Game, 0, len(m.games))
	for _, g := range m.games {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *MockLibrary) Game(id library.GameID) (library.Game, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	g, ok := m.games[id]
	return g, ok
}

// IconPath resolves a game's icon reference inside the storage dir,
// returning empty for games without an icon.
func (m *MockLibrary) IconPath(g *library.Game) string {
	if g.IconRef == "" {
		return ""
	}
	return filepath.Join(m.StorageDir, g.ID.String(), g.IconRef)
}

func (m *MockLibrary) FileStoragePath(id library.GameID) string {
	return filepath.Join(m.StorageDir, id.String())
}

func (m *MockLibrary) Subscribe(fn func(library.Event)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = fn
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.subs, id)
	}
}

// Add inserts a game and emits an added event.
func (m *MockLibrary) Add(g library.Game) {
	m.mu.Lock()
	m.games[g.ID] = g
	subs := m.listeners()
	m.mu.Unlock()
	for _, fn := range subs {
		fn(library.Event{Kind: library.EventAdded, New: &g})
	}
}

// Update replaces a game and emits an updated event carrying both versions.
func (m *MockLibrary) Update(g library.Game) {
	m.mu.Lock()
	old, ok := m.games[g.ID]
	m.games[g.ID] = g
	subs := m.listeners()
	m.mu.Unlock()
	if !ok {
		return
	}
	for _, fn := range subs {
		fn(library.Event{Kind: library.EventUpdated, Old: &old, New: &g})
	}
}

// Remove deletes a game and emits a removed event.
func (m *MockLibrary) Remove(id library.GameID) {
	m.mu.Lock()
	old, ok := m.games[id]
	delete(m.games, id)
	subs := m.listeners()
	m.mu.Unlock()
	if !ok {
		return
	}
	for _, fn := range subs {
		fn(library.Event{Kind: library.EventRemoved, Old: &old})
	}
}

// Seed inserts games without emitting events, for test setup.
func (m *MockLibrary) Seed(games ...library.Game) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, g := range games {
		m.games[g.ID] = g
	}
}

func (m *MockLibrary) listeners() []func(library.Event) {
	out := make([]func(library.Event), 0, len(m.subs))
	for _, fn := range m.subs {
		out = append(out, fn)
	}
	return out
}
