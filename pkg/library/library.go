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

// Package library defines the game catalog model the sync engine consumes.
// Implementations adapt a concrete launcher database to this interface; the
// rest of the codebase never talks to the launcher directly.
package library

import (
	"time"

	"github.com/TilesyncProject/tilesync-core/pkg/config"
	"github.com/google/uuid"
)

// GameID identifies a game across the catalog and inside shortcut identity
// tags. Tag round-trips rely on its canonical string form.
type GameID = uuid.UUID

// ActionKind discriminates how a game's play action launches it.
type ActionKind int

const (
	// ActionNone means the game has no usable play action and can only be
	// launched through the host application's deep link.
	ActionNone ActionKind = iota
	// ActionFile launches an executable directly.
	ActionFile
	// ActionURL opens a protocol URL, such as a store client deep link.
	ActionURL
)

// LaunchAction describes a game's own play action, used when a source is
// configured to bypass the host application.
type LaunchAction struct {
	Path       string
	WorkingDir string
	Arguments  string
	Kind       ActionKind
}

// Game is the catalog view of a single game. Values are snapshots: the
// engine never mutates them and a fresh event carries a fresh copy.
type Game struct {
	// Modified is the catalog's last-modified stamp, compared against
	// shortcut mtimes to detect stale artifacts.
	Modified        time.Time
	Name            string
	Source          string
	IconRef         string
	BackgroundRef   string
	CoverRef        string
	Action          LaunchAction
	ID              GameID
	Hidden          bool
	Installed       bool
	ManuallyCreated bool
}

// SourceName returns the game's source, or the undefined placeholder for
// games without one so they still group under a stable folder name.
func (g *Game) SourceName() string {
	if g.Source == "" {
		return config.UndefinedSource
	}
	return g.Source
}

// A Library adapts a launcher's game database.
type Library interface {
	// Games returns a snapshot of every game in the catalog.
	Games() ([]Game, error)
	// Game looks up a single game. The second return is false when the id
	// is not in the catalog.
	Game(id GameID) (Game, bool)
	// IconPath resolves a game's icon reference to an absolute path on
	// disk, or empty when the game has no icon.
	IconPath(g *Game) string
	// FileStoragePath returns the host's per-game media directory, used to
	// resolve relative image references.
	FileStoragePath(id GameID) string
	// Subscribe registers a listener for catalog changes. The returned
	// cancel func removes it.
	Subscribe(fn func(Event)) (cancel func())
}

// EventKind discriminates catalog change notifications.
type EventKind int

const (
	EventAdded EventKind = iota
	EventRemoved
	EventUpdated
)

// Event is a single catalog change. Updated events carry both versions so
// listeners can decide whether the change matters to them.
type Event struct {
	Old  *Game
	New  *Game
	Kind EventKind
}

// SignificantChange reports whether an update touches anything a shortcut
// tile renders or keys on. Playtime bumps and similar churn return false,
// which is what keeps reconciliation off the hot path of normal play.
func SignificantChange(old, updated *Game) bool {
	if old == nil || updated == nil {
		return true
	}
	return old.ID != updated.ID ||
		old.Name != updated.Name ||
		old.Source != updated.Source ||
		old.IconRef != updated.IconRef ||
		old.BackgroundRef != updated.BackgroundRef ||
		old.CoverRef != updated.CoverRef ||
		old.Hidden != updated.Hidden ||
		old.Installed != updated.Installed
}
