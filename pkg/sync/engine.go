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

package sync

import (
	"path/filepath"
	"runtime"
	"sync/atomic"

	"github.com/TilesyncProject/tilesync-core/pkg/config"
	"github.com/TilesyncProject/tilesync-core/pkg/helpers"
	"github.com/TilesyncProject/tilesync-core/pkg/library"
	"github.com/TilesyncProject/tilesync-core/pkg/tiles"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Engine reconciles the shortcut folder against the game catalog. All
// methods must run on the queue worker; the index is single-writer.
type Engine struct {
	deps       *tiles.Deps
	lib        library.Library
	idx        *Index
	scriptsDir string
	iconsDir   string
}

// NewEngine wires an engine over the given collaborators. dataDir is the
// service's own data directory, which hosts the launch scripts and tile
// icons regardless of where the shortcuts themselves live.
func NewEngine(deps *tiles.Deps, lib library.Library, dataDir string) *Engine {
	scriptsDir := filepath.Join(dataDir, config.ScriptsDirName)
	return &Engine{
		deps:       deps,
		lib:        lib,
		idx:        NewIndex(),
		scriptsDir: scriptsDir,
		iconsDir:   filepath.Join(scriptsDir, config.IconsDirName),
	}
}

func (e *Engine) Index() *Index { return e.idx }

// ShouldKeep is the tile policy: a game gets a shortcut when it passes the
// installed, source, and hidden filters, or was manually included. The
// exclusion list beats everything, manual inclusion included.
func (e *Engine) ShouldKeep(g *library.Game, snap config.Snapshot) bool {
	if snap.IsExcluded(g.ID) {
		return false
	}
	manual := g.ManuallyCreated || snap.IsManual(g.ID)
	auto := (g.Installed || !snap.Shortcuts.InstalledOnly) &&
		snap.SourceEnabled(g.SourceName()) &&
		!(g.Hidden && snap.Shortcuts.ExcludeHidden)
	return auto || manual
}

// Rebuild rescans the shortcut root and reconstructs the index from the
// identity tags found on disk.
func (e *Engine) Rebuild(snap config.Snapshot) error {
	return e.idx.Rebuild(e.deps, e.lib, snap.Shortcuts.RootDir, e.scriptsDir, e.iconsDir)
}

// Reconcile partitions games by the tile policy and converges the folder:
// bundles are created or refreshed for the kept games and removed for the
// rest. force rebuilds kept bundles even when nothing looks stale. One
// game's failure never aborts its siblings.
func (e *Engine) Reconcile(games []library.Game, snap config.Snapshot, force bool) {
	keep := make([]*library.Game, 0, len(games))
	drop := make([]*library.Game, 0)
	for i := range games {
		g := &games[i]
		if !helpers.HasSafeName(g.Name) {
			log.Warn().Msgf("game %s has no usable shortcut name", g.ID)
			continue
		}
		if e.ShouldKeep(g, snap) {
			keep = append(keep, g)
		} else {
			drop = append(drop, g)
		}
	}
	e.createShortcuts(keep, snap, force)
	e.removeShortcuts(drop)
}

func (e *Engine) createShortcuts(games []*library.Game, snap config.Snapshot, force bool) {
	// First pass: forget indexed bundles whose files are gone, so they are
	// recreated instead of skipped.
	for _, g := range games {
		if b, ok := e.idx.Get(g.ID); ok && !b.Exists() {
			e.idx.Delete(g.ID)
			e.idx.UnregisterName(b.Game().Name, g.ID)
		}
	}

	// Second pass, single threaded: resolve name collisions and make sure
	// every kept game has a bundle in the index with its final path.
	for _, g := range games {
		// A renamed game leaves its old name group first, or the stale
		// entry reads as a collision for whoever takes the name next.
		if b, ok := e.idx.Get(g.ID); ok && b.Game().Name != g.Name {
			e.idx.UnregisterName(b.Game().Name, g.ID)
		}
		hasDuplicates := false
		for _, otherID := range e.idx.NameGroup(g.Name) {
			if otherID == g.ID {
				continue
			}
			other, ok := e.idx.Get(otherID)
			if !ok {
				continue
			}
			if otherGame, live := e.lib.Game(otherID); live {
				other.Bind(&otherGame)
				if err := other.SetName(tiles.SuffixedName(&otherGame)); err != nil {
					log.Error().Err(err).Msgf("failed to rename duplicate of %q", g.Name)
				}
			}
			hasDuplicates = true
		}
		e.idx.RegisterName(g.Name, g.ID)

		if b, ok := e.idx.Get(g.ID); ok {
			b.Bind(g)
			target := tiles.ShortcutPathFor(
				snap.Shortcuts.RootDir, g, snap.Shortcuts.SeparateFolders, hasDuplicates)
			name := filepath.Base(target)
			if err := b.SetName(name[:len(name)-len(filepath.Ext(name))]); err != nil {
				log.Error().Err(err).Msgf("failed to rename shortcut for %q", g.Name)
			}
		} else {
			e.idx.Put(tiles.NewBundle(
				e.deps, g,
				tiles.ShortcutPathFor(snap.Shortcuts.RootDir, g, snap.Shortcuts.SeparateFolders, hasDuplicates),
				e.scriptsDir, e.iconsDir))
		}
	}

	// Third pass: build artifacts. Bundles touch disjoint files once names
	// are settled, so this part can fan out.
	var failures atomic.Int64
	var grp errgroup.Group
	grp.SetLimit(runtime.NumCPU())
	for _, g := range games {
		b, ok := e.idx.Get(g.ID)
		if !ok {
			continue
		}
		grp.Go(func() error {
			var err error
			if force && b.Exists() {
				_, err = b.Update(true)
			} else {
				_, err = b.CreateOrUpdate()
			}
			if err != nil {
				failures.Add(1)
				log.Error().Err(err).Msgf("failed to sync shortcut for %q", b.Game().Name)
			}
			return nil
		})
	}
	_ = grp.Wait()

	if n := failures.Load(); n > 0 {
		log.Warn().Msgf("%d of %d shortcuts failed to sync", n, len(games))
	}
}

// Drop removes the bundles of games that left the catalog entirely,
// bypassing the keep policy.
func (e *Engine) Drop(games []*library.Game) {
	e.removeShortcuts(games)
}

func (e *Engine) removeShortcuts(games []*library.Game) {
	names := make([]string, 0, len(games))
	for _, g := range games {
		names = append(names, g.Name)
		if b, ok := e.idx.Get(g.ID); ok {
			// The index may still hold the game under an older name.
			if prev := b.Game().Name; prev != g.Name {
				e.idx.UnregisterName(prev, g.ID)
				names = append(names, prev)
			}
			b.Remove()
			e.idx.Delete(g.ID)
		}
		e.idx.UnregisterName(g.Name, g.ID)
	}

	// A collision group shrinking to one member frees its survivor to drop
	// the source suffix.
	for _, name := range names {
		group := e.idx.NameGroup(name)
		if len(group) != 1 {
			continue
		}
		survivor, ok := e.idx.Get(group[0])
		if !ok {
			continue
		}
		if err := survivor.SetName(helpers.SafeName(survivor.Game().Name)); err != nil {
			log.Error().Err(err).Msgf("failed to rename survivor of %q", name)
		}
	}
}

// RefreshGame force-rebuilds one game's bundle, rebinding it to the
// catalog's current record first.
func (e *Engine) RefreshGame(id library.GameID) {
	b, ok := e.idx.Get(id)
	if !ok {
		return
	}
	if g, live := e.lib.Game(id); live {
		b.Bind(&g)
	}
	if _, err := b.Update(true); err != nil {
		log.Error().Err(err).Msgf("failed to refresh shortcut for %q", b.Game().Name)
	}
}

// Relocate moves every bundle into the layout described by snap, after a
// root directory or folder layout change. A bundle that cannot move is
// removed so the next reconciliation recreates it cleanly.
func (e *Engine) Relocate(snap config.Snapshot) {
	var failed []*tiles.Bundle
	e.idx.Each(func(b *tiles.Bundle) {
		g := b.Game()
		hasDuplicates := len(e.idx.NameGroup(g.Name)) > 1 && !snap.Shortcuts.SeparateFolders
		target := tiles.ShortcutPathFor(
			snap.Shortcuts.RootDir, g, snap.Shortcuts.SeparateFolders, hasDuplicates)
		if !b.Move(target, e.iconsDir, e.scriptsDir) {
			log.Warn().Msgf("could not relocate shortcut for %q, removing", g.Name)
			failed = append(failed, b)
		}
	})
	for _, b := range failed {
		b.Remove()
		e.idx.Delete(b.Game().ID)
		e.idx.UnregisterName(b.Game().Name, b.Game().ID)
	}
}

// RemoveSourceBundles drops every bundle belonging to a source, used when
// the source's launch strategy changes and its scripts must regenerate.
func (e *Engine) RemoveSourceBundles(source string) {
	var doomed []*tiles.Bundle
	e.idx.Each(func(b *tiles.Bundle) {
		if b.Game().SourceName() == source {
			doomed = append(doomed, b)
		}
	})
	for _, b := range doomed {
		b.Remove()
		e.idx.Delete(b.Game().ID)
		e.idx.UnregisterName(b.Game().Name, b.Game().ID)
	}
}

// SetTileText toggles name display on one game's manifest and refreshes
// the tile so the fade matches.
func (e *Engine) SetTileText(id library.GameID, show bool) {
	b, ok := e.idx.Get(id)
	if !ok {
		return
	}
	path := b.ManifestPath()
	if err := tiles.SetManifestShowsName(e.deps.Fs, path, show); err != nil {
		log.Error().Err(err).Msgf("failed to toggle tile text for %q", b.Game().Name)
		return
	}
	if _, err := b.Update(true); err != nil {
		log.Error().Err(err).Msgf("failed to refresh shortcut for %q", b.Game().Name)
	}
}
