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
	"fmt"
	"path/filepath"
	"strings"

	"github.com/TilesyncProject/tilesync-core/pkg/config"
	"github.com/TilesyncProject/tilesync-core/pkg/helpers"
	"github.com/TilesyncProject/tilesync-core/pkg/library"
	"github.com/TilesyncProject/tilesync-core/pkg/tiles"
	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

const manifestSuffix = ".visualelementsmanifest.xml"

// Service owns the sync lifecycle: it watches the game catalog and the
// manifest folder and funnels all reconciliation work through a single
// queue so the index never sees concurrent writers.
type Service struct {
	cfg     *config.Instance
	lib     library.Library
	eng     *Engine
	queue   *Queue
	watcher *fsnotify.Watcher
	unsub   func()
	fs      afero.Fs
}

// NewService wires a service over the given catalog. dataDir hosts the
// launch scripts and tile icons.
func NewService(cfg *config.Instance, lib library.Library, deps *tiles.Deps, dataDir string) *Service {
	return &Service{
		cfg: cfg,
		lib: lib,
		eng: NewEngine(deps, lib, dataDir),
		fs:  deps.Fs,
	}
}

func (s *Service) Engine() *Engine { return s.eng }
func (s *Service) Queue() *Queue   { return s.queue }

// Start prepares the folder structure, rebuilds the index from disk, and
// begins watching the catalog and the manifest folder. It fails only when
// the shortcut root cannot be created, which makes every later operation
// pointless.
func (s *Service) Start() error {
	if err := s.createFolders(); err != nil {
		return fmt.Errorf("error preparing shortcut folders: %w", err)
	}

	snap := s.cfg.Snapshot()
	if err := s.eng.Rebuild(snap); err != nil {
		return fmt.Errorf("error scanning shortcut folder: %w", err)
	}

	s.queue = NewQueue()

	if s.cfg.UpdateOnStartup() {
		s.SyncAll()
	}

	s.unsub = s.lib.Subscribe(s.onCatalogEvent)

	if err := s.startManifestWatcher(); err != nil {
		log.Warn().Err(err).Msg("manifest watcher unavailable, tile edits will not auto-apply")
	}

	return nil
}

// Stop tears down the watcher, drains in-flight work, and only then
// unsubscribes from catalog events. Events arriving during the drain are
// dropped by the closed queue. Safe to call once after a successful Start.
func (s *Service) Stop() {
	if s.watcher != nil {
		_ = s.watcher.Close()
	}
	if s.queue != nil {
		s.queue.Close()
	}
	if s.unsub != nil {
		s.unsub()
	}
}

func (s *Service) createFolders() error {
	if err := s.fs.MkdirAll(s.cfg.RootDir(), 0o755); err != nil {
		return err
	}
	if err := s.fs.MkdirAll(s.eng.iconsDir, 0o755); err != nil {
		return err
	}
	if err := helpers.HideDir(s.eng.scriptsDir); err != nil {
		log.Debug().Err(err).Msg("could not hide scripts folder")
	}
	return nil
}

// SyncAll reconciles the whole catalog against the current settings.
func (s *Service) SyncAll() {
	s.queue.Enqueue("sync all", func() {
		games, err := s.lib.Games()
		if err != nil {
			log.Error().Err(err).Msg("failed to list games")
			return
		}
		s.eng.Reconcile(games, s.cfg.Snapshot(), false)
	})
}

// ForceUpdateAll rebuilds the artifacts of every existing shortcut, used
// after an icon pack or style change that does not touch the catalog.
func (s *Service) ForceUpdateAll() {
	s.queue.Enqueue("force update", func() {
		games, err := s.lib.Games()
		if err != nil {
			log.Error().Err(err).Msg("failed to list games")
			return
		}
		s.eng.Reconcile(games, s.cfg.Snapshot(), true)
	})
}

// UpdateSettings replaces the shortcut settings, persists them, and
// relocates existing shortcuts when the folder layout changed.
func (s *Service) UpdateSettings(next config.Shortcuts) error {
	prev := s.cfg.ShortcutSettings()
	s.cfg.SetShortcutSettings(next)
	if err := s.cfg.Save(); err != nil {
		return err
	}

	layoutChanged := prev.RootDir != next.RootDir || prev.SeparateFolders != next.SeparateFolders
	s.queue.Enqueue("apply settings", func() {
		snap := s.cfg.Snapshot()
		if layoutChanged {
			if err := s.fs.MkdirAll(snap.Shortcuts.RootDir, 0o755); err != nil {
				log.Error().Err(err).Msg("failed to create new shortcut folder")
				return
			}
			s.eng.Relocate(snap)
		}
		games, err := s.lib.Games()
		if err != nil {
			log.Error().Err(err).Msg("failed to list games")
			return
		}
		s.eng.Reconcile(games, snap, false)
	})
	return nil
}

// UpdateSource replaces one source's rule and persists it. Changing the
// launch strategy invalidates the source's launch scripts, so its bundles
// are dropped and recreated by the reconciliation that follows.
func (s *Service) UpdateSource(name string, next config.Source) error {
	prev, _ := s.cfg.Source(name)
	s.cfg.SetSource(name, next)
	if err := s.cfg.Save(); err != nil {
		return err
	}

	scriptsChanged := prev.UsePlayAction != next.UsePlayAction
	s.queue.Enqueue("apply source rule", func() {
		if scriptsChanged {
			s.eng.RemoveSourceBundles(name)
		}
		games, err := s.lib.Games()
		if err != nil {
			log.Error().Err(err).Msg("failed to list games")
			return
		}
		s.eng.Reconcile(games, s.cfg.Snapshot(), false)
	})
	return nil
}

// IncludeGame pins a game's shortcut regardless of the keep policy.
func (s *Service) IncludeGame(id library.GameID) error {
	s.cfg.RemoveExcluded(id)
	changed := s.cfg.AddManualTile(id)
	if err := s.cfg.Save(); err != nil {
		return err
	}
	if changed {
		s.reconcileGame(id)
	}
	return nil
}

// ExcludeGame blocks a game's shortcut regardless of the keep policy.
func (s *Service) ExcludeGame(id library.GameID) error {
	s.cfg.RemoveManualTile(id)
	changed := s.cfg.AddExcluded(id)
	if err := s.cfg.Save(); err != nil {
		return err
	}
	if changed {
		s.reconcileGame(id)
	}
	return nil
}

// ResetGame clears both the manual and the excluded flag, returning the
// game to plain policy treatment.
func (s *Service) ResetGame(id library.GameID) error {
	a := s.cfg.RemoveManualTile(id)
	b := s.cfg.RemoveExcluded(id)
	if err := s.cfg.Save(); err != nil {
		return err
	}
	if a || b {
		s.reconcileGame(id)
	}
	return nil
}

// SetTileTextVisible toggles the game name overlay on one tile.
func (s *Service) SetTileTextVisible(id library.GameID, show bool) {
	s.queue.Enqueue("toggle tile text", func() {
		s.eng.SetTileText(id, show)
	})
}

func (s *Service) reconcileGame(id library.GameID) {
	s.queue.Enqueue("reconcile game", func() {
		g, ok := s.lib.Game(id)
		if !ok {
			return
		}
		s.eng.Reconcile([]library.Game{g}, s.cfg.Snapshot(), false)
	})
}

func (s *Service) onCatalogEvent(ev library.Event) {
	switch ev.Kind {
	case library.EventAdded:
		g := *ev.New
		s.queue.Enqueue("game added", func() {
			s.eng.Reconcile([]library.Game{g}, s.cfg.Snapshot(), false)
		})
	case library.EventUpdated:
		if !library.SignificantChange(ev.Old, ev.New) {
			return
		}
		g := *ev.New
		s.queue.Enqueue("game updated", func() {
			s.eng.Reconcile([]library.Game{g}, s.cfg.Snapshot(), false)
		})
	case library.EventRemoved:
		g := *ev.Old
		s.queue.Enqueue("game removed", func() {
			s.eng.Drop([]*library.Game{&g})
		})
	}
}

// startManifestWatcher reacts to user edits of the tile manifests so a
// changed background color or name toggle reflows onto the tile images.
// Rebuilds leave a valid manifest untouched, so our own writes do not
// echo back through the watcher.
func (s *Service) startManifestWatcher() error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := w.Add(s.eng.scriptsDir); err != nil {
		_ = w.Close()
		return err
	}
	s.watcher = w

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
				s.onManifestChange(ev.Name)
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				log.Warn().Err(err).Msg("manifest watcher error")
			}
		}
	}()
	return nil
}

func (s *Service) onManifestChange(path string) {
	base := strings.ToLower(filepath.Base(path))
	if !strings.HasSuffix(base, manifestSuffix) {
		return
	}
	id, err := uuid.Parse(strings.TrimSuffix(base, manifestSuffix))
	if err != nil {
		return
	}
	s.queue.Enqueue("manifest edited", func() {
		s.eng.RefreshGame(id)
	})
}
