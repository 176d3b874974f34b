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

// Package sync contains the reconciliation engine keeping the shortcut
// folder in step with the game catalog.
package sync

import (
	"bytes"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/TilesyncProject/tilesync-core/internal/lnkbinary"
	"github.com/TilesyncProject/tilesync-core/pkg/helpers"
	"github.com/TilesyncProject/tilesync-core/pkg/library"
	"github.com/TilesyncProject/tilesync-core/pkg/tiles"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

// Index tracks every bundle this service owns, keyed by game id, plus the
// normalized-name groups used for collision handling. It is not safe for
// concurrent use; the queue worker is its only writer.
type Index struct {
	byID   map[library.GameID]*tiles.Bundle
	byName map[string][]library.GameID
}

func NewIndex() *Index {
	return &Index{
		byID:   make(map[library.GameID]*tiles.Bundle),
		byName: make(map[string][]library.GameID),
	}
}

func (ix *Index) Get(id library.GameID) (*tiles.Bundle, bool) {
	b, ok := ix.byID[id]
	return b, ok
}

func (ix *Index) Put(b *tiles.Bundle) {
	ix.byID[b.Game().ID] = b
}

func (ix *Index) Delete(id library.GameID) {
	delete(ix.byID, id)
}

func (ix *Index) Len() int {
	return len(ix.byID)
}

// Each visits every indexed bundle.
func (ix *Index) Each(fn func(b *tiles.Bundle)) {
	for _, b := range ix.byID {
		fn(b)
	}
}

// NameGroup returns the ids sharing a normalized shortcut name.
func (ix *Index) NameGroup(name string) []library.GameID {
	return ix.byName[helpers.NormalizeName(name)]
}

// RegisterName records a game under its normalized name, once.
func (ix *Index) RegisterName(name string, id library.GameID) {
	key := helpers.NormalizeName(name)
	for _, existing := range ix.byName[key] {
		if existing == id {
			return
		}
	}
	ix.byName[key] = append(ix.byName[key], id)
}

// UnregisterName removes a game from its normalized name group.
func (ix *Index) UnregisterName(name string, id library.GameID) {
	key := helpers.NormalizeName(name)
	group := ix.byName[key]
	for i, existing := range group {
		if existing == id {
			ix.byName[key] = append(group[:i], group[i+1:]...)
			break
		}
	}
	if len(ix.byName[key]) == 0 {
		delete(ix.byName, key)
	}
}

// Rebuild discards the index and reconstructs it by scanning rootDir for
// shortcut files carrying our identity tag. Shortcuts without a tag are
// foreign and stay untouched. Two shortcuts claiming the same game keep the
// later one and remove the earlier, so a stale copy left behind by a folder
// change cleans itself up. Tagged shortcuts whose game no longer resolves
// are skipped; deciding their fate belongs to a reconciliation pass.
func (ix *Index) Rebuild(
	deps *tiles.Deps, lib library.Library, rootDir, scriptsDir, iconsDir string,
) error {
	ix.byID = make(map[library.GameID]*tiles.Bundle)
	ix.byName = make(map[string][]library.GameID)

	err := afero.Walk(deps.Fs, rootDir, func(path string, info fs.FileInfo, err error) error {
		if err != nil {
			log.Debug().Err(err).Msgf("skipping %s during scan", path)
			return nil
		}
		if info.IsDir() || !strings.EqualFold(filepath.Ext(path), ".lnk") {
			return nil
		}

		id, ok := readIdentity(deps.Fs, path)
		if !ok {
			return nil
		}
		game, ok := lib.Game(id)
		if !ok {
			log.Debug().Msgf("shortcut %s references unknown game %s", path, id)
			return nil
		}

		b := tiles.NewBundle(deps, &game, path, scriptsDir, iconsDir)
		if prev, exists := ix.byID[id]; exists {
			// Later claim wins; the superseded copy is one of ours and can
			// go right away.
			log.Info().Msgf("duplicate shortcut for %q, removing %s", game.Name, prev.ShortcutPath())
			prev.Remove()
			ix.UnregisterName(prev.Game().Name, id)
		}
		ix.byID[id] = b
		ix.RegisterName(game.Name, id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to scan %s: %w", rootDir, err)
	}
	return nil
}

// readIdentity extracts the game id from a shortcut file's description tag.
func readIdentity(fsys afero.Fs, path string) (library.GameID, bool) {
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		log.Debug().Err(err).Msgf("could not read %s", path)
		return library.GameID{}, false
	}
	link, err := lnkbinary.Parse(bytes.NewReader(data))
	if err != nil {
		return library.GameID{}, false
	}
	return tiles.DecodeIdentity(link.Description)
}
