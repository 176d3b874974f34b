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
	"testing"

	"github.com/TilesyncProject/tilesync-core/pkg/library"
	"github.com/TilesyncProject/tilesync-core/pkg/testing/fixtures"
	"github.com/TilesyncProject/tilesync-core/pkg/tiles"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRebuildIndexesTaggedShortcuts(t *testing.T) {
	t.Parallel()

	eng, lib, _ := newTestEngine(t)
	g1 := fixtures.NewGameNamed("Factorio", "Steam")
	g2 := fixtures.NewGameNamed("Rimworld", "Steam")
	lib.Seed(g1, g2)
	eng.Reconcile([]library.Game{g1, g2}, testSnapshot("shortcuts"), false)
	require.Equal(t, 2, eng.Index().Len())

	// A fresh engine over the same disk state recovers the index.
	fresh := NewEngine(eng.deps, lib, "data")
	require.NoError(t, fresh.Rebuild(testSnapshot("shortcuts")))

	assert.Equal(t, 2, fresh.Index().Len())
	b, ok := fresh.Index().Get(g1.ID)
	require.True(t, ok)
	assert.Equal(t, filepath.Join("shortcuts", "Factorio.lnk"), b.ShortcutPath())
	assert.Equal(t, []library.GameID{g2.ID}, fresh.Index().NameGroup("Rimworld"))
}

func TestRebuildLeavesForeignShortcutsAlone(t *testing.T) {
	t.Parallel()

	eng, _, fsh := newTestEngine(t)
	foreign := filepath.Join("shortcuts", "My Notes.lnk")
	require.NoError(t, fsh.CreateFile(foreign, []byte("not a shell link")))

	require.NoError(t, eng.Rebuild(testSnapshot("shortcuts")))

	assert.Zero(t, eng.Index().Len())
	assert.True(t, fsh.FileExists(foreign))
}

func TestRebuildSkipsUnknownGames(t *testing.T) {
	t.Parallel()

	eng, lib, fsh := newTestEngine(t)
	g := fixtures.NewGameNamed("Gone", "Steam")
	lib.Seed(g)
	eng.Reconcile([]library.Game{g}, testSnapshot("shortcuts"), false)

	lib.Remove(g.ID)
	fresh := NewEngine(eng.deps, lib, "data")
	require.NoError(t, fresh.Rebuild(testSnapshot("shortcuts")))

	assert.Zero(t, fresh.Index().Len())
	assert.True(t, fsh.FileExists(filepath.Join("shortcuts", "Gone.lnk")))
}

func TestRebuildRemovesDuplicateClaims(t *testing.T) {
	t.Parallel()

	eng, lib, fsh := newTestEngine(t)
	g := fixtures.NewGameNamed("Noita", "Steam")
	lib.Seed(g)

	scripts := filepath.Join("data", "scripts")
	icons := filepath.Join(scripts, "icons")
	for _, name := range []string{"a stale copy.lnk", "z current.lnk"} {
		b := tiles.NewBundle(eng.deps, &g, filepath.Join("shortcuts", name), scripts, icons)
		if _, err := b.Create(); err != nil {
			// The second Create is a no-op since the artifacts exist; only
			// the shortcut file itself differs.
			t.Fatal(err)
		}
	}
	require.True(t, fsh.FileExists(filepath.Join("shortcuts", "a stale copy.lnk")))
	require.True(t, fsh.FileExists(filepath.Join("shortcuts", "z current.lnk")))

	require.NoError(t, eng.Rebuild(testSnapshot("shortcuts")))

	assert.Equal(t, 1, eng.Index().Len())
	assert.False(t, fsh.FileExists(filepath.Join("shortcuts", "a stale copy.lnk")))
	assert.True(t, fsh.FileExists(filepath.Join("shortcuts", "z current.lnk")))
}
