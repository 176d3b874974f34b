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

	"github.com/TilesyncProject/tilesync-core/pkg/config"
	"github.com/TilesyncProject/tilesync-core/pkg/library"
	"github.com/TilesyncProject/tilesync-core/pkg/testing/fixtures"
	testhelpers "github.com/TilesyncProject/tilesync-core/pkg/testing/helpers"
	"github.com/TilesyncProject/tilesync-core/pkg/testing/mocks"
	"github.com/TilesyncProject/tilesync-core/pkg/tiles"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) (*Service, *mocks.MockLibrary, *testhelpers.FSHelper) {
	t.Helper()
	cfg, err := config.NewConfig(t.TempDir(), config.BaseDefaults)
	require.NoError(t, err)
	cfg.SetRootDir("shortcuts")
	cfg.SetSource("Steam", config.Source{Enabled: true})
	cfg.SetSource("GOG", config.Source{Enabled: true})

	fsh := testhelpers.NewMemoryFS()
	lib := mocks.NewMockLibrary("media")
	deps := &tiles.Deps{
		Fs:       fsh.Fs,
		Clock:    clockwork.NewFakeClock(),
		IconPath: lib.IconPath,
		RenderScript: func(g *library.Game) string {
			if cfg.Snapshot().UsePlayAction(g.SourceName()) {
				return tiles.PlayActionScript(g)
			}
			return tiles.DeepLinkScript(g)
		},
	}
	svc := NewService(cfg, lib, deps, "data")
	return svc, lib, fsh
}

// drain waits for the queue to go idle by riding an empty marker task
// through it.
func drain(t *testing.T, svc *Service) {
	t.Helper()
	done := make(chan struct{})
	svc.Queue().Enqueue("drain marker", func() { close(done) })
	<-done
}

func TestServiceStartCreatesFolders(t *testing.T) {
	t.Parallel()

	svc, _, fsh := newTestService(t)
	require.NoError(t, svc.Start())
	defer svc.Stop()

	assert.True(t, fsh.FileExists("shortcuts"))
	assert.True(t, fsh.FileExists(filepath.Join("data", "scripts", "icons")))
}

func TestServiceSyncAll(t *testing.T) {
	t.Parallel()

	svc, lib, fsh := newTestService(t)
	g := fixtures.NewGameNamed("Inside", "Steam")
	lib.Seed(g)
	require.NoError(t, svc.Start())
	defer svc.Stop()

	svc.SyncAll()
	drain(t, svc)

	assert.True(t, fsh.FileExists(filepath.Join("shortcuts", "Inside.lnk")))
}

func TestServiceStopDrainsPendingWork(t *testing.T) {
	t.Parallel()

	svc, lib, fsh := newTestService(t)
	require.NoError(t, svc.Start())

	g := fixtures.NewGameNamed("Inside", "Steam")
	lib.Add(g)
	svc.Stop()

	// The reconcile queued by the add event finished before Stop returned.
	assert.True(t, fsh.FileExists(filepath.Join("shortcuts", "Inside.lnk")))

	// Events after shutdown are inert.
	lib.Remove(g.ID)
	assert.True(t, fsh.FileExists(filepath.Join("shortcuts", "Inside.lnk")))
}

func TestServiceForceUpdateAll(t *testing.T) {
	t.Parallel()

	svc, lib, fsh := newTestService(t)
	g := fixtures.NewGameNamed("Inside", "Steam")
	lib.Seed(g)
	require.NoError(t, svc.Start())
	defer svc.Stop()

	svc.SyncAll()
	drain(t, svc)

	manifest := filepath.Join("data", "scripts", g.ID.String()+manifestSuffix)
	require.NoError(t, fsh.Fs.Remove(manifest))

	svc.ForceUpdateAll()
	drain(t, svc)

	assert.True(t, fsh.FileExists(manifest))
}

func TestServiceReactsToCatalogEvents(t *testing.T) {
	t.Parallel()

	svc, lib, fsh := newTestService(t)
	require.NoError(t, svc.Start())
	defer svc.Stop()

	g := fixtures.NewGameNamed("Limbo", "Steam")
	lib.Add(g)
	drain(t, svc)
	assert.True(t, fsh.FileExists(filepath.Join("shortcuts", "Limbo.lnk")))

	g.Hidden = true
	lib.Update(g)
	drain(t, svc)
	// Hidden games still sync by default, shortcut stays.
	assert.True(t, fsh.FileExists(filepath.Join("shortcuts", "Limbo.lnk")))

	lib.Remove(g.ID)
	drain(t, svc)
	assert.False(t, fsh.FileExists(filepath.Join("shortcuts", "Limbo.lnk")))
}

func TestServiceExcludeAndInclude(t *testing.T) {
	t.Parallel()

	svc, lib, fsh := newTestService(t)
	g := fixtures.NewGameNamed("Braid", "Steam")
	lib.Seed(g)
	require.NoError(t, svc.Start())
	defer svc.Stop()

	svc.SyncAll()
	drain(t, svc)
	lnk := filepath.Join("shortcuts", "Braid.lnk")
	require.True(t, fsh.FileExists(lnk))

	require.NoError(t, svc.ExcludeGame(g.ID))
	drain(t, svc)
	assert.False(t, fsh.FileExists(lnk))

	require.NoError(t, svc.IncludeGame(g.ID))
	drain(t, svc)
	assert.True(t, fsh.FileExists(lnk))
}

func TestServiceIncludeOverridesDisabledSource(t *testing.T) {
	t.Parallel()

	svc, lib, fsh := newTestService(t)
	g := fixtures.NewGameNamed("Dwarf Fortress", "Itch")
	lib.Seed(g)
	require.NoError(t, svc.Start())
	defer svc.Stop()

	svc.SyncAll()
	drain(t, svc)
	lnk := filepath.Join("shortcuts", "Dwarf Fortress.lnk")
	require.False(t, fsh.FileExists(lnk))

	require.NoError(t, svc.IncludeGame(g.ID))
	drain(t, svc)
	assert.True(t, fsh.FileExists(lnk))
}

func TestServiceUpdateSettingsRelocates(t *testing.T) {
	t.Parallel()

	svc, lib, fsh := newTestService(t)
	g := fixtures.NewGameNamed("Rain World", "Steam")
	lib.Seed(g)
	require.NoError(t, svc.Start())
	defer svc.Stop()

	svc.SyncAll()
	drain(t, svc)
	require.True(t, fsh.FileExists(filepath.Join("shortcuts", "Rain World.lnk")))

	next := svc.cfg.ShortcutSettings()
	next.SeparateFolders = true
	require.NoError(t, svc.UpdateSettings(next))
	drain(t, svc)

	assert.True(t, fsh.FileExists(filepath.Join("shortcuts", "Steam", "Rain World.lnk")))
	assert.False(t, fsh.FileExists(filepath.Join("shortcuts", "Rain World.lnk")))
}

func TestServiceUpdateSourceRegeneratesScripts(t *testing.T) {
	t.Parallel()

	svc, lib, fsh := newTestService(t)
	g := fixtures.NewSourcelessGame()
	g.Source = "Steam"
	lib.Seed(g)
	require.NoError(t, svc.Start())
	defer svc.Stop()

	svc.SyncAll()
	drain(t, svc)
	script := filepath.Join("data", "scripts", g.ID.String()+".vbs")
	body, err := fsh.ReadFile(script)
	require.NoError(t, err)
	require.Contains(t, string(body), "playnite://playnite/start/")

	require.NoError(t, svc.UpdateSource("Steam", config.Source{Enabled: true, UsePlayAction: true}))
	drain(t, svc)

	body, err = fsh.ReadFile(script)
	require.NoError(t, err)
	assert.Contains(t, string(body), `WshShell.CurrentDirectory = "C:\Games\Quake"`)
	assert.NotContains(t, string(body), "playnite://playnite/start/")
}
