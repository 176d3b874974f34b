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

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigWritesDefaults(t *testing.T) {
	dir := t.TempDir()
	cfg, err := NewConfig(dir, BaseDefaults)
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(dir, CfgFile))
	assert.True(t, cfg.Snapshot().Shortcuts.InstalledOnly)
}

func TestConfigRoundTrip(t *testing.T) {
	dir := t.TempDir()
	cfg, err := NewConfig(dir, BaseDefaults)
	require.NoError(t, err)

	id := uuid.MustParse("0f8fad5b-d9cb-469f-a165-70867728950e")
	cfg.SetRootDir(`C:\Users\test\Desktop\Games`)
	cfg.SetSource("Steam", Source{Enabled: true, UsePlayAction: true})
	assert.True(t, cfg.AddManualTile(id))
	assert.False(t, cfg.AddManualTile(id))
	assert.True(t, cfg.AddExcluded(id))
	require.NoError(t, cfg.Save())

	reloaded, err := NewConfig(dir, BaseDefaults)
	require.NoError(t, err)
	snap := reloaded.Snapshot()
	assert.Equal(t, `C:\Users\test\Desktop\Games`, snap.Shortcuts.RootDir)
	assert.True(t, snap.SourceEnabled("Steam"))
	assert.True(t, snap.UsePlayAction("Steam"))
	assert.True(t, snap.IsManual(id))
	assert.True(t, snap.IsExcluded(id))
}

func TestConfigFileValuesOverrideDefaults(t *testing.T) {
	dir := t.TempDir()
	content := "config_schema = 1\ndebug_logging = true\n\n[shortcuts]\nroot_dir = 'out'\ninstalled_only = false\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, CfgFile), []byte(content), 0o600))

	cfg, err := NewConfig(dir, BaseDefaults)
	require.NoError(t, err)
	assert.True(t, cfg.DebugLogging())
	assert.Equal(t, "out", cfg.RootDir())
	assert.False(t, cfg.Snapshot().Shortcuts.InstalledOnly)
}

func TestConfigSchemaMismatch(t *testing.T) {
	dir := t.TempDir()
	content := "config_schema = 99\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, CfgFile), []byte(content), 0o600))

	_, err := NewConfig(dir, BaseDefaults)
	assert.Error(t, err)
}

func TestSnapshotUnknownSourceDisabled(t *testing.T) {
	dir := t.TempDir()
	cfg, err := NewConfig(dir, BaseDefaults)
	require.NoError(t, err)

	snap := cfg.Snapshot()
	assert.False(t, snap.SourceEnabled("Steam"))
	assert.False(t, snap.UsePlayAction("Steam"))
}

func TestValidateRequiresRootDir(t *testing.T) {
	dir := t.TempDir()
	cfg, err := NewConfig(dir, BaseDefaults)
	require.NoError(t, err)

	assert.Error(t, cfg.Validate())
	cfg.SetRootDir("shortcuts")
	assert.NoError(t, cfg.Validate())
}

func TestRemoveListEntries(t *testing.T) {
	dir := t.TempDir()
	cfg, err := NewConfig(dir, BaseDefaults)
	require.NoError(t, err)

	id := uuid.MustParse("7c9e6679-7425-40de-944b-e07fc1f90ae7")
	assert.False(t, cfg.RemoveManualTile(id))
	cfg.AddManualTile(id)
	assert.True(t, cfg.RemoveManualTile(id))
	assert.False(t, cfg.Snapshot().IsManual(id))
}
