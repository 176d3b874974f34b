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
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/TilesyncProject/tilesync-core/pkg/helpers/syncutil"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog/log"
)

const (
	SchemaVersion = 1
	CfgEnv        = "TILESYNC_CFG"
)

type Values struct {
	Sources      map[string]Source `toml:"sources,omitempty"`
	Shortcuts    Shortcuts         `toml:"shortcuts"`
	ManualTiles  []string          `toml:"manual_tiles,omitempty,multiline"`
	Excluded     []string          `toml:"excluded,omitempty,multiline"`
	ConfigSchema int               `toml:"config_schema"`
	DebugLogging bool              `toml:"debug_logging"`
}

// Shortcuts holds the policy options controlling which games get a tile and
// how the output folder is laid out.
type Shortcuts struct {
	RootDir         string `toml:"root_dir" validate:"required"`
	InstalledOnly   bool   `toml:"installed_only"`
	ExcludeHidden   bool   `toml:"exclude_hidden"`
	SeparateFolders bool   `toml:"separate_folders"`
	FadeTopEdge     bool   `toml:"fade_top_edge"`
	UpdateOnStartup bool   `toml:"update_on_startup"`
}

// Source holds per-library-source options. Enabled controls whether games
// from the source are synced at all; UsePlayAction switches the launch
// script from the host deep link to the game's own play action.
type Source struct {
	Enabled       bool `toml:"enabled"`
	UsePlayAction bool `toml:"use_play_action"`
}

var BaseDefaults = Values{
	ConfigSchema: SchemaVersion,
	Shortcuts: Shortcuts{
		InstalledOnly: true,
	},
	Sources: map[string]Source{
		UndefinedSource: {},
	},
}

type Instance struct {
	vals     Values
	defaults Values
	cfgPath  string
	mu       syncutil.RWMutex
}

var validate = validator.New(validator.WithRequiredStructEnabled())

//nolint:gocritic // config struct copied for immutability
func NewConfig(configDir string, defaults Values) (*Instance, error) {
	cfgPath := os.Getenv(CfgEnv)
	if cfgPath != "" {
		log.Debug().Msgf("env config path: %s", cfgPath)
	} else {
		cfgPath = filepath.Join(configDir, CfgFile)
	}

	cfg := Instance{
		cfgPath:  cfgPath,
		vals:     defaults,
		defaults: defaults,
	}

	if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
		log.Info().Msg("saving new default config to disk")

		err := os.MkdirAll(filepath.Dir(cfgPath), 0o750)
		if err != nil {
			return nil, fmt.Errorf("failed to create config directory: %w", err)
		}

		err = cfg.Save()
		if err != nil {
			return nil, err
		}
	}

	err := cfg.Load()
	if err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Instance) Load() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cfgPath == "" {
		return errors.New("config path not set")
	}

	data, err := os.ReadFile(c.cfgPath)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	// Start with defaults, then unmarshal file values on top, so fields not
	// present in the file retain their default values.
	newVals := c.defaults
	err = toml.Unmarshal(data, &newVals)
	if err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if newVals.ConfigSchema != SchemaVersion {
		log.Error().Msgf(
			"schema version mismatch: got %d, expecting %d",
			newVals.ConfigSchema,
			SchemaVersion,
		)
		return errors.New("schema version mismatch")
	}

	c.vals = newVals
	return nil
}

func (c *Instance) Save() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cfgPath == "" {
		return errors.New("config path not set")
	}

	c.vals.ConfigSchema = SchemaVersion

	data, err := toml.Marshal(&c.vals)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(c.cfgPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func (c *Instance) DebugLogging() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.DebugLogging
}

func (c *Instance) RootDir() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Shortcuts.RootDir
}

func (c *Instance) SetRootDir(dir string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.Shortcuts.RootDir = dir
}

func (c *Instance) UpdateOnStartup() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Shortcuts.UpdateOnStartup
}

// AddManualTile records a game as manually included, overriding the keep
// policy for it. Returns false if it was already recorded.
func (c *Instance) AddManualTile(id uuid.UUID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return addStringID(&c.vals.ManualTiles, id)
}

func (c *Instance) RemoveManualTile(id uuid.UUID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return removeStringID(&c.vals.ManualTiles, id)
}

// AddExcluded records a game on the exclusion list. Exclusion always wins
// over manual inclusion. Returns false if it was already recorded.
func (c *Instance) AddExcluded(id uuid.UUID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return addStringID(&c.vals.Excluded, id)
}

func (c *Instance) RemoveExcluded(id uuid.UUID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return removeStringID(&c.vals.Excluded, id)
}

func (c *Instance) ShortcutSettings() Shortcuts {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Shortcuts
}

func (c *Instance) SetShortcutSettings(s Shortcuts) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.Shortcuts = s
}

func (c *Instance) Source(name string) (Source, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	src, ok := c.vals.Sources[name]
	return src, ok
}

func (c *Instance) SetSource(name string, src Source) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.vals.Sources == nil {
		c.vals.Sources = map[string]Source{}
	}
	c.vals.Sources[name] = src
}

// Snapshot returns a copy of every setting the reconciliation engine reads,
// so one reconciliation run always observes a consistent view even if the
// user edits settings mid-run.
func (c *Instance) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	snap := Snapshot{
		Shortcuts: c.vals.Shortcuts,
		Sources:   make(map[string]Source, len(c.vals.Sources)),
		Manual:    make(map[uuid.UUID]struct{}, len(c.vals.ManualTiles)),
		Excluded:  make(map[uuid.UUID]struct{}, len(c.vals.Excluded)),
	}
	for name, src := range c.vals.Sources {
		snap.Sources[name] = src
	}
	for _, raw := range c.vals.ManualTiles {
		if id, err := uuid.Parse(raw); err == nil {
			snap.Manual[id] = struct{}{}
		}
	}
	for _, raw := range c.vals.Excluded {
		if id, err := uuid.Parse(raw); err == nil {
			snap.Excluded[id] = struct{}{}
		}
	}
	return snap
}

// Validate checks the current values against their validation tags.
func (c *Instance) Validate() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if err := validate.Struct(&c.vals); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Snapshot is the point-in-time settings view handed to a reconciliation
// run. It is a plain value: safe to copy, never written back.
type Snapshot struct {
	Sources   map[string]Source
	Manual    map[uuid.UUID]struct{}
	Excluded  map[uuid.UUID]struct{}
	Shortcuts Shortcuts
}

// SourceEnabled reports whether games from the named source are synced.
// Unknown sources default to disabled, matching the behavior of a source
// the user has never reviewed.
func (s Snapshot) SourceEnabled(name string) bool {
	return s.Sources[name].Enabled
}

// UsePlayAction reports whether the named source launches games directly
// through their play action instead of the host deep link.
func (s Snapshot) UsePlayAction(name string) bool {
	return s.Sources[name].UsePlayAction
}

func (s Snapshot) IsManual(id uuid.UUID) bool {
	_, ok := s.Manual[id]
	return ok
}

func (s Snapshot) IsExcluded(id uuid.UUID) bool {
	_, ok := s.Excluded[id]
	return ok
}

func addStringID(list *[]string, id uuid.UUID) bool {
	s := id.String()
	for _, existing := range *list {
		if existing == s {
			return false
		}
	}
	*list = append(*list, s)
	return true
}

func removeStringID(list *[]string, id uuid.UUID) bool {
	s := id.String()
	for i, existing := range *list {
		if existing == s {
			*list = append((*list)[:i], (*list)[i+1:]...)
			return true
		}
	}
	return false
}
