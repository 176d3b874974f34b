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

package tiles

import (
	"fmt"
	"path/filepath"

	"github.com/TilesyncProject/tilesync-core/pkg/config"
	"github.com/TilesyncProject/tilesync-core/pkg/helpers"
	"github.com/TilesyncProject/tilesync-core/pkg/library"
	"github.com/beevik/etree"
	"github.com/spf13/afero"
)

// Manifest attribute values for ForegroundText.
const (
	ForegroundDark  = "dark"
	ForegroundLight = "light"
)

// TileStyle is the visual styling derived from a game's icon, rendered into
// a freshly created manifest.
type TileStyle struct {
	// BackgroundHex is the tile background in #RRGGBB form.
	BackgroundHex string
	// ForegroundText is "dark" or "light", chosen against the tile's lower
	// third where the shell draws the name.
	ForegroundText string
}

// DefaultTileStyle is used when a game has no icon to derive styling from:
// a neutral gray tile with dark name text.
var DefaultTileStyle = TileStyle{
	BackgroundHex:  "#a9a9a9",
	ForegroundText: ForegroundDark,
}

func iconRelPath(id library.GameID) string {
	return filepath.Join(config.IconsDirName, id.String()+".png")
}

func iconRelPath70(id library.GameID) string {
	return filepath.Join(config.IconsDirName, id.String()+"_70.png")
}

// EnsureManifest makes the visual-elements manifest at path usable for the
// given game. A missing or invalid manifest is regenerated from style. A
// valid one is patched minimally: logo references pointing at files that do
// not exist under scriptsDir are repointed at the game's renditions, and
// every other attribute, including user edits, is left alone.
func EnsureManifest(
	fsys afero.Fs, path, scriptsDir string, id library.GameID, style TileStyle,
) error {
	doc := etree.NewDocument()

	data, err := afero.ReadFile(fsys, path)
	if err == nil && doc.ReadFromBytes(data) == nil {
		if ve := visualElements(doc); ve != nil {
			return patchManifest(fsys, doc, ve, path, scriptsDir, id)
		}
	}

	doc = etree.NewDocument()
	app := doc.CreateElement("Application")
	app.CreateAttr("xmlns:xsi", "http://www.w3.org/2001/XMLSchema-instance")
	ve := app.CreateElement("VisualElements")
	ve.CreateAttr("BackgroundColor", style.BackgroundHex)
	ve.CreateAttr("ShowNameOnSquare150x150Logo", "on")
	ve.CreateAttr("ForegroundText", style.ForegroundText)
	ve.CreateAttr("Square150x150Logo", iconRelPath(id))
	ve.CreateAttr("Square70x70Logo", iconRelPath70(id))
	return writeManifest(fsys, doc, path)
}

func patchManifest(
	fsys afero.Fs, doc *etree.Document, ve *etree.Element,
	path, scriptsDir string, id library.GameID,
) error {
	changed := false

	logo := ve.SelectAttrValue("Square150x150Logo", "")
	if logo == "" || !helpers.Exists(fsys, filepath.Join(scriptsDir, logo)) {
		ve.CreateAttr("Square150x150Logo", iconRelPath(id))
		changed = true
	}
	logo70 := ve.SelectAttrValue("Square70x70Logo", "")
	if logo70 == "" || !helpers.Exists(fsys, filepath.Join(scriptsDir, logo70)) {
		ve.CreateAttr("Square70x70Logo", iconRelPath70(id))
		changed = true
	}

	if !changed {
		return nil
	}
	return writeManifest(fsys, doc, path)
}

// ManifestShowsName reports whether the manifest at path displays the game
// name on the 150x150 tile. Missing or unreadable manifests report true,
// the shell's own default.
func ManifestShowsName(fsys afero.Fs, path string) bool {
	ve, err := readVisualElements(fsys, path)
	if err != nil {
		return true
	}
	return ve.SelectAttrValue("ShowNameOnSquare150x150Logo", "on") != "off"
}

// SetManifestShowsName toggles name display on the 150x150 tile, preserving
// the rest of the manifest.
func SetManifestShowsName(fsys afero.Fs, path string, show bool) error {
	doc := etree.NewDocument()
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		return fmt.Errorf("failed to read manifest %s: %w", path, err)
	}
	if err := doc.ReadFromBytes(data); err != nil {
		return fmt.Errorf("failed to parse manifest %s: %w", path, err)
	}
	ve := visualElements(doc)
	if ve == nil {
		return fmt.Errorf("manifest %s has no VisualElements element", path)
	}
	val := "on"
	if !show {
		val = "off"
	}
	ve.CreateAttr("ShowNameOnSquare150x150Logo", val)
	return writeManifest(fsys, doc, path)
}

// ValidManifest reports whether path holds a parseable manifest with a
// VisualElements element.
func ValidManifest(fsys afero.Fs, path string) bool {
	_, err := readVisualElements(fsys, path)
	return err == nil
}

func readVisualElements(fsys afero.Fs, path string) (*etree.Element, error) {
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest %s: %w", path, err)
	}
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", path, err)
	}
	ve := visualElements(doc)
	if ve == nil {
		return nil, fmt.Errorf("manifest %s has no VisualElements element", path)
	}
	return ve, nil
}

func visualElements(doc *etree.Document) *etree.Element {
	app := doc.SelectElement("Application")
	if app == nil {
		return nil
	}
	return app.SelectElement("VisualElements")
}

func writeManifest(fsys afero.Fs, doc *etree.Document, path string) error {
	doc.Indent(2)
	data, err := doc.WriteToBytes()
	if err != nil {
		return fmt.Errorf("failed to serialize manifest: %w", err)
	}
	if err := afero.WriteFile(fsys, path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write manifest %s: %w", path, err)
	}
	return nil
}
