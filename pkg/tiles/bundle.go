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
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/TilesyncProject/tilesync-core/internal/lnkbinary"
	"github.com/TilesyncProject/tilesync-core/pkg/helpers"
	"github.com/TilesyncProject/tilesync-core/pkg/library"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

// Deps are the collaborators a bundle operates through, injected once and
// shared across every bundle of a sync run.
type Deps struct {
	Fs    afero.Fs
	Clock clockwork.Clock
	// IconPath resolves a game's icon to an absolute path, empty when the
	// game has none.
	IconPath func(g *library.Game) string
	// RenderScript picks the launch script body for a game.
	RenderScript ScriptRenderer
	// FadeEdge enables the bottom fade on medium tiles when the manifest
	// shows the name.
	FadeEdge bool
}

// Bundle is the full set of artifacts backing one game's shortcut tile: the
// .lnk file, its launch script, the visual-elements manifest, both tile
// renditions, and the cached shortcut icon. Methods never touch files that
// do not belong to the bundle's game id.
type Bundle struct {
	deps         *Deps
	game         *library.Game
	shortcutPath string
	scriptsDir   string
	iconsDir     string
}

// NewBundle builds a bundle rooted at shortcutPath for the given game.
// Nothing touches the filesystem until an operation is called.
func NewBundle(deps *Deps, game *library.Game, shortcutPath, scriptsDir, iconsDir string) *Bundle {
	return &Bundle{
		deps:         deps,
		game:         game,
		shortcutPath: shortcutPath,
		scriptsDir:   scriptsDir,
		iconsDir:     iconsDir,
	}
}

func (b *Bundle) Game() *library.Game  { return b.game }
func (b *Bundle) ShortcutPath() string { return b.shortcutPath }
func (b *Bundle) ScriptsDir() string   { return b.scriptsDir }
func (b *Bundle) IconsDir() string     { return b.iconsDir }

// Name is the shortcut's file name without extension.
func (b *Bundle) Name() string {
	base := filepath.Base(b.shortcutPath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// SetName renames the shortcut file, leaving every other artifact in place.
// An empty or fully-stripped name is ignored.
func (b *Bundle) SetName(name string) error {
	newName := helpers.SafeName(name)
	if newName == "" || newName == b.Name() {
		return nil
	}
	newPath := filepath.Join(filepath.Dir(b.shortcutPath), newName+".lnk")
	if b.Exists() && b.shortcutPath != newPath {
		if err := b.deps.Fs.Rename(b.shortcutPath, newPath); err != nil {
			return fmt.Errorf("failed to rename shortcut to %s: %w", newPath, err)
		}
	}
	b.shortcutPath = newPath
	return nil
}

func (b *Bundle) launcherPath() string {
	return filepath.Join(b.scriptsDir, b.game.ID.String()+".vbs")
}

func (b *Bundle) manifestPath() string {
	return filepath.Join(b.scriptsDir, b.game.ID.String()+".visualelementsmanifest.xml")
}

// ManifestPath exposes the manifest location for the file watcher.
func (b *Bundle) ManifestPath() string { return b.manifestPath() }

func (b *Bundle) tilePath() string {
	return filepath.Join(b.iconsDir, b.game.ID.String()+".png")
}

func (b *Bundle) tileSmallPath() string {
	return filepath.Join(b.iconsDir, b.game.ID.String()+"_70.png")
}

// shortcutIconPath is the cached .ico next to the game's source icon, empty
// when the game has no icon.
func (b *Bundle) shortcutIconPath() string {
	src := b.deps.IconPath(b.game)
	if src == "" {
		return ""
	}
	return strings.TrimSuffix(src, filepath.Ext(src)) + ".ico"
}

// Exists reports whether the bundle's required artifacts are all present:
// the shortcut, its launch script, and, for games with an icon, the cached
// shortcut icon and the medium tile. The manifest is optional; the shell
// works without one.
func (b *Bundle) Exists() bool {
	fsys := b.deps.Fs
	if !helpers.Exists(fsys, b.shortcutPath) {
		return false
	}
	if !helpers.Exists(fsys, b.launcherPath()) {
		return false
	}
	if b.deps.IconPath(b.game) != "" {
		if !helpers.Exists(fsys, b.shortcutIconPath()) {
			return false
		}
		if !helpers.Exists(fsys, b.tilePath()) {
			return false
		}
	}
	return true
}

// IsValid checks the bundle's shape: a game is attached and every artifact
// path carries its expected extension.
func (b *Bundle) IsValid() bool {
	return b.game != nil &&
		strings.EqualFold(filepath.Ext(b.shortcutPath), ".lnk")
}

// IsOutdated reports whether the game record changed after the shortcut was
// last written. Games without a modification stamp never report outdated.
func (b *Bundle) IsOutdated() bool {
	if b.game.Modified.IsZero() {
		return false
	}
	info, err := b.deps.Fs.Stat(b.shortcutPath)
	if err != nil {
		return false
	}
	return b.game.Modified.After(info.ModTime())
}

// Create builds every artifact for a bundle that does not exist yet.
// Returns false without touching anything when the bundle already exists.
func (b *Bundle) Create() (bool, error) {
	if b.Exists() {
		return false, nil
	}
	if err := b.build(); err != nil {
		return false, err
	}
	return true, nil
}

// Update rebuilds an existing bundle's artifacts when the game record is
// newer than the shortcut, or unconditionally when force is set. Returns
// false when nothing needed doing.
func (b *Bundle) Update(force bool) (bool, error) {
	if !b.Exists() {
		return false, nil
	}
	if !b.IsOutdated() && !force {
		return false, nil
	}
	if err := b.build(); err != nil {
		return false, err
	}
	return true, nil
}

// Bind swaps in a fresh game snapshot without touching any files.
func (b *Bundle) Bind(game *library.Game) {
	b.game = game
}

// CreateOrUpdate creates a missing bundle or refreshes an existing one.
func (b *Bundle) CreateOrUpdate() (bool, error) {
	if b.Exists() {
		return b.Update(false)
	}
	return b.Create()
}

func (b *Bundle) build() error {
	if err := b.createFolders(); err != nil {
		return err
	}
	if err := b.createShortcutIcon(); err != nil {
		log.Warn().Err(err).Msgf("no shortcut icon for %q", b.game.Name)
	}
	style := b.createTileImages()
	if err := b.createLaunchScript(); err != nil {
		return err
	}
	if err := EnsureManifest(b.deps.Fs, b.manifestPath(), b.scriptsDir, b.game.ID, style); err != nil {
		return err
	}
	return b.writeShortcut()
}

func (b *Bundle) createFolders() error {
	fsys := b.deps.Fs
	shortcutDir := filepath.Dir(b.shortcutPath)
	for _, dir := range []string{shortcutDir, b.iconsDir} {
		if err := fsys.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	if !helpers.Exists(fsys, b.scriptsDir) {
		if err := fsys.MkdirAll(b.scriptsDir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", b.scriptsDir, err)
		}
		if err := helpers.HideDir(b.scriptsDir); err != nil {
			log.Debug().Err(err).Msgf("could not hide %s", b.scriptsDir)
		}
	}
	return nil
}

// createShortcutIcon caches the game icon as a .ico next to the source
// icon. An existing file already in icon format is reused untouched.
func (b *Bundle) createShortcutIcon() error {
	iconPath := b.deps.IconPath(b.game)
	if iconPath == "" {
		return nil
	}
	fsys := b.deps.Fs
	target := b.shortcutIconPath()

	if existing, err := afero.ReadFile(fsys, target); err == nil && IsICOData(existing) {
		return nil
	}

	data, err := afero.ReadFile(fsys, iconPath)
	if err != nil {
		return fmt.Errorf("failed to read game icon %s: %w", iconPath, err)
	}
	if IsICOData(data) {
		// Already an icon container under a different extension.
		if err := afero.WriteFile(fsys, target, data, 0o644); err != nil {
			return fmt.Errorf("failed to write shortcut icon %s: %w", target, err)
		}
		return nil
	}

	img, err := DecodeIconImage(data, iconPath)
	if err != nil {
		return err
	}
	resized := ResizeTile(img, 256, 0)

	var buf bytes.Buffer
	if err := EncodeShortcutIcon(&buf, resized); err != nil {
		return err
	}
	// The shell may still hold the previous icon open; retry briefly.
	return helpers.Retry(b.deps.Clock, helpers.DefaultRetryAttempts, helpers.DefaultRetryDelay,
		func() error {
			if err := afero.WriteFile(fsys, target, buf.Bytes(), 0o644); err != nil {
				return fmt.Errorf("failed to write shortcut icon %s: %w", target, err)
			}
			return nil
		})
}

// createTileImages renders both tile renditions and returns the derived
// style. Games without a usable icon keep the default style and produce no
// renditions.
func (b *Bundle) createTileImages() TileStyle {
	iconPath := b.deps.IconPath(b.game)
	if iconPath == "" {
		return DefaultTileStyle
	}
	fsys := b.deps.Fs

	data, err := afero.ReadFile(fsys, iconPath)
	if err != nil {
		log.Error().Err(err).Msgf("could not open icon for %q", b.game.Name)
		return DefaultTileStyle
	}
	icon, err := DecodeIconImage(data, iconPath)
	if err != nil {
		log.Error().Err(err).Msgf("could not decode icon for %q", b.game.Name)
		return DefaultTileStyle
	}

	fade := b.deps.FadeEdge && ManifestShowsName(fsys, b.manifestPath())
	tiles, err := RenderTiles(icon, b.game.Name, fade)
	if err != nil {
		log.Error().Err(err).Msgf("could not render tiles for %q", b.game.Name)
		return DefaultTileStyle
	}

	if err := afero.WriteFile(fsys, b.tilePath(), tiles.Medium, 0o644); err != nil {
		log.Error().Err(err).Msgf("could not write tile for %q", b.game.Name)
	}
	if err := afero.WriteFile(fsys, b.tileSmallPath(), tiles.Small, 0o644); err != nil {
		log.Error().Err(err).Msgf("could not write small tile for %q", b.game.Name)
	}
	return tiles.Style
}

func (b *Bundle) createLaunchScript() error {
	body := b.deps.RenderScript(b.game)
	err := afero.WriteFile(b.deps.Fs, b.launcherPath(), []byte(body), 0o644)
	if err != nil {
		return fmt.Errorf("failed to write launch script %s: %w", b.launcherPath(), err)
	}
	return nil
}

func (b *Bundle) writeShortcut() error {
	link := &lnkbinary.Link{
		Description:  EncodeIdentity(b.game.Name, b.game.SourceName(), b.game.ID),
		RelativePath: b.launcherPath(),
		WorkingDir:   b.scriptsDir,
		IconLocation: b.shortcutIconPath(),
	}
	var buf bytes.Buffer
	if err := link.Write(&buf); err != nil {
		return err
	}
	err := afero.WriteFile(b.deps.Fs, b.shortcutPath, buf.Bytes(), 0o644)
	if err != nil {
		return fmt.Errorf("failed to write shortcut %s: %w", b.shortcutPath, err)
	}
	return nil
}

// Remove deletes the bundle's artifacts best-effort and prunes any output
// folders left empty. Files that fail to delete are logged and skipped;
// foreign files always stay.
func (b *Bundle) Remove() {
	fsys := b.deps.Fs
	for _, path := range []string{
		b.shortcutPath,
		b.launcherPath(),
		b.manifestPath(),
		b.tilePath(),
		b.tileSmallPath(),
	} {
		if !helpers.Exists(fsys, path) {
			continue
		}
		if err := fsys.Remove(path); err != nil {
			log.Warn().Err(err).Msgf("could not delete %s", path)
		}
	}

	helpers.PruneEmptyDir(fsys, b.iconsDir)
	helpers.PruneEmptyDir(fsys, b.scriptsDir)
	helpers.PruneEmptyDir(fsys, filepath.Dir(b.shortcutPath))
}

// Move relocates the bundle to a new shortcut path, icons folder, and
// scripts folder. Each artifact commits as it moves; the first failure
// aborts and returns false, leaving the bundle split between locations for
// the caller to clean up. Emptied folders are pruned along the way.
func (b *Bundle) Move(newShortcutPath, newIconsDir, newScriptsDir string) bool {
	if !b.Exists() {
		return false
	}
	fsys := b.deps.Fs
	id := b.game.ID.String()

	for _, dir := range []string{filepath.Dir(newShortcutPath), newIconsDir, newScriptsDir} {
		if err := fsys.MkdirAll(dir, 0o755); err != nil {
			log.Error().Err(err).Msgf("could not create %s", dir)
			return false
		}
	}

	if b.deps.IconPath(b.game) != "" {
		if !b.moveArtifact(b.tilePath(), filepath.Join(newIconsDir, id+".png")) {
			return false
		}
		// The small rendition is optional; a missing one regenerates on the
		// next update.
		if helpers.Exists(fsys, b.tileSmallPath()) {
			b.moveArtifact(b.tileSmallPath(), filepath.Join(newIconsDir, id+"_70.png"))
		}
		helpers.PruneEmptyDir(fsys, b.iconsDir)
		b.iconsDir = newIconsDir
	}

	if !b.moveArtifact(b.launcherPath(), filepath.Join(newScriptsDir, id+".vbs")) {
		return false
	}
	oldScriptsDir := b.scriptsDir
	if !b.moveArtifact(
		filepath.Join(oldScriptsDir, id+".visualelementsmanifest.xml"),
		filepath.Join(newScriptsDir, id+".visualelementsmanifest.xml"),
	) {
		return false
	}
	helpers.PruneEmptyDir(fsys, oldScriptsDir)
	b.scriptsDir = newScriptsDir

	if err := b.retargetShortcut(); err != nil {
		log.Warn().Err(err).Msgf("could not retarget shortcut for %q", b.game.Name)
	}

	oldDir := filepath.Dir(b.shortcutPath)
	if !b.moveArtifact(b.shortcutPath, newShortcutPath) {
		return false
	}
	helpers.PruneEmptyDir(fsys, oldDir)
	b.shortcutPath = newShortcutPath
	return true
}

func (b *Bundle) moveArtifact(from, to string) bool {
	if from == to {
		return true
	}
	if err := helpers.MoveFile(b.deps.Fs, from, to); err != nil {
		log.Error().Err(err).Msgf("could not move %s", from)
		return false
	}
	return true
}

// retargetShortcut rewrites the .lnk's launch target after the script
// folder moved, preserving every other field in the file.
func (b *Bundle) retargetShortcut() error {
	fsys := b.deps.Fs
	data, err := afero.ReadFile(fsys, b.shortcutPath)
	if err != nil {
		return fmt.Errorf("failed to read shortcut %s: %w", b.shortcutPath, err)
	}
	link, err := lnkbinary.Parse(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to parse shortcut %s: %w", b.shortcutPath, err)
	}
	if link.RelativePath == b.launcherPath() && link.WorkingDir == b.scriptsDir {
		return nil
	}
	link.RelativePath = b.launcherPath()
	link.WorkingDir = b.scriptsDir
	var buf bytes.Buffer
	if err := link.Write(&buf); err != nil {
		return err
	}
	if err := afero.WriteFile(fsys, b.shortcutPath, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to rewrite shortcut %s: %w", b.shortcutPath, err)
	}
	return nil
}
