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
	"path/filepath"

	"github.com/TilesyncProject/tilesync-core/pkg/helpers"
	"github.com/TilesyncProject/tilesync-core/pkg/library"
)

// ShortcutPathFor places a game's shortcut under rootDir. Separate-folder
// mode groups shortcuts by source directory; flat mode appends the source
// name to the file name instead when includeSource disambiguates a
// collision.
func ShortcutPathFor(rootDir string, g *library.Game, separateFolders, includeSource bool) string {
	name := helpers.SafeName(g.Name)
	dir := rootDir
	if separateFolders {
		dir = filepath.Join(rootDir, g.SourceName())
	} else if includeSource {
		name = name + " (" + g.SourceName() + ")"
	}
	return filepath.Join(dir, name+".lnk")
}

// SuffixedName is the collision-resolved shortcut name for a game in flat
// layout.
func SuffixedName(g *library.Game) string {
	return helpers.SafeName(g.Name) + " (" + g.SourceName() + ")"
}
