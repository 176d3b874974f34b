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

const (
	AppName    = "tilesync"
	AppVersion = "1.2.0"

	CfgFile = "config.toml"
	LogFile = "tilesync.log"

	// ScriptsDirName is created under the service data dir and holds the
	// per-game launch scripts and visual elements manifests. Marked hidden
	// on Windows.
	ScriptsDirName = "scripts"

	// IconsDirName is the tile icon folder nested inside the scripts dir.
	IconsDirName = "icons"

	// UndefinedSource stands in for games whose host record has no source.
	UndefinedSource = "Undefined"
)
