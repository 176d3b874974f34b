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

package fixtures

import (
	"time"

	"github.com/TilesyncProject/tilesync-core/pkg/library"
	"github.com/google/uuid"
)

// Common game fixtures for use in tests.

// NewInstalledGame creates a typical installed game with an icon.
func NewInstalledGame() library.Game {
	return library.Game{
		ID:        uuid.MustParse("0f8fad5b-d9cb-469f-a165-70867728950e"),
		Name:      "Outer Wilds",
		Source:    "Steam",
		IconRef:   "icon.png",
		Installed: true,
		Modified:  time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC),
		Action: library.LaunchAction{
			Path:       `C:\Games\Outer Wilds\OuterWilds.exe`,
			WorkingDir: `C:\Games\Outer Wilds`,
			Kind:       library.ActionFile,
		},
	}
}

// NewUninstalledGame creates a game the user owns but has not installed.
func NewUninstalledGame() library.Game {
	return library.Game{
		ID:       uuid.MustParse("7c9e6679-7425-40de-944b-e07fc1f90ae7"),
		Name:     "Disco Elysium",
		Source:   "GOG",
		IconRef:  "icon.png",
		Modified: time.Date(2025, 2, 1, 18, 0, 0, 0, time.UTC),
	}
}

// NewHiddenGame creates an installed game the user hid in the frontend.
func NewHiddenGame() library.Game {
	return library.Game{
		ID:        uuid.MustParse("3d1e2aa0-54c6-4f14-9c2b-1f4b1f6f8a01"),
		Name:      "Solitaire",
		Source:    "Steam",
		Hidden:    true,
		Installed: true,
		Modified:  time.Date(2025, 1, 5, 11, 0, 0, 0, time.UTC),
	}
}

// NewXboxGame creates a game launched through the Xbox app.
func NewXboxGame() library.Game {
	return library.Game{
		ID:        uuid.MustParse("9b2f1c44-8a7e-4d6b-b6a3-2e0c5d7f9a12"),
		Name:      "Halo Infinite",
		Source:    "Xbox",
		Installed: true,
		Modified:  time.Date(2025, 4, 20, 14, 0, 0, 0, time.UTC),
		Action: library.LaunchAction{
			Arguments: `shell:AppsFolder\Microsoft.Halo!App`,
			Kind:      library.ActionFile,
		},
	}
}

// NewSourcelessGame creates a manually added game with no source set.
func NewSourcelessGame() library.Game {
	return library.Game{
		ID:        uuid.MustParse("f1a2b3c4-d5e6-4788-99aa-bbccddeeff00"),
		Name:      "Quake",
		Installed: true,
		Modified:  time.Date(2024, 12, 24, 8, 0, 0, 0, time.UTC),
		Action: library.LaunchAction{
			Path:       `C:\Games\Quake\quake.exe`,
			WorkingDir: `C:\Games\Quake`,
			Kind:       library.ActionFile,
		},
	}
}

// NewGameNamed creates an installed game with the given name and a random
// identity, for collision scenarios.
func NewGameNamed(name, source string) library.Game {
	return library.Game{
		ID:        uuid.New(),
		Name:      name,
		Source:    source,
		Installed: true,
		Modified:  time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC),
	}
}
