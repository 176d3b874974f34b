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

// Package tiles builds and maintains the per-game artifact bundle: the
// shortcut file, its launch script, the visual-elements manifest, and the
// tile icon renditions.
package tiles

import (
	"fmt"
	"strings"

	"github.com/TilesyncProject/tilesync-core/pkg/library"
	"github.com/google/uuid"
)

// EncodeIdentity renders the shortcut description carrying a game's identity
// tag. The human-readable prefix is tooltip text; only the trailing
// bracketed id matters for recognition.
func EncodeIdentity(name, source string, id library.GameID) string {
	return fmt.Sprintf("Launch %s on %s via Playnite. [%s]", name, source, id)
}

// DecodeIdentity extracts a game id from a shortcut description. It scans
// from the end so user edits to the leading text, including edits containing
// brackets, cannot displace the tag. Returns false for descriptions without
// a trailing well-formed id.
func DecodeIdentity(description string) (library.GameID, bool) {
	end := strings.LastIndexByte(description, ']')
	if end < 0 {
		return uuid.Nil, false
	}
	start := strings.LastIndexByte(description[:end], '[')
	if start < 0 {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(description[start+1 : end])
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
