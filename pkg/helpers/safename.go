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

package helpers

import "strings"

// SafeName strips characters that are invalid in Windows file names from a
// game title: the reserved punctuation set and all control characters below
// 0x20. Every surviving character keeps its relative order, so two titles
// differing only in stripped characters collapse to the same safe name.
func SafeName(name string) string {
	var sb strings.Builder
	sb.Grow(len(name))
	for _, r := range name {
		if r < 0x20 {
			continue
		}
		switch r {
		case '<', '>', ':', '"', '/', '\\', '|', '?', '*':
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// NormalizeName is the case-insensitive collision key for safe names. Two
// games whose titles normalize identically would target the same shortcut
// path and must be disambiguated.
func NormalizeName(name string) string {
	return strings.ToLower(SafeName(name))
}

// HasSafeName reports whether a title survives sanitization with at least
// one character left. Titles made up entirely of stripped characters cannot
// produce a shortcut file name.
func HasSafeName(name string) bool {
	return SafeName(name) != ""
}
