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

import (
	"fmt"

	"github.com/spf13/afero"
)

// Exists reports whether a path exists on the given filesystem, treating any
// stat error as absence.
func Exists(fs afero.Fs, path string) bool {
	_, err := fs.Stat(path)
	return err == nil
}

// IsEmptyDir reports whether path is a directory with no entries.
func IsEmptyDir(fs afero.Fs, path string) bool {
	info, err := fs.Stat(path)
	if err != nil || !info.IsDir() {
		return false
	}
	entries, err := afero.ReadDir(fs, path)
	if err != nil {
		return false
	}
	return len(entries) == 0
}

// PruneEmptyDir removes path if it is an empty directory. Removing shared
// output folders is only ever done this way, so a folder with anything left
// in it, including files we did not create, survives.
func PruneEmptyDir(fs afero.Fs, path string) bool {
	if !IsEmptyDir(fs, path) {
		return false
	}
	if err := fs.Remove(path); err != nil {
		return false
	}
	return true
}

// MoveFile renames a file across the filesystem abstraction, falling back to
// copy and delete when rename fails, such as across volumes.
func MoveFile(fs afero.Fs, oldPath, newPath string) error {
	if err := fs.Rename(oldPath, newPath); err == nil {
		return nil
	}
	data, err := afero.ReadFile(fs, oldPath)
	if err != nil {
		return fmt.Errorf("failed to read %s for move: %w", oldPath, err)
	}
	if err := afero.WriteFile(fs, newPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s for move: %w", newPath, err)
	}
	if err := fs.Remove(oldPath); err != nil {
		return fmt.Errorf("failed to remove %s after move: %w", oldPath, err)
	}
	return nil
}
