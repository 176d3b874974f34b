//go:build windows

/*
Tilesync Core
Copyright (c) 2025 The Tilesync Project Contributors.
SPDX-License-Identifier: GPL-3.0-or-later

This file is part of Tilesync Core.

Tilesync Core is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

Tilesync Core is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with Tilesync Core.  If not, see <http://www.gnu.org/licenses/>.
*/

package helpers

import (
	"fmt"

	"golang.org/x/sys/windows"
)

// HideDir sets the hidden attribute on a directory so the scripts folder
// stays out of sight next to the shortcuts the user actually browses.
func HideDir(path string) error {
	p, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return fmt.Errorf("failed to encode path %s: %w", path, err)
	}
	attrs, err := windows.GetFileAttributes(p)
	if err != nil {
		return fmt.Errorf("failed to read attributes of %s: %w", path, err)
	}
	if attrs&windows.FILE_ATTRIBUTE_HIDDEN != 0 {
		return nil
	}
	err = windows.SetFileAttributes(p, attrs|windows.FILE_ATTRIBUTE_HIDDEN)
	if err != nil {
		return fmt.Errorf("failed to hide %s: %w", path, err)
	}
	return nil
}
