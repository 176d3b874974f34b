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
	"time"

	"github.com/jonboulle/clockwork"
)

const (
	// DefaultRetryAttempts bounds retries on file operations that can fail
	// transiently, such as an icon file still locked by the shell.
	DefaultRetryAttempts = 10
	// DefaultRetryDelay is the pause between attempts.
	DefaultRetryDelay = 10 * time.Millisecond
)

// Retry runs fn up to attempts times, sleeping delay between failures on the
// given clock. It returns nil on the first success, or the last error once
// the attempt budget is exhausted.
func Retry(clock clockwork.Clock, attempts int, delay time.Duration, fn func() error) error {
	if attempts < 1 {
		attempts = 1
	}
	var err error
	for i := 0; i < attempts; i++ {
		err = fn()
		if err == nil {
			return nil
		}
		if i < attempts-1 {
			clock.Sleep(delay)
		}
	}
	return err
}
