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

package sync

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestQueueRunsTasksInOrder(t *testing.T) {
	t.Parallel()

	q := NewQueue()
	var mu sync.Mutex
	var got []int
	for i := range 10 {
		q.Enqueue("task", func() {
			mu.Lock()
			got = append(got, i)
			mu.Unlock()
		})
	}
	q.Close()

	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, got)
}

func TestQueueCloseDrainsBacklog(t *testing.T) {
	t.Parallel()

	q := NewQueue()
	block := make(chan struct{})
	done := make(chan struct{})
	q.Enqueue("block", func() { <-block })
	q.Enqueue("after", func() { close(done) })

	close(block)
	q.Close()

	select {
	case <-done:
	default:
		t.Fatal("backlog was not drained before Close returned")
	}
}

func TestQueueCountExcludesRunningTask(t *testing.T) {
	t.Parallel()

	q := NewQueue()
	started := make(chan struct{})
	release := make(chan struct{})
	q.Enqueue("first", func() {
		close(started)
		<-release
	})
	q.Enqueue("second", func() {})

	<-started
	assert.Equal(t, 1, q.Count())

	close(release)
	q.Close()
	assert.Zero(t, q.Count())
}

func TestQueueDropsAfterClose(t *testing.T) {
	t.Parallel()

	q := NewQueue()
	q.Close()

	ran := false
	q.Enqueue("late", func() { ran = true })
	q.Close()

	assert.False(t, ran)
	assert.Zero(t, q.Count())
}
