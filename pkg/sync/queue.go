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
	stdsync "sync"

	"github.com/TilesyncProject/tilesync-core/pkg/helpers/syncutil"
	"github.com/rs/zerolog/log"
)

type queueTask struct {
	fn   func()
	name string
}

// Queue runs change tasks one at a time in submission order on a single
// worker goroutine, which serializes all index and filesystem mutation.
// Enqueue never blocks; the backlog is unbounded.
type Queue struct {
	wake   chan struct{}
	tasks  []queueTask
	wg     stdsync.WaitGroup
	mu     syncutil.Mutex
	closed bool
}

func NewQueue() *Queue {
	q := &Queue{
		wake: make(chan struct{}, 1),
	}
	q.wg.Add(1)
	go q.run()
	return q
}

// Enqueue schedules a task. Tasks submitted after Close are dropped.
func (q *Queue) Enqueue(name string, fn func()) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		log.Debug().Msgf("queue closed, dropping task %s", name)
		return
	}
	q.tasks = append(q.tasks, queueTask{name: name, fn: fn})
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// Count is the number of tasks queued but not yet started. A running
// task no longer counts.
func (q *Queue) Count() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}

// Close stops accepting tasks, waits for the backlog to drain, and stops
// the worker.
func (q *Queue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		q.wg.Wait()
		return
	}
	q.closed = true
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
	q.wg.Wait()
}

func (q *Queue) run() {
	defer q.wg.Done()
	for {
		q.mu.Lock()
		if len(q.tasks) == 0 {
			closed := q.closed
			q.mu.Unlock()
			if closed {
				return
			}
			<-q.wake
			continue
		}
		task := q.tasks[0]
		q.tasks = q.tasks[1:]
		q.mu.Unlock()

		task.fn()
	}
}
