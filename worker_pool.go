// Copyright 2025 Agentic World, LLC (Sherin Thomas)
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package htmlentity

import (
	"context"
	"sync"
)

// WorkerPool runs submitted jobs on a fixed number of goroutines. Once its
// context ends, workers stop picking up queued jobs.
type WorkerPool struct {
	workers int
	queue   chan func()
	wg      sync.WaitGroup
	ctx     context.Context
}

// NewWorkerPool starts workers goroutines reading from a queue of queueSize
// jobs. workers below 1 is treated as 1.
func NewWorkerPool(ctx context.Context, workers, queueSize int) *WorkerPool {
	if workers < 1 {
		workers = 1
	}
	wp := &WorkerPool{
		workers: workers,
		queue:   make(chan func(), queueSize),
		ctx:     ctx,
	}
	wp.wg.Add(workers)
	for range workers {
		go wp.worker()
	}
	return wp
}

func (wp *WorkerPool) worker() {
	defer wp.wg.Done()
	for {
		// Check cancellation first so queued jobs are not started late
		if wp.ctx.Err() != nil {
			return
		}
		select {
		case job, ok := <-wp.queue:
			if !ok {
				return
			}
			job()
		case <-wp.ctx.Done():
			return
		}
	}
}

// Submit queues job, blocking while the queue is full. It returns the
// context error if the pool's context ends first.
func (wp *WorkerPool) Submit(job func()) error {
	if err := wp.ctx.Err(); err != nil {
		return err
	}
	select {
	case wp.queue <- job:
		return nil
	case <-wp.ctx.Done():
		return wp.ctx.Err()
	}
}

// Size returns the number of workers.
func (wp *WorkerPool) Size() int {
	return wp.workers
}

// Close stops accepting jobs and waits for the running ones to finish.
func (wp *WorkerPool) Close() {
	close(wp.queue)
	wp.wg.Wait()
}
