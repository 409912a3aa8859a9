// Copyright 2020 gorse Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package parallel

import (
	"context"
	"sync"

	"github.com/juju/errors"
)

const chanSize = 1024

// Parallel runs worker for every job id in [0, nJobs) on nWorkers
// goroutines. The first error stops scheduling and is returned once all
// workers have stopped. Cancelling ctx has the same effect.
func Parallel(ctx context.Context, nJobs, nWorkers int, worker func(workerId, jobId int) error) error {
	if nWorkers <= 1 {
		for i := 0; i < nJobs; i++ {
			if err := ctx.Err(); err != nil {
				return errors.Trace(err)
			}
			if err := worker(0, i); err != nil {
				return errors.Trace(err)
			}
		}
		return nil
	}
	jobCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	var (
		mu       sync.Mutex
		firstErr error
	)
	fail := func(err error) {
		mu.Lock()
		if firstErr == nil {
			firstErr = err
		}
		mu.Unlock()
		cancel()
	}
	c := make(chan int, chanSize)
	go func() {
		defer close(c)
		for i := 0; i < nJobs; i++ {
			select {
			case <-jobCtx.Done():
				return
			case c <- i:
			}
		}
	}()
	var wg sync.WaitGroup
	for j := 0; j < nWorkers; j++ {
		workerId := j
		wg.Go(func() {
			for jobId := range c {
				if jobCtx.Err() != nil {
					return
				}
				if err := worker(workerId, jobId); err != nil {
					fail(err)
					return
				}
			}
		})
	}
	wg.Wait()
	if firstErr != nil {
		return errors.Trace(firstErr)
	}
	return errors.Trace(ctx.Err())
}

// Split partitions [0, n) into at most nWorkers contiguous chunks and
// returns their boundaries.
func Split(n, nWorkers int) [][2]int {
	if n <= 0 {
		return nil
	}
	if nWorkers < 1 {
		nWorkers = 1
	}
	if nWorkers > n {
		nWorkers = n
	}
	chunks := make([][2]int, 0, nWorkers)
	size, rem := n/nWorkers, n%nWorkers
	begin := 0
	for i := 0; i < nWorkers; i++ {
		end := begin + size
		if i < rem {
			end++
		}
		chunks = append(chunks, [2]int{begin, end})
		begin = end
	}
	return chunks
}
