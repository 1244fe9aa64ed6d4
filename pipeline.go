package collide

import (
	"golang.org/x/sync/errgroup"
)

// task runs fn over every element of data, split in contiguous chunks between workers.
func task[T any](workersCount int, data []T, fn func(index int, data T)) {
	parallelChunks(workersCount, len(data), func(_, start, end int) {
		for i := start; i < end; i++ {
			fn(i, data[i])
		}
	})
}

// parallelFor runs fn for every index of [0, n)
func parallelFor(workersCount, n int, fn func(i int)) {
	parallelChunks(workersCount, n, func(_, start, end int) {
		for i := start; i < end; i++ {
			fn(i)
		}
	})
}

// parallelChunks hands each worker one contiguous range of [0, n). Worker ids
// are dense and ranges are ordered by worker id, so per-worker buffers merged
// in id order keep the sequential order.
// It returns the number of workers actually used.
func parallelChunks(workersCount, n int, fn func(worker, start, end int)) int {
	if n <= 0 {
		return 0
	}
	workersCount = clamp(workersCount, 1, n)
	if workersCount == 1 {
		fn(0, 0, n)
		return 1
	}

	chunkSize := (n + workersCount - 1) / workersCount
	used := 0

	var g errgroup.Group
	for workerID := 0; workerID < workersCount; workerID++ {
		start := workerID * chunkSize
		end := min(start+chunkSize, n)
		if start >= end {
			break
		}
		used++
		g.Go(func() error {
			fn(workerID, start, end)
			return nil
		})
	}
	// workers never fail, Wait only joins them
	_ = g.Wait()

	return used
}
