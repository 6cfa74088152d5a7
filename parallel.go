package dngopcodes

import (
	"runtime"
	"sync"
)

var (
	workerSemOnce sync.Once
	workerSem     chan struct{}
)

// parallelFor splits [0, total) into contiguous chunks and runs fn on them
// concurrently. Chunks are disjoint, so fn may write to rows it owns without
// locking. workers <= 0 uses GOMAXPROCS. The number of goroutines running
// across all callers is bounded by a package-wide semaphore.
func parallelFor(total, workers int, fn func(start, end int)) {
	if total <= 0 {
		return
	}
	capacity := runtime.GOMAXPROCS(0)
	workerSemOnce.Do(func() {
		workerSem = make(chan struct{}, capacity)
	})
	if workers <= 0 || workers > cap(workerSem) {
		workers = cap(workerSem)
	}
	if workers > total {
		workers = total
	}
	if workers <= 1 {
		fn(0, total)
		return
	}
	step := (total + workers - 1) / workers
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		start := i * step
		end := start + step
		if end > total {
			end = total
		}
		if start >= end {
			break
		}
		workerSem <- struct{}{}
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			defer func() { <-workerSem }()
			fn(s, e)
		}(start, end)
	}
	wg.Wait()
}
