package xstitch

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// parallelFor splits [0, n) into roughly 8*NumCPU batches and runs fn over
// each index concurrently, joining before returning. This mirrors the
// batch-of-goroutines idiom used for CPU-bound per-pixel work throughout
// the corpus: a fixed oversubscription factor keeps batches small enough
// that a slow batch doesn't stall the whole pass, without creating one
// goroutine per element.
func parallelFor(n int, fn func(i int)) {
	if n == 0 {
		return
	}
	workers := runtime.NumCPU()
	if workers < 1 {
		workers = 1
	}
	batches := 8 * workers
	if batches > n {
		batches = n
	}
	batchSize := (n + batches - 1) / batches

	var g errgroup.Group
	for start := 0; start < n; start += batchSize {
		start := start
		end := start + batchSize
		if end > n {
			end = n
		}
		g.Go(func() error {
			for i := start; i < end; i++ {
				fn(i)
			}
			return nil
		})
	}
	_ = g.Wait()
}
