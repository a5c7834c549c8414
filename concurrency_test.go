package xstitch

import (
	"sync/atomic"
	"testing"
)

func TestParallelForVisitsEveryIndexExactlyOnce(t *testing.T) {
	const n = 10007
	seen := make([]int32, n)
	parallelFor(n, func(i int) {
		atomic.AddInt32(&seen[i], 1)
	})
	for i, v := range seen {
		if v != 1 {
			t.Fatalf("index %d visited %d times, want 1", i, v)
		}
	}
}

func TestParallelForZeroElements(t *testing.T) {
	called := false
	parallelFor(0, func(i int) { called = true })
	if called {
		t.Fatal("fn should not be called for n=0")
	}
}
