package resilience

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestFlight_CollapsesConcurrentCallers(t *testing.T) {
	var f Flight[string]
	var counter atomic.Int32

	const workers = 20
	start := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(workers)

	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			<-start
			val, err := f.Do("endpoint-key", func() (string, error) {
				counter.Add(1)
				time.Sleep(20 * time.Millisecond)
				return "ok", nil
			})
			if err != nil {
				t.Errorf("flight call failed: %v", err)
			}
			if val != "ok" {
				t.Errorf("flight value = %q, want ok", val)
			}
		}()
	}

	close(start)
	wg.Wait()

	if got := counter.Load(); got != 1 {
		t.Fatalf("expected function to run once, got %d", got)
	}
}

func TestFlight_DistinctKeysDoNotShare(t *testing.T) {
	var f Flight[int]

	a, _ := f.Do("a", func() (int, error) { return 1, nil })
	b, _ := f.Do("b", func() (int, error) { return 2, nil })

	if a == b {
		t.Fatalf("distinct keys returned the same value: %v", a)
	}
}

func TestFlight_DoesNotRetainResults(t *testing.T) {
	var f Flight[int]
	var counter atomic.Int32

	run := func() (int, error) {
		return int(counter.Add(1)), nil
	}

	first, _ := f.Do("k", run)
	second, _ := f.Do("k", run)

	if first != 1 || second != 2 {
		t.Fatalf("sequential calls = %d, %d; want 1, 2", first, second)
	}
}
