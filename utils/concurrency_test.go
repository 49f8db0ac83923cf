package utils

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestKeySetNoDuplicates(t *testing.T) {
	s := NewKeySet()

	if !s.Add("valuation_Asha_Patel") {
		t.Error("first Add should return true")
	}
	if s.Add("valuation_Asha_Patel") {
		t.Error("second Add of same key should return false")
	}
	if s.Size() != 1 {
		t.Errorf("size: got %d, want 1", s.Size())
	}
}

func TestKeySetConcurrency(t *testing.T) {
	s := NewKeySet()
	var added int64

	pool := NewWorkerPool(10, 0)
	for i := 0; i < 100; i++ {
		pool.Submit(func() error {
			if s.Add("same") {
				atomic.AddInt64(&added, 1)
			}
			return nil
		})
	}
	if err := pool.Wait(); err != nil {
		t.Fatalf("Wait: %v", err)
	}

	if added != 1 {
		t.Errorf("expected exactly 1 successful add, got %d", added)
	}
}

func TestWorkerPoolCollectsErrors(t *testing.T) {
	errOdd := errors.New("odd job failed")
	pool := NewWorkerPool(3, 0)

	for i := 0; i < 6; i++ {
		i := i
		pool.Submit(func() error {
			if i%2 == 1 {
				return errOdd
			}
			return nil
		})
	}

	err := pool.Wait()
	if !errors.Is(err, errOdd) {
		t.Fatalf("Wait: got %v, want joined %v", err, errOdd)
	}
	if err := pool.Wait(); err != nil {
		t.Errorf("second Wait should be clean, got %v", err)
	}
}

func TestWorkerPoolBoundsConcurrency(t *testing.T) {
	pool := NewWorkerPool(2, 0)
	var running, peak int64

	for i := 0; i < 8; i++ {
		pool.Submit(func() error {
			n := atomic.AddInt64(&running, 1)
			for {
				p := atomic.LoadInt64(&peak)
				if n <= p || atomic.CompareAndSwapInt64(&peak, p, n) {
					break
				}
			}
			time.Sleep(10 * time.Millisecond)
			atomic.AddInt64(&running, -1)
			return nil
		})
	}
	_ = pool.Wait()

	if peak > 2 {
		t.Errorf("peak concurrency %d exceeds 2", peak)
	}
}

func TestWorkerPoolRateLimit(t *testing.T) {
	rateLimitMs := 100
	pool := NewWorkerPool(1, rateLimitMs)

	var mu sync.Mutex
	var timestamps []time.Time

	for i := 0; i < 3; i++ {
		pool.Submit(func() error {
			mu.Lock()
			timestamps = append(timestamps, time.Now())
			mu.Unlock()
			return nil
		})
	}
	_ = pool.Wait()

	for i := 1; i < len(timestamps); i++ {
		gap := timestamps[i].Sub(timestamps[i-1])
		min := time.Duration(rateLimitMs) * time.Millisecond
		if gap < min-5*time.Millisecond {
			t.Errorf("gap between job %d and %d: %v < minimum %v", i-1, i, gap, min)
		}
	}
}
