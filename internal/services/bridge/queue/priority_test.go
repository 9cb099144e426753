package queue

import (
	"testing"
	"time"
)

func TestPriorityQueue_PopsLowestFirst(t *testing.T) {
	q := NewPriorityQueue[string](0)
	q.Push(5, "b")
	q.Push(1, "a")
	q.Push(1000, "retry")

	v, p, ok := q.TryPop(10 * time.Millisecond)
	if !ok || v != "a" || p != 1 {
		t.Fatalf("want a/1, got %v/%d ok=%v", v, p, ok)
	}
	v, _, ok = q.TryPop(10 * time.Millisecond)
	if !ok || v != "b" {
		t.Fatalf("want b, got %v", v)
	}
	v, _, ok = q.TryPop(10 * time.Millisecond)
	if !ok || v != "retry" {
		t.Fatalf("want retry, got %v", v)
	}
}

func TestPriorityQueue_FIFOWithinEqualPriority(t *testing.T) {
	q := NewPriorityQueue[int](0)
	for i := 0; i < 5; i++ {
		q.Push(1, i)
	}
	for i := 0; i < 5; i++ {
		v, _, ok := q.TryPop(time.Millisecond)
		if !ok || v != i {
			t.Fatalf("want %d got %v ok=%v", i, v, ok)
		}
	}
}

func TestPriorityQueue_TryPopTimesOutWhenEmpty(t *testing.T) {
	q := NewPriorityQueue[int](0)
	start := time.Now()
	_, _, ok := q.TryPop(20 * time.Millisecond)
	if ok {
		t.Fatalf("expected empty result")
	}
	if time.Since(start) < 15*time.Millisecond {
		t.Fatalf("returned too early")
	}
}

func TestPriorityQueue_BoundedPushDropsWhenFull(t *testing.T) {
	q := NewPriorityQueue[int](1)
	if !q.Push(1, 1) {
		t.Fatalf("expected first push to succeed")
	}
	if q.Push(1, 2) {
		t.Fatalf("expected second push to be rejected at capacity")
	}
	if q.Len() != 1 {
		t.Fatalf("expected len 1, got %d", q.Len())
	}
}

func TestClientPool_PutAndTryGet(t *testing.T) {
	p := NewClientPool(2)
	if _, ok := p.TryGet(10 * time.Millisecond); ok {
		t.Fatalf("expected empty pool to yield ok=false")
	}

	p.Put(nil)
	l, ok := p.TryGet(10 * time.Millisecond)
	if !ok || l != nil {
		t.Fatalf("expected to get back the put lease")
	}
}

func TestClientPool_PutDelayed(t *testing.T) {
	p := NewClientPool(1)
	start := time.Now()
	p.PutDelayed(nil, 30*time.Millisecond)

	if _, ok := p.TryGet(5 * time.Millisecond); ok {
		t.Fatalf("expected lease not yet returned")
	}
	// TryGet returns at once on an observed-empty pool, so poll until the delayed put lands
	deadline := time.Now().Add(100 * time.Millisecond)
	var ok bool
	for !ok && time.Now().Before(deadline) {
		if _, ok = p.TryGet(5 * time.Millisecond); !ok {
			time.Sleep(time.Millisecond)
		}
	}
	if !ok {
		t.Fatalf("expected delayed lease to eventually appear")
	}
	if time.Since(start) < 25*time.Millisecond {
		t.Fatalf("lease reappeared too early")
	}
}
