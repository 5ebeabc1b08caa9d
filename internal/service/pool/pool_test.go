package pool

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func BenchmarkPoolParallel(b *testing.B) {
	for _, size := range []int{1, 8, 64, 256} {
		b.Run(fmt.Sprintf("size=%d", size), func(b *testing.B) {
			p := New(size)
			ctx := context.Background()
			b.ReportAllocs()
			b.RunParallel(func(pb *testing.PB) {
				for pb.Next() {
					if err := p.Acquire(ctx); err != nil {
						b.Fatal(err)
					}
					p.Release()
				}
			})
		})
	}
}

func TestNewPoolSize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in  int
		out int
	}{
		{in: -1, out: 1},
		{in: 0, out: 1},
		{in: 1, out: 1},
		{in: 8, out: 8},
		{in: MaxSize, out: MaxSize},
		{in: MaxSize + 1, out: MaxSize},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(fmt.Sprintf("size=%d", tt.in), func(t *testing.T) {
			t.Parallel()

			if got := New(tt.in).Size(); got != tt.out {
				t.Errorf("New(%d): got %d, want %d", tt.in, got, tt.out)
			}
		})
	}
}

// TestPoolAcquireRelease verifies that a blocked acquire unblocks after a release.
func TestPoolAcquireRelease(t *testing.T) {
	t.Parallel()

	p := New(2)
	for i := 0; i < 2; i++ {
		if err := p.Acquire(context.Background()); err != nil {
			t.Fatalf("prefill acquire #%d failed: %v", i+1, err)
		}
	}
	if got := p.InUse(); got != 2 {
		t.Fatalf("expected 2 in use, got %d", got)
	}

	done := make(chan error, 1)
	go func() { done <- p.Acquire(context.Background()) }()

	select {
	case err := <-done:
		t.Fatalf("expected extra acquire to block; got err=%v", err)
	case <-time.After(25 * time.Millisecond):
	}

	p.Release()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("unexpected extra acquire error: %v", err)
		}
	case <-time.After(200 * time.Millisecond):
		t.Fatal("expected blocked acquire to succeed after release")
	}

	p.Release()
	p.Release()
	if got := p.InUse(); got != 0 {
		t.Fatalf("expected 0 in use, got %d", got)
	}
}

func TestPoolAcquireContextTimeout(t *testing.T) {
	t.Parallel()

	p := New(1)
	if err := p.Acquire(context.Background()); err != nil {
		t.Fatalf("unexpected acquire error: %v", err)
	}
	defer p.Release()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if err := p.Acquire(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected %v, got %v", context.DeadlineExceeded, err)
	}
}

func TestPoolAcquire_DoneContextTakesNoSlot(t *testing.T) {
	t.Parallel()

	p := New(4)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for i := 0; i < 100; i++ {
		if err := p.Acquire(ctx); !errors.Is(err, context.Canceled) {
			t.Fatalf("attempt %d: expected %v, got %v", i, context.Canceled, err)
		}
	}
	if got := p.InUse(); got != 0 {
		t.Fatalf("expected 0 in use, got %d", got)
	}
}

func TestPoolRelease_WithoutAcquirePanics(t *testing.T) {
	t.Parallel()

	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected panic on unmatched release")
		}
	}()
	New(1).Release()
}
