package genstore

import (
	"context"
	"testing"
	"time"
)

func TestLocalBumpAndSnapshot(t *testing.T) {
	ctx := context.Background()
	s := NewLocalGenStore(0, 0)
	t.Cleanup(func() { _ = s.Close(ctx) })

	// Unknown keys snapshot as zero.
	g, err := s.Snapshot(ctx, "k1")
	if err != nil || g != 0 {
		t.Fatalf("fresh snapshot: g=%d err=%v", g, err)
	}

	if g, err = s.Bump(ctx, "k1"); err != nil || g != 1 {
		t.Fatalf("first bump: g=%d err=%v", g, err)
	}
	if g, err = s.Bump(ctx, "k1"); err != nil || g != 2 {
		t.Fatalf("second bump: g=%d err=%v", g, err)
	}
	if g, err = s.Snapshot(ctx, "k1"); err != nil || g != 2 {
		t.Fatalf("snapshot after bumps: g=%d err=%v", g, err)
	}

	// Keys are independent.
	if g, err = s.Snapshot(ctx, "k2"); err != nil || g != 0 {
		t.Fatalf("other key: g=%d err=%v", g, err)
	}
}

func TestLocalCleanupPrunesOld(t *testing.T) {
	ctx := context.Background()
	s := NewLocalGenStore(0, 0) // manual cleanup only
	t.Cleanup(func() { _ = s.Close(ctx) })

	if _, err := s.Bump(ctx, "old"); err != nil {
		t.Fatalf("bump: %v", err)
	}
	time.Sleep(120 * time.Millisecond)
	if _, err := s.Bump(ctx, "fresh"); err != nil {
		t.Fatalf("bump: %v", err)
	}

	s.Cleanup(100 * time.Millisecond)

	if g, _ := s.Snapshot(ctx, "old"); g != 0 {
		t.Fatalf("old entry should be pruned, g=%d", g)
	}
	if g, _ := s.Snapshot(ctx, "fresh"); g != 1 {
		t.Fatalf("fresh entry should survive, g=%d", g)
	}
}

func TestLocalCloseStopsCleanupLoop(t *testing.T) {
	ctx := context.Background()
	s := NewLocalGenStore(10*time.Millisecond, time.Hour)
	if err := s.Close(ctx); err != nil {
		t.Fatalf("close: %v", err)
	}
}
