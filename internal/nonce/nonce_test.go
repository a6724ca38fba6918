package nonce

import (
	"context"
	"testing"
)

func TestIssueConsume_InMemory(t *testing.T) {
	store := NewStore("")
	ctx := context.Background()

	n, err := store.Issue(ctx)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if n == "" {
		t.Fatal("expected a non-empty nonce")
	}

	if err := store.Consume(ctx, n); err != nil {
		t.Fatalf("Consume: %v", err)
	}
}

func TestConsume_RejectsUnknown(t *testing.T) {
	store := NewStore("")
	if err := store.Consume(context.Background(), "never-issued"); err != ErrUnknownOrStale {
		t.Fatalf("expected ErrUnknownOrStale, got %v", err)
	}
}

func TestConsume_RejectsReplay(t *testing.T) {
	store := NewStore("")
	ctx := context.Background()

	n, err := store.Issue(ctx)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if err := store.Consume(ctx, n); err != nil {
		t.Fatalf("first Consume: %v", err)
	}
	if err := store.Consume(ctx, n); err != ErrUnknownOrStale {
		t.Fatalf("expected replay to be rejected, got %v", err)
	}
}

func TestIssue_ProducesUniqueValues(t *testing.T) {
	store := NewStore("")
	ctx := context.Background()

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		n, err := store.Issue(ctx)
		if err != nil {
			t.Fatalf("Issue: %v", err)
		}
		if seen[n] {
			t.Fatalf("duplicate nonce generated: %s", n)
		}
		seen[n] = true
	}
}
