package matchmaking_test

import (
	"context"
	"errors"
	"testing"

	"claimgrid/internal/game"
	"claimgrid/internal/matchmaking"
	"claimgrid/internal/store"
)

func newTestQueue(t *testing.T) (*matchmaking.Queue, *game.Manager) {
	t.Helper()
	mem := store.NewMemoryStore()
	mgr := game.NewManager(mem, mem, 0)
	t.Cleanup(mgr.Close)
	return matchmaking.New(mgr), mgr
}

func player(id, conn string) game.Participant {
	return game.Participant{PlayerID: id, ConnID: conn, Name: id}
}

func TestEnqueueWaitsThenPairs(t *testing.T) {
	q, _ := newTestQueue(t)
	ctx := context.Background()

	res, err := q.Enqueue(ctx, player("p1", "c1"))
	if err != nil {
		t.Fatalf("enqueue p1: %v", err)
	}
	if res.Session != nil || res.Waiting != 1 {
		t.Fatalf("p1 result = %+v, want waiting count 1", res)
	}

	res, err = q.Enqueue(ctx, player("p2", "c2"))
	if err != nil {
		t.Fatalf("enqueue p2: %v", err)
	}
	if res.Session == nil {
		t.Fatalf("expected pairing on second enqueue")
	}
	s := res.Session
	if s.Player1.PlayerID != "p1" || s.Player2.PlayerID != "p2" {
		t.Fatalf("pairing order not FIFO: %s vs %s", s.Player1.PlayerID, s.Player2.PlayerID)
	}
	if q.Len() != 0 {
		t.Fatalf("queue length after pairing = %d, want 0", q.Len())
	}
}

func TestCancelBeforePairing(t *testing.T) {
	q, mgr := newTestQueue(t)
	ctx := context.Background()

	if _, err := q.Enqueue(ctx, player("p1", "c1")); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if !q.Cancel("c1") {
		t.Fatalf("cancel reported no entry")
	}
	if q.Len() != 0 {
		t.Fatalf("queue length after cancel = %d, want 0", q.Len())
	}
	if mgr.ActiveCount() != 0 {
		t.Fatalf("no session should exist after lone player cancels")
	}
	// Cancel of an absent entry is a quiet no-op.
	if q.Cancel("c1") {
		t.Fatalf("second cancel reported an entry")
	}
}

func TestEnqueueRejectsPlayerInActiveGame(t *testing.T) {
	q, _ := newTestQueue(t)
	ctx := context.Background()

	if _, err := q.Enqueue(ctx, player("p1", "c1")); err != nil {
		t.Fatalf("enqueue p1: %v", err)
	}
	if _, err := q.Enqueue(ctx, player("p2", "c2")); err != nil {
		t.Fatalf("enqueue p2: %v", err)
	}
	if _, err := q.Enqueue(ctx, player("p1", "c3")); !errors.Is(err, game.ErrAlreadyActive) {
		t.Fatalf("re-enqueue of active player: got %v, want ErrAlreadyActive", err)
	}
}

func TestEnqueueReplacesStaleEntry(t *testing.T) {
	q, _ := newTestQueue(t)
	ctx := context.Background()

	if _, err := q.Enqueue(ctx, player("p1", "c1")); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	// Same player on a new connection replaces the stale entry.
	res, err := q.Enqueue(ctx, player("p1", "c9"))
	if err != nil {
		t.Fatalf("re-enqueue on new connection: %v", err)
	}
	if res.Waiting != 1 {
		t.Fatalf("waiting count = %d, want 1 after replacement", res.Waiting)
	}

	res, err = q.Enqueue(ctx, player("p2", "c2"))
	if err != nil || res.Session == nil {
		t.Fatalf("pairing after replacement: res=%+v err=%v", res, err)
	}
	if res.Session.Player1.ConnID != "c9" {
		t.Fatalf("paired with stale connection %s, want c9", res.Session.Player1.ConnID)
	}
}

func TestEnqueueSameConnectionRejected(t *testing.T) {
	q, _ := newTestQueue(t)
	ctx := context.Background()

	if _, err := q.Enqueue(ctx, player("p1", "c1")); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if _, err := q.Enqueue(ctx, player("p1", "c1")); !errors.Is(err, game.ErrAlreadyQueued) {
		t.Fatalf("duplicate request: got %v, want ErrAlreadyQueued", err)
	}
	if q.Len() != 1 {
		t.Fatalf("queue length = %d, want 1", q.Len())
	}
}

func TestPairingIsFIFO(t *testing.T) {
	q, _ := newTestQueue(t)
	ctx := context.Background()

	if _, err := q.Enqueue(ctx, player("p1", "c1")); err != nil {
		t.Fatalf("enqueue p1: %v", err)
	}
	if !q.Cancel("c1") {
		t.Fatalf("cancel p1")
	}
	for _, p := range []string{"p2", "p3"} {
		res, err := q.Enqueue(ctx, player(p, "conn-"+p))
		if err != nil {
			t.Fatalf("enqueue %s: %v", p, err)
		}
		if p == "p3" && (res.Session == nil || res.Session.Player1.PlayerID != "p2") {
			t.Fatalf("expected p2 paired first, got %+v", res.Session)
		}
	}
}
