// Package matchmaking holds players waiting for an opponent and pairs them
// strictly FIFO. The queue's read-modify-write (length check, pop two, create
// session) runs under one lock, so concurrent enqueues cannot both claim the
// same opponent.
package matchmaking

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"claimgrid/internal/game"
	"claimgrid/internal/obslog"
)

// Sessions is the slice of the session manager the queue depends on.
type Sessions interface {
	HasActiveGame(playerID string) bool
	CreateSession(ctx context.Context, a, b game.Participant) (*game.Session, error)
}

// Result is the outcome of a successful enqueue: either the caller is waiting
// (Session nil, Waiting holds the queue length) or a pairing happened and
// Session carries the freshly created game for broadcast to both players.
type Result struct {
	Waiting int
	Session *game.Session
}

type Queue struct {
	sessions Sessions

	mu      sync.Mutex
	waiting []game.Participant
}

func New(sessions Sessions) *Queue {
	return &Queue{sessions: sessions}
}

// Enqueue adds the player to the waiting list. A player who already owns a
// live session is rejected with ErrAlreadyActive. A repeat request from the
// same connection is rejected with ErrAlreadyQueued; an entry left behind by
// an older connection of the same player is silently replaced. When two
// players are waiting the two oldest are paired synchronously.
func (q *Queue) Enqueue(ctx context.Context, p game.Participant) (*Result, error) {
	if q.sessions.HasActiveGame(p.PlayerID) {
		return nil, game.ErrAlreadyActive
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	for i, w := range q.waiting {
		if w.ConnID == p.ConnID {
			return nil, game.ErrAlreadyQueued
		}
		if w.PlayerID == p.PlayerID {
			// Stale entry from a previous connection of this player.
			q.waiting = append(q.waiting[:i], q.waiting[i+1:]...)
			break
		}
	}
	q.waiting = append(q.waiting, p)

	if len(q.waiting) < 2 {
		obslog.L().Info("match_waiting",
			zap.String("player_id", p.PlayerID),
			zap.Int("queue_len", len(q.waiting)),
		)
		return &Result{Waiting: len(q.waiting)}, nil
	}

	a, b := q.waiting[0], q.waiting[1]
	q.waiting = q.waiting[2:]

	s, err := q.sessions.CreateSession(ctx, a, b)
	if err != nil {
		// Pairing failed before either side saw a game; put both back in
		// their original order so the next enqueue retries.
		q.waiting = append([]game.Participant{a, b}, q.waiting...)
		return nil, err
	}
	obslog.L().Info("match_found",
		zap.String("game_id", s.ID),
		zap.String("player1_id", a.PlayerID),
		zap.String("player2_id", b.PlayerID),
	)
	return &Result{Session: s}, nil
}

// Cancel removes any waiting entry bound to the connection. It reports
// whether an entry was removed and is a no-op otherwise.
func (q *Queue) Cancel(connID string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i, w := range q.waiting {
		if w.ConnID == connID {
			q.waiting = append(q.waiting[:i], q.waiting[i+1:]...)
			obslog.L().Info("match_cancel", zap.String("player_id", w.PlayerID))
			return true
		}
	}
	return false
}

// Len returns the current number of waiting players.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.waiting)
}
