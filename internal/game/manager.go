package game

import (
	"context"
	"crypto/rand"
	"math/big"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"claimgrid/internal/board"
	"claimgrid/internal/obslog"
)

const (
	defaultGracePeriod = 60 * time.Second

	winCoins  = 200
	lossCoins = 200
)

// entry pairs a session with the lock that serializes every mutation of it.
// Slots and ids are immutable after creation; only grid, turn, status, winner
// and the removal timer change, always under mu.
type entry struct {
	mu      sync.Mutex
	s       *Session
	removal *time.Timer
}

// Manager owns the active-session table and is the only writer of session
// state. All reads-then-writes of one session run under that session's lock,
// so two near-simultaneous moves, or a move racing a disconnect finalize,
// can never both succeed.
type Manager struct {
	live    LiveStore
	results ResultStore
	grace   time.Duration

	mu       sync.RWMutex
	sessions map[string]*entry
}

// NewManager builds a session manager. grace is the delay between a session's
// finalization and its eviction from the active table; values <= 0 fall back
// to 60 seconds.
func NewManager(live LiveStore, results ResultStore, grace time.Duration) *Manager {
	if grace <= 0 {
		grace = defaultGracePeriod
	}
	return &Manager{
		live:     live,
		results:  results,
		grace:    grace,
		sessions: make(map[string]*entry),
	}
}

// CreateSession pairs two participants into a fresh session: colors assigned
// randomly, player1 to move, empty grid. The durable record is written before
// the session becomes visible; a failed write fails the pairing.
func (m *Manager) CreateSession(ctx context.Context, a, b Participant) (*Session, error) {
	redFirst := true
	if n, err := rand.Int(rand.Reader, big.NewInt(2)); err == nil && n.Int64() == 0 {
		redFirst = false
	}
	c1, c2 := board.Red, board.Blue
	if !redFirst {
		c1, c2 = board.Blue, board.Red
	}

	s := &Session{
		ID:        uuid.NewString(),
		Player1:   PlayerSlot{PlayerID: a.PlayerID, ConnID: a.ConnID, Name: a.Name, Color: c1},
		Player2:   PlayerSlot{PlayerID: b.PlayerID, ConnID: b.ConnID, Name: b.Name, Color: c2},
		Turn:      SlotPlayer1,
		Status:    StatusActive,
		CreatedAt: time.Now(),
	}
	if err := m.live.SaveGame(ctx, s); err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.sessions[s.ID] = &entry{s: s}
	m.mu.Unlock()

	obslog.L().Info("session_create",
		zap.String("game_id", s.ID),
		zap.String("player1_id", s.Player1.PlayerID),
		zap.String("player2_id", s.Player2.PlayerID),
		zap.String("player1_color", string(c1)),
	)
	return s.clone(), nil
}

// Get returns a snapshot of the session, admitting it from the durable mirror
// when it is not tracked in memory.
func (m *Manager) Get(ctx context.Context, id string) (*Session, error) {
	e, err := m.lookup(ctx, id)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, ErrGameNotActive
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.s.clone(), nil
}

// HasActiveGame reports whether the player occupies a slot in any session
// still marked active. e.s is only read under the entry lock: finalize swaps
// the pointer under that lock, and the table lock alone does not order the
// two. Lock order is always table then entry, never the reverse.
func (m *Manager) HasActiveGame(playerID string) bool {
	if playerID == "" {
		return false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, e := range m.sessions {
		e.mu.Lock()
		active := e.s.Status == StatusActive && e.s.SeatOf(playerID) != ""
		e.mu.Unlock()
		if active {
			return true
		}
	}
	return false
}

// ActiveCount returns the number of sessions in the active table, including
// finished ones still inside their grace window.
func (m *Manager) ActiveCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// ApplyMove validates and applies one move. Preconditions are checked in a
// fixed order, each mapping to a distinct error. A move that fills the board
// finalizes the session in the same critical section, so callers see exactly
// one terminal outcome and never a move event followed by a game end for the
// same move.
func (m *Manager) ApplyMove(ctx context.Context, sessionID, playerID string, row, col int) (*MoveOutcome, error) {
	e, err := m.lookup(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, ErrGameNotActive
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	s := e.s
	if s.Status != StatusActive {
		return nil, ErrGameNotActive
	}
	seat := s.SeatOf(playerID)
	if seat == "" {
		return nil, ErrNotAParticipant
	}
	if seat != s.Turn {
		return nil, ErrNotYourTurn
	}
	if !board.InBounds(row, col) {
		return nil, ErrOutOfBounds
	}
	if s.Grid[row][col] != board.Empty {
		return nil, ErrCellOccupied
	}

	color := s.Slot(seat).Color
	s.Grid[row][col] = color

	if s.Grid.Full() {
		fin, _, ferr := m.finalizeLocked(ctx, sessionID, e, CauseBoardFull, "")
		if ferr != nil {
			return nil, ferr
		}
		return &MoveOutcome{Session: fin, Row: row, Col: col, Color: color, Finished: true}, nil
	}

	s.Turn = s.Turn.Other()
	// The in-memory state is authoritative mid-game; a failed mirror write is
	// logged and the game continues.
	if err := m.live.SaveGame(ctx, s); err != nil {
		obslog.L().Warn("live_store_write_error",
			zap.String("game_id", s.ID),
			zap.Error(err),
		)
	}
	obslog.L().Info("move_made",
		zap.String("game_id", s.ID),
		zap.String("player_id", playerID),
		zap.Int("row", row),
		zap.Int("col", col),
		zap.String("color", string(color)),
	)
	return &MoveOutcome{Session: s.clone(), Row: row, Col: col, Color: color}, nil
}

// Finalize ends a session for the given cause. For disconnect and forfeit the
// caller supplies the surviving player's id; board_full scores both colors.
// Calling it on an already finished session is a no-op: the finished snapshot
// is returned with already=true and the economy is never applied twice.
func (m *Manager) Finalize(ctx context.Context, sessionID string, cause Cause, winnerID string) (*Session, bool, error) {
	e, err := m.lookup(ctx, sessionID)
	if err != nil {
		return nil, false, err
	}
	if e == nil {
		return nil, false, ErrGameNotActive
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return m.finalizeLocked(ctx, sessionID, e, cause, winnerID)
}

// Forfeit ends the session with the requester as loser. The participant check
// runs under the session lock so it cannot race another finalize.
func (m *Manager) Forfeit(ctx context.Context, sessionID, requesterID string) (*Session, bool, error) {
	e, err := m.lookup(ctx, sessionID)
	if err != nil {
		return nil, false, err
	}
	if e == nil {
		return nil, false, ErrGameNotActive
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	opp := e.s.OpponentOf(requesterID)
	if opp == nil {
		return nil, false, ErrNotAParticipant
	}
	return m.finalizeLocked(ctx, sessionID, e, CauseForfeit, opp.PlayerID)
}

// HandleDisconnect finalizes every active session holding the connection, with
// the remaining player as winner regardless of board state. It returns the
// finalized snapshots so the transport can notify the survivors, plus the
// snapshots of sessions whose finalize failed so the survivors can be told the
// result did not land.
func (m *Manager) HandleDisconnect(ctx context.Context, connID string) (ended, failed []*Session) {
	if connID == "" {
		return nil, nil
	}
	m.mu.RLock()
	hit := make([]*entry, 0, len(m.sessions))
	ids := make([]string, 0, len(m.sessions))
	for id, e := range m.sessions {
		hit = append(hit, e)
		ids = append(ids, id)
	}
	m.mu.RUnlock()

	for i, e := range hit {
		e.mu.Lock()
		s := e.s
		if !s.HoldsConn(connID) || s.Status != StatusActive {
			e.mu.Unlock()
			continue
		}
		winner := s.Player1.PlayerID
		if s.Player1.ConnID == connID {
			winner = s.Player2.PlayerID
		}
		fin, already, err := m.finalizeLocked(ctx, ids[i], e, CauseDisconnect, winner)
		if err != nil {
			failed = append(failed, e.s.clone())
			e.mu.Unlock()
			obslog.L().Error("disconnect_finalize_error",
				zap.String("game_id", ids[i]),
				zap.String("conn_id", connID),
				zap.Error(err),
			)
			continue
		}
		e.mu.Unlock()
		if !already {
			ended = append(ended, fin)
		}
	}
	return ended, failed
}

// Close stops pending removal timers. Sessions themselves stay in the durable
// mirror and are re-admitted on the next lookup after a restart.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.sessions {
		e.mu.Lock()
		if e.removal != nil {
			e.removal.Stop()
			e.removal = nil
		}
		e.mu.Unlock()
	}
}

// lookup checks the in-memory table first. A session missing from memory is
// fetched from the durable mirror and, when still active there, re-admitted;
// this is the recovery path after a process restart.
func (m *Manager) lookup(ctx context.Context, id string) (*entry, error) {
	if id == "" {
		return nil, nil
	}
	m.mu.RLock()
	e, ok := m.sessions[id]
	m.mu.RUnlock()
	if ok {
		return e, nil
	}

	s, err := m.live.LoadGame(ctx, id)
	if err != nil {
		obslog.L().Warn("live_store_read_error", zap.String("game_id", id), zap.Error(err))
		return nil, nil
	}
	if s == nil || s.Status != StatusActive {
		return nil, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.sessions[id]; ok {
		return e, nil
	}
	e = &entry{s: s}
	m.sessions[id] = e
	obslog.L().Info("session_readmit", zap.String("game_id", id))
	return e, nil
}

// finalizeLocked performs the one-time transition to finished. Callers hold
// e.mu. Ordering matters: the durable game record is written before the
// in-memory commit, so a storage failure leaves the session active and
// retryable; economy failures after the commit are surfaced but can never be
// applied twice, since repeated calls short-circuit on the finished status.
func (m *Manager) finalizeLocked(ctx context.Context, id string, e *entry, cause Cause, winnerID string) (*Session, bool, error) {
	s := e.s
	if s.Status == StatusFinished {
		return s.clone(), true, nil
	}

	winner := winnerID
	if cause == CauseBoardFull {
		a1 := board.LargestRegion(s.Grid, s.Player1.Color)
		a2 := board.LargestRegion(s.Grid, s.Player2.Color)
		switch {
		case a1 > a2:
			winner = s.Player1.PlayerID
		case a2 > a1:
			winner = s.Player2.PlayerID
		default:
			winner = WinnerDraw
		}
	} else if s.SeatOf(winner) == "" {
		return nil, false, ErrNotAParticipant
	}

	fin := s.clone()
	fin.Status = StatusFinished
	fin.Winner = winner
	fin.FinishedAt = time.Now()

	if err := m.live.SaveGame(ctx, fin); err != nil {
		obslog.L().Error("finalize_persist_error",
			zap.String("game_id", id),
			zap.String("cause", string(cause)),
			zap.Error(err),
		)
		return nil, false, ErrPersistence
	}

	e.s = fin
	e.removal = time.AfterFunc(m.grace, func() { m.remove(id) })

	if err := m.applyEconomy(ctx, fin, cause); err != nil {
		obslog.L().Error("stats_persist_error",
			zap.String("game_id", id),
			zap.String("winner", winner),
			zap.Error(err),
		)
		return nil, false, ErrPersistence
	}

	obslog.L().Info("game_finalize",
		zap.String("game_id", id),
		zap.String("cause", string(cause)),
		zap.String("winner", winner),
	)
	return fin.clone(), false, nil
}

// applyEconomy records the result and adjusts both player records exactly
// once per finalized session.
func (m *Manager) applyEconomy(ctx context.Context, s *Session, cause Cause) error {
	if err := m.results.SaveResult(ctx, s, cause); err != nil {
		return err
	}
	if s.Winner == WinnerDraw {
		if err := m.results.AdjustPlayerStats(ctx, s.Player1.PlayerID, StatsDelta{Draws: 1}); err != nil {
			return err
		}
		return m.results.AdjustPlayerStats(ctx, s.Player2.PlayerID, StatsDelta{Draws: 1})
	}

	loser := s.OpponentOf(s.Winner)
	balance, err := m.results.PlayerCoins(ctx, loser.PlayerID)
	if err != nil {
		return err
	}
	forfeited := lossCoins
	if balance < forfeited {
		forfeited = balance
	}
	if err := m.results.AdjustPlayerStats(ctx, s.Winner, StatsDelta{Wins: 1, Coins: winCoins}); err != nil {
		return err
	}
	return m.results.AdjustPlayerStats(ctx, loser.PlayerID, StatsDelta{Losses: 1, Coins: -forfeited})
}

func (m *Manager) remove(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
}
