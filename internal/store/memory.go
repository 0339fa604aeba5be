package store

import (
	"context"
	"sync"

	"claimgrid/internal/game"
)

// PlayerStats is the in-memory record counterpart of a row in the players
// table.
type PlayerStats struct {
	Wins   int
	Losses int
	Draws  int
	Coins  int
}

// MemoryStore is a development and test implementation of both the live
// mirror and the result store, used when no Redis or database is configured.
type MemoryStore struct {
	mu sync.RWMutex

	games   map[string]*game.Session // live mirror, latest snapshot per id
	results map[string]game.Cause    // finished game id -> cause
	players map[string]*PlayerStats
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		games:   make(map[string]*game.Session),
		results: make(map[string]game.Cause),
		players: make(map[string]*PlayerStats),
	}
}

func (m *MemoryStore) SaveGame(ctx context.Context, s *game.Session) error {
	cp := *s
	m.mu.Lock()
	m.games[s.ID] = &cp
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) LoadGame(ctx context.Context, id string) (*game.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.games[id]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (m *MemoryStore) SaveResult(ctx context.Context, s *game.Session, cause game.Cause) error {
	m.mu.Lock()
	m.results[s.ID] = cause
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) AdjustPlayerStats(ctx context.Context, playerID string, d game.StatsDelta) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.playerLocked(playerID)
	p.Wins += d.Wins
	p.Losses += d.Losses
	p.Draws += d.Draws
	p.Coins += d.Coins
	if p.Coins < 0 {
		p.Coins = 0
	}
	return nil
}

func (m *MemoryStore) PlayerCoins(ctx context.Context, playerID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if p, ok := m.players[playerID]; ok {
		return p.Coins, nil
	}
	return 0, nil
}

// SeedPlayer sets a player's starting balance, mainly for tests.
func (m *MemoryStore) SeedPlayer(playerID string, coins int) {
	m.mu.Lock()
	m.playerLocked(playerID).Coins = coins
	m.mu.Unlock()
}

// Stats returns a copy of the player's record, zero-valued for unknown ids.
func (m *MemoryStore) Stats(playerID string) PlayerStats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if p, ok := m.players[playerID]; ok {
		return *p
	}
	return PlayerStats{}
}

// ResultCause returns the recorded cause for a finished game id, "" if none.
func (m *MemoryStore) ResultCause(id string) game.Cause {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.results[id]
}

// Forget drops the live mirror entry for id, simulating data loss in tests.
func (m *MemoryStore) Forget(id string) {
	m.mu.Lock()
	delete(m.games, id)
	m.mu.Unlock()
}

func (m *MemoryStore) playerLocked(playerID string) *PlayerStats {
	p, ok := m.players[playerID]
	if !ok {
		p = &PlayerStats{}
		m.players[playerID] = p
	}
	return p
}
