package game

import "context"

// LiveStore mirrors active sessions to durable storage. The in-memory table
// owned by the Manager stays authoritative for gameplay; the mirror exists for
// recovery after a restart and for late cold lookups.
type LiveStore interface {
	SaveGame(ctx context.Context, s *Session) error
	// LoadGame returns (nil, nil) when the id is unknown.
	LoadGame(ctx context.Context, id string) (*Session, error)
}

// ResultStore records finished games and adjusts player win/loss/draw/coin
// counters. Implementations must floor coin balances at zero.
type ResultStore interface {
	SaveResult(ctx context.Context, s *Session, cause Cause) error
	AdjustPlayerStats(ctx context.Context, playerID string, delta StatsDelta) error
	// PlayerCoins returns the current coin balance, 0 for unknown players.
	PlayerCoins(ctx context.Context, playerID string) (int, error)
}
