package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"claimgrid/internal/game"
)

// PostgresResultStore records finished games and keeps the per-player
// win/loss/draw/coin counters the leaderboard and profile collaborators read.
type PostgresResultStore struct {
	db *sql.DB
}

func NewPostgresResultStore(databaseURL string) (*PostgresResultStore, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(16)
	db.SetMaxIdleConns(8)
	db.SetConnMaxLifetime(30 * time.Minute)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	return &PostgresResultStore{db: db}, nil
}

func (r *PostgresResultStore) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

// SaveResult upserts the final game record keyed by game id, so a retried
// finalize overwrites rather than duplicates.
func (r *PostgresResultStore) SaveResult(ctx context.Context, s *game.Session, cause game.Cause) error {
	if r == nil || r.db == nil || s == nil {
		return nil
	}
	gridRaw, err := json.Marshal(s.Grid)
	if err != nil {
		return fmt.Errorf("marshal grid: %w", err)
	}

	const q = `INSERT INTO games (
	    game_id,
	    player1_id, player1_name, player1_color,
	    player2_id, player2_name, player2_color,
	    winner, cause, grid,
	    started_at, finished_at
	  ) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10::jsonb,$11,$12)
	  ON CONFLICT (game_id) DO UPDATE SET
	    winner=EXCLUDED.winner,
	    cause=EXCLUDED.cause,
	    grid=EXCLUDED.grid,
	    finished_at=EXCLUDED.finished_at`

	_, err = r.db.ExecContext(ctx, q,
		s.ID,
		s.Player1.PlayerID, s.Player1.Name, string(s.Player1.Color),
		s.Player2.PlayerID, s.Player2.Name, string(s.Player2.Color),
		s.Winner, string(cause), gridRaw,
		s.CreatedAt, s.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("insert game result: %w", err)
	}
	return nil
}

// AdjustPlayerStats applies the counter deltas for one player. The coin
// balance floors at zero in SQL, never going negative.
func (r *PostgresResultStore) AdjustPlayerStats(ctx context.Context, playerID string, d game.StatsDelta) error {
	if r == nil || r.db == nil {
		return nil
	}
	const q = `UPDATE players SET
	    wins = wins + $2,
	    losses = losses + $3,
	    draws = draws + $4,
	    coins = GREATEST(coins + $5, 0),
	    updated_at = NOW()
	  WHERE player_id = $1`
	res, err := r.db.ExecContext(ctx, q, playerID, d.Wins, d.Losses, d.Draws, d.Coins)
	if err != nil {
		return fmt.Errorf("adjust player stats: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("adjust player stats: unknown player %s", playerID)
	}
	return nil
}

func (r *PostgresResultStore) PlayerCoins(ctx context.Context, playerID string) (int, error) {
	if r == nil || r.db == nil {
		return 0, nil
	}
	var coins int
	err := r.db.QueryRowContext(ctx, `SELECT coins FROM players WHERE player_id = $1`, playerID).Scan(&coins)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("select player coins: %w", err)
	}
	return coins, nil
}
