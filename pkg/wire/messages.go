// Package wire defines the JSON messages exchanged with game clients.
package wire

import "claimgrid/internal/board"

// Inbound event types.
const (
	TypeFindMatch   = "find_match"
	TypeCancelMatch = "cancel_match"
	TypeMakeMove    = "make_move"
	TypeForfeitGame = "forfeit_game"
)

// Outbound event types.
const (
	TypeWaiting   = "waiting_for_players"
	TypeGameStart = "start_game"
	TypeMoveMade  = "move_made"
	TypeGameEnd   = "game_end"
	TypeError     = "error"
)

// Inbound is the single envelope clients send; Type selects which fields are
// meaningful. Row and Col are pointers so a missing coordinate is
// distinguishable from 0.
type Inbound struct {
	Type        string `json:"type"`
	PlayerID    string `json:"playerId,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
	GameID      string `json:"gameId,omitempty"`
	Row         *int   `json:"row,omitempty"`
	Col         *int   `json:"col,omitempty"`
}

type Waiting struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

// Player is the client-facing view of a session slot. The connection id
// stays server-side.
type Player struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Color    string `json:"color"`
}

type GameStart struct {
	Type        string     `json:"type"`
	GameID      string     `json:"gameId"`
	Player1     Player     `json:"player1"`
	Player2     Player     `json:"player2"`
	CurrentTurn string     `json:"currentTurn"`
	Grid        board.Grid `json:"grid"`
	Status      string     `json:"status"`
}

type MoveMade struct {
	Type        string     `json:"type"`
	GameID      string     `json:"gameId"`
	Row         int        `json:"row"`
	Col         int        `json:"col"`
	Color       string     `json:"color"`
	CurrentTurn string     `json:"currentTurn"`
	Grid        board.Grid `json:"grid"`
}

type GameEnd struct {
	Type   string      `json:"type"`
	GameID string      `json:"gameId"`
	Status string      `json:"status"`
	Winner string      `json:"winner"`
	Grid   *board.Grid `json:"grid,omitempty"`
	Reason string      `json:"reason,omitempty"`
}

type Error struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}
