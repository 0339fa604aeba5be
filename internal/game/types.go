package game

import (
	"time"

	"claimgrid/internal/board"
)

// TurnSlot identifies which seat of a session holds the turn.
type TurnSlot string

const (
	SlotPlayer1 TurnSlot = "player1"
	SlotPlayer2 TurnSlot = "player2"
)

// Other returns the opposing seat.
func (t TurnSlot) Other() TurnSlot {
	if t == SlotPlayer1 {
		return SlotPlayer2
	}
	return SlotPlayer1
}

// Status represents a session lifecycle state.
type Status string

const (
	StatusActive   Status = "active"
	StatusFinished Status = "finished"
)

// Cause names what ended a session.
type Cause string

const (
	CauseBoardFull  Cause = "board_full"
	CauseDisconnect Cause = "disconnect"
	CauseForfeit    Cause = "forfeit"
)

// WinnerDraw is stored in Session.Winner for a drawn game; otherwise Winner
// holds the winning player's id.
const WinnerDraw = "draw"

// Participant is one side of a pairing request, as handed over by matchmaking.
type Participant struct {
	PlayerID string `json:"playerId"`
	ConnID   string `json:"connId"`
	Name     string `json:"name"`
}

// PlayerSlot is a participant bound to a seat and a color inside a session.
type PlayerSlot struct {
	PlayerID string     `json:"id"`
	ConnID   string     `json:"connId"`
	Name     string     `json:"username"`
	Color    board.Cell `json:"color"`
}

// Session is the full state of one game between exactly two players.
type Session struct {
	ID         string     `json:"id"`
	Player1    PlayerSlot `json:"player1"`
	Player2    PlayerSlot `json:"player2"`
	Grid       board.Grid `json:"grid"`
	Turn       TurnSlot   `json:"currentTurn"`
	Status     Status     `json:"status"`
	Winner     string     `json:"winner,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
	FinishedAt time.Time  `json:"finishedAt,omitempty"`
}

// SeatOf resolves a player id to its seat, or "" when the player is not a
// participant of the session.
func (s *Session) SeatOf(playerID string) TurnSlot {
	switch playerID {
	case s.Player1.PlayerID:
		return SlotPlayer1
	case s.Player2.PlayerID:
		return SlotPlayer2
	}
	return ""
}

// Slot returns the slot occupying the given seat.
func (s *Session) Slot(seat TurnSlot) *PlayerSlot {
	if seat == SlotPlayer2 {
		return &s.Player2
	}
	return &s.Player1
}

// OpponentOf returns the slot opposing the given player id, or nil when the
// player is not a participant.
func (s *Session) OpponentOf(playerID string) *PlayerSlot {
	seat := s.SeatOf(playerID)
	if seat == "" {
		return nil
	}
	return s.Slot(seat.Other())
}

// HoldsConn reports whether either slot is bound to the given connection.
func (s *Session) HoldsConn(connID string) bool {
	return connID != "" && (s.Player1.ConnID == connID || s.Player2.ConnID == connID)
}

func (s *Session) clone() *Session {
	cp := *s
	return &cp
}

// MoveOutcome is the result of a successfully applied move.
type MoveOutcome struct {
	Session *Session
	Row     int
	Col     int
	Color   board.Cell
	// Finished is true when this move filled the board; the session snapshot
	// then already carries the finalized winner and status.
	Finished bool
}

// StatsDelta is the per-player record adjustment applied at finalization.
// Coins may be negative; stores floor the resulting balance at zero.
type StatsDelta struct {
	Wins   int
	Losses int
	Draws  int
	Coins  int
}
