package game

// Validation errors are reported only to the requesting connection and never
// mutate session state.
var (
	ErrAlreadyActive   = errf("player already has an active game")
	ErrAlreadyQueued   = errf("connection is already waiting for a match")
	ErrGameNotActive   = errf("invalid or finished game")
	ErrNotAParticipant = errf("player is not part of this game")
	ErrNotYourTurn     = errf("not your turn")
	ErrOutOfBounds     = errf("cell is outside the board")
	ErrCellOccupied    = errf("cell already occupied")
	// ErrPersistence is returned when a finalize-time durable write fails;
	// mid-game write failures are logged and absorbed instead.
	ErrPersistence = errf("persistence failure")
)

type staticErr string

func (e staticErr) Error() string { return string(e) }

func errf(s string) error { return staticErr(s) }
