// Package state holds the authoritative mutable snapshot of a Wormhole Warp
// match. There is exactly one logical writer per Game (the turn controller);
// every mutator is a defensive no-op when its guard fails, never a panic.
package state

// Status is the match lifecycle stage.
type Status int

const (
	// StatusSetup is the pre-game stage before players exist.
	StatusSetup Status = iota
	// StatusCollectingInitials is the stage where players enter initials.
	StatusCollectingInitials
	// StatusPlaying is the active match stage.
	StatusPlaying
	// StatusFinished is the terminal stage with a recorded winner.
	StatusFinished
)

// String returns a human-readable status label.
func (s Status) String() string {
	switch s {
	case StatusSetup:
		return "setup"
	case StatusCollectingInitials:
		return "collecting_initials"
	case StatusPlaying:
		return "playing"
	case StatusFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// Phase is the named step of the turn state machine.
type Phase int

const (
	// PhaseIdle means no turn is in flight; Roll is accepted.
	PhaseIdle Phase = iota
	// PhaseRolling means the dice roll delay is running.
	PhaseRolling
	// PhaseMoving means a token move is awaiting its completion signal.
	PhaseMoving
	// PhaseAwaitingConfirm means a pending event blocks turn advance.
	PhaseAwaitingConfirm
	// PhaseTurnEnding means the settle delay before NextTurn is running.
	PhaseTurnEnding
)

// String returns a human-readable phase label.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseRolling:
		return "rolling"
	case PhaseMoving:
		return "moving"
	case PhaseAwaitingConfirm:
		return "awaiting_confirm"
	case PhaseTurnEnding:
		return "turn_ending"
	default:
		return "unknown"
	}
}

// Color is a token color from the fixed palette. Seat N always gets
// Palette()[N].
type Color int

const (
	ColorCrimson Color = iota
	ColorAzure
	ColorEmerald
	ColorAmber
)

// Palette returns the fixed seat-ordered color palette.
func Palette() [4]Color {
	return [4]Color{ColorCrimson, ColorAzure, ColorEmerald, ColorAmber}
}

// String returns the color name.
func (c Color) String() string {
	switch c {
	case ColorCrimson:
		return "crimson"
	case ColorAzure:
		return "azure"
	case ColorEmerald:
		return "emerald"
	case ColorAmber:
		return "amber"
	default:
		return "unknown"
	}
}

// Player is one token on the board.
type Player struct {
	// ID is the seat index, stable for the life of the match.
	ID int
	// Color is the token color from the fixed palette.
	Color Color
	// Initials is the display tag entered at setup (may be empty).
	Initials string
	// Position is the current tile in [1,100].
	Position int
	// IsMoving is true only between a move initiation and its
	// animation-completion signal.
	IsMoving bool
}

// PendingCollision describes a staged collision resolution: the incoming
// mover holds the tile and the previous occupant is bounced back.
type PendingCollision struct {
	WinnerID  int
	LoserID   int
	Tile      int
	LoserDest int
}

// PendingChallenge describes an in-progress math challenge.
type PendingChallenge struct {
	PlayerID       int
	Prompt         string
	Answer         int
	TicksRemaining int
}

// Camera holds advisory view hints consumed by the rendering layer. They are
// not authoritative game state.
type Camera struct {
	// AtDefault reports whether the view is at default zoom/pan.
	AtDefault bool
	// FollowActive requests the camera track the active token.
	FollowActive bool
	// ResetRequested asks the renderer to return to the default view; the
	// renderer acknowledges once done.
	ResetRequested bool
}
