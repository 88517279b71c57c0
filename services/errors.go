package services

import "errors"

// Shared errors used across services and the HTTP mapping layer.
var (
	// Resource lookups
	ErrNotFound              = errors.New("requested resource not found")
	ErrMatchNotFound         = errors.New("match not found")
	ErrTeamNotFound          = errors.New("team not found")
	ErrNextMatchNotFound     = errors.New("next match reference is invalid")
	ErrReplaySessionNotFound = errors.New("replay session not found")

	// Validation and business rules
	ErrValidationFailed         = errors.New("validation failed")
	ErrExactlyEightTeams        = errors.New("exactly 8 teams are required to initialize the bracket")
	ErrWinnerNotParticipant     = errors.New("winner is not a participant in the match")
	ErrInvalidRoundStage        = errors.New("invalid round stage")
	ErrInvalidReplayAction      = errors.New("invalid replay control action")
	ErrEmptyReplayWindow        = errors.New("no events found in the specified time range")
	ErrShootoutWithoutDraw      = errors.New("invalid match state for penalty shootout")
	ErrThirdPlaceLosersRequired = errors.New("both semi-final losers are required to create third place match")

	// State conflicts
	ErrMatchNotCompleted      = errors.New("match is not completed yet")
	ErrMatchAlreadyCompleted  = errors.New("match already completed")
	ErrNextMatchCompleted     = errors.New("cannot advance into an already completed match")
	ErrSlotConflict           = errors.New("bracket slot already filled")
	ErrThirdPlaceExists       = errors.New("third place match already exists")
	ErrSimulationNotAllowed   = errors.New("match simulation not allowed")
	ErrSimulationInProgress   = errors.New("live simulation already running for this match")
	ErrStageTransitionInvalid = errors.New("cannot advance from current stage")
	ErrReplayPendingNoAdvance = errors.New("match requires a replay and has no winner to advance")

	// Bracket creation
	ErrBracketInit = errors.New("failed to initialize bracket")

	// Auth
	ErrAuthInvalidCredentials = errors.New("invalid email or password")
)
