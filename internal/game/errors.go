package game

import "errors"

var (
	ErrRoundNotActive       = errors.New("no round in progress")
	ErrRoundInProgress      = errors.New("round in progress")
	ErrGuessOutOfRange      = errors.New("guess out of range")
	ErrUnknownDifficulty    = errors.New("unknown difficulty")
	ErrUnknownTheme         = errors.New("unknown theme")
	ErrInvalidVolume        = errors.New("invalid volume")
	ErrConfirmationRequired = errors.New("confirmation required")
	ErrUnknownEvent         = errors.New("unknown event")
)
