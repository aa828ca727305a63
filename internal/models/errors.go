package models

import "errors"

// Sentinel errors shared across services. Handlers translate these into
// HTTP statuses with errors.Is; wrapped context stays in the message.
var (
	ErrInvalidAmount     = errors.New("amount must be positive")
	ErrInvalidInput      = errors.New("invalid input")
	ErrNotFound          = errors.New("not found")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrWalletLocked      = errors.New("wallet is locked")

	ErrAlreadyQueued = errors.New("already in matchmaking")
	ErrNotQueued     = errors.New("not in matchmaking")
	ErrUnknownStake  = errors.New("stake level not offered")

	ErrAlreadyStarted   = errors.New("game already started")
	ErrGameNotActive    = errors.New("game not in progress")
	ErrNotYourTurn      = errors.New("not your turn")
	ErrRollRequired     = errors.New("roll dice first")
	ErrMoveRequired     = errors.New("move a piece before rolling again")
	ErrNotParticipant   = errors.New("not a player in this game")
	ErrInvalidPiece     = errors.New("invalid piece index")
	ErrAlreadyCompleted = errors.New("game already completed")

	ErrDeviceConflict     = errors.New("account is bound to another device")
	ErrAccountDeactivated = errors.New("account is deactivated")
	ErrInvalidOTP         = errors.New("invalid or expired otp")

	ErrAlreadyProcessed = errors.New("already processed")
)
