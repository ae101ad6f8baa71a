package service

import (
	"errors"
	"fmt"
)

// Error taxonomy. Specific errors wrap one of these roots.
var (
	ErrNotFound            = errors.New("not found")
	ErrConflict            = errors.New("conflict")
	ErrInvalidInput        = errors.New("invalid input")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrAlreadyProcessed    = errors.New("already processed")
	ErrUpstream            = errors.New("upstream failure")
	ErrUnauthorized        = errors.New("unauthorized")
)

var (
	ErrUserNotFound        = fmt.Errorf("user %w", ErrNotFound)
	ErrTournamentNotFound  = fmt.Errorf("tournament %w", ErrNotFound)
	ErrGameNotFound        = fmt.Errorf("game %w", ErrNotFound)
	ErrOrderNotFound       = fmt.Errorf("payment order %w", ErrNotFound)
	ErrWithdrawalNotFound  = fmt.Errorf("withdrawal %w", ErrNotFound)
	ErrHelpRequestNotFound = fmt.Errorf("help request %w", ErrNotFound)
	ErrMessageNotFound     = fmt.Errorf("admin message %w", ErrNotFound)

	ErrDuplicateUsername = fmt.Errorf("username already exists: %w", ErrConflict)
	ErrDuplicateGame     = fmt.Errorf("game already exists: %w", ErrConflict)
	ErrTournamentFull    = fmt.Errorf("tournament is full: %w", ErrConflict)

	ErrInvalidReferralCode = fmt.Errorf("invalid referral code: %w", ErrInvalidInput)
	ErrInvalidAmount       = fmt.Errorf("invalid amount: %w", ErrInvalidInput)
	ErrBelowMinimum        = fmt.Errorf("amount below minimum: %w", ErrInvalidInput)
	ErrPaymentNotCompleted = fmt.Errorf("payment not completed: %w", ErrInvalidInput)
	ErrInvalidStatus       = fmt.Errorf("invalid status transition: %w", ErrInvalidInput)

	ErrInvalidCredentials = fmt.Errorf("invalid credentials: %w", ErrUnauthorized)
	ErrInvalidToken       = fmt.Errorf("invalid token: %w", ErrUnauthorized)
	ErrInvalidSignature   = fmt.Errorf("invalid webhook signature: %w", ErrUnauthorized)
)

func upstream(err error) error {
	return fmt.Errorf("%w: %w", ErrUpstream, err)
}
