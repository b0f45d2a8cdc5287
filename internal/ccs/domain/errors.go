package domain

import (
	"errors"
	"fmt"
)

// Exported error variables allow callers to use errors.Is() for error checking.
var (
	ErrNoCredentials      = errors.New("No credentials found. Please login to Claude Code first.")
	ErrAccountNotFound    = errors.New("account not found")
	ErrAccountExists      = errors.New("account already exists")
	ErrCannotRemoveActive = errors.New("cannot remove active account")
	ErrInvalidAccountName = errors.New("invalid account name")
	ErrNoAccountsSaved    = errors.New("No accounts saved yet. Use 'claude-switch add <name>' to save your first account.")
	ErrNoHomeDir          = errors.New("Home directory not found")
	ErrNoBackup           = errors.New("No backup found. A backup is taken on every 'claude-switch use'.")
)

// AccountError ties one of the account-scoped sentinel errors to the account name
// that triggered it.
type AccountError struct {
	Name string
	Err  error
}

// NewAccountError wraps err with the offending account name.
func NewAccountError(name string, err error) *AccountError {
	return &AccountError{Name: name, Err: err}
}

func (e *AccountError) Error() string {
	switch e.Err {
	case ErrAccountNotFound:
		return fmt.Sprintf("Account '%s' not found", e.Name)
	case ErrAccountExists:
		return fmt.Sprintf("Account '%s' already exists. Use --force to overwrite.", e.Name)
	case ErrCannotRemoveActive:
		return fmt.Sprintf("Cannot remove active account '%s'. Switch to another account first.", e.Name)
	case ErrInvalidAccountName:
		return fmt.Sprintf("Invalid account name '%s'. Use only letters, numbers, hyphens, and underscores (2-30 chars).", e.Name)
	default:
		return fmt.Sprintf("account '%s': %v", e.Name, e.Err)
	}
}

func (e *AccountError) Unwrap() error {
	return e.Err
}
