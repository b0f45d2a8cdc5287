package domain

import (
	"errors"
	"testing"
)

func TestSentinelMessages(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{ErrNoCredentials, "No credentials found. Please login to Claude Code first."},
		{ErrNoAccountsSaved, "No accounts saved yet. Use 'claude-switch add <name>' to save your first account."},
		{ErrNoHomeDir, "Home directory not found"},
		{ErrNoBackup, "No backup found. A backup is taken on every 'claude-switch use'."},
	}
	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("got %q, want %q", got, tt.want)
		}
	}
}

func TestAccountErrorMessages(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{NewAccountError("work", ErrAccountNotFound), "Account 'work' not found"},
		{NewAccountError("work", ErrAccountExists), "Account 'work' already exists. Use --force to overwrite."},
		{NewAccountError("work", ErrCannotRemoveActive), "Cannot remove active account 'work'. Switch to another account first."},
		{NewAccountError("a", ErrInvalidAccountName), "Invalid account name 'a'. Use only letters, numbers, hyphens, and underscores (2-30 chars)."},
	}
	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("got %q, want %q", got, tt.want)
		}
	}
}

func TestAccountErrorUnwrap(t *testing.T) {
	err := NewAccountError("work", ErrAccountNotFound)
	if !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("expected errors.Is to match the sentinel")
	}
	var accErr *AccountError
	if !errors.As(err, &accErr) || accErr.Name != "work" {
		t.Fatalf("expected errors.As to expose the account name, got %v", accErr)
	}
}
