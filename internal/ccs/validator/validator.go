package validator

import (
	"unicode"
	"unicode/utf8"

	"github.com/OpenGG/claude-switch/internal/ccs/domain"
)

const (
	MinNameLength = 2
	MaxNameLength = 30
)

// Validator validates account names before they become file names.
type Validator struct{}

// New creates a new Validator instance.
func New() *Validator {
	return &Validator{}
}

// ValidateName accepts names of 2 to 30 characters made of letters, digits,
// hyphens, and underscores. Anything else could escape the credentials directory
// or collide with the dot-prefixed bookkeeping files.
//
// Returns (true, nil) if valid, or (false, *domain.AccountError) wrapping
// domain.ErrInvalidAccountName.
func (v *Validator) ValidateName(name string) (bool, error) {
	if !isValidName(name) {
		return false, domain.NewAccountError(name, domain.ErrInvalidAccountName)
	}
	return true, nil
}

func isValidName(name string) bool {
	n := utf8.RuneCountInString(name)
	if n < MinNameLength || n > MaxNameLength {
		return false
	}
	for _, r := range name {
		if r == utf8.RuneError {
			return false
		}
		if unicode.IsLetter(r) || unicode.IsNumber(r) || r == '-' || r == '_' {
			continue
		}
		return false
	}
	return true
}
