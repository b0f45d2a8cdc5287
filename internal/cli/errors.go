package cli

import "errors"

// ErrPromptCancelled indicates that the user aborted an interactive prompt.
var ErrPromptCancelled = errors.New("prompt cancelled")

// ErrNameRequired is returned when an account name is needed but stdin is not
// a terminal to ask for one.
var ErrNameRequired = errors.New("account name required when not running in a terminal")
