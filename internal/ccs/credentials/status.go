package credentials

import (
	"fmt"
	"time"
)

// StatusKind is the coarse health of an access token.
type StatusKind int

const (
	StatusValid StatusKind = iota
	StatusWarning
	StatusExpired
)

func (k StatusKind) String() string {
	switch k {
	case StatusValid:
		return "valid"
	case StatusWarning:
		return "warning"
	case StatusExpired:
		return "expired"
	default:
		return "unknown"
	}
}

// TokenStatus is derived from an expiry timestamp. Days is set for StatusValid,
// Hours for StatusWarning.
type TokenStatus struct {
	Kind  StatusKind
	Days  int64
	Hours int64
}

// StatusAt classifies expiresAt (milliseconds since the epoch) against now.
// Tokens with a day or more left are valid, tokens with less are a warning,
// and anything at or past expiry is expired.
func StatusAt(expiresAt int64, now time.Time) TokenStatus {
	remaining := expiresAt - now.UnixMilli()
	if remaining <= 0 {
		return TokenStatus{Kind: StatusExpired}
	}

	hours := remaining / time.Hour.Milliseconds()
	if hours < 24 {
		return TokenStatus{Kind: StatusWarning, Hours: hours}
	}
	return TokenStatus{Kind: StatusValid, Days: hours / 24}
}

// IsExpired reports whether the token can no longer be used.
func (s TokenStatus) IsExpired() bool {
	return s.Kind == StatusExpired
}

func (s TokenStatus) String() string {
	switch s.Kind {
	case StatusValid:
		return fmt.Sprintf("Valid (%d days)", s.Days)
	case StatusWarning:
		return fmt.Sprintf("%d hours", s.Hours)
	default:
		return "Expired"
	}
}
