package credentials

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStatusAt(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	at := func(d time.Duration) int64 { return now.Add(d).UnixMilli() }

	tests := []struct {
		name      string
		expiresAt int64
		want      TokenStatus
	}{
		{"long past", at(-30 * 24 * time.Hour), TokenStatus{Kind: StatusExpired}},
		{"one millisecond ago", at(-time.Millisecond), TokenStatus{Kind: StatusExpired}},
		{"exactly now", at(0), TokenStatus{Kind: StatusExpired}},
		{"zero timestamp", 0, TokenStatus{Kind: StatusExpired}},
		{"thirty minutes left", at(30 * time.Minute), TokenStatus{Kind: StatusWarning, Hours: 0}},
		{"five hours left", at(5*time.Hour + 10*time.Minute), TokenStatus{Kind: StatusWarning, Hours: 5}},
		{"23h59m left", at(23*time.Hour + 59*time.Minute), TokenStatus{Kind: StatusWarning, Hours: 23}},
		{"exactly 24h left", at(24 * time.Hour), TokenStatus{Kind: StatusValid, Days: 1}},
		{"47h left", at(47 * time.Hour), TokenStatus{Kind: StatusValid, Days: 1}},
		{"48h left", at(48 * time.Hour), TokenStatus{Kind: StatusValid, Days: 2}},
		{"a year left", at(365 * 24 * time.Hour), TokenStatus{Kind: StatusValid, Days: 365}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusAt(tt.expiresAt, now))
		})
	}
}

func TestTokenStatusString(t *testing.T) {
	assert.Equal(t, "Valid (7 days)", TokenStatus{Kind: StatusValid, Days: 7}.String())
	assert.Equal(t, "3 hours", TokenStatus{Kind: StatusWarning, Hours: 3}.String())
	assert.Equal(t, "Expired", TokenStatus{Kind: StatusExpired}.String())
}

func TestTokenStatusIsExpired(t *testing.T) {
	assert.True(t, TokenStatus{Kind: StatusExpired}.IsExpired())
	assert.False(t, TokenStatus{Kind: StatusWarning}.IsExpired())
	assert.False(t, TokenStatus{Kind: StatusValid, Days: 2}.IsExpired())
}

func TestStatusKindString(t *testing.T) {
	assert.Equal(t, "valid", StatusValid.String())
	assert.Equal(t, "warning", StatusWarning.String())
	assert.Equal(t, "expired", StatusExpired.String())
}
