package credentials

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/OpenGG/claude-switch/internal/ccs/domain"
	"github.com/OpenGG/claude-switch/internal/ccs/paths"
	"github.com/OpenGG/claude-switch/internal/ccs/storage"
)

// OAuth is the claudeAiOauth block Claude Code writes after login.
type OAuth struct {
	AccessToken      string   `json:"accessToken"`
	RefreshToken     string   `json:"refreshToken"`
	ExpiresAt        int64    `json:"expiresAt"`
	Scopes           []string `json:"scopes"`
	SubscriptionType string   `json:"subscriptionType"`
	RateLimitTier    string   `json:"rateLimitTier"`
}

// Credentials mirrors ~/.claude/.credentials.json. McpOAuth is carried through
// untouched; its shape belongs to Claude Code.
type Credentials struct {
	ClaudeAiOauth OAuth           `json:"claudeAiOauth"`
	McpOAuth      json.RawMessage `json:"mcpOAuth,omitempty"`
}

// SubscriptionType returns the plan reported by the OAuth block, e.g. "pro" or "max".
func (c *Credentials) SubscriptionType() string {
	return c.ClaudeAiOauth.SubscriptionType
}

// ExpiresAt returns the access token expiry in milliseconds since the epoch.
func (c *Credentials) ExpiresAt() int64 {
	return c.ClaudeAiOauth.ExpiresAt
}

// Status classifies the access token relative to now.
func (c *Credentials) Status(now time.Time) TokenStatus {
	return StatusAt(c.ExpiresAt(), now)
}

// Store reads and writes credential documents.
type Store struct {
	storage *storage.Storage
	paths   *paths.PathBuilder
	logger  *slog.Logger
}

// NewStore creates a Store. A nil logger discards output.
func NewStore(st *storage.Storage, pb *paths.PathBuilder, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Store{storage: st, paths: pb, logger: logger}
}

// Load parses the credentials document at path.
// It returns domain.ErrNoCredentials when the file does not exist.
func (s *Store) Load(path string) (*Credentials, error) {
	data, err := s.storage.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, domain.ErrNoCredentials
		}
		return nil, fmt.Errorf("failed to read credentials %s: %w", path, err)
	}

	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, fmt.Errorf("failed to parse credentials %s: %w", path, err)
	}
	return &creds, nil
}

// Save replaces the document at path with creds, readable by the owner only.
func (s *Store) Save(path string, creds *Credentials) error {
	data, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode credentials: %w", err)
	}
	if err := s.storage.WriteFileAtomic(path, data); err != nil {
		return fmt.Errorf("failed to write credentials %s: %w", path, err)
	}
	s.logger.Debug("credentials saved", "path", path)
	return nil
}

// LoadActive reads the credentials Claude Code is currently using.
func (s *Store) LoadActive() (*Credentials, error) {
	return s.Load(s.paths.ActiveCredentialsPath())
}

// SaveActive replaces the credentials Claude Code will use on its next start.
// When the active file is a symlink the write goes to the link target and the
// link itself is left in place.
func (s *Store) SaveActive(creds *Credentials) error {
	path, err := s.storage.ResolveLink(s.paths.ActiveCredentialsPath())
	if err != nil {
		return err
	}
	return s.Save(path, creds)
}
