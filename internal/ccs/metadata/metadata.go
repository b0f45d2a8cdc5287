package metadata

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"

	"github.com/OpenGG/claude-switch/internal/ccs/domain"
	"github.com/OpenGG/claude-switch/internal/ccs/paths"
	"github.com/OpenGG/claude-switch/internal/ccs/storage"
)

// CurrentVersion is written into new metadata files. It is informational only.
const CurrentVersion uint32 = 1

// AccountInfo caches fields of a saved account's credentials for fast listing.
type AccountInfo struct {
	AddedAt          int64   `json:"addedAt"`
	LastUsedAt       int64   `json:"lastUsedAt"`
	SubscriptionType string  `json:"subscriptionType"`
	TokenExpiresAt   int64   `json:"tokenExpiresAt"`
	Notes            *string `json:"notes,omitempty"`
}

// AccountsMetadata is the on-disk index of saved accounts.
type AccountsMetadata struct {
	Version        uint32                 `json:"version"`
	CurrentAccount *string                `json:"currentAccount,omitempty"`
	LastBackupAt   *int64                 `json:"lastBackupAt,omitempty"`
	Accounts       map[string]AccountInfo `json:"accounts"`
}

// New returns an empty index.
func New() *AccountsMetadata {
	return &AccountsMetadata{
		Version:  CurrentVersion,
		Accounts: make(map[string]AccountInfo),
	}
}

// AccountExists reports whether name is saved.
func (m *AccountsMetadata) AccountExists(name string) bool {
	_, ok := m.Accounts[name]
	return ok
}

// Account returns the info saved under name.
func (m *AccountsMetadata) Account(name string) (AccountInfo, bool) {
	info, ok := m.Accounts[name]
	return info, ok
}

// AddAccount inserts or silently replaces the entry for name.
func (m *AccountsMetadata) AddAccount(name string, info AccountInfo) {
	if m.Accounts == nil {
		m.Accounts = make(map[string]AccountInfo)
	}
	m.Accounts[name] = info
}

// RemoveAccount deletes the entry for name if present.
func (m *AccountsMetadata) RemoveAccount(name string) {
	delete(m.Accounts, name)
}

// RenameAccount moves the entry for oldName to newName and follows the current
// account pointer. It does not check whether newName is taken; callers must.
func (m *AccountsMetadata) RenameAccount(oldName, newName string) error {
	info, ok := m.Accounts[oldName]
	if !ok {
		return domain.NewAccountError(oldName, domain.ErrAccountNotFound)
	}
	delete(m.Accounts, oldName)
	m.Accounts[newName] = info
	if m.IsCurrent(oldName) {
		m.SetCurrent(newName)
	}
	return nil
}

// Touch records a use of name at ts (milliseconds since the epoch).
func (m *AccountsMetadata) Touch(name string, ts int64) {
	if info, ok := m.Accounts[name]; ok {
		info.LastUsedAt = ts
		m.Accounts[name] = info
	}
}

// HasAccounts reports whether any account is saved.
func (m *AccountsMetadata) HasAccounts() bool {
	return len(m.Accounts) > 0
}

// Names returns the saved account names in lexicographic order.
func (m *AccountsMetadata) Names() []string {
	names := make([]string, 0, len(m.Accounts))
	for name := range m.Accounts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CurrentName returns the current account, or "" when none is recorded.
func (m *AccountsMetadata) CurrentName() string {
	if m.CurrentAccount == nil {
		return ""
	}
	return *m.CurrentAccount
}

// IsCurrent reports whether name is the recorded current account.
func (m *AccountsMetadata) IsCurrent(name string) bool {
	return m.CurrentAccount != nil && *m.CurrentAccount == name
}

// SetCurrent records name as the current account. An empty name clears it.
func (m *AccountsMetadata) SetCurrent(name string) {
	if name == "" {
		m.CurrentAccount = nil
		return
	}
	m.CurrentAccount = &name
}

// MarkBackup records when the active credentials were last backed up.
func (m *AccountsMetadata) MarkBackup(ts int64) {
	m.LastBackupAt = &ts
}

// Store loads and saves the metadata file.
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

// Load reads the metadata file, returning an empty index when it does not exist.
// A current account missing from the index is kept as recorded and logged.
func (s *Store) Load() (*AccountsMetadata, error) {
	path := s.paths.MetadataPath()
	data, err := s.storage.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return New(), nil
		}
		return nil, fmt.Errorf("failed to read metadata %s: %w", path, err)
	}

	meta := New()
	if err := json.Unmarshal(data, meta); err != nil {
		return nil, fmt.Errorf("failed to parse metadata %s: %w", path, err)
	}
	if meta.Accounts == nil {
		meta.Accounts = make(map[string]AccountInfo)
	}

	if current := meta.CurrentName(); current != "" && !meta.AccountExists(current) {
		s.logger.Warn("current account is not in the saved accounts",
			"account", current,
			"path", path)
	}
	return meta, nil
}

// Save writes meta, creating the accounts tree if needed.
func (s *Store) Save(meta *AccountsMetadata) error {
	if err := s.EnsureLayout(); err != nil {
		return err
	}
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode metadata: %w", err)
	}
	path := s.paths.MetadataPath()
	if err := s.storage.WriteFileAtomic(path, data); err != nil {
		return fmt.Errorf("failed to write metadata %s: %w", path, err)
	}
	s.logger.Debug("metadata saved", "path", path, "accounts", len(meta.Accounts))
	return nil
}

// EnsureLayout creates ~/.claude/accounts/credentials, restricting the accounts
// tree to the owner the first time it is created.
func (s *Store) EnsureLayout() error {
	if err := s.storage.EnsurePrivateDirs(s.paths.CredentialsDir(), s.paths.AccountsDir(), s.paths.CredentialsDir()); err != nil {
		return fmt.Errorf("failed to create accounts directory: %w", err)
	}
	return nil
}
