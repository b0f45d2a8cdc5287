package ccs

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/afero"

	"github.com/OpenGG/claude-switch/internal/ccs/backup"
	"github.com/OpenGG/claude-switch/internal/ccs/credentials"
	"github.com/OpenGG/claude-switch/internal/ccs/domain"
	"github.com/OpenGG/claude-switch/internal/ccs/metadata"
	"github.com/OpenGG/claude-switch/internal/ccs/paths"
	"github.com/OpenGG/claude-switch/internal/ccs/storage"
	"github.com/OpenGG/claude-switch/internal/ccs/validator"
)

// UnknownAccount is reported by Current when no account is recorded as active.
const UnknownAccount = "Unknown"

// Manager coordinates the account operations. Every call loads metadata fresh and
// saves it as its last write, so nothing is cached between invocations.
type Manager struct {
	fs        afero.Fs
	paths     *paths.PathBuilder
	storage   *storage.Storage
	validator *validator.Validator
	creds     *credentials.Store
	meta      *metadata.Store
	backup    *backup.Service
	logger    *slog.Logger
	now       func() time.Time
}

// NewManager creates a Manager rooted at homeDir. A nil logger discards output.
func NewManager(fs afero.Fs, homeDir string, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	pb := paths.New(homeDir)
	st := storage.New(fs)
	return &Manager{
		fs:        fs,
		paths:     pb,
		storage:   st,
		validator: validator.New(),
		creds:     credentials.NewStore(st, pb, logger),
		meta:      metadata.NewStore(st, pb, logger),
		backup:    backup.New(st, pb.BackupPath(), logger),
		logger:    logger,
		now:       time.Now,
	}
}

// SetNow allows overriding the clock for testing.
func (m *Manager) SetNow(now func() time.Time) {
	if now == nil {
		now = time.Now
	}
	m.now = now
	m.backup.SetNow(now)
}

// Now returns the manager's current time.
func (m *Manager) Now() time.Time {
	return m.now()
}

// FileSystem returns the underlying filesystem.
func (m *Manager) FileSystem() afero.Fs {
	return m.fs
}

// Paths returns the path layout the manager operates on.
func (m *Manager) Paths() *paths.PathBuilder {
	return m.paths
}

// ValidateAccountName checks name against the account naming rules.
func (m *Manager) ValidateAccountName(name string) error {
	_, err := m.validator.ValidateName(name)
	return err
}

// AccountNames returns the saved account names in order and the current account.
func (m *Manager) AccountNames() ([]string, string, error) {
	meta, err := m.meta.Load()
	if err != nil {
		return nil, "", err
	}
	return meta.Names(), meta.CurrentName(), nil
}

// AddOptions tunes Add.
type AddOptions struct {
	// Force overwrites an existing account of the same name.
	Force bool
	// Note is stored with the account. Empty keeps an existing note on overwrite.
	Note string
}

// AddResult describes a saved account.
type AddResult struct {
	Name             string
	SubscriptionType string
	Path             string
	Overwritten      bool
}

// Add saves the active credentials as account name and makes it current.
func (m *Manager) Add(name string, opts AddOptions) (*AddResult, error) {
	if err := m.ValidateAccountName(name); err != nil {
		return nil, err
	}

	creds, err := m.creds.LoadActive()
	if err != nil {
		return nil, err
	}

	meta, err := m.meta.Load()
	if err != nil {
		return nil, err
	}

	previous, exists := meta.Account(name)
	if exists && !opts.Force {
		return nil, domain.NewAccountError(name, domain.ErrAccountExists)
	}

	if err := m.meta.EnsureLayout(); err != nil {
		return nil, err
	}

	path := m.paths.AccountCredentialsPath(name)
	if err := m.creds.Save(path, creds); err != nil {
		return nil, err
	}

	now := m.now().UnixMilli()
	info := metadata.AccountInfo{
		AddedAt:          now,
		LastUsedAt:       now,
		SubscriptionType: creds.SubscriptionType(),
		TokenExpiresAt:   creds.ExpiresAt(),
	}
	switch {
	case opts.Note != "":
		note := opts.Note
		info.Notes = &note
	case exists:
		info.Notes = previous.Notes
	}

	meta.AddAccount(name, info)
	meta.SetCurrent(name)
	if err := m.meta.Save(meta); err != nil {
		return nil, err
	}

	m.logger.Debug("account saved", "account", name, "overwritten", exists)
	return &AddResult{
		Name:             name,
		SubscriptionType: creds.SubscriptionType(),
		Path:             path,
		Overwritten:      exists,
	}, nil
}

// UseResult describes the outcome of a switch.
type UseResult struct {
	Name string
	// AlreadyActive is set when name was already current and nothing changed.
	AlreadyActive bool
	// Status is the target token's status at switch time.
	Status credentials.TokenStatus
	// BackedUp is set when the displaced credentials were copied to the backup slot.
	BackedUp bool
}

// Use makes account name the active credentials. The displaced active file must
// be present and parse; it is copied to the backup slot first and metadata is
// written last.
func (m *Manager) Use(name string) (*UseResult, error) {
	meta, err := m.meta.Load()
	if err != nil {
		return nil, err
	}

	if !meta.AccountExists(name) {
		return nil, domain.NewAccountError(name, domain.ErrAccountNotFound)
	}

	if meta.IsCurrent(name) {
		return &UseResult{Name: name, AlreadyActive: true}, nil
	}

	target, err := m.creds.Load(m.paths.AccountCredentialsPath(name))
	if err != nil {
		return nil, fmt.Errorf("load credentials for account '%s': %w", name, err)
	}

	// The displaced login must parse before anything is overwritten
	if _, err := m.creds.LoadActive(); err != nil {
		return nil, err
	}
	activePath, err := m.activePath()
	if err != nil {
		return nil, err
	}

	now := m.now()
	status := target.Status(now)
	if status.IsExpired() {
		m.logger.Debug("switching to an account with an expired token", "account", name)
	}

	if err := m.meta.EnsureLayout(); err != nil {
		return nil, err
	}

	backedUpAt, err := m.backup.Snapshot(activePath)
	if err != nil {
		return nil, err
	}
	if !backedUpAt.IsZero() {
		meta.MarkBackup(backedUpAt.UnixMilli())
	}

	if err := m.creds.SaveActive(target); err != nil {
		return nil, err
	}

	meta.Touch(name, now.UnixMilli())
	meta.SetCurrent(name)
	if err := m.meta.Save(meta); err != nil {
		return nil, err
	}

	m.logger.Debug("switched account", "account", name, "backed_up", !backedUpAt.IsZero())
	return &UseResult{
		Name:     name,
		Status:   status,
		BackedUp: !backedUpAt.IsZero(),
	}, nil
}

// Remove deletes a saved account. The current account cannot be removed.
func (m *Manager) Remove(name string) error {
	meta, err := m.meta.Load()
	if err != nil {
		return err
	}

	if !meta.AccountExists(name) {
		return domain.NewAccountError(name, domain.ErrAccountNotFound)
	}
	if meta.IsCurrent(name) {
		return domain.NewAccountError(name, domain.ErrCannotRemoveActive)
	}

	path := m.paths.AccountCredentialsPath(name)
	removed, err := m.storage.RemoveIfExists(path)
	if err != nil {
		return fmt.Errorf("failed to remove credentials %s: %w", path, err)
	}
	if !removed {
		m.logger.Debug("account credentials already absent", "account", name, "path", path)
	}

	meta.RemoveAccount(name)
	return m.meta.Save(meta)
}

// Rename moves account oldName to newName, following the current pointer.
func (m *Manager) Rename(oldName, newName string) error {
	if err := m.ValidateAccountName(newName); err != nil {
		return err
	}

	meta, err := m.meta.Load()
	if err != nil {
		return err
	}

	if !meta.AccountExists(oldName) {
		return domain.NewAccountError(oldName, domain.ErrAccountNotFound)
	}
	// RenameAccount overwrites silently, so the collision check lives here
	if meta.AccountExists(newName) {
		return domain.NewAccountError(newName, domain.ErrAccountExists)
	}

	oldPath := m.paths.AccountCredentialsPath(oldName)
	newPath := m.paths.AccountCredentialsPath(newName)
	exists, err := m.storage.Exists(oldPath)
	if err != nil {
		return fmt.Errorf("failed to inspect %s: %w", oldPath, err)
	}
	if exists {
		if err := m.storage.Rename(oldPath, newPath); err != nil {
			return fmt.Errorf("failed to rename credentials: %w", err)
		}
	} else {
		m.logger.Debug("account credentials already absent", "account", oldName, "path", oldPath)
	}

	if err := meta.RenameAccount(oldName, newName); err != nil {
		return err
	}
	return m.meta.Save(meta)
}

// AccountEntry is one row of List.
type AccountEntry struct {
	Name    string
	Info    metadata.AccountInfo
	Status  credentials.TokenStatus
	Current bool
}

// List returns the saved accounts ordered by name. Token status comes from the
// expiry cached in metadata.
func (m *Manager) List() ([]AccountEntry, error) {
	meta, err := m.meta.Load()
	if err != nil {
		return nil, err
	}
	if !meta.HasAccounts() {
		return nil, domain.ErrNoAccountsSaved
	}

	now := m.now()
	names := meta.Names()
	entries := make([]AccountEntry, 0, len(names))
	for _, name := range names {
		info, _ := meta.Account(name)
		entries = append(entries, AccountEntry{
			Name:    name,
			Info:    info,
			Status:  credentials.StatusAt(info.TokenExpiresAt, now),
			Current: meta.IsCurrent(name),
		})
	}
	return entries, nil
}

// CurrentAccount describes the credentials Claude Code is using right now.
type CurrentAccount struct {
	// Name is the recorded current account, or UnknownAccount.
	Name string
	// Saved is false when no current account is recorded.
	Saved            bool
	SubscriptionType string
	RateLimitTier    string
	ExpiresAt        int64
	Status           credentials.TokenStatus
}

// Current reports the recorded current account alongside the subscription and
// token status read from the active credentials file itself.
func (m *Manager) Current() (*CurrentAccount, error) {
	creds, err := m.creds.LoadActive()
	if err != nil {
		return nil, err
	}
	meta, err := m.meta.Load()
	if err != nil {
		return nil, err
	}

	result := &CurrentAccount{
		Name:             UnknownAccount,
		SubscriptionType: creds.SubscriptionType(),
		RateLimitTier:    creds.ClaudeAiOauth.RateLimitTier,
		ExpiresAt:        creds.ExpiresAt(),
		Status:           creds.Status(m.now()),
	}
	if name := meta.CurrentName(); name != "" {
		result.Name = name
		result.Saved = true
	}
	return result, nil
}

// RestoreResult describes the credentials put back by Restore.
type RestoreResult struct {
	// Name is the saved account matching the restored credentials, or "".
	Name             string
	SubscriptionType string
	Status           credentials.TokenStatus
}

// Restore puts the backed-up credentials back in place, swapping the displaced
// active file into the backup slot. A backup that does not parse is rejected
// before the active file is touched. The current account is set to the saved
// account holding the same refresh token, or cleared when none does.
func (m *Manager) Restore() (*RestoreResult, error) {
	meta, err := m.meta.Load()
	if err != nil {
		return nil, err
	}

	restored, err := m.creds.Load(m.paths.BackupPath())
	if err != nil {
		if errors.Is(err, domain.ErrNoCredentials) {
			return nil, domain.ErrNoBackup
		}
		return nil, err
	}

	activePath, err := m.activePath()
	if err != nil {
		return nil, err
	}
	hadActive, err := m.storage.Exists(activePath)
	if err != nil {
		return nil, fmt.Errorf("failed to inspect %s: %w", activePath, err)
	}

	if err := m.backup.Restore(activePath); err != nil {
		return nil, err
	}
	if hadActive {
		meta.MarkBackup(m.now().UnixMilli())
	}

	match := m.matchAccount(meta, restored)
	meta.SetCurrent(match)
	if match != "" {
		meta.Touch(match, m.now().UnixMilli())
	}
	if err := m.meta.Save(meta); err != nil {
		return nil, err
	}

	return &RestoreResult{
		Name:             match,
		SubscriptionType: restored.SubscriptionType(),
		Status:           restored.Status(m.now()),
	}, nil
}

// activePath is the active credentials file with symlinks resolved, so a
// link managed elsewhere keeps pointing at its target after a write.
func (m *Manager) activePath() (string, error) {
	return m.storage.ResolveLink(m.paths.ActiveCredentialsPath())
}

func (m *Manager) matchAccount(meta *metadata.AccountsMetadata, creds *credentials.Credentials) string {
	token := creds.ClaudeAiOauth.RefreshToken
	if token == "" {
		return ""
	}
	for _, name := range meta.Names() {
		saved, err := m.creds.Load(m.paths.AccountCredentialsPath(name))
		if err != nil {
			if !errors.Is(err, domain.ErrNoCredentials) {
				m.logger.Warn("skipping unreadable account", "account", name, "error", err)
			}
			continue
		}
		if saved.ClaudeAiOauth.RefreshToken == token {
			return name
		}
	}
	return ""
}
