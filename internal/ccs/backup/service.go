package backup

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/OpenGG/claude-switch/internal/ccs/domain"
	"github.com/OpenGG/claude-switch/internal/ccs/storage"
)

// Service keeps a single-slot rolling backup of the active credentials file.
type Service struct {
	storage    *storage.Storage
	backupPath string
	now        func() time.Time
	logger     *slog.Logger
}

// New creates a new backup Service writing to backupPath.
func New(storage *storage.Storage, backupPath string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{
		storage:    storage,
		backupPath: backupPath,
		now:        time.Now,
		logger:     logger,
	}
}

// SetNow allows overriding the clock for testing.
func (s *Service) SetNow(now func() time.Time) {
	if now == nil {
		s.now = time.Now
		return
	}
	s.now = now
}

// Fingerprint returns the SHA-256 of the file at path, or "" when it does not exist.
func (s *Service) Fingerprint(path string) (string, error) {
	if err := s.storage.ValidatePathSafety(path); err != nil {
		return "", fmt.Errorf("path validation failed: %w", err)
	}

	f, err := s.storage.FileSystem().Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("failed to open file for hashing: %w", err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("failed to hash file: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Snapshot copies the file at path over the backup slot, replacing any previous
// backup. The bytes are copied verbatim so a file Claude Code wrote in a newer
// format survives intact. It returns the snapshot time, or a zero time when path
// does not exist and nothing was backed up.
func (s *Service) Snapshot(path string) (time.Time, error) {
	hash, err := s.Fingerprint(path)
	if err != nil {
		return time.Time{}, err
	}
	if hash == "" {
		s.logger.Debug("nothing to back up", "path", path)
		return time.Time{}, nil
	}

	previous, err := s.Fingerprint(s.backupPath)
	if err != nil {
		return time.Time{}, err
	}

	if err := s.storage.CopyFile(path, s.backupPath); err != nil {
		return time.Time{}, fmt.Errorf("failed to create backup: %w", err)
	}

	now := s.now()
	if previous == hash {
		s.logger.Debug("backup unchanged, refreshed",
			"path", path,
			"hash", hash,
			"backup_path", s.backupPath)
	} else {
		s.logger.Info("backup created",
			"path", path,
			"hash", hash,
			"backup_path", s.backupPath)
	}
	return now, nil
}

// Restore writes the backup over dst. The file displaced from dst takes the
// backup slot, so calling Restore twice is a no-op.
func (s *Service) Restore(dst string) error {
	data, err := s.storage.ReadFile(s.backupPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return domain.ErrNoBackup
		}
		return fmt.Errorf("failed to read backup: %w", err)
	}

	if _, err := s.Snapshot(dst); err != nil {
		return err
	}

	if err := s.storage.WriteFileAtomic(dst, data); err != nil {
		return fmt.Errorf("failed to restore backup: %w", err)
	}

	s.logger.Info("backup restored", "path", dst, "backup_path", s.backupPath)
	return nil
}
