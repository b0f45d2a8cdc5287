package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"

	"github.com/spf13/afero"
)

const (
	// PrivateFileMode is applied to every credentials and metadata file.
	PrivateFileMode os.FileMode = 0o600
	// PrivateDirMode is applied to the accounts tree on creation.
	PrivateDirMode os.FileMode = 0o700

	tempSuffix = ".tmp"

	// maxLinkHops bounds ResolveLink so a link cycle fails instead of looping.
	maxLinkHops = 40
)

// chmodSupported is false where permission bits don't map to owner-only access.
var chmodSupported = runtime.GOOS != "windows"

// Storage provides low-level file operations with security validations.
type Storage struct {
	fs afero.Fs
}

// New creates a new Storage instance.
func New(fs afero.Fs) *Storage {
	return &Storage{fs: fs}
}

// FileSystem returns the underlying filesystem.
func (s *Storage) FileSystem() afero.Fs {
	return s.fs
}

// ValidatePathSafety checks that the path is not a symlink, preventing symlink attacks.
// It returns nil if the path doesn't exist or is a regular file/directory.
func (s *Storage) ValidatePathSafety(path string) error {
	if lstater, ok := s.fs.(afero.Lstater); ok {
		info, _, err := lstater.LstatIfPossible(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil
			}
			return fmt.Errorf("failed to check path: %w", err)
		}

		if info.Mode()&os.ModeSymlink != 0 {
			return fmt.Errorf("refusing to operate on symlink: %s", path)
		}
	}
	// In-memory filesystems don't support symlinks
	return nil
}

// ResolveLink follows path through any chain of symlinks and returns the final
// target. A path that is not a link, or does not exist, is returned unchanged.
// Filesystems without symlink support return path as is.
func (s *Storage) ResolveLink(path string) (string, error) {
	lstater, ok := s.fs.(afero.Lstater)
	if !ok {
		return path, nil
	}
	reader, ok := s.fs.(afero.LinkReader)
	if !ok {
		return path, nil
	}

	current := path
	for i := 0; i < maxLinkHops; i++ {
		info, _, err := lstater.LstatIfPossible(current)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return current, nil
			}
			return "", fmt.Errorf("failed to check path: %w", err)
		}
		if info.Mode()&os.ModeSymlink == 0 {
			return current, nil
		}

		target, err := reader.ReadlinkIfPossible(current)
		if err != nil {
			return "", fmt.Errorf("read link %s: %w", current, err)
		}
		if !filepath.IsAbs(target) {
			target = filepath.Join(filepath.Dir(current), target)
		}
		current = target
	}
	return "", fmt.Errorf("too many levels of symbolic links: %s", path)
}

// WriteFileAtomic writes data to a sibling temp file and renames it over path,
// leaving the result readable by the owner only.
func (s *Storage) WriteFileAtomic(path string, data []byte) error {
	if err := s.ValidatePathSafety(path); err != nil {
		return fmt.Errorf("validate destination: %w", err)
	}

	tmp := path + tempSuffix
	if err := afero.WriteFile(s.fs, tmp, data, PrivateFileMode); err != nil {
		s.fs.Remove(tmp)
		return fmt.Errorf("write temp file: %w", err)
	}

	if err := s.fs.Rename(tmp, path); err != nil {
		s.fs.Remove(tmp)
		return fmt.Errorf("atomic rename: %w", err)
	}

	return s.Restrict(path, PrivateFileMode)
}

// CopyFile copies a file from src to dst, atomically replacing the destination.
func (s *Storage) CopyFile(src, dst string) (err error) {
	if err := s.ValidatePathSafety(src); err != nil {
		return fmt.Errorf("validate source: %w", err)
	}
	if err := s.ValidatePathSafety(dst); err != nil {
		return fmt.Errorf("validate destination: %w", err)
	}

	source, err := s.fs.Open(src)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer func() {
		if cerr := source.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close source: %w", cerr)
		}
	}()

	if err := s.fs.MkdirAll(filepath.Dir(dst), PrivateDirMode); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	// Temp file in the same directory keeps the rename atomic
	tmp := dst + tempSuffix
	dest, err := s.fs.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, PrivateFileMode)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	_, copyErr := io.Copy(dest, source)
	closeErr := dest.Close()

	if copyErr != nil || closeErr != nil {
		s.fs.Remove(tmp)
		if copyErr != nil {
			return fmt.Errorf("copy data: %w", copyErr)
		}
		return fmt.Errorf("close temp file: %w", closeErr)
	}

	if err := s.fs.Rename(tmp, dst); err != nil {
		s.fs.Remove(tmp)
		return fmt.Errorf("atomic rename: %w", err)
	}

	return s.Restrict(dst, PrivateFileMode)
}

// EnsurePrivateDirs creates leaf and its ancestors. When leaf did not exist yet,
// every directory in restrict is chmodded to PrivateDirMode. Existing trees are left alone.
func (s *Storage) EnsurePrivateDirs(leaf string, restrict ...string) error {
	exists, err := afero.DirExists(s.fs, leaf)
	if err != nil {
		return fmt.Errorf("inspect %s: %w", leaf, err)
	}
	if exists {
		return nil
	}
	if err := s.fs.MkdirAll(leaf, PrivateDirMode); err != nil {
		return fmt.Errorf("create directory %s: %w", leaf, err)
	}
	for _, dir := range restrict {
		if err := s.Restrict(dir, PrivateDirMode); err != nil {
			return err
		}
	}
	return nil
}

// Restrict sets mode on path. It is a no-op on platforms without Unix permissions.
func (s *Storage) Restrict(path string, mode os.FileMode) error {
	if !chmodSupported {
		return nil
	}
	if err := s.fs.Chmod(path, mode); err != nil {
		return fmt.Errorf("set permissions on %s: %w", path, err)
	}
	return nil
}

// ReadFile reads the entire file.
func (s *Storage) ReadFile(path string) ([]byte, error) {
	return afero.ReadFile(s.fs, path)
}

// Exists checks if a path exists.
func (s *Storage) Exists(path string) (bool, error) {
	return afero.Exists(s.fs, path)
}

// Stat returns file information.
func (s *Storage) Stat(path string) (os.FileInfo, error) {
	return s.fs.Stat(path)
}

// Rename moves oldpath to newpath, refusing to touch symlinks.
func (s *Storage) Rename(oldpath, newpath string) error {
	if err := s.ValidatePathSafety(oldpath); err != nil {
		return fmt.Errorf("validate source: %w", err)
	}
	if err := s.ValidatePathSafety(newpath); err != nil {
		return fmt.Errorf("validate destination: %w", err)
	}
	return s.fs.Rename(oldpath, newpath)
}

// RemoveIfExists deletes path and reports whether anything was removed.
// A missing file is not an error.
func (s *Storage) RemoveIfExists(path string) (bool, error) {
	if err := s.fs.Remove(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
