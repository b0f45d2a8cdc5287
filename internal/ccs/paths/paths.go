package paths

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/OpenGG/claude-switch/internal/ccs/domain"
)

// Directory and file name constants for Claude Code credentials
const (
	ClaudeDirName           = ".claude"
	CredentialsFileName     = ".credentials.json"
	AccountsDirName         = "accounts"
	AccountCredentialsDir   = "credentials"
	MetadataFileName        = ".accounts.meta.json"
	BackupFileName          = ".credentials.backup.json"
	accountCredentialSuffix = ".json"
)

// PathBuilder provides methods to construct Claude Code paths relative to a home directory.
type PathBuilder struct {
	homeDir string
}

// New creates a new PathBuilder for the given home directory.
func New(homeDir string) *PathBuilder {
	return &PathBuilder{homeDir: homeDir}
}

// ResolveHome returns override when set, otherwise the current user's home directory.
func ResolveHome(override string) (string, error) {
	if trimmed := strings.TrimSpace(override); trimmed != "" {
		return trimmed, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrNoHomeDir, err)
	}
	if home == "" {
		return "", domain.ErrNoHomeDir
	}
	return home, nil
}

// HomeDir returns the home directory the builder is rooted at.
func (p *PathBuilder) HomeDir() string {
	return p.homeDir
}

// ClaudeDir returns the .claude directory path.
func (p *PathBuilder) ClaudeDir() string {
	return filepath.Join(p.homeDir, ClaudeDirName)
}

// ActiveCredentialsPath returns the credentials file Claude Code reads on startup.
func (p *PathBuilder) ActiveCredentialsPath() string {
	return filepath.Join(p.ClaudeDir(), CredentialsFileName)
}

// AccountsDir returns the root of the saved accounts tree.
func (p *PathBuilder) AccountsDir() string {
	return filepath.Join(p.ClaudeDir(), AccountsDirName)
}

// CredentialsDir returns the directory holding one credentials file per account.
func (p *PathBuilder) CredentialsDir() string {
	return filepath.Join(p.AccountsDir(), AccountCredentialsDir)
}

// AccountCredentialsPath returns the credentials snapshot path for a named account.
func (p *PathBuilder) AccountCredentialsPath(name string) string {
	return filepath.Join(p.CredentialsDir(), name+accountCredentialSuffix)
}

// MetadataPath returns the accounts metadata file path.
func (p *PathBuilder) MetadataPath() string {
	return filepath.Join(p.AccountsDir(), MetadataFileName)
}

// BackupPath returns the single-slot backup of the last displaced active credentials.
func (p *PathBuilder) BackupPath() string {
	return filepath.Join(p.AccountsDir(), BackupFileName)
}
