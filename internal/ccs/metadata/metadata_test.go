package metadata

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"runtime"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OpenGG/claude-switch/internal/ccs/domain"
	"github.com/OpenGG/claude-switch/internal/ccs/paths"
	"github.com/OpenGG/claude-switch/internal/ccs/storage"
)

func newTestStore(t *testing.T, logger *slog.Logger) (*Store, afero.Fs, *paths.PathBuilder) {
	t.Helper()
	fs := afero.NewMemMapFs()
	pb := paths.New("/home/test")
	return NewStore(storage.New(fs), pb, logger), fs, pb
}

func TestLoadDefaultsWhenMissing(t *testing.T) {
	store, _, _ := newTestStore(t, nil)

	meta, err := store.Load()
	require.NoError(t, err)

	assert.Equal(t, CurrentVersion, meta.Version)
	assert.Nil(t, meta.CurrentAccount)
	assert.Nil(t, meta.LastBackupAt)
	assert.NotNil(t, meta.Accounts)
	assert.False(t, meta.HasAccounts())
}

func TestLoadMalformed(t *testing.T) {
	store, fs, pb := newTestStore(t, nil)
	require.NoError(t, afero.WriteFile(fs, pb.MetadataPath(), []byte(`{"version": "one"`), 0o600))

	_, err := store.Load()
	require.Error(t, err)

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	assert.True(t, errors.As(err, &syntaxErr) || errors.As(err, &typeErr), "expected JSON error, got %v", err)
}

func TestLoadParsesDocument(t *testing.T) {
	store, fs, pb := newTestStore(t, nil)
	doc := `{
  "version": 1,
  "currentAccount": "work",
  "lastBackupAt": 1700000000500,
  "accounts": {
    "work": {"addedAt": 1, "lastUsedAt": 2, "subscriptionType": "max", "tokenExpiresAt": 3, "notes": "team seat"},
    "home": {"addedAt": 4, "lastUsedAt": 5, "subscriptionType": "pro", "tokenExpiresAt": 6}
  }
}`
	require.NoError(t, afero.WriteFile(fs, pb.MetadataPath(), []byte(doc), 0o600))

	meta, err := store.Load()
	require.NoError(t, err)

	assert.Equal(t, "work", meta.CurrentName())
	require.NotNil(t, meta.LastBackupAt)
	assert.Equal(t, int64(1700000000500), *meta.LastBackupAt)

	work, ok := meta.Account("work")
	require.True(t, ok)
	require.NotNil(t, work.Notes)
	assert.Equal(t, "team seat", *work.Notes)
	assert.Equal(t, "max", work.SubscriptionType)

	home, ok := meta.Account("home")
	require.True(t, ok)
	assert.Nil(t, home.Notes)
	assert.Equal(t, int64(6), home.TokenExpiresAt)
}

func TestLoadWarnsOnDanglingCurrent(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelWarn}))
	store, fs, pb := newTestStore(t, logger)
	require.NoError(t, afero.WriteFile(fs, pb.MetadataPath(), []byte(`{"version":1,"currentAccount":"ghost","accounts":{}}`), 0o600))

	meta, err := store.Load()
	require.NoError(t, err)

	// Advisory only: the pointer is kept as recorded
	assert.Equal(t, "ghost", meta.CurrentName())
	assert.Contains(t, logs.String(), "current account is not in the saved accounts")
	assert.Contains(t, logs.String(), "account=ghost")
}

func TestSaveRoundTripAndLayout(t *testing.T) {
	store, fs, pb := newTestStore(t, nil)

	meta := New()
	meta.AddAccount("work", AccountInfo{AddedAt: 10, LastUsedAt: 20, SubscriptionType: "pro", TokenExpiresAt: 30})
	meta.SetCurrent("work")
	meta.MarkBackup(40)
	require.NoError(t, store.Save(meta))

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, meta, loaded)

	exists, err := afero.DirExists(fs, pb.CredentialsDir())
	require.NoError(t, err)
	assert.True(t, exists, "Save should create the credentials directory")

	if runtime.GOOS != "windows" {
		info, err := fs.Stat(pb.MetadataPath())
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

		for _, dir := range []string{pb.AccountsDir(), pb.CredentialsDir()} {
			info, err := fs.Stat(dir)
			require.NoError(t, err)
			assert.Equal(t, os.FileMode(0o700), info.Mode().Perm(), dir)
		}
	}
}

func TestSaveOmitsAbsentOptionals(t *testing.T) {
	store, fs, pb := newTestStore(t, nil)

	meta := New()
	meta.AddAccount("home", AccountInfo{AddedAt: 1})
	require.NoError(t, store.Save(meta))

	data, err := afero.ReadFile(fs, pb.MetadataPath())
	require.NoError(t, err)

	var doc map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.NotContains(t, doc, "currentAccount")
	assert.NotContains(t, doc, "lastBackupAt")
	assert.NotContains(t, string(doc["accounts"]), "notes")
	assert.JSONEq(t, `1`, string(doc["version"]))
}

func TestAddAccountUpserts(t *testing.T) {
	meta := New()
	meta.AddAccount("work", AccountInfo{SubscriptionType: "pro"})
	meta.AddAccount("work", AccountInfo{SubscriptionType: "max"})

	assert.Len(t, meta.Accounts, 1)
	info, _ := meta.Account("work")
	assert.Equal(t, "max", info.SubscriptionType)
}

func TestRemoveAccountTolerant(t *testing.T) {
	meta := New()
	meta.AddAccount("work", AccountInfo{})

	meta.RemoveAccount("work")
	assert.False(t, meta.AccountExists("work"))

	assert.NotPanics(t, func() { meta.RemoveAccount("missing") })
}

func TestRenameAccount(t *testing.T) {
	meta := New()
	meta.AddAccount("old", AccountInfo{SubscriptionType: "pro", AddedAt: 7})
	meta.AddAccount("other", AccountInfo{})
	meta.SetCurrent("old")

	require.NoError(t, meta.RenameAccount("old", "new"))

	assert.False(t, meta.AccountExists("old"))
	info, ok := meta.Account("new")
	require.True(t, ok)
	assert.Equal(t, int64(7), info.AddedAt)
	assert.Equal(t, "new", meta.CurrentName())
}

func TestRenameAccountKeepsOtherCurrent(t *testing.T) {
	meta := New()
	meta.AddAccount("old", AccountInfo{})
	meta.AddAccount("other", AccountInfo{})
	meta.SetCurrent("other")

	require.NoError(t, meta.RenameAccount("old", "new"))
	assert.Equal(t, "other", meta.CurrentName())
}

func TestRenameAccountNotFound(t *testing.T) {
	meta := New()

	err := meta.RenameAccount("missing", "new")
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
	assert.EqualError(t, err, "Account 'missing' not found")
}

func TestNamesSorted(t *testing.T) {
	meta := New()
	for _, name := range []string{"zeta", "alpha", "Mid", "beta"} {
		meta.AddAccount(name, AccountInfo{})
	}
	assert.Equal(t, []string{"Mid", "alpha", "beta", "zeta"}, meta.Names())
}

func TestCurrentHelpers(t *testing.T) {
	meta := New()
	assert.Equal(t, "", meta.CurrentName())
	assert.False(t, meta.IsCurrent(""))

	meta.SetCurrent("work")
	assert.True(t, meta.IsCurrent("work"))

	meta.SetCurrent("")
	assert.Nil(t, meta.CurrentAccount)
}

func TestTouch(t *testing.T) {
	meta := New()
	meta.AddAccount("work", AccountInfo{LastUsedAt: 1})

	meta.Touch("work", 99)
	meta.Touch("missing", 99)

	info, _ := meta.Account("work")
	assert.Equal(t, int64(99), info.LastUsedAt)
	assert.False(t, meta.AccountExists("missing"))
}
