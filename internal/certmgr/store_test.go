package certmgr_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/stickerworks/stickerd/internal/certmgr"
	"github.com/stickerworks/stickerd/internal/testutils"
)

func newTestStore(t *testing.T) (*certmgr.Store, string, string) {
	t.Helper()
	dir := t.TempDir()
	keyPath := filepath.Join(dir, "certs", "key.pem")
	certPath := filepath.Join(dir, "certs", "cert.pem")
	return certmgr.NewStore(keyPath, certPath, zaptest.NewLogger(t)), keyPath, certPath
}

func TestStore_Paths(t *testing.T) {
	store, keyPath, certPath := newTestStore(t)

	gotKey, gotCert := store.Paths()
	assert.Equal(t, keyPath, gotKey)
	assert.Equal(t, certPath, gotCert)

	// Deterministic: repeated calls answer identically.
	againKey, againCert := store.Paths()
	assert.Equal(t, gotKey, againKey)
	assert.Equal(t, gotCert, againCert)
}

func TestStore_Exists_RequiresBothFiles(t *testing.T) {
	store, keyPath, certPath := newTestStore(t)
	assert.False(t, store.Exists(), "empty directory must read as missing")

	require.NoError(t, os.MkdirAll(filepath.Dir(keyPath), 0755))

	// A partial pair (interrupted write) must still read as missing.
	require.NoError(t, os.WriteFile(keyPath, []byte("key"), 0600))
	assert.False(t, store.Exists(), "key without cert must read as missing")

	require.NoError(t, os.WriteFile(certPath, []byte("cert"), 0644))
	assert.True(t, store.Exists())

	require.NoError(t, os.Remove(keyPath))
	assert.False(t, store.Exists(), "cert without key must read as missing")
}

func TestStore_Persist_CreatesDirAndRestrictsKey(t *testing.T) {
	store, keyPath, certPath := newTestStore(t)
	keyPEM, certPEM := testutils.SelfSignedPEM(t, "sticker.local", time.Now().Add(365*24*time.Hour), nil)

	require.NoError(t, store.Persist(keyPEM, certPEM))

	gotKey, err := os.ReadFile(keyPath)
	require.NoError(t, err)
	assert.Equal(t, keyPEM, gotKey)

	gotCert, err := os.ReadFile(certPath)
	require.NoError(t, err)
	assert.Equal(t, certPEM, gotCert)

	info, err := os.Stat(keyPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm(), "private key must be owner read/write only")
	assert.Zero(t, info.Mode().Perm()&0077, "private key must grant no group/other access")
}

func TestStore_Persist_TightensPreexistingKeyPermissions(t *testing.T) {
	store, keyPath, _ := newTestStore(t)
	keyPEM, certPEM := testutils.SelfSignedPEM(t, "sticker.local", time.Now().Add(365*24*time.Hour), nil)

	// Simulate an old key left behind with lax permissions; regeneration
	// must still end with 0600.
	require.NoError(t, os.MkdirAll(filepath.Dir(keyPath), 0755))
	require.NoError(t, os.WriteFile(keyPath, []byte("stale"), 0644))

	require.NoError(t, store.Persist(keyPEM, certPEM))

	info, err := os.Stat(keyPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}
