package tokenstore

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vigilclub/vigil/pkg/domain"
)

func TestMemoryRoundTrip(t *testing.T) {
	s := New(NewMemoryBackend(), nil)

	assert.True(t, s.Load().Empty())

	s.Save(domain.Tokens{Access: "a", Refresh: "r"})
	assert.Equal(t, domain.Tokens{Access: "a", Refresh: "r"}, s.Load())

	s.Clear()
	assert.Equal(t, domain.Tokens{}, s.Load())
	assert.False(t, s.Degraded())
}

func TestFilePersistsAcrossInstances(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vigil", "credentials.json")

	New(NewFileBackend(path), nil).Save(domain.Tokens{Access: "a", Refresh: "r"})

	reopened := New(NewFileBackend(path), nil)
	assert.Equal(t, domain.Tokens{Access: "a", Refresh: "r"}, reopened.Load())

	if runtime.GOOS != "windows" {
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
	}

	reopened.Clear()
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err), "credentials file should be removed once empty")
}

func TestFileBackendKeepsOtherKeys(t *testing.T) {
	b := NewFileBackend(filepath.Join(t.TempDir(), "kv.json"))
	require.NoError(t, b.Set("theme", "ops"))
	require.NoError(t, b.Set(AccessKey, "a"))
	require.NoError(t, b.Remove(AccessKey))

	v, ok, err := b.Get("theme")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "ops", v)

	_, ok, err = b.Get(AccessKey)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDegradesToMemoryWhenUnwritable(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))

	// The parent "directory" is a regular file, so MkdirAll fails.
	s := New(NewFileBackend(filepath.Join(blocker, "credentials.json")), nil)
	s.Save(domain.Tokens{Access: "a", Refresh: "r"})

	assert.True(t, s.Degraded())
	assert.Equal(t, domain.Tokens{Access: "a", Refresh: "r"}, s.Load())

	s.Clear()
	assert.True(t, s.Load().Empty())
}

func TestCorruptFileLoadsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	s := New(NewFileBackend(path), nil)
	assert.True(t, s.Load().Empty())
	assert.False(t, s.Degraded(), "corrupt data is cleared, not a storage failure")

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err), "corrupt credentials file should be removed")
}

func TestLoginAfterCorruptFilePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	s := New(NewFileBackend(path), nil)
	require.True(t, s.Load().Empty())
	s.Save(domain.Tokens{Access: "a", Refresh: "r"})

	next := New(NewFileBackend(path), nil)
	assert.Equal(t, domain.Tokens{Access: "a", Refresh: "r"}, next.Load())
	assert.False(t, next.Degraded())
}

func TestFileBackendReplacesCorruptData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kv.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))
	b := NewFileBackend(path)

	_, _, err := b.Get(AccessKey)
	assert.ErrorIs(t, err, ErrCorrupt)

	require.NoError(t, b.Set(AccessKey, "a"))
	v, ok, err := b.Get(AccessKey)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "a", v)
}
