package tokenstore

import (
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/legaltime/internal/errors"
)

const sample = "eyJhbGciOiJIUzI1NiJ9.eyJzdWIiOiJhQHguY29tIn0.sig"

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()

	_, ok, err := s.Load()
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Save(sample))
	got, ok, err := s.Load()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, sample, got)

	require.NoError(t, s.Clear())
	require.NoError(t, s.Clear())
	_, ok, _ = s.Load()
	assert.False(t, ok)
}

func TestFileStore_SaveLoadClear(t *testing.T) {
	home := t.TempDir()
	s := InHome(filepath.Join(home, "nested"), "")
	assert.False(t, s.Encrypted())

	_, ok, err := s.Load()
	require.NoError(t, err)
	assert.False(t, ok, "missing file means no token")

	require.NoError(t, s.Save(sample))

	got, ok, err := s.Load()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, sample, got)

	if runtime.GOOS != "windows" {
		info, err := os.Stat(s.Path())
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
	}

	data, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	var slots map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &slots))
	assert.Contains(t, slots, Key)

	require.NoError(t, s.Clear())
	_, err = os.Stat(s.Path())
	assert.True(t, os.IsNotExist(err))

	// Clearing again is a no-op.
	require.NoError(t, s.Clear())
}

func TestFileStore_ReplaceIsWholesale(t *testing.T) {
	s := NewFileStore(filepath.Join(t.TempDir(), FileName))
	require.NoError(t, s.Save("first"))
	require.NoError(t, s.Save("second"))

	got, _, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, "second", got)
}

func TestFileStore_Encrypted(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	s := NewEncryptedFileStore(path, "correct horse")
	assert.True(t, s.Encrypted())

	require.NoError(t, s.Save(sample))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.False(t, strings.Contains(string(data), sample), "token must not be written in clear text")

	got, ok, err := s.Load()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, sample, got)

	t.Run("wrong passphrase", func(t *testing.T) {
		_, ok, err := NewEncryptedFileStore(path, "battery staple").Load()
		require.Error(t, err)
		assert.False(t, ok)
		assert.True(t, errors.HasCode(err, errors.ErrCodeTokenStore))
	})

	t.Run("no passphrase", func(t *testing.T) {
		_, ok, err := NewFileStore(path).Load()
		require.Error(t, err)
		assert.False(t, ok)
		assert.True(t, errors.HasCode(err, errors.ErrCodeTokenStore))
	})
}

func TestFileStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))

	s := NewFileStore(path)
	_, ok, err := s.Load()
	require.Error(t, err)
	assert.False(t, ok)

	// Login still works over a corrupt file.
	require.NoError(t, s.Save(sample))
	got, ok, err := s.Load()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, sample, got)

	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))
	require.NoError(t, s.Clear())
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestSealOpen(t *testing.T) {
	salt, sealed, err := seal("pw", "secret")
	require.NoError(t, err)

	salt2, sealed2, err := seal("pw", "secret")
	require.NoError(t, err)
	assert.NotEqual(t, salt, salt2)
	assert.NotEqual(t, sealed, sealed2)

	plain, err := open("pw", salt, sealed)
	require.NoError(t, err)
	assert.Equal(t, "secret", plain)

	_, err = open("pw", salt, "AAAA")
	assert.Error(t, err)
}
