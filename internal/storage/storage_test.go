package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

// exercise runs the common Storage contract against s
func exercise(t *testing.T, s Storage) {
	t.Helper()

	_, ok := s.Get("missing")
	assert.False(t, ok, "missing key should not exist")

	require.NoError(t, s.Set("lang", `"fr"`))
	v, ok := s.Get("lang")
	require.True(t, ok)
	assert.Equal(t, `"fr"`, v)

	require.NoError(t, s.Set("lang", `"en"`))
	v, _ = s.Get("lang")
	assert.Equal(t, `"en"`, v, "set should overwrite")

	require.NoError(t, s.Remove("lang"))
	_, ok = s.Get("lang")
	assert.False(t, ok)

	require.NoError(t, s.Remove("lang"), "removing a missing key is not an error")
}

func TestMemory(t *testing.T) {
	exercise(t, NewMemory())
}

func TestFile(t *testing.T) {
	exercise(t, mustOpenFile(t, t.TempDir()))
}

func TestFile_SurvivesReopen(t *testing.T) {
	dir := t.TempDir()

	f := mustOpenFile(t, dir)
	require.NoError(t, f.Set("access_token", "T1"))

	reopened := mustOpenFile(t, dir)
	v, ok := reopened.Get("access_token")
	require.True(t, ok)
	assert.Equal(t, "T1", v)
}

func TestFile_CorruptDocumentIsEmpty(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, fileName), []byte("{not json"), 0600))

	f := mustOpenFile(t, dir)
	_, ok := f.Get("anything")
	assert.False(t, ok)

	require.NoError(t, f.Set("theme", `"dark"`))
	v, _ := mustOpenFile(t, dir).Get("theme")
	assert.Equal(t, `"dark"`, v)
}

func TestKeyring(t *testing.T) {
	keyring.MockInit()
	exercise(t, NewKeyring("http://localhost:8000", zerolog.Nop()))
}

func TestKeyring_Namespaced(t *testing.T) {
	keyring.MockInit()
	a := NewKeyring("http://a", zerolog.Nop())
	b := NewKeyring("http://b", zerolog.Nop())

	require.NoError(t, a.Set("access_token", "A"))
	_, ok := b.Get("access_token")
	assert.False(t, ok)
}

func TestLayered(t *testing.T) {
	def := NewMemory()
	secure := NewMemory()
	l := NewLayered(def, secure, "access_token")

	exercise(t, l)

	require.NoError(t, l.Set("access_token", "T1"))
	require.NoError(t, l.Set("theme", `"dark"`))

	_, inDefault := def.Get("access_token")
	assert.False(t, inDefault)
	v, _ := secure.Get("access_token")
	assert.Equal(t, "T1", v)
	_, inSecure := secure.Get("theme")
	assert.False(t, inSecure)
}

func TestSQLite(t *testing.T) {
	db, err := OpenDatabase(filepath.Join(t.TempDir(), "web.sqlite"), zerolog.Nop())
	require.NoError(t, err)

	exercise(t, NewSQLite(db, "01HCLIENTA0000000000000000", zerolog.Nop()))
}

func TestSQLite_ScopedPerClient(t *testing.T) {
	db, err := OpenDatabase(filepath.Join(t.TempDir(), "web.sqlite"), zerolog.Nop())
	require.NoError(t, err)

	a := NewSQLite(db, "client-a", zerolog.Nop())
	b := NewSQLite(db, "client-b", zerolog.Nop())

	require.NoError(t, a.Set("access_token", "A"))
	require.NoError(t, b.Set("access_token", "B"))

	va, _ := a.Get("access_token")
	vb, _ := b.Get("access_token")
	assert.Equal(t, "A", va)
	assert.Equal(t, "B", vb)

	require.NoError(t, a.Remove("access_token"))
	_, ok := b.Get("access_token")
	assert.True(t, ok, "removing from one client must not affect another")
}

func mustOpenFile(t *testing.T, dir string) *File {
	t.Helper()
	f, err := OpenFile(dir)
	require.NoError(t, err)
	return f
}
