package personas

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistryHasBuiltinDefault(t *testing.T) {
	r := NewRegistry()

	p, ok := r.Get(DefaultName)
	require.True(t, ok)
	assert.True(t, p.Builtin)
	assert.NotEmpty(t, p.Soul)
}

func TestResolveFallsBackToDefault(t *testing.T) {
	r := NewRegistry()

	assert.Equal(t, DefaultName, r.Resolve("").Name)
	assert.Equal(t, DefaultName, r.Resolve("no-such-persona").Name)
}

func TestLoadDirectory(t *testing.T) {
	dir := t.TempDir()
	good := `name: pirate
display_name: Pirate
soul: Answer like a pirate.
temperature: 0.9
`
	bad := `display_name: nameless
soul: whatever
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pirate.yaml"), []byte(good), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.yaml"), []byte(bad), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

	r := NewRegistry()
	loaded, errs := r.Load(dir)

	assert.Equal(t, 1, loaded)
	assert.Len(t, errs, 1)

	p := r.Resolve("pirate")
	assert.Equal(t, "Pirate", p.DisplayName)
	assert.InDelta(t, 0.9, p.Temperature, 0.0001)
	assert.False(t, p.Builtin)
}

func TestLoadFileRejectsEmptySoul(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: empty\nsoul: \"  \"\n"), 0o644))

	_, err := LoadFile(path)
	assert.Error(t, err)
}

func TestListSorted(t *testing.T) {
	r := NewRegistry()
	r.Register(&Persona{Name: "zeta", Soul: "z"})
	r.Register(&Persona{Name: "alpha", Soul: "a"})

	list := r.List()
	require.Len(t, list, 3)
	assert.Equal(t, "alpha", list[0].Name)
	assert.Equal(t, DefaultName, list[1].Name)
	assert.Equal(t, "zeta", list[2].Name)
}
