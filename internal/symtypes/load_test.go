package symtypes

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeSymFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDirectoryCollectsSymtypesOnly(t *testing.T) {
	dir := t.TempDir()
	writeSymFile(t, dir, "a.symtypes", "bar int bar ;\n")
	writeSymFile(t, dir, "nested/b.symtypes", "baz int baz ;\n")
	writeSymFile(t, dir, "ignore.txt", "not a symtypes file\n")

	c := NewCorpus()
	require.NoError(t, c.Load(dir, 2))

	require.Equal(t, 2, c.ExportCount())
}

func TestLoadMultipleIsDeterministicAcrossWorkerCounts(t *testing.T) {
	dir := t.TempDir()
	for i := 0; i < 20; i++ {
		writeSymFile(t, dir, filepath.Join("pkg", string(rune('a'+i))+".symtypes"),
			"bar"+string(rune('a'+i))+" int x ;\n")
	}

	c1 := NewCorpus()
	require.NoError(t, c1.Load(dir, 1))

	c8 := NewCorpus()
	require.NoError(t, c8.Load(dir, 8))

	require.Equal(t, c1.ExportCount(), c8.ExportCount())

	var sb1, sb8 strings.Builder
	require.NoError(t, c1.WriteConsolidatedBuffer("<out>", &sb1))
	require.NoError(t, c8.WriteConsolidatedBuffer("<out>", &sb8))
	require.Equal(t, sb1.String(), sb8.String())
}

func TestLoadFirstErrorWinsOnBadPath(t *testing.T) {
	c := NewCorpus()
	err := c.Load(filepath.Join(t.TempDir(), "does-not-exist"), 2)
	require.Error(t, err)
}
