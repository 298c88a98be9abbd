package writeback

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteFile_ReplacesContent(t *testing.T) {
	fsys := memfs.New()
	require.NoError(t, util.WriteFile(fsys, "/cfg/app.toml", []byte("name = \"a\"\n"), 0o644))

	require.NoError(t, WriteFile(fsys, "/cfg/app.toml", []byte("name = \"b\"\n")))

	got, err := util.ReadFile(fsys, "/cfg/app.toml")
	require.NoError(t, err)
	assert.Equal(t, "name = \"b\"\n", string(got))
}

func TestWriteFile_CreatesDirectory(t *testing.T) {
	fsys := memfs.New()

	dir, missing := MissingDir(fsys, "/out/nested/app.toml")
	assert.True(t, missing)
	assert.Equal(t, "/out/nested", dir)

	require.NoError(t, WriteFile(fsys, "/out/nested/app.toml", []byte("x = 1\n")))

	got, err := util.ReadFile(fsys, "/out/nested/app.toml")
	require.NoError(t, err)
	assert.Equal(t, "x = 1\n", string(got))

	_, missing = MissingDir(fsys, "/out/nested/app.toml")
	assert.False(t, missing)
}

func TestWriteFile_LeavesNoTempFiles(t *testing.T) {
	fsys := memfs.New()
	require.NoError(t, WriteFile(fsys, "/cfg/app.toml", []byte("x = 1\n")))

	entries, err := fsys.ReadDir("/cfg")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "app.toml", entries[0].Name())
}

func TestWriteFile_PreservesPermissions(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.toml")
	require.NoError(t, os.WriteFile(path, []byte("x = 1\n"), 0o600))

	require.NoError(t, WriteFile(osfs.New("/"), path, []byte("x = 2\n")))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "x = 2\n", string(got))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}
