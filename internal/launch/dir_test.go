package launch

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveDir(t *testing.T) {
	t.Run("empty stays empty", func(t *testing.T) {
		dir, err := ResolveDir("")
		require.NoError(t, err)
		assert.Empty(t, dir)
	})

	t.Run("existing directory", func(t *testing.T) {
		tmp := t.TempDir()
		want, err := filepath.EvalSymlinks(tmp)
		require.NoError(t, err)

		dir, err := ResolveDir(tmp + "/.")
		require.NoError(t, err)
		assert.Equal(t, want, dir)
		assert.True(t, filepath.IsAbs(dir))
	})

	t.Run("resolves symlinks", func(t *testing.T) {
		tmp := t.TempDir()
		target := filepath.Join(tmp, "games")
		require.NoError(t, os.Mkdir(target, 0755))
		link := filepath.Join(tmp, "link")
		if err := os.Symlink(target, link); err != nil {
			t.Skipf("symlinks unavailable: %v", err)
		}
		want, err := filepath.EvalSymlinks(target)
		require.NoError(t, err)

		dir, err := ResolveDir(link)
		require.NoError(t, err)
		assert.Equal(t, want, dir)
	})

	t.Run("missing directory", func(t *testing.T) {
		_, err := ResolveDir(filepath.Join(t.TempDir(), "missing"))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("file is not a directory", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "dprun.exe")
		require.NoError(t, os.WriteFile(file, nil, 0644))

		_, err := ResolveDir(file)
		assert.ErrorIs(t, err, ErrNotDirectory)
	})
}

func TestHasExecutable(t *testing.T) {
	tmp := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmp, "dprun.exe"), nil, 0755))
	require.NoError(t, os.Mkdir(filepath.Join(tmp, "sub.exe"), 0755))

	assert.True(t, HasExecutable(tmp, "dprun.exe"))
	assert.False(t, HasExecutable(tmp, "other.exe"))
	assert.False(t, HasExecutable(tmp, "sub.exe"))
	assert.True(t, HasExecutable(tmp, "/opt/dprun/dprun.exe"))
}
