package filex

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEnsureSubDir(t *testing.T) {
	tmp := t.TempDir()
	oldWD, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(tmp))
	t.Cleanup(func() { _ = os.Chdir(oldWD) })

	dir, err := EnsureSubDir("data")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(tmp, "data"), dir)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	require.True(t, info.IsDir())

	// second call is idempotent
	again, err := EnsureSubDir("data")
	require.NoError(t, err)
	require.Equal(t, dir, again)
}
