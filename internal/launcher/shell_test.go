package launcher_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/outpipe/outpipe/internal/launcher"
)

func TestDetectShellPrefersEnv(t *testing.T) {
	t.Setenv("SHELL", "/bin/sh")
	shell, err := launcher.DetectShell()
	require.NoError(t, err)
	require.Equal(t, "/bin/sh", shell)
}

func TestDetectShellFallsBack(t *testing.T) {
	t.Setenv("SHELL", "/nonexistent/shell")
	shell, err := launcher.DetectShell()
	require.NoError(t, err)
	require.NotEqual(t, "/nonexistent/shell", shell)

	info, err := os.Stat(shell)
	require.NoError(t, err)
	require.NotZero(t, info.Mode()&0111)
}
