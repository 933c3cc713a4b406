//go:build !windows

package whatsapp

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecLauncher_OutputReadableAfterWait(t *testing.T) {
	l := &ExecLauncher{Args: []string{"sh", "-c", "echo 'Client is ready!'; echo disconnected 1>&2"}}

	p, err := l.Launch(context.Background())
	require.NoError(t, err)
	require.NoError(t, p.Wait())

	raw, err := io.ReadAll(p.Output())
	require.NoError(t, err)
	assert.Contains(t, string(raw), "Client is ready!\n")
	assert.Contains(t, string(raw), "disconnected\n")
	assert.False(t, p.Alive())
}

func TestExecLauncher_EmptyCommand(t *testing.T) {
	_, err := (&ExecLauncher{}).Launch(context.Background())
	assert.Error(t, err)
}
