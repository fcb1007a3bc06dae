package commands

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsAuthorized(t *testing.T) {
	r := NewRunner([]string{"ls -la", "pwd", "git status"})

	assert.True(t, r.IsAuthorized("pwd"))
	assert.True(t, r.IsAuthorized("  pwd  "))
	assert.False(t, r.IsAuthorized("rm -rf /"))
	assert.False(t, r.IsAuthorized("pwd; rm -rf /"))
}

func TestRunRejectsUnauthorized(t *testing.T) {
	r := NewRunner([]string{"pwd"})

	_, err := r.Run(context.Background(), "whoami")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestRunCapturesOutput(t *testing.T) {
	r := NewRunner([]string{"pwd"})

	res, err := r.Run(context.Background(), "pwd")
	require.NoError(t, err)
	assert.Equal(t, "pwd", res.Command)
	assert.NotEmpty(t, res.Stdout)
}
