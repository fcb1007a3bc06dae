// Package commands runs a fixed whitelist of shell commands on behalf of
// the diagnostics endpoint. Anything not on the list is rejected before it
// reaches a shell.
package commands

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"
	"time"

	"github.com/pibot-ai/pibot/pkg/logger"
)

var ErrUnauthorized = errors.New("command is not authorized")

const defaultTimeout = 15 * time.Second

// Result carries the captured output of a finished command.
type Result struct {
	Command string `json:"command"`
	Stdout  string `json:"output"`
	Stderr  string `json:"stderr,omitempty"`
}

// Runner executes whitelisted commands.
type Runner struct {
	authorized []string
	timeout    time.Duration
}

func NewRunner(authorized []string) *Runner {
	return &Runner{
		authorized: authorized,
		timeout:    defaultTimeout,
	}
}

// IsAuthorized reports whether the exact command string is on the whitelist.
func (r *Runner) IsAuthorized(command string) bool {
	trimmed := strings.TrimSpace(command)
	for _, a := range r.authorized {
		if trimmed == a {
			return true
		}
	}
	return false
}

// Authorized returns the whitelist.
func (r *Runner) Authorized() []string {
	return r.authorized
}

// Run executes an authorized command and captures its output. Unauthorized
// commands return ErrUnauthorized without spawning anything.
func (r *Runner) Run(ctx context.Context, command string) (Result, error) {
	if !r.IsAuthorized(command) {
		logger.WarnCF("commands", "Rejected unauthorized command", map[string]any{
			"command": command,
		})
		return Result{}, ErrUnauthorized
	}

	runCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, "sh", "-c", command)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := Result{
		Command: strings.TrimSpace(command),
		Stdout:  stdout.String(),
		Stderr:  stderr.String(),
	}
	if err != nil {
		return res, err
	}

	logger.DebugCF("commands", "Command finished", map[string]any{
		"command":      res.Command,
		"stdout_bytes": stdout.Len(),
	})
	return res, nil
}
