// Package gemini invokes the Gemini CLI to extract session facets in batches.
package gemini

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// Runner executes one external analysis call with the payload on standard
// input and returns raw standard output. The production runner spawns the
// Gemini CLI; tests substitute a stub so nothing is ever spawned.
type Runner func(ctx context.Context, payload string) ([]byte, error)

// CheckCLI verifies the analysis command is installed, failing fast with
// install guidance before any session is processed.
func CheckCLI(command string) error {
	if _, err := exec.LookPath(command); err != nil {
		return fmt.Errorf(`%s CLI not found in PATH

Install it with:
  npm install -g @google/gemini-cli
  # or
  brew install gemini-cli

Then authenticate by running: %s`, command, command)
	}
	return nil
}

// CLIRunner returns a Runner that invokes the Gemini CLI subprocess with a
// per-call timeout. Non-zero exit is reported with a stderr snippet; a
// timeout surfaces as context.DeadlineExceeded.
func CLIRunner(command, model string, timeout time.Duration) Runner {
	return func(ctx context.Context, payload string) ([]byte, error) {
		callCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		cmd := exec.CommandContext(callCtx, command, "-m", model, "-p", "", "-o", "json")
		cmd.Stdin = strings.NewReader(payload)

		var stdout, stderr bytes.Buffer
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr

		if err := cmd.Run(); err != nil {
			if callCtx.Err() != nil {
				return nil, fmt.Errorf("%s call timed out after %s: %w", command, timeout, callCtx.Err())
			}
			var exitErr *exec.ExitError
			if errors.As(err, &exitErr) {
				return nil, fmt.Errorf("%s exited with code %d: %s",
					command, exitErr.ExitCode(), stderrSnippet(stderr.String()))
			}
			return nil, fmt.Errorf("running %s: %w", command, err)
		}

		return stdout.Bytes(), nil
	}
}

// stderrSnippet bounds stderr output embedded in error messages.
func stderrSnippet(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(no stderr)"
	}
	if len(s) > 500 {
		s = s[:500]
	}
	return s
}
