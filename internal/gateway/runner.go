package gateway

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"backuphub/internal/logging"

	"github.com/kballard/go-shellquote"
)

// Runner executes a program with discrete arguments and returns its stdout.
// Implementations must never pass the arguments through a shell.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExitError carries the diagnostic output of a failed command.
type ExitError struct {
	Err    error
	Stderr string
}

func (e *ExitError) Error() string {
	if e.Stderr == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%v: %s", e.Err, e.Stderr)
}

func (e *ExitError) Unwrap() error { return e.Err }

// waitDelay bounds how long Run waits for output after the process is killed.
const waitDelay = time.Second

// ExecRunner runs commands with os/exec.
type ExecRunner struct {
	// Timeout bounds each command. Zero means no limit.
	Timeout time.Duration
}

// Run implements Runner.
func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	// Children of a killed script may still hold the output pipes.
	cmd.WaitDelay = waitDelay

	// The quoted form is for the log only; the command itself never sees a shell.
	logging.Log.Debugf("Running command: %s", shellquote.Join(append([]string{name}, args...)...))

	start := time.Now()
	err := cmd.Run()
	logging.Log.Debugf("Command %s finished in %v", name, time.Since(start))
	if err != nil {
		return stdout.Bytes(), &ExitError{Err: err, Stderr: strings.TrimSpace(stderr.String())}
	}
	return stdout.Bytes(), nil
}
