package probe

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

var (
	ErrTimeout      = errors.New("timed out")
	ErrNonZeroExit  = errors.New("non-zero exit")
	ErrEmptyOutput  = errors.New("empty output")
	ErrLaunchFailed = errors.New("launch failed")
)

// Error describes a failed probe. It unwraps to one of the Err* kinds.
type Error struct {
	Kind     error
	Command  string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *Error) Error() string {
	switch e.Kind {
	case ErrNonZeroExit:
		return fmt.Sprintf("%s: exit status %d: %s", e.Command, e.ExitCode, e.Stderr)
	case ErrLaunchFailed:
		return fmt.Sprintf("%s: %v: %v", e.Command, e.Kind, e.Err)
	default:
		return fmt.Sprintf("%s: %v", e.Command, e.Kind)
	}
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Command is an external inventory command with its bound
type Command struct {
	Path    string
	Args    []string
	Timeout time.Duration // zero means no bound beyond ctx
}

func (c Command) String() string {
	return strings.TrimSpace(c.Path + " " + strings.Join(c.Args, " "))
}

// Runner executes inventory commands
type Runner interface {
	Run(ctx context.Context, cmd Command) ([]byte, error)
	LookPath(name string) (string, error)
}

type execRunner struct {
	log zerolog.Logger
}

// New creates a Runner backed by os/exec
func New(log zerolog.Logger) Runner {
	return &execRunner{log: log}
}

// Run starts the command, waits for it and returns its stdout. When the
// timeout expires the child and its process group are killed. A child that
// exits 0 keeps its output even if the deadline passes while Run is still
// collecting it. No process of the group outlives Run.
func (r *execRunner) Run(ctx context.Context, c Command) ([]byte, error) {
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		// Stops the watcher once Wait returns on its own
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, c.Path, c.Args...)
	setProcessGroup(cmd)
	cmd.Cancel = func() error {
		return killProcessGroup(cmd)
	}
	// Grandchildren can keep the pipes open after the kill
	cmd.WaitDelay = time.Second

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return nil, &Error{Kind: ErrLaunchFailed, Command: c.String(), ExitCode: -1, Err: err}
	}

	err := cmd.Wait()
	if killErr := reapGroup(cmd); killErr != nil {
		r.log.Warn().Err(killErr).Str("command", c.String()).Msg("Failed to kill leftover probe helpers")
	}
	r.log.Debug().
		Str("command", c.String()).
		Dur("elapsed", time.Since(start)).
		Int("stdout_bytes", stdout.Len()).
		Msg("Probe finished")

	// The child exited 0 but a helper held its pipes past WaitDelay. The
	// helper is gone now and what the child wrote is complete.
	if errors.Is(err, exec.ErrWaitDelay) {
		err = nil
	}

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			if errors.Is(ctxErr, context.DeadlineExceeded) {
				return nil, &Error{Kind: ErrTimeout, Command: c.String(), ExitCode: -1, Err: ctxErr}
			}
			return nil, &Error{Kind: ErrLaunchFailed, Command: c.String(), ExitCode: -1, Err: ctxErr}
		}

		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, &Error{
				Kind:     ErrNonZeroExit,
				Command:  c.String(),
				ExitCode: exitErr.ExitCode(),
				Stderr:   strings.TrimSpace(stderr.String()),
			}
		}
		return nil, &Error{Kind: ErrLaunchFailed, Command: c.String(), ExitCode: -1, Err: err}
	}

	if stdout.Len() == 0 {
		return nil, &Error{Kind: ErrEmptyOutput, Command: c.String()}
	}

	return stdout.Bytes(), nil
}

// LookPath reports where name lives on PATH
func (r *execRunner) LookPath(name string) (string, error) {
	return exec.LookPath(name)
}
