package probe

import (
	"context"
	"errors"
	"runtime"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func shell(t *testing.T, script string, timeout time.Duration) Command {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires /bin/sh")
	}
	return Command{Path: "/bin/sh", Args: []string{"-c", script}, Timeout: timeout}
}

func TestRunReturnsStdout(t *testing.T) {
	r := New(zerolog.Nop())
	out, err := r.Run(context.Background(), shell(t, "printf hello; echo noise >&2", time.Second*5))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(out) != "hello" {
		t.Errorf("expected stdout %q, got %q", "hello", out)
	}
}

func TestRunNonZeroExit(t *testing.T) {
	r := New(zerolog.Nop())
	_, err := r.Run(context.Background(), shell(t, "echo broken >&2; exit 3", time.Second*5))
	if !errors.Is(err, ErrNonZeroExit) {
		t.Fatalf("expected ErrNonZeroExit, got %v", err)
	}

	var probeErr *Error
	if !errors.As(err, &probeErr) {
		t.Fatalf("expected *Error, got %T", err)
	}
	if probeErr.ExitCode != 3 {
		t.Errorf("expected exit code 3, got %d", probeErr.ExitCode)
	}
	if probeErr.Stderr != "broken" {
		t.Errorf("expected stderr %q, got %q", "broken", probeErr.Stderr)
	}
}

func TestRunEmptyOutput(t *testing.T) {
	r := New(zerolog.Nop())
	_, err := r.Run(context.Background(), shell(t, "exit 0", time.Second*5))
	if !errors.Is(err, ErrEmptyOutput) {
		t.Fatalf("expected ErrEmptyOutput, got %v", err)
	}
}

func TestRunLaunchFailed(t *testing.T) {
	r := New(zerolog.Nop())
	_, err := r.Run(context.Background(), Command{Path: "/nonexistent/inventory-tool", Timeout: time.Second})
	if !errors.Is(err, ErrLaunchFailed) {
		t.Fatalf("expected ErrLaunchFailed, got %v", err)
	}
}

func TestRunTimeoutKillsChild(t *testing.T) {
	r := New(zerolog.Nop())

	start := time.Now()
	_, err := r.Run(context.Background(), shell(t, "sleep 30", 200*time.Millisecond))
	elapsed := time.Since(start)

	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
	if elapsed > 5*time.Second {
		t.Errorf("timeout did not terminate the child promptly: took %v", elapsed)
	}
}

func TestRunFinishesBeforeTimeout(t *testing.T) {
	r := New(zerolog.Nop())
	out, err := r.Run(context.Background(), shell(t, "printf ok", 10*time.Second))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(out) != "ok" {
		t.Errorf("expected %q, got %q", "ok", out)
	}
}

func TestLookPath(t *testing.T) {
	r := New(zerolog.Nop())
	if _, err := r.LookPath("definitely-not-a-real-utility-xyz"); err == nil {
		t.Error("expected lookup of missing utility to fail")
	}
}
