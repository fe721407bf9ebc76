// Package toolexec runs external analysis tools as subprocesses with hard
// wall-clock timeouts and classifies "tool absent" and "timed out" outcomes
// with reserved exit codes, so adapters never have to inspect raw exec errors.
package toolexec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Reserved exit codes. Real tools exit with small positive codes; these two
// follow the shell conventions for "command not found" and "timed out", and
// callers treat them as sentinels, not tool-reported failures.
const (
	ExitNotInstalled = 127
	ExitTimeout      = 124
)

// maxCapturedBytes caps each captured stream defensively. Tool output past
// the cap is dropped, not an error.
const maxCapturedBytes = 10 << 20

// Result is the outcome of one subprocess invocation.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// NotInstalled reports whether the executable could not be found.
func (r Result) NotInstalled() bool { return r.ExitCode == ExitNotInstalled }

// TimedOut reports whether the process was killed on timeout.
func (r Result) TimedOut() bool { return r.ExitCode == ExitTimeout }

// Runner executes external commands. The zero value is not usable; construct
// with New.
type Runner struct {
	logger *zap.Logger
}

// New creates a Runner.
func New(logger *zap.Logger) *Runner {
	return &Runner{logger: logger.Named("toolexec")}
}

// Run executes argv[0] with the remaining arguments in dir (empty means the
// process inherits the current directory), enforcing timeout as a hard wall
// clock limit.
//
// The executable missing yields ExitNotInstalled with an explanatory stderr;
// expiry yields ExitTimeout with stderr "timeout" and the process killed.
// Any other completion returns the process's real exit code and its streams
// verbatim. Run never returns an error for those collaborator-level outcomes.
func (r *Runner) Run(ctx context.Context, argv []string, dir string, timeout time.Duration) Result {
	return r.run(ctx, argv, dir, timeout, nil)
}

func (r *Runner) run(ctx context.Context, argv []string, dir string, timeout time.Duration, env []string) Result {
	if len(argv) == 0 {
		return Result{ExitCode: ExitNotInstalled, Stderr: "empty command"}
	}

	// Resolve up front so "not installed" never spawns anything.
	if _, err := exec.LookPath(argv[0]); err != nil {
		r.logger.Debug("executable not found", zap.String("binary", argv[0]))
		return Result{
			ExitCode: ExitNotInstalled,
			Stderr:   fmt.Sprintf("%s: not installed", argv[0]),
		}
	}

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, argv[0], argv[1:]...)
	cmd.Dir = dir
	cmd.Env = env
	// Guarantees Wait returns shortly after the kill even if the child holds
	// its pipes open through a grandchild.
	cmd.WaitDelay = 2 * time.Second

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &capWriter{buf: &stdout}
	cmd.Stderr = &capWriter{buf: &stderr}

	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start)

	if runCtx.Err() == context.DeadlineExceeded {
		r.logger.Warn("tool timed out",
			zap.String("binary", argv[0]),
			zap.Duration("timeout", timeout))
		return Result{ExitCode: ExitTimeout, Stderr: "timeout"}
	}

	exitCode := 0
	if err != nil {
		var exitErr *exec.ExitError
		switch {
		case errors.As(err, &exitErr):
			exitCode = exitErr.ExitCode()
		case errors.Is(err, exec.ErrNotFound):
			return Result{ExitCode: ExitNotInstalled, Stderr: fmt.Sprintf("%s: not installed", argv[0])}
		default:
			// Start failures (permissions, bad dir) are indistinguishable
			// from a broken install as far as the review is concerned.
			return Result{ExitCode: ExitNotInstalled, Stderr: err.Error()}
		}
	}

	r.logger.Debug("tool finished",
		zap.String("binary", argv[0]),
		zap.Int("exit_code", exitCode),
		zap.Duration("elapsed", elapsed))

	return Result{ExitCode: exitCode, Stdout: stdout.String(), Stderr: stderr.String()}
}

// RunOnSource writes source to a uniquely named temporary file, invokes the
// command produced by argv(path), and removes the file on every exit path.
// Each call owns its own file, so concurrent adapters cannot collide.
func (r *Runner) RunOnSource(ctx context.Context, source string, timeout time.Duration, argv func(path string) []string) Result {
	return r.RunOnSourceIn(ctx, source, "", timeout, argv)
}

// RunOnSourceIn is RunOnSource with an explicit working directory and a
// minimal child environment (PATH only). The runtime probe uses it to confine
// execution to a scratch directory, isolated from ambient configuration.
func (r *Runner) RunOnSourceIn(ctx context.Context, source, dir string, timeout time.Duration, argv func(path string) []string) Result {
	path := filepath.Join(os.TempDir(), "revu-"+uuid.NewString()+".py")
	if err := os.WriteFile(path, []byte(source), 0o600); err != nil {
		return Result{ExitCode: ExitNotInstalled, Stderr: fmt.Sprintf("write temp source: %v", err)}
	}
	defer os.Remove(path)

	env := []string{"PATH=" + os.Getenv("PATH")}
	return r.run(ctx, argv(path), dir, timeout, env)
}

// capWriter discards writes past maxCapturedBytes.
type capWriter struct {
	buf *bytes.Buffer
}

func (w *capWriter) Write(p []byte) (int, error) {
	n := len(p)
	if remaining := maxCapturedBytes - w.buf.Len(); remaining > 0 {
		if len(p) > remaining {
			p = p[:remaining]
		}
		w.buf.Write(p)
	}
	// Report full consumption so the child never sees a write error.
	return n, nil
}
