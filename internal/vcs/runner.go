package vcs

import (
	"context"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Default per-call timeouts, matching the latency profile of each command
// class. A hook must never hang the editor's tool pipeline, so every
// subprocess gets a deadline.
const (
	probeTimeout  = 5 * time.Second
	statusTimeout = 10 * time.Second
	mutateTimeout = 30 * time.Second
)

// Runner executes one backend subprocess and captures its stdout. The
// production implementation shells out; tests substitute a fake.
type Runner interface {
	Run(ctx context.Context, dir, name string, args ...string) (string, error)
}

// ExecRunner runs commands through os/exec with the working directory
// pinned to the repository.
type ExecRunner struct {
	log *zap.Logger
}

// NewExecRunner returns a Runner that logs every invocation at debug level.
func NewExecRunner(log *zap.Logger) *ExecRunner {
	if log == nil {
		log = zap.NewNop()
	}
	return &ExecRunner{log: log}
}

func (r *ExecRunner) Run(ctx context.Context, dir, name string, args ...string) (string, error) {
	r.log.Debug("exec",
		zap.String("cmd", name),
		zap.Strings("args", args),
		zap.String("dir", dir))

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir

	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		// ProcessState is nil when the binary never started.
		exitCode := -1
		if cmd.ProcessState != nil {
			exitCode = cmd.ProcessState.ExitCode()
		}
		cmdErr := &CommandError{
			Cmd:      name + " " + strings.Join(args, " "),
			Stderr:   strings.TrimSpace(stderr.String()),
			ExitCode: exitCode,
			Err:      err,
		}
		if ctx.Err() != nil {
			cmdErr.Err = ctx.Err()
		}
		return "", cmdErr
	}
	return stdout.String(), nil
}

// run applies a timeout and trims the captured stdout. Shared by both
// backends for every subprocess round-trip.
func run(ctx context.Context, r Runner, dir string, timeout time.Duration, name string, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	out, err := r.Run(ctx, dir, name, args...)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}
