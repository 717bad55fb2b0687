package vcs

import (
	"context"
	"strings"
)

// fakeRunner serves canned stdout per command line and records every
// invocation. Commands without a canned response fail like a subprocess
// exiting non-zero.
type fakeRunner struct {
	responses map[string]string
	errs      map[string]error
	calls     []string
}

func (f *fakeRunner) Run(_ context.Context, _ string, name string, args ...string) (string, error) {
	cmd := name + " " + strings.Join(args, " ")
	f.calls = append(f.calls, cmd)

	if err, ok := f.errs[cmd]; ok {
		return "", err
	}
	if out, ok := f.responses[cmd]; ok {
		return out, nil
	}
	return "", &CommandError{Cmd: cmd, Stderr: "no such command in fixture", ExitCode: 1}
}

func (f *fakeRunner) called(prefix string) bool {
	for _, cmd := range f.calls {
		if strings.HasPrefix(cmd, prefix) {
			return true
		}
	}
	return false
}
