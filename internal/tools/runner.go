// Package tools runs the external command-line helpers some collaborators
// rely on (nmblookup, nbtscan, smbclient, ping, nmap, ip).
package tools

import (
	"bufio"
	"bytes"
	"context"
	"os/exec"
	"strings"

	"github.com/cockroachdb/errors"

	"netsweep/internal/models"
)

// Runner executes a named tool and returns its standard output.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (string, error)
}

// RunnerFunc adapts a function to Runner.
type RunnerFunc func(ctx context.Context, name string, args ...string) (string, error)

func (f RunnerFunc) Run(ctx context.Context, name string, args ...string) (string, error) {
	return f(ctx, name, args...)
}

// Exec runs tools found on PATH.
type Exec struct{}

// Run resolves name on PATH and runs it bound to ctx. A missing binary is
// reported as models.ErrCollaboratorUnavailable, an expired context as
// models.ErrProbeTimeout. Output is returned even when the tool exits
// non-zero since several helpers print useful text before failing.
func (Exec) Run(ctx context.Context, name string, args ...string) (string, error) {
	path, err := exec.LookPath(name)
	if err != nil {
		return "", errors.Mark(errors.Wrapf(err, "%s not installed", name), models.ErrCollaboratorUnavailable)
	}

	var stdout bytes.Buffer
	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Stdout = &stdout

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return stdout.String(), errors.Mark(errors.Wrapf(ctx.Err(), "%s", name), models.ErrProbeTimeout)
		}
		return stdout.String(), errors.Wrapf(err, "%s %s", name, strings.Join(args, " "))
	}
	return stdout.String(), nil
}

// Helpers lists every tool some collaborator shells out to.
var Helpers = []string{"nmblookup", "nbtscan", "smbclient", "ping", "nmap", "ieee-oui", "ip"}

// Missing returns the names not found on PATH, in input order.
func Missing(names ...string) []string {
	var out []string
	for _, n := range names {
		if !Available(n) {
			out = append(out, n)
		}
	}
	return out
}

// Available reports whether name can be found on PATH.
func Available(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}

// Lines returns the non-blank lines of out with surrounding space trimmed.
func Lines(out string) []string {
	var lines []string
	scanner := bufio.NewScanner(strings.NewReader(out))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}
