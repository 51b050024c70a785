package lib

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

const defaultCommandTimeout = 5 * time.Second

// Invoker produces the raw text of the client status command.
type Invoker interface {
	Invoke(ctx context.Context) (string, error)
}

// Runner abstracts process execution so the invoker can be tested without chronyd.
type Runner interface {
	Output(ctx context.Context, name string, args ...string) (string, error)
}

// OSRunner executes commands on the host via os/exec.
type OSRunner struct{}

func (OSRunner) Output(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); errors.Is(ctxErr, context.DeadlineExceeded) {
			return "", fmt.Errorf("%s timed out: %w", name, ctxErr)
		}
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return "", fmt.Errorf("%s: %s", err.Error(), msg)
		}
		return "", err
	}
	return stdout.String(), nil
}

// CommandInvoker runs `<Path> <Args...>` once per Invoke, bounded by Timeout.
type CommandInvoker struct {
	Path    string
	Args    []string
	Timeout time.Duration
	Runner  Runner
}

func NewCommandInvoker(path string, args []string, timeout time.Duration) *CommandInvoker {
	if path == "" {
		path = "chronyc"
	}
	if len(args) == 0 {
		args = []string{"clients"}
	}
	if timeout <= 0 {
		timeout = defaultCommandTimeout
	}
	return &CommandInvoker{Path: path, Args: args, Timeout: timeout, Runner: OSRunner{}}
}

func (c *CommandInvoker) Invoke(ctx context.Context) (string, error) {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = defaultCommandTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	runner := c.Runner
	if runner == nil {
		runner = OSRunner{}
	}
	return runner.Output(ctx, c.Path, c.Args...)
}

// String is the command line as logged.
func (c *CommandInvoker) String() string {
	return strings.TrimSpace(c.Path + " " + strings.Join(c.Args, " "))
}
