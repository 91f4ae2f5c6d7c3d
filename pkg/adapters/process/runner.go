// Package process binds capabilities to local commands.
//
// The carried parameter is written to the command's stdin as JSON and the
// capability name is exported as PASSIVATE_CAPABILITY. A non-zero exit fails
// the action with the command's stderr attached. Commands are only run from
// an explicit allow-list.
package process

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"sort"
	"strings"
	"time"

	"github.com/aretw0/passivate/pkg/registry"
)

// ErrNotRegistered is returned when a capability has no registered command.
var ErrNotRegistered = errors.New("process capability not registered")

// Runner executes registered commands as capability effects.
type Runner struct {
	registry map[string]RegisteredProcess
	baseDir  string
	// waitDelay is how long a cancelled command may linger before it is killed.
	waitDelay time.Duration
}

// RegisteredProcess defines an allowed command execution.
type RegisteredProcess struct {
	Command string
	Args    []string
	Env     map[string]string
	Timeout time.Duration
}

// RunnerOption configures the runner.
type RunnerOption func(*Runner)

// WithRegistry populates the allow-list from a loaded config.
func WithRegistry(caps map[string]ProcessConfig) RunnerOption {
	return func(r *Runner) {
		for name, c := range caps {
			timeout, _ := time.ParseDuration(c.Timeout)
			r.registry[name] = RegisteredProcess{
				Command: c.Command,
				Args:    c.Args,
				Env:     c.Environment,
				Timeout: timeout,
			}
		}
	}
}

// WithBaseDir sets the working directory for executed processes.
func WithBaseDir(dir string) RunnerOption {
	return func(r *Runner) {
		r.baseDir = dir
	}
}

// WithWaitDelay bounds how long a cancelled process may keep running.
func WithWaitDelay(d time.Duration) RunnerOption {
	return func(r *Runner) {
		r.waitDelay = d
	}
}

// NewRunner creates a new Process Runner.
func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{
		registry:  make(map[string]RegisteredProcess),
		waitDelay: 2 * time.Second,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a trusted command to the allow-list.
func (r *Runner) Register(name string, command string, args ...string) {
	r.registry[name] = RegisteredProcess{
		Command: command,
		Args:    args,
	}
}

// Names returns the registered capability names, sorted.
func (r *Runner) Names() []string {
	names := make([]string, 0, len(r.registry))
	for name := range r.registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Effect returns the effect for a registered capability.
func (r *Runner) Effect(name string) registry.Effect {
	return func(ctx context.Context, param any) error {
		return r.Execute(ctx, name, param)
	}
}

// Bind registers every allowed command as a capability in reg.
func (r *Runner) Bind(reg *registry.Registry) {
	for _, name := range r.Names() {
		reg.Register(name, r.Effect(name))
	}
}

// Execute runs the command registered under name with param on stdin.
func (r *Runner) Execute(ctx context.Context, name string, param any) error {
	proc, ok := r.registry[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotRegistered, name)
	}

	input, err := json.Marshal(param)
	if err != nil {
		return fmt.Errorf("encode parameter for %s: %w", name, err)
	}

	if proc.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, proc.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, proc.Command, proc.Args...)
	cmd.Dir = r.baseDir
	cmd.WaitDelay = r.waitDelay
	cmd.Stdin = bytes.NewReader(input)

	env := cmd.Environ()
	env = append(env, "PASSIVATE_CAPABILITY="+name)
	for k, v := range proc.Env {
		env = append(env, k+"="+v)
	}
	cmd.Env = env

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("%s: %w", name, ctxErr)
		}
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return fmt.Errorf("%s: %w", name, err)
		}
		return fmt.Errorf("%s: %w: %s", name, err, msg)
	}
	return nil
}
