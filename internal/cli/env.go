// Package cli implements the prolific command line: a smoke test against the
// live API and read-only listings of workspace resources.
package cli

import (
	"io"
	"os"
)

// Env holds the process dependencies of the commands so tests can run them
// against buffers and a fake environment.
type Env struct {
	Stdout  io.Writer
	Stderr  io.Writer
	Environ func() []string
}

// EnvOption configures an Env.
type EnvOption func(*Env)

// WithStdout sets the writer for command output.
func WithStdout(w io.Writer) EnvOption {
	return func(e *Env) { e.Stdout = w }
}

// WithStderr sets the writer for logs and telemetry.
func WithStderr(w io.Writer) EnvOption {
	return func(e *Env) { e.Stderr = w }
}

// WithEnviron replaces os.Environ.
func WithEnviron(fn func() []string) EnvOption {
	return func(e *Env) { e.Environ = fn }
}

// DefaultEnv returns an Env bound to the real process.
func DefaultEnv() *Env {
	return &Env{
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
		Environ: os.Environ,
	}
}

// NewEnv returns DefaultEnv with opts applied.
func NewEnv(opts ...EnvOption) *Env {
	env := DefaultEnv()
	for _, opt := range opts {
		opt(env)
	}
	return env
}
