package linphone

import (
	"context"
	"io"
	"os/exec"
	"sync"

	"braces.dev/errtrace"
)

// Process is a running client process.
type Process interface {
	// Write writes to the process standard input.
	io.Writer
	// Output returns the process standard output.
	Output() io.Reader
	// Wait waits for the process to exit. It must be called after Output is fully read.
	Wait() error
	// Kill forcibly terminates the process.
	Kill() error
	// Pid returns the OS process id, 0 if unknown.
	Pid() int
}

// Spawner starts client processes.
type Spawner interface {
	Spawn(ctx context.Context, name string, args ...string) (Process, error)
}

// SpawnerFunc is a function adapter for [Spawner].
type SpawnerFunc func(ctx context.Context, name string, args ...string) (Process, error)

func (f SpawnerFunc) Spawn(ctx context.Context, name string, args ...string) (Process, error) {
	return errtrace.Wrap2(f(ctx, name, args...))
}

// ExecSpawner starts processes with [os/exec].
// Standard error of the child is discarded unless Stderr is set.
type ExecSpawner struct {
	Dir    string
	Env    []string
	Stderr io.Writer
}

// Spawn implements [Spawner].
// The context only bounds the start; the process outlives it.
func (s ExecSpawner) Spawn(ctx context.Context, name string, args ...string) (Process, error) {
	if err := ctx.Err(); err != nil {
		return nil, errtrace.Wrap(err)
	}

	cmd := exec.Command(name, args...)
	cmd.Dir = s.Dir
	if s.Env != nil {
		cmd.Env = append(cmd.Environ(), s.Env...)
	}
	cmd.Stderr = s.Stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, errtrace.Wrap(err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, errtrace.Wrap(err)
	}
	if err := cmd.Start(); err != nil {
		return nil, errtrace.Wrap(err)
	}
	return &execProcess{cmd: cmd, stdin: stdin, stdout: stdout}, nil
}

type execProcess struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout io.ReadCloser

	waitOnce sync.Once
	waitErr  error
}

func (p *execProcess) Write(b []byte) (int, error) { return errtrace.Wrap2(p.stdin.Write(b)) }

func (p *execProcess) Output() io.Reader { return p.stdout }

func (p *execProcess) Wait() error {
	p.waitOnce.Do(func() {
		p.stdin.Close() //nolint:errcheck
		p.waitErr = p.cmd.Wait()
	})
	return errtrace.Wrap(p.waitErr)
}

func (p *execProcess) Kill() error {
	return errtrace.Wrap(p.cmd.Process.Kill())
}

func (p *execProcess) Pid() int {
	if p.cmd.Process == nil {
		return 0
	}
	return p.cmd.Process.Pid
}
