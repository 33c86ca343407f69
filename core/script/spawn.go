package script

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
)

// ErrSpawnFailed is returned when a child process could not be created.
var ErrSpawnFailed = errors.New("failed to spawn shell process")

// Spawn describes one child process.
type Spawn struct {
	Program string
	Args    []string
	Dir     string

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// Spawner starts a child process and blocks until it exits. The child's exit
// status is not reported, only failures to start it.
type Spawner interface {
	Spawn(ctx context.Context, s Spawn) error
}

// SpawnerFunc adapts a function to a Spawner.
type SpawnerFunc func(ctx context.Context, s Spawn) error

// Spawn implements Spawner.
func (f SpawnerFunc) Spawn(ctx context.Context, s Spawn) error {
	return f(ctx, s)
}

// ExecSpawner runs children with os/exec. When the streams are *os.File
// values (os.Stdout and friends) the child inherits the descriptors directly.
type ExecSpawner struct{}

var _ Spawner = ExecSpawner{}

// Spawn implements Spawner. Canceling ctx kills the child.
func (ExecSpawner) Spawn(ctx context.Context, s Spawn) error {
	cmd := exec.CommandContext(ctx, s.Program, s.Args...)
	cmd.Dir = s.Dir
	cmd.Stdin = s.Stdin
	cmd.Stdout = s.Stdout
	cmd.Stderr = s.Stderr

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%w: %v", ErrSpawnFailed, err)
	}

	// Failing lines never stop the script.
	_ = cmd.Wait()
	return nil
}
