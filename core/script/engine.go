// Package script runs shell scripts one line at a time.
//
// Each line is handed to a fresh shell process so shell state doesn't carry
// over between lines, with one exception: "cd <path>" lines are interpreted
// locally and move an execution cursor that becomes the working directory of
// every following line.
package script

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/ioutil"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"time"
	"unicode/utf8"

	"github.com/josephlewis42/magish/core/backend"
	"github.com/josephlewis42/magish/core/logger"
	"github.com/spf13/afero"
)

// DefaultDelay is the pause between two lines.
const DefaultDelay = 100 * time.Millisecond

// ErrInvalidEncoding is returned for scripts that aren't valid UTF-8.
var ErrInvalidEncoding = errors.New("script is not valid UTF-8")

// Outcome is how a script execution ended.
type Outcome int

const (
	// Completed means every line was processed.
	Completed Outcome = iota
	// ReadFailed means the script couldn't be read and nothing ran.
	ReadFailed
	// SpawnAborted means a line couldn't be started and the engine is
	// configured to stop on spawn failures.
	SpawnAborted
	// Canceled means the context was canceled before the last line.
	Canceled
)

func (o Outcome) String() string {
	switch o {
	case Completed:
		return "completed"
	case ReadFailed:
		return "read_failed"
	case SpawnAborted:
		return "spawn_aborted"
	case Canceled:
		return "canceled"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Result summarizes one execution.
type Result struct {
	Outcome Outcome
	Script  string
	// Dir is the execution cursor after the last processed line.
	Dir string
	// Err holds the read error, the aborting spawn error or the context error.
	Err error

	Commands          int
	SpawnFailures     int
	IgnoredDirectives int
}

// Engine executes scripts. The zero value isn't usable, create one with New.
type Engine struct {
	// Fs is used to read scripts and resolve "cd" targets.
	Fs afero.Fs
	// Platform is a runtime.GOOS value used to select the shell backend.
	Platform string
	Spawner  Spawner

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// Delay is the pause after each child exits.
	Delay time.Duration
	// LineTimeout kills a child that runs longer, zero waits forever.
	LineTimeout time.Duration
	// AbortOnSpawnFailure stops the script at the first line that can't be
	// started instead of skipping it.
	AbortOnSpawnFailure bool

	// Log receives diagnostics.
	Log    *log.Logger
	Events *logger.Logger
}

// New creates an engine for the host platform that reads from fsys and
// connects children to the process's own standard streams.
func New(fsys afero.Fs) *Engine {
	return &Engine{
		Fs:       fsys,
		Platform: runtime.GOOS,
		Spawner:  ExecSpawner{},
		Stdin:    os.Stdin,
		Stdout:   os.Stdout,
		Stderr:   os.Stderr,
		Delay:    DefaultDelay,
		Log:      log.New(ioutil.Discard, "", 0),
		Events:   logger.New(nil),
	}
}

// Execute runs the script at scriptPath starting in startDir. Lines run
// strictly one after the other; a failing line never stops the script.
func (e *Engine) Execute(ctx context.Context, scriptPath, startDir string) Result {
	run := e.Events.NewRun()
	result := Result{Script: scriptPath, Dir: startDir}

	run.Record(logger.Event{Type: logger.EventScriptStarted, Script: scriptPath, Dir: startDir})

	fmt.Fprintf(e.Stdout, "Using script: %s\n", scriptPath)
	contents, err := e.read(scriptPath)
	if err != nil {
		fmt.Fprintln(e.Stderr, "Failed to read script file.")
		e.Log.Printf("%s: %v", scriptPath, err)

		result.Outcome = ReadFailed
		result.Err = err
		run.Record(logger.Event{
			Type:    logger.EventReadFailed,
			Script:  scriptPath,
			Outcome: result.Outcome.String(),
			Error:   err.Error(),
		})
		return result
	}

	cursor := startDir
	scanner := newLineScanner(contents)
lines:
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			result.Outcome = Canceled
			result.Err = err
			break
		}

		line := Classify(scanner.Text())
		switch line.Kind {
		case Blank, Comment:
			continue

		case Directive:
			next, ok := e.changeDir(cursor, line.Target)
			if ok {
				run.Record(logger.Event{Type: logger.EventDirectiveChanged, Dir: next, Command: line.Text})
			} else {
				result.IgnoredDirectives++
				e.Log.Printf("%s: no such directory, staying in %s", line.Text, cursor)
				run.Record(logger.Event{Type: logger.EventDirectiveIgnored, Dir: cursor, Command: line.Text})
			}
			cursor = next
			continue
		}

		fmt.Fprintf(e.Stdout, "Executing: %s\n", line.Text)
		if err := e.runLine(ctx, cursor, line.Text); err != nil {
			result.SpawnFailures++
			e.Log.Printf("%q: %v", line.Text, err)
			run.Record(logger.Event{Type: logger.EventSpawnFailed, Dir: cursor, Command: line.Text, Error: err.Error()})

			if e.AbortOnSpawnFailure {
				result.Outcome = SpawnAborted
				result.Err = err
				break lines
			}
			continue
		}

		result.Commands++
		run.Record(logger.Event{Type: logger.EventCommandSpawned, Dir: cursor, Command: line.Text})

		if err := e.pause(ctx); err != nil {
			result.Outcome = Canceled
			result.Err = err
			break
		}
	}

	result.Dir = cursor
	if result.Outcome == Completed {
		fmt.Fprintln(e.Stdout, "All commands executed.")
	}

	run.Record(logger.Event{
		Type:    logger.EventScriptFinished,
		Script:  scriptPath,
		Dir:     cursor,
		Outcome: result.Outcome.String(),
	})
	return result
}

func (e *Engine) read(scriptPath string) (string, error) {
	contents, err := afero.ReadFile(e.Fs, scriptPath)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(contents) {
		return "", ErrInvalidEncoding
	}
	return string(contents), nil
}

// changeDir resolves target against cursor. It returns the new cursor and
// true if target is an existing directory, or the unchanged cursor and false.
func (e *Engine) changeDir(cursor, target string) (string, bool) {
	resolved := target
	if !filepath.IsAbs(resolved) {
		resolved = filepath.Join(cursor, resolved)
	}

	info, err := e.Fs.Stat(resolved)
	if err != nil || !info.IsDir() {
		return cursor, false
	}
	return filepath.Clean(resolved), true
}

func (e *Engine) runLine(ctx context.Context, dir, line string) error {
	// Selected per line, it's a pure function of the platform.
	shell, err := backend.Select(e.Platform)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSpawnFailed, err)
	}
	program, args := shell.Command(line)

	lineCtx := ctx
	if e.LineTimeout > 0 {
		var cancel context.CancelFunc
		lineCtx, cancel = context.WithTimeout(ctx, e.LineTimeout)
		defer cancel()
	}

	err = e.Spawner.Spawn(lineCtx, Spawn{
		Program: program,
		Args:    args,
		Dir:     dir,
		Stdin:   e.Stdin,
		Stdout:  e.Stdout,
		Stderr:  e.Stderr,
	})
	if err == nil && ctx.Err() == nil && errors.Is(lineCtx.Err(), context.DeadlineExceeded) {
		e.Log.Printf("%q: killed after %s", line, e.LineTimeout)
	}
	return err
}

func (e *Engine) pause(ctx context.Context) error {
	if e.Delay <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(e.Delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
