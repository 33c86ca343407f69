// Package shell implements the interactive loop used to browse folders and
// pick a script to run.
package shell

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/abiosoft/readline"
	"github.com/anmitsu/go-shlex"
	"github.com/josephlewis42/magish/core/config"
	"github.com/josephlewis42/magish/core/locate"
	"github.com/josephlewis42/magish/core/script"
	"github.com/spf13/afero"
)

// LineReader reads edited lines from the user, *readline.Instance implements
// it.
type LineReader interface {
	Readline() (string, error)
	SetPrompt(prompt string)
	Close() error
}

// Runner executes a script, *script.Engine implements it.
type Runner interface {
	Execute(ctx context.Context, scriptPath, startDir string) script.Result
}

type Shell struct {
	Fs       afero.Fs
	Config   *config.Configuration
	Runner   Runner
	Readline LineReader
	Locator  *locate.Locator
	Color    *ColorPrinter
	Log      *log.Logger

	Stdout io.Writer
	Stderr io.Writer

	// Home resolves the user's home directory.
	Home func() (string, error)

	dir     string
	listing []string
	history []string
	// pinned keeps a scan listing selectable for the next command.
	pinned bool

	// Set to true to quit the shell
	Quit bool
	// Result holds the outcome of the script that ended the loop, if any.
	Result *script.Result
}

// NewReadline creates a line editor that persists its history next to the
// configuration.
func NewReadline(cfg *config.Configuration, stdin io.Reader, stdout, stderr io.Writer) (*readline.Instance, error) {
	rlCfg := &readline.Config{
		HistoryFile:     cfg.HistoryPath(),
		HistoryLimit:    cfg.HistoryLimit,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		Stdin:           readline.NewCancelableStdin(stdin),
		Stdout:          stdout,
		Stderr:          stderr,
	}

	return readline.NewEx(rlCfg)
}

// NewShell creates a shell starting in dir.
func NewShell(cfg *config.Configuration, fsys afero.Fs, runner Runner, rl LineReader, dir string, stdout, stderr io.Writer) *Shell {
	return &Shell{
		Fs:       fsys,
		Config:   cfg,
		Runner:   runner,
		Readline: rl,
		Locator:  locate.NewLocator(fsys),
		Color:    NewColorPrinter(cfg.Color),
		Log:      log.New(stderr, "", 0),
		Stdout:   stdout,
		Stderr:   stderr,
		Home:     os.UserHomeDir,
		dir:      dir,
	}
}

// Dir is the directory the user is browsing.
func (s *Shell) Dir() string {
	return s.dir
}

// Run reads commands until the user quits, input ends, or a script has been
// run.
func (s *Shell) Run(ctx context.Context) error {
	for !s.Quit {
		s.showFolder()

		s.Readline.SetPrompt(s.prompt())
		line, err := s.Readline.Readline()

		switch {
		case err == io.EOF:
			return nil // Input closed, quit.

		case err == readline.ErrInterrupt:
			// Interrupt clears line.
			continue

		case err != nil:
			return err
		}

		line = strings.TrimSpace(line)
		if line != "" {
			s.history = append(s.history, line)
		}
		s.runCommand(ctx, line)
	}
	return nil
}

func (s *Shell) prompt() string {
	return fmt.Sprintf("%s> ", s.dir)
}

func (s *Shell) showFolder() {
	fmt.Fprintf(s.Stdout, "\nCurrent folder: %s\n", s.dir)
	if s.pinned {
		s.pinned = false
		fmt.Fprintln(s.Stdout, "Enter a number to run a script from the scan above.")
		return
	}

	s.listing = locate.ListScripts(s.Fs, s.dir)
	if len(s.listing) == 0 {
		fmt.Fprintln(s.Stdout, "No .sh files found in this folder.")
		return
	}

	fmt.Fprintln(s.Stdout, "Available Bash scripts:")
	for i, path := range s.listing {
		fmt.Fprintf(s.Stdout, "  [%d] %s\n", i+1, s.Color.Sprint(ColorScript, path))
	}
}

func (s *Shell) runCommand(ctx context.Context, line string) {
	if line == "" {
		s.autoRun(ctx)
		return
	}

	if args, ok := cdArgs(line); ok {
		Cd(s, args)
		return
	}

	// Backslashes are path separators on Windows, not escapes.
	tokens, err := shlex.Split(line, filepath.Separator == '/')
	if err != nil {
		fmt.Fprintf(s.Stderr, "syntax error: %v\n", err)
		return
	}

	if len(tokens) > 0 {
		if builtin, ok := AllBuiltins[tokens[0]]; ok {
			builtin.Main(s, tokens)
			return
		}
	}

	if n, err := strconv.Atoi(line); err == nil && n >= 1 && n <= len(s.listing) {
		s.runScript(ctx, s.listing[n-1])
		return
	}

	target := s.resolve(line)
	info, err := s.Fs.Stat(target)
	switch {
	case err != nil:
		fmt.Fprintf(s.Stdout, "Path does not exist: %s\n", s.Color.Sprint(ColorError, line))
	case info.IsDir():
		s.chdir(target)
	case locate.IsScriptName(info.Name()):
		s.runScript(ctx, target)
	default:
		fmt.Fprintf(s.Stdout, "Not a directory or shell script: %s\n", line)
	}
}

// cdArgs splits a cd command without tokenizing it, so folder names with
// spaces work unquoted. One pair of surrounding quotes is removed.
func cdArgs(line string) ([]string, bool) {
	if line != "cd" && !strings.HasPrefix(line, "cd ") && !strings.HasPrefix(line, "cd\t") {
		return nil, false
	}

	target := strings.TrimSpace(line[len("cd"):])
	if n := len(target); n >= 2 && (target[0] == '"' || target[0] == '\'') && target[n-1] == target[0] {
		target = target[1 : n-1]
	}
	if target == "" {
		return []string{"cd"}, true
	}
	return []string{"cd", target}, true
}

func (s *Shell) autoRun(ctx context.Context) {
	found, ok := s.Locator.Find(s.dir)
	if !ok {
		fmt.Fprintln(s.Stdout, "No scripts found in current directory.")
		return
	}

	fmt.Fprintf(s.Stdout, "Auto-detected script: %s\n", found)
	s.runScript(ctx, found)
}

// runScript executes path from the current folder and ends the loop.
func (s *Shell) runScript(ctx context.Context, path string) {
	// The editor keeps reading stdin in the background, release it so the
	// script's commands get the keyboard.
	if err := s.Readline.Close(); err != nil {
		s.Log.Printf("Failed to close line editor: %v", err)
	}

	result := s.Runner.Execute(ctx, path, s.dir)
	s.Result = &result
	s.Quit = true
}

// resolve interprets path relative to the current folder, "~" is the home
// directory.
func (s *Shell) resolve(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := s.Home(); err == nil {
			path = filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}

	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(s.dir, path)
}

// chdir moves the shell to dir and remembers it for the next run.
func (s *Shell) chdir(dir string) {
	s.dir = dir
	if err := s.Config.SetLastDirectory(dir); err != nil {
		s.Log.Printf("Failed to save config: %v", err)
	}
}

// StartDir picks the directory an interactive session starts in: the last
// directory used if it still exists, otherwise the home directory for a
// fresh configuration, the desktop on Windows, or the working directory.
func StartDir(fsys afero.Fs, cfg *config.Configuration, goos string, home func() (string, error), getwd func() (string, error)) string {
	if cfg.LastDirectory != "" {
		if ok, _ := afero.DirExists(fsys, cfg.LastDirectory); ok {
			return cfg.LastDirectory
		}
	} else if dir, err := home(); err == nil {
		return dir
	}

	if goos == "windows" {
		if dir, err := home(); err == nil {
			desktop := filepath.Join(dir, "Desktop")
			if ok, _ := afero.DirExists(fsys, desktop); ok {
				return desktop
			}
		}
	}

	if wd, err := getwd(); err == nil {
		return wd
	}
	return "."
}
