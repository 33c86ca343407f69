package shell

import (
	"fmt"
	"sort"
	"strings"

	"github.com/josephlewis42/magish/core/locate"
	"github.com/pborman/getopt/v2"
	"github.com/spf13/afero"
)

// AllBuiltins holds a list of all registered shell builtins
var AllBuiltins = make(map[string]ShellBuiltin)

type ShellBuiltin interface {
	Main(s *Shell, args []string) int
}

type ShellBuiltinFunc func(s *Shell, args []string) int

func (f ShellBuiltinFunc) Main(s *Shell, args []string) int {
	return f(s, args)
}

var _ ShellBuiltin = (ShellBuiltinFunc)(nil)

// Cd is the cd shell builtin
func Cd(s *Shell, args []string) int {
	switch len(args) {
	case 1:
		home, err := s.Home()
		if err != nil {
			fmt.Fprintf(s.Stderr, "%s: %v\n", args[0], err)
			return 1
		}
		args = append(args, home)
		fallthrough
	case 2:
		target := s.resolve(args[1])
		if ok, _ := afero.DirExists(s.Fs, target); !ok {
			fmt.Fprintf(s.Stderr, "Invalid directory: %s\n", s.Color.Sprint(ColorError, args[1]))
			return 1
		}
		s.chdir(target)
	default:
		fmt.Fprintf(s.Stderr, "%s: too many arguments\n", args[0])
		return 1
	}
	return 0
}

// Ls lists a directory, highlighting folders and scripts.
func Ls(s *Shell, args []string) int {
	opts := getopt.New()
	all := opts.Bool('a', "do not ignore entries starting with .")
	helpOpt := opts.BoolLong("help", 'h', "show help and exit")

	if err := opts.Getopt(args, nil); err != nil || *helpOpt {
		w := s.Stderr
		if err != nil {
			fmt.Fprintln(w, err)
		}
		fmt.Fprintln(w, "usage: ls [-a] [PATH]")
		fmt.Fprintln(w, "List the contents of PATH, or the current folder.")
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Options:")
		opts.PrintOptions(w)
		return 1
	}

	target := s.dir
	switch opts.NArgs() {
	case 0:
	case 1:
		target = s.resolve(opts.Arg(0))
	default:
		fmt.Fprintf(s.Stderr, "%s: too many arguments\n", args[0])
		return 1
	}

	if ok, _ := afero.DirExists(s.Fs, target); !ok {
		fmt.Fprintf(s.Stderr, "Invalid path: %s\n", target)
		return 1
	}

	entries, err := afero.ReadDir(s.Fs, target)
	if err != nil {
		fmt.Fprintf(s.Stderr, "Cannot read directory: %v\n", err)
		return 1
	}

	fmt.Fprintf(s.Stdout, "Contents of %s:\n", target)
	for _, entry := range entries {
		name := entry.Name()
		if !*all && strings.HasPrefix(name, ".") {
			continue
		}

		switch {
		case entry.IsDir():
			fmt.Fprintf(s.Stdout, "  %s/\n", s.Color.Sprint(ColorDir, name))
		case locate.IsScriptName(name):
			fmt.Fprintf(s.Stdout, "  %s\n", s.Color.Sprint(ColorScript, name))
		default:
			fmt.Fprintf(s.Stdout, "  %s\n", name)
		}
	}
	return 0
}

// Pwd prints the current folder.
func Pwd(s *Shell, args []string) int {
	fmt.Fprintln(s.Stdout, s.dir)
	return 0
}

// Scan lists every script below a directory and makes them selectable by
// number.
func Scan(s *Shell, args []string) int {
	opts := getopt.New()
	output := opts.StringLong("output", 'o', "", "also write the listing to FILE", "FILE")
	helpOpt := opts.BoolLong("help", 'h', "show help and exit")

	if err := opts.Getopt(args, nil); err != nil || *helpOpt {
		w := s.Stderr
		if err != nil {
			fmt.Fprintln(w, err)
		}
		fmt.Fprintln(w, "usage: scan [-o FILE] [DIR]")
		fmt.Fprintln(w, "Recursively find scripts below DIR, or the current folder.")
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Options:")
		opts.PrintOptions(w)
		return 1
	}

	root := s.dir
	if opts.NArgs() > 0 {
		root = s.resolve(opts.Arg(0))
	}
	if ok, _ := afero.DirExists(s.Fs, root); !ok {
		fmt.Fprintf(s.Stderr, "Invalid directory: %s\n", s.Color.Sprint(ColorError, root))
		return 1
	}

	found := locate.Scan(s.Fs, root)
	if len(found) == 0 {
		fmt.Fprintf(s.Stdout, "No .sh files found below %s.\n", root)
		return 0
	}

	fmt.Fprintf(s.Stdout, "Found %d scripts:\n", len(found))
	locate.WriteListing(s.Stdout, found)
	s.listing = found
	s.pinned = true

	if *output != "" {
		outPath := s.resolve(*output)
		if err := locate.SaveListing(s.Fs, outPath, found); err != nil {
			fmt.Fprintf(s.Stderr, "Failed to save listing: %v\n", err)
			return 1
		}
		fmt.Fprintf(s.Stdout, "Listing saved to %s\n", outPath)
	}
	return 0
}

// History displays or clears the session history.
func History(s *Shell, args []string) int {
	opts := getopt.New()
	clear := opts.Bool('c', "clear the history by deleting all entries")
	helpOpt := opts.BoolLong("help", 'h', "show help and exit")

	if err := opts.Getopt(args, nil); err != nil || *helpOpt {
		w := s.Stderr
		if err != nil {
			fmt.Fprintln(w, err)
		}
		fmt.Fprintln(w, "Display or clear the history list with line numbers.")
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Options:")
		opts.PrintOptions(w)
		return 1
	}

	if *clear {
		if resetter, ok := s.Readline.(interface{ ResetHistory() }); ok {
			resetter.ResetHistory()
		}
		s.history = nil
		return 0
	}

	for i, line := range s.history {
		fmt.Fprintf(s.Stdout, "% 5d  %s\n", i+1, line)
	}
	return 0
}

// Exit quits the shell
func Exit(s *Shell, args []string) int {
	s.Quit = true
	return 0
}

func Help(s *Shell, args []string) int {
	w := s.Stdout
	fmt.Fprintln(w, "Type a number to run the matching script, a folder to open it, or a")
	fmt.Fprintln(w, "script path to run it. Press enter on an empty line to run the")
	fmt.Fprintln(w, "folder's default script (base.sh, index.sh, script.sh, or the first")
	fmt.Fprintln(w, ".sh file).")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Builtins:")

	var builtins []string
	for k := range AllBuiltins {
		builtins = append(builtins, k)
	}
	sort.Strings(builtins)

	for _, name := range builtins {
		fmt.Fprintf(w, "  %s\n", name)
	}
	return 0
}

func init() {
	AllBuiltins["cd"] = ShellBuiltinFunc(Cd)
	AllBuiltins["ls"] = ShellBuiltinFunc(Ls)
	AllBuiltins["pwd"] = ShellBuiltinFunc(Pwd)
	AllBuiltins["scan"] = ShellBuiltinFunc(Scan)
	AllBuiltins["history"] = ShellBuiltinFunc(History)
	AllBuiltins["help"] = ShellBuiltinFunc(Help)
	AllBuiltins["exit"] = ShellBuiltinFunc(Exit)
	AllBuiltins["quit"] = ShellBuiltinFunc(Exit)
}
