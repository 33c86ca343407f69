// Package backend decides which external program interprets a line of shell
// code on the host, and whether the host can run one at all.
package backend

import (
	"errors"
	"fmt"
)

const (
	// PlatformWindows is the GOOS value of hosts that need the WSL bridge.
	PlatformWindows = "windows"

	// BridgeProgram launches a Linux shell from a Windows host.
	BridgeProgram = "wsl"
	// ShellProgram is the POSIX shell every line is handed to.
	ShellProgram = "bash"
)

var (
	// ErrUnsupportedPlatform is returned for hosts with neither a POSIX shell
	// nor the WSL bridge.
	ErrUnsupportedPlatform = errors.New("unsupported platform")

	posixPlatforms = map[string]bool{
		"linux":     true,
		"darwin":    true,
		"freebsd":   true,
		"openbsd":   true,
		"netbsd":    true,
		"dragonfly": true,
		"solaris":   true,
		"illumos":   true,
		"aix":       true,
		"android":   true,
	}
)

// Backend is the program and argument template used to run one line of shell
// code. The line itself is always the final argument.
type Backend struct {
	Program string
	Prefix  []string
}

// Command returns the program and the full argument vector for line.
func (b Backend) Command(line string) (string, []string) {
	args := make([]string, 0, len(b.Prefix)+1)
	args = append(args, b.Prefix...)
	args = append(args, line)
	return b.Program, args
}

// IsPOSIX reports whether goos runs bash natively.
func IsPOSIX(goos string) bool {
	return posixPlatforms[goos]
}

// Select returns the backend for the platform named by goos (a runtime.GOOS
// value). It has no side effects.
func Select(goos string) (Backend, error) {
	switch {
	case goos == PlatformWindows:
		return Backend{Program: BridgeProgram, Prefix: []string{ShellProgram, "-c"}}, nil
	case IsPOSIX(goos):
		return Backend{Program: ShellProgram, Prefix: []string{"-c"}}, nil
	default:
		return Backend{}, fmt.Errorf("%w: %q", ErrUnsupportedPlatform, goos)
	}
}
