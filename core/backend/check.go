package backend

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
)

// InstallGuideURL documents how to enable WSL2 on Windows.
const InstallGuideURL = "https://docs.microsoft.com/windows/wsl/install"

// Capability is the result of probing the host before any script runs.
type Capability struct {
	Platform  string
	Supported bool
	// Message describes what was detected.
	Message string
	// Hint tells the user how to fix an unsupported host, it's empty when the
	// host is supported.
	Hint string
}

// Prober runs the host commands the capability check depends on.
type Prober struct {
	LookPath func(file string) (string, error)
	Output   func(ctx context.Context, name string, args ...string) ([]byte, error)
}

// HostProber probes the real host.
func HostProber() *Prober {
	return &Prober{
		LookPath: exec.LookPath,
		Output: func(ctx context.Context, name string, args ...string) ([]byte, error) {
			return exec.CommandContext(ctx, name, args...).Output()
		},
	}
}

// Check decides whether scripts can be run on goos.
func (p *Prober) Check(ctx context.Context, goos string) Capability {
	switch {
	case goos == PlatformWindows:
		if p.hasWSL2(ctx) {
			return Capability{Platform: goos, Supported: true, Message: "Windows detected."}
		}
		return Capability{
			Platform: goos,
			Message:  "WSL2 is not installed or not enabled.",
			Hint:     "Install WSL2: " + InstallGuideURL,
		}

	case IsPOSIX(goos):
		if _, err := p.LookPath(ShellProgram); err != nil {
			return Capability{
				Platform: goos,
				Message:  "Bash not found on this system.",
				Hint:     "Install bash and make sure it is on your PATH.",
			}
		}
		return Capability{Platform: goos, Supported: true, Message: "POSIX-compatible OS detected."}

	default:
		return Capability{Platform: goos, Message: "Unsupported OS detected."}
	}
}

// hasWSL2 looks for a distribution running under WSL version 2.
func (p *Prober) hasWSL2(ctx context.Context) bool {
	out, err := p.Output(ctx, BridgeProgram, "-l", "-v")
	if err != nil {
		return false
	}

	// wsl.exe writes UTF-16, strip the NUL bytes so the columns can be read.
	out = bytes.ReplaceAll(out, []byte{0}, nil)
	for _, line := range strings.Split(string(out), "\n") {
		fields := strings.Fields(line)
		if len(fields) > 0 && fields[len(fields)-1] == "2" {
			return true
		}
	}
	return false
}

// OpenInstallGuide opens the WSL install guide in Microsoft Edge.
func OpenInstallGuide() error {
	return exec.Command("cmd", "/C", "start", "ms-edge:"+InstallGuideURL).Start()
}
