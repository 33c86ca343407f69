package shell

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/josephlewis42/magish/core/config"
)

var (
	ColorDir    = []color.Attribute{color.FgBlue, color.Bold}
	ColorScript = []color.Attribute{color.FgGreen, color.Bold}
	ColorError  = []color.Attribute{color.FgRed, color.Bold}
	ColorBanner = []color.Attribute{color.FgCyan, color.Bold}
)

// WriteBanner prints the startup banner.
func WriteBanner(w io.Writer, c *ColorPrinter, version string) {
	fmt.Fprintf(w, "%s v%s\n", c.Sprint(ColorBanner, "magish"), version)
	fmt.Fprintln(w, "Locate and run Bash scripts one line at a time.")
	fmt.Fprintln(w)
}

// ColorPrinter colorizes output according to the configured color mode.
type ColorPrinter struct {
	mode string
	// IsTerminal reports whether output goes to a terminal, used in auto mode.
	IsTerminal func() bool
}

func NewColorPrinter(mode string) *ColorPrinter {
	return &ColorPrinter{
		mode: mode,
		IsTerminal: func() bool {
			return !color.NoColor
		},
	}
}

func (c *ColorPrinter) ShouldColor() bool {
	switch c.mode {
	case config.ColorNever:
		return false
	case config.ColorAlways:
		return true
	default:
		return c.IsTerminal()
	}
}

// Sprint renders s with attrs if coloring is enabled.
func (c *ColorPrinter) Sprint(attrs []color.Attribute, s string) string {
	clr := color.New(attrs...)
	if c.ShouldColor() {
		clr.EnableColor()
	} else {
		clr.DisableColor()
	}
	return clr.Sprint(s)
}
