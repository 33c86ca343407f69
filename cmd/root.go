package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"runtime"

	"github.com/josephlewis42/magish/core/backend"
	"github.com/josephlewis42/magish/core/config"
	"github.com/josephlewis42/magish/core/logger"
	"github.com/josephlewis42/magish/core/script"
	"github.com/josephlewis42/magish/core/shell"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// Version is overridden at build time with -ldflags "-X".
var Version = "0.3.0"

var cfgPath string

func newLogger(cmd *cobra.Command) *log.Logger {
	return log.New(cmd.ErrOrStderr(), "[magish] ", 0)
}

func loadConfig(cmd *cobra.Command) (*config.Configuration, error) {
	return config.LoadOrInitialize(afero.NewOsFs(), cfgPath, newLogger(cmd))
}

// newEngine builds a script engine from the configuration. The returned
// function closes the event log.
func newEngine(cmd *cobra.Command, cfg *config.Configuration) (*script.Engine, func()) {
	diag := newLogger(cmd)

	events := logger.New(nil)
	closeLog := func() {}
	if appLog, err := cfg.OpenAppLog(); err != nil {
		diag.Printf("Event log disabled: %v", err)
	} else {
		events = logger.NewJSONLinesLogger(appLog)
		closeLog = func() { appLog.Close() }
	}

	engine := script.New(afero.NewOsFs())
	engine.Stdin = cmd.InOrStdin()
	engine.Stdout = cmd.OutOrStdout()
	engine.Stderr = cmd.ErrOrStderr()
	engine.Delay = cfg.LineDelay()
	engine.LineTimeout = cfg.LineTimeout()
	engine.AbortOnSpawnFailure = cfg.AbortOnSpawnFailure()
	engine.Log = diag
	engine.Events = events

	return engine, closeLog
}

// checkHost refuses to continue on hosts that can't run scripts. Quiet
// suppresses the report for supported hosts.
func checkHost(cmd *cobra.Command, quiet bool) error {
	capability := backend.HostProber().Check(cmd.Context(), runtime.GOOS)
	if capability.Supported {
		if !quiet {
			fmt.Fprintln(cmd.OutOrStdout(), capability.Message)
		}
		return nil
	}

	fmt.Fprintln(cmd.OutOrStdout(), capability.Message)

	if capability.Hint != "" {
		fmt.Fprintln(cmd.OutOrStdout(), capability.Hint)
	}
	if capability.Platform == backend.PlatformWindows {
		if err := backend.OpenInstallGuide(); err != nil {
			newLogger(cmd).Printf("Couldn't open the install guide: %v", err)
		}
	}
	return fmt.Errorf("%s: %w", capability.Platform, backend.ErrUnsupportedPlatform)
}

// interruptContext cancels on Ctrl+C so a running script stops after its
// current line.
func interruptContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(cmd.Context(), os.Interrupt)
}

func waitForEnter(in io.Reader, out io.Writer) {
	fmt.Fprint(out, "\nPress Enter to exit...")
	bufio.NewReader(in).ReadString('\n')
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "magish",
	Short: "Browse folders and run shell scripts line by line.",
	Long: `magish is an interactive launcher for .sh scripts.

Browse to a folder, pick a script by number or name, or press enter to run
the folder's default script. Each line runs in its own bash process ("wsl
bash" on Windows) and "cd" lines move the directory later lines run in.`,
	Version: Version,
	Args:    cobra.ExactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		shell.WriteBanner(cmd.OutOrStdout(), shell.NewColorPrinter(cfg.Color), Version)

		if err := checkHost(cmd, false); err != nil {
			return err
		}

		engine, closeLog := newEngine(cmd, cfg)
		defer closeLog()

		rl, err := shell.NewReadline(cfg, cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		defer rl.Close()

		fsys := afero.NewOsFs()
		startDir := shell.StartDir(fsys, cfg, runtime.GOOS, os.UserHomeDir, os.Getwd)
		s := shell.NewShell(cfg, fsys, engine, rl, startDir, cmd.OutOrStdout(), cmd.ErrOrStderr())

		ctx, stop := interruptContext(cmd)
		defer stop()

		if err := s.Run(ctx); err != nil {
			return err
		}

		if s.Result != nil && cfg.PauseOnExit {
			waitForEnter(cmd.InOrStdin(), cmd.OutOrStdout())
		}
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	cobra.CheckErr(rootCmd.ExecuteContext(context.Background()))
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", config.DefaultDir(), "config directory")
}
