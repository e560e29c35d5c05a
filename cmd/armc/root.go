package main

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/armcheck/armc/internal/armcerr"
	"github.com/armcheck/armc/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "armc",
	Short: "Abstract regular model checker",
	Long:  "Decides, via a CEGAR loop over symbolic finite automata and transducers, whether a bad configuration is reachable from an initial one under a transition relation.",
	RunE:  runRoot,

	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command and, on failure, prints the error to
// stderr as "Error - <message>" and exits with status 1. This is called
// by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error - "+err.Error())
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().StringP("config", "c", "armc.properties", "configuration file path")
	rootCmd.Flags().StringP("init", "i", "", "override INIT_FILE_PATH")
	rootCmd.Flags().StringP("bad", "b", "", "override BAD_FILE_PATH")
	rootCmd.Flags().StringP("tau", "t", "", "override TAU_FILE_PATHS with a single path")
	rootCmd.Flags().BoolP("generate-config", "g", false, "write a default configuration file and exit")
	rootCmd.Flags().Bool("check", false, "validate configuration and inputs without running the loop")
	rootCmd.Flags().BoolP("verbose", "v", false, "override VERBOSE")
}

func runRoot(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	initPath, _ := cmd.Flags().GetString("init")
	badPath, _ := cmd.Flags().GetString("bad")
	tauPath, _ := cmd.Flags().GetString("tau")
	generate, _ := cmd.Flags().GetBool("generate-config")
	check, _ := cmd.Flags().GetBool("check")
	verbose, _ := cmd.Flags().GetBool("verbose")

	if generate {
		if err := config.Save(config.Default(), configPath); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "wrote default configuration to", configPath)
		return nil
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	cfg.ApplyOverrides(initPath, badPath, tauPath)
	if verbose {
		cfg.Verbose = true
	}

	configureLogging(cfg.Verbose)

	progress := newProgressReporter(cmd.OutOrStdout())
	verdict, err := run(cfg, check, progress.report)
	progress.finish()
	if err != nil {
		if kind, ok := armcerr.KindOf(err); ok {
			logrus.WithField("kind", kind).Debug("run failed")
		}
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), verdict)
	return nil
}

func configureLogging(verbose bool) {
	logrus.SetOutput(os.Stderr)
	if verbose {
		logrus.SetLevel(logrus.DebugLevel)
		return
	}
	logrus.SetLevel(logrus.InfoLevel)
}

// progressReporter renders a one-line-per-step summary of the inner
// loop: overwritten in place on an interactive terminal, appended as
// separate lines otherwise (spec §5 calls this ambient progress
// reporting, not part of the core algorithm; SPEC_FULL.md's CLI
// section names this as the one use of golang.org/x/term).
type progressReporter struct {
	w           *os.File
	interactive bool
	wrote       bool
}

func newProgressReporter(w io.Writer) *progressReporter {
	f, ok := w.(*os.File)
	if !ok {
		return &progressReporter{}
	}
	return &progressReporter{w: f, interactive: term.IsTerminal(int(f.Fd()))}
}

func (p *progressReporter) report(loop, i, states int) {
	if p.w == nil {
		return
	}
	line := fmt.Sprintf("loop %d, step %d: %d states", loop, i, states)
	if p.interactive {
		fmt.Fprintf(p.w, "\r%s\033[K", line)
		p.wrote = true
		return
	}
	fmt.Fprintln(p.w, line)
}

func (p *progressReporter) finish() {
	if p.interactive && p.wrote {
		fmt.Fprintln(p.w)
	}
}
