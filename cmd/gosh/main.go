// Command gosh is the CLI front door for the gosh shell core (spec.md §1
// item 5/AMBIENT STACK "CLI entry point").
//
// Grounded on the teacher's cli/main.go: a cobra root command with a small
// persistent-flag set, SilenceErrors (error printing handled explicitly),
// and a thin RunE that delegates straight into the runtime package — here
// internal/shell instead of the teacher's lexer/parser/planner/executor
// pipeline.
package main

import (
	"fmt"
	"os"

	"github.com/coreshell/gosh/internal/shell"
	"github.com/spf13/cobra"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		commandString string
		noRC          bool
		posix         bool
		rcFile        string
		completionCfg string
		watch         bool
	)

	rootCmd := &cobra.Command{
		Use:           "gosh [script [args...]]",
		Short:         "gosh: a POSIX/bash-leaning shell",
		Args:          cobra.ArbitraryArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := shell.Options{
				RCFile:           rcFile,
				NoRC:             noRC,
				Posix:            posix,
				CompletionConfig: completionCfg,
				Watch:            watch,
			}
			sh, err := shell.New(opts)
			if err != nil {
				return err
			}
			defer sh.Close()

			exitCode := 0
			switch {
			case commandString != "":
				exitCode, err = sh.RunString(commandString, args)
			case len(args) > 0:
				exitCode, err = sh.RunFile(args[0], args[1:])
			default:
				exitCode = sh.RunInteractive()
			}
			if err != nil {
				fmt.Fprintf(os.Stderr, "gosh: %v\n", err)
			}
			return &exitCodeError{code: exitCode}
		},
	}

	rootCmd.Flags().StringVarP(&commandString, "command", "c", "", "run the given string as a command")
	rootCmd.Flags().BoolVar(&noRC, "norc", false, "don't load the rc file on startup")
	rootCmd.Flags().BoolVar(&posix, "posix", false, "start in POSIX compatibility mode")
	rootCmd.Flags().StringVar(&rcFile, "rcfile", "", "rc file to load instead of ~/.goshrc")
	rootCmd.Flags().StringVar(&completionCfg, "completion-config", "", "JSON completion-config file to load")
	rootCmd.Flags().BoolVar(&watch, "watch-config", false, "hot-reload the rc file and completion config on external edits")

	rootCmd.AddCommand(newCompletionCommand())

	if err := rootCmd.Execute(); err != nil {
		var ec *exitCodeError
		if asExitCodeError(err, &ec) {
			return ec.code
		}
		fmt.Fprintf(os.Stderr, "gosh: %v\n", err)
		return 1
	}
	return 0
}

// exitCodeError carries a script/command's exit status back through
// cobra's RunE/Execute without calling os.Exit mid-stack (which would skip
// sh.Close's deferred cleanup).
type exitCodeError struct{ code int }

func (e *exitCodeError) Error() string { return "" }

func asExitCodeError(err error, target **exitCodeError) bool {
	if ec, ok := err.(*exitCodeError); ok {
		*target = ec
		return true
	}
	return false
}

// newCompletionCommand implements the `completion` subcommand (AMBIENT
// STACK: "a completion subcommand that shells out to the programmable
// completion engine for embedding in line editors"): given a command line
// and cursor offset, prints the candidate list internal/completion computes
// so an external line editor can drive tab-completion against gosh.
func newCompletionCommand() *cobra.Command {
	var point int
	cmd := &cobra.Command{
		Use:   "completion <line>",
		Short: "compute completion candidates for a command line",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			line := args[0]
			if point <= 0 || point > len(line) {
				point = len(line)
			}
			sh, err := shell.New(shell.Options{NoRC: false})
			if err != nil {
				return err
			}
			defer sh.Close()

			it := sh.Interp()
			result, err := it.Completions.Complete(line, point, it, it)
			if err != nil {
				return err
			}
			for _, c := range result.Candidates {
				fmt.Println(c)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&point, "point", 0, "cursor byte offset into the line (defaults to end of line)")
	return cmd
}
