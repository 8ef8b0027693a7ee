// cmd/storydod/main.go
//
// Entry point for the story Definition-of-Done gate. Run it from anywhere
// inside a project: it finds docs/implementation-artifacts/sprint-status.yaml,
// checks every story marked done, and exits non-zero when any record is
// incomplete so CI can block the merge.

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"go.uber.org/zap/zapcore"

	"github.com/kingrea/storydod/internal/config"
	"github.com/kingrea/storydod/internal/dod"
	"github.com/kingrea/storydod/internal/logging"
	"github.com/kingrea/storydod/internal/report"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := execute(ctx, os.Args[1:], os.Getwd, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// execute runs the root command and returns the process exit status.
func execute(ctx context.Context, args []string, getwd func() (string, error), stdout, stderr io.Writer) int {
	exitCode := report.ExitOK
	cmd := newRootCmd(getwd, stdout, stderr, &exitCode)
	cmd.SetArgs(args)
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return report.ExitFailed
	}
	return exitCode
}

func newRootCmd(getwd func() (string, error), stdout, stderr io.Writer, exitCode *int) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "storydod",
		Short: "Verify the Definition of Done for every story marked done",
		Long: `storydod reads docs/implementation-artifacts/sprint-status.yaml, selects the
stories whose development_status is "done", and checks that each story record
(docs/implementation-artifacts/<story>.md) has:

  ## Dev Agent Record
  ### Agent Model Used   (followed by a non-empty value)
  ## Review Notes
  ## File List or ### File List

Every problem in every story is reported in one run. The exit status is 0
when all records pass and 1 otherwise.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cwd, err := getwd()
			if err != nil {
				return fmt.Errorf("get working directory: %w", err)
			}
			layout, err := config.Discover(cwd)
			if err != nil {
				return err
			}

			logger := logging.New(stderr, zapcore.WarnLevel)
			defer func() { _ = logger.Sync() }()

			result, err := dod.NewVerifier(layout, dod.WithLogger(logger)).Run(cmd.Context())
			if err != nil {
				return err
			}
			*exitCode = report.Write(stdout, stderr, result)
			return nil
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	return cmd
}
