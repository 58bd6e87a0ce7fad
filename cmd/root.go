package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// Execute runs the CLI with the provided arguments.
func Execute(ctx context.Context, args []string) error {
	root := newRootCommand()
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

// Main runs the CLI and returns the process exit code. Errors are reported on stderr.
func Main(ctx context.Context, args []string, stderr io.Writer) int {
	return exitCode(Execute(ctx, args), stderr)
}

// exitCode maps a command error to an exit status. Cancellation by a signal
// is a clean exit.
func exitCode(err error, stderr io.Writer) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, context.Canceled):
		fmt.Fprintln(stderr, "shutdown requested, exiting")
		return 0
	default:
		fmt.Fprintf(stderr, "promptrelay: %v\n", err)
		return 1
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "promptrelay",
		Short: "Relay system/user prompts to OpenAI-compatible and Gemini chat APIs",
		Long: `promptrelay accepts prompt pairs or indexed prompt lists over HTTP and
forwards them to an upstream chat model.

Provider credentials are read from the environment on every request
(OPENAI_KEY, OPENAI_BASE_URL, OPENAI_MODEL, GEMINI_API_KEY, GEMINI_MODEL),
so they can be rotated without a restart.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newServeCommand())
	root.AddCommand(newVersionCommand())
	return root
}
