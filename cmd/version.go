package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"promptrelay/internal/version"
)

func newVersionCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := version.Get()
			out := cmd.OutOrStdout()

			switch output {
			case "json":
				s, err := info.ToJSON()
				if err != nil {
					return err
				}
				fmt.Fprintln(out, s)
			case "short":
				fmt.Fprintln(out, info.ShortString())
			case "text":
				fmt.Fprintln(out, info.Text())
			default:
				return fmt.Errorf("unknown output format %q (want text, json or short)", output)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "text", "output format (text, json, short)")
	return cmd
}
