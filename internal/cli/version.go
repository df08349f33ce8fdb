package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"campcli/pkg/contracts"
)

// NewVersionCommand creates the version command.
func NewVersionCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.formatter(cmd).Print(contracts.GetVersionInfo(), func(w io.Writer) error {
				_, err := fmt.Fprintln(w, contracts.GetFullVersionString())
				return err
			})
		},
	}
}
