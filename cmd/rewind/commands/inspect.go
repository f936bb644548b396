package commands

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func (c *CLI) newDescribeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "describe <fingerprint>",
		Short: "Print the call a fingerprint was derived from",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			desc, err := c.app.Describe(cmd.Context(), sessionOptions(cmd), args[0])
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), desc)
			return nil
		},
	}
}

func (c *CLI) newExistsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "exists <call> <fingerprint>",
		Short: "Report whether a record exists for a call and fingerprint",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ok, err := c.app.Exists(cmd.Context(), sessionOptions(cmd), args[0], args[1])
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), strconv.FormatBool(ok))
			return nil
		},
	}
}

func (c *CLI) newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <call> <fingerprint>",
		Short: "Print a recorded result",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := c.app.Show(cmd.Context(), sessionOptions(cmd), args[0], args[1])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			data, err := json.MarshalIndent(v, "", "  ")
			if err != nil {
				// Opaque snapshots are not always JSON encodable.
				_, _ = fmt.Fprintf(out, "%#v\n", v)
				return nil //nolint:nilerr // fall back to the Go syntax representation
			}
			_, _ = fmt.Fprintln(out, string(data))
			return nil
		},
	}
}
