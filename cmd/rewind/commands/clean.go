package commands

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.trai.ch/rewind/internal/app"
)

func (c *CLI) newCleanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Delete every recorded result and reset the fingerprint registry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			force, _ := cmd.Flags().GetBool("force")

			if !force {
				_, _ = fmt.Fprint(cmd.OutOrStdout(), "Delete all recorded results? [y/N] ")
				answer, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				switch strings.ToLower(strings.TrimSpace(answer)) {
				case "y", "yes":
					force = true
				default:
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
					return nil
				}
			}

			return c.app.Clean(cmd.Context(), sessionOptions(cmd), app.CleanOptions{Force: force})
		},
	}

	cmd.Flags().BoolP("force", "f", false, "Skip the confirmation prompt")

	return cmd
}
