package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.trai.ch/rewind/internal/app"
	"go.trai.ch/rewind/internal/core/domain"
	"go.trai.ch/zerr"
)

func (c *CLI) newVerifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Read back every record against the current schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			jobs, _ := cmd.Flags().GetInt("jobs")

			report, err := c.app.Verify(cmd.Context(), sessionOptions(cmd), app.VerifyOptions{Jobs: jobs})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, f := range report.Failures {
				_, _ = fmt.Fprintf(out, "FAIL %s: %v\n", f.Path, f.Err)
			}
			_, _ = fmt.Fprintf(out, "%d records checked, %d failed\n", report.Checked, len(report.Failures))

			if len(report.Failures) > 0 {
				return zerr.With(zerr.Wrap(domain.ErrVerifyFailed, "verification failed"), "failed", len(report.Failures))
			}
			return nil
		},
	}

	cmd.Flags().IntP("jobs", "j", 0, "Number of records to read concurrently (default: one per CPU)")

	return cmd
}
