// Package commands implements the CLI commands for rewind.
package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.trai.ch/rewind/internal/app"
	"go.trai.ch/rewind/internal/build"
	"go.trai.ch/rewind/internal/core/domain"
)

// CLI represents the command line interface for rewind.
type CLI struct {
	app     Application
	rootCmd *cobra.Command
}

// Application represents the application logic interface.
type Application interface {
	Clean(ctx context.Context, sessionOpts app.SessionOptions, opts app.CleanOptions) error
	Describe(ctx context.Context, opts app.SessionOptions, fingerprint string) (string, error)
	Fingerprint(ctx context.Context, opts app.SessionOptions, call domain.Call) (string, error)
	Exists(ctx context.Context, opts app.SessionOptions, name, fingerprint string) (bool, error)
	Show(ctx context.Context, opts app.SessionOptions, name, fingerprint string) (any, error)
	Verify(ctx context.Context, sessionOpts app.SessionOptions, opts app.VerifyOptions) (*app.VerifyReport, error)
}

// New creates a new CLI instance with the given app.
func New(a Application) *CLI {
	rootCmd := &cobra.Command{
		Use:           "rewind",
		Short:         "Record and replay schema-typed remote calls",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       build.Version,
	}

	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"{{.Name}} version {{.Version}} (commit: %s, date: %s)\n",
		build.Commit,
		build.Date,
	))
	rootCmd.InitDefaultVersionFlag()
	rootCmd.Flags().Lookup("version").Usage = "Print the application version"

	rootCmd.InitDefaultHelpFlag()
	rootCmd.Flags().Lookup("help").Usage = "Show help for command"

	flags := rootCmd.PersistentFlags()
	flags.StringP("config", "c", domain.ConfigFileName, "Path to the configuration file")
	flags.String("cache-dir", "", "Override the record cache directory")
	flags.String("mode", "", "Override the execution mode (record, strict, lazy)")
	flags.Bool("verbose", false, "Enable debug logging")

	c := &CLI{
		app:     a,
		rootCmd: rootCmd,
	}

	rootCmd.AddCommand(c.newCleanCmd())
	rootCmd.AddCommand(c.newDescribeCmd())
	rootCmd.AddCommand(c.newExistsCmd())
	rootCmd.AddCommand(c.newFingerprintCmd())
	rootCmd.AddCommand(c.newShowCmd())
	rootCmd.AddCommand(c.newVerifyCmd())
	rootCmd.AddCommand(c.newVersionCmd())

	return c
}

// Execute runs the root command with the given context.
func (c *CLI) Execute(ctx context.Context) error {
	c.rootCmd.SetContext(ctx)
	return c.rootCmd.Execute()
}

// SetArgs sets the arguments for the root command. Used for testing.
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}

// SetOutput sets the output and error streams for the root command. Used for testing.
func (c *CLI) SetOutput(out, err io.Writer) {
	c.rootCmd.SetOut(out)
	c.rootCmd.SetErr(err)
}

// SetInput sets the input stream for interactive prompts. Used for testing.
func (c *CLI) SetInput(in io.Reader) {
	c.rootCmd.SetIn(in)
}

func sessionOptions(cmd *cobra.Command) app.SessionOptions {
	flags := cmd.Flags()
	configPath, _ := flags.GetString("config")
	cacheDir, _ := flags.GetString("cache-dir")
	mode, _ := flags.GetString("mode")
	verbose, _ := flags.GetBool("verbose")
	return app.SessionOptions{
		ConfigPath: configPath,
		CacheDir:   cacheDir,
		Mode:       mode,
		Verbose:    verbose,
	}
}
