package cli

import (
	"context"
	"os"

	"github.com/spf13/cobra"
)

// Execute runs the command line with os.Args, logging to stderr.
func Execute(ctx context.Context) error {
	return withVerbose(New(os.Stderr, LogInfo)).ExecuteContext(ctx)
}

// withVerbose adds the --verbose flag, which switches the logger to debug
// level before any command runs.
func withVerbose(c *CLI) *cobra.Command {
	root := c.RootCommand()
	verbose := root.PersistentFlags().BoolP("verbose", "v", false, "log at debug level")

	setup := root.PersistentPreRunE
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if *verbose {
			c.SetLogLevel(LogDebug)
		}
		return setup(cmd, args)
	}
	return root
}
