package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/matzehuels/haview/internal/config"
	"github.com/matzehuels/haview/pkg/app"
	"github.com/matzehuels/haview/pkg/view"
)

// pullCommand creates the pull command that prints the configuration text.
func (c *CLI) pullCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "pull",
		Short: "Fetch the HAProxy configuration text",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig(cmd)
			if err != nil {
				return err
			}
			src, err := c.newSource(cfg)
			if err != nil {
				return err
			}
			text, err := withSpinner(cmd.Context(), cmd.ErrOrStderr(), "Fetching configuration...", src.LoadConfigText)
			if err != nil {
				return err
			}
			out, err := openOutput(cmd.OutOrStdout(), output)
			if err != nil {
				return err
			}
			defer out.Close()
			if _, err := io.WriteString(out, text); err != nil {
				return err
			}
			if output != "" {
				printSuccess("Wrote configuration")
				printFile(output)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (stdout if empty)")
	return cmd
}

// pushCommand creates the push command that stores a configuration file
// through the same confirm, save and reload flow as the viewer.
func (c *CLI) pushCommand() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "push <haproxy.cfg>",
		Short: "Store a new HAProxy configuration",
		Long: `Store a new HAProxy configuration and reload the topology.

A failed save leaves the stored configuration unchanged and is reported; the
topology is only reloaded after a successful save.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			cfg, err := c.loadConfig(cmd)
			if err != nil {
				return err
			}
			src, err := c.newSource(cfg)
			if err != nil {
				return err
			}
			engine, err := c.newEngine(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer engine.Close()

			confirm := promptConfirm(cmd.InOrStdin(), cmd.OutOrStdout())
			if yes {
				confirm = func(context.Context, string) bool { return true }
			}
			renderer := view.NewRenderer(engine, view.WithScheduler(skipScheduler{}), view.WithLogger(c.Logger))
			ctl := app.New(src, renderer,
				app.WithConfirmer(confirm),
				app.WithNotifier(app.NotifyFunc(printNotice)),
				app.WithLogger(c.Logger),
			)
			ctl.SetBuffer(string(text))

			res, err := ctl.Save(cmd.Context())
			switch res {
			case app.SaveCancelled:
				printInfo("Nothing saved")
				return nil
			case app.SaveFailed:
				return err
			}
			printSuccess("Saved %s", args[0])
			if doc := ctl.Document(); doc != nil {
				printStats(len(doc.Main.Nodes), len(doc.Main.Edges), len(doc.Dropped))
			}
			return err
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

// promptConfirm asks on out and reads a yes/no answer from in. Anything but
// "y" or "yes" declines.
func promptConfirm(in io.Reader, out io.Writer) app.ConfirmFunc {
	return func(_ context.Context, prompt string) bool {
		fmt.Fprintf(out, "%s [y/N] ", prompt)
		line, _ := bufio.NewReader(in).ReadString('\n')
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return true
		}
		return false
	}
}

// configCommand creates the config command for managing config.toml.
func (c *CLI) configCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the haview configuration file",
	}
	cmd.AddCommand(c.configPathCommand())
	cmd.AddCommand(c.configShowCommand())
	cmd.AddCommand(c.configInitCommand())
	return cmd
}

func (c *CLI) configFile() string {
	if c.configPath != "" {
		return c.configPath
	}
	return config.Path()
}

func (c *CLI) configPathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the config file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), c.configFile())
			return nil
		},
	}
}

func (c *CLI) configShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Long:  "Print the configuration after applying config.toml, the environment and flags. Passwords are masked.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig(cmd)
			if err != nil {
				return err
			}
			shown := *cfg
			shown.Source.Password = mask(shown.Source.Password)
			shown.Cache.RedisPassword = mask(shown.Cache.RedisPassword)
			return toml.NewEncoder(cmd.OutOrStdout()).Encode(shown)
		},
	}
}

func (c *CLI) configInitCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file with the default settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := c.configFile()
			if _, err := os.Stat(path); err == nil && !force {
				printWarning("Config file already exists")
				printDetail("Use --force to overwrite %s", path)
				return nil
			}
			if err := config.Save(config.Default(), path); err != nil {
				return err
			}
			printSuccess("Wrote default configuration")
			printFile(path)
			printNextStep("Open the viewer", appName+" view")
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}

func mask(secret string) string {
	if secret == "" {
		return ""
	}
	return "********"
}
