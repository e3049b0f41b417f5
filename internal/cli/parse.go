package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/haview/pkg/graph"
	"github.com/matzehuels/haview/pkg/haproxy"
	"github.com/matzehuels/haview/pkg/source"
)

// Output formats for graph data.
const (
	formatJSON  = string(graph.FormatJSON)
	formatYAML  = string(graph.FormatYAML)
	formatTable = "table"
)

var graphFormats = []string{formatJSON, formatYAML, formatTable}

// graphOpts holds the flags shared by the graph and parse commands.
type graphOpts struct {
	format string
	output string
}

func (o *graphOpts) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.format, "format", formatJSON, "output format: json, yaml, table")
	cmd.Flags().StringVarP(&o.output, "output", "o", "", "output file (stdout if empty)")
}

func (o *graphOpts) validate() error {
	if !slices.Contains(graphFormats, o.format) {
		return fmt.Errorf("invalid format %q (want %s)", o.format, strings.Join(graphFormats, ", "))
	}
	return nil
}

// graphCommand creates the graph command that prints the topology graph of
// the configured source.
func (c *CLI) graphCommand() *cobra.Command {
	var opts graphOpts

	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Fetch the topology graph",
		Long: `Fetch the topology graph from the configuration API (or parse the local
file given with --file) and print it.

Examples:
  haview graph --url http://lb01:5000
  haview graph --format yaml -o topology.yaml
  haview graph --file /etc/haproxy/haproxy.cfg --format table`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.validate(); err != nil {
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
			g, err := fetchGraph(cmd.Context(), src)
			if err != nil {
				return err
			}
			return writeGraph(cmd.OutOrStdout(), g, opts)
		},
	}
	opts.register(cmd)
	return cmd
}

// parseCommand creates the parse command that converts a local HAProxy
// configuration file to the graph format without any source configuration.
func (c *CLI) parseCommand() *cobra.Command {
	var opts graphOpts

	cmd := &cobra.Command{
		Use:   "parse <haproxy.cfg>",
		Short: "Convert an HAProxy configuration file to a topology graph",
		Long: `Convert an HAProxy configuration file to a topology graph.

The output is the same document the configuration API serves on /api/graph,
so it can be fed to 'layout' and 'render'.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.validate(); err != nil {
				return err
			}
			logger := loggerFromContext(cmd.Context())
			prog := newProgress(logger)
			g, err := haproxy.ParseFile(args[0])
			if err != nil {
				return err
			}
			prog.done("Parsed configuration", "nodes", len(g.Nodes), "edges", len(g.Edges))
			return writeGraph(cmd.OutOrStdout(), g, opts)
		},
	}
	opts.register(cmd)
	return cmd
}

// fetchGraph loads the graph with a spinner on stderr.
func fetchGraph(ctx context.Context, src source.Source) (graph.Graph, error) {
	return withSpinner(ctx, os.Stderr, "Fetching topology...", src.LoadGraph)
}

// writeGraph serializes g in the requested format to the output file, or to
// stdout when no output file is set.
func writeGraph(stdout io.Writer, g graph.Graph, opts graphOpts) error {
	var (
		data []byte
		err  error
	)
	if opts.format == formatTable {
		data = []byte(graphTable(g) + "\n")
	} else if data, err = graph.Marshal(g, graph.Format(opts.format)); err != nil {
		return err
	}

	out, err := openOutput(stdout, opts.output)
	if err != nil {
		return err
	}
	defer out.Close()
	if _, err := out.Write(data); err != nil {
		return err
	}
	if opts.output != "" {
		printSuccess("Wrote graph")
		printFile(opts.output)
	}
	return nil
}

// graphTable renders the nodes of g with their outgoing edges.
func graphTable(g graph.Graph) string {
	targets := make(map[string][]string, len(g.Nodes))
	for _, e := range g.Edges {
		to := e.To
		if e.Dashes {
			to += " (if)"
		}
		targets[e.From] = append(targets[e.From], to)
	}

	rows := make([][]string, 0, len(g.Nodes))
	for _, n := range g.Nodes {
		rows = append(rows, []string{
			n.Type,
			n.ID,
			strings.ReplaceAll(n.DisplayLabel(), "\n", " "),
			strings.Join(targets[n.ID], ", "),
		})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorLabel).Bold(true)
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorMuted)).
		Headers("Group", "ID", "Label", "Targets").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if col == 0 && row >= 0 && row < len(g.Nodes) {
				return lipgloss.NewStyle().Foreground(groupColor(g.Nodes[row].Type))
			}
			return lipgloss.NewStyle()
		})
	return t.Render()
}

// nopCloser wraps an io.Writer with a no-op Close method.
type nopCloser struct{ io.Writer }

// Close implements io.Closer with a no-op.
func (nopCloser) Close() error { return nil }

// openOutput returns a WriteCloser for the given path.
// If path is empty, it returns stdout wrapped in nopCloser.
// Otherwise, it creates the file at path, overwriting if it exists.
func openOutput(stdout io.Writer, path string) (io.WriteCloser, error) {
	if path == "" {
		return nopCloser{stdout}, nil
	}
	return os.Create(path)
}
