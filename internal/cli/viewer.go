package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/haview/internal/config"
	"github.com/matzehuels/haview/pkg/app"
	"github.com/matzehuels/haview/pkg/prefs"
	"github.com/matzehuels/haview/pkg/source"
	"github.com/matzehuels/haview/pkg/view"
)

// logFileName receives log output while the viewer owns the terminal.
const logFileName = "haview.log"

// viewCommand creates the interactive viewer command.
func (c *CLI) viewCommand() *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "view",
		Short: "Open the interactive topology viewer",
		Long: `Open the interactive topology viewer.

The left pane shows the detailed diagram, the right pane the overview. Click
a node in the overview to focus it, or empty overview space to jump to the
matching region. The configuration text is shown below the overview; press
'e' to hide or show it (remembered between runs) and 'E' to edit it in
$EDITOR. 's' saves after confirmation, 'r' reloads.

With --watch and --file, changes to the file made by other programs reload
the diagram unless there are unsaved edits.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("watch") {
				cfg.Source.Watch = watch
			}
			return c.runViewer(cmd.Context(), cfg)
		},
	}

	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "reload when the local file changes (with --file)")
	return cmd
}

func (c *CLI) runViewer(ctx context.Context, cfg *config.Config) error {
	src, err := c.newSource(cfg)
	if err != nil {
		return err
	}
	engine, err := c.newEngine(ctx, cfg)
	if err != nil {
		return err
	}
	defer engine.Close()

	restore := c.redirectLogs()
	defer restore()

	var program atomic.Pointer[tea.Program]
	observer := view.CameraObserverFunc(func(cmd view.CameraCommand) {
		c.Logger.Debug("camera", "view", cmd.View, "kind", cmd.Kind, "node", cmd.NodeID, "scale", cmd.Scale)
		if p := program.Load(); p != nil {
			// Observers may run inside Update; Send must not block it.
			go p.Send(cameraMsg{cmd: cmd})
		}
	})

	notices := &noticeQueue{}
	renderer := view.NewRenderer(engine, view.WithCameraObserver(observer), view.WithLogger(c.Logger))
	ctl := app.New(src, renderer,
		// The viewer asks for confirmation itself before calling Save.
		app.WithConfirmer(app.ConfirmFunc(func(context.Context, string) bool { return true })),
		app.WithNotifier(notices),
		app.WithPrefs(prefs.NewFileStore(filepath.Join(config.Dir(), prefs.FileName))),
		app.WithLogger(c.Logger),
	)

	var events <-chan source.Event
	if w, ok := src.(source.Watcher); ok && cfg.Source.Watch {
		if events, err = w.Watch(ctx); err != nil {
			c.Logger.Warn("watching configuration", "err", err)
			events = nil
		}
	}

	model := newViewerModel(ctx, ctl, notices, viewerOptions{
		events:     events,
		editor:     cfg.EditorCommand(os.LookupEnv),
		sourceName: describeSource(cfg),
	})
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))
	program.Store(p)
	_, err = p.Run()
	return err
}

// redirectLogs sends log output to a file in the cache directory (or
// discards it) while the viewer owns the terminal. The returned function
// restores stderr.
func (c *CLI) redirectLogs() func() {
	var out io.Writer = io.Discard
	var f *os.File
	if dir, err := config.CacheDir(); err == nil {
		if err := os.MkdirAll(dir, 0o755); err == nil {
			f, _ = os.OpenFile(filepath.Join(dir, logFileName), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		}
	}
	if f != nil {
		out = f
	}
	c.Logger.SetOutput(out)
	return func() {
		c.Logger.SetOutput(os.Stderr)
		if f != nil {
			f.Close()
		}
	}
}

func describeSource(cfg *config.Config) string {
	if cfg.Source.File != "" {
		return cfg.Source.File
	}
	return cfg.Source.URL
}
