// Package app ties a [source.Source] to a [view.Renderer]: it loads the
// configuration text and the topology graph, keeps the edit buffer, saves
// edits back and remembers whether the editor pane is shown.
//
// Front-ends supply a [Confirmer] for the save prompt and a [Notifier] for
// failure notices; the controller itself never touches the terminal.
package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/haview/pkg/graph"
	"github.com/matzehuels/haview/pkg/prefs"
	"github.com/matzehuels/haview/pkg/source"
	"github.com/matzehuels/haview/pkg/view"
)

// SavePrompt is the question asked before a save.
const SavePrompt = "Save changes to haproxy.cfg?"

// Confirmer asks the user a yes/no question.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, prompt string) bool

// Confirm implements Confirmer.
func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) bool { return f(ctx, prompt) }

// Level is the severity of a notice.
type Level string

const (
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Notice is a message for the user.
type Notice struct {
	Level   Level
	Message string
	Err     error
}

func (n Notice) String() string {
	if n.Err != nil {
		return fmt.Sprintf("%s: %v", n.Message, n.Err)
	}
	return n.Message
}

// Notifier shows notices to the user.
type Notifier interface {
	Notify(n Notice)
}

// NotifyFunc adapts a function to Notifier.
type NotifyFunc func(Notice)

// Notify implements Notifier.
func (f NotifyFunc) Notify(n Notice) { f(n) }

// SaveResult is the outcome of Save.
type SaveResult int

const (
	SaveCancelled SaveResult = iota
	SaveFailed
	Saved
)

func (r SaveResult) String() string {
	switch r {
	case SaveCancelled:
		return "cancelled"
	case SaveFailed:
		return "failed"
	default:
		return "saved"
	}
}

// Option configures a Controller.
type Option func(*Controller)

// WithConfirmer sets the save confirmation. Without one every save proceeds.
func WithConfirmer(c Confirmer) Option {
	return func(ctl *Controller) { ctl.confirm = c }
}

// WithNotifier sets the notice sink.
func WithNotifier(n Notifier) Option {
	return func(ctl *Controller) { ctl.notify = n }
}

// WithPrefs sets the preference store. The default keeps preferences in memory.
func WithPrefs(s prefs.Store) Option {
	return func(ctl *Controller) { ctl.prefs = s }
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(ctl *Controller) { ctl.logger = l }
}

// Controller runs the load and save flows.
type Controller struct {
	src      source.Source
	renderer *view.Renderer
	confirm  Confirmer
	notify   Notifier
	prefs    prefs.Store
	logger   *log.Logger

	mu     sync.Mutex
	buffer string
	loaded string
	doc    *graph.Document
}

// New returns a controller reading from src and drawing with renderer.
func New(src source.Source, renderer *view.Renderer, opts ...Option) *Controller {
	c := &Controller{
		src:      src,
		renderer: renderer,
		confirm:  ConfirmFunc(func(context.Context, string) bool { return true }),
		notify:   NotifyFunc(func(Notice) {}),
		prefs:    &prefs.MemoryStore{},
		logger:   log.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Renderer returns the renderer.
func (c *Controller) Renderer() *view.Renderer { return c.renderer }

// LoadAll fetches the configuration text and the graph, then renders. On
// any failure the buffer and the displayed views are left as they were.
func (c *Controller) LoadAll(ctx context.Context) error {
	text, err := c.src.LoadConfigText(ctx)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	g, err := c.src.LoadGraph(ctx)
	if err != nil {
		return fmt.Errorf("load graph: %w", err)
	}

	doc := graph.BuildDocument(g)
	for _, issue := range doc.Dropped {
		c.logger.Warn("ignoring invalid graph element", "element", issue.Subject, "err", issue.Err)
	}
	if doc.Cyclic {
		c.logger.Warn("graph contains a cycle; layout may be irregular")
	}

	if err := c.renderer.Render(ctx, doc); err != nil {
		return err
	}

	c.mu.Lock()
	c.buffer = text
	c.loaded = text
	c.doc = doc
	c.mu.Unlock()
	c.logger.Debug("loaded topology", "nodes", len(doc.Main.Nodes), "edges", len(doc.Main.Edges))
	return nil
}

// Save asks for confirmation and stores the edit buffer. A failed save
// keeps the buffer, produces an error notice and does not reload. A
// successful save reloads everything.
func (c *Controller) Save(ctx context.Context) (SaveResult, error) {
	if !c.confirm.Confirm(ctx, SavePrompt) {
		return SaveCancelled, nil
	}

	text := c.Buffer()
	if err := c.src.SaveConfigText(ctx, text); err != nil {
		c.notify.Notify(Notice{Level: LevelError, Message: "Save failed", Err: err})
		return SaveFailed, err
	}

	if err := c.LoadAll(ctx); err != nil {
		c.notify.Notify(Notice{Level: LevelWarn, Message: "Saved, but reloading failed", Err: err})
		return Saved, err
	}
	return Saved, nil
}

// HandleExternalChange reacts to the configuration changing outside the
// viewer. Unsaved edits are never overwritten: with a dirty buffer only a
// notice is produced.
func (c *Controller) HandleExternalChange(ctx context.Context) error {
	if c.Dirty() {
		c.notify.Notify(Notice{Level: LevelWarn, Message: "Configuration changed on disk; save or reload to resolve"})
		return nil
	}
	if err := c.LoadAll(ctx); err != nil {
		c.notify.Notify(Notice{Level: LevelError, Message: "Reload failed", Err: err})
		return err
	}
	c.notify.Notify(Notice{Level: LevelInfo, Message: "Configuration reloaded"})
	return nil
}

// Buffer returns the edit buffer.
func (c *Controller) Buffer() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buffer
}

// SetBuffer replaces the edit buffer.
func (c *Controller) SetBuffer(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.buffer = text
}

// Dirty reports whether the buffer differs from the last loaded text.
func (c *Controller) Dirty() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buffer != c.loaded
}

// Document returns the last rendered document, or nil.
func (c *Controller) Document() *graph.Document {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.doc
}

// EditorVisible returns the stored editor visibility. Read errors fall back
// to visible.
func (c *Controller) EditorVisible() bool {
	visible, err := c.prefs.EditorVisible()
	if err != nil {
		c.logger.Warn("reading preferences", "err", err)
	}
	return visible
}

// ToggleEditor flips and stores the editor visibility and returns the new
// value. The new value is returned even if it could not be stored.
func (c *Controller) ToggleEditor() (bool, error) {
	visible := !c.EditorVisible()
	if err := c.prefs.SetEditorVisible(visible); err != nil {
		return visible, fmt.Errorf("store editor visibility: %w", err)
	}
	return visible, nil
}
