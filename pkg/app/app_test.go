package app

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/matzehuels/haview/pkg/graph"
	"github.com/matzehuels/haview/pkg/layout"
	"github.com/matzehuels/haview/pkg/prefs"
	"github.com/matzehuels/haview/pkg/view"
)

type fakeSource struct {
	config      string
	graph       graph.Graph
	loadErr     error
	saveErr     error
	configLoads int
	graphLoads  int
	saved       []string
}

func (f *fakeSource) LoadGraph(context.Context) (graph.Graph, error) {
	f.graphLoads++
	if f.loadErr != nil {
		return graph.Graph{}, f.loadErr
	}
	return f.graph, nil
}

func (f *fakeSource) LoadConfigText(context.Context) (string, error) {
	f.configLoads++
	return f.config, nil
}

func (f *fakeSource) SaveConfigText(_ context.Context, text string) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved = append(f.saved, text)
	f.config = text
	return nil
}

type nopScheduler struct{}

func (nopScheduler) AfterFunc(time.Duration, func()) {}

func newController(src *fakeSource, opts ...Option) *Controller {
	r := view.NewRenderer(layout.NewLevelEngine(), view.WithScheduler(nopScheduler{}))
	return New(src, r, opts...)
}

func sampleSource() *fakeSource {
	return &fakeSource{
		config: "frontend web\n  default_backend app\n",
		graph: graph.Graph{
			Nodes: []graph.Node{
				{ID: "frontend::web", Type: graph.GroupFrontend},
				{ID: "backend::app", Type: graph.GroupBackend},
			},
			Edges: []graph.Edge{{From: "frontend::web", To: "backend::app"}},
		},
	}
}

func TestLoadAll(t *testing.T) {
	src := sampleSource()
	c := newController(src)
	if err := c.LoadAll(context.Background()); err != nil {
		t.Fatal(err)
	}
	if c.Buffer() != src.config {
		t.Errorf("buffer = %q", c.Buffer())
	}
	if c.Dirty() {
		t.Error("freshly loaded buffer is dirty")
	}
	if c.Document() == nil || c.Document().Entry != "frontend::web" {
		t.Errorf("document = %+v", c.Document())
	}
	if _, ok := c.Renderer().Views(); !ok {
		t.Error("views not rendered")
	}
}

func TestLoadAllFailureKeepsState(t *testing.T) {
	src := sampleSource()
	c := newController(src)
	ctx := context.Background()
	if err := c.LoadAll(ctx); err != nil {
		t.Fatal(err)
	}
	c.SetBuffer("edited")
	views, _ := c.Renderer().Views()
	before := views.Main.Model()

	src.loadErr = errors.New("connection refused")
	if err := c.LoadAll(ctx); err == nil {
		t.Fatal("expected error")
	}
	if c.Buffer() != "edited" {
		t.Errorf("buffer = %q, want edits kept", c.Buffer())
	}
	if views.Main.Model() != before {
		t.Error("failed load replaced the rendered model")
	}
}

func TestSaveFailureKeepsEdits(t *testing.T) {
	src := sampleSource()
	var notices []Notice
	c := newController(src, WithNotifier(NotifyFunc(func(n Notice) { notices = append(notices, n) })))
	ctx := context.Background()
	if err := c.LoadAll(ctx); err != nil {
		t.Fatal(err)
	}
	configLoads, graphLoads := src.configLoads, src.graphLoads

	c.SetBuffer("frontend web\n  default_backend new\n")
	src.saveErr = errors.New("POST /api/config: status 500")

	res, err := c.Save(ctx)
	if err == nil || res != SaveFailed {
		t.Fatalf("Save = %v, %v; want failure", res, err)
	}
	if c.Buffer() != "frontend web\n  default_backend new\n" {
		t.Errorf("buffer = %q, want unsaved edits", c.Buffer())
	}
	if len(notices) != 1 || notices[0].Level != LevelError || notices[0].Message != "Save failed" {
		t.Errorf("notices = %+v", notices)
	}
	if src.configLoads != configLoads || src.graphLoads != graphLoads {
		t.Error("failed save triggered a re-fetch")
	}
}

func TestSaveSuccessReloads(t *testing.T) {
	src := sampleSource()
	c := newController(src)
	ctx := context.Background()
	if err := c.LoadAll(ctx); err != nil {
		t.Fatal(err)
	}
	c.SetBuffer("backend app\n")

	res, err := c.Save(ctx)
	if err != nil || res != Saved {
		t.Fatalf("Save = %v, %v", res, err)
	}
	if len(src.saved) != 1 || src.saved[0] != "backend app\n" {
		t.Errorf("saved = %q", src.saved)
	}
	if src.configLoads != 2 || src.graphLoads != 2 {
		t.Errorf("loads = %d/%d, want a reload after saving", src.configLoads, src.graphLoads)
	}
	if c.Dirty() {
		t.Error("buffer dirty after save and reload")
	}
}

func TestSaveCancelled(t *testing.T) {
	src := sampleSource()
	var prompt string
	c := newController(src, WithConfirmer(ConfirmFunc(func(_ context.Context, p string) bool {
		prompt = p
		return false
	})))
	res, err := c.Save(context.Background())
	if err != nil || res != SaveCancelled {
		t.Errorf("Save = %v, %v; want cancelled", res, err)
	}
	if prompt != SavePrompt {
		t.Errorf("prompt = %q", prompt)
	}
	if len(src.saved) != 0 {
		t.Error("cancelled save reached the source")
	}
}

func TestHandleExternalChange(t *testing.T) {
	src := sampleSource()
	var notices []Notice
	c := newController(src, WithNotifier(NotifyFunc(func(n Notice) { notices = append(notices, n) })))
	ctx := context.Background()
	if err := c.LoadAll(ctx); err != nil {
		t.Fatal(err)
	}

	src.config = "frontend other\n"
	if err := c.HandleExternalChange(ctx); err != nil {
		t.Fatal(err)
	}
	if c.Buffer() != "frontend other\n" {
		t.Errorf("clean buffer not reloaded: %q", c.Buffer())
	}

	c.SetBuffer("my edits")
	src.config = "frontend third\n"
	loads := src.configLoads
	if err := c.HandleExternalChange(ctx); err != nil {
		t.Fatal(err)
	}
	if c.Buffer() != "my edits" || src.configLoads != loads {
		t.Error("dirty buffer was overwritten")
	}
	if last := notices[len(notices)-1]; last.Level != LevelWarn {
		t.Errorf("last notice = %+v, want a warning", last)
	}
}

func TestToggleEditor(t *testing.T) {
	store := prefs.NewFileStore(filepath.Join(t.TempDir(), prefs.FileName))
	c := newController(sampleSource(), WithPrefs(store))

	if !c.EditorVisible() {
		t.Fatal("editor hidden by default")
	}
	visible, err := c.ToggleEditor()
	if err != nil || visible {
		t.Fatalf("ToggleEditor = %v, %v", visible, err)
	}
	if stored, _ := store.EditorVisible(); stored {
		t.Error("toggle not persisted")
	}
	if visible, _ := c.ToggleEditor(); !visible {
		t.Error("second toggle should show the editor")
	}
}
