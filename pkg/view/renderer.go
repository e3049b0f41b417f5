package view

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/haview/pkg/geom"
	"github.com/matzehuels/haview/pkg/graph"
	"github.com/matzehuels/haview/pkg/layout"
	"github.com/matzehuels/haview/pkg/observability"
)

// Timings of the camera animations.
const (
	ClickAnimation      = 300 * time.Millisecond
	InitialFocusDelay   = 250 * time.Millisecond
	InitialFocusAnimate = 500 * time.Millisecond
	InitialFocusScale   = 1.0
)

// InitialFocusOffset shifts the entry node towards the top-left corner.
var InitialFocusOffset = geom.Point{X: -250, Y: -250}

// Views bundles the two views handed to front-ends.
type Views struct {
	Main     *View
	Overview *View
}

// ClickEvent is a click on the overview, in coordinates relative to the
// overview's top-left corner.
type ClickEvent struct {
	Pointer geom.Point
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithScheduler sets the scheduler for the delayed initial focus.
func WithScheduler(s Scheduler) Option {
	return func(r *Renderer) { r.scheduler = s }
}

// WithCameraObserver sets the observer notified of camera changes.
func WithCameraObserver(o CameraObserver) Option {
	return func(r *Renderer) { r.observer = o }
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(r *Renderer) { r.logger = l }
}

// WithConfigs overrides the view configurations.
func WithConfigs(main, overview Config) Option {
	return func(r *Renderer) {
		r.mainCfg = main
		r.overviewCfg = overview
	}
}

// Renderer lays out documents and keeps the main view and the overview
// consistent.
type Renderer struct {
	engine      layout.Engine
	mainCfg     Config
	overviewCfg Config
	scheduler   Scheduler
	observer    CameraObserver
	logger      *log.Logger

	mu             sync.Mutex
	views          *Views
	focusScheduled bool
}

// NewRenderer returns a renderer that lays out with engine.
func NewRenderer(engine layout.Engine, opts ...Option) *Renderer {
	r := &Renderer{
		engine:      engine,
		mainCfg:     MainConfig(),
		overviewCfg: OverviewConfig(),
		scheduler:   TimerScheduler{},
		logger:      log.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Views returns the views, or false before the first successful render.
func (r *Renderer) Views() (Views, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.views == nil {
		return Views{}, false
	}
	return *r.views, true
}

// Render lays out both models of doc and shows them. The views are created
// on the first call and updated in place afterwards. If either layout fails
// neither view changes.
func (r *Renderer) Render(ctx context.Context, doc *graph.Document) (err error) {
	start := time.Now()
	nodes, edges := 0, 0
	defer func() {
		observability.View().OnRender(ctx, nodes, edges, time.Since(start), err)
	}()

	if doc == nil || doc.Main == nil || doc.Overview == nil {
		return fmt.Errorf("render: %w", ErrNoDocument)
	}
	nodes, edges = len(doc.Main.Nodes), len(doc.Main.Edges)

	mainPos, err := r.layout(ctx, r.mainCfg, doc.Main)
	if err != nil {
		return err
	}
	overviewPos, err := r.layout(ctx, r.overviewCfg, doc.Overview)
	if err != nil {
		return err
	}

	r.mu.Lock()
	if r.views == nil {
		r.views = &Views{
			Main:     newView(r.mainCfg, r.observer),
			Overview: newView(r.overviewCfg, r.observer),
		}
	}
	views := *r.views
	scheduleFocus := !r.focusScheduled && doc.Entry != ""
	if scheduleFocus {
		r.focusScheduled = true
	}
	r.mu.Unlock()

	views.Main.SetData(doc.Main, mainPos)
	views.Overview.SetData(doc.Overview, overviewPos)

	if scheduleFocus {
		entry := doc.Entry
		r.scheduler.AfterFunc(InitialFocusDelay, func() {
			if _, ok := views.Main.Focus(entry, InitialFocusScale, InitialFocusOffset, InitialFocusAnimate); !ok {
				r.logger.Debug("initial focus target vanished", "node", entry)
			}
		})
	}
	return nil
}

func (r *Renderer) layout(ctx context.Context, cfg Config, m *graph.Model) (layout.Positions, error) {
	observability.View().OnLayoutStart(ctx, cfg.Name, len(m.Nodes))
	start := time.Now()
	pos, err := r.engine.Layout(ctx, m, cfg.Layout)
	observability.View().OnLayoutComplete(ctx, cfg.Name, time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("layout %s view: %w", cfg.Name, err)
	}
	return pos, nil
}

// OverviewClick moves the main camera in response to a click on the
// overview. A click on a node focuses that node; a click on empty canvas
// moves to the proportional point of the main view. The scale is kept.
// It reports false before the first render.
func (r *Renderer) OverviewClick(ev ClickEvent) (CameraCommand, bool) {
	views, ok := r.Views()
	if !ok {
		return CameraCommand{}, false
	}
	main, overview := views.Main, views.Overview
	scale := main.Scale()
	canvas := overview.DOMToCanvas(ev.Pointer)

	if id, hit := overview.NodeAt(canvas); hit {
		if cmd, ok := main.Focus(id, scale, geom.Point{}, ClickAnimation); ok {
			return cmd, true
		}
	}

	target := geom.MapPoint(canvas, overview, main)
	return main.MoveTo(target, scale, ClickAnimation), true
}
