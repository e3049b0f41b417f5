package view

import (
	"slices"
	"sync"
	"time"

	"github.com/matzehuels/haview/pkg/geom"
	"github.com/matzehuels/haview/pkg/graph"
	"github.com/matzehuels/haview/pkg/layout"
)

// Camera is the canvas point shown at the center of the viewport and the
// zoom factor (screen units per canvas unit).
type Camera struct {
	Position geom.Point
	Scale    float64
}

// CommandKind identifies a camera command.
type CommandKind string

const (
	CommandFocus  CommandKind = "focus"
	CommandMoveTo CommandKind = "moveTo"
	CommandFit    CommandKind = "fit"
)

// CameraCommand describes one camera change of a view.
type CameraCommand struct {
	View     string
	Kind     CommandKind
	NodeID   string // set for CommandFocus
	Target   geom.Point
	Scale    float64
	Offset   geom.Point // screen offset of the focused node from the center
	Duration time.Duration
	From     Camera
	To       Camera
}

// CameraObserver is notified after a view's camera changed.
type CameraObserver interface {
	OnCamera(cmd CameraCommand)
}

// CameraObserverFunc adapts a function to CameraObserver.
type CameraObserverFunc func(CameraCommand)

// OnCamera implements CameraObserver.
func (f CameraObserverFunc) OnCamera(cmd CameraCommand) { f(cmd) }

// View is the state of one rendered graph view. All methods are safe for
// concurrent use.
type View struct {
	cfg      Config
	observer CameraObserver

	mu        sync.RWMutex
	model     *graph.Model
	positions layout.Positions
	camera    Camera
	fitted    bool
	selection []string
	viewport  geom.Point
}

func newView(cfg Config, observer CameraObserver) *View {
	return &View{
		cfg:      cfg,
		observer: observer,
		camera:   Camera{Scale: 1},
	}
}

// Name returns the view name.
func (v *View) Name() string { return v.cfg.Name }

// Config returns the view configuration.
func (v *View) Config() Config { return v.cfg }

// SetData replaces the model and positions. The camera is kept; the
// selection keeps only ids that still exist. The first call fits the
// camera to the content.
func (v *View) SetData(m *graph.Model, pos layout.Positions) {
	v.mu.Lock()
	v.model = m
	v.positions = pos
	v.selection = slices.DeleteFunc(v.selection, func(id string) bool {
		_, ok := pos[id]
		return !ok
	})
	var cmd *CameraCommand
	if !v.fitted {
		v.fitted = true
		c := v.fitLocked()
		cmd = &c
	}
	v.mu.Unlock()

	if cmd != nil {
		v.publish(*cmd)
	}
}

// Model returns the displayed model.
func (v *View) Model() *graph.Model {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.model
}

// NodeIDs implements geom.PositionSource.
func (v *View) NodeIDs() []string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.model.NodeIDs()
}

// Position implements geom.PositionSource.
func (v *View) Position(id string) (geom.Point, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	p, ok := v.positions[id]
	return p, ok
}

// Positions returns a copy of all node positions.
func (v *View) Positions() layout.Positions {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make(layout.Positions, len(v.positions))
	for id, p := range v.positions {
		out[id] = p
	}
	return out
}

// Bounds returns the bounding box of the laid-out nodes.
func (v *View) Bounds() (geom.Bounds, bool) {
	return geom.ComputeBounds(v)
}

// Camera returns the current camera.
func (v *View) Camera() Camera {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.camera
}

// Scale returns the current zoom factor.
func (v *View) Scale() float64 { return v.Camera().Scale }

// SetViewport sets the on-screen size of the view.
func (v *View) SetViewport(width, height float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.viewport = geom.Point{X: width, Y: height}
}

// Viewport returns the on-screen size of the view.
func (v *View) Viewport() geom.Point {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.viewport
}

// Select replaces the selection. Unknown ids are ignored; views that are not
// selectable keep an empty selection.
func (v *View) Select(ids ...string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.cfg.Interaction.Selectable {
		return
	}
	v.selection = v.selection[:0]
	for _, id := range ids {
		if _, ok := v.positions[id]; ok && !slices.Contains(v.selection, id) {
			v.selection = append(v.selection, id)
		}
	}
}

// Selection returns the selected node ids.
func (v *View) Selection() []string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return slices.Clone(v.selection)
}

// Focus centers the camera on a node, shifted by offset screen units, at
// the given scale. A non-positive scale keeps the current one. It reports
// false if the node has no position.
func (v *View) Focus(id string, scale float64, offset geom.Point, d time.Duration) (CameraCommand, bool) {
	v.mu.Lock()
	p, ok := v.positions[id]
	if !ok {
		v.mu.Unlock()
		return CameraCommand{}, false
	}
	from := v.camera
	if scale <= 0 {
		scale = from.Scale
	}
	v.camera = Camera{Position: p.Sub(offset.Scale(1 / scale)), Scale: scale}
	cmd := CameraCommand{
		View: v.cfg.Name, Kind: CommandFocus, NodeID: id, Target: p,
		Scale: scale, Offset: offset, Duration: d, From: from, To: v.camera,
	}
	v.mu.Unlock()

	v.publish(cmd)
	return cmd, true
}

// MoveTo centers the camera on a canvas point at the given scale. A
// non-positive scale keeps the current one.
func (v *View) MoveTo(target geom.Point, scale float64, d time.Duration) CameraCommand {
	v.mu.Lock()
	from := v.camera
	if scale <= 0 {
		scale = from.Scale
	}
	v.camera = Camera{Position: target, Scale: scale}
	cmd := CameraCommand{
		View: v.cfg.Name, Kind: CommandMoveTo, Target: target,
		Scale: scale, Duration: d, From: from, To: v.camera,
	}
	v.mu.Unlock()

	v.publish(cmd)
	return cmd
}

// Pan moves the camera by a screen-space delta. Views without pan
// interaction ignore it.
func (v *View) Pan(dx, dy float64) {
	if !v.cfg.Interaction.Pan {
		return
	}
	c := v.Camera()
	v.MoveTo(c.Position.Add(geom.Point{X: dx, Y: dy}.Scale(1/c.Scale)), c.Scale, 0)
}

// Zoom multiplies the scale by factor. Views without zoom interaction
// ignore it.
func (v *View) Zoom(factor float64) {
	if !v.cfg.Interaction.Zoom || factor <= 0 {
		return
	}
	c := v.Camera()
	v.MoveTo(c.Position, c.Scale*factor, 0)
}

// Fit centers the content and scales it to the viewport.
func (v *View) Fit() {
	v.mu.Lock()
	cmd := v.fitLocked()
	v.mu.Unlock()
	v.publish(cmd)
}

func (v *View) fitLocked() CameraCommand {
	from := v.camera
	b, ok := geom.ComputeBounds(lockedSource{v})
	if ok {
		scale := 1.0
		if v.viewport.X > 0 && v.viewport.Y > 0 {
			scale = min(v.viewport.X/b.Width(), v.viewport.Y/b.Height())
		}
		v.camera = Camera{Position: b.Center(), Scale: scale}
	}
	return CameraCommand{
		View: v.cfg.Name, Kind: CommandFit, Target: v.camera.Position,
		Scale: v.camera.Scale, From: from, To: v.camera,
	}
}

// DOMToCanvas converts a point relative to the view's top-left corner into
// canvas coordinates.
func (v *View) DOMToCanvas(p geom.Point) geom.Point {
	v.mu.RLock()
	defer v.mu.RUnlock()
	center := v.viewport.Scale(0.5)
	return p.Sub(center).Scale(1 / v.camera.Scale).Add(v.camera.Position)
}

// CanvasToDOM converts canvas coordinates into a point relative to the
// view's top-left corner.
func (v *View) CanvasToDOM(p geom.Point) geom.Point {
	v.mu.RLock()
	defer v.mu.RUnlock()
	center := v.viewport.Scale(0.5)
	return p.Sub(v.camera.Position).Scale(v.camera.Scale).Add(center)
}

// NodeAt returns the topmost node whose extent contains the canvas point.
// Later nodes are drawn on top of earlier ones.
func (v *View) NodeAt(p geom.Point) (string, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.model == nil {
		return "", false
	}
	for i := len(v.model.Nodes) - 1; i >= 0; i-- {
		n := v.model.Nodes[i]
		pos, ok := v.positions[n.ID]
		if !ok {
			continue
		}
		hw, hh := v.cfg.hitSize(n.Group)
		if p.X >= pos.X-hw && p.X <= pos.X+hw && p.Y >= pos.Y-hh && p.Y <= pos.Y+hh {
			return n.ID, true
		}
	}
	return "", false
}

func (v *View) publish(cmd CameraCommand) {
	if v.observer != nil {
		v.observer.OnCamera(cmd)
	}
}

// lockedSource reads positions of a view whose lock is already held.
type lockedSource struct{ v *View }

func (s lockedSource) NodeIDs() []string { return s.v.model.NodeIDs() }

func (s lockedSource) Position(id string) (geom.Point, bool) {
	p, ok := s.v.positions[id]
	return p, ok
}
