// Package view keeps a detailed topology view and its overview in sync.
//
// A [Renderer] owns two [View] values, Main and Overview. Each View holds the
// model it displays, the positions computed by a [layout.Engine], a camera
// and a selection. Views are created on the first [Renderer.Render] and then
// updated in place with [View.SetData], so front-ends may keep pointers to
// them and the camera and selection survive reloads.
//
// # Overview navigation
//
// [Renderer.OverviewClick] turns a click on the overview into a camera
// command for the main view: clicking a node focuses the same node in the
// main view, clicking empty canvas moves the main camera to the
// proportionally equivalent point (see [geom.MapPoint]).
//
// # Camera commands
//
// Cameras jump to their target immediately. Every command is also published
// to the optional [CameraObserver] together with its animation duration so
// that a front-end can animate the transition.
package view
