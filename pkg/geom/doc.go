// Package geom computes view bounds and maps points between two views.
//
// Both the main view and the overview are laid out independently, so the
// same node sits at different coordinates in each. [ComputeBounds] finds
// the axis-aligned box around a view's positioned nodes, and [MapPoint]
// translates a point proportionally from one box into another.
//
// Missing geometry is not an error: [ComputeBounds] reports absence with a
// false second return, and [MapPoint] falls back to the identity.
package geom
