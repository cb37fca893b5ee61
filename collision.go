package main

import "github.com/go-gl/mathgl/mgl64"

// contactSkin keeps resolved positions a hair off the surface so the next
// sweep doesn't start in penetration.
const contactSkin = 1e-4

// AABB is an axis-aligned box in world space
type AABB struct {
	Min, Max mgl64.Vec3
}

// Overlaps reports whether two boxes intersect
func (a AABB) Overlaps(b AABB) bool {
	return a.Min.X() < b.Max.X() && a.Max.X() > b.Min.X() &&
		a.Min.Y() < b.Max.Y() && a.Max.Y() > b.Min.Y() &&
		a.Min.Z() < b.Max.Z() && a.Max.Z() > b.Min.Z()
}

// Center returns the box center point
func (a AABB) Center() mgl64.Vec3 {
	return a.Min.Add(a.Max).Mul(0.5)
}

// Capsule is the kinematic player volume, swept as its bounding box.
// Position is the feet point (bottom center).
type Capsule struct {
	Radius float64
	Height float64
}

// DefaultCapsule is the standing player capsule
var DefaultCapsule = Capsule{Radius: 0.4, Height: 1.8}

func (c Capsule) bounds(pos mgl64.Vec3) AABB {
	return AABB{
		Min: mgl64.Vec3{pos.X() - c.Radius, pos.Y(), pos.Z() - c.Radius},
		Max: mgl64.Vec3{pos.X() + c.Radius, pos.Y() + c.Height, pos.Z() + c.Radius},
	}
}

// StaticWorld is the immutable collision geometry of a session: a ground
// plane at y=0, a square boundary, and a set of solid boxes.
type StaticWorld struct {
	Extent      float64 // half-extent of the play area on X and Z
	Boxes       []AABB
	SpawnPoints []mgl64.Vec3
}

// MoveResult is the outcome of one swept move
type MoveResult struct {
	Position mgl64.Vec3
	Grounded bool
	HitX     bool
	HitY     bool
	HitZ     bool
}

// MoveCapsule sweeps the capsule by delta, resolving each axis in a fixed
// X, Z, Y order against the boxes, boundary and ground plane. The grounded
// flag for the next frame is read back from the vertical resolution.
func (w *StaticWorld) MoveCapsule(c Capsule, pos, delta mgl64.Vec3) MoveResult {
	half := mgl64.Vec3{c.Radius, c.Height / 2, c.Radius}
	center := pos.Add(mgl64.Vec3{0, c.Height / 2, 0})
	res := w.sweep(center, half, delta)
	res.Position = res.Position.Sub(mgl64.Vec3{0, c.Height / 2, 0})
	return res
}

// MoveBody sweeps a box body (center position, half extents) by delta.
func (w *StaticWorld) MoveBody(half, pos, delta mgl64.Vec3) MoveResult {
	return w.sweep(pos, half, delta)
}

// sweep resolves a centered box moving by delta, one axis at a time.
func (w *StaticWorld) sweep(center, half, delta mgl64.Vec3) MoveResult {
	res := MoveResult{}

	// X axis
	x := center.X() + delta.X()
	if w.Extent > 0 {
		x = Clamp(x, -w.Extent+half.X(), w.Extent-half.X())
	}
	for _, b := range w.Boxes {
		if !boxOverlap(mgl64.Vec3{x, center.Y(), center.Z()}, half, b) {
			continue
		}
		res.HitX = true
		if delta.X() > 0 {
			x = b.Min.X() - half.X() - contactSkin
		} else if delta.X() < 0 {
			x = b.Max.X() + half.X() + contactSkin
		}
	}
	if x != center.X()+delta.X() {
		res.HitX = true
	}
	center = mgl64.Vec3{x, center.Y(), center.Z()}

	// Z axis
	z := center.Z() + delta.Z()
	if w.Extent > 0 {
		z = Clamp(z, -w.Extent+half.Z(), w.Extent-half.Z())
	}
	for _, b := range w.Boxes {
		if !boxOverlap(mgl64.Vec3{center.X(), center.Y(), z}, half, b) {
			continue
		}
		res.HitZ = true
		if delta.Z() > 0 {
			z = b.Min.Z() - half.Z() - contactSkin
		} else if delta.Z() < 0 {
			z = b.Max.Z() + half.Z() + contactSkin
		}
	}
	if z != center.Z()+delta.Z() {
		res.HitZ = true
	}
	center = mgl64.Vec3{center.X(), center.Y(), z}

	// Y axis: ground plane, box tops and box bottoms
	y := center.Y() + delta.Y()
	if delta.Y() <= 0 && y-half.Y() <= 0 {
		y = half.Y()
		res.Grounded = true
		res.HitY = true
	}
	for _, b := range w.Boxes {
		if !boxOverlap(mgl64.Vec3{center.X(), y, center.Z()}, half, b) {
			continue
		}
		res.HitY = true
		if delta.Y() <= 0 {
			y = b.Max.Y() + half.Y() + contactSkin
			res.Grounded = true
		} else {
			y = b.Min.Y() - half.Y() - contactSkin
		}
	}
	res.Position = mgl64.Vec3{center.X(), y, center.Z()}
	return res
}

func boxOverlap(center, half mgl64.Vec3, b AABB) bool {
	return center.X()-half.X() < b.Max.X() && center.X()+half.X() > b.Min.X() &&
		center.Y()-half.Y() < b.Max.Y() && center.Y()+half.Y() > b.Min.Y() &&
		center.Z()-half.Z() < b.Max.Z() && center.Z()+half.Z() > b.Min.Z()
}
