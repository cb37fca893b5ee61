package main

import "github.com/go-gl/mathgl/mgl64"

// HoldableArchetype defines one kind of grabbable prop: its physical
// parameters and the grip metadata the presentation layer resolves off the
// replicated held-object reference.
type HoldableArchetype struct {
	ID          string
	Name        string
	Mass        float64    // kg; at or above DragMassThreshold defaults to Drag
	Half        mgl64.Vec3 // half extents, meters
	GripOffset  mgl64.Vec3 // hand anchor relative to body center
	LinearDrag  float64    // resting drag, restored after release
	AngularDrag float64
}

// HoldableCatalog is the full list of spawnable props
var HoldableCatalog = []HoldableArchetype{
	{ID: "crate_small", Name: "Small Crate", Mass: 4, Half: mgl64.Vec3{0.25, 0.25, 0.25}, GripOffset: mgl64.Vec3{0, 0.25, 0}, LinearDrag: 0.4, AngularDrag: 0.8},
	{ID: "crate_large", Name: "Large Crate", Mass: 18, Half: mgl64.Vec3{0.5, 0.5, 0.5}, GripOffset: mgl64.Vec3{0, 0.5, 0}, LinearDrag: 0.6, AngularDrag: 1.0},
	{ID: "barrel", Name: "Barrel", Mass: 25, Half: mgl64.Vec3{0.35, 0.5, 0.35}, GripOffset: mgl64.Vec3{0, 0.5, 0}, LinearDrag: 0.5, AngularDrag: 0.6},
	{ID: "cinder_block", Name: "Cinder Block", Mass: 11, Half: mgl64.Vec3{0.2, 0.1, 0.1}, GripOffset: mgl64.Vec3{0, 0.1, 0}, LinearDrag: 0.8, AngularDrag: 1.2},
	{ID: "chair", Name: "Folding Chair", Mass: 5, Half: mgl64.Vec3{0.25, 0.45, 0.25}, GripOffset: mgl64.Vec3{0, 0.2, 0}, LinearDrag: 0.7, AngularDrag: 1.0},
	{ID: "sofa", Name: "Sofa", Mass: 45, Half: mgl64.Vec3{1.0, 0.4, 0.45}, GripOffset: mgl64.Vec3{0.8, 0.4, 0}, LinearDrag: 1.2, AngularDrag: 1.5},
	{ID: "traffic_cone", Name: "Traffic Cone", Mass: 2, Half: mgl64.Vec3{0.2, 0.35, 0.2}, GripOffset: mgl64.Vec3{0, 0.3, 0}, LinearDrag: 0.9, AngularDrag: 1.4},
	{ID: "propane_tank", Name: "Propane Tank", Mass: 9, Half: mgl64.Vec3{0.15, 0.3, 0.15}, GripOffset: mgl64.Vec3{0, 0.3, 0}, LinearDrag: 0.3, AngularDrag: 0.5},
}

// HoldableCatalogMap provides O(1) lookup by archetype ID
var HoldableCatalogMap map[string]*HoldableArchetype

func init() {
	HoldableCatalogMap = make(map[string]*HoldableArchetype, len(HoldableCatalog))
	for i := range HoldableCatalog {
		HoldableCatalogMap[HoldableCatalog[i].ID] = &HoldableCatalog[i]
	}
}

// ResolveArchetype returns the archetype for an ID, or nil
func ResolveArchetype(id string) *HoldableArchetype {
	return HoldableCatalogMap[id]
}

// arenaProps is the fixed prop layout spawned into every session
var arenaProps = []struct {
	archetype string
	x, z      float64
}{
	{"crate_small", 3, 6},
	{"crate_small", -3, 6},
	{"crate_large", 6, -6},
	{"barrel", -6, -6},
	{"barrel", -6, -8},
	{"cinder_block", 10, 4},
	{"chair", -10, 4},
	{"chair", -10, 6},
	{"sofa", 0, -12},
	{"traffic_cone", 14, 0},
	{"traffic_cone", 14, 2},
	{"propane_tank", -14, 0},
}

// SpawnHoldables builds the session's prop set, resting on the ground plane
func SpawnHoldables() []*Holdable {
	out := make([]*Holdable, 0, len(arenaProps))
	for _, p := range arenaProps {
		arch := ResolveArchetype(p.archetype)
		if arch == nil {
			continue
		}
		pos := mgl64.Vec3{p.x, arch.Half.Y(), p.z}
		out = append(out, NewHoldable(arch, pos))
	}
	return out
}
