package main

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func testCrate(t *testing.T, archID string, pos mgl64.Vec3) *Holdable {
	t.Helper()
	arch := ResolveArchetype(archID)
	if arch == nil {
		t.Fatalf("unknown archetype %q", archID)
	}
	return NewHoldable(arch, pos)
}

func TestHoldExclusivity(t *testing.T) {
	h := testCrate(t, "crate_small", mgl64.Vec3{0, 1, 0})

	if !h.TryStartHold("p1", mgl64.Vec3{0, 1, 1}, HoldCarry) {
		t.Fatal("first grab should succeed")
	}
	if h.TryStartHold("p2", mgl64.Vec3{0, 1, 2}, HoldCarry) {
		t.Error("second grab on a held object should fail")
	}
	if h.HolderID() != "p1" {
		t.Errorf("holder %q, want p1", h.HolderID())
	}
	if h.Mode() != HoldCarry {
		t.Errorf("mode %v, want carry", h.Mode())
	}
}

func TestGrabRejectsBadArguments(t *testing.T) {
	h := testCrate(t, "crate_small", mgl64.Vec3{})
	if h.TryStartHold("p1", mgl64.Vec3{}, HoldNone) {
		t.Error("grab with mode none should fail")
	}
	if h.TryStartHold(NoHolder, mgl64.Vec3{}, HoldCarry) {
		t.Error("grab with empty requester should fail")
	}
	if h.HolderID() != NoHolder || h.Mode() != HoldNone {
		t.Error("failed grab must leave state untouched")
	}
}

func TestReleaseRestoresDefaults(t *testing.T) {
	h := testCrate(t, "barrel", mgl64.Vec3{0, 1, 0})
	wantGravity := h.Body.GravityOn
	wantLin := h.Body.LinearDrag
	wantAng := h.Body.AngularDrag

	h.TryStartHold("p1", mgl64.Vec3{0, 2, 0}, HoldCarry)
	if h.Body.GravityOn != CarryProfile.Gravity || h.Body.LinearDrag != CarryProfile.LinearDrag {
		t.Fatal("carry profile not applied on grab")
	}

	// Switch modes a few times; release must still restore the pre-grab
	// profile, not whichever profile was last applied.
	h.SetMode("p1", HoldDrag)
	h.SetMode("p1", HoldCarry)
	h.SetMode("p1", HoldDrag)
	h.Release()

	if h.Body.GravityOn != wantGravity || h.Body.LinearDrag != wantLin || h.Body.AngularDrag != wantAng {
		t.Errorf("release restored gravity=%v lin=%f ang=%f, want %v/%f/%f",
			h.Body.GravityOn, h.Body.LinearDrag, h.Body.AngularDrag, wantGravity, wantLin, wantAng)
	}
	if h.HolderID() != NoHolder || h.Mode() != HoldNone {
		t.Error("release must clear holder and mode")
	}
}

func TestSetModeNoneReleases(t *testing.T) {
	h := testCrate(t, "crate_small", mgl64.Vec3{0, 1, 0})
	h.TryStartHold("p1", mgl64.Vec3{0, 1, 1}, HoldCarry)
	h.SetMode("p1", HoldNone)
	if h.HolderID() != NoHolder || h.Mode() != HoldNone {
		t.Error("setting mode none should release")
	}
}

func TestNonHolderMutationsIgnored(t *testing.T) {
	h := testCrate(t, "crate_small", mgl64.Vec3{0, 1, 0})
	h.TryStartHold("p1", mgl64.Vec3{0, 1, 1}, HoldCarry)

	h.UpdateTarget("p2", mgl64.Vec3{9, 9, 9})
	if h.target != (mgl64.Vec3{0, 1, 1}) {
		t.Error("non-holder target update should be ignored")
	}
	h.SetMode("p2", HoldDrag)
	if h.Mode() != HoldCarry {
		t.Error("non-holder mode change should be ignored")
	}
	if h.Throw("p2", mgl64.Vec3{100, 0, 0}) {
		t.Error("non-holder throw should fail")
	}
	if h.HolderID() != "p1" {
		t.Error("object should still be held by p1")
	}
}

func TestBreakDistanceForcesRelease(t *testing.T) {
	w := flatWorld()
	h := testCrate(t, "crate_small", mgl64.Vec3{0, 1, 0})
	h.TryStartHold("p1", mgl64.Vec3{0, 1, 1}, HoldCarry)

	// Holder target yanked beyond break distance: the very next tick must
	// release, before any spring pull happens.
	h.UpdateTarget("p1", mgl64.Vec3{0, 1, CarryProfile.BreakDistance + 1})
	velBefore := h.Body.Velocity

	broke := h.Tick(w, 1.0/60.0)
	if !broke {
		t.Fatal("tick should report a break release")
	}
	if h.HolderID() != NoHolder || h.Mode() != HoldNone {
		t.Error("break must fully release the object")
	}
	if h.Body.Velocity.X() != velBefore.X() || h.Body.Velocity.Z() != velBefore.Z() {
		t.Error("break release must skip the spring pull for that tick")
	}
	if !h.Body.GravityOn {
		t.Error("break release must restore gravity")
	}
}

func TestSpringPullsTowardTarget(t *testing.T) {
	w := flatWorld()
	h := testCrate(t, "crate_small", mgl64.Vec3{0, 1, 0})
	target := mgl64.Vec3{0, 1, 1.5}
	h.TryStartHold("p1", target, HoldCarry)

	dt := 1.0 / 60.0
	for i := 0; i < 120; i++ {
		if h.Tick(w, dt) {
			t.Fatalf("tick %d: unexpected break release", i)
		}
	}
	if d := target.Sub(h.Body.Position).Len(); d > 0.2 {
		t.Errorf("object should settle near target, still %f away", d)
	}
	if h.HolderID() != "p1" {
		t.Error("object should remain held")
	}
}

func TestThrowReleasesThenApplies(t *testing.T) {
	h := testCrate(t, "crate_small", mgl64.Vec3{0, 1, 0})
	h.TryStartHold("p1", mgl64.Vec3{0, 1, 1}, HoldCarry)

	impulse := mgl64.Vec3{0, 0, 40}
	if !h.Throw("p1", impulse) {
		t.Fatal("holder throw should succeed")
	}
	if h.HolderID() != NoHolder {
		t.Error("throw must release")
	}
	if !h.Body.GravityOn {
		t.Error("thrown object must have its default gravity back")
	}
	wantVZ := impulse.Z() / h.Body.Mass
	if h.Body.Velocity.Z() != wantVZ {
		t.Errorf("throw velocity %f, want impulse/mass %f", h.Body.Velocity.Z(), wantVZ)
	}
}

func TestModeForMassThreshold(t *testing.T) {
	cases := []struct {
		mass float64
		want HoldMode
	}{
		{4, HoldCarry},
		{DragMassThreshold - 0.01, HoldCarry},
		{DragMassThreshold, HoldDrag},
		{15, HoldDrag},
		{45, HoldDrag},
	}
	for _, c := range cases {
		if got := ModeForMass(c.mass); got != c.want {
			t.Errorf("mass %f: mode %v, want %v", c.mass, got, c.want)
		}
	}
}

func TestHeavyArchetypeDrags(t *testing.T) {
	sofa := ResolveArchetype("sofa")
	if sofa == nil {
		t.Fatal("sofa archetype missing")
	}
	if ModeForMass(sofa.Mass) != HoldDrag {
		t.Error("sofa should be drag-only")
	}
	cone := ResolveArchetype("traffic_cone")
	if cone == nil {
		t.Fatal("traffic_cone archetype missing")
	}
	if ModeForMass(cone.Mass) != HoldCarry {
		t.Error("traffic cone should be carriable")
	}
}
