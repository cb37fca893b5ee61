package main

import "github.com/go-gl/mathgl/mgl64"

// NoHolder is the sentinel holder id for an unheld object
const NoHolder = ""

// physicalDefaults is the pre-hold physical profile cached at grab start and
// restored exactly on release, so repeated grab cycles don't drift gravity
// or drag.
type physicalDefaults struct {
	gravityOn   bool
	linearDrag  float64
	angularDrag float64
}

// Holdable is a rigid body one actor may claim exclusive manipulation
// rights over. All mutation happens on the server tick; requester identity
// gates target and mode updates, not locking.
//
// Invariant: holderID != NoHolder iff mode != HoldNone.
type Holdable struct {
	ID        string
	Archetype string
	Body      RigidBody

	holderID string
	mode     HoldMode

	// target is simulation-internal: set at grab, refreshed by the holder's
	// periodic updates, never replicated.
	target    mgl64.Vec3
	hasTarget bool

	defaults physicalDefaults
}

// NewHoldable spawns a holdable of the given archetype at a position
func NewHoldable(arch *HoldableArchetype, pos mgl64.Vec3) *Holdable {
	return &Holdable{
		ID:        GenerateID(4),
		Archetype: arch.ID,
		Body: RigidBody{
			Position:    pos,
			Half:        arch.Half,
			Mass:        arch.Mass,
			GravityOn:   true,
			LinearDrag:  arch.LinearDrag,
			AngularDrag: arch.AngularDrag,
		},
	}
}

// HolderID returns the current holder, or NoHolder
func (h *Holdable) HolderID() string { return h.holderID }

// Mode returns the current hold mode
func (h *Holdable) Mode() HoldMode { return h.mode }

// TryStartHold claims the object for requesterID. Fails with no state change
// if the object is already held or the mode is HoldNone.
func (h *Holdable) TryStartHold(requesterID string, initialTarget mgl64.Vec3, mode HoldMode) bool {
	if h.holderID != NoHolder || mode == HoldNone || requesterID == NoHolder {
		return false
	}
	h.defaults = physicalDefaults{
		gravityOn:   h.Body.GravityOn,
		linearDrag:  h.Body.LinearDrag,
		angularDrag: h.Body.AngularDrag,
	}
	h.holderID = requesterID
	h.mode = mode
	h.target = initialTarget
	h.hasTarget = true
	h.applyProfile(ProfileFor(mode))
	return true
}

// UpdateTarget refreshes the spring target point. Silently ignored unless
// requesterID is the current holder — an in-flight update from a client that
// just lost the object is stale, not an error.
func (h *Holdable) UpdateTarget(requesterID string, point mgl64.Vec3) {
	if requesterID != h.holderID || h.holderID == NoHolder {
		return
	}
	h.target = point
	h.hasTarget = true
}

// SetMode switches carry↔drag while held, requester-gated the same way.
// HoldNone is equivalent to Release.
func (h *Holdable) SetMode(requesterID string, mode HoldMode) {
	if requesterID != h.holderID || h.holderID == NoHolder {
		return
	}
	if mode == HoldNone {
		h.Release()
		return
	}
	if mode == h.mode {
		return
	}
	h.mode = mode
	h.applyProfile(ProfileFor(mode))
}

// Release clears holder, mode and target and restores the cached pre-hold
// physical defaults exactly.
func (h *Holdable) Release() {
	if h.holderID == NoHolder {
		return
	}
	h.holderID = NoHolder
	h.mode = HoldNone
	h.target = mgl64.Vec3{}
	h.hasTarget = false
	h.Body.GravityOn = h.defaults.gravityOn
	h.Body.LinearDrag = h.defaults.linearDrag
	h.Body.AngularDrag = h.defaults.angularDrag
}

// Throw releases first, then applies the impulse, so the restored profile
// (gravity back on) is in effect when the object leaves the hand.
func (h *Holdable) Throw(requesterID string, impulse mgl64.Vec3) bool {
	if requesterID != h.holderID || h.holderID == NoHolder {
		return false
	}
	h.Release()
	h.Body.ApplyImpulse(impulse)
	return true
}

// Tick runs one server physics step: break-distance safety valve first,
// then the spring-damper control law, then body integration.
// Returns true if the safety valve forced a release this step.
func (h *Holdable) Tick(w *StaticWorld, dt float64) (broke bool) {
	if h.holderID != NoHolder && h.hasTarget {
		prof := ProfileFor(h.mode)
		err := h.target.Sub(h.Body.Position)
		if err.Len() > prof.BreakDistance {
			// Tethering a body through geometry across the map is worse
			// than dropping it.
			h.Release()
			broke = true
		} else {
			accel := err.Mul(prof.Spring).Add(h.Body.Velocity.Mul(-prof.Damping))
			if l := accel.Len(); l > prof.MaxAccel {
				accel = accel.Mul(prof.MaxAccel / l)
			}
			h.Body.Velocity = h.Body.Velocity.Add(accel.Mul(dt))
		}
	}
	h.Body.Integrate(w, dt)
	return broke
}

func (h *Holdable) applyProfile(p HoldProfile) {
	h.Body.GravityOn = p.Gravity
	h.Body.LinearDrag = p.LinearDrag
	h.Body.AngularDrag = p.AngularDrag
}
