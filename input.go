package main

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// InputSnapshot is one tick of client intent. It is a value type: built once
// per simulation frame by the owning client, consumed exactly once by the
// server simulator, never mutated after creation.
//
// Snapshots may arrive out of order; the server always simulates with the
// latest received one and never queues a backlog.
type InputSnapshot struct {
	Tick     uint32     // monotonic, owner-local counter
	Move     mgl64.Vec2 // x = strafe, y = forward; magnitude clamped to 1
	AimYaw   float64    // degrees, absolute world-space
	AimPitch float64    // degrees, clamped to tuning pitch limits
	Jump     bool
	Sprint   bool
	Crouch   bool
	Fire     bool
}

// inputEpsilon snaps tiny residual stick input to exactly zero so the
// server and predictor agree bit-for-bit on "no input".
const inputEpsilon = 1e-3

// Sanitized returns a copy with the move vector clamped to unit magnitude,
// tiny input snapped to zero, and pitch clamped to the tuning limits.
func (in InputSnapshot) Sanitized(tuning *MovementTuning) InputSnapshot {
	out := in
	if l := out.Move.Len(); l > 1 {
		out.Move = out.Move.Mul(1 / l)
	} else if l < inputEpsilon {
		out.Move = mgl64.Vec2{}
	}
	out.AimYaw = NormalizeDeg(out.AimYaw)
	if tuning != nil {
		out.AimPitch = Clamp(out.AimPitch, tuning.PitchMin, tuning.PitchMax)
	}
	if math.IsNaN(out.Move.X()) || math.IsNaN(out.Move.Y()) ||
		math.IsNaN(out.AimYaw) || math.IsNaN(out.AimPitch) {
		return IdleSnapshot(out.Tick, 0, 0)
	}
	return out
}

// IdleSnapshot is the stop snapshot a client sends on pause: no movement,
// no actions, aim frozen at the given angles.
func IdleSnapshot(tick uint32, aimYaw, aimPitch float64) InputSnapshot {
	return InputSnapshot{Tick: tick, AimYaw: aimYaw, AimPitch: aimPitch}
}
