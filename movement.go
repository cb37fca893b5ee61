package main

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// speedEpsilon snaps residual horizontal speed to exactly zero once the
// capped deceleration step has brought it under this bound. Both the server
// and the predictor run this, so neither side carries a creeping remainder
// the other doesn't.
const speedEpsilon = 1e-3

// MotionState is the per-actor kinematic state carried between steps.
// Mutated only inside Step; position is owned by the collision layer.
type MotionState struct {
	HorizontalVelocity mgl64.Vec3 // y component always zero
	VerticalVelocity   float64
}

// StepResult is the outcome of one simulation step
type StepResult struct {
	Motion   MotionState
	Position mgl64.Vec3
	Grounded bool // read back from the swept move, feeds the next step
	Jumped   bool // a jump was triggered this step
	Speed    float64
}

// Step advances one actor by dt. It is the single movement integration used
// everywhere: the server runs it per tick with the latest received snapshot,
// and the owning client runs the same function ahead of confirmation to
// predict its own movement. Constants and branch order are therefore shared
// by construction.
func Step(w *StaticWorld, c Capsule, pos mgl64.Vec3, motion MotionState, in InputSnapshot, grounded bool, tuning *MovementTuning, dt float64) StepResult {
	// 1. Target speed from flags. Crouch beats sprint when both are set.
	target := tuning.WalkSpeed
	if in.Sprint {
		target = tuning.SprintSpeed
	}
	if in.Crouch {
		target = tuning.CrouchSpeed
	}

	// 2. Desired horizontal velocity: move vector rotated around aim yaw.
	// Movement is always relative to absolute aim yaw; body facing follows.
	desired := rotateMoveByYaw(in.Move, in.AimYaw).Mul(target)
	moving := in.Move.Len() >= inputEpsilon

	// 3. Accel table: grounded vs airborne, moving vs stopping.
	var accel float64
	switch {
	case grounded && moving:
		accel = tuning.GroundAccel
	case grounded && !moving:
		accel = tuning.GroundDecel
	case !grounded && moving:
		accel = tuning.AirAccel
	default:
		accel = tuning.AirDecel
	}

	// 4. Capped linear step toward desired (toward zero when stopping).
	maxDelta := accel * dt
	hv := mgl64.Vec3{
		MoveToward(motion.HorizontalVelocity.X(), desired.X(), maxDelta),
		0,
		MoveToward(motion.HorizontalVelocity.Z(), desired.Z(), maxDelta),
	}
	if !moving && hv.Len() < speedEpsilon {
		hv = mgl64.Vec3{}
	}

	// 5. Vertical: grounded stick, jump trigger, then gravity always —
	// gravity applies in the same frame as the jump, by contract.
	vv := motion.VerticalVelocity
	jumped := false
	if grounded && vv < 0 {
		vv = tuning.GroundedStick
	}
	if in.Jump && grounded {
		vv = tuning.JumpSpeed
		jumped = true
	}
	vv += tuning.Gravity * dt

	// 6. Swept capsule integration; grounded for next frame comes from the
	// move's own collision response.
	delta := hv.Add(mgl64.Vec3{0, vv, 0}).Mul(dt)
	moved := w.MoveCapsule(c, pos, delta)
	if moved.HitX {
		hv = mgl64.Vec3{0, 0, hv.Z()}
	}
	if moved.HitZ {
		hv = mgl64.Vec3{hv.X(), 0, 0}
	}
	if moved.HitY && vv > 0 {
		vv = 0 // ceiling
	}

	return StepResult{
		Motion:   MotionState{HorizontalVelocity: hv, VerticalVelocity: vv},
		Position: moved.Position,
		Grounded: moved.Grounded,
		Jumped:   jumped,
		Speed:    hv.Len(),
	}
}

// rotateMoveByYaw maps a local move vector (x strafe, y forward) onto the
// horizontal world plane, rotated around the given yaw in degrees.
func rotateMoveByYaw(move mgl64.Vec2, yawDeg float64) mgl64.Vec3 {
	yaw := mgl64.DegToRad(yawDeg)
	sin, cos := math.Sin(yaw), math.Cos(yaw)
	// forward at yaw=0 is +Z, yaw increases clockwise looking down
	fx, fz := sin, cos
	rx, rz := cos, -sin
	return mgl64.Vec3{
		move.X()*rx + move.Y()*fx,
		0,
		move.X()*rz + move.Y()*fz,
	}
}
