package main

import "github.com/go-gl/mathgl/mgl64"

// PredictedPlayer is the owning client's local simulation of its own actor.
// It runs the same Step the server runs — same function, same constants,
// same branch order — ahead of server confirmation, so input feels
// immediate. A Reconciler folds server corrections back in.
type PredictedPlayer struct {
	World   *StaticWorld
	Capsule Capsule
	Tuning  *MovementTuning

	Position mgl64.Vec3
	Motion   MotionState
	Grounded bool

	Reconciler Reconciler

	tick uint32
}

// NewPredictedPlayer starts local prediction from the spawn pose the server
// confirmed at join.
func NewPredictedPlayer(w *StaticWorld, spawn mgl64.Vec3, tuning *MovementTuning) *PredictedPlayer {
	return &PredictedPlayer{
		World:    w,
		Capsule:  DefaultCapsule,
		Tuning:   tuning,
		Position: spawn,
		Grounded: true,
	}
}

// BuildSnapshot stamps the next owner-local tick onto raw input. The
// returned snapshot is what gets fed to Predict and sent to the server.
func (p *PredictedPlayer) BuildSnapshot(move mgl64.Vec2, aimYaw, aimPitch float64, jump, sprint, crouch, fire bool) InputSnapshot {
	p.tick++
	in := InputSnapshot{
		Tick:     p.tick,
		Move:     move,
		AimYaw:   aimYaw,
		AimPitch: aimPitch,
		Jump:     jump,
		Sprint:   sprint,
		Crouch:   crouch,
		Fire:     fire,
	}
	return in.Sanitized(p.Tuning)
}

// Predict advances the local simulation one frame with the given snapshot,
// then consumes any pending reconciliation smoothing.
func (p *PredictedPlayer) Predict(in InputSnapshot, dt float64) {
	if p.Tuning == nil {
		return
	}
	res := Step(p.World, p.Capsule, p.Position, p.Motion, in, p.Grounded, p.Tuning, dt)
	p.Motion = res.Motion
	p.Position = res.Position
	p.Grounded = res.Grounded
	p.Reconciler.Consume(p, dt)
}

// ApplyCorrection folds one server reconciliation message into the local
// state. Stale and duplicate messages are dropped.
func (p *PredictedPlayer) ApplyCorrection(msg ReconciliationMessage) bool {
	return p.Reconciler.Apply(msg, p)
}
