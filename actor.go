package main

import (
	"log"
	"time"

	"github.com/go-gl/mathgl/mgl64"
)

// Actor is one server-side player: the authoritative kinematic capsule, its
// motion state, the latest input snapshot, and the replicated view everyone
// else reads. All fields are mutated only under the world lock.
type Actor struct {
	ID           string
	Name         string
	AuthPlayerID int64 // 0 = guest

	Capsule  Capsule
	Position mgl64.Vec3
	Motion   MotionState
	Grounded bool
	Tuning   *MovementTuning

	State *ReplicatedPlayerState

	// Latest-wins input. Out-of-order snapshots are dropped by tick; there
	// is no queued backlog, so a lost frame costs one tick of stale input.
	input         InputSnapshot
	lastInputTick uint32
	hasInput      bool

	jumping        bool
	warnedNoTuning bool

	// Session counters flushed to stats on leave
	JoinedAt      time.Time
	DistanceMoved float64
	Grabs         int
	Throws        int
	Breaks        int
}

// NewActor spawns an actor at a pose handed out by the admission path
func NewActor(auth ServerAuthority, id, name string, spawn mgl64.Vec3, yaw float64) *Actor {
	a := &Actor{
		ID:       id,
		Name:     name,
		Capsule:  DefaultCapsule,
		Position: spawn,
		Grounded: true,
		Tuning:   &DefaultMovementTuning,
		State:    NewReplicatedPlayerState(auth, yaw),
		JoinedAt: time.Now(),
	}
	a.input = IdleSnapshot(0, yaw, 0)
	return a
}

// SubmitInput records a client snapshot, latest-wins. Snapshots at or below
// the newest tick seen are stale reorders and dropped without side effects.
func (a *Actor) SubmitInput(in InputSnapshot) {
	if a.hasInput && in.Tick <= a.lastInputTick {
		return
	}
	a.input = in.Sanitized(a.Tuning)
	a.lastInputTick = in.Tick
	a.hasInput = true
}

// Simulate runs one authoritative movement step with the latest snapshot.
// A missing tuning is a configuration error: the step is skipped, the actor
// freezes, and a warning repeats until it is fixed.
func (a *Actor) Simulate(w *StaticWorld, dt float64) {
	if a.Tuning == nil {
		if !a.warnedNoTuning {
			log.Printf("actor %s has no movement tuning, skipping simulation", a.ID)
			a.warnedNoTuning = true
		}
		return
	}
	a.warnedNoTuning = false

	res := Step(w, a.Capsule, a.Position, a.Motion, a.input, a.Grounded, a.Tuning, dt)
	a.DistanceMoved += res.Position.Sub(a.Position).Len()
	a.Position = res.Position
	a.Motion = res.Motion
	a.Grounded = res.Grounded
	if res.Jumped {
		a.jumping = true
	} else if res.Grounded {
		a.jumping = false
	}
}

// Publish writes this tick's simulation result into the replicated store.
// Runs after the hold update so observers and the outbound correction see
// the same tick.
func (a *Actor) Publish(auth ServerAuthority) {
	s := a.State
	s.MoveInput.Set(auth, a.input.Move)
	s.Speed.Set(auth, a.Motion.HorizontalVelocity.Len())
	s.BodyYaw.Set(auth, a.input.AimYaw) // body visually follows aim yaw
	s.IsGrounded.Set(auth, a.Grounded)
	s.IsJumping.Set(auth, a.jumping)
	s.IsCrouching.Set(auth, a.input.Crouch)
	s.IsSprinting.Set(auth, a.input.Sprint && !a.input.Crouch)
	s.AimYaw.Set(auth, a.input.AimYaw)
	s.AimPitch.Set(auth, a.input.AimPitch)
}

// Correction builds the per-tick reconciliation message for the owner
func (a *Actor) Correction(tick uint32) ReconciliationMessage {
	return ReconciliationMessage{
		Tick:             tick,
		Position:         [3]float64{a.Position.X(), a.Position.Y(), a.Position.Z()},
		VerticalVelocity: a.Motion.VerticalVelocity,
	}
}

// StateView converts the replicated store to its broadcast form
func (a *Actor) StateView() PlayerStateView {
	s := a.State
	var flags uint8
	if s.IsGrounded.Get() {
		flags |= stateGrounded
	}
	if s.IsJumping.Get() {
		flags |= stateJumping
	}
	if s.IsCrouching.Get() {
		flags |= stateCrouching
	}
	if s.IsSprinting.Get() {
		flags |= stateSprinting
	}
	mv := s.MoveInput.Get()
	return PlayerStateView{
		ID:         a.ID,
		Name:       a.Name,
		Position:   [3]float64{round2(a.Position.X()), round2(a.Position.Y()), round2(a.Position.Z())},
		MoveInput:  [2]float64{mv.X(), mv.Y()},
		Speed:      round2(s.Speed.Get()),
		BodyYaw:    round2(s.BodyYaw.Get()),
		AimYaw:     round2(s.AimYaw.Get()),
		AimPitch:   round2(s.AimPitch.Get()),
		Flags:      flags,
		HeldObject: s.HeldObject.ID(),
	}
}

// EyePoint is where grab reach is measured from
func (a *Actor) EyePoint() mgl64.Vec3 {
	return a.Position.Add(mgl64.Vec3{0, a.Capsule.Height * 0.9, 0})
}
