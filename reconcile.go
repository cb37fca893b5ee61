package main

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Reconciliation tuning
const (
	SnapThreshold     = 2.0  // m, hard teleport past this error
	NegligibleEpsilon = 5e-4 // m, errors under this are noise
	CorrectionRate    = 12.0 // 1/s, exponential decay of the smoothing offset
)

// Reconciler brings a client's predicted position back into agreement with
// server truth. Corrections are idempotent and stateless beyond the
// smoothing residual, which is safe to drop on disconnect.
type Reconciler struct {
	lastAppliedTick uint32
	hasApplied      bool
	offset          mgl64.Vec3 // pending drift correction, consumed over frames
}

// Apply processes one server correction against the predicted player.
// Messages whose tick is not newer than the last applied one are duplicates
// or reordered stragglers and are dropped. Returns whether it was applied.
func (r *Reconciler) Apply(msg ReconciliationMessage, p *PredictedPlayer) bool {
	if r.hasApplied && msg.Tick <= r.lastAppliedTick {
		return false
	}
	r.lastAppliedTick = msg.Tick
	r.hasApplied = true

	serverPos := mgl64.Vec3{msg.Position[0], msg.Position[1], msg.Position[2]}
	err := serverPos.Sub(p.Position)

	if err.Len() >= SnapThreshold {
		// Hard snap. Set the position directly — the discrete reposition
		// must bypass the swept mover so it isn't resolved as a collision.
		p.Position = serverPos
		r.offset = mgl64.Vec3{}
	} else if err.Len() > NegligibleEpsilon {
		r.offset = r.offset.Add(err)
	}

	// Vertical velocity always takes the server's word, whatever the
	// horizontal branch: long-run bounce drift diverges otherwise.
	p.Motion.VerticalVelocity = msg.VerticalVelocity
	return true
}

// Consume applies the decayed portion of the smoothing offset to the
// predicted position. Called once per client frame after the predict step.
func (r *Reconciler) Consume(p *PredictedPlayer, dt float64) {
	if r.offset.Len() == 0 {
		return
	}
	portion := r.offset.Mul(1 - math.Exp(-CorrectionRate*dt))
	p.Position = p.Position.Add(portion)
	r.offset = r.offset.Sub(portion)
	if r.offset.Len() <= NegligibleEpsilon {
		r.offset = mgl64.Vec3{}
	}
}

// LastAppliedTick returns the newest server tick accepted so far
func (r *Reconciler) LastAppliedTick() uint32 { return r.lastAppliedTick }

// PendingOffset returns the unconsumed smoothing residual
func (r *Reconciler) PendingOffset() mgl64.Vec3 { return r.offset }
