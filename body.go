package main

import "github.com/go-gl/mathgl/mgl64"

// bodyGravity matches the actor gravity so thrown objects and jumping
// players fall through the same air.
const bodyGravity = -22.0

// RigidBody is the dynamic state of a holdable object. Position is the
// body center; the collision volume is its half-extent box.
type RigidBody struct {
	Position        mgl64.Vec3
	Velocity        mgl64.Vec3
	AngularVelocity mgl64.Vec3
	Half            mgl64.Vec3
	Mass            float64

	GravityOn   bool
	LinearDrag  float64 // 1/s
	AngularDrag float64 // 1/s
	Grounded    bool
}

// ApplyImpulse applies a one-shot impulse (kg·m/s) to the body
func (b *RigidBody) ApplyImpulse(impulse mgl64.Vec3) {
	if b.Mass <= 0 {
		return
	}
	b.Velocity = b.Velocity.Add(impulse.Mul(1 / b.Mass))
}

// Integrate advances the body one physics step against the static world.
// Drag is an implicit step (v /= 1+drag·dt) so large dt can't reverse
// velocity sign.
func (b *RigidBody) Integrate(w *StaticWorld, dt float64) {
	if b.GravityOn {
		b.Velocity = b.Velocity.Add(mgl64.Vec3{0, bodyGravity * dt, 0})
	}
	if b.LinearDrag > 0 {
		b.Velocity = b.Velocity.Mul(1 / (1 + b.LinearDrag*dt))
	}
	if b.AngularDrag > 0 {
		b.AngularVelocity = b.AngularVelocity.Mul(1 / (1 + b.AngularDrag*dt))
	}

	res := w.MoveBody(b.Half, b.Position, b.Velocity.Mul(dt))
	b.Position = res.Position
	if res.HitX {
		b.Velocity = mgl64.Vec3{0, b.Velocity.Y(), b.Velocity.Z()}
	}
	if res.HitZ {
		b.Velocity = mgl64.Vec3{b.Velocity.X(), b.Velocity.Y(), 0}
	}
	if res.HitY {
		b.Velocity = mgl64.Vec3{b.Velocity.X(), 0, b.Velocity.Z()}
	}
	b.Grounded = res.Grounded
}
