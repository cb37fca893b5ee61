package main

import "github.com/go-gl/mathgl/mgl64"

// ServerAuthority is the write capability for replicated fields. Only the
// world mints one, and only its tick goroutine holds it, so every replicated
// write goes through the single-writer simulation path. Observers get the
// value-typed snapshot and nothing else.
type ServerAuthority struct {
	world *World
}

// Replicated is a server-write, everyone-read field. Set requires the
// authority token; Get is universal. Reads see the most recent published
// value with no cross-field transactional guarantee.
type Replicated[T comparable] struct {
	v T
}

// Get returns the current published value
func (r *Replicated[T]) Get() T {
	return r.v
}

// Set publishes a new value. Returns true when the value actually changed,
// which is what callers with derived caches key invalidation off.
func (r *Replicated[T]) Set(_ ServerAuthority, v T) bool {
	if r.v == v {
		return false
	}
	r.v = v
	return true
}

// ReplicatedPlayerState is the server-authoritative, everyone-readable view
// of one actor. Created at spawn with defaults, destroyed at despawn.
type ReplicatedPlayerState struct {
	MoveInput   Replicated[mgl64.Vec2]
	Speed       Replicated[float64]
	BodyYaw     Replicated[float64]
	IsGrounded  Replicated[bool]
	IsJumping   Replicated[bool]
	IsCrouching Replicated[bool]
	IsSprinting Replicated[bool]
	AimYaw      Replicated[float64]
	AimPitch    Replicated[float64]
	HeldObject  HeldRef
}

// NewReplicatedPlayerState returns spawn defaults: grounded, at rest,
// facing the actor's initial yaw.
func NewReplicatedPlayerState(auth ServerAuthority, initialYaw float64) *ReplicatedPlayerState {
	s := &ReplicatedPlayerState{}
	s.IsGrounded.Set(auth, true)
	s.BodyYaw.Set(auth, initialYaw)
	s.AimYaw.Set(auth, initialYaw)
	return s
}

// HeldRef is the replicated held-object reference plus its derived grip
// metadata. The metadata is re-resolved lazily whenever the reference it was
// resolved for no longer matches the published one, instead of relying on a
// change-callback subscription.
type HeldRef struct {
	id Replicated[string] // holdable id, "" = not holding

	cachedFor string
	cached    *HoldableArchetype
}

// Set publishes a new held-object reference ("" clears it)
func (h *HeldRef) Set(auth ServerAuthority, id string) {
	h.id.Set(auth, id)
}

// ID returns the current held-object id, or "" when nothing is held
func (h *HeldRef) ID() string {
	return h.id.Get()
}

// Grip resolves the grip metadata for the held object via the catalog,
// recomputing only when the published reference changed since the last call.
func (h *HeldRef) Grip(resolve func(id string) *HoldableArchetype) *HoldableArchetype {
	id := h.id.Get()
	if id == "" {
		h.cachedFor, h.cached = "", nil
		return nil
	}
	if id != h.cachedFor {
		h.cachedFor = id
		h.cached = resolve(id)
	}
	return h.cached
}
