package main

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/vmihailenco/msgpack/v5"
)

// mockClient captures outbound traffic for assertions
type mockClient struct {
	jsons    []interface{}
	binaries [][]byte
}

func (m *mockClient) SendJSON(msg interface{}) { m.jsons = append(m.jsons, msg) }
func (m *mockClient) SendBinary(data []byte) {
	cp := make([]byte, len(data))
	copy(cp, data)
	m.binaries = append(m.binaries, cp)
}

func (m *mockClient) framesOf(prefix uint8) [][]byte {
	var out [][]byte
	for _, b := range m.binaries {
		if len(b) > 1 && b[0] == prefix {
			out = append(out, b[1:])
		}
	}
	return out
}

func TestAddActorSpawnRing(t *testing.T) {
	w := NewWorld("s1", nil)
	seen := map[[2]float64]bool{}
	for i := 0; i < 4; i++ {
		a := w.AddActor("p")
		if a == nil {
			t.Fatalf("admit %d failed", i)
		}
		key := [2]float64{a.Position.X(), a.Position.Z()}
		if seen[key] {
			t.Errorf("spawn %v reused", key)
		}
		seen[key] = true
	}
}

func TestSessionFull(t *testing.T) {
	w := NewWorld("s1", nil)
	for i := 0; i < maxPlayersPerSession; i++ {
		if w.AddActor("p") == nil {
			t.Fatalf("admit %d should succeed", i)
		}
	}
	if w.AddActor("overflow") != nil {
		t.Error("session over capacity should refuse")
	}
}

func TestTickSendsReconciliationEveryTick(t *testing.T) {
	w := NewWorld("s1", nil)
	a := w.AddActor("p")
	mc := &mockClient{}
	w.SetClient(a.ID, mc)

	spawn := [3]float64{a.Position.X(), a.Position.Y(), a.Position.Z()}
	w.HandleInput(a.ID, InputSnapshot{Tick: 1, Move: mgl64.Vec2{0, 1}})
	for i := 0; i < 6; i++ {
		w.update()
	}

	recons := mc.framesOf(BinRecon)
	if len(recons) != 6 {
		t.Fatalf("got %d reconciliation frames, want 6", len(recons))
	}
	var last uint32
	for i, raw := range recons {
		var msg ReconciliationMessage
		if err := msgpack.Unmarshal(raw, &msg); err != nil {
			t.Fatalf("frame %d: %v", i, err)
		}
		if msg.Tick <= last {
			t.Errorf("frame %d: tick %d not monotonic after %d", i, msg.Tick, last)
		}
		last = msg.Tick
	}

	// Moved forward from spawn under constant input
	var msg ReconciliationMessage
	if err := msgpack.Unmarshal(recons[len(recons)-1], &msg); err != nil {
		t.Fatal(err)
	}
	if msg.Position == spawn {
		t.Error("actor should have moved off spawn under forward input")
	}
}

func TestBroadcastAtLowerRate(t *testing.T) {
	w := NewWorld("s1", nil)
	a := w.AddActor("p")
	mc := &mockClient{}
	w.SetClient(a.ID, mc)

	for i := 0; i < TickRate; i++ { // one simulated second
		w.update()
	}
	states := mc.framesOf(BinState)
	if len(states) != BroadcastRate {
		t.Fatalf("got %d state broadcasts over one second, want %d", len(states), BroadcastRate)
	}

	var state WorldState
	if err := msgpack.Unmarshal(states[len(states)-1], &state); err != nil {
		t.Fatal(err)
	}
	if len(state.Players) != 1 || state.Players[0].ID != a.ID {
		t.Errorf("broadcast should carry the one actor, got %+v", state.Players)
	}
	if len(state.Holdables) == 0 {
		t.Error("broadcast should carry the prop set")
	}
	if state.Players[0].Flags&stateGrounded == 0 {
		t.Error("idle actor should replicate as grounded")
	}
}

func grabNearestProp(t *testing.T, w *World, a *Actor) *Holdable {
	t.Helper()
	// Stand the actor next to a known prop and grab by point.
	target := w.holdableByID
	var prop *Holdable
	for _, h := range target {
		if h.Archetype == "crate_small" {
			prop = h
			break
		}
	}
	if prop == nil {
		t.Fatal("no small crate in prop set")
	}
	a.Position = prop.Body.Position.Add(mgl64.Vec3{1, -prop.Body.Half.Y(), 0})
	w.update() // rebuild the broad-phase at current positions

	w.HandleHoldCommand(a.ID, HoldCommand{
		Cmd:   HoldCmdGrab,
		Point: [3]float64{prop.Body.Position.X(), prop.Body.Position.Y(), prop.Body.Position.Z()},
	})
	return prop
}

func TestGrabThroughCommandPath(t *testing.T) {
	w := NewWorld("s1", nil)
	a := w.AddActor("p")
	prop := grabNearestProp(t, w, a)

	if prop.HolderID() != a.ID {
		t.Fatalf("holder %q, want %s", prop.HolderID(), a.ID)
	}
	if prop.Mode() != HoldCarry {
		t.Errorf("small crate should carry, got %v", prop.Mode())
	}
	if a.State.HeldObject.ID() != prop.ID {
		t.Errorf("replicated held ref %q, want %s", a.State.HeldObject.ID(), prop.ID)
	}
	if a.Grabs != 1 {
		t.Errorf("grab counter %d, want 1", a.Grabs)
	}
}

func TestGrabOutOfReachFails(t *testing.T) {
	w := NewWorld("s1", nil)
	a := w.AddActor("p") // spawn ring is far from every prop
	w.update()

	w.HandleHoldCommand(a.ID, HoldCommand{
		Cmd:   HoldCmdGrab,
		Point: [3]float64{3, 0.25, 6}, // a real prop position, but out of reach
	})
	if a.State.HeldObject.ID() != "" {
		t.Error("grab beyond reach should fail")
	}
}

func TestSecondGrabWhileHoldingIgnored(t *testing.T) {
	w := NewWorld("s1", nil)
	a := w.AddActor("p")
	prop := grabNearestProp(t, w, a)

	var other *Holdable
	for _, h := range w.holdableByID {
		if h.ID != prop.ID && h.Archetype == "crate_small" {
			other = h
			break
		}
	}
	if other == nil {
		t.Fatal("need a second small crate")
	}
	a.Position = other.Body.Position.Add(mgl64.Vec3{1, -other.Body.Half.Y(), 0})
	w.HandleHoldCommand(a.ID, HoldCommand{
		Cmd:   HoldCmdGrab,
		Point: [3]float64{other.Body.Position.X(), other.Body.Position.Y(), other.Body.Position.Z()},
	})

	if other.HolderID() != NoHolder {
		t.Error("second grab while holding should be refused")
	}
	if a.State.HeldObject.ID() != prop.ID {
		t.Error("original hold should be unaffected")
	}
}

func TestGrabContentionFirstWins(t *testing.T) {
	w := NewWorld("s1", nil)
	a1 := w.AddActor("p1")
	a2 := w.AddActor("p2")
	prop := grabNearestProp(t, w, a1)

	a2.Position = a1.Position.Add(mgl64.Vec3{0.5, 0, 0})
	w.HandleHoldCommand(a2.ID, HoldCommand{
		Cmd:   HoldCmdGrab,
		Point: [3]float64{prop.Body.Position.X(), prop.Body.Position.Y(), prop.Body.Position.Z()},
	})

	if prop.HolderID() != a1.ID {
		t.Errorf("holder %q, want first grabber %s", prop.HolderID(), a1.ID)
	}
	if a2.State.HeldObject.ID() != "" {
		t.Error("losing grabber must not record a held object")
	}
}

func TestReleaseCommandClearsHeldRef(t *testing.T) {
	w := NewWorld("s1", nil)
	a := w.AddActor("p")
	prop := grabNearestProp(t, w, a)

	w.HandleHoldCommand(a.ID, HoldCommand{Cmd: HoldCmdRelease})
	if prop.HolderID() != NoHolder {
		t.Error("release command should free the object")
	}
	if a.State.HeldObject.ID() != "" {
		t.Error("release should clear the replicated held ref")
	}
}

func TestThrowCommandCapsImpulse(t *testing.T) {
	w := NewWorld("s1", nil)
	a := w.AddActor("p")
	prop := grabNearestProp(t, w, a)

	w.HandleHoldCommand(a.ID, HoldCommand{
		Cmd:     HoldCmdThrow,
		Impulse: [3]float64{0, 0, 10000}, // absurd client value
	})
	if prop.HolderID() != NoHolder {
		t.Fatal("throw should release")
	}
	wantMax := maxThrowImpulse / prop.Body.Mass
	if v := prop.Body.Velocity.Len(); v > wantMax+1e-9 {
		t.Errorf("throw velocity %f exceeds capped %f", v, wantMax)
	}
	if a.Throws != 1 {
		t.Errorf("throw counter %d, want 1", a.Throws)
	}
}

func TestBreakDuringTickClearsHeldRef(t *testing.T) {
	w := NewWorld("s1", nil)
	a := w.AddActor("p")
	prop := grabNearestProp(t, w, a)

	// Drag the target far past the tether without moving the body.
	far := prop.Body.Position.Add(mgl64.Vec3{CarryProfile.BreakDistance + 2, 0, 0})
	w.HandleHoldCommand(a.ID, HoldCommand{
		Cmd:   HoldCmdTarget,
		Point: [3]float64{far.X(), far.Y(), far.Z()},
	})
	w.update()

	if prop.HolderID() != NoHolder {
		t.Error("over-tether hold should break on the next tick")
	}
	if a.State.HeldObject.ID() != "" {
		t.Error("break must clear the replicated held ref")
	}
	if a.Breaks != 1 {
		t.Errorf("break counter %d, want 1", a.Breaks)
	}
}

func TestDisconnectReleasesHeld(t *testing.T) {
	w := NewWorld("s1", nil)
	a := w.AddActor("p")
	prop := grabNearestProp(t, w, a)

	w.RemoveActor(a.ID)
	if prop.HolderID() != NoHolder {
		t.Error("despawn must release the held object")
	}
	if w.HasActor(a.ID) {
		t.Error("actor should be gone")
	}
}
