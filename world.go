package main

import (
	"math"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/vmihailenco/msgpack/v5"
)

const (
	TickRate       = 60 // physics ticks per second
	BroadcastRate  = 20 // state broadcasts per second
	TickDuration   = time.Second / TickRate
	BroadcastEvery = TickRate / BroadcastRate
)

const (
	maxPlayersPerSession = 16
	GrabReach            = 4.0 // m, max distance from eye to grab point
)

// Broadcaster is the outbound side of a connected client
type Broadcaster interface {
	SendJSON(msg interface{})
	SendBinary(data []byte)
}

// World owns the authoritative simulation for one session: actors,
// holdables, and the static geometry. One goroutine runs the tick loop; all
// other access goes through the mutex.
type World struct {
	mu           sync.RWMutex
	geo          *StaticWorld
	actors       map[string]*Actor
	holdables    []*Holdable
	holdableByID map[string]*Holdable
	grid         SpatialGrid
	clients      map[string]Broadcaster
	tick         uint64
	running      bool
	stop         chan struct{}
	nextSpawn    int
	auth         ServerAuthority
	analytics    *Analytics
	sessionID    string
}

// NewWorld creates a session world with the arena geometry and prop set
func NewWorld(sessionID string, analytics *Analytics) *World {
	w := &World{
		geo:          NewArenaWorld(),
		actors:       make(map[string]*Actor),
		holdables:    SpawnHoldables(),
		holdableByID: make(map[string]*Holdable),
		clients:      make(map[string]Broadcaster),
		stop:         make(chan struct{}),
		analytics:    analytics,
		sessionID:    sessionID,
	}
	w.auth = ServerAuthority{world: w}
	for _, h := range w.holdables {
		w.holdableByID[h.ID] = h
	}
	return w
}

// Geometry returns the static collision world (shared with predictors)
func (w *World) Geometry() *StaticWorld { return w.geo }

// Run starts the tick loop
func (w *World) Run() {
	w.mu.Lock()
	w.running = true
	w.mu.Unlock()

	ticker := time.NewTicker(TickDuration)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.update()
		case <-w.stop:
			return
		}
	}
}

// Stop terminates the tick loop
func (w *World) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		w.running = false
		close(w.stop)
	}
}

// AddActor admits a player: picks the next spawn pose and binds the default
// movement tuning. Returns nil when the session is full.
func (w *World) AddActor(name string) *Actor {
	w.mu.Lock()
	defer w.mu.Unlock()

	if len(w.actors) >= maxPlayersPerSession {
		return nil
	}

	spawn := w.geo.SpawnPoints[w.nextSpawn%len(w.geo.SpawnPoints)]
	w.nextSpawn++
	yaw := 0.0
	if spawn.X() != 0 || spawn.Z() != 0 {
		// face the arena center
		yaw = mgl64.RadToDeg(math.Atan2(-spawn.X(), -spawn.Z()))
	}

	a := NewActor(w.auth, GenerateID(4), name, spawn, yaw)
	w.actors[a.ID] = a
	return a
}

// RemoveActor despawns a player. Any held object goes through the same
// release path as a break or an explicit release, so a disconnecting holder
// can't leave an object permanently stuck.
func (w *World) RemoveActor(id string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	a, ok := w.actors[id]
	if ok {
		w.releaseHeldLocked(a)
	}
	delete(w.actors, id)
	delete(w.clients, id)
}

// SetClient associates a broadcaster with an actor
func (w *World) SetClient(actorID string, client Broadcaster) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.clients[actorID] = client
}

// ActorByID returns an actor by id, or nil
func (w *World) ActorByID(id string) *Actor {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.actors[id]
}

// HasActor reports whether the actor is in this world
func (w *World) HasActor(id string) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	_, ok := w.actors[id]
	return ok
}

// ActorCount returns the number of admitted actors
func (w *World) ActorCount() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.actors)
}

// HandleInput records an input snapshot for the actor, latest-wins
func (w *World) HandleInput(actorID string, in InputSnapshot) {
	w.mu.Lock()
	defer w.mu.Unlock()
	a, ok := w.actors[actorID]
	if !ok {
		return
	}
	a.SubmitInput(in)
}

// HandleHoldCommand applies one hold mutation for the actor. Contention and
// non-holder updates fail silently: the caller observes state, it doesn't
// get an error channel.
func (w *World) HandleHoldCommand(actorID string, cmd HoldCommand) {
	w.mu.Lock()
	defer w.mu.Unlock()
	a, ok := w.actors[actorID]
	if !ok {
		return
	}
	point := mgl64.Vec3{cmd.Point[0], cmd.Point[1], cmd.Point[2]}

	switch cmd.Cmd {
	case HoldCmdGrab:
		w.tryGrabLocked(a, point)
	case HoldCmdTarget:
		if h := w.heldByLocked(a); h != nil {
			h.UpdateTarget(a.ID, point)
		}
	case HoldCmdMode:
		if h := w.heldByLocked(a); h != nil {
			mode := HoldMode(cmd.Mode)
			if mode != HoldCarry && mode != HoldDrag {
				mode = HoldNone
			}
			h.SetMode(a.ID, mode)
			if h.Mode() == HoldNone {
				a.State.HeldObject.Set(w.auth, "")
			}
		}
	case HoldCmdRelease:
		if h := w.heldByLocked(a); h != nil {
			h.Release()
			a.State.HeldObject.Set(w.auth, "")
		}
	case HoldCmdThrow:
		if h := w.heldByLocked(a); h != nil {
			impulse := mgl64.Vec3{cmd.Impulse[0], cmd.Impulse[1], cmd.Impulse[2]}
			if l := impulse.Len(); l > maxThrowImpulse {
				impulse = impulse.Mul(maxThrowImpulse / l)
			}
			if h.Throw(a.ID, impulse) {
				a.State.HeldObject.Set(w.auth, "")
				a.Throws++
				w.track(EvtThrow, a)
			}
		}
	}
}

// maxThrowImpulse caps client-supplied throw strength
const maxThrowImpulse = 400.0 // kg·m/s

func (w *World) tryGrabLocked(a *Actor, point mgl64.Vec3) {
	if a.State.HeldObject.ID() != "" {
		return // one object per holder
	}
	if point.Sub(a.EyePoint()).Len() > GrabReach {
		return
	}
	h := FindHoldableNear(&w.grid, w.holdables, point, 1.5)
	if h == nil {
		return
	}
	mode := ModeForMass(h.Body.Mass)
	if !h.TryStartHold(a.ID, point, mode) {
		return // already held by someone else, no state change
	}
	a.State.HeldObject.Set(w.auth, h.ID)
	a.Grabs++
	w.track(EvtGrab, a)
}

// heldByLocked resolves the holdable the actor currently holds, or nil
func (w *World) heldByLocked(a *Actor) *Holdable {
	id := a.State.HeldObject.ID()
	if id == "" {
		return nil
	}
	return w.holdableByID[id]
}

// releaseHeldLocked is the shared cleanup path for despawn and disconnect
func (w *World) releaseHeldLocked(a *Actor) {
	if h := w.heldByLocked(a); h != nil {
		h.Release()
		a.State.HeldObject.Set(w.auth, "")
	}
}

// update runs one authoritative tick. Fixed order: latest input is already
// applied, so (1) movement, (2) hold spring, (3) publish replicated state,
// (4) reconciliation send — replicated state and outbound corrections always
// reflect the same tick.
func (w *World) update() {
	w.mu.Lock()
	defer w.mu.Unlock()

	dt := 1.0 / float64(TickRate)
	w.tick++

	// Movement
	for _, a := range w.actors {
		a.Simulate(w.geo, dt)
	}

	// Hold spring + body integration; rebuild the broad-phase first so the
	// next grab resolves against current positions
	w.grid.Clear()
	for i, h := range w.holdables {
		w.grid.Insert(h.Body.Position.X(), h.Body.Position.Z(), i)
	}
	for _, h := range w.holdables {
		holder := h.HolderID()
		if h.Tick(w.geo, dt) {
			// break-distance safety valve: no user-visible failure signal,
			// the object simply becomes unheld
			if a, ok := w.actors[holder]; ok {
				a.State.HeldObject.Set(w.auth, "")
				a.Breaks++
				w.track(EvtBreakRelease, a)
			}
		}
	}

	// Publish
	for _, a := range w.actors {
		a.Publish(w.auth)
	}

	// Reconciliation: compact correction to each owning client, every tick
	tick32 := uint32(w.tick)
	for id, a := range w.actors {
		client, ok := w.clients[id]
		if !ok {
			continue
		}
		data, err := msgpack.Marshal(a.Correction(tick32))
		if err != nil {
			continue
		}
		client.SendBinary(append([]byte{BinRecon}, data...))
	}

	// State broadcast at the lower rate
	if w.tick%BroadcastEvery == 0 {
		w.broadcastState()
	}
}

// broadcastState sends the replicated state of every actor and holdable
func (w *World) broadcastState() {
	state := WorldState{
		Tick:      w.tick,
		Players:   make([]PlayerStateView, 0, len(w.actors)),
		Holdables: make([]HoldableStateView, 0, len(w.holdables)),
	}
	for _, a := range w.actors {
		state.Players = append(state.Players, a.StateView())
	}
	for _, h := range w.holdables {
		state.Holdables = append(state.Holdables, HoldableStateView{
			ID:        h.ID,
			Archetype: h.Archetype,
			Position:  [3]float64{round2(h.Body.Position.X()), round2(h.Body.Position.Y()), round2(h.Body.Position.Z())},
			Velocity:  [3]float64{round2(h.Body.Velocity.X()), round2(h.Body.Velocity.Y()), round2(h.Body.Velocity.Z())},
			HolderID:  h.HolderID(),
			Mode:      uint8(h.Mode()),
		})
	}

	data, err := msgpack.Marshal(state)
	if err != nil {
		return
	}
	frame := append([]byte{BinState}, data...)
	for _, client := range w.clients {
		client.SendBinary(frame)
	}
}

func (w *World) track(evtType string, a *Actor) {
	if w.analytics == nil {
		return
	}
	w.analytics.Track(evtType, a.AuthPlayerID, w.sessionID, "")
}
