package main

import (
	"encoding/json"

	"github.com/go-gl/mathgl/mgl64"
)

// ProtocolVersion covers the positionally encoded binary structs below.
// InputFrame and ReconciliationMessage are versioned together: any field
// added to either bumps this.
const ProtocolVersion = 1

// Client -> Server message types (JSON control plane)
const (
	MsgJoin     = "join"
	MsgLeave    = "leave"
	MsgCreate   = "create" // create session
	MsgList     = "list"   // list sessions
	MsgCheck    = "check"  // check if session exists
	MsgRegister = "register"
	MsgLogin    = "login"
	MsgAuth     = "auth" // token resume
	MsgProfile  = "profile"
)

// Server -> Client message types
const (
	MsgWelcome     = "welcome"
	MsgJoined      = "joined"
	MsgCreated     = "created"
	MsgSessions    = "sessions"
	MsgChecked     = "checked"
	MsgError       = "error"
	MsgAuthOK      = "auth_ok"
	MsgProfileData = "profile_data"
	MsgUnlocked    = "unlocked" // milestone unlocked
)

// Binary frame type prefixes (first byte of every binary websocket frame,
// remainder is msgpack)
const (
	BinInput uint8 = 0x01 // client -> server, InputFrame
	BinHold  uint8 = 0x02 // client -> server, HoldCommand
	BinRecon uint8 = 0x11 // server -> owning client, ReconciliationMessage
	BinState uint8 = 0x12 // server -> all clients, WorldState
)

// Hold command verbs
const (
	HoldCmdGrab    uint8 = 1
	HoldCmdTarget  uint8 = 2
	HoldCmdMode    uint8 = 3
	HoldCmdRelease uint8 = 4
	HoldCmdThrow   uint8 = 5
)

// Envelope wraps all outgoing JSON messages with a type field
type Envelope struct {
	T    string      `json:"t"`
	Data interface{} `json:"d,omitempty"`
}

// InEnvelope is used for incoming messages — json.RawMessage avoids double-unmarshal
type InEnvelope struct {
	T string          `json:"t"`
	D json.RawMessage `json:"d,omitempty"`
}

// InputFrame is the wire form of an InputSnapshot, encoded as a positional
// msgpack array. Sent by the owning client each simulation frame.
type InputFrame struct {
	_msgpack struct{} `msgpack:",as_array"`

	Tick     uint32
	MoveX    float64
	MoveY    float64
	AimYaw   float64
	AimPitch float64
	Flags    uint8 // bit 0 jump, 1 sprint, 2 crouch, 3 fire
}

// Input flag bits
const (
	inputJump   uint8 = 1 << 0
	inputSprint uint8 = 1 << 1
	inputCrouch uint8 = 1 << 2
	inputFire   uint8 = 1 << 3
)

// Snapshot converts the wire frame to the simulation value type
func (f InputFrame) Snapshot() InputSnapshot {
	return InputSnapshot{
		Tick:     f.Tick,
		Move:     mgl64.Vec2{f.MoveX, f.MoveY},
		AimYaw:   f.AimYaw,
		AimPitch: f.AimPitch,
		Jump:     f.Flags&inputJump != 0,
		Sprint:   f.Flags&inputSprint != 0,
		Crouch:   f.Flags&inputCrouch != 0,
		Fire:     f.Flags&inputFire != 0,
	}
}

// Frame converts a snapshot to its wire form
func (in InputSnapshot) Frame() InputFrame {
	var flags uint8
	if in.Jump {
		flags |= inputJump
	}
	if in.Sprint {
		flags |= inputSprint
	}
	if in.Crouch {
		flags |= inputCrouch
	}
	if in.Fire {
		flags |= inputFire
	}
	return InputFrame{
		Tick:     in.Tick,
		MoveX:    in.Move.X(),
		MoveY:    in.Move.Y(),
		AimYaw:   in.AimYaw,
		AimPitch: in.AimPitch,
		Flags:    flags,
	}
}

// ReconciliationMessage is the compact per-tick correction sent to the
// owning client only. A client drops any message whose tick is not newer
// than the last one it applied.
type ReconciliationMessage struct {
	_msgpack struct{} `msgpack:",as_array"`

	Tick             uint32
	Position         [3]float64
	VerticalVelocity float64
}

// HoldCommand is the client's mutation surface for holdables. Grab resolves
// the nearest holdable to Point; the rest are gated on being the current
// holder server-side.
type HoldCommand struct {
	_msgpack struct{} `msgpack:",as_array"`

	Cmd     uint8
	Point   [3]float64 // grab point / spring target
	Mode    uint8      // HoldMode for HoldCmdMode
	Impulse [3]float64 // for HoldCmdThrow
}

// PlayerStateView is one actor's replicated state in the broadcast
type PlayerStateView struct {
	_msgpack struct{} `msgpack:",as_array"`

	ID         string
	Name       string
	Position   [3]float64
	MoveInput  [2]float64
	Speed      float64
	BodyYaw    float64
	AimYaw     float64
	AimPitch   float64
	Flags      uint8 // bit 0 grounded, 1 jumping, 2 crouching, 3 sprinting
	HeldObject string
}

// Player state flag bits
const (
	stateGrounded  uint8 = 1 << 0
	stateJumping   uint8 = 1 << 1
	stateCrouching uint8 = 1 << 2
	stateSprinting uint8 = 1 << 3
)

// HoldableStateView is one holdable's replicated state in the broadcast.
// The spring target point is simulation-internal and deliberately absent.
type HoldableStateView struct {
	_msgpack struct{} `msgpack:",as_array"`

	ID        string
	Archetype string
	Position  [3]float64
	Velocity  [3]float64
	HolderID  string
	Mode      uint8
}

// WorldState is the full replicated state broadcast
type WorldState struct {
	_msgpack struct{} `msgpack:",as_array"`

	Tick      uint64
	Players   []PlayerStateView
	Holdables []HoldableStateView
}

// JoinMsg is sent when a player wants to join a session
type JoinMsg struct {
	Name      string `json:"name"`
	SessionID string `json:"sid"`
}

// CreateMsg is sent when a player wants to create a session
type CreateMsg struct {
	Name        string `json:"name"`
	SessionName string `json:"sname"`
}

// WelcomeMsg confirms a join: actor id, spawn pose and the tuning the
// client must predict with.
type WelcomeMsg struct {
	ID       string         `json:"id"`
	Spawn    [3]float64     `json:"spawn"`
	Yaw      float64        `json:"yaw"`
	Proto    int            `json:"proto"`
	Tuning   MovementTuning `json:"tuning"`
	TickRate int            `json:"tickrate"`
}

// SessionInfo is used in the session list
type SessionInfo struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Players int    `json:"players"`
}

// CheckMsg is sent by client to check if a session exists
type CheckMsg struct {
	SID string `json:"sid"`
}

// CheckedMsg is the response to a session check
type CheckedMsg struct {
	SID     string `json:"sid"`
	Exists  bool   `json:"exists"`
	Name    string `json:"name,omitempty"`
	Players int    `json:"players,omitempty"`
}

// ErrorMsg sends an error to the client
type ErrorMsg struct {
	Msg string `json:"msg"`
}

// RegisterMsg creates an account
type RegisterMsg struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginMsg authenticates by password
type LoginMsg struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AuthMsg authenticates by token
type AuthMsg struct {
	Token string `json:"token"`
}

// AuthOKMsg confirms authentication
type AuthOKMsg struct {
	Token    string `json:"token"`
	Username string `json:"username"`
	PlayerID int64  `json:"player_id"`
}

// ProfileDataMsg carries lifetime stats
type ProfileDataMsg struct {
	Username string  `json:"username"`
	Playtime float64 `json:"playtime"`
	Distance float64 `json:"distance"`
	Grabs    int     `json:"grabs"`
	Throws   int     `json:"throws"`
	Breaks   int     `json:"breaks"`
}

// UnlockedMsg announces newly unlocked milestones
type UnlockedMsg struct {
	IDs []string `json:"ids"`
}
