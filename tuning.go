package main

// MovementTuning holds the movement constants bound to an actor at spawn.
// An actor with no tuning bound is a configuration error: its simulation
// step is skipped (and a warning logged) until one is bound.
type MovementTuning struct {
	WalkSpeed   float64 // m/s
	SprintSpeed float64 // m/s
	CrouchSpeed float64 // m/s

	GroundAccel float64 // m/s² toward desired velocity while grounded
	GroundDecel float64 // m/s² toward zero while grounded
	AirAccel    float64 // m/s² toward desired velocity while airborne
	AirDecel    float64 // m/s² toward zero while airborne

	JumpSpeed     float64 // m/s, vertical velocity set on jump
	Gravity       float64 // m/s², negative
	GroundedStick float64 // small negative clamp while grounded, keeps the capsule seated

	PitchMin float64 // degrees
	PitchMax float64 // degrees
}

// DefaultMovementTuning is the profile bound to every player at spawn.
var DefaultMovementTuning = MovementTuning{
	WalkSpeed:   4.5,
	SprintSpeed: 7.0,
	CrouchSpeed: 2.2,

	GroundAccel: 55.0,
	GroundDecel: 60.0,
	AirAccel:    12.0,
	AirDecel:    6.0,

	JumpSpeed:     7.5,
	Gravity:       -22.0,
	GroundedStick: -2.0,

	PitchMin: -85.0,
	PitchMax: 85.0,
}

// HoldMode is the state of a holdable object
type HoldMode int

const (
	HoldNone  HoldMode = 0
	HoldCarry HoldMode = 1
	HoldDrag  HoldMode = 2
)

func (m HoldMode) String() string {
	switch m {
	case HoldCarry:
		return "carry"
	case HoldDrag:
		return "drag"
	default:
		return "none"
	}
}

// HoldProfile holds the spring controller constants for one hold mode
type HoldProfile struct {
	Spring        float64 // 1/s², spring constant on positional error
	Damping       float64 // 1/s, damping constant on current velocity
	MaxAccel      float64 // m/s², clamp on controller output
	HoldDistance  float64 // m, preferred distance from holder to target point
	BreakDistance float64 // m, forced release past this object-to-target distance
	Gravity       bool    // whether gravity stays on while held
	LinearDrag    float64 // 1/s, drag applied while held
	AngularDrag   float64 // 1/s
}

var (
	// CarryProfile: light objects, gravity suspended, tight spring
	CarryProfile = HoldProfile{
		Spring:        90.0,
		Damping:       14.0,
		MaxAccel:      60.0,
		HoldDistance:  1.8,
		BreakDistance: 3.5,
		Gravity:       false,
		LinearDrag:    4.0,
		AngularDrag:   10.0,
	}
	// DragProfile: heavy objects, gravity retained, looser spring, longer tether
	DragProfile = HoldProfile{
		Spring:        30.0,
		Damping:       8.0,
		MaxAccel:      30.0,
		HoldDistance:  2.6,
		BreakDistance: 5.0,
		Gravity:       true,
		LinearDrag:    2.0,
		AngularDrag:   4.0,
	}
)

// DragMassThreshold: objects at or above this mass default to Drag mode
const DragMassThreshold = 12.0 // kg

// ModeForMass returns the default hold mode for an object of the given mass
func ModeForMass(mass float64) HoldMode {
	if mass >= DragMassThreshold {
		return HoldDrag
	}
	return HoldCarry
}

// ProfileFor returns the controller profile for a hold mode.
// HoldNone has no profile; callers must not ask for one.
func ProfileFor(mode HoldMode) HoldProfile {
	if mode == HoldDrag {
		return DragProfile
	}
	return CarryProfile
}
