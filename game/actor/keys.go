package actor

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnknownAction = errors.New("unknown action")

// Action is a logical key
type Action string

const (
	ActionUp       Action = "up"
	ActionDown     Action = "down"
	ActionLeft     Action = "left"
	ActionRight    Action = "right"
	ActionInteract Action = "interact"
	ActionRun      Action = "run"
)

// Actions lists every logical key
var Actions = []Action{ActionUp, ActionDown, ActionLeft, ActionRight, ActionInteract, ActionRun}

// ParseAction accepts an action name or one of its common key aliases
func ParseAction(s string) (Action, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "up", "w":
		return ActionUp, nil
	case "down", "s":
		return ActionDown, nil
	case "left", "a":
		return ActionLeft, nil
	case "right", "d":
		return ActionRight, nil
	case "interact", "space", "grab":
		return ActionInteract, nil
	case "run", "shift":
		return ActionRun, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownAction, s)
}

// Keys is the pressed state of every logical key
type Keys struct {
	Up       bool `json:"up"`
	Down     bool `json:"down"`
	Left     bool `json:"left"`
	Right    bool `json:"right"`
	Interact bool `json:"interact"`
	Run      bool `json:"run"`
}

// Set records a press or release
func (k *Keys) Set(a Action, pressed bool) error {
	switch a {
	case ActionUp:
		k.Up = pressed
	case ActionDown:
		k.Down = pressed
	case ActionLeft:
		k.Left = pressed
	case ActionRight:
		k.Right = pressed
	case ActionInteract:
		k.Interact = pressed
	case ActionRun:
		k.Run = pressed
	default:
		return fmt.Errorf("%w: %q", ErrUnknownAction, a)
	}
	return nil
}

// Pressed lists the held actions in declaration order
func (k Keys) Pressed() []Action {
	var out []Action
	for _, a := range Actions {
		if k.Is(a) {
			out = append(out, a)
		}
	}
	return out
}

func (k Keys) Is(a Action) bool {
	switch a {
	case ActionUp:
		return k.Up
	case ActionDown:
		return k.Down
	case ActionLeft:
		return k.Left
	case ActionRight:
		return k.Right
	case ActionInteract:
		return k.Interact
	case ActionRun:
		return k.Run
	}
	return false
}

// Orientation is the way the actor faces
type Orientation int

const (
	FacingUp Orientation = iota
	FacingDown
	FacingLeft
	FacingRight
)

var orientationNames = []string{"up", "down", "left", "right"}

func (o Orientation) String() string {
	if o < 0 || int(o) >= len(orientationNames) {
		return fmt.Sprintf("Orientation(%d)", int(o))
	}
	return orientationNames[o]
}

func (o Orientation) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

func (o *Orientation) UnmarshalText(text []byte) error {
	for i, name := range orientationNames {
		if name == string(text) {
			*o = Orientation(i)
			return nil
		}
	}
	return fmt.Errorf("invalid orientation %q", string(text))
}

// unit returns the one-unit step in the facing direction, y growing downward
func (o Orientation) unit() (float64, float64) {
	switch o {
	case FacingUp:
		return 0, -1
	case FacingDown:
		return 0, 1
	case FacingLeft:
		return -1, 0
	default:
		return 1, 0
	}
}
