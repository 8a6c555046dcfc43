package terminal

import (
	"time"

	"github.com/wricardo/mcp-training/numberblocks/game/actor"
)

const (
	// DefaultInitialHold covers the typical delay before a terminal starts auto-repeating
	DefaultInitialHold = 500 * time.Millisecond
	// DefaultRepeatHold covers the gap between auto-repeats
	DefaultRepeatHold = 120 * time.Millisecond
)

type latched struct {
	last     time.Time
	repeated bool
}

// Latch turns press-only key reports into held key state
type Latch struct {
	initial time.Duration
	repeat  time.Duration
	held    map[actor.Action]*latched
	toggled map[actor.Action]bool
}

// NewLatch creates a latch; non-positive windows fall back to the defaults
func NewLatch(initial, repeat time.Duration) *Latch {
	if initial <= 0 {
		initial = DefaultInitialHold
	}
	if repeat <= 0 {
		repeat = DefaultRepeatHold
	}
	return &Latch{
		initial: initial,
		repeat:  repeat,
		held:    make(map[actor.Action]*latched),
		toggled: make(map[actor.Action]bool),
	}
}

func isToggle(a actor.Action) bool {
	return a == actor.ActionInteract || a == actor.ActionRun
}

// Observe records a key report and returns the actions to press and release now
func (l *Latch) Observe(a actor.Action, now time.Time) (press, release []actor.Action) {
	if isToggle(a) {
		if l.toggled[a] {
			delete(l.toggled, a)
			return nil, []actor.Action{a}
		}
		l.toggled[a] = true
		return []actor.Action{a}, nil
	}

	if k, ok := l.held[a]; ok {
		k.last = now
		k.repeated = true
		return nil, nil
	}

	// A new direction replaces the previous one; terminals only repeat the last key
	for _, other := range actor.Actions {
		if _, ok := l.held[other]; ok && !isToggle(other) {
			delete(l.held, other)
			release = append(release, other)
		}
	}
	l.held[a] = &latched{last: now}
	return []actor.Action{a}, release
}

// Expire releases directions whose reports stopped arriving
func (l *Latch) Expire(now time.Time) []actor.Action {
	var release []actor.Action
	for _, a := range actor.Actions {
		k, ok := l.held[a]
		if !ok {
			continue
		}
		window := l.initial
		if k.repeated {
			window = l.repeat
		}
		if now.Sub(k.last) > window {
			delete(l.held, a)
			release = append(release, a)
		}
	}
	return release
}

// ReleaseAll drops every latched and toggled key
func (l *Latch) ReleaseAll() []actor.Action {
	var release []actor.Action
	for _, a := range actor.Actions {
		_, held := l.held[a]
		if held || l.toggled[a] {
			release = append(release, a)
		}
	}
	l.held = make(map[actor.Action]*latched)
	l.toggled = make(map[actor.Action]bool)
	return release
}

// Held reports whether a is currently held
func (l *Latch) Held(a actor.Action) bool {
	_, ok := l.held[a]
	return ok || l.toggled[a]
}
