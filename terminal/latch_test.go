package terminal

import (
	"testing"
	"time"

	"github.com/wricardo/mcp-training/numberblocks/game/actor"
)

func actionsEqual(a, b []actor.Action) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestLatch_Defaults(t *testing.T) {
	l := NewLatch(0, -1)
	if l.initial != DefaultInitialHold || l.repeat != DefaultRepeatHold {
		t.Errorf("Expected default windows, got %v and %v", l.initial, l.repeat)
	}
}

func TestLatch_Direction(t *testing.T) {
	t0 := time.Unix(1000, 0)

	t.Run("single report holds for the initial window", func(t *testing.T) {
		l := NewLatch(500*time.Millisecond, 100*time.Millisecond)
		press, release := l.Observe(actor.ActionRight, t0)
		if !actionsEqual(press, []actor.Action{actor.ActionRight}) || len(release) != 0 {
			t.Fatalf("Expected right pressed, got %v / %v", press, release)
		}
		if got := l.Expire(t0.Add(400 * time.Millisecond)); len(got) != 0 {
			t.Errorf("Expected nothing released inside the window, got %v", got)
		}
		if got := l.Expire(t0.Add(501 * time.Millisecond)); !actionsEqual(got, []actor.Action{actor.ActionRight}) {
			t.Errorf("Expected right released, got %v", got)
		}
		if l.Held(actor.ActionRight) {
			t.Error("Right should no longer be held")
		}
	})

	t.Run("repeats switch to the short window", func(t *testing.T) {
		l := NewLatch(500*time.Millisecond, 100*time.Millisecond)
		l.Observe(actor.ActionRight, t0)
		press, release := l.Observe(actor.ActionRight, t0.Add(450*time.Millisecond))
		if len(press) != 0 || len(release) != 0 {
			t.Errorf("A repeat should not change key state, got %v / %v", press, release)
		}
		if got := l.Expire(t0.Add(520 * time.Millisecond)); len(got) != 0 {
			t.Errorf("Expected right still held, got %v", got)
		}
		if got := l.Expire(t0.Add(600 * time.Millisecond)); !actionsEqual(got, []actor.Action{actor.ActionRight}) {
			t.Errorf("Expected right released after repeats stop, got %v", got)
		}
	})

	t.Run("new direction replaces the old one", func(t *testing.T) {
		l := NewLatch(0, 0)
		l.Observe(actor.ActionRight, t0)
		press, release := l.Observe(actor.ActionUp, t0)
		if !actionsEqual(press, []actor.Action{actor.ActionUp}) || !actionsEqual(release, []actor.Action{actor.ActionRight}) {
			t.Errorf("Expected up pressed and right released, got %v / %v", press, release)
		}
	})
}

func TestLatch_Toggle(t *testing.T) {
	t0 := time.Unix(1000, 0)
	l := NewLatch(0, 0)

	press, _ := l.Observe(actor.ActionInteract, t0)
	if !actionsEqual(press, []actor.Action{actor.ActionInteract}) {
		t.Fatalf("Expected interact pressed, got %v", press)
	}

	// Directions and expiry leave toggles alone
	_, release := l.Observe(actor.ActionLeft, t0)
	if len(release) != 0 {
		t.Errorf("Expected no release, got %v", release)
	}
	if got := l.Expire(t0.Add(time.Hour)); !actionsEqual(got, []actor.Action{actor.ActionLeft}) {
		t.Errorf("Expected only left to expire, got %v", got)
	}
	if !l.Held(actor.ActionInteract) {
		t.Error("Interact should stay held")
	}

	_, release = l.Observe(actor.ActionInteract, t0)
	if !actionsEqual(release, []actor.Action{actor.ActionInteract}) {
		t.Errorf("Expected interact released on second press, got %v", release)
	}
}

func TestLatch_ReleaseAll(t *testing.T) {
	t0 := time.Unix(1000, 0)
	l := NewLatch(0, 0)
	l.Observe(actor.ActionDown, t0)
	l.Observe(actor.ActionRun, t0)

	got := l.ReleaseAll()
	if !actionsEqual(got, []actor.Action{actor.ActionDown, actor.ActionRun}) {
		t.Errorf("Expected down and run released, got %v", got)
	}
	if l.Held(actor.ActionDown) || l.Held(actor.ActionRun) {
		t.Error("Nothing should be held after ReleaseAll")
	}
}
