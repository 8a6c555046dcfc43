package terminal

import (
	"context"
	"log"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/wricardo/mcp-training/numberblocks/game/actor"
	"github.com/wricardo/mcp-training/numberblocks/game/engine"
)

// Sounder plays cues for engine events
type Sounder interface {
	PlayEvents(events []engine.Event)
	SetMuted(muted bool)
}

type silent struct{}

func (silent) PlayEvents([]engine.Event) {}
func (silent) SetMuted(bool)             {}

// Host runs an engine in a terminal screen
type Host struct {
	screen tcell.Screen
	engine engine.Engine
	sound  Sounder
	latch  *Latch
	muted  bool
	now    func() time.Time
}

// Option configures a Host
type Option func(*Host)

// WithSound plays cues through s
func WithSound(s Sounder) Option {
	return func(h *Host) {
		if s != nil {
			h.sound = s
		}
	}
}

// WithHold sets the key latch windows
func WithHold(initial, repeat time.Duration) Option {
	return func(h *Host) {
		h.latch = NewLatch(initial, repeat)
	}
}

// NewHost creates a host for an initialized screen
func NewHost(screen tcell.Screen, e engine.Engine, opts ...Option) *Host {
	h := &Host{
		screen: screen,
		engine: e,
		sound:  silent{},
		latch:  NewLatch(DefaultInitialHold, DefaultRepeatHold),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run drives the frame clock until the player quits or ctx ends
func (h *Host) Run(ctx context.Context) error {
	events := make(chan tcell.Event, 100)
	quit := make(chan struct{})
	go h.screen.ChannelEvents(events, quit)
	defer close(quit)

	ticker := time.NewTicker(time.Second / engine.FramesPerSecond)
	defer ticker.Stop()

	h.draw()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok || !h.handleEvent(ev) {
				return nil
			}
		case <-ticker.C:
			if err := h.frame(); err != nil {
				return err
			}
		}
	}
}

// frame advances the engine once and redraws
func (h *Host) frame() error {
	for _, a := range h.latch.Expire(h.now()) {
		h.release(a)
	}

	events, err := h.engine.Step(1)
	if err != nil {
		return err
	}
	h.sound.PlayEvents(events)
	h.draw()
	return nil
}

func (h *Host) draw() {
	Render(h.screen, h.engine.GetState(), Status{
		Muted:   h.muted,
		Running: h.latch.Held(actor.ActionRun),
	})
}

func (h *Host) press(a actor.Action) {
	if err := h.engine.Press(a); err != nil {
		log.Printf("press %s: %v", a, err)
	}
}

func (h *Host) release(a actor.Action) {
	if err := h.engine.Release(a); err != nil {
		log.Printf("release %s: %v", a, err)
	}
}

// handleEvent applies one terminal event; false means quit
func (h *Host) handleEvent(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC ||
			(ev.Key() == tcell.KeyRune && ev.Rune() == 'q') {
			return false
		}

		if ev.Key() == tcell.KeyRune {
			switch ev.Rune() {
			case 'r':
				for _, a := range h.latch.ReleaseAll() {
					h.release(a)
				}
				h.engine.Reset()
				h.sound.PlayEvents(h.engine.DrainEvents())
				h.draw()
				return true
			case 'm':
				h.muted = !h.muted
				h.sound.SetMuted(h.muted)
				return true
			}
		}

		a, ok := actionForKey(ev)
		if !ok {
			return true
		}
		press, release := h.latch.Observe(a, h.now())
		for _, r := range release {
			h.release(r)
		}
		for _, p := range press {
			h.press(p)
		}

	case *tcell.EventResize:
		h.screen.Sync()
		h.draw()
	}
	return true
}

// actionForKey maps a terminal key to a logical action
func actionForKey(ev *tcell.EventKey) (actor.Action, bool) {
	switch ev.Key() {
	case tcell.KeyUp:
		return actor.ActionUp, true
	case tcell.KeyDown:
		return actor.ActionDown, true
	case tcell.KeyLeft:
		return actor.ActionLeft, true
	case tcell.KeyRight:
		return actor.ActionRight, true
	case tcell.KeyEnter:
		return actor.ActionInteract, true
	case tcell.KeyTab:
		return actor.ActionRun, true
	case tcell.KeyRune:
		switch ev.Rune() {
		case 'w', 'k':
			return actor.ActionUp, true
		case 's', 'j':
			return actor.ActionDown, true
		case 'a', 'h':
			return actor.ActionLeft, true
		case 'd', 'l':
			return actor.ActionRight, true
		case ' ', 'e':
			return actor.ActionInteract, true
		}
	}
	return "", false
}
