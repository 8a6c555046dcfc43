package audio

import (
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/generators"
	"github.com/gopxl/beep/speaker"
	"github.com/wricardo/mcp-training/numberblocks/game/engine"
)

const sampleRate = beep.SampleRate(44100)

// Cue is a named sound effect
type Cue int

const (
	CueGrab Cue = iota
	CueRelease
	CueCorrect
	CueIncorrect
	CueSolved
	CueVictory
)

var cueNames = map[Cue]string{
	CueGrab:      "grab",
	CueRelease:   "release",
	CueCorrect:   "correct",
	CueIncorrect: "incorrect",
	CueSolved:    "solved",
	CueVictory:   "victory",
}

func (c Cue) String() string {
	return cueNames[c]
}

// note is one tone of a cue
type note struct {
	freq float64
	dur  time.Duration
}

var cueNotes = map[Cue][]note{
	CueGrab:      {{660, 50 * time.Millisecond}},
	CueRelease:   {{440, 50 * time.Millisecond}},
	CueCorrect:   {{660, 60 * time.Millisecond}, {880, 90 * time.Millisecond}},
	CueIncorrect: {{220, 150 * time.Millisecond}},
	CueSolved:    {{523.25, 80 * time.Millisecond}, {659.25, 80 * time.Millisecond}, {783.99, 160 * time.Millisecond}},
	CueVictory: {{523.25, 100 * time.Millisecond}, {659.25, 100 * time.Millisecond}, {783.99, 100 * time.Millisecond},
		{1046.5, 300 * time.Millisecond}},
}

// CueFor maps an engine event type to its cue
func CueFor(eventType string) (Cue, bool) {
	switch eventType {
	case engine.EventGrab:
		return CueGrab, true
	case engine.EventRelease:
		return CueRelease, true
	case engine.EventCorrect:
		return CueCorrect, true
	case engine.EventIncorrect:
		return CueIncorrect, true
	case engine.EventSolved:
		return CueSolved, true
	case engine.EventVictory:
		return CueVictory, true
	}
	return 0, false
}

// Streamer builds the sound of a cue
func (c Cue) Streamer() beep.Streamer {
	notes := cueNotes[c]
	parts := make([]beep.Streamer, 0, len(notes))
	for _, n := range notes {
		sine, err := generators.SineTone(sampleRate, n.freq)
		if err != nil {
			continue
		}
		parts = append(parts, beep.Take(sampleRate.N(n.dur), sine))
	}
	return &effects.Gain{Streamer: beep.Seq(parts...), Gain: -0.8}
}

// Player plays cues through the speaker
type Player struct {
	mu          sync.Mutex
	mixer       *beep.Mixer
	initialized bool
	muted       bool
}

// NewPlayer creates a player; call Initialize before expecting sound
func NewPlayer() *Player {
	return &Player{
		mixer: &beep.Mixer{},
	}
}

// Initialize opens the speaker
func (p *Player) Initialize() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.initialized {
		return nil
	}

	if err := speaker.Init(sampleRate, sampleRate.N(time.Second/10)); err != nil {
		return err
	}

	speaker.Play(p.mixer)
	p.initialized = true
	return nil
}

// SetMuted silences cues without closing the speaker
func (p *Player) SetMuted(muted bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.muted = muted
}

// Play queues a cue on the mixer
func (p *Player) Play(c Cue) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.initialized || p.muted {
		return
	}

	speaker.Lock()
	p.mixer.Add(c.Streamer())
	speaker.Unlock()
}

// PlayEvents plays the cue of every event that has one
func (p *Player) PlayEvents(events []engine.Event) {
	for _, ev := range events {
		if c, ok := CueFor(ev.Type); ok {
			p.Play(c)
		}
	}
}

// Close stops all sound and releases the speaker
func (p *Player) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.initialized {
		return
	}

	speaker.Lock()
	p.mixer.Clear()
	speaker.Unlock()
	speaker.Close()
	p.initialized = false
}
