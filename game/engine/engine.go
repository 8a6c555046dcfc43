package engine

import (
	"errors"
	"fmt"
	"time"

	"github.com/wricardo/mcp-training/numberblocks/game/actor"
	"github.com/wricardo/mcp-training/numberblocks/game/blocks"
)

var (
	ErrBlockNotFound = errors.New("block not found")
	ErrInvalidFrames = errors.New("invalid frame count")
)

// Engine provides the main interface for game operations
type Engine interface {
	// Game state management
	GetState() *GameState
	SetState(state *GameState) error
	Reset() *GameState
	IsVictory() bool
	GetScore() int
	GetSeed() int64

	// Input and the frame clock
	Press(action actor.Action) error
	Release(action actor.Action) error
	Tick() error
	Step(frames int) ([]Event, error)
	DrainEvents() []Event

	// Configuration
	GetConfig() *GameConfig
	SetConfig(config *GameConfig) error

	// History
	GetInteractionHistory() []InteractionEntry
	GetLastInteraction() *InteractionEntry

	// Blocks
	DescribeBlock(id blocks.BlockID) (*BlockInfo, error)
}

// GameEngine implements the Engine interface
type GameEngine struct {
	config *GameConfig
	seed   int64
	resets int
	world  *world

	history      []InteractionEntry
	total        int
	current      []InteractionEntry
	currentCount int
}

// NewEngine creates a new game engine with the provided configuration. The
// seed fixes which problems are drawn and where answers are scattered.
func NewEngine(config *GameConfig, seed int64) (*GameEngine, error) {
	if err := ValidateGameConfig(config); err != nil {
		return nil, err
	}

	w, err := newWorld(config, seed)
	if err != nil {
		return nil, fmt.Errorf("build world: %w", err)
	}

	return &GameEngine{
		config:  config,
		seed:    seed,
		world:   w,
		history: []InteractionEntry{},
		current: []InteractionEntry{},
	}, nil
}

// NewEngineWithDefaults creates a new game engine with the built-in level
func NewEngineWithDefaults(seed int64) *GameEngine {
	engine, err := NewEngine(DefaultConfig(), seed)
	if err != nil {
		// the built-in level is validated by tests
		panic(err)
	}
	return engine
}

// worldSeed derives the seed of the current world so each reset deals a new board
func (e *GameEngine) worldSeed() int64 {
	return e.seed + int64(e.resets)
}

// GetState returns a snapshot of the current world
func (e *GameEngine) GetState() *GameState {
	return e.snapshot()
}

// SetState rebuilds the world from a snapshot (used for persistence loading)
func (e *GameEngine) SetState(state *GameState) error {
	if state == nil {
		return fmt.Errorf("state cannot be nil")
	}
	w, err := restoreWorld(e.config, state)
	if err != nil {
		return fmt.Errorf("restore state: %w", err)
	}

	e.world = w
	e.seed = state.Seed
	e.resets = state.Resets
	e.history = append([]InteractionEntry{}, state.History...)
	e.total = state.TotalInteractions
	e.current = append([]InteractionEntry{}, state.CurrentInteractions...)
	e.currentCount = state.CurrentInteractionsCount
	return nil
}

// Reset deals a new board from the same level
func (e *GameEngine) Reset() *GameState {
	e.resets++
	w, err := newWorld(e.config, e.worldSeed())
	if err != nil {
		// the config was validated, so only an exhausted draw cap gets here
		e.world.message = fmt.Sprintf("Reset failed: %v", err)
		return e.snapshot()
	}
	e.world = w

	// Preserve cumulative history and totals; clear only the current segment
	e.current = []InteractionEntry{}
	e.currentCount = 0

	w.emit(Event{Type: EventReset, Message: e.config.Messages.Welcome})
	return e.snapshot()
}

// IsVictory returns whether every problem is solved
func (e *GameEngine) IsVictory() bool {
	return e.world.victory
}

// GetScore returns the number of solved problems
func (e *GameEngine) GetScore() int {
	return e.world.score
}

// GetSeed returns the engine's base seed
func (e *GameEngine) GetSeed() int64 {
	return e.seed
}

// Press marks a key as held from the next frame on
func (e *GameEngine) Press(action actor.Action) error {
	return e.world.actor.SetKey(action, true)
}

// Release marks a key as no longer held
func (e *GameEngine) Release(action actor.Action) error {
	return e.world.actor.SetKey(action, false)
}

// Tick advances the world by one frame
func (e *GameEngine) Tick() error {
	w := e.world
	before := w.actor.Held()
	var from Cell
	if before != nil {
		from = w.cellOf(w.actor.HeldFrom())
	}

	w.frame++
	w.lastSettle = ""
	err := w.actor.Update()

	after := w.actor.Held()
	switch {
	case before == nil && after != nil:
		c := w.cellOf(w.actor.HeldFrom())
		e.AddInteractionToHistory(EventGrab, after, c, c, "")
		w.setMessage(e.config.Messages.Grab)
		w.emit(Event{Type: EventGrab, BlockID: after.ID(), Message: e.config.Messages.Grab})
	case before != nil && after == nil:
		e.AddInteractionToHistory(EventRelease, before, from, w.blockCell(before), w.lastSettle)
	}
	return err
}

// Step runs up to frames ticks and returns the events they produced. It stops
// at the first frame that fails.
func (e *GameEngine) Step(frames int) ([]Event, error) {
	if frames < 0 || frames > MaxStepFrames {
		return nil, fmt.Errorf("%w: %d (0-%d)", ErrInvalidFrames, frames, MaxStepFrames)
	}
	for i := 0; i < frames; i++ {
		if err := e.Tick(); err != nil {
			return e.world.drain(), err
		}
	}
	return e.world.drain(), nil
}

// DrainEvents returns and clears events not yet reported by Step
func (e *GameEngine) DrainEvents() []Event {
	return e.world.drain()
}

// GetConfig returns the current level
func (e *GameEngine) GetConfig() *GameConfig {
	return e.config
}

// SetConfig switches to a new level and deals a fresh board
func (e *GameEngine) SetConfig(config *GameConfig) error {
	if err := ValidateGameConfig(config); err != nil {
		return err
	}
	w, err := newWorld(config, e.worldSeed())
	if err != nil {
		return err
	}
	e.config = config
	e.world = w
	return nil
}

// GetInteractionHistory returns every grab and release, across resets
func (e *GameEngine) GetInteractionHistory() []InteractionEntry {
	return e.history
}

// GetLastInteraction returns the most recent grab or release, or nil
func (e *GameEngine) GetLastInteraction() *InteractionEntry {
	if len(e.history) == 0 {
		return nil
	}
	return &e.history[len(e.history)-1]
}

// AddInteractionToHistory appends to both the cumulative and current-segment history
func (e *GameEngine) AddInteractionToHistory(action string, b *blocks.DigitBlock, from, to Cell, result string) {
	e.total++
	entry := InteractionEntry{
		Action:    action,
		BlockID:   b.ID(),
		Value:     b.Value(),
		From:      from,
		To:        to,
		Result:    result,
		Frame:     e.world.frame,
		Timestamp: time.Now().Unix(),
		Number:    e.total,
	}
	e.history = append(e.history, entry)
	e.current = append(e.current, entry)
	e.currentCount++
}

// DescribeBlock returns details about a single block
func (e *GameEngine) DescribeBlock(id blocks.BlockID) (*BlockInfo, error) {
	w := e.world
	b, ok := w.table.Block(id)
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrBlockNotFound, id)
	}

	info := &BlockInfo{
		BlockState: w.blockState(b),
		Grabbable:  b.Classification().Grabbable(),
	}
	if g, ok := b.Group(); ok {
		info.GroupText = g.String()
	}
	if layer, err := w.scene.LayerOf(b.Sprite()); err == nil {
		info.Layer = layer
	}
	if v := w.problemOf(b); v != nil {
		info.ProblemID = v.ID
	}
	if v, i, ok := w.slotAt(w.blockCell(b)); ok {
		info.ProblemID = v.ID
		info.SlotIndex = &i
	}
	return info, nil
}
