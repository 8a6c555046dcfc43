package engine

import (
	"errors"
	"testing"

	"github.com/wricardo/mcp-training/numberblocks/game/actor"
	"github.com/wricardo/mcp-training/numberblocks/game/blocks"
)

// createTestConfig is a single fixed problem (2 + 2 = 4) on a 16x10 yard with
// one loose 7 well away from the scramble area
func createTestConfig() *GameConfig {
	config := &GameConfig{
		Name:        "engine-test",
		Description: "Configuration for engine integration tests",
		TileSize:    32,
		Width:       16,
		Height:      10,
		PlayerStart: Cell{X: 14, Y: 8},
		Problems: []ProblemSlot{
			{Anchor: Cell{X: 1, Y: 1}, Min: 2, Max: 2, Operators: []string{"+"}},
		},
		ScrambleArea: &Rect{X: 1, Y: 7, W: 6, H: 2},
		LooseDigits:  []LooseDigit{{Value: "7", At: Cell{X: 12, Y: 4}}},
	}
	config.Messages.Welcome = "Welcome to engine test!"
	config.Messages.Grab = "Grabbed!"
	config.Messages.Correct = "Correct!"
	config.Messages.Incorrect = "Incorrect!"
	config.Messages.Merged = "Merged into %s"
	config.Messages.Solved = "Solved %s"
	config.Messages.Victory = "Victory! All %d problems solved!"
	return config
}

func newTestEngine(t *testing.T) *GameEngine {
	t.Helper()
	engine, err := NewEngine(createTestConfig(), 42)
	if err != nil {
		t.Fatalf("Failed to create new engine: %v", err)
	}
	return engine
}

// blockWithValue finds the first block holding v that matches keep
func blockWithValue(t *testing.T, e *GameEngine, v blocks.Value, keep func(*blocks.DigitBlock) bool) *blocks.DigitBlock {
	t.Helper()
	for _, b := range e.world.table.Blocks() {
		if b.Value() == v && (keep == nil || keep(b)) {
			return b
		}
	}
	t.Fatalf("no block with value %s", v)
	return nil
}

func answerBlock(t *testing.T, e *GameEngine) *blocks.DigitBlock {
	return blockWithValue(t, e, '4', func(b *blocks.DigitBlock) bool {
		return b.Classification() == blocks.Movable
	})
}

func TestNewEngine(t *testing.T) {
	engine := newTestEngine(t)

	if engine.GetScore() != 0 {
		t.Errorf("Expected initial score 0, got %d", engine.GetScore())
	}
	if engine.IsVictory() {
		t.Error("Expected game not to be victory initially")
	}
	if engine.GetSeed() != 42 {
		t.Errorf("Expected seed 42, got %d", engine.GetSeed())
	}

	state := engine.GetState()
	if state.Message != "Welcome to engine test!" {
		t.Errorf("Expected welcome message, got %q", state.Message)
	}
	if len(state.Problems) != 1 || state.TotalProblems != 1 {
		t.Fatalf("Expected 1 problem, got %d", len(state.Problems))
	}
	p := state.Problems[0]
	if p.Text != "2 + 2 = 4" {
		t.Errorf("Expected problem '2 + 2 = 4', got %q", p.Text)
	}
	if !p.Scattered {
		t.Error("Expected answer to start scattered")
	}
	if len(p.SlotCells) != 1 || p.SlotCells[0] != (Cell{X: 9, Y: 1}) {
		t.Errorf("Expected answer slot at (9,1), got %v", p.SlotCells)
	}
	// lhs, operator, rhs, equals, scattered answer and the loose 7
	if len(state.Blocks) != 6 {
		t.Errorf("Expected 6 blocks, got %d", len(state.Blocks))
	}
	if state.Pitch != 64 {
		t.Errorf("Expected pitch 64, got %v", state.Pitch)
	}
	if state.Player.Cell != (Cell{X: 14, Y: 8}) {
		t.Errorf("Expected player at (14,8), got %v", state.Player.Cell)
	}
}

func TestNewEngine_InvalidConfig(t *testing.T) {
	config := createTestConfig()
	config.Name = ""

	if _, err := NewEngine(config, 1); err == nil {
		t.Error("Expected error for invalid config")
	}
	if _, err := NewEngine(nil, 1); err == nil {
		t.Error("Expected error for nil config")
	}
}

func TestNewEngineWithDefaults(t *testing.T) {
	engine := NewEngineWithDefaults(7)
	state := engine.GetState()

	if state.ConfigName != "classic" {
		t.Errorf("Expected classic config, got %q", state.ConfigName)
	}
	if state.TotalProblems != 3 {
		t.Errorf("Expected 3 problems, got %d", state.TotalProblems)
	}
	for _, p := range state.Problems {
		if p.Answer < 0 {
			t.Errorf("Problem %s has a negative answer", p.Text)
		}
	}
}

func TestEngine_SameSeedSameBoard(t *testing.T) {
	a := NewEngineWithDefaults(99).GetState()
	b := NewEngineWithDefaults(99).GetState()

	for i := range a.Problems {
		if a.Problems[i].Text != b.Problems[i].Text {
			t.Errorf("Problem %d differs: %q vs %q", i, a.Problems[i].Text, b.Problems[i].Text)
		}
	}
	for i := range a.Blocks {
		if a.Blocks[i].Cell != b.Blocks[i].Cell || a.Blocks[i].Value != b.Blocks[i].Value {
			t.Errorf("Block %d differs: %+v vs %+v", i, a.Blocks[i], b.Blocks[i])
		}
	}
}

func TestEngine_Movement(t *testing.T) {
	tests := []struct {
		name   string
		keys   []actor.Action
		frames int
		dx, dy float64
		facing actor.Orientation
	}{
		{"walk left", []actor.Action{actor.ActionLeft}, 10, -50, 0, actor.FacingLeft},
		{"walk up", []actor.Action{actor.ActionUp}, 4, 0, -20, actor.FacingUp},
		{"run left", []actor.Action{actor.ActionLeft, actor.ActionRun}, 2, -15, 0, actor.FacingLeft},
		{"opposite keys cancel", []actor.Action{actor.ActionLeft, actor.ActionRight}, 5, 0, 0, actor.FacingRight},
		{"no keys", nil, 5, 0, 0, actor.FacingDown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := newTestEngine(t)
			x, y := engine.world.actor.Position()

			for _, k := range tt.keys {
				if err := engine.Press(k); err != nil {
					t.Fatalf("Press(%s) failed: %v", k, err)
				}
			}
			if _, err := engine.Step(tt.frames); err != nil {
				t.Fatalf("Step failed: %v", err)
			}

			nx, ny := engine.world.actor.Position()
			if nx-x != tt.dx || ny-y != tt.dy {
				t.Errorf("Expected move (%v,%v), got (%v,%v)", tt.dx, tt.dy, nx-x, ny-y)
			}
			if engine.world.actor.Orientation() != tt.facing {
				t.Errorf("Expected facing %s, got %s", tt.facing, engine.world.actor.Orientation())
			}
			if engine.GetState().Frame != int64(tt.frames) {
				t.Errorf("Expected frame %d, got %d", tt.frames, engine.GetState().Frame)
			}
		})
	}
}

func TestEngine_WallsStopPlayer(t *testing.T) {
	engine := newTestEngine(t)
	engine.Press(actor.ActionDown)

	// start is the bottom row; the boundary wall sits one cell below
	if _, err := engine.Step(60); err != nil {
		t.Fatalf("Step failed: %v", err)
	}
	state := engine.GetState()
	if state.Player.Cell.Y != 8 && state.Player.Cell.Y != 9 {
		t.Errorf("Expected player to stay inside the yard, got %v", state.Player.Cell)
	}
	maxY := float64(engine.config.Height)*state.Pitch - state.Pitch/2
	if state.Player.Y > maxY {
		t.Errorf("Player walked into the boundary wall: y=%v", state.Player.Y)
	}
}

func TestEngine_Press_UnknownAction(t *testing.T) {
	engine := newTestEngine(t)
	if err := engine.Press("jump"); !errors.Is(err, actor.ErrUnknownAction) {
		t.Errorf("Expected ErrUnknownAction, got %v", err)
	}
	if err := engine.Release("jump"); !errors.Is(err, actor.ErrUnknownAction) {
		t.Errorf("Expected ErrUnknownAction, got %v", err)
	}
}

func TestEngine_Step_InvalidFrames(t *testing.T) {
	engine := newTestEngine(t)
	for _, frames := range []int{-1, MaxStepFrames + 1} {
		if _, err := engine.Step(frames); !errors.Is(err, ErrInvalidFrames) {
			t.Errorf("Step(%d): expected ErrInvalidFrames, got %v", frames, err)
		}
	}
	if _, err := engine.Step(0); err != nil {
		t.Errorf("Step(0) should succeed, got %v", err)
	}
}

// standNextTo places the player just right of b, facing it
func standNextTo(e *GameEngine, b *blocks.DigitBlock) {
	x, y := b.Position()
	e.world.actor.Teleport(x+50, y, actor.FacingLeft)
}

func TestEngine_Caption(t *testing.T) {
	engine := newTestEngine(t)

	seven := blockWithValue(t, engine, '7', nil)
	standNextTo(engine, seven)
	engine.Step(1)
	if !engine.GetState().Caption {
		t.Error("Expected caption next to a movable block")
	}
	if engine.GetState().Player.Target != seven.ID() {
		t.Errorf("Expected target %d, got %d", seven.ID(), engine.GetState().Player.Target)
	}

	lhs := engine.world.problems[0].LHS.Blocks()[0]
	standNextTo(engine, lhs)
	engine.Step(1)
	if engine.GetState().Caption {
		t.Error("Expected no caption next to an immovable block")
	}

	engine.world.actor.Teleport(14*64, 8*64, actor.FacingDown)
	engine.Step(1)
	if engine.GetState().Caption {
		t.Error("Expected no caption away from blocks")
	}
}

func TestEngine_GrabAndRelease(t *testing.T) {
	engine := newTestEngine(t)
	seven := blockWithValue(t, engine, '7', nil)
	standNextTo(engine, seven)

	engine.Press(actor.ActionInteract)
	events, err := engine.Step(1)
	if err != nil {
		t.Fatalf("Step failed: %v", err)
	}
	if len(events) != 1 || events[0].Type != EventGrab || events[0].BlockID != seven.ID() {
		t.Fatalf("Expected a single grab event, got %+v", events)
	}

	state := engine.GetState()
	if state.Player.Held != seven.ID() {
		t.Fatalf("Expected player to hold block %d, got %d", seven.ID(), state.Player.Held)
	}
	if state.Message != "Grabbed!" {
		t.Errorf("Expected grab message, got %q", state.Message)
	}
	info, err := engine.DescribeBlock(seven.ID())
	if err != nil {
		t.Fatalf("DescribeBlock failed: %v", err)
	}
	if info.Layer != "player" || !info.Held {
		t.Errorf("Expected held block in player layer, got layer %q held %v", info.Layer, info.Held)
	}

	engine.Release(actor.ActionInteract)
	events, err = engine.Step(1)
	if err != nil {
		t.Fatalf("Step failed: %v", err)
	}
	if len(events) != 1 || events[0].Type != EventRelease {
		t.Fatalf("Expected a single release event, got %+v", events)
	}

	state = engine.GetState()
	if state.Player.Held != 0 {
		t.Error("Expected hands to be empty after release")
	}
	info, _ = engine.DescribeBlock(seven.ID())
	if info.Layer != "numbers" || info.Cell != (Cell{X: 12, Y: 4}) {
		t.Errorf("Expected block back in numbers at (12,4), got %q at %v", info.Layer, info.Cell)
	}

	history := engine.GetInteractionHistory()
	if len(history) != 2 {
		t.Fatalf("Expected 2 interactions, got %d", len(history))
	}
	if history[0].Action != EventGrab || history[1].Action != EventRelease {
		t.Errorf("Expected grab then release, got %s then %s", history[0].Action, history[1].Action)
	}
	if history[1].Result != SettlePlaced || history[1].Number != 2 {
		t.Errorf("Unexpected release entry: %+v", history[1])
	}
	if last := engine.GetLastInteraction(); last == nil || last.Action != EventRelease {
		t.Errorf("Expected last interaction to be the release, got %+v", last)
	}
}

func TestEngine_CannotGrabFixedBlocks(t *testing.T) {
	engine := newTestEngine(t)
	lhs := engine.world.problems[0].LHS.Blocks()[0]
	standNextTo(engine, lhs)

	engine.Press(actor.ActionInteract)
	engine.Step(3)

	if engine.GetState().Player.Held != 0 {
		t.Error("Expected immovable operand to stay put")
	}
	if len(engine.GetInteractionHistory()) != 0 {
		t.Error("Expected no interactions")
	}
}

func TestEngine_SolveProblem(t *testing.T) {
	engine := newTestEngine(t)
	w := engine.world
	answer := answerBlock(t, engine)

	slot := w.problems[0].Slots()[0]
	answer.MoveTo(slot.X+3, slot.Y-2)
	if err := w.Settle(answer); err != nil {
		t.Fatalf("Settle failed: %v", err)
	}
	w.UpdateScore()

	if answer.Classification() != blocks.Correct {
		t.Errorf("Expected correct classification, got %s", answer.Classification())
	}
	if x, y := answer.Position(); x != slot.X || y != slot.Y {
		t.Errorf("Expected block snapped to slot, got (%v,%v)", x, y)
	}
	if engine.GetScore() != 1 || !engine.IsVictory() {
		t.Errorf("Expected score 1 and victory, got %d %v", engine.GetScore(), engine.IsVictory())
	}
	if engine.GetState().Message != "Victory! All 1 problems solved!" {
		t.Errorf("Unexpected message %q", engine.GetState().Message)
	}

	var types []string
	for _, ev := range engine.DrainEvents() {
		types = append(types, ev.Type)
	}
	want := []string{EventRelease, EventCorrect, EventSolved, EventVictory}
	if len(types) != len(want) {
		t.Fatalf("Expected events %v, got %v", want, types)
	}
	for i := range want {
		if types[i] != want[i] {
			t.Errorf("Event %d: expected %s, got %s", i, want[i], types[i])
		}
	}
	if answer.Classification().Grabbable() {
		t.Error("Correct blocks should not be grabbable")
	}
}

func TestEngine_Reset(t *testing.T) {
	engine := newTestEngine(t)
	seven := blockWithValue(t, engine, '7', nil)
	standNextTo(engine, seven)
	engine.Press(actor.ActionInteract)
	engine.Step(1)
	engine.Release(actor.ActionInteract)
	engine.Step(1)

	state := engine.Reset()
	if state.Resets != 1 {
		t.Errorf("Expected 1 reset, got %d", state.Resets)
	}
	if state.Frame != 0 || state.Player.Held != 0 {
		t.Error("Expected a fresh world after reset")
	}
	if state.TotalInteractions != 2 || len(state.History) != 2 {
		t.Errorf("Expected cumulative history of 2, got %d", state.TotalInteractions)
	}
	if state.CurrentInteractionsCount != 0 || len(state.CurrentInteractions) != 0 {
		t.Errorf("Expected current interactions cleared, got %d", state.CurrentInteractionsCount)
	}
	if state.Message != "Welcome to engine test!" {
		t.Errorf("Expected welcome message after reset, got %q", state.Message)
	}

	events, _ := engine.Step(0)
	if len(events) != 1 || events[0].Type != EventReset {
		t.Errorf("Expected reset event, got %+v", events)
	}
}

func TestEngine_ConfigManagement(t *testing.T) {
	engine := newTestEngine(t)

	if engine.GetConfig().Name != "engine-test" {
		t.Errorf("Expected engine-test config, got %q", engine.GetConfig().Name)
	}

	if err := engine.SetConfig(DefaultConfig()); err != nil {
		t.Fatalf("SetConfig failed: %v", err)
	}
	if engine.GetState().TotalProblems != 3 {
		t.Errorf("Expected 3 problems after switching level, got %d", engine.GetState().TotalProblems)
	}

	bad := createTestConfig()
	bad.Width = 2
	if err := engine.SetConfig(bad); err == nil {
		t.Error("Expected error for invalid config")
	}
	if engine.GetConfig().Name != "classic" {
		t.Error("Invalid config should not replace the current one")
	}
}

func TestEngine_DescribeBlock(t *testing.T) {
	engine := newTestEngine(t)
	p := engine.world.problems[0]

	lhs := p.LHS.Blocks()[0]
	info, err := engine.DescribeBlock(lhs.ID())
	if err != nil {
		t.Fatalf("DescribeBlock failed: %v", err)
	}
	if info.Grabbable || info.Classification != blocks.Immovable {
		t.Errorf("Expected immovable operand, got %+v", info)
	}
	if info.ProblemID != p.ID || info.GroupText != "2" || info.Layer != "numbers" {
		t.Errorf("Unexpected operand info: %+v", info)
	}
	if info.SlotIndex != nil {
		t.Error("Operand should not be on a slot")
	}

	if _, err := engine.DescribeBlock(999); !errors.Is(err, ErrBlockNotFound) {
		t.Errorf("Expected ErrBlockNotFound, got %v", err)
	}
}

func TestEngine_StateRoundTrip(t *testing.T) {
	engine := newTestEngine(t)
	seven := blockWithValue(t, engine, '7', nil)
	standNextTo(engine, seven)
	engine.Press(actor.ActionInteract)
	engine.Step(1)

	saved := engine.GetState()
	restored := newTestEngine(t)
	if err := restored.SetState(saved); err != nil {
		t.Fatalf("SetState failed: %v", err)
	}

	state := restored.GetState()
	if state.Player.Held != saved.Player.Held || !state.Player.Keys.Interact {
		t.Errorf("Expected held block and pressed keys to survive, got %+v", state.Player)
	}
	if state.Frame != saved.Frame || state.Message != saved.Message {
		t.Error("Expected frame and message to survive")
	}
	if len(state.Blocks) != len(saved.Blocks) {
		t.Fatalf("Expected %d blocks, got %d", len(saved.Blocks), len(state.Blocks))
	}
	for i := range saved.Blocks {
		a, b := saved.Blocks[i], state.Blocks[i]
		if a.ID != b.ID || a.Value != b.Value || a.Cell != b.Cell || a.Classification != b.Classification {
			t.Errorf("Block %d differs: %+v vs %+v", i, a, b)
		}
	}
	if state.Problems[0].Text != "2 + 2 = 4" || state.Problems[0].SlotCells[0] != saved.Problems[0].SlotCells[0] {
		t.Errorf("Problem did not survive: %+v", state.Problems[0])
	}
	if len(restored.GetInteractionHistory()) != 1 {
		t.Errorf("Expected history to survive, got %d", len(restored.GetInteractionHistory()))
	}

	// the restored world keeps playing
	restored.Release(actor.ActionInteract)
	events, err := restored.Step(1)
	if err != nil {
		t.Fatalf("Step after restore failed: %v", err)
	}
	if len(events) == 0 || events[0].Type != EventRelease {
		t.Errorf("Expected release after restore, got %+v", events)
	}
}

func TestEngine_SetState_Nil(t *testing.T) {
	engine := newTestEngine(t)
	if err := engine.SetState(nil); err == nil {
		t.Error("Expected error for nil state")
	}
}
