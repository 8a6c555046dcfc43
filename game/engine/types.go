package engine

import (
	"github.com/wricardo/mcp-training/numberblocks/game/actor"
	"github.com/wricardo/mcp-training/numberblocks/game/assembly"
	"github.com/wricardo/mcp-training/numberblocks/game/blocks"
	"github.com/wricardo/mcp-training/numberblocks/game/problem"
)

const (
	// Validation constants
	MinWorldSize      = 8
	MaxWorldSize      = 200
	MinTileSize       = 4
	MaxTileSize       = 256
	MaxProblems       = 20
	MaxOperand        = 9999
	MaxDistractors    = 50
	MaxStepFrames     = 600
	DefaultTileSize   = 32
	FramesPerSecond   = 60
	StepFramesDefault = 1
)

// Event types reported by Step
const (
	EventGrab      = "grab"
	EventRelease   = "release"
	EventCorrect   = "correct"
	EventIncorrect = "incorrect"
	EventMerge     = "merge"
	EventSolved    = "solved"
	EventVictory   = "victory"
	EventReset     = "reset"
)

// Cell is a position on the crate grid. One cell is one crate wide (two tiles).
type Cell struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Rect is a block of cells: X, Y is the top-left cell
type Rect struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// Contains reports whether c lies inside the rectangle
func (r Rect) Contains(c Cell) bool {
	return c.X >= r.X && c.X < r.X+r.W && c.Y >= r.Y && c.Y < r.Y+r.H
}

// Area returns the number of cells covered
func (r Rect) Area() int {
	return r.W * r.H
}

// ProblemSlot configures one arithmetic problem on the map
type ProblemSlot struct {
	Anchor    Cell     `json:"anchor"`
	Min       int      `json:"min,omitempty"`       // defaults to 1 when max is left out
	Max       int      `json:"max,omitempty"`       // defaults to 10
	Operators []string `json:"operators,omitempty"` // defaults to + - * /
	Scramble  *bool    `json:"scramble,omitempty"`  // defaults to true
}

// SlotRange returns the operand range. A max of 0 means the range was left
// out: max becomes 10 and an unset min becomes 1.
func (s ProblemSlot) SlotRange() (int, int) {
	if s.Max != 0 {
		return s.Min, s.Max
	}
	min := s.Min
	if min == 0 {
		min = problem.DefaultMin
	}
	return min, problem.DefaultMax
}

// Scrambled reports whether the slot's answer starts scattered
func (s ProblemSlot) Scrambled() bool {
	return s.Scramble == nil || *s.Scramble
}

// LooseDigit is a fixed extra block placed on the map
type LooseDigit struct {
	Value string `json:"value"`
	At    Cell   `json:"at"`
}

// GameConfig represents a level loaded from JSON
type GameConfig struct {
	Name          string        `json:"name"`
	Description   string        `json:"description"`
	TileSize      float64       `json:"tile_size"`
	Width         int           `json:"width"`  // in cells
	Height        int           `json:"height"` // in cells
	PlayerStart   Cell          `json:"player_start"`
	Speed         float64       `json:"speed,omitempty"`
	RunMultiplier float64       `json:"run_multiplier,omitempty"`
	Walls         []Rect        `json:"walls,omitempty"`
	Problems      []ProblemSlot `json:"problems"`
	ScrambleArea  *Rect         `json:"scramble_area,omitempty"`
	LooseDigits   []LooseDigit  `json:"loose_digits,omitempty"`
	Distractors   int           `json:"distractors,omitempty"`
	Messages      Messages      `json:"messages"`
}

// Messages are the player-facing texts of a level
type Messages struct {
	Welcome   string `json:"welcome"`
	Grab      string `json:"grab,omitempty"`
	Correct   string `json:"correct,omitempty"`
	Incorrect string `json:"incorrect,omitempty"`
	Merged    string `json:"merged,omitempty"`
	Solved    string `json:"solved,omitempty"`
	Victory   string `json:"victory"`
}

// PlayerState is the actor's part of a snapshot
type PlayerState struct {
	X           float64           `json:"x"`
	Y           float64           `json:"y"`
	Cell        Cell              `json:"cell"`
	Orientation actor.Orientation `json:"orientation"`
	Keys        actor.Keys        `json:"keys"`
	Held        blocks.BlockID    `json:"held,omitempty"`
	HeldOffsetX float64           `json:"held_offset_x,omitempty"`
	HeldOffsetY float64           `json:"held_offset_y,omitempty"`
	GrabOrigin  *Cell             `json:"grab_origin,omitempty"`
	Target      blocks.BlockID    `json:"target,omitempty"`
}

// BlockState describes one block
type BlockState struct {
	ID             blocks.BlockID        `json:"id"`
	Value          blocks.Value          `json:"value"`
	Classification blocks.Classification `json:"classification"`
	GroupPosition  blocks.GroupPosition  `json:"group_position"`
	X              float64               `json:"x"`
	Y              float64               `json:"y"`
	Cell           Cell                  `json:"cell"`
	Group          blocks.GroupID        `json:"group"`
	Held           bool                  `json:"held,omitempty"`
	Frame          string                `json:"frame,omitempty"`
	Overlay        string                `json:"overlay,omitempty"`
}

// GroupState describes one group
type GroupState struct {
	ID     blocks.GroupID   `json:"id"`
	Text   string           `json:"text"`
	Blocks []blocks.BlockID `json:"blocks"`
	X      float64          `json:"x"`
	Y      float64          `json:"y"`
}

// ProblemState describes one laid-out problem
type ProblemState struct {
	ID        string           `json:"id"`
	Text      string           `json:"text"`
	LHS       int              `json:"lhs"`
	Operator  string           `json:"operator"`
	RHS       int              `json:"rhs"`
	Answer    int              `json:"answer"`
	Anchor    Cell             `json:"anchor"`
	Groups    []blocks.GroupID `json:"groups"` // lhs, operator, rhs, equals, answer (0 once scattered)
	Slots     []assembly.Slot  `json:"slots"`
	SlotCells []Cell           `json:"slot_cells"`
	Scattered bool             `json:"scattered"`
	Solved    bool             `json:"solved"`
}

// GameState is a complete, restorable snapshot of a world
type GameState struct {
	ConfigName    string         `json:"config_name"`
	Seed          int64          `json:"seed"`
	Resets        int            `json:"resets"`
	Frame         int64          `json:"frame"`
	Width         int            `json:"width"`
	Height        int            `json:"height"`
	TileSize      float64        `json:"tile_size"`
	Pitch         float64        `json:"pitch"`
	Walls         []Rect         `json:"walls"`
	Player        PlayerState    `json:"player"`
	Blocks        []BlockState   `json:"blocks"`
	Groups        []GroupState   `json:"groups"`
	Problems      []ProblemState `json:"problems"`
	Caption       bool           `json:"caption"`
	Score         int            `json:"score"`
	TotalProblems int            `json:"total_problems"`
	Victory       bool           `json:"victory"`
	Message       string         `json:"message"`

	History           []InteractionEntry `json:"history"`
	TotalInteractions int                `json:"total_interactions"`

	// CurrentInteractions tracks only the interactions since the last reset. It mirrors
	// History entries but gets cleared on reset while History remains cumulative.
	CurrentInteractions      []InteractionEntry `json:"current_interactions"`
	CurrentInteractionsCount int                `json:"current_interactions_count"`
}

// InteractionEntry records one grab or release
type InteractionEntry struct {
	Action    string         `json:"action"`
	BlockID   blocks.BlockID `json:"block_id"`
	Value     blocks.Value   `json:"value"`
	From      Cell           `json:"from"`
	To        Cell           `json:"to"`
	Result    string         `json:"result,omitempty"`
	Frame     int64          `json:"frame"`
	Timestamp int64          `json:"timestamp"`
	Number    int            `json:"number"`
}

// Event is something notable that happened during a step
type Event struct {
	Type      string         `json:"type"`
	Frame     int64          `json:"frame"`
	BlockID   blocks.BlockID `json:"block_id,omitempty"`
	ProblemID string         `json:"problem_id,omitempty"`
	Message   string         `json:"message,omitempty"`
}

// BlockInfo is a detailed description of a single block
type BlockInfo struct {
	BlockState
	GroupText string `json:"group_text"`
	Grabbable bool   `json:"grabbable"`
	Layer     string `json:"layer"`
	ProblemID string `json:"problem_id,omitempty"`
	SlotIndex *int   `json:"slot_index,omitempty"`
}
