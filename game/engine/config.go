package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/wricardo/mcp-training/numberblocks/game/blocks"
	"github.com/wricardo/mcp-training/numberblocks/game/problem"
)

// ValidateGameConfig validates a level for correctness and playability
func ValidateGameConfig(config *GameConfig) error {
	if config == nil {
		return fmt.Errorf("config validation: config is required")
	}

	// Validate required fields
	if config.Name == "" {
		return fmt.Errorf("config validation: name is required")
	}
	if config.Description == "" {
		return fmt.Errorf("config validation: description is required")
	}

	// Validate world size
	if config.TileSize < MinTileSize || config.TileSize > MaxTileSize {
		return fmt.Errorf("config validation: tile_size must be between %d and %d, got %v", MinTileSize, MaxTileSize, config.TileSize)
	}
	if config.Width < MinWorldSize || config.Width > MaxWorldSize {
		return fmt.Errorf("config validation: width must be between %d and %d, got %d", MinWorldSize, MaxWorldSize, config.Width)
	}
	if config.Height < MinWorldSize || config.Height > MaxWorldSize {
		return fmt.Errorf("config validation: height must be between %d and %d, got %d", MinWorldSize, MaxWorldSize, config.Height)
	}
	if config.Speed < 0 || config.RunMultiplier < 0 {
		return fmt.Errorf("config validation: speed and run_multiplier cannot be negative")
	}

	world := Rect{X: 0, Y: 0, W: config.Width, H: config.Height}

	// Validate walls
	for i, w := range config.Walls {
		if w.W < 1 || w.H < 1 {
			return fmt.Errorf("config validation: wall %d must be at least 1x1, got %dx%d", i+1, w.W, w.H)
		}
		if !world.Contains(Cell{w.X, w.Y}) || !world.Contains(Cell{w.X + w.W - 1, w.Y + w.H - 1}) {
			return fmt.Errorf("config validation: wall %d at (%d,%d) extends outside the %dx%d world", i+1, w.X, w.Y, config.Width, config.Height)
		}
	}
	if !world.Contains(config.PlayerStart) {
		return fmt.Errorf("config validation: player_start (%d,%d) is outside the world", config.PlayerStart.X, config.PlayerStart.Y)
	}
	if inWall(config.Walls, config.PlayerStart) {
		return fmt.Errorf("config validation: player_start (%d,%d) is inside a wall", config.PlayerStart.X, config.PlayerStart.Y)
	}

	// Validate problems
	if len(config.Problems) == 0 {
		return fmt.Errorf("config validation: at least one problem is required")
	}
	if len(config.Problems) > MaxProblems {
		return fmt.Errorf("config validation: at most %d problems are allowed, got %d", MaxProblems, len(config.Problems))
	}

	reserved := map[Cell]int{}
	scatterDigits := 0
	for i, slot := range config.Problems {
		extent, err := SlotExtent(slot)
		if err != nil {
			return fmt.Errorf("config validation: problem %d: %w", i+1, err)
		}
		for x := slot.Anchor.X; x < slot.Anchor.X+extent.Cells; x++ {
			c := Cell{x, slot.Anchor.Y}
			if !world.Contains(c) {
				return fmt.Errorf("config validation: problem %d needs %d cells from (%d,%d) and does not fit the world",
					i+1, extent.Cells, slot.Anchor.X, slot.Anchor.Y)
			}
			if inWall(config.Walls, c) {
				return fmt.Errorf("config validation: problem %d overlaps a wall at (%d,%d)", i+1, c.X, c.Y)
			}
			if other, ok := reserved[c]; ok {
				return fmt.Errorf("config validation: problem %d overlaps problem %d at (%d,%d)", i+1, other, c.X, c.Y)
			}
			reserved[c] = i + 1
		}
		if slot.Scrambled() {
			scatterDigits += extent.AnswerDigits
		}
	}

	// Validate loose digits
	for i, d := range config.LooseDigits {
		if len(d.Value) != 1 || !blocks.Value(d.Value[0]).IsDigit() {
			return fmt.Errorf("config validation: loose digit %d must be a single digit, got %q", i+1, d.Value)
		}
		if !world.Contains(d.At) || inWall(config.Walls, d.At) {
			return fmt.Errorf("config validation: loose digit %d at (%d,%d) is not on open floor", i+1, d.At.X, d.At.Y)
		}
		if _, ok := reserved[d.At]; ok {
			return fmt.Errorf("config validation: loose digit %d at (%d,%d) overlaps a problem", i+1, d.At.X, d.At.Y)
		}
		reserved[d.At] = -1
	}

	// Validate scramble area
	if config.Distractors < 0 || config.Distractors > MaxDistractors {
		return fmt.Errorf("config validation: distractors must be between 0 and %d, got %d", MaxDistractors, config.Distractors)
	}
	needed := scatterDigits + config.Distractors
	if needed > 0 {
		if config.ScrambleArea == nil {
			return fmt.Errorf("config validation: scramble_area is required to scatter %d blocks", needed)
		}
		area := *config.ScrambleArea
		if area.W < 1 || area.H < 1 || !world.Contains(Cell{area.X, area.Y}) || !world.Contains(Cell{area.X + area.W - 1, area.Y + area.H - 1}) {
			return fmt.Errorf("config validation: scramble_area must be a non-empty rectangle inside the world")
		}
		free := 0
		for y := area.Y; y < area.Y+area.H; y++ {
			for x := area.X; x < area.X+area.W; x++ {
				c := Cell{x, y}
				if _, ok := reserved[c]; ok || inWall(config.Walls, c) || c == config.PlayerStart {
					continue
				}
				free++
			}
		}
		if free < needed {
			return fmt.Errorf("config validation: scramble_area has %d free cells but up to %d blocks must be scattered", free, needed)
		}
	}

	// Validate messages
	if config.Messages.Welcome == "" {
		return fmt.Errorf("config validation: messages.welcome is required")
	}
	if config.Messages.Victory == "" {
		return fmt.Errorf("config validation: messages.victory is required")
	}
	if !strings.Contains(config.Messages.Victory, "%d") {
		return fmt.Errorf("config validation: messages.victory must contain %%d for problem count")
	}
	if config.Messages.Solved != "" && !strings.Contains(config.Messages.Solved, "%s") {
		return fmt.Errorf("config validation: messages.solved must contain %%s for the problem")
	}

	return nil
}

// Extent is how much room a problem slot can need
type Extent struct {
	Cells        int     // widest possible row of groups, gaps included
	AnswerDigits int     // most digits an answer can have
	Probability  float64 // chance a single draw is clean
}

// SlotExtent checks a slot's range and operators and computes its worst-case size
func SlotExtent(slot ProblemSlot) (Extent, error) {
	ops, err := SlotOperators(slot)
	if err != nil {
		return Extent{}, err
	}
	min, max := slot.SlotRange()
	if min < 0 {
		return Extent{}, fmt.Errorf("min must be at least 0, got %d", min)
	}
	if max > MaxOperand {
		return Extent{}, fmt.Errorf("max must be at most %d, got %d", MaxOperand, max)
	}
	stats, err := problem.Enumerate(min, max, ops, false)
	if err != nil {
		return Extent{}, err
	}
	if stats.Clean == 0 {
		return Extent{}, fmt.Errorf("range [%d,%d] with operators %v never yields a clean problem", min, max, slot.Operators)
	}

	operand := digits(max)
	answer := digits(stats.MaxAnswer)
	return Extent{
		Cells:        (operand + 1) + 2 + (operand + 1) + 2 + answer,
		AnswerDigits: answer,
		Probability:  stats.Probability,
	}, nil
}

// SlotOperators parses a slot's operators, defaulting to all four
func SlotOperators(slot ProblemSlot) ([]problem.Operator, error) {
	if len(slot.Operators) == 0 {
		return problem.AllOperators, nil
	}
	ops := make([]problem.Operator, 0, len(slot.Operators))
	for _, s := range slot.Operators {
		op, err := problem.ParseOperator(s)
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
	}
	return ops, nil
}

func digits(n int) int {
	count := 1
	for n >= 10 {
		n /= 10
		count++
	}
	return count
}

func inWall(walls []Rect, c Cell) bool {
	for _, w := range walls {
		if w.Contains(c) {
			return true
		}
	}
	return false
}

// LoadGameConfig loads a level from a JSON file
func LoadGameConfig(filename string) (*GameConfig, error) {
	// Support CONFIG_DIR environment variable for alternative config directory
	configPath := filename
	if configDir := os.Getenv("CONFIG_DIR"); configDir != "" {
		if strings.HasPrefix(filename, "configs/") {
			configPath = filepath.Join(configDir, strings.TrimPrefix(filename, "configs/"))
		}
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	var config GameConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, err
	}

	if err := ValidateGameConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// LoadConfigByName loads a level by name from the configs directory
func LoadConfigByName(configName string) (*GameConfig, error) {
	if !strings.HasSuffix(configName, ".json") {
		configName = configName + ".json"
	}

	configPath := filepath.Join("configs", configName)

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file '%s' not found", configName)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", configName, err)
	}

	var config GameConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file '%s': %w", configName, err)
	}

	if err := ValidateGameConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid config '%s': %w", configName, err)
	}

	return &config, nil
}

// DefaultConfig returns the built-in level used when no config is available
func DefaultConfig() *GameConfig {
	config := &GameConfig{
		Name:        "classic",
		Description: "Three problems with answers scattered across the yard",
		TileSize:    DefaultTileSize,
		Width:       24,
		Height:      20,
		PlayerStart: Cell{X: 1, Y: 10},
		Walls: []Rect{
			{X: 18, Y: 10, W: 6, H: 1},
			{X: 16, Y: 1, W: 1, H: 9},
		},
		Problems: []ProblemSlot{
			{Anchor: Cell{X: 2, Y: 2}, Min: 1, Max: 10},
			{Anchor: Cell{X: 2, Y: 5}, Min: 1, Max: 10},
			{Anchor: Cell{X: 2, Y: 8}, Min: 1, Max: 10},
		},
		ScrambleArea: &Rect{X: 2, Y: 12, W: 20, H: 6},
		Distractors:  4,
	}
	config.Messages.Welcome = "Welcome! Carry the number crates onto the answer spaces to solve each problem."
	config.Messages.Grab = "Got it! Let go of interact to drop the crate."
	config.Messages.Correct = "That digit fits!"
	config.Messages.Incorrect = "That digit does not belong there."
	config.Messages.Merged = "The crates joined into %s."
	config.Messages.Solved = "Solved %s!"
	config.Messages.Victory = "Victory! All %d problems solved!"
	return config
}
