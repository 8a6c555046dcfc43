package engine

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestValidateGameConfig_ValidConfig(t *testing.T) {
	if err := ValidateGameConfig(createTestConfig()); err != nil {
		t.Errorf("Expected valid config, got error: %v", err)
	}
	if err := ValidateGameConfig(DefaultConfig()); err != nil {
		t.Errorf("Expected default config to be valid, got error: %v", err)
	}
}

func TestValidateGameConfig_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *GameConfig)
		want   string
	}{
		{"missing name", func(c *GameConfig) { c.Name = "" }, "name is required"},
		{"missing description", func(c *GameConfig) { c.Description = "" }, "description is required"},
		{"tile too small", func(c *GameConfig) { c.TileSize = 1 }, "tile_size"},
		{"world too narrow", func(c *GameConfig) { c.Width = MinWorldSize - 1 }, "width"},
		{"world too tall", func(c *GameConfig) { c.Height = MaxWorldSize + 1 }, "height"},
		{"negative speed", func(c *GameConfig) { c.Speed = -1 }, "cannot be negative"},
		{"wall outside", func(c *GameConfig) { c.Walls = []Rect{{X: 15, Y: 0, W: 2, H: 1}} }, "extends outside"},
		{"empty wall", func(c *GameConfig) { c.Walls = []Rect{{X: 1, Y: 1, W: 0, H: 1}} }, "at least 1x1"},
		{"start outside", func(c *GameConfig) { c.PlayerStart = Cell{X: -1, Y: 0} }, "outside the world"},
		{"start in wall", func(c *GameConfig) { c.Walls = []Rect{{X: 14, Y: 8, W: 1, H: 1}} }, "inside a wall"},
		{"no problems", func(c *GameConfig) { c.Problems = nil }, "at least one problem"},
		{"bad operator", func(c *GameConfig) { c.Problems[0].Operators = []string{"%"} }, "problem 1"},
		{"range reversed", func(c *GameConfig) { c.Problems[0].Min, c.Problems[0].Max = 5, 1 }, "problem 1"},
		{"operand too large", func(c *GameConfig) { c.Problems[0].Max = MaxOperand + 1 }, "max must be at most"},
		{"negative min", func(c *GameConfig) { c.Problems[0].Min = -1 }, "min must be at least 0"},
		{"problem off the edge", func(c *GameConfig) { c.Problems[0].Anchor = Cell{X: 10, Y: 1} }, "does not fit"},
		{"problem over wall", func(c *GameConfig) { c.Walls = []Rect{{X: 5, Y: 1, W: 1, H: 1}} }, "overlaps a wall"},
		{"problems overlap", func(c *GameConfig) {
			c.Problems = append(c.Problems, ProblemSlot{Anchor: Cell{X: 3, Y: 1}, Min: 2, Max: 2, Operators: []string{"+"}})
		}, "overlaps problem 1"},
		{"loose digit symbol", func(c *GameConfig) { c.LooseDigits[0].Value = "+" }, "single digit"},
		{"loose digit on problem", func(c *GameConfig) { c.LooseDigits[0].At = Cell{X: 1, Y: 1} }, "overlaps a problem"},
		{"too many distractors", func(c *GameConfig) { c.Distractors = MaxDistractors + 1 }, "distractors"},
		{"scramble area missing", func(c *GameConfig) { c.ScrambleArea = nil }, "scramble_area is required"},
		{"scramble area too small", func(c *GameConfig) {
			c.ScrambleArea = &Rect{X: 1, Y: 7, W: 1, H: 1}
			c.Distractors = 3
		}, "free cells"},
		{"missing welcome", func(c *GameConfig) { c.Messages.Welcome = "" }, "messages.welcome"},
		{"victory without count", func(c *GameConfig) { c.Messages.Victory = "You win" }, "%d"},
		{"solved without problem", func(c *GameConfig) { c.Messages.Solved = "Nice" }, "%s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := createTestConfig()
			tt.mutate(config)
			err := ValidateGameConfig(config)
			if err == nil {
				t.Fatal("Expected validation error")
			}
			if !strings.HasPrefix(err.Error(), "config validation:") {
				t.Errorf("Expected 'config validation:' prefix, got %v", err)
			}
			if tt.want != "" && !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestValidateGameConfig_Nil(t *testing.T) {
	if err := ValidateGameConfig(nil); err == nil {
		t.Error("Expected error for nil config")
	}
}

func TestSlotExtent(t *testing.T) {
	tests := []struct {
		name         string
		slot         ProblemSlot
		cells        int
		answerDigits int
	}{
		{"single digits addition", ProblemSlot{Min: 2, Max: 2, Operators: []string{"+"}}, 9, 1},
		{"classic range", ProblemSlot{Min: 1, Max: 10}, 13, 3},
		{"two digit sums", ProblemSlot{Min: 5, Max: 9, Operators: []string{"+"}}, 10, 2},
		{"range left out", ProblemSlot{}, 13, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			extent, err := SlotExtent(tt.slot)
			if err != nil {
				t.Fatalf("SlotExtent failed: %v", err)
			}
			if extent.Cells != tt.cells {
				t.Errorf("Expected %d cells, got %d", tt.cells, extent.Cells)
			}
			if extent.AnswerDigits != tt.answerDigits {
				t.Errorf("Expected %d answer digits, got %d", tt.answerDigits, extent.AnswerDigits)
			}
			if extent.Probability <= 0 || extent.Probability > 1 {
				t.Errorf("Expected probability in (0,1], got %v", extent.Probability)
			}
		})
	}
}

func TestSlotOperators(t *testing.T) {
	ops, err := SlotOperators(ProblemSlot{})
	if err != nil || len(ops) != 4 {
		t.Errorf("Expected all four operators by default, got %v %v", ops, err)
	}
	ops, err = SlotOperators(ProblemSlot{Operators: []string{"*", "/"}})
	if err != nil || len(ops) != 2 || ops[0] != '*' || ops[1] != '/' {
		t.Errorf("Expected * and /, got %v %v", ops, err)
	}
}

const testConfigJSON = `{
	"name": "Test Config",
	"description": "Test description",
	"tile_size": 32,
	"width": 16,
	"height": 10,
	"player_start": {"x": 14, "y": 8},
	"problems": [
		{"anchor": {"x": 1, "y": 1}, "min": 1, "max": 3, "operators": ["+"]}
	],
	"scramble_area": {"x": 1, "y": 7, "w": 6, "h": 2},
	"distractors": 2,
	"messages": {
		"welcome": "Welcome!",
		"solved": "Solved %s",
		"victory": "Victory! %d problems!"
	}
}`

func TestLoadConfigByName(t *testing.T) {
	// Create a temporary config file
	tempDir := t.TempDir()

	// Change to temp directory temporarily
	oldWd, _ := os.Getwd()
	defer os.Chdir(oldWd)
	os.Chdir(tempDir)

	// Create configs directory
	os.MkdirAll("configs", 0755)

	err := os.WriteFile(filepath.Join("configs", "test.json"), []byte(testConfigJSON), 0644)
	if err != nil {
		t.Fatalf("Failed to create test config file: %v", err)
	}

	// Test loading by name without extension
	config, err := LoadConfigByName("test")
	if err != nil {
		t.Fatalf("Failed to load config by name: %v", err)
	}
	if config.Name != "Test Config" {
		t.Errorf("Expected config name 'Test Config', got '%s'", config.Name)
	}
	if !config.Problems[0].Scrambled() {
		t.Error("Expected scramble to default to true")
	}

	// Test loading by name with extension
	config2, err := LoadConfigByName("test.json")
	if err != nil {
		t.Fatalf("Failed to load config by name with extension: %v", err)
	}
	if config2.Distractors != 2 {
		t.Errorf("Expected 2 distractors, got %d", config2.Distractors)
	}

	// Test loading non-existent config
	_, err = LoadConfigByName("nonexistent")
	if err == nil {
		t.Fatal("Expected error for non-existent config")
	}
	if !strings.Contains(err.Error(), "not found") {
		t.Errorf("Expected 'not found' error, got: %v", err)
	}

	// Invalid levels are rejected on load
	os.WriteFile(filepath.Join("configs", "broken.json"), []byte(`{"name": "broken"}`), 0644)
	if _, err := LoadConfigByName("broken"); err == nil || !strings.Contains(err.Error(), "invalid config") {
		t.Errorf("Expected invalid config error, got %v", err)
	}
}

func TestLoadGameConfig(t *testing.T) {
	tempFile := filepath.Join(t.TempDir(), "test_config.json")
	if err := os.WriteFile(tempFile, []byte(testConfigJSON), 0644); err != nil {
		t.Fatalf("Failed to create test config file: %v", err)
	}

	config, err := LoadGameConfig(tempFile)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if config.Width != 16 || config.TileSize != 32 {
		t.Errorf("Expected 16 wide with tile 32, got %d and %v", config.Width, config.TileSize)
	}

	// Test loading non-existent file
	if _, err := LoadGameConfig("nonexistent.json"); err == nil {
		t.Error("Expected error for non-existent file")
	}
}

func TestLoadGameConfig_ConfigDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "level.json"), []byte(testConfigJSON), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	t.Setenv("CONFIG_DIR", dir)

	config, err := LoadGameConfig("configs/level.json")
	if err != nil {
		t.Fatalf("Expected CONFIG_DIR to be honored, got %v", err)
	}
	if config.Name != "Test Config" {
		t.Errorf("Unexpected config %q", config.Name)
	}
}

func TestEngine_AllOperatorsNeverNegative(t *testing.T) {
	config := DefaultConfig()
	for seed := int64(0); seed < 20; seed++ {
		engine, err := NewEngine(config, seed)
		if err != nil {
			t.Fatalf("seed %d: %v", seed, err)
		}
		for _, p := range engine.GetState().Problems {
			if p.Answer < 0 {
				t.Errorf("seed %d: negative answer in %s", seed, p.Text)
			}
		}
	}
}
