package session

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/wricardo/mcp-training/numberblocks/game/actor"
	"github.com/wricardo/mcp-training/numberblocks/game/config"
	"github.com/wricardo/mcp-training/numberblocks/game/engine"
	"github.com/wricardo/mcp-training/numberblocks/game/service"
)

// newConfigManager returns a config manager over a temp dir holding "test"
func newConfigManager(t *testing.T) (*config.Manager, string) {
	t.Helper()
	dir := t.TempDir()
	manager, err := config.NewManager(dir)
	if err != nil {
		t.Fatalf("Failed to create config manager: %v", err)
	}
	if err := manager.SaveConfig("test", createTestConfig()); err != nil {
		t.Fatalf("Failed to save config: %v", err)
	}
	return manager, dir
}

func newTestSession(t *testing.T, id string, seed int64) *service.Session {
	t.Helper()
	gameConfig := createTestConfig()
	eng, err := engine.NewEngine(gameConfig, seed)
	if err != nil {
		t.Fatalf("Failed to create engine: %v", err)
	}
	return &service.Session{
		ID:             id,
		ConfigID:       "test",
		Seed:           seed,
		Engine:         eng,
		Config:         gameConfig,
		CreatedAt:      time.Now(),
		LastAccessedAt: time.Now(),
	}
}

func TestFilePersistence(t *testing.T) {
	configManager, configDir := newConfigManager(t)
	persistence, err := NewFilePersistence(t.TempDir(), configManager)
	if err != nil {
		t.Fatalf("Failed to create file persistence: %v", err)
	}

	session := newTestSession(t, "test1", 99)

	t.Run("Save and Load Session", func(t *testing.T) {
		if err := persistence.Save(session); err != nil {
			t.Fatalf("Failed to save session: %v", err)
		}
		if !persistence.Exists("test1") {
			t.Error("Session file should exist after save")
		}

		loaded, err := persistence.Load("test1")
		if err != nil {
			t.Fatalf("Failed to load session: %v", err)
		}
		if loaded.ID != session.ID || loaded.ConfigID != "test" || loaded.Seed != 99 {
			t.Errorf("Expected test1/test/99, got %s/%s/%d", loaded.ID, loaded.ConfigID, loaded.Seed)
		}

		want := session.Engine.GetState()
		got := loaded.Engine.GetState()
		if len(got.Blocks) != len(want.Blocks) || got.Problems[0].Text != want.Problems[0].Text {
			t.Errorf("Expected problem %q with %d blocks, got %q with %d",
				want.Problems[0].Text, len(want.Blocks), got.Problems[0].Text, len(got.Blocks))
		}
	})

	t.Run("Save State Changes", func(t *testing.T) {
		session.Engine.Press(actor.ActionLeft)
		session.Engine.Step(20)
		if err := persistence.Save(session); err != nil {
			t.Fatalf("Failed to save session: %v", err)
		}

		loaded, err := persistence.Load("test1")
		if err != nil {
			t.Fatalf("Failed to load session: %v", err)
		}
		state := loaded.Engine.GetState()
		if state.Frame != 20 || state.Player.X != 14*64-100 {
			t.Errorf("Expected frame 20 at x %v, got frame %d at x %v", 14*64-100, state.Frame, state.Player.X)
		}
		if !state.Player.Keys.Left {
			t.Error("Expected held keys to survive a reload")
		}
	})

	t.Run("Falls back to saved config", func(t *testing.T) {
		if err := os.Remove(filepath.Join(configDir, "test.json")); err != nil {
			t.Fatalf("Failed to remove config: %v", err)
		}
		configManager.RefreshCache()

		loaded, err := persistence.Load("test1")
		if err != nil {
			t.Fatalf("Expected load with embedded config, got %v", err)
		}
		if loaded.Config.Name != "Test Config" {
			t.Errorf("Expected embedded config, got %q", loaded.Config.Name)
		}
	})

	t.Run("List and Delete", func(t *testing.T) {
		persistence.Save(newTestSession(t, "test2", 1))

		ids, err := persistence.ListAll()
		if err != nil {
			t.Fatalf("ListAll failed: %v", err)
		}
		if len(ids) != 2 {
			t.Errorf("Expected 2 sessions, got %v", ids)
		}

		if err := persistence.Delete("test2"); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}
		if persistence.Exists("test2") {
			t.Error("Expected session file removed")
		}
		if err := persistence.Delete("test2"); !errors.Is(err, ErrSessionNotFound) {
			t.Errorf("Expected ErrSessionNotFound, got %v", err)
		}
	})

	t.Run("Load missing session", func(t *testing.T) {
		if _, err := persistence.Load("missing"); !errors.Is(err, ErrSessionNotFound) {
			t.Errorf("Expected ErrSessionNotFound, got %v", err)
		}
	})

	t.Run("Save nil session", func(t *testing.T) {
		if err := persistence.Save(nil); err == nil {
			t.Error("Expected error saving nil session")
		}
	})
}

func TestFilePersistenceFileStructure(t *testing.T) {
	dir := t.TempDir()
	persistence, err := NewFilePersistence(dir, nil)
	if err != nil {
		t.Fatalf("Failed to create file persistence: %v", err)
	}

	if err := persistence.Save(newTestSession(t, "Abcd", 7)); err != nil {
		t.Fatalf("Failed to save session: %v", err)
	}

	raw, err := os.ReadFile(filepath.Join(dir, "abcd.json"))
	if err != nil {
		t.Fatalf("Expected lower-case session file: %v", err)
	}

	var data map[string]json.RawMessage
	if err := json.Unmarshal(raw, &data); err != nil {
		t.Fatalf("Session file is not valid JSON: %v", err)
	}
	for _, field := range []string{"id", "config_id", "seed", "created_at", "last_accessed_at", "config", "game_state"} {
		if _, ok := data[field]; !ok {
			t.Errorf("Expected field %q in session file", field)
		}
	}

	if _, err := os.Stat(filepath.Join(dir, "abcd.json.tmp")); !os.IsNotExist(err) {
		t.Error("Expected temp file to be renamed away")
	}

	// without a config manager the embedded config is used
	loaded, err := persistence.Load("ABCD")
	if err != nil {
		t.Fatalf("Failed to load session: %v", err)
	}
	if loaded.Seed != 7 {
		t.Errorf("Expected seed 7, got %d", loaded.Seed)
	}
}

func TestFilePersistenceCorruptFile(t *testing.T) {
	dir := t.TempDir()
	persistence, _ := NewFilePersistence(dir, nil)
	os.WriteFile(filepath.Join(dir, "bad.json"), []byte("{not json"), 0644)
	os.WriteFile(filepath.Join(dir, "empty.json"), []byte(`{"id":"empty"}`), 0644)

	if _, err := persistence.Load("bad"); err == nil {
		t.Error("Expected error for corrupt file")
	}
	if _, err := persistence.Load("empty"); err == nil {
		t.Error("Expected error for file without state")
	}
}
