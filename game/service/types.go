package service

import (
	"time"

	"github.com/wricardo/mcp-training/numberblocks/game/engine"
)

// SessionInfo provides information about a game session
type SessionInfo struct {
	ID             string             `json:"id"`
	ConfigName     string             `json:"config_name"`
	Seed           int64              `json:"seed"`
	CreatedAt      time.Time          `json:"created_at"`
	LastAccessedAt time.Time          `json:"last_accessed_at"`
	GameState      *engine.GameState  `json:"game_state"`
	GameConfig     *engine.GameConfig `json:"game_config"`
}

// StepRequest changes key state and then advances the clock. Releases are
// applied before presses, so a key in both ends up held.
type StepRequest struct {
	Press   []string `json:"press,omitempty"`
	Release []string `json:"release,omitempty"`
	Frames  int      `json:"frames,omitempty"` // defaults to 1, capped at engine.MaxStepFrames
	Reset   bool     `json:"reset,omitempty"`
	// StopOn ends the step early after the first frame that produces one of these event types
	StopOn []string `json:"stop_on,omitempty"`
}

// StepResult contains the outcome of a step
type StepResult struct {
	Success         bool              `json:"success"`
	GameState       *engine.GameState `json:"game_state"`
	Message         string            `json:"message"`
	Error           string            `json:"error,omitempty"` // why the step stopped when Success is false
	Events          []engine.Event    `json:"events"`
	FramesRequested int               `json:"frames_requested"`
	FramesRun       int               `json:"frames_run"`
	Truncated       bool              `json:"truncated,omitempty"`
	Limit           int               `json:"limit,omitempty"`
	StoppedOn       string            `json:"stopped_on,omitempty"` // event type that ended the step early
	ScoreDelta      int               `json:"score_delta"`
	Held            *engine.BlockInfo `json:"held,omitempty"`
	Target          *engine.BlockInfo `json:"target,omitempty"`
}

// HistoryOptions configures interaction history retrieval
type HistoryOptions struct {
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
	Order string `json:"order"` // "asc" or "desc"
	Scope string `json:"scope"` // "all" or "current"
}

// HistoryResponse contains paginated interaction history
type HistoryResponse struct {
	Interactions      []engine.InteractionEntry `json:"interactions"`
	TotalInteractions int                       `json:"total_interactions"`
	Page              int                       `json:"page"`
	PageSize          int                       `json:"page_size"`
	TotalPages        int                       `json:"total_pages"`
	HasNext           bool                      `json:"has_next"`
	HasPrevious       bool                      `json:"has_previous"`
}

// ConfigInfo provides information about a level
type ConfigInfo struct {
	Filename    string   `json:"filename"`
	ConfigID    string   `json:"config_id"` // The identifier to use for session creation
	Name        string   `json:"name"`      // Display name
	Description string   `json:"description"`
	Width       int      `json:"width"`
	Height      int      `json:"height"`
	Problems    int      `json:"problems"`
	Ranges      []string `json:"ranges,omitempty"`
	Distractors int      `json:"distractors"`
}
