package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/wricardo/mcp-training/numberblocks/game/actor"
	"github.com/wricardo/mcp-training/numberblocks/game/blocks"
	"github.com/wricardo/mcp-training/numberblocks/game/engine"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrConfigNotFound  = errors.New("configuration not found")
)

const (
	DefaultHistoryLimit = 20
	MaxHistoryLimit     = 100
)

// gameServiceImpl implements the GameService interface
type gameServiceImpl struct {
	sessions SessionManager
	configs  ConfigManager
	mu       sync.RWMutex
}

// NewGameService creates a new game service instance
func NewGameService(sessions SessionManager, configs ConfigManager) GameService {
	return &gameServiceImpl{
		sessions: sessions,
		configs:  configs,
	}
}

// CreateSession creates a new game session. A nil seed picks one from the clock.
func (s *gameServiceImpl) CreateSession(ctx context.Context, configName string, seed *int64) (*SessionInfo, error) {
	// Load and validate configuration before locking
	var config *engine.GameConfig
	var err error
	configID := strings.TrimSuffix(configName, ".json")
	if configID != "" {
		config, err = s.configs.LoadConfig(configID)
		if err != nil {
			// Provide helpful error message with available options
			if errors.Is(err, ErrConfigNotFound) || strings.Contains(err.Error(), "configuration not found") {
				availableConfigs, listErr := s.configs.ListConfigs()
				if listErr == nil && len(availableConfigs) > 0 {
					var configIDs []string
					for _, cfg := range availableConfigs {
						configIDs = append(configIDs, cfg.ConfigID)
					}
					return nil, fmt.Errorf("%w: '%s'. Available configs: %v", ErrConfigNotFound, configName, configIDs)
				}
				return nil, fmt.Errorf("%w: '%s'. Use /api/configs to list available configurations", ErrConfigNotFound, configName)
			}
			return nil, fmt.Errorf("failed to load config %s: %w", configName, err)
		}
	} else {
		config = s.configs.GetDefault()
		configID = s.configIDFor(config.Name)
	}

	if err := engine.ValidateGameConfig(config); err != nil {
		return nil, fmt.Errorf("failed to load config %s: %w", configName, err)
	}

	var sessionSeed int64
	if seed != nil {
		sessionSeed = *seed
	} else {
		sessionSeed = time.Now().UnixNano()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Let session manager generate a proper 4-character ID
	sess, err := s.sessions.Create("", configID, config, sessionSeed)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return sessionInfo(sess), nil
}

// configIDFor maps a display name back to its config id, used for the default level
func (s *gameServiceImpl) configIDFor(configName string) string {
	availableConfigs, err := s.configs.ListConfigs()
	if err == nil {
		for _, cfg := range availableConfigs {
			if cfg.Name == configName {
				return cfg.ConfigID
			}
		}
	}
	if configName == "" {
		return "default"
	}
	return configName
}

func sessionInfo(sess *Session) *SessionInfo {
	return &SessionInfo{
		ID:             sess.ID,
		ConfigName:     sess.ConfigID,
		Seed:           sess.Seed,
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccessedAt,
		GameState:      sess.Engine.GetState(),
		GameConfig:     sess.Config,
	}
}

// session looks a session up and marks it accessed
func (s *gameServiceImpl) session(sessionID string) (*Session, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSessionNotFound, sessionID, err)
	}
	s.sessions.UpdateLastAccessed(sessionID)
	return sess, nil
}

// GetSession retrieves session information
func (s *gameServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	return sessionInfo(sess), nil
}

// ListSessions returns all active sessions, oldest first
func (s *gameServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := s.sessions.List()
	result := make([]*SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		result = append(result, sessionInfo(sess))
	}
	sortSessions(result)
	return result, nil
}

func sortSessions(list []*SessionInfo) {
	sort.SliceStable(list, func(i, j int) bool { return list[i].CreatedAt.Before(list[j].CreatedAt) })
}

// DeleteSession removes a session
func (s *gameServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.sessions.Delete(sessionID); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrSessionNotFound, sessionID, err)
	}
	return nil
}

// Step applies key changes and advances a session's clock
func (s *gameServiceImpl) Step(ctx context.Context, sessionID string, req StepRequest) (*StepResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	eng := sess.Engine

	// Parse keys before touching the engine so a bad request changes nothing
	releases, err := parseActions(req.Release)
	if err != nil {
		return nil, err
	}
	presses, err := parseActions(req.Press)
	if err != nil {
		return nil, err
	}
	stopOn := make(map[string]bool, len(req.StopOn))
	for _, t := range req.StopOn {
		stopOn[strings.ToLower(strings.TrimSpace(t))] = true
	}

	frames := req.Frames
	if frames <= 0 {
		frames = engine.StepFramesDefault
	}
	result := &StepResult{
		Success:         true,
		Events:          []engine.Event{},
		FramesRequested: frames,
	}
	if frames > engine.MaxStepFrames {
		result.Truncated = true
		result.Limit = engine.MaxStepFrames
		frames = engine.MaxStepFrames
	}

	if req.Reset {
		eng.Reset()
	}
	startScore := eng.GetScore()

	for _, a := range releases {
		eng.Release(a)
	}
	for _, a := range presses {
		eng.Press(a)
	}

	startFrame := eng.GetState().Frame
	var stepErr error
	if len(stopOn) == 0 {
		var events []engine.Event
		events, stepErr = eng.Step(frames)
		result.Events = append(result.Events, events...)
	} else {
		for i := 0; i < frames; i++ {
			events, err := eng.Step(1)
			result.Events = append(result.Events, events...)
			if err != nil {
				stepErr = err
				break
			}
			if t, ok := firstMatch(events, stopOn); ok {
				result.StoppedOn = t
				break
			}
		}
	}
	if stepErr != nil {
		result.Success = false
		result.Error = stepErr.Error()
		log.Printf("step session=%s: %v", sessionID, stepErr)
	}

	state := eng.GetState()
	result.GameState = state
	result.FramesRun = int(state.Frame - startFrame)
	result.Message = state.Message
	result.ScoreDelta = state.Score - startScore
	if state.Player.Held != 0 {
		result.Held, _ = eng.DescribeBlock(state.Player.Held)
	}
	if state.Player.Target != 0 {
		result.Target, _ = eng.DescribeBlock(state.Player.Target)
	}

	// Auto-save session after step
	if err := s.sessions.Save(sessionID); err != nil {
		log.Printf("Warning: Failed to persist session %s after step: %v", sessionID, err)
	}

	return result, nil
}

func parseActions(names []string) ([]actor.Action, error) {
	out := make([]actor.Action, 0, len(names))
	for _, name := range names {
		a, err := actor.ParseAction(name)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

func firstMatch(events []engine.Event, types map[string]bool) (string, bool) {
	for _, ev := range events {
		if types[ev.Type] {
			return ev.Type, true
		}
	}
	return "", false
}

// Reset deals a fresh board for a session
func (s *gameServiceImpl) Reset(ctx context.Context, sessionID string) (*engine.GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	state := sess.Engine.Reset()

	// Auto-save session after reset
	if err := s.sessions.Save(sessionID); err != nil {
		log.Printf("Warning: Failed to persist session %s after reset: %v", sessionID, err)
	}

	return state, nil
}

// GetGameState retrieves the current game state
func (s *gameServiceImpl) GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	return sess.Engine.GetState(), nil
}

// DescribeBlock returns details about one block of a session
func (s *gameServiceImpl) DescribeBlock(ctx context.Context, sessionID string, blockID blocks.BlockID) (*engine.BlockInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	return sess.Engine.DescribeBlock(blockID)
}

// GetHistory returns paginated interaction history
func (s *gameServiceImpl) GetHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	history := sess.Engine.GetInteractionHistory()
	if opts.Scope == "current" {
		history = sess.Engine.GetState().CurrentInteractions
	}
	total := len(history)

	// Apply defaults
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit <= 0 {
		opts.Limit = DefaultHistoryLimit
	}
	if opts.Limit > MaxHistoryLimit {
		opts.Limit = MaxHistoryLimit
	}
	if opts.Order == "" {
		opts.Order = "desc"
	}

	// Calculate pagination
	totalPages := (total + opts.Limit - 1) / opts.Limit
	if totalPages == 0 {
		totalPages = 1
	}

	start := (opts.Page - 1) * opts.Limit
	end := start + opts.Limit
	if end > total {
		end = total
	}

	entries := []engine.InteractionEntry{}
	if opts.Order == "desc" {
		// Reverse order (most recent first)
		for i := total - 1 - start; i >= 0 && i >= total-end; i-- {
			entries = append(entries, history[i])
		}
	} else if start < total {
		entries = append(entries, history[start:end]...)
	}

	return &HistoryResponse{
		Interactions:      entries,
		TotalInteractions: total,
		Page:              opts.Page,
		PageSize:          opts.Limit,
		TotalPages:        totalPages,
		HasNext:           opts.Page < totalPages,
		HasPrevious:       opts.Page > 1,
	}, nil
}

// ListConfigs returns available levels
func (s *gameServiceImpl) ListConfigs(ctx context.Context) ([]*ConfigInfo, error) {
	return s.configs.ListConfigs()
}

// LoadConfig loads a specific level
func (s *gameServiceImpl) LoadConfig(ctx context.Context, configName string) (*engine.GameConfig, error) {
	return s.configs.LoadConfig(configName)
}

// SaveConfig saves a level to disk
func (s *gameServiceImpl) SaveConfig(ctx context.Context, configName string, config *engine.GameConfig) error {
	return s.configs.SaveConfig(configName, config)
}
