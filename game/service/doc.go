// Package service provides the business logic layer for the number blocks game.
//
// The service package implements:
//   - Multi-session game management
//   - Level loading through a ConfigManager
//   - Stepping sessions: key presses, releases and frame advance
//   - Paginated interaction history
//
// Core Interfaces:
//
// GameService is the main service interface providing high-level game operations.
// SessionManager handles session creation, retrieval, and lifecycle.
// ConfigManager manages level loading and validation.
//
// Architecture:
//
// The service layer sits between the transport layer (HTTP/WebSocket/MCP) and
// the game engine. Each session owns its own engine, seeded at creation, so
// sessions never share state.
//
// Usage:
//
//	sessionMgr := session.NewManager()
//	configMgr, _ := config.NewManager("configs")
//	gameService := service.NewGameService(sessionMgr, configMgr)
//
//	info, err := gameService.CreateSession(ctx, "classic", nil)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// Walk right for half a second
//	result, err := gameService.Step(ctx, info.ID, service.StepRequest{
//		Press:  []string{"right"},
//		Frames: 30,
//	})
package service
