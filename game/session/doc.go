// Package session provides session management for the number blocks game.
//
// The session package implements:
//   - Thread-safe session storage and retrieval
//   - Short random session IDs
//   - Optional JSON file persistence
//   - Idle session eviction
//
// Core Types:
//
// Manager is the main session manager that handles all session operations.
// Each service.Session owns its own engine, level and seed, so one player's
// board never leaks into another's.
//
// Session Identifiers:
//
// Sessions use 4-character hex IDs for easy reference. Lookups ignore case.
// Caller-chosen ids may use letters, digits, '-' and '_'.
//
// Persistence:
//
// FilePersistence writes one JSON file per session holding the level id, the
// seed, a copy of the level and the full game state. Loading rebuilds the
// engine from the level on disk when it still exists, otherwise from the
// saved copy.
//
// Usage:
//
//	persistence, _ := session.NewFilePersistence("sessions", configMgr)
//	manager := session.NewManagerWithPersistence(persistence)
//	_ = manager.LoadPersistedSessions()
//
//	sess, err := manager.Create("", "classic", config, time.Now().UnixNano())
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	go manager.RunCleanup(ctx, time.Minute, 24*time.Hour)
package session
