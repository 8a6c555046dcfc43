// Package config provides level management for the number blocks puzzle.
//
// The config package handles:
//   - Loading levels from JSON files
//   - Validation through engine.ValidateGameConfig
//   - Default level management
//   - Level discovery and listing
//
// Level Format:
//
// Levels are stored as JSON files in the configs directory. Each level
// defines the yard size, walls, player start, the problem slots (anchor,
// operand range, operators), where scrambled answer digits may land and the
// messages shown to the player.
//
// Shipped levels:
//   - classic: three problems using every operator
//   - easy: two small additions
//   - challenge: two-digit operands with the answers behind a wall
//
// Usage:
//
//	manager, err := config.NewManager("configs")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// Load specific level
//	level, err := manager.LoadConfig("easy")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// List available levels
//	levels, err := manager.ListConfigs()
package config
