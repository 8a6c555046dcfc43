// Package engine provides the core game logic for the number blocks puzzle.
//
// A level (GameConfig) places arithmetic problems on a walled yard. Each
// problem is drawn from a seeded generator and laid out as crates: operands,
// operator, equals sign and an answer whose digits start scattered across the
// scramble area. The player walks around, picks up digit crates and drops
// them onto the answer spaces. A problem is solved once every answer space
// holds the right digit; the level is won when all problems are solved.
//
// Core Types:
//
// The Engine interface defines the main contract for game operations,
// implemented by GameEngine. Input is key state (Press and Release) and time
// advances one frame per Tick. GameState is a complete snapshot that SetState
// can rebuild a world from.
//
// Usage:
//
//	config, err := engine.LoadConfigByName("classic")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	gameEngine, err := engine.NewEngine(config, time.Now().UnixNano())
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// Walk right for a quarter second
//	gameEngine.Press(actor.ActionRight)
//	events, err := gameEngine.Step(15)
//	state := gameEngine.GetState()
package engine
