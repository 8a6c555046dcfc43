// Package mcp exposes the number blocks REST API as Model Context Protocol tools.
//
// The Client is a thin proxy: every tool call becomes one HTTP request to a
// running API server, and the JSON reply is rendered as text an agent can
// read, including an ASCII map of the yard.
//
// MCP Tools:
//   - create_session, get_session, list_sessions: session management
//   - game_state: map, problems and player status
//   - step: press and release keys, then advance frames
//   - reset_game: deal a fresh board
//   - interaction_history: paginated grabs and releases
//   - describe_block: details of one crate
//   - list_configs: available levels
//   - game_instructions: rules and controls
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	if err := server.ServeStdio(client.GetMCPServer()); err != nil {
//		log.Fatal(err)
//	}
package mcp
