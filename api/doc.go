// Package api provides HTTP REST API handlers for the number blocks game.
//
// Endpoints:
//
// Session Management:
//   - POST /api/sessions - Create new session ({"config_id": "classic", "seed": 42})
//   - GET /api/sessions - List sessions (sort=created|accessed, order, limit)
//   - GET /api/sessions/unified - Several sessions at once (sessionIds, configName)
//   - GET /api/sessions/{id} - Get specific session
//   - DELETE /api/sessions/{id} - Delete session
//
// Game Operations:
//   - GET /api/sessions/{id}/state - Full game state
//   - POST /api/sessions/{id}/step - Change keys and advance frames
//   - POST /api/sessions/{id}/reset - Deal a fresh board
//   - GET /api/sessions/{id}/history - Grab/release history (page, limit, order, scope)
//   - GET /api/sessions/{id}/blocks/{blockId} - Describe one block
//
// Configuration:
//   - GET /api/configs - List available levels
//   - GET /api/configs/{name} - Get one level
//   - POST /api/configs - Save a level
//
// Other:
//   - GET /api/health - Liveness check
//   - GET /ws?session={id} - WebSocket state updates
//
// Step requests hold keys across calls. A key stays pressed until released:
//
//	{
//	  "press": ["left", "interact"],
//	  "release": ["up"],
//	  "frames": 30,
//	  "stop_on": ["grab"]
//	}
//
// Errors are returned as JSON with an appropriate HTTP status code:
//
//	{"error": "error message"}
package api
