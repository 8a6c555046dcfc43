// Package websocket pushes game updates to browser and desktop clients.
//
// A central Hub tracks clients per session. Clients connect with
// /ws?session=<id> and receive JSON messages:
//
//	{"session_id": "ab12", "event": "state_update", "game_state": {...}}
//	{"session_id": "ab12", "event": "game_events", "events": [{"type": "grab", ...}]}
//
// Clients never send game input over the socket; they use the REST step
// endpoint and the socket only reports the result.
//
// Usage:
//
//	hub := websocket.NewHub()
//	go hub.Run()
//	defer hub.Stop()
//
//	hub.BroadcastToSession(sessionID, state)
//	hub.BroadcastEvents(sessionID, result.Events)
package websocket
