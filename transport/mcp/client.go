package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/wricardo/mcp-training/numberblocks/game/engine"
	"github.com/wricardo/mcp-training/numberblocks/game/service"
)

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Number Blocks",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Number Blocks - MCP Interface

This is a thin client that proxies all requests to the REST API server.

GAME OBJECTIVE:
Each level shows arithmetic problems built from number crates, like "12 + 7 = __".
Carry the right digit crates onto the answer spaces (_) to solve every problem.

AVAILABLE TOOLS:
- create_session / get_session / list_sessions: manage games
- game_state: map and status of a session
- step: hold or release keys and advance time - requires intent explanation
- reset_game: deal a new board
- interaction_history: past grabs and releases
- describe_block: details of one crate
- list_configs: available levels
- game_instructions: full rules and controls

Keys stay held between step calls until released. One cell is 64 units and
walking covers 5 units per frame, so about 13 frames per cell.`),
	)

	c.registerTools()
}

func stringProp(description string) map[string]interface{} {
	return map[string]interface{}{"type": "string", "description": description}
}

func integerProp(description string) map[string]interface{} {
	return map[string]interface{}{"type": "integer", "description": description}
}

func keyListProp(description string) map[string]interface{} {
	return map[string]interface{}{
		"type": "array",
		"items": map[string]interface{}{
			"type": "string",
			"enum": []string{"up", "down", "left", "right", "interact", "run"},
		},
		"description": description,
	}
}

func sessionOnly() mcp.ToolInputSchema {
	return mcp.ToolInputSchema{
		Type:       "object",
		Properties: map[string]interface{}{"session_id": stringProp("Session ID")},
		Required:   []string{"session_id"},
	}
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	// Session management
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_session",
		Description: "Create a new game session with optional level and seed",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"config_id": stringProp("Level to use (optional, see list_configs)"),
				"seed":      integerProp("Seed for a reproducible board (optional)"),
			},
		},
	}, c.handleCreateSession)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_sessions",
		Description: "List all active game sessions",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListSessions)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_session",
		Description: "Get details of a specific session",
		InputSchema: sessionOnly(),
	}, c.handleGetSession)

	// Game operations
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_state",
		Description: "Get the current map, problems and player status",
		InputSchema: sessionOnly(),
	}, c.handleGameState)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "step",
		Description: "Press and release keys, then advance the game clock. Held keys persist across calls.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": stringProp("Session ID"),
				"press":      keyListProp("Keys to press and keep held"),
				"release":    keyListProp("Keys to release (applied before press)"),
				"frames":     integerProp(fmt.Sprintf("Frames to advance, 60 per second (default 1, max %d)", engine.MaxStepFrames)),
				"stop_on": map[string]interface{}{
					"type": "array",
					"items": map[string]interface{}{
						"type": "string",
						"enum": []string{engine.EventGrab, engine.EventRelease, engine.EventCorrect, engine.EventIncorrect,
							engine.EventMerge, engine.EventSolved, engine.EventVictory},
					},
					"description": "Stop early after the first frame producing one of these events",
				},
				"reset":  map[string]interface{}{"type": "boolean", "description": "Reset before stepping"},
				"intent": stringProp("Brief explanation of what this step is meant to achieve (serves as a rubber duck to help explain your reasoning)"),
			},
			Required: []string{"session_id"},
		},
	}, c.handleStep)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "reset_game",
		Description: "Deal a fresh board from the same level",
		InputSchema: sessionOnly(),
	}, c.handleReset)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "interaction_history",
		Description: "Get grab and release history for a session",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": stringProp("Session ID"),
				"page":       integerProp("Page number"),
				"limit":      integerProp("Items per page"),
				"order": map[string]interface{}{
					"type": "string", "enum": []string{"asc", "desc"}, "description": "Oldest or newest first",
				},
				"scope": map[string]interface{}{
					"type": "string", "enum": []string{"all", "current"}, "description": "Whole session or since last reset",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleInteractionHistory)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "describe_block",
		Description: "Get details about one crate: value, classification, group, layer and problem",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": stringProp("Session ID"),
				"block_id":   integerProp("Block ID as shown by game_state"),
			},
			Required: []string{"session_id", "block_id"},
		},
	}, c.handleDescribeBlock)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_configs",
		Description: "List available levels",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListConfigs)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_instructions",
		Description: "Get comprehensive game instructions and rules",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleGameInstructions)
}

// GetMCPServer returns the underlying MCP server
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// Helper methods for API calls

func (c *Client) apiCall(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}
	return nil
}

// arguments returns the call's arguments as a map, empty when absent
func arguments(request mcp.CallToolRequest) map[string]interface{} {
	if args, ok := request.Params.Arguments.(map[string]interface{}); ok && args != nil {
		return args
	}
	return map[string]interface{}{}
}

func stringArg(args map[string]interface{}, key string) string {
	s, _ := args[key].(string)
	return strings.TrimSpace(s)
}

// intArg accepts JSON numbers and numeric strings
func intArg(args map[string]interface{}, key string) (int64, bool) {
	switch v := args[key].(type) {
	case float64:
		return int64(v), true
	case int:
		return int64(v), true
	case int64:
		return v, true
	case string:
		var n int64
		if _, err := fmt.Sscan(v, &n); err == nil {
			return n, true
		}
	}
	return 0, false
}

func stringsArg(args map[string]interface{}, key string) []string {
	switch v := args[key].(type) {
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case []string:
		return v
	case string:
		if v == "" {
			return nil
		}
		return strings.Split(v, ",")
	}
	return nil
}

func sessionPath(sessionID, suffix string) string {
	return "/api/sessions/" + url.PathEscape(sessionID) + suffix
}

func requireSession(args map[string]interface{}) (string, *mcp.CallToolResult) {
	id := stringArg(args, "session_id")
	if id == "" {
		return "", mcp.NewToolResultError("session_id is required")
	}
	return id, nil
}

// Tool handlers

func (c *Client) handleCreateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)

	body := map[string]interface{}{}
	if configID := stringArg(args, "config_id"); configID != "" {
		body["config_id"] = configID
	} else if configName := stringArg(args, "config_name"); configName != "" {
		body["config_id"] = configName
	}
	if seed, ok := intArg(args, "seed"); ok {
		body["seed"] = seed
	}

	var session service.SessionInfo
	if err := c.apiCall(ctx, "POST", "/api/sessions", body, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Created session: %s\nConfig: %s\nSeed: %d\n\n%s",
		session.ID, session.ConfigName, session.Seed, formatGameState(session.GameState))
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count    int                    `json:"count"`
		Sessions []*service.SessionInfo `json:"sessions"`
	}

	if err := c.apiCall(ctx, "GET", "/api/sessions", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if len(response.Sessions) == 0 {
		return mcp.NewToolResultText("No active sessions. Use create_session to start one."), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Active Sessions (%d):\n\n", response.Count)
	for _, session := range response.Sessions {
		b.WriteString(formatSessionInfo(session))
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, errResult := requireSession(arguments(request))
	if errResult != nil {
		return errResult, nil
	}

	var session service.SessionInfo
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, ""), nil, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSessionInfo(&session) + "\n" + formatGameState(session.GameState)), nil
}

func (c *Client) handleGameState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, errResult := requireSession(arguments(request))
	if errResult != nil {
		return errResult, nil
	}

	var state engine.GameState
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, "/state"), nil, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatGameState(&state)), nil
}

func (c *Client) handleStep(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, errResult := requireSession(args)
	if errResult != nil {
		return errResult, nil
	}

	req := service.StepRequest{
		Press:   stringsArg(args, "press"),
		Release: stringsArg(args, "release"),
		StopOn:  stringsArg(args, "stop_on"),
	}
	if frames, ok := intArg(args, "frames"); ok {
		req.Frames = int(frames)
	}
	req.Reset, _ = args["reset"].(bool)

	var result service.StepResult
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/step"), req, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatStepResult(&result)), nil
}

func (c *Client) handleReset(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, errResult := requireSession(arguments(request))
	if errResult != nil {
		return errResult, nil
	}

	var response struct {
		Message string            `json:"message"`
		State   *engine.GameState `json:"state"`
	}
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/reset"), nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("%s\n\n%s", response.Message, formatGameState(response.State))), nil
}

func (c *Client) handleInteractionHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, errResult := requireSession(args)
	if errResult != nil {
		return errResult, nil
	}

	params := url.Values{}
	if page, ok := intArg(args, "page"); ok {
		params.Set("page", fmt.Sprint(page))
	}
	if limit, ok := intArg(args, "limit"); ok {
		params.Set("limit", fmt.Sprint(limit))
	}
	if order := stringArg(args, "order"); order != "" {
		params.Set("order", order)
	}
	if scope := stringArg(args, "scope"); scope != "" {
		params.Set("scope", scope)
	}

	path := sessionPath(sessionID, "/history")
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var history service.HistoryResponse
	if err := c.apiCall(ctx, "GET", path, nil, &history); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatHistory(&history)), nil
}

func (c *Client) handleDescribeBlock(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, errResult := requireSession(args)
	if errResult != nil {
		return errResult, nil
	}
	blockID, ok := intArg(args, "block_id")
	if !ok || blockID <= 0 {
		return mcp.NewToolResultError("block_id must be a positive integer"), nil
	}

	var info engine.BlockInfo
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, fmt.Sprintf("/blocks/%d", blockID)), nil, &info); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatBlockInfo(&info)), nil
}

func (c *Client) handleListConfigs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var configs []service.ConfigInfo
	if err := c.apiCall(ctx, "GET", "/api/configs", nil, &configs); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	b.WriteString("Available Levels:\n\n")
	for _, config := range configs {
		fmt.Fprintf(&b, "• %s (config_id: %s)\n  %s\n  Map: %dx%d, Problems: %d, Ranges: %s, Distractors: %d\n\n",
			config.Name, config.ConfigID, config.Description, config.Width, config.Height,
			config.Problems, strings.Join(config.Ranges, " "), config.Distractors)
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGameInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(instructions), nil
}

const instructions = `Number Blocks - Complete Instructions

GAME OBJECTIVE:
Every level has one or more arithmetic problems laid out as rows of crates:
operand, operator, operand, '=' and then empty answer spaces. The answer
digits start scattered around the yard. Carry each digit crate onto its
answer space. A problem is solved when all its spaces hold the right
digits; the level is won when every problem is solved.

CONTROLS (held keys, like a real keyboard):
• up / down / left / right - walk. Opposite keys cancel out.
• run - walk 1.5x faster while held.
• interact - hold near a crate to pick it up; keep holding to carry it;
  release interact to drop it.
Keys stay pressed across step calls until you release them.

TIME AND DISTANCE:
• 60 frames per second. Walking moves 5 units per frame (7.5 running).
• One map cell is 64 units, so one cell takes about 13 frames.
• Reach a crate by standing next to it; the "press interact" prompt shows
  when a grabbable crate is in reach.

CRATES:
• Digits you can carry are movable. Operands, operators and '=' are fixed.
• Dropping a crate snaps it to the nearest free cell in front of you.
• Dropped on an answer space: it turns correct (green) or incorrect (red).
  Incorrect crates can be picked up again; correct ones stay put.
• Dropped next to other loose digits: it joins them into one number
  (up to 6 digits), left or right depending on where it lands.

MAP LEGEND (game_state):
• @ - you          • # - wall
• 0-9 - digit crate (uppercase letters are not used)
• + - * / = - operator crates
• _ - empty answer space
• Crates on answer spaces are listed with their status under Problems.

STRATEGY:
1. Read each problem and work out the answer yourself.
2. Find the needed digits in the crate list (they show cell and id).
3. Walk next to a digit, press interact, walk to the answer space, release.
4. Use step with stop_on ["grab"] to stop as soon as a crate is picked up,
   and describe_block to check a crate before carrying it.
5. Wrong digit on a space? Pick it up again and drop it elsewhere.`
