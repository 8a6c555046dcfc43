package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image/color"
	"log"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

const (
	cellSize      = 32
	headerHeight  = 64
	screenWidth   = 900
	screenHeight  = 860
	maxStepFrames = 600
)

var baseURL = "http://localhost:8080"

// ScreenType represents different screens in the app
type ScreenType int

const (
	ScreenWelcome ScreenType = iota
	ScreenGame
)

var (
	floorColor     = color.RGBA{40, 44, 52, 255}
	wallColor      = color.RGBA{110, 90, 70, 255}
	slotColor      = color.RGBA{200, 200, 90, 255}
	playerColor    = color.RGBA{80, 160, 255, 255}
	targetColor    = color.RGBA{255, 255, 255, 255}
	classification = map[string]color.RGBA{
		"movable":   {210, 160, 90, 255},
		"immovable": {120, 120, 130, 255},
		"correct":   {90, 190, 100, 255},
		"incorrect": {210, 80, 80, 255},
		"operator":  {100, 100, 170, 255},
	}
)

// Cell is a grid position
type Cell struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Rect is a block of cells
type Rect struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// Player is the actor part of the server state
type Player struct {
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	Cell        Cell    `json:"cell"`
	Orientation string  `json:"orientation"`
	Held        int     `json:"held,omitempty"`
	Target      int     `json:"target,omitempty"`
}

// Block is one crate
type Block struct {
	ID             int     `json:"id"`
	Value          string  `json:"value"`
	Classification string  `json:"classification"`
	X              float64 `json:"x"`
	Y              float64 `json:"y"`
	Cell           Cell    `json:"cell"`
	Held           bool    `json:"held,omitempty"`
}

// Problem is one laid-out problem
type Problem struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	SlotCells []Cell `json:"slot_cells"`
	Solved    bool   `json:"solved"`
}

// GameState is the part of the server snapshot the client draws
type GameState struct {
	ConfigName    string    `json:"config_name"`
	Frame         int64     `json:"frame"`
	Width         int       `json:"width"`
	Height        int       `json:"height"`
	Pitch         float64   `json:"pitch"`
	Walls         []Rect    `json:"walls"`
	Player        Player    `json:"player"`
	Blocks        []Block   `json:"blocks"`
	Problems      []Problem `json:"problems"`
	Caption       bool      `json:"caption"`
	Score         int       `json:"score"`
	TotalProblems int       `json:"total_problems"`
	Victory       bool      `json:"victory"`
	Message       string    `json:"message"`
}

// Event is something notable reported by a step
type Event struct {
	Type    string `json:"type"`
	Frame   int64  `json:"frame"`
	BlockID int    `json:"block_id,omitempty"`
}

// WSMessage represents WebSocket message wrapper
type WSMessage struct {
	SessionID string     `json:"session_id"`
	GameState *GameState `json:"game_state,omitempty"`
	Events    []Event    `json:"events,omitempty"`
	Event     string     `json:"event,omitempty"`
}

// StepRequest mirrors the server's step body
type StepRequest struct {
	Press   []string `json:"press,omitempty"`
	Release []string `json:"release,omitempty"`
	Frames  int      `json:"frames,omitempty"`
	Reset   bool     `json:"reset,omitempty"`
}

// StepResult is the part of the step response the client uses
type StepResult struct {
	GameState *GameState `json:"game_state"`
	Events    []Event    `json:"events"`
}

// SessionListItem represents a session from the server
type SessionListItem struct {
	ID         string `json:"id"`
	ConfigName string `json:"config_name"`
}

// ConfigListItem represents a level configuration
type ConfigListItem struct {
	ConfigID    string `json:"config_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// keyBindings maps keyboard keys to engine actions
var keyBindings = []struct {
	keys   []ebiten.Key
	action string
}{
	{[]ebiten.Key{ebiten.KeyArrowUp, ebiten.KeyW}, "up"},
	{[]ebiten.Key{ebiten.KeyArrowDown, ebiten.KeyS}, "down"},
	{[]ebiten.Key{ebiten.KeyArrowLeft, ebiten.KeyA}, "left"},
	{[]ebiten.Key{ebiten.KeyArrowRight, ebiten.KeyD}, "right"},
	{[]ebiten.Key{ebiten.KeySpace, ebiten.KeyE}, "interact"},
	{[]ebiten.Key{ebiten.KeyShiftLeft, ebiten.KeyShiftRight}, "run"},
}

// pendingStep collects input until the step loop sends it
type pendingStep struct {
	press   []string
	release []string
	frames  int
	reset   bool
}

// Game represents the desktop game client
type Game struct {
	sessionID     string
	state         *GameState
	wsConn        *websocket.Conn
	stateMutex    sync.RWMutex
	currentScreen ScreenType
	welcome       *WelcomeScreen
	held          map[string]bool
	pending       pendingStep
	pendingMutex  sync.Mutex
	wake          chan struct{}
	lastEvents    []Event
	errorMsg      string
	httpClient    *http.Client
}

// WelcomeScreen manages the welcome screen state
type WelcomeScreen struct {
	sessions  []SessionListItem
	configs   []ConfigListItem
	cursorPos int
	errorMsg  string
}

// entries returns the number of selectable rows
func (w *WelcomeScreen) entries() int {
	return len(w.sessions) + len(w.configs)
}

// NewGame creates a client, joining sessionID when given
func NewGame(sessionID string) *Game {
	g := &Game{
		currentScreen: ScreenWelcome,
		welcome:       &WelcomeScreen{},
		held:          make(map[string]bool),
		wake:          make(chan struct{}, 1),
		httpClient:    &http.Client{Timeout: 10 * time.Second},
	}
	go g.stepLoop()

	if sessionID != "" {
		if err := g.joinSession(sessionID); err != nil {
			log.Printf("Failed to join session %s: %v", sessionID, err)
			g.welcome.errorMsg = err.Error()
			g.loadWelcomeData()
		}
	} else {
		g.loadWelcomeData()
	}
	return g
}

// getJSON fetches path into out
func (g *Game) getJSON(path string, out interface{}) error {
	resp, err := g.httpClient.Get(baseURL + path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("GET %s: %s", path, resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// postJSON posts body to path and decodes the reply into out
func (g *Game) postJSON(path string, body, out interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	resp, err := g.httpClient.Post(baseURL+path, "application/json", bytes.NewReader(data))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.NewDecoder(resp.Body).Decode(&apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("POST %s: %s", path, apiErr.Error)
		}
		return fmt.Errorf("POST %s: %s", path, resp.Status)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// loadWelcomeData loads sessions and configs for the welcome screen
func (g *Game) loadWelcomeData() {
	var sessions struct {
		Sessions []SessionListItem `json:"sessions"`
	}
	if err := g.getJSON("/api/sessions", &sessions); err != nil {
		g.welcome.errorMsg = fmt.Sprintf("Failed to load sessions: %v", err)
	}
	var configs []ConfigListItem
	if err := g.getJSON("/api/configs", &configs); err != nil {
		g.welcome.errorMsg = fmt.Sprintf("Failed to load configs: %v", err)
	}
	g.welcome.sessions = sessions.Sessions
	g.welcome.configs = configs
	if g.welcome.cursorPos >= g.welcome.entries() {
		g.welcome.cursorPos = 0
	}
}

// createSession starts a new session on configID and joins it
func (g *Game) createSession(configID string) error {
	var info struct {
		ID string `json:"id"`
	}
	if err := g.postJSON("/api/sessions", map[string]string{"config_id": configID}, &info); err != nil {
		return err
	}
	log.Printf("Created session %s (%s)", info.ID, configID)
	return g.joinSession(info.ID)
}

// joinSession fetches the state and subscribes to updates
func (g *Game) joinSession(sessionID string) error {
	var state GameState
	if err := g.getJSON(fmt.Sprintf("/api/sessions/%s/state", url.PathEscape(sessionID)), &state); err != nil {
		return err
	}

	g.closeWebSocket()
	g.stateMutex.Lock()
	g.sessionID = sessionID
	g.state = &state
	g.lastEvents = nil
	g.stateMutex.Unlock()
	g.held = make(map[string]bool)
	g.currentScreen = ScreenGame

	if err := g.connectWebSocket(sessionID); err != nil {
		// Updates from other clients are missed but our own steps still render
		log.Printf("WebSocket connection failed: %v", err)
	}
	return nil
}

// connectWebSocket subscribes to session broadcasts
func (g *Game) connectWebSocket(sessionID string) error {
	wsURL, err := url.Parse(baseURL)
	if err != nil {
		return err
	}
	wsURL.Scheme = strings.Replace(wsURL.Scheme, "http", "ws", 1)
	wsURL.Path = "/ws"
	wsURL.RawQuery = url.Values{"session": {sessionID}}.Encode()

	conn, _, err := websocket.DefaultDialer.Dial(wsURL.String(), nil)
	if err != nil {
		return err
	}
	g.wsConn = conn
	go g.listenWebSocket(conn, sessionID)
	return nil
}

func (g *Game) closeWebSocket() {
	if g.wsConn != nil {
		g.wsConn.Close()
		g.wsConn = nil
	}
}

// listenWebSocket applies pushed states until the connection closes
func (g *Game) listenWebSocket(conn *websocket.Conn, sessionID string) {
	for {
		var msg WSMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			return
		}
		if msg.GameState == nil || !strings.EqualFold(msg.SessionID, sessionID) {
			continue
		}
		g.applyState(sessionID, msg.GameState, msg.Events)
	}
}

// applyState replaces the mirrored state unless it is older than what we have
func (g *Game) applyState(sessionID string, state *GameState, events []Event) {
	g.stateMutex.Lock()
	defer g.stateMutex.Unlock()
	if g.sessionID != sessionID {
		return
	}
	if g.state != nil && state.Frame < g.state.Frame && !state.hasResetSince(g.state) {
		return
	}
	g.state = state
	if len(events) > 0 {
		g.lastEvents = events
	}
}

// hasResetSince reports whether s comes from a later reset than prev
func (s *GameState) hasResetSince(prev *GameState) bool {
	return s.Frame == 0 && prev.Frame > 0
}

// queue records input and wakes the step loop
func (g *Game) queue(update func(p *pendingStep)) {
	g.pendingMutex.Lock()
	update(&g.pending)
	g.pendingMutex.Unlock()
	select {
	case g.wake <- struct{}{}:
	default:
	}
}

// stepLoop sends collected input and elapsed frames, one request at a time
func (g *Game) stepLoop() {
	for range g.wake {
		g.pendingMutex.Lock()
		p := g.pending
		g.pending = pendingStep{}
		g.pendingMutex.Unlock()

		g.stateMutex.RLock()
		sessionID := g.sessionID
		g.stateMutex.RUnlock()
		if sessionID == "" || (p.frames == 0 && !p.reset && len(p.press) == 0 && len(p.release) == 0) {
			continue
		}
		if p.frames > maxStepFrames {
			p.frames = maxStepFrames
		}
		if p.frames == 0 {
			p.frames = 1
		}

		var result StepResult
		err := g.postJSON(fmt.Sprintf("/api/sessions/%s/step", url.PathEscape(sessionID)), StepRequest{
			Press:   p.press,
			Release: p.release,
			Frames:  p.frames,
			Reset:   p.reset,
		}, &result)
		if err != nil {
			g.stateMutex.Lock()
			g.errorMsg = err.Error()
			g.stateMutex.Unlock()
			continue
		}
		g.stateMutex.Lock()
		g.errorMsg = ""
		g.stateMutex.Unlock()
		if result.GameState != nil {
			g.applyState(sessionID, result.GameState, result.Events)
		}
	}
}

// Update handles input, one engine frame per tick
func (g *Game) Update() error {
	if g.currentScreen == ScreenWelcome {
		return g.updateWelcomeScreen()
	}
	return g.updateGameScreen()
}

func (g *Game) updateWelcomeScreen() error {
	w := g.welcome

	if inpututil.IsKeyJustPressed(ebiten.KeyF5) {
		g.loadWelcomeData()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowDown) && w.cursorPos < w.entries()-1 {
		w.cursorPos++
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowUp) && w.cursorPos > 0 {
		w.cursorPos--
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEnter) && w.entries() > 0 {
		var err error
		if w.cursorPos < len(w.sessions) {
			err = g.joinSession(w.sessions[w.cursorPos].ID)
		} else {
			err = g.createSession(w.configs[w.cursorPos-len(w.sessions)].ConfigID)
		}
		if err != nil {
			w.errorMsg = err.Error()
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) && g.sessionID != "" {
		g.currentScreen = ScreenGame
	}
	return nil
}

func (g *Game) updateGameScreen() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		g.releaseAll()
		g.loadWelcomeData()
		g.currentScreen = ScreenWelcome
		return nil
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		g.releaseAll()
		g.queue(func(p *pendingStep) { p.reset = true })
		return nil
	}

	var press, release []string
	for _, binding := range keyBindings {
		down := false
		for _, k := range binding.keys {
			if ebiten.IsKeyPressed(k) {
				down = true
				break
			}
		}
		switch {
		case down && !g.held[binding.action]:
			press = append(press, binding.action)
		case !down && g.held[binding.action]:
			release = append(release, binding.action)
		}
		g.held[binding.action] = down
	}

	g.queue(func(p *pendingStep) {
		p.press = append(p.press, press...)
		p.release = append(p.release, release...)
		p.frames++
	})
	return nil
}

// releaseAll lets go of every held action
func (g *Game) releaseAll() {
	var release []string
	for action, down := range g.held {
		if down {
			release = append(release, action)
		}
	}
	g.held = make(map[string]bool)
	if len(release) > 0 {
		g.queue(func(p *pendingStep) { p.release = append(p.release, release...) })
	}
}

// Draw renders the current screen
func (g *Game) Draw(screen *ebiten.Image) {
	if g.currentScreen == ScreenWelcome {
		g.drawWelcomeScreen(screen)
		return
	}
	g.drawGameScreen(screen)
}

func (g *Game) drawWelcomeScreen(screen *ebiten.Image) {
	screen.Fill(color.RGBA{20, 20, 30, 255})
	w := g.welcome

	ebitenutil.DebugPrintAt(screen, "NUMBER BLOCKS", 20, 20)
	ebitenutil.DebugPrintAt(screen, fmt.Sprintf("Server: %s", baseURL), 20, 40)

	y := 80
	row := 0
	ebitenutil.DebugPrintAt(screen, "Join a session:", 20, y)
	y += 20
	if len(w.sessions) == 0 {
		ebitenutil.DebugPrintAt(screen, "  (none)", 20, y)
		y += 16
	}
	for _, s := range w.sessions {
		ebitenutil.DebugPrintAt(screen, fmt.Sprintf("%s %s  %s", cursor(w.cursorPos == row), s.ID, s.ConfigName), 20, y)
		y += 16
		row++
	}

	y += 20
	ebitenutil.DebugPrintAt(screen, "Start a new game:", 20, y)
	y += 20
	for _, c := range w.configs {
		ebitenutil.DebugPrintAt(screen, fmt.Sprintf("%s %s  %s", cursor(w.cursorPos == row), c.Name, c.Description), 20, y)
		y += 16
		row++
	}

	if w.errorMsg != "" {
		ebitenutil.DebugPrintAt(screen, "Error: "+w.errorMsg, 20, y+20)
	}
	ebitenutil.DebugPrintAt(screen, "[Up/Down] select  [Enter] open  [F5] refresh  [Esc] back to game", 20, screenHeight-30)
}

func cursor(selected bool) string {
	if selected {
		return ">"
	}
	return " "
}

func (g *Game) drawGameScreen(screen *ebiten.Image) {
	g.stateMutex.RLock()
	state := g.state
	events := g.lastEvents
	errorMsg := g.errorMsg
	sessionID := g.sessionID
	g.stateMutex.RUnlock()

	screen.Fill(color.RGBA{20, 20, 30, 255})
	if state == nil {
		ebitenutil.DebugPrintAt(screen, "Waiting for state...", 20, 20)
		return
	}

	ebitenutil.DebugPrintAt(screen, fmt.Sprintf("Session %s  Level %s  Frame %d", sessionID, state.ConfigName, state.Frame), 10, 10)
	score := fmt.Sprintf("Solved %d/%d", state.Score, state.TotalProblems)
	if state.Victory {
		score += "  VICTORY!"
	}
	ebitenutil.DebugPrintAt(screen, score, 10, 28)
	if errorMsg != "" {
		ebitenutil.DebugPrintAt(screen, "Error: "+errorMsg, 10, 46)
	}

	ox, oy := float32(cellSize), float32(headerHeight)
	toScreen := func(c Cell) (float32, float32) {
		return ox + float32(c.X*cellSize), oy + float32(c.Y*cellSize)
	}
	// World coordinates are cell centers scaled by pitch
	worldToScreen := func(x, y float64) (float32, float32) {
		pitch := state.Pitch
		if pitch <= 0 {
			pitch = 1
		}
		return ox + float32(x/pitch*cellSize), oy + float32(y/pitch*cellSize)
	}

	// Floor and boundary
	vector.DrawFilledRect(screen, ox-cellSize, oy-cellSize, float32((state.Width+2)*cellSize), float32((state.Height+2)*cellSize), wallColor, false)
	vector.DrawFilledRect(screen, ox, oy, float32(state.Width*cellSize), float32(state.Height*cellSize), floorColor, false)

	for _, w := range state.Walls {
		if w.X < 0 || w.Y < 0 || w.X+w.W > state.Width || w.Y+w.H > state.Height {
			continue
		}
		x, y := toScreen(Cell{w.X, w.Y})
		vector.DrawFilledRect(screen, x, y, float32(w.W*cellSize), float32(w.H*cellSize), wallColor, false)
	}

	for _, p := range state.Problems {
		for _, c := range p.SlotCells {
			x, y := toScreen(c)
			vector.StrokeRect(screen, x+2, y+2, cellSize-4, cellSize-4, 2, slotColor, false)
		}
	}

	for _, b := range state.Blocks {
		cx, cy := worldToScreen(b.X, b.Y)
		fill, ok := classification[b.Classification]
		if !ok {
			fill = classification["movable"]
		}
		vector.DrawFilledRect(screen, cx+3, cy+3, cellSize-6, cellSize-6, fill, false)
		if b.ID == state.Player.Target && state.Caption {
			vector.StrokeRect(screen, cx+1, cy+1, cellSize-2, cellSize-2, 2, targetColor, false)
		}
		ebitenutil.DebugPrintAt(screen, b.Value, int(cx)+cellSize/2-3, int(cy)+cellSize/2-8)
	}

	px, py := worldToScreen(state.Player.X, state.Player.Y)
	vector.DrawFilledCircle(screen, px+cellSize/2, py+cellSize/2, cellSize/3, playerColor, true)
	fx, fy := facing(state.Player.Orientation)
	vector.DrawFilledCircle(screen, px+cellSize/2+fx*cellSize/3, py+cellSize/2+fy*cellSize/3, 3, targetColor, true)

	g.drawStatus(screen, state, events, int(oy)+(state.Height+1)*cellSize+10)
}

// facing returns a unit offset for an orientation name
func facing(orientation string) (float32, float32) {
	switch orientation {
	case "up":
		return 0, -1
	case "down":
		return 0, 1
	case "left":
		return -1, 0
	}
	return 1, 0
}

// drawStatus prints problems, message, recent events and help
func (g *Game) drawStatus(screen *ebiten.Image, state *GameState, events []Event, y int) {
	for i, p := range state.Problems {
		status := "unsolved"
		if p.Solved {
			status = "SOLVED"
		}
		ebitenutil.DebugPrintAt(screen, fmt.Sprintf("%d. %s  [%s]", i+1, p.Text, status), 10, y)
		y += 16
	}
	if state.Message != "" {
		ebitenutil.DebugPrintAt(screen, state.Message, 10, y+4)
		y += 20
	}
	if len(events) > 0 {
		parts := make([]string, 0, len(events))
		for _, e := range events {
			parts = append(parts, e.Type)
		}
		ebitenutil.DebugPrintAt(screen, "Last: "+strings.Join(parts, ", "), 10, y)
	}
	ebitenutil.DebugPrintAt(screen, "[Arrows/WASD] walk  [Space/E] hold to carry  [Shift] run  [R] reset  [Esc] sessions", 10, screenHeight-24)
}

// Layout returns the logical screen size
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return screenWidth, screenHeight
}

func main() {
	if server := os.Getenv("NUMBERBLOCKS_SERVER"); server != "" {
		baseURL = strings.TrimSuffix(server, "/")
	}

	sessionID := ""
	if len(os.Args) > 1 {
		sessionID = os.Args[1]
	}

	game := NewGame(sessionID)

	ebiten.SetWindowSize(screenWidth, screenHeight)
	ebiten.SetWindowTitle("Number Blocks - Desktop Client")
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetTPS(60)

	if err := ebiten.RunGame(game); err != nil {
		log.Fatal(err)
	}
}
