// Command numberblocks runs the number blocks arithmetic puzzle.
//
// Commands:
//  1. "server" (default) – HTTP server exposing the REST API, WebSocket updates and an /mcp endpoint
//  2. "mcp" – MCP stdio server that reuses a running API or starts an internal one
//  3. "play" – play a level in the terminal with sound
//  4. "validate" – check every level file in the config directory
//
// Flags control host/port, config directory, debug logging and optional
// ngrok tunneling for easy external access during development. Every flag
// can also be set from the environment or a .env file.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"github.com/urfave/cli/v3"
	"github.com/wricardo/mcp-training/numberblocks/api"
	"github.com/wricardo/mcp-training/numberblocks/audio"
	"github.com/wricardo/mcp-training/numberblocks/game/config"
	"github.com/wricardo/mcp-training/numberblocks/game/engine"
	"github.com/wricardo/mcp-training/numberblocks/game/service"
	"github.com/wricardo/mcp-training/numberblocks/game/session"
	"github.com/wricardo/mcp-training/numberblocks/terminal"
	"github.com/wricardo/mcp-training/numberblocks/transport/mcp"
	"github.com/wricardo/mcp-training/numberblocks/transport/websocket"
	"github.com/wricardo/mcp-training/numberblocks/validate"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Number Blocks Server"
)

const (
	defaultConfigDir   = "configs"
	defaultSessionsDir = "sessions"
	sessionMaxAge      = 24 * time.Hour
	cleanupInterval    = time.Hour
	syncInterval       = 5 * time.Second
)

// services bundles what the server and MCP modes share
type services struct {
	game        service.GameService
	sessions    *session.Manager
	persistence session.SessionPersistence
}

// main loads .env, then hands the arguments to the command tree.
func main() {
	// Load .env file if it exists (ignore error if not found)
	if err := godotenv.Load(); err != nil {
		// Only log if it's not a "file not found" error
		if !os.IsNotExist(err) {
			log.Printf("Warning: Error loading .env file: %v", err)
		}
	} else {
		log.Println("Loaded environment variables from .env file")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newCommand().Run(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}

// newCommand builds the CLI command tree
func newCommand() *cli.Command {
	return &cli.Command{
		Name:           "numberblocks",
		Usage:          "Carry number crates to solve arithmetic problems",
		Version:        Version,
		DefaultCommand: "server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config-dir",
				Value:   defaultConfigDir,
				Usage:   "Directory containing level configurations",
				Sources: cli.EnvVars("CONFIG_DIR"),
			},
			&cli.BoolFlag{
				Name:    "debug",
				Usage:   "Enable debug logging",
				Sources: cli.EnvVars("DEBUG"),
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			// Setup logging
			if cmd.Bool("debug") {
				log.SetFlags(log.LstdFlags | log.Lshortfile)
			} else {
				log.SetFlags(log.LstdFlags)
			}
			return ctx, nil
		},
		Commands: []*cli.Command{
			serverCommand(),
			mcpCommand(),
			playCommand(),
			validateCommand(),
		},
	}
}

func serverCommand() *cli.Command {
	return &cli.Command{
		Name:    "server",
		Aliases: []string{"http"},
		Usage:   "Run HTTP server with API, WebSocket, and MCP endpoint",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "host", Value: "localhost", Usage: "HTTP server host", Sources: cli.EnvVars("HOST")},
			&cli.IntFlag{Name: "port", Value: 8080, Usage: "HTTP server port", Sources: cli.EnvVars("PORT")},
			&cli.StringFlag{Name: "sessions-dir", Value: defaultSessionsDir, Usage: "Directory for persisted sessions", Sources: cli.EnvVars("SESSIONS_DIR")},
			&cli.BoolFlag{Name: "ngrok", Usage: "Enable ngrok tunnel", Sources: cli.EnvVars("NGROK_ENABLED")},
			&cli.StringFlag{Name: "ngrok-auth", Usage: "Ngrok auth token", Sources: cli.EnvVars("NGROK_AUTHTOKEN", "NGROK_AUTH_TOKEN")},
			&cli.StringFlag{Name: "ngrok-domain", Usage: "Custom ngrok domain (optional)", Sources: cli.EnvVars("NGROK_DOMAIN")},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log.Printf("Starting %s v%s (mode: server)", AppName, Version)
			svc, err := initializeServices(ctx, cmd.String("config-dir"), cmd.String("sessions-dir"))
			if err != nil {
				return fmt.Errorf("failed to initialize services: %w", err)
			}
			return runHTTPServer(ctx, svc.game, httpOptions{
				addr:        fmt.Sprintf("%s:%d", cmd.String("host"), cmd.Int("port")),
				ngrok:       cmd.Bool("ngrok"),
				ngrokAuth:   cmd.String("ngrok-auth"),
				ngrokDomain: cmd.String("ngrok-domain"),
			})
		},
	}
}

func mcpCommand() *cli.Command {
	return &cli.Command{
		Name:    "mcp",
		Aliases: []string{"stdio-mcp", "mcp-stdio"},
		Usage:   "Run MCP stdio server with internal HTTP server",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "api-url", Value: "http://localhost:8080", Usage: "External API to reuse when reachable", Sources: cli.EnvVars("API_URL")},
			&cli.StringFlag{Name: "sessions-dir", Value: defaultSessionsDir, Usage: "Directory for persisted sessions", Sources: cli.EnvVars("SESSIONS_DIR")},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			// stdout belongs to the MCP protocol
			log.SetOutput(os.Stderr)
			svc, err := initializeServices(ctx, cmd.String("config-dir"), cmd.String("sessions-dir"))
			if err != nil {
				return fmt.Errorf("failed to initialize services: %w", err)
			}
			return runStdioMCPWithInternalServer(ctx, svc.game, cmd.String("api-url"))
		},
	}
}

func playCommand() *cli.Command {
	return &cli.Command{
		Name:  "play",
		Usage: "Play a level in the terminal",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "level", Aliases: []string{"l"}, Value: config.DefaultName, Usage: "Level to play"},
			&cli.Int64Flag{Name: "seed", Usage: "Seed for a reproducible board (random when unset)"},
			&cli.DurationFlag{Name: "hold", Value: terminal.DefaultInitialHold, Usage: "How long a single key press keeps walking"},
			&cli.DurationFlag{Name: "repeat", Value: terminal.DefaultRepeatHold, Usage: "Gap between key repeats that still counts as held"},
			&cli.BoolFlag{Name: "mute", Usage: "Disable sound", Sources: cli.EnvVars("MUTE")},
			&cli.StringFlag{Name: "log-file", Usage: "Write logs here while playing (discarded when unset)"},
		},
		Action: runPlay,
	}
}

func validateCommand() *cli.Command {
	return &cli.Command{
		Name:  "validate",
		Usage: "Validate every level file in the config directory",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			results, err := validate.Dir(cmd.String("config-dir"))
			if err != nil {
				return err
			}
			if !validate.Report(cmd.Root().Writer, results) {
				return errors.New("some configurations are invalid")
			}
			return nil
		},
	}
}

// loadLevel reads a level from dir, falling back to the built-in level when dir is missing
func loadLevel(dir, name string) (*engine.GameConfig, error) {
	configManager, err := config.NewManager(dir)
	if err != nil {
		log.Printf("Warning: %v; using the built-in level", err)
		return engine.DefaultConfig(), nil
	}
	return configManager.LoadConfig(name)
}

// runPlay hosts one engine in the terminal until the player quits
func runPlay(ctx context.Context, cmd *cli.Command) error {
	// The screen owns the terminal; logs go to a file or nowhere
	logOutput := io.Discard
	if path := cmd.String("log-file"); path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer f.Close()
		logOutput = f
	}
	log.SetOutput(logOutput)
	defer log.SetOutput(os.Stderr)

	level, err := loadLevel(cmd.String("config-dir"), cmd.String("level"))
	if err != nil {
		return err
	}

	seed := cmd.Int64("seed")
	if !cmd.IsSet("seed") {
		seed = time.Now().UnixNano()
	}
	gameEngine, err := engine.NewEngine(level, seed)
	if err != nil {
		return fmt.Errorf("create engine: %w", err)
	}

	player := audio.NewPlayer()
	if !cmd.Bool("mute") {
		if err := player.Initialize(); err != nil {
			// Non-fatal, game can run without sound
			log.Printf("Audio initialization failed: %v", err)
		}
	}
	defer player.Close()

	screen, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := screen.Init(); err != nil {
		return err
	}

	host := terminal.NewHost(screen, gameEngine,
		terminal.WithSound(player),
		terminal.WithHold(cmd.Duration("hold"), cmd.Duration("repeat")))
	runErr := host.Run(ctx)
	screen.Fini()

	state := gameEngine.GetState()
	fmt.Fprintf(cmd.Root().Writer, "%s (seed %d): solved %d/%d\n", level.Name, seed, state.Score, state.TotalProblems)
	return runErr
}

type httpOptions struct {
	addr        string
	ngrok       bool
	ngrokAuth   string
	ngrokDomain string
}

// newRouter combines the API server with the /mcp proxy endpoint
func newRouter(apiServer http.Handler, mcpClient *mcp.Client) *http.ServeMux {
	mainRouter := http.NewServeMux()

	// Mount API server at root
	mainRouter.Handle("/", apiServer)

	mainRouter.HandleFunc("/mcp", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		response := mcpClient.GetMCPServer().HandleMessage(r.Context(), body)

		w.Header().Set("Content-Type", "application/json")
		responseData, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Write(responseData)
	})
	return mainRouter
}

// runHTTPServer starts the HTTP server with REST API, WebSocket hub, and an /mcp proxy endpoint.
// If ngrok is enabled, it also provisions a public tunnel. It returns once ctx is done.
func runHTTPServer(ctx context.Context, gameService service.GameService, opts httpOptions) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Create WebSocket hub
	hub := websocket.NewHub()
	go hub.RunContext(ctx)

	apiServer := api.NewServer(gameService, hub)
	mcpClient := mcp.NewClient(fmt.Sprintf("http://%s", opts.addr))
	mainRouter := newRouter(apiServer, mcpClient)

	httpServer := &http.Server{
		Addr:         opts.addr,
		Handler:      mainRouter,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	var wg sync.WaitGroup
	serveErr := make(chan error, 1)

	// Start regular HTTP server
	wg.Add(1)
	go func() {
		defer wg.Done()

		log.Printf("HTTP server listening on %s", opts.addr)
		log.Printf("REST API: http://%s/api", opts.addr)
		log.Printf("WebSocket: ws://%s/ws?session=<session_id>", opts.addr)
		log.Printf("MCP endpoint: http://%s/mcp", opts.addr)

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErr <- fmt.Errorf("HTTP server failed: %w", err)
			cancel()
		}
	}()

	// Start ngrok tunnel if enabled
	if opts.ngrok {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runNgrok(ctx, mainRouter, opts)
		}()
	}

	<-ctx.Done()
	log.Println("Shutting down...")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	// Wait for all goroutines to finish
	wg.Wait()
	log.Println("Server stopped")

	select {
	case err := <-serveErr:
		return err
	default:
		return nil
	}
}

// runNgrok serves handler through an ngrok tunnel until ctx is done
func runNgrok(ctx context.Context, handler http.Handler, opts httpOptions) {
	if opts.ngrokAuth == "" {
		log.Println("WARNING: Ngrok enabled but no auth token provided (use --ngrok-auth, NGROK_AUTHTOKEN, or NGROK_AUTH_TOKEN env var)")
		return
	}

	log.Println("Starting ngrok tunnel...")

	// Configure ngrok endpoint
	var tunnel ngrokConfig.Tunnel
	if opts.ngrokDomain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(opts.ngrokDomain))
		log.Printf("Using custom ngrok domain: %s", opts.ngrokDomain)
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(opts.ngrokAuth))
	if err != nil {
		log.Printf("Failed to start ngrok tunnel: %v", err)
		return
	}

	go func() {
		<-ctx.Done()
		if err := tun.Close(); err != nil {
			log.Printf("Failed to close ngrok tunnel: %v", err)
		}
	}()

	ngrokURL := tun.URL()
	log.Printf("🚀 Ngrok tunnel established: %s", ngrokURL)
	log.Printf("  REST API (ngrok): %s/api", ngrokURL)
	log.Printf("  WebSocket (ngrok): %s/ws?session=<session_id>", ngrokURL)
	log.Printf("  MCP endpoint (ngrok): %s/mcp", ngrokURL)

	if err := http.Serve(tun, handler); err != nil && err != http.ErrServerClosed && ctx.Err() == nil {
		log.Printf("Ngrok server error: %v", err)
	}
	log.Println("Ngrok tunnel closed")
}

// initializeServices wires session/config managers and the game service.
// It also starts background routines that prune stale sessions and follow
// session files deleted from disk; both stop with ctx.
func initializeServices(ctx context.Context, configDir, sessionsDir string) (*services, error) {
	// Create config manager first (needed for persistence)
	configManager, err := config.NewManager(configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create config manager: %w", err)
	}

	persistence, err := session.NewFilePersistence(sessionsDir, configManager)
	if err != nil {
		return nil, fmt.Errorf("failed to create session persistence: %w", err)
	}

	sessionManager := session.NewManagerWithPersistence(persistence)
	if err := sessionManager.LoadPersistedSessions(); err != nil {
		log.Printf("Warning: Failed to load persisted sessions: %v", err)
	}

	svc := &services{
		game:        service.NewGameService(sessionManager, configManager),
		sessions:    sessionManager,
		persistence: persistence,
	}

	go sessionManager.RunCleanup(ctx, cleanupInterval, sessionMaxAge)
	go filesystemSyncRoutine(ctx, sessionManager, persistence, syncInterval)

	return svc, nil
}

// syncWithFilesystem removes sessions from memory whose files were deleted
func syncWithFilesystem(manager *session.Manager, persistence session.SessionPersistence) int {
	pruned := 0
	for _, s := range manager.List() {
		if persistence.Exists(s.ID) {
			continue
		}
		if err := manager.DeleteFromMemory(s.ID); err == nil {
			pruned++
			log.Printf("Pruned session %s from memory (file deleted)", s.ID)
		}
	}
	return pruned
}

// filesystemSyncRoutine periodically syncs in-memory sessions with filesystem state.
func filesystemSyncRoutine(ctx context.Context, manager *session.Manager, persistence session.SessionPersistence, interval time.Duration) {
	if persistence == nil {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if pruned := syncWithFilesystem(manager, persistence); pruned > 0 {
				log.Printf("Filesystem sync: pruned %d orphaned sessions from memory", pruned)
			}
		}
	}
}

// runStdioMCPWithInternalServer runs an MCP stdio server.
// It tries to reuse an external API at externalURL; if unavailable, it
// starts a minimal internal HTTP API bound to a random loopback port and targets that.
func runStdioMCPWithInternalServer(ctx context.Context, gameService service.GameService, externalURL string) error {
	baseURL := externalURL

	log.Printf("Checking for external API server at %s...", externalURL)
	testClient := &http.Client{Timeout: 2 * time.Second}
	resp, err := testClient.Get(externalURL + "/api/health")
	if err == nil && resp.StatusCode < 500 {
		resp.Body.Close()
		log.Printf("External API server found at %s, using it for MCP", externalURL)
	} else {
		log.Printf("No external API server found, starting internal HTTP server")

		// Start internal HTTP server on a random available port
		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return fmt.Errorf("failed to get available port: %w", err)
		}
		internalAddr := listener.Addr().String()
		log.Printf("Starting internal HTTP server on %s for MCP stdio", internalAddr)

		hub := websocket.NewHub()
		go hub.RunContext(ctx)

		httpServer := &http.Server{Handler: api.NewServer(gameService, hub)}
		go func() {
			if err := httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
				log.Printf("Internal HTTP server error: %v", err)
			}
		}()
		defer httpServer.Close()

		baseURL = fmt.Sprintf("http://%s", internalAddr)
	}

	mcpClient := mcp.NewClient(baseURL)
	log.Printf("MCP stdio server ready (API at %s)", baseURL)

	if err := server.ServeStdio(mcpClient.GetMCPServer()); err != nil {
		return fmt.Errorf("MCP stdio server error: %w", err)
	}
	return nil
}
