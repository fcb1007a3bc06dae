// PiBot - Gateway API Server
// Serves REST endpoints + WebSocket for live events + static web client
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/pibot-ai/pibot/pkg/bus"
	"github.com/pibot-ai/pibot/pkg/channels"
	"github.com/pibot-ai/pibot/pkg/commands"
	"github.com/pibot-ai/pibot/pkg/config"
	"github.com/pibot-ai/pibot/pkg/interactions"
	"github.com/pibot-ai/pibot/pkg/logger"
	"github.com/pibot-ai/pibot/pkg/personas"
	"github.com/pibot-ai/pibot/pkg/providers"
)

// Server is the HTTP gateway between web clients and the message relay.
type Server struct {
	config      *config.Config
	configPath  string
	manager     *channels.Manager
	mailbox     *bus.Mailbox
	messageBus  *bus.MessageBus
	provider    providers.LLMProvider
	personas    *personas.Registry
	store       *interactions.Store
	runner      *commands.Runner
	wsHub       *WSHub
	eventBridge *EventBridge
	startTime   time.Time
	server      *http.Server
	webFS       fs.FS
	mu          sync.RWMutex
}

// NewServer creates a new gateway server instance. provider may be nil when
// no API key is configured; generation endpoints then report 503.
func NewServer(
	cfg *config.Config,
	configPath string,
	manager *channels.Manager,
	mailbox *bus.Mailbox,
	msgBus *bus.MessageBus,
	provider providers.LLMProvider,
	registry *personas.Registry,
	webFS fs.FS,
) *Server {
	s := &Server{
		config:     cfg,
		configPath: configPath,
		manager:    manager,
		mailbox:    mailbox,
		messageBus: msgBus,
		provider:   provider,
		personas:   registry,
		store:      interactions.NewStore(),
		runner:     commands.NewRunner(cfg.Commands.Authorized),
		startTime:  time.Now(),
		webFS:      webFS,
	}
	s.wsHub = NewWSHub(s)
	s.eventBridge = NewEventBridge(msgBus, s.wsHub)
	return s
}

// Start begins listening on the configured host:port.
func (s *Server) Start(ctx context.Context) error {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/health", s.handleHealth)

	// Relay surface
	mux.HandleFunc("/api/telegram/send", s.handleTelegramSend)
	mux.HandleFunc("/api/telegram/messages", s.handleTelegramMessages)

	// Configuration record
	mux.HandleFunc("/api/config", s.handleConfig)

	// Generation + interaction log
	mux.HandleFunc("/api/generate", s.handleGenerate)
	mux.HandleFunc("/api/interactions", s.handleInteractions)
	mux.HandleFunc("/api/interactions/", s.handleInteractionByID)

	// Diagnostics
	mux.HandleFunc("/api/command", s.handleCommand)
	mux.HandleFunc("/api/heavy-task", s.handleHeavyTask)
	mux.HandleFunc("/api/channels", s.handleChannels)

	// WebSocket for live events
	mux.HandleFunc("/api/ws", s.wsHub.HandleWebSocket)

	// Static web client
	mux.HandleFunc("/", s.handleStaticFiles)

	addr := fmt.Sprintf("%s:%d", s.config.Gateway.Host, s.config.Gateway.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      corsMiddleware(authMiddleware(s.config.Gateway.APIKey, mux)),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	logger.InfoCF("api", "Gateway API server starting", map[string]any{
		"addr": addr,
	})

	go s.wsHub.Run(ctx)
	go s.eventBridge.Run(ctx)

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.ErrorCF("api", "Server error", map[string]any{
				"error": err.Error(),
			})
		}
	}()

	return nil
}

// Stop gracefully shuts down the server.
func (s *Server) Stop() error {
	if s.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

func (s *Server) currentConfig() *config.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config
}

// --- Middleware ---

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin == "" || isAllowedOrigin(origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
		} else {
			w.Header().Set("Access-Control-Allow-Origin", "http://localhost")
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-API-Key")
		w.Header().Set("Access-Control-Allow-Credentials", "true")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// isAllowedOrigin checks if the origin is a trusted localhost address.
func isAllowedOrigin(origin string) bool {
	for _, prefix := range []string{"http://localhost", "http://127.0.0.1", "https://localhost", "https://127.0.0.1"} {
		if strings.HasPrefix(origin, prefix) {
			return true
		}
	}
	return false
}

// --- Handlers ---

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":         "ok",
		"uptime_seconds": int(time.Since(s.startTime).Seconds()),
		"timestamp":      time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleChannels(w http.ResponseWriter, r *http.Request) {
	if s.manager == nil {
		writeJSON(w, http.StatusOK, map[string]any{})
		return
	}
	writeJSON(w, http.StatusOK, s.manager.GetStatus())
}

func (s *Server) handleStaticFiles(w http.ResponseWriter, r *http.Request) {
	var staticFS fs.FS

	if s.webFS != nil {
		staticFS = s.webFS
	} else {
		staticFS = os.DirFS("public")
	}

	path := r.URL.Path
	if path == "/" {
		path = "/index.html"
	}

	f, err := staticFS.Open(strings.TrimPrefix(path, "/"))
	if err != nil {
		r.URL.Path = "/index.html"
	} else {
		f.Close()
	}

	http.FileServer(http.FS(staticFS)).ServeHTTP(w, r)
}

// --- Helpers ---

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
