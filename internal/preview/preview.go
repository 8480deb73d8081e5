// Package preview serves the published site locally with live reload.
//
// The server exposes the directory containing the HTML target over plain
// HTTP, injects a small reload script into every served HTML page, and
// broadcasts re-sync events to connected WebSocket clients. Browsers
// pointed at the preview refresh themselves whenever the watch daemon
// rewrites a target.
package preview

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/coder/websocket"
)

// MessageType defines the type of preview message
type MessageType string

const (
	// MessageTypeHello greets a client right after it connects
	MessageTypeHello MessageType = "hello"

	// MessageTypeSyncComplete indicates a full re-sync finished
	MessageTypeSyncComplete MessageType = "sync_complete"

	// MessageTypeReload asks connected pages to refresh themselves
	MessageTypeReload MessageType = "reload"
)

// Message represents a preview broadcast message
type Message struct {
	Type      MessageType     `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// SyncCompleteData describes the re-sync that just finished
type SyncCompleteData struct {
	Targets  int           `json:"targets"`
	Changed  int           `json:"changed"`
	Duration time.Duration `json:"duration"`
}

// reloadScript is appended to every served HTML page. It reconnects on
// close so a server restart does not strand open tabs.
const reloadScript = `<script>
(function () {
	function connect() {
		var ws = new WebSocket("ws://" + location.host + "/ws");
		ws.onmessage = function (ev) {
			try {
				if (JSON.parse(ev.data).type === "reload") {
					location.reload();
				}
			} catch (err) {}
		};
		ws.onclose = function () {
			setTimeout(connect, 1000);
		};
	}
	connect();
})();
</script>
`

// Server serves files beneath a root directory and manages WebSocket
// clients subscribed to re-sync events.
type Server struct {
	addr     string
	root     string
	listener net.Listener
	server   *http.Server

	// WebSocket client management
	clients   map[*websocket.Conn]bool
	clientsMu sync.RWMutex

	// Message broadcasting
	broadcast chan Message

	// Lifecycle management
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// Logging
	logger *log.Logger
}

// Config holds server configuration
type Config struct {
	// Port to listen on (default: 8080)
	Port int

	// Logger for server activity (default: stderr logger)
	Logger *log.Logger
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Port:   8080,
		Logger: log.New(os.Stderr, "[preview] ", log.LstdFlags),
	}
}

// NewServer creates a preview server rooted at the given directory.
func NewServer(root string, config *Config) (*Server, error) {
	if strings.TrimSpace(root) == "" {
		return nil, fmt.Errorf("preview root directory is required")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve preview root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("preview root %s: %w", abs, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("preview root %s is not a directory", abs)
	}

	if config == nil {
		config = DefaultConfig()
	}
	if config.Logger == nil {
		config.Logger = log.New(os.Stderr, "[preview] ", log.LstdFlags)
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Server{
		addr:      fmt.Sprintf(":%d", config.Port),
		root:      abs,
		clients:   make(map[*websocket.Conn]bool),
		broadcast: make(chan Message, 100),
		ctx:       ctx,
		cancel:    cancel,
		logger:    config.Logger,
	}, nil
}

// Start begins the HTTP server and WebSocket handler
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	s.listener = ln

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/", s.handleFile)

	s.server = &http.Server{
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	// Start broadcast handler
	s.wg.Add(1)
	go s.broadcastLoop()

	// Start HTTP server
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.logger.Printf("Preview server listening on %s, serving %s", ln.Addr(), s.root)
		if err := s.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Printf("Server error: %v", err)
		}
	}()

	return nil
}

// Stop gracefully shuts down the server
func (s *Server) Stop() error {
	s.logger.Println("Stopping preview server")

	// Signal shutdown
	s.cancel()

	// Close all WebSocket connections
	s.clientsMu.Lock()
	for conn := range s.clients {
		_ = conn.Close(websocket.StatusGoingAway, "Server shutting down")
		delete(s.clients, conn)
	}
	s.clientsMu.Unlock()

	// Shutdown HTTP server
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	// Wait for goroutines
	s.wg.Wait()

	s.logger.Println("Preview server stopped")
	return nil
}

// NotifySync broadcasts a sync_complete message, followed by a reload
// request when at least one target actually changed on disk.
func (s *Server) NotifySync(targets, changed int, duration time.Duration) {
	data, err := json.Marshal(SyncCompleteData{
		Targets:  targets,
		Changed:  changed,
		Duration: duration,
	})
	if err != nil {
		s.logger.Printf("Failed to marshal sync data: %v", err)
		return
	}

	s.Broadcast(Message{
		Type:      MessageTypeSyncComplete,
		Timestamp: time.Now(),
		Data:      data,
	})

	if changed > 0 {
		s.Broadcast(Message{
			Type:      MessageTypeReload,
			Timestamp: time.Now(),
		})
	}
}

// Broadcast sends a message to all connected clients
func (s *Server) Broadcast(msg Message) {
	select {
	case s.broadcast <- msg:
	case <-s.ctx.Done():
		return
	default:
		s.logger.Println("Warning: broadcast channel full, dropping message")
	}
}

// broadcastLoop handles message broadcasting to all clients
func (s *Server) broadcastLoop() {
	defer s.wg.Done()

	for {
		select {
		case <-s.ctx.Done():
			return

		case msg := <-s.broadcast:
			if msg.Timestamp.IsZero() {
				msg.Timestamp = time.Now()
			}

			data, err := json.Marshal(msg)
			if err != nil {
				s.logger.Printf("Failed to marshal message: %v", err)
				continue
			}

			s.clientsMu.RLock()
			clients := make([]*websocket.Conn, 0, len(s.clients))
			for conn := range s.clients {
				clients = append(clients, conn)
			}
			s.clientsMu.RUnlock()

			// Send to clients (outside read lock to avoid blocking broadcasts)
			for _, conn := range clients {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				err := conn.Write(ctx, websocket.MessageText, data)
				cancel()

				if err != nil {
					s.logger.Printf("Failed to send to client: %v", err)
					s.removeClient(conn)
				}
			}
		}
	}
}

// handleWebSocket upgrades HTTP connections to WebSocket
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"}, // Allow all origins for development
	})
	if err != nil {
		s.logger.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	s.clientsMu.Lock()
	s.clients[conn] = true
	clientCount := len(s.clients)
	s.clientsMu.Unlock()

	s.logger.Printf("Client connected (total: %d)", clientCount)

	welcome := Message{
		Type:      MessageTypeHello,
		Timestamp: time.Now(),
	}
	welcomeData, _ := json.Marshal(welcome)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	_ = conn.Write(ctx, websocket.MessageText, welcomeData)
	cancel()

	// Keep connection alive (read loop)
	go s.readLoop(conn)
}

// readLoop keeps the WebSocket connection alive and handles client disconnects
func (s *Server) readLoop(conn *websocket.Conn) {
	defer s.removeClient(conn)

	for {
		_, _, err := conn.Read(s.ctx)
		if err != nil {
			return
		}
		// We don't process client messages, just keep connection alive
	}
}

// removeClient safely removes a client connection
func (s *Server) removeClient(conn *websocket.Conn) {
	s.clientsMu.Lock()
	if _, exists := s.clients[conn]; exists {
		delete(s.clients, conn)
		clientCount := len(s.clients)
		s.clientsMu.Unlock()

		_ = conn.Close(websocket.StatusNormalClosure, "")
		s.logger.Printf("Client disconnected (total: %d)", clientCount)
	} else {
		s.clientsMu.Unlock()
	}
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.clientsMu.RLock()
	clientCount := len(s.clients)
	s.clientsMu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "ok",
		"clients": clientCount,
	})
}

// handleFile serves files beneath the root directory. HTML pages get the
// live-reload script injected; everything else is served verbatim.
func (s *Server) handleFile(w http.ResponseWriter, r *http.Request) {
	// Rooting the path before Clean keeps .. from escaping the root.
	name := path.Clean("/" + r.URL.Path)
	fsPath := filepath.Join(s.root, filepath.FromSlash(name))

	if info, err := os.Stat(fsPath); err == nil && info.IsDir() {
		index := filepath.Join(fsPath, "index.html")
		if _, err := os.Stat(index); err == nil {
			fsPath = index
		}
	}

	ext := strings.ToLower(filepath.Ext(fsPath))
	if ext == ".html" || ext == ".htm" {
		s.serveHTML(w, r, fsPath)
		return
	}

	http.ServeFile(w, r, fsPath)
}

// serveHTML reads an HTML file and serves it with the reload script added.
func (s *Server) serveHTML(w http.ResponseWriter, r *http.Request, fsPath string) {
	page, err := os.ReadFile(fsPath)
	if err != nil {
		if os.IsNotExist(err) {
			http.NotFound(w, r)
			return
		}
		s.logger.Printf("Failed to read %s: %v", fsPath, err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(injectReload(page))
}

// injectReload places the reload script just before the closing body tag,
// or appends it when the page has none.
func injectReload(page []byte) []byte {
	idx := bytes.LastIndex(bytes.ToLower(page), []byte("</body>"))
	if idx < 0 {
		out := make([]byte, 0, len(page)+len(reloadScript))
		out = append(out, page...)
		return append(out, reloadScript...)
	}

	out := make([]byte, 0, len(page)+len(reloadScript))
	out = append(out, page[:idx]...)
	out = append(out, reloadScript...)
	return append(out, page[idx:]...)
}

// GetAddr returns the server's listening address
func (s *Server) GetAddr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

// ClientCount returns the current number of connected clients
func (s *Server) ClientCount() int {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	return len(s.clients)
}
