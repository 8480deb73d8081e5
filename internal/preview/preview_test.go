package preview

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
)

const testPage = `<!DOCTYPE html>
<html>
<head><title>Awesome Virtual Cells</title></head>
<body>
<h1>Projects</h1>
</body>
</html>
`

func testConfig() *Config {
	return &Config{
		Port:   0, // Use random available port
		Logger: log.New(os.Stderr, "[test] ", log.LstdFlags),
	}
}

// startServer spins up a preview server over a fresh root directory and
// registers its shutdown with the test.
func startServer(t *testing.T) *Server {
	t.Helper()

	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "index.html"), []byte(testPage), 0644); err != nil {
		t.Fatalf("write index.html: %v", err)
	}
	if err := os.WriteFile(filepath.Join(root, "style.css"), []byte("body { margin: 0 }\n"), 0644); err != nil {
		t.Fatalf("write style.css: %v", err)
	}

	server, err := NewServer(root, testConfig())
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	if err := server.Start(); err != nil {
		t.Fatalf("Failed to start server: %v", err)
	}
	t.Cleanup(func() { _ = server.Stop() })

	// Give server time to start
	time.Sleep(100 * time.Millisecond)
	return server
}

func dialClient(t *testing.T, ctx context.Context, server *Server) *websocket.Conn {
	t.Helper()

	wsURL := "ws://" + server.GetAddr() + "/ws"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("Failed to connect WebSocket: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close(websocket.StatusNormalClosure, "") })

	// Read welcome message
	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("Failed to read welcome message: %v", err)
	}
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("Failed to unmarshal welcome: %v", err)
	}
	if msg.Type != MessageTypeHello {
		t.Fatalf("Expected welcome message type %s, got %s", MessageTypeHello, msg.Type)
	}
	return conn
}

func readMessage(t *testing.T, ctx context.Context, conn *websocket.Conn) Message {
	t.Helper()

	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("Failed to read message: %v", err)
	}
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("Failed to unmarshal message: %v", err)
	}
	return msg
}

func TestNewServerValidatesRoot(t *testing.T) {
	if _, err := NewServer("", testConfig()); err == nil {
		t.Error("Expected error for empty root")
	}

	if _, err := NewServer(filepath.Join(t.TempDir(), "missing"), testConfig()); err == nil {
		t.Error("Expected error for nonexistent root")
	}

	file := filepath.Join(t.TempDir(), "page.html")
	if err := os.WriteFile(file, []byte(testPage), 0644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if _, err := NewServer(file, testConfig()); err == nil {
		t.Error("Expected error for file used as root")
	}
}

func TestServerStartStop(t *testing.T) {
	server, err := NewServer(t.TempDir(), testConfig())
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}

	if err := server.Start(); err != nil {
		t.Fatalf("Failed to start server: %v", err)
	}

	time.Sleep(100 * time.Millisecond)

	if server.GetAddr() == "" {
		t.Fatal("Server address is empty")
	}

	if err := server.Stop(); err != nil {
		t.Fatalf("Failed to stop server: %v", err)
	}
}

func TestWebSocketConnection(t *testing.T) {
	server := startServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	dialClient(t, ctx, server)

	if count := server.ClientCount(); count != 1 {
		t.Errorf("Expected 1 client, got %d", count)
	}
}

func TestNotifySyncBroadcast(t *testing.T) {
	server := startServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := dialClient(t, ctx, server)

	server.NotifySync(2, 1, 40*time.Millisecond)

	msg := readMessage(t, ctx, conn)
	if msg.Type != MessageTypeSyncComplete {
		t.Fatalf("Expected message type %s, got %s", MessageTypeSyncComplete, msg.Type)
	}

	var data SyncCompleteData
	if err := json.Unmarshal(msg.Data, &data); err != nil {
		t.Fatalf("Failed to unmarshal sync data: %v", err)
	}
	if data.Targets != 2 || data.Changed != 1 {
		t.Errorf("Sync data mismatch: got %+v, want targets=2 changed=1", data)
	}

	msg = readMessage(t, ctx, conn)
	if msg.Type != MessageTypeReload {
		t.Errorf("Expected message type %s, got %s", MessageTypeReload, msg.Type)
	}
}

func TestNotifySyncWithoutChangesSkipsReload(t *testing.T) {
	server := startServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := dialClient(t, ctx, server)

	server.NotifySync(2, 0, 40*time.Millisecond)

	msg := readMessage(t, ctx, conn)
	if msg.Type != MessageTypeSyncComplete {
		t.Fatalf("Expected message type %s, got %s", MessageTypeSyncComplete, msg.Type)
	}

	// A marker broadcast arrives next only if no reload was queued between.
	server.Broadcast(Message{Type: MessageTypeHello})

	msg = readMessage(t, ctx, conn)
	if msg.Type == MessageTypeReload {
		t.Error("Unchanged sync should not request a reload")
	}
}

func TestServeInjectsReloadScript(t *testing.T) {
	server := startServer(t)

	resp, err := http.Get("http://" + server.GetAddr() + "/")
	if err != nil {
		t.Fatalf("GET /: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET / status = %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}

	page := string(body)
	if !strings.Contains(page, "location.reload()") {
		t.Error("Served page is missing the reload script")
	}
	if !strings.Contains(page, "<h1>Projects</h1>") {
		t.Error("Served page lost its original content")
	}

	scriptAt := strings.Index(page, "location.reload()")
	bodyEndAt := strings.Index(page, "</body>")
	if bodyEndAt >= 0 && scriptAt > bodyEndAt {
		t.Error("Reload script was not injected before </body>")
	}
}

func TestServeLeavesAssetsVerbatim(t *testing.T) {
	server := startServer(t)

	resp, err := http.Get("http://" + server.GetAddr() + "/style.css")
	if err != nil {
		t.Fatalf("GET /style.css: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}

	if got, want := string(body), "body { margin: 0 }\n"; got != want {
		t.Errorf("GET /style.css = %q, want %q", got, want)
	}
}

func TestServeRejectsPathTraversal(t *testing.T) {
	server := startServer(t)

	resp, err := http.Get("http://" + server.GetAddr() + "/../../etc/passwd")
	if err != nil {
		t.Fatalf("GET traversal path: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		t.Errorf("Traversal request served with status %d", resp.StatusCode)
	}
}

func TestHealthEndpoint(t *testing.T) {
	server := startServer(t)

	resp, err := http.Get("http://" + server.GetAddr() + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	defer resp.Body.Close()

	var payload map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode health response: %v", err)
	}

	if payload["status"] != "ok" {
		t.Errorf("health status = %v, want ok", payload["status"])
	}
}

func TestInjectReloadWithoutBodyTag(t *testing.T) {
	page := []byte("<p>bare fragment</p>")
	out := string(injectReload(page))

	if !strings.HasPrefix(out, "<p>bare fragment</p>") {
		t.Error("Original content must come first")
	}
	if !strings.Contains(out, "location.reload()") {
		t.Error("Reload script missing from fragment")
	}
}
