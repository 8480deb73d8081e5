package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewFile_WritesWithPrefix(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "watch.log")

	logger, closer := NewFile("watch", path)
	logger.Printf("synchronized %d targets", 2)
	if err := closer.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("log file not created: %v", err)
	}
	line := string(data)
	if !strings.Contains(line, "[watch] ") {
		t.Errorf("log line missing prefix: %q", line)
	}
	if !strings.Contains(line, "synchronized 2 targets") {
		t.Errorf("log line missing message: %q", line)
	}
}

func TestNew_UsesPrefixConvention(t *testing.T) {
	logger := New("syncer")
	if got := logger.Prefix(); got != "[syncer] " {
		t.Errorf("Prefix() = %q, want %q", got, "[syncer] ")
	}
}
