package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func TestNewLoggerWritesJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.log")

	logger, err := NewLogger(&Config{Level: slog.LevelInfo, Format: "json", Output: path})
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	logger.Info("hello", Field{Key: "n", Value: 7})

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	var line map[string]interface{}
	if err := json.Unmarshal(bytes.TrimSpace(data), &line); err != nil {
		t.Fatalf("unmarshal log line: %v\n%s", err, data)
	}
	if line["msg"] != "hello" {
		t.Errorf("msg: got %v, want hello", line["msg"])
	}
	if line["n"] != float64(7) {
		t.Errorf("n field: got %v, want 7", line["n"])
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"INFO":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		if err != nil {
			t.Fatalf("ParseLevel(%q): %v", in, err)
		}
		if got != want {
			t.Errorf("ParseLevel(%q): got %v, want %v", in, got, want)
		}
	}
	if _, err := ParseLevel("bogus"); err == nil {
		t.Error("expected an error for an unknown level")
	}
}

func TestWithFieldsIsAdditive(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.log")
	logger, err := NewLogger(&Config{Level: slog.LevelInfo, Format: "json", Output: path})
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	tagged := logger.WithComponent("store").WithFields(Field{Key: "op", Value: "write"})
	tagged.Info("write complete")

	data, _ := os.ReadFile(path)
	var line map[string]interface{}
	if err := json.Unmarshal(bytes.TrimSpace(data), &line); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if line["component"] != "store" {
		t.Errorf("component field: got %v, want store", line["component"])
	}
	if line["op"] != "write" {
		t.Errorf("op field: got %v, want write", line["op"])
	}
}
