package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextFormat(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf, "INFO", "text", false)

	Info("hello", "user", "alice", "count", 3)

	out := buf.String()
	assert.Contains(t, out, "[INFO] hello")
	assert.Contains(t, out, "user=alice")
	assert.Contains(t, out, "count=3")
	assert.NotContains(t, out, "\033[", "color codes should be disabled")
}

func TestTextQuotesSpacedValues(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf, "INFO", "text", false)

	Info("file uploaded", "name", "report (1).pdf", "folder", "docs")

	out := buf.String()
	assert.Contains(t, out, `name="report (1).pdf"`)
	assert.Contains(t, out, "folder=docs", "plain values stay unquoted")
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf, "WARN", "text", false)

	Debug("debug message")
	Info("info message")
	Warn("warn message")
	Error("error message")

	out := buf.String()
	assert.NotContains(t, out, "debug message")
	assert.NotContains(t, out, "info message")
	assert.Contains(t, out, "warn message")
	assert.Contains(t, out, "error message")
}

func TestSetLevel(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf, "ERROR", "text", false)

	Info("before")
	SetLevel("DEBUG")
	Debug("after")

	out := buf.String()
	assert.NotContains(t, out, "before")
	assert.Contains(t, out, "after")
}

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf, "INFO", "json", false)

	Info("structured", "path", "/data/file.txt")

	line := strings.TrimSpace(buf.String())
	var record map[string]any
	require.NoError(t, json.Unmarshal([]byte(line), &record))
	assert.Equal(t, "structured", record["msg"])
	assert.Equal(t, "/data/file.txt", record["path"])
}

func TestWith(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf, "INFO", "text", false)

	l := With("component", "quota")
	l.Info("recalculated", "bytes", 1024)

	out := buf.String()
	assert.Contains(t, out, "component=quota")
	assert.Contains(t, out, "bytes=1024")
}
