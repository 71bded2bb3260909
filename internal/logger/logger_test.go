package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	SetWriter(&buf)
	SetFormat("text")
	SetLevel("WARN")
	t.Cleanup(func() {
		SetLevel("INFO")
		_ = SetOutput("stdout")
	})

	Info("hidden %d", 1)
	Warn("shown %d", 2)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "[WARN] shown 2")
}

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	SetWriter(&buf)
	SetFormat("json")
	SetLevel("debug")
	t.Cleanup(func() {
		SetFormat("text")
		SetLevel("INFO")
		_ = SetOutput("stdout")
	})

	Debug("resolved %s", "/Projects")

	var line map[string]string
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(buf.String())), &line))
	assert.Equal(t, "DEBUG", line["level"])
	assert.Equal(t, "resolved /Projects", line["msg"])
	assert.NotEmpty(t, line["time"])
}

func TestIsDebug(t *testing.T) {
	SetLevel("ERROR")
	assert.False(t, IsDebug())
	SetLevel("DEBUG")
	assert.True(t, IsDebug())
	SetLevel("INFO")
}
