package logger

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func reset() {
	SetVerbose(false)
	SetFormat("text")
	SetOutput(os.Stderr)
}

func TestSetVerbose(t *testing.T) {
	defer reset()

	SetVerbose(false)
	assert.False(t, IsVerbose())
	SetVerbose(true)
	assert.True(t, IsVerbose())
}

func TestDebug_WhenNotVerbose(t *testing.T) {
	defer reset()

	var buf bytes.Buffer
	SetOutput(&buf)
	SetVerbose(false)

	Debug("hidden")
	Section("Hidden")

	assert.Zero(t, buf.Len())
}

func TestInfo_TextFormat(t *testing.T) {
	defer reset()

	var buf bytes.Buffer
	SetOutput(&buf)

	Info("index built", "chunks", 3)

	assert.Contains(t, buf.String(), "msg=\"index built\"")
	assert.Contains(t, buf.String(), "chunks=3")
}

func TestWarn_JSONFormatMasksSecrets(t *testing.T) {
	defer reset()

	var buf bytes.Buffer
	SetOutput(&buf)
	SetFormat("json")

	Warn("embedder unavailable", "api_key", "sk-1234567890abcdef")

	out := buf.String()
	assert.Contains(t, out, `"level":"WARN"`)
	assert.Contains(t, out, `"api_key":"sk-1***cdef"`)
	assert.NotContains(t, out, "1234567890")
}

func TestSetLevel(t *testing.T) {
	defer reset()

	var buf bytes.Buffer
	SetOutput(&buf)
	SetLevel("error")

	Warn("dropped")
	Error("kept")

	assert.NotContains(t, buf.String(), "dropped")
	assert.Contains(t, buf.String(), "kept")

	SetLevel("nonsense")
	Warn("still dropped")
	assert.NotContains(t, buf.String(), "still dropped")
}

func TestSection_WhenVerbose(t *testing.T) {
	defer reset()

	var buf bytes.Buffer
	SetOutput(&buf)
	SetVerbose(true)

	Section("Indexing")

	assert.Equal(t, "\n=== Indexing ===\n", buf.String())
}
