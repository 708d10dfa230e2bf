package logger

import (
	"bytes"
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitWritesAllLevels(t *testing.T) {
	var buf bytes.Buffer
	closer, err := Init(&buf, "")
	require.NoError(t, err)
	defer closer.Close()
	defer Init(os.Stdout, "")

	Info.Println("hello")
	Warn.Println("careful")

	assert.Contains(t, buf.String(), "INFO: ")
	assert.Contains(t, buf.String(), "WARN: ")
}

func TestInitCreatesLogFile(t *testing.T) {
	dir := t.TempDir()
	closer, err := Init(io.Discard, dir)
	require.NoError(t, err)
	defer Init(os.Stdout, "")

	Error.Println("boom")
	require.NoError(t, closer.Close())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestSetLevelProductionDiscardsDebug(t *testing.T) {
	var buf bytes.Buffer
	_, err := Init(&buf, "")
	require.NoError(t, err)
	defer Init(os.Stdout, "")

	SetLevel("production")
	Debug.Println("hidden")
	assert.NotContains(t, buf.String(), "hidden")
}
