package runner

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureDebugLog(t *testing.T) *bytes.Buffer {
	t.Helper()

	var buf bytes.Buffer

	previous := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { slog.SetDefault(previous) })

	return &buf
}

func TestOutputLog_ForwardsLinesWithSandboxAndPID(t *testing.T) {
	buf := captureDebugLog(t)

	output := newOutputLog("gotest", "sb-1", 64)
	output.setPID(4242)

	_, err := output.Write([]byte("first line\r\nsecond "))
	require.NoError(t, err)
	_, err = output.Write([]byte("line\n"))
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	for _, line := range lines {
		assert.Contains(t, line, "runner=gotest")
		assert.Contains(t, line, "sandbox=sb-1")
		assert.Contains(t, line, "pid=4242")
	}

	assert.Contains(t, lines[0], `line="first line"`)
	assert.Contains(t, lines[1], `line="second line"`)
}

func TestOutputLog_TailKeepsMostRecentBytes(t *testing.T) {
	captureDebugLog(t)

	output := newOutputLog("gotest", "sb-1", 8)

	_, err := output.Write([]byte("0123456789\n"))
	require.NoError(t, err)

	assert.Equal(t, "3456789", output.Tail())
}
