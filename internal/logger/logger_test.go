package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captureOutput redirects logger output to a buffer and restores the previous
// writer, level and format on cleanup.
func captureOutput(t *testing.T, lvl, fmtName string) *bytes.Buffer {
	t.Helper()
	buf := new(bytes.Buffer)

	mu.RLock()
	prevOut, prevColor, prevFormat := output, useColor, format
	mu.RUnlock()
	prevLevel := level.Level()

	InitWithWriter(buf, lvl, fmtName, false)

	t.Cleanup(func() {
		level.Set(prevLevel)
		InitWithWriter(prevOut, "", prevFormat, prevColor)
	})
	return buf
}

func TestLevelFiltering(t *testing.T) {
	tests := []struct {
		level   string
		visible []string
		hidden  []string
	}{
		{"DEBUG", []string{"d-msg", "i-msg", "w-msg", "e-msg"}, nil},
		{"INFO", []string{"i-msg", "w-msg", "e-msg"}, []string{"d-msg"}},
		{"WARN", []string{"w-msg", "e-msg"}, []string{"d-msg", "i-msg"}},
		{"ERROR", []string{"e-msg"}, []string{"d-msg", "i-msg", "w-msg"}},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			buf := captureOutput(t, tt.level, "text")

			Debug("d-msg")
			Info("i-msg")
			Warn("w-msg")
			Error("e-msg")

			out := buf.String()
			for _, m := range tt.visible {
				assert.Contains(t, out, m)
			}
			for _, m := range tt.hidden {
				assert.NotContains(t, out, m)
			}
		})
	}
}

func TestSetLevel(t *testing.T) {
	buf := captureOutput(t, "INFO", "text")

	SetLevel("not-a-level")
	assert.Equal(t, slog.LevelInfo, GetLevel())

	SetLevel("debug")
	assert.Equal(t, slog.LevelDebug, GetLevel())
	Debug("now visible")
	assert.Contains(t, buf.String(), "now visible")

	SetLevel("warning")
	assert.Equal(t, slog.LevelWarn, GetLevel())
}

func TestTextFormat(t *testing.T) {
	buf := captureOutput(t, "INFO", "text")

	Info("session accepted", SessionID(7), Client("127.0.0.1:5000"), Filename("my file.txt"))

	line := buf.String()
	assert.Contains(t, line, "[INFO] session accepted")
	assert.Contains(t, line, "session_id=7")
	assert.Contains(t, line, "client=127.0.0.1:5000")
	assert.Contains(t, line, `filename="my file.txt"`)
	assert.True(t, strings.HasSuffix(line, "\n"))
}

func TestTextFormatGroupsAndWith(t *testing.T) {
	buf := captureOutput(t, "INFO", "text")

	With(SessionID(3)).WithGroup("upload").Info("staged", "bytes", 10)

	line := buf.String()
	assert.Contains(t, line, "session_id=3")
	assert.Contains(t, line, "upload.bytes=10")
}

func TestJSONFormat(t *testing.T) {
	buf := captureOutput(t, "INFO", "json")

	Info("download complete", Filename("x.bin"), BytesSent(10))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "download complete", entry["msg"])
	assert.Equal(t, "x.bin", entry["filename"])
	assert.Equal(t, float64(10), entry["bytes_sent"])
}

func TestFormatSwitching(t *testing.T) {
	buf := captureOutput(t, "INFO", "text")

	Info("as text")
	SetFormat("json")
	Info("as json")
	SetFormat("xml")
	Info("still json")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "["))
	assert.True(t, json.Valid([]byte(lines[1])))
	assert.True(t, json.Valid([]byte(lines[2])))
}

func TestContextLogging(t *testing.T) {
	t.Run("InjectsFields", func(t *testing.T) {
		buf := captureOutput(t, "INFO", "json")

		lc := NewLogContext(42, "10.0.0.1:1234").WithMessage("LIST_FILES").WithTrace("abc", "def")
		InfoCtx(WithContext(context.Background(), lc), "handled", "extra", "v")

		var entry map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, float64(42), entry["session_id"])
		assert.Equal(t, "10.0.0.1:1234", entry["client"])
		assert.Equal(t, "LIST_FILES", entry["msg_type"])
		assert.Equal(t, "abc", entry["trace_id"])
		assert.Equal(t, "def", entry["span_id"])
		assert.Equal(t, "v", entry["extra"])
	})

	t.Run("WithoutLogContext", func(t *testing.T) {
		buf := captureOutput(t, "INFO", "text")

		require.NotPanics(t, func() {
			InfoCtx(context.Background(), "plain")
		})
		assert.Contains(t, buf.String(), "plain")
	})

	t.Run("DebugCtxRespectsLevel", func(t *testing.T) {
		buf := captureOutput(t, "INFO", "text")

		DebugCtx(context.Background(), "hidden")
		assert.Empty(t, buf.String())
	})
}

func TestLogContext(t *testing.T) {
	lc := NewLogContext(1, "a:1")
	assert.False(t, lc.StartTime.IsZero())

	scoped := lc.WithMessage("UPLOAD_DATA")
	assert.Equal(t, "UPLOAD_DATA", scoped.MessageType)
	assert.Empty(t, lc.MessageType, "original unchanged")

	var nilCtx *LogContext
	assert.Nil(t, nilCtx.Clone())
	assert.Zero(t, nilCtx.DurationMs())
}

func TestErrAttr(t *testing.T) {
	assert.Equal(t, slog.Attr{}, Err(nil))

	a := Err(errors.New("boom"))
	assert.Equal(t, KeyError, a.Key)
	assert.Equal(t, "boom", a.Value.String())
}

func TestConcurrentLogging(t *testing.T) {
	buf := captureOutput(t, "INFO", "text")

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for range 50 {
				Info("concurrent", SessionID(uint64(n)))
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1000, strings.Count(buf.String(), "\n"))
}

func TestInitFileOutput(t *testing.T) {
	path := t.TempDir() + "/fshare.log"
	captureOutput(t, "INFO", "text")

	require.NoError(t, Init(Config{Level: "INFO", Format: "text", Output: path}))
	t.Cleanup(func() {
		mu.Lock()
		if closer != nil {
			_ = closer.Close()
			closer = nil
		}
		mu.Unlock()
	})

	Info("to file")
}
