package stdlogger_test

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/postdeck/postdeck/internal/logger"
	"github.com/postdeck/postdeck/internal/logger/adapter/stdlogger"
)

func jsonConsole(level string) logger.Log {
	return logger.Log{
		LogLevel:    level,
		AppName:     "test",
		ServiceName: "test",
		Console:     logger.Console{Enabled: true},
	}
}

func TestStdLoggerBecomesEvents(t *testing.T) {
	out := captureOutput(t, jsonConsole("info"), func() {
		l := stdlogger.NewStd(zerolog.ErrorLevel, "cron")
		l.Printf("cron: panic running job: %v", "boom")
		l.Println("second line")

		stdlogger.NewStd(zerolog.DebugLevel, "cron").Print("filtered at info")
	})

	assert.Equal(t, []string{"error", "error"}, decodeLevels(t, out))
	assert.Contains(t, out, `"message":"cron: panic running job: boom"`)
	assert.Contains(t, out, `"component":"cron"`)
	assert.NotContains(t, out, "filtered at info")
}

func TestPrintfUsesConfiguredLevel(t *testing.T) {
	out := captureOutput(t, jsonConsole("debug"), func() {
		stdlogger.NewLevel(zerolog.ErrorLevel, "kafka").Printf("write failed: %d", 3)
	})

	require.Contains(t, out, "write failed: 3")

	var line struct {
		Level     string `json:"level"`
		Component string `json:"component"`
	}
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(out)), &line))
	assert.Equal(t, "error", line.Level)
	assert.Equal(t, "kafka", line.Component)
}

func decodeLevels(t *testing.T, out string) []string {
	t.Helper()

	var levels []string

	for _, raw := range strings.Split(strings.TrimSpace(out), "\n") {
		if raw == "" {
			continue
		}

		var line struct {
			Level string `json:"level"`
		}
		require.NoError(t, json.Unmarshal([]byte(raw), &line))
		levels = append(levels, line.Level)
	}

	return levels
}

func captureOutput(t *testing.T, cfg logger.Log, fn func()) string {
	t.Helper()
	// keep default std out
	stdout := os.Stdout
	stderr := os.Stderr

	r, w, _ := os.Pipe()
	os.Stdout = w
	os.Stderr = w

	err := logger.Init(cfg)
	if err != nil {
		t.Error(err)
	}

	fn()

	outC := make(chan string)
	// copy the output in a separate goroutine so printing can't block indefinitely
	go func() {
		var buf bytes.Buffer
		_, _ = io.Copy(&buf, r)
		outC <- buf.String()
	}()

	_ = w.Close()
	os.Stdout = stdout
	os.Stderr = stderr

	return <-outC
}
