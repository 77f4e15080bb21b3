package logging_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-library/logging"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		entry := map[string]any{}
		require.NoError(t, json.Unmarshal([]byte(line), &entry), line)
		out = append(out, entry)
	}
	return out
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		level   string
		format  string
		wantErr bool
	}{
		{"json", "info", "json", false},
		{"text", "DEBUG", "text", false},
		{"default format", "warn", "", false},
		{"bad level", "loud", "json", true},
		{"bad format", "info", "xml", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := logging.New(tt.level, tt.format, &bytes.Buffer{})
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, logger)
		})
	}
}

func TestLoggerFields(t *testing.T) {
	buf := &bytes.Buffer{}
	base, err := logging.New("debug", "json", buf)
	require.NoError(t, err)

	logger := logging.Wrap(base)
	logger.Info("account registered", "account_id", "42", "error", errors.New("boom"))
	logger.With("request_id", "abc").Warn("slow", "dangling")
	logger.GetLogger("auth").Debug("resolved")

	lines := decodeLines(t, buf)
	require.Len(t, lines, 3)

	assert.Equal(t, "account registered", lines[0]["msg"])
	assert.Equal(t, "info", lines[0]["level"])
	assert.Equal(t, "42", lines[0]["account_id"])
	assert.Equal(t, "boom", lines[0]["error"])

	assert.Equal(t, "abc", lines[1]["request_id"])
	assert.Equal(t, "(MISSING)", lines[1]["dangling"])

	assert.Equal(t, "auth", lines[2]["logger"])
	assert.Equal(t, "debug", lines[2]["level"])
}

func TestLoggerLevelFilters(t *testing.T) {
	buf := &bytes.Buffer{}
	base, err := logging.New("error", "json", buf)
	require.NoError(t, err)

	logger := logging.Wrap(base)
	logger.Info("hidden")
	logger.Error("shown")

	lines := decodeLines(t, buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "shown", lines[0]["msg"])
}
