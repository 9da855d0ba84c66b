package logger

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsolatedLoggerWritesJSONLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "llm.log")
	l := NewIsolatedLogger(path)

	l.Info("clinical", "completion received", map[string]interface{}{"chars": 42})
	l.Warn("clinical", "model unavailable", nil)
	_ = l.Sync()

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var entries []map[string]interface{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &entry))
		entries = append(entries, entry)
	}

	require.Len(t, entries, 2)
	assert.Equal(t, "INFO", entries[0]["level"])
	assert.Equal(t, "clinical", entries[0]["module"])
	assert.Equal(t, "completion received", entries[0]["message"])
	assert.Equal(t, float64(42), entries[0]["details"].(map[string]interface{})["chars"])
	assert.Equal(t, "WARN", entries[1]["level"])
}

func TestNopLogger(t *testing.T) {
	var l ILogger = NewNopLogger()
	l.Error("x", "y", map[string]interface{}{"error": "boom"})
	assert.NoError(t, l.Sync())
}
