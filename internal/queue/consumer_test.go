package queue

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/course-portal/internal/logging"
)

func TestWriteAuditLine(t *testing.T) {
	at := time.Date(2025, 2, 15, 10, 0, 0, 0, time.UTC)
	body, err := json.Marshal(ChangeEvent{Family: "weeks.comments", Action: ActionCreated, ID: "7", ParentID: "week_1", At: at})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteAuditLine(&buf, body))
	assert.Equal(t, "[2025-02-15T10:00:00Z] weeks.comments created | id=\"7\" | parent_id=\"week_1\"\n", buf.String())
}

func TestWriteAuditLine_Rejects(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, WriteAuditLine(&buf, []byte("{not json")))
	assert.Error(t, WriteAuditLine(&buf, []byte(`{"id":"1"}`)))
	assert.Zero(t, buf.Len())
}

func TestAuditConsumer_HandleMessageAppends(t *testing.T) {
	c := NewAuditConsumer("amqp://unused", "", logging.Discard())
	c.LogPath = filepath.Join(t.TempDir(), "logs", "audit.log")
	assert.Equal(t, DefaultQueue, c.Queue)

	for _, id := range []string{"S1", "S2"} {
		body, err := json.Marshal(ChangeEvent{Family: "users", Action: ActionDeleted, ID: id, At: time.Now()})
		require.NoError(t, err)
		require.NoError(t, c.handleMessage(body))
	}

	data, err := os.ReadFile(c.LogPath)
	require.NoError(t, err)
	assert.Equal(t, 2, bytes.Count(data, []byte("\n")))
	assert.Contains(t, string(data), `users deleted | id="S2"`)
}
