package auditlog

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordAndRead(t *testing.T) {
	logger := New(filepath.Join(t.TempDir(), "audit.csv"))

	require.NoError(t, logger.Record(Entry{
		CompanyID: 1,
		Actor:     "alice",
		Action:    "transaction.post",
		EntityID:  42,
	}))
	require.NoError(t, logger.Record(Entry{
		CompanyID: 1,
		Actor:     "bob",
		Action:    "account.delete",
		EntityID:  7,
		Detail:    "code=9999, with commas",
	}))

	entries, err := logger.Read()
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "alice", entries[0].Actor)
	assert.Equal(t, "transaction.post", entries[0].Action)
	assert.Equal(t, int64(42), entries[0].EntityID)
	assert.False(t, entries[0].Timestamp.IsZero(), "zero timestamps are stamped at record time")

	assert.Equal(t, "code=9999, with commas", entries[1].Detail)
}

func TestRecordKeepsExplicitTimestamp(t *testing.T) {
	logger := New(filepath.Join(t.TempDir(), "audit.csv"))

	ts := time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, logger.Record(Entry{Timestamp: ts, CompanyID: 1, Actor: "cron", Action: "transaction.create", EntityID: 1}))

	entries, err := logger.Read()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, entries[0].Timestamp.Equal(ts))
}

func TestReadMissingFile(t *testing.T) {
	logger := New(filepath.Join(t.TempDir(), "never-written.csv"))

	entries, err := logger.Read()
	require.NoError(t, err)
	assert.Nil(t, entries)
}

func TestNilLogger(t *testing.T) {
	var logger *Logger

	assert.NoError(t, logger.Record(Entry{CompanyID: 1, Action: "transaction.post"}))
	entries, err := logger.Read()
	assert.NoError(t, err)
	assert.Nil(t, entries)
}
