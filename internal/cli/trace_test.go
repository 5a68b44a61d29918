package cli

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reactive-graph/reactive-graph-sub007/internal/journal"
)

func seedJournal(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rgraph.db")
	j, err := journal.Open(path)
	require.NoError(t, err)
	defer j.Close()

	require.NoError(t, j.Append(context.Background(),
		journal.Record{Seq: 1, Owner: "e1", Behaviour: "math::sqrt", From: "created", Target: "connected", Result: "connected", Outcome: journal.OutcomeOK},
		journal.Record{Seq: 2, Owner: "e2", Behaviour: "logical::not", From: "created", Target: "connected", Result: "created", Outcome: journal.OutcomeError, Code: "BEHAVIOUR_INVALID", Error: "lhs missing"},
		journal.Record{Seq: 3, Owner: "e1", Behaviour: "math::sqrt", From: "connected", Target: "disconnected", Result: "disconnected", Outcome: journal.OutcomeOK},
	))
	return path
}

func TestTrace_Text(t *testing.T) {
	db := seedJournal(t)

	out, err := executeRoot(t, "trace", "--db", db)

	require.NoError(t, err)
	assert.Contains(t, out, "SEQ")
	assert.Contains(t, out, "BEHAVIOUR_INVALID")
	assert.Contains(t, out, "3 transitions, 1 errors, 2 owners, 2 behaviours")
}

func TestTrace_JSONWithFilters(t *testing.T) {
	db := seedJournal(t)

	out, err := executeRoot(t, "trace", "--db", db, "--owner", "e1", "--after", "1", "--format", "json")
	require.NoError(t, err)

	var resp struct {
		Status string      `json:"status"`
		Data   TraceResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	require.Len(t, resp.Data.Records, 1)
	assert.Equal(t, int64(3), resp.Data.Records[0].Seq)
	assert.Equal(t, TraceStats{Total: 1, Owners: 1, Behaviours: 1}, resp.Data.Stats)
}

func TestTrace_Limit(t *testing.T) {
	db := seedJournal(t)

	out, err := executeRoot(t, "trace", "--db", db, "--limit", "2", "--format", "json")
	require.NoError(t, err)

	var resp struct {
		Data TraceResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data.Records, 2)
	assert.Equal(t, int64(1), resp.Data.Records[0].Seq)
	assert.Equal(t, int64(2), resp.Data.Records[1].Seq)
}

func TestTrace_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.db")
	j, err := journal.Open(path)
	require.NoError(t, err)
	require.NoError(t, j.Close())

	out, err := executeRoot(t, "trace", "--db", path)

	require.NoError(t, err)
	assert.Contains(t, out, "No transitions recorded.")
}

func TestTrace_MissingDatabaseFlag(t *testing.T) {
	_, err := executeRoot(t, "trace")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")
}

func TestTrace_NonExistentDatabase(t *testing.T) {
	out, err := executeRoot(t, "trace", "--db", "/nonexistent/path/rgraph.db")

	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "journal not found")
}

func TestTrace_NegativeLimit(t *testing.T) {
	db := seedJournal(t)

	_, err := executeRoot(t, "trace", "--db", db, "--limit", "-1")

	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
