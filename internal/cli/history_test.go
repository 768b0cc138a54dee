package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func executeHistory(t *testing.T, format string, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewHistoryCommand(&RootOptions{Format: format})
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestHistoryListsJournal(t *testing.T) {
	dbPath := journaledPipeline(t)

	out, err := executeHistory(t, "text", "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "     1  add               group-0001 (Importer)\n")
	assert.Contains(t, out, "     2  add               group-0002 (Exporter)\n")
	assert.Contains(t, out, "     4  connect           group-0003 <- group-0002 [table]\n")
	assert.Contains(t, out, "5 operation(s)")
}

func TestHistoryFilters(t *testing.T) {
	dbPath := journaledPipeline(t)

	tests := []struct {
		name string
		args []string
		want []int64
	}{
		{"kind", []string{"--kind", "connect"}, []int64{4, 5}},
		{"group", []string{"--group", "group-0002"}, []int64{2, 4, 5}},
		{"definition", []string{"--definition", "Importer"}, []int64{1, 3}},
		{"contract", []string{"--contract", "table", "--after", "4"}, []int64{5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := executeHistory(t, "json", append([]string{"--db", dbPath}, tt.args...)...)
			require.NoError(t, err)

			var resp struct {
				Data HistoryResult `json:"data"`
			}
			require.NoError(t, json.Unmarshal([]byte(out), &resp))
			got := make([]int64, len(resp.Data.Operations))
			for i, e := range resp.Data.Operations {
				got[i] = e.Seq
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHistoryConnectEntry(t *testing.T) {
	dbPath := journaledPipeline(t)

	out, err := executeHistory(t, "json", "--db", dbPath, "--kind", "connect")
	require.NoError(t, err)

	var resp struct {
		Data HistoryResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data.Operations, 2)
	assert.Equal(t, OperationEntry{
		Seq:      4,
		Kind:     "connect",
		Importer: "group-0003",
		Exporter: "group-0002",
		Contract: "table",
	}, resp.Data.Operations[0])
}

func TestHistoryNoMatches(t *testing.T) {
	dbPath := journaledPipeline(t)

	out, err := executeHistory(t, "text", "--db", dbPath, "--kind", "remove")
	require.NoError(t, err)
	assert.Contains(t, out, "No operations found.")
}

func TestHistoryErrors(t *testing.T) {
	dbPath := journaledPipeline(t)

	_, err := executeHistory(t, "text")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	_, err = executeHistory(t, "text", "--db", dbPath, "--kind", "explode")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), `unknown operation kind "explode"`)

	out, err := executeHistory(t, "text", "--db", filepath.Join(t.TempDir(), "absent.db"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, ErrCodeNotFound)
}
