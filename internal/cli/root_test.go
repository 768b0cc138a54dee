package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func catalogDir(name string) string {
	return filepath.Join("testdata", "catalogs", name)
}

// executeRoot runs the full command tree with args and returns stdout.
func executeRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "groupwire", cmd.Use)
	assert.Contains(t, cmd.Long, "plugin groups")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"compile", "validate", "run", "replay", "test", "history"}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	configFlag := cmd.PersistentFlags().Lookup("config")
	require.NotNil(t, configFlag)
	assert.Equal(t, "c", configFlag.Shorthand)
}

func TestCompileCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	compileCmd, _, err := cmd.Find([]string{"compile"})
	require.NoError(t, err)

	outputFlag := compileCmd.Flags().Lookup("output")
	require.NotNil(t, outputFlag)
	assert.Equal(t, "o", outputFlag.Shorthand)
}

func TestRunAndReplayCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	for _, name := range []string{"run", "replay"} {
		sub, _, err := cmd.Find([]string{name})
		require.NoError(t, err)

		dbFlag := sub.Flags().Lookup("db")
		require.NotNil(t, dbFlag, name)
		assert.Equal(t, "", dbFlag.DefValue)
	}
}

func TestTestCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	testCmd, _, err := cmd.Find([]string{"test"})
	require.NoError(t, err)

	for _, name := range []string{"filter", "golden", "update"} {
		assert.NotNil(t, testCmd.Flags().Lookup(name), name)
	}
}

func TestInvalidFormat(t *testing.T) {
	_, err := executeRoot(t, "--format", "xml", "validate", catalogDir("pipeline"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), `invalid format "xml"`)
}

func TestFormatFromEnvironment(t *testing.T) {
	t.Setenv("GROUPWIRE_FORMAT", "json")

	out, err := executeRoot(t, "validate", catalogDir("pipeline"))
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
}

func TestFlagOverridesEnvironment(t *testing.T) {
	t.Setenv("GROUPWIRE_FORMAT", "json")

	out, err := executeRoot(t, "--format", "text", "validate", catalogDir("pipeline"))
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Catalog valid")
}

func TestFormatFromConfigFile(t *testing.T) {
	config := filepath.Join(t.TempDir(), "groupwire.yaml")
	require.NoError(t, os.WriteFile(config, []byte("format: json\n"), 0644))

	out, err := executeRoot(t, "--config", config, "validate", catalogDir("pipeline"))
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
}

func TestMissingConfigFile(t *testing.T) {
	_, err := executeRoot(t, "--config", filepath.Join(t.TempDir(), "absent.yaml"), "validate", catalogDir("pipeline"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "reading config")
}

func TestDatabaseFromEnvironment(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "env.db")
	t.Setenv("GROUPWIRE_DB", dbPath)

	out, err := executeRoot(t, "run", catalogDir("pipeline"))
	require.NoError(t, err)
	assert.Contains(t, out, "Journaled to "+dbPath)
	assert.FileExists(t, dbPath)
}

func TestIsValidFormat(t *testing.T) {
	assert.True(t, isValidFormat("text"))
	assert.True(t, isValidFormat("json"))
	assert.False(t, isValidFormat("yaml"))
	assert.False(t, isValidFormat(""))
}
