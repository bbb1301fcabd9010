package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolateEnv points every configured directory into a temporary tree
func isolateEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("DATA_DIR", dir)
	t.Setenv("INPUT_DIR", filepath.Join(dir, "input"))
	t.Setenv("OUTPUT_DIR", filepath.Join(dir, "output"))
	t.Setenv("STORE_DSN", filepath.Join(dir, "vibify.db"))
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("LANGFUSE_ENABLED", "false")
	t.Setenv("TRANSCRIBE_COMMAND", "")
	t.Chdir(dir)
	return dir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRootCmd_Pipeline(t *testing.T) {
	dir := isolateEnv(t)
	audio := writeNotes(t, dir, "piano_notes.json", pianoNotes)
	custom := filepath.Join(dir, "custom")

	out, err := execute(t, "--audio", audio, "--no-api", "-o", custom)
	require.NoError(t, err)

	assert.Contains(t, out, "• Notes detected: 4")
	assert.Contains(t, out, "No API key provided.")
	assert.FileExists(t, filepath.Join(custom, "piano_notes_analysis.json"))
	assert.FileExists(t, filepath.Join(custom, "piano_notes_recommendations.txt"))
}

func TestRootCmd_EnvOverrides(t *testing.T) {
	dir := isolateEnv(t)
	audio := writeNotes(t, dir, "piano_notes.json", pianoNotes)
	t.Setenv("VIBIFY_AUDIO", audio)
	t.Setenv("VIBIFY_NO_API", "true")

	out, err := execute(t)
	require.NoError(t, err)
	assert.Contains(t, out, "🎧 Analyzing: piano_notes.json")
	assert.Contains(t, out, "API disabled - generating prompt only")
}

func TestRootCmd_ConfigFile(t *testing.T) {
	dir := isolateEnv(t)
	audio := writeNotes(t, dir, "piano_notes.json", pianoNotes)
	yamlOut := filepath.Join(dir, "from-yaml")
	cfgFile := filepath.Join(dir, "settings.yaml")
	require.NoError(t, os.WriteFile(cfgFile, []byte("no-api: true\noutput-dir: "+yamlOut+"\n"), 0o644))

	_, err := execute(t, "--config", cfgFile, "--audio", audio)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(yamlOut, "piano_notes_analysis.json"))

	_, err = execute(t, "--config", filepath.Join(dir, "missing.yaml"), "--audio", audio)
	assert.Error(t, err)
}

func TestRootCmd_MissingDefaultInput(t *testing.T) {
	isolateEnv(t)

	out, err := execute(t, "--no-api")
	assert.ErrorIs(t, err, errNoInput)
	assert.Contains(t, out, "Expected: ")
}

func TestSongsCmd(t *testing.T) {
	dir := isolateEnv(t)
	audio := writeNotes(t, dir, "piano_notes.json", pianoNotes)

	_, err := execute(t, "--audio", audio, "--no-api", "--store-vector")
	require.NoError(t, err)

	out, err := execute(t, "songs", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "SONG")
	assert.Contains(t, out, "Piano Notes")

	out, err = execute(t, "songs", "get", "Piano Notes")
	require.NoError(t, err)
	assert.Contains(t, out, `"songName": "Piano Notes"`)
	assert.Contains(t, out, `"noteCount": 4`)

	out, err = execute(t, "songs", "by-tempo", "--min", "0", "--max", "1000")
	require.NoError(t, err)
	assert.Contains(t, out, "Piano Notes")

	out, err = execute(t, "songs", "by-tempo", "--min", "1000", "--max", "2000")
	require.NoError(t, err)
	assert.Contains(t, out, "No songs found")

	_, err = execute(t, "songs", "by-tempo", "--min", "200", "--max", "100")
	assert.Error(t, err)

	out, err = execute(t, "songs", "delete", "Piano Notes")
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted Piano Notes")

	_, err = execute(t, "songs", "get", "Piano Notes")
	assert.Error(t, err)
}

func TestSongsCmd_StoreDisabled(t *testing.T) {
	isolateEnv(t)
	t.Setenv("STORE_ENABLED", "false")

	_, err := execute(t, "songs", "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "vector store is disabled")
}
