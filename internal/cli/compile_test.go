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

const sampleManifest = `
queries: {
	adults: {
		where: {age: {"$gte": 21}}
		sort: "-age"
	}
	everyone: {}
}
`

func writeManifest(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "queries.cue")
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	return path
}

func TestCompileText(t *testing.T) {
	path := writeManifest(t, sampleManifest)

	buf := &bytes.Buffer{}
	cmd := NewCompileCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{path})

	require.NoError(t, cmd.Execute())

	output := buf.String()
	assert.Contains(t, output, "✓ Compiled 2 query(ies) for table kv_default")
	assert.Contains(t, output, "SELECT kv_default.key FROM kv_default WHERE fl_value(body, 'age') >= 21 ORDER BY fl_value(body, 'age') DESC")
	assert.Contains(t, output, "SELECT kv_default.key FROM kv_default ORDER BY key")
}

func TestCompileJSON(t *testing.T) {
	path := writeManifest(t, sampleManifest)

	buf := &bytes.Buffer{}
	cmd := NewCompileCommand(&RootOptions{Format: "json"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{path})

	require.NoError(t, cmd.Execute())

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
}

func TestCompileOutputFile(t *testing.T) {
	path := writeManifest(t, sampleManifest)
	outPath := filepath.Join(t.TempDir(), "queries.json")

	buf := &bytes.Buffer{}
	cmd := NewCompileCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{path, "--output", outPath})

	require.NoError(t, cmd.Execute())

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)

	var result CompilationResult
	require.NoError(t, json.Unmarshal(data, &result))
	assert.Equal(t, "kv_default", result.Table)
	assert.Len(t, result.Queries, 2)
}

func TestCompileFTSRequirement(t *testing.T) {
	path := writeManifest(t, `
queries: bios: {
	where: {bio: {"$match": "compilers"}}
}
`)

	buf := &bytes.Buffer{}
	cmd := NewCompileCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{path})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), `requires FTS index "kv_default::bio"`)
}

func TestCompileMissingManifest(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewCompileCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"/nonexistent/queries.cue"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, buf.String(), "not found")
}

func TestCompileBadQuery(t *testing.T) {
	path := writeManifest(t, `
queries: broken: {
	where: {age: {"$frobnicate": 1}}
}
`)

	buf := &bytes.Buffer{}
	cmd := NewCompileCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{path})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, buf.String(), "$frobnicate")
}
