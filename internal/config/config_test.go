package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}

func TestDefault_BuiltInServers(t *testing.T) {
	cfg := Default()

	for _, id := range []string{"go", "typescript", "python", "rust"} {
		def, ok := cfg.Servers[id]
		require.True(t, ok, "expected built-in server %s", id)
		assert.NotEmpty(t, def.Command)
		assert.NotEmpty(t, def.Extensions)
	}
	assert.Equal(t, "gopls", cfg.Servers["go"].Command[0])
}

func TestLoad_ProjectJSON(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "lstalk.json", `{
		"logLevel": "debug",
		"servers": {
			"zig": {"command": ["zls"], "extensions": [".zig"]}
		}
	}`)

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	require.Contains(t, cfg.Servers, "zig")
	assert.Equal(t, "zig", cfg.Servers["zig"].ID)
	assert.Equal(t, []string{"zls"}, cfg.Servers["zig"].Command)

	// Built-ins survive the merge.
	assert.Contains(t, cfg.Servers, "go")
}

func TestLoad_ProjectJSONC(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "lstalk.jsonc", `{
		// comments are fine here
		"trace": "verbose",
		"servers": {
			"go": {"command": ["gopls", "-remote=auto"], "extensions": [".go"]}
		}
	}`)

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "verbose", cfg.Trace)
	assert.Equal(t, []string{"gopls", "-remote=auto"}, cfg.Servers["go"].Command)
}

func TestLoad_ProjectYAML(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "lstalk.yaml", `
logLevel: warn
servers:
  proto:
    command: ["buf", "beta", "lsp"]
    patterns: ["**/*.proto"]
`)

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.LogLevel)
	require.Contains(t, cfg.Servers, "proto")
	assert.Equal(t, []string{"**/*.proto"}, cfg.Servers["proto"].Patterns)
}

func TestLoad_EnvOverrides(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "lstalk.json", `{"logLevel": "info", "trace": "off"}`)
	t.Setenv("LSTALK_LOG_LEVEL", "debug")
	t.Setenv("LSTALK_TRACE", "messages")

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "messages", cfg.Trace)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".env", "LSTALK_LOG_LEVEL=error\n")
	t.Setenv("LSTALK_LOG_LEVEL", "")
	os.Unsetenv("LSTALK_LOG_LEVEL")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "error", cfg.LogLevel)
}

func TestServerFor_Extension(t *testing.T) {
	cfg := Default()

	def := cfg.ServerFor("/work/project/main.go")
	require.NotNil(t, def)
	assert.Equal(t, "go", def.ID)

	def = cfg.ServerFor("C:\\work\\app\\index.tsx")
	require.NotNil(t, def)
	assert.Equal(t, "typescript", def.ID)

	assert.Nil(t, cfg.ServerFor("/work/README"))
	assert.Nil(t, cfg.ServerFor("/work/notes.txt"))
}

func TestServerFor_Pattern(t *testing.T) {
	cfg := Default()
	cfg.Servers["proto"] = &ServerDefinition{
		ID:       "proto",
		Command:  []string{"buf", "beta", "lsp"},
		Patterns: []string{"**/*.proto"},
	}

	def := cfg.ServerFor("/repo/api/v1/service.proto")
	require.NotNil(t, def)
	assert.Equal(t, "proto", def.ID)
}
