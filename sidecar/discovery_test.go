package sidecar_test

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agent-backplane/abp/sidecar"
)

func writeFakeCommand(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\necho hi\n"), 0o755))
	return path
}

func TestWhichRejectsDirectories(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix path semantics")
	}
	dir := t.TempDir()
	fake := filepath.Join(dir, "fakecmd")
	require.NoError(t, os.Mkdir(fake, 0o755))

	_, ok := sidecar.Which(fake)
	assert.False(t, ok)
}

func TestWhichFindsDirectPath(t *testing.T) {
	dir := t.TempDir()
	file := writeFakeCommand(t, dir, "realcmd")

	resolved, ok := sidecar.Which(file)
	assert.True(t, ok)
	assert.Equal(t, file, resolved)
}

func TestCommandExistsFalseForMissing(t *testing.T) {
	assert.False(t, sidecar.CommandExists("/nonexistent/path/that/does/not/exist/binary"))
}

func TestWhichSearchesPath(t *testing.T) {
	dir := t.TempDir()
	file := writeFakeCommand(t, dir, "mytestcmd")

	t.Setenv("PATH", dir+string(os.PathListSeparator)+os.Getenv("PATH"))

	resolved, ok := sidecar.Which("mytestcmd")
	assert.True(t, ok)
	assert.Equal(t, file, resolved)
}

func TestResolveCommandPrefersOverride(t *testing.T) {
	dir := t.TempDir()
	file := writeFakeCommand(t, dir, "override-cmd")

	resolved, err := sidecar.ResolveCommand(file, "node")
	require.NoError(t, err)
	assert.Equal(t, file, resolved)
}

func TestResolveCommandRejectsMissingOverride(t *testing.T) {
	_, err := sidecar.ResolveCommand("/nonexistent/override", "node")
	assert.Error(t, err)
}

func TestResolveCommandFallsBackToDefault(t *testing.T) {
	dir := t.TempDir()
	writeFakeCommand(t, dir, "node")
	t.Setenv("PATH", dir+string(os.PathListSeparator)+os.Getenv("PATH"))

	resolved, err := sidecar.ResolveCommand("", "node")
	require.NoError(t, err)
	assert.Equal(t, "node", resolved)
}

func TestResolveHostScriptExplicitPath(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "host.js")
	require.NoError(t, os.WriteFile(script, []byte("// host"), 0o644))

	resolved, err := sidecar.ResolveHostScript(script, "", "", "")
	require.NoError(t, err)
	assert.Equal(t, script, resolved)
}

func TestResolveHostScriptRootRelative(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "hosts", "claude"), 0o755))
	script := filepath.Join(root, "hosts", "claude", "host.js")
	require.NoError(t, os.WriteFile(script, []byte("// host"), 0o644))

	resolved, err := sidecar.ResolveHostScript("", "", root, filepath.Join("hosts", "claude", "host.js"))
	require.NoError(t, err)
	assert.Equal(t, script, resolved)
}

func TestResolveHostScriptNotFound(t *testing.T) {
	_, err := sidecar.ResolveHostScript("", "", t.TempDir(), "hosts/claude/host.js")
	assert.Error(t, err)
}
