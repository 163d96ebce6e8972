// Package sidecar spawns out-of-process backend adapters and speaks the
// newline-delimited JSON Lines wire protocol to them over stdio: command
// discovery on PATH, process lifecycle, retry with jittered backoff, and a
// client that turns a running sidecar into a source of decoded envelopes.
package sidecar

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// CommandExists reports whether command resolves to an executable file,
// either directly (when it contains a path separator) or by searching PATH.
func CommandExists(command string) bool {
	_, ok := Which(command)
	return ok
}

// Which resolves command to an absolute path. A command containing a path
// separator is checked directly; otherwise every directory on PATH is
// searched in order. Directories are never accepted, only regular files.
func Which(command string) (string, bool) {
	if hasPathComponents(command) {
		if info, err := os.Stat(command); err == nil && !info.IsDir() {
			return command, true
		}
		return "", false
	}

	path, ok := os.LookupEnv("PATH")
	if !ok {
		return "", false
	}
	for _, dir := range filepath.SplitList(path) {
		candidate := filepath.Join(dir, command)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, true
		}
	}
	return "", false
}

func hasPathComponents(command string) bool {
	return strings.ContainsRune(command, os.PathSeparator) || strings.ContainsRune(command, '/')
}

// ResolveCommand picks the command to invoke for a sidecar: an explicit
// override if non-blank and present on PATH, falling back to defaultCommand.
// It reports an error naming which candidate could not be found so a
// caller can surface it instead of a bare "false".
func ResolveCommand(override, defaultCommand string) (string, error) {
	override = strings.TrimSpace(override)
	if override != "" {
		if CommandExists(override) {
			return override, nil
		}
		return "", commandNotFoundError(override)
	}
	if CommandExists(defaultCommand) {
		return defaultCommand, nil
	}
	return "", commandNotFoundError(defaultCommand)
}

// ResolveHostScript finds a sidecar's launcher script. Search order:
// an explicit path, an environment variable override, then a path relative
// to the given root directory (typically the runtime's install location).
func ResolveHostScript(explicit, envVar, root, relative string) (string, error) {
	if explicit != "" {
		if isFile(explicit) {
			return explicit, nil
		}
		return "", hostScriptNotFoundError(explicit)
	}
	if envVar != "" {
		if p := os.Getenv(envVar); p != "" && isFile(p) {
			return p, nil
		}
	}
	candidate := filepath.Join(root, relative)
	if isFile(candidate) {
		return candidate, nil
	}
	return "", hostScriptNotFoundError(relative)
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// LookPath is a thin wrapper kept for callers that prefer exec.LookPath's
// semantics (which also honors Windows PATHEXT); Which above is used where
// the sidecar-specific "directories never match" rule matters.
func LookPath(command string) (string, error) {
	return exec.LookPath(command)
}
