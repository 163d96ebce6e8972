package sidecar

import (
	"fmt"

	"github.com/agent-backplane/abp/abperrors"
)

func commandNotFoundError(command string) error {
	return abperrors.Newf(abperrors.BackendNotFound, "command %q not found on PATH", command).
		WithContext("command", command)
}

func hostScriptNotFoundError(path string) error {
	return abperrors.Newf(abperrors.BackendNotFound, "sidecar host script not found: %s", path).
		WithContext("path", path)
}

func spawnError(command string, cause error) error {
	return abperrors.Wrap(abperrors.BackendCrashed, fmt.Sprintf("spawn %q", command), cause)
}

func ioError(what string, cause error) error {
	return abperrors.Wrap(abperrors.BackendCrashed, what, cause)
}

func unexpectedEnvelopeError(expected, got string) error {
	return abperrors.Newf(abperrors.ProtocolUnexpectedMsg, "expected %q envelope, got %q", expected, got).
		WithContext("expected", expected).
		WithContext("got", got)
}
