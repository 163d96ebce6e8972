package sidecar_test

import (
	"context"
	"io"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agent-backplane/abp/protocol"
	"github.com/agent-backplane/abp/sidecar"
	"github.com/agent-backplane/abp/telemetry"
)

func skipIfNoCat(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("cat"); err != nil {
		t.Skip("cat not available")
	}
}

// An echo sidecar ("cat") reflects every frame written to its stdin back
// on stdout unchanged, which is enough to exercise the JSONL framing
// round-trip without depending on any real backend binary.
func TestProcessSendRecvRoundTripsThroughEchoSidecar(t *testing.T) {
	skipIfNoCat(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	proc, err := sidecar.Spawn(ctx, sidecar.NewProcessSpec("cat"), telemetry.NewNoopLogger())
	require.NoError(t, err)
	defer proc.Kill(time.Second)

	sent := protocol.Envelope{Kind: protocol.Ping{Seq: 42}}
	require.NoError(t, proc.Send(sent))

	received, err := proc.Recv()
	require.NoError(t, err)
	ping, ok := received.Kind.(protocol.Ping)
	require.True(t, ok)
	assert.Equal(t, uint64(42), ping.Seq)
}

func TestProcessRecvReturnsEOFAfterStdinClosed(t *testing.T) {
	skipIfNoCat(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	proc, err := sidecar.Spawn(ctx, sidecar.NewProcessSpec("cat"), telemetry.NewNoopLogger())
	require.NoError(t, err)
	defer proc.Kill(time.Second)

	require.NoError(t, proc.CloseStdin())

	_, err = proc.Recv()
	assert.ErrorIs(t, err, io.EOF)
}

func TestProcessPidIsPositiveAfterSpawn(t *testing.T) {
	skipIfNoCat(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	proc, err := sidecar.Spawn(ctx, sidecar.NewProcessSpec("cat"), telemetry.NewNoopLogger())
	require.NoError(t, err)
	defer proc.Kill(time.Second)

	assert.Greater(t, proc.Pid(), 0)
}

func TestSpawnUnknownCommandErrors(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := sidecar.Spawn(ctx, sidecar.NewProcessSpec("/nonexistent/binary/does-not-exist"), telemetry.NewNoopLogger())
	assert.Error(t, err)
}
