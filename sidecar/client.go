package sidecar

import (
	"context"
	"io"
	"time"

	"github.com/agent-backplane/abp/contract"
	"github.com/agent-backplane/abp/protocol"
	"github.com/agent-backplane/abp/telemetry"
)

// Registration describes a sidecar backend that runs through a local
// command: a human-readable name, the backend identity it registers under,
// the launcher script relative to the host root, and a default command to
// invoke that script with (e.g. "node", "python3").
type Registration struct {
	DisplayName        string
	BackendName        string
	HostScriptRelative string
	DefaultCommand     string
}

// Discover resolves both the command and launcher script for reg, honoring
// an optional command override. It reports ok=false (with no error) when
// the sidecar simply isn't available on this host — a normal, non-fatal
// outcome distinct from a misconfiguration error.
func Discover(hostRoot, commandOverride string, reg Registration) (spec ProcessSpec, ok bool, err error) {
	command, resolveErr := ResolveCommand(commandOverride, reg.DefaultCommand)
	if resolveErr != nil {
		if commandOverride != "" {
			return ProcessSpec{}, false, resolveErr
		}
		return ProcessSpec{}, false, nil
	}

	script, scriptErr := ResolveHostScript("", "", hostRoot, reg.HostScriptRelative)
	if scriptErr != nil {
		return ProcessSpec{}, false, nil
	}

	return NewProcessSpec(command).WithArgs(script), true, nil
}

// Client owns a running sidecar Process and exposes the handshake plus a
// decoded stream of envelopes, retrying the spawn itself according to
// policy when the process fails to start.
type Client struct {
	proc   *Process
	policy RetryPolicy
	logger telemetry.Logger
}

// Connect spawns spec under policy, retrying on spawn failure with
// jittered backoff, and returns a connected Client once the process is
// running. It does not perform the protocol handshake; call Handshake next.
func Connect(ctx context.Context, spec ProcessSpec, policy RetryPolicy, logger telemetry.Logger) (*Client, error) {
	var lastErr error
	for attempt := uint32(0); ; attempt++ {
		proc, err := Spawn(ctx, spec, logger)
		if err == nil {
			return &Client{proc: proc, policy: policy, logger: logger}, nil
		}
		lastErr = err
		if !policy.ShouldRetry(attempt) {
			return nil, lastErr
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(policy.ComputeDelay(attempt)):
		}
	}
}

// Handshake sends a Hello envelope and waits for the sidecar's own Hello
// response, returning the backend's declared capability manifest.
func (c *Client) Handshake(hello protocol.Hello) (contract.CapabilityManifest, error) {
	if err := c.proc.Send(protocol.Envelope{Kind: hello}); err != nil {
		return nil, err
	}
	env, err := c.proc.Recv()
	if err != nil {
		return nil, err
	}
	reply, ok := env.Kind.(protocol.Hello)
	if !ok {
		return nil, unexpectedEnvelopeError("hello", env.Kind.Tag())
	}
	return reply.Capabilities, nil
}

// SendRun dispatches a work order to the sidecar under refID.
func (c *Client) SendRun(refID string, wo contract.WorkOrder) error {
	return c.proc.Send(protocol.Envelope{Kind: protocol.Run{ID: refID, WorkOrder: wo}})
}

// SendCancel requests early termination of a run.
func (c *Client) SendCancel(refID, reason string) error {
	return c.proc.Send(protocol.Envelope{Kind: protocol.Cancel{RefID: refID, Reason: reason}})
}

// Events returns a channel of decoded envelopes read from the sidecar's
// stdout until EOF or a read error, at which point the channel is closed.
// Each delivery pairs an envelope with a possible terminal error.
func (c *Client) Events(ctx context.Context) <-chan EnvelopeOrError {
	out := make(chan EnvelopeOrError)
	go func() {
		defer close(out)
		for {
			env, err := c.proc.Recv()
			if err != nil {
				if err != io.EOF {
					select {
					case out <- EnvelopeOrError{Err: err}:
					case <-ctx.Done():
					}
				}
				return
			}
			select {
			case out <- EnvelopeOrError{Envelope: env}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// EnvelopeOrError pairs a decoded Envelope with a possible terminal error,
// mirroring protocol.Result for streaming consumption.
type EnvelopeOrError struct {
	Envelope protocol.Envelope
	Err      error
}

// Close terminates the underlying sidecar process, giving it timeout to
// exit gracefully before force-killing it.
func (c *Client) Close(timeout time.Duration) {
	c.proc.Kill(timeout)
}

// Pid returns the underlying sidecar process's ID.
func (c *Client) Pid() int {
	return c.proc.Pid()
}
