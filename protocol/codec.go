package protocol

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/agent-backplane/abp/abperrors"
	"github.com/agent-backplane/abp/contract"
)

// JsonlCodec encodes and decodes Envelopes as length-delimited JSON Lines:
// one canonical-JSON object per line, terminated by "\n".
type JsonlCodec struct{}

// Encode renders env as canonical JSON followed by a single "\n".
func (JsonlCodec) Encode(env Envelope) (string, error) {
	b, err := contract.CanonicalJSON(env)
	if err != nil {
		return "", abperrors.Wrap(abperrors.ProtocolInvalidEnvelope, "encode envelope", err)
	}
	return string(b) + "\n", nil
}

// Decode trims a trailing newline and parses line as an Envelope.
func (JsonlCodec) Decode(line string) (Envelope, error) {
	trimmed := strings.TrimRight(line, "\n")
	trimmed = strings.TrimSpace(trimmed)
	var env Envelope
	if err := env.UnmarshalJSON([]byte(trimmed)); err != nil {
		return Envelope{}, abperrors.Wrap(abperrors.ProtocolInvalidEnvelope, "decode envelope", err)
	}
	return env, nil
}

// EncodeToWriter writes env's JSONL-encoded form to w.
func (c JsonlCodec) EncodeToWriter(w io.Writer, env Envelope) error {
	line, err := c.Encode(env)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, line)
	return err
}

// EncodeManyToWriter writes each envelope in order to w.
func (c JsonlCodec) EncodeManyToWriter(w io.Writer, envs []Envelope) error {
	for _, env := range envs {
		if err := c.EncodeToWriter(w, env); err != nil {
			return err
		}
	}
	return nil
}

// DecodeStream reads newline-delimited envelopes from r, skipping blank
// lines, and returns one result per non-blank line.
func (c JsonlCodec) DecodeStream(r io.Reader) ([]Result, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), DefaultMaxLineLen)
	var results []Result
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		env, err := c.Decode(line)
		results = append(results, Result{Envelope: env, Err: err})
	}
	if err := scanner.Err(); err != nil {
		return results, fmt.Errorf("protocol: reading envelope stream: %w", err)
	}
	return results, nil
}

// Result pairs a decoded Envelope with a possible decode error, mirroring a
// per-line Result so a caller can distinguish successes from failures
// without aborting the whole stream.
type Result struct {
	Envelope Envelope
	Err      error
}
