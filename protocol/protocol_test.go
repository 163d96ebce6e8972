package protocol_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agent-backplane/abp/contract"
	"github.com/agent-backplane/abp/protocol"
)

func TestEnvelopeRoundTrip(t *testing.T) {
	codec := protocol.JsonlCodec{}
	env := protocol.Envelope{Kind: protocol.NewHello(
		contract.BackendIdentity{ID: "x"},
		contract.NewCapabilityManifest(),
	)}

	line, err := codec.Encode(env)
	require.NoError(t, err)

	decoded, err := codec.Decode(line)
	require.NoError(t, err)
	assert.Equal(t, env.Kind.Tag(), decoded.Kind.Tag())

	line2, err := codec.Encode(decoded)
	require.NoError(t, err)
	assert.Equal(t, line, line2)
}

func TestVersionCompatibility(t *testing.T) {
	assert.True(t, protocol.IsCompatibleVersion("abp/v0.1", "abp/v0.9"))
	assert.False(t, protocol.IsCompatibleVersion("abp/v0.1", "abp/v1.0"))

	maj, min, ok := protocol.ParseVersion("abp/v0.1")
	require.True(t, ok)
	assert.Equal(t, uint64(0), maj)
	assert.Equal(t, uint64(1), min)

	_, _, ok = protocol.ParseVersion("abp/v1.2.3")
	assert.False(t, ok)
}

func TestStreamParserHandlesPartialLines(t *testing.T) {
	codec := protocol.JsonlCodec{}
	env := protocol.Envelope{Kind: protocol.Fatal{Error: "boom"}}
	line, err := codec.Encode(env)
	require.NoError(t, err)

	parser := protocol.NewStreamParser()
	first := []byte(line)[:10]
	second := []byte(line)[10:]

	assert.Empty(t, parser.Push(first))
	results := parser.Push(second)
	require.Len(t, results, 1)
	require.NoError(t, results[0].Err)
	assert.Equal(t, "fatal", results[0].Envelope.Kind.Tag())
}

func TestStreamParserSkipsBlankLines(t *testing.T) {
	codec := protocol.JsonlCodec{}
	line, err := codec.Encode(protocol.Envelope{Kind: protocol.Fatal{Error: "err"}})
	require.NoError(t, err)

	parser := protocol.NewStreamParser()
	results := parser.Push([]byte("\n  \n" + line + "\n\n"))
	require.Len(t, results, 1)
	require.NoError(t, results[0].Err)
}

func TestStreamParserRejectsOverlongLine(t *testing.T) {
	parser := protocol.NewStreamParserWithMaxLineLen(8)
	results := parser.Push([]byte(`{"t":"fatal","error":"too long"}` + "\n"))
	require.Len(t, results, 1)
	assert.Error(t, results[0].Err)
}

func TestDecodeStreamMultiLine(t *testing.T) {
	codec := protocol.JsonlCodec{}
	line1, _ := codec.Encode(protocol.Envelope{Kind: protocol.NewHello(contract.BackendIdentity{ID: "x"}, contract.NewCapabilityManifest())})
	line2, _ := codec.Encode(protocol.Envelope{Kind: protocol.Fatal{Error: "boom"}})

	results, err := codec.DecodeStream(bytes.NewBufferString(line1 + line2))
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "hello", results[0].Envelope.Kind.Tag())
	assert.Equal(t, "fatal", results[1].Envelope.Kind.Tag())
}

func TestBatchProcessor(t *testing.T) {
	proc := protocol.NewBatchProcessor()
	req := protocol.BatchRequest{
		ID: "b1",
		Envelopes: []protocol.Envelope{
			{Kind: protocol.Fatal{Error: "one"}},
			{Kind: protocol.Fatal{Error: "two"}},
		},
	}
	resp := proc.Process(req)
	assert.Len(t, resp.Results, 2)
	for _, r := range resp.Results {
		assert.Equal(t, "success", r.Status.Type)
	}

	errs := proc.ValidateBatch(protocol.BatchRequest{})
	require.Len(t, errs, 1)
	assert.Equal(t, "empty_batch", errs[0].Kind)
}
