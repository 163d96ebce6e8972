package protocol

import (
	"bytes"
	"unicode/utf8"

	"github.com/agent-backplane/abp/abperrors"
)

// DefaultMaxLineLen is the default maximum line length enforced by
// StreamParser: 16 MiB.
const DefaultMaxLineLen = 16 * 1024 * 1024

// StreamParser incrementally parses Envelopes out of arbitrary byte chunks,
// tolerating lines split across reads, blank lines, and invalid UTF-8 (the
// latter surfaces as a per-line error rather than aborting the parser).
type StreamParser struct {
	buf         []byte
	maxLineLen  int
	codec       JsonlCodec
}

// NewStreamParser returns a parser with the default maximum line length.
func NewStreamParser() *StreamParser {
	return &StreamParser{maxLineLen: DefaultMaxLineLen}
}

// NewStreamParserWithMaxLineLen returns a parser with a custom line length cap.
func NewStreamParserWithMaxLineLen(maxLineLen int) *StreamParser {
	return &StreamParser{maxLineLen: maxLineLen}
}

// Push feeds a chunk of bytes into the parser and returns one Result per
// complete line found in the accumulated buffer (blank lines are skipped).
// Incomplete trailing data is retained until the next call.
func (p *StreamParser) Push(data []byte) []Result {
	p.buf = append(p.buf, data...)
	return p.drainLines()
}

// Finish flushes any remaining buffered data, treating it as a final
// (possibly unterminated) line, and resets the parser.
func (p *StreamParser) Finish() []Result {
	if len(p.buf) > 0 && p.buf[len(p.buf)-1] != '\n' {
		p.buf = append(p.buf, '\n')
	}
	return p.drainLines()
}

// IsEmpty reports whether the internal buffer is empty.
func (p *StreamParser) IsEmpty() bool { return len(p.buf) == 0 }

// BufferedLen returns the number of buffered, not-yet-consumed bytes.
func (p *StreamParser) BufferedLen() int { return len(p.buf) }

// Reset discards any buffered data.
func (p *StreamParser) Reset() { p.buf = p.buf[:0] }

func (p *StreamParser) drainLines() []Result {
	var results []Result
	for {
		idx := bytes.IndexByte(p.buf, '\n')
		if idx < 0 {
			break
		}
		line := p.buf[:idx]
		p.buf = p.buf[idx+1:]

		if len(line) > p.maxLineLen {
			results = append(results, Result{Err: abperrors.Newf(
				abperrors.ProtocolInvalidEnvelope,
				"line length %d exceeds maximum %d", len(line), p.maxLineLen,
			)})
			continue
		}
		if !utf8.Valid(line) {
			results = append(results, Result{Err: abperrors.New(
				abperrors.ProtocolInvalidEnvelope, "invalid UTF-8 in protocol line",
			)})
			continue
		}
		trimmed := bytes.TrimSpace(line)
		if len(trimmed) == 0 {
			continue
		}
		env, err := p.codec.Decode(string(trimmed))
		results = append(results, Result{Envelope: env, Err: err})
	}
	return results
}
