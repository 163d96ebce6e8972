package protocol

import (
	"fmt"
	"time"
)

// MaxBatchSize is the maximum number of envelopes allowed in a single batch.
const MaxBatchSize = 1000

// BatchRequest is a batch of envelopes to process together.
type BatchRequest struct {
	ID        string     `json:"id"`
	Envelopes []Envelope `json:"envelopes"`
	CreatedAt string     `json:"created_at"`
}

// BatchItemStatus is the per-item outcome within a batch.
type BatchItemStatus struct {
	Type   string `json:"type"`
	Error  string `json:"error,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// BatchResult is the outcome for a single envelope within a batch.
type BatchResult struct {
	Index    int              `json:"index"`
	Status   BatchItemStatus  `json:"status"`
	Envelope *Envelope        `json:"envelope,omitempty"`
}

// BatchResponse is the result of processing an entire batch.
type BatchResponse struct {
	RequestID       string        `json:"request_id"`
	Results         []BatchResult `json:"results"`
	TotalDurationMs int64         `json:"total_duration_ms"`
}

// BatchValidationError describes one problem found by ValidateBatch.
type BatchValidationError struct {
	Kind  string
	Index int
	Count int
	Max   int
	Err   string
}

func (e BatchValidationError) Error() string {
	switch e.Kind {
	case "empty_batch":
		return "batch is empty"
	case "too_many_items":
		return fmt.Sprintf("batch has %d items, max is %d", e.Count, e.Max)
	case "invalid_envelope":
		return fmt.Sprintf("envelope at index %d is invalid: %s", e.Index, e.Err)
	default:
		return e.Kind
	}
}

// BatchProcessor processes BatchRequests by encoding each envelope
// independently, so one malformed envelope does not abort the batch.
type BatchProcessor struct {
	codec JsonlCodec
}

// NewBatchProcessor returns a ready-to-use BatchProcessor.
func NewBatchProcessor() *BatchProcessor { return &BatchProcessor{} }

// Process runs every envelope in the batch through the codec, collecting
// per-item results.
func (p *BatchProcessor) Process(req BatchRequest) BatchResponse {
	start := time.Now()
	results := make([]BatchResult, 0, len(req.Envelopes))
	for i, env := range req.Envelopes {
		if _, err := p.codec.Encode(env); err != nil {
			results = append(results, BatchResult{
				Index:  i,
				Status: BatchItemStatus{Type: "failed", Error: err.Error()},
			})
			continue
		}
		envCopy := env
		results = append(results, BatchResult{
			Index:    i,
			Status:   BatchItemStatus{Type: "success"},
			Envelope: &envCopy,
		})
	}
	return BatchResponse{
		RequestID:       req.ID,
		Results:         results,
		TotalDurationMs: time.Since(start).Milliseconds(),
	}
}

// ValidateBatch checks size bounds and per-envelope encodability without
// processing the batch.
func (p *BatchProcessor) ValidateBatch(req BatchRequest) []BatchValidationError {
	var errs []BatchValidationError
	if len(req.Envelopes) == 0 {
		errs = append(errs, BatchValidationError{Kind: "empty_batch"})
	}
	if len(req.Envelopes) > MaxBatchSize {
		errs = append(errs, BatchValidationError{Kind: "too_many_items", Count: len(req.Envelopes), Max: MaxBatchSize})
	}
	for i, env := range req.Envelopes {
		if _, err := p.codec.Encode(env); err != nil {
			errs = append(errs, BatchValidationError{Kind: "invalid_envelope", Index: i, Err: err.Error()})
		}
	}
	return errs
}
