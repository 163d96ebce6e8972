package contract

import (
	"github.com/google/uuid"

	"github.com/agent-backplane/abp/abperrors"
)

// ReceiptChain is an ordered, hash- and order-verified sequence of receipts.
// Each push validates the pushed receipt's stored hash (if any) and its
// chronological position relative to the previous entry.
type ReceiptChain struct {
	receipts []Receipt
	seenIDs  map[uuid.UUID]struct{}
}

// NewReceiptChain returns an empty chain.
func NewReceiptChain() *ReceiptChain {
	return &ReceiptChain{seenIDs: map[uuid.UUID]struct{}{}}
}

// Push validates and appends a receipt to the chain.
func (c *ReceiptChain) Push(r Receipt) error {
	if _, dup := c.seenIDs[r.Meta.RunID]; dup {
		return abperrors.Newf(abperrors.ReceiptChainBroken, "duplicate receipt id: %s", r.Meta.RunID)
	}
	if err := verifyReceiptHashAt(r, len(c.receipts)); err != nil {
		return err
	}
	if n := len(c.receipts); n > 0 && r.Meta.StartedAt.Before(c.receipts[n-1].Meta.StartedAt) {
		return abperrors.Newf(abperrors.ReceiptChainBroken, "broken link at chain index %d", n)
	}
	c.seenIDs[r.Meta.RunID] = struct{}{}
	c.receipts = append(c.receipts, r)
	return nil
}

// Verify checks every receipt's hash and the chain's chronological ordering.
func (c *ReceiptChain) Verify() error {
	if len(c.receipts) == 0 {
		return abperrors.New(abperrors.ReceiptChainBroken, "chain is empty")
	}
	for i, r := range c.receipts {
		if err := verifyReceiptHashAt(r, i); err != nil {
			return err
		}
		if i > 0 && r.Meta.StartedAt.Before(c.receipts[i-1].Meta.StartedAt) {
			return abperrors.Newf(abperrors.ReceiptChainBroken, "broken link at chain index %d", i)
		}
	}
	return nil
}

// Len returns the number of receipts in the chain.
func (c *ReceiptChain) Len() int { return len(c.receipts) }

// Latest returns the most recently pushed receipt, if any.
func (c *ReceiptChain) Latest() (Receipt, bool) {
	if len(c.receipts) == 0 {
		return Receipt{}, false
	}
	return c.receipts[len(c.receipts)-1], true
}

// All returns the receipts in insertion order. The slice is a copy.
func (c *ReceiptChain) All() []Receipt {
	out := make([]Receipt, len(c.receipts))
	copy(out, c.receipts)
	return out
}

func verifyReceiptHashAt(r Receipt, index int) error {
	if r.ReceiptSHA256 == nil {
		return nil
	}
	recomputed, err := ComputeHash(r)
	if err != nil {
		return abperrors.Newf(abperrors.ReceiptChainBroken, "hash mismatch at chain index %d", index)
	}
	if recomputed != *r.ReceiptSHA256 {
		return abperrors.Newf(abperrors.ReceiptChainBroken, "hash mismatch at chain index %d", index)
	}
	return nil
}
