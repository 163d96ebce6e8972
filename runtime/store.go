package runtime

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/agent-backplane/abp/abperrors"
	"github.com/agent-backplane/abp/contract"
)

// ReceiptStore persists Receipts as pretty-printed JSON files named
// "{run_id}.json" under a root directory.
type ReceiptStore struct {
	root string
}

// NewReceiptStore constructs a store rooted at root. The directory is
// created lazily on first Save.
func NewReceiptStore(root string) *ReceiptStore {
	return &ReceiptStore{root: root}
}

// Save persists receipt to disk, creating the store's root directory if it
// does not already exist, and returns the path written to.
func (s *ReceiptStore) Save(receipt contract.Receipt) (string, error) {
	path := s.receiptPath(receipt.Meta.RunID)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", abperrors.Wrap(abperrors.Internal, "creating receipt store directory", err)
	}
	data, err := json.MarshalIndent(receipt, "", "  ")
	if err != nil {
		return "", abperrors.Wrap(abperrors.Internal, "marshaling receipt", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", abperrors.Wrap(abperrors.Internal, "writing receipt file", err)
	}
	return path, nil
}

// Load reads the receipt stored for runID.
func (s *ReceiptStore) Load(runID uuid.UUID) (contract.Receipt, error) {
	path := s.receiptPath(runID)
	data, err := os.ReadFile(path)
	if err != nil {
		return contract.Receipt{}, abperrors.Wrap(abperrors.Internal, "reading receipt file", err)
	}
	var receipt contract.Receipt
	if err := json.Unmarshal(data, &receipt); err != nil {
		return contract.Receipt{}, abperrors.Wrap(abperrors.Internal, "unmarshaling receipt", err)
	}
	return receipt, nil
}

// List returns the run IDs of every receipt currently stored, sorted by
// string value. An absent store root is treated as an empty store rather
// than an error.
func (s *ReceiptStore) List() ([]uuid.UUID, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, abperrors.Wrap(abperrors.Internal, "reading receipt store directory", err)
	}

	var ids []uuid.UUID
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		stem := strings.TrimSuffix(entry.Name(), ".json")
		id, err := uuid.Parse(stem)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids, nil
}

// Verify loads the receipt stored for runID and reports whether its
// recorded hash matches its recomputed content hash.
func (s *ReceiptStore) Verify(runID uuid.UUID) (bool, error) {
	receipt, err := s.Load(runID)
	if err != nil {
		return false, err
	}
	return contract.VerifyHash(receipt), nil
}

func (s *ReceiptStore) receiptPath(runID uuid.UUID) string {
	return filepath.Join(s.root, runID.String()+".json")
}
