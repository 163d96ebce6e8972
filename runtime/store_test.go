package runtime_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agent-backplane/abp/contract"
	"github.com/agent-backplane/abp/runtime"
)

func sampleReceipt(t *testing.T) contract.Receipt {
	t.Helper()
	r := contract.Receipt{
		Meta: contract.RunMetadata{
			RunID:           uuid.New(),
			WorkOrderID:     uuid.New(),
			ContractVersion: contract.ContractVersion,
			StartedAt:       time.Now().UTC(),
			FinishedAt:      time.Now().UTC(),
		},
		Backend: contract.BackendIdentity{ID: "mock"},
		Outcome: contract.OutcomeComplete,
	}
	hashed, err := contract.WithHash(r)
	require.NoError(t, err)
	return hashed
}

func TestReceiptStoreSaveAndLoadRoundTrips(t *testing.T) {
	store := runtime.NewReceiptStore(t.TempDir())
	receipt := sampleReceipt(t)

	path, err := store.Save(receipt)
	require.NoError(t, err)
	assert.Equal(t, receipt.Meta.RunID.String()+".json", filepath.Base(path))

	loaded, err := store.Load(receipt.Meta.RunID)
	require.NoError(t, err)
	assert.Equal(t, receipt.Meta.RunID, loaded.Meta.RunID)
	assert.Equal(t, receipt.Backend.ID, loaded.Backend.ID)
}

func TestReceiptStoreListReturnsSortedIDs(t *testing.T) {
	store := runtime.NewReceiptStore(t.TempDir())
	var ids []uuid.UUID
	for i := 0; i < 3; i++ {
		r := sampleReceipt(t)
		ids = append(ids, r.Meta.RunID)
		_, err := store.Save(r)
		require.NoError(t, err)
	}

	listed, err := store.List()
	require.NoError(t, err)
	assert.Len(t, listed, 3)
	for _, id := range ids {
		assert.Contains(t, listed, id)
	}
	for i := 1; i < len(listed); i++ {
		assert.Less(t, listed[i-1].String(), listed[i].String())
	}
}

func TestReceiptStoreListOnMissingRootIsEmpty(t *testing.T) {
	store := runtime.NewReceiptStore(filepath.Join(t.TempDir(), "does-not-exist"))
	listed, err := store.List()
	require.NoError(t, err)
	assert.Empty(t, listed)
}

func TestReceiptStoreVerifyDetectsValidHash(t *testing.T) {
	store := runtime.NewReceiptStore(t.TempDir())
	receipt := sampleReceipt(t)
	_, err := store.Save(receipt)
	require.NoError(t, err)

	ok, err := store.Verify(receipt.Meta.RunID)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestReceiptStoreVerifyDetectsTamperedHash(t *testing.T) {
	store := runtime.NewReceiptStore(t.TempDir())
	receipt := sampleReceipt(t)
	receipt.Backend.ID = "tampered"
	_, err := store.Save(receipt)
	require.NoError(t, err)

	ok, err := store.Verify(receipt.Meta.RunID)
	require.NoError(t, err)
	assert.False(t, ok)
}
