package corpus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreRejectsDuplicateFundID(t *testing.T) {
	store := NewStore()
	require.NoError(t, store.Add(&FundRecord{FundID: "f1", FundName: "Fund One"}))
	err := store.Add(&FundRecord{FundID: "f1", FundName: "Duplicate"})
	assert.Error(t, err)
}

func TestStoreAllIsSortedByFundID(t *testing.T) {
	store := NewStore()
	require.NoError(t, store.Add(&FundRecord{FundID: "z", FundName: "Z Fund"}))
	require.NoError(t, store.Add(&FundRecord{FundID: "a", FundName: "A Fund"}))
	store.Freeze()

	all := store.All()
	require.Len(t, all, 2)
	assert.Equal(t, "a", all[0].FundID)
	assert.Equal(t, "z", all[1].FundID)
}

func TestStoreRejectsAddAfterFreeze(t *testing.T) {
	store := NewStore()
	store.Freeze()
	err := store.Add(&FundRecord{FundID: "f1", FundName: "Fund One"})
	assert.Error(t, err)
}

func TestFundRecordValidateRejectsInvalidRiskLevel(t *testing.T) {
	f := &FundRecord{FundID: "f1", FundName: "Fund One", RiskLevel: "Extreme"}
	assert.Error(t, f.Validate())
}

func TestFundRecordValidateRejectsOutOfRangeReturn(t *testing.T) {
	r := 1500.0
	f := &FundRecord{FundID: "f1", FundName: "Fund One", Return1Yr: &r}
	assert.Error(t, f.Validate())
}

func TestFundRecordValidateRejectsSectorAllocationOverOne(t *testing.T) {
	f := &FundRecord{
		FundID: "f1", FundName: "Fund One",
		SectorAllocation: []SectorAllocation{{Sector: "Tech", Weight: 0.7}, {Sector: "Finance", Weight: 0.5}},
	}
	assert.Error(t, f.Validate())
}

func TestRiskLevelAdjacentTo(t *testing.T) {
	assert.True(t, RiskLow.AdjacentTo(RiskModerate))
	assert.True(t, RiskHigh.AdjacentTo(RiskModerate))
	assert.False(t, RiskLow.AdjacentTo(RiskHigh))
	assert.False(t, RiskLow.AdjacentTo(RiskLow))
}

func TestGenerationManagerSwapKeepsOldGenerationAliveUntilReleased(t *testing.T) {
	mgr := NewManager()
	g1 := mgr.Publish("gen-1")

	reader := mgr.Acquire()
	require.Equal(t, g1.ID, reader.ID)

	g2 := mgr.Publish("gen-2")
	assert.NotEqual(t, g1.ID, g2.ID)

	// The reader's own acquisition keeps gen-1 alive even though the
	// manager has already swapped to gen-2.
	assert.Equal(t, "gen-1", reader.Payload)
	reader.Release()

	current := mgr.Acquire()
	assert.Equal(t, "gen-2", current.Payload)
	current.Release()
}

func TestGenerationManagerAcquireWithNoPublishReturnsNil(t *testing.T) {
	mgr := NewManager()
	assert.Nil(t, mgr.Acquire())
}

func TestStoreSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store := NewStore()
	require.NoError(t, store.Add(&FundRecord{FundID: "f1", FundName: "Fund One", FundHouse: "SBI"}))
	store.Freeze()

	path := dir + "/funds.json"
	require.NoError(t, store.Save(path))

	loaded, err := LoadStore(path)
	require.NoError(t, err)
	assert.Equal(t, 1, loaded.Len())
	assert.Equal(t, "SBI", loaded.Get("f1").FundHouse)
}
