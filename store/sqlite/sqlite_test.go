package sqlite_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/leave-engine/halfday"
	"github.com/warp/leave-engine/leave"
	"github.com/warp/leave-engine/store/sqlite"
)

func newStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func hd(t *testing.T, token string) halfday.Value {
	t.Helper()
	v, err := halfday.Default.Parse(token)
	require.NoError(t, err)
	return v
}

func sampleResult(t *testing.T) leave.BatchResult {
	t.Helper()
	return leave.BatchResult{
		Rows: 2,
		Segments: []leave.Segment{
			{
				Name: "Asha Rao", HRMSID: "H001", IPASNo: "IP001", Designation: "Clerk",
				LeaveType: "LAP", From: hd(t, "28/09/2025FN"), To: hd(t, "30/09/2025AN"),
				Days: decimal.RequireFromString("3"), Authority: "(E123) Shri Kumar",
			},
			{
				Name: "Asha Rao", HRMSID: "H001", IPASNo: "IP001", Designation: "Clerk",
				LeaveType: "LAP", From: hd(t, "01/10/2025FN"), To: hd(t, "03/10/2025AN"),
				Days: decimal.RequireFromString("3"), Authority: "(E123) Shri Kumar",
			},
		},
		Misses: []leave.RowMiss{
			{Row: 1, Miss: leave.Miss{Stage: leave.MissGroup, Input: "31/11/2025FN-31/11/2025AN", Err: errors.New("malformed date token")}},
		},
	}
}

func TestSaveBatch_GetBatch_RoundTrip(t *testing.T) {
	// GIVEN: A processing result with segments and one miss
	// WHEN: Saving and reloading the batch
	// THEN: Header counts, segment values and miss reasons all survive

	store := newStore(t)
	ctx := context.Background()

	saved, err := store.SaveBatch(ctx, "report.xlsx", "hash-1", sampleResult(t))
	require.NoError(t, err)
	require.NotEmpty(t, saved.ID)
	assert.Equal(t, 2, saved.RowCount)
	assert.Equal(t, 2, saved.SegmentCount)
	assert.Equal(t, 1, saved.MissCount)

	got, err := store.GetBatch(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, "report.xlsx", got.Source)
	assert.Equal(t, "hash-1", got.ContentHash)
	require.Len(t, got.Segments, 2)

	want := sampleResult(t).Segments[0]
	seg := got.Segments[0]
	assert.Equal(t, want.Name, seg.Name)
	assert.Equal(t, want.LeaveType, seg.LeaveType)
	assert.Equal(t, want.From, seg.From, "half-day encoding must round-trip exactly")
	assert.Equal(t, want.To, seg.To)
	assert.True(t, want.Days.Equal(seg.Days), "decimal day count must survive storage")
	assert.Equal(t, want.Authority, seg.Authority)

	require.Len(t, got.Misses, 1)
	assert.Equal(t, 1, got.Misses[0].Row)
	assert.Equal(t, "group", got.Misses[0].Stage)
	assert.Equal(t, "31/11/2025FN-31/11/2025AN", got.Misses[0].Input)
	assert.Equal(t, "malformed date token", got.Misses[0].Reason)
}

func TestGetBatch_Unknown(t *testing.T) {
	store := newStore(t)
	_, err := store.GetBatch(context.Background(), "no-such-id")
	assert.True(t, errors.Is(err, sqlite.ErrNotFound))
}

func TestSaveBatch_EmptyResult(t *testing.T) {
	// A file that parsed to nothing is still a recorded run.
	store := newStore(t)
	ctx := context.Background()

	saved, err := store.SaveBatch(ctx, "empty.csv", "hash-e", leave.BatchResult{Rows: 3})
	require.NoError(t, err)

	got, err := store.GetBatch(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.RowCount)
	assert.Empty(t, got.Segments)
	assert.Empty(t, got.Misses)
}

func TestListBatches_NewestFirst(t *testing.T) {
	// GIVEN: Three saved batches
	// WHEN: Listing with a limit
	// THEN: The most recent come back first, headers only

	store := newStore(t)
	ctx := context.Background()

	first, err := store.SaveBatch(ctx, "a.csv", "h-a", sampleResult(t))
	require.NoError(t, err)
	second, err := store.SaveBatch(ctx, "b.csv", "h-b", sampleResult(t))
	require.NoError(t, err)
	third, err := store.SaveBatch(ctx, "c.csv", "h-c", sampleResult(t))
	require.NoError(t, err)

	batches, err := store.ListBatches(ctx, 2)
	require.NoError(t, err)
	require.Len(t, batches, 2)
	assert.Equal(t, third.ID, batches[0].ID)
	assert.Equal(t, second.ID, batches[1].ID)
	assert.Empty(t, batches[0].Segments, "list returns headers only")

	all, err := store.ListBatches(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, first.ID, all[2].ID)
}

func TestFindByContentHash(t *testing.T) {
	// Re-uploads of the same bytes resolve to the latest stored batch.
	store := newStore(t)
	ctx := context.Background()

	_, err := store.SaveBatch(ctx, "v1.csv", "same-hash", sampleResult(t))
	require.NoError(t, err)
	later, err := store.SaveBatch(ctx, "v2.csv", "same-hash", sampleResult(t))
	require.NoError(t, err)

	found, err := store.FindByContentHash(ctx, "same-hash")
	require.NoError(t, err)
	assert.Equal(t, later.ID, found.ID)

	_, err = store.FindByContentHash(ctx, "unseen-hash")
	assert.True(t, errors.Is(err, sqlite.ErrNotFound))
}

func TestDeleteBatch(t *testing.T) {
	// GIVEN: A stored batch
	// WHEN: Deleting it
	// THEN: It is gone, children cascade, and a second delete reports not found

	store := newStore(t)
	ctx := context.Background()

	saved, err := store.SaveBatch(ctx, "report.xlsx", "h-d", sampleResult(t))
	require.NoError(t, err)

	require.NoError(t, store.DeleteBatch(ctx, saved.ID))

	_, err = store.GetBatch(ctx, saved.ID)
	assert.True(t, errors.Is(err, sqlite.ErrNotFound))

	err = store.DeleteBatch(ctx, saved.ID)
	assert.True(t, errors.Is(err, sqlite.ErrNotFound))
}

func TestDeleteBatchesBefore(t *testing.T) {
	// GIVEN: Three freshly stored batches
	// WHEN: Pruning with a cutoff in the past, then one in the future
	// THEN: The past cutoff removes nothing, the future one removes all three

	store := newStore(t)
	ctx := context.Background()

	for _, source := range []string{"a.csv", "b.csv", "c.csv"} {
		_, err := store.SaveBatch(ctx, source, "hash-"+source, sampleResult(t))
		require.NoError(t, err)
	}

	pruned, err := store.DeleteBatchesBefore(ctx, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Zero(t, pruned, "batches inside the window stay")

	pruned, err = store.DeleteBatchesBefore(ctx, time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 3, pruned)

	remaining, err := store.ListBatches(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, remaining)
}

func TestStore_HalfDayValuesIndependentOfFormat(t *testing.T) {
	// Stored values re-render under any token format at read time.
	store := newStore(t)
	ctx := context.Background()

	saved, err := store.SaveBatch(ctx, "r.csv", "h-f", sampleResult(t))
	require.NoError(t, err)
	got, err := store.GetBatch(ctx, saved.ID)
	require.NoError(t, err)

	us := halfday.TokenFormat{DateLayout: "01/02/2006", Forenoon: "AM", Afternoon: "PM"}
	assert.Equal(t, "09/28/2025", us.FormatDate(got.Segments[0].From))
	assert.Equal(t, "28/09/2025", halfday.Default.FormatDate(got.Segments[0].From))
}
