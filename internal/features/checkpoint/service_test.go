package checkpoint

import (
	"context"
	"errors"
	"testing"
	"time"

	"go-portal-sync/internal/common/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedClock struct {
	t time.Time
}

func (c *fixedClock) now() time.Time { return c.t }

func newTestStore(t *testing.T) (*Store, *fixedClock) {
	t.Helper()
	clock := &fixedClock{t: time.Date(2025, 9, 1, 12, 0, 0, 0, time.UTC)}
	return NewStore(NewMemoryStorage()).WithClock(clock.now), clock
}

func TestCreateAndGetByEitherIdentifier(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	created, err := store.Create(ctx, SyncCheckpoint{ModuleName: "Members", IntegrationName: "crm-members"})
	require.NoError(t, err)
	assert.Equal(t, StatusPending, created.Status)
	assert.Equal(t, DirectionInbound, created.Direction)
	assert.Nil(t, created.LastSyncAt)

	byModule, err := store.Get(ctx, "Members")
	require.NoError(t, err)
	byIntegration, err := store.Get(ctx, "crm-members")
	require.NoError(t, err)
	assert.Equal(t, byModule, byIntegration)
}

func TestCreateRejectsDuplicateIdentifiers(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	_, err := store.Create(ctx, SyncCheckpoint{ModuleName: "Members", IntegrationName: "crm-members"})
	require.NoError(t, err)

	_, err = store.Create(ctx, SyncCheckpoint{ModuleName: "Other", IntegrationName: "crm-members"})
	assert.True(t, errs.IsKind(err, errs.KindAlreadyExists))
	assert.ErrorIs(t, err, errs.ErrAlreadyExists)

	_, err = store.Create(ctx, SyncCheckpoint{IntegrationName: "Members"})
	assert.True(t, errs.IsKind(err, errs.KindAlreadyExists))
}

func TestCreateValidatesInput(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	_, err := store.Create(ctx, SyncCheckpoint{})
	assert.True(t, errs.IsKind(err, errs.KindValidation))

	_, err = store.Create(ctx, SyncCheckpoint{ModuleName: "Members", Direction: "sideways"})
	assert.True(t, errs.IsKind(err, errs.KindValidation))
}

func TestUpdatePreservesLastSyncAtUnlessSupplied(t *testing.T) {
	store, clock := newTestStore(t)
	ctx := context.Background()

	_, err := store.Create(ctx, SyncCheckpoint{ModuleName: "Members"})
	require.NoError(t, err)

	synced := time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)
	success := StatusSuccess
	_, err = store.Update(ctx, "Members", Patch{Status: &success, LastSyncAt: &synced})
	require.NoError(t, err)

	clock.t = clock.t.Add(time.Hour)
	failed := StatusFailed
	updated, err := store.Update(ctx, "Members", Patch{
		Status:   &failed,
		Metadata: map[string]any{"error": "boom"},
	})
	require.NoError(t, err)

	assert.Equal(t, StatusFailed, updated.Status)
	require.NotNil(t, updated.LastSyncAt)
	assert.True(t, synced.Equal(*updated.LastSyncAt))
	assert.Equal(t, clock.t, updated.UpdatedAt)
	assert.Equal(t, "boom", updated.Metadata["error"])
}

func TestUpdateMissingIsNotFound(t *testing.T) {
	store, _ := newTestStore(t)

	status := StatusSuccess
	_, err := store.Update(context.Background(), "Ghost", Patch{Status: &status})
	assert.True(t, errs.IsKind(err, errs.KindNotFound))
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestDelete(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	_, err := store.Create(ctx, SyncCheckpoint{ModuleName: "Members"})
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, "Members"))
	_, err = store.Get(ctx, "Members")
	assert.True(t, errs.IsKind(err, errs.KindNotFound))

	assert.True(t, errs.IsKind(store.Delete(ctx, "Members"), errs.KindNotFound))
}

func TestListFiltersAndResetAll(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	synced := time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)
	success := StatusSuccess
	for _, rec := range []SyncCheckpoint{
		{ModuleName: "Members", Direction: DirectionInbound},
		{ModuleName: "Events", Direction: DirectionOutbound},
		{ModuleName: "Accounts", Direction: DirectionInbound},
	} {
		_, err := store.Create(ctx, rec)
		require.NoError(t, err)
	}
	_, err := store.Update(ctx, "Members", Patch{Status: &success, LastSyncAt: &synced})
	require.NoError(t, err)

	inbound, err := store.List(ctx, ListFilter{Direction: DirectionInbound})
	require.NoError(t, err)
	require.Len(t, inbound, 2)
	assert.Equal(t, "Accounts", inbound[0].Key())
	assert.Equal(t, "Members", inbound[1].Key())

	succeeded, err := store.List(ctx, ListFilter{Status: StatusSuccess})
	require.NoError(t, err)
	require.Len(t, succeeded, 1)

	n, err := store.ResetAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	all, err := store.List(ctx, ListFilter{})
	require.NoError(t, err)
	for _, rec := range all {
		assert.Equal(t, StatusPending, rec.Status)
		assert.Nil(t, rec.LastSyncAt)
	}
}

func TestStats(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	older := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)
	newer := time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)
	success := StatusSuccess
	failed := StatusFailed

	for _, name := range []string{"Members", "Events", "Accounts"} {
		_, err := store.Create(ctx, SyncCheckpoint{ModuleName: name})
		require.NoError(t, err)
	}
	_, err := store.Update(ctx, "Members", Patch{Status: &success, LastSyncAt: &newer})
	require.NoError(t, err)
	_, err = store.Update(ctx, "Events", Patch{Status: &failed, LastSyncAt: &older})
	require.NoError(t, err)

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 1, stats.ByStatus[StatusSuccess])
	assert.Equal(t, 1, stats.ByStatus[StatusFailed])
	assert.Equal(t, 1, stats.ByStatus[StatusPending])
	assert.Equal(t, 1, stats.NeverSynced)
	assert.True(t, older.Equal(*stats.OldestSyncAt))
	assert.True(t, newer.Equal(*stats.NewestSyncAt))
}

type failingStorage struct{}

func (failingStorage) Load(context.Context) (*Document, error) { return nil, errors.New("disk gone") }
func (failingStorage) Save(context.Context, *Document) error   { return errors.New("disk gone") }

func TestStorageFailureIsPersistence(t *testing.T) {
	store := NewStore(failingStorage{})

	_, err := store.Get(context.Background(), "Members")
	assert.True(t, errs.IsKind(err, errs.KindPersistence))
}
