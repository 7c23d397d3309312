package ledger_test

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PranayGaynarIKF/Address-Book-sub002/internal/repositories/memory"
	"github.com/PranayGaynarIKF/Address-Book-sub002/internal/testutil"
	"github.com/PranayGaynarIKF/Address-Book-sub002/pkg/errs"
	"github.com/PranayGaynarIKF/Address-Book-sub002/pkg/ledger"
	"github.com/PranayGaynarIKF/Address-Book-sub002/pkg/models"
)

var now = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func ptr[T any](v T) *T { return &v }

func newService(store ledger.Store, runner *memory.Store, clock func() time.Time) *ledger.Service {
	return ledger.NewService(testutil.Logger(), store, runner, ledger.Config{
		SystemActor:        "importer-bot",
		EmailSourceSystems: []models.SourceSystem{models.SourceSystemGmail, models.SourceSystemOutlook},
		MaxPageSize:        100,
		Now:                clock,
	})
}

func record(mergeType models.MergeType, reason models.MergeReason, source models.SourceSystem, primaryID string) models.RecordMergeInput {
	return models.RecordMergeInput{
		MergeType:          mergeType,
		PrimaryContactID:   primaryID,
		PrimaryContactName: "Primary " + primaryID,
		SourceSystem:       source,
		MergeReason:        reason,
		BeforeMergeData:    map[string]any{"email": nil},
		AfterMergeData:     map[string]any{"email": "a@example.com"},
		BeforeQualityScore: ptr(40),
		AfterQualityScore:  ptr(60),
	}
}

func TestRecord_DefaultsAndSnapshots(t *testing.T) {
	store := memory.New()
	svc := newService(store.MergeHistory(), store, func() time.Time { return now })

	history, err := svc.Record(context.Background(), record(models.MergeTypeAutoMerge, models.MergeReasonSamePhone, models.SourceSystemZoho, "c1"))
	require.NoError(t, err)
	assert.Equal(t, "importer-bot", history.MergedBy)
	assert.Equal(t, now, history.MergedAt)
	assert.Equal(t, []string{"ZOHO"}, []string(history.InvolvedSourceSystems))
	assert.Equal(t, "a@example.com", history.AfterMergeData.Data["email"])

	explicit := record(models.MergeTypeManualMerge, models.MergeReasonDuplicateEntry, models.SourceSystemGmail, "c2")
	explicit.MergedBy = "ops@example.com"
	explicit.InvolvedSourceSystems = []models.SourceSystem{models.SourceSystemOutlook, models.SourceSystemGmail}
	history, err = svc.Record(context.Background(), explicit)
	require.NoError(t, err)
	assert.Equal(t, "ops@example.com", history.MergedBy)
	assert.Equal(t, []string{"OUTLOOK", "GMAIL"}, []string(history.InvolvedSourceSystems))
}

func TestRecord_RejectsInvalidEnums(t *testing.T) {
	store := memory.New()
	svc := newService(store.MergeHistory(), store, func() time.Time { return now })

	input := record(models.MergeType("SPLIT"), models.MergeReasonSamePhone, models.SourceSystemZoho, "c1")
	_, err := svc.Record(context.Background(), input)
	assert.True(t, errs.IsInvalidInput(err))
}

type failingStore struct {
	ledger.Store
}

func (failingStore) Insert(context.Context, *models.MergeHistory) error {
	return errs.StorageFailure("database unavailable")
}

func TestBestEffort_SwallowsStorageFailure(t *testing.T) {
	runner := memory.New()
	svc := newService(failingStore{}, runner, func() time.Time { return now })
	recorder := ledger.NewBestEffort(svc, testutil.Logger())

	var history *models.MergeHistory
	assert.NotPanics(t, func() {
		history = recorder.Record(context.Background(), record(models.MergeTypeAutoMerge, models.MergeReasonSamePhone, models.SourceSystemZoho, "c1"))
	})
	assert.Nil(t, history)
}

func TestBestEffort_RunsOutsideCallerTransaction(t *testing.T) {
	store := memory.New()
	svc := newService(store.MergeHistory(), store, func() time.Time { return now })
	recorder := ledger.NewBestEffort(svc, testutil.Logger())

	err := store.RunInTx(context.Background(), nil, func(ctx context.Context) error {
		recorder.Record(ctx, record(models.MergeTypeAutoMerge, models.MergeReasonSamePhone, models.SourceSystemZoho, "c1"))
		return errors.New("caller rolled back")
	})
	require.Error(t, err)

	page, err := svc.Query(context.Background(), models.MergeHistoryFilter{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)
}

func TestStatistics_EmptyLedger(t *testing.T) {
	store := memory.New()
	svc := newService(store.MergeHistory(), store, func() time.Time { return now })

	stats, err := svc.Statistics(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Total)
	assert.Equal(t, 0, stats.LastSevenDays)
	assert.NotNil(t, stats.ByType)
	assert.NotNil(t, stats.ByReason)
	assert.NotNil(t, stats.BySource)
	assert.NotNil(t, stats.EmailOriginBySource)
	assert.Empty(t, stats.ByType)
	assert.Empty(t, stats.EmailOriginBySource)
}

func TestStatistics_Groups(t *testing.T) {
	store := memory.New()
	clock := now.Add(-10 * 24 * time.Hour)
	svc := newService(store.MergeHistory(), store, func() time.Time { return clock })
	ctx := context.Background()

	_, err := svc.Record(ctx, record(models.MergeTypeAutoMerge, models.MergeReasonSamePhone, models.SourceSystemZoho, "old"))
	require.NoError(t, err)

	clock = now.Add(-time.Hour)
	_, err = svc.Record(ctx, record(models.MergeTypeAutoMerge, models.MergeReasonExactMatch, models.SourceSystemGmail, "c1"))
	require.NoError(t, err)
	_, err = svc.Record(ctx, record(models.MergeTypeManualMerge, models.MergeReasonDuplicateEntry, models.SourceSystemGmail, "c2"))
	require.NoError(t, err)
	_, err = svc.Record(ctx, record(models.MergeTypeDeduplication, models.MergeReasonSimilarName, models.SourceSystemOutlook, "c3"))
	require.NoError(t, err)

	clock = now
	stats, err := svc.Statistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, stats.Total)
	assert.Equal(t, 3, stats.LastSevenDays)
	assert.Equal(t, 2, stats.ByType[models.MergeTypeAutoMerge])
	assert.Equal(t, 1, stats.ByType[models.MergeTypeManualMerge])
	assert.Equal(t, 1, stats.ByReason[models.MergeReasonSimilarName])
	assert.Equal(t, 2, stats.BySource[models.SourceSystemGmail])
	assert.Equal(t, map[models.SourceSystem]int{models.SourceSystemGmail: 2, models.SourceSystemOutlook: 1}, stats.EmailOriginBySource)
}

func TestQuery_Filters(t *testing.T) {
	store := memory.New()
	clock := now
	svc := newService(store.MergeHistory(), store, func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	})
	ctx := context.Background()

	first, err := svc.Record(ctx, record(models.MergeTypeAutoMerge, models.MergeReasonSamePhone, models.SourceSystemZoho, "c1"))
	require.NoError(t, err)
	merged := record(models.MergeTypeManualMerge, models.MergeReasonDuplicateEntry, models.SourceSystemGmail, "c2")
	merged.MergedContactID = ptr("c1")
	second, err := svc.Record(ctx, merged)
	require.NoError(t, err)
	third, err := svc.Record(ctx, record(models.MergeTypeAutoMerge, models.MergeReasonExactMatch, models.SourceSystemOutlook, "c3"))
	require.NoError(t, err)

	t.Run("newest first", func(t *testing.T) {
		page, err := svc.Query(ctx, models.MergeHistoryFilter{Page: 1, Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, 3, page.Total)
		assert.Equal(t, []string{third.ID, second.ID, first.ID}, ids(page.Data))
	})

	t.Run("contact in either role", func(t *testing.T) {
		page, err := svc.Query(ctx, models.MergeHistoryFilter{ContactID: "c1", Page: 1, Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, []string{second.ID, first.ID}, ids(page.Data))

		rows, err := svc.ForContact(ctx, "c1", 1)
		require.NoError(t, err)
		assert.Equal(t, []string{second.ID}, ids(rows))
	})

	t.Run("merge type", func(t *testing.T) {
		page, err := svc.Query(ctx, models.MergeHistoryFilter{MergeType: ptr(models.MergeTypeAutoMerge), Page: 1, Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, []string{third.ID, first.ID}, ids(page.Data))
	})

	t.Run("email only", func(t *testing.T) {
		page, err := svc.Query(ctx, models.MergeHistoryFilter{EmailOnly: true, Page: 1, Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, []string{third.ID, second.ID}, ids(page.Data))
	})

	t.Run("email only intersects explicit sources", func(t *testing.T) {
		page, err := svc.Query(ctx, models.MergeHistoryFilter{
			EmailOnly:     true,
			SourceSystems: []models.SourceSystem{models.SourceSystemGmail, models.SourceSystemZoho},
			Page:          1,
			Limit:         10,
		})
		require.NoError(t, err)
		assert.Equal(t, []string{second.ID}, ids(page.Data))

		page, err = svc.Query(ctx, models.MergeHistoryFilter{
			EmailOnly:     true,
			SourceSystems: []models.SourceSystem{models.SourceSystemZoho},
			Page:          1,
			Limit:         10,
		})
		require.NoError(t, err)
		assert.Empty(t, page.Data)
		assert.Equal(t, 0, page.Total)
	})

	t.Run("date range", func(t *testing.T) {
		page, err := svc.Query(ctx, models.MergeHistoryFilter{From: ptr(second.MergedAt), To: ptr(second.MergedAt), Page: 1, Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, []string{second.ID}, ids(page.Data))
	})

	t.Run("snapshots stay structured", func(t *testing.T) {
		page, err := svc.Query(ctx, models.MergeHistoryFilter{ContactID: "c3", Page: 1, Limit: 10})
		require.NoError(t, err)
		require.Len(t, page.Data, 1)
		assert.Equal(t, "a@example.com", page.Data[0].AfterMergeData.Data["email"])
	})

	t.Run("invalid paging", func(t *testing.T) {
		_, err := svc.Query(ctx, models.MergeHistoryFilter{Page: 1, Limit: 0})
		assert.True(t, errs.IsInvalidInput(err))
		_, err = svc.ForContact(ctx, "c1", 0)
		assert.True(t, errs.IsInvalidInput(err))
	})

	t.Run("page whose offset overflows is rejected", func(t *testing.T) {
		_, err := svc.Query(ctx, models.MergeHistoryFilter{Page: math.MaxInt/50 + 2, Limit: 50})
		assert.True(t, errs.IsInvalidInput(err))
	})
}

func ids(items []models.MergeHistory) []string {
	out := make([]string, 0, len(items))
	for _, h := range items {
		out = append(out, h.ID)
	}
	return out
}
