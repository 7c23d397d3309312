package mergehistory

import (
	"context"
	"time"

	"github.com/Gobusters/ectolinq"
	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"

	"github.com/PranayGaynarIKF/Address-Book-sub002/pkg/database"
	"github.com/PranayGaynarIKF/Address-Book-sub002/pkg/errs"
	"github.com/PranayGaynarIKF/Address-Book-sub002/pkg/models"
	"github.com/PranayGaynarIKF/Address-Book-sub002/pkg/tracing"
)

const table = "merge_history"

var columns = []string{
	"id", "merge_type", "primary_contact_id", "primary_contact_name", "merged_contact_id", "merged_contact_name",
	"source_system", "source_record_id", "merge_reason", "merge_details", "merged_by", "before_merge_data",
	"after_merge_data", "before_quality_score", "after_quality_score", "involved_source_systems", "merged_at",
}

// Repository is append-only: it never updates or deletes rows.
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new merge history repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Insert appends a merge history record
func (r *Repository) Insert(ctx context.Context, history *models.MergeHistory) error {
	ctx, span := tracing.StartSpan(ctx, "mergehistory.Repository.Insert")
	defer span.End()

	ib := database.NewInsertBuilder().InsertInto(table).Cols(columns...).Values(
		history.ID, history.MergeType, history.PrimaryContactID, history.PrimaryContactName,
		history.MergedContactID, history.MergedContactName, history.SourceSystem, history.SourceRecordID,
		history.MergeReason, history.MergeDetails, history.MergedBy, history.BeforeMergeData,
		history.AfterMergeData, history.BeforeQualityScore, history.AfterQualityScore,
		history.InvolvedSourceSystems, history.MergedAt,
	)

	query, args := ib.Build()
	if _, err := database.Conn(ctx, r.db).ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"merge_type":         history.MergeType,
			"primary_contact_id": history.PrimaryContactID,
		}).Error("Failed to insert merge history")
		return errs.StorageFailure("failed to record merge history")
	}
	return nil
}

// Query returns one page newest first plus the total match count.
func (r *Repository) Query(ctx context.Context, filter models.MergeHistoryFilter) ([]models.MergeHistory, int, error) {
	ctx, span := tracing.StartSpan(ctx, "mergehistory.Repository.Query")
	defer span.End()

	if filter.ContactID != "" {
		if _, err := uuid.Parse(filter.ContactID); err != nil {
			return []models.MergeHistory{}, 0, nil
		}
	}

	conn := database.Conn(ctx, r.db)

	count := database.NewSelectBuilder()
	count.Select("COUNT(*)")
	count.From(table)
	applyFilter(count, filter)

	query, args := count.Build()
	var total int
	if err := conn.GetContext(ctx, &total, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to count merge history")
		return nil, 0, errs.StorageFailure("failed to query merge history")
	}

	sb := database.NewSelectBuilder()
	sb.Select(columns...)
	sb.From(table)
	applyFilter(sb, filter)
	sb.OrderBy("merged_at DESC", "id DESC")
	sb.Limit(filter.Limit)
	sb.Offset((filter.Page - 1) * filter.Limit)

	query, args = sb.Build()
	items := []models.MergeHistory{}
	if err := conn.SelectContext(ctx, &items, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to query merge history")
		return nil, 0, errs.StorageFailure("failed to query merge history")
	}
	return items, total, nil
}

// ForContact returns the newest records naming the contact as primary or merged
func (r *Repository) ForContact(ctx context.Context, contactID string, limit int) ([]models.MergeHistory, error) {
	ctx, span := tracing.StartSpan(ctx, "mergehistory.Repository.ForContact")
	defer span.End()

	if _, err := uuid.Parse(contactID); err != nil {
		return []models.MergeHistory{}, nil
	}

	sb := database.NewSelectBuilder()
	sb.Select(columns...)
	sb.From(table)
	applyFilter(sb, models.MergeHistoryFilter{ContactID: contactID})
	sb.OrderBy("merged_at DESC", "id DESC")
	sb.Limit(limit)

	query, args := sb.Build()
	items := []models.MergeHistory{}
	if err := database.Conn(ctx, r.db).SelectContext(ctx, &items, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithField("contact_id", contactID).Error("Failed to list contact merge history")
		return nil, errs.StorageFailure("failed to list contact merge history")
	}
	return items, nil
}

type group struct {
	Key   string `db:"key"`
	Count int    `db:"count"`
}

// Statistics runs one grouped query per breakdown. Callers wanting a
// consistent view run it inside a repeatable-read transaction.
func (r *Repository) Statistics(ctx context.Context, since time.Time, emailSources []models.SourceSystem) (*models.MergeStatistics, error) {
	ctx, span := tracing.StartSpan(ctx, "mergehistory.Repository.Statistics")
	defer span.End()

	conn := database.Conn(ctx, r.db)
	stats := models.NewMergeStatistics()

	totals := database.NewSelectBuilder()
	totals.Select("COUNT(*)")
	totals.From(table)
	query, args := totals.Build()
	if err := conn.GetContext(ctx, &stats.Total, query, args...); err != nil {
		return nil, r.statsError(ctx, err)
	}

	recent := database.NewSelectBuilder()
	recent.Select("COUNT(*)")
	recent.From(table)
	recent.Where(recent.GTE("merged_at", since))
	query, args = recent.Build()
	if err := conn.GetContext(ctx, &stats.LastSevenDays, query, args...); err != nil {
		return nil, r.statsError(ctx, err)
	}

	byType, err := r.groupBy(ctx, conn, "merge_type", nil)
	if err != nil {
		return nil, err
	}
	for _, g := range byType {
		stats.ByType[models.MergeType(g.Key)] = g.Count
	}

	byReason, err := r.groupBy(ctx, conn, "merge_reason", nil)
	if err != nil {
		return nil, err
	}
	for _, g := range byReason {
		stats.ByReason[models.MergeReason(g.Key)] = g.Count
	}

	bySource, err := r.groupBy(ctx, conn, "source_system", nil)
	if err != nil {
		return nil, err
	}
	for _, g := range bySource {
		stats.BySource[models.SourceSystem(g.Key)] = g.Count
	}

	if len(emailSources) > 0 {
		byEmail, err := r.groupBy(ctx, conn, "source_system", emailSources)
		if err != nil {
			return nil, err
		}
		for _, g := range byEmail {
			stats.EmailOriginBySource[models.SourceSystem(g.Key)] = g.Count
		}
	}

	return stats, nil
}

func (r *Repository) groupBy(ctx context.Context, conn database.Queryer, column string, sources []models.SourceSystem) ([]group, error) {
	sb := database.NewSelectBuilder()
	sb.Select(sb.As(column, "key"), sb.As("COUNT(*)", "count"))
	sb.From(table)
	if len(sources) > 0 {
		sb.Where(sb.In("source_system", sourceArgs(sources)...))
	}
	sb.GroupBy(column)

	query, args := sb.Build()
	groups := []group{}
	if err := conn.SelectContext(ctx, &groups, query, args...); err != nil {
		return nil, r.statsError(ctx, err)
	}
	return groups, nil
}

func (r *Repository) statsError(ctx context.Context, err error) error {
	r.logger.WithContext(ctx).WithError(err).Error("Failed to aggregate merge history")
	return errs.StorageFailure("failed to aggregate merge history")
}

func applyFilter(sb *database.SelectBuilder, f models.MergeHistoryFilter) {
	if f.ContactID != "" {
		sb.Where(sb.Or(sb.Equal("primary_contact_id", f.ContactID), sb.Equal("merged_contact_id", f.ContactID)))
	}
	if f.MergeType != nil {
		sb.Where(sb.Equal("merge_type", *f.MergeType))
	}
	if len(f.SourceSystems) > 0 {
		sb.Where(sb.In("source_system", sourceArgs(f.SourceSystems)...))
	}
	if f.From != nil {
		sb.Where(sb.GTE("merged_at", *f.From))
	}
	if f.To != nil {
		sb.Where(sb.LTE("merged_at", *f.To))
	}
}

func sourceArgs(sources []models.SourceSystem) []any {
	return ectolinq.Map(sources, func(s models.SourceSystem) any { return string(s) })
}
