// Package ledger records and reports merge history. Rows are append-only;
// nothing here reads or writes contacts.
package ledger

import (
	"context"
	"database/sql"
	"math"
	"strings"
	"time"

	"github.com/Gobusters/ectolinq"
	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/PranayGaynarIKF/Address-Book-sub002/pkg/database"
	"github.com/PranayGaynarIKF/Address-Book-sub002/pkg/errs"
	"github.com/PranayGaynarIKF/Address-Book-sub002/pkg/metrics"
	"github.com/PranayGaynarIKF/Address-Book-sub002/pkg/models"
	"github.com/PranayGaynarIKF/Address-Book-sub002/pkg/tracing"
)

type Store interface {
	Insert(ctx context.Context, history *models.MergeHistory) error
	Query(ctx context.Context, filter models.MergeHistoryFilter) ([]models.MergeHistory, int, error)
	ForContact(ctx context.Context, contactID string, limit int) ([]models.MergeHistory, error)
	// Statistics aggregates every group; since bounds the recent count and
	// emailSources restricts the email-origin breakdown.
	Statistics(ctx context.Context, since time.Time, emailSources []models.SourceSystem) (*models.MergeStatistics, error)
}

// Recorder writes one merge history row.
type Recorder interface {
	Record(ctx context.Context, input models.RecordMergeInput) (*models.MergeHistory, error)
}

const RecentWindow = 7 * 24 * time.Hour

type Config struct {
	SystemActor        string
	EmailSourceSystems []models.SourceSystem
	MaxPageSize        int
	Now                func() time.Time
}

func DefaultConfig() Config {
	return Config{
		SystemActor:        "system",
		EmailSourceSystems: []models.SourceSystem{models.SourceSystemGmail, models.SourceSystemOutlook},
		MaxPageSize:        100,
		Now:                time.Now,
	}
}

type Service struct {
	log   ectologger.Logger
	store Store
	tx    database.TxRunner
	cfg   Config
}

func NewService(log ectologger.Logger, store Store, tx database.TxRunner, cfg Config) *Service {
	defaults := DefaultConfig()
	if cfg.SystemActor == "" {
		cfg.SystemActor = defaults.SystemActor
	}
	if cfg.EmailSourceSystems == nil {
		cfg.EmailSourceSystems = defaults.EmailSourceSystems
	}
	if cfg.MaxPageSize < 1 {
		cfg.MaxPageSize = defaults.MaxPageSize
	}
	if cfg.Now == nil {
		cfg.Now = defaults.Now
	}
	return &Service{log: log, store: store, tx: tx, cfg: cfg}
}

// Record appends a merge history row. It returns the storage error; callers
// that must not fail on ledger errors wrap the service in BestEffort.
func (s *Service) Record(ctx context.Context, input models.RecordMergeInput) (*models.MergeHistory, error) {
	ctx, span := tracing.StartSpan(ctx, "ledger.Service.Record")
	defer span.End()

	if err := validateRecord(input); err != nil {
		return nil, err
	}

	mergedBy := strings.TrimSpace(input.MergedBy)
	if mergedBy == "" {
		mergedBy = s.cfg.SystemActor
	}
	involved := input.InvolvedSourceSystems
	if len(involved) == 0 {
		involved = []models.SourceSystem{input.SourceSystem}
	}

	history := &models.MergeHistory{
		ID:                    uuid.New().String(),
		MergeType:             input.MergeType,
		PrimaryContactID:      input.PrimaryContactID,
		PrimaryContactName:    input.PrimaryContactName,
		MergedContactID:       input.MergedContactID,
		MergedContactName:     input.MergedContactName,
		SourceSystem:          input.SourceSystem,
		SourceRecordID:        input.SourceRecordID,
		MergeReason:           input.MergeReason,
		MergeDetails:          database.NewJSONB(input.MergeDetails),
		MergedBy:              mergedBy,
		BeforeMergeData:       database.NewJSONB(input.BeforeMergeData),
		AfterMergeData:        database.NewJSONB(input.AfterMergeData),
		BeforeQualityScore:    input.BeforeQualityScore,
		AfterQualityScore:     input.AfterQualityScore,
		InvolvedSourceSystems: pq.StringArray(ectolinq.Map(involved, func(s models.SourceSystem) string { return string(s) })),
		MergedAt:              s.cfg.Now().UTC(),
	}

	if err := s.store.Insert(ctx, history); err != nil {
		return nil, err
	}

	metrics.LedgerRecordsTotal.WithLabelValues(string(history.MergeType)).Inc()
	s.log.WithContext(ctx).WithFields(map[string]any{
		"merge_history_id":   history.ID,
		"merge_type":         history.MergeType,
		"merge_reason":       history.MergeReason,
		"primary_contact_id": history.PrimaryContactID,
	}).Info("recorded merge")

	return history, nil
}

// Query lists merge history newest first. EmailOnly narrows the source
// systems to the configured email-origin set, intersected with any explicit
// list.
func (s *Service) Query(ctx context.Context, filter models.MergeHistoryFilter) (*models.Page[models.MergeHistory], error) {
	ctx, span := tracing.StartSpan(ctx, "ledger.Service.Query")
	defer span.End()

	if filter.Page < 1 {
		return nil, errs.InvalidInput("page must be at least 1")
	}
	if filter.Limit < 1 {
		return nil, errs.InvalidInput("limit must be at least 1")
	}
	if filter.Limit > s.cfg.MaxPageSize {
		filter.Limit = s.cfg.MaxPageSize
	}
	if filter.Page-1 > math.MaxInt/filter.Limit {
		return nil, errs.InvalidInput("page %d is out of range", filter.Page)
	}
	if filter.MergeType != nil {
		if _, err := models.ParseMergeType(string(*filter.MergeType)); err != nil {
			return nil, err
		}
	}
	for _, source := range filter.SourceSystems {
		if _, err := models.ParseSourceSystem(string(source)); err != nil {
			return nil, err
		}
	}
	if filter.From != nil && filter.To != nil && filter.From.After(*filter.To) {
		return nil, errs.InvalidInput("from must not be after to")
	}

	empty := &models.Page[models.MergeHistory]{Data: []models.MergeHistory{}, Page: filter.Page, Limit: filter.Limit}
	if filter.EmailOnly {
		filter.SourceSystems = s.emailSources(filter.SourceSystems)
		if len(filter.SourceSystems) == 0 {
			return empty, nil
		}
	}

	items, total, err := s.store.Query(ctx, filter)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []models.MergeHistory{}
	}

	return &models.Page[models.MergeHistory]{
		Data:  items,
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}, nil
}

// Statistics aggregates the whole ledger from a single read snapshot.
func (s *Service) Statistics(ctx context.Context) (*models.MergeStatistics, error) {
	ctx, span := tracing.StartSpan(ctx, "ledger.Service.Statistics")
	defer span.End()

	since := s.cfg.Now().UTC().Add(-RecentWindow)
	opts := &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}

	var stats *models.MergeStatistics
	err := s.tx.RunInTx(ctx, opts, func(ctx context.Context) error {
		var err error
		stats, err = s.store.Statistics(ctx, since, s.cfg.EmailSourceSystems)
		return err
	})
	if err != nil {
		return nil, err
	}

	normalized := models.NewMergeStatistics()
	if stats != nil {
		normalized.Total = stats.Total
		normalized.LastSevenDays = stats.LastSevenDays
		copyCounts(normalized.ByType, stats.ByType)
		copyCounts(normalized.ByReason, stats.ByReason)
		copyCounts(normalized.BySource, stats.BySource)
		copyCounts(normalized.EmailOriginBySource, stats.EmailOriginBySource)
	}
	return normalized, nil
}

// ForContact lists history rows where the contact survived or was merged.
func (s *Service) ForContact(ctx context.Context, contactID string, limit int) ([]models.MergeHistory, error) {
	ctx, span := tracing.StartSpan(ctx, "ledger.Service.ForContact")
	defer span.End()

	if strings.TrimSpace(contactID) == "" {
		return nil, errs.InvalidInput("contact id is required")
	}
	if limit < 1 {
		return nil, errs.InvalidInput("limit must be at least 1")
	}
	if limit > s.cfg.MaxPageSize {
		limit = s.cfg.MaxPageSize
	}

	items, err := s.store.ForContact(ctx, contactID, limit)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []models.MergeHistory{}
	}
	return items, nil
}

func (s *Service) emailSources(requested []models.SourceSystem) []models.SourceSystem {
	if len(requested) == 0 {
		return append([]models.SourceSystem{}, s.cfg.EmailSourceSystems...)
	}
	return ectolinq.Filter(requested, func(source models.SourceSystem) bool {
		return ectolinq.Contains(s.cfg.EmailSourceSystems, source)
	})
}

func validateRecord(input models.RecordMergeInput) error {
	if _, err := models.ParseMergeType(string(input.MergeType)); err != nil {
		return err
	}
	if _, err := models.ParseMergeReason(string(input.MergeReason)); err != nil {
		return err
	}
	if _, err := models.ParseSourceSystem(string(input.SourceSystem)); err != nil {
		return err
	}
	for _, source := range input.InvolvedSourceSystems {
		if _, err := models.ParseSourceSystem(string(source)); err != nil {
			return err
		}
	}
	if strings.TrimSpace(input.PrimaryContactID) == "" {
		return errs.InvalidInput("primary_contact_id is required")
	}
	if strings.TrimSpace(input.PrimaryContactName) == "" {
		return errs.InvalidInput("primary_contact_name is required")
	}
	return nil
}

func copyCounts[K comparable](dst, src map[K]int) {
	for k, v := range src {
		dst[k] = v
	}
}
