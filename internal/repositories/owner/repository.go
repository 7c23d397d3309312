package owner

import (
	"context"

	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"

	"github.com/PranayGaynarIKF/Address-Book-sub002/pkg/database"
	"github.com/PranayGaynarIKF/Address-Book-sub002/pkg/errs"
	"github.com/PranayGaynarIKF/Address-Book-sub002/pkg/models"
	"github.com/PranayGaynarIKF/Address-Book-sub002/pkg/tracing"
)

const table = "owners"

var columns = []string{"id", "name", "is_active", "created_at", "updated_at"}

// Repository persists owners
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new owner repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Insert writes a new owner row
func (r *Repository) Insert(ctx context.Context, owner *models.Owner) error {
	ctx, span := tracing.StartSpan(ctx, "owner.Repository.Insert")
	defer span.End()

	ib := database.NewInsertBuilder().InsertInto(table).Cols(columns...).
		Values(owner.ID, owner.Name, owner.IsActive, owner.CreatedAt, owner.UpdatedAt)

	query, args := ib.Build()
	if _, err := database.Conn(ctx, r.db).ExecContext(ctx, query, args...); err != nil {
		if database.IsUniqueViolation(err) {
			return errs.Conflict("owner %q already exists", owner.Name)
		}
		r.logger.WithContext(ctx).WithError(err).WithField("owner_name", owner.Name).Error("Failed to insert owner")
		return errs.StorageFailure("failed to insert owner")
	}
	return nil
}

// GetByID returns the owner with the id, or nil when none exists
func (r *Repository) GetByID(ctx context.Context, id string) (*models.Owner, error) {
	ctx, span := tracing.StartSpan(ctx, "owner.Repository.GetByID")
	defer span.End()

	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}

	sb := database.NewSelectBuilder()
	sb.Select(columns...)
	sb.From(table)
	sb.Where(sb.Equal("id", id))
	return r.getOne(ctx, sb)
}

// GetByName returns the owner with the exact name, or nil when none exists
func (r *Repository) GetByName(ctx context.Context, name string) (*models.Owner, error) {
	ctx, span := tracing.StartSpan(ctx, "owner.Repository.GetByName")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select(columns...)
	sb.From(table)
	sb.Where(sb.Equal("name", name))
	return r.getOne(ctx, sb)
}

// List returns every owner ordered by name
func (r *Repository) List(ctx context.Context) ([]models.Owner, error) {
	ctx, span := tracing.StartSpan(ctx, "owner.Repository.List")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select(columns...)
	sb.From(table)
	sb.OrderBy("name ASC")

	query, args := sb.Build()
	owners := []models.Owner{}
	if err := database.Conn(ctx, r.db).SelectContext(ctx, &owners, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list owners")
		return nil, errs.StorageFailure("failed to list owners")
	}
	return owners, nil
}

// Delete removes the owner; contact_owners rows cascade.
func (r *Repository) Delete(ctx context.Context, id string) (bool, error) {
	ctx, span := tracing.StartSpan(ctx, "owner.Repository.Delete")
	defer span.End()

	if _, err := uuid.Parse(id); err != nil {
		return false, nil
	}

	sb := database.NewDeleteBuilder()
	sb.DeleteFrom(table)
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	result, err := database.Conn(ctx, r.db).ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithField("owner_id", id).Error("Failed to delete owner")
		return false, errs.StorageFailure("failed to delete owner")
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, errs.StorageFailure("failed to delete owner")
	}
	return affected > 0, nil
}

func (r *Repository) getOne(ctx context.Context, sb *database.SelectBuilder) (*models.Owner, error) {
	query, args := sb.Build()
	var owner models.Owner
	if err := database.Conn(ctx, r.db).GetContext(ctx, &owner, query, args...); err != nil {
		if database.IsNoRows(err) {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get owner")
		return nil, errs.StorageFailure("failed to get owner")
	}
	return &owner, nil
}
