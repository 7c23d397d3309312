package tag

import (
	"context"

	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"

	"github.com/PranayGaynarIKF/Address-Book-sub002/pkg/database"
	"github.com/PranayGaynarIKF/Address-Book-sub002/pkg/errs"
	"github.com/PranayGaynarIKF/Address-Book-sub002/pkg/models"
	"github.com/PranayGaynarIKF/Address-Book-sub002/pkg/tracing"
)

const table = "tags"

var columns = []string{"id", "name", "color", "description", "is_active", "created_at", "updated_at"}

// Repository persists tags
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new tag repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Insert writes a new tag row
func (r *Repository) Insert(ctx context.Context, tag *models.Tag) error {
	ctx, span := tracing.StartSpan(ctx, "tag.Repository.Insert")
	defer span.End()

	ib := database.NewInsertBuilder().InsertInto(table).Cols(columns...).
		Values(tag.ID, tag.Name, tag.Color, tag.Description, tag.IsActive, tag.CreatedAt, tag.UpdatedAt)

	query, args := ib.Build()
	if _, err := database.Conn(ctx, r.db).ExecContext(ctx, query, args...); err != nil {
		return r.writeError(ctx, err, tag, "failed to insert tag")
	}
	return nil
}

// Update overwrites the mutable columns of a tag
func (r *Repository) Update(ctx context.Context, tag *models.Tag) error {
	ctx, span := tracing.StartSpan(ctx, "tag.Repository.Update")
	defer span.End()

	ub := database.NewUpdateBuilder()
	ub.Update(table)
	ub.Set(
		ub.Assign("name", tag.Name),
		ub.Assign("color", tag.Color),
		ub.Assign("description", tag.Description),
		ub.Assign("is_active", tag.IsActive),
		ub.Assign("updated_at", tag.UpdatedAt),
	)
	ub.Where(ub.Equal("id", tag.ID))

	query, args := ub.Build()
	result, err := database.Conn(ctx, r.db).ExecContext(ctx, query, args...)
	if err != nil {
		return r.writeError(ctx, err, tag, "failed to update tag")
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return errs.NotFound("tag %s not found", tag.ID)
	}
	return nil
}

// GetByID returns the tag with the id, or nil when none exists
func (r *Repository) GetByID(ctx context.Context, id string) (*models.Tag, error) {
	ctx, span := tracing.StartSpan(ctx, "tag.Repository.GetByID")
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

// GetByName returns the tag with the exact name, or nil when none exists
func (r *Repository) GetByName(ctx context.Context, name string) (*models.Tag, error) {
	ctx, span := tracing.StartSpan(ctx, "tag.Repository.GetByName")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select(columns...)
	sb.From(table)
	sb.Where(sb.Equal("name", name))
	return r.getOne(ctx, sb)
}

// List returns tags ordered by name, skipping inactive ones unless includeInactive is set
func (r *Repository) List(ctx context.Context, includeInactive bool) ([]models.Tag, error) {
	ctx, span := tracing.StartSpan(ctx, "tag.Repository.List")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select(columns...)
	sb.From(table)
	if !includeInactive {
		sb.Where(sb.Equal("is_active", true))
	}
	sb.OrderBy("name ASC")
	return r.getMany(ctx, sb, "failed to list tags")
}

// Delete removes an unreferenced tag. The contact_tags foreign key has no
// cascade, so deleting a referenced tag fails with Conflict.
func (r *Repository) Delete(ctx context.Context, id string) (bool, error) {
	ctx, span := tracing.StartSpan(ctx, "tag.Repository.Delete")
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
		if database.IsForeignKeyViolation(err) {
			return false, errs.Conflict("tag %s is still referenced", id)
		}
		r.logger.WithContext(ctx).WithError(err).WithField("tag_id", id).Error("Failed to delete tag")
		return false, errs.StorageFailure("failed to delete tag")
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, errs.StorageFailure("failed to delete tag")
	}
	return affected > 0, nil
}

// Search matches the query against name and description, case-insensitively.
func (r *Repository) Search(ctx context.Context, query string, limit int) ([]models.Tag, error) {
	ctx, span := tracing.StartSpan(ctx, "tag.Repository.Search")
	defer span.End()

	pattern := database.Contains(query)
	sb := database.NewSelectBuilder()
	sb.Select(columns...)
	sb.From(table)
	sb.Where(sb.Or(sb.ILike("name", pattern), sb.ILike("description", pattern)))
	sb.OrderBy("name ASC")
	sb.Limit(limit)
	return r.getMany(ctx, sb, "failed to search tags")
}

// Popular ranks tags by contact count, ties broken by name.
func (r *Repository) Popular(ctx context.Context, limit int) ([]models.TagUsage, error) {
	ctx, span := tracing.StartSpan(ctx, "tag.Repository.Popular")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select(
		"t.id", "t.name", "t.color", "t.description", "t.is_active", "t.created_at", "t.updated_at",
		sb.As("COUNT(ct.contact_id)", "contact_count"),
	)
	sb.From("tags t")
	sb.JoinWithOption(database.LeftJoin, "contact_tags ct", "ct.tag_id = t.id")
	sb.GroupBy("t.id")
	sb.OrderBy("contact_count DESC", "t.name ASC")
	sb.Limit(limit)

	query, args := sb.Build()
	usage := []models.TagUsage{}
	if err := database.Conn(ctx, r.db).SelectContext(ctx, &usage, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to rank tags")
		return nil, errs.StorageFailure("failed to rank tags")
	}
	return usage, nil
}

func (r *Repository) getOne(ctx context.Context, sb *database.SelectBuilder) (*models.Tag, error) {
	query, args := sb.Build()
	var tag models.Tag
	if err := database.Conn(ctx, r.db).GetContext(ctx, &tag, query, args...); err != nil {
		if database.IsNoRows(err) {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get tag")
		return nil, errs.StorageFailure("failed to get tag")
	}
	return &tag, nil
}

func (r *Repository) getMany(ctx context.Context, sb *database.SelectBuilder, message string) ([]models.Tag, error) {
	query, args := sb.Build()
	tags := []models.Tag{}
	if err := database.Conn(ctx, r.db).SelectContext(ctx, &tags, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error(message)
		return nil, errs.StorageFailure("%s", message)
	}
	return tags, nil
}

func (r *Repository) writeError(ctx context.Context, err error, tag *models.Tag, message string) error {
	if database.IsUniqueViolation(err) {
		return errs.Conflict("tag %q already exists", tag.Name)
	}
	r.logger.WithContext(ctx).WithError(err).WithField("tag_id", tag.ID).Error(message)
	return errs.StorageFailure("%s", message)
}
