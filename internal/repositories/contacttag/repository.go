package contacttag

import (
	"context"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"

	"github.com/PranayGaynarIKF/Address-Book-sub002/pkg/database"
	"github.com/PranayGaynarIKF/Address-Book-sub002/pkg/errs"
	"github.com/PranayGaynarIKF/Address-Book-sub002/pkg/models"
	"github.com/PranayGaynarIKF/Address-Book-sub002/pkg/tracing"
)

const table = "contact_tags"

// Repository owns the contact_tags join. Add uses ON CONFLICT DO NOTHING and
// reports whether a row was written; bulk operations rely on this to skip
// existing pairs inside one transaction.
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new contact tag repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Add tags a contact and reports whether a new row was written
func (r *Repository) Add(ctx context.Context, contactID, tagID string) (bool, error) {
	ctx, span := tracing.StartSpan(ctx, "contacttag.Repository.Add")
	defer span.End()

	if !validIDs(contactID, tagID) {
		return false, errs.NotFound("contact %s or tag %s not found", contactID, tagID)
	}

	ib := database.NewInsertBuilder().InsertInto(table).
		Cols("contact_id", "tag_id", "created_at").
		Values(contactID, tagID, time.Now().UTC()).
		OnConflictDoNothing()

	query, args := ib.Build()
	return r.exec(ctx, query, args, "failed to add contact tag", contactID, tagID)
}

// Remove untags a contact and reports whether a row was deleted
func (r *Repository) Remove(ctx context.Context, contactID, tagID string) (bool, error) {
	ctx, span := tracing.StartSpan(ctx, "contacttag.Repository.Remove")
	defer span.End()

	if !validIDs(contactID, tagID) {
		return false, nil
	}

	sb := database.NewDeleteBuilder()
	sb.DeleteFrom(table)
	sb.Where(sb.Equal("contact_id", contactID), sb.Equal("tag_id", tagID))

	query, args := sb.Build()
	return r.exec(ctx, query, args, "failed to remove contact tag", contactID, tagID)
}

// ListForContact returns the tags on a contact ordered by name
func (r *Repository) ListForContact(ctx context.Context, contactID string) ([]models.Tag, error) {
	ctx, span := tracing.StartSpan(ctx, "contacttag.Repository.ListForContact")
	defer span.End()

	if !validIDs(contactID) {
		return []models.Tag{}, nil
	}

	sb := database.NewSelectBuilder()
	sb.Select("t.id", "t.name", "t.color", "t.description", "t.is_active", "t.created_at", "t.updated_at")
	sb.From("tags t")
	sb.Join(table+" ct", "ct.tag_id = t.id")
	sb.Where(sb.Equal("ct.contact_id", contactID))
	sb.OrderBy("t.name ASC")

	query, args := sb.Build()
	tags := []models.Tag{}
	if err := database.Conn(ctx, r.db).SelectContext(ctx, &tags, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithField("contact_id", contactID).Error("Failed to list contact tags")
		return nil, errs.StorageFailure("failed to list contact tags")
	}
	return tags, nil
}

// ListContacts returns the contacts carrying the tag ordered by name,
// optionally only those with a non-empty email.
func (r *Repository) ListContacts(ctx context.Context, tagID string, withEmailOnly bool) ([]models.Contact, error) {
	ctx, span := tracing.StartSpan(ctx, "contacttag.Repository.ListContacts")
	defer span.End()

	if !validIDs(tagID) {
		return []models.Contact{}, nil
	}

	sb := database.NewSelectBuilder()
	sb.Select(
		"c.id", "c.name", "c.company_name", "c.email", "c.mobile", "c.relationship_type", "c.source_system",
		"c.source_record_id", "c.is_whatsapp_reachable", "c.data_quality_score", "c.created_at", "c.updated_at",
	)
	sb.From("contacts c")
	sb.Join(table+" ct", "ct.contact_id = c.id")
	sb.Where(sb.Equal("ct.tag_id", tagID))
	if withEmailOnly {
		sb.Where(sb.IsNotNull("c.email"), sb.NotEqual("c.email", ""))
	}
	sb.OrderBy("c.name ASC", "c.id ASC")

	query, args := sb.Build()
	contacts := []models.Contact{}
	if err := database.Conn(ctx, r.db).SelectContext(ctx, &contacts, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithField("tag_id", tagID).Error("Failed to list tagged contacts")
		return nil, errs.StorageFailure("failed to list tagged contacts")
	}
	return contacts, nil
}

// CountContacts returns how many contacts carry the tag
func (r *Repository) CountContacts(ctx context.Context, tagID string) (int, error) {
	ctx, span := tracing.StartSpan(ctx, "contacttag.Repository.CountContacts")
	defer span.End()

	if !validIDs(tagID) {
		return 0, nil
	}

	sb := database.NewSelectBuilder()
	sb.Select("COUNT(*)")
	sb.From(table)
	sb.Where(sb.Equal("tag_id", tagID))

	query, args := sb.Build()
	var count int
	if err := database.Conn(ctx, r.db).GetContext(ctx, &count, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithField("tag_id", tagID).Error("Failed to count tagged contacts")
		return 0, errs.StorageFailure("failed to count tagged contacts")
	}
	return count, nil
}

func (r *Repository) exec(ctx context.Context, query string, args []any, message, contactID, tagID string) (bool, error) {
	result, err := database.Conn(ctx, r.db).ExecContext(ctx, query, args...)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return false, errs.NotFound("contact %s or tag %s not found", contactID, tagID)
		}
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"contact_id": contactID,
			"tag_id":     tagID,
		}).Error(message)
		return false, errs.StorageFailure("%s", message)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, errs.StorageFailure("%s", message)
	}
	return affected > 0, nil
}

// validIDs reports whether every id is a UUID. Malformed ids never match a
// row, so callers treat them as missing instead of sending them to Postgres.
func validIDs(ids ...string) bool {
	for _, id := range ids {
		if _, err := uuid.Parse(id); err != nil {
			return false
		}
	}
	return true
}
