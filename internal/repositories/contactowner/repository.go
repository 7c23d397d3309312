package contactowner

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

const table = "contact_owners"

// Repository owns the contact_owners join. Add and Remove report whether a
// row changed instead of failing, so a skipped pair never aborts the
// surrounding transaction.
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new contact owner repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Add links an owner to a contact and reports whether a new row was written
func (r *Repository) Add(ctx context.Context, contactID, ownerID string) (bool, error) {
	ctx, span := tracing.StartSpan(ctx, "contactowner.Repository.Add")
	defer span.End()

	if !validIDs(contactID, ownerID) {
		return false, errs.NotFound("contact %s or owner %s not found", contactID, ownerID)
	}

	ib := database.NewInsertBuilder().InsertInto(table).
		Cols("contact_id", "owner_id", "created_at").
		Values(contactID, ownerID, time.Now().UTC()).
		OnConflictDoNothing()

	query, args := ib.Build()
	return r.exec(ctx, query, args, "failed to add contact owner", contactID, ownerID)
}

// Remove unlinks an owner from a contact and reports whether a row was deleted
func (r *Repository) Remove(ctx context.Context, contactID, ownerID string) (bool, error) {
	ctx, span := tracing.StartSpan(ctx, "contactowner.Repository.Remove")
	defer span.End()

	if !validIDs(contactID, ownerID) {
		return false, nil
	}

	sb := database.NewDeleteBuilder()
	sb.DeleteFrom(table)
	sb.Where(sb.Equal("contact_id", contactID), sb.Equal("owner_id", ownerID))

	query, args := sb.Build()
	return r.exec(ctx, query, args, "failed to remove contact owner", contactID, ownerID)
}

// ListForContact returns the contact's owners ordered by name.
func (r *Repository) ListForContact(ctx context.Context, contactID string) ([]models.Owner, error) {
	ctx, span := tracing.StartSpan(ctx, "contactowner.Repository.ListForContact")
	defer span.End()

	if !validIDs(contactID) {
		return []models.Owner{}, nil
	}

	sb := database.NewSelectBuilder()
	sb.Select("o.id", "o.name", "o.is_active", "o.created_at", "o.updated_at")
	sb.From("owners o")
	sb.Join(table+" co", "co.owner_id = o.id")
	sb.Where(sb.Equal("co.contact_id", contactID))
	sb.OrderBy("o.name ASC")

	query, args := sb.Build()
	owners := []models.Owner{}
	if err := database.Conn(ctx, r.db).SelectContext(ctx, &owners, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithField("contact_id", contactID).Error("Failed to list contact owners")
		return nil, errs.StorageFailure("failed to list contact owners")
	}
	return owners, nil
}

func (r *Repository) exec(ctx context.Context, query string, args []any, message, contactID, ownerID string) (bool, error) {
	result, err := database.Conn(ctx, r.db).ExecContext(ctx, query, args...)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return false, errs.NotFound("contact %s or owner %s not found", contactID, ownerID)
		}
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"contact_id": contactID,
			"owner_id":   ownerID,
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
