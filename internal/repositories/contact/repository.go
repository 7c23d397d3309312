package contact

import (
	"context"
	"fmt"

	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"

	"github.com/PranayGaynarIKF/Address-Book-sub002/pkg/database"
	"github.com/PranayGaynarIKF/Address-Book-sub002/pkg/errs"
	"github.com/PranayGaynarIKF/Address-Book-sub002/pkg/models"
	"github.com/PranayGaynarIKF/Address-Book-sub002/pkg/tracing"
)

const table = "contacts"

var columns = []string{
	"id", "name", "company_name", "email", "mobile", "relationship_type", "source_system",
	"source_record_id", "is_whatsapp_reachable", "data_quality_score", "created_at", "updated_at",
}

// Repository persists contacts in Postgres. The contacts_name_mobile_key
// partial index backs the identity key.
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new contact repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Insert writes a new contact row
func (r *Repository) Insert(ctx context.Context, contact *models.Contact) error {
	ctx, span := tracing.StartSpan(ctx, "contact.Repository.Insert")
	defer span.End()

	ib := database.NewInsertBuilder().InsertInto(table).Cols(columns...).Values(
		contact.ID, contact.Name, contact.CompanyName, contact.Email, contact.Mobile, contact.RelationshipType,
		contact.SourceSystem, contact.SourceRecordID, contact.IsWhatsappReachable, contact.DataQualityScore,
		contact.CreatedAt, contact.UpdatedAt,
	)

	query, args := ib.Build()
	if _, err := database.Conn(ctx, r.db).ExecContext(ctx, query, args...); err != nil {
		return r.writeError(ctx, err, contact, "failed to insert contact")
	}
	return nil
}

// Update overwrites the mutable columns of a contact
func (r *Repository) Update(ctx context.Context, contact *models.Contact) error {
	ctx, span := tracing.StartSpan(ctx, "contact.Repository.Update")
	defer span.End()

	ub := database.NewUpdateBuilder()
	ub.Update(table)
	ub.Set(
		ub.Assign("name", contact.Name),
		ub.Assign("company_name", contact.CompanyName),
		ub.Assign("email", contact.Email),
		ub.Assign("mobile", contact.Mobile),
		ub.Assign("relationship_type", contact.RelationshipType),
		ub.Assign("source_system", contact.SourceSystem),
		ub.Assign("source_record_id", contact.SourceRecordID),
		ub.Assign("is_whatsapp_reachable", contact.IsWhatsappReachable),
		ub.Assign("data_quality_score", contact.DataQualityScore),
		ub.Assign("updated_at", contact.UpdatedAt),
	)
	ub.Where(ub.Equal("id", contact.ID))

	query, args := ub.Build()
	result, err := database.Conn(ctx, r.db).ExecContext(ctx, query, args...)
	if err != nil {
		return r.writeError(ctx, err, contact, "failed to update contact")
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return errs.NotFound("contact %s not found", contact.ID)
	}
	return nil
}

// GetByID locks the row when called inside a transaction, so a concurrent
// update or merge of the same contact waits.
func (r *Repository) GetByID(ctx context.Context, id string) (*models.Contact, error) {
	ctx, span := tracing.StartSpan(ctx, "contact.Repository.GetByID")
	defer span.End()

	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}

	sb := database.NewSelectBuilder()
	sb.Select(columns...)
	sb.From(table)
	sb.Where(sb.Equal("id", id))
	if _, ok := database.TxFromContext(ctx); ok {
		sb.ForUpdate()
	}

	return r.getOne(ctx, sb, "failed to get contact")
}

// FindByIdentity returns the contact holding the name and mobile pair, ignoring excludeID
func (r *Repository) FindByIdentity(ctx context.Context, name, mobile, excludeID string) (*models.Contact, error) {
	ctx, span := tracing.StartSpan(ctx, "contact.Repository.FindByIdentity")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select(columns...)
	sb.From(table)
	sb.Where(sb.Equal("name", name), sb.Equal("mobile", mobile))
	if _, err := uuid.Parse(excludeID); err == nil {
		sb.Where(sb.NotEqual("id", excludeID))
	}
	sb.Limit(1)

	return r.getOne(ctx, sb, "failed to look up contact identity")
}

// Delete removes a contact and reports whether a row was deleted
func (r *Repository) Delete(ctx context.Context, id string) (bool, error) {
	ctx, span := tracing.StartSpan(ctx, "contact.Repository.Delete")
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
		r.logger.WithContext(ctx).WithError(err).WithField("contact_id", id).Error("Failed to delete contact")
		return false, errs.StorageFailure("failed to delete contact")
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, errs.StorageFailure("failed to delete contact")
	}
	return affected > 0, nil
}

// List returns one page ordered newest first, plus the total match count.
func (r *Repository) List(ctx context.Context, filter models.ContactFilter) ([]models.Contact, int, error) {
	ctx, span := tracing.StartSpan(ctx, "contact.Repository.List")
	defer span.End()

	conn := database.Conn(ctx, r.db)

	count := database.NewSelectBuilder()
	count.Select("COUNT(*)")
	count.From(table)
	applyFilter(count, filter)

	query, args := count.Build()
	var total int
	if err := conn.GetContext(ctx, &total, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to count contacts")
		return nil, 0, errs.StorageFailure("failed to list contacts")
	}

	sb := database.NewSelectBuilder()
	sb.Select(columns...)
	sb.From(table)
	applyFilter(sb, filter)
	sb.OrderBy("created_at DESC", "id DESC")
	sb.Limit(filter.Limit)
	sb.Offset((filter.Page - 1) * filter.Limit)

	query, args = sb.Build()
	contacts := []models.Contact{}
	if err := conn.SelectContext(ctx, &contacts, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list contacts")
		return nil, 0, errs.StorageFailure("failed to list contacts")
	}
	return contacts, total, nil
}

func applyFilter(sb *database.SelectBuilder, f models.ContactFilter) {
	if f.Search != "" {
		pattern := database.Contains(f.Search)
		sb.Where(sb.Or(
			sb.ILike("name", pattern),
			sb.ILike("email", pattern),
			sb.ILike("company_name", pattern),
		))
	}
	if f.Company != "" {
		sb.Where(sb.ILike("company_name", database.Contains(f.Company)))
	}
	if f.RelationshipType != nil {
		sb.Where(sb.Equal("relationship_type", *f.RelationshipType))
	}
	if f.IsWhatsappReachable != nil {
		sb.Where(sb.Equal("is_whatsapp_reachable", *f.IsWhatsappReachable))
	}
	if f.MinScore != nil {
		sb.Where(sb.GTE("data_quality_score", *f.MinScore))
	}
	if f.SourceSystem != nil {
		sb.Where(sb.Equal("source_system", *f.SourceSystem))
	}
	if f.OwnerName != "" {
		sb.Where(fmt.Sprintf(
			"EXISTS (SELECT 1 FROM contact_owners co JOIN owners o ON o.id = co.owner_id WHERE co.contact_id = %s.id AND LOWER(o.name) = LOWER(%s))",
			table, sb.Var(f.OwnerName),
		))
	}
}

func (r *Repository) getOne(ctx context.Context, sb *database.SelectBuilder, message string) (*models.Contact, error) {
	query, args := sb.Build()
	var contact models.Contact
	if err := database.Conn(ctx, r.db).GetContext(ctx, &contact, query, args...); err != nil {
		if database.IsNoRows(err) {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).Error(message)
		return nil, errs.StorageFailure("%s", message)
	}
	return &contact, nil
}

func (r *Repository) writeError(ctx context.Context, err error, contact *models.Contact, message string) error {
	if database.IsUniqueViolation(err) {
		mobile := ""
		if contact.Mobile != nil {
			mobile = *contact.Mobile
		}
		return errs.Conflict("contact with name %q and mobile %q already exists", contact.Name, mobile)
	}
	r.logger.WithContext(ctx).WithError(err).WithField("contact_id", contact.ID).Error(message)
	return errs.StorageFailure("%s", message)
}
