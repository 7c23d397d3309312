// Package contacts owns the canonical contact record: identity key
// enforcement, quality scoring and persistence.
package contacts

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"

	"github.com/PranayGaynarIKF/Address-Book-sub002/pkg/database"
	"github.com/PranayGaynarIKF/Address-Book-sub002/pkg/errs"
	"github.com/PranayGaynarIKF/Address-Book-sub002/pkg/metrics"
	"github.com/PranayGaynarIKF/Address-Book-sub002/pkg/models"
	"github.com/PranayGaynarIKF/Address-Book-sub002/pkg/scoring"
	"github.com/PranayGaynarIKF/Address-Book-sub002/pkg/tracing"
)

// Store persists contacts. Lookups return nil, nil when nothing matches.
type Store interface {
	Insert(ctx context.Context, contact *models.Contact) error
	Update(ctx context.Context, contact *models.Contact) error
	GetByID(ctx context.Context, id string) (*models.Contact, error)
	// FindByIdentity returns a contact with exactly this name and mobile,
	// ignoring excludeID when it is non-empty.
	FindByIdentity(ctx context.Context, name, mobile, excludeID string) (*models.Contact, error)
	Delete(ctx context.Context, id string) (bool, error)
	List(ctx context.Context, filter models.ContactFilter) ([]models.Contact, int, error)
}

// OwnerReader resolves the owners of a contact at read time.
type OwnerReader interface {
	ListForContact(ctx context.Context, contactID string) ([]models.Owner, error)
}

// Config holds the paging limits of the contact service
type Config struct {
	MaxPageSize int
	Now         func() time.Time
}

// DefaultConfig returns the limits used when none are configured
func DefaultConfig() Config {
	return Config{
		MaxPageSize: 100,
		Now:         time.Now,
	}
}

// Service manages contacts and keeps their quality scores current
type Service struct {
	log    ectologger.Logger
	store  Store
	owners OwnerReader
	policy *scoring.Policy
	tx     database.TxRunner
	cfg    Config
}

// NewService creates a new contact service
func NewService(
	log ectologger.Logger,
	store Store,
	owners OwnerReader,
	policy *scoring.Policy,
	tx database.TxRunner,
	cfg Config,
) *Service {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.MaxPageSize < 1 {
		cfg.MaxPageSize = DefaultConfig().MaxPageSize
	}
	return &Service{
		log:    log,
		store:  store,
		owners: owners,
		policy: policy,
		tx:     tx,
		cfg:    cfg,
	}
}

// Policy returns the scoring policy in use
func (s *Service) Policy() *scoring.Policy {
	return s.policy
}

// Create inserts a new contact after checking the identity key. Contacts
// without a mobile are never checked for duplicates.
func (s *Service) Create(ctx context.Context, input models.CreateContactInput) (*models.Contact, error) {
	ctx, span := tracing.StartSpan(ctx, "contacts.Service.Create")
	defer span.End()

	if err := validateCreate(input); err != nil {
		return nil, err
	}

	now := s.cfg.Now().UTC()
	contact := &models.Contact{
		ID:                  uuid.New().String(),
		Name:                input.Name,
		CompanyName:         input.CompanyName,
		Email:               emptyToNil(input.Email),
		Mobile:              emptyToNil(input.Mobile),
		RelationshipType:    input.RelationshipType,
		SourceSystem:        input.SourceSystem,
		SourceRecordID:      input.SourceRecordID,
		IsWhatsappReachable: input.IsWhatsappReachable,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	contact.DataQualityScore = s.policy.ScoreContact(contact)

	err := s.tx.RunInTx(ctx, nil, func(ctx context.Context) error {
		if err := s.ensureIdentityFree(ctx, contact.Name, contact.Mobile, ""); err != nil {
			return err
		}
		return s.store.Insert(ctx, contact)
	})
	if err != nil {
		if errs.IsConflict(err) {
			metrics.DuplicatesRejectedTotal.WithLabelValues("create").Inc()
		}
		return nil, err
	}

	metrics.ContactsCreatedTotal.WithLabelValues(string(contact.SourceSystem)).Inc()
	s.log.WithContext(ctx).WithFields(map[string]any{
		"contact_id":    contact.ID,
		"source_system": contact.SourceSystem,
		"score":         contact.DataQualityScore,
	}).Info("created contact")

	return contact, nil
}

// Update applies a partial update. The identity check and the write share one
// transaction, so a collision leaves the stored row untouched.
func (s *Service) Update(ctx context.Context, id string, input models.UpdateContactInput) (*models.Contact, error) {
	ctx, span := tracing.StartSpan(ctx, "contacts.Service.Update")
	defer span.End()

	if err := validateUpdate(input); err != nil {
		return nil, err
	}

	var updated *models.Contact
	err := s.tx.RunInTx(ctx, nil, func(ctx context.Context) error {
		current, err := s.store.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if current == nil {
			return errs.NotFound("contact %s not found", id)
		}

		next := applyUpdate(*current, input)
		if next.Name != current.Name || !sameString(next.Mobile, current.Mobile) {
			if err := s.ensureIdentityFree(ctx, next.Name, next.Mobile, id); err != nil {
				return err
			}
		}
		if scoringChanged(current, &next) {
			next.DataQualityScore = s.policy.ScoreContact(&next)
		}
		next.UpdatedAt = s.cfg.Now().UTC()

		if err := s.store.Update(ctx, &next); err != nil {
			return err
		}
		updated = &next
		return nil
	})
	if err != nil {
		if errs.IsConflict(err) {
			metrics.DuplicatesRejectedTotal.WithLabelValues("update").Inc()
		}
		return nil, err
	}

	s.log.WithContext(ctx).WithFields(map[string]any{
		"contact_id": updated.ID,
		"score":      updated.DataQualityScore,
	}).Info("updated contact")

	return updated, nil
}

// FindOne returns the contact with its owners resolved.
func (s *Service) FindOne(ctx context.Context, id string) (*models.Contact, error) {
	ctx, span := tracing.StartSpan(ctx, "contacts.Service.FindOne")
	defer span.End()

	contact, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if contact == nil {
		return nil, errs.NotFound("contact %s not found", id)
	}

	owners, err := s.owners.ListForContact(ctx, id)
	if err != nil {
		return nil, err
	}
	contact.Owners = owners

	return contact, nil
}

// Remove hard-deletes a contact. Associations go with it through the store's
// referential rules; no merge history is written.
func (s *Service) Remove(ctx context.Context, id string) error {
	ctx, span := tracing.StartSpan(ctx, "contacts.Service.Remove")
	defer span.End()

	deleted, err := s.store.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return errs.NotFound("contact %s not found", id)
	}

	s.log.WithContext(ctx).WithField("contact_id", id).Info("removed contact")
	return nil
}

// FindAll lists contacts newest first. Page and limit must be positive; a
// limit above the configured maximum is clamped.
func (s *Service) FindAll(ctx context.Context, filter models.ContactFilter) (*models.Page[models.Contact], error) {
	ctx, span := tracing.StartSpan(ctx, "contacts.Service.FindAll")
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
	if filter.RelationshipType != nil {
		if _, err := models.ParseRelationshipType(string(*filter.RelationshipType)); err != nil {
			return nil, err
		}
	}
	if filter.SourceSystem != nil {
		if _, err := models.ParseSourceSystem(string(*filter.SourceSystem)); err != nil {
			return nil, err
		}
	}

	items, total, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []models.Contact{}
	}

	return &models.Page[models.Contact]{
		Data:  items,
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}, nil
}

// Get returns the stored contact without resolving owners, or NotFound.
func (s *Service) Get(ctx context.Context, id string) (*models.Contact, error) {
	contact, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if contact == nil {
		return nil, errs.NotFound("contact %s not found", id)
	}
	return contact, nil
}

// FindByIdentity returns the contact holding (name, mobile), or nil.
func (s *Service) FindByIdentity(ctx context.Context, name, mobile string) (*models.Contact, error) {
	return s.store.FindByIdentity(ctx, name, mobile, "")
}

func (s *Service) ensureIdentityFree(ctx context.Context, name string, mobile *string, excludeID string) error {
	if mobile == nil {
		return nil
	}
	existing, err := s.store.FindByIdentity(ctx, name, *mobile, excludeID)
	if err != nil {
		return err
	}
	if existing != nil {
		return errs.Conflict("contact with name %q and mobile %q already exists", name, *mobile)
	}
	return nil
}

func validateCreate(input models.CreateContactInput) error {
	if strings.TrimSpace(input.Name) == "" {
		return errs.InvalidInput("name is required")
	}
	if strings.TrimSpace(input.CompanyName) == "" {
		return errs.InvalidInput("company_name is required")
	}
	if strings.TrimSpace(input.SourceRecordID) == "" {
		return errs.InvalidInput("source_record_id is required")
	}
	if _, err := models.ParseSourceSystem(string(input.SourceSystem)); err != nil {
		return err
	}
	if input.RelationshipType != nil {
		if _, err := models.ParseRelationshipType(string(*input.RelationshipType)); err != nil {
			return err
		}
	}
	return nil
}

func validateUpdate(input models.UpdateContactInput) error {
	if input.Name != nil && strings.TrimSpace(*input.Name) == "" {
		return errs.InvalidInput("name cannot be empty")
	}
	if input.CompanyName != nil && strings.TrimSpace(*input.CompanyName) == "" {
		return errs.InvalidInput("company_name cannot be empty")
	}
	if input.SourceRecordID != nil && strings.TrimSpace(*input.SourceRecordID) == "" {
		return errs.InvalidInput("source_record_id cannot be empty")
	}
	if input.SourceSystem != nil {
		if _, err := models.ParseSourceSystem(string(*input.SourceSystem)); err != nil {
			return err
		}
	}
	if input.RelationshipType.Value != nil && *input.RelationshipType.Value != "" {
		if _, err := models.ParseRelationshipType(string(*input.RelationshipType.Value)); err != nil {
			return err
		}
	}
	return nil
}

func applyUpdate(c models.Contact, input models.UpdateContactInput) models.Contact {
	if input.Name != nil {
		c.Name = *input.Name
	}
	if input.CompanyName != nil {
		c.CompanyName = *input.CompanyName
	}
	if input.Email.Set {
		c.Email = emptyToNil(input.Email.Value)
	}
	if input.Mobile.Set {
		c.Mobile = emptyToNil(input.Mobile.Value)
	}
	if input.RelationshipType.Set {
		c.RelationshipType = nil
		if v := input.RelationshipType.Value; v != nil && *v != "" {
			rt := *v
			c.RelationshipType = &rt
		}
	}
	if input.SourceSystem != nil {
		c.SourceSystem = *input.SourceSystem
	}
	if input.SourceRecordID != nil {
		c.SourceRecordID = *input.SourceRecordID
	}
	if input.IsWhatsappReachable != nil {
		c.IsWhatsappReachable = *input.IsWhatsappReachable
	}
	c.Owners = nil
	return c
}

func scoringChanged(before, after *models.Contact) bool {
	return !sameString(before.Mobile, after.Mobile) ||
		!sameString(before.Email, after.Email) ||
		before.CompanyName != after.CompanyName ||
		!sameRelationship(before.RelationshipType, after.RelationshipType) ||
		before.SourceSystem != after.SourceSystem
}

func emptyToNil(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	v := *s
	return &v
}

func sameString(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func sameRelationship(a, b *models.RelationshipType) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
