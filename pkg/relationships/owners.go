package relationships

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/PranayGaynarIKF/Address-Book-sub002/pkg/errs"
	"github.com/PranayGaynarIKF/Address-Book-sub002/pkg/models"
	"github.com/PranayGaynarIKF/Address-Book-sub002/pkg/tracing"
)

// CreateOwner creates an owner with a unique name
func (s *Service) CreateOwner(ctx context.Context, input models.CreateOwnerInput) (*models.Owner, error) {
	ctx, span := tracing.StartSpan(ctx, "relationships.Service.CreateOwner")
	defer span.End()

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, errs.InvalidInput("name is required")
	}

	now := s.cfg.Now().UTC()
	owner := &models.Owner{
		ID:        uuid.New().String(),
		Name:      name,
		IsActive:  input.IsActive == nil || *input.IsActive,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := s.tx.RunInTx(ctx, nil, func(ctx context.Context) error {
		existing, err := s.owners.GetByName(ctx, name)
		if err != nil {
			return err
		}
		if existing != nil {
			return errs.Conflict("owner %q already exists", name)
		}
		return s.owners.Insert(ctx, owner)
	})
	if err != nil {
		return nil, err
	}

	s.log.WithContext(ctx).WithField("owner_id", owner.ID).Info("created owner")
	return owner, nil
}

// GetOwner returns the owner or a not found error
func (s *Service) GetOwner(ctx context.Context, id string) (*models.Owner, error) {
	ctx, span := tracing.StartSpan(ctx, "relationships.Service.GetOwner")
	defer span.End()

	return s.requireOwner(ctx, id)
}

// ListOwners returns every owner
func (s *Service) ListOwners(ctx context.Context) ([]models.Owner, error) {
	ctx, span := tracing.StartSpan(ctx, "relationships.Service.ListOwners")
	defer span.End()

	owners, err := s.owners.List(ctx)
	if err != nil {
		return nil, err
	}
	return nonNil(owners), nil
}

// DeleteOwner removes the owner and, through the store, its associations.
func (s *Service) DeleteOwner(ctx context.Context, id string) error {
	ctx, span := tracing.StartSpan(ctx, "relationships.Service.DeleteOwner")
	defer span.End()

	deleted, err := s.owners.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return errs.NotFound("owner %s not found", id)
	}
	return nil
}

// AddOwner assigns an owner to a contact
func (s *Service) AddOwner(ctx context.Context, contactID, ownerID string) error {
	ctx, span := tracing.StartSpan(ctx, "relationships.Service.AddOwner")
	defer span.End()

	return s.tx.RunInTx(ctx, nil, func(ctx context.Context) error {
		if _, err := s.requireContact(ctx, contactID); err != nil {
			return err
		}
		if _, err := s.requireOwner(ctx, ownerID); err != nil {
			return err
		}
		added, err := s.contactOwners.Add(ctx, contactID, ownerID)
		if err != nil {
			return err
		}
		if !added {
			return errs.Conflict("contact %s already has owner %s", contactID, ownerID)
		}
		return nil
	})
}

// RemoveOwner removes an owner from a contact
func (s *Service) RemoveOwner(ctx context.Context, contactID, ownerID string) error {
	ctx, span := tracing.StartSpan(ctx, "relationships.Service.RemoveOwner")
	defer span.End()

	removed, err := s.contactOwners.Remove(ctx, contactID, ownerID)
	if err != nil {
		return err
	}
	if !removed {
		return errs.NotFound("contact %s has no owner %s", contactID, ownerID)
	}
	return nil
}

// OwnersForContact lists the contact's owners by name.
func (s *Service) OwnersForContact(ctx context.Context, contactID string) ([]models.Owner, error) {
	ctx, span := tracing.StartSpan(ctx, "relationships.Service.OwnersForContact")
	defer span.End()

	if _, err := s.requireContact(ctx, contactID); err != nil {
		return nil, err
	}
	owners, err := s.contactOwners.ListForContact(ctx, contactID)
	if err != nil {
		return nil, err
	}
	return nonNil(owners), nil
}

func (s *Service) requireContact(ctx context.Context, id string) (*models.Contact, error) {
	contact, err := s.contacts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if contact == nil {
		return nil, errs.NotFound("contact %s not found", id)
	}
	return contact, nil
}

func (s *Service) requireOwner(ctx context.Context, id string) (*models.Owner, error) {
	owner, err := s.owners.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if owner == nil {
		return nil, errs.NotFound("owner %s not found", id)
	}
	return owner, nil
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
