package relationships

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/PranayGaynarIKF/Address-Book-sub002/pkg/errs"
	"github.com/PranayGaynarIKF/Address-Book-sub002/pkg/models"
	"github.com/PranayGaynarIKF/Address-Book-sub002/pkg/tracing"
)

// CreateTag creates a tag with a unique name
func (s *Service) CreateTag(ctx context.Context, input models.CreateTagInput) (*models.Tag, error) {
	ctx, span := tracing.StartSpan(ctx, "relationships.Service.CreateTag")
	defer span.End()

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, errs.InvalidInput("name is required")
	}
	color := input.Color
	if color == "" {
		color = s.cfg.DefaultTagColor
	}

	now := s.cfg.Now().UTC()
	tag := &models.Tag{
		ID:          uuid.New().String(),
		Name:        name,
		Color:       color,
		Description: input.Description,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err := s.tx.RunInTx(ctx, nil, func(ctx context.Context) error {
		existing, err := s.tags.GetByName(ctx, name)
		if err != nil {
			return err
		}
		if existing != nil {
			return errs.Conflict("tag %q already exists", name)
		}
		return s.tags.Insert(ctx, tag)
	})
	if err != nil {
		return nil, err
	}

	s.log.WithContext(ctx).WithField("tag_id", tag.ID).Info("created tag")
	return tag, nil
}

// GetTag returns the tag or a not found error
func (s *Service) GetTag(ctx context.Context, id string) (*models.Tag, error) {
	ctx, span := tracing.StartSpan(ctx, "relationships.Service.GetTag")
	defer span.End()

	return s.requireTag(ctx, id)
}

// ListTags returns active tags by name, or every tag when includeInactive.
func (s *Service) ListTags(ctx context.Context, includeInactive bool) ([]models.Tag, error) {
	ctx, span := tracing.StartSpan(ctx, "relationships.Service.ListTags")
	defer span.End()

	tags, err := s.tags.List(ctx, includeInactive)
	if err != nil {
		return nil, err
	}
	return nonNil(tags), nil
}

// UpdateTag renames, recolors or (de)activates a tag. Setting IsActive to
// false is the soft delete; associations are kept.
func (s *Service) UpdateTag(ctx context.Context, id string, input models.UpdateTagInput) (*models.Tag, error) {
	ctx, span := tracing.StartSpan(ctx, "relationships.Service.UpdateTag")
	defer span.End()

	var updated *models.Tag
	err := s.tx.RunInTx(ctx, nil, func(ctx context.Context) error {
		tag, err := s.requireTag(ctx, id)
		if err != nil {
			return err
		}

		if input.Name != nil {
			name := strings.TrimSpace(*input.Name)
			if name == "" {
				return errs.InvalidInput("name cannot be empty")
			}
			if name != tag.Name {
				existing, err := s.tags.GetByName(ctx, name)
				if err != nil {
					return err
				}
				if existing != nil && existing.ID != tag.ID {
					return errs.Conflict("tag %q already exists", name)
				}
			}
			tag.Name = name
		}
		if input.Color != nil {
			tag.Color = *input.Color
			if tag.Color == "" {
				tag.Color = s.cfg.DefaultTagColor
			}
		}
		if input.Description.Set {
			tag.Description = input.Description.Value
		}
		if input.IsActive != nil {
			tag.IsActive = *input.IsActive
		}
		tag.UpdatedAt = s.cfg.Now().UTC()

		if err := s.tags.Update(ctx, tag); err != nil {
			return err
		}
		updated = tag
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteTag hard-deletes a tag that no contact references. Otherwise it fails
// with Conflict naming the number of referencing contacts.
func (s *Service) DeleteTag(ctx context.Context, id string) error {
	ctx, span := tracing.StartSpan(ctx, "relationships.Service.DeleteTag")
	defer span.End()

	return s.tx.RunInTx(ctx, nil, func(ctx context.Context) error {
		if _, err := s.requireTag(ctx, id); err != nil {
			return err
		}
		count, err := s.contactTags.CountContacts(ctx, id)
		if err != nil {
			return err
		}
		if count > 0 {
			return errs.Conflict("tag %s is referenced by %d contacts", id, count)
		}
		if _, err := s.tags.Delete(ctx, id); err != nil {
			return err
		}
		s.log.WithContext(ctx).WithField("tag_id", id).Info("deleted tag")
		return nil
	})
}

// AddTag tags a contact
func (s *Service) AddTag(ctx context.Context, contactID, tagID string) error {
	ctx, span := tracing.StartSpan(ctx, "relationships.Service.AddTag")
	defer span.End()

	return s.tx.RunInTx(ctx, nil, func(ctx context.Context) error {
		if _, err := s.requireContact(ctx, contactID); err != nil {
			return err
		}
		if _, err := s.requireTag(ctx, tagID); err != nil {
			return err
		}
		added, err := s.contactTags.Add(ctx, contactID, tagID)
		if err != nil {
			return err
		}
		if !added {
			return errs.Conflict("contact %s already has tag %s", contactID, tagID)
		}
		return nil
	})
}

// RemoveTag untags a contact
func (s *Service) RemoveTag(ctx context.Context, contactID, tagID string) error {
	ctx, span := tracing.StartSpan(ctx, "relationships.Service.RemoveTag")
	defer span.End()

	removed, err := s.contactTags.Remove(ctx, contactID, tagID)
	if err != nil {
		return err
	}
	if !removed {
		return errs.NotFound("contact %s has no tag %s", contactID, tagID)
	}
	return nil
}

// TagsForContact lists the contact's tags by name.
func (s *Service) TagsForContact(ctx context.Context, contactID string) ([]models.Tag, error) {
	ctx, span := tracing.StartSpan(ctx, "relationships.Service.TagsForContact")
	defer span.End()

	if _, err := s.requireContact(ctx, contactID); err != nil {
		return nil, err
	}
	tags, err := s.contactTags.ListForContact(ctx, contactID)
	if err != nil {
		return nil, err
	}
	return nonNil(tags), nil
}

// ContactsWithTag lists tagged contacts by name.
func (s *Service) ContactsWithTag(ctx context.Context, tagID string) ([]models.Contact, error) {
	return s.contactsWithTag(ctx, tagID, false)
}

// ContactsWithEmailForTag lists tagged contacts that have a non-empty email.
func (s *Service) ContactsWithEmailForTag(ctx context.Context, tagID string) ([]models.Contact, error) {
	return s.contactsWithTag(ctx, tagID, true)
}

func (s *Service) contactsWithTag(ctx context.Context, tagID string, withEmailOnly bool) ([]models.Contact, error) {
	ctx, span := tracing.StartSpan(ctx, "relationships.Service.ContactsWithTag")
	defer span.End()

	if _, err := s.requireTag(ctx, tagID); err != nil {
		return nil, err
	}
	contacts, err := s.contactTags.ListContacts(ctx, tagID, withEmailOnly)
	if err != nil {
		return nil, err
	}
	return nonNil(contacts), nil
}

// SearchTags matches name or description case-insensitively, at most
// SearchLimit results by name.
func (s *Service) SearchTags(ctx context.Context, query string) ([]models.Tag, error) {
	ctx, span := tracing.StartSpan(ctx, "relationships.Service.SearchTags")
	defer span.End()

	tags, err := s.tags.Search(ctx, strings.TrimSpace(query), SearchLimit)
	if err != nil {
		return nil, err
	}
	return nonNil(tags), nil
}

// PopularTags orders tags by association count, then name.
func (s *Service) PopularTags(ctx context.Context, limit int) ([]models.TagUsage, error) {
	ctx, span := tracing.StartSpan(ctx, "relationships.Service.PopularTags")
	defer span.End()

	if limit < 1 {
		return nil, errs.InvalidInput("limit must be at least 1")
	}
	if limit > s.cfg.MaxPageSize {
		limit = s.cfg.MaxPageSize
	}

	tags, err := s.tags.Popular(ctx, limit)
	if err != nil {
		return nil, err
	}
	return nonNil(tags), nil
}

func (s *Service) requireTag(ctx context.Context, id string) (*models.Tag, error) {
	tag, err := s.tags.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if tag == nil {
		return nil, errs.NotFound("tag %s not found", id)
	}
	return tag, nil
}
