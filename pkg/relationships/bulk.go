package relationships

import (
	"context"

	"github.com/google/uuid"

	"github.com/PranayGaynarIKF/Address-Book-sub002/pkg/metrics"
	"github.com/PranayGaynarIKF/Address-Book-sub002/pkg/models"
	"github.com/PranayGaynarIKF/Address-Book-sub002/pkg/tracing"
)

// pairFunc applies one contact/tag pair. It returns a skip reason, or "" when
// the pair was applied.
type pairFunc func(ctx context.Context, contactID, tagID string) (string, error)

// AddTagsToContact tags one contact with many tags.
func (s *Service) AddTagsToContact(ctx context.Context, contactID string, tagIDs []string) (*models.BatchResult, error) {
	ctx, span := tracing.StartSpan(ctx, "relationships.Service.AddTagsToContact")
	defer span.End()

	return s.bulkForContact(ctx, "add_tags_to_contact", contactID, tagIDs, s.addPair)
}

// RemoveTagsFromContact untags one contact from many tags.
func (s *Service) RemoveTagsFromContact(ctx context.Context, contactID string, tagIDs []string) (*models.BatchResult, error) {
	ctx, span := tracing.StartSpan(ctx, "relationships.Service.RemoveTagsFromContact")
	defer span.End()

	return s.bulkForContact(ctx, "remove_tags_from_contact", contactID, tagIDs, s.removePair)
}

// AddTagToContacts applies one tag to many contacts.
func (s *Service) AddTagToContacts(ctx context.Context, tagID string, contactIDs []string) (*models.BatchResult, error) {
	ctx, span := tracing.StartSpan(ctx, "relationships.Service.AddTagToContacts")
	defer span.End()

	return s.bulkForTag(ctx, "add_tag_to_contacts", tagID, contactIDs, s.addPair)
}

// RemoveTagFromContacts removes one tag from many contacts.
func (s *Service) RemoveTagFromContacts(ctx context.Context, tagID string, contactIDs []string) (*models.BatchResult, error) {
	ctx, span := tracing.StartSpan(ctx, "relationships.Service.RemoveTagFromContacts")
	defer span.End()

	return s.bulkForTag(ctx, "remove_tag_from_contacts", tagID, contactIDs, s.removePair)
}

func (s *Service) bulkForContact(ctx context.Context, operation, contactID string, tagIDs []string, apply pairFunc) (*models.BatchResult, error) {
	result := &models.BatchResult{Skipped: []models.SkippedItem{}}
	err := s.tx.RunInTx(ctx, nil, func(ctx context.Context) error {
		if _, err := s.requireContact(ctx, contactID); err != nil {
			return err
		}
		for _, tagID := range tagIDs {
			reason, err := s.checkTarget(ctx, tagID, s.tagExists)
			if err != nil {
				return err
			}
			if reason == "" {
				if reason, err = apply(ctx, contactID, tagID); err != nil {
					return err
				}
			}
			tally(result, tagID, reason)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.report(ctx, operation, contactID, result)
	return result, nil
}

func (s *Service) bulkForTag(ctx context.Context, operation, tagID string, contactIDs []string, apply pairFunc) (*models.BatchResult, error) {
	result := &models.BatchResult{Skipped: []models.SkippedItem{}}
	err := s.tx.RunInTx(ctx, nil, func(ctx context.Context) error {
		if _, err := s.requireTag(ctx, tagID); err != nil {
			return err
		}
		for _, contactID := range contactIDs {
			reason, err := s.checkTarget(ctx, contactID, s.contactExists)
			if err != nil {
				return err
			}
			if reason == "" {
				if reason, err = apply(ctx, contactID, tagID); err != nil {
					return err
				}
			}
			tally(result, contactID, reason)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.report(ctx, operation, tagID, result)
	return result, nil
}

func (s *Service) addPair(ctx context.Context, contactID, tagID string) (string, error) {
	added, err := s.contactTags.Add(ctx, contactID, tagID)
	if err != nil {
		return "", err
	}
	if !added {
		return models.SkipReasonAlreadyAssociated, nil
	}
	return "", nil
}

func (s *Service) removePair(ctx context.Context, contactID, tagID string) (string, error) {
	removed, err := s.contactTags.Remove(ctx, contactID, tagID)
	if err != nil {
		return "", err
	}
	if !removed {
		return models.SkipReasonNotAssociated, nil
	}
	return "", nil
}

func (s *Service) checkTarget(ctx context.Context, id string, exists func(context.Context, string) (bool, error)) (string, error) {
	if _, err := uuid.Parse(id); err != nil {
		return models.SkipReasonInvalidID, nil
	}
	ok, err := exists(ctx, id)
	if err != nil {
		return "", err
	}
	if !ok {
		return models.SkipReasonNotFound, nil
	}
	return "", nil
}

func (s *Service) tagExists(ctx context.Context, id string) (bool, error) {
	tag, err := s.tags.GetByID(ctx, id)
	return tag != nil, err
}

func (s *Service) contactExists(ctx context.Context, id string) (bool, error) {
	contact, err := s.contacts.GetByID(ctx, id)
	return contact != nil, err
}

func tally(result *models.BatchResult, id, reason string) {
	if reason == "" {
		result.Succeeded++
		return
	}
	result.Skip(id, reason)
}

func (s *Service) report(ctx context.Context, operation, anchorID string, result *models.BatchResult) {
	metrics.BulkItemsTotal.WithLabelValues(operation, "succeeded").Add(float64(result.Succeeded))
	for _, skipped := range result.Skipped {
		metrics.BulkItemsTotal.WithLabelValues(operation, skipped.Reason).Inc()
	}

	s.log.WithContext(ctx).WithFields(map[string]any{
		"operation": operation,
		"anchor_id": anchorID,
		"succeeded": result.Succeeded,
		"skipped":   len(result.Skipped),
	}).Info("bulk association finished")
}
