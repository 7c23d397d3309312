// Package consolidation resolves incoming records against existing contacts
// and merges duplicate contacts, recording every decision in the ledger.
package consolidation

import (
	"context"
	"strings"

	"github.com/Gobusters/ectolinq"
	"github.com/Gobusters/ectologger"

	appctx "github.com/PranayGaynarIKF/Address-Book-sub002/pkg/context"
	"github.com/PranayGaynarIKF/Address-Book-sub002/pkg/database"
	"github.com/PranayGaynarIKF/Address-Book-sub002/pkg/errs"
	"github.com/PranayGaynarIKF/Address-Book-sub002/pkg/models"
	"github.com/PranayGaynarIKF/Address-Book-sub002/pkg/tracing"
)

type Contacts interface {
	Create(ctx context.Context, input models.CreateContactInput) (*models.Contact, error)
	Get(ctx context.Context, id string) (*models.Contact, error)
	FindByIdentity(ctx context.Context, name, mobile string) (*models.Contact, error)
	Update(ctx context.Context, id string, input models.UpdateContactInput) (*models.Contact, error)
	Remove(ctx context.Context, id string) error
}

type Associations interface {
	OwnersForContact(ctx context.Context, contactID string) ([]models.Owner, error)
	TagsForContact(ctx context.Context, contactID string) ([]models.Tag, error)
	AddOwner(ctx context.Context, contactID, ownerID string) error
	AddTagsToContact(ctx context.Context, contactID string, tagIDs []string) (*models.BatchResult, error)
}

// Ledger must not fail its caller; see ledger.BestEffort.
type Ledger interface {
	Record(ctx context.Context, input models.RecordMergeInput) *models.MergeHistory
}

type IngestResult struct {
	Contact *models.Contact      `json:"contact"`
	Created bool                 `json:"created"`
	History *models.MergeHistory `json:"history,omitempty"`
}

type MergeRequest struct {
	PrimaryID string             `json:"primary_id"`
	MergedID  string             `json:"merged_id" validate:"required"`
	Reason    models.MergeReason `json:"merge_reason,omitempty"`
	MergedBy  string             `json:"merged_by,omitempty"`
	Details   map[string]any     `json:"merge_details,omitempty"`
}

type MergeResult struct {
	Contact      *models.Contact      `json:"contact"`
	MergedID     string               `json:"merged_id"`
	OwnersCopied int                  `json:"owners_copied"`
	TagsCopied   int                  `json:"tags_copied"`
	History      *models.MergeHistory `json:"history,omitempty"`
}

type Service struct {
	log            ectologger.Logger
	contacts       Contacts
	associations   Associations
	ledger         Ledger
	tx             database.TxRunner
	unknownCompany string
}

func NewService(
	log ectologger.Logger,
	contacts Contacts,
	associations Associations,
	ledger Ledger,
	tx database.TxRunner,
	unknownCompany string,
) *Service {
	if unknownCompany == "" {
		unknownCompany = "Unknown"
	}
	return &Service{
		log:            log,
		contacts:       contacts,
		associations:   associations,
		ledger:         ledger,
		tx:             tx,
		unknownCompany: unknownCompany,
	}
}

// Ingest creates the contact, or when (name, mobile) already exists fills the
// existing contact's blank fields from the input and records an AUTO_MERGE.
func (s *Service) Ingest(ctx context.Context, input models.CreateContactInput) (*IngestResult, error) {
	ctx, span := tracing.StartSpan(ctx, "consolidation.Service.Ingest")
	defer span.End()

	if _, err := models.ParseSourceSystem(string(input.SourceSystem)); err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, errs.InvalidInput("name is required")
	}

	var (
		existing *models.Contact
		result   = &IngestResult{}
		filled   []string
	)
	err := s.tx.RunInTx(ctx, nil, func(ctx context.Context) error {
		var err error
		if input.Mobile != nil && *input.Mobile != "" {
			existing, err = s.contacts.FindByIdentity(ctx, input.Name, *input.Mobile)
			if err != nil {
				return err
			}
		}

		if existing == nil {
			result.Contact, err = s.contacts.Create(ctx, input)
			result.Created = err == nil
			return err
		}

		var update models.UpdateContactInput
		update, filled = s.fillBlanks(existing, incomingContact(input))
		if len(filled) == 0 {
			result.Contact = existing
			return nil
		}
		result.Contact, err = s.contacts.Update(ctx, existing.ID, update)
		return err
	})
	if err != nil {
		return nil, err
	}
	if result.Created {
		return result, nil
	}

	reason := models.MergeReasonSamePhone
	if len(filled) == 0 {
		reason = models.MergeReasonExactMatch
	}
	result.History = s.ledger.Record(ctx, models.RecordMergeInput{
		MergeType:          models.MergeTypeAutoMerge,
		PrimaryContactID:   existing.ID,
		PrimaryContactName: existing.Name,
		SourceSystem:       input.SourceSystem,
		SourceRecordID:     &input.SourceRecordID,
		MergeReason:        reason,
		MergeDetails: map[string]any{
			"filled_fields":    nonNil(filled),
			"incoming_company": input.CompanyName,
		},
		MergedBy:              appctx.GetActor(ctx),
		BeforeMergeData:       existing.Snapshot(),
		AfterMergeData:        result.Contact.Snapshot(),
		BeforeQualityScore:    intPtr(existing.DataQualityScore),
		AfterQualityScore:     intPtr(result.Contact.DataQualityScore),
		InvolvedSourceSystems: involved(existing.SourceSystem, input.SourceSystem),
	})

	s.log.WithContext(ctx).WithFields(map[string]any{
		"contact_id":    existing.ID,
		"merge_reason":  reason,
		"filled_fields": filled,
	}).Info("ingested record matched existing contact")

	return result, nil
}

// Merge folds MergedID into PrimaryID: blank fields on the primary are filled
// from the merged contact, its owners and tags are copied, and it is deleted.
// The ledger row is written after the merge commits; a ledger failure leaves
// the merge in place.
func (s *Service) Merge(ctx context.Context, req MergeRequest) (*MergeResult, error) {
	ctx, span := tracing.StartSpan(ctx, "consolidation.Service.Merge")
	defer span.End()

	if req.PrimaryID == "" || req.MergedID == "" {
		return nil, errs.InvalidInput("primary and merged contact ids are required")
	}
	if req.PrimaryID == req.MergedID {
		return nil, errs.InvalidInput("cannot merge contact %s into itself", req.PrimaryID)
	}
	if req.Reason == "" {
		req.Reason = models.MergeReasonDuplicateEntry
	}
	if _, err := models.ParseMergeReason(string(req.Reason)); err != nil {
		return nil, err
	}

	var (
		primary, merged *models.Contact
		filled          []string
		result          = &MergeResult{MergedID: req.MergedID}
	)
	err := s.tx.RunInTx(ctx, nil, func(ctx context.Context) error {
		var err error
		if primary, err = s.contacts.Get(ctx, req.PrimaryID); err != nil {
			return err
		}
		if merged, err = s.contacts.Get(ctx, req.MergedID); err != nil {
			return err
		}

		owners, err := s.associations.OwnersForContact(ctx, merged.ID)
		if err != nil {
			return err
		}
		tags, err := s.associations.TagsForContact(ctx, merged.ID)
		if err != nil {
			return err
		}

		// The merged row goes first so its identity key is free for the primary.
		if err := s.contacts.Remove(ctx, merged.ID); err != nil {
			return err
		}

		var update models.UpdateContactInput
		update, filled = s.fillBlanks(primary, merged)
		result.Contact = primary
		if len(filled) > 0 {
			if result.Contact, err = s.contacts.Update(ctx, primary.ID, update); err != nil {
				return err
			}
		}

		for _, owner := range owners {
			err := s.associations.AddOwner(ctx, primary.ID, owner.ID)
			if errs.IsConflict(err) {
				continue
			}
			if err != nil {
				return err
			}
			result.OwnersCopied++
		}

		if len(tags) > 0 {
			batch, err := s.associations.AddTagsToContact(ctx, primary.ID, ectolinq.Map(tags, func(t models.Tag) string { return t.ID }))
			if err != nil {
				return err
			}
			result.TagsCopied = batch.Succeeded
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	mergedBy := req.MergedBy
	if mergedBy == "" {
		mergedBy = appctx.GetActor(ctx)
	}
	details := map[string]any{}
	for k, v := range req.Details {
		details[k] = v
	}
	details["filled_fields"] = nonNil(filled)
	details["owners_copied"] = result.OwnersCopied
	details["tags_copied"] = result.TagsCopied

	result.History = s.ledger.Record(ctx, models.RecordMergeInput{
		MergeType:          models.MergeTypeManualMerge,
		PrimaryContactID:   primary.ID,
		PrimaryContactName: primary.Name,
		MergedContactID:    &merged.ID,
		MergedContactName:  &merged.Name,
		SourceSystem:       primary.SourceSystem,
		SourceRecordID:     &merged.SourceRecordID,
		MergeReason:        req.Reason,
		MergeDetails:       details,
		MergedBy:           mergedBy,
		BeforeMergeData: map[string]any{
			"primary": primary.Snapshot(),
			"merged":  merged.Snapshot(),
		},
		AfterMergeData:        result.Contact.Snapshot(),
		BeforeQualityScore:    intPtr(primary.DataQualityScore),
		AfterQualityScore:     intPtr(result.Contact.DataQualityScore),
		InvolvedSourceSystems: involved(primary.SourceSystem, merged.SourceSystem),
	})

	s.log.WithContext(ctx).WithFields(map[string]any{
		"primary_contact_id": primary.ID,
		"merged_contact_id":  merged.ID,
		"owners_copied":      result.OwnersCopied,
		"tags_copied":        result.TagsCopied,
	}).Info("merged contacts")

	return result, nil
}

// fillBlanks builds an update that copies source values into fields that are
// empty on target. It never overwrites a populated field.
func (s *Service) fillBlanks(target, source *models.Contact) (models.UpdateContactInput, []string) {
	var (
		update models.UpdateContactInput
		filled []string
	)
	if isBlank(target.Email) && !isBlank(source.Email) {
		update.Email = models.Some(*source.Email)
		filled = append(filled, "email")
	}
	if isBlank(target.Mobile) && !isBlank(source.Mobile) {
		update.Mobile = models.Some(*source.Mobile)
		filled = append(filled, "mobile")
	}
	if target.RelationshipType == nil && source.RelationshipType != nil {
		update.RelationshipType = models.Some(*source.RelationshipType)
		filled = append(filled, "relationship_type")
	}
	if s.isUnknownCompany(target.CompanyName) && !s.isUnknownCompany(source.CompanyName) {
		company := source.CompanyName
		update.CompanyName = &company
		filled = append(filled, "company_name")
	}
	if !target.IsWhatsappReachable && source.IsWhatsappReachable {
		reachable := true
		update.IsWhatsappReachable = &reachable
		filled = append(filled, "is_whatsapp_reachable")
	}
	return update, filled
}

func (s *Service) isUnknownCompany(company string) bool {
	company = strings.TrimSpace(company)
	return company == "" || company == s.unknownCompany
}

func incomingContact(input models.CreateContactInput) *models.Contact {
	return &models.Contact{
		Name:                input.Name,
		CompanyName:         input.CompanyName,
		Email:               input.Email,
		Mobile:              input.Mobile,
		RelationshipType:    input.RelationshipType,
		SourceSystem:        input.SourceSystem,
		SourceRecordID:      input.SourceRecordID,
		IsWhatsappReachable: input.IsWhatsappReachable,
	}
}

func involved(sources ...models.SourceSystem) []models.SourceSystem {
	out := make([]models.SourceSystem, 0, len(sources))
	for _, source := range sources {
		if !ectolinq.Contains(out, source) {
			out = append(out, source)
		}
	}
	return out
}

func isBlank(s *string) bool {
	return s == nil || strings.TrimSpace(*s) == ""
}

func intPtr(v int) *int {
	return &v
}

func nonNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}
