package consolidation_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/PranayGaynarIKF/Address-Book-sub002/internal/repositories/memory"
	"github.com/PranayGaynarIKF/Address-Book-sub002/internal/testutil"
	"github.com/PranayGaynarIKF/Address-Book-sub002/pkg/consolidation"
	"github.com/PranayGaynarIKF/Address-Book-sub002/pkg/contacts"
	appctx "github.com/PranayGaynarIKF/Address-Book-sub002/pkg/context"
	"github.com/PranayGaynarIKF/Address-Book-sub002/pkg/errs"
	"github.com/PranayGaynarIKF/Address-Book-sub002/pkg/ledger"
	"github.com/PranayGaynarIKF/Address-Book-sub002/pkg/models"
	"github.com/PranayGaynarIKF/Address-Book-sub002/pkg/relationships"
	"github.com/PranayGaynarIKF/Address-Book-sub002/pkg/scoring"
)

func ptr[T any](v T) *T { return &v }

type ConsolidationSuite struct {
	suite.Suite
	ctx           context.Context
	store         *memory.Store
	contacts      *contacts.Service
	relationships *relationships.Service
	ledger        *ledger.Service
	svc           *consolidation.Service
}

func TestConsolidationSuite(t *testing.T) {
	suite.Run(t, new(ConsolidationSuite))
}

func (s *ConsolidationSuite) SetupTest() {
	log := testutil.Logger()
	now := func() time.Time { return time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC) }

	s.ctx = appctx.SetActor(context.Background(), "ops@example.com")
	s.store = memory.New()
	s.contacts = contacts.NewService(log, s.store.Contacts(), s.store.ContactOwners(), scoring.DefaultPolicy(), s.store, contacts.Config{Now: now})
	s.relationships = relationships.NewService(
		log,
		s.store.Contacts(),
		s.store.Owners(),
		s.store.Tags(),
		s.store.ContactOwners(),
		s.store.ContactTags(),
		s.store,
		relationships.Config{Now: now},
	)
	s.ledger = ledger.NewService(log, s.store.MergeHistory(), s.store, ledger.Config{Now: now})
	s.svc = s.newService(s.ledger)
}

func (s *ConsolidationSuite) newService(recorder ledger.Recorder) *consolidation.Service {
	return consolidation.NewService(
		testutil.Logger(),
		s.contacts,
		s.relationships,
		ledger.NewBestEffort(recorder, testutil.Logger()),
		s.store,
		scoring.DefaultUnknownCompany,
	)
}

func (s *ConsolidationSuite) create(input models.CreateContactInput) *models.Contact {
	contact, err := s.contacts.Create(s.ctx, input)
	s.Require().NoError(err)
	return contact
}

func (s *ConsolidationSuite) history() []models.MergeHistory {
	page, err := s.ledger.Query(context.Background(), models.MergeHistoryFilter{Page: 1, Limit: 100})
	s.Require().NoError(err)
	return page.Data
}

func ingestInput(email *string) models.CreateContactInput {
	return models.CreateContactInput{
		Name:           "Priya Shah",
		CompanyName:    "Unknown",
		Email:          email,
		Mobile:         ptr("+919800000001"),
		SourceSystem:   models.SourceSystemGmail,
		SourceRecordID: "msg-1",
	}
}

func (s *ConsolidationSuite) TestIngest_CreatesNewContact() {
	result, err := s.svc.Ingest(s.ctx, ingestInput(nil))
	s.Require().NoError(err)

	s.True(result.Created)
	s.Nil(result.History)
	s.Equal(scoring.MobileWeight, result.Contact.DataQualityScore)
	s.Empty(s.history())
}

func (s *ConsolidationSuite) TestIngest_FillsBlanksOnMatch() {
	first, err := s.svc.Ingest(s.ctx, ingestInput(nil))
	s.Require().NoError(err)

	incoming := ingestInput(ptr("priya@example.com"))
	incoming.CompanyName = "Acme"
	result, err := s.svc.Ingest(s.ctx, incoming)
	s.Require().NoError(err)

	s.False(result.Created)
	s.Equal(first.Contact.ID, result.Contact.ID)
	s.Equal("priya@example.com", *result.Contact.Email)
	s.Equal("Acme", result.Contact.CompanyName)
	s.Equal(scoring.MobileWeight+scoring.EmailWeight+scoring.CompanyWeight, result.Contact.DataQualityScore)

	s.Require().NotNil(result.History)
	s.Equal(models.MergeTypeAutoMerge, result.History.MergeType)
	s.Equal(models.MergeReasonSamePhone, result.History.MergeReason)
	s.Equal("ops@example.com", result.History.MergedBy)
	s.Equal(first.Contact.ID, result.History.PrimaryContactID)
	s.Equal([]string{"email", "company_name"}, result.History.MergeDetails.Data["filled_fields"])
	s.Require().NotNil(result.History.BeforeQualityScore)
	s.Equal(scoring.MobileWeight, *result.History.BeforeQualityScore)
	s.Len(s.history(), 1)
}

func (s *ConsolidationSuite) TestIngest_ExactMatchChangesNothing() {
	_, err := s.svc.Ingest(s.ctx, ingestInput(ptr("priya@example.com")))
	s.Require().NoError(err)

	result, err := s.svc.Ingest(s.ctx, ingestInput(ptr("other@example.com")))
	s.Require().NoError(err)

	s.False(result.Created)
	s.Equal("priya@example.com", *result.Contact.Email)
	s.Require().NotNil(result.History)
	s.Equal(models.MergeReasonExactMatch, result.History.MergeReason)
}

func (s *ConsolidationSuite) TestIngest_RejectsUnknownSource() {
	input := ingestInput(nil)
	input.SourceSystem = "FAX"
	_, err := s.svc.Ingest(s.ctx, input)
	s.True(errs.IsInvalidInput(err))
}

func (s *ConsolidationSuite) TestMerge_CopiesAssociationsAndDeletesMerged() {
	primary := s.create(models.CreateContactInput{
		Name:           "Rahul Mehta",
		CompanyName:    "Unknown",
		SourceSystem:   models.SourceSystemZoho,
		SourceRecordID: "z-1",
	})
	merged := s.create(models.CreateContactInput{
		Name:             "Rahul Mehta",
		CompanyName:      "Globex",
		Email:            ptr("rahul@globex.com"),
		Mobile:           ptr("+919800000002"),
		RelationshipType: ptr(models.RelationshipTypeClient),
		SourceSystem:     models.SourceSystemGmail,
		SourceRecordID:   "g-1",
	})

	shared, err := s.relationships.CreateOwner(s.ctx, models.CreateOwnerInput{Name: "Anita"})
	s.Require().NoError(err)
	extra, err := s.relationships.CreateOwner(s.ctx, models.CreateOwnerInput{Name: "Vikram"})
	s.Require().NoError(err)
	s.Require().NoError(s.relationships.AddOwner(s.ctx, primary.ID, shared.ID))
	s.Require().NoError(s.relationships.AddOwner(s.ctx, merged.ID, shared.ID))
	s.Require().NoError(s.relationships.AddOwner(s.ctx, merged.ID, extra.ID))

	vip, err := s.relationships.CreateTag(s.ctx, models.CreateTagInput{Name: "vip"})
	s.Require().NoError(err)
	s.Require().NoError(s.relationships.AddTag(s.ctx, merged.ID, vip.ID))

	result, err := s.svc.Merge(s.ctx, consolidation.MergeRequest{PrimaryID: primary.ID, MergedID: merged.ID})
	s.Require().NoError(err)

	s.Equal(1, result.OwnersCopied)
	s.Equal(1, result.TagsCopied)
	s.Equal("rahul@globex.com", *result.Contact.Email)
	s.Equal("+919800000002", *result.Contact.Mobile)
	s.Equal("Globex", result.Contact.CompanyName)
	s.Equal(scoring.MaxScore, result.Contact.DataQualityScore)

	_, err = s.contacts.Get(s.ctx, merged.ID)
	s.True(errs.IsNotFound(err))

	owners, err := s.relationships.OwnersForContact(s.ctx, primary.ID)
	s.Require().NoError(err)
	s.Len(owners, 2)
	tags, err := s.relationships.TagsForContact(s.ctx, primary.ID)
	s.Require().NoError(err)
	s.Require().Len(tags, 1)
	s.Equal("vip", tags[0].Name)

	s.Require().NotNil(result.History)
	s.Equal(models.MergeTypeManualMerge, result.History.MergeType)
	s.Equal(models.MergeReasonDuplicateEntry, result.History.MergeReason)
	s.Equal(merged.ID, *result.History.MergedContactID)
	s.Equal([]string{"ZOHO", "GMAIL"}, []string(result.History.InvolvedSourceSystems))
	s.Contains(result.History.BeforeMergeData.Data, "merged")
}

func (s *ConsolidationSuite) TestMerge_RejectsSelfMerge() {
	contact := s.create(models.CreateContactInput{
		Name:           "Solo",
		CompanyName:    "Unknown",
		SourceSystem:   models.SourceSystemManual,
		SourceRecordID: "m-1",
	})

	_, err := s.svc.Merge(s.ctx, consolidation.MergeRequest{PrimaryID: contact.ID, MergedID: contact.ID})
	s.True(errs.IsInvalidInput(err))
}

func (s *ConsolidationSuite) TestMerge_UnknownContactLeavesStateUntouched() {
	primary := s.create(models.CreateContactInput{
		Name:           "Kept",
		CompanyName:    "Unknown",
		SourceSystem:   models.SourceSystemManual,
		SourceRecordID: "m-1",
	})

	_, err := s.svc.Merge(s.ctx, consolidation.MergeRequest{PrimaryID: primary.ID, MergedID: "00000000-0000-0000-0000-000000000000"})
	s.True(errs.IsNotFound(err))

	_, err = s.contacts.Get(s.ctx, primary.ID)
	s.NoError(err)
	s.Empty(s.history())
}

type brokenRecorder struct{}

func (brokenRecorder) Record(context.Context, models.RecordMergeInput) (*models.MergeHistory, error) {
	return nil, errs.StorageFailure("ledger offline")
}

func TestMerge_LedgerFailureKeepsMerge(t *testing.T) {
	ctx := context.Background()
	log := testutil.Logger()
	store := memory.New()
	contactSvc := contacts.NewService(log, store.Contacts(), store.ContactOwners(), scoring.DefaultPolicy(), store, contacts.DefaultConfig())
	relSvc := relationships.NewService(log, store.Contacts(), store.Owners(), store.Tags(), store.ContactOwners(), store.ContactTags(), store, relationships.Config{})
	svc := consolidation.NewService(log, contactSvc, relSvc, ledger.NewBestEffort(brokenRecorder{}, log), store, "")

	primary, err := contactSvc.Create(ctx, models.CreateContactInput{Name: "A", CompanyName: "Unknown", SourceSystem: models.SourceSystemManual, SourceRecordID: "1"})
	require.NoError(t, err)
	merged, err := contactSvc.Create(ctx, models.CreateContactInput{Name: "B", CompanyName: "Unknown", Email: ptr("b@example.com"), SourceSystem: models.SourceSystemManual, SourceRecordID: "2"})
	require.NoError(t, err)

	result, err := svc.Merge(ctx, consolidation.MergeRequest{PrimaryID: primary.ID, MergedID: merged.ID})
	require.NoError(t, err)
	assert.Nil(t, result.History)
	assert.Equal(t, "b@example.com", *result.Contact.Email)

	_, err = contactSvc.Get(ctx, merged.ID)
	assert.True(t, errs.IsNotFound(err))
}
