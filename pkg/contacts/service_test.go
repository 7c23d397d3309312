package contacts_test

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PranayGaynarIKF/Address-Book-sub002/internal/repositories/memory"
	"github.com/PranayGaynarIKF/Address-Book-sub002/internal/testutil"
	"github.com/PranayGaynarIKF/Address-Book-sub002/pkg/contacts"
	"github.com/PranayGaynarIKF/Address-Book-sub002/pkg/errs"
	"github.com/PranayGaynarIKF/Address-Book-sub002/pkg/models"
	"github.com/PranayGaynarIKF/Address-Book-sub002/pkg/scoring"
)

func ptr[T any](v T) *T { return &v }

type fixture struct {
	svc   *contacts.Service
	store *memory.Store
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := memory.New()
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	clock := func() time.Time {
		now = now.Add(time.Second)
		return now
	}

	svc := contacts.NewService(
		testutil.Logger(),
		store.Contacts(),
		store.ContactOwners(),
		scoring.DefaultPolicy(),
		store,
		contacts.Config{MaxPageSize: 50, Now: clock},
	)
	return &fixture{svc: svc, store: store}
}

func validInput(name, mobile string) models.CreateContactInput {
	input := models.CreateContactInput{
		Name:           name,
		CompanyName:    "Test Corp",
		SourceSystem:   models.SourceSystemZoho,
		SourceRecordID: "zoho-" + name,
	}
	if mobile != "" {
		input.Mobile = ptr(mobile)
	}
	return input
}

func TestCreate_ScoresAndPersists(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	input := validInput("Test Contact", "+919876543210")
	input.Email = ptr("test@example.com")
	input.RelationshipType = ptr(models.RelationshipTypeClient)

	created, err := f.svc.Create(ctx, input)
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, 100, created.DataQualityScore)
	assert.False(t, created.IsWhatsappReachable)

	stored, err := f.svc.FindOne(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 100, stored.DataQualityScore)
	assert.Empty(t, stored.Owners)
}

func TestCreate_IdentityKey(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, validInput("Test Contact", "+919876543210"))
	require.NoError(t, err)

	t.Run("same name and mobile conflicts", func(t *testing.T) {
		_, err := f.svc.Create(ctx, validInput("Test Contact", "+919876543210"))
		assert.True(t, errs.IsConflict(err))
	})

	t.Run("different name with same mobile succeeds", func(t *testing.T) {
		_, err := f.svc.Create(ctx, validInput("Other Contact", "+919876543210"))
		assert.NoError(t, err)
	})

	t.Run("name differing only in whitespace is a different identity", func(t *testing.T) {
		_, err := f.svc.Create(ctx, validInput("Test Contact ", "+919876543210"))
		assert.NoError(t, err)
	})

	t.Run("no mobile never conflicts", func(t *testing.T) {
		_, err := f.svc.Create(ctx, validInput("No Phone", ""))
		require.NoError(t, err)
		_, err = f.svc.Create(ctx, validInput("No Phone", ""))
		assert.NoError(t, err)
	})
}

func TestCreate_InvalidInput(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name   string
		mutate func(*models.CreateContactInput)
	}{
		{name: "missing name", mutate: func(in *models.CreateContactInput) { in.Name = " " }},
		{name: "missing company", mutate: func(in *models.CreateContactInput) { in.CompanyName = "" }},
		{name: "missing source record", mutate: func(in *models.CreateContactInput) { in.SourceRecordID = "" }},
		{name: "unknown source system", mutate: func(in *models.CreateContactInput) { in.SourceSystem = "FAX" }},
		{name: "unknown relationship type", mutate: func(in *models.CreateContactInput) { in.RelationshipType = ptr(models.RelationshipType("FRIEND")) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := validInput("Someone", "+10000000000")
			tt.mutate(&input)
			_, err := f.svc.Create(context.Background(), input)
			assert.True(t, errs.IsInvalidInput(err))
		})
	}
}

func TestUpdate_CollisionLeavesRowUnchanged(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, validInput("Shared Name", "+911111111111"))
	require.NoError(t, err)
	target, err := f.svc.Create(ctx, validInput("Shared Name", "+922222222222"))
	require.NoError(t, err)

	_, err = f.svc.Update(ctx, target.ID, models.UpdateContactInput{
		Mobile:      models.Some("+911111111111"),
		CompanyName: ptr("Renamed Corp"),
	})
	require.True(t, errs.IsConflict(err))

	reread, err := f.svc.FindOne(ctx, target.ID)
	require.NoError(t, err)
	assert.Equal(t, "+922222222222", *reread.Mobile)
	assert.Equal(t, "Test Corp", reread.CompanyName)
}

func TestUpdate_ExcludesSelfFromIdentityCheck(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, validInput("Self", "+933333333333"))
	require.NoError(t, err)

	updated, err := f.svc.Update(ctx, created.ID, models.UpdateContactInput{
		Name:   ptr("Self"),
		Mobile: models.Some("+933333333333"),
	})
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
}

func TestUpdate_RecomputesScore(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	input := validInput("Scored", "+944444444444")
	input.Email = ptr("scored@example.com")
	created, err := f.svc.Create(ctx, input)
	require.NoError(t, err)
	require.Equal(t, 40+20+15+10, created.DataQualityScore)

	t.Run("clearing email with null", func(t *testing.T) {
		updated, err := f.svc.Update(ctx, created.ID, models.UpdateContactInput{Email: models.Null[string]()})
		require.NoError(t, err)
		assert.Nil(t, updated.Email)
		assert.Equal(t, 40+15+10, updated.DataQualityScore)
	})

	t.Run("setting relationship type", func(t *testing.T) {
		updated, err := f.svc.Update(ctx, created.ID, models.UpdateContactInput{RelationshipType: models.Some(models.RelationshipTypeLead)})
		require.NoError(t, err)
		assert.Equal(t, 40+15+15+10, updated.DataQualityScore)
	})

	t.Run("company becomes unknown and source untrusted", func(t *testing.T) {
		source := models.SourceSystemMobile
		updated, err := f.svc.Update(ctx, created.ID, models.UpdateContactInput{CompanyName: ptr("Unknown"), SourceSystem: &source})
		require.NoError(t, err)
		assert.Equal(t, 40+15, updated.DataQualityScore)
	})

	t.Run("omitted fields are untouched", func(t *testing.T) {
		updated, err := f.svc.Update(ctx, created.ID, models.UpdateContactInput{IsWhatsappReachable: ptr(true)})
		require.NoError(t, err)
		assert.True(t, updated.IsWhatsappReachable)
		assert.Equal(t, "+944444444444", *updated.Mobile)
		assert.Equal(t, models.RelationshipTypeLead, *updated.RelationshipType)
	})

	t.Run("empty string clears mobile", func(t *testing.T) {
		updated, err := f.svc.Update(ctx, created.ID, models.UpdateContactInput{Mobile: models.Some("")})
		require.NoError(t, err)
		assert.Nil(t, updated.Mobile)
		assert.Equal(t, 15, updated.DataQualityScore)
	})
}

func TestUpdate_NotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Update(context.Background(), "2f1d4c55-0000-4000-8000-000000000000", models.UpdateContactInput{Name: ptr("x")})
	assert.True(t, errs.IsNotFound(err))
}

func TestFindOne_ResolvesOwners(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, validInput("Owned", ""))
	require.NoError(t, err)
	require.NoError(t, f.store.Owners().Insert(ctx, &models.Owner{ID: "o-2", Name: "Zed", IsActive: true}))
	require.NoError(t, f.store.Owners().Insert(ctx, &models.Owner{ID: "o-1", Name: "Ana", IsActive: true}))
	_, err = f.store.ContactOwners().Add(ctx, created.ID, "o-2")
	require.NoError(t, err)
	_, err = f.store.ContactOwners().Add(ctx, created.ID, "o-1")
	require.NoError(t, err)

	found, err := f.svc.FindOne(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, found.Owners, 2)
	assert.Equal(t, "Ana", found.Owners[0].Name)
	assert.Equal(t, "Zed", found.Owners[1].Name)

	_, err = f.svc.FindOne(ctx, "missing")
	assert.True(t, errs.IsNotFound(err))
}

func TestRemove(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, validInput("Doomed", "+955555555555"))
	require.NoError(t, err)

	require.NoError(t, f.svc.Remove(ctx, created.ID))
	assert.True(t, errs.IsNotFound(f.svc.Remove(ctx, created.ID)))

	_, err = f.svc.FindOne(ctx, created.ID)
	assert.True(t, errs.IsNotFound(err))

	// the identity key is free again
	_, err = f.svc.Create(ctx, validInput("Doomed", "+955555555555"))
	assert.NoError(t, err)
}

func TestFindAll(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first := validInput("Alice Zephyr", "+961111111111")
	first.Email = ptr("alice@acme.io")
	first.CompanyName = "Acme"
	first.RelationshipType = ptr(models.RelationshipTypeClient)
	first.IsWhatsappReachable = true
	alice, err := f.svc.Create(ctx, first)
	require.NoError(t, err)

	second := validInput("Bob Yarrow", "")
	second.CompanyName = "Unknown"
	second.SourceSystem = models.SourceSystemGmail
	bob, err := f.svc.Create(ctx, second)
	require.NoError(t, err)

	third := validInput("Carol Xu", "+963333333333")
	third.CompanyName = "Globex"
	carol, err := f.svc.Create(ctx, third)
	require.NoError(t, err)

	t.Run("newest first with total", func(t *testing.T) {
		page, err := f.svc.FindAll(ctx, models.ContactFilter{Page: 1, Limit: 2})
		require.NoError(t, err)
		assert.Equal(t, 3, page.Total)
		assert.Equal(t, 2, page.Limit)
		require.Len(t, page.Data, 2)
		assert.Equal(t, carol.ID, page.Data[0].ID)
		assert.Equal(t, bob.ID, page.Data[1].ID)

		next, err := f.svc.FindAll(ctx, models.ContactFilter{Page: 2, Limit: 2})
		require.NoError(t, err)
		require.Len(t, next.Data, 1)
		assert.Equal(t, alice.ID, next.Data[0].ID)
	})

	t.Run("search is case-insensitive across fields", func(t *testing.T) {
		page, err := f.svc.FindAll(ctx, models.ContactFilter{Search: "ACME", Page: 1, Limit: 10})
		require.NoError(t, err)
		require.Len(t, page.Data, 1)
		assert.Equal(t, alice.ID, page.Data[0].ID)
	})

	t.Run("combined filters", func(t *testing.T) {
		page, err := f.svc.FindAll(ctx, models.ContactFilter{
			MinScore:            ptr(alice.DataQualityScore),
			IsWhatsappReachable: ptr(true),
			RelationshipType:    ptr(models.RelationshipTypeClient),
			Page:                1,
			Limit:               10,
		})
		require.NoError(t, err)
		assert.Equal(t, 1, page.Total)

		page, err = f.svc.FindAll(ctx, models.ContactFilter{SourceSystem: ptr(models.SourceSystemGmail), Page: 1, Limit: 10})
		require.NoError(t, err)
		require.Len(t, page.Data, 1)
		assert.Equal(t, bob.ID, page.Data[0].ID)

		page, err = f.svc.FindAll(ctx, models.ContactFilter{Company: "glob", Page: 1, Limit: 10})
		require.NoError(t, err)
		require.Len(t, page.Data, 1)
		assert.Equal(t, carol.ID, page.Data[0].ID)
	})

	t.Run("owner name", func(t *testing.T) {
		require.NoError(t, f.store.Owners().Insert(ctx, &models.Owner{ID: "owner-1", Name: "Sales East"}))
		_, err := f.store.ContactOwners().Add(ctx, carol.ID, "owner-1")
		require.NoError(t, err)

		page, err := f.svc.FindAll(ctx, models.ContactFilter{OwnerName: "sales east", Page: 1, Limit: 10})
		require.NoError(t, err)
		require.Len(t, page.Data, 1)
		assert.Equal(t, carol.ID, page.Data[0].ID)
	})

	t.Run("limit zero is rejected", func(t *testing.T) {
		_, err := f.svc.FindAll(ctx, models.ContactFilter{Page: 1, Limit: 0})
		assert.True(t, errs.IsInvalidInput(err))
	})

	t.Run("page zero is rejected", func(t *testing.T) {
		_, err := f.svc.FindAll(ctx, models.ContactFilter{Page: 0, Limit: 10})
		assert.True(t, errs.IsInvalidInput(err))
	})

	t.Run("limit above maximum is clamped", func(t *testing.T) {
		page, err := f.svc.FindAll(ctx, models.ContactFilter{Page: 1, Limit: 500})
		require.NoError(t, err)
		assert.Equal(t, 50, page.Limit)
	})

	t.Run("page whose offset overflows is rejected", func(t *testing.T) {
		_, err := f.svc.FindAll(ctx, models.ContactFilter{Page: math.MaxInt/10 + 2, Limit: 10})
		assert.True(t, errs.IsInvalidInput(err))
	})

	t.Run("page past the end is empty", func(t *testing.T) {
		page, err := f.svc.FindAll(ctx, models.ContactFilter{Page: 9, Limit: 10})
		require.NoError(t, err)
		assert.NotNil(t, page.Data)
		assert.Empty(t, page.Data)
		assert.Equal(t, 3, page.Total)
	})
}
