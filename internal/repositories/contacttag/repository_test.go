package contacttag

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PranayGaynarIKF/Address-Book-sub002/internal/testutil"
	"github.com/PranayGaynarIKF/Address-Book-sub002/pkg/errs"
)

// Malformed ids are answered before any query runs, so a nil DB is enough.
func TestMalformedIDs(t *testing.T) {
	repo := NewRepository(nil, testutil.Logger())
	ctx := context.Background()
	valid := uuid.New().String()

	t.Run("remove reports no pair", func(t *testing.T) {
		for _, ids := range [][2]string{{"not-a-uuid", valid}, {valid, "not-a-uuid"}} {
			removed, err := repo.Remove(ctx, ids[0], ids[1])
			require.NoError(t, err)
			assert.False(t, removed)
		}
	})

	t.Run("add is not found", func(t *testing.T) {
		_, err := repo.Add(ctx, "not-a-uuid", valid)
		assert.True(t, errs.IsNotFound(err))
	})

	t.Run("reads are empty", func(t *testing.T) {
		tags, err := repo.ListForContact(ctx, "not-a-uuid")
		require.NoError(t, err)
		assert.Empty(t, tags)

		contacts, err := repo.ListContacts(ctx, "not-a-uuid", false)
		require.NoError(t, err)
		assert.Empty(t, contacts)

		count, err := repo.CountContacts(ctx, "not-a-uuid")
		require.NoError(t, err)
		assert.Zero(t, count)
	})
}
