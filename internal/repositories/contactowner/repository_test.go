package contactowner

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

	removed, err := repo.Remove(ctx, "not-a-uuid", valid)
	require.NoError(t, err)
	assert.False(t, removed)

	removed, err = repo.Remove(ctx, valid, "not-a-uuid")
	require.NoError(t, err)
	assert.False(t, removed)

	_, err = repo.Add(ctx, valid, "not-a-uuid")
	assert.True(t, errs.IsNotFound(err))

	owners, err := repo.ListForContact(ctx, "not-a-uuid")
	require.NoError(t, err)
	assert.Empty(t, owners)
}
