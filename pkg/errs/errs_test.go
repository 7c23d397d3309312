package errs

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{name: "nil", err: nil, want: KindNone},
		{name: "not found", err: NotFound("contact %s not found", "c-1"), want: KindNotFound},
		{name: "conflict", err: Conflict("tag %q already exists", "VIP"), want: KindConflict},
		{name: "invalid input", err: InvalidInput("name is required"), want: KindInvalidInput},
		{name: "unprocessable", err: httperror.NewHTTPError(http.StatusUnprocessableEntity, "bad"), want: KindInvalidInput},
		{name: "storage failure", err: StorageFailure("failed to insert contact"), want: KindStorageFailure},
		{name: "foreign error", err: errors.New("driver: bad connection"), want: KindStorageFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestPredicates(t *testing.T) {
	assert.True(t, IsNotFound(NotFound("owner %s not found", "o-1")))
	assert.True(t, IsConflict(Conflict("duplicate")))
	assert.True(t, IsInvalidInput(InvalidInput("limit must be at least 1")))
	assert.True(t, IsStorageFailure(fmt.Errorf("wrapped: %w", errors.New("boom"))))
	assert.False(t, IsNotFound(nil))
}
