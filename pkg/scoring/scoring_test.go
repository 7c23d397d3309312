package scoring

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PranayGaynarIKF/Address-Book-sub002/pkg/errs"
	"github.com/PranayGaynarIKF/Address-Book-sub002/pkg/models"
)

func ptr[T any](v T) *T { return &v }

func TestPolicy_Score(t *testing.T) {
	policy := DefaultPolicy()
	client := models.RelationshipTypeClient

	tests := []struct {
		name  string
		attrs Attributes
		want  int
	}{
		{
			name: "complete record from trusted source",
			attrs: Attributes{
				Mobile:           ptr("+919876543210"),
				Email:            ptr("test@example.com"),
				CompanyName:      "Test Corp",
				RelationshipType: &client,
				SourceSystem:     models.SourceSystemZoho,
			},
			want: 100,
		},
		{
			name: "unknown company from untrusted source",
			attrs: Attributes{
				Mobile:           ptr("+919876543210"),
				Email:            ptr("test@example.com"),
				CompanyName:      "Unknown",
				RelationshipType: &client,
				SourceSystem:     models.SourceSystemMobile,
			},
			want: 75,
		},
		{
			name:  "nothing but a name",
			attrs: Attributes{CompanyName: "Unknown", SourceSystem: models.SourceSystemManual},
			want:  0,
		},
		{
			name:  "empty strings do not count",
			attrs: Attributes{Mobile: ptr(""), Email: ptr(""), CompanyName: "", SourceSystem: models.SourceSystemGmail},
			want:  0,
		},
		{
			name:  "trusted invoice source alone",
			attrs: Attributes{CompanyName: "Unknown", SourceSystem: models.SourceSystemInvoice},
			want:  10,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, policy.Score(tt.attrs))
		})
	}
}

func TestPolicy_ScoreIsBoundedAndPure(t *testing.T) {
	policy := DefaultPolicy()
	mobiles := []*string{nil, ptr(""), ptr("+14155550100")}
	emails := []*string{nil, ptr(""), ptr("a@b.co")}
	companies := []string{"", "Unknown", "Acme"}
	types := []*models.RelationshipType{nil}
	for _, rt := range models.RelationshipTypes {
		types = append(types, ptr(rt))
	}

	for _, mobile := range mobiles {
		for _, email := range emails {
			for _, company := range companies {
				for _, rt := range types {
					for _, source := range models.SourceSystems {
						attrs := Attributes{Mobile: mobile, Email: email, CompanyName: company, RelationshipType: rt, SourceSystem: source}
						first := policy.Score(attrs)
						assert.GreaterOrEqual(t, first, 0)
						assert.LessOrEqual(t, first, MaxScore)
						assert.Equal(t, first, policy.Score(attrs))
					}
				}
			}
		}
	}
	assert.Equal(t, 100, MaxScore)
}

func TestPolicy_ConfigurableTrustedSources(t *testing.T) {
	policy := NewPolicy([]models.SourceSystem{models.SourceSystemGmail}, "")
	assert.Equal(t, 10, policy.Score(Attributes{SourceSystem: models.SourceSystemGmail}))
	assert.Equal(t, 0, policy.Score(Attributes{SourceSystem: models.SourceSystemZoho}))
	assert.Equal(t, DefaultUnknownCompany, policy.UnknownCompany())
}

func TestLoadPolicy(t *testing.T) {
	dir := t.TempDir()

	t.Run("overrides base", func(t *testing.T) {
		path := filepath.Join(dir, "policy.yaml")
		require.NoError(t, os.WriteFile(path, []byte("trusted_sources: [ MOBILE ]\nunknown_company: N/A\n"), 0o600))

		policy, err := LoadPolicy(path, DefaultPolicy())
		require.NoError(t, err)
		assert.True(t, policy.IsTrusted(models.SourceSystemMobile))
		assert.False(t, policy.IsTrusted(models.SourceSystemZoho))
		assert.Equal(t, "N/A", policy.UnknownCompany())
	})

	t.Run("missing keys keep base", func(t *testing.T) {
		path := filepath.Join(dir, "empty.yaml")
		require.NoError(t, os.WriteFile(path, []byte("{}\n"), 0o600))

		policy, err := LoadPolicy(path, DefaultPolicy())
		require.NoError(t, err)
		assert.True(t, policy.IsTrusted(models.SourceSystemInvoice))
		assert.Equal(t, "Unknown", policy.UnknownCompany())
	})

	t.Run("invalid source", func(t *testing.T) {
		path := filepath.Join(dir, "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("trusted_sources: [FAX]\n"), 0o600))

		_, err := LoadPolicy(path, DefaultPolicy())
		assert.True(t, errs.IsInvalidInput(err))
	})
}
