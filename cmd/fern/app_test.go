package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PranayGaynarIKF/Address-Book-sub002/config"
	"github.com/PranayGaynarIKF/Address-Book-sub002/pkg/models"
)

func TestScoringPolicy(t *testing.T) {
	t.Run("from config", func(t *testing.T) {
		policy, err := scoringPolicy(&config.Config{TrustedSources: []string{"INVOICE"}, UnknownCompany: "N/A"})
		require.NoError(t, err)
		assert.True(t, policy.IsTrusted(models.SourceSystemInvoice))
		assert.False(t, policy.IsTrusted(models.SourceSystemZoho))
		assert.Equal(t, "N/A", policy.UnknownCompany())
	})

	t.Run("file overrides config", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "policy.yaml")
		require.NoError(t, os.WriteFile(path, []byte("trusted_sources: [ZOHO]\n"), 0o600))

		policy, err := scoringPolicy(&config.Config{
			TrustedSources:    []string{"INVOICE"},
			UnknownCompany:    "Unknown",
			ScoringPolicyFile: path,
		})
		require.NoError(t, err)
		assert.True(t, policy.IsTrusted(models.SourceSystemZoho))
		assert.False(t, policy.IsTrusted(models.SourceSystemInvoice))
		assert.Equal(t, "Unknown", policy.UnknownCompany())
	})

	t.Run("unknown source", func(t *testing.T) {
		_, err := scoringPolicy(&config.Config{TrustedSources: []string{"FAX"}})
		assert.Error(t, err)
	})
}

func TestNewLogger(t *testing.T) {
	_, err := newLogger(&config.Config{LogLevel: "debug", AppName: "fern-api"})
	assert.NoError(t, err)

	_, err = newLogger(&config.Config{LogLevel: "loud"})
	assert.Error(t, err)
}
