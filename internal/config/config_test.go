// Copyright (c) 2025-2026 Tarikh al-Islam contributors
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validSecret = "Xk9#mP2$vL8@nQ4!wR7&yT3*zU6^aB1%"

func TestLoadDefaults(t *testing.T) {
	t.Setenv("TARIKH_SESSION_SECRET", validSecret)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "./data/tarikh.db", cfg.DBPath)
	assert.Equal(t, "localhost:8080", cfg.ServerAddr())
	assert.True(t, cfg.IsDevelopment())
	assert.False(t, cfg.UseRedisCache())
	assert.Equal(t, 300, cfg.CacheTTL)
	assert.Equal(t, 30, cfg.DeletedRetentionDays)
	assert.False(t, cfg.DoSeed)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("TARIKH_SESSION_SECRET", validSecret)
	t.Setenv("TARIKH_SERVER_HOST", "0.0.0.0")
	t.Setenv("TARIKH_SERVER_PORT", "9000")
	t.Setenv("TARIKH_ENV", "production")
	t.Setenv("TARIKH_REDIS_URL", "redis://localhost:6379/0")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:9000", cfg.ServerAddr())
	assert.False(t, cfg.IsDevelopment())
	assert.True(t, cfg.UseRedisCache())
}

func TestLoadRejectsMissingSecret(t *testing.T) {
	t.Setenv("TARIKH_SESSION_SECRET", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRejectsShortSecret(t *testing.T) {
	t.Setenv("TARIKH_SESSION_SECRET", "too-short")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least 32 bytes")
}

func TestLoadRejectsKnownWeakSecret(t *testing.T) {
	t.Setenv("TARIKH_SESSION_SECRET", "change-me-to-32-byte-secret-key!")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "known default")
}

func TestHasMinimumEntropy(t *testing.T) {
	assert.True(t, hasMinimumEntropy("abcDEF123"))
	assert.True(t, hasMinimumEntropy("abc123!@#"))
	assert.False(t, hasMinimumEntropy("abcdefghij"))
	assert.False(t, hasMinimumEntropy("abc123"))
}
