/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"token-wallet-go/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"DB_DRIVER", "DATABASE_PATH", "WALLET_FEE_AMOUNT", "WALLET_FEE_CURRENCY",
		"FREE_TRIAL_DAYS", "MINIMUM_REFERRAL_STAKE", "FEE_MISSING_RECEIVER_POLICY", "FEE_POLICY_FILE",
		"FEE_RUN_INTERVAL", "HTTP_ADDR", "FORMANCE_STACK_URL", "ARCHIVE_S3_BUCKET"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite3", cfg.Database.Driver)
	assert.Equal(t, "wallet.db", cfg.Database.Path)
	assert.True(t, cfg.Fees.Amount.Equal(decimal.NewFromInt(2)))
	assert.Equal(t, "USD", cfg.Fees.Currency)
	assert.Equal(t, 30, cfg.Fees.FreeTrialDays)
	assert.True(t, cfg.Fees.MinimumReferralStake.Equal(decimal.NewFromInt(20)))
	assert.Equal(t, "reject", cfg.Fees.MissingReceiverPolicy)
	assert.Equal(t, time.Duration(0), cfg.Batch.RunInterval)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.False(t, cfg.Formance.Enabled())
	assert.False(t, cfg.Archive.Enabled())
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("DB_DRIVER", "pgx")
	t.Setenv("DATABASE_URL", "postgres://wallet@localhost/wallet")
	t.Setenv("WALLET_FEE_AMOUNT", "3.50")
	t.Setenv("FREE_TRIAL_DAYS", "14")
	t.Setenv("FEE_RUN_INTERVAL", "1h")
	t.Setenv("FEE_MISSING_RECEIVER_POLICY", "skip")
	t.Setenv("ARCHIVE_S3_BUCKET", "reports")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "pgx", cfg.Database.Driver)
	assert.Equal(t, "postgres://wallet@localhost/wallet", cfg.Database.URL)
	assert.True(t, cfg.Fees.Amount.Equal(decimal.RequireFromString("3.5")))
	assert.Equal(t, 14, cfg.Fees.FreeTrialDays)
	assert.Equal(t, time.Hour, cfg.Batch.RunInterval)
	assert.Equal(t, "skip", cfg.Fees.MissingReceiverPolicy)
	assert.True(t, cfg.Archive.Enabled())
}

func TestLoadRejectsMalformedValues(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"WALLET_FEE_AMOUNT", "two dollars"},
		{"MINIMUM_REFERRAL_STAKE", "lots"},
		{"FEE_USER_TIMEOUT", "ten"},
		{"HTTP_READ_TIMEOUT", "15"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			assert.ErrorContains(t, err, tt.key)
		})
	}
}

func TestLoadFeePolicyFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fees.yaml")
	content := `wallet_fee:
  amount: "5.25"
  currency: EUR
  free_trial_days: 7
  minimum_referral_stake: "100"
  missing_receiver_policy: skip
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg := models.FeeConfig{Amount: decimal.NewFromInt(2), Currency: "USD", FreeTrialDays: 30}
	require.NoError(t, LoadFeePolicyFile(path, &cfg))

	assert.True(t, cfg.Amount.Equal(decimal.RequireFromString("5.25")))
	assert.Equal(t, "EUR", cfg.Currency)
	assert.Equal(t, 7, cfg.FreeTrialDays)
	assert.True(t, cfg.MinimumReferralStake.Equal(decimal.NewFromInt(100)))
	assert.Equal(t, "skip", cfg.MissingReceiverPolicy)
}

func TestLoadFeePolicyFileKeepsUnsetKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fees.yaml")
	require.NoError(t, os.WriteFile(path, []byte("wallet_fee:\n  free_trial_days: 10\n"), 0o600))

	cfg := models.FeeConfig{Amount: decimal.NewFromInt(2), Currency: "USD", FreeTrialDays: 30}
	require.NoError(t, LoadFeePolicyFile(path, &cfg))

	assert.True(t, cfg.Amount.Equal(decimal.NewFromInt(2)))
	assert.Equal(t, "USD", cfg.Currency)
	assert.Equal(t, 10, cfg.FreeTrialDays)
}

func TestLoadFeePolicyFileErrors(t *testing.T) {
	_, err := os.Stat("does-not-exist.yaml")
	require.True(t, os.IsNotExist(err))

	cfg := models.FeeConfig{}
	assert.Error(t, LoadFeePolicyFile("does-not-exist.yaml", &cfg))

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("wallet_fee:\n  amount: \"abc\"\n"), 0o600))
	assert.ErrorContains(t, LoadFeePolicyFile(bad, &cfg), "wallet_fee.amount")
}

func TestLoadWithPolicyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fees.yaml")
	require.NoError(t, os.WriteFile(path, []byte("wallet_fee:\n  amount: \"4\"\n"), 0o600))
	t.Setenv("FEE_POLICY_FILE", path)

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.Fees.Amount.Equal(decimal.NewFromInt(4)))
}
