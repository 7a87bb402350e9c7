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

// Package fees implements the one-time wallet maintenance fee: scheduling at
// signup, referral exemption, the per-user charge state machine, the batch
// sweep over due users and the gate consulted before wallet actions.
package fees

import (
	"fmt"
	"strings"
	"time"

	"token-wallet-go/internal/models"
	"token-wallet-go/internal/store"

	"github.com/shopspring/decimal"
)

// ErrWalletLocked aliases the store sentinel returned by in-transaction lock checks.
var ErrWalletLocked = store.ErrWalletLocked

// MissingReceiverPolicy decides what happens when no admin wallet can receive a fee.
type MissingReceiverPolicy string

const (
	// MissingReceiverReject leaves the user unprocessed so the next run retries.
	MissingReceiverReject MissingReceiverPolicy = "reject"
	// MissingReceiverSkip charges anyway and books the credit to the suspense account.
	MissingReceiverSkip MissingReceiverPolicy = "skip"
)

const (
	DefaultFeeAmount            = 2
	DefaultFreeTrialDays        = 30
	DefaultMinimumReferralStake = 20
	DefaultCurrency             = "USD"
)

// Policy holds the validated fee constants.
type Policy struct {
	Amount               decimal.Decimal
	Currency             string
	FreeTrialDays        int
	MinimumReferralStake decimal.Decimal
	MissingReceiver      MissingReceiverPolicy
}

func DefaultPolicy() Policy {
	return Policy{
		Amount:               decimal.NewFromInt(DefaultFeeAmount),
		Currency:             DefaultCurrency,
		FreeTrialDays:        DefaultFreeTrialDays,
		MinimumReferralStake: decimal.NewFromInt(DefaultMinimumReferralStake),
		MissingReceiver:      MissingReceiverReject,
	}
}

// NewPolicy validates cfg. Empty fields fall back to the defaults.
func NewPolicy(cfg models.FeeConfig) (Policy, error) {
	policy := DefaultPolicy()

	if !cfg.Amount.IsZero() {
		policy.Amount = cfg.Amount
	}
	if cfg.Currency != "" {
		policy.Currency = strings.ToUpper(cfg.Currency)
	}
	if cfg.FreeTrialDays != 0 {
		policy.FreeTrialDays = cfg.FreeTrialDays
	}
	if !cfg.MinimumReferralStake.IsZero() {
		policy.MinimumReferralStake = cfg.MinimumReferralStake
	}
	if cfg.MissingReceiverPolicy != "" {
		policy.MissingReceiver = MissingReceiverPolicy(strings.ToLower(cfg.MissingReceiverPolicy))
	}

	if !policy.Amount.IsPositive() {
		return Policy{}, fmt.Errorf("wallet fee amount must be positive, got %s", policy.Amount.String())
	}
	if policy.FreeTrialDays <= 0 {
		return Policy{}, fmt.Errorf("free trial days must be positive, got %d", policy.FreeTrialDays)
	}
	if policy.MinimumReferralStake.IsNegative() {
		return Policy{}, fmt.Errorf("minimum referral stake cannot be negative, got %s", policy.MinimumReferralStake.String())
	}
	switch policy.MissingReceiver {
	case MissingReceiverReject, MissingReceiverSkip:
	default:
		return Policy{}, fmt.Errorf("unknown missing receiver policy: %s", policy.MissingReceiver)
	}

	return policy, nil
}

// DueDate is the end of the free trial for an account created at createdAt.
func (p Policy) DueDate(createdAt time.Time) time.Time {
	return createdAt.UTC().AddDate(0, 0, p.FreeTrialDays)
}

func (p Policy) formatAmount(amount decimal.Decimal) string {
	return amount.String() + " " + p.Currency
}
