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

package fees

import (
	"context"
	"fmt"
	"time"

	"token-wallet-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ReferralEvaluator decides whether a referrer is exempt from the wallet fee.
type ReferralEvaluator struct {
	minimumStake decimal.Decimal
}

func NewReferralEvaluator(minimumStake decimal.Decimal) *ReferralEvaluator {
	return &ReferralEvaluator{minimumStake: minimumStake}
}

// CheckReferralExemption reports whether any user referred by referrerId
// staked at least the minimum on or before cutoff. It stops at the first
// qualifying referral. Reads go through reader so the check can share the
// caller's transaction.
func (e *ReferralEvaluator) CheckReferralExemption(ctx context.Context, reader store.ReferralReader, referrerId string, cutoff time.Time) (bool, error) {
	referredIds, err := reader.ListReferredUserIds(ctx, referrerId)
	if err != nil {
		return false, fmt.Errorf("failed to list referrals for %s: %w", referrerId, err)
	}

	for _, referredId := range referredIds {
		qualifies, err := reader.HasQualifyingStake(ctx, referredId, e.minimumStake, cutoff)
		if err != nil {
			return false, fmt.Errorf("failed to check stakes for %s: %w", referredId, err)
		}
		if qualifies {
			zap.L().Debug("Referral exemption found",
				zap.String("referrer_id", referrerId),
				zap.String("referred_id", referredId))
			return true, nil
		}
	}

	return false, nil
}
