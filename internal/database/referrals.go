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

package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"token-wallet-go/internal/models"
	"token-wallet-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func (s *Service) CreateReferral(ctx context.Context, referrerId, referredId string, at time.Time) (*models.Referral, error) {
	return insertReferral(ctx, s.db, referrerId, referredId, movementTime(at))
}

// insertReferral records the referral edge. The referrer is checked
// explicitly so the outcome does not depend on foreign key enforcement.
func insertReferral(ctx context.Context, db dbtx, referrerId, referredId string, at time.Time) (*models.Referral, error) {
	var count int
	if err := db.QueryRowContext(ctx, queryUserExists, referrerId).Scan(&count); err != nil {
		return nil, fmt.Errorf("unable to check referrer: %w", err)
	}
	if count == 0 {
		return nil, fmt.Errorf("%w: %s", store.ErrReferrerNotFound, referrerId)
	}

	referral := &models.Referral{
		Id:         newId(),
		ReferrerId: referrerId,
		ReferredId: referredId,
		CreatedAt:  at.UTC(),
	}
	_, err := db.ExecContext(ctx, queryInsertReferral,
		referral.Id, referral.ReferrerId, referral.ReferredId, referral.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("user %s already has a referrer", referredId)
		}
		return nil, fmt.Errorf("unable to insert referral: %w", err)
	}

	zap.L().Info("Referral recorded",
		zap.String("referrer_id", referrerId),
		zap.String("referred_id", referredId))
	return referral, nil
}

func (s *Service) CreateStake(ctx context.Context, params store.CreateStakeParams) (*models.Stake, error) {
	if !params.AmountStaked.IsPositive() {
		return nil, store.ErrInvalidAmount
	}
	createdAt := movementTime(params.CreatedAt)
	startDate := params.StartDate.UTC()
	if params.StartDate.IsZero() {
		startDate = createdAt
	}
	status := params.Status
	if status == "" {
		status = "ACTIVE"
	}

	stake := &models.Stake{
		Id:            newId(),
		UserId:        params.UserId,
		AmountStaked:  params.AmountStaked,
		DurationDays:  params.DurationDays,
		RewardPercent: params.RewardPercent,
		StartDate:     startDate,
		EndDate:       startDate.AddDate(0, 0, params.DurationDays),
		Status:        status,
		CreatedAt:     createdAt,
	}
	_, err := s.db.ExecContext(ctx, queryInsertStake,
		stake.Id, stake.UserId, stake.AmountStaked, stake.DurationDays, stake.RewardPercent,
		stake.StartDate, stake.EndDate, stake.Status, stake.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("unable to insert stake: %w", err)
	}
	return stake, nil
}

func (s *Service) ListReferredUserIds(ctx context.Context, referrerId string) ([]string, error) {
	return listReferredUserIds(ctx, s.db, referrerId)
}

func (s *Service) HasQualifyingStake(ctx context.Context, userId string, minimum decimal.Decimal, cutoff time.Time) (bool, error) {
	return hasQualifyingStake(ctx, s.db, userId, minimum, cutoff)
}

// listReferredUserIds drains the result set before returning so callers may
// issue further queries on the same transaction.
func listReferredUserIds(ctx context.Context, db dbtx, referrerId string) ([]string, error) {
	rows, err := db.QueryContext(ctx, queryListReferredUserIds, referrerId)
	if err != nil {
		return nil, fmt.Errorf("unable to query referrals: %w", err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			zap.L().Warn("Failed to close rows", zap.Error(err))
		}
	}(rows)

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("unable to scan referral row: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating referral rows: %w", err)
	}
	return ids, nil
}

func hasQualifyingStake(ctx context.Context, db dbtx, userId string, minimum decimal.Decimal, cutoff time.Time) (bool, error) {
	var count int
	if err := db.QueryRowContext(ctx, queryHasQualifyingStake, userId, minimum, cutoff.UTC()).Scan(&count); err != nil {
		return false, fmt.Errorf("unable to query stakes: %w", err)
	}
	return count > 0, nil
}
