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
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ReconcileWalletBalance verifies that the stored wallet balance matches the
// net of its user_wallet journal entries.
func (s *Service) ReconcileWalletBalance(ctx context.Context, userId string) error {
	zap.L().Info("Reconciling wallet balance", zap.String("user_id", userId))

	wallet, err := s.GetWallet(ctx, userId)
	if err != nil {
		return fmt.Errorf("failed to get current balance: %w", err)
	}

	var calculatedBalance decimal.Decimal
	if err := s.db.QueryRowContext(ctx, queryJournalWalletBalance, userId).Scan(&calculatedBalance); err != nil {
		return fmt.Errorf("failed to calculate balance from journal: %w", err)
	}

	currentBalance := wallet.Balance.Round(8)
	calculatedBalance = calculatedBalance.Round(8)
	if !currentBalance.Equal(calculatedBalance) {
		zap.L().Error("Balance reconciliation failed",
			zap.String("user_id", userId),
			zap.String("current_balance", currentBalance.String()),
			zap.String("calculated_balance", calculatedBalance.String()),
			zap.String("difference", currentBalance.Sub(calculatedBalance).String()))
		return fmt.Errorf("%w: current=%s, calculated=%s",
			ErrBalanceMismatch, currentBalance.String(), calculatedBalance.String())
	}

	zap.L().Info("Balance reconciliation successful",
		zap.String("user_id", userId),
		zap.String("balance", currentBalance.String()))
	return nil
}
