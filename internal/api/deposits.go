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

package api

import (
	"context"
	"errors"

	"token-wallet-go/internal/models"
	"token-wallet-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var ErrInvalidRequest = errors.New("invalid request")

// Deposit credits a wallet. Deposits are never gated; when the user is
// fee-locked the fee processor is re-run right away so a top-up unlocks the
// wallet without waiting for the next batch.
func (s *LedgerService) Deposit(ctx context.Context, userId string, amount decimal.Decimal, description string) (*models.WalletResult, error) {
	zap.L().Info("Processing deposit",
		zap.String("user_id", userId),
		zap.String("amount", amount.String()))

	if userId == "" || !amount.IsPositive() {
		return nil, store.ErrInvalidAmount
	}

	user, err := s.db.GetUserById(ctx, userId)
	if err != nil {
		return nil, err
	}

	txn, err := s.db.Deposit(ctx, store.WalletMovementParams{
		UserId:      userId,
		Amount:      amount,
		Currency:    s.policy.Currency,
		Description: description,
		At:          s.now(),
	})
	if err != nil {
		zap.L().Error("Deposit processing failed", zap.String("user_id", userId), zap.Error(err))
		return nil, err
	}
	s.mirrorTransaction(ctx, txn)

	result := &models.WalletResult{
		Success:       true,
		UserId:        userId,
		TransactionId: txn.Id,
		Amount:        amount,
		NewBalance:    txn.BalanceAfter,
	}

	if user.WalletFeeLocked && !user.WalletFeeProcessed {
		feeResult, err := s.processor.ProcessUser(ctx, userId)
		if err != nil {
			zap.L().Warn("Wallet fee retry after deposit failed", zap.String("user_id", userId), zap.Error(err))
			return result, nil
		}
		result.Fee = feeResult
		if feeResult.NewBalance != nil {
			result.NewBalance = *feeResult.NewBalance
		}
	}

	return result, nil
}
