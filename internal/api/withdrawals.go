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

	"token-wallet-go/internal/models"
	"token-wallet-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Withdraw debits a wallet after the wallet action gate allows it. The store
// re-checks the lock inside the debiting transaction.
func (s *LedgerService) Withdraw(ctx context.Context, userId string, amount decimal.Decimal, description string) (*models.WalletResult, error) {
	if userId == "" || !amount.IsPositive() {
		return nil, store.ErrInvalidAmount
	}
	if err := s.requireAllowed(ctx, userId); err != nil {
		zap.L().Info("Withdrawal rejected", zap.String("user_id", userId), zap.Error(err))
		return nil, err
	}

	zap.L().Info("Processing withdrawal",
		zap.String("user_id", userId),
		zap.String("amount", amount.String()))

	txn, err := s.db.Withdraw(ctx, store.WalletMovementParams{
		UserId:      userId,
		Amount:      amount,
		Currency:    s.policy.Currency,
		Description: description,
		At:          s.now(),
	})
	if err != nil {
		zap.L().Error("Withdrawal processing failed",
			zap.String("user_id", userId),
			zap.String("amount", amount.String()),
			zap.Error(err))
		return nil, s.lockedInTx(err)
	}
	s.mirrorTransaction(ctx, txn)

	return &models.WalletResult{
		Success:       true,
		UserId:        userId,
		TransactionId: txn.Id,
		Amount:        amount,
		NewBalance:    txn.BalanceAfter,
	}, nil
}

// Transfer moves funds to another user's wallet. Only the sender is gated.
func (s *LedgerService) Transfer(ctx context.Context, fromUserId, toUserId string, amount decimal.Decimal, description string) (*models.WalletResult, error) {
	if fromUserId == "" || toUserId == "" || !amount.IsPositive() {
		return nil, store.ErrInvalidAmount
	}
	if fromUserId == toUserId {
		return nil, store.ErrSelfTransfer
	}
	if err := s.requireAllowed(ctx, fromUserId); err != nil {
		zap.L().Info("Transfer rejected", zap.String("user_id", fromUserId), zap.Error(err))
		return nil, err
	}

	txn, err := s.db.Transfer(ctx, store.TransferParams{
		FromUserId:  fromUserId,
		ToUserId:    toUserId,
		Amount:      amount,
		Currency:    s.policy.Currency,
		Description: description,
		At:          s.now(),
	})
	if err != nil {
		zap.L().Error("Transfer processing failed",
			zap.String("from_user_id", fromUserId),
			zap.String("to_user_id", toUserId),
			zap.Error(err))
		return nil, s.lockedInTx(err)
	}
	s.mirrorTransaction(ctx, txn)

	return &models.WalletResult{
		Success:       true,
		UserId:        fromUserId,
		TransactionId: txn.Id,
		Amount:        amount,
		NewBalance:    txn.BalanceAfter,
	}, nil
}

func logMirrorFailure(txn *models.Transaction, err error) {
	zap.L().Warn("Failed to mirror transaction",
		zap.String("transaction_id", txn.Id),
		zap.String("type", string(txn.Type)),
		zap.Error(err))
}
