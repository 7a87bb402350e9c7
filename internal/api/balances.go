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
	"fmt"

	"token-wallet-go/internal/models"

	"go.uber.org/zap"
)

// GetWallet returns the wallet balance together with the owner's fee state.
func (s *LedgerService) GetWallet(ctx context.Context, userId string) (*models.WalletView, error) {
	if userId == "" {
		return nil, fmt.Errorf("%w: user_id is required", ErrInvalidRequest)
	}

	user, err := s.db.GetUserById(ctx, userId)
	if err != nil {
		return nil, err
	}
	wallet, err := s.db.GetWallet(ctx, userId)
	if err != nil {
		zap.L().Error("Failed to get wallet", zap.String("user_id", userId), zap.Error(err))
		return nil, err
	}

	return &models.WalletView{
		UserId:         wallet.UserId,
		Balance:        wallet.Balance,
		Currency:       wallet.Currency,
		LastUpdated:    wallet.LastUpdated,
		FeeDueAt:       user.WalletFeeDueAt,
		FeeProcessed:   user.WalletFeeProcessed,
		FeeWaived:      user.WalletFeeWaived,
		FeeLocked:      user.WalletFeeLocked,
		FeeProcessedAt: user.WalletFeeProcessedAt,
	}, nil
}

// GetTransactionHistory returns paginated transaction history for a user
func (s *LedgerService) GetTransactionHistory(ctx context.Context, userId string, limit, offset int) ([]models.TransactionRecord, error) {
	if userId == "" {
		return nil, fmt.Errorf("%w: user_id is required", ErrInvalidRequest)
	}

	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	transactions, err := s.db.GetTransactionHistory(ctx, userId, limit, offset)
	if err != nil {
		zap.L().Error("Failed to get transaction history",
			zap.String("user_id", userId),
			zap.Error(err))
		return nil, fmt.Errorf("failed to retrieve transaction history: %w", err)
	}

	result := make([]models.TransactionRecord, len(transactions))
	for i, tx := range transactions {
		result[i] = models.TransactionRecord{
			Id:          tx.Id,
			Type:        string(tx.Type),
			Amount:      tx.Amount,
			Currency:    tx.Currency,
			Status:      string(tx.Status),
			Description: tx.Description,
			FeeAmount:   tx.FeeAmount,
			NetAmount:   tx.NetAmount,
			CreatedAt:   tx.CreatedAt,
		}
	}

	return result, nil
}
