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
	"strings"

	"token-wallet-go/internal/models"
	"token-wallet-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const tradePrecision = 8

// Buy settles quantity * price out of the wallet at the caller's price.
func (s *LedgerService) Buy(ctx context.Context, userId, asset string, quantity, price decimal.Decimal) (*models.WalletResult, error) {
	return s.trade(ctx, models.TransactionTypeBuy, userId, asset, quantity, price)
}

// Sell credits quantity * price to the wallet at the caller's price.
func (s *LedgerService) Sell(ctx context.Context, userId, asset string, quantity, price decimal.Decimal) (*models.WalletResult, error) {
	return s.trade(ctx, models.TransactionTypeSell, userId, asset, quantity, price)
}

func (s *LedgerService) trade(ctx context.Context, side models.TransactionType, userId, asset string, quantity, price decimal.Decimal) (*models.WalletResult, error) {
	asset = strings.ToUpper(strings.TrimSpace(asset))
	if userId == "" || asset == "" {
		return nil, fmt.Errorf("%w: user_id and asset are required", ErrInvalidRequest)
	}
	if !quantity.IsPositive() || !price.IsPositive() {
		return nil, store.ErrInvalidAmount
	}
	amount := quantity.Mul(price).Round(tradePrecision)
	if !amount.IsPositive() {
		return nil, store.ErrInvalidAmount
	}
	if err := s.requireAllowed(ctx, userId); err != nil {
		zap.L().Info("Trade rejected",
			zap.String("user_id", userId),
			zap.String("side", string(side)),
			zap.Error(err))
		return nil, err
	}

	txn, err := s.db.Trade(ctx, store.TradeParams{
		UserId:      userId,
		Side:        side,
		Amount:      amount,
		Currency:    s.policy.Currency,
		Description: fmt.Sprintf("%s %s %s @ %s", side, quantity.String(), asset, price.String()),
		At:          s.now(),
	})
	if err != nil {
		zap.L().Error("Trade processing failed",
			zap.String("user_id", userId),
			zap.String("side", string(side)),
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
