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
	"errors"
	"fmt"
	"strings"
	"time"

	"token-wallet-go/internal/models"
	"token-wallet-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func (s *Service) GetWallet(ctx context.Context, userId string) (*models.Wallet, error) {
	wallet, err := scanWallet(s.db.QueryRowContext(ctx, queryGetWallet, userId))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", store.ErrWalletNotFound, userId)
		}
		return nil, fmt.Errorf("unable to query wallet: %w", err)
	}
	return wallet, nil
}

func (s *Service) Deposit(ctx context.Context, params store.WalletMovementParams) (*models.Transaction, error) {
	if !params.Amount.IsPositive() {
		return nil, store.ErrInvalidAmount
	}

	var txn *models.Transaction
	err := s.WithinTx(ctx, func(ctx context.Context, tx store.FeeTx) error {
		var err error
		txn, err = moveFunds(ctx, tx, models.TransactionTypeDeposit, true, params)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("deposit failed: %w", err)
	}

	zap.L().Info("Deposit processed successfully",
		zap.String("user_id", params.UserId),
		zap.String("amount", params.Amount.String()),
		zap.String("new_balance", txn.BalanceAfter.String()))
	return txn, nil
}

// Withdraw debits a wallet. The fee lock is re-read under the user row lock
// so a wallet locked after the caller's gate check is still refused.
func (s *Service) Withdraw(ctx context.Context, params store.WalletMovementParams) (*models.Transaction, error) {
	if !params.Amount.IsPositive() {
		return nil, store.ErrInvalidAmount
	}

	var txn *models.Transaction
	err := s.WithinTx(ctx, func(ctx context.Context, tx store.FeeTx) error {
		if err := requireUnlocked(ctx, tx, params.UserId); err != nil {
			return err
		}
		var err error
		txn, err = moveFunds(ctx, tx, models.TransactionTypeWithdrawal, false, params)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("withdrawal failed: %w", err)
	}

	zap.L().Info("Withdrawal processed successfully",
		zap.String("user_id", params.UserId),
		zap.String("amount", params.Amount.String()),
		zap.String("new_balance", txn.BalanceAfter.String()))
	return txn, nil
}

// Trade settles a buy (debit) or sell (credit) against the wallet. Both sides
// are refused while the wallet is fee-locked.
func (s *Service) Trade(ctx context.Context, params store.TradeParams) (*models.Transaction, error) {
	if !params.Amount.IsPositive() {
		return nil, store.ErrInvalidAmount
	}
	var credit bool
	switch params.Side {
	case models.TransactionTypeBuy:
	case models.TransactionTypeSell:
		credit = true
	default:
		return nil, fmt.Errorf("%w: %s", store.ErrUnsupportedTrade, params.Side)
	}
	movement := store.WalletMovementParams{
		UserId:      params.UserId,
		Amount:      params.Amount,
		Currency:    params.Currency,
		Description: params.Description,
		At:          params.At,
	}

	var txn *models.Transaction
	err := s.WithinTx(ctx, func(ctx context.Context, tx store.FeeTx) error {
		if err := requireUnlocked(ctx, tx, params.UserId); err != nil {
			return err
		}
		var err error
		txn, err = moveFunds(ctx, tx, params.Side, credit, movement)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%s failed: %w", strings.ToLower(string(params.Side)), err)
	}

	zap.L().Info("Trade settled",
		zap.String("user_id", params.UserId),
		zap.String("side", string(params.Side)),
		zap.String("amount", params.Amount.String()),
		zap.String("new_balance", txn.BalanceAfter.String()))
	return txn, nil
}

// moveFunds applies a single-wallet credit or debit and records its ledger row.
func moveFunds(ctx context.Context, tx store.FeeTx, kind models.TransactionType, credit bool, params store.WalletMovementParams) (*models.Transaction, error) {
	at := movementTime(params.At)
	wallet, err := tx.LockWallet(ctx, params.UserId)
	if err != nil {
		return nil, err
	}

	newBalance := wallet.Balance.Add(params.Amount)
	if !credit {
		if wallet.Balance.LessThan(params.Amount) {
			return nil, fmt.Errorf("%w: balance %s, requested %s",
				store.ErrInsufficientFunds, wallet.Balance.String(), params.Amount.String())
		}
		newBalance = wallet.Balance.Sub(params.Amount)
	}
	if err := tx.SetWalletBalance(ctx, params.UserId, newBalance, at); err != nil {
		return nil, err
	}
	return tx.InsertTransaction(ctx, store.InsertTransactionParams{
		UserId:        params.UserId,
		Type:          kind,
		Amount:        params.Amount,
		Currency:      currencyOr(params.Currency, wallet),
		Status:        models.TransactionStatusCompleted,
		Description:   params.Description,
		FeeAmount:     decimal.Zero,
		NetAmount:     params.Amount,
		BalanceBefore: wallet.Balance,
		BalanceAfter:  newBalance,
		At:            at,
	})
}

// requireUnlocked takes the user row lock ahead of the wallet lock, the same
// order the fee processor uses.
func requireUnlocked(ctx context.Context, tx store.FeeTx, userId string) error {
	user, err := tx.LockUser(ctx, userId)
	if err != nil {
		return err
	}
	if user.WalletFeeLocked {
		return fmt.Errorf("%w: %s", store.ErrWalletLocked, userId)
	}
	return nil
}

// Transfer moves funds between two wallets. Wallets are locked in user id
// order so concurrent opposite transfers cannot deadlock. The sender's fee lock
// is re-read inside the transaction. The sender's row is returned.
func (s *Service) Transfer(ctx context.Context, params store.TransferParams) (*models.Transaction, error) {
	if !params.Amount.IsPositive() {
		return nil, store.ErrInvalidAmount
	}
	if params.FromUserId == params.ToUserId {
		return nil, store.ErrSelfTransfer
	}
	at := movementTime(params.At)

	var sent *models.Transaction
	err := s.WithinTx(ctx, func(ctx context.Context, tx store.FeeTx) error {
		if err := requireUnlocked(ctx, tx, params.FromUserId); err != nil {
			return err
		}
		wallets := make(map[string]*models.Wallet, 2)
		for _, userId := range lockOrder(params.FromUserId, params.ToUserId) {
			wallet, err := tx.LockWallet(ctx, userId)
			if err != nil {
				return err
			}
			wallets[userId] = wallet
		}
		from, to := wallets[params.FromUserId], wallets[params.ToUserId]

		if from.Balance.LessThan(params.Amount) {
			return fmt.Errorf("%w: balance %s, requested %s",
				store.ErrInsufficientFunds, from.Balance.String(), params.Amount.String())
		}
		fromAfter := from.Balance.Sub(params.Amount)
		toAfter := to.Balance.Add(params.Amount)

		if err := tx.SetWalletBalance(ctx, from.UserId, fromAfter, at); err != nil {
			return err
		}
		if err := tx.SetWalletBalance(ctx, to.UserId, toAfter, at); err != nil {
			return err
		}

		var err error
		sent, err = tx.InsertTransaction(ctx, store.InsertTransactionParams{
			UserId:         from.UserId,
			Type:           models.TransactionTypeTransfer,
			Amount:         params.Amount,
			Currency:       currencyOr(params.Currency, from),
			Status:         models.TransactionStatusCompleted,
			Description:    params.Description,
			FeeAmount:      decimal.Zero,
			NetAmount:      params.Amount,
			BalanceBefore:  from.Balance,
			BalanceAfter:   fromAfter,
			CounterpartyId: to.UserId,
			At:             at,
		})
		if err != nil {
			return err
		}
		_, err = tx.InsertTransaction(ctx, store.InsertTransactionParams{
			UserId:         to.UserId,
			Type:           models.TransactionTypeTransfer,
			Amount:         params.Amount,
			Currency:       currencyOr(params.Currency, to),
			Status:         models.TransactionStatusCompleted,
			Description:    params.Description,
			FeeAmount:      decimal.Zero,
			NetAmount:      params.Amount,
			BalanceBefore:  to.Balance,
			BalanceAfter:   toAfter,
			CounterpartyId: from.UserId,
			At:             at,
		})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("transfer failed: %w", err)
	}

	zap.L().Info("Transfer processed successfully",
		zap.String("from_user_id", params.FromUserId),
		zap.String("to_user_id", params.ToUserId),
		zap.String("amount", params.Amount.String()))
	return sent, nil
}

func lockOrder(a, b string) []string {
	if a < b {
		return []string{a, b}
	}
	return []string{b, a}
}

func movementTime(at time.Time) time.Time {
	if at.IsZero() {
		return time.Now().UTC()
	}
	return at.UTC()
}

func currencyOr(currency string, wallet *models.Wallet) string {
	if currency != "" {
		return currency
	}
	return wallet.Currency
}
