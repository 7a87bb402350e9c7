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
	"time"

	"token-wallet-go/internal/models"
	"token-wallet-go/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var _ store.FeeTx = (*feeTx)(nil)

// feeTx binds the store operations used by the fee processor to one *sql.Tx.
type feeTx struct {
	tx      *sql.Tx
	dialect dialect
}

// WithinTx runs fn inside a single database transaction. The transaction is
// committed when fn returns nil and rolled back otherwise.
func (s *Service) WithinTx(ctx context.Context, fn func(ctx context.Context, tx store.FeeTx) error) (err error) {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = sqlTx.Rollback()
			panic(p)
		}
		if err != nil {
			if rbErr := sqlTx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				zap.L().Warn("Failed to rollback transaction", zap.Error(rbErr))
			}
			return
		}
		if commitErr := sqlTx.Commit(); commitErr != nil {
			err = fmt.Errorf("failed to commit transaction: %w", commitErr)
		}
	}()

	return fn(ctx, &feeTx{tx: sqlTx, dialect: s.dialect})
}

func (t *feeTx) LockUser(ctx context.Context, userId string) (*models.User, error) {
	user, err := scanUser(t.tx.QueryRowContext(ctx, t.dialect.forUpdate(queryGetUserById), userId))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", store.ErrUserNotFound, userId)
		}
		return nil, fmt.Errorf("unable to lock user %s: %w", userId, err)
	}
	return user, nil
}

func (t *feeTx) LockWallet(ctx context.Context, userId string) (*models.Wallet, error) {
	wallet, err := scanWallet(t.tx.QueryRowContext(ctx, t.dialect.forUpdate(queryGetWallet), userId))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", store.ErrWalletNotFound, userId)
		}
		return nil, fmt.Errorf("unable to lock wallet %s: %w", userId, err)
	}
	return wallet, nil
}

func (t *feeTx) FindFeeReceiverWallet(ctx context.Context, excludeUserId string) (*models.Wallet, error) {
	wallet, err := scanWallet(t.tx.QueryRowContext(ctx, t.dialect.forUpdate(queryFindFeeReceiverWallet), excludeUserId))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("unable to find fee receiver wallet: %w", err)
	}
	return wallet, nil
}

func (t *feeTx) SetWalletBalance(ctx context.Context, userId string, balance decimal.Decimal, at time.Time) error {
	if balance.IsNegative() {
		return fmt.Errorf("%w: wallet %s would become %s", store.ErrInsufficientFunds, userId, balance.String())
	}
	result, err := t.tx.ExecContext(ctx, queryUpdateWalletBalance, balance, at.UTC(), userId)
	if err != nil {
		if isCheckViolation(err) {
			return fmt.Errorf("%w: wallet %s", store.ErrInsufficientFunds, userId)
		}
		return fmt.Errorf("unable to update wallet balance: %w", err)
	}
	return expectOneRow(result, fmt.Errorf("%w: %s", store.ErrWalletNotFound, userId))
}

func (t *feeTx) MarkWalletFeeWaived(ctx context.Context, userId string, at time.Time) error {
	return t.markWalletFee(ctx, queryMarkWalletFeeWaived, userId, at.UTC(), at.UTC())
}

func (t *feeTx) MarkWalletFeeCharged(ctx context.Context, userId string, at time.Time) error {
	return t.markWalletFee(ctx, queryMarkWalletFeeCharged, userId, at.UTC(), at.UTC())
}

func (t *feeTx) MarkWalletFeeLocked(ctx context.Context, userId string, at time.Time) error {
	return t.markWalletFee(ctx, queryMarkWalletFeeLocked, userId, at.UTC())
}

// markWalletFee runs one of the guarded user updates; the trailing argument is always the user id.
func (t *feeTx) markWalletFee(ctx context.Context, query, userId string, args ...any) error {
	result, err := t.tx.ExecContext(ctx, query, append(args, userId)...)
	if err != nil {
		return fmt.Errorf("unable to update wallet fee state: %w", err)
	}
	return expectOneRow(result, fmt.Errorf("%w: wallet fee for user %s", ErrConcurrentModification, userId))
}

func (t *feeTx) InsertTransaction(ctx context.Context, params store.InsertTransactionParams) (*models.Transaction, error) {
	return insertTransaction(ctx, t.tx, params)
}

func (t *feeTx) ListReferredUserIds(ctx context.Context, referrerId string) ([]string, error) {
	return listReferredUserIds(ctx, t.tx, referrerId)
}

func (t *feeTx) HasQualifyingStake(ctx context.Context, userId string, minimum decimal.Decimal, cutoff time.Time) (bool, error) {
	return hasQualifyingStake(ctx, t.tx, userId, minimum, cutoff)
}

func expectOneRow(result sql.Result, notFound error) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("unable to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return notFound
	}
	return nil
}

func newId() string {
	return uuid.New().String()
}
