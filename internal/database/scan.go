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
	"time"

	"token-wallet-go/internal/models"
)

// dbtx is satisfied by both *sql.DB and *sql.Tx so read helpers run either
// standalone or inside a locked unit of work.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var (
		user        models.User
		dueAt       sql.NullTime
		processedAt sql.NullTime
	)
	err := row.Scan(&user.Id, &user.Name, &user.Email, &user.IsAdmin, &user.CreatedAt, &user.UpdatedAt,
		&dueAt, &user.WalletFeeProcessed, &user.WalletFeeWaived, &user.WalletFeeLocked, &processedAt)
	if err != nil {
		return nil, err
	}
	user.CreatedAt = user.CreatedAt.UTC()
	user.UpdatedAt = user.UpdatedAt.UTC()
	user.WalletFeeDueAt = nullTimePtr(dueAt)
	user.WalletFeeProcessedAt = nullTimePtr(processedAt)
	return &user, nil
}

func scanWallet(row rowScanner) (*models.Wallet, error) {
	var wallet models.Wallet
	if err := row.Scan(&wallet.UserId, &wallet.Balance, &wallet.Currency, &wallet.CreatedAt, &wallet.LastUpdated); err != nil {
		return nil, err
	}
	wallet.CreatedAt = wallet.CreatedAt.UTC()
	wallet.LastUpdated = wallet.LastUpdated.UTC()
	return &wallet, nil
}

func scanTransaction(row rowScanner) (*models.Transaction, error) {
	var (
		txn          models.Transaction
		feeReceiver  sql.NullString
		counterparty sql.NullString
	)
	err := row.Scan(&txn.Id, &txn.UserId, &txn.Type, &txn.Amount, &txn.Currency, &txn.Status, &txn.Description,
		&txn.FeeAmount, &feeReceiver, &txn.NetAmount, &txn.BalanceBefore, &txn.BalanceAfter, &counterparty,
		&txn.CreatedAt, &txn.UpdatedAt)
	if err != nil {
		return nil, err
	}
	txn.FeeReceiverId = feeReceiver.String
	txn.CounterpartyId = counterparty.String
	txn.CreatedAt = txn.CreatedAt.UTC()
	txn.UpdatedAt = txn.UpdatedAt.UTC()
	return &txn, nil
}

func nullTimePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	utc := t.Time.UTC()
	return &utc
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
