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
	"errors"
	"fmt"
	"time"

	"token-wallet-go/internal/models"
	"token-wallet-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Sentinel errors for database operations
var (
	ErrConcurrentModification = errors.New("concurrent modification detected")
	ErrBalanceMismatch        = errors.New("wallet balance does not match journal")
)

// Journal account types. A user_wallet account is keyed by user id; the
// external and suspense accounts are keyed by currency.
const (
	AccountUserWallet      = "user_wallet"
	AccountExternalFunding = "external_funding"
	AccountExternalPayout  = "external_payout"
	AccountFeeSuspense     = "fee_suspense"
	AccountExternalMarket  = "external_market"
)

type journalLeg struct {
	accountType string
	accountId   string
	debit       decimal.Decimal
	credit      decimal.Decimal
}

// journalLegs derives the balanced double-entry legs for a transaction row.
// A transfer writes both legs on the sender's row; the receiver's mirror row
// carries none so each movement is journaled once.
func journalLegs(params store.InsertTransactionParams) []journalLeg {
	amount := params.Amount
	switch params.Type {
	case models.TransactionTypeDeposit:
		return []journalLeg{
			{accountType: AccountExternalFunding, accountId: params.Currency, debit: amount, credit: decimal.Zero},
			{accountType: AccountUserWallet, accountId: params.UserId, debit: decimal.Zero, credit: amount},
		}
	case models.TransactionTypeWithdrawal:
		return []journalLeg{
			{accountType: AccountUserWallet, accountId: params.UserId, debit: amount, credit: decimal.Zero},
			{accountType: AccountExternalPayout, accountId: params.Currency, debit: decimal.Zero, credit: amount},
		}
	case models.TransactionTypeBuy:
		return []journalLeg{
			{accountType: AccountUserWallet, accountId: params.UserId, debit: amount, credit: decimal.Zero},
			{accountType: AccountExternalMarket, accountId: params.Currency, debit: decimal.Zero, credit: amount},
		}
	case models.TransactionTypeSell:
		return []journalLeg{
			{accountType: AccountExternalMarket, accountId: params.Currency, debit: amount, credit: decimal.Zero},
			{accountType: AccountUserWallet, accountId: params.UserId, debit: decimal.Zero, credit: amount},
		}
	case models.TransactionTypeTransfer:
		if !params.BalanceAfter.LessThan(params.BalanceBefore) {
			return nil
		}
		return []journalLeg{
			{accountType: AccountUserWallet, accountId: params.UserId, debit: amount, credit: decimal.Zero},
			{accountType: AccountUserWallet, accountId: params.CounterpartyId, debit: decimal.Zero, credit: amount},
		}
	case models.TransactionTypeWalletFee:
		creditType, creditId := AccountUserWallet, params.FeeReceiverId
		if creditId == "" {
			creditType, creditId = AccountFeeSuspense, params.Currency
		}
		return []journalLeg{
			{accountType: AccountUserWallet, accountId: params.UserId, debit: params.FeeAmount, credit: decimal.Zero},
			{accountType: creditType, accountId: creditId, debit: decimal.Zero, credit: params.FeeAmount},
		}
	default:
		return nil
	}
}

func insertTransaction(ctx context.Context, db dbtx, params store.InsertTransactionParams) (*models.Transaction, error) {
	at := params.At.UTC()
	if params.At.IsZero() {
		at = time.Now().UTC()
	}
	status := params.Status
	if status == "" {
		status = models.TransactionStatusCompleted
	}

	txn := &models.Transaction{
		Id:             newId(),
		UserId:         params.UserId,
		Type:           params.Type,
		Amount:         params.Amount,
		Currency:       params.Currency,
		Status:         status,
		Description:    params.Description,
		FeeAmount:      params.FeeAmount,
		FeeReceiverId:  params.FeeReceiverId,
		NetAmount:      params.NetAmount,
		BalanceBefore:  params.BalanceBefore,
		BalanceAfter:   params.BalanceAfter,
		CounterpartyId: params.CounterpartyId,
		CreatedAt:      at,
		UpdatedAt:      at,
	}

	_, err := db.ExecContext(ctx, queryInsertTransaction,
		txn.Id, txn.UserId, txn.Type, txn.Amount, txn.Currency, txn.Status, txn.Description, txn.FeeAmount,
		nullString(txn.FeeReceiverId), txn.NetAmount, txn.BalanceBefore, txn.BalanceAfter,
		nullString(txn.CounterpartyId), txn.CreatedAt, txn.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert transaction: %w", err)
	}

	if err := addJournalEntries(ctx, db, txn.Id, journalLegs(params), at); err != nil {
		return nil, fmt.Errorf("failed to add journal entries: %w", err)
	}

	zap.L().Debug("Transaction recorded",
		zap.String("transaction_id", txn.Id),
		zap.String("user_id", txn.UserId),
		zap.String("type", string(txn.Type)),
		zap.String("amount", txn.Amount.String()),
		zap.String("balance_after", txn.BalanceAfter.String()))

	return txn, nil
}

func addJournalEntries(ctx context.Context, db dbtx, transactionId string, legs []journalLeg, at time.Time) error {
	for _, leg := range legs {
		_, err := db.ExecContext(ctx, queryInsertJournalEntry,
			newId(), transactionId, leg.accountType, leg.accountId, leg.debit, leg.credit, at)
		if err != nil {
			return fmt.Errorf("failed to insert %s entry: %w", leg.accountType, err)
		}
	}
	return nil
}
