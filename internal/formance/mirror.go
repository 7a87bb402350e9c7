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

package formance

import (
	"context"
	"fmt"

	"token-wallet-go/internal/models"

	"github.com/formancehq/formance-sdk-go/v3/pkg/models/operations"
	"github.com/formancehq/formance-sdk-go/v3/pkg/models/shared"
	"go.uber.org/zap"
)

// numscriptMovement moves funds between two ledger accounts. Sources may
// overdraft because balance checks happen in the local ledger before commit.
const numscriptMovement = `vars {
  asset $asset
  number $amount
  account $source
  account $destination
  string $transaction_id
  string $transaction_type
  string $user_id
  string $amount_human
  string $description
}

send [$asset $amount] (
  source = $source allowing unbounded overdraft
  destination = $destination
)

set_tx_meta("transaction_id", $transaction_id)
set_tx_meta("transaction_type", $transaction_type)
set_tx_meta("user_id", $user_id)
set_tx_meta("amount_human", $amount_human)
set_tx_meta("description", $description)
`

const (
	accountExternalFunding = "external:funding"
	accountExternalPayout  = "external:payout"
	accountFeeSuspense     = "fees:suspense"
	accountExternalMarket  = "external:market"
)

func userAccount(userId string) string {
	return "users:" + userId
}

// posting is the source and destination pair for one mirrored transaction
type posting struct {
	source      string
	destination string
}

// postingFor maps a ledger transaction to its Formance accounts. The incoming
// leg of a transfer reports ok=false since the outgoing leg carries both sides.
func postingFor(txn models.Transaction) (posting, bool, error) {
	switch txn.Type {
	case models.TransactionTypeDeposit:
		return posting{source: accountExternalFunding, destination: userAccount(txn.UserId)}, true, nil
	case models.TransactionTypeWithdrawal:
		return posting{source: userAccount(txn.UserId), destination: accountExternalPayout}, true, nil
	case models.TransactionTypeBuy:
		return posting{source: userAccount(txn.UserId), destination: accountExternalMarket}, true, nil
	case models.TransactionTypeSell:
		return posting{source: accountExternalMarket, destination: userAccount(txn.UserId)}, true, nil
	case models.TransactionTypeTransfer:
		if !txn.BalanceAfter.LessThan(txn.BalanceBefore) {
			return posting{}, false, nil
		}
		if txn.CounterpartyId == "" {
			return posting{}, false, fmt.Errorf("transfer %s has no counterparty", txn.Id)
		}
		return posting{source: userAccount(txn.UserId), destination: userAccount(txn.CounterpartyId)}, true, nil
	case models.TransactionTypeWalletFee:
		destination := accountFeeSuspense
		if txn.FeeReceiverId != "" {
			destination = userAccount(txn.FeeReceiverId)
		}
		return posting{source: userAccount(txn.UserId), destination: destination}, true, nil
	default:
		return posting{}, false, fmt.Errorf("unsupported transaction type %q", txn.Type)
	}
}

// buildVars renders the Numscript variables for a transaction
func buildVars(txn models.Transaction, p posting) map[string]string {
	return map[string]string{
		"asset":            formanceAsset(txn.Currency),
		"amount":           txn.Amount.Shift(int32(precisionFor(txn.Currency))).BigInt().String(),
		"source":           p.source,
		"destination":      p.destination,
		"transaction_id":   txn.Id,
		"transaction_type": string(txn.Type),
		"user_id":          txn.UserId,
		"amount_human":     txn.Amount.String(),
		"description":      txn.Description,
	}
}

// MirrorTransaction posts a committed transaction. A reused reference is
// treated as already mirrored.
func (m *Mirror) MirrorTransaction(ctx context.Context, txn models.Transaction) error {
	p, ok, err := postingFor(txn)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	if !txn.Amount.IsPositive() {
		zap.L().Debug("Skipping zero amount mirror", zap.String("transaction_id", txn.Id))
		return nil
	}

	postTx := shared.V2PostTransaction{
		Reference: strPtr(txn.Id),
		Script: &shared.V2PostTransactionScript{
			Plain: numscriptMovement,
			Vars:  buildVars(txn, p),
		},
	}
	if !txn.CreatedAt.IsZero() {
		at := txn.CreatedAt.UTC()
		postTx.Timestamp = &at
	}

	err = m.post(ctx, operations.V2CreateTransactionRequest{
		Ledger:            m.ledger,
		V2PostTransaction: postTx,
	})
	if err != nil {
		if isConflictError(err) {
			zap.L().Info("Transaction already mirrored", zap.String("transaction_id", txn.Id))
			return nil
		}
		return fmt.Errorf("failed to mirror transaction %s: %w", txn.Id, err)
	}

	zap.L().Debug("Mirrored transaction",
		zap.String("transaction_id", txn.Id),
		zap.String("type", string(txn.Type)),
		zap.String("source", p.source),
		zap.String("destination", p.destination))
	return nil
}

func strPtr(s string) *string { return &s }
