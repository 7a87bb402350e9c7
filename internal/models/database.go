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

package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType enumerates ledger movement kinds
type TransactionType string

const (
	TransactionTypeDeposit    TransactionType = "DEPOSIT"
	TransactionTypeWithdrawal TransactionType = "WITHDRAWAL"
	TransactionTypeTransfer   TransactionType = "TRANSFER"
	TransactionTypeBuy        TransactionType = "BUY"
	TransactionTypeSell       TransactionType = "SELL"
	TransactionTypeStake      TransactionType = "STAKE"
	TransactionTypeWalletFee  TransactionType = "WALLET_FEE"
)

// TransactionStatus is the lifecycle state of a ledger row
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "PENDING"
	TransactionStatusCompleted TransactionStatus = "COMPLETED"
	TransactionStatusFailed    TransactionStatus = "FAILED"
)

// User represents an account holder and its wallet fee lifecycle flags
type User struct {
	Id                   string     `db:"id" json:"id"`
	Name                 string     `db:"name" json:"name"`
	Email                string     `db:"email" json:"email"`
	IsAdmin              bool       `db:"is_admin" json:"is_admin"`
	CreatedAt            time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time  `db:"updated_at" json:"updated_at"`
	WalletFeeDueAt       *time.Time `db:"wallet_fee_due_at" json:"wallet_fee_due_at,omitempty"`
	WalletFeeProcessed   bool       `db:"wallet_fee_processed" json:"wallet_fee_processed"`
	WalletFeeWaived      bool       `db:"wallet_fee_waived" json:"wallet_fee_waived"`
	WalletFeeLocked      bool       `db:"wallet_fee_locked" json:"wallet_fee_locked"`
	WalletFeeProcessedAt *time.Time `db:"wallet_fee_processed_at" json:"wallet_fee_processed_at,omitempty"`
}

// Wallet is the single custodial balance owned by a user
type Wallet struct {
	UserId      string          `db:"user_id"`
	Balance     decimal.Decimal `db:"balance"`
	Currency    string          `db:"currency"`
	CreatedAt   time.Time       `db:"created_at"`
	LastUpdated time.Time       `db:"last_updated"`
}

// Transaction represents immutable transaction history
type Transaction struct {
	Id             string            `db:"id"`
	UserId         string            `db:"user_id"`
	Type           TransactionType   `db:"type"`
	Amount         decimal.Decimal   `db:"amount"`
	Currency       string            `db:"currency"`
	Status         TransactionStatus `db:"status"`
	Description    string            `db:"description"`
	FeeAmount      decimal.Decimal   `db:"fee_amount"`
	FeeReceiverId  string            `db:"fee_receiver_id"`
	NetAmount      decimal.Decimal   `db:"net_amount"`
	BalanceBefore  decimal.Decimal   `db:"balance_before"`
	BalanceAfter   decimal.Decimal   `db:"balance_after"`
	CounterpartyId string            `db:"counterparty_id"`
	CreatedAt      time.Time         `db:"created_at"`
	UpdatedAt      time.Time         `db:"updated_at"`
}

// JournalEntry is one leg of the double-entry record behind a transaction
type JournalEntry struct {
	Id            string          `db:"id"`
	TransactionId string          `db:"transaction_id"`
	AccountType   string          `db:"account_type"`
	AccountId     string          `db:"account_id"`
	DebitAmount   decimal.Decimal `db:"debit_amount"`
	CreditAmount  decimal.Decimal `db:"credit_amount"`
	CreatedAt     time.Time       `db:"created_at"`
}

// Referral links a referrer to a user they brought in
type Referral struct {
	Id         string    `db:"id"`
	ReferrerId string    `db:"referrer_id"`
	ReferredId string    `db:"referred_id"`
	CreatedAt  time.Time `db:"created_at"`
}

// Stake is a staking position; only read here as an exemption signal
type Stake struct {
	Id            string          `db:"id"`
	UserId        string          `db:"user_id"`
	AmountStaked  decimal.Decimal `db:"amount_staked"`
	DurationDays  int             `db:"duration_days"`
	RewardPercent decimal.Decimal `db:"reward_percent"`
	StartDate     time.Time       `db:"start_date"`
	EndDate       time.Time       `db:"end_date"`
	Status        string          `db:"status"`
	CreatedAt     time.Time       `db:"created_at"`
}

// NotificationType is the severity shown to the user
type NotificationType string

const (
	NotificationInfo    NotificationType = "INFO"
	NotificationSuccess NotificationType = "SUCCESS"
	NotificationWarning NotificationType = "WARNING"
)

// Notification is a user-facing message produced as a side effect
type Notification struct {
	Id        string           `db:"id" json:"id"`
	UserId    string           `db:"user_id" json:"user_id"`
	Title     string           `db:"title" json:"title"`
	Message   string           `db:"message" json:"message"`
	Type      NotificationType `db:"type" json:"type"`
	CreatedAt time.Time        `db:"created_at" json:"created_at"`
}
