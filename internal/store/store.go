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

package store

import (
	"context"
	"errors"
	"time"

	"token-wallet-go/internal/models"

	"github.com/shopspring/decimal"
)

// Sentinel errors shared by every backend
var (
	ErrUserNotFound        = errors.New("user not found")
	ErrUserExists          = errors.New("user already exists")
	ErrWalletNotFound      = errors.New("wallet not found")
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrInvalidAmount       = errors.New("amount must be greater than zero")
	ErrSelfTransfer        = errors.New("cannot transfer to the same wallet")
	ErrFeeAlreadyScheduled = errors.New("wallet fee already scheduled")
	ErrFeeReceiverNotFound = errors.New("no fee receiver wallet configured")
	ErrReferrerNotFound    = errors.New("referrer not found")
	ErrWalletLocked        = errors.New("wallet is locked until the wallet fee is paid")
	ErrUnsupportedTrade    = errors.New("trade side must be BUY or SELL")
)

// CreateUserParams contains the parameters for creating a user and its wallet.
// WalletFeeDueAt and ReferrerId are optional; when set they are written in the
// same transaction as the user row.
type CreateUserParams struct {
	Id             string
	Name           string
	Email          string
	IsAdmin        bool
	Currency       string
	CreatedAt      time.Time
	WalletFeeDueAt *time.Time
	ReferrerId     string
}

// WalletMovementParams describes a single-wallet deposit or withdrawal.
type WalletMovementParams struct {
	UserId      string
	Amount      decimal.Decimal
	Currency    string
	Description string
	At          time.Time
}

// TradeParams describes a buy or sell settled in the wallet currency at a
// caller-supplied price. Amount is the settled cash value.
type TradeParams struct {
	UserId      string
	Side        models.TransactionType
	Amount      decimal.Decimal
	Currency    string
	Description string
	At          time.Time
}

// TransferParams describes a peer transfer between two wallets.
type TransferParams struct {
	FromUserId  string
	ToUserId    string
	Amount      decimal.Decimal
	Currency    string
	Description string
	At          time.Time
}

// CreateStakeParams contains the parameters for recording a staking position.
type CreateStakeParams struct {
	UserId        string
	AmountStaked  decimal.Decimal
	DurationDays  int
	RewardPercent decimal.Decimal
	StartDate     time.Time
	Status        string
	CreatedAt     time.Time
}

// InsertTransactionParams describes a ledger row written inside a FeeTx.
type InsertTransactionParams struct {
	UserId         string
	Type           models.TransactionType
	Amount         decimal.Decimal
	Currency       string
	Status         models.TransactionStatus
	Description    string
	FeeAmount      decimal.Decimal
	FeeReceiverId  string
	NetAmount      decimal.Decimal
	BalanceBefore  decimal.Decimal
	BalanceAfter   decimal.Decimal
	CounterpartyId string
	At             time.Time
}

// ReferralReader is the read surface used by referral exemption checks.
type ReferralReader interface {
	ListReferredUserIds(ctx context.Context, referrerId string) ([]string, error)
	HasQualifyingStake(ctx context.Context, userId string, minimum decimal.Decimal, cutoff time.Time) (bool, error)
}

// FeeTx is a handle bound to one open database transaction. Lock* methods take
// row locks where the backend supports them; everything commits or rolls back together.
type FeeTx interface {
	ReferralReader

	LockUser(ctx context.Context, userId string) (*models.User, error)
	LockWallet(ctx context.Context, userId string) (*models.Wallet, error)
	// FindFeeReceiverWallet returns nil, nil when no admin wallet other than excludeUserId exists.
	FindFeeReceiverWallet(ctx context.Context, excludeUserId string) (*models.Wallet, error)
	SetWalletBalance(ctx context.Context, userId string, balance decimal.Decimal, at time.Time) error
	MarkWalletFeeWaived(ctx context.Context, userId string, at time.Time) error
	MarkWalletFeeLocked(ctx context.Context, userId string, at time.Time) error
	MarkWalletFeeCharged(ctx context.Context, userId string, at time.Time) error
	InsertTransaction(ctx context.Context, params InsertTransactionParams) (*models.Transaction, error)
}

// LedgerStore defines the contract that every backend must satisfy.
type LedgerStore interface {
	ReferralReader

	// --- Users ---
	GetUsers(ctx context.Context) ([]models.User, error)
	GetUserById(ctx context.Context, userId string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	CreateUser(ctx context.Context, params CreateUserParams) (*models.User, error)
	ScheduleWalletFee(ctx context.Context, userId string, dueAt time.Time) error
	ListUsersWithDueWalletFee(ctx context.Context, now time.Time) ([]models.User, error)

	// --- Wallets ---
	GetWallet(ctx context.Context, userId string) (*models.Wallet, error)
	Deposit(ctx context.Context, params WalletMovementParams) (*models.Transaction, error)
	Withdraw(ctx context.Context, params WalletMovementParams) (*models.Transaction, error)
	Transfer(ctx context.Context, params TransferParams) (*models.Transaction, error)
	Trade(ctx context.Context, params TradeParams) (*models.Transaction, error)

	// --- Transactions ---
	GetTransactionHistory(ctx context.Context, userId string, limit, offset int) ([]models.Transaction, error)
	CountTransactions(ctx context.Context, userId string, txType models.TransactionType, status models.TransactionStatus) (int, error)
	ReconcileWalletBalance(ctx context.Context, userId string) error

	// --- Referrals & staking ---
	CreateReferral(ctx context.Context, referrerId, referredId string, at time.Time) (*models.Referral, error)
	CreateStake(ctx context.Context, params CreateStakeParams) (*models.Stake, error)

	// --- Notifications ---
	CreateNotification(ctx context.Context, notification models.Notification) error
	ListNotifications(ctx context.Context, userId string) ([]models.Notification, error)

	// --- Atomic units ---
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx FeeTx) error) error

	// --- Lifecycle ---
	Close()
}
