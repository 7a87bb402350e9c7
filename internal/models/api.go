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

// FeeStatus is the outcome of evaluating one user's wallet fee
type FeeStatus string

const (
	FeeStatusPending FeeStatus = "pending"
	FeeStatusWaived  FeeStatus = "waived"
	FeeStatusCharged FeeStatus = "charged"
	FeeStatusLocked  FeeStatus = "locked"
	FeeStatusError   FeeStatus = "error"
)

// FeeResult represents the result of processing a single user's wallet fee
type FeeResult struct {
	UserId           string           `json:"user_id"`
	Status           FeeStatus        `json:"status"`
	AlreadyProcessed bool             `json:"already_processed,omitempty"`
	DueAt            *time.Time       `json:"due_at,omitempty"`
	ProcessedAt      *time.Time       `json:"processed_at,omitempty"`
	PreviousBalance  *decimal.Decimal `json:"previous_balance,omitempty"`
	NewBalance       *decimal.Decimal `json:"new_balance,omitempty"`
	CurrentBalance   *decimal.Decimal `json:"current_balance,omitempty"`
	RequiredAmount   *decimal.Decimal `json:"required_amount,omitempty"`
	TransactionId    string           `json:"transaction_id,omitempty"`
	Message          string           `json:"message,omitempty"`
}

// BatchDetail is one per-user line of a batch run
type BatchDetail struct {
	UserId  string    `json:"user_id"`
	Status  FeeStatus `json:"status"`
	Message string    `json:"message,omitempty"`
}

// BatchSummary aggregates a batch fee run
type BatchSummary struct {
	RunId      string        `json:"run_id"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	Total      int           `json:"total"`
	Charged    int           `json:"charged"`
	Waived     int           `json:"waived"`
	Locked     int           `json:"locked"`
	Skipped    int           `json:"skipped"`
	Errors     int           `json:"errors"`
	Details    []BatchDetail `json:"details"`
}

// ActionCheck is the wallet action gate verdict
type ActionCheck struct {
	Allowed        bool             `json:"allowed"`
	Reason         string           `json:"reason,omitempty"`
	RequiredAmount *decimal.Decimal `json:"required_amount,omitempty"`
}

// WalletResult represents the result of a wallet-mutating request
type WalletResult struct {
	Success       bool            `json:"success"`
	UserId        string          `json:"user_id,omitempty"`
	TransactionId string          `json:"transaction_id,omitempty"`
	Amount        decimal.Decimal `json:"amount,omitempty"`
	NewBalance    decimal.Decimal `json:"new_balance,omitempty"`
	Fee           *FeeResult      `json:"fee,omitempty"`
	Error         string          `json:"error,omitempty"`
}

// WalletView is a wallet together with its owner's fee state
type WalletView struct {
	UserId         string          `json:"user_id"`
	Balance        decimal.Decimal `json:"balance"`
	Currency       string          `json:"currency"`
	LastUpdated    time.Time       `json:"last_updated"`
	FeeDueAt       *time.Time      `json:"fee_due_at,omitempty"`
	FeeProcessed   bool            `json:"fee_processed"`
	FeeWaived      bool            `json:"fee_waived"`
	FeeLocked      bool            `json:"fee_locked"`
	FeeProcessedAt *time.Time      `json:"fee_processed_at,omitempty"`
}

// TransactionRecord represents a transaction in the user's history
type TransactionRecord struct {
	Id          string          `json:"id"`
	Type        string          `json:"type"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	Status      string          `json:"status"`
	Description string          `json:"description,omitempty"`
	FeeAmount   decimal.Decimal `json:"fee_amount"`
	NetAmount   decimal.Decimal `json:"net_amount"`
	CreatedAt   time.Time       `json:"created_at"`
}
