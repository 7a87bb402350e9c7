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
	"errors"
	"fmt"
	"time"

	"token-wallet-go/internal/fees"
	"token-wallet-go/internal/models"
	"token-wallet-go/internal/store"
)

// LedgerService is the wallet application service used by the HTTP handlers and CLIs.
type LedgerService struct {
	db        store.LedgerStore
	processor *fees.Processor
	scheduler *fees.Scheduler
	gate      *fees.Gate
	mirror    fees.LedgerMirror
	policy    fees.Policy
	now       func() time.Time
}

type Option func(*LedgerService)

// WithMirror forwards completed wallet movements to an external ledger.
func WithMirror(mirror fees.LedgerMirror) Option {
	return func(s *LedgerService) { s.mirror = mirror }
}

func WithClock(now func() time.Time) Option {
	return func(s *LedgerService) { s.now = now }
}

func NewLedgerService(db store.LedgerStore, processor *fees.Processor, opts ...Option) *LedgerService {
	policy := processor.Policy()
	s := &LedgerService{
		db:        db,
		processor: processor,
		scheduler: fees.NewScheduler(db, policy),
		gate:      fees.NewGate(db, policy),
		policy:    policy,
		now:       func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *LedgerService) HealthCheck(ctx context.Context) error {
	_, err := s.db.GetUsers(ctx)
	if err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}
	return nil
}

// WalletLockedError is returned when the gate rejects a wallet action.
type WalletLockedError struct {
	Check models.ActionCheck
}

func (e *WalletLockedError) Error() string {
	return e.Check.Reason
}

func (e *WalletLockedError) Unwrap() error {
	return fees.ErrWalletLocked
}

// CheckWalletAction exposes the gate verdict for a user.
func (s *LedgerService) CheckWalletAction(ctx context.Context, userId string) (*models.ActionCheck, error) {
	if userId == "" {
		return nil, fmt.Errorf("user_id is required")
	}
	return s.gate.CheckWalletActionAllowed(ctx, userId)
}

// ProcessWalletFee runs the fee processor for one user on demand.
func (s *LedgerService) ProcessWalletFee(ctx context.Context, userId string) (*models.FeeResult, error) {
	if userId == "" {
		return nil, fmt.Errorf("user_id is required")
	}
	return s.processor.ProcessUser(ctx, userId)
}

func (s *LedgerService) requireAllowed(ctx context.Context, userId string) error {
	check, err := s.gate.CheckWalletActionAllowed(ctx, userId)
	if err != nil {
		return err
	}
	if !check.Allowed {
		return &WalletLockedError{Check: *check}
	}
	return nil
}

// lockedInTx maps a fee lock found inside the debiting transaction to the
// same error the gate returns up front.
func (s *LedgerService) lockedInTx(err error) error {
	if errors.Is(err, store.ErrWalletLocked) {
		return &WalletLockedError{Check: s.gate.Denied()}
	}
	return err
}

func (s *LedgerService) mirrorTransaction(ctx context.Context, txn *models.Transaction) {
	if s.mirror == nil || txn == nil {
		return
	}
	if err := s.mirror.MirrorTransaction(ctx, *txn); err != nil {
		logMirrorFailure(txn, err)
	}
}
