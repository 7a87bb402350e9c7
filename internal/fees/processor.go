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

package fees

import (
	"context"
	"fmt"
	"time"

	"token-wallet-go/internal/models"
	"token-wallet-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Notifier receives user-facing messages once a fee transaction has committed.
type Notifier interface {
	CreateNotification(ctx context.Context, notification models.Notification) error
}

// LedgerMirror receives completed fee transactions once they have committed.
type LedgerMirror interface {
	MirrorTransaction(ctx context.Context, txn models.Transaction) error
}

type TxRunner interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx store.FeeTx) error) error
}

// Processor evaluates and applies the wallet fee for a single user.
type Processor struct {
	ledger   TxRunner
	policy   Policy
	referral *ReferralEvaluator
	notifier Notifier
	mirror   LedgerMirror
	now      func() time.Time
}

type ProcessorOption func(*Processor)

func WithClock(now func() time.Time) ProcessorOption {
	return func(p *Processor) { p.now = now }
}

func WithNotifier(notifier Notifier) ProcessorOption {
	return func(p *Processor) { p.notifier = notifier }
}

func WithMirror(mirror LedgerMirror) ProcessorOption {
	return func(p *Processor) { p.mirror = mirror }
}

func NewProcessor(ledger TxRunner, policy Policy, opts ...ProcessorOption) *Processor {
	p := &Processor{
		ledger:   ledger,
		policy:   policy,
		referral: NewReferralEvaluator(policy.MinimumReferralStake),
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Processor) Policy() Policy {
	return p.policy
}

// outcome carries what a committed attempt produced besides the result.
type outcome struct {
	result       models.FeeResult
	notification *models.Notification
	charged      *models.Transaction
}

// ProcessUser runs the fee state machine for userId inside one store
// transaction, starting with a lock on the user row. Notification and mirror
// side effects run only after commit and never fail the call.
func (p *Processor) ProcessUser(ctx context.Context, userId string) (*models.FeeResult, error) {
	now := p.now().UTC()

	var out outcome
	err := p.ledger.WithinTx(ctx, func(ctx context.Context, tx store.FeeTx) error {
		out = outcome{}
		return p.evaluate(ctx, tx, userId, now, &out)
	})
	if err != nil {
		zap.L().Error("Wallet fee processing failed", zap.String("user_id", userId), zap.Error(err))
		return nil, fmt.Errorf("wallet fee processing failed for user %s: %w", userId, err)
	}

	if out.notification != nil {
		p.notify(ctx, *out.notification)
	}
	if out.charged != nil && p.mirror != nil {
		if err := p.mirror.MirrorTransaction(ctx, *out.charged); err != nil {
			zap.L().Warn("Failed to mirror wallet fee transaction",
				zap.String("transaction_id", out.charged.Id),
				zap.Error(err))
		}
	}

	if !out.result.AlreadyProcessed && out.result.Status != models.FeeStatusPending {
		zap.L().Info("Wallet fee processed",
			zap.String("user_id", userId),
			zap.String("status", string(out.result.Status)))
	}
	return &out.result, nil
}

func (p *Processor) evaluate(ctx context.Context, tx store.FeeTx, userId string, now time.Time, out *outcome) error {
	user, err := tx.LockUser(ctx, userId)
	if err != nil {
		return err
	}
	out.result = models.FeeResult{UserId: user.Id, DueAt: user.WalletFeeDueAt}

	if user.WalletFeeProcessed {
		out.result.AlreadyProcessed = true
		out.result.ProcessedAt = user.WalletFeeProcessedAt
		out.result.Status = models.FeeStatusCharged
		if user.WalletFeeWaived {
			out.result.Status = models.FeeStatusWaived
		}
		return nil
	}

	if user.WalletFeeDueAt == nil || user.WalletFeeDueAt.After(now) {
		out.result.Status = models.FeeStatusPending
		return nil
	}

	exempt, err := p.referral.CheckReferralExemption(ctx, tx, user.Id, *user.WalletFeeDueAt)
	if err != nil {
		return err
	}
	if exempt {
		return p.waive(ctx, tx, user, now, out)
	}

	wallet, err := tx.LockWallet(ctx, user.Id)
	if err != nil {
		return err
	}
	if wallet.Balance.LessThan(p.policy.Amount) {
		return p.lock(ctx, tx, user, wallet, now, out)
	}
	return p.charge(ctx, tx, user, wallet, now, out)
}

func (p *Processor) waive(ctx context.Context, tx store.FeeTx, user *models.User, now time.Time, out *outcome) error {
	if err := tx.MarkWalletFeeWaived(ctx, user.Id, now); err != nil {
		return err
	}

	out.result.Status = models.FeeStatusWaived
	out.result.ProcessedAt = &now
	out.result.Message = "wallet fee waived by referral exemption"
	out.notification = &models.Notification{
		UserId: user.Id,
		Title:  "Wallet Fee Waived",
		Message: fmt.Sprintf("Your wallet fee was waived because a user you referred staked at least %s.",
			p.policy.formatAmount(p.policy.MinimumReferralStake)),
		Type:      models.NotificationSuccess,
		CreatedAt: now,
	}
	return nil
}

// lock leaves the fee unprocessed so the next run or a deposit retries it.
func (p *Processor) lock(ctx context.Context, tx store.FeeTx, user *models.User, wallet *models.Wallet, now time.Time, out *outcome) error {
	if err := tx.MarkWalletFeeLocked(ctx, user.Id, now); err != nil {
		return err
	}

	current := wallet.Balance
	required := p.policy.Amount
	out.result.Status = models.FeeStatusLocked
	out.result.CurrentBalance = &current
	out.result.RequiredAmount = &required
	out.result.Message = "insufficient balance for wallet fee"
	out.notification = &models.Notification{
		UserId: user.Id,
		Title:  "Wallet Locked",
		Message: fmt.Sprintf("Your wallet fee of %s is due but your balance is %s. Top up your wallet to unlock it.",
			p.policy.formatAmount(required), p.policy.formatAmount(current)),
		Type:      models.NotificationWarning,
		CreatedAt: now,
	}

	zap.L().Warn("Wallet locked for unpaid fee",
		zap.String("user_id", user.Id),
		zap.String("balance", current.String()),
		zap.String("required", required.String()))
	return nil
}

func (p *Processor) charge(ctx context.Context, tx store.FeeTx, user *models.User, wallet *models.Wallet, now time.Time, out *outcome) error {
	fee := p.policy.Amount

	receiver, err := tx.FindFeeReceiverWallet(ctx, user.Id)
	if err != nil {
		return err
	}
	if receiver == nil {
		if p.policy.MissingReceiver != MissingReceiverSkip {
			return fmt.Errorf("%w: cannot charge user %s", store.ErrFeeReceiverNotFound, user.Id)
		}
		zap.L().Warn("No fee receiver wallet, crediting fee suspense account",
			zap.String("user_id", user.Id),
			zap.String("amount", fee.String()))
	}

	newBalance := wallet.Balance.Sub(fee)
	if err := tx.SetWalletBalance(ctx, user.Id, newBalance, now); err != nil {
		return err
	}

	receiverId := ""
	if receiver != nil {
		receiverId = receiver.UserId
		if err := tx.SetWalletBalance(ctx, receiver.UserId, receiver.Balance.Add(fee), now); err != nil {
			return err
		}
	}

	txn, err := tx.InsertTransaction(ctx, store.InsertTransactionParams{
		UserId:        user.Id,
		Type:          models.TransactionTypeWalletFee,
		Amount:        fee,
		Currency:      p.policy.Currency,
		Status:        models.TransactionStatusCompleted,
		Description:   "Wallet maintenance fee",
		FeeAmount:     fee,
		FeeReceiverId: receiverId,
		NetAmount:     decimal.Zero,
		BalanceBefore: wallet.Balance,
		BalanceAfter:  newBalance,
		At:            now,
	})
	if err != nil {
		return err
	}

	if err := tx.MarkWalletFeeCharged(ctx, user.Id, now); err != nil {
		return err
	}

	previous := wallet.Balance
	out.result.Status = models.FeeStatusCharged
	out.result.PreviousBalance = &previous
	out.result.NewBalance = &newBalance
	out.result.ProcessedAt = &now
	out.result.TransactionId = txn.Id
	out.charged = txn
	out.notification = &models.Notification{
		UserId: user.Id,
		Title:  "Wallet Fee Charged",
		Message: fmt.Sprintf("A wallet fee of %s was charged. Your new balance is %s.",
			p.policy.formatAmount(fee), p.policy.formatAmount(newBalance)),
		Type:      models.NotificationInfo,
		CreatedAt: now,
	}
	return nil
}

func (p *Processor) notify(ctx context.Context, notification models.Notification) {
	if p.notifier == nil {
		return
	}
	if err := p.notifier.CreateNotification(ctx, notification); err != nil {
		zap.L().Warn("Failed to create notification",
			zap.String("user_id", notification.UserId),
			zap.String("title", notification.Title),
			zap.Error(err))
	}
}
