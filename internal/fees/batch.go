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
	"errors"
	"fmt"
	"time"

	"token-wallet-go/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type DueUserLister interface {
	ListUsersWithDueWalletFee(ctx context.Context, now time.Time) ([]models.User, error)
}

type UserProcessor interface {
	ProcessUser(ctx context.Context, userId string) (*models.FeeResult, error)
}

// Runner sweeps every user whose fee is due and still unprocessed. Locked and
// failed users are picked up again by the next run; nothing is retried within one.
type Runner struct {
	lister      DueUserLister
	processor   UserProcessor
	concurrency int
	userTimeout time.Duration
	now         func() time.Time
}

type RunnerOption func(*Runner)

func WithConcurrency(n int) RunnerOption {
	return func(r *Runner) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

func WithUserTimeout(d time.Duration) RunnerOption {
	return func(r *Runner) { r.userTimeout = d }
}

func WithRunnerClock(now func() time.Time) RunnerOption {
	return func(r *Runner) { r.now = now }
}

func NewRunner(lister DueUserLister, processor UserProcessor, opts ...RunnerOption) *Runner {
	r := &Runner{
		lister:      lister,
		processor:   processor,
		concurrency: 1,
		now:         func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ProcessAllDueWalletFees processes each due user and aggregates the outcomes.
// Only a failure to list due users is returned as an error.
func (r *Runner) ProcessAllDueWalletFees(ctx context.Context) (*models.BatchSummary, error) {
	summary := &models.BatchSummary{
		RunId:     uuid.New().String(),
		StartedAt: r.now().UTC(),
	}

	users, err := r.lister.ListUsersWithDueWalletFee(ctx, summary.StartedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to list users with due wallet fee: %w", err)
	}

	zap.L().Info("Starting wallet fee batch",
		zap.String("run_id", summary.RunId),
		zap.Int("users", len(users)),
		zap.Int("concurrency", r.concurrency))

	details := make([]models.BatchDetail, len(users))
	g := new(errgroup.Group)
	g.SetLimit(r.concurrency)
	for i, user := range users {
		g.Go(func() error {
			details[i] = r.processOne(ctx, user.Id)
			return nil
		})
	}
	_ = g.Wait()

	summary.Total = len(users)
	summary.Details = details
	for _, detail := range details {
		switch detail.Status {
		case models.FeeStatusCharged:
			summary.Charged++
		case models.FeeStatusWaived:
			summary.Waived++
		case models.FeeStatusLocked:
			summary.Locked++
		case models.FeeStatusError:
			summary.Errors++
		default:
			summary.Skipped++
		}
	}
	summary.FinishedAt = r.now().UTC()

	zap.L().Info("Wallet fee batch finished",
		zap.String("run_id", summary.RunId),
		zap.Int("total", summary.Total),
		zap.Int("charged", summary.Charged),
		zap.Int("waived", summary.Waived),
		zap.Int("locked", summary.Locked),
		zap.Int("skipped", summary.Skipped),
		zap.Int("errors", summary.Errors),
		zap.Duration("duration", summary.FinishedAt.Sub(summary.StartedAt)))

	return summary, nil
}

func (r *Runner) processOne(ctx context.Context, userId string) models.BatchDetail {
	if r.userTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.userTimeout)
		defer cancel()
	}

	result, err := r.processor.ProcessUser(ctx, userId)
	if err != nil {
		message := err.Error()
		if errors.Is(err, context.DeadlineExceeded) {
			message = "timed out: " + message
		}
		return models.BatchDetail{UserId: userId, Status: models.FeeStatusError, Message: message}
	}

	detail := models.BatchDetail{UserId: userId, Status: result.Status, Message: result.Message}
	if result.AlreadyProcessed {
		detail.Status = models.FeeStatusPending
		detail.Message = "already processed"
	}
	return detail
}
