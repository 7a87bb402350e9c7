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

package scheduler

import (
	"context"
	"sync"
	"time"

	"token-wallet-go/internal/models"

	"go.uber.org/zap"
)

// BatchRunner runs one pass over every user with a due wallet fee
type BatchRunner interface {
	ProcessAllDueWalletFees(ctx context.Context) (*models.BatchSummary, error)
}

// SummaryHandler receives each completed batch summary
type SummaryHandler func(ctx context.Context, summary *models.BatchSummary)

// FeeScheduler runs the batch fee pass on a fixed interval
type FeeScheduler struct {
	runner   BatchRunner
	interval time.Duration
	handlers []SummaryHandler

	mutex   sync.Mutex
	started bool

	// Control channels
	stopChan chan struct{}
	doneChan chan struct{}
}

// NewFeeScheduler creates a scheduler; handlers run in order after every successful pass
func NewFeeScheduler(runner BatchRunner, interval time.Duration, handlers ...SummaryHandler) *FeeScheduler {
	return &FeeScheduler{
		runner:   runner,
		interval: interval,
		handlers: handlers,
		stopChan: make(chan struct{}),
		doneChan: make(chan struct{}),
	}
}

// Start launches the run loop. The first pass runs immediately.
func (s *FeeScheduler) Start(ctx context.Context) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.started {
		return
	}
	s.started = true

	zap.L().Info("Starting wallet fee scheduler", zap.Duration("interval", s.interval))
	go s.runLoop(ctx)
}

// Stop signals the run loop and waits for an in-flight pass to finish
func (s *FeeScheduler) Stop() {
	s.mutex.Lock()
	started := s.started
	s.mutex.Unlock()
	if !started {
		return
	}

	zap.L().Info("Stopping wallet fee scheduler")
	select {
	case <-s.stopChan:
	default:
		close(s.stopChan)
	}
	<-s.doneChan
	zap.L().Info("Wallet fee scheduler stopped")
}

func (s *FeeScheduler) runLoop(ctx context.Context) {
	defer close(s.doneChan)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.runOnce(ctx)

	for {
		select {
		case <-ticker.C:
			s.runOnce(ctx)
		case <-s.stopChan:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (s *FeeScheduler) runOnce(ctx context.Context) {
	summary, err := s.runner.ProcessAllDueWalletFees(ctx)
	if err != nil {
		zap.L().Error("Scheduled wallet fee run failed", zap.Error(err))
		return
	}

	zap.L().Info("Scheduled wallet fee run completed",
		zap.String("run_id", summary.RunId),
		zap.Int("total", summary.Total),
		zap.Int("errors", summary.Errors))

	for _, handle := range s.handlers {
		handle(ctx, summary)
	}
}
