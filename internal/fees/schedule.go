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
)

type FeeScheduleStore interface {
	ScheduleWalletFee(ctx context.Context, userId string, dueAt time.Time) error
}

// Scheduler computes the wallet fee due date. Signup writes it together with
// the user row; ScheduleWalletFee stamps users created without one.
type Scheduler struct {
	store  FeeScheduleStore
	policy Policy
}

func NewScheduler(store FeeScheduleStore, policy Policy) *Scheduler {
	return &Scheduler{store: store, policy: policy}
}

// DueDate returns createdAt + trial days.
func (s *Scheduler) DueDate(createdAt time.Time) time.Time {
	return s.policy.DueDate(createdAt)
}

// ScheduleWalletFee persists createdAt + trial days as the due date. The store
// refuses to overwrite an existing due date and reports store.ErrFeeAlreadyScheduled.
func (s *Scheduler) ScheduleWalletFee(ctx context.Context, user models.User) (time.Time, error) {
	dueAt := s.DueDate(user.CreatedAt)
	if err := s.store.ScheduleWalletFee(ctx, user.Id, dueAt); err != nil {
		return time.Time{}, fmt.Errorf("failed to schedule wallet fee: %w", err)
	}
	return dueAt, nil
}
