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

package common

import (
	"context"
	"fmt"

	"token-wallet-go/internal/models"
	"token-wallet-go/internal/store"

	"go.uber.org/zap"
)

// UserDirectory is the read side the operator commands need
type UserDirectory interface {
	GetUsers(ctx context.Context) ([]models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

var _ UserDirectory = (store.LedgerStore)(nil)

// InitializeUsers retrieves users based on an optional email filter.
// If emailFilter is provided, returns a single user with that email.
// If emailFilter is empty, returns all users.
func InitializeUsers(ctx context.Context, users UserDirectory, emailFilter string) ([]models.User, error) {
	if emailFilter != "" {
		zap.L().Info("Looking up user by email", zap.String("email", emailFilter))
		user, err := users.GetUserByEmail(ctx, emailFilter)
		if err != nil {
			return nil, fmt.Errorf("user not found: %w", err)
		}
		return []models.User{*user}, nil
	}

	all, err := users.GetUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get users: %w", err)
	}

	zap.L().Info("Retrieved users", zap.Int("count", len(all)))
	return all, nil
}

// FeeState renders a user's wallet fee lifecycle position for console output
func FeeState(user models.User) string {
	switch {
	case user.WalletFeeDueAt == nil:
		return "unscheduled"
	case user.WalletFeeProcessed && user.WalletFeeWaived:
		return "waived"
	case user.WalletFeeProcessed:
		return "charged"
	case user.WalletFeeLocked:
		return "locked"
	default:
		return "due " + user.WalletFeeDueAt.UTC().Format("2006-01-02")
	}
}
