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

	"token-wallet-go/internal/models"
)

type UserReader interface {
	GetUserById(ctx context.Context, userId string) (*models.User, error)
}

// Gate rejects wallet-mutating actions while a user's wallet is fee-locked.
type Gate struct {
	users  UserReader
	policy Policy
}

func NewGate(users UserReader, policy Policy) *Gate {
	return &Gate{users: users, policy: policy}
}

// CheckWalletActionAllowed is a pure read of the user's lock flag.
func (g *Gate) CheckWalletActionAllowed(ctx context.Context, userId string) (*models.ActionCheck, error) {
	user, err := g.users.GetUserById(ctx, userId)
	if err != nil {
		return nil, err
	}
	if !user.WalletFeeLocked {
		return &models.ActionCheck{Allowed: true}, nil
	}
	denied := g.Denied()
	return &denied, nil
}

// Denied is the verdict reported for a fee-locked wallet.
func (g *Gate) Denied() models.ActionCheck {
	required := g.policy.Amount
	return models.ActionCheck{
		Allowed:        false,
		Reason:         fmt.Sprintf("wallet is locked until the wallet fee of %s is paid", g.policy.formatAmount(required)),
		RequiredAmount: &required,
	}
}
