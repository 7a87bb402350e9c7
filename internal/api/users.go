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
	"regexp"
	"strings"

	"token-wallet-go/internal/models"
	"token-wallet-go/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

func validateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("email is required")
	}
	if !emailRegex.MatchString(email) {
		return fmt.Errorf("invalid email format: %s", email)
	}
	return nil
}

// RegisterUserRequest is a signup request.
type RegisterUserRequest struct {
	Name          string `json:"name"`
	Email         string `json:"email"`
	ReferrerEmail string `json:"referrer_email,omitempty"`
	IsAdmin       bool   `json:"is_admin,omitempty"`
}

// RegisterUser creates the user and wallet with the wallet fee due date and,
// when the referrer email resolves to a user, the referral edge. All of it
// is committed as one unit.
func (s *LedgerService) RegisterUser(ctx context.Context, req RegisterUserRequest) (*models.User, error) {
	name := strings.TrimSpace(req.Name)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidRequest)
	}
	if err := validateEmail(email); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	var referrerId string
	if req.ReferrerEmail != "" {
		found, err := s.db.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(req.ReferrerEmail)))
		switch {
		case err == nil:
			referrerId = found.Id
		case errors.Is(err, store.ErrUserNotFound):
			zap.L().Warn("Referrer email not found, registering without referral",
				zap.String("email", email),
				zap.String("referrer_email", req.ReferrerEmail))
		default:
			return nil, fmt.Errorf("failed to look up referrer: %w", err)
		}
	}

	createdAt := s.now()
	dueAt := s.scheduler.DueDate(createdAt)
	user, err := s.db.CreateUser(ctx, store.CreateUserParams{
		Id:             uuid.New().String(),
		Name:           name,
		Email:          email,
		IsAdmin:        req.IsAdmin,
		Currency:       s.policy.Currency,
		CreatedAt:      createdAt,
		WalletFeeDueAt: &dueAt,
		ReferrerId:     referrerId,
	})
	if err != nil {
		return nil, err
	}

	zap.L().Info("User registered",
		zap.String("user_id", user.Id),
		zap.String("email", user.Email),
		zap.Time("wallet_fee_due_at", dueAt),
		zap.Bool("referred", referrerId != ""))
	return user, nil
}
