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

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"token-wallet-go/internal/models"
	"token-wallet-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func (s *Service) GetUsers(ctx context.Context) ([]models.User, error) {
	zap.L().Debug("Querying users")
	return s.queryUsers(ctx, queryGetUsers)
}

func (s *Service) GetUserById(ctx context.Context, userId string) (*models.User, error) {
	zap.L().Debug("Querying user by ID", zap.String("user_id", userId))

	user, err := scanUser(s.db.QueryRowContext(ctx, queryGetUserById, userId))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", store.ErrUserNotFound, userId)
		}
		zap.L().Error("Failed to query user by ID", zap.String("user_id", userId), zap.Error(err))
		return nil, fmt.Errorf("unable to query user by ID: %w", err)
	}

	zap.L().Debug("Retrieved user by ID", zap.String("user_id", userId), zap.String("name", user.Name))
	return user, nil
}

func (s *Service) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	zap.L().Debug("Querying user by email", zap.String("email", email))

	user, err := scanUser(s.db.QueryRowContext(ctx, queryGetUserByEmail, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", store.ErrUserNotFound, email)
		}
		zap.L().Error("Failed to query user by email", zap.String("email", email), zap.Error(err))
		return nil, fmt.Errorf("unable to query user by email: %w", err)
	}

	return user, nil
}

// CreateUser inserts the user, its zero-balance wallet, the wallet fee due date
// and the referral edge in one transaction. Any failure leaves no trace, so a
// retry with the same email does not hit ErrUserExists.
func (s *Service) CreateUser(ctx context.Context, params store.CreateUserParams) (*models.User, error) {
	zap.L().Info("Creating user",
		zap.String("id", params.Id),
		zap.String("name", params.Name),
		zap.String("email", params.Email),
		zap.Bool("is_admin", params.IsAdmin))

	createdAt := params.CreatedAt.UTC()
	if params.CreatedAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	var dueAt sql.NullTime
	if params.WalletFeeDueAt != nil {
		dueAt = sql.NullTime{Time: params.WalletFeeDueAt.UTC(), Valid: true}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			zap.L().Warn("Failed to rollback transaction", zap.Error(err))
		}
	}()

	if _, err := tx.ExecContext(ctx, queryInsertUser,
		params.Id, params.Name, params.Email, params.IsAdmin, createdAt, createdAt, dueAt); err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: %s", store.ErrUserExists, params.Email)
		}
		zap.L().Error("Failed to insert user", zap.String("email", params.Email), zap.Error(err))
		return nil, fmt.Errorf("unable to insert user: %w", err)
	}

	if _, err := tx.ExecContext(ctx, queryInsertWallet,
		params.Id, decimal.Zero, params.Currency, createdAt, createdAt); err != nil {
		return nil, fmt.Errorf("unable to create wallet: %w", err)
	}

	if params.ReferrerId != "" {
		if _, err := insertReferral(ctx, tx, params.ReferrerId, params.Id, createdAt); err != nil {
			return nil, err
		}
	}

	user, err := scanUser(tx.QueryRowContext(ctx, queryGetUserById, params.Id))
	if err != nil {
		return nil, fmt.Errorf("unable to read created user: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	zap.L().Info("User created successfully", zap.String("id", user.Id), zap.String("email", user.Email))
	return user, nil
}

// ScheduleWalletFee sets the due date once; a second call reports ErrFeeAlreadyScheduled.
func (s *Service) ScheduleWalletFee(ctx context.Context, userId string, dueAt time.Time) error {
	result, err := s.db.ExecContext(ctx, queryScheduleWalletFee, dueAt.UTC(), time.Now().UTC(), userId)
	if err != nil {
		return fmt.Errorf("unable to schedule wallet fee: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("unable to get rows affected: %w", err)
	}
	if rowsAffected == 1 {
		zap.L().Info("Wallet fee scheduled", zap.String("user_id", userId), zap.Time("due_at", dueAt.UTC()))
		return nil
	}

	var count int
	if err := s.db.QueryRowContext(ctx, queryUserExists, userId).Scan(&count); err != nil {
		return fmt.Errorf("unable to check user: %w", err)
	}
	if count == 0 {
		return fmt.Errorf("%w: %s", store.ErrUserNotFound, userId)
	}
	return fmt.Errorf("%w: %s", store.ErrFeeAlreadyScheduled, userId)
}

func (s *Service) ListUsersWithDueWalletFee(ctx context.Context, now time.Time) ([]models.User, error) {
	users, err := s.queryUsers(ctx, queryListUsersWithDueWalletFee, now.UTC())
	if err != nil {
		return nil, err
	}
	zap.L().Debug("Users with due wallet fee", zap.Int("count", len(users)))
	return users, nil
}

func (s *Service) queryUsers(ctx context.Context, query string, args ...any) ([]models.User, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		zap.L().Error("Failed to query users", zap.Error(err))
		return nil, fmt.Errorf("unable to query users: %w", err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			zap.L().Warn("Failed to close rows", zap.Error(err))
		}
	}(rows)

	var users []models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			zap.L().Error("Failed to scan user row", zap.Error(err))
			return nil, fmt.Errorf("unable to scan user row: %w", err)
		}
		users = append(users, *user)
	}

	// Check for errors during iteration
	if err := rows.Err(); err != nil {
		zap.L().Error("Error during user row iteration", zap.Error(err))
		return nil, fmt.Errorf("error iterating user rows: %w", err)
	}

	return users, nil
}
