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
	"testing"
	"time"

	"token-wallet-go/internal/models"
	"token-wallet-go/internal/store"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
)

var baseTime = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func setupTestDb(t *testing.T) (*Service, func()) {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	// A single connection keeps every statement on the same in-memory database.
	db.SetMaxOpenConns(1)

	service := &Service{db: db, dialect: sqliteDialect}
	if err := service.migrate(context.Background()); err != nil {
		t.Fatalf("Failed to create test schema: %v", err)
	}

	cleanup := func() {
		db.Close()
	}

	return service, cleanup
}

func createTestUser(t *testing.T, s *Service, name string, isAdmin bool, createdAt time.Time) *models.User {
	t.Helper()
	user, err := s.CreateUser(context.Background(), store.CreateUserParams{
		Id:        uuid.New().String(),
		Name:      name,
		Email:     name + "@example.com",
		IsAdmin:   isAdmin,
		Currency:  "USD",
		CreatedAt: createdAt,
	})
	if err != nil {
		t.Fatalf("CreateUser(%s) failed: %v", name, err)
	}
	return user
}

func fund(t *testing.T, s *Service, userId string, amount string) {
	t.Helper()
	_, err := s.Deposit(context.Background(), store.WalletMovementParams{
		UserId: userId,
		Amount: decimal.RequireFromString(amount),
		At:     baseTime,
	})
	if err != nil {
		t.Fatalf("Deposit failed: %v", err)
	}
}

func TestCreateUser_CreatesEmptyWallet(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	user := createTestUser(t, service, "alice", false, baseTime)
	if user.WalletFeeDueAt != nil || user.WalletFeeProcessed || user.WalletFeeLocked {
		t.Errorf("Expected fresh fee state, got %+v", user)
	}
	if !user.CreatedAt.Equal(baseTime) {
		t.Errorf("Expected created_at %v, got %v", baseTime, user.CreatedAt)
	}

	wallet, err := service.GetWallet(context.Background(), user.Id)
	if err != nil {
		t.Fatalf("GetWallet failed: %v", err)
	}
	if !wallet.Balance.IsZero() {
		t.Errorf("Expected zero balance, got %s", wallet.Balance.String())
	}
	if wallet.Currency != "USD" {
		t.Errorf("Expected currency USD, got %s", wallet.Currency)
	}
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	createTestUser(t, service, "alice", false, baseTime)
	_, err := service.CreateUser(context.Background(), store.CreateUserParams{
		Id:       uuid.New().String(),
		Name:     "Alice Again",
		Email:    "alice@example.com",
		Currency: "USD",
	})
	if !errors.Is(err, store.ErrUserExists) {
		t.Fatalf("Expected ErrUserExists, got %v", err)
	}
}

func TestCreateUser_WritesDueDateAndReferral(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()
	ctx := context.Background()

	referrer := createTestUser(t, service, "referrer", false, baseTime)
	dueAt := baseTime.AddDate(0, 0, 30)
	user, err := service.CreateUser(ctx, store.CreateUserParams{
		Id:             uuid.New().String(),
		Name:           "alice",
		Email:          "alice@example.com",
		Currency:       "USD",
		CreatedAt:      baseTime,
		WalletFeeDueAt: &dueAt,
		ReferrerId:     referrer.Id,
	})
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	if user.WalletFeeDueAt == nil || !user.WalletFeeDueAt.Equal(dueAt) {
		t.Errorf("Expected due date %v, got %v", dueAt, user.WalletFeeDueAt)
	}

	ids, err := service.ListReferredUserIds(ctx, referrer.Id)
	if err != nil {
		t.Fatalf("ListReferredUserIds failed: %v", err)
	}
	if len(ids) != 1 || ids[0] != user.Id {
		t.Errorf("Expected referral to %s, got %v", user.Id, ids)
	}
}

func TestCreateUser_ReferralFailureRollsBackSignup(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()
	ctx := context.Background()

	dueAt := baseTime.AddDate(0, 0, 30)
	params := store.CreateUserParams{
		Id:             uuid.New().String(),
		Name:           "alice",
		Email:          "alice@example.com",
		Currency:       "USD",
		CreatedAt:      baseTime,
		WalletFeeDueAt: &dueAt,
		ReferrerId:     "missing-referrer",
	}
	_, err := service.CreateUser(ctx, params)
	if !errors.Is(err, store.ErrReferrerNotFound) {
		t.Fatalf("Expected ErrReferrerNotFound, got %v", err)
	}

	if _, err := service.GetUserByEmail(ctx, "alice@example.com"); !errors.Is(err, store.ErrUserNotFound) {
		t.Fatalf("Expected user row rolled back, got %v", err)
	}
	if _, err := service.GetWallet(ctx, params.Id); !errors.Is(err, store.ErrWalletNotFound) {
		t.Fatalf("Expected wallet row rolled back, got %v", err)
	}

	params.ReferrerId = ""
	user, err := service.CreateUser(ctx, params)
	if err != nil {
		t.Fatalf("Expected retry to succeed, got %v", err)
	}
	if user.WalletFeeDueAt == nil {
		t.Errorf("Expected due date on retried signup")
	}
}

func TestGetUserById_NotFound(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	_, err := service.GetUserById(context.Background(), "missing")
	if !errors.Is(err, store.ErrUserNotFound) {
		t.Fatalf("Expected ErrUserNotFound, got %v", err)
	}
}

func TestScheduleWalletFee_OnlyOnce(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()
	ctx := context.Background()

	user := createTestUser(t, service, "alice", false, baseTime)
	dueAt := baseTime.AddDate(0, 0, 30)

	if err := service.ScheduleWalletFee(ctx, user.Id, dueAt); err != nil {
		t.Fatalf("ScheduleWalletFee failed: %v", err)
	}
	err := service.ScheduleWalletFee(ctx, user.Id, dueAt.AddDate(0, 0, 1))
	if !errors.Is(err, store.ErrFeeAlreadyScheduled) {
		t.Fatalf("Expected ErrFeeAlreadyScheduled, got %v", err)
	}

	reloaded, err := service.GetUserById(ctx, user.Id)
	if err != nil {
		t.Fatalf("GetUserById failed: %v", err)
	}
	if reloaded.WalletFeeDueAt == nil || !reloaded.WalletFeeDueAt.Equal(dueAt) {
		t.Errorf("Expected due date %v, got %v", dueAt, reloaded.WalletFeeDueAt)
	}

	err = service.ScheduleWalletFee(ctx, "missing", dueAt)
	if !errors.Is(err, store.ErrUserNotFound) {
		t.Errorf("Expected ErrUserNotFound, got %v", err)
	}
}

func TestListUsersWithDueWalletFee(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()
	ctx := context.Background()

	due := createTestUser(t, service, "due", false, baseTime)
	future := createTestUser(t, service, "future", false, baseTime)
	processed := createTestUser(t, service, "processed", false, baseTime)
	createTestUser(t, service, "unscheduled", false, baseTime)

	now := baseTime.AddDate(0, 0, 31)
	for userId, dueAt := range map[string]time.Time{
		due.Id:       baseTime.AddDate(0, 0, 30),
		future.Id:    baseTime.AddDate(0, 0, 40),
		processed.Id: baseTime.AddDate(0, 0, 30),
	} {
		if err := service.ScheduleWalletFee(ctx, userId, dueAt); err != nil {
			t.Fatalf("ScheduleWalletFee failed: %v", err)
		}
	}
	err := service.WithinTx(ctx, func(ctx context.Context, tx store.FeeTx) error {
		return tx.MarkWalletFeeWaived(ctx, processed.Id, now)
	})
	if err != nil {
		t.Fatalf("MarkWalletFeeWaived failed: %v", err)
	}

	users, err := service.ListUsersWithDueWalletFee(ctx, now)
	if err != nil {
		t.Fatalf("ListUsersWithDueWalletFee failed: %v", err)
	}
	if len(users) != 1 || users[0].Id != due.Id {
		t.Fatalf("Expected only user %s to be due, got %+v", due.Id, users)
	}
}

func TestWithinTx_RollsBackOnError(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()
	ctx := context.Background()

	user := createTestUser(t, service, "alice", false, baseTime)
	fund(t, service, user.Id, "10")

	errBoom := errors.New("boom")
	err := service.WithinTx(ctx, func(ctx context.Context, tx store.FeeTx) error {
		if err := tx.SetWalletBalance(ctx, user.Id, decimal.NewFromInt(3), baseTime); err != nil {
			return err
		}
		return errBoom
	})
	if !errors.Is(err, errBoom) {
		t.Fatalf("Expected errBoom, got %v", err)
	}

	wallet, err := service.GetWallet(ctx, user.Id)
	if err != nil {
		t.Fatalf("GetWallet failed: %v", err)
	}
	if !wallet.Balance.Equal(decimal.NewFromInt(10)) {
		t.Errorf("Expected balance 10 after rollback, got %s", wallet.Balance.String())
	}
}

func TestFeeTx_MarkChargedTwiceFails(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()
	ctx := context.Background()

	user := createTestUser(t, service, "alice", false, baseTime)
	if err := service.ScheduleWalletFee(ctx, user.Id, baseTime); err != nil {
		t.Fatalf("ScheduleWalletFee failed: %v", err)
	}

	mark := func() error {
		return service.WithinTx(ctx, func(ctx context.Context, tx store.FeeTx) error {
			return tx.MarkWalletFeeCharged(ctx, user.Id, baseTime)
		})
	}
	if err := mark(); err != nil {
		t.Fatalf("First MarkWalletFeeCharged failed: %v", err)
	}
	if err := mark(); !errors.Is(err, ErrConcurrentModification) {
		t.Fatalf("Expected ErrConcurrentModification, got %v", err)
	}

	reloaded, err := service.GetUserById(ctx, user.Id)
	if err != nil {
		t.Fatalf("GetUserById failed: %v", err)
	}
	if !reloaded.WalletFeeProcessed || reloaded.WalletFeeWaived || reloaded.WalletFeeLocked {
		t.Errorf("Unexpected fee flags: %+v", reloaded)
	}
	if reloaded.WalletFeeProcessedAt == nil || !reloaded.WalletFeeProcessedAt.Equal(baseTime) {
		t.Errorf("Expected processed_at %v, got %v", baseTime, reloaded.WalletFeeProcessedAt)
	}
}

func TestFeeTx_LockedStateStaysUnprocessed(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()
	ctx := context.Background()

	user := createTestUser(t, service, "alice", false, baseTime)
	for i := 0; i < 2; i++ {
		err := service.WithinTx(ctx, func(ctx context.Context, tx store.FeeTx) error {
			return tx.MarkWalletFeeLocked(ctx, user.Id, baseTime)
		})
		if err != nil {
			t.Fatalf("MarkWalletFeeLocked run %d failed: %v", i, err)
		}
	}

	reloaded, err := service.GetUserById(ctx, user.Id)
	if err != nil {
		t.Fatalf("GetUserById failed: %v", err)
	}
	if !reloaded.WalletFeeLocked || reloaded.WalletFeeProcessed {
		t.Errorf("Expected locked and unprocessed, got %+v", reloaded)
	}
}

func TestFeeTx_FindFeeReceiverWallet(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()
	ctx := context.Background()

	firstAdmin := createTestUser(t, service, "first-admin", true, baseTime)
	secondAdmin := createTestUser(t, service, "second-admin", true, baseTime.Add(time.Hour))
	payer := createTestUser(t, service, "payer", false, baseTime.Add(2*time.Hour))

	find := func(excludeUserId string) *models.Wallet {
		var wallet *models.Wallet
		err := service.WithinTx(ctx, func(ctx context.Context, tx store.FeeTx) error {
			var err error
			wallet, err = tx.FindFeeReceiverWallet(ctx, excludeUserId)
			return err
		})
		if err != nil {
			t.Fatalf("FindFeeReceiverWallet failed: %v", err)
		}
		return wallet
	}

	if wallet := find(payer.Id); wallet == nil || wallet.UserId != firstAdmin.Id {
		t.Errorf("Expected earliest admin %s, got %+v", firstAdmin.Id, wallet)
	}
	if wallet := find(firstAdmin.Id); wallet == nil || wallet.UserId != secondAdmin.Id {
		t.Errorf("Expected next admin %s when earliest pays, got %+v", secondAdmin.Id, wallet)
	}
}

func TestFeeTx_FindFeeReceiverWallet_NoAdmin(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()
	ctx := context.Background()

	admin := createTestUser(t, service, "only-admin", true, baseTime)

	err := service.WithinTx(ctx, func(ctx context.Context, tx store.FeeTx) error {
		wallet, err := tx.FindFeeReceiverWallet(ctx, admin.Id)
		if err != nil {
			return err
		}
		if wallet != nil {
			t.Errorf("Expected no receiver when the only admin pays, got %+v", wallet)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("WithinTx failed: %v", err)
	}
}

func TestReferralsAndStakes(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()
	ctx := context.Background()

	referrer := createTestUser(t, service, "referrer", false, baseTime)
	staker := createTestUser(t, service, "staker", false, baseTime)
	small := createTestUser(t, service, "small", false, baseTime)

	for _, referred := range []*models.User{staker, small} {
		if _, err := service.CreateReferral(ctx, referrer.Id, referred.Id, baseTime); err != nil {
			t.Fatalf("CreateReferral failed: %v", err)
		}
	}
	if _, err := service.CreateReferral(ctx, referrer.Id, staker.Id, baseTime); err == nil {
		t.Errorf("Expected second referral of the same user to fail")
	}

	ids, err := service.ListReferredUserIds(ctx, referrer.Id)
	if err != nil {
		t.Fatalf("ListReferredUserIds failed: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("Expected 2 referred users, got %v", ids)
	}

	stakeAt := baseTime.AddDate(0, 0, 5)
	if _, err := service.CreateStake(ctx, store.CreateStakeParams{
		UserId: staker.Id, AmountStaked: decimal.NewFromInt(25), DurationDays: 30, CreatedAt: stakeAt,
	}); err != nil {
		t.Fatalf("CreateStake failed: %v", err)
	}
	if _, err := service.CreateStake(ctx, store.CreateStakeParams{
		UserId: small.Id, AmountStaked: decimal.NewFromInt(5), DurationDays: 30, CreatedAt: stakeAt,
	}); err != nil {
		t.Fatalf("CreateStake failed: %v", err)
	}

	minimum := decimal.NewFromInt(20)
	cases := []struct {
		name   string
		userId string
		cutoff time.Time
		want   bool
	}{
		{"qualifying stake before cutoff", staker.Id, baseTime.AddDate(0, 0, 30), true},
		{"stake after cutoff", staker.Id, baseTime.AddDate(0, 0, 1), false},
		{"stake below minimum", small.Id, baseTime.AddDate(0, 0, 30), false},
		{"no stake", referrer.Id, baseTime.AddDate(0, 0, 30), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := service.HasQualifyingStake(ctx, tc.userId, minimum, tc.cutoff)
			if err != nil {
				t.Fatalf("HasQualifyingStake failed: %v", err)
			}
			if got != tc.want {
				t.Errorf("Expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestNotifications(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()
	ctx := context.Background()

	user := createTestUser(t, service, "alice", false, baseTime)
	err := service.CreateNotification(ctx, models.Notification{
		UserId:    user.Id,
		Title:     "Wallet Fee Charged",
		Message:   "charged",
		Type:      models.NotificationSuccess,
		CreatedAt: baseTime,
	})
	if err != nil {
		t.Fatalf("CreateNotification failed: %v", err)
	}

	notifications, err := service.ListNotifications(ctx, user.Id)
	if err != nil {
		t.Fatalf("ListNotifications failed: %v", err)
	}
	if len(notifications) != 1 {
		t.Fatalf("Expected 1 notification, got %d", len(notifications))
	}
	if notifications[0].Type != models.NotificationSuccess || notifications[0].Id == "" {
		t.Errorf("Unexpected notification: %+v", notifications[0])
	}
}
