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

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"

	"token-wallet-go/internal/common"
	"token-wallet-go/internal/config"
	"token-wallet-go/internal/database"
	"token-wallet-go/internal/models"

	"go.uber.org/zap"
)

type balanceStats struct {
	totalUsers int
	funded     int
	locked     int
	mismatched int
}

func printUser(user models.User, wallet *models.Wallet, reconcileErr error) {
	fmt.Printf("\n┌─ User: %s (%s)\n", user.Name, user.Email)
	fmt.Printf("│  ID:        %s\n", user.Id)
	fmt.Printf("│  Fee state: %s\n", common.FeeState(user))
	fmt.Printf("%s Balance: %20s %s (updated: %s)\n",
		common.BoxPrefix(reconcileErr == nil),
		wallet.Balance.StringFixed(8),
		wallet.Currency,
		wallet.LastUpdated.Format("2006-01-02 15:04:05"))
	if reconcileErr != nil {
		fmt.Printf("%s ✗ %v\n", common.BoxPrefix(true), reconcileErr)
	}
}

func processUsers(ctx context.Context, users []models.User, dbService *database.Service) balanceStats {
	stats := balanceStats{}

	for _, user := range users {
		stats.totalUsers++

		wallet, err := dbService.GetWallet(ctx, user.Id)
		if err != nil {
			zap.L().Error("Failed to get wallet",
				zap.String("user_id", user.Id),
				zap.Error(err))
			continue
		}

		reconcileErr := dbService.ReconcileWalletBalance(ctx, user.Id)
		if reconcileErr != nil {
			if !errors.Is(reconcileErr, database.ErrBalanceMismatch) {
				zap.L().Error("Failed to reconcile wallet", zap.String("user_id", user.Id), zap.Error(reconcileErr))
			}
			stats.mismatched++
		}

		if wallet.Balance.IsPositive() {
			stats.funded++
		}
		if user.WalletFeeLocked && !user.WalletFeeProcessed {
			stats.locked++
		}

		printUser(user, wallet, reconcileErr)
	}

	return stats
}

func main() {
	ctx := context.Background()

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	emailFlag := flag.String("email", "", "Filter by specific user email (optional)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		zap.L().Fatal("Failed to load config", zap.Error(err))
	}

	zap.L().Info("Connecting to database", zap.String("driver", cfg.Database.Driver))
	dbService, err := common.InitializeDatabaseOnly(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize database", zap.Error(err))
	}
	defer dbService.Close()

	users, err := common.InitializeUsers(ctx, dbService, *emailFlag)
	if err != nil {
		zap.L().Fatal("Failed to initialize users", zap.Error(err))
	}

	common.PrintHeader("WALLET BALANCE REPORT", common.DefaultWidth)

	stats := processUsers(ctx, users, dbService)

	summary := fmt.Sprintf("SUMMARY: %d users, %d funded, %d locked, %d failed reconciliation",
		stats.totalUsers, stats.funded, stats.locked, stats.mismatched)
	common.PrintFooter(summary, common.DefaultWidth)

	zap.L().Info("Balance report completed",
		zap.Int("users_queried", stats.totalUsers),
		zap.Int("users_locked", stats.locked),
		zap.Int("reconcile_failures", stats.mismatched))
}
