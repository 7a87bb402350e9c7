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
	"flag"
	"fmt"
	"os"

	"token-wallet-go/internal/common"
	"token-wallet-go/internal/config"

	"go.uber.org/zap"
)

func main() {
	skipArchive := flag.Bool("no-archive", false, "Do not upload the run summary even when an archive bucket is configured")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		_, _ = zap.NewProduction()
		zap.L().Fatal("Failed to load configuration", zap.Error(err))
	}

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	ctx := context.Background()

	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	summary, err := services.Runner.ProcessAllDueWalletFees(ctx)
	if err != nil {
		zap.L().Fatal("Wallet fee run failed", zap.Error(err))
	}

	common.PrintBatchSummary(summary, common.DefaultWidth)

	if services.Archiver != nil && !*skipArchive {
		key, err := services.Archiver.Archive(ctx, summary)
		if err != nil {
			zap.L().Error("Failed to archive run summary", zap.Error(err))
		} else {
			fmt.Printf("Summary archived to %s\n", key)
		}
	}

	if summary.Errors > 0 {
		services.Close()
		loggerCleanup()
		os.Exit(1)
	}
}
