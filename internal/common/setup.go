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
	"log"
	"strings"

	"token-wallet-go/internal/api"
	"token-wallet-go/internal/archive"
	"token-wallet-go/internal/database"
	"token-wallet-go/internal/fees"
	"token-wallet-go/internal/formance"
	"token-wallet-go/internal/models"
	"token-wallet-go/internal/notify"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// init loads environment variables from .env file if it exists
func init() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Note: No .env file found or unable to load it: %v\n", err)
	} else {
		log.Println("✓ Loaded environment variables from .env file")
	}
}

// Services is the wired application graph shared by the binaries
type Services struct {
	DbService     *database.Service
	Processor     *fees.Processor
	Runner        *fees.Runner
	LedgerService *api.LedgerService
	Archiver      *archive.SummaryArchiver
}

func InitializeLogger() (*zap.Logger, func()) {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	zap.ReplaceGlobals(logger)

	cleanup := func() {
		if err := logger.Sync(); err != nil {
			if !isIgnorableSyncError(err) {
				log.Printf("Failed to sync logger: %v\n", err)
			}
		}
	}

	return logger, cleanup
}

// InitializeServices opens the ledger store and wires the fee engine on top.
// The webhook, the Formance mirror and the archive are only built when configured.
func InitializeServices(ctx context.Context, cfg *models.Config) (*Services, error) {
	policy, err := fees.NewPolicy(cfg.Fees)
	if err != nil {
		return nil, fmt.Errorf("invalid fee policy: %w", err)
	}

	dbService, err := database.NewService(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	sinks := []notify.Sink{dbService}
	if cfg.Notify.WebhookURL != "" {
		zap.L().Info("Webhook notifications enabled", zap.String("url", cfg.Notify.WebhookURL))
		sinks = append(sinks, notify.NewWebhook(cfg.Notify.WebhookURL, cfg.Notify.WebhookTimeout))
	}

	processorOpts := []fees.ProcessorOption{fees.WithNotifier(notify.NewFanout(sinks...))}
	var apiOpts []api.Option
	if cfg.Formance.Enabled() {
		mirror, err := formance.NewMirror(ctx, cfg.Formance)
		if err != nil {
			dbService.Close()
			return nil, err
		}
		processorOpts = append(processorOpts, fees.WithMirror(mirror))
		apiOpts = append(apiOpts, api.WithMirror(mirror))
	}

	var archiver *archive.SummaryArchiver
	if cfg.Archive.Enabled() {
		archiver, err = archive.NewSummaryArchiver(ctx, cfg.Archive)
		if err != nil {
			dbService.Close()
			return nil, err
		}
	}

	processor := fees.NewProcessor(dbService, policy, processorOpts...)
	runner := fees.NewRunner(dbService, processor,
		fees.WithConcurrency(cfg.Batch.Concurrency),
		fees.WithUserTimeout(cfg.Batch.UserTimeout))

	zap.L().Info("Wallet fee policy loaded",
		zap.String("amount", policy.Amount.String()),
		zap.String("currency", policy.Currency),
		zap.Int("free_trial_days", policy.FreeTrialDays),
		zap.String("minimum_referral_stake", policy.MinimumReferralStake.String()),
		zap.String("missing_receiver", string(policy.MissingReceiver)))

	return &Services{
		DbService:     dbService,
		Processor:     processor,
		Runner:        runner,
		LedgerService: api.NewLedgerService(dbService, processor, apiOpts...),
		Archiver:      archiver,
	}, nil
}

// InitializeDatabaseOnly initializes just the ledger store
// Useful for read-only operations like querying balances
func InitializeDatabaseOnly(ctx context.Context, cfg *models.Config) (*database.Service, error) {
	return database.NewService(ctx, cfg.Database)
}

func (cs *Services) Close() {
	if cs.DbService != nil {
		cs.DbService.Close()
	}
}

func isIgnorableSyncError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "sync /dev/stderr: inappropriate ioctl for device") ||
		strings.Contains(msg, "sync /dev/stdout: inappropriate ioctl for device")
}
