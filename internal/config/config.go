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

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"token-wallet-go/internal/models"

	"github.com/shopspring/decimal"
)

func Load() (*models.Config, error) {
	connMaxLifetime, err := getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute)
	if err != nil {
		return nil, err
	}

	connMaxIdleTime, err := getEnvDuration("DB_CONN_MAX_IDLE_TIME", 30*time.Second)
	if err != nil {
		return nil, err
	}

	pingTimeout, err := getEnvDuration("DB_PING_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, err
	}

	feeAmount, err := getEnvDecimal("WALLET_FEE_AMOUNT", decimal.NewFromInt(2))
	if err != nil {
		return nil, err
	}

	minimumStake, err := getEnvDecimal("MINIMUM_REFERRAL_STAKE", decimal.NewFromInt(20))
	if err != nil {
		return nil, err
	}

	userTimeout, err := getEnvDuration("FEE_USER_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}

	runInterval, err := getEnvDuration("FEE_RUN_INTERVAL", 0)
	if err != nil {
		return nil, err
	}

	readTimeout, err := getEnvDuration("HTTP_READ_TIMEOUT", 15*time.Second)
	if err != nil {
		return nil, err
	}

	writeTimeout, err := getEnvDuration("HTTP_WRITE_TIMEOUT", 60*time.Second)
	if err != nil {
		return nil, err
	}

	shutdownTimeout, err := getEnvDuration("HTTP_SHUTDOWN_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}

	webhookTimeout, err := getEnvDuration("NOTIFY_WEBHOOK_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, err
	}

	cfg := &models.Config{
		Database: models.DatabaseConfig{
			Driver:          getEnvString("DB_DRIVER", "sqlite3"),
			Path:            getEnvString("DATABASE_PATH", "wallet.db"),
			URL:             getEnvString("DATABASE_URL", ""),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: connMaxLifetime,
			ConnMaxIdleTime: connMaxIdleTime,
			PingTimeout:     pingTimeout,
		},
		Fees: models.FeeConfig{
			Amount:                feeAmount,
			Currency:              getEnvString("WALLET_FEE_CURRENCY", "USD"),
			FreeTrialDays:         getEnvInt("FREE_TRIAL_DAYS", 30),
			MinimumReferralStake:  minimumStake,
			MissingReceiverPolicy: getEnvString("FEE_MISSING_RECEIVER_POLICY", "reject"),
			PolicyFile:            getEnvString("FEE_POLICY_FILE", ""),
		},
		Batch: models.BatchConfig{
			Concurrency: getEnvInt("FEE_BATCH_CONCURRENCY", 4),
			UserTimeout: userTimeout,
			RunInterval: runInterval,
		},
		Server: models.ServerConfig{
			Addr:            getEnvString("HTTP_ADDR", ":8080"),
			ReadTimeout:     readTimeout,
			WriteTimeout:    writeTimeout,
			ShutdownTimeout: shutdownTimeout,
		},
		Notify: models.NotifyConfig{
			WebhookURL:     getEnvString("NOTIFY_WEBHOOK_URL", ""),
			WebhookTimeout: webhookTimeout,
		},
		Formance: models.FormanceConfig{
			StackURL:     getEnvString("FORMANCE_STACK_URL", ""),
			ClientID:     getEnvString("FORMANCE_CLIENT_ID", ""),
			ClientSecret: getEnvString("FORMANCE_CLIENT_SECRET", ""),
			LedgerName:   getEnvString("FORMANCE_LEDGER", "token-wallet"),
		},
		Archive: models.ArchiveConfig{
			Bucket:    getEnvString("ARCHIVE_S3_BUCKET", ""),
			Prefix:    getEnvString("ARCHIVE_S3_PREFIX", "wallet-fee-runs"),
			Region:    getEnvString("ARCHIVE_S3_REGION", "us-east-1"),
			Endpoint:  getEnvString("ARCHIVE_S3_ENDPOINT", ""),
			AccessKey: getEnvString("ARCHIVE_S3_ACCESS_KEY", ""),
			SecretKey: getEnvString("ARCHIVE_S3_SECRET_KEY", ""),
		},
	}

	if cfg.Fees.PolicyFile != "" {
		if err := LoadFeePolicyFile(cfg.Fees.PolicyFile, &cfg.Fees); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	if value := os.Getenv(key); value != "" {
		duration, err := time.ParseDuration(value)
		if err != nil {
			return 0, fmt.Errorf("invalid duration for %s: %q (%w)", key, value, err)
		}
		return duration, nil
	}
	return defaultValue, nil
}

func getEnvDecimal(key string, defaultValue decimal.Decimal) (decimal.Decimal, error) {
	if value := os.Getenv(key); value != "" {
		d, err := decimal.NewFromString(value)
		if err != nil {
			return decimal.Zero, fmt.Errorf("invalid decimal for %s: %q (%w)", key, value, err)
		}
		return d, nil
	}
	return defaultValue, nil
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
