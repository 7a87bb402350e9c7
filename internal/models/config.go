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

package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Config holds all process configuration
type Config struct {
	Database DatabaseConfig
	Fees     FeeConfig
	Batch    BatchConfig
	Server   ServerConfig
	Notify   NotifyConfig
	Formance FormanceConfig
	Archive  ArchiveConfig
}

// DatabaseConfig holds ledger store connection settings
type DatabaseConfig struct {
	Driver          string // "sqlite3" or "pgx"
	Path            string
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	PingTimeout     time.Duration
}

// FeeConfig holds the wallet maintenance fee constants
type FeeConfig struct {
	Amount                decimal.Decimal
	Currency              string
	FreeTrialDays         int
	MinimumReferralStake  decimal.Decimal
	MissingReceiverPolicy string // "reject" or "skip"
	PolicyFile            string
}

// BatchConfig holds batch fee runner settings
type BatchConfig struct {
	Concurrency int
	UserTimeout time.Duration
	RunInterval time.Duration
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// NotifyConfig holds the optional webhook notification target
type NotifyConfig struct {
	WebhookURL     string
	WebhookTimeout time.Duration
}

// FormanceConfig holds the optional Formance ledger mirror settings
type FormanceConfig struct {
	StackURL     string
	ClientID     string
	ClientSecret string
	LedgerName   string
}

// Enabled reports whether a Formance stack is configured
func (c FormanceConfig) Enabled() bool {
	return c.StackURL != ""
}

// ArchiveConfig holds the optional S3 batch summary archive settings
type ArchiveConfig struct {
	Bucket    string
	Prefix    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
}

// Enabled reports whether an archive bucket is configured
func (c ArchiveConfig) Enabled() bool {
	return c.Bucket != ""
}
