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
	"path/filepath"

	"token-wallet-go/internal/models"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v2"
)

type feePolicyFile struct {
	WalletFee struct {
		Amount                string `yaml:"amount"`
		Currency              string `yaml:"currency"`
		FreeTrialDays         int    `yaml:"free_trial_days"`
		MinimumReferralStake  string `yaml:"minimum_referral_stake"`
		MissingReceiverPolicy string `yaml:"missing_receiver_policy"`
	} `yaml:"wallet_fee"`
}

// LoadFeePolicyFile overlays the non-empty keys of a YAML fee policy onto cfg.
func LoadFeePolicyFile(policyFile string, cfg *models.FeeConfig) error {
	policyPath := policyFile
	if !filepath.IsAbs(policyFile) {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("failed to get working directory: %w", err)
		}
		policyPath = filepath.Join(wd, policyFile)
	}

	data, err := os.ReadFile(policyPath)
	if err != nil {
		return fmt.Errorf("unable to read %s: %w", policyFile, err)
	}

	var file feePolicyFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("unable to parse %s: %w", policyFile, err)
	}

	fee := file.WalletFee
	if fee.Amount != "" {
		amount, err := decimal.NewFromString(fee.Amount)
		if err != nil {
			return fmt.Errorf("invalid wallet_fee.amount %q: %w", fee.Amount, err)
		}
		cfg.Amount = amount
	}
	if fee.MinimumReferralStake != "" {
		minimum, err := decimal.NewFromString(fee.MinimumReferralStake)
		if err != nil {
			return fmt.Errorf("invalid wallet_fee.minimum_referral_stake %q: %w", fee.MinimumReferralStake, err)
		}
		cfg.MinimumReferralStake = minimum
	}
	if fee.Currency != "" {
		cfg.Currency = fee.Currency
	}
	if fee.FreeTrialDays != 0 {
		cfg.FreeTrialDays = fee.FreeTrialDays
	}
	if fee.MissingReceiverPolicy != "" {
		cfg.MissingReceiverPolicy = fee.MissingReceiverPolicy
	}

	return nil
}
