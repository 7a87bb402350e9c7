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

package store

import (
	"errors"
	"fmt"
	"testing"
)

func TestLedgerStoreInterface(t *testing.T) {
	// Ensure the interface is non-nil type.
	var _ LedgerStore
	var _ FeeTx
}

func TestSentinelErrorsWrap(t *testing.T) {
	sentinels := []error{
		ErrUserNotFound,
		ErrWalletNotFound,
		ErrInsufficientFunds,
		ErrFeeAlreadyScheduled,
		ErrFeeReceiverNotFound,
		ErrReferrerNotFound,
		ErrWalletLocked,
		ErrUnsupportedTrade,
	}
	for _, sentinel := range sentinels {
		wrapped := fmt.Errorf("context: %w", sentinel)
		if !errors.Is(wrapped, sentinel) {
			t.Errorf("expected wrapped error to match %v", sentinel)
		}
	}
}
