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

// Placeholders must appear in ascending order within each statement so that
// positional binding behaves the same under both drivers.

const userColumns = `id, name, email, is_admin, created_at, updated_at, wallet_fee_due_at,
	wallet_fee_processed, wallet_fee_waived, wallet_fee_locked, wallet_fee_processed_at`

const walletColumns = `user_id, balance, currency, created_at, last_updated`

const transactionColumns = `id, user_id, type, amount, currency, status, description, fee_amount,
	fee_receiver_id, net_amount, balance_before, balance_after, counterparty_id, created_at, updated_at`

// User queries
const (
	queryGetUsers = `SELECT ` + userColumns + ` FROM users ORDER BY created_at, id`

	queryGetUserById = `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	queryGetUserByEmail = `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	queryInsertUser = `
		INSERT INTO users (id, name, email, is_admin, created_at, updated_at, wallet_fee_due_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	queryUserExists = `SELECT COUNT(*) FROM users WHERE id = $1`
)

// Wallet fee queries
const (
	queryScheduleWalletFee = `
		UPDATE users SET wallet_fee_due_at = $1, updated_at = $2
		WHERE id = $3 AND wallet_fee_due_at IS NULL`

	queryListUsersWithDueWalletFee = `
		SELECT ` + userColumns + ` FROM users
		WHERE wallet_fee_due_at IS NOT NULL
		  AND wallet_fee_due_at <= $1
		  AND wallet_fee_processed = FALSE
		ORDER BY wallet_fee_due_at, id`

	queryMarkWalletFeeWaived = `
		UPDATE users
		SET wallet_fee_waived = TRUE, wallet_fee_processed = TRUE, wallet_fee_locked = FALSE,
		    wallet_fee_processed_at = $1, updated_at = $2
		WHERE id = $3 AND wallet_fee_processed = FALSE`

	queryMarkWalletFeeCharged = `
		UPDATE users
		SET wallet_fee_processed = TRUE, wallet_fee_waived = FALSE, wallet_fee_locked = FALSE,
		    wallet_fee_processed_at = $1, updated_at = $2
		WHERE id = $3 AND wallet_fee_processed = FALSE`

	queryMarkWalletFeeLocked = `
		UPDATE users SET wallet_fee_locked = TRUE, updated_at = $1
		WHERE id = $2 AND wallet_fee_processed = FALSE`
)

// Wallet queries
const (
	queryInsertWallet = `
		INSERT INTO wallets (user_id, balance, currency, created_at, last_updated)
		VALUES ($1, $2, $3, $4, $5)`

	queryGetWallet = `SELECT ` + walletColumns + ` FROM wallets WHERE user_id = $1`

	// Earliest-registered admin other than the payer.
	queryFindFeeReceiverWallet = `
		SELECT ` + walletColumns + ` FROM wallets
		WHERE user_id = (
			SELECT w.user_id FROM wallets w
			JOIN users u ON u.id = w.user_id
			WHERE u.is_admin = TRUE AND w.user_id <> $1
			ORDER BY u.created_at, w.user_id
			LIMIT 1
		)`

	queryUpdateWalletBalance = `UPDATE wallets SET balance = $1, last_updated = $2 WHERE user_id = $3`
)

// Transaction and journal queries
const (
	queryInsertTransaction = `
		INSERT INTO transactions (id, user_id, type, amount, currency, status, description, fee_amount,
			fee_receiver_id, net_amount, balance_before, balance_after, counterparty_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

	queryInsertJournalEntry = `
		INSERT INTO journal_entries (id, transaction_id, account_type, account_id, debit_amount, credit_amount, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	// Rendered through dialect.inInsertOrder.
	queryGetTransactionHistory = `
		SELECT ` + transactionColumns + ` FROM transactions
		WHERE user_id = $1
		ORDER BY created_at DESC, {seq} DESC
		LIMIT $2 OFFSET $3`

	queryCountTransactions = `
		SELECT COUNT(*) FROM transactions
		WHERE user_id = $1 AND type = $2 AND status = $3`

	queryJournalWalletBalance = `
		SELECT COALESCE(SUM(credit_amount), 0) - COALESCE(SUM(debit_amount), 0)
		FROM journal_entries
		WHERE account_type = 'user_wallet' AND account_id = $1`
)

// Referral and staking queries
const (
	queryInsertReferral = `
		INSERT INTO referrals (id, referrer_id, referred_id, created_at)
		VALUES ($1, $2, $3, $4)`

	queryListReferredUserIds = `
		SELECT referred_id FROM referrals
		WHERE referrer_id = $1
		ORDER BY created_at, referred_id`

	queryHasQualifyingStake = `
		SELECT COUNT(*) FROM staking
		WHERE user_id = $1 AND amount_staked >= $2 AND created_at <= $3`

	queryInsertStake = `
		INSERT INTO staking (id, user_id, amount_staked, duration_days, reward_percent, start_date, end_date, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
)

// Notification queries
const (
	queryInsertNotification = `
		INSERT INTO notifications (id, user_id, title, message, type, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	// Rendered through dialect.inInsertOrder.
	queryListNotifications = `
		SELECT id, user_id, title, message, type, created_at FROM notifications
		WHERE user_id = $1
		ORDER BY created_at, {seq}`
)
