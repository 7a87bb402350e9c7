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

package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"token-wallet-go/internal/api"
	"token-wallet-go/internal/database"
	"token-wallet-go/internal/fees"
	"token-wallet-go/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	server *httptest.Server

	mu    sync.Mutex
	clock time.Time
}

func (ts *testServer) now() time.Time {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return ts.clock
}

func (ts *testServer) setClock(at time.Time) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.clock = at
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ledger, err := database.NewService(context.Background(), models.DatabaseConfig{
		Driver:       database.DriverSQLite,
		Path:         ":memory:",
		MaxOpenConns: 1,
		MaxIdleConns: 1,
		PingTimeout:  time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(ledger.Close)

	ts := &testServer{clock: time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)}
	clock := ts.now

	policy := fees.DefaultPolicy()
	processor := fees.NewProcessor(ledger, policy, fees.WithClock(clock), fees.WithNotifier(ledger))
	service := api.NewLedgerService(ledger, processor, api.WithClock(clock))
	runner := fees.NewRunner(ledger, processor, fees.WithRunnerClock(clock))

	ts.server = httptest.NewServer(New(service, runner).Router())
	t.Cleanup(ts.server.Close)
	return ts
}

func (ts *testServer) do(t *testing.T, method, path string, body any, out any) int {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, ts.server.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func (ts *testServer) register(t *testing.T, name string, isAdmin bool) models.User {
	t.Helper()
	var user models.User
	status := ts.do(t, http.MethodPost, "/api/users", map[string]any{
		"name": name, "email": name + "@example.com", "is_admin": isAdmin,
	}, &user)
	require.Equal(t, http.StatusCreated, status)
	return user
}

func TestWalletFeeLifecycleOverHTTP(t *testing.T) {
	ts := newTestServer(t)

	start := ts.now()
	rich := ts.register(t, "rich", false)
	poor := ts.register(t, "poor", false)
	// The admin signs up later so its own fee is not yet due during the run.
	ts.setClock(start.AddDate(0, 0, 10))
	ts.register(t, "admin", true)

	var deposit models.WalletResult
	status := ts.do(t, http.MethodPost, "/api/wallets/"+rich.Id+"/deposit", map[string]string{"amount": "10"}, &deposit)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "10", deposit.NewBalance.String())

	status = ts.do(t, http.MethodPost, "/api/wallets/"+poor.Id+"/deposit", map[string]string{"amount": "0.5"}, nil)
	require.Equal(t, http.StatusOK, status)

	ts.setClock(start.AddDate(0, 0, 31))

	var summary models.BatchSummary
	status = ts.do(t, http.MethodPost, "/internal/wallet-fees/run", nil, &summary)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 2, summary.Total)
	assert.Equal(t, 1, summary.Charged)
	assert.Equal(t, 1, summary.Locked)
	assert.Equal(t, 0, summary.Errors)

	var check models.ActionCheck
	status = ts.do(t, http.MethodGet, "/api/wallets/"+poor.Id+"/action-check", nil, &check)
	require.Equal(t, http.StatusOK, status)
	assert.False(t, check.Allowed)
	require.NotNil(t, check.RequiredAmount)
	assert.Equal(t, "2", check.RequiredAmount.String())

	check = models.ActionCheck{}
	status = ts.do(t, http.MethodGet, "/api/wallets/"+rich.Id+"/action-check", nil, &check)
	require.Equal(t, http.StatusOK, status)
	assert.True(t, check.Allowed)

	var blocked map[string]any
	status = ts.do(t, http.MethodPost, "/api/wallets/"+poor.Id+"/withdraw", map[string]string{"amount": "0.1"}, &blocked)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, false, blocked["allowed"])
	assert.Equal(t, "2", blocked["required_amount"])
	assert.NotContains(t, blocked, "requiredAmount")

	blocked = nil
	status = ts.do(t, http.MethodPost, "/api/wallets/"+poor.Id+"/buy",
		map[string]string{"asset": "BTC", "quantity": "0.001", "price": "10"}, &blocked)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, false, blocked["allowed"])

	var view models.WalletView
	status = ts.do(t, http.MethodGet, "/api/wallets/"+rich.Id, nil, &view)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "8", view.Balance.String())
	assert.True(t, view.FeeProcessed)

	var history []models.TransactionRecord
	status = ts.do(t, http.MethodGet, "/api/wallets/"+rich.Id+"/transactions?limit=5", nil, &history)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, history, 2)
	assert.Equal(t, string(models.TransactionTypeWalletFee), history[0].Type)

	var single models.FeeResult
	status = ts.do(t, http.MethodPost, "/internal/wallet-fees/"+rich.Id, nil, &single)
	require.Equal(t, http.StatusOK, status)
	assert.True(t, single.AlreadyProcessed)
	assert.Equal(t, models.FeeStatusCharged, single.Status)
}

func TestErrorMapping(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.register(t, "alice", false)
	bob := ts.register(t, "bob", false)

	cases := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
	}{
		{"unknown wallet", http.MethodGet, "/api/wallets/missing", nil, http.StatusNotFound},
		{"zero amount", http.MethodPost, "/api/wallets/" + alice.Id + "/deposit", map[string]string{"amount": "0"}, http.StatusBadRequest},
		{"insufficient funds", http.MethodPost, "/api/wallets/" + alice.Id + "/withdraw", map[string]string{"amount": "1"}, http.StatusUnprocessableEntity},
		{"self transfer", http.MethodPost, "/api/wallets/" + alice.Id + "/transfer", map[string]string{"to_user_id": alice.Id, "amount": "1"}, http.StatusBadRequest},
		{"transfer without funds", http.MethodPost, "/api/wallets/" + alice.Id + "/transfer", map[string]string{"to_user_id": bob.Id, "amount": "1"}, http.StatusUnprocessableEntity},
		{"duplicate email", http.MethodPost, "/api/users", map[string]string{"name": "alice", "email": "alice@example.com"}, http.StatusConflict},
		{"invalid signup", http.MethodPost, "/api/users", map[string]string{"name": "x"}, http.StatusBadRequest},
		{"malformed email", http.MethodPost, "/api/users", map[string]string{"name": "x", "email": "x@y"}, http.StatusBadRequest},
		{"trade without asset", http.MethodPost, "/api/wallets/" + alice.Id + "/buy", map[string]string{"quantity": "1", "price": "1"}, http.StatusBadRequest},
		{"trade with zero price", http.MethodPost, "/api/wallets/" + alice.Id + "/sell", map[string]string{"asset": "BTC", "quantity": "1", "price": "0"}, http.StatusBadRequest},
		{"buy without funds", http.MethodPost, "/api/wallets/" + alice.Id + "/buy", map[string]string{"asset": "BTC", "quantity": "1", "price": "1"}, http.StatusUnprocessableEntity},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var resp errorResponse
			status := ts.do(t, tc.method, tc.path, tc.body, &resp)
			assert.Equal(t, tc.want, status)
			assert.False(t, resp.Success)
			assert.NotEmpty(t, resp.Error)
		})
	}
}

func TestBuyAndSellOverHTTP(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.register(t, "alice", false)

	status := ts.do(t, http.MethodPost, "/api/wallets/"+alice.Id+"/deposit", map[string]string{"amount": "100"}, nil)
	require.Equal(t, http.StatusOK, status)

	var bought models.WalletResult
	status = ts.do(t, http.MethodPost, "/api/wallets/"+alice.Id+"/buy",
		map[string]string{"asset": "btc", "quantity": "0.5", "price": "120"}, &bought)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "60", bought.Amount.String())
	assert.Equal(t, "40", bought.NewBalance.String())

	var sold models.WalletResult
	status = ts.do(t, http.MethodPost, "/api/wallets/"+alice.Id+"/sell",
		map[string]string{"asset": "BTC", "quantity": "0.25", "price": "130"}, &sold)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "72.5", sold.NewBalance.String())

	var history []models.TransactionRecord
	status = ts.do(t, http.MethodGet, "/api/wallets/"+alice.Id+"/transactions", nil, &history)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, history, 3)
	assert.Equal(t, string(models.TransactionTypeSell), history[0].Type)
	assert.Equal(t, "SELL 0.25 BTC @ 130", history[0].Description)
	assert.Equal(t, string(models.TransactionTypeBuy), history[1].Type)
}

func TestRegisterResponseUsesSnakeCase(t *testing.T) {
	ts := newTestServer(t)

	var body map[string]any
	status := ts.do(t, http.MethodPost, "/api/users", map[string]any{
		"name": "alice", "email": "alice@example.com", "is_admin": true,
	}, &body)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, true, body["is_admin"])
	assert.Contains(t, body, "wallet_fee_due_at")
	assert.NotContains(t, body, "WalletFeeDueAt")
}

func TestMalformedBody(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.register(t, "alice", false)

	resp, err := http.Post(ts.server.URL+"/api/wallets/"+alice.Id+"/deposit", "application/json", strings.NewReader("{"))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)

	var body map[string]string
	status := ts.do(t, http.MethodGet, "/healthz", nil, &body)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body["status"])
}
