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

// Package httpapi exposes the wallet service and the wallet fee batch trigger over HTTP.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"token-wallet-go/internal/api"
	"token-wallet-go/internal/models"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type walletService interface {
	RegisterUser(ctx context.Context, req api.RegisterUserRequest) (*models.User, error)
	GetWallet(ctx context.Context, userId string) (*models.WalletView, error)
	GetTransactionHistory(ctx context.Context, userId string, limit, offset int) ([]models.TransactionRecord, error)
	Deposit(ctx context.Context, userId string, amount decimal.Decimal, description string) (*models.WalletResult, error)
	Withdraw(ctx context.Context, userId string, amount decimal.Decimal, description string) (*models.WalletResult, error)
	Transfer(ctx context.Context, fromUserId, toUserId string, amount decimal.Decimal, description string) (*models.WalletResult, error)
	Buy(ctx context.Context, userId, asset string, quantity, price decimal.Decimal) (*models.WalletResult, error)
	Sell(ctx context.Context, userId, asset string, quantity, price decimal.Decimal) (*models.WalletResult, error)
	CheckWalletAction(ctx context.Context, userId string) (*models.ActionCheck, error)
	ProcessWalletFee(ctx context.Context, userId string) (*models.FeeResult, error)
	HealthCheck(ctx context.Context) error
}

type batchRunner interface {
	ProcessAllDueWalletFees(ctx context.Context) (*models.BatchSummary, error)
}

type Handler struct {
	wallets walletService
	batch   batchRunner
}

func New(wallets walletService, batch batchRunner) *Handler {
	return &Handler{wallets: wallets, batch: batch}
}

func (h *Handler) Router() *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(withLogging)

	r.Get("/healthz", h.Health)

	r.Post("/api/users", h.RegisterUser)
	r.Route("/api/wallets/{userId}", func(r chi.Router) {
		r.Get("/", h.Wallet)
		r.Get("/transactions", h.Transactions)
		r.Get("/action-check", h.ActionCheck)
		r.Post("/deposit", h.Deposit)
		r.Post("/withdraw", h.Withdraw)
		r.Post("/transfer", h.Transfer)
		r.Post("/buy", h.Buy)
		r.Post("/sell", h.Sell)
	})

	r.Route("/internal/wallet-fees", func(r chi.Router) {
		r.Post("/run", h.RunWalletFees)
		r.Post("/{userId}", h.ProcessWalletFee)
	})

	return r
}

func withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		zap.L().Debug("HTTP request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Duration("duration", time.Since(start)))
	})
}
