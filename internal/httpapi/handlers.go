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
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"token-wallet-go/internal/api"
	"token-wallet-go/internal/models"
	"token-wallet-go/internal/store"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type movementRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description,omitempty"`
}

type tradeRequest struct {
	Asset    string          `json:"asset"`
	Quantity decimal.Decimal `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

type transferRequest struct {
	ToUserId    string          `json:"to_user_id"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description,omitempty"`
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.wallets.HealthCheck(r.Context()); err != nil {
		zap.L().Error("Health check failed", zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "unhealthy"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) RegisterUser(w http.ResponseWriter, r *http.Request) {
	var req api.RegisterUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	user, err := h.wallets.RegisterUser(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

func (h *Handler) Wallet(w http.ResponseWriter, r *http.Request) {
	view, err := h.wallets.GetWallet(r.Context(), chi.URLParam(r, "userId"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *Handler) Transactions(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	records, err := h.wallets.GetTransactionHistory(r.Context(), chi.URLParam(r, "userId"), limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (h *Handler) ActionCheck(w http.ResponseWriter, r *http.Request) {
	check, err := h.wallets.CheckWalletAction(r.Context(), chi.URLParam(r, "userId"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, check)
}

func (h *Handler) Deposit(w http.ResponseWriter, r *http.Request) {
	var req movementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	result, err := h.wallets.Deposit(r.Context(), chi.URLParam(r, "userId"), req.Amount, req.Description)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) Withdraw(w http.ResponseWriter, r *http.Request) {
	var req movementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	result, err := h.wallets.Withdraw(r.Context(), chi.URLParam(r, "userId"), req.Amount, req.Description)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) Transfer(w http.ResponseWriter, r *http.Request) {
	var req transferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	result, err := h.wallets.Transfer(r.Context(), chi.URLParam(r, "userId"), req.ToUserId, req.Amount, req.Description)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) Buy(w http.ResponseWriter, r *http.Request) {
	h.trade(w, r, h.wallets.Buy)
}

func (h *Handler) Sell(w http.ResponseWriter, r *http.Request) {
	h.trade(w, r, h.wallets.Sell)
}

type tradeFunc func(ctx context.Context, userId, asset string, quantity, price decimal.Decimal) (*models.WalletResult, error)

func (h *Handler) trade(w http.ResponseWriter, r *http.Request, settle tradeFunc) {
	var req tradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	result, err := settle(r.Context(), chi.URLParam(r, "userId"), req.Asset, req.Quantity, req.Price)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) RunWalletFees(w http.ResponseWriter, r *http.Request) {
	summary, err := h.batch.ProcessAllDueWalletFees(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *Handler) ProcessWalletFee(w http.ResponseWriter, r *http.Request) {
	result, err := h.wallets.ProcessWalletFee(r.Context(), chi.URLParam(r, "userId"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func writeError(w http.ResponseWriter, err error) {
	var locked *api.WalletLockedError
	if errors.As(err, &locked) {
		writeJSON(w, http.StatusForbidden, locked.Check)
		return
	}

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, store.ErrUserNotFound), errors.Is(err, store.ErrWalletNotFound), errors.Is(err, store.ErrReferrerNotFound):
		status = http.StatusNotFound
	case errors.Is(err, store.ErrInvalidAmount), errors.Is(err, store.ErrSelfTransfer),
		errors.Is(err, store.ErrUnsupportedTrade), errors.Is(err, api.ErrInvalidRequest):
		status = http.StatusBadRequest
	case errors.Is(err, store.ErrWalletLocked):
		status = http.StatusForbidden
	case errors.Is(err, store.ErrInsufficientFunds):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, store.ErrUserExists), errors.Is(err, store.ErrFeeAlreadyScheduled), errors.Is(err, store.ErrFeeReceiverNotFound):
		status = http.StatusConflict
	}

	message := err.Error()
	if status == http.StatusInternalServerError {
		zap.L().Error("Request failed", zap.Error(err))
		message = http.StatusText(status)
	}
	writeJSON(w, status, errorResponse{Error: message})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		zap.L().Error("error while encoding response to JSON", zap.Error(err))
	}
}
