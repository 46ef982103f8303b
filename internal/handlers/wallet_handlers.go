package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lumenpay/wallet-api/internal/balance"
	"github.com/lumenpay/wallet-api/internal/session"
	"github.com/lumenpay/wallet-api/internal/store"
)

// WalletHandler handles wallet lifecycle operations
type WalletHandler struct {
	common *CommonServices
}

// NewWalletHandler creates a new WalletHandler instance
func NewWalletHandler(common *CommonServices) *WalletHandler {
	return &WalletHandler{common: common}
}

// WalletResponse represents the standardized API response for wallet operations
type WalletResponse struct {
	Object       string `json:"object"`
	Address      string `json:"address"`
	AccountIndex uint64 `json:"account_index"`
	Network      string `json:"network"`
}

// BalanceResponse represents one asset balance of the wallet
type BalanceResponse struct {
	Symbol   string `json:"symbol"`
	Native   bool   `json:"native"`
	Amount   string `json:"amount"`
	Display  string `json:"display"`
	Decimals int32  `json:"decimals"`
}

// BalanceListResponse represents the response for the balances endpoint
type BalanceListResponse struct {
	Object  string            `json:"object"`
	Address string            `json:"address"`
	Data    []BalanceResponse `json:"data"`
}

func toWalletResponse(w *session.Wallet) WalletResponse {
	return WalletResponse{
		Object:       "wallet",
		Address:      w.Address.Hex(),
		AccountIndex: w.AccountIndex,
		Network:      w.Network,
	}
}

// CreateWallet provisions a fresh smart wallet and session key for the
// authenticated user and returns the counterfactual address.
func (h *WalletHandler) CreateWallet(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	w, err := h.common.sessions.Create(c.Request.Context(), userID)
	if err != nil {
		switch {
		case errors.Is(err, session.ErrAlreadyActive):
			sendError(c, http.StatusConflict, "Wallet session already active", err)
		default:
			sendError(c, http.StatusInternalServerError, "Failed to create wallet", err)
		}
		return
	}

	sendSuccess(c, http.StatusCreated, toWalletResponse(w))
}

// RestoreWallet rebuilds the user's wallet session from the persisted record.
func (h *WalletHandler) RestoreWallet(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	w, err := h.common.sessions.Restore(c.Request.Context(), userID)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			sendError(c, http.StatusNotFound, "No wallet record for user", err)
		case errors.Is(err, session.ErrRecordCorrupt):
			sendError(c, http.StatusUnprocessableEntity, "Wallet record corrupt, create a new wallet", err)
		case errors.Is(err, session.ErrAlreadyActive):
			sendError(c, http.StatusConflict, "Wallet session already active", err)
		default:
			sendError(c, http.StatusInternalServerError, "Failed to restore wallet", err)
		}
		return
	}

	sendSuccess(c, http.StatusOK, toWalletResponse(w))
}

// ResetWallet tears down the active session and deletes the wallet record.
func (h *WalletHandler) ResetWallet(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	if err := h.common.sessions.Reset(c.Request.Context(), userID); err != nil {
		switch {
		case errors.Is(err, session.ErrNotActive):
			sendError(c, http.StatusConflict, "No active wallet session", err)
		default:
			sendError(c, http.StatusInternalServerError, "Failed to reset wallet", err)
		}
		return
	}

	sendSuccessMessage(c, http.StatusOK, "Wallet reset")
}

// GetBalances reads the native and configured token balances of the active
// wallet. Requires an active session.
func (h *WalletHandler) GetBalances(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	active, err := h.common.sessions.ActiveSession(userID)
	if err != nil {
		sendError(c, http.StatusConflict, "No active wallet session", err)
		return
	}

	assets := append([]balance.Asset{h.common.assets.Native()}, h.common.assets.Tokens()...)
	data := make([]BalanceResponse, 0, len(assets))
	for _, asset := range assets {
		amount, err := h.common.gate.Balance(c.Request.Context(), active.Account.Address, asset)
		if err != nil {
			sendError(c, http.StatusBadGateway, "Balance unavailable", err)
			return
		}
		data = append(data, BalanceResponse{
			Symbol:   asset.Symbol,
			Native:   asset.Native,
			Amount:   amount.String(),
			Display:  balance.Display(asset, amount).String(),
			Decimals: asset.Decimals,
		})
	}

	sendSuccess(c, http.StatusOK, BalanceListResponse{
		Object:  "list",
		Address: active.Account.Address.Hex(),
		Data:    data,
	})
}
