package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lumenpay/wallet-api/internal/balance"
	"github.com/lumenpay/wallet-api/internal/dispatch"
)

// TransferHandler handles transfer submission
type TransferHandler struct {
	common *CommonServices
}

// NewTransferHandler creates a new TransferHandler instance
func NewTransferHandler(common *CommonServices) *TransferHandler {
	return &TransferHandler{common: common}
}

// CreateTransferRequest represents the request body for submitting a transfer.
// Amount is a human-readable decimal string scaled by the asset's decimals.
type CreateTransferRequest struct {
	Recipient string `json:"recipient" binding:"required"`
	Amount    string `json:"amount" binding:"required"`
	Asset     string `json:"asset,omitempty"`
}

// TransferResponse represents the accepted-transfer response. The operation
// hash is an opaque handle; acceptance is not finality.
type TransferResponse struct {
	Object        string `json:"object"`
	OperationHash string `json:"operation_hash"`
	Asset         string `json:"asset"`
	Amount        string `json:"amount"`
	Recipient     string `json:"recipient"`
}

// CreateTransfer submits a balance-gated transfer from the active wallet,
// signed by the session key.
func (h *TransferHandler) CreateTransfer(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req CreateTransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	active, err := h.common.sessions.ActiveSession(userID)
	if err != nil {
		sendError(c, http.StatusConflict, "No active wallet session", err)
		return
	}

	asset, ok := h.common.assets.Resolve(req.Asset)
	if !ok {
		sendError(c, http.StatusBadRequest, "Unknown asset", errors.New("asset not configured: "+req.Asset))
		return
	}

	amount, err := balance.ParseAmount(asset, req.Amount)
	if err != nil {
		sendError(c, http.StatusBadRequest, "Invalid amount", err)
		return
	}

	handle, err := h.common.dispatcher.Transfer(
		c.Request.Context(),
		active.SessionSigner,
		active.Account,
		req.Recipient,
		amount,
		asset,
	)
	if err != nil {
		switch {
		case errors.Is(err, dispatch.ErrInvalidAddress):
			sendError(c, http.StatusBadRequest, "Invalid recipient address", err)
		case errors.Is(err, balance.ErrInsufficientBalance):
			sendError(c, http.StatusPaymentRequired, "Insufficient balance", err)
		case errors.Is(err, balance.ErrBalanceUnavailable):
			sendError(c, http.StatusBadGateway, "Balance unavailable", err)
		case errors.Is(err, dispatch.ErrSubmissionRejected):
			sendError(c, http.StatusBadGateway, "Transfer submission rejected", err)
		default:
			sendError(c, http.StatusInternalServerError, "Failed to submit transfer", err)
		}
		return
	}

	sendSuccess(c, http.StatusAccepted, TransferResponse{
		Object:        "transfer",
		OperationHash: handle.Hex(),
		Asset:         asset.Symbol,
		Amount:        req.Amount,
		Recipient:     req.Recipient,
	})
}
