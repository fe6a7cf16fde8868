package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"bikeshare/internal/domain"
	"bikeshare/internal/service"
)

// WalletHandler handles HTTP requests for rider wallets.
type WalletHandler struct {
	walletService *service.WalletService
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(walletService *service.WalletService) *WalletHandler {
	return &WalletHandler{walletService: walletService}
}

// AmountRequest is the HTTP request body for top-up and withdrawal.
type AmountRequest struct {
	Amount float64 `json:"amount" binding:"required"`
}

// BalanceResponse is the HTTP response for balance operations.
type BalanceResponse struct {
	RiderID string  `json:"rider_id"`
	Balance float64 `json:"balance"`
}

// TransactionResponse is one ledger entry in the transaction list.
type TransactionResponse struct {
	TransactionID string            `json:"transaction_id"`
	Type          string            `json:"type"`
	Amount        float64           `json:"amount"`
	Status        string            `json:"status"`
	Metadata      map[string]string `json:"metadata,omitempty"`
	CreatedAt     string            `json:"created_at"`
}

// ReconciliationResponse reports the wallet-versus-ledger comparison.
type ReconciliationResponse struct {
	RiderID    string  `json:"rider_id"`
	Balance    float64 `json:"balance"`
	LedgerSum  float64 `json:"ledger_sum"`
	Reconciled bool    `json:"reconciled"`
}

// GetBalance handles GET /v1/wallets/:riderID
func (h *WalletHandler) GetBalance(c *gin.Context) {
	riderID := c.Param("riderID")

	balance, err := h.walletService.Balance(c.Request.Context(), riderID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, BalanceResponse{RiderID: riderID, Balance: balance})
}

// TopUp handles POST /v1/wallets/:riderID/topup
func (h *WalletHandler) TopUp(c *gin.Context) {
	riderID := c.Param("riderID")

	var req AmountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body: " + err.Error()})
		return
	}

	balance, err := h.walletService.TopUp(c.Request.Context(), riderID, req.Amount)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, BalanceResponse{RiderID: riderID, Balance: balance})
}

// Withdraw handles POST /v1/wallets/:riderID/withdraw
func (h *WalletHandler) Withdraw(c *gin.Context) {
	riderID := c.Param("riderID")

	var req AmountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body: " + err.Error()})
		return
	}

	balance, err := h.walletService.Withdraw(c.Request.Context(), riderID, req.Amount)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, BalanceResponse{RiderID: riderID, Balance: balance})
}

// GetTransactions handles GET /v1/wallets/:riderID/transactions
func (h *WalletHandler) GetTransactions(c *gin.Context) {
	transactions, err := h.walletService.Transactions(c.Request.Context(), c.Param("riderID"))
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]TransactionResponse, 0, len(transactions))
	for _, tx := range transactions {
		response = append(response, toTransactionResponse(tx))
	}

	respondJSON(c, http.StatusOK, response)
}

// Reconcile handles GET /v1/wallets/:riderID/reconcile
func (h *WalletHandler) Reconcile(c *gin.Context) {
	result, err := h.walletService.Reconcile(c.Request.Context(), c.Param("riderID"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, ReconciliationResponse{
		RiderID:    result.RiderID,
		Balance:    result.Balance,
		LedgerSum:  result.LedgerSum,
		Reconciled: result.Reconciled,
	})
}

func toTransactionResponse(tx *domain.Transaction) TransactionResponse {
	return TransactionResponse{
		TransactionID: tx.ID,
		Type:          string(tx.Type),
		Amount:        tx.Amount,
		Status:        string(tx.Status),
		Metadata:      tx.Metadata,
		CreatedAt:     tx.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}
