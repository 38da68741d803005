package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

//
// --- Admin: Payee Wallet Handlers ---
//

const walletHistoryLimit = 20

// GetPayeeWallet is the handler for GET /v1/admin/wallets/:userId
// It returns the payee's balance and latest ledger rows, so a reviewer can
// see what an approval will do before taking it.
func (h *Handlers) GetPayeeWallet(c *gin.Context) {
	// 1. --- Get User ID ---
	userID, err := strconv.ParseInt(c.Param("userId"), 10, 64)
	if err != nil || userID <= 0 {
		badRequest(c, "Invalid user id")
		return
	}

	// 2. --- Get Current Balance ---
	wallet, err := h.Wallets.Get(c.Request.Context(), userID)
	if err != nil {
		fail(c, err)
		return
	}

	// 3. --- Get Transaction History ---
	history, err := h.Wallets.RecentTransactions(c.Request.Context(), userID, walletHistoryLimit)
	if err != nil {
		fail(c, err)
		return
	}

	// 4. --- Send Response ---
	c.JSON(http.StatusOK, gin.H{
		"wallet":         wallet,
		"balanceDisplay": h.Formatter.Amount(wallet.BalanceCents),
		"overdrawn":      wallet.BalanceCents < 0,
		"transactions":   history,
	})
}
