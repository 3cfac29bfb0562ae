// internal/handlers/wallet.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/tbtlabs/tbt-backend/internal/services"
	"github.com/tbtlabs/tbt-backend/internal/utils"
)

type WalletHandler struct {
	walletService *services.WalletService
}

func NewWalletHandler(walletService *services.WalletService) *WalletHandler {
	return &WalletHandler{
		walletService: walletService,
	}
}

// GET /wallet
func (h *WalletHandler) GetWallet(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	wallet, err := h.walletService.GetPrimaryWallet(userID)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	if wallet == nil {
		utils.SuccessResponse(c, gin.H{
			"hasWallet": false,
		})
		return
	}

	utils.SuccessResponse(c, gin.H{
		"hasWallet": true,
		"publicKey": wallet.PublicKey,
		"network":   wallet.Network,
		"createdAt": wallet.CreatedAt,
	})
}

// POST /wallet is idempotent: repeated calls return the same wallet.
func (h *WalletHandler) CreateWallet(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	wallet, err := h.walletService.GetOrCreateWallet(userID)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"publicKey": wallet.PublicKey,
		"message":   "Wallet ready",
	})
}
