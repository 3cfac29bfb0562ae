// internal/handlers/nft.go
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tbtlabs/tbt-backend/internal/services"
	"github.com/tbtlabs/tbt-backend/internal/utils"
)

type NFTHandler struct {
	mintingService *services.MintingService
}

func NewNFTHandler(mintingService *services.MintingService) *NFTHandler {
	return &NFTHandler{
		mintingService: mintingService,
	}
}

// mintRequest accepts both key spellings; clients send workId, older ones
// send work_id.
type mintRequest struct {
	WorkID      string `json:"workId"`
	WorkIDSnake string `json:"work_id"`
}

func (r *mintRequest) workID() string {
	if r.WorkID != "" {
		return r.WorkID
	}
	return r.WorkIDSnake
}

// POST /nft/mint
func (h *NFTHandler) MintNFT(c *gin.Context) {
	requesterID, ok := currentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	var req mintRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.workID() == "" {
		utils.BadRequestResponse(c, "workId is required", nil)
		return
	}

	workID, err := uuid.Parse(req.workID())
	if err != nil {
		utils.BadRequestResponse(c, "Invalid work ID", nil)
		return
	}

	outcome, err := h.mintingService.Mint(c.Request.Context(), workID, requesterID)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	message := "NFT minted successfully"
	if outcome.AlreadyMinted {
		message = "Work is already minted"
	}

	utils.SuccessResponse(c, gin.H{
		"mintAddress": outcome.MintAddress,
		"tokenUri":    outcome.TokenURI,
		"explorerUrl": outcome.ExplorerURL,
		"message":     message,
	})
}
