// internal/handlers/verification.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tbtlabs/tbt-backend/internal/apperrors"
	"github.com/tbtlabs/tbt-backend/internal/services"
)

type VerificationHandler struct {
	verificationService *services.VerificationService
}

func NewVerificationHandler(verificationService *services.VerificationService) *VerificationHandler {
	return &VerificationHandler{
		verificationService: verificationService,
	}
}

// GET /verify/:code and GET /verify?tbt_id= (a JSON body with tbt_id also
// works for scanner clients that POST-style their lookups).
// Public endpoint; the failure shape deliberately never distinguishes a
// missing work from an uncertified one.
func (h *VerificationHandler) VerifyWork(c *gin.Context) {
	code := c.Param("code")
	if code == "" {
		code = c.Query("tbt_id")
	}
	if code == "" {
		var body struct {
			TBTID string `json:"tbt_id"`
		}
		if err := c.ShouldBindJSON(&body); err == nil {
			code = body.TBTID
		}
	}
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"verified": false,
			"error":    "tbt_id is required",
			"tbt_id":   "",
		})
		return
	}

	var viewerID *uuid.UUID
	if userID, ok := currentUserID(c); ok {
		viewerID = &userID
	}

	result, err := h.verificationService.Verify(code, viewerID, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		status := http.StatusInternalServerError
		message := "verification failed"
		if apperrors.Is(err, apperrors.KindNotFound) {
			status = http.StatusNotFound
			message = "work not found or not certified"
		}

		c.JSON(status, gin.H{
			"verified": false,
			"error":    message,
			"tbt_id":   code,
		})
		return
	}

	c.JSON(http.StatusOK, result)
}
