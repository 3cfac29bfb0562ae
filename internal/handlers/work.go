// internal/handlers/work.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/tbtlabs/tbt-backend/internal/services"
	"github.com/tbtlabs/tbt-backend/internal/utils"
)

type WorkHandler struct {
	certificationService *services.CertificationService
	storageService       *services.StorageService
}

func NewWorkHandler(certificationService *services.CertificationService, storageService *services.StorageService) *WorkHandler {
	return &WorkHandler{
		certificationService: certificationService,
		storageService:       storageService,
	}
}

// POST /works/certify
func (h *WorkHandler) CertifyWork(c *gin.Context) {
	creatorID, ok := currentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	var req services.CertifyWorkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	result, err := h.certificationService.Certify(creatorID, &req)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"tbt_id":           result.TBTID,
		"work":             result.Work,
		"certificate":      result.Certificate,
		"verification_url": result.VerificationURL,
	})
}

// GET /works
func (h *WorkHandler) GetMyWorks(c *gin.Context) {
	creatorID, ok := currentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	params := utils.GetPaginationParams(c)

	works, total, err := h.certificationService.GetCreatorWorks(creatorID, params)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	result := utils.CreatePaginationResult(works, total, params)
	utils.PaginatedResponse(c, result)
}

// POST /works/upload
func (h *WorkHandler) UploadMedia(c *gin.Context) {
	if _, ok := currentUserID(c); !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		utils.BadRequestResponse(c, "Media file is required", nil)
		return
	}
	defer file.Close()

	result, err := h.storageService.UploadFile(file, header, h.storageService.MediaUploadOptions())
	if err != nil {
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"media_url": result.URL,
		"key":       result.Key,
		"size":      result.Size,
		"mime_type": result.MimeType,
	})
}
