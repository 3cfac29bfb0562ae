// internal/services/certification_service.go
package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/tbtlabs/tbt-backend/internal/apperrors"
	"github.com/tbtlabs/tbt-backend/internal/config"
	"github.com/tbtlabs/tbt-backend/internal/database"
	"github.com/tbtlabs/tbt-backend/internal/models"
	"github.com/tbtlabs/tbt-backend/internal/utils"
)

// CertificationService runs the certification saga. Steps 1-2 (work and
// commerce) are load-bearing: a commerce failure compensates by deleting the
// work just created. Steps 3-6 (context, status flip, certificate, alert)
// degrade gracefully; a work with missing enrichment is a valid terminal state.
type CertificationService struct {
	db           *gorm.DB
	cfg          *config.Config
	alertService *AlertService
}

type CertifyWorkRequest struct {
	Title                string             `json:"title" validate:"required,min=1,max=255"`
	Description          string             `json:"description" validate:"required,min=1"`
	Category             string             `json:"category" validate:"required"`
	Technique            string             `json:"technique,omitempty"`
	MediaURL             string             `json:"media_url" validate:"required,url"`
	InitialPrice         float64            `json:"initial_price" validate:"gte=0"`
	Currency             string             `json:"currency,omitempty"`
	RoyaltyType          models.RoyaltyType `json:"royalty_type" validate:"required,oneof=fixed percentage"`
	RoyaltyValue         float64            `json:"royalty_value" validate:"gte=0"`
	IsForSale            bool               `json:"is_for_sale,omitempty"`
	Keywords             []string           `json:"keywords,omitempty"`
	GeographicalLocation string             `json:"geographical_location,omitempty"`
}

type CertifyResult struct {
	TBTID           string              `json:"tbt_id"`
	Work            *models.Work        `json:"work"`
	Certificate     *models.Certificate `json:"certificate,omitempty"`
	VerificationURL string              `json:"verification_url"`
}

func NewCertificationService(db *gorm.DB, cfg *config.Config, alertService *AlertService) *CertificationService {
	return &CertificationService{
		db:           db,
		cfg:          cfg,
		alertService: alertService,
	}
}

func (s *CertificationService) Certify(creatorID uuid.UUID, req *CertifyWorkRequest) (*CertifyResult, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, apperrors.Validation(validationSummary(err))
	}

	var creator models.User
	if err := s.db.First(&creator, creatorID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.Authentication("creator account not found")
		}
		return nil, apperrors.Persistence("failed to load creator", err)
	}
	if creator.Status != models.UserStatusActive {
		return nil, apperrors.Forbidden("creator account is not active")
	}

	// Step 1: insert the work in draft state. The persistence layer owns
	// TBT uniqueness; a collision regenerates and retries.
	work, err := s.insertWork(creatorID, req)
	if err != nil {
		return nil, err
	}

	// Step 2: insert commerce terms. On failure the work just created is
	// removed again; there is no enclosing transaction across the saga.
	currency := req.Currency
	if currency == "" {
		currency = "USD"
	}
	commerce := &models.WorkCommerce{
		WorkID:       work.ID,
		InitialPrice: req.InitialPrice,
		Currency:     currency,
		RoyaltyType:  req.RoyaltyType,
		RoyaltyValue: req.RoyaltyValue,
		IsForSale:    req.IsForSale,
	}
	if err := s.db.Create(commerce).Error; err != nil {
		if delErr := s.db.Unscoped().Delete(work).Error; delErr != nil {
			logrus.WithError(delErr).WithField("work_id", work.ID).
				Error("Failed to compensate work insert after commerce failure")
		}
		return nil, apperrors.Persistence("failed to create commerce terms", err)
	}
	work.Commerce = commerce

	// Step 3: context is enrichment only; log and continue on failure.
	workContext := &models.WorkContext{
		WorkID:               work.ID,
		Keywords:             models.StringList(req.Keywords),
		GeographicalLocation: req.GeographicalLocation,
		CreationTimestamp:    time.Now(),
		IsConfirmed:          true,
	}
	if err := s.db.Create(workContext).Error; err != nil {
		logrus.WithError(err).WithField("work_id", work.ID).
			Warn("Failed to create work context, continuing")
	} else {
		work.Context = workContext
	}

	// Step 4: flip the work to certified. On failure the response falls
	// back to the pre-update draft work.
	now := time.Now()
	updates := map[string]interface{}{
		"status":       models.WorkStatusCertified,
		"certified_at": now,
	}
	if err := s.db.Model(&models.Work{}).Where("id = ?", work.ID).Updates(updates).Error; err != nil {
		logrus.WithError(err).WithField("work_id", work.ID).
			Warn("Failed to mark work certified, continuing")
	} else {
		work.Status = models.WorkStatusCertified
		work.CertifiedAt = &now
	}

	verificationURL := s.verificationURL(work.TBTID)

	// Step 5: initial certificate, version 1.
	certificate, err := s.issueCertificate(work, creatorID, verificationURL)
	if err != nil {
		logrus.WithError(err).WithField("work_id", work.ID).
			Warn("Failed to issue initial certificate, continuing")
		certificate = nil
	}

	// Step 6: success alert, best-effort.
	if s.alertService != nil {
		if err := s.alertService.Create(creatorID, work.ID, models.AlertTypeWorkCertified,
			"Work certified",
			fmt.Sprintf("Your work %q has been certified as %s.", work.Title, work.TBTID)); err != nil {
			logrus.WithError(err).WithField("work_id", work.ID).
				Warn("Failed to create certification alert")
		}
	}

	return &CertifyResult{
		TBTID:           work.TBTID,
		Work:            work,
		Certificate:     certificate,
		VerificationURL: verificationURL,
	}, nil
}

func (s *CertificationService) insertWork(creatorID uuid.UUID, req *CertifyWorkRequest) (*models.Work, error) {
	const maxAttempts = 5

	for attempt := 0; attempt < maxAttempts; attempt++ {
		code, err := utils.GenerateTBTCode()
		if err != nil {
			return nil, apperrors.Persistence("failed to generate TBT code", err)
		}

		work := &models.Work{
			TBTID:          code,
			CreatorID:      creatorID,
			CurrentOwnerID: creatorID,
			Title:          req.Title,
			Description:    req.Description,
			Category:       req.Category,
			Technique:      req.Technique,
			MediaURL:       req.MediaURL,
			Status:         models.WorkStatusDraft,
			NFTStatus:      models.NFTStatusUnminted,
		}

		err = s.db.Create(work).Error
		if err == nil {
			return work, nil
		}
		if !isDuplicateKey(err) {
			return nil, apperrors.Persistence("failed to create work", err)
		}
	}

	return nil, apperrors.Persistence("failed to assign a unique TBT code", nil)
}

// NextCertificateVersion returns 1 + max(existing version) for the work, or 1
// when no certificate exists yet. Certificate rows are append-only, so the
// sequence is replayable.
func (s *CertificationService) NextCertificateVersion(workID uuid.UUID) (int, error) {
	return nextCertificateVersion(s.db, workID)
}

func nextCertificateVersion(db *gorm.DB, workID uuid.UUID) (int, error) {
	var maxVersion int
	err := db.Model(&models.Certificate{}).
		Where("work_id = ?", workID).
		Select("COALESCE(MAX(version), 0)").
		Scan(&maxVersion).Error
	if err != nil {
		return 0, apperrors.Persistence("failed to resolve certificate version", err)
	}

	return maxVersion + 1, nil
}

// issueCertificate allocates the next version and inserts the row in one
// transaction, so the (work_id, version) index sees them together.
func (s *CertificationService) issueCertificate(work *models.Work, ownerID uuid.UUID, verificationURL string) (*models.Certificate, error) {
	certificate := &models.Certificate{
		WorkID:      work.ID,
		OwnerID:     ownerID,
		QRCodeData:  verificationURL,
		GeneratedAt: time.Now(),
	}

	err := database.WithTransaction(s.db, func(tx *gorm.DB) error {
		version, err := nextCertificateVersion(tx, work.ID)
		if err != nil {
			return err
		}

		certificate.Version = version
		if err := tx.Create(certificate).Error; err != nil {
			return apperrors.Persistence("failed to create certificate", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return certificate, nil
}

// GetCreatorWorks lists the caller's own works, drafts included.
func (s *CertificationService) GetCreatorWorks(creatorID uuid.UUID, params utils.PaginationParams) ([]models.Work, int64, error) {
	query := s.db.Model(&models.Work{}).Where("creator_id = ?", creatorID)

	if params.Search != "" {
		searchTerm := "%" + strings.ToLower(params.Search) + "%"
		query = query.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ?", searchTerm, searchTerm)
	}
	if params.Category != "" {
		query = query.Where("category = ?", params.Category)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperrors.Persistence("failed to count works", err)
	}

	allowedSortFields := []string{"created_at", "updated_at", "title", "certified_at"}
	query = utils.ApplySort(query, params, allowedSortFields)
	query = utils.ApplyPagination(query, params)

	var works []models.Work
	if err := query.Preload("Commerce").Find(&works).Error; err != nil {
		return nil, 0, apperrors.Persistence("failed to fetch works", err)
	}

	return works, total, nil
}

func (s *CertificationService) verificationURL(tbtID string) string {
	return fmt.Sprintf("%s/verify/%s", s.cfg.Frontend.BaseURL, tbtID)
}

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "UNIQUE constraint")
}

func validationSummary(err error) string {
	fieldErrors := utils.GetValidationErrors(err)
	if len(fieldErrors) == 0 {
		return "validation failed"
	}

	messages := make([]string, 0, len(fieldErrors))
	for _, fe := range fieldErrors {
		messages = append(messages, fe.Message)
	}
	return strings.Join(messages, "; ")
}
