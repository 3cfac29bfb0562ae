// internal/services/verification_service.go
package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/tbtlabs/tbt-backend/internal/apperrors"
	"github.com/tbtlabs/tbt-backend/internal/config"
	"github.com/tbtlabs/tbt-backend/internal/models"
	"github.com/tbtlabs/tbt-backend/internal/utils"
)

// VerificationService reconstructs the public provenance view for a TBT.
// Draft works are indistinguishable from missing ones: the lookup is filtered
// to certified status so unfinished state never leaks.
type VerificationService struct {
	db  *gorm.DB
	cfg *config.Config
}

type VerificationResult struct {
	Verified         bool                 `json:"verified"`
	TBTID            string               `json:"tbt_id"`
	Work             VerifiedWork         `json:"work"`
	Creator          VerifiedPerson       `json:"creator"`
	CurrentOwner     VerifiedOwner        `json:"current_owner"`
	Commerce         *VerifiedCommerce    `json:"commerce"`
	Context          *VerifiedContext     `json:"context"`
	Certificate      *VerifiedCertificate `json:"certificate"`
	OwnershipHistory []OwnershipEvent     `json:"ownership_history"`
	VerificationURL  string               `json:"verification_url"`
	VerifiedAt       time.Time            `json:"verified_at"`
}

type VerifiedWork struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Category    string     `json:"category"`
	Technique   string     `json:"technique,omitempty"`
	MediaURL    string     `json:"media_url"`
	CertifiedAt *time.Time `json:"certified_at"`
}

type VerifiedPerson struct {
	Name   string `json:"name"`
	Avatar string `json:"avatar,omitempty"`
}

type VerifiedOwner struct {
	Name      string `json:"name"`
	Avatar    string `json:"avatar,omitempty"`
	IsCreator bool   `json:"is_creator"`
}

type VerifiedCommerce struct {
	Price    float64 `json:"price"`
	Currency string  `json:"currency"`
	Royalty  string  `json:"royalty"`
	ForSale  bool    `json:"for_sale"`
}

type VerifiedContext struct {
	Keywords  []string  `json:"keywords"`
	Location  string    `json:"location,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type VerifiedCertificate struct {
	ID          string    `json:"id"`
	Version     int       `json:"version"`
	GeneratedAt time.Time `json:"generated_at"`
	QRURL       string    `json:"qr_url"`
}

type OwnershipEvent struct {
	Owner string    `json:"owner"`
	Event string    `json:"event"`
	Date  time.Time `json:"date"`
}

func NewVerificationService(db *gorm.DB, cfg *config.Config) *VerificationService {
	return &VerificationService{
		db:  db,
		cfg: cfg,
	}
}

// Verify builds the public verification view. viewerID, viewerIP and
// userAgent feed a best-effort analytics row that can never fail the call;
// viewerID is nil for anonymous callers.
func (s *VerificationService) Verify(tbtID string, viewerID *uuid.UUID, viewerIP, userAgent string) (*VerificationResult, error) {
	code := utils.NormalizeTBTCode(tbtID)
	if !utils.ValidateTBTCode(code) {
		return nil, apperrors.NotFound("work not found or not certified")
	}

	var work models.Work
	err := s.db.Preload("Creator").Preload("CurrentOwner").
		Where("tbt_id = ? AND status = ?", code, models.WorkStatusCertified).
		First(&work).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("work not found or not certified")
		}
		return nil, apperrors.Persistence("failed to load work", err)
	}

	result := &VerificationResult{
		Verified: true,
		TBTID:    work.TBTID,
		Work: VerifiedWork{
			Title:       work.Title,
			Description: work.Description,
			Category:    work.Category,
			Technique:   work.Technique,
			MediaURL:    work.MediaURL,
			CertifiedAt: work.CertifiedAt,
		},
		Creator: VerifiedPerson{
			Name:   work.Creator.PublicName(),
			Avatar: work.Creator.AvatarURL,
		},
		CurrentOwner: VerifiedOwner{
			Name:      work.CurrentOwner.PublicName(),
			Avatar:    work.CurrentOwner.AvatarURL,
			IsCreator: work.CurrentOwnerID == work.CreatorID,
		},
		VerificationURL: fmt.Sprintf("%s/verify/%s", s.cfg.Frontend.BaseURL, work.TBTID),
		VerifiedAt:      time.Now(),
	}

	var commerce models.WorkCommerce
	if err := s.db.Where("work_id = ?", work.ID).First(&commerce).Error; err == nil {
		result.Commerce = &VerifiedCommerce{
			Price:    commerce.InitialPrice,
			Currency: commerce.Currency,
			Royalty:  formatRoyalty(&commerce),
			ForSale:  commerce.IsForSale,
		}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.Persistence("failed to load commerce terms", err)
	}

	var workContext models.WorkContext
	if err := s.db.Where("work_id = ?", work.ID).First(&workContext).Error; err == nil {
		result.Context = &VerifiedContext{
			Keywords:  workContext.Keywords,
			Location:  workContext.GeographicalLocation,
			CreatedAt: workContext.CreationTimestamp,
		}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.Persistence("failed to load work context", err)
	}

	var certificate models.Certificate
	if err := s.db.Where("work_id = ?", work.ID).
		Order("version DESC").First(&certificate).Error; err == nil {
		result.Certificate = &VerifiedCertificate{
			ID:          certificate.ID.String(),
			Version:     certificate.Version,
			GeneratedAt: certificate.GeneratedAt,
			QRURL:       certificate.QRCodeData,
		}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.Persistence("failed to load certificate", err)
	}

	history, err := s.buildOwnershipHistory(&work)
	if err != nil {
		return nil, err
	}
	result.OwnershipHistory = history

	// Analytics row is fire-and-forget.
	go s.recordView(work.ID, viewerID, viewerIP, userAgent)

	return result, nil
}

// buildOwnershipHistory merges the synthetic creation event with completed
// transfers in completion order: a total order with exactly one creation
// event first.
func (s *VerificationService) buildOwnershipHistory(work *models.Work) ([]OwnershipEvent, error) {
	creationDate := work.CreatedAt
	if work.CertifiedAt != nil {
		creationDate = *work.CertifiedAt
	}

	history := []OwnershipEvent{
		{
			Owner: work.Creator.PublicName(),
			Event: "creation",
			Date:  creationDate,
		},
	}

	var transfers []models.Transfer
	err := s.db.Preload("ToOwner").
		Where("work_id = ? AND status = ?", work.ID, models.TransferStatusCompleted).
		Order("completed_at ASC").
		Find(&transfers).Error
	if err != nil {
		return nil, apperrors.Persistence("failed to load transfers", err)
	}

	for _, transfer := range transfers {
		event := "sale"
		if transfer.TransferType == models.TransferTypeGift {
			event = "gift"
		}

		date := transfer.CreatedAt
		if transfer.CompletedAt != nil {
			date = *transfer.CompletedAt
		}

		history = append(history, OwnershipEvent{
			Owner: transfer.ToOwner.PublicName(),
			Event: event,
			Date:  date,
		})
	}

	return history, nil
}

func (s *VerificationService) recordView(workID uuid.UUID, viewerID *uuid.UUID, viewerIP, userAgent string) {
	view := &models.WorkView{
		WorkID:    workID,
		ViewerID:  viewerID,
		IPAddress: viewerIP,
		UserAgent: userAgent,
	}
	if err := s.db.Create(view).Error; err != nil {
		logrus.WithError(err).Debug("Failed to record work view")
	}
}

func formatRoyalty(commerce *models.WorkCommerce) string {
	if commerce.RoyaltyType == models.RoyaltyTypePercentage {
		return fmt.Sprintf("%.2f%%", commerce.RoyaltyValue)
	}
	return fmt.Sprintf("%.2f %s", commerce.RoyaltyValue, commerce.Currency)
}
