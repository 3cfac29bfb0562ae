// internal/services/alert_service.go
package services

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbtlabs/tbt-backend/internal/models"
	"github.com/tbtlabs/tbt-backend/internal/utils"
)

// AlertService writes in-app notification rows. Callers on the certification
// and minting paths treat failures as best-effort.
type AlertService struct {
	db *gorm.DB
}

func NewAlertService(db *gorm.DB) *AlertService {
	return &AlertService{db: db}
}

func (s *AlertService) Create(userID, workID uuid.UUID, alertType models.AlertType, title, message string) error {
	alert := &models.Alert{
		UserID:  userID,
		WorkID:  workID,
		Type:    alertType,
		Title:   title,
		Message: message,
	}

	if err := s.db.Create(alert).Error; err != nil {
		return fmt.Errorf("failed to create alert: %w", err)
	}

	return nil
}

func (s *AlertService) GetUserAlerts(userID uuid.UUID, params utils.PaginationParams) ([]models.Alert, int64, error) {
	query := s.db.Model(&models.Alert{}).Where("user_id = ?", userID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count alerts: %w", err)
	}

	query = utils.ApplyPagination(query.Order("created_at DESC"), params)

	var alerts []models.Alert
	if err := query.Find(&alerts).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch alerts: %w", err)
	}

	return alerts, total, nil
}

func (s *AlertService) MarkRead(userID, alertID uuid.UUID) error {
	result := s.db.Model(&models.Alert{}).
		Where("id = ? AND user_id = ?", alertID, userID).
		Update("is_read", true)
	if result.Error != nil {
		return fmt.Errorf("failed to mark alert read: %w", result.Error)
	}

	return nil
}
