// internal/services/minting_service.go
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/tbtlabs/tbt-backend/internal/apperrors"
	"github.com/tbtlabs/tbt-backend/internal/config"
	"github.com/tbtlabs/tbt-backend/internal/models"
)

// MintingService coordinates the one-time custodial mint. Minting is
// monotonic: once a work carries a mint address it never changes, and a
// repeated call returns the stored result without touching the chain.
type MintingService struct {
	db            *gorm.DB
	cfg           *config.Config
	walletService *WalletService
	chain         ChainMinter
	alertService  *AlertService
}

type MintOutcome struct {
	MintAddress   string `json:"mintAddress"`
	TokenURI      string `json:"tokenUri"`
	ExplorerURL   string `json:"explorerUrl"`
	AlreadyMinted bool   `json:"-"`
}

func NewMintingService(db *gorm.DB, cfg *config.Config, walletService *WalletService, chain ChainMinter, alertService *AlertService) *MintingService {
	return &MintingService{
		db:            db,
		cfg:           cfg,
		walletService: walletService,
		chain:         chain,
		alertService:  alertService,
	}
}

func (s *MintingService) Mint(ctx context.Context, workID, requesterID uuid.UUID) (*MintOutcome, error) {
	var work models.Work
	if err := s.db.Preload("Creator").Preload("Commerce").First(&work, workID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("work not found")
		}
		return nil, apperrors.Persistence("failed to load work", err)
	}

	if work.CreatorID != requesterID {
		return nil, apperrors.Forbidden("only the creator can mint this work")
	}

	// Already-minted short-circuit: the sole success-terminal state.
	if work.MintAddress != nil {
		return &MintOutcome{
			MintAddress:   *work.MintAddress,
			TokenURI:      work.TokenURI,
			ExplorerURL:   ExplorerURL(s.cfg.Blockchain, *work.MintAddress),
			AlreadyMinted: true,
		}, nil
	}

	wallet, err := s.walletService.GetOrCreateWallet(work.CreatorID)
	if err != nil {
		return nil, err
	}

	metadata := s.buildMetadata(&work)
	result, err := s.chain.MintNFT(ctx, &MintRequest{
		WalletPublicKey: wallet.PublicKey,
		Network:         s.cfg.Blockchain.Network,
		Metadata:        metadata,
	})
	if err != nil {
		// The work stays unminted, so a retry goes through the
		// already-minted check again and is safe.
		return nil, apperrors.Minting("chain mint failed", err)
	}

	// Conditional update is the actual mutual exclusion: only the first
	// writer sets mint_address, a lost race re-reads the winner's value.
	update := s.db.Model(&models.Work{}).
		Where("id = ? AND mint_address IS NULL", work.ID).
		Updates(map[string]interface{}{
			"mint_address": result.MintAddress,
			"token_uri":    result.TokenURI,
			"blockchain":   s.cfg.Blockchain.Network,
			"nft_status":   models.NFTStatusMinted,
		})
	if update.Error != nil {
		return nil, apperrors.Persistence("failed to record mint", update.Error)
	}

	if update.RowsAffected == 0 {
		var winner models.Work
		if err := s.db.First(&winner, work.ID).Error; err != nil {
			return nil, apperrors.Persistence("failed to reload minted work", err)
		}
		if winner.MintAddress == nil {
			return nil, apperrors.Persistence("mint race left work unminted", nil)
		}
		logrus.WithFields(logrus.Fields{
			"work_id":      work.ID,
			"mint_address": *winner.MintAddress,
		}).Warn("Concurrent mint detected, returning existing mint")
		return &MintOutcome{
			MintAddress:   *winner.MintAddress,
			TokenURI:      winner.TokenURI,
			ExplorerURL:   ExplorerURL(s.cfg.Blockchain, *winner.MintAddress),
			AlreadyMinted: true,
		}, nil
	}

	if s.alertService != nil {
		if err := s.alertService.Create(work.CreatorID, work.ID, models.AlertTypeNFTMinted,
			"NFT minted",
			fmt.Sprintf("Your work %q has been minted as %s.", work.Title, result.MintAddress)); err != nil {
			logrus.WithError(err).WithField("work_id", work.ID).
				Warn("Failed to create mint alert")
		}
	}

	return &MintOutcome{
		MintAddress: result.MintAddress,
		TokenURI:    result.TokenURI,
		ExplorerURL: ExplorerURL(s.cfg.Blockchain, result.MintAddress),
	}, nil
}

func (s *MintingService) buildMetadata(work *models.Work) NFTMetadata {
	certifiedAt := work.CreatedAt
	if work.CertifiedAt != nil {
		certifiedAt = *work.CertifiedAt
	}

	metadata := NFTMetadata{
		Name:        work.Title,
		Description: work.Description,
		Image:       work.MediaURL,
		TBTID:       work.TBTID,
		Category:    work.Category,
		Technique:   work.Technique,
		Creator:     work.Creator.PublicName(),
		Provenance: []ProvenanceEvent{
			{
				Owner: work.Creator.PublicName(),
				Event: "creation",
				Date:  certifiedAt,
			},
		},
	}

	if work.Commerce != nil {
		metadata.Commerce = map[string]interface{}{
			"initial_price": work.Commerce.InitialPrice,
			"currency":      work.Commerce.Currency,
			"royalty_type":  work.Commerce.RoyaltyType,
			"royalty_value": work.Commerce.RoyaltyValue,
		}
	}

	return metadata
}
