// internal/services/minting_service_test.go
package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/tbtlabs/tbt-backend/internal/apperrors"
	"github.com/tbtlabs/tbt-backend/internal/models"
)

type stubMinter struct {
	mu      sync.Mutex
	calls   int
	failErr error
}

func (m *stubMinter) MintNFT(ctx context.Context, req *MintRequest) (*MintResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.failErr != nil {
		return nil, m.failErr
	}
	return &MintResult{
		MintAddress: "MintAddr1111111111111111111111111111111111",
		TokenURI:    "https://meta.tbt.example.com/sunset.json",
	}, nil
}

func (m *stubMinter) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

type MintingServiceTestSuite struct {
	suite.Suite
	db      *gorm.DB
	minter  *stubMinter
	service *MintingService
	creator *models.User
	work    *models.Work
}

func (suite *MintingServiceTestSuite) SetupTest() {
	suite.db = setupTestDB(suite.T())
	cfg := testConfig()

	walletService, err := NewWalletService(suite.db, cfg.Wallet)
	suite.Require().NoError(err)

	suite.minter = &stubMinter{}
	suite.service = NewMintingService(suite.db, cfg, walletService, suite.minter, NewAlertService(suite.db))
	suite.creator = createTestUser(suite.T(), suite.db, "minter")
	suite.work = certifyTestWork(suite.T(), suite.db, suite.creator.ID).Work
}

func (suite *MintingServiceTestSuite) TestMintSuccess() {
	outcome, err := suite.service.Mint(context.Background(), suite.work.ID, suite.creator.ID)
	suite.Require().NoError(err)

	suite.Equal("MintAddr1111111111111111111111111111111111", outcome.MintAddress)
	suite.Equal("https://meta.tbt.example.com/sunset.json", outcome.TokenURI)
	suite.Contains(outcome.ExplorerURL, outcome.MintAddress)
	suite.False(outcome.AlreadyMinted)
	suite.Equal(1, suite.minter.callCount())

	var updated models.Work
	suite.Require().NoError(suite.db.First(&updated, suite.work.ID).Error)
	suite.Require().NotNil(updated.MintAddress)
	suite.Equal(outcome.MintAddress, *updated.MintAddress)
	suite.Equal(models.NFTStatusMinted, updated.NFTStatus)
	suite.Equal("solana-devnet", updated.Blockchain)

	// Minting provisions the creator's custodial wallet on first use
	var walletCount int64
	suite.db.Model(&models.Wallet{}).Where("user_id = ?", suite.creator.ID).Count(&walletCount)
	suite.Equal(int64(1), walletCount)
}

func (suite *MintingServiceTestSuite) TestMintIdempotent() {
	first, err := suite.service.Mint(context.Background(), suite.work.ID, suite.creator.ID)
	suite.Require().NoError(err)

	second, err := suite.service.Mint(context.Background(), suite.work.ID, suite.creator.ID)
	suite.Require().NoError(err)

	suite.True(second.AlreadyMinted)
	suite.Equal(first.MintAddress, second.MintAddress)
	suite.Equal(first.TokenURI, second.TokenURI)
	suite.Equal(1, suite.minter.callCount())
}

func (suite *MintingServiceTestSuite) TestMintForbiddenForNonCreator() {
	stranger := createTestUser(suite.T(), suite.db, "stranger")

	_, err := suite.service.Mint(context.Background(), suite.work.ID, stranger.ID)
	suite.Require().Error(err)
	suite.True(apperrors.Is(err, apperrors.KindForbidden))
	suite.Equal(0, suite.minter.callCount())
}

func (suite *MintingServiceTestSuite) TestMintUnknownWork() {
	_, err := suite.service.Mint(context.Background(), uuid.New(), suite.creator.ID)
	suite.Require().Error(err)
	suite.True(apperrors.Is(err, apperrors.KindNotFound))
}

func (suite *MintingServiceTestSuite) TestMintChainFailureIsRetryable() {
	suite.minter.failErr = errors.New("rpc node unavailable")

	_, err := suite.service.Mint(context.Background(), suite.work.ID, suite.creator.ID)
	suite.Require().Error(err)
	suite.True(apperrors.Is(err, apperrors.KindMinting))

	var unchanged models.Work
	suite.Require().NoError(suite.db.First(&unchanged, suite.work.ID).Error)
	suite.Nil(unchanged.MintAddress)
	suite.Equal(models.NFTStatusUnminted, unchanged.NFTStatus)

	// A retry after the chain recovers succeeds cleanly
	suite.minter.failErr = nil
	outcome, err := suite.service.Mint(context.Background(), suite.work.ID, suite.creator.ID)
	suite.Require().NoError(err)
	suite.False(outcome.AlreadyMinted)
	suite.NotEmpty(outcome.MintAddress)
}

func TestMintingServiceSuite(t *testing.T) {
	suite.Run(t, new(MintingServiceTestSuite))
}
