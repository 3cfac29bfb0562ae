// internal/router/router.go
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/tbtlabs/tbt-backend/internal/config"
	"github.com/tbtlabs/tbt-backend/internal/handlers"
	"github.com/tbtlabs/tbt-backend/internal/middleware"
	"github.com/tbtlabs/tbt-backend/internal/services"
	"github.com/tbtlabs/tbt-backend/internal/utils"
)

func Initialize(db *gorm.DB, cfg *config.Config) *gin.Engine {
	// Initialize services
	alertService := services.NewAlertService(db)
	storageService, err := services.NewStorageService(cfg)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to initialize storage service")
	}
	walletService, err := services.NewWalletService(db, cfg.Wallet)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to initialize wallet service")
	}
	blockchainService := services.NewBlockchainService(cfg.Blockchain)

	authService := services.NewAuthService(db, cfg)
	certificationService := services.NewCertificationService(db, cfg, alertService)
	mintingService := services.NewMintingService(db, cfg, walletService, blockchainService, alertService)
	verificationService := services.NewVerificationService(db, cfg)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	workHandler := handlers.NewWorkHandler(certificationService, storageService)
	verificationHandler := handlers.NewVerificationHandler(verificationService)
	nftHandler := handlers.NewNFTHandler(mintingService)
	walletHandler := handlers.NewWalletHandler(walletService)
	alertHandler := handlers.NewAlertHandler(alertService)

	// Set JWT secret
	utils.SetJWTSecret(cfg.JWT.SecretKey)

	// Initialize Gin router
	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS(cfg.Frontend.BaseURL))
	r.Use(middleware.GeneralRateLimit())

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"version": "1.0.0",
		})
	})

	// API v1 routes
	v1 := r.Group("/v1")
	{
		// Authentication routes
		auth := v1.Group("/auth")
		auth.Use(middleware.AuthRateLimit())
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authHandler.Refresh)
			auth.GET("/me", middleware.AuthRequired(), authHandler.GetProfile)
		}

		// Work routes
		works := v1.Group("/works")
		works.Use(middleware.AuthRequired())
		{
			works.GET("", workHandler.GetMyWorks)
			works.POST("/certify", workHandler.CertifyWork)
			works.POST("/upload", middleware.UploadRateLimit(), workHandler.UploadMedia)
		}

		// Public verification routes
		verify := v1.Group("/verify")
		verify.Use(middleware.VerifyRateLimit(), middleware.OptionalAuth())
		{
			verify.GET("", verificationHandler.VerifyWork)
			verify.GET("/:code", verificationHandler.VerifyWork)
		}

		// NFT routes
		nft := v1.Group("/nft")
		nft.Use(middleware.AuthRequired())
		{
			nft.POST("/mint", nftHandler.MintNFT)
		}

		// Wallet routes
		wallet := v1.Group("/wallet")
		wallet.Use(middleware.AuthRequired())
		{
			wallet.GET("", walletHandler.GetWallet)
			wallet.POST("", walletHandler.CreateWallet)
		}

		// Alert routes
		alerts := v1.Group("/alerts")
		alerts.Use(middleware.AuthRequired())
		{
			alerts.GET("", alertHandler.GetAlerts)
			alerts.PUT("/:id/read", alertHandler.MarkAlertRead)
		}
	}

	return r
}
