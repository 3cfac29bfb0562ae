// internal/router/router_test.go
package router

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbtlabs/tbt-backend/internal/config"
	"github.com/tbtlabs/tbt-backend/internal/models"
)

// RouterTestSuite drives the full HTTP surface end to end against an
// in-memory database and a fake mint relay.
type RouterTestSuite struct {
	suite.Suite
	db        *gorm.DB
	engine    *gin.Engine
	mintRelay *httptest.Server
	token     string
	clientIP  string
}

// The rate limiters key on client IP, so every test gets its own address to
// keep the per-minute auth budget from leaking across tests.
var testClientIPCounter int

func (suite *RouterTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)

	testClientIPCounter++
	suite.clientIP = fmt.Sprintf("10.1.2.%d", testClientIPCounter)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_pragma=busy_timeout(10000)", suite.T().Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	suite.Require().NoError(err)
	suite.Require().NoError(db.AutoMigrate(
		&models.User{},
		&models.Work{},
		&models.WorkCommerce{},
		&models.WorkContext{},
		&models.Certificate{},
		&models.Transfer{},
		&models.Wallet{},
		&models.Alert{},
		&models.WorkView{},
	))
	suite.db = db

	suite.mintRelay = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"mint_address": "RelayMint111111111111111111111111111111111",
			"token_uri":    "https://meta.tbt.example.com/relay.json",
		})
	}))
	suite.T().Cleanup(suite.mintRelay.Close)

	cfg := &config.Config{
		Environment: "test",
		JWT: config.JWTConfig{
			SecretKey:       "test-secret",
			AccessTokenTTL:  1,
			RefreshTokenTTL: 1,
		},
		Wallet: config.WalletConfig{
			EncryptionKey: "test-wallet-encryption-key",
			Network:       "solana-devnet",
		},
		Blockchain: config.BlockchainConfig{
			Network:         "solana-devnet",
			MintEndpoint:    suite.mintRelay.URL,
			ExplorerBaseURL: "https://explorer.solana.com",
			RequestTimeout:  5,
		},
		Frontend: config.FrontendConfig{
			BaseURL: "https://tbt.example.com",
		},
	}

	suite.engine = Initialize(db, cfg)
	suite.token = suite.registerAndLogin("painter")
}

func (suite *RouterTestSuite) request(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	suite.T().Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(suite.T(), err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Forwarded-For", suite.clientIP)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	recorder := httptest.NewRecorder()
	suite.engine.ServeHTTP(recorder, req)
	return recorder
}

func (suite *RouterTestSuite) decode(recorder *httptest.ResponseRecorder) map[string]interface{} {
	suite.T().Helper()

	var body map[string]interface{}
	require.NoError(suite.T(), json.Unmarshal(recorder.Body.Bytes(), &body))
	return body
}

func (suite *RouterTestSuite) registerAndLogin(username string) string {
	suite.T().Helper()

	recorder := suite.request(http.MethodPost, "/v1/auth/register", "", map[string]string{
		"username":     username,
		"email":        username + "@example.com",
		"password":     "SunsetOver9000!",
		"display_name": "Artist " + username,
	})
	suite.Require().Equal(http.StatusCreated, recorder.Code, recorder.Body.String())

	recorder = suite.request(http.MethodPost, "/v1/auth/login", "", map[string]string{
		"email":    username + "@example.com",
		"password": "SunsetOver9000!",
	})
	suite.Require().Equal(http.StatusOK, recorder.Code, recorder.Body.String())

	body := suite.decode(recorder)
	data := body["data"].(map[string]interface{})
	return data["access_token"].(string)
}

func (suite *RouterTestSuite) certifySunset() string {
	suite.T().Helper()

	recorder := suite.request(http.MethodPost, "/v1/works/certify", suite.token, map[string]interface{}{
		"title":         "Sunset",
		"description":   "oil on canvas",
		"category":      "painting",
		"media_url":     "https://x/y.jpg",
		"initial_price": 100,
		"royalty_type":  "percentage",
		"royalty_value": 10,
	})
	suite.Require().Equal(http.StatusCreated, recorder.Code, recorder.Body.String())

	data := suite.decode(recorder)["data"].(map[string]interface{})
	return data["tbt_id"].(string)
}

func (suite *RouterTestSuite) TestHealth() {
	recorder := suite.request(http.MethodGet, "/health", "", nil)
	suite.Equal(http.StatusOK, recorder.Code)
}

func (suite *RouterTestSuite) TestCertifyRequiresAuth() {
	recorder := suite.request(http.MethodPost, "/v1/works/certify", "", map[string]string{"title": "Sunset"})
	suite.Equal(http.StatusUnauthorized, recorder.Code)
}

func (suite *RouterTestSuite) TestCertifyAndVerifyFlow() {
	tbtID := suite.certifySunset()

	recorder := suite.request(http.MethodGet, "/v1/verify/"+tbtID, "", nil)
	suite.Require().Equal(http.StatusOK, recorder.Code, recorder.Body.String())

	body := suite.decode(recorder)
	suite.Equal(true, body["verified"])
	suite.Equal(tbtID, body["tbt_id"])

	history := body["ownership_history"].([]interface{})
	suite.Require().Len(history, 1)
	suite.Equal("creation", history[0].(map[string]interface{})["event"])
}

func (suite *RouterTestSuite) TestVerifyUnknownCode() {
	recorder := suite.request(http.MethodGet, "/v1/verify/TBT-2026-ZZZZZZ", "", nil)
	suite.Require().Equal(http.StatusNotFound, recorder.Code)

	body := suite.decode(recorder)
	suite.Equal(false, body["verified"])
	suite.Equal("work not found or not certified", body["error"])
}

func (suite *RouterTestSuite) TestRefreshTokenFlow() {
	recorder := suite.request(http.MethodPost, "/v1/auth/login", "", map[string]string{
		"email":    "painter@example.com",
		"password": "SunsetOver9000!",
	})
	suite.Require().Equal(http.StatusOK, recorder.Code)
	refreshToken := suite.decode(recorder)["data"].(map[string]interface{})["refresh_token"].(string)

	recorder = suite.request(http.MethodPost, "/v1/auth/refresh", "", map[string]string{
		"refresh_token": refreshToken,
	})
	suite.Require().Equal(http.StatusOK, recorder.Code, recorder.Body.String())

	data := suite.decode(recorder)["data"].(map[string]interface{})
	newToken := data["access_token"].(string)
	suite.NotEmpty(newToken)

	recorder = suite.request(http.MethodGet, "/v1/auth/me", newToken, nil)
	suite.Equal(http.StatusOK, recorder.Code)
}

func (suite *RouterTestSuite) TestRefreshRejectsGarbage() {
	recorder := suite.request(http.MethodPost, "/v1/auth/refresh", "", map[string]string{
		"refresh_token": "not-a-jwt",
	})
	suite.Equal(http.StatusUnauthorized, recorder.Code)
}

func (suite *RouterTestSuite) TestVerifyByBody() {
	tbtID := suite.certifySunset()

	recorder := suite.request(http.MethodGet, "/v1/verify", "", map[string]string{
		"tbt_id": tbtID,
	})
	suite.Require().Equal(http.StatusOK, recorder.Code, recorder.Body.String())
	suite.Equal(tbtID, suite.decode(recorder)["tbt_id"])
}

func (suite *RouterTestSuite) TestVerifyMissingCode() {
	recorder := suite.request(http.MethodGet, "/v1/verify", "", nil)
	suite.Equal(http.StatusBadRequest, recorder.Code)
}

func (suite *RouterTestSuite) TestMintFlow() {
	tbtID := suite.certifySunset()

	var work models.Work
	suite.Require().NoError(suite.db.Where("tbt_id = ?", tbtID).First(&work).Error)

	recorder := suite.request(http.MethodPost, "/v1/nft/mint", suite.token, map[string]string{
		"workId": work.ID.String(),
	})
	suite.Require().Equal(http.StatusOK, recorder.Code, recorder.Body.String())

	data := suite.decode(recorder)["data"].(map[string]interface{})
	suite.Equal("RelayMint111111111111111111111111111111111", data["mintAddress"])
	suite.Equal("NFT minted successfully", data["message"])

	// Second mint is a no-op that reports the stored address; the older
	// snake_case key spelling still works
	recorder = suite.request(http.MethodPost, "/v1/nft/mint", suite.token, map[string]string{
		"work_id": work.ID.String(),
	})
	suite.Require().Equal(http.StatusOK, recorder.Code)

	data = suite.decode(recorder)["data"].(map[string]interface{})
	suite.Equal("RelayMint111111111111111111111111111111111", data["mintAddress"])
	suite.Equal("Work is already minted", data["message"])
}

func (suite *RouterTestSuite) TestMintForbiddenForNonCreator() {
	tbtID := suite.certifySunset()

	var work models.Work
	suite.Require().NoError(suite.db.Where("tbt_id = ?", tbtID).First(&work).Error)

	otherToken := suite.registerAndLogin("collector")
	recorder := suite.request(http.MethodPost, "/v1/nft/mint", otherToken, map[string]string{
		"workId": work.ID.String(),
	})
	suite.Equal(http.StatusForbidden, recorder.Code, recorder.Body.String())
}

func (suite *RouterTestSuite) TestWalletLifecycle() {
	recorder := suite.request(http.MethodGet, "/v1/wallet", suite.token, nil)
	suite.Require().Equal(http.StatusOK, recorder.Code)
	suite.Equal(false, suite.decode(recorder)["data"].(map[string]interface{})["hasWallet"])

	recorder = suite.request(http.MethodPost, "/v1/wallet", suite.token, nil)
	suite.Require().Equal(http.StatusOK, recorder.Code, recorder.Body.String())
	publicKey := suite.decode(recorder)["data"].(map[string]interface{})["publicKey"].(string)
	suite.NotEmpty(publicKey)

	recorder = suite.request(http.MethodGet, "/v1/wallet", suite.token, nil)
	suite.Require().Equal(http.StatusOK, recorder.Code)
	data := suite.decode(recorder)["data"].(map[string]interface{})
	suite.Equal(true, data["hasWallet"])
	suite.Equal(publicKey, data["publicKey"])
}

func (suite *RouterTestSuite) TestAlertsAfterCertification() {
	suite.certifySunset()

	recorder := suite.request(http.MethodGet, "/v1/alerts", suite.token, nil)
	suite.Require().Equal(http.StatusOK, recorder.Code)

	body := suite.decode(recorder)
	alerts := body["data"].([]interface{})
	suite.Require().NotEmpty(alerts)
	suite.Equal("work_certified", alerts[0].(map[string]interface{})["type"])
}

func TestRouterSuite(t *testing.T) {
	suite.Run(t, new(RouterTestSuite))
}
