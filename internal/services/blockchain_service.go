// internal/services/blockchain_service.go
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/tbtlabs/tbt-backend/internal/config"
)

// NFTMetadata is the immutable payload sent to the chain collaborator.
// Once minted it is referenced by the token URI and never rewritten.
type NFTMetadata struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Image       string                 `json:"image"`
	TBTID       string                 `json:"tbt_id"`
	Category    string                 `json:"category,omitempty"`
	Technique   string                 `json:"technique,omitempty"`
	Creator     string                 `json:"creator"`
	Commerce    map[string]interface{} `json:"commerce,omitempty"`
	Provenance  []ProvenanceEvent      `json:"provenance"`
}

type ProvenanceEvent struct {
	Owner string    `json:"owner"`
	Event string    `json:"event"`
	Date  time.Time `json:"date"`
}

type MintRequest struct {
	WalletPublicKey string      `json:"wallet_public_key"`
	Network         string      `json:"network"`
	Metadata        NFTMetadata `json:"metadata"`
}

type MintResult struct {
	MintAddress string `json:"mint_address"`
	TokenURI    string `json:"token_uri"`
}

// ChainMinter is the external chain-minting collaborator. The service only
// orchestrates around it; retries are the caller's responsibility.
type ChainMinter interface {
	MintNFT(ctx context.Context, req *MintRequest) (*MintResult, error)
}

// BlockchainService is the HTTP implementation of ChainMinter, talking to a
// mint relay. Every call is bounded by the configured request timeout.
type BlockchainService struct {
	cfg    config.BlockchainConfig
	client *http.Client
}

func NewBlockchainService(cfg config.BlockchainConfig) *BlockchainService {
	return &BlockchainService{
		cfg: cfg,
		client: &http.Client{
			Timeout: time.Duration(cfg.RequestTimeout) * time.Second,
		},
	}
}

func (s *BlockchainService) MintNFT(ctx context.Context, req *MintRequest) (*MintResult, error) {
	if s.cfg.MintEndpoint == "" {
		return nil, fmt.Errorf("mint endpoint is not configured")
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode mint request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.MintEndpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build mint request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if s.cfg.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+s.cfg.APIKey)
	}

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("mint request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("mint relay returned status %d", resp.StatusCode)
	}

	var result MintResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode mint response: %w", err)
	}

	if result.MintAddress == "" {
		return nil, fmt.Errorf("mint relay returned an empty mint address")
	}

	return &result, nil
}

// ExplorerURL builds the public explorer link for a mint address.
func ExplorerURL(cfg config.BlockchainConfig, mintAddress string) string {
	return fmt.Sprintf("%s/address/%s?cluster=%s", cfg.ExplorerBaseURL, mintAddress, cfg.Network)
}
