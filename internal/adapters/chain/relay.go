package chain

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/manthysbr/openclaw/internal/core/domain"
	"github.com/manthysbr/openclaw/internal/core/ports"
)

// RelayDeployer hands deployments to a signing relay that owns the key,
// broadcasts the transaction and waits for the receipt.
//
//	POST {baseURL}/v1/deploy/erc20  {"name","symbol","initial_supply"}
//	POST {baseURL}/v1/deploy/erc721 {"name","symbol"}
//	-> {"contract_address","transaction_hash","gas_used","status"}
type RelayDeployer struct {
	logger  *slog.Logger
	client  *http.Client
	baseURL string
	apiKey  string
}

var (
	_ ports.TokenDeployer = (*RelayDeployer)(nil)
	_ ports.NFTDeployer   = (*RelayDeployer)(nil)
)

func NewRelayDeployer(logger *slog.Logger, baseURL, apiKey string, timeout time.Duration) *RelayDeployer {
	if timeout <= 0 {
		timeout = 3 * time.Minute
	}
	return &RelayDeployer{
		logger:  logger,
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
	}
}

type deployRequest struct {
	Name          string `json:"name"`
	Symbol        string `json:"symbol"`
	InitialSupply int64  `json:"initial_supply,omitempty"`
}

type deployResponse struct {
	ContractAddress string `json:"contract_address"`
	TransactionHash string `json:"transaction_hash"`
	GasUsed         uint64 `json:"gas_used"`
	Status          string `json:"status"`
	Error           string `json:"error"`
}

func (r *RelayDeployer) DeployToken(ctx context.Context, name, symbol string, supply int64) (domain.Deployment, error) {
	return r.deploy(ctx, "/v1/deploy/erc20", deployRequest{Name: name, Symbol: symbol, InitialSupply: supply})
}

func (r *RelayDeployer) DeployNFT(ctx context.Context, name, symbol string) (domain.Deployment, error) {
	return r.deploy(ctx, "/v1/deploy/erc721", deployRequest{Name: name, Symbol: symbol})
}

func (r *RelayDeployer) deploy(ctx context.Context, path string, payload deployRequest) (domain.Deployment, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return domain.Deployment{}, fmt.Errorf("failed to marshal deploy request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return domain.Deployment{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if r.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+r.apiKey)
	}

	r.logger.Debug("sending deployment to relay", "path", path, "token", payload.Name)
	resp, err := r.client.Do(req)
	if err != nil {
		return domain.Deployment{}, fmt.Errorf("failed to reach deploy relay: %w", err)
	}
	defer resp.Body.Close()

	var out deployResponse
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return domain.Deployment{}, fmt.Errorf("deploy relay returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return domain.Deployment{}, fmt.Errorf("failed to decode relay response: %w", err)
	}
	if out.Error != "" {
		return domain.Deployment{}, fmt.Errorf("deploy relay: %s", out.Error)
	}
	if out.Status == "reverted" {
		return domain.Deployment{}, errors.New("deployment transaction reverted")
	}
	if out.ContractAddress == "" {
		return domain.Deployment{}, errors.New("deploy relay returned no contract address")
	}

	return domain.Deployment{
		ContractAddress: out.ContractAddress,
		TransactionID:   out.TransactionHash,
		GasUsed:         out.GasUsed,
	}, nil
}
