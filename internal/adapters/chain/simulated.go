package chain

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/manthysbr/openclaw/internal/core/domain"
	"github.com/manthysbr/openclaw/internal/core/ports"
)

const simulatedGas uint64 = 1_250_000

// SimulatedDeployer fabricates deterministic addresses so the loop can run
// without a funded account. The n-th deployment of a name/symbol pair always
// yields the same address.
type SimulatedDeployer struct {
	logger *slog.Logger
	nonce  atomic.Uint64
}

var (
	_ ports.TokenDeployer = (*SimulatedDeployer)(nil)
	_ ports.NFTDeployer   = (*SimulatedDeployer)(nil)
)

func NewSimulatedDeployer(logger *slog.Logger) *SimulatedDeployer {
	return &SimulatedDeployer{logger: logger}
}

func (s *SimulatedDeployer) DeployToken(ctx context.Context, name, symbol string, supply int64) (domain.Deployment, error) {
	return s.simulate(ctx, "erc20", name, symbol, supply)
}

func (s *SimulatedDeployer) DeployNFT(ctx context.Context, name, symbol string) (domain.Deployment, error) {
	return s.simulate(ctx, "erc721", name, symbol, 0)
}

func (s *SimulatedDeployer) simulate(ctx context.Context, kind, name, symbol string, supply int64) (domain.Deployment, error) {
	if err := ctx.Err(); err != nil {
		return domain.Deployment{}, err
	}
	n := s.nonce.Add(1)
	seed := fmt.Sprintf("%s|%s|%s|%d|%d", kind, name, symbol, supply, n)
	addr := sha256.Sum256([]byte("addr:" + seed))
	tx := sha256.Sum256([]byte("tx:" + seed))

	dep := domain.Deployment{
		ContractAddress: "0x" + hex.EncodeToString(addr[:20]),
		TransactionID:   "0x" + hex.EncodeToString(tx[:]),
		GasUsed:         simulatedGas,
	}
	s.logger.Warn("simulated deployment, nothing was sent on chain", "kind", kind, "token", name, "contract", dep.ContractAddress)
	return dep, nil
}
