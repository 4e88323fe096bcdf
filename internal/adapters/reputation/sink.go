package reputation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/moby/sys/atomicwriter"

	"github.com/manthysbr/openclaw/internal/core/domain"
	"github.com/manthysbr/openclaw/internal/core/ports"
)

// Disabled is the sink used when no registry is configured.
type Disabled struct{}

var _ ports.ReputationSink = Disabled{}

func (Disabled) SubmitReputation(context.Context, string, map[string]any) (bool, error) {
	return false, fmt.Errorf("reputation: %w", domain.ErrNotConfigured)
}

// Metadata is the agent registration file written when the agent registered
// with the reputation registry.
type Metadata struct {
	AgentID string `json:"agent_id"`
}

// LoadMetadata reads the registration file. A missing file yields empty metadata.
func LoadMetadata(path string) (Metadata, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Metadata{}, nil
	}
	if err != nil {
		return Metadata{}, fmt.Errorf("failed to read agent metadata: %w", err)
	}
	var md Metadata
	if err := json.Unmarshal(data, &md); err != nil {
		return Metadata{}, fmt.Errorf("failed to parse agent metadata: %w", err)
	}
	return md, nil
}

// RelaySink submits self-feedback for completed tasks to a registry relay and
// keeps a local proof file per submission.
//
//	POST {baseURL}/v1/feedback {"agent_id","value","tag1","tag2"} -> {"tx_hash"}
type RelaySink struct {
	logger   *slog.Logger
	client   *http.Client
	baseURL  string
	apiKey   string
	agentID  string
	proofDir string
	now      func() time.Time
}

var _ ports.ReputationSink = (*RelaySink)(nil)

func NewRelaySink(logger *slog.Logger, baseURL, apiKey, agentID, proofDir string) *RelaySink {
	return &RelaySink{
		logger:   logger,
		client:   &http.Client{Timeout: 60 * time.Second},
		baseURL:  strings.TrimRight(baseURL, "/"),
		apiKey:   apiKey,
		agentID:  agentID,
		proofDir: proofDir,
		now:      time.Now,
	}
}

type feedbackRequest struct {
	AgentID string  `json:"agent_id"`
	Value   float64 `json:"value"`
	Tag1    string  `json:"tag1"`
	Tag2    string  `json:"tag2,omitempty"`
}

type proofRecord struct {
	AgentID   string         `json:"agent_id"`
	TaskType  string         `json:"task_type"`
	Timestamp time.Time      `json:"timestamp"`
	TxHash    string         `json:"tx_hash"`
	ProofData map[string]any `json:"proof_data"`
}

func (s *RelaySink) SubmitReputation(ctx context.Context, taskKind string, metadata map[string]any) (bool, error) {
	if s.agentID == "" {
		return false, fmt.Errorf("reputation: agent not registered: %w", domain.ErrNotConfigured)
	}

	symbol, _ := metadata["token_symbol"].(string)
	body, err := json.Marshal(feedbackRequest{AgentID: s.agentID, Value: 1.0, Tag1: taskKind, Tag2: symbol})
	if err != nil {
		return false, fmt.Errorf("failed to marshal feedback: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/v1/feedback", bytes.NewReader(body))
	if err != nil {
		return false, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("failed to reach reputation relay: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return false, fmt.Errorf("reputation relay returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	var out struct {
		TxHash string `json:"tx_hash"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return false, fmt.Errorf("failed to decode reputation response: %w", err)
	}

	s.logger.Info("reputation submitted", "task", taskKind, "tx", out.TxHash)
	if err := s.writeProof(taskKind, out.TxHash, metadata); err != nil {
		s.logger.Warn("failed to write local proof", "error", err)
	}
	return true, nil
}

func (s *RelaySink) writeProof(taskKind, txHash string, metadata map[string]any) error {
	if s.proofDir == "" {
		return nil
	}
	if err := os.MkdirAll(s.proofDir, 0o755); err != nil {
		return err
	}
	ref, _ := metadata["transaction_hash"].(string)
	if ref == "" {
		ref = "proof"
	}
	if len(ref) > 8 {
		ref = ref[len(ref)-8:]
	}
	name := fmt.Sprintf("%s_%s_%s.json", strings.ReplaceAll(s.agentID, ":", "_"), taskKind, ref)

	data, err := json.MarshalIndent(proofRecord{
		AgentID:   s.agentID,
		TaskType:  taskKind,
		Timestamp: s.now().UTC(),
		TxHash:    txHash,
		ProofData: metadata,
	}, "", "  ")
	if err != nil {
		return err
	}
	return atomicwriter.WriteFile(filepath.Join(s.proofDir, name), data, 0o644)
}
