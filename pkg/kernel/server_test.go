package kernel

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manthysbr/openclaw/internal/adapters/filestore"
	"github.com/manthysbr/openclaw/internal/core/domain"
	"github.com/manthysbr/openclaw/internal/core/services"
)

type fixedPhase services.CyclePhase

func (p fixedPhase) Phase() services.CyclePhase { return services.CyclePhase(p) }

type fixture struct {
	server  *Server
	handler http.Handler
	queue   *filestore.CommandQueue
	records *filestore.RecordStore
	state   *services.StateTracker
	bus     *services.EventBus
	dir     string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	dir := t.TempDir()

	f := &fixture{
		queue:   filestore.NewCommandQueue(logger, filepath.Join(dir, "commands.json")),
		records: filestore.NewRecordStore(logger, filepath.Join(dir, "deployments.json")),
		state:   services.NewStateTracker(time.Now().Add(-90 * time.Second)),
		bus:     services.NewEventBus(logger),
		dir:     dir,
	}
	srv, err := NewServer(logger, Deps{
		Queue:        f.queue,
		Records:      f.records,
		State:        f.state,
		Phase:        fixedPhase(services.PhaseIdle),
		EventBus:     f.bus,
		MetadataPath: filepath.Join(dir, "agent0_metadata.json"),
	})
	require.NoError(t, err)
	f.server = srv
	f.handler = srv.Handler()
	return f
}

func (f *fixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func TestNewServer_RequiresCollaborators(t *testing.T) {
	_, err := NewServer(slog.New(slog.NewTextHandler(io.Discard, nil)), Deps{})
	assert.Error(t, err)
}

func TestEnqueueCommand_Queued(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/command", `{"type":"nft","params":{"name":"Claw","supply":5}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp statusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "success", resp.Status)
	assert.Equal(t, "Command nft queued", resp.Message)
	require.NotNil(t, resp.Command)
	assert.Equal(t, domain.KindDeployNFT, resp.Command.Kind)
	assert.NotEmpty(t, resp.Command.ID)

	cmds, err := f.queue.List(context.Background())
	require.NoError(t, err)
	require.Len(t, cmds, 1)
	assert.Equal(t, "Claw", cmds[0].Params.Get(domain.ParamName))
	assert.Equal(t, "5", cmds[0].Params.Get("supply"))
	assert.False(t, cmds[0].Executed)
}

func TestEnqueueCommand_V1Alias(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/v1/commands", `{"type":"post","params":{"text":"gm"}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	cmds, err := f.queue.List(context.Background())
	require.NoError(t, err)
	require.Len(t, cmds, 1)
	assert.Equal(t, domain.KindPost, cmds[0].Kind)
}

func TestEnqueueCommand_Rejected(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"unknown type", `{"type":"launch_rocket"}`},
		{"missing type", `{"params":{"name":"x"}}`},
		{"empty type", `{"type":""}`},
		{"params not an object", `{"type":"deploy","params":"x"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)

			rec := f.do(t, http.MethodPost, "/api/command", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)

			var resp statusResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, "error", resp.Status)

			cmds, err := f.queue.List(context.Background())
			require.NoError(t, err)
			assert.Empty(t, cmds)
		})
	}
}

func TestListCommands_PendingFilter(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.queue.Enqueue(ctx, domain.KindDeploy, nil)
	require.NoError(t, err)
	_, err = f.queue.Enqueue(ctx, domain.KindPost, domain.Params{domain.ParamText: "gm"})
	require.NoError(t, err)
	_, ok := f.queue.ClaimNextUnexecuted(ctx)
	require.True(t, ok)

	var all struct {
		Commands []domain.Command `json:"commands"`
		Count    int              `json:"count"`
	}
	rec := f.do(t, http.MethodGet, "/v1/commands", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &all))
	assert.Equal(t, 2, all.Count)

	var pending struct {
		Commands []domain.Command `json:"commands"`
		Count    int              `json:"count"`
	}
	rec = f.do(t, http.MethodGet, "/v1/commands?pending=true", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pending))
	require.Equal(t, 1, pending.Count)
	assert.Equal(t, domain.KindPost, pending.Commands[0].Kind)
}

func TestDeploymentLog(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/deployments.json", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	require.NoError(t, f.records.Append(context.Background(), domain.DeploymentRecord{
		Sequence:        1,
		Kind:            domain.RecordToken,
		TokenName:       "Nova Claw",
		TokenSymbol:     "NCLA",
		ContractAddress: "0xabc",
		Source:          domain.SourceLocalQueue,
	}))

	rec = f.do(t, http.MethodGet, "/deployments.json", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var recs []domain.DeploymentRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &recs))
	require.Len(t, recs, 1)
	assert.Equal(t, "NCLA", recs[0].TokenSymbol)

	rec = f.do(t, http.MethodGet, "/v1/deployments", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var listed struct {
		Deployments []domain.DeploymentRecord `json:"deployments"`
		Count       int                       `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	assert.Equal(t, 1, listed.Count)
}

func TestDeploymentLog_CorruptStore(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, os.WriteFile(f.records.Path(), []byte("{not json"), 0o644))

	rec := f.do(t, http.MethodGet, "/v1/deployments", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestState(t *testing.T) {
	f := newFixture(t)
	f.state.RecordDeployment(domain.DeploymentRecord{Sequence: 1, TokenSymbol: "NCLA", Timestamp: time.Now()})

	rec := f.do(t, http.MethodGet, "/v1/state", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp stateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.DeploymentCount)
	assert.Equal(t, services.PhaseIdle, resp.Phase)
	assert.True(t, strings.HasPrefix(resp.Uptime, "0h 1m"), resp.Uptime)
	require.NotNil(t, resp.Latest)
	assert.Equal(t, "NCLA", resp.Latest.TokenSymbol)
	assert.NotNil(t, resp.LastDeployment)
	assert.Nil(t, resp.LastRemotePoll)
}

func TestAgentMetadata(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/agent0_metadata.json", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	require.NoError(t, os.WriteFile(filepath.Join(f.dir, "agent0_metadata.json"), []byte(`{"agentId":"84532:7"}`), 0o644))
	rec = f.do(t, http.MethodGet, "/agent0_metadata.json", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"agentId":"84532:7"}`, rec.Body.String())
}

func TestUnknownRoute(t *testing.T) {
	f := newFixture(t)

	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/v1/nope", "").Code)
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodDelete, "/api/command", "").Code)
	assert.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/healthz", "").Code)
}

func TestEvents_StreamsBusEvents(t *testing.T) {
	f := newFixture(t)
	ts := httptest.NewServer(f.handler)
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/v1/events", nil)
	require.NoError(t, err)
	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	f.bus.PublishJSON(services.TopicDeployments, services.EventTypeDeployment, map[string]string{"symbol": "NCLA"})

	reader := bufio.NewReader(resp.Body)
	var lines []string
	for len(lines) < 2 {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	assert.Equal(t, "event: deployment", lines[0])
	assert.Equal(t, `data: {"symbol":"NCLA"}`, lines[1])
}
