package kernel

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/manthysbr/openclaw/internal/core/domain"
	"github.com/manthysbr/openclaw/internal/core/ports"
	"github.com/manthysbr/openclaw/internal/core/services"
)

// StateView is the read side of the agent state.
type StateView interface {
	Snapshot() domain.AgentState
	Uptime(now time.Time) string
}

// PhaseSource reports what the scheduler is doing right now.
type PhaseSource interface {
	Phase() services.CyclePhase
}

// Deps groups the collaborators the API serves from.
type Deps struct {
	Queue        ports.CommandQueue
	Records      ports.RecordStore
	State        StateView
	Phase        PhaseSource
	EventBus     *services.EventBus
	MetadataPath string
}

// Server is the operator-facing HTTP surface: command intake, the public
// deployment log and a live event stream.
type Server struct {
	logger       *slog.Logger
	queue        ports.CommandQueue
	records      ports.RecordStore
	state        StateView
	phase        PhaseSource
	eventBus     *services.EventBus
	metadataPath string
	validator    *requestValidator
	now          func() time.Time
}

func NewServer(logger *slog.Logger, deps Deps) (*Server, error) {
	if deps.Queue == nil || deps.Records == nil || deps.State == nil {
		return nil, errors.New("kernel: queue, records and state are required")
	}
	validator, err := newRequestValidator()
	if err != nil {
		return nil, err
	}
	return &Server{
		logger:       logger,
		queue:        deps.Queue,
		records:      deps.Records,
		state:        deps.State,
		phase:        deps.Phase,
		eventBus:     deps.EventBus,
		metadataPath: deps.MetadataPath,
		validator:    validator,
		now:          time.Now,
	}, nil
}

// Handler returns the routed HTTP handler. CORS is applied by the caller.
func (s *Server) Handler() http.Handler {
	routes := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && (r.URL.Path == "/api/command" || r.URL.Path == "/v1/commands"):
			s.handleEnqueueCommand(w, r)
		case r.Method == http.MethodGet && r.URL.Path == "/v1/commands":
			s.handleListCommands(w, r)
		case r.Method == http.MethodGet && r.URL.Path == "/deployments.json":
			s.handleDeploymentLog(w, r)
		case r.Method == http.MethodGet && r.URL.Path == "/v1/deployments":
			s.handleListDeployments(w, r)
		case r.Method == http.MethodGet && r.URL.Path == "/v1/state":
			s.handleState(w, r)
		case r.Method == http.MethodGet && r.URL.Path == "/v1/events":
			s.handleEvents(w, r)
		case r.Method == http.MethodGet && r.URL.Path == "/agent0_metadata.json":
			s.handleAgentMetadata(w, r)
		case r.Method == http.MethodGet && r.URL.Path == "/healthz":
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		default:
			http.NotFound(w, r)
		}
	})
	return s.validator.Middleware(routes)
}

type statusResponse struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Command *domain.Command `json:"command,omitempty"`
}

type commandRequest struct {
	Type   string        `json:"type"`
	Params domain.Params `json:"params"`
}

func (s *Server) handleEnqueueCommand(w http.ResponseWriter, r *http.Request) {
	var req commandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, statusResponse{Status: "error", Message: "invalid request body"})
		return
	}

	kind, err := domain.ParseCommandKind(req.Type)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, statusResponse{Status: "error", Message: err.Error()})
		return
	}

	cmd, err := s.queue.Enqueue(r.Context(), kind, req.Params)
	if err != nil {
		s.logger.Error("failed to enqueue command", "kind", kind, "error", err)
		writeJSON(w, http.StatusInternalServerError, statusResponse{Status: "error", Message: "failed to queue command"})
		return
	}

	s.logger.Info("command queued", "id", cmd.ID, "kind", cmd.Kind)
	writeJSON(w, http.StatusOK, statusResponse{
		Status:  "success",
		Message: fmt.Sprintf("Command %s queued", req.Type),
		Command: &cmd,
	})
}

func (s *Server) handleListCommands(w http.ResponseWriter, r *http.Request) {
	cmds, err := s.queue.List(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if pending, _ := strconv.ParseBool(r.URL.Query().Get("pending")); pending {
		filtered := cmds[:0]
		for _, c := range cmds {
			if !c.Executed {
				filtered = append(filtered, c)
			}
		}
		cmds = filtered
	}
	if cmds == nil {
		cmds = []domain.Command{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"commands": cmds,
		"count":    len(cmds),
	})
}

// handleDeploymentLog serves the record store in the same shape it has on disk.
func (s *Server) handleDeploymentLog(w http.ResponseWriter, r *http.Request) {
	recs, ok := s.listRecords(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

func (s *Server) handleListDeployments(w http.ResponseWriter, r *http.Request) {
	recs, ok := s.listRecords(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"deployments": recs,
		"count":       len(recs),
	})
}

func (s *Server) listRecords(w http.ResponseWriter, r *http.Request) ([]domain.DeploymentRecord, bool) {
	recs, err := s.records.List(r.Context())
	if err != nil {
		s.logger.Error("failed to read deployment records", "error", err)
		http.Error(w, "deployment records unavailable", http.StatusInternalServerError)
		return nil, false
	}
	if recs == nil {
		recs = []domain.DeploymentRecord{}
	}
	return recs, true
}

type stateResponse struct {
	StartedAt          time.Time                `json:"started_at"`
	Uptime             string                   `json:"uptime"`
	Phase              services.CyclePhase      `json:"phase,omitempty"`
	DeploymentCount    int                      `json:"deployment_count"`
	LastDeployment     *time.Time               `json:"last_deployment,omitempty"`
	LastDefaultAttempt *time.Time               `json:"last_default_attempt,omitempty"`
	LastRemotePoll     *time.Time               `json:"last_remote_poll,omitempty"`
	LastEngagement     *time.Time               `json:"last_engagement,omitempty"`
	Latest             *domain.DeploymentRecord `json:"latest,omitempty"`
}

func (s *Server) handleState(w http.ResponseWriter, _ *http.Request) {
	snap := s.state.Snapshot()
	resp := stateResponse{
		StartedAt:          snap.StartedAt,
		Uptime:             s.state.Uptime(s.now()),
		DeploymentCount:    snap.DeploymentCount,
		LastDeployment:     optionalTime(snap.LastDeployment),
		LastDefaultAttempt: optionalTime(snap.LastDefaultAttempt),
		LastRemotePoll:     optionalTime(snap.LastRemotePoll),
		LastEngagement:     optionalTime(snap.LastEngagement),
	}
	if s.phase != nil {
		resp.Phase = s.phase.Phase()
	}
	if latest, ok := snap.Latest(); ok {
		resp.Latest = &latest
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAgentMetadata(w http.ResponseWriter, r *http.Request) {
	if s.metadataPath == "" {
		http.NotFound(w, r)
		return
	}
	data, err := os.ReadFile(s.metadataPath)
	if errors.Is(err, fs.ErrNotExist) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(data)
}

func optionalTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
