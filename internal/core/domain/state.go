package domain

import "time"

// AgentState is the process-wide scheduling state. Only the scheduler and the
// dispatcher mutate it; everyone else sees copies.
type AgentState struct {
	StartedAt          time.Time          `json:"started_at"`
	DeploymentCount    int                `json:"deployment_count"`
	LastDeployment     time.Time          `json:"last_deployment"`
	LastDefaultAttempt time.Time          `json:"last_default_attempt"`
	LastRemotePoll     time.Time          `json:"last_remote_poll"`
	LastEngagement     time.Time          `json:"last_engagement"`
	History            []DeploymentRecord `json:"history"`
}

// Latest returns the most recent deployment, if any.
func (s AgentState) Latest() (DeploymentRecord, bool) {
	if len(s.History) == 0 {
		return DeploymentRecord{}, false
	}
	return s.History[len(s.History)-1], true
}
