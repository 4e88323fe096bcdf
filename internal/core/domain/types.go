package domain

import (
	"errors"
	"time"
)

var (
	ErrRecordStoreCorrupt = errors.New("record store is unreadable")
	ErrNotConfigured      = errors.New("collaborator not configured")
)

// RemotePost is one item fetched from the social feed.
type RemotePost struct {
	ID           string `json:"id"`
	Text         string `json:"text"`
	AuthorHandle string `json:"author_handle"`
}

// Deployment is what a deployer returns for a confirmed contract creation.
type Deployment struct {
	ContractAddress string `json:"contract_address"`
	TransactionID   string `json:"transaction_id"`
	GasUsed         uint64 `json:"gas_used"`
}

// PostStatus is the outcome reported by a social poster.
type PostStatus string

const (
	PostSuccess PostStatus = "success"
	PostSkipped PostStatus = "skipped"
	PostError   PostStatus = "error"
)

// PostResult is returned by every post call. Posting never raises.
type PostResult struct {
	Platform string     `json:"platform"`
	Status   PostStatus `json:"status"`
	Detail   string     `json:"detail,omitempty"`
}

// OK reports whether the post went out.
func (r PostResult) OK() bool { return r.Status == PostSuccess }

// RecordKind distinguishes fungible deployments from NFT collections.
type RecordKind string

const (
	RecordToken RecordKind = "erc20"
	RecordNFT   RecordKind = "erc721"
)

// DeploymentRecord is the persisted outcome of one deployment. Never mutated
// after it is written.
type DeploymentRecord struct {
	Sequence        int           `json:"deployment_number"`
	Timestamp       time.Time     `json:"timestamp"`
	Kind            RecordKind    `json:"kind"`
	TokenName       string        `json:"token_name"`
	TokenSymbol     string        `json:"token_symbol"`
	ContractAddress string        `json:"contract_address"`
	TransactionID   string        `json:"transaction_hash"`
	InitialSupply   int64         `json:"initial_supply"`
	ExplorerURL     string        `json:"explorer_url"`
	GasUsed         uint64        `json:"gas_used"`
	Requester       string        `json:"requester,omitempty"`
	Source          CommandSource `json:"source"`
	SocialStatus    PostStatus    `json:"social_status"`
	Reputation      OutcomeStatus `json:"reputation"`
}
