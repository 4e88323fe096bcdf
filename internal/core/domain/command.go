package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// CommandID identifies a queued command. Remote commands reuse the post id.
type CommandID string

// CommandKind selects the action sequence the dispatcher runs.
type CommandKind string

const (
	KindDeploy             CommandKind = "deploy"
	KindDeployNFT          CommandKind = "deploy_nft"
	KindDeployPremiumBatch CommandKind = "deploy_premium_batch"
	KindPost               CommandKind = "post"
)

// CommandSource records where a command came from.
type CommandSource string

const (
	SourceLocalQueue   CommandSource = "local_queue"
	SourceRemoteFeed   CommandSource = "remote_feed"
	SourceDefaultTimer CommandSource = "default_timer"
)

// Well-known parameter keys
const (
	ParamName       = "name"
	ParamSymbol     = "symbol"
	ParamText       = "text"
	ParamImage      = "image"
	ParamRequester  = "requester"
	ParamPaymentRef = "payment_ref"
)

var ErrUnknownKind = errors.New("unknown command kind")

// kindAliases maps the names operators and the dashboard use onto kinds.
var kindAliases = map[string]CommandKind{
	"deploy":               KindDeploy,
	"token":                KindDeploy,
	"nft":                  KindDeployNFT,
	"deploy_nft":           KindDeployNFT,
	"premium":              KindDeployPremiumBatch,
	"premium_batch":        KindDeployPremiumBatch,
	"deploy_premium":       KindDeployPremiumBatch,
	"deploy_premium_batch": KindDeployPremiumBatch,
	"bulk":                 KindDeployPremiumBatch,
	"post":                 KindPost,
}

// ParseCommandKind resolves a command type string, case-insensitively.
func ParseCommandKind(s string) (CommandKind, error) {
	k, ok := kindAliases[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
	return k, nil
}

// Params carries command arguments. Empty values mean "not supplied".
type Params map[string]string

// Get returns the value for key, or "" when absent.
func (p Params) Get(key string) string {
	if p == nil {
		return ""
	}
	return strings.TrimSpace(p[key])
}

// GetOr returns the value for key, or def when absent.
func (p Params) GetOr(key, def string) string {
	if v := p.Get(key); v != "" {
		return v
	}
	return def
}

// Clone returns an independent copy.
func (p Params) Clone() Params {
	out := make(Params, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// UnmarshalJSON accepts scalar values of any JSON type. Nulls are dropped and
// numbers/bools are kept in their textual form, so a hand-edited queue file with
// {"supply": 5} does not make the whole store unreadable.
func (p *Params) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(Params, len(raw))
	for k, v := range raw {
		switch val := v.(type) {
		case nil:
			continue
		case string:
			out[k] = val
		case bool:
			out[k] = strconv.FormatBool(val)
		case float64:
			out[k] = strconv.FormatFloat(val, 'f', -1, 64)
		default:
			b, err := json.Marshal(val)
			if err != nil {
				return err
			}
			out[k] = string(b)
		}
	}
	*p = out
	return nil
}

// Command is the unit of work handed to the dispatcher.
type Command struct {
	ID        CommandID     `json:"id,omitempty"`
	Kind      CommandKind   `json:"type"`
	Params    Params        `json:"params"`
	Source    CommandSource `json:"source"`
	Timestamp time.Time     `json:"timestamp"`
	Executed  bool          `json:"executed"`
}

// Requester returns the handle that asked for this command, if any.
func (c Command) Requester() string {
	return strings.TrimPrefix(c.Params.Get(ParamRequester), "@")
}
