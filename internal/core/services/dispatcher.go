package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/manthysbr/openclaw/internal/core/domain"
	"github.com/manthysbr/openclaw/internal/core/ports"
)

const (
	PremiumBatchSize          = 7
	DefaultPremiumBatchDelay  = 10 * time.Second
	reputationTaskDeployToken = "erc20_deployment"
)

// DispatcherDeps are the collaborators the dispatcher drives. Images and
// Reputation may be nil; the corresponding steps are then skipped.
type DispatcherDeps struct {
	Tokens     ports.TokenDeployer
	NFTs       ports.NFTDeployer
	Explorer   ports.ExplorerLinker
	Poster     ports.SocialPoster
	Images     ports.ImageGenerator
	Reputation ports.ReputationSink
	Records    ports.RecordStore
	State      *StateTracker
	Namer      *TokenNamer
	Bus        *EventBus
}

// Dispatcher executes one command at a time. It never returns collaborator
// errors; each action reports success as a bool and logs the rest.
type Dispatcher struct {
	logger     *slog.Logger
	deps       DispatcherDeps
	batchDelay time.Duration
	now        func() time.Time
	sleep      sleepFunc
}

func NewDispatcher(logger *slog.Logger, deps DispatcherDeps, batchDelay time.Duration) *Dispatcher {
	if deps.Namer == nil {
		deps.Namer = NewTokenNamer(nil)
	}
	if deps.Poster == nil {
		deps.Poster = nopPoster{}
	}
	if batchDelay < 0 {
		batchDelay = DefaultPremiumBatchDelay
	}
	return &Dispatcher{
		logger:     logger,
		deps:       deps,
		batchDelay: batchDelay,
		now:        time.Now,
		sleep:      sleepContext,
	}
}

// Handle runs the action sequence for cmd and reports whether it succeeded.
func (d *Dispatcher) Handle(ctx context.Context, cmd domain.Command) bool {
	d.logger.Info("dispatching command", "id", cmd.ID, "command", cmd.Kind, "source", cmd.Source)
	d.deps.Bus.PublishJSON(TopicCommands, EventTypeCommand, cmd)

	switch cmd.Kind {
	case domain.KindDeploy:
		name, symbol := d.deps.Namer.Resolve(cmd.Params)
		return d.deployToken(ctx, cmd, name, symbol)
	case domain.KindDeployNFT:
		return d.deployNFT(ctx, cmd)
	case domain.KindDeployPremiumBatch:
		return d.deployPremiumBatch(ctx, cmd)
	case domain.KindPost:
		return d.post(ctx, cmd)
	default:
		d.logger.Warn("ignoring command of unknown kind", "command", cmd.Kind)
		return false
	}
}

func (d *Dispatcher) deployToken(ctx context.Context, cmd domain.Command, name, symbol string) bool {
	if d.deps.Tokens == nil {
		d.logger.Error("token deployment not configured", "token", name)
		return false
	}
	supply := d.deps.Namer.RandomSupply()
	d.logger.Info("deploying token", "sequence", d.deps.State.NextSequence(), "token", name, "symbol", symbol, "supply", supply)

	dep, err := d.deps.Tokens.DeployToken(ctx, name, symbol, supply)
	if err != nil {
		d.deployFailed(name, symbol, err)
		return false
	}

	rec := d.newRecord(cmd, domain.RecordToken, name, symbol, supply, dep)
	res := d.deps.Poster.Post(ctx, composeTokenAnnouncement(rec), "")
	d.logPost("token announcement", res)
	rec.SocialStatus = res.Status

	rep := d.submitReputation(ctx, rec)
	rec.Reputation = rep.Status

	d.commit(ctx, rec)
	return true
}

func (d *Dispatcher) deployNFT(ctx context.Context, cmd domain.Command) bool {
	if d.deps.NFTs == nil {
		d.logger.Error("nft deployment not configured")
		return false
	}
	name := cmd.Params.GetOr(domain.ParamName, DefaultNFTName)
	symbol := cmd.Params.GetOr(domain.ParamSymbol, DefaultNFTSymbol)
	d.logger.Info("deploying nft collection", "sequence", d.deps.State.NextSequence(), "token", name, "symbol", symbol)

	dep, err := d.deps.NFTs.DeployNFT(ctx, name, symbol)
	if err != nil {
		d.deployFailed(name, symbol, err)
		return false
	}

	rec := d.newRecord(cmd, domain.RecordNFT, name, symbol, 0, dep)

	var imageRef string
	if img := generateImage(ctx, d.logger, d.deps.Images, tokenImagePrompt(name)); img.Status == domain.OutcomeSucceeded {
		imageRef = img.Detail
	}
	res := d.deps.Poster.Post(ctx, composeNFTAnnouncement(rec), imageRef)
	d.logPost("nft announcement", res)
	rec.SocialStatus = res.Status
	rec.Reputation = domain.OutcomeSkipped

	d.commit(ctx, rec)
	return true
}

// deployPremiumBatch always attempts every sub-deployment. A failed one does
// not stop the batch and the inter-deploy delay is kept even after a failure.
func (d *Dispatcher) deployPremiumBatch(ctx context.Context, cmd domain.Command) bool {
	baseName, baseSymbol := d.deps.Namer.Resolve(cmd.Params)

	succeeded := 0
	for i := 1; i <= PremiumBatchSize; i++ {
		if i > 1 {
			if err := d.sleep(ctx, d.batchDelay); err != nil {
				d.logger.Warn("premium batch delay interrupted, continuing without delay", "index", i, "error", err)
			}
		}
		name, symbol := baseName, baseSymbol
		if i > 1 {
			name = fmt.Sprintf("%s %d", baseName, i)
			symbol = fmt.Sprintf("%s%d", baseSymbol, i)
		}
		if d.deployToken(ctx, cmd, name, symbol) {
			succeeded++
		} else {
			d.logger.Warn("premium sub-deployment failed", "index", i, "token", name)
		}
	}

	d.logger.Info("premium batch finished", "succeeded", succeeded, "total", PremiumBatchSize, "token", baseName)
	res := d.deps.Poster.Post(ctx, composeBatchSummary(baseName, baseSymbol, succeeded, PremiumBatchSize, cmd), "")
	d.logPost("batch summary", res)
	d.deps.Bus.PublishJSON(TopicDeployments, EventTypeBatchSummary, map[string]any{
		"token_name": baseName,
		"succeeded":  succeeded,
		"total":      PremiumBatchSize,
	})
	return succeeded > 0
}

func (d *Dispatcher) post(ctx context.Context, cmd domain.Command) bool {
	text := cmd.Params.Get(domain.ParamText)
	image := cmd.Params.Get(domain.ParamImage)

	if text == "" {
		snap := d.deps.State.Snapshot()
		latest, ok := snap.Latest()
		if !ok {
			d.logger.Info("post command without text and no deployment history, nothing to do")
			return false
		}
		text = composeLatestDeploymentPost(latest, snap.DeploymentCount)
	}

	res := d.deps.Poster.Post(ctx, text, image)
	d.logPost("post command", res)
	d.deps.Bus.PublishJSON(TopicSocial, EventTypePost, res)
	return res.OK()
}

func (d *Dispatcher) newRecord(cmd domain.Command, kind domain.RecordKind, name, symbol string, supply int64, dep domain.Deployment) domain.DeploymentRecord {
	rec := domain.DeploymentRecord{
		Sequence:        d.deps.State.NextSequence(),
		Timestamp:       d.now(),
		Kind:            kind,
		TokenName:       name,
		TokenSymbol:     symbol,
		ContractAddress: dep.ContractAddress,
		TransactionID:   dep.TransactionID,
		InitialSupply:   supply,
		GasUsed:         dep.GasUsed,
		Requester:       cmd.Requester(),
		Source:          cmd.Source,
	}
	if d.deps.Explorer != nil {
		rec.ExplorerURL = d.deps.Explorer.ExplorerURL(dep.TransactionID)
	}
	return rec
}

// commit persists rec and advances the state. A store failure is logged; the
// deployment already happened on chain, so the in-memory state still advances.
func (d *Dispatcher) commit(ctx context.Context, rec domain.DeploymentRecord) {
	if d.deps.Records != nil {
		if err := d.deps.Records.Append(ctx, rec); err != nil {
			d.logger.Error("failed to save deployment record", "sequence", rec.Sequence, "error", err)
		}
	}
	d.deps.State.RecordDeployment(rec)
	d.deps.Bus.PublishJSON(TopicDeployments, EventTypeDeployment, rec)

	d.logger.Info("deployment completed",
		"sequence", rec.Sequence,
		"token", rec.TokenName,
		"contract", rec.ContractAddress,
		"explorer", rec.ExplorerURL,
		"uptime", d.deps.State.Uptime(d.now()),
	)
}

func (d *Dispatcher) submitReputation(ctx context.Context, rec domain.DeploymentRecord) domain.Outcome {
	if d.deps.Reputation == nil {
		return domain.Skipped("reputation disabled")
	}
	ok, err := d.deps.Reputation.SubmitReputation(ctx, reputationTaskDeployToken, map[string]any{
		"token_name":       rec.TokenName,
		"token_symbol":     rec.TokenSymbol,
		"contract_address": rec.ContractAddress,
		"transaction_hash": rec.TransactionID,
		"initial_supply":   rec.InitialSupply,
		"gas_used":         rec.GasUsed,
		"deployment":       rec.Sequence,
	})
	switch {
	case errors.Is(err, domain.ErrNotConfigured):
		return domain.Skipped("reputation not configured")
	case err != nil:
		d.logger.Warn("reputation submission failed", "token", rec.TokenName, "error", err)
		return domain.Failed(err)
	case !ok:
		d.logger.Warn("reputation submission rejected", "token", rec.TokenName)
		return domain.Failed(errors.New("reputation submission rejected"))
	}
	return domain.Succeeded("reputation recorded")
}

func (d *Dispatcher) deployFailed(name, symbol string, err error) {
	d.logger.Error("deployment failed", "token", name, "symbol", symbol, "error", err)
	d.deps.Bus.PublishJSON(TopicDeployments, EventTypeDeploymentFailed, map[string]string{
		"token_name":   name,
		"token_symbol": symbol,
		"error":        err.Error(),
	})
}

func (d *Dispatcher) logPost(what string, res domain.PostResult) {
	if res.OK() {
		d.logger.Info(what+" posted", "platform", res.Platform, "detail", res.Detail)
		return
	}
	d.logger.Warn(what+" not posted", "platform", res.Platform, "status", res.Status, "detail", res.Detail)
}

type nopPoster struct{}

func (nopPoster) Post(context.Context, string, string) domain.PostResult {
	return domain.PostResult{Platform: "none", Status: domain.PostSkipped, Detail: "no social poster configured"}
}
