package services

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/manthysbr/openclaw/internal/core/domain"
)

const hashtags = "#Base #Crypto #DeFi #OpenClaw"

var engagementMessages = []string{
	"🦞 OpenClaw is awake and deploying on Base. Cast `!deploy <name> <symbol>` at me and I'll ship your token.",
	"⚙️ Autonomous token factory online. Mention me with `!deploy <name> <symbol>` or `!nft <name> <symbol>`.",
	"🌊 Another cycle on Base. Want your own ERC-20? `!deploy <name> <symbol>` and watch it land on-chain.",
	"🤖 No humans in the loop. Ask for a token with `!deploy`, or a collection with `!nft`.",
}

const engagementImagePrompt = "Autonomous robot lobster deploying smart contracts on the Base blockchain, neon blue, cinematic, 3d render"

func tokenImagePrompt(name string) string {
	return fmt.Sprintf("Futuristic NFT collection artwork for %s on Base blockchain, high tech, glowing blue and purple, 3d render", name)
}

// shortAddress renders 0x12345678...abcdef for addresses long enough to trim.
func shortAddress(addr string) string {
	if len(addr) <= 14 {
		return addr
	}
	return addr[:8] + "..." + addr[len(addr)-6:]
}

// formatThousands renders 1000000 as 1,000,000.
func formatThousands(n int64) string {
	s := strconv.FormatInt(n, 10)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}

func composeTokenAnnouncement(rec domain.DeploymentRecord) string {
	var b strings.Builder
	b.WriteString("🚀 New Token Deployed by OpenClaw Agent!\n\n")
	fmt.Fprintf(&b, "💎 %s ($%s)\n", rec.TokenName, rec.TokenSymbol)
	fmt.Fprintf(&b, "📍 %s\n", shortAddress(rec.ContractAddress))
	fmt.Fprintf(&b, "💰 Supply: %s\n", formatThousands(rec.InitialSupply))
	if rec.ExplorerURL != "" {
		fmt.Fprintf(&b, "🔗 %s\n", rec.ExplorerURL)
	}
	if rec.Source == domain.SourceRemoteFeed && rec.Requester != "" {
		fmt.Fprintf(&b, "🙋 Requested by @%s\n", rec.Requester)
	}
	b.WriteString("\n" + hashtags)
	return b.String()
}

func composeNFTAnnouncement(rec domain.DeploymentRecord) string {
	var b strings.Builder
	b.WriteString("🖼️ New NFT Collection Deployed by OpenClaw Agent!\n\n")
	fmt.Fprintf(&b, "🎨 %s ($%s)\n", rec.TokenName, rec.TokenSymbol)
	fmt.Fprintf(&b, "📍 %s\n", shortAddress(rec.ContractAddress))
	if rec.ExplorerURL != "" {
		fmt.Fprintf(&b, "🔗 %s\n", rec.ExplorerURL)
	}
	b.WriteString("\n#Base #NFT #OpenClaw")
	return b.String()
}

func composeBatchSummary(baseName, baseSymbol string, succeeded, total int, cmd domain.Command) string {
	var b strings.Builder
	fmt.Fprintf(&b, "👑 Premium batch complete: %d/%d tokens deployed\n\n", succeeded, total)
	fmt.Fprintf(&b, "💎 %s ($%s) series\n", baseName, baseSymbol)
	if r := cmd.Requester(); r != "" {
		fmt.Fprintf(&b, "🙋 For @%s\n", r)
	}
	if ref := cmd.Params.Get(domain.ParamPaymentRef); ref != "" {
		fmt.Fprintf(&b, "🧾 Payment %s\n", ref)
	}
	b.WriteString("\n" + hashtags)
	return b.String()
}

func composeLatestDeploymentPost(rec domain.DeploymentRecord, total int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📊 Latest from OpenClaw: %s ($%s)\n", rec.TokenName, rec.TokenSymbol)
	fmt.Fprintf(&b, "📍 %s\n", shortAddress(rec.ContractAddress))
	if rec.ExplorerURL != "" {
		fmt.Fprintf(&b, "🔗 %s\n", rec.ExplorerURL)
	}
	fmt.Fprintf(&b, "🏭 %d deployments so far\n", total)
	b.WriteString("\n" + hashtags)
	return b.String()
}

func formatUptime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d.Seconds())
	return fmt.Sprintf("%dh %dm %ds", total/3600, (total%3600)/60, total%60)
}
