package services

import (
	"math/rand/v2"
	"strings"
	"unicode"

	"github.com/manthysbr/openclaw/internal/core/domain"
)

var (
	tokenPrefixes = []string{
		"Open", "Base", "Claw", "Auto", "Chain", "Mesh", "Cyber", "Meta",
		"Hyper", "Ultra", "Mega", "Nova", "Apex", "Quantum", "Nexus",
	}
	tokenSuffixes = []string{
		"Token", "Coin", "Cash", "Finance", "Pay", "Network", "Protocol",
		"Chain", "Swap", "Vault", "DAO", "Labs",
	}
	supplyChoices = []int64{100_000, 500_000, 1_000_000, 5_000_000, 10_000_000}
)

// randSource is the subset of *rand.Rand the namer needs.
type randSource interface {
	IntN(n int) int
}

// TokenNamer picks names, symbols and supplies for deployments.
type TokenNamer struct {
	rng randSource
}

func NewTokenNamer(rng randSource) *TokenNamer {
	if rng == nil {
		rng = newRand()
	}
	return &TokenNamer{rng: rng}
}

func newRand() *rand.Rand {
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}

// RandomName combines a prefix and a suffix. Short names are their own symbol;
// longer ones use the prefix initial plus the first three suffix letters.
func (n *TokenNamer) RandomName() (string, string) {
	prefix := tokenPrefixes[n.rng.IntN(len(tokenPrefixes))]
	suffix := tokenSuffixes[n.rng.IntN(len(tokenSuffixes))]
	name := prefix + suffix
	if len(name) <= 5 {
		return name, strings.ToUpper(name)
	}
	end := 3
	if len(suffix) < end {
		end = len(suffix)
	}
	return name, strings.ToUpper(prefix[:1] + suffix[:end])
}

// RandomSupply picks one of the fixed initial supplies.
func (n *TokenNamer) RandomSupply() int64 {
	return supplyChoices[n.rng.IntN(len(supplyChoices))]
}

// Resolve applies explicit name/symbol params over random choices.
func (n *TokenNamer) Resolve(params domain.Params) (string, string) {
	name := params.Get(domain.ParamName)
	symbol := params.Get(domain.ParamSymbol)
	switch {
	case name == "" && symbol == "":
		return n.RandomName()
	case symbol == "":
		return name, deriveSymbol(name)
	case name == "":
		return symbol, symbol
	default:
		return name, symbol
	}
}

// deriveSymbol upper-cases the alphanumerics of name, truncated to four
// characters when the result would exceed five.
func deriveSymbol(name string) string {
	var b strings.Builder
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToUpper(r))
		}
	}
	sym := b.String()
	if sym == "" {
		return "TKN"
	}
	if len([]rune(sym)) > 5 {
		sym = string([]rune(sym)[:4])
	}
	return sym
}
