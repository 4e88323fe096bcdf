package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/manthysbr/openclaw/internal/core/domain"
)

func TestTokenNamer_Resolve(t *testing.T) {
	n := NewTokenNamer(fixedRand{n: 0})

	tests := []struct {
		name       string
		params     domain.Params
		wantName   string
		wantSymbol string
	}{
		{"explicit name and symbol", domain.Params{"name": "NovaToken", "symbol": "NVT"}, "NovaToken", "NVT"},
		{"name only derives symbol", domain.Params{"name": "Moon Cat"}, "Moon Cat", "MOON"},
		{"short name is its own symbol", domain.Params{"name": "gm"}, "gm", "GM"},
		{"symbol only doubles as name", domain.Params{"symbol": "ZAP"}, "ZAP", "ZAP"},
		{"nothing picks random vocabulary", domain.Params{}, "OpenToken", "OTOK"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			name, symbol := n.Resolve(tt.params)
			assert.Equal(t, tt.wantName, name)
			assert.Equal(t, tt.wantSymbol, symbol)
		})
	}
}

func TestTokenNamer_RandomSupplyFromFixedSet(t *testing.T) {
	n := NewTokenNamer(nil)
	for i := 0; i < 50; i++ {
		assert.Contains(t, supplyChoices, n.RandomSupply())
	}
}

func TestDeriveSymbol(t *testing.T) {
	assert.Equal(t, "ABCDE", deriveSymbol("abcde"))
	assert.Equal(t, "ABCD", deriveSymbol("abcdef"))
	assert.Equal(t, "TKN", deriveSymbol("!!!"))
}

func TestFormatHelpers(t *testing.T) {
	assert.Equal(t, "1,000,000", formatThousands(1_000_000))
	assert.Equal(t, "100,000", formatThousands(100_000))
	assert.Equal(t, "999", formatThousands(999))
	assert.Equal(t, "-1,234", formatThousands(-1234))

	assert.Equal(t, "0x123456...abcdef", shortAddress("0x1234567890abcdef1234567890abcdef"))
	assert.Equal(t, "0x1", shortAddress("0x1"))

	assert.Equal(t, "1h 2m 3s", formatUptime(time.Hour+2*time.Minute+3*time.Second))
	assert.Equal(t, "0h 0m 0s", formatUptime(-time.Second))
}

func TestComposeTokenAnnouncement(t *testing.T) {
	rec := domain.DeploymentRecord{
		TokenName:       "NovaToken",
		TokenSymbol:     "NVT",
		ContractAddress: "0x1234567890abcdef1234567890abcdef",
		InitialSupply:   5_000_000,
		ExplorerURL:     "https://basescan.org/tx/0xfeed",
		Requester:       "alice",
		Source:          domain.SourceRemoteFeed,
	}

	msg := composeTokenAnnouncement(rec)
	assert.Contains(t, msg, "NovaToken ($NVT)")
	assert.Contains(t, msg, "0x123456...abcdef")
	assert.Contains(t, msg, "5,000,000")
	assert.Contains(t, msg, "https://basescan.org/tx/0xfeed")
	assert.Contains(t, msg, "Requested by @alice")
	assert.Contains(t, msg, hashtags)

	rec.Source = domain.SourceLocalQueue
	assert.NotContains(t, composeTokenAnnouncement(rec), "Requested by")
}
