package chain

import "fmt"

const (
	BaseMainnetChainID int64 = 8453
	BaseSepoliaChainID int64 = 84532
)

// Explorer links transactions on Basescan. Mainnet uses basescan.org; every
// other chain id is assumed to be Base Sepolia.
type Explorer struct {
	chainID int64
}

func NewExplorer(chainID int64) Explorer {
	return Explorer{chainID: chainID}
}

func (e Explorer) ExplorerURL(txID string) string {
	if txID == "" {
		return ""
	}
	if e.chainID == BaseMainnetChainID {
		return fmt.Sprintf("https://basescan.org/tx/%s", txID)
	}
	return fmt.Sprintf("https://sepolia.basescan.org/tx/%s", txID)
}
