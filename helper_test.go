package basket

import (
	"fmt"
	"strconv"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

const testVenue VenueID = "script"

// Assets most tests trade in.
const (
	USDC Asset = "USDC"
	GOLD Asset = "GOLD"
	OIL  Asset = "OIL"
	TRS  Asset = "TRS"
)

// scriptVenue is the test operator: the payload itself is the script. A
// payload "GOLD@2" delivers GOLD at rate 2, "fail" makes the swap fail.
type scriptVenue struct{}

func (scriptVenue) Describe() VenueID { return testVenue }

func (scriptVenue) Swap(input Asset, amount Amount, payload []byte) (SwapResult, error) {
	script := string(payload)
	if script == "fail" {
		return SwapResult{}, fmt.Errorf("scripted failure")
	}
	symbol, rate, found := strings.Cut(script, "@")
	if !found {
		return SwapResult{}, fmt.Errorf("bad script %q", script)
	}
	r, err := strconv.ParseFloat(rate, 64)
	if err != nil {
		return SwapResult{}, err
	}
	out := amount.Decimal().Mul(decimal.NewFromFloat(r))
	return SwapResult{Output: Asset(symbol), Amount: A(out)}, nil
}

// leg builds one scripted swap payload.
func leg(output Asset, rate float64) []byte {
	return []byte(fmt.Sprintf("%s@%g", output, rate))
}

// newTestSystem builds a system over a fresh in-memory custody with the
// scripted venue wired, 1% fees and a 20% royalty slice.
func newTestSystem(t *testing.T) (*System, *MemCustody) {
	t.Helper()
	custody := NewMemCustody()
	sys, err := NewSystem(custody, NewMemRegistry(), Config{
		Treasury:  TRS,
		RoyaltyBP: 2000,
		Venues:    Venues{testVenue: scriptVenue{}},
	})
	if err != nil {
		t.Fatal(err)
	}
	return sys, custody
}

// fund deposits a balance and lets the factory escrow pull it.
func fund(custody *MemCustody, account string, asset Asset, amount Amount) {
	custody.Deposit(account, asset, amount)
	custody.Approve(account, "factory", asset, amount)
}
