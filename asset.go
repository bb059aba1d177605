package basket

import (
	"fmt"
	"strings"

	"github.com/Rhymond/go-money"
)

// Asset identifies one fungible asset by its ticker-like symbol. The empty
// symbol is the native settlement currency of the custody.
type Asset string

// Native is the native settlement currency, the asset attached to a call
// rather than pulled from a prior allowance.
const Native Asset = ""

func (a Asset) IsNative() bool { return a == Native }

func (a Asset) String() string {
	if a.IsNative() {
		return "native"
	}
	return string(a)
}

// ParseAsset validates a user supplied asset symbol. The word "native" (or an
// empty string) maps to the native currency.
func ParseAsset(s string) (Asset, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "native") {
		return Native, nil
	}
	for _, r := range s {
		if !('A' <= r && r <= 'Z' || 'a' <= r && r <= 'z' || '0' <= r && r <= '9' || r == '-' || r == '.') {
			return Native, fmt.Errorf("%w: invalid asset symbol %q", ErrInvalidInput, s)
		}
	}
	return Asset(strings.ToUpper(s)), nil
}

// NativeCurrency is the ISO code used to format native amounts for display.
// It has no bearing on the accounting itself.
var NativeCurrency = money.EUR

// Format renders an amount of this asset for display. Native amounts are
// formatted with the native currency's locale rules, other assets with their
// plain symbol.
func (a Asset) Format(amt Amount) string {
	if !a.IsNative() {
		return fmt.Sprintf("%s %s", amt, string(a))
	}
	cur := money.GetCurrency(NativeCurrency)
	minor := amt.value.Shift(int32(cur.Fraction))
	return cur.Formatter().Format(minor.IntPart())
}
