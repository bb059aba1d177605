package basket

import (
	"encoding/json"
	"fmt"

	"github.com/PaesslerAG/jsonpath"
	"github.com/shopspring/decimal"
)

func errUnknownVenue(id VenueID) error {
	return fmt.Errorf("%w: unknown venue %q", ErrInvalidInput, id)
}

// QuoteVenue is an operator whose opaque payload is the JSON quote blob the
// caller fetched off-chain from a price source. The venue extracts the output
// asset and the quoted rate with JSONPath expressions and reports
// input*rate as the observed output.
//
// The default paths fit a payload like:
//
//	{"output":"TOK","quote":{"rate":1.25}}
type QuoteVenue struct {
	id         VenueID
	outputPath string
	ratePath   string
}

// NewQuoteVenue creates a quote venue with the default payload paths.
func NewQuoteVenue(id VenueID) *QuoteVenue {
	return &QuoteVenue{id: id, outputPath: "$.output", ratePath: "$.quote.rate"}
}

// WithPaths overrides the JSONPath expressions for the output asset and rate.
func (v *QuoteVenue) WithPaths(outputPath, ratePath string) *QuoteVenue {
	v.outputPath = outputPath
	v.ratePath = ratePath
	return v
}

func (v *QuoteVenue) Describe() VenueID { return v.id }

// Swap implements Operator.
func (v *QuoteVenue) Swap(input Asset, amount Amount, payload []byte) (SwapResult, error) {
	if !amount.IsPositive() {
		return SwapResult{}, fmt.Errorf("%w: swap input must be positive, got %s %s", ErrAdapterFailure, amount, input)
	}
	var jobj any
	if err := json.Unmarshal(payload, &jobj); err != nil {
		return SwapResult{}, fmt.Errorf("%w: venue %q payload is not JSON: %v", ErrAdapterFailure, v.id, err)
	}

	jout, err := jsonpath.Get(v.outputPath, jobj)
	if err != nil {
		return SwapResult{}, fmt.Errorf("%w: venue %q payload %q: %v", ErrAdapterFailure, v.id, v.outputPath, err)
	}
	jout = firstOf(jout)
	symbol, ok := jout.(string)
	if !ok {
		return SwapResult{}, fmt.Errorf("%w: venue %q payload %q is not an asset symbol", ErrAdapterFailure, v.id, v.outputPath)
	}
	output, err := ParseAsset(symbol)
	if err != nil {
		return SwapResult{}, fmt.Errorf("%w: venue %q payload output: %v", ErrAdapterFailure, v.id, err)
	}

	jrate, err := jsonpath.Get(v.ratePath, jobj)
	if err != nil {
		return SwapResult{}, fmt.Errorf("%w: venue %q payload %q: %v", ErrAdapterFailure, v.id, v.ratePath, err)
	}
	jrate = firstOf(jrate)
	rate, ok := jrate.(float64)
	if !ok {
		return SwapResult{}, fmt.Errorf("%w: venue %q payload %q is not a number", ErrAdapterFailure, v.id, v.ratePath)
	}
	if rate <= 0 {
		return SwapResult{}, fmt.Errorf("%w: venue %q quoted a non-positive rate %v", ErrAdapterFailure, v.id, rate)
	}

	out := Amount{value: amount.value.Mul(decimal.NewFromFloat(rate))}
	return SwapResult{Output: output, Amount: out}, nil
}

// firstOf unwraps a single-element list. jsonpath is never clear about
// whether it returns a list of one answer or a single answer.
func firstOf(jval any) any {
	if jlist, ok := jval.([]any); ok && len(jlist) > 0 {
		return jlist[0]
	}
	return jval
}
