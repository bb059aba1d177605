package basket

import (
	"errors"
	"testing"
)

func TestQuoteVenue_Swap(t *testing.T) {
	testCases := []struct {
		name       string
		payload    string
		amount     Amount
		wantOutput Asset
		wantAmount Amount
		wantErr    error
	}{
		{
			name:       "default paths",
			payload:    `{"output":"GOLD","quote":{"rate":2}}`,
			amount:     A(100),
			wantOutput: GOLD,
			wantAmount: A(200),
		},
		{
			name:       "fractional rate",
			payload:    `{"output":"OIL","quote":{"rate":0.25}}`,
			amount:     A(100),
			wantOutput: OIL,
			wantAmount: A(25),
		},
		{
			name:       "extra payload fields are ignored",
			payload:    `{"output":"GOLD","venue":"dex","quote":{"rate":1,"ts":1700000000}}`,
			amount:     A(5),
			wantOutput: GOLD,
			wantAmount: A(5),
		},
		{
			name:    "not json",
			payload: `rate=2`,
			amount:  A(100),
			wantErr: ErrAdapterFailure,
		},
		{
			name:    "missing output",
			payload: `{"quote":{"rate":2}}`,
			amount:  A(100),
			wantErr: ErrAdapterFailure,
		},
		{
			name:    "missing rate",
			payload: `{"output":"GOLD","quote":{}}`,
			amount:  A(100),
			wantErr: ErrAdapterFailure,
		},
		{
			name:    "rate is not a number",
			payload: `{"output":"GOLD","quote":{"rate":"2"}}`,
			amount:  A(100),
			wantErr: ErrAdapterFailure,
		},
		{
			name:    "zero rate",
			payload: `{"output":"GOLD","quote":{"rate":0}}`,
			amount:  A(100),
			wantErr: ErrAdapterFailure,
		},
		{
			name:    "negative rate",
			payload: `{"output":"GOLD","quote":{"rate":-1}}`,
			amount:  A(100),
			wantErr: ErrAdapterFailure,
		},
		{
			name:    "bad output symbol",
			payload: `{"output":"GO LD","quote":{"rate":1}}`,
			amount:  A(100),
			wantErr: ErrAdapterFailure,
		},
		{
			name:    "non-positive input",
			payload: `{"output":"GOLD","quote":{"rate":1}}`,
			amount:  A(0),
			wantErr: ErrAdapterFailure,
		},
	}

	venue := NewQuoteVenue("quote")
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := venue.Swap(USDC, tc.amount, []byte(tc.payload))
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("Swap() error = %v, want %v", err, tc.wantErr)
			}
			if tc.wantErr != nil {
				return
			}
			if res.Output != tc.wantOutput {
				t.Errorf("Swap() output = %s, want %s", res.Output, tc.wantOutput)
			}
			if !res.Amount.Equal(tc.wantAmount) {
				t.Errorf("Swap() amount = %s, want %s", res.Amount, tc.wantAmount)
			}
		})
	}
}

func TestQuoteVenue_WithPaths(t *testing.T) {
	venue := NewQuoteVenue("dex").WithPaths("$.result.asset", "$.result.price")
	payload := `{"result":{"asset":"TRS","price":1.5}}`

	res, err := venue.Swap(USDC, A(10), []byte(payload))
	if err != nil {
		t.Fatal(err)
	}
	if res.Output != TRS {
		t.Errorf("Swap() output = %s, want TRS", res.Output)
	}
	if !res.Amount.Equal(A(15)) {
		t.Errorf("Swap() amount = %s, want 15", res.Amount)
	}
}
