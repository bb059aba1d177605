package basket

import (
	"errors"
	"strings"
	"testing"
)

func TestParseAsset(t *testing.T) {
	testCases := []struct {
		name    string
		input   string
		want    Asset
		wantErr error
	}{
		{name: "plain symbol", input: "GOLD", want: GOLD},
		{name: "lowercased", input: "gold", want: GOLD},
		{name: "trimmed", input: "  usdc ", want: USDC},
		{name: "empty is native", input: "", want: Native},
		{name: "the word native", input: "Native", want: Native},
		{name: "digits and dots", input: "brk.b", want: "BRK.B"},
		{name: "spaces inside", input: "GO LD", wantErr: ErrInvalidInput},
		{name: "punctuation", input: "GOLD!", wantErr: ErrInvalidInput},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseAsset(tc.input)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("ParseAsset(%q) error = %v, want %v", tc.input, err, tc.wantErr)
			}
			if err == nil && got != tc.want {
				t.Errorf("ParseAsset(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}

func TestAsset_Format(t *testing.T) {
	if got := GOLD.Format(A(10.5)); got != "10.5 GOLD" {
		t.Errorf("Format() = %q, want \"10.5 GOLD\"", got)
	}
	// Native amounts go through the currency formatter.
	if got := Native.Format(A(2.5)); !strings.Contains(got, "2.50") {
		t.Errorf("Format() = %q, want the locale rendering of 2.50", got)
	}
	if got := Native.String(); got != "native" {
		t.Errorf("String() = %q, want \"native\"", got)
	}
}
