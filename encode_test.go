package basket

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestJournal_RoundTrip(t *testing.T) {
	at := time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC)
	entries := []Entry{
		NewSetShareholders(at, []string{"alice", "bob"}, []int64{5000, 3000}),
		NewCompose(at.Add(time.Minute), "cert-1", "alice", "", "artist", "quote", USDC,
			A(1000), A(10), A(2), []Holding{
				{Asset: GOLD, Amount: A(990)},
				{Asset: OIL, Amount: A(247.5)},
			}),
		NewCompose(at.Add(2*time.Minute), "cert-2", "bob", "cert-1", "", "quote", Native,
			A(500), A(5), A(1), []Holding{{Asset: GOLD, Amount: A(495)}}),
		NewFeeCredit(at.Add(3*time.Minute), "artist", USDC, A(100), A(20)),
		NewFeeRelease(at.Add(4*time.Minute), "alice", USDC, A(50)),
		NewDecompose(at.Add(5*time.Minute), "cert-1", "alice", "", "quote", USDC,
			A(495), A(4), A(0), false, []Holding{{Asset: GOLD, Amount: A(990)}}),
	}

	var buf bytes.Buffer
	if err := EncodeJournal(&buf, entries); err != nil {
		t.Fatal(err)
	}

	decoded, err := DecodeJournal(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if len(decoded) != len(entries) {
		t.Fatalf("decoded %d entries, want %d", len(decoded), len(entries))
	}
	for i := range entries {
		if !entries[i].Equal(decoded[i]) {
			t.Errorf("entry %d does not round trip:\nwant %+v\ngot  %+v", i, entries[i], decoded[i])
		}
	}
}

func TestJournal_OmitsEmptyFields(t *testing.T) {
	at := time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC)
	entry := NewCompose(at, "cert-1", "alice", "", "", "quote", Native,
		A(100), A(1), A(0), []Holding{{Asset: GOLD, Amount: A(99)}})

	var buf bytes.Buffer
	if err := EncodeEntry(&buf, entry); err != nil {
		t.Fatal(err)
	}
	line := buf.String()

	for _, field := range []string{`"lineage"`, `"royaltyContext"`, `"input"`} {
		if strings.Contains(line, field) {
			t.Errorf("entry contains %s for an empty value:\n%s", field, line)
		}
	}
	// The op field comes first so a reader can identify lines at a glance.
	if !strings.HasPrefix(line, `{"op":"compose",`) {
		t.Errorf("entry does not start with the op field:\n%s", line)
	}
}

func TestEncodeJournal_SortsByTime(t *testing.T) {
	at := time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC)
	entries := []Entry{
		NewFeeCredit(at.Add(time.Hour), "late", USDC, A(1), A(0)),
		NewFeeCredit(at, "early", USDC, A(1), A(0)),
	}

	var buf bytes.Buffer
	if err := EncodeJournal(&buf, entries); err != nil {
		t.Fatal(err)
	}
	decoded, err := DecodeJournal(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if got := decoded[0].(FeeCreditEntry).Context; got != "early" {
		t.Errorf("first entry context = %q, want the chronologically first", got)
	}
}

func TestDecodeJournal_Errors(t *testing.T) {
	testCases := []struct {
		name  string
		input string
	}{
		{name: "not json", input: "not json\n"},
		{name: "unknown op", input: `{"op":"transmogrify","at":"2026-03-01T10:30:00Z"}` + "\n"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := DecodeJournal(strings.NewReader(tc.input)); err == nil {
				t.Fatal("DecodeJournal() accepted a malformed journal")
			}
		})
	}

	t.Run("blank lines are skipped", func(t *testing.T) {
		input := "\n" + `{"op":"fee-credit","at":"2026-03-01T10:30:00Z","amount":1,"royalty":0}` + "\n\n"
		entries, err := DecodeJournal(strings.NewReader(input))
		if err != nil {
			t.Fatal(err)
		}
		if len(entries) != 1 {
			t.Fatalf("decoded %d entries, want 1", len(entries))
		}
	})
}

func TestCustody_RoundTrip(t *testing.T) {
	custody := NewMemCustody()
	custody.Deposit("alice", USDC, A(100))
	custody.Deposit("alice", Native, A(2.5))
	custody.Deposit("reserve", GOLD, A(990))

	var buf bytes.Buffer
	if err := EncodeCustody(&buf, custody); err != nil {
		t.Fatal(err)
	}

	decoded, err := DecodeCustody(&buf)
	if err != nil {
		t.Fatal(err)
	}
	for _, q := range []struct {
		account string
		asset   Asset
		want    Amount
	}{
		{"alice", USDC, A(100)},
		{"alice", Native, A(2.5)},
		{"reserve", GOLD, A(990)},
	} {
		if got := decoded.BalanceOf(q.account, q.asset); !got.Equal(q.want) {
			t.Errorf("%s holds %s %s, want %s", q.account, got, q.asset, q.want)
		}
	}
}

func TestDecodeCustody_Errors(t *testing.T) {
	testCases := []struct {
		name  string
		input string
	}{
		{name: "negative balance", input: `{"account":"alice","asset":"USDC","balance":-1}` + "\n"},
		{name: "missing account", input: `{"asset":"USDC","balance":1}` + "\n"},
		{name: "not json", input: "nope\n"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := DecodeCustody(strings.NewReader(tc.input)); err == nil {
				t.Fatal("DecodeCustody() accepted a malformed file")
			}
		})
	}
}
