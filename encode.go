package basket

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

// This file persists the operation journal as JSONL, one entry per line, in
// a way that is human-readable and git-friendly. Decoding identifies each
// line by its "op" field and dispatches to a dedicated temporary struct;
// encoding goes through each entry's ordered MarshalJSON.

// legCmd mirrors one journal leg for decoding.
type legCmd struct {
	Asset  Asset  `json:"asset"`
	Amount Amount `json:"amount"`
}

func holdingsOf(legs []legCmd) []Holding {
	out := make([]Holding, len(legs))
	for i, l := range legs {
		out[i] = Holding{Asset: l.Asset, Amount: l.Amount}
	}
	return out
}

// DecodeJournal reads a JSONL journal and returns its entries in file order.
func DecodeJournal(r io.Reader) ([]Entry, error) {
	var entries []Entry
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		lineBytes := scanner.Bytes()
		if len(lineBytes) == 0 {
			continue
		}

		var identifier struct {
			Op OpType    `json:"op"`
			At time.Time `json:"at"`
		}
		if err := json.Unmarshal(lineBytes, &identifier); err != nil {
			return nil, fmt.Errorf("could not identify op on line %d %q: %w", line, string(lineBytes), err)
		}
		base := baseEntry{Op: identifier.Op, At: identifier.At}

		var decoded Entry
		switch identifier.Op {
		case OpCompose:
			var temp struct {
				Certificate    string   `json:"certificate"`
				Owner          string   `json:"owner"`
				Lineage        string   `json:"lineage"`
				RoyaltyContext string   `json:"royaltyContext"`
				Venue          VenueID  `json:"venue"`
				Input          Asset    `json:"input"`
				Spent          Amount   `json:"spent"`
				Fee            Amount   `json:"fee"`
				Royalty        Amount   `json:"royalty"`
				Legs           []legCmd `json:"legs"`
			}
			if err := json.Unmarshal(lineBytes, &temp); err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			decoded = ComposeEntry{
				baseEntry:      base,
				Certificate:    temp.Certificate,
				Owner:          temp.Owner,
				Lineage:        temp.Lineage,
				RoyaltyContext: temp.RoyaltyContext,
				Venue:          temp.Venue,
				Input:          temp.Input,
				Spent:          temp.Spent,
				Fee:            temp.Fee,
				Royalty:        temp.Royalty,
				Legs:           holdingsOf(temp.Legs),
			}

		case OpDecompose:
			var temp struct {
				Certificate    string   `json:"certificate"`
				Owner          string   `json:"owner"`
				RoyaltyContext string   `json:"royaltyContext"`
				Venue          VenueID  `json:"venue"`
				Target         Asset    `json:"target"`
				Proceeds       Amount   `json:"proceeds"`
				Fee            Amount   `json:"fee"`
				Royalty        Amount   `json:"royalty"`
				Burned         bool     `json:"burned"`
				Legs           []legCmd `json:"legs"`
			}
			if err := json.Unmarshal(lineBytes, &temp); err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			decoded = DecomposeEntry{
				baseEntry:      base,
				Certificate:    temp.Certificate,
				Owner:          temp.Owner,
				RoyaltyContext: temp.RoyaltyContext,
				Venue:          temp.Venue,
				Target:         temp.Target,
				Proceeds:       temp.Proceeds,
				Fee:            temp.Fee,
				Royalty:        temp.Royalty,
				Burned:         temp.Burned,
				Legs:           holdingsOf(temp.Legs),
			}

		case OpFeeCredit:
			var temp struct {
				Context string `json:"context"`
				Asset   Asset  `json:"asset"`
				Amount  Amount `json:"amount"`
				Royalty Amount `json:"royalty"`
			}
			if err := json.Unmarshal(lineBytes, &temp); err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			decoded = FeeCreditEntry{baseEntry: base, Context: temp.Context, Asset: temp.Asset, Amount: temp.Amount, Royalty: temp.Royalty}

		case OpFeeRelease:
			var temp struct {
				Account string `json:"account"`
				Asset   Asset  `json:"asset"`
				Amount  Amount `json:"amount"`
			}
			if err := json.Unmarshal(lineBytes, &temp); err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			decoded = FeeReleaseEntry{baseEntry: base, Account: temp.Account, Asset: temp.Asset, Amount: temp.Amount}

		case OpShareholders:
			var temp struct {
				Accounts []string `json:"accounts"`
				Weights  []int64  `json:"weights"`
			}
			if err := json.Unmarshal(lineBytes, &temp); err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			decoded = ShareholdersEntry{baseEntry: base, Accounts: temp.Accounts, Weights: temp.Weights}

		default:
			return nil, fmt.Errorf("unknown op %q on line %d", identifier.Op, line)
		}
		entries = append(entries, decoded)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading journal: %w", err)
	}
	return entries, nil
}

// EncodeEntry marshals a single entry to JSON and writes it to the writer,
// followed by a newline, in JSONL format.
func EncodeEntry(w io.Writer, entry Entry) error {
	decimal.MarshalJSONWithoutQuotes = true
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal %s entry: %w", entry.What(), err)
	}
	if _, err := w.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write %s entry: %w", entry.What(), err)
	}
	return nil
}

// EncodeJournal reorders entries chronologically and persists them to an
// io.Writer in JSONL format. The sort is stable: entries committed at the
// same instant keep their relative order.
func EncodeJournal(w io.Writer, entries []Entry) error {
	ordered := make([]Entry, len(entries))
	copy(ordered, entries)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].When().Before(ordered[j].When())
	})
	for _, entry := range ordered {
		if err := EncodeEntry(w, entry); err != nil {
			return err
		}
	}
	return nil
}

// DecodeCustody reads custody balances from a JSONL stream, one
// (account, asset, balance) triple per line, into a fresh MemCustody.
func DecodeCustody(r io.Reader) (*MemCustody, error) {
	custody := NewMemCustody()
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		lineBytes := scanner.Bytes()
		if len(lineBytes) == 0 {
			continue
		}
		var temp struct {
			Account string `json:"account"`
			Asset   Asset  `json:"asset"`
			Balance Amount `json:"balance"`
		}
		if err := json.Unmarshal(lineBytes, &temp); err != nil {
			return nil, fmt.Errorf("custody line %d %q: %w", line, string(lineBytes), err)
		}
		if temp.Balance.IsNegative() {
			return nil, fmt.Errorf("custody line %d: negative balance %s", line, temp.Balance)
		}
		if temp.Account == "" {
			return nil, fmt.Errorf("custody line %d: missing account", line)
		}
		custody.Deposit(temp.Account, temp.Asset, temp.Balance)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading custody: %w", err)
	}
	return custody, nil
}

// EncodeCustody persists custody balances in JSONL, accounts and assets
// sorted for a canonical, diff-friendly output.
func EncodeCustody(w io.Writer, custody *MemCustody) error {
	decimal.MarshalJSONWithoutQuotes = true
	accounts := custody.Accounts()
	sort.Strings(accounts)
	for _, account := range accounts {
		assets := custody.AssetsOf(account)
		sort.Slice(assets, func(i, j int) bool { return assets[i] < assets[j] })
		for _, asset := range assets {
			var jw jsonObjectWriter
			jw.Append("account", account)
			jw.Optional("asset", asset)
			jw.Append("balance", custody.BalanceOf(account, asset))
			data, err := jw.MarshalJSON()
			if err != nil {
				return fmt.Errorf("encoding custody of %q: %w", account, err)
			}
			if _, err := w.Write(append(data, '\n')); err != nil {
				return fmt.Errorf("writing custody of %q: %w", account, err)
			}
		}
	}
	return nil
}
