package basket

import (
	"slices"
	"time"
)

// OpType is a typed string identifying journal operations.
type OpType string

// Operation types recorded in the journal.
const (
	OpCompose      OpType = "compose"
	OpDecompose    OpType = "decompose"
	OpFeeCredit    OpType = "fee-credit"
	OpFeeRelease   OpType = "fee-release"
	OpShareholders OpType = "set-shareholders"
)

// Entry is one committed engine operation as recorded in the journal. The
// journal is append-only and chronological; replaying it against a fresh
// system rebuilds the ledger, reserve, registry and fee splitter state.
type Entry interface {
	What() OpType    // What returns the operation type of the entry.
	When() time.Time // When returns the instant the operation committed.
	Equal(Entry) bool
}

type baseEntry struct {
	Op OpType    `json:"op"` // Op identifies the operation type.
	At time.Time `json:"at"` // At is when the operation committed.
}

func (e baseEntry) What() OpType    { return e.Op }
func (e baseEntry) When() time.Time { return e.At }

// stamp normalizes an entry timestamp for stable journal round-trips.
func stamp(at time.Time) time.Time { return at.UTC().Truncate(time.Second) }

// ComposeEntry records a basket composition: the funds pulled, the entry fee
// and its royalty slice, and the holdings every swap leg actually produced.
type ComposeEntry struct {
	baseEntry
	Certificate    string
	Owner          string
	Lineage        string
	RoyaltyContext string
	Venue          VenueID
	Input          Asset
	Spent          Amount
	Fee            Amount
	Royalty        Amount
	Legs           []Holding
}

// NewCompose creates a ComposeEntry.
func NewCompose(at time.Time, certificate, owner, lineage, royaltyContext string, venue VenueID, input Asset, spent, fee, royalty Amount, legs []Holding) ComposeEntry {
	return ComposeEntry{
		baseEntry:      baseEntry{Op: OpCompose, At: stamp(at)},
		Certificate:    certificate,
		Owner:          owner,
		Lineage:        lineage,
		RoyaltyContext: royaltyContext,
		Venue:          venue,
		Input:          input,
		Spent:          spent,
		Fee:            fee,
		Royalty:        royalty,
		Legs:           legs,
	}
}

// MarshalJSON implements the json.Marshaler interface for ComposeEntry.
func (e ComposeEntry) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.EmbedFrom(e.baseEntry)
	w.Append("certificate", e.Certificate)
	w.Append("owner", e.Owner)
	w.Optional("lineage", e.Lineage)
	w.Optional("royaltyContext", e.RoyaltyContext)
	w.Append("venue", e.Venue)
	w.Optional("input", e.Input)
	w.Append("spent", e.Spent)
	w.Append("fee", e.Fee)
	w.Append("royalty", e.Royalty)
	w.Append("legs", e.Legs)
	return w.MarshalJSON()
}

func (e ComposeEntry) Equal(other Entry) bool {
	o, ok := other.(ComposeEntry)
	return ok && e.Op == o.Op && e.At.Equal(o.At) &&
		e.Certificate == o.Certificate && e.Owner == o.Owner &&
		e.Lineage == o.Lineage && e.RoyaltyContext == o.RoyaltyContext &&
		e.Venue == o.Venue && e.Input == o.Input &&
		e.Spent.Equal(o.Spent) && e.Fee.Equal(o.Fee) && e.Royalty.Equal(o.Royalty) &&
		equalLegs(e.Legs, o.Legs)
}

// DecomposeEntry records a basket decomposition: the holdings sold, the
// aggregate proceeds in the target asset, the exit fee, and whether the
// certificate reached zero holdings and was burned.
type DecomposeEntry struct {
	baseEntry
	Certificate    string
	Owner          string
	RoyaltyContext string
	Venue          VenueID
	Target         Asset
	Proceeds       Amount
	Fee            Amount
	Royalty        Amount
	Burned         bool
	Legs           []Holding
}

// NewDecompose creates a DecomposeEntry.
func NewDecompose(at time.Time, certificate, owner, royaltyContext string, venue VenueID, target Asset, proceeds, fee, royalty Amount, burned bool, legs []Holding) DecomposeEntry {
	return DecomposeEntry{
		baseEntry:      baseEntry{Op: OpDecompose, At: stamp(at)},
		Certificate:    certificate,
		Owner:          owner,
		RoyaltyContext: royaltyContext,
		Venue:          venue,
		Target:         target,
		Proceeds:       proceeds,
		Fee:            fee,
		Royalty:        royalty,
		Burned:         burned,
		Legs:           legs,
	}
}

// MarshalJSON implements the json.Marshaler interface for DecomposeEntry.
func (e DecomposeEntry) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.EmbedFrom(e.baseEntry)
	w.Append("certificate", e.Certificate)
	w.Append("owner", e.Owner)
	w.Optional("royaltyContext", e.RoyaltyContext)
	w.Append("venue", e.Venue)
	w.Optional("target", e.Target)
	w.Append("proceeds", e.Proceeds)
	w.Append("fee", e.Fee)
	w.Append("royalty", e.Royalty)
	w.Append("burned", e.Burned)
	w.Append("legs", e.Legs)
	return w.MarshalJSON()
}

func (e DecomposeEntry) Equal(other Entry) bool {
	o, ok := other.(DecomposeEntry)
	return ok && e.Op == o.Op && e.At.Equal(o.At) &&
		e.Certificate == o.Certificate && e.Owner == o.Owner &&
		e.RoyaltyContext == o.RoyaltyContext && e.Venue == o.Venue &&
		e.Target == o.Target && e.Proceeds.Equal(o.Proceeds) &&
		e.Fee.Equal(o.Fee) && e.Royalty.Equal(o.Royalty) &&
		e.Burned == o.Burned && equalLegs(e.Legs, o.Legs)
}

// FeeCreditEntry records a fee credited to the splitter outside a factory
// operation.
type FeeCreditEntry struct {
	baseEntry
	Context string
	Asset   Asset
	Amount  Amount
	Royalty Amount
}

// NewFeeCredit creates a FeeCreditEntry.
func NewFeeCredit(at time.Time, context string, asset Asset, amount, royalty Amount) FeeCreditEntry {
	return FeeCreditEntry{
		baseEntry: baseEntry{Op: OpFeeCredit, At: stamp(at)},
		Context:   context,
		Asset:     asset,
		Amount:    amount,
		Royalty:   royalty,
	}
}

// MarshalJSON implements the json.Marshaler interface for FeeCreditEntry.
func (e FeeCreditEntry) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.EmbedFrom(e.baseEntry)
	w.Optional("context", e.Context)
	w.Optional("asset", e.Asset)
	w.Append("amount", e.Amount)
	w.Append("royalty", e.Royalty)
	return w.MarshalJSON()
}

func (e FeeCreditEntry) Equal(other Entry) bool {
	o, ok := other.(FeeCreditEntry)
	return ok && e.Op == o.Op && e.At.Equal(o.At) && e.Context == o.Context &&
		e.Asset == o.Asset && e.Amount.Equal(o.Amount) && e.Royalty.Equal(o.Royalty)
}

// FeeReleaseEntry records a shareholder pulling its accrued share.
type FeeReleaseEntry struct {
	baseEntry
	Account string
	Asset   Asset
	Amount  Amount
}

// NewFeeRelease creates a FeeReleaseEntry.
func NewFeeRelease(at time.Time, account string, asset Asset, amount Amount) FeeReleaseEntry {
	return FeeReleaseEntry{
		baseEntry: baseEntry{Op: OpFeeRelease, At: stamp(at)},
		Account:   account,
		Asset:     asset,
		Amount:    amount,
	}
}

// MarshalJSON implements the json.Marshaler interface for FeeReleaseEntry.
func (e FeeReleaseEntry) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.EmbedFrom(e.baseEntry)
	w.Append("account", e.Account)
	w.Optional("asset", e.Asset)
	w.Append("amount", e.Amount)
	return w.MarshalJSON()
}

func (e FeeReleaseEntry) Equal(other Entry) bool {
	o, ok := other.(FeeReleaseEntry)
	return ok && e.Op == o.Op && e.At.Equal(o.At) && e.Account == o.Account &&
		e.Asset == o.Asset && e.Amount.Equal(o.Amount)
}

// ShareholdersEntry records a full replacement of the shareholder set.
type ShareholdersEntry struct {
	baseEntry
	Accounts []string
	Weights  []int64
}

// NewSetShareholders creates a ShareholdersEntry.
func NewSetShareholders(at time.Time, accounts []string, weights []int64) ShareholdersEntry {
	return ShareholdersEntry{
		baseEntry: baseEntry{Op: OpShareholders, At: stamp(at)},
		Accounts:  accounts,
		Weights:   weights,
	}
}

// MarshalJSON implements the json.Marshaler interface for ShareholdersEntry.
func (e ShareholdersEntry) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.EmbedFrom(e.baseEntry)
	w.Append("accounts", e.Accounts)
	w.Append("weights", e.Weights)
	return w.MarshalJSON()
}

func (e ShareholdersEntry) Equal(other Entry) bool {
	o, ok := other.(ShareholdersEntry)
	return ok && e.Op == o.Op && e.At.Equal(o.At) &&
		slices.Equal(e.Accounts, o.Accounts) && slices.Equal(e.Weights, o.Weights)
}

func equalLegs(a, b []Holding) bool {
	return slices.EqualFunc(a, b, func(x, y Holding) bool {
		return x.Asset == y.Asset && x.Amount.Equal(y.Amount)
	})
}
