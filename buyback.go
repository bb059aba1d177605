package basket

import "fmt"

// Buyback is an optional consumer of fee splitter inflows: it sweeps the
// full balance the source account holds in one asset, swaps it into the
// treasury asset, and forwards the entire output to the reserve custody
// account. There is no partial-amount mode; whether the swept funds were
// still owed to shareholders is the operator's call to make.
type Buyback struct {
	custody  Custody
	source   string // the account swept, usually the fee splitter's
	vault    string // reserve custody account receiving the treasury asset
	treasury Asset
	venues   Venues
	admin    Grant
}

// NewBuyback wires a buyback trigger.
func NewBuyback(custody Custody, source, vault string, treasury Asset, venues Venues, admin Grant) *Buyback {
	return &Buyback{
		custody:  custody,
		source:   source,
		vault:    vault,
		treasury: treasury,
		venues:   venues,
		admin:    admin,
	}
}

// Treasury returns the asset the buyback accumulates.
func (b *Buyback) Treasury() Asset { return b.treasury }

// Trigger sweeps the source account's full balance of asset, swaps it on the
// venue and forwards the whole observed output to the reserve custody.
// Returns the treasury amount acquired.
func (b *Buyback) Trigger(g Grant, venue VenueID, payload []byte, asset Asset) (Amount, error) {
	if !b.admin.matches(g) {
		return Amount{}, fmt.Errorf("%w: triggering a buyback requires the admin grant", ErrUnauthorized)
	}
	op, err := b.venues.resolve(venue)
	if err != nil {
		return Amount{}, err
	}
	balance := b.custody.BalanceOf(b.source, asset)
	if !balance.IsPositive() {
		return Amount{}, fmt.Errorf("%w: %q holds no %s to sweep", ErrInsufficientFunds, b.source, asset)
	}

	res, err := op.Swap(asset, balance, payload)
	if err != nil {
		return Amount{}, fmt.Errorf("%w: venue %q: %v", ErrAdapterFailure, op.Describe(), err)
	}
	if res.Output != b.treasury {
		return Amount{}, fmt.Errorf("%w: venue %q delivered %s, treasury is %s", ErrAdapterFailure, op.Describe(), res.Output, b.treasury)
	}
	if !res.Amount.IsPositive() {
		return Amount{}, fmt.Errorf("%w: venue %q delivered a non-positive amount %s", ErrAdapterFailure, op.Describe(), res.Amount)
	}

	tx := b.custody.Begin(b.source)
	defer tx.Rollback()
	if err := tx.Withdraw(b.source, asset, balance); err != nil {
		return Amount{}, err
	}
	tx.Deposit(b.vault, b.treasury, res.Amount)
	if err := tx.Commit(); err != nil {
		return Amount{}, err
	}
	return res.Amount, nil
}
