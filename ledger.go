package basket

import (
	"fmt"
	"sync"
)

// HoldingsLedger tracks the exact composition of every live certificate: a
// bounded ordered list of (asset, amount) holdings per certificate id.
//
// Mutations are capability-gated: only a holder of the factory grant the
// ledger was built with may store or remove holdings. Everyone gets the
// read-only queries, which return consistent snapshots.
type HoldingsLedger struct {
	mu      sync.Mutex
	factory Grant
	records map[string]*certificateRecord
}

// NewHoldingsLedger creates an empty ledger whose mutating operations demand
// the given factory grant.
func NewHoldingsLedger(factory Grant) *HoldingsLedger {
	return &HoldingsLedger{
		factory: factory,
		records: make(map[string]*certificateRecord),
	}
}

func (l *HoldingsLedger) authorize(g Grant) error {
	if !l.factory.matches(g) {
		return fmt.Errorf("%w: holdings ledger mutation requires the factory grant", ErrUnauthorized)
	}
	return nil
}

// Store adds amount of asset to the certificate's basket. An asset already
// present is topped up in place; a new asset is appended, consuming one of
// the MaxHoldings capacity slots. The custody reference must match the one
// the certificate's holdings are reserved in (it is recorded on first store),
// so that no holding can ever be credited against the wrong reserve.
func (l *HoldingsLedger) Store(g Grant, certificate string, asset Asset, amount Amount, custody string) error {
	if err := l.authorize(g); err != nil {
		return err
	}
	if !amount.IsPositive() {
		return fmt.Errorf("%w: store amount must be positive, got %s", ErrInvalidInput, amount)
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	rec := l.records[certificate]
	if rec == nil {
		rec = &certificateRecord{custody: custody}
		l.records[certificate] = rec
	}
	if err := rec.checkStore(asset, custody); err != nil {
		return err
	}
	rec.store(asset, amount)
	return nil
}

// checkStore validates that one more asset would fit and that the custody
// reference matches. It performs no mutation.
func (r *certificateRecord) checkStore(asset Asset, custody string) error {
	if r.custody != custody {
		return fmt.Errorf("%w: expected custody %q, got %q", ErrInvalidCustody, r.custody, custody)
	}
	if r.index(asset) < 0 && len(r.holdings) >= MaxHoldings {
		return fmt.Errorf("%w: certificate already holds %d assets", ErrTooManyHoldings, len(r.holdings))
	}
	return nil
}

func (r *certificateRecord) store(asset Asset, amount Amount) {
	if i := r.index(asset); i >= 0 {
		r.holdings[i].Amount = r.holdings[i].Amount.Add(amount)
		return
	}
	r.holdings = append(r.holdings, Holding{Asset: asset, Amount: amount})
}

// StoreAll stores a group of legs into the certificate atomically: either
// every leg fits (capacity counted after merging duplicates) or nothing is
// stored. Legs for an asset already present never consume capacity.
func (l *HoldingsLedger) StoreAll(g Grant, certificate string, legs []Holding, custody string) error {
	if err := l.authorize(g); err != nil {
		return err
	}
	for _, leg := range legs {
		if !leg.Amount.IsPositive() {
			return fmt.Errorf("%w: store amount must be positive, got %s", ErrInvalidInput, leg.Amount)
		}
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	rec := l.records[certificate]
	fresh := rec == nil
	if fresh {
		rec = &certificateRecord{custody: custody}
	}
	if rec.custody != custody {
		return fmt.Errorf("%w: expected custody %q, got %q", ErrInvalidCustody, rec.custody, custody)
	}
	// Count capacity for the distinct new assets of this group.
	novel := make(map[Asset]bool)
	for _, leg := range legs {
		if rec.index(leg.Asset) < 0 {
			novel[leg.Asset] = true
		}
	}
	if len(rec.holdings)+len(novel) > MaxHoldings {
		return fmt.Errorf("%w: %d holdings plus %d new assets exceed the %d bound",
			ErrTooManyHoldings, len(rec.holdings), len(novel), MaxHoldings)
	}
	for _, leg := range legs {
		rec.store(leg.Asset, leg.Amount)
	}
	if fresh {
		l.records[certificate] = rec
	}
	return nil
}

// RemoveAmount subtracts amount of asset from the certificate and returns the
// remaining holding amount. A holding that reaches exactly zero is deleted,
// freeing one capacity slot. Overdraws fail with ErrInsufficientHolding.
func (l *HoldingsLedger) RemoveAmount(g Grant, certificate string, asset Asset, amount Amount) (remaining Amount, err error) {
	if err := l.authorize(g); err != nil {
		return Amount{}, err
	}
	if !amount.IsPositive() {
		return Amount{}, fmt.Errorf("%w: remove amount must be positive, got %s", ErrInvalidInput, amount)
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	rec := l.records[certificate]
	if rec == nil {
		return Amount{}, fmt.Errorf("%w: certificate %q holds no %s", ErrInsufficientHolding, certificate, asset)
	}
	i := rec.index(asset)
	if i < 0 || rec.holdings[i].Amount.LessThan(amount) {
		return Amount{}, fmt.Errorf("%w: certificate %q cannot release %s %s", ErrInsufficientHolding, certificate, amount, asset)
	}
	remaining = rec.holdings[i].Amount.Sub(amount)
	if remaining.IsZero() {
		rec.holdings = append(rec.holdings[:i], rec.holdings[i+1:]...)
	} else {
		rec.holdings[i].Amount = remaining
	}
	if len(rec.holdings) == 0 {
		delete(l.records, certificate)
	}
	return remaining, nil
}

// Holdings returns a snapshot of the certificate's basket. An unknown
// certificate has an empty basket.
func (l *HoldingsLedger) Holdings(certificate string) []Holding {
	l.mu.Lock()
	defer l.mu.Unlock()
	rec := l.records[certificate]
	if rec == nil {
		return nil
	}
	return rec.snapshot()
}

// FreeSlots returns how many distinct new assets the certificate can still
// take before hitting the MaxHoldings bound.
func (l *HoldingsLedger) FreeSlots(certificate string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	rec := l.records[certificate]
	if rec == nil {
		return MaxHoldings
	}
	return MaxHoldings - len(rec.holdings)
}

// Custody returns the custody account the certificate's assets are reserved
// in, or "" for an unknown certificate.
func (l *HoldingsLedger) Custody(certificate string) string {
	l.mu.Lock()
	defer l.mu.Unlock()
	if rec := l.records[certificate]; rec != nil {
		return rec.custody
	}
	return ""
}

// Certificates returns the ids of all certificates with at least one holding.
func (l *HoldingsLedger) Certificates() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	ids := make([]string, 0, len(l.records))
	for id := range l.records {
		ids = append(ids, id)
	}
	return ids
}

// totals sums holdings per asset over all certificates. Used to check the
// conservation invariant against the reserve.
func (l *HoldingsLedger) totals() map[Asset]Amount {
	l.mu.Lock()
	defer l.mu.Unlock()
	sums := make(map[Asset]Amount)
	for _, rec := range l.records {
		for _, h := range rec.holdings {
			sums[h.Asset] = sums[h.Asset].Add(h.Amount)
		}
	}
	return sums
}
