package basket

import (
	"fmt"
	"sort"
	"sync"
)

// Reserve is the process-wide aggregate of asset balances backing all live
// certificates. It mirrors the union of all certificate records: the factory
// credits and debits it in lock-step with every holdings ledger mutation,
// and nothing else may touch it. A desync between the two is a correctness
// bug, not a recoverable condition.
type Reserve struct {
	mu       sync.Mutex
	factory  Grant
	balances map[Asset]Amount
}

// NewReserve creates an empty reserve gated by the factory grant.
func NewReserve(factory Grant) *Reserve {
	return &Reserve{factory: factory, balances: make(map[Asset]Amount)}
}

func (r *Reserve) authorize(g Grant) error {
	if !r.factory.matches(g) {
		return fmt.Errorf("%w: reserve mutation requires the factory grant", ErrUnauthorized)
	}
	return nil
}

// Credit increases the aggregate balance of asset.
func (r *Reserve) Credit(g Grant, asset Asset, amount Amount) error {
	if err := r.authorize(g); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.balances[asset] = r.balances[asset].Add(amount)
	return nil
}

// Debit decreases the aggregate balance of asset. An underflow means the
// factory and the holdings ledger went out of lock-step.
func (r *Reserve) Debit(g Grant, asset Asset, amount Amount) error {
	if err := r.authorize(g); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	have := r.balances[asset]
	if have.LessThan(amount) {
		return fmt.Errorf("reserve underflow: %s %s backed, %s debited", have, asset, amount)
	}
	left := have.Sub(amount)
	if left.IsZero() {
		delete(r.balances, asset)
	} else {
		r.balances[asset] = left
	}
	return nil
}

// Balance returns the aggregate balance of asset.
func (r *Reserve) Balance(asset Asset) Amount {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.balances[asset]
}

// Assets returns, sorted, every asset with a non-zero aggregate balance.
func (r *Reserve) Assets() []Asset {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Asset, 0, len(r.balances))
	for a := range r.balances {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
