package basket

import (
	"fmt"
	"sync"
	"time"
)

// Shareholder is one (account, weight) pair of the shareholder set. Weights
// are basis-point style units; shares are proportional to weight over the
// set's total.
type Shareholder struct {
	Account string `json:"account"`
	Weight  int64  `json:"weight"`
}

// releaseKey addresses one owed/released counter pair.
type releaseKey struct {
	account string
	asset   Asset
}

// releaseAccount is a monotonically non-decreasing "owed" counter and a
// "released" counter; the releasable amount is the difference. Created
// lazily on first credit and never destroyed: unclaimed funds may stay
// forever, which is intentional, not a leak.
type releaseAccount struct {
	owed     Amount
	released Amount
}

// FeeSplitter accumulates protocol fees per payment context, splits a
// royalty slice off for the context's account and apportions the remainder
// across the shareholder set, and lets any party pull its accrued, not yet
// released share.
//
// The proportional split truncates each share towards zero; the rounding
// residual is not tracked and stays with the pool. Weights are expected to
// divide the usual fee amounts evenly, making the loss zero in practice.
type FeeSplitter struct {
	mu       sync.Mutex
	custody  Custody
	account  string // the splitter's custody account holding undistributed fees
	factory  Grant  // credit capability
	admin    Grant  // shareholder set and royalty administration
	royalty  int64  // royalty slice in basis points of each credited fee
	holders  []Shareholder
	total    int64 // sum of holder weights
	accounts map[releaseKey]*releaseAccount

	// Recorder, when set, is called with a journal entry for every credit,
	// release and shareholder replacement driven through this splitter
	// directly (the factory journals its own operations).
	Recorder func(Entry) error
}

// NewFeeSplitter creates a splitter paying out of the given custody account.
// Credits require the factory grant, administration the admin grant.
func NewFeeSplitter(custody Custody, account string, factory, admin Grant, royaltyBP int64) *FeeSplitter {
	return &FeeSplitter{
		custody:  custody,
		account:  account,
		factory:  factory,
		admin:    admin,
		royalty:  royaltyBP,
		accounts: make(map[releaseKey]*releaseAccount),
	}
}

// Account returns the splitter's custody account, the place fee transfers
// must land before being credited.
func (s *FeeSplitter) Account() string { return s.account }

// Credit splits amount, already sitting in the splitter's custody account,
// between the payment context and the shareholder set. The context receives
// the royalty slice; each shareholder's owed counter grows by its weighted
// share of the remainder.
func (s *FeeSplitter) Credit(g Grant, context string, asset Asset, amount Amount) error {
	if !s.factory.matches(g) {
		return fmt.Errorf("%w: fee credit requires the factory grant", ErrUnauthorized)
	}
	if !amount.IsPositive() {
		return fmt.Errorf("%w: fee credit must be positive, got %s", ErrInvalidInput, amount)
	}
	s.mu.Lock()
	royalty := s.credit(context, asset, amount)
	s.mu.Unlock()

	if s.Recorder != nil {
		return s.Recorder(NewFeeCredit(time.Now().UTC(), context, asset, amount, royalty))
	}
	return nil
}

// creditFromFactory applies the split bookkeeping for a fee the factory has
// already moved into the splitter's custody account; the factory journals
// the operation itself. Returns the royalty slice.
func (s *FeeSplitter) creditFromFactory(context string, asset Asset, amount Amount) Amount {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.credit(context, asset, amount)
}

// credit applies the split bookkeeping. Lock held. Returns the royalty slice.
func (s *FeeSplitter) credit(context string, asset Asset, amount Amount) Amount {
	royalty := amount.BasisPoints(s.royalty)
	s.creditSplit(context, asset, amount, royalty)
	return royalty
}

// creditSplit credits the royalty slice to the context and the weighted
// shares of the remainder to the shareholder set. Lock held. Kept separate
// from credit so a journal replay can apply the royalty that was recorded
// rather than the one the current rate would produce.
func (s *FeeSplitter) creditSplit(context string, asset Asset, amount Amount, royalty Amount) {
	if royalty.IsPositive() && context != "" {
		s.owe(context, asset, royalty)
	}
	rest := amount.Sub(royalty)
	for _, h := range s.holders {
		share := rest.Weighted(h.Weight, s.total)
		if share.IsPositive() {
			s.owe(h.Account, asset, share)
		}
	}
}

// restoreCredit, restoreRelease and restoreShareholders rebuild splitter
// state from journal entries without touching the custody or the recorder.

func (s *FeeSplitter) restoreCredit(context string, asset Asset, amount, royalty Amount) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creditSplit(context, asset, amount, royalty)
}

func (s *FeeSplitter) restoreRelease(account string, asset Asset, amount Amount) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := releaseKey{account: account, asset: asset}
	acc := s.accounts[key]
	if acc == nil {
		acc = &releaseAccount{}
		s.accounts[key] = acc
	}
	acc.released = acc.released.Add(amount)
}

func (s *FeeSplitter) restoreShareholders(accounts []string, weights []int64) error {
	holders, err := buildShareholders(accounts, weights)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.holders = holders
	s.total = 0
	for _, h := range holders {
		s.total += h.Weight
	}
	return nil
}

func (s *FeeSplitter) owe(account string, asset Asset, amount Amount) {
	key := releaseKey{account: account, asset: asset}
	acc := s.accounts[key]
	if acc == nil {
		acc = &releaseAccount{}
		s.accounts[key] = acc
	}
	acc.owed = acc.owed.Add(amount)
}

// Releasable returns the accrued, not yet released share of account in asset.
func (s *FeeSplitter) Releasable(account string, asset Asset) Amount {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc := s.accounts[releaseKey{account: account, asset: asset}]
	if acc == nil {
		return Amount{}
	}
	return acc.owed.Sub(acc.released)
}

// Release transfers account's releasable share of asset out of the
// splitter's custody account and marks it released. Releasing with nothing
// due is a hard failure, never a silent no-op.
func (s *FeeSplitter) Release(account string, asset Asset) (Amount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc := s.accounts[releaseKey{account: account, asset: asset}]
	if acc == nil || !acc.owed.GreaterThan(acc.released) {
		return Amount{}, fmt.Errorf("%w: %q has nothing to release in %s", ErrNoPaymentDue, account, asset)
	}
	due := acc.owed.Sub(acc.released)

	tx := s.custody.Begin(s.account)
	if err := tx.PayTo(account, asset, due); err != nil {
		tx.Rollback()
		return Amount{}, fmt.Errorf("releasing %s %s to %q: %w", due, asset, account, err)
	}
	if err := tx.Commit(); err != nil {
		return Amount{}, fmt.Errorf("releasing %s %s to %q: %w", due, asset, account, err)
	}
	acc.released = acc.owed

	if s.Recorder != nil {
		if err := s.Recorder(NewFeeRelease(time.Now().UTC(), account, asset, due)); err != nil {
			return due, err
		}
	}
	return due, nil
}

// SetShareholders replaces the whole shareholder set atomically. Partial
// patches are not supported: accounts and weights describe the complete new
// set. Release accounts of dropped shareholders keep their balances.
func (s *FeeSplitter) SetShareholders(g Grant, accounts []string, weights []int64) error {
	if !s.admin.matches(g) {
		return fmt.Errorf("%w: replacing the shareholder set requires the admin grant", ErrUnauthorized)
	}
	holders, err := buildShareholders(accounts, weights)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.holders = holders
	s.total = 0
	for _, h := range holders {
		s.total += h.Weight
	}
	s.mu.Unlock()

	if s.Recorder != nil {
		return s.Recorder(NewSetShareholders(time.Now().UTC(), accounts, weights))
	}
	return nil
}

func buildShareholders(accounts []string, weights []int64) ([]Shareholder, error) {
	if len(accounts) == 0 {
		return nil, fmt.Errorf("%w: shareholder set must not be empty", ErrInvalidInput)
	}
	if len(accounts) != len(weights) {
		return nil, fmt.Errorf("%w: %d accounts but %d weights", ErrInvalidInput, len(accounts), len(weights))
	}
	seen := make(map[string]bool, len(accounts))
	holders := make([]Shareholder, len(accounts))
	for i, account := range accounts {
		if account == "" {
			return nil, fmt.Errorf("%w: shareholder account must not be empty", ErrInvalidInput)
		}
		if seen[account] {
			return nil, fmt.Errorf("%w: duplicate shareholder %q", ErrInvalidInput, account)
		}
		seen[account] = true
		if weights[i] <= 0 {
			return nil, fmt.Errorf("%w: weight of %q must be positive, got %d", ErrInvalidInput, account, weights[i])
		}
		holders[i] = Shareholder{Account: account, Weight: weights[i]}
	}
	return holders, nil
}

// SetRoyalty changes the royalty slice, in basis points of each credited fee.
func (s *FeeSplitter) SetRoyalty(g Grant, bp int64) error {
	if !s.admin.matches(g) {
		return fmt.Errorf("%w: changing the royalty requires the admin grant", ErrUnauthorized)
	}
	if bp < 0 || bp > 10000 {
		return fmt.Errorf("%w: royalty must be within [0, 10000] basis points, got %d", ErrInvalidInput, bp)
	}
	s.mu.Lock()
	s.royalty = bp
	s.mu.Unlock()
	return nil
}

// Shareholders returns a copy of the current shareholder set.
func (s *FeeSplitter) Shareholders() []Shareholder {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Shareholder, len(s.holders))
	copy(out, s.holders)
	return out
}
