package basket

import (
	"fmt"
	"sync"
)

// Custody holds the actual asset balances. The engine instructs transfers but
// delegates asset movement and balance truth to it. A CustodyTx groups the
// movements of one engine operation: nothing is applied until Commit, and a
// Rollback leaves the custody untouched, which is how the factory gets its
// all-or-nothing semantics over multi-leg operations.
type Custody interface {
	// BalanceOf reports the committed balance of account in asset.
	BalanceOf(account string, asset Asset) Amount
	// Begin opens a transaction whose pulls accrue to spender's benefit.
	Begin(spender string) CustodyTx
}

// CustodyTx is one uncommitted group of asset movements.
type CustodyTx interface {
	// PullFrom moves amount of asset from account into the transaction
	// spender's account. For non-native assets the spender must hold a prior
	// allowance from account (ErrFundsTransfer otherwise); in every case the
	// account's spendable balance must cover the pull (ErrInsufficientFunds).
	PullFrom(account string, asset Asset, amount Amount) error
	// PayTo moves amount of asset from the spender's account to account.
	PayTo(account string, asset Asset, amount Amount) error
	// Withdraw moves amount of asset out of account to the outside world,
	// typically into a swap venue.
	Withdraw(account string, asset Asset, amount Amount) error
	// Deposit records amount of asset arriving into account from the outside
	// world, typically a venue's swap output.
	Deposit(account string, asset Asset, amount Amount)
	// BalanceOf reports account's balance as seen by this transaction.
	BalanceOf(account string, asset Asset) Amount
	// Commit applies all movements atomically.
	Commit() error
	// Rollback discards all movements. Safe to call after Commit (no-op).
	Rollback()
}

// MemCustody is the in-memory custody used by tests and the CLI. Balances
// and allowances live in plain maps; transactions buffer deltas and apply
// them under a single lock on commit.
type MemCustody struct {
	mu         sync.Mutex
	balances   map[string]map[Asset]Amount
	allowances map[string]map[string]map[Asset]Amount // owner -> spender -> asset
}

// NewMemCustody creates an empty in-memory custody.
func NewMemCustody() *MemCustody {
	return &MemCustody{
		balances:   make(map[string]map[Asset]Amount),
		allowances: make(map[string]map[string]map[Asset]Amount),
	}
}

// Deposit credits account directly, outside any transaction. This is how
// tests and the CLI seed balances.
func (c *MemCustody) Deposit(account string, asset Asset, amount Amount) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.credit(account, asset, amount)
}

// Approve lets spender pull up to amount of owner's asset. It replaces any
// previous allowance for the same (spender, asset).
func (c *MemCustody) Approve(owner, spender string, asset Asset, amount Amount) {
	c.mu.Lock()
	defer c.mu.Unlock()
	byOwner := c.allowances[owner]
	if byOwner == nil {
		byOwner = make(map[string]map[Asset]Amount)
		c.allowances[owner] = byOwner
	}
	bySpender := byOwner[spender]
	if bySpender == nil {
		bySpender = make(map[Asset]Amount)
		byOwner[spender] = bySpender
	}
	bySpender[asset] = amount
}

func (c *MemCustody) allowance(owner, spender string, asset Asset) Amount {
	return c.allowances[owner][spender][asset]
}

// credit must be called with the lock held.
func (c *MemCustody) credit(account string, asset Asset, amount Amount) {
	accts := c.balances[account]
	if accts == nil {
		accts = make(map[Asset]Amount)
		c.balances[account] = accts
	}
	accts[asset] = accts[asset].Add(amount)
}

// BalanceOf implements Custody.
func (c *MemCustody) BalanceOf(account string, asset Asset) Amount {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.balances[account][asset]
}

// Accounts returns the names of all accounts with any balance.
func (c *MemCustody) Accounts() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.balances))
	for name := range c.balances {
		out = append(out, name)
	}
	return out
}

// AssetsOf returns the assets account holds a non-zero balance in.
func (c *MemCustody) AssetsOf(account string) []Asset {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []Asset
	for asset, amt := range c.balances[account] {
		if !amt.IsZero() {
			out = append(out, asset)
		}
	}
	return out
}

// Begin implements Custody.
func (c *MemCustody) Begin(spender string) CustodyTx {
	return &memTx{custody: c, spender: spender, deltas: make(map[string]map[Asset]Amount)}
}

// memTx buffers balance deltas until commit.
type memTx struct {
	custody *MemCustody
	spender string
	deltas  map[string]map[Asset]Amount
	spent   map[string]map[Asset]Amount // allowance consumed per owner/asset
	done    bool
}

func (t *memTx) delta(account string, asset Asset) Amount {
	return t.deltas[account][asset]
}

func (t *memTx) shift(account string, asset Asset, by Amount) {
	accts := t.deltas[account]
	if accts == nil {
		accts = make(map[Asset]Amount)
		t.deltas[account] = accts
	}
	accts[asset] = accts[asset].Add(by)
}

// BalanceOf implements CustodyTx: the committed balance plus this
// transaction's buffered deltas.
func (t *memTx) BalanceOf(account string, asset Asset) Amount {
	return t.custody.BalanceOf(account, asset).Add(t.delta(account, asset))
}

func (t *memTx) PullFrom(account string, asset Asset, amount Amount) error {
	if !asset.IsNative() && account != t.spender {
		t.custody.mu.Lock()
		allowed := t.custody.allowance(account, t.spender, asset)
		t.custody.mu.Unlock()
		already := t.spent[account][asset]
		if allowed.Sub(already).LessThan(amount) {
			return fmt.Errorf("%w: allowance of %q for %q covers %s %s, need %s",
				ErrFundsTransfer, account, t.spender, allowed.Sub(already), asset, amount)
		}
		if t.spent == nil {
			t.spent = make(map[string]map[Asset]Amount)
		}
		if t.spent[account] == nil {
			t.spent[account] = make(map[Asset]Amount)
		}
		t.spent[account][asset] = already.Add(amount)
	}
	if t.BalanceOf(account, asset).LessThan(amount) {
		return fmt.Errorf("%w: %q holds %s %s, need %s",
			ErrInsufficientFunds, account, t.BalanceOf(account, asset), asset, amount)
	}
	t.shift(account, asset, amount.Neg())
	t.shift(t.spender, asset, amount)
	return nil
}

func (t *memTx) PayTo(account string, asset Asset, amount Amount) error {
	if t.BalanceOf(t.spender, asset).LessThan(amount) {
		return fmt.Errorf("%w: spender %q holds %s %s, need %s",
			ErrInsufficientFunds, t.spender, t.BalanceOf(t.spender, asset), asset, amount)
	}
	t.shift(t.spender, asset, amount.Neg())
	t.shift(account, asset, amount)
	return nil
}

func (t *memTx) Withdraw(account string, asset Asset, amount Amount) error {
	if t.BalanceOf(account, asset).LessThan(amount) {
		return fmt.Errorf("%w: %q holds %s %s, need %s",
			ErrInsufficientFunds, account, t.BalanceOf(account, asset), asset, amount)
	}
	t.shift(account, asset, amount.Neg())
	return nil
}

func (t *memTx) Deposit(account string, asset Asset, amount Amount) {
	t.shift(account, asset, amount)
}

func (t *memTx) Commit() error {
	if t.done {
		return nil
	}
	t.done = true
	c := t.custody
	c.mu.Lock()
	defer c.mu.Unlock()
	// Re-validate against committed balances: another transaction may have
	// committed since this one validated its movements.
	for account, assets := range t.deltas {
		for asset, by := range assets {
			if c.balances[account][asset].Add(by).IsNegative() {
				return fmt.Errorf("%w: commit would overdraw %q in %s", ErrInsufficientFunds, account, asset)
			}
		}
	}
	for account, assets := range t.deltas {
		for asset, by := range assets {
			c.credit(account, asset, by)
		}
	}
	// Burn the consumed allowances.
	for owner, assets := range t.spent {
		for asset, used := range assets {
			left := c.allowance(owner, t.spender, asset).Sub(used)
			if left.IsNegative() {
				left = Amount{}
			}
			c.allowances[owner][t.spender][asset] = left
		}
	}
	return nil
}

func (t *memTx) Rollback() {
	t.done = true
	t.deltas = nil
	t.spent = nil
}
