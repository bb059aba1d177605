package basket

import "fmt"

// Config names the custody accounts and rates a System is wired with. Zero
// fields fall back to engine defaults.
type Config struct {
	EscrowAccount   string // factory working account, default "factory"
	VaultAccount    string // reserve custody account, default "reserve"
	SplitterAccount string // fee splitter account, default "fees"
	Treasury        Asset  // buyback target asset
	EntryFeeBP      int64  // entry fee, default 100 (1%)
	ExitFeeBP       int64  // exit fee, default 100 (1%)
	RoyaltyBP       int64  // royalty slice of each credited fee, default 0
	Venues          Venues
}

// System bundles the engine components over one custody and one registry,
// holding the capability grants that tie them together. It is the natural
// entry point for embedders and for the CLI.
type System struct {
	Custody  Custody
	Registry Registry
	Ledger   *HoldingsLedger
	Reserve  *Reserve
	Splitter *FeeSplitter
	Factory  *Factory
	Buyback  *Buyback

	admin Grant
}

// NewSystem wires a complete engine. The returned system's admin grant
// (AdminGrant) is the administrative capability; whoever holds the System
// value controls it.
func NewSystem(custody Custody, registry Registry, cfg Config) (*System, error) {
	if custody == nil || registry == nil {
		return nil, fmt.Errorf("%w: custody and registry are required", ErrInvalidInput)
	}
	if cfg.EscrowAccount == "" {
		cfg.EscrowAccount = "factory"
	}
	if cfg.VaultAccount == "" {
		cfg.VaultAccount = "reserve"
	}
	if cfg.SplitterAccount == "" {
		cfg.SplitterAccount = "fees"
	}
	if cfg.RoyaltyBP < 0 || cfg.RoyaltyBP > 10000 {
		return nil, fmt.Errorf("%w: royalty must be within [0, 10000] basis points, got %d", ErrInvalidInput, cfg.RoyaltyBP)
	}

	factoryGrant := NewGrant()
	adminGrant := NewGrant()

	ledger := NewHoldingsLedger(factoryGrant)
	reserve := NewReserve(factoryGrant)
	splitter := NewFeeSplitter(custody, cfg.SplitterAccount, factoryGrant, adminGrant, cfg.RoyaltyBP)
	factory := NewFactory(ledger, reserve, custody, splitter, registry, cfg.Venues, factoryGrant, adminGrant, cfg.EscrowAccount, cfg.VaultAccount)
	if cfg.EntryFeeBP != 0 {
		if err := factory.SetEntryFeeBP(adminGrant, cfg.EntryFeeBP); err != nil {
			return nil, err
		}
	}
	if cfg.ExitFeeBP != 0 {
		if err := factory.SetExitFeeBP(adminGrant, cfg.ExitFeeBP); err != nil {
			return nil, err
		}
	}
	buyback := NewBuyback(custody, cfg.SplitterAccount, cfg.VaultAccount, cfg.Treasury, cfg.Venues, adminGrant)

	return &System{
		Custody:  custody,
		Registry: registry,
		Ledger:   ledger,
		Reserve:  reserve,
		Splitter: splitter,
		Factory:  factory,
		Buyback:  buyback,
		admin:    adminGrant,
	}, nil
}

// AdminGrant returns the administrative capability of this system.
func (s *System) AdminGrant() Grant { return s.admin }

// RotateAdmin transfers the administrative capability: it invalidates the
// current admin grant across every component and returns the fresh one.
func (s *System) RotateAdmin(g Grant) (Grant, error) {
	if !s.admin.matches(g) {
		return Grant{}, fmt.Errorf("%w: rotating the admin grant requires the current one", ErrUnauthorized)
	}
	fresh := NewGrant()
	s.admin = fresh
	s.Factory.admin = fresh
	s.Splitter.admin = fresh
	s.Buyback.admin = fresh
	return fresh, nil
}

// SetRecorder registers the journal recorder on every recording component.
func (s *System) SetRecorder(rec func(Entry) error) {
	s.Factory.Recorder = rec
	s.Splitter.Recorder = rec
}

// CreditFee moves amount of asset from the payer's custody balance into the
// fee splitter's account and credits the split, with the royalty slice going
// to context. This is the entry point for fees paid outside a factory
// operation.
func (s *System) CreditFee(payer, context string, asset Asset, amount Amount) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%w: fee must be positive, got %s", ErrInvalidInput, amount)
	}
	tx := s.Custody.Begin(payer)
	defer tx.Rollback()
	if err := tx.PayTo(s.Splitter.Account(), asset, amount); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	return s.Splitter.Credit(s.Factory.grant, context, asset, amount)
}

// restorer is implemented by registries that can re-register certificates
// under their original ids during a journal replay.
type restorer interface {
	Restore(certificate, owner, lineage string) error
}

// Replay applies journal entries, in order, to a freshly built system. It
// rebuilds ledger, reserve, registry and splitter bookkeeping exactly as
// recorded; custody balances are not touched, they are persisted separately.
func (s *System) Replay(entries []Entry) error {
	for i, entry := range entries {
		if err := s.replay(entry); err != nil {
			return fmt.Errorf("replaying entry %d (%s): %w", i+1, entry.What(), err)
		}
	}
	return nil
}

func (s *System) replay(entry Entry) error {
	switch e := entry.(type) {
	case ComposeEntry:
		if r, ok := s.Registry.(restorer); ok {
			if err := r.Restore(e.Certificate, e.Owner, e.Lineage); err != nil {
				return err
			}
		}
		if err := s.Ledger.StoreAll(s.Factory.grant, e.Certificate, e.Legs, s.Factory.vault); err != nil {
			return err
		}
		for _, leg := range e.Legs {
			if err := s.Reserve.Credit(s.Factory.grant, leg.Asset, leg.Amount); err != nil {
				return err
			}
		}
		if e.Fee.IsPositive() {
			s.Splitter.restoreCredit(e.RoyaltyContext, e.Input, e.Fee, e.Royalty)
		}
		return nil

	case DecomposeEntry:
		for _, leg := range e.Legs {
			if _, err := s.Ledger.RemoveAmount(s.Factory.grant, e.Certificate, leg.Asset, leg.Amount); err != nil {
				return err
			}
			if err := s.Reserve.Debit(s.Factory.grant, leg.Asset, leg.Amount); err != nil {
				return err
			}
		}
		if e.Burned {
			if err := s.Registry.Burn(e.Certificate); err != nil {
				return err
			}
		}
		if e.Fee.IsPositive() {
			s.Splitter.restoreCredit(e.RoyaltyContext, e.Target, e.Fee, e.Royalty)
		}
		return nil

	case FeeCreditEntry:
		s.Splitter.restoreCredit(e.Context, e.Asset, e.Amount, e.Royalty)
		return nil

	case FeeReleaseEntry:
		s.Splitter.restoreRelease(e.Account, e.Asset, e.Amount)
		return nil

	case ShareholdersEntry:
		return s.Splitter.restoreShareholders(e.Accounts, e.Weights)

	default:
		return fmt.Errorf("%w: unsupported journal entry %T", ErrInvalidInput, entry)
	}
}

// CheckConservation verifies that, for every asset, the sum of holdings over
// all certificates equals the reserve balance. A violation means the factory
// transactional boundary was bypassed.
func (s *System) CheckConservation() error {
	totals := s.Ledger.totals()
	for _, asset := range s.Reserve.Assets() {
		if totals[asset].IsZero() && !s.Reserve.Balance(asset).IsZero() {
			return fmt.Errorf("reserve holds %s %s backed by no holding", s.Reserve.Balance(asset), asset)
		}
	}
	for asset, total := range totals {
		if !s.Reserve.Balance(asset).Equal(total) {
			return fmt.Errorf("holdings of %s sum to %s but the reserve backs %s", asset, total, s.Reserve.Balance(asset))
		}
	}
	return nil
}
