package basket

import (
	"fmt"
	"log"
	"sync"
	"time"
)

// SellLeg names one holding to liquidate and carries the opaque swap payload
// for its venue call.
type SellLeg struct {
	Asset   Asset
	Payload []byte
}

// Factory orchestrates basket composition and decomposition. It is the only
// component holding the factory grant, so every holdings ledger and reserve
// mutation funnels through its transactional boundary: funds are pulled,
// swap legs executed, fees charged, and the certificate minted or burned,
// with any failure rolling the whole operation back.
type Factory struct {
	ledger   *HoldingsLedger
	reserve  *Reserve
	custody  Custody
	splitter *FeeSplitter
	registry Registry
	venues   Venues

	grant  Grant
	admin  Grant
	escrow string // the factory's own custody account
	vault  string // custody account reserving the basket assets

	mu         sync.Mutex // guards the fee rates
	entryFeeBP int64
	exitFeeBP  int64

	certLocks sync.Map // certificate id -> *sync.Mutex

	// Recorder, when set, receives a journal entry for every committed
	// operation.
	Recorder func(Entry) error
}

// NewFactory wires a factory over its collaborators. Entry and exit fees
// start at 100 basis points (1%) until changed through the admin surface.
func NewFactory(ledger *HoldingsLedger, reserve *Reserve, custody Custody, splitter *FeeSplitter, registry Registry, venues Venues, factory, admin Grant, escrow, vault string) *Factory {
	return &Factory{
		ledger:     ledger,
		reserve:    reserve,
		custody:    custody,
		splitter:   splitter,
		registry:   registry,
		venues:     venues,
		grant:      factory,
		admin:      admin,
		escrow:     escrow,
		vault:      vault,
		entryFeeBP: 100,
		exitFeeBP:  100,
	}
}

// Vault returns the custody account the basket assets are reserved in.
func (f *Factory) Vault() string { return f.vault }

// EntryFeeBP returns the entry fee rate in basis points.
func (f *Factory) EntryFeeBP() int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.entryFeeBP
}

// ExitFeeBP returns the exit fee rate in basis points.
func (f *Factory) ExitFeeBP() int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.exitFeeBP
}

// SetEntryFeeBP changes the entry fee rate. Admin only.
func (f *Factory) SetEntryFeeBP(g Grant, bp int64) error {
	return f.setFee(g, bp, &f.entryFeeBP)
}

// SetExitFeeBP changes the exit fee rate. Admin only.
func (f *Factory) SetExitFeeBP(g Grant, bp int64) error {
	return f.setFee(g, bp, &f.exitFeeBP)
}

func (f *Factory) setFee(g Grant, bp int64, rate *int64) error {
	if !f.admin.matches(g) {
		return fmt.Errorf("%w: changing fee rates requires the admin grant", ErrUnauthorized)
	}
	if bp < 0 || bp > 10000 {
		return fmt.Errorf("%w: fee must be within [0, 10000] basis points, got %d", ErrInvalidInput, bp)
	}
	f.mu.Lock()
	*rate = bp
	f.mu.Unlock()
	return nil
}

// lockCertificate serializes all factory operations touching one
// certificate. Returns the unlock function.
func (f *Factory) lockCertificate(certificate string) func() {
	m, _ := f.certLocks.LoadOrStore(certificate, &sync.Mutex{})
	mu := m.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// Compose acquires a basket and mints a fresh certificate for caller.
//
// expectedTotal of input is pulled from the caller; the entry fee is split
// off and forwarded to the fee splitter crediting royaltyContext; the
// remaining budget is sliced evenly across the legs and swapped on the
// given venue, one call per (output, payload) pair. The holdings ledger and
// reserve are credited with each leg's observed output. Composition is
// all-or-nothing across legs: a failure anywhere returns the pulled funds
// and leaves no trace.
func (f *Factory) Compose(caller string, input Asset, expectedTotal Amount, royaltyContext string, venue VenueID, outputs []Asset, payloads [][]byte) (string, error) {
	return f.compose(caller, "", input, expectedTotal, royaltyContext, venue, outputs, payloads)
}

// Replicate is Compose recording a replication lineage: the minted
// certificate points at the source certificate it copies.
func (f *Factory) Replicate(caller, source string, input Asset, expectedTotal Amount, royaltyContext string, venue VenueID, outputs []Asset, payloads [][]byte) (string, error) {
	if _, err := f.registry.OwnerOf(source); err != nil {
		return "", fmt.Errorf("replication source: %w", err)
	}
	return f.compose(caller, source, input, expectedTotal, royaltyContext, venue, outputs, payloads)
}

func (f *Factory) compose(caller, lineage string, input Asset, expectedTotal Amount, royaltyContext string, venue VenueID, outputs []Asset, payloads [][]byte) (string, error) {
	if len(outputs) == 0 {
		return "", fmt.Errorf("%w: no buy legs", ErrInvalidInput)
	}
	if len(outputs) != len(payloads) {
		return "", fmt.Errorf("%w: %d buy legs but %d payloads", ErrInvalidInput, len(outputs), len(payloads))
	}
	if !expectedTotal.IsPositive() {
		return "", fmt.Errorf("%w: expected total must be positive, got %s", ErrInvalidInput, expectedTotal)
	}
	distinct := make(map[Asset]bool, len(outputs))
	for _, out := range outputs {
		distinct[out] = true
	}
	if len(distinct) > MaxHoldings {
		return "", fmt.Errorf("%w: %d distinct assets exceed the %d bound", ErrTooManyHoldings, len(distinct), MaxHoldings)
	}
	op, err := f.venues.resolve(venue)
	if err != nil {
		return "", err
	}

	tx := f.custody.Begin(f.escrow)
	defer tx.Rollback()

	if err := tx.PullFrom(caller, input, expectedTotal); err != nil {
		return "", err
	}
	fee := expectedTotal.BasisPoints(f.EntryFeeBP())
	if fee.IsPositive() {
		if err := tx.PayTo(f.splitter.Account(), input, fee); err != nil {
			return "", err
		}
	}
	budget := expectedTotal.Sub(fee)

	slices := budget.SplitEven(len(outputs))
	legs := make([]Holding, 0, len(outputs))
	for i, want := range outputs {
		res, err := f.swap(op, input, slices[i], payloads[i], want)
		if err != nil {
			return "", err
		}
		if err := tx.Withdraw(f.escrow, input, slices[i]); err != nil {
			return "", err
		}
		tx.Deposit(f.vault, res.Output, res.Amount)
		legs = append(legs, Holding{Asset: res.Output, Amount: res.Amount})
	}

	certificate, err := f.registry.Mint(caller, lineage)
	if err != nil {
		return "", fmt.Errorf("minting certificate: %w", err)
	}
	unlock := f.lockCertificate(certificate)
	defer unlock()

	if err := tx.Commit(); err != nil {
		if berr := f.registry.Burn(certificate); berr != nil {
			log.Printf("cannot burn certificate %q after failed commit: %v", certificate, berr)
		}
		return "", err
	}
	// The commit succeeded: the remaining mutations are in-memory and were
	// validated above, a failure here is a wiring bug, not a caller error.
	if err := f.ledger.StoreAll(f.grant, certificate, legs, f.vault); err != nil {
		return "", fmt.Errorf("holdings ledger desync on %q: %w", certificate, err)
	}
	for _, leg := range legs {
		if err := f.reserve.Credit(f.grant, leg.Asset, leg.Amount); err != nil {
			return "", fmt.Errorf("reserve desync on %q: %w", certificate, err)
		}
	}
	royalty := Amount{}
	if fee.IsPositive() {
		royalty = f.splitter.creditFromFactory(royaltyContext, input, fee)
	}
	f.record(NewCompose(time.Now(), certificate, caller, lineage, royaltyContext, venue, input, expectedTotal, fee, royalty, legs))
	return certificate, nil
}

// swap runs one operator call and verifies its result: the observed output
// asset must be the one the leg asked for and the amount positive. The
// operator's report is the only post-swap truth; the payload's quote is
// advisory.
func (f *Factory) swap(op Operator, input Asset, amount Amount, payload []byte, want Asset) (SwapResult, error) {
	res, err := op.Swap(input, amount, payload)
	if err != nil {
		return SwapResult{}, fmt.Errorf("%w: venue %q: %v", ErrAdapterFailure, op.Describe(), err)
	}
	if res.Output != want {
		return SwapResult{}, fmt.Errorf("%w: venue %q delivered %s, leg asked for %s", ErrAdapterFailure, op.Describe(), res.Output, want)
	}
	if !res.Amount.IsPositive() {
		return SwapResult{}, fmt.Errorf("%w: venue %q delivered a non-positive amount %s", ErrAdapterFailure, op.Describe(), res.Amount)
	}
	return res, nil
}

// Decompose liquidates the named holdings of the certificate into the target
// asset. Each named holding is removed in full, swapped on the venue, and
// the aggregate output, less the exit fee, is paid to the caller. The
// certificate is burned only when it reaches zero holdings. Pass Native as
// target to unwind to the native currency.
//
// The caller must be the certificate's recorded owner. Decomposition is
// all-or-nothing across legs.
func (f *Factory) Decompose(caller, certificate string, venue VenueID, sells []SellLeg, target Asset, royaltyContext string) (Amount, error) {
	unlock := f.lockCertificate(certificate)
	defer unlock()
	return f.decompose(caller, certificate, venue, sells, target, royaltyContext, false)
}

// DecomposeAll liquidates every remaining holding of the certificate and
// burns it. The sell legs must cover every holding.
func (f *Factory) DecomposeAll(caller, certificate string, venue VenueID, sells []SellLeg, target Asset, royaltyContext string) (Amount, error) {
	unlock := f.lockCertificate(certificate)
	defer unlock()
	return f.decompose(caller, certificate, venue, sells, target, royaltyContext, true)
}

func (f *Factory) decompose(caller, certificate string, venue VenueID, sells []SellLeg, target Asset, royaltyContext string, full bool) (Amount, error) {
	owner, err := f.registry.OwnerOf(certificate)
	if err != nil {
		return Amount{}, err
	}
	if owner != caller {
		return Amount{}, fmt.Errorf("%w: %q is owned by %q", ErrNotOwner, certificate, owner)
	}
	if len(sells) == 0 {
		return Amount{}, fmt.Errorf("%w: no sell legs", ErrInvalidInput)
	}
	op, err := f.venues.resolve(venue)
	if err != nil {
		return Amount{}, err
	}

	held := f.ledger.Holdings(certificate)
	byAsset := make(map[Asset]Amount, len(held))
	for _, h := range held {
		byAsset[h.Asset] = h.Amount
	}
	seen := make(map[Asset]bool, len(sells))
	for _, sell := range sells {
		if seen[sell.Asset] {
			return Amount{}, fmt.Errorf("%w: duplicate sell leg for %s", ErrInvalidInput, sell.Asset)
		}
		seen[sell.Asset] = true
		if _, ok := byAsset[sell.Asset]; !ok {
			return Amount{}, fmt.Errorf("%w: certificate %q holds no %s", ErrInsufficientHolding, certificate, sell.Asset)
		}
	}
	if full && len(sells) != len(held) {
		return Amount{}, fmt.Errorf("%w: %d sell legs do not cover the %d holdings", ErrInvalidInput, len(sells), len(held))
	}

	tx := f.custody.Begin(f.escrow)
	defer tx.Rollback()

	total := Amount{}
	legs := make([]Holding, 0, len(sells))
	for _, sell := range sells {
		amount := byAsset[sell.Asset]
		res, err := f.swap(op, sell.Asset, amount, sell.Payload, target)
		if err != nil {
			return Amount{}, err
		}
		if err := tx.Withdraw(f.vault, sell.Asset, amount); err != nil {
			return Amount{}, err
		}
		tx.Deposit(f.escrow, target, res.Amount)
		total = total.Add(res.Amount)
		legs = append(legs, Holding{Asset: sell.Asset, Amount: amount})
	}

	fee := total.BasisPoints(f.ExitFeeBP())
	if fee.IsPositive() {
		if err := tx.PayTo(f.splitter.Account(), target, fee); err != nil {
			return Amount{}, err
		}
	}
	net := total.Sub(fee)
	if err := tx.PayTo(caller, target, net); err != nil {
		return Amount{}, err
	}

	if err := tx.Commit(); err != nil {
		return Amount{}, err
	}
	for _, leg := range legs {
		if _, err := f.ledger.RemoveAmount(f.grant, certificate, leg.Asset, leg.Amount); err != nil {
			return Amount{}, fmt.Errorf("holdings ledger desync on %q: %w", certificate, err)
		}
		if err := f.reserve.Debit(f.grant, leg.Asset, leg.Amount); err != nil {
			return Amount{}, fmt.Errorf("reserve desync on %q: %w", certificate, err)
		}
	}
	burned := len(f.ledger.Holdings(certificate)) == 0
	if burned {
		if err := f.registry.Burn(certificate); err != nil {
			log.Printf("cannot burn emptied certificate %q: %v", certificate, err)
		}
	}
	royalty := Amount{}
	if fee.IsPositive() {
		royalty = f.splitter.creditFromFactory(royaltyContext, target, fee)
	}
	f.record(NewDecompose(time.Now(), certificate, caller, royaltyContext, venue, target, total, fee, royalty, burned, legs))
	return net, nil
}

func (f *Factory) record(e Entry) {
	if f.Recorder == nil {
		return
	}
	if err := f.Recorder(e); err != nil {
		log.Printf("cannot record %s entry: %v", e.What(), err)
	}
}
