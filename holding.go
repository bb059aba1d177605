package basket

// MaxHoldings is the hard capacity bound of a certificate record. Storing a
// MaxHoldings+1-th distinct asset fails the whole operation.
const MaxHoldings = 15

// Holding is one asset-and-amount entry inside a certificate's basket.
// A holding amount is strictly positive while present; entries that reach
// exactly zero are deleted, never stored.
type Holding struct {
	Asset  Asset  `json:"asset"`
	Amount Amount `json:"amount"`
}

// certificateRecord is the ordered collection of holdings backing one
// certificate, together with the custody its assets are reserved in.
// It is owned by the HoldingsLedger and mutated only under its lock.
type certificateRecord struct {
	custody  string // custody account the holdings are reserved in
	holdings []Holding
}

// index returns the position of asset in the record, or -1.
func (r *certificateRecord) index(asset Asset) int {
	for i, h := range r.holdings {
		if h.Asset == asset {
			return i
		}
	}
	return -1
}

// snapshot returns a copy of the holdings safe to hand out.
func (r *certificateRecord) snapshot() []Holding {
	out := make([]Holding, len(r.holdings))
	copy(out, r.holdings)
	return out
}
