package basket

// VenueID names one external swap venue.
type VenueID string

// SwapResult is the verified outcome of a swap: the asset and the amount the
// venue actually delivered. Only this observed output is trusted by the
// engine; any quote embedded in the payload is advisory.
type SwapResult struct {
	Output Asset
	Amount Amount
}

// Operator wraps one external swap venue behind a uniform capability. It is a
// pure translation layer: the operator reports what the venue did, and the
// factory moves the corresponding balances inside its own transactional
// boundary. Operators never touch the reserve or the custody.
//
// Swap is synchronous and fail-stop: an error is a terminal failure of the
// enclosing operation, there are no retries.
type Operator interface {
	Describe() VenueID
	Swap(input Asset, amount Amount, payload []byte) (SwapResult, error)
}

// Venues resolves venue ids to operators for the factory and the buyback
// trigger.
type Venues map[VenueID]Operator

func (v Venues) resolve(id VenueID) (Operator, error) {
	op, ok := v[id]
	if !ok {
		return nil, errUnknownVenue(id)
	}
	return op, nil
}
