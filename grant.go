package basket

// Grant is an unforgeable capability token. Privileged operations take a
// Grant and compare it against the one the component was constructed with,
// instead of relying on any ambient caller identity. The zero Grant never
// matches anything.
type Grant struct {
	token *byte
}

// NewGrant mints a fresh capability. Two grants match only if one is a copy
// of the other.
func NewGrant() Grant { return Grant{token: new(byte)} }

func (g Grant) matches(h Grant) bool { return g.token != nil && g.token == h.token }
