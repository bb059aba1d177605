package basket

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Registry is the external certificate ownership registry. The engine drives
// mint and burn through it and trusts it for ownership checks; issuance,
// enumeration and metadata live on its side of the boundary.
type Registry interface {
	// Mint issues a new certificate owned by owner. A non-empty lineage
	// records the certificate this one replicates.
	Mint(owner, lineage string) (certificate string, err error)
	// Burn retires a certificate.
	Burn(certificate string) error
	// OwnerOf reports the current owner, or ErrUnknownCertificate.
	OwnerOf(certificate string) (string, error)
}

// MemRegistry is an in-memory registry for tests and the CLI. Certificate
// ids are uuids.
type MemRegistry struct {
	mu      sync.Mutex
	owners  map[string]string
	lineage map[string]string
}

// NewMemRegistry creates an empty registry.
func NewMemRegistry() *MemRegistry {
	return &MemRegistry{owners: make(map[string]string), lineage: make(map[string]string)}
}

// Mint implements Registry.
func (r *MemRegistry) Mint(owner, lineage string) (string, error) {
	if owner == "" {
		return "", fmt.Errorf("%w: certificate owner must not be empty", ErrInvalidInput)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	id := uuid.NewString()
	r.owners[id] = owner
	if lineage != "" {
		r.lineage[id] = lineage
	}
	return id, nil
}

// Restore re-registers a certificate under a known id, used when replaying a
// journal. It fails if the id is already live.
func (r *MemRegistry) Restore(certificate, owner, lineage string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, live := r.owners[certificate]; live {
		return fmt.Errorf("%w: certificate %q already registered", ErrInvalidInput, certificate)
	}
	r.owners[certificate] = owner
	if lineage != "" {
		r.lineage[certificate] = lineage
	}
	return nil
}

// Burn implements Registry.
func (r *MemRegistry) Burn(certificate string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, live := r.owners[certificate]; !live {
		return fmt.Errorf("%w: %q", ErrUnknownCertificate, certificate)
	}
	delete(r.owners, certificate)
	return nil
}

// OwnerOf implements Registry.
func (r *MemRegistry) OwnerOf(certificate string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	owner, live := r.owners[certificate]
	if !live {
		return "", fmt.Errorf("%w: %q", ErrUnknownCertificate, certificate)
	}
	return owner, nil
}

// Lineage reports the certificate this one was replicated from, if any.
func (r *MemRegistry) Lineage(certificate string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lineage[certificate]
}
