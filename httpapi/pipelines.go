package httpapi

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// Pipelines tracks which collections the relayer is actively matching and
// executing against. It is the in-memory stand-in for the "per-collection
// pipeline" concept the HTTP control surface manages; starting a pipeline
// is a pure bookkeeping toggle here, the ingestion/matching loop that
// consults it lives outside this package.
type Pipelines struct {
	mu     sync.RWMutex
	active map[common.Address]bool
}

// NewPipelines returns an empty registry: every collection starts inactive.
func NewPipelines() *Pipelines {
	return &Pipelines{active: make(map[common.Address]bool)}
}

// Start marks a collection active.
func (p *Pipelines) Start(collection common.Address) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.active[collection] = true
}

// Stop marks a collection inactive.
func (p *Pipelines) Stop(collection common.Address) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.active[collection] = false
}

// IsActive reports whether a collection's pipeline is running.
func (p *Pipelines) IsActive(collection common.Address) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.active[collection]
}
