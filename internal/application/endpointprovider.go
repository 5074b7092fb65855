package application

import (
	"sync"

	"github.com/ericfisherdev/gerritwatch/internal/domain/model"
)

// EndpointProvider holds the options the poller currently runs with.
// It is swapped on every restart so that saved options take effect without
// restarting the process, and read concurrently by the HTTP adapters.
type EndpointProvider struct {
	mu   sync.RWMutex
	opts model.Options
}

// NewEndpointProvider creates a provider holding the default options.
func NewEndpointProvider() *EndpointProvider {
	return &EndpointProvider{opts: model.DefaultOptions()}
}

// Get returns a copy of the current options.
func (p *EndpointProvider) Get() model.Options {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.opts
}

// Replace swaps the current options. The next caller of Get receives the
// new values.
func (p *EndpointProvider) Replace(opts model.Options) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.opts = opts
}

// IsConfigured returns true if an endpoint is currently set.
func (p *EndpointProvider) IsConfigured() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.opts.IsConfigured()
}
