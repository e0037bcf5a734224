package broker

import (
	"sort"
	"sync"
)

// subscriptionRegistry is the local cache of subscription intent. Once the
// session is ready its contents mirror what the broker believes is
// subscribed; after a reconnect it is the source of truth for what must be
// re-requested.
type subscriptionRegistry struct {
	mu      sync.Mutex
	symbols map[string]struct{}
}

func newSubscriptionRegistry() *subscriptionRegistry {
	return &subscriptionRegistry{symbols: make(map[string]struct{})}
}

// add records a subscription. Idempotent.
func (r *subscriptionRegistry) add(symbol string) {
	r.mu.Lock()
	r.symbols[symbol] = struct{}{}
	r.mu.Unlock()
}

// remove forgets a subscription. No-op when absent.
func (r *subscriptionRegistry) remove(symbol string) {
	r.mu.Lock()
	delete(r.symbols, symbol)
	r.mu.Unlock()
}

// has reports whether symbol is subscribed.
func (r *subscriptionRegistry) has(symbol string) bool {
	r.mu.Lock()
	_, ok := r.symbols[symbol]
	r.mu.Unlock()
	return ok
}

// current returns a sorted snapshot of subscribed symbols.
func (r *subscriptionRegistry) current() []string {
	r.mu.Lock()
	symbols := make([]string, 0, len(r.symbols))
	for s := range r.symbols {
		symbols = append(symbols, s)
	}
	r.mu.Unlock()

	sort.Strings(symbols)
	return symbols
}

// len returns the number of active subscriptions.
func (r *subscriptionRegistry) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.symbols)
}
