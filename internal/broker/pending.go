package broker

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// pendingResult is the single value written to a pending request's slot.
type pendingResult struct {
	frame inboundFrame
	err   error
}

// pendingRequest is one in-flight request awaiting its response.
type pendingRequest struct {
	id       string
	ch       chan pendingResult // buffered, written at most once
	deadline time.Time          // measured from registration
}

// pendingTable correlates outstanding requests with their responses.
//
// Resolution is exactly-once: resolve, fail and timeout all remove the entry
// under the table lock before touching the result slot, so the first to
// remove the entry wins and later attempts are no-ops.
type pendingTable struct {
	logger *slog.Logger

	mu      sync.Mutex
	entries map[string]*pendingRequest
}

func newPendingTable(logger *slog.Logger) *pendingTable {
	if logger == nil {
		logger = slog.Default()
	}
	return &pendingTable{
		logger:  logger,
		entries: make(map[string]*pendingRequest),
	}
}

// register creates an entry whose deadline starts now, so queuing delay
// counts against the caller's budget.
func (t *pendingTable) register(id string, timeout time.Duration) *pendingRequest {
	req := &pendingRequest{
		id:       id,
		ch:       make(chan pendingResult, 1),
		deadline: time.Now().Add(timeout),
	}

	t.mu.Lock()
	t.entries[id] = req
	t.mu.Unlock()

	return req
}

// take removes and returns the entry for id, if still present.
func (t *pendingTable) take(id string) (*pendingRequest, bool) {
	t.mu.Lock()
	req, ok := t.entries[id]
	if ok {
		delete(t.entries, id)
	}
	t.mu.Unlock()
	return req, ok
}

// resolve completes the matching entry with a response. Returns false when
// no entry matches (late, duplicate or unexpected response).
func (t *pendingTable) resolve(id string, frame inboundFrame) bool {
	req, ok := t.take(id)
	if !ok {
		return false
	}
	req.ch <- pendingResult{frame: frame}
	return true
}

// fail completes the matching entry with an error. No-op when absent.
func (t *pendingTable) fail(id string, err error) bool {
	req, ok := t.take(id)
	if !ok {
		return false
	}
	req.ch <- pendingResult{err: err}
	return true
}

// failAll completes every outstanding entry with err. Used on connection
// loss and shutdown so no caller blocks past session death.
func (t *pendingTable) failAll(err error) {
	t.mu.Lock()
	entries := t.entries
	t.entries = make(map[string]*pendingRequest)
	t.mu.Unlock()

	for _, req := range entries {
		req.ch <- pendingResult{err: err}
	}
}

// len returns the number of outstanding requests.
func (t *pendingTable) len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

// await blocks until the entry resolves, its deadline expires, or ctx is
// cancelled. A request can never hang past its deadline: if the timer fires
// first the entry is removed so a stale response cannot resolve it later.
func (t *pendingTable) await(ctx context.Context, req *pendingRequest) (inboundFrame, error) {
	timer := time.NewTimer(time.Until(req.deadline))
	defer timer.Stop()

	select {
	case res := <-req.ch:
		return res.frame, res.err

	case <-timer.C:
		if _, ok := t.take(req.id); ok {
			return inboundFrame{}, ErrTimeout
		}
		// Resolved concurrently with the timer; the resolution wins.
		res := <-req.ch
		return res.frame, res.err

	case <-ctx.Done():
		if _, ok := t.take(req.id); ok {
			return inboundFrame{}, ctx.Err()
		}
		res := <-req.ch
		return res.frame, res.err
	}
}
