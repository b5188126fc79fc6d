package match

import (
	"sync"

	drift_errors "driftchat/pkg/errors"

	"github.com/google/uuid"
)

// Registry is the single owner of the process-wide matching state: which
// authenticated user holds which live connection, the FIFO waiting queue,
// and the symmetric pairing map. Every mutation happens under one mutex so
// no connection can be observed simultaneously queued and paired, and the
// pairing map stays symmetric.
//
// The registry holds only opaque connection ids and user ids. Resolving a
// connection id to a live transport handle happens at the point of sending,
// in the websocket layer.
type Registry struct {
	mu    sync.Mutex
	conns map[string]uuid.UUID // connection id -> owning user
	users map[uuid.UUID]string // user -> current connection id
	queue []string             // waiting connection ids, FIFO
	pairs map[string]Pairing   // connection id -> its side of the pairing, symmetric
}

// Pairing is one directed half of a match. It carries both user ids as they
// were at pairing time, so session teardown can still resolve the pair after
// a reconnect has superseded the connection's presence entry.
type Pairing struct {
	PartnerConn string
	UserID      uuid.UUID
	PartnerID   uuid.UUID
}

func NewRegistry() *Registry {
	return &Registry{
		conns: make(map[string]uuid.UUID),
		users: make(map[uuid.UUID]string),
		pairs: make(map[string]Pairing),
	}
}

// Register binds a connection to a user. Any prior connection for the same
// user is superseded (last-writer-wins); the superseded connection id is
// returned so the caller can tear it down.
func (r *Registry) Register(userID uuid.UUID, connID string) (superseded string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if prior, ok := r.users[userID]; ok && prior != connID {
		superseded = prior
		delete(r.conns, prior)
		r.removeFromQueueLocked(prior)
	}
	r.conns[connID] = userID
	r.users[userID] = connID
	return superseded
}

// Unregister removes a connection's presence entry and any queue membership.
// Safe to call twice. Pairing entries are the teardown path's job and are
// left to Unpair.
func (r *Registry) Unregister(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if userID, ok := r.conns[connID]; ok {
		delete(r.conns, connID)
		if r.users[userID] == connID {
			delete(r.users, userID)
		}
	}
	r.removeFromQueueLocked(connID)
}

// Lookup resolves a connection id to its owning user.
func (r *Registry) Lookup(connID string) (uuid.UUID, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	userID, ok := r.conns[connID]
	return userID, ok
}

// ConnectionOf resolves a user to their current connection, if any.
func (r *Registry) ConnectionOf(userID uuid.UUID) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	connID, ok := r.users[userID]
	return connID, ok
}

// Enqueue appends the connection to the tail of the waiting queue. It is a
// no-op returning false when the connection is already queued, already
// paired, or not registered.
func (r *Registry) Enqueue(connID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.conns[connID]; !ok {
		return false
	}
	if _, ok := r.pairs[connID]; ok {
		return false
	}
	if r.queuedLocked(connID) {
		return false
	}
	r.queue = append(r.queue, connID)
	return true
}

func (r *Registry) IsQueued(connID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.queuedLocked(connID)
}

func (r *Registry) IsPaired(connID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.pairs[connID]
	return ok
}

// RemoveFromQueue drops the connection from the waiting queue if present.
func (r *Registry) RemoveFromQueue(connID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.removeFromQueueLocked(connID)
}

// QueueSnapshot returns the waiting connections in FIFO order. The snapshot
// is taken under the lock but candidates may leave before a later Pair call,
// which re-validates them.
func (r *Registry) QueueSnapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.queue))
	copy(out, r.queue)
	return out
}

// Pair matches the requester with a queued candidate in one atomic step:
// the candidate must still be waiting and neither side may already be
// paired. On success the candidate (and the requester, if queued) leave the
// waiting queue and both directed pairing entries are written.
func (r *Registry) Pair(requester, candidate string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if requester == candidate {
		return drift_errors.ErrSelfPairing
	}
	reqUser, ok := r.conns[requester]
	if !ok {
		return drift_errors.ErrStaleConnection
	}
	candUser, ok := r.conns[candidate]
	if !ok {
		return drift_errors.ErrStaleConnection
	}
	if !r.queuedLocked(candidate) {
		return drift_errors.ErrStaleConnection
	}
	if _, ok := r.pairs[requester]; ok {
		return drift_errors.ErrAlreadyPaired
	}
	if _, ok := r.pairs[candidate]; ok {
		return drift_errors.ErrAlreadyPaired
	}

	r.removeFromQueueLocked(candidate)
	r.removeFromQueueLocked(requester)
	r.pairs[requester] = Pairing{PartnerConn: candidate, UserID: reqUser, PartnerID: candUser}
	r.pairs[candidate] = Pairing{PartnerConn: requester, UserID: candUser, PartnerID: reqUser}
	return nil
}

// Partner returns the connection currently paired with connID.
func (r *Registry) Partner(connID string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.pairs[connID]
	return p.PartnerConn, ok
}

// Unpair removes both directions of the pairing entry. Idempotent; the
// removed pairing is returned so the caller can notify the former partner
// and clean up the pair's session state.
func (r *Registry) Unpair(connID string) (Pairing, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.pairs[connID]
	if !ok {
		return Pairing{}, false
	}
	delete(r.pairs, connID)
	delete(r.pairs, p.PartnerConn)
	return p, true
}

// WaitingCount reports the number of queued connections.
func (r *Registry) WaitingCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.queue)
}

// PairedCount reports the number of directed pairing entries.
func (r *Registry) PairedCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pairs)
}

func (r *Registry) queuedLocked(connID string) bool {
	for _, id := range r.queue {
		if id == connID {
			return true
		}
	}
	return false
}

func (r *Registry) removeFromQueueLocked(connID string) bool {
	for i, id := range r.queue {
		if id == connID {
			r.queue = append(r.queue[:i], r.queue[i+1:]...)
			return true
		}
	}
	return false
}
