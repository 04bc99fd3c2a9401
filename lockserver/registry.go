// Copyright 2026 The Fixwright Authors
// SPDX-License-Identifier: Apache-2.0

package lockserver

import "sync"

// ticket is one connection's claim on one path. The head of a path's
// queue is the holder; its granted channel is closed. Waiters sit
// behind it in request order with open channels.
type ticket struct {
	owner   uint64
	granted chan struct{}
}

// registry is the path-keyed lock state shared by all connections.
type registry struct {
	mu     sync.Mutex
	queues map[string][]*ticket
}

func newRegistry() *registry {
	return &registry{queues: make(map[string][]*ticket)}
}

// acquire queues a claim on path for owner and returns a channel that
// is closed once the lock is granted. If the queue is empty the grant
// is immediate. If owner already has a ticket for path (held or
// queued), that ticket's channel is returned rather than a second
// claim; re-acquiring on the same connection is idempotent, so a
// worker cannot deadlock against itself.
func (r *registry) acquire(owner uint64, path string) <-chan struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()

	queue := r.queues[path]
	for _, existing := range queue {
		if existing.owner == owner {
			return existing.granted
		}
	}

	claim := &ticket{owner: owner, granted: make(chan struct{})}
	r.queues[path] = append(queue, claim)
	if len(queue) == 0 {
		close(claim.granted)
	}
	return claim.granted
}

// release removes owner's ticket for path, granting the next waiter
// when the holder was removed. Releasing a path the owner has no
// ticket for is a no-op: an explicit release can race the connection
// teardown path, and punishing that race would drop the worker's
// other locks.
func (r *registry) release(owner uint64, path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.remove(owner, path)
}

// releaseAll removes every ticket owned by owner. Called when the
// owner's connection closes, for any reason.
func (r *registry) releaseAll(owner uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for path := range r.queues {
		r.remove(owner, path)
	}
}

// remove deletes owner's ticket from path's queue and promotes the
// next waiter if the head was removed. Caller holds r.mu.
func (r *registry) remove(owner uint64, path string) {
	queue := r.queues[path]
	for i, claim := range queue {
		if claim.owner != owner {
			continue
		}
		queue = append(queue[:i], queue[i+1:]...)
		if len(queue) == 0 {
			delete(r.queues, path)
			return
		}
		r.queues[path] = queue
		if i == 0 {
			close(queue[0].granted)
		}
		return
	}
}
