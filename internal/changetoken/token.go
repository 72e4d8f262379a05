// Copyright the dynamicproxy contributors.
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package changetoken implements the single-shot change signal: a token
// associated with one specific Snapshot or ClusterState generation, which
// transitions from not-fired to fired exactly once. It is the one-shot
// specialization of
// Contour's internal/contour.Cond rendezvous primitive — a Snapshot or
// ClusterState only ever needs to announce "superseded", never a repeating
// stream of events, so there is no waiter list to manage.
package changetoken

import "sync"

// Token is a one-shot change notification. The zero value is not usable;
// construct with New.
type Token struct {
	mu     sync.Mutex
	fired  bool
	ch     chan struct{}
}

// New returns a Token that has not fired.
func New() *Token {
	return &Token{ch: make(chan struct{})}
}

// HasChanged reports whether Fire has been called. It never blocks.
func (t *Token) HasChanged() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.fired
}

// Done returns a channel that is closed exactly once, the first time Fire is
// called. Safe to call concurrently with Fire and with itself.
func (t *Token) Done() <-chan struct{} {
	return t.ch
}

// Fire transitions the token to fired. Calling Fire more than once is a
// no-op after the first call, satisfying the "exactly once" requirement
// even if a caller mistakenly fires the same token twice.
func (t *Token) Fire() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.fired {
		return
	}
	t.fired = true
	close(t.ch)
}
