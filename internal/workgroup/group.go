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

// Package workgroup provides a mechanism for controlling the lifetime of a
// set of related goroutines. Adapted from a stop-channel style to a
// context.Context parent, since the manager's reload loop is driven by a
// single cancellable context rather than a fleet of independent watchers.
package workgroup

import (
	"context"
	"sync"
)

// A Group manages a set of goroutines with related lifetimes. The zero value
// for a Group is fully usable without initialization.
type Group struct {
	fn []func(context.Context) error
}

// Add adds a function to the Group. The function will be executed in its own
// goroutine when Run is called, and is expected to return promptly once its
// context is canceled. Add must be called before Run.
func (g *Group) Add(fn func(context.Context) error) {
	g.fn = append(g.fn, fn)
}

// Run executes each function registered via Add in its own goroutine,
// deriving each one's context from parent. Run blocks until all functions
// have returned. The first function to return triggers cancellation of the
// shared context, so the rest should in turn return. The return value from
// the first function to exit is returned to the caller of Run.
func (g *Group) Run(parent context.Context) error {
	if len(g.fn) < 1 {
		return nil
	}

	ctx, cancel := context.WithCancel(parent)

	var wg sync.WaitGroup
	wg.Add(len(g.fn))

	result := make(chan error, len(g.fn))
	for _, fn := range g.fn {
		go func(fn func(context.Context) error) {
			defer wg.Done()
			result <- fn(ctx)
		}(fn)
	}

	defer wg.Wait()
	defer cancel()
	return <-result
}
