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

// Package filter implements the ordered, user-pluggable transform pipeline
// over RouteSpec/ClusterSpec records. Filters may mutate or reject a
// record; a rejection is recorded against that one record, and every other
// record keeps flowing through the chain.
package filter

import (
	"context"

	"github.com/dynamicproxy/core/pkg/config"
)

// Filter is one stage of the chain. Implementations that don't care about
// routes or clusters can embed NopFilter and override only what they need,
// the way Contour composes observers that only care about a subset of
// events.
type Filter interface {
	ConfigureRoute(ctx context.Context, route config.RouteSpec) (config.RouteSpec, error)
	ConfigureCluster(ctx context.Context, cluster config.ClusterSpec) (config.ClusterSpec, error)
}

// NopFilter is embeddable by filters that only implement one of the two
// operations.
type NopFilter struct{}

func (NopFilter) ConfigureRoute(_ context.Context, route config.RouteSpec) (config.RouteSpec, error) {
	return route, nil
}

func (NopFilter) ConfigureCluster(_ context.Context, cluster config.ClusterSpec) (config.ClusterSpec, error) {
	return cluster, nil
}

// Error wraps one filter's failure against one record.
type Error struct {
	// RecordID is the RouteID or ClusterID the failing filter was given.
	RecordID string
	// FilterIndex is the position of the failing filter within the chain.
	FilterIndex int
	Err         error
}

func (e *Error) Error() string {
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Chain runs an ordered sequence of Filters over routes and clusters.
type Chain struct {
	filters []Filter
}

// NewChain builds a Chain that applies filters in registration order.
func NewChain(filters ...Filter) *Chain {
	return &Chain{filters: filters}
}

// RunRoutes applies every filter in order to every route. A route that
// fails at filter i is dropped from further processing and its error is
// collected; every other route continues independently (testable property
// 6).
func (c *Chain) RunRoutes(ctx context.Context, routes []config.RouteSpec) ([]config.RouteSpec, []*Error) {
	out := make([]config.RouteSpec, 0, len(routes))
	var errs []*Error
	for _, r := range routes {
		cur := r
		failed := false
		for i, f := range c.filters {
			next, err := f.ConfigureRoute(ctx, cur)
			if err != nil {
				errs = append(errs, &Error{RecordID: r.RouteID, FilterIndex: i, Err: err})
				failed = true
				break
			}
			cur = next
		}
		if !failed {
			out = append(out, cur)
		}
	}
	return out, errs
}

// RunClusters is RunRoutes' mirror for ClusterSpec.
func (c *Chain) RunClusters(ctx context.Context, clusters []config.ClusterSpec) ([]config.ClusterSpec, []*Error) {
	out := make([]config.ClusterSpec, 0, len(clusters))
	var errs []*Error
	for _, cl := range clusters {
		cur := cl
		failed := false
		for i, f := range c.filters {
			next, err := f.ConfigureCluster(ctx, cur)
			if err != nil {
				errs = append(errs, &Error{RecordID: cl.ClusterID, FilterIndex: i, Err: err})
				failed = true
				break
			}
			cur = next
		}
		if !failed {
			out = append(out, cur)
		}
	}
	return out, errs
}
