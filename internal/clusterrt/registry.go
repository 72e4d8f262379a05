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

package clusterrt

import (
	"sync"

	"github.com/dynamicproxy/core/internal/transport"
	"github.com/dynamicproxy/core/pkg/config"
)

// Registry owns the live set of ClusterState, keyed by cluster id.
type Registry struct {
	factory *transport.Factory

	mu       sync.RWMutex
	clusters map[string]*ClusterState
}

// NewRegistry returns an empty Registry backed by factory for transport
// acquisition.
func NewRegistry(factory *transport.Factory) *Registry {
	return &Registry{factory: factory, clusters: map[string]*ClusterState{}}
}

// Get returns the live ClusterState for id, or nil if none exists. Used by
// the endpoint compiler to resolve a route's cluster_id; per open
// question (b), an unresolved cluster_id is not an error here.
func (r *Registry) Get(id string) *ClusterState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.clusters[id]
}

// ReconcileResult reports what Reconcile did, for logging/metrics.
type ReconcileResult struct {
	Added   []*ClusterState
	Updated []*ClusterState
	Removed []*ClusterState
}

// Reconcile diffs specs by cluster_id against the current registry:
// new ids get a fresh ClusterState, ids that reappear are mutated in place
// (preserving ClusterState identity — testable property 3), ids absent from
// specs are retired. Acquiring/refreshing each cluster's transport handle is
// part of reconciliation, so Reconcile returns an error if any acquisition
// fails.
func (r *Registry) Reconcile(specs []config.ClusterSpec) (ReconcileResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	seen := make(map[string]bool, len(specs))
	var result ReconcileResult

	for _, spec := range specs {
		seen[spec.ClusterID] = true
		existing, ok := r.clusters[spec.ClusterID]
		if !ok {
			cs := newClusterState(spec)
			if err := r.acquireTransportLocked(cs, spec); err != nil {
				return ReconcileResult{}, err
			}
			r.clusters[spec.ClusterID] = cs
			result.Added = append(result.Added, cs)
			continue
		}

		existing.mu.Lock()
		existing.applyLocked(spec)
		existing.mu.Unlock()
		if err := r.acquireTransportLocked(existing, spec); err != nil {
			return ReconcileResult{}, err
		}
		result.Updated = append(result.Updated, existing)
	}

	for id, cs := range r.clusters {
		if seen[id] {
			continue
		}
		cs.markRetired()
		result.Removed = append(result.Removed, cs)
		delete(r.clusters, id)
	}

	return result, nil
}

func (r *Registry) acquireTransportLocked(cs *ClusterState, spec config.ClusterSpec) error {
	var opts config.HttpClientOptions
	if spec.HTTPClient != nil {
		opts = *spec.HTTPClient
	}
	handle, err := r.factory.Acquire(spec.ClusterID, opts, cs.TransportHandle())
	if err != nil {
		return err
	}
	cs.setHandle(handle)
	return nil
}

// Snapshot returns every live ClusterState, for building the "cluster
// registry view" part of a manager Snapshot.
func (r *Registry) Snapshot() map[string]*ClusterState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]*ClusterState, len(r.clusters))
	for k, v := range r.clusters {
		out[k] = v
	}
	return out
}
