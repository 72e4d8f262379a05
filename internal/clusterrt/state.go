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

// Package clusterrt implements the Cluster Runtime Registry: the live,
// identity-stable ClusterState objects, their destination
// health bookkeeping, and the reconciliation diff that preserves identity
// across reloads. Grounded on the insert/diff-by-key bookkeeping style of
// Contour's internal/dag.KubernetesCache, generalized from a Kubernetes
// object cache to a plain destination-health cache.
package clusterrt

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/dynamicproxy/core/internal/changetoken"
	"github.com/dynamicproxy/core/internal/transport"
	"github.com/dynamicproxy/core/pkg/config"
)

// Health is the active/passive health status of one destination.
type Health int

const (
	HealthUnknown Health = iota
	HealthHealthy
	HealthUnhealthy
)

func (h Health) String() string {
	switch h {
	case HealthHealthy:
		return "Healthy"
	case HealthUnhealthy:
		return "Unhealthy"
	default:
		return "Unknown"
	}
}

// DestinationState is one backend's live health status, keyed by
// destination id inside its owning ClusterState.
type DestinationState struct {
	ID            string
	Spec          config.DestinationSpec
	Health        Health
	LastProbeTime time.Time
}

// DynamicState is the immutable per-cluster snapshot: AllDestinations
// plus the health-filtered AvailableDestinations.
// Replaced atomically whenever destinations or their health change.
type DynamicState struct {
	AllDestinations       []*DestinationState
	AvailableDestinations []*DestinationState
}

func buildDynamicState(destinations map[string]*DestinationState) *DynamicState {
	ds := &DynamicState{
		AllDestinations: make([]*DestinationState, 0, len(destinations)),
	}
	for _, d := range destinations {
		ds.AllDestinations = append(ds.AllDestinations, d)
		if d.Health != HealthUnhealthy {
			ds.AvailableDestinations = append(ds.AvailableDestinations, d)
		}
	}
	return ds
}

// ClusterState is the live, identity-stable runtime object for one cluster.
// A ClusterState reference obtained on one reload remains
// valid and observes subsequent in-place updates until the cluster is
// retired (testable property 3: identity preservation).
type ClusterState struct {
	ClusterID string

	mu           sync.Mutex
	spec         config.ClusterSpec
	destinations map[string]*DestinationState

	dynamicState atomic.Pointer[DynamicState]
	handle       *transport.Handle

	changeSignal atomic.Pointer[changetoken.Token]

	retired atomic.Bool
}

func newClusterState(spec config.ClusterSpec) *ClusterState {
	cs := &ClusterState{ClusterID: spec.ClusterID}
	cs.changeSignal.Store(changetoken.New())
	cs.applyLocked(spec)
	return cs
}

// Spec returns the last applied ClusterSpec.
func (cs *ClusterState) Spec() config.ClusterSpec {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return cs.spec
}

// DynamicState returns the current immutable destination/health snapshot.
// Safe for concurrent use by readers (load balancer, health probes) without
// holding a lock across their decision.
func (cs *ClusterState) DynamicState() *DynamicState {
	return cs.dynamicState.Load()
}

// TransportHandle returns the cluster's current reference-counted HTTP
// transport handle, or nil if none has been acquired yet.
func (cs *ClusterState) TransportHandle() *transport.Handle {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return cs.handle
}

// ChangeSignal returns the token that fires the next time this cluster's
// DynamicState changes.
func (cs *ClusterState) ChangeSignal() *changetoken.Token {
	return cs.changeSignal.Load()
}

// Retired reports whether this ClusterState has been removed from the
// registry.
func (cs *ClusterState) Retired() bool {
	return cs.retired.Load()
}

// applyLocked diffs newSpec's destinations against the current set,
// preserving health for destinations whose address is unchanged, and
// publishes a fresh DynamicState.
func (cs *ClusterState) applyLocked(newSpec config.ClusterSpec) {
	next := make(map[string]*DestinationState, len(newSpec.Destinations))
	for id, spec := range newSpec.Destinations {
		key := config.DestinationID(id)
		if existing, ok := cs.destinations[key]; ok {
			health := existing.Health
			if existing.Spec.Address != spec.Address {
				health = HealthUnknown
			}
			next[key] = &DestinationState{ID: id, Spec: spec, Health: health, LastProbeTime: existing.LastProbeTime}
			continue
		}
		next[key] = &DestinationState{ID: id, Spec: spec, Health: HealthUnknown}
	}

	cs.spec = newSpec
	cs.destinations = next
	cs.publishLocked()
}

// publishLocked builds and stores a fresh DynamicState and fires (then
// replaces) the change signal. Must be called with cs.mu held.
func (cs *ClusterState) publishLocked() {
	cs.dynamicState.Store(buildDynamicState(cs.destinations))
	old := cs.changeSignal.Swap(changetoken.New())
	old.Fire()
}

// SetDestinationHealth updates one destination's health and republishes the
// DynamicState. Called by the (external) active/passive health probe
// drivers; the probe scheduling logic itself lives outside the core.
func (cs *ClusterState) SetDestinationHealth(destinationID string, health Health, probeTime time.Time) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	key := config.DestinationID(destinationID)
	d, ok := cs.destinations[key]
	if !ok {
		return
	}
	if d.Health == health {
		// d may be held by the published DynamicState; replace it rather
		// than mutate it.
		cs.destinations[key] = &DestinationState{ID: d.ID, Spec: d.Spec, Health: d.Health, LastProbeTime: probeTime}
		return
	}
	updated := &DestinationState{ID: d.ID, Spec: d.Spec, Health: health, LastProbeTime: probeTime}
	cs.destinations[key] = updated
	cs.publishLocked()
}

func (cs *ClusterState) setHandle(h *transport.Handle) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.handle = h
}

func (cs *ClusterState) markRetired() {
	cs.retired.Store(true)
}
