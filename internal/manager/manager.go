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

// Package manager implements the Config Manager orchestrator: it owns
// the current Snapshot, drives the fetch → filter → validate
// → reconcile → compile → publish pipeline, and exposes the non-blocking
// reader surface (Endpoints, ChangeToken) the forwarding engine polls.
// Grounded on the reload-pipeline shape of Contour's
// internal/contour/cachehandler.go and the one-shot rendezvous idiom of
// internal/contour/cond.go, generalized from an xDS snapshot cache to a
// single in-process Snapshot.
package manager

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/dynamicproxy/core/internal/changetoken"
	"github.com/dynamicproxy/core/internal/clusterrt"
	"github.com/dynamicproxy/core/internal/endpoint"
	"github.com/dynamicproxy/core/internal/filter"
	"github.com/dynamicproxy/core/internal/transport"
	"github.com/dynamicproxy/core/internal/validation"
	"github.com/dynamicproxy/core/pkg/policyapi"
)

// Manager is the Config Manager orchestrator.
type Manager struct {
	provider    ConfigProvider
	chain       *filter.Chain
	registry    policyapi.Registry
	paths       validation.PathMatcher
	conventions []endpoint.Convention
	clusters    *clusterrt.Registry

	log     logrus.FieldLogger
	metrics *Metrics

	snapshot atomic.Pointer[Snapshot]

	reloadFailureSignal atomic.Pointer[changetoken.Token]

	state reloadState
}

// New builds a Manager. transportFactory backs the cluster runtime
// registry's HTTP client acquisition; conventions run last over each
// compiled Endpoint.
func New(
	provider ConfigProvider,
	chain *filter.Chain,
	registry policyapi.Registry,
	paths validation.PathMatcher,
	transportFactory *transport.Factory,
	conventions []endpoint.Convention,
	log logrus.FieldLogger,
	metrics *Metrics,
) *Manager {
	if log == nil {
		log = logrus.StandardLogger()
	}
	m := &Manager{
		provider:    provider,
		chain:       chain,
		registry:    registry,
		paths:       paths,
		conventions: conventions,
		clusters:    clusterrt.NewRegistry(transportFactory),
		log:         log,
		metrics:     metrics,
	}
	m.reloadFailureSignal.Store(changetoken.New())
	return m
}

// InitialLoad runs the reload pipeline once at startup. A failure
// here is a top-level error; no snapshot is published and Endpoints/
// ChangeToken are unusable until a later successful call (normally there is
// no later call after initial_load fails — the embedder decides whether to
// retry or exit).
func (m *Manager) InitialLoad(ctx context.Context) error {
	snap, failure := m.reload(ctx)
	if !failure.Empty() {
		return wrapTopLevel(failure)
	}
	m.publish(snap)
	return nil
}

// Run watches the config provider for change notifications and triggers a
// reload on each one, serialized by this single goroutine: at most one
// reload is in flight at a time. Intended to be registered with an
// internal/workgroup.Group. Run returns nil when ctx is canceled or the
// provider's Changes channel closes.
//
// Unlike initial_load, a failed post-startup reload does not propagate: it
// is logged and the reload-failure signal fires, and the previous snapshot
// continues to serve.
func (m *Manager) Run(ctx context.Context) error {
	changes := m.provider.Changes()
	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-changes:
			if !ok {
				return nil
			}
			m.drainBacklog(changes)
			m.reloadAndPublish(ctx)
		}
	}
}

// drainBacklog consumes any additional pending notifications so a burst of
// upstream changes collapses into exactly one follow-up reload.
func (m *Manager) drainBacklog(changes <-chan struct{}) {
	for {
		select {
		case <-changes:
		default:
			return
		}
	}
}

func (m *Manager) reloadAndPublish(ctx context.Context) {
	start := time.Now()
	snap, failure := m.reload(ctx)
	if m.metrics != nil {
		m.metrics.ReloadTotal.Inc()
		m.metrics.ReloadDuration.Observe(time.Since(start).Seconds())
	}
	if !failure.Empty() {
		m.onReloadFailure(failure)
		return
	}
	m.publish(snap)
}

func (m *Manager) onReloadFailure(err error) {
	if m.metrics != nil {
		m.metrics.ReloadFailureTotal.Inc()
	}
	m.log.WithError(err).Error("configuration reload failed; retaining previous snapshot")
	old := m.reloadFailureSignal.Swap(changetoken.New())
	old.Fire()
}

// reload runs the full protocol of initial_load and returns the
// candidate Snapshot on success, or a non-nil ReloadFailure otherwise -
// whether the failure came from the upstream provider, a filter, the
// validator, or cluster reconciliation.
func (m *Manager) reload(ctx context.Context) (*Snapshot, *ReloadFailure) {
	m.state.set(Fetching)
	routes, clusters, err := m.provider.Fetch(ctx)
	if err != nil {
		m.state.set(Idle)
		return nil, newReloadFailure(&ConfigLoadError{Err: err}, nil, nil, nil, nil)
	}

	m.state.set(Filtering)
	filteredRoutes, routeFilterErrs := m.chain.RunRoutes(ctx, routes)
	filteredClusters, clusterFilterErrs := m.chain.RunClusters(ctx, clusters)

	m.state.set(Validating)
	valErrs := validation.ValidateAll(filteredRoutes, filteredClusters, m.registry, m.paths)

	if len(routeFilterErrs) > 0 || len(clusterFilterErrs) > 0 || len(valErrs) > 0 {
		m.state.set(Failed)
		m.state.set(Idle)
		return nil, newReloadFailure(nil, nil, routeFilterErrs, clusterFilterErrs, valErrs)
	}

	m.state.set(Reconciling)
	if _, err := m.clusters.Reconcile(filteredClusters); err != nil {
		m.state.set(Failed)
		m.state.set(Idle)
		return nil, newReloadFailure(nil, errors.Wrap(err, "reconcile cluster registry"), nil, nil, nil)
	}

	m.state.set(Compiling)
	endpoints := make([]endpoint.Endpoint, 0, len(filteredRoutes))
	for _, r := range filteredRoutes {
		endpoints = append(endpoints, endpoint.Compile(r, m.clusters.Get(r.ClusterID), m.conventions))
	}

	m.state.set(Publishing)
	snap := &Snapshot{
		ID:              uuid.NewString(),
		Endpoints:       endpoints,
		ClusterRegistry: m.clusters,
		changeSignal:    changetoken.New(),
	}
	m.state.set(Idle)
	return snap, nil
}

func (m *Manager) publish(snap *Snapshot) {
	if m.metrics != nil {
		m.metrics.SnapshotEndpoints.Set(float64(len(snap.Endpoints)))
	}
	old := m.snapshot.Swap(snap)
	if old != nil {
		old.changeSignal.Fire()
	}
}

// Endpoints returns the current snapshot's endpoints.
func (m *Manager) Endpoints() []endpoint.Endpoint {
	snap := m.snapshot.Load()
	if snap == nil {
		return nil
	}
	return snap.Endpoints
}

// ChangeToken returns the current snapshot's change signal.
func (m *Manager) ChangeToken() *changetoken.Token {
	snap := m.snapshot.Load()
	if snap == nil {
		return nil
	}
	return snap.ChangeSignal()
}

// ReloadFailureSignal returns the token that fires the next time a
// post-startup reload fails.
func (m *Manager) ReloadFailureSignal() *changetoken.Token {
	return m.reloadFailureSignal.Load()
}

// ClusterRegistry exposes the live cluster registry, for the forwarding
// engine contract and for tests that want to inspect ClusterState
// directly.
func (m *Manager) ClusterRegistry() *clusterrt.Registry {
	return m.clusters
}
