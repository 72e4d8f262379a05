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

package manager

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dynamicproxy/core/internal/filter"
	"github.com/dynamicproxy/core/internal/transport"
	"github.com/dynamicproxy/core/internal/validation"
	"github.com/dynamicproxy/core/pkg/config"
)

type fakeProvider struct {
	mu       sync.Mutex
	routes   []config.RouteSpec
	clusters []config.ClusterSpec
	changes  chan struct{}
}

func newFakeProvider(routes []config.RouteSpec, clusters []config.ClusterSpec) *fakeProvider {
	return &fakeProvider{routes: routes, clusters: clusters, changes: make(chan struct{}, 1)}
}

func (p *fakeProvider) Fetch(context.Context) ([]config.RouteSpec, []config.ClusterSpec, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]config.RouteSpec(nil), p.routes...), append([]config.ClusterSpec(nil), p.clusters...), nil
}

func (p *fakeProvider) Changes() <-chan struct{} {
	return p.changes
}

func (p *fakeProvider) push(routes []config.RouteSpec, clusters []config.ClusterSpec) {
	p.mu.Lock()
	p.routes, p.clusters = routes, clusters
	p.mu.Unlock()
	select {
	case p.changes <- struct{}{}:
	default:
	}
}

type noopPathMatcher struct{}

func (noopPathMatcher) ValidatePattern(string) error { return nil }

func newTestManager(provider ConfigProvider) *Manager {
	return New(provider, filter.NewChain(), validation.NewStaticRegistry(), noopPathMatcher{}, transport.NewFactory(), nil, nil, nil)
}

func TestInitialLoadEmptyInEmptyOut(t *testing.T) {
	m := newTestManager(newFakeProvider(nil, nil))
	require.NoError(t, m.InitialLoad(context.Background()))
	assert.Empty(t, m.Endpoints())
}

func TestInitialLoadHappyPath(t *testing.T) {
	provider := newFakeProvider(
		[]config.RouteSpec{{
			RouteID:   "r1",
			ClusterID: "c1",
			Match:     config.RouteMatch{PathSet: true, Path: "/"},
		}},
		[]config.ClusterSpec{{
			ClusterID:    "c1",
			Destinations: map[string]config.DestinationSpec{"d1": {Address: "https://host:123/"}},
		}},
	)
	m := newTestManager(provider)
	require.NoError(t, m.InitialLoad(context.Background()))

	eps := m.Endpoints()
	require.Len(t, eps, 1)
	assert.Equal(t, "r1", eps[0].DisplayName)
	assert.Equal(t, "/", eps[0].Pattern)
	assert.Empty(t, eps[0].Hosts)
	assert.Empty(t, eps[0].Headers)
	require.NotNil(t, eps[0].ClusterRef)
	assert.Equal(t, "https://host:123/", eps[0].ClusterRef.DynamicState().AllDestinations[0].Spec.Address)
}

func TestInitialLoadUnsupportedVersionFails(t *testing.T) {
	provider := newFakeProvider(nil, []config.ClusterSpec{{
		ClusterID:   "c1",
		HTTPRequest: &config.HttpRequestOptions{Version: "1.2", VersionSet: true},
	}})
	m := newTestManager(provider)
	err := m.InitialLoad(context.Background())
	require.Error(t, err)
	assert.Equal(t, topLevelMessage, err.Error())

	var failure *TopLevelError
	require.ErrorAs(t, err, &failure)
	require.Len(t, failure.Cause.ValidationErrors, 1)
	assert.Contains(t, failure.Cause.ValidationErrors[0].Error(), "Outgoing request version")
}

func TestInitialLoadMissingHostsAndPath(t *testing.T) {
	provider := newFakeProvider([]config.RouteSpec{{RouteID: "route1"}}, nil)
	m := newTestManager(provider)
	err := m.InitialLoad(context.Background())
	require.Error(t, err)

	var failure *TopLevelError
	require.ErrorAs(t, err, &failure)
	require.Len(t, failure.Cause.ValidationErrors, 1)
	assert.Equal(t,
		"Route 'route1' requires Hosts or Path specified. Set the Path to '/{**catchall}' to match all requests.",
		failure.Cause.ValidationErrors[0].Error())
}

type hostRewriteFilter struct {
	filter.NopFilter
}

func (hostRewriteFilter) ConfigureRoute(_ context.Context, route config.RouteSpec) (config.RouteSpec, error) {
	if len(route.Match.Hosts) == 0 {
		route.Match.Hosts = []string{"example.com"}
	}
	return route, nil
}

func TestInitialLoadFilterRepairsRoute(t *testing.T) {
	provider := newFakeProvider([]config.RouteSpec{{RouteID: "r1"}}, nil)
	m := New(provider, filter.NewChain(hostRewriteFilter{}), validation.NewStaticRegistry(), noopPathMatcher{}, transport.NewFactory(), nil, nil, nil)
	require.NoError(t, m.InitialLoad(context.Background()))

	eps := m.Endpoints()
	require.Len(t, eps, 1)
	assert.Equal(t, []string{"example.com"}, eps[0].Hosts)
}

func TestChangeTokenFiresExactlyOnceOnSuccessfulReload(t *testing.T) {
	provider := newFakeProvider([]config.RouteSpec{{RouteID: "r1", Match: config.RouteMatch{PathSet: true, Path: "/"}}}, nil)
	m := newTestManager(provider)
	require.NoError(t, m.InitialLoad(context.Background()))

	c1 := m.ChangeToken()
	assert.False(t, c1.HasChanged())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	provider.push([]config.RouteSpec{
		{RouteID: "r1", Match: config.RouteMatch{PathSet: true, Path: "/"}},
		{RouteID: "r2", Match: config.RouteMatch{PathSet: true, Path: "/other"}},
	}, nil)

	select {
	case <-c1.Done():
	case <-time.After(time.Second):
		t.Fatal("change token never fired")
	}

	cancel()
	<-done

	assert.Len(t, m.Endpoints(), 2)
	c2 := m.ChangeToken()
	assert.NotSame(t, c1, c2)
	assert.False(t, c2.HasChanged())
}

func TestPostStartupReloadFailureRetainsPreviousSnapshot(t *testing.T) {
	provider := newFakeProvider([]config.RouteSpec{{RouteID: "r1", Match: config.RouteMatch{PathSet: true, Path: "/"}}}, nil)
	m := newTestManager(provider)
	require.NoError(t, m.InitialLoad(context.Background()))
	before := m.Endpoints()
	failureSignal := m.ReloadFailureSignal()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	// A route with neither hosts nor path fails validation (S4), so this
	// reload must not replace the published snapshot.
	provider.push([]config.RouteSpec{{RouteID: "bad-route"}}, nil)

	select {
	case <-failureSignal.Done():
	case <-time.After(time.Second):
		t.Fatal("reload-failure signal never fired")
	}

	cancel()
	<-done

	assert.Equal(t, before, m.Endpoints())
}
