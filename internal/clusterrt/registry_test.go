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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dynamicproxy/core/internal/transport"
	"github.com/dynamicproxy/core/pkg/config"
)

func clusterSpec(id string, destAddr string) config.ClusterSpec {
	return config.ClusterSpec{
		ClusterID: id,
		Destinations: map[string]config.DestinationSpec{
			"d1": {Address: destAddr},
		},
	}
}

func TestReconcileAddsNewCluster(t *testing.T) {
	reg := NewRegistry(transport.NewFactory())
	result, err := reg.Reconcile([]config.ClusterSpec{clusterSpec("c1", "https://host:123/")})
	require.NoError(t, err)
	require.Len(t, result.Added, 1)
	assert.Equal(t, "c1", result.Added[0].ClusterID)
	assert.Len(t, result.Added[0].DynamicState().AllDestinations, 1)
}

func TestReconcilePreservesIdentityAcrossReloads(t *testing.T) {
	reg := NewRegistry(transport.NewFactory())
	_, err := reg.Reconcile([]config.ClusterSpec{clusterSpec("c1", "https://host:123/")})
	require.NoError(t, err)

	first := reg.Get("c1")
	require.NotNil(t, first)

	_, err = reg.Reconcile([]config.ClusterSpec{clusterSpec("c1", "https://host:123/")})
	require.NoError(t, err)

	second := reg.Get("c1")
	assert.Same(t, first, second, "ClusterState identity must be preserved across reloads")
}

func TestReconcileRetiresRemovedClusters(t *testing.T) {
	reg := NewRegistry(transport.NewFactory())
	_, err := reg.Reconcile([]config.ClusterSpec{clusterSpec("c1", "https://host:123/")})
	require.NoError(t, err)
	cs := reg.Get("c1")

	result, err := reg.Reconcile(nil)
	require.NoError(t, err)
	require.Len(t, result.Removed, 1)
	assert.Nil(t, reg.Get("c1"))
	assert.True(t, cs.Retired())
}

func TestReconcileResetsHealthOnAddressChange(t *testing.T) {
	reg := NewRegistry(transport.NewFactory())
	_, err := reg.Reconcile([]config.ClusterSpec{clusterSpec("c1", "https://host:123/")})
	require.NoError(t, err)
	cs := reg.Get("c1")
	cs.SetDestinationHealth("d1", HealthHealthy, time.Now())

	_, err = reg.Reconcile([]config.ClusterSpec{clusterSpec("c1", "https://host:124/")})
	require.NoError(t, err)

	ds := cs.DynamicState()
	require.Len(t, ds.AllDestinations, 1)
	assert.Equal(t, HealthUnknown, ds.AllDestinations[0].Health)
}

func TestReconcileKeepsHealthWhenAddressUnchanged(t *testing.T) {
	reg := NewRegistry(transport.NewFactory())
	_, err := reg.Reconcile([]config.ClusterSpec{clusterSpec("c1", "https://host:123/")})
	require.NoError(t, err)
	cs := reg.Get("c1")
	cs.SetDestinationHealth("d1", HealthHealthy, time.Now())

	_, err = reg.Reconcile([]config.ClusterSpec{clusterSpec("c1", "https://host:123/")})
	require.NoError(t, err)

	ds := cs.DynamicState()
	require.Len(t, ds.AllDestinations, 1)
	assert.Equal(t, HealthHealthy, ds.AllDestinations[0].Health)
}

func TestChangeSignalFiresExactlyOnceOnDynamicStateChange(t *testing.T) {
	reg := NewRegistry(transport.NewFactory())
	_, err := reg.Reconcile([]config.ClusterSpec{clusterSpec("c1", "https://host:123/")})
	require.NoError(t, err)
	cs := reg.Get("c1")

	signal := cs.ChangeSignal()
	assert.False(t, signal.HasChanged())

	cs.SetDestinationHealth("d1", HealthHealthy, time.Now())
	assert.True(t, signal.HasChanged())

	next := cs.ChangeSignal()
	assert.NotSame(t, signal, next)
	assert.False(t, next.HasChanged())
}
