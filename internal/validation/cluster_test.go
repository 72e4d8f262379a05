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

package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dynamicproxy/core/pkg/config"
)

func TestValidateClusterUnsupportedHTTPVersion(t *testing.T) {
	cluster := config.ClusterSpec{
		ClusterID: "c1",
		HTTPRequest: &config.HttpRequestOptions{
			Version:    "1.2",
			VersionSet: true,
		},
	}
	errs := ValidateCluster(cluster, nil)
	require.Len(t, errs, 1)
	assert.Equal(t, "Outgoing request version '1.2' is not any of supported HTTP versions (1.0, 1.1 and 2).", errs[0].Message)
}

func TestValidateClusterSupportedHTTPVersions(t *testing.T) {
	for _, v := range SupportedHTTPVersions {
		cluster := config.ClusterSpec{
			ClusterID:   "c1",
			HTTPRequest: &config.HttpRequestOptions{Version: v, VersionSet: true},
		}
		assert.Emptyf(t, ValidateCluster(cluster, nil), "version %s should be accepted", v)
	}
}

func TestValidateClusterDuplicateDestinationIDs(t *testing.T) {
	cluster := config.ClusterSpec{
		ClusterID: "c1",
		Destinations: map[string]config.DestinationSpec{
			"d1": {Address: "https://a/"},
			"D1": {Address: "https://b/"},
		},
	}
	errs := ValidateCluster(cluster, nil)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Message, "Duplicate destination id")
}

func TestValidateClusterHealthCheckNegativeIntervalsRejected(t *testing.T) {
	cluster := config.ClusterSpec{
		ClusterID: "c1",
		HealthCheck: &config.HealthCheckOptions{
			Active: config.ActiveHealthCheckOptions{IntervalSeconds: -1, TimeoutSeconds: -1},
		},
	}
	errs := ValidateCluster(cluster, NewStaticRegistry())
	require.Len(t, errs, 2)
}

func TestValidateClusterLoadBalancingPolicyMustBeRegistered(t *testing.T) {
	registry := NewStaticRegistry()
	cluster := config.ClusterSpec{ClusterID: "c1", LoadBalancingPolicy: "RoundRobin"}
	errs := ValidateCluster(cluster, registry)
	require.Len(t, errs, 1)

	registry.RegisterLoadBalancingPolicy("RoundRobin")
	assert.Empty(t, ValidateCluster(cluster, registry))
}

func TestValidateAllCatchesDuplicateRouteIDs(t *testing.T) {
	routes := []config.RouteSpec{
		{RouteID: "r1", Match: config.RouteMatch{Path: "/", PathSet: true}},
		{RouteID: "r1", Match: config.RouteMatch{Path: "/other", PathSet: true}},
	}
	errs := ValidateAll(routes, nil, nil, nil)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Message, "Duplicate route id")
}
