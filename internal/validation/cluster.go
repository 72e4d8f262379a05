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
	"fmt"

	"github.com/Masterminds/semver/v3"

	"github.com/dynamicproxy/core/pkg/config"
	"github.com/dynamicproxy/core/pkg/policyapi"
)

// SupportedHTTPVersions are the only HttpRequestOptions.Version values
// ValidateCluster allows.
var SupportedHTTPVersions = []string{"1.0", "1.1", "2.0"}

// ValidateCluster implements validate_cluster.
func ValidateCluster(cluster config.ClusterSpec, registry policyapi.Registry) []*Error {
	var errs []*Error
	clusterID := cluster.ClusterID
	if clusterID == "" {
		clusterID = "<unknown>"
	}

	if registry != nil {
		if cluster.LoadBalancingPolicy != "" && !registry.IsLoadBalancingPolicyRegistered(cluster.LoadBalancingPolicy) {
			errs = append(errs, clusterErr(clusterID, "Load balancing policy '%s' not found for cluster '%s'.", cluster.LoadBalancingPolicy, clusterID))
		}

		if a := cluster.SessionAffinity; a != nil && a.Enabled && a.FailurePolicy != "" {
			if !registry.IsAffinityFailurePolicyRegistered(a.FailurePolicy) {
				errs = append(errs, clusterErr(clusterID, "Affinity failure policy '%s' not found for cluster '%s'.", a.FailurePolicy, clusterID))
			}
		}

		if hc := cluster.HealthCheck; hc != nil {
			errs = append(errs, validateActiveHealthCheck(clusterID, hc.Active, registry)...)
			errs = append(errs, validatePassiveHealthCheck(clusterID, hc.Passive, registry)...)
		}
	}

	if req := cluster.HTTPRequest; req != nil && req.VersionSet {
		if err := validateHTTPVersion(req.Version); err != nil {
			errs = append(errs, clusterErr(clusterID, "%s", err))
		}
	}

	seen := make(map[string]string, len(cluster.Destinations))
	for id := range cluster.Destinations {
		key := config.DestinationID(id)
		if prev, ok := seen[key]; ok {
			errs = append(errs, clusterErr(clusterID, "Duplicate destination id '%s' (conflicts with '%s', case-insensitive) for cluster '%s'.", id, prev, clusterID))
			continue
		}
		seen[key] = id
	}

	return errs
}

func validateActiveHealthCheck(clusterID string, a config.ActiveHealthCheckOptions, registry policyapi.Registry) []*Error {
	var errs []*Error
	if a.IntervalSeconds < 0 {
		errs = append(errs, clusterErr(clusterID, "Active health check interval for cluster '%s' must be >= 0.", clusterID))
	}
	if a.TimeoutSeconds < 0 {
		errs = append(errs, clusterErr(clusterID, "Active health check timeout for cluster '%s' must be >= 0.", clusterID))
	}
	if a.Enabled && a.Policy != "" && !registry.IsActiveHealthPolicyRegistered(a.Policy) {
		errs = append(errs, clusterErr(clusterID, "Active health check policy '%s' not found for cluster '%s'.", a.Policy, clusterID))
	}
	return errs
}

func validatePassiveHealthCheck(clusterID string, p config.PassiveHealthCheckOptions, registry policyapi.Registry) []*Error {
	var errs []*Error
	if p.ReactivationPeriodSeconds < 0 {
		errs = append(errs, clusterErr(clusterID, "Passive health check reactivation period for cluster '%s' must be >= 0.", clusterID))
	}
	if p.Enabled && p.Policy != "" && !registry.IsPassiveHealthPolicyRegistered(p.Policy) {
		errs = append(errs, clusterErr(clusterID, "Passive health check policy '%s' not found for cluster '%s'.", p.Policy, clusterID))
	}
	return errs
}

// validateHTTPVersion parses the requested major.minor version with
// semver (after padding it to a full major.minor.0 version, since
// HttpRequestOptions.Version is a bare "1.1" rather than a full semver
// string) and compares it against SupportedHTTPVersions.
func validateHTTPVersion(version string) error {
	requested, err := semver.NewVersion(version + ".0")
	if err != nil {
		return fmt.Errorf("Outgoing request version '%s' is not any of supported HTTP versions (1.0, 1.1 and 2).", version)
	}
	for _, supported := range SupportedHTTPVersions {
		sv, err := semver.NewVersion(supported + ".0")
		if err != nil {
			continue
		}
		if requested.Major() == sv.Major() && requested.Minor() == sv.Minor() {
			return nil
		}
	}
	return fmt.Errorf("Outgoing request version '%s' is not any of supported HTTP versions (1.0, 1.1 and 2).", version)
}
