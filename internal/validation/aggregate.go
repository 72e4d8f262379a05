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
	"github.com/dynamicproxy/core/pkg/config"
	"github.com/dynamicproxy/core/pkg/policyapi"
)

// ValidateAll runs validate_route over every route and validate_cluster over
// every cluster, then adds the one cross-record invariant a single record
// can't check on its own: route_id values must be globally unique within
// the snapshot.
func ValidateAll(routes []config.RouteSpec, clusters []config.ClusterSpec, registry policyapi.Registry, paths PathMatcher) []*Error {
	var errs []*Error

	seen := make(map[string]bool, len(routes))
	for _, r := range routes {
		errs = append(errs, ValidateRoute(r, registry, paths)...)
		if r.RouteID == "" {
			continue
		}
		if seen[r.RouteID] {
			errs = append(errs, routeErr(r.RouteID, "Duplicate route id '%s'.", r.RouteID))
			continue
		}
		seen[r.RouteID] = true
	}

	for _, c := range clusters {
		errs = append(errs, ValidateCluster(c, registry)...)
	}

	return errs
}
