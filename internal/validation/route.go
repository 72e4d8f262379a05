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
	"strings"

	"github.com/dynamicproxy/core/pkg/config"
	"github.com/dynamicproxy/core/pkg/policyapi"
)

// PathMatcher delegates route-pattern grammar validation to the external
// request matcher. The core has no opinion on pattern syntax beyond "the matcher
// accepted it."
type PathMatcher interface {
	ValidatePattern(pattern string) error
}

var validMethods = map[string]bool{
	"GET": true, "POST": true, "PUT": true, "DELETE": true,
	"HEAD": true, "OPTIONS": true, "PATCH": true, "TRACE": true,
}

// ValidateRoute implements validate_route. It never panics
// and always returns a (possibly empty) slice; every input, valid or not, is
// handled.
func ValidateRoute(route config.RouteSpec, registry policyapi.Registry, paths PathMatcher) []*Error {
	var errs []*Error

	routeID := route.RouteID
	if routeID == "" {
		errs = append(errs, routeErr("", "Route has no RouteId specified."))
		routeID = "<unknown>"
	}

	hasHosts := false
	for _, h := range route.Match.Hosts {
		if strings.TrimSpace(h) != "" {
			hasHosts = true
			break
		}
	}
	if !hasHosts && !route.Match.PathSet {
		errs = append(errs, routeErr(routeID,
			"Route '%s' requires Hosts or Path specified. Set the Path to '/{**catchall}' to match all requests.", routeID))
	}

	for _, h := range route.Match.Hosts {
		if strings.TrimSpace(h) == "" {
			continue
		}
		if err := validateHost(h); err != nil {
			errs = append(errs, routeErr(routeID, "Invalid host '%s' for route '%s': %s", h, routeID, err))
		}
	}

	if route.Match.PathSet && paths != nil {
		if err := paths.ValidatePattern(route.Match.Path); err != nil {
			errs = append(errs, routeErr(routeID, "Invalid path '%s' for route '%s'", route.Match.Path, routeID))
		}
	}

	seenMethods := make(map[string]bool, len(route.Match.Methods))
	for _, m := range route.Match.Methods {
		upper := strings.ToUpper(m)
		if !validMethods[upper] {
			errs = append(errs, routeErr(routeID, "Unsupported HTTP method '%s' for route '%s'", m, routeID))
			continue
		}
		if seenMethods[upper] {
			errs = append(errs, routeErr(routeID, "Duplicate HTTP method '%s' for route '%s'", upper, routeID))
			continue
		}
		seenMethods[upper] = true
	}

	for _, h := range route.Match.Headers {
		errs = append(errs, validateHeaderMatch(routeID, h)...)
	}

	if registry != nil {
		errs = append(errs, validatePolicyName(routeID, "AuthorizationPolicy", route.AuthorizationPolicy,
			config.PolicyDefault, config.PolicyAnonymous, registry.IsAuthorizationPolicyRegistered)...)
		errs = append(errs, validatePolicyName(routeID, "CorsPolicy", route.CorsPolicy,
			config.PolicyDefault, config.PolicyDisable, registry.IsCorsPolicyRegistered)...)

		for _, t := range route.Transforms {
			keys := make([]string, 0, len(t))
			for k := range t {
				keys = append(keys, k)
			}
			factory := registry.TransformFactoryFor(keys)
			if factory == nil {
				errs = append(errs, routeErr(routeID, "No transform factory found for route '%s' transform keys %v", routeID, keys))
				continue
			}
			if err := factory.Validate(t); err != nil {
				errs = append(errs, routeErr(routeID, "Invalid transform for route '%s': %s", routeID, err))
			}
		}
	}

	return errs
}

func validateHeaderMatch(routeID string, h config.HeaderMatch) []*Error {
	var errs []*Error
	if h.Name == "" {
		errs = append(errs, routeErr(routeID, "Header match for route '%s' has no Name specified.", routeID))
	}
	switch h.Mode {
	case config.HeaderExists:
		if len(h.Values) != 0 {
			errs = append(errs, routeErr(routeID, "Header match '%s' for route '%s' must not specify Values for mode Exists.", h.Name, routeID))
		}
	case config.HeaderExactMatch, config.HeaderPrefixMatch, config.HeaderContains, config.HeaderNotContains:
		if len(h.Values) == 0 {
			errs = append(errs, routeErr(routeID, "Header match '%s' for route '%s' requires at least one value for mode %s.", h.Name, routeID, h.Mode))
		}
	default:
		errs = append(errs, routeErr(routeID, "Header match '%s' for route '%s' has unrecognized mode '%s'.", h.Name, routeID, h.Mode))
	}
	return errs
}

// validatePolicyName implements the shared reserved-vs-registered logic used
// by both AuthorizationPolicy and CorsPolicy: an empty/absent name is
// fine, a reserved name that's also registered is a conflict, a non-reserved
// name must be registered.
func validatePolicyName(routeID, field, name string, reservedA, reservedB config.ReservedPolicyName, isRegistered func(string) bool) []*Error {
	if name == "" {
		return nil
	}
	lower := strings.ToLower(name)
	isReserved := lower == strings.ToLower(string(reservedA)) || lower == strings.ToLower(string(reservedB))
	if isReserved {
		if isRegistered(name) {
			return []*Error{routeErr(routeID, "%s '%s' for route '%s' conflicts with a reserved policy name.", field, name, routeID)}
		}
		return nil
	}
	if !isRegistered(name) {
		return []*Error{routeErr(routeID, fmt.Sprintf("%s '%s' not found for route '%s'.", field, name, routeID))}
	}
	return nil
}
