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

// Package endpoint implements the Endpoint Compiler: it turns a validated
// RouteSpec, plus the ClusterState it (maybe) resolves to, into the opaque
// Endpoint record the host's external request matcher consumes. Grounded on
// the metadata-assembly shape of Contour's internal/dag/httpproxy_processor.go
// computeRoutes and internal/contour/virtualhost.go, reduced from a full DAG
// to a single flat record.
package endpoint

import (
	"strings"

	"github.com/dynamicproxy/core/internal/clusterrt"
	"github.com/dynamicproxy/core/pkg/config"
)

// CatchAllPattern is the route pattern an Endpoint is given when the source
// RouteSpec left Path unset.
const CatchAllPattern = "/{**catchall}"

// CorsMarkerKind classifies an Endpoint's CORS metadata.
type CorsMarkerKind int

const (
	CorsAbsent CorsMarkerKind = iota
	CorsDefaultEnable
	CorsDisable
	CorsNamedPolicy
)

// CorsMarker is the attached CORS metadata for one Endpoint.
type CorsMarker struct {
	Kind   CorsMarkerKind
	Policy string // set iff Kind == CorsNamedPolicy
}

// AuthorizationMarkerKind classifies an Endpoint's authorization metadata.
type AuthorizationMarkerKind int

const (
	AuthorizationAbsent AuthorizationMarkerKind = iota
	AuthorizationDefault
	AuthorizationAnonymous
	AuthorizationNamedPolicy
)

// AuthorizationMarker is the attached authorization metadata for one
// Endpoint.
type AuthorizationMarker struct {
	Kind   AuthorizationMarkerKind
	Policy string // set iff Kind == AuthorizationNamedPolicy
}

// Endpoint is the opaque record emitted to the host's external request
// matcher.
type Endpoint struct {
	// Pattern is the route's match pattern, defaulting to CatchAllPattern.
	Pattern string
	Order   int32

	// DisplayName is always the source route's RouteID.
	DisplayName string

	Route   config.RouteSpec
	Hosts   []string
	Headers []config.HeaderMatch
	Methods []string

	Cors          CorsMarker
	Authorization AuthorizationMarker

	// ClusterRef is the resolved ClusterState, or nil if Route.ClusterID did
	// not resolve: the forwarding engine fails such a request with 503,
	// which is outside this core.
	ClusterRef *clusterrt.ClusterState

	Metadata map[string]string
}

// AcceptsCorsPreflight reports true iff any CORS marker, including an
// explicit Disable, is attached.
func (e Endpoint) AcceptsCorsPreflight() bool {
	return e.Cors.Kind != CorsAbsent
}

// Convention is a user hook that can add further metadata to an Endpoint
// after compilation, mirroring the composition style of Contour's
// internal/contour.ComposeObservers.
type Convention interface {
	Apply(*Endpoint)
}

// Compile builds an Endpoint from a route, its optional resolved cluster
// state, and the registered conventions.
func Compile(route config.RouteSpec, cluster *clusterrt.ClusterState, conventions []Convention) Endpoint {
	pattern := CatchAllPattern
	if route.Match.PathSet {
		pattern = route.Match.Path
	}

	var order int32
	if route.OrderSet {
		order = route.Order
	}

	var methods []string
	for _, m := range route.Match.Methods {
		methods = append(methods, strings.ToUpper(m))
	}

	ep := Endpoint{
		Pattern:       pattern,
		Order:         order,
		DisplayName:   route.RouteID,
		Route:         route,
		Hosts:         route.Match.Hosts,
		Headers:       route.Match.Headers,
		Methods:       methods,
		Cors:          corsMarker(route.CorsPolicy),
		Authorization: authorizationMarker(route.AuthorizationPolicy),
		ClusterRef:    cluster,
		Metadata:      route.Clone().Metadata,
	}

	for _, c := range conventions {
		c.Apply(&ep)
	}

	return ep
}

func corsMarker(policy string) CorsMarker {
	if policy == "" {
		return CorsMarker{Kind: CorsAbsent}
	}
	switch strings.ToLower(policy) {
	case strings.ToLower(string(config.PolicyDefault)):
		return CorsMarker{Kind: CorsDefaultEnable}
	case strings.ToLower(string(config.PolicyDisable)):
		return CorsMarker{Kind: CorsDisable}
	default:
		return CorsMarker{Kind: CorsNamedPolicy, Policy: policy}
	}
}

func authorizationMarker(policy string) AuthorizationMarker {
	if policy == "" {
		return AuthorizationMarker{Kind: AuthorizationAbsent}
	}
	switch strings.ToLower(policy) {
	case strings.ToLower(string(config.PolicyDefault)):
		return AuthorizationMarker{Kind: AuthorizationDefault}
	case strings.ToLower(string(config.PolicyAnonymous)):
		return AuthorizationMarker{Kind: AuthorizationAnonymous}
	default:
		return AuthorizationMarker{Kind: AuthorizationNamedPolicy, Policy: policy}
	}
}
