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

// Package config holds the immutable value types that make up the
// configuration-to-routing-table compilation pipeline's input: RouteSpec,
// ClusterSpec and everything they reference. Values in this package are
// never mutated after construction; producers build a fresh value and hand
// it to the manager on every reload.
package config

// ReservedPolicyName is a literal policy name the core interprets specially
// rather than looking up in a host-supplied registry.
type ReservedPolicyName string

const (
	PolicyDefault   ReservedPolicyName = "Default"
	PolicyAnonymous ReservedPolicyName = "Anonymous"
	PolicyDisable   ReservedPolicyName = "Disable"
)

// RouteSpec describes one routable entry a producer wants compiled into the
// forwarding table.
type RouteSpec struct {
	// RouteID must be non-empty and unique within one config generation.
	RouteID string
	// ClusterID names the cluster this route forwards to. May be empty or
	// refer to a cluster that does not (yet) exist; see Endpoint.ClusterRef.
	ClusterID string
	Match     RouteMatch
	// Order controls precedence among routes the external matcher considers
	// ambiguous. Absent is represented by OrderSet == false.
	Order    int32
	OrderSet bool

	// AuthorizationPolicy, if set, is either a reserved name (Default,
	// Anonymous) or a name registered with the host's authorization policy
	// registry.
	AuthorizationPolicy string
	// CorsPolicy, if set, is either a reserved name (Default, Disable) or a
	// named policy registered with the host.
	CorsPolicy string

	Metadata map[string]string
	// Transforms is an ordered sequence of transform descriptors; each
	// mapping is validated against the host's transform-factory registry.
	Transforms []map[string]string
}

// Clone returns a deep copy so callers can't mutate a RouteSpec a Snapshot
// has already captured.
func (r RouteSpec) Clone() RouteSpec {
	c := r
	c.Match = r.Match.clone()
	c.Metadata = cloneStringMap(r.Metadata)
	if r.Transforms != nil {
		c.Transforms = make([]map[string]string, len(r.Transforms))
		for i, t := range r.Transforms {
			c.Transforms[i] = cloneStringMap(t)
		}
	}
	return c
}

// RouteMatch describes the request-matching criteria for a RouteSpec.
type RouteMatch struct {
	// Hosts is a list of host patterns; each is an ASCII hostname, optionally
	// prefixed with "*." and/or suffixed with ":port".
	Hosts []string
	// Path is absent when PathSet is false; the core defaults to the
	// catch-all pattern in that case (see endpoint.CatchAllPattern).
	Path    string
	PathSet bool
	// Methods is a list of HTTP verbs; the validator compares them
	// case-insensitively and endpoint.Compile normalizes them to uppercase.
	// This type does not rewrite them.
	Methods []string
	Headers []HeaderMatch
}

func (m RouteMatch) clone() RouteMatch {
	c := m
	c.Hosts = cloneStringSlice(m.Hosts)
	c.Methods = cloneStringSlice(m.Methods)
	if m.Headers != nil {
		c.Headers = make([]HeaderMatch, len(m.Headers))
		for i, h := range m.Headers {
			c.Headers[i] = h.clone()
		}
	}
	return c
}

// HeaderMatchMode is the comparison mode for a HeaderMatch.
type HeaderMatchMode string

const (
	HeaderExactMatch  HeaderMatchMode = "ExactHeader"
	HeaderPrefixMatch HeaderMatchMode = "HeaderPrefix"
	HeaderExists      HeaderMatchMode = "Exists"
	HeaderContains    HeaderMatchMode = "Contains"
	HeaderNotContains HeaderMatchMode = "NotContains"
)

// HeaderMatch is one header condition attached to a RouteMatch.
type HeaderMatch struct {
	Name            string
	Mode            HeaderMatchMode
	Values          []string
	IsCaseSensitive bool
}

func (h HeaderMatch) clone() HeaderMatch {
	c := h
	c.Values = cloneStringSlice(h.Values)
	return c
}

func cloneStringSlice(s []string) []string {
	if s == nil {
		return nil
	}
	c := make([]string, len(s))
	copy(c, s)
	return c
}

func cloneStringMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	c := make(map[string]string, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}
