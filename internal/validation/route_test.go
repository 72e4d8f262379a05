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

func TestValidateRouteRequiresHostsOrPath(t *testing.T) {
	route := config.RouteSpec{
		RouteID: "route1",
		Match:   config.RouteMatch{},
	}
	errs := ValidateRoute(route, nil, nil)
	require.Len(t, errs, 1)
	assert.Equal(t, "Route 'route1' requires Hosts or Path specified. Set the Path to '/{**catchall}' to match all requests.", errs[0].Message)
}

func TestValidateRouteAcceptsHostsOnly(t *testing.T) {
	route := config.RouteSpec{
		RouteID: "r1",
		Match:   config.RouteMatch{Hosts: []string{"example.com"}},
	}
	errs := ValidateRoute(route, nil, nil)
	assert.Empty(t, errs)
}

func TestValidateRouteAcceptsPathOnly(t *testing.T) {
	route := config.RouteSpec{
		RouteID: "r1",
		Match:   config.RouteMatch{Path: "/", PathSet: true},
	}
	errs := ValidateRoute(route, nil, nil)
	assert.Empty(t, errs)
}

func TestValidateRouteRejectsIDNALabel(t *testing.T) {
	route := config.RouteSpec{
		RouteID: "r1",
		Match:   config.RouteMatch{Hosts: []string{"xn--exmple-cua.com"}},
	}
	errs := ValidateRoute(route, nil, nil)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Message, "IDN A-label")
}

func TestValidateRouteWildcardHost(t *testing.T) {
	route := config.RouteSpec{
		RouteID: "r1",
		Match:   config.RouteMatch{Hosts: []string{"*.example.com"}},
	}
	assert.Empty(t, ValidateRoute(route, nil, nil))
}

func TestValidateRouteWildcardDoubleDotRejected(t *testing.T) {
	route := config.RouteSpec{
		RouteID: "r1",
		Match:   config.RouteMatch{Hosts: []string{"*..example.com"}},
	}
	errs := ValidateRoute(route, nil, nil)
	require.Len(t, errs, 1)
}

func TestValidateRouteHostWithPort(t *testing.T) {
	route := config.RouteSpec{
		RouteID: "r1",
		Match:   config.RouteMatch{Hosts: []string{"example.com:8080"}},
	}
	assert.Empty(t, ValidateRoute(route, nil, nil))
}

func TestValidateRouteHostWithInvalidPort(t *testing.T) {
	route := config.RouteSpec{
		RouteID: "r1",
		Match:   config.RouteMatch{Hosts: []string{"example.com:99999"}},
	}
	errs := ValidateRoute(route, nil, nil)
	require.Len(t, errs, 1)
}

func TestValidateRouteMethodNormalizationAndDuplicates(t *testing.T) {
	route := config.RouteSpec{
		RouteID: "r1",
		Match: config.RouteMatch{
			Path:    "/",
			PathSet: true,
			Methods: []string{"get", "GET"},
		},
	}
	errs := ValidateRoute(route, nil, nil)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Message, "Duplicate HTTP method")
}

func TestValidateRouteUnsupportedMethod(t *testing.T) {
	route := config.RouteSpec{
		RouteID: "r1",
		Match:   config.RouteMatch{Path: "/", PathSet: true, Methods: []string{"FETCH"}},
	}
	errs := ValidateRoute(route, nil, nil)
	require.Len(t, errs, 1)
}

func TestValidateRouteHeaderMatchModes(t *testing.T) {
	tests := map[string]struct {
		h       config.HeaderMatch
		wantErr bool
	}{
		"exists with no values ok": {
			h: config.HeaderMatch{Name: "x", Mode: config.HeaderExists},
		},
		"exists with values invalid": {
			h:       config.HeaderMatch{Name: "x", Mode: config.HeaderExists, Values: []string{"a"}},
			wantErr: true,
		},
		"exact with no values invalid": {
			h:       config.HeaderMatch{Name: "x", Mode: config.HeaderExactMatch},
			wantErr: true,
		},
		"exact with values ok": {
			h: config.HeaderMatch{Name: "x", Mode: config.HeaderExactMatch, Values: []string{"a"}},
		},
		"empty name invalid": {
			h:       config.HeaderMatch{Mode: config.HeaderExists},
			wantErr: true,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			route := config.RouteSpec{
				RouteID: "r1",
				Match:   config.RouteMatch{Path: "/", PathSet: true, Headers: []config.HeaderMatch{tc.h}},
			}
			errs := ValidateRoute(route, nil, nil)
			if tc.wantErr {
				assert.NotEmpty(t, errs)
			} else {
				assert.Empty(t, errs)
			}
		})
	}
}

func TestValidatePolicyNameReservedConflict(t *testing.T) {
	registry := NewStaticRegistry()
	registry.RegisterAuthorizationPolicy("Default")
	route := config.RouteSpec{
		RouteID:             "r1",
		Match:               config.RouteMatch{Path: "/", PathSet: true},
		AuthorizationPolicy: "Default",
	}
	errs := ValidateRoute(route, registry, nil)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Message, "conflicts with a reserved policy name")
}

func TestValidatePolicyNameReservedNoConflict(t *testing.T) {
	registry := NewStaticRegistry()
	route := config.RouteSpec{
		RouteID:             "r1",
		Match:               config.RouteMatch{Path: "/", PathSet: true},
		AuthorizationPolicy: "default",
	}
	assert.Empty(t, ValidateRoute(route, registry, nil))
}

func TestValidatePolicyNameNotRegistered(t *testing.T) {
	registry := NewStaticRegistry()
	route := config.RouteSpec{
		RouteID:             "r1",
		Match:               config.RouteMatch{Path: "/", PathSet: true},
		AuthorizationPolicy: "custom",
	}
	errs := ValidateRoute(route, registry, nil)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Message, "not found")
}

type fakePathMatcher struct {
	rejected map[string]bool
}

func (f fakePathMatcher) ValidatePattern(pattern string) error {
	if f.rejected[pattern] {
		return assert.AnError
	}
	return nil
}

func TestValidateRouteDelegatesPathToMatcher(t *testing.T) {
	route := config.RouteSpec{
		RouteID: "route1",
		Match:   config.RouteMatch{Path: "/{bad", PathSet: true},
	}
	errs := ValidateRoute(route, nil, fakePathMatcher{rejected: map[string]bool{"/{bad": true}})
	require.Len(t, errs, 1)
	assert.Equal(t, "Invalid path '/{bad' for route 'route1'", errs[0].Message)
}
