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

// Package policyapi defines the inbound contracts the host embedding this
// module must supply: policy-name registries and transform-factory lookups.
// The core only ever queries these; it never evaluates policy itself.
package policyapi

// Registry answers the synchronous boolean queries the validator needs.
// Implementations must not block on I/O; they back a registration
// table the host maintains.
type Registry interface {
	IsAuthorizationPolicyRegistered(name string) bool
	IsCorsPolicyRegistered(name string) bool
	IsLoadBalancingPolicyRegistered(name string) bool
	IsActiveHealthPolicyRegistered(name string) bool
	IsPassiveHealthPolicyRegistered(name string) bool
	IsAffinityFailurePolicyRegistered(name string) bool

	// TransformFactoryFor returns the factory responsible for validating a
	// transform descriptor whose keys are the given set, or nil if no
	// factory claims them.
	TransformFactoryFor(keys []string) TransformFactory
}

// TransformFactory validates one transform descriptor (a string→string
// mapping from RouteSpec.Transforms). A nil return means the descriptor is
// valid; a non-nil error is accumulated by the validator.
type TransformFactory interface {
	Validate(transform map[string]string) error
}
