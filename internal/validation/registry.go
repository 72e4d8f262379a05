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
	"sync"

	"github.com/dynamicproxy/core/pkg/policyapi"
)

// StaticRegistry is a minimal, name-set-backed policyapi.Registry. The
// registry contract leaves its reference implementation to the host; this one is enough to exercise the validator
// end to end without an embedder hand-rolling one.
type StaticRegistry struct {
	mu                      sync.RWMutex
	authorizationPolicies   map[string]bool
	corsPolicies            map[string]bool
	loadBalancingPolicies   map[string]bool
	activeHealthPolicies    map[string]bool
	passiveHealthPolicies   map[string]bool
	affinityFailurePolicies map[string]bool
	transformFactories      []policyapi.TransformFactory
	transformKeys           [][]string
}

// NewStaticRegistry returns an empty registry; use the RegisterX methods to
// populate it.
func NewStaticRegistry() *StaticRegistry {
	return &StaticRegistry{
		authorizationPolicies:   map[string]bool{},
		corsPolicies:            map[string]bool{},
		loadBalancingPolicies:   map[string]bool{},
		activeHealthPolicies:    map[string]bool{},
		passiveHealthPolicies:   map[string]bool{},
		affinityFailurePolicies: map[string]bool{},
	}
}

func (r *StaticRegistry) RegisterAuthorizationPolicy(name string) { r.set(&r.authorizationPolicies, name) }
func (r *StaticRegistry) RegisterCorsPolicy(name string) { r.set(&r.corsPolicies, name) }
func (r *StaticRegistry) RegisterLoadBalancingPolicy(name string) { r.set(&r.loadBalancingPolicies, name) }
func (r *StaticRegistry) RegisterActiveHealthPolicy(name string) { r.set(&r.activeHealthPolicies, name) }
func (r *StaticRegistry) RegisterPassiveHealthPolicy(name string) { r.set(&r.passiveHealthPolicies, name) }
func (r *StaticRegistry) RegisterAffinityFailurePolicy(name string) {
	r.set(&r.affinityFailurePolicies, name)
}

// RegisterTransformFactory registers a factory for transform descriptors
// whose key set exactly matches keys.
func (r *StaticRegistry) RegisterTransformFactory(keys []string, factory policyapi.TransformFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transformKeys = append(r.transformKeys, keys)
	r.transformFactories = append(r.transformFactories, factory)
}

func (r *StaticRegistry) set(m *map[string]bool, name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	(*m)[name] = true
}

func (r *StaticRegistry) IsAuthorizationPolicyRegistered(name string) bool {
	return r.get(r.authorizationPolicies, name)
}
func (r *StaticRegistry) IsCorsPolicyRegistered(name string) bool {
	return r.get(r.corsPolicies, name)
}
func (r *StaticRegistry) IsLoadBalancingPolicyRegistered(name string) bool {
	return r.get(r.loadBalancingPolicies, name)
}
func (r *StaticRegistry) IsActiveHealthPolicyRegistered(name string) bool {
	return r.get(r.activeHealthPolicies, name)
}
func (r *StaticRegistry) IsPassiveHealthPolicyRegistered(name string) bool {
	return r.get(r.passiveHealthPolicies, name)
}
func (r *StaticRegistry) IsAffinityFailurePolicyRegistered(name string) bool {
	return r.get(r.affinityFailurePolicies, name)
}

func (r *StaticRegistry) get(m map[string]bool, name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return m[name]
}

func (r *StaticRegistry) TransformFactoryFor(keys []string) policyapi.TransformFactory {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for i, want := range r.transformKeys {
		if sameKeySet(want, keys) {
			return r.transformFactories[i]
		}
	}
	return nil
}

func sameKeySet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[string]bool, len(a))
	for _, k := range a {
		set[k] = true
	}
	for _, k := range b {
		if !set[k] {
			return false
		}
	}
	return true
}

var _ policyapi.Registry = (*StaticRegistry)(nil)
