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

package manager

import (
	"fmt"

	utilerrors "k8s.io/apimachinery/pkg/util/errors"

	"github.com/dynamicproxy/core/internal/filter"
	"github.com/dynamicproxy/core/internal/validation"
)

// topLevelMessage is the fixed message initial_load returns whenever any
// filter or validation error exists.
const topLevelMessage = "Unable to load or apply the proxy configuration."

// ReloadFailure aggregates every ConfigLoadError, FilterError and
// ValidationError collected during one reload attempt. InfraErr holds a
// failure from a step none of those named error kinds cover - reconciling
// the cluster registry or acquiring a transport - surfaced the same way
// since it equally must prevent publishing a snapshot.
type ReloadFailure struct {
	ConfigLoadErr       *ConfigLoadError
	InfraErr            error
	RouteFilterErrors   []*filter.Error
	ClusterFilterErrors []*filter.Error
	ValidationErrors    []*validation.Error

	aggregate error
}

func newReloadFailure(configLoadErr *ConfigLoadError, infraErr error, routeFilterErrs, clusterFilterErrs []*filter.Error, valErrs []*validation.Error) *ReloadFailure {
	all := make([]error, 0, 2+len(routeFilterErrs)+len(clusterFilterErrs)+len(valErrs))
	if configLoadErr != nil {
		all = append(all, configLoadErr)
	}
	if infraErr != nil {
		all = append(all, infraErr)
	}
	for _, e := range routeFilterErrs {
		all = append(all, e)
	}
	for _, e := range clusterFilterErrs {
		all = append(all, e)
	}
	for _, e := range valErrs {
		all = append(all, e)
	}
	return &ReloadFailure{
		ConfigLoadErr:       configLoadErr,
		InfraErr:            infraErr,
		RouteFilterErrors:   routeFilterErrs,
		ClusterFilterErrors: clusterFilterErrs,
		ValidationErrors:    valErrs,
		aggregate:           utilerrors.NewAggregate(all),
	}
}

// Empty reports whether the reload attempt actually failed.
func (f *ReloadFailure) Empty() bool {
	return f == nil || f.aggregate == nil
}

func (f *ReloadFailure) Error() string {
	if f.aggregate == nil {
		return ""
	}
	return f.aggregate.Error()
}

func (f *ReloadFailure) Unwrap() error {
	return f.aggregate
}

// TopLevelError is what initial_load returns whenever any filter or
// validation error exists: its message is always the fixed topLevelMessage,
// with the aggregate ReloadFailure available via Unwrap/Cause. Kept
// distinct from a plain github.com/pkg/errors.Wrap, whose Error() would
// concatenate the message and cause rather than holding the message fixed.
type TopLevelError struct {
	Cause *ReloadFailure
}

func (e *TopLevelError) Error() string {
	return topLevelMessage
}

func (e *TopLevelError) Unwrap() error {
	return e.Cause
}

func wrapTopLevel(failure *ReloadFailure) error {
	return &TopLevelError{Cause: failure}
}

// ConfigLoadError wraps a failure to fetch (routes, clusters) from the
// upstream config provider.
type ConfigLoadError struct {
	Err error
}

func (e *ConfigLoadError) Error() string {
	return fmt.Sprintf("fetch configuration: %s", e.Err)
}

func (e *ConfigLoadError) Unwrap() error {
	return e.Err
}
