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
	"context"

	"github.com/dynamicproxy/core/pkg/config"
)

// ConfigProvider is the inbound contract an embedder implements: it produces
// (routes, clusters) on demand and a change notification channel. The core
// does not dictate storage format; a provider might read YAML from disk,
// poll an API, or watch a database.
//
// Changes must never block on a send: a provider with no eligible listener
// drops the notification rather than stalling its own update path, mirroring
// the non-blocking send contract of Contour's internal/contour.Cond.
type ConfigProvider interface {
	Fetch(ctx context.Context) (routes []config.RouteSpec, clusters []config.ClusterSpec, err error)
	Changes() <-chan struct{}
}
