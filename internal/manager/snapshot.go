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
	"github.com/dynamicproxy/core/internal/changetoken"
	"github.com/dynamicproxy/core/internal/clusterrt"
	"github.com/dynamicproxy/core/internal/endpoint"
)

// Snapshot is one successfully applied configuration generation, plus the
// one-shot signal that fires when a later generation replaces it. Endpoints
// belong to this generation alone. ClusterRegistry is the manager's live
// registry, shared by every Snapshot: it and the ClusterStates it holds
// reflect the latest reload, not the generation this Snapshot was built from.
type Snapshot struct {
	ID string

	Endpoints       []endpoint.Endpoint
	ClusterRegistry *clusterrt.Registry

	changeSignal *changetoken.Token
}

// ChangeSignal returns the Token that fires the first time this Snapshot is
// superseded by a later one (testable property 5: change-token one-shot).
func (s *Snapshot) ChangeSignal() *changetoken.Token {
	return s.changeSignal
}
