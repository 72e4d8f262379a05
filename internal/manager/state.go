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

import "sync/atomic"

// ReloadState is one state of the per-reload state machine.
type ReloadState int32

const (
	Idle ReloadState = iota
	Fetching
	Filtering
	Validating
	Failed
	Reconciling
	Compiling
	Publishing
)

func (s ReloadState) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Fetching:
		return "Fetching"
	case Filtering:
		return "Filtering"
	case Validating:
		return "Validating"
	case Failed:
		return "Failed"
	case Reconciling:
		return "Reconciling"
	case Compiling:
		return "Compiling"
	case Publishing:
		return "Publishing"
	default:
		return "Unknown"
	}
}

// reloadState tracks the current reload's state machine position for
// observability (e.g. a metrics gauge or a debug endpoint). Safe for
// concurrent reads; only the reload goroutine writes it.
type reloadState struct {
	v atomic.Int32
}

func (r *reloadState) set(s ReloadState) {
	r.v.Store(int32(s))
}

func (r *reloadState) get() ReloadState {
	return ReloadState(r.v.Load())
}
