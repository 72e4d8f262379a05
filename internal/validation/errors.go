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

// Package validation implements the pure, synchronous, stateless
// validate_route and validate_cluster operations.
package validation

import "fmt"

// Error is one validation failure, tagged with the kind of record it came
// from and a reference so the Config Manager can report which record
// failed.
type Error struct {
	Kind    ErrorKind
	Message string
	// RecordID is the RouteID or ClusterID the error is about.
	RecordID string
}

func (e *Error) Error() string {
	return e.Message
}

// ErrorKind classifies an Error for callers that want to branch on it
// without string-matching the message.
type ErrorKind string

const (
	KindRoute   ErrorKind = "route"
	KindCluster ErrorKind = "cluster"
)

func routeErr(routeID, format string, args ...any) *Error {
	return &Error{Kind: KindRoute, RecordID: routeID, Message: fmt.Sprintf(format, args...)}
}

func clusterErr(clusterID, format string, args ...any) *Error {
	return &Error{Kind: KindCluster, RecordID: clusterID, Message: fmt.Sprintf(format, args...)}
}
