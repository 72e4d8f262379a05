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

package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Fingerprint returns a stable structural hash of o, keyed additionally on
// clusterID. The transport cache key must include the cluster
// id: client certificates and header encodings are per-cluster even when
// every other field matches, and fingerprinting on options alone would
// alias transports across unrelated clusters.
func (o HttpClientOptions) Fingerprint(clusterID string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "cluster=%s;ssl=%d;maxconn=%d,%t;cert=%v;dangerous=%t;henc=%s",
		clusterID,
		o.SSLProtocols,
		o.MaxConnectionsPerServer, o.MaxConnectionsPerServerSet,
		fingerprintCert(o.ClientCertificate),
		o.DangerousAcceptAnyServerCertificate,
		o.RequestHeaderEncoding,
	)
	return fmt.Sprintf("%016x", xxhash.Sum64String(b.String()))
}

// fingerprintCert turns an opaque certificate handle into a stable token for
// hashing. The core never inspects certificate material; a pointer identity
// or a type implementing fmt.Stringer is all it needs to tell "same
// certificate" from "different certificate" across reloads.
func fingerprintCert(cert any) string {
	if cert == nil {
		return "<nil>"
	}
	if s, ok := cert.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%p", cert)
}

// SortedDestinationIDs returns the destination ids of c in a deterministic
// order, useful for diffing and for tests that need reproducible output.
func (c ClusterSpec) SortedDestinationIDs() []string {
	ids := make([]string, 0, len(c.Destinations))
	for id := range c.Destinations {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
