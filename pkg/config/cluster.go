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

import "strings"

// ClusterSpec describes one upstream cluster a set of routes can forward to.
type ClusterSpec struct {
	ClusterID string
	// Destinations is keyed by destination id; ids compare case-insensitively
	// (see DestinationID).
	Destinations map[string]DestinationSpec

	// LoadBalancingPolicy, if set, must be registered with the host.
	LoadBalancingPolicy string
	SessionAffinity     *SessionAffinityOptions
	HealthCheck         *HealthCheckOptions
	HTTPClient          *HttpClientOptions
	HTTPRequest         *HttpRequestOptions

	Metadata map[string]string
}

// DestinationID normalizes a destination id for case-insensitive comparison
// and map lookups.
func DestinationID(id string) string {
	return strings.ToLower(id)
}

// Clone returns a deep copy.
func (c ClusterSpec) Clone() ClusterSpec {
	n := c
	if c.Destinations != nil {
		n.Destinations = make(map[string]DestinationSpec, len(c.Destinations))
		for k, v := range c.Destinations {
			n.Destinations[k] = v.clone()
		}
	}
	n.Metadata = cloneStringMap(c.Metadata)
	if c.SessionAffinity != nil {
		v := *c.SessionAffinity
		n.SessionAffinity = &v
	}
	if c.HealthCheck != nil {
		v := *c.HealthCheck
		n.HealthCheck = &v
	}
	if c.HTTPClient != nil {
		v := c.HTTPClient.clone()
		n.HTTPClient = &v
	}
	if c.HTTPRequest != nil {
		v := *c.HTTPRequest
		n.HTTPRequest = &v
	}
	return n
}

// DestinationSpec is one physical backend within a ClusterSpec.
type DestinationSpec struct {
	// Address is an absolute URL, e.g. "https://10.0.0.1:8443/".
	Address string
	// Health, if set, is a dedicated probe URL distinct from Address.
	Health   string
	Metadata map[string]string
}

func (d DestinationSpec) clone() DestinationSpec {
	n := d
	n.Metadata = cloneStringMap(d.Metadata)
	return n
}

// SessionAffinityOptions configures sticky sessions for a cluster.
type SessionAffinityOptions struct {
	Enabled bool
	// FailurePolicy, if Enabled, must be registered with the host.
	FailurePolicy string
}

// HealthCheckOptions bundles active and passive health check configuration.
type HealthCheckOptions struct {
	Active  ActiveHealthCheckOptions
	Passive PassiveHealthCheckOptions
}

// ActiveHealthCheckOptions configures a scheduled probe against each
// destination. The probe scheduler itself lives outside the core; this
// is only the declarative knob set the scheduler is driven by.
type ActiveHealthCheckOptions struct {
	Enabled bool
	// IntervalSeconds and TimeoutSeconds must both be >= 0.
	IntervalSeconds float64
	TimeoutSeconds  float64
	// Policy, if Enabled, must be registered with the host.
	Policy string
	Path   string
}

// PassiveHealthCheckOptions configures reactions to observed request
// outcomes.
type PassiveHealthCheckOptions struct {
	Enabled bool
	// Policy, if Enabled, must be registered with the host.
	Policy string
	// ReactivationPeriodSeconds must be >= 0.
	ReactivationPeriodSeconds float64
}

// SSLProtocol is a bit in the HttpClientOptions.SSLProtocols bitset.
type SSLProtocol uint32

const (
	SSLProtocolTLS10 SSLProtocol = 1 << iota
	SSLProtocolTLS11
	SSLProtocolTLS12
	SSLProtocolTLS13
)

// HttpClientOptions configures the transport used to reach a cluster's
// destinations. Acquisitions for the same cluster id with structurally equal
// HttpClientOptions (see Fingerprint) share a transport via the client
// cache; different cluster ids never share one.
type HttpClientOptions struct {
	SSLProtocols SSLProtocol
	// MaxConnectionsPerServer, if set, must be positive.
	MaxConnectionsPerServer    int
	MaxConnectionsPerServerSet bool

	// ClientCertificate is an opaque handle; producing and rotating the
	// underlying certificate material is external to the core.
	ClientCertificate any

	DangerousAcceptAnyServerCertificate bool

	// RequestHeaderEncoding, if set, names an encoding for outgoing header
	// bytes (e.g. "Latin1"). It is part of the transport fingerprint, but the
	// transport internal/transport builds does not apply it: header bytes are
	// sent as given whatever this field holds.
	RequestHeaderEncoding string
}

func (o HttpClientOptions) clone() HttpClientOptions {
	return o
}

// HttpRequestOptions configures the outgoing request Go's HTTP client issues
// to a destination.
type HttpRequestOptions struct {
	// Version is "1.0", "1.1" or "2.0"; see validation.SupportedHTTPVersions.
	Version    string
	VersionSet bool

	ActivityTimeoutSeconds float64
	ActivityTimeoutSet     bool

	// VersionPolicy mirrors .NET's HttpVersionPolicy: "RequestVersionOrLower",
	// "RequestVersionOrHigher", "RequestVersionExact".
	VersionPolicy string
}
