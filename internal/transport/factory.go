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

// Package transport implements the HTTP Client Factory & Cache: transport
// handles are keyed on the structural fingerprint of (cluster_id,
// HttpClientOptions) and reference-counted so a retired ClusterState's
// transport drains in-flight work before it's disposed.
package transport

import (
	"crypto/tls"
	"net/http"
	"sync"
	"time"

	"dario.cat/mergo"
	"golang.org/x/net/http2"

	"github.com/dynamicproxy/core/pkg/config"
)

// DefaultDrainInterval is the grace period a retired transport is kept
// alive for in-flight requests before disposal. The exact value is left
// implementation-defined but must be nonzero.
const DefaultDrainInterval = 30 * time.Second

// defaultOptions is merged under any caller-supplied HttpClientOptions
// before fingerprinting, so two clusters that only set, say,
// MaxConnectionsPerServer still get a consistent TLS floor.
var defaultOptions = config.HttpClientOptions{
	SSLProtocols: config.SSLProtocolTLS12 | config.SSLProtocolTLS13,
}

// Handle is a reference-counted, shareable transport. Callers that borrow a
// Handle across a request must call Return when done; Acquire itself holds
// one implicit reference for the ClusterState that owns it.
type Handle struct {
	Fingerprint string
	RoundTripper http.RoundTripper
	// closer disposes of idle connections; called once, after the drain
	// interval, once the reference count reaches zero.
	closer func()

	mu       sync.Mutex
	refCount int
	draining bool
}

func newHandle(fingerprint string, rt http.RoundTripper, closer func()) *Handle {
	return &Handle{Fingerprint: fingerprint, RoundTripper: rt, closer: closer, refCount: 1}
}

// Borrow increments the reference count. Returns false if the handle is
// already draining and must not accept new borrows.
func (h *Handle) Borrow() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.draining {
		return false
	}
	h.refCount++
	return true
}

// Return releases a borrowed reference.
func (h *Handle) Return() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.refCount--
	h.maybeDisposeLocked()
}

// retire marks the handle as no longer the current transport for its
// cluster and releases the implicit reference Acquire held. No new borrows
// are accepted after this; existing borrows complete and call Return.
func (h *Handle) retire() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.draining = true
	h.refCount--
	h.maybeDisposeLocked()
}

func (h *Handle) maybeDisposeLocked() {
	if h.draining && h.refCount <= 0 && h.closer != nil {
		closer := h.closer
		h.closer = nil
		closer()
	}
}

// Factory builds and caches Handles keyed by fingerprint.
type Factory struct {
	DrainInterval time.Duration

	mu      sync.Mutex
	handles map[string]*Handle
}

// NewFactory returns a Factory with the default drain interval.
func NewFactory() *Factory {
	return &Factory{DrainInterval: DefaultDrainInterval, handles: map[string]*Handle{}}
}

// Acquire implements the acquire operation: if previous is
// non-nil and its fingerprint still matches the freshly computed one, it is
// returned unchanged (testable property 7: transport reuse). Otherwise the
// cached handle for that fingerprint is shared if it exists and is not
// draining, or else a new transport is constructed; either way the previous
// handle, if any, is scheduled for drained disposal.
func (f *Factory) Acquire(clusterID string, opts config.HttpClientOptions, previous *Handle) (*Handle, error) {
	merged := opts
	if err := mergo.Merge(&merged, defaultOptions); err != nil {
		return nil, err
	}
	fingerprint := merged.Fingerprint(clusterID)

	if previous != nil && previous.Fingerprint == fingerprint {
		return previous, nil
	}

	f.mu.Lock()
	handle, ok := f.handles[fingerprint]
	if ok {
		handle.mu.Lock()
		reusable := !handle.draining
		if reusable {
			handle.refCount++
		}
		handle.mu.Unlock()
		f.mu.Unlock()
		if reusable {
			if previous != nil {
				f.retire(previous)
			}
			return handle, nil
		}
	} else {
		f.mu.Unlock()
	}

	rt := buildRoundTripper(merged)
	handle = newHandle(fingerprint, rt, func() {
		f.mu.Lock()
		delete(f.handles, fingerprint)
		f.mu.Unlock()
		if closer, ok := rt.(interface{ CloseIdleConnections() }); ok {
			closer.CloseIdleConnections()
		}
	})

	f.mu.Lock()
	f.handles[fingerprint] = handle
	f.mu.Unlock()

	if previous != nil {
		f.retire(previous)
	}
	return handle, nil
}

// retire schedules h for disposal after the drain interval, unless other
// ClusterStates still reference the same fingerprint (handled by the
// refcount, not by identity of h itself).
func (f *Factory) retire(h *Handle) {
	interval := f.DrainInterval
	if interval <= 0 {
		interval = DefaultDrainInterval
	}
	time.AfterFunc(interval, h.retire)
}

func buildRoundTripper(opts config.HttpClientOptions) http.RoundTripper {
	tlsConfig := &tls.Config{
		InsecureSkipVerify: opts.DangerousAcceptAnyServerCertificate,
		MinVersion:         minTLSVersion(opts.SSLProtocols),
		MaxVersion:         maxTLSVersion(opts.SSLProtocols),
	}
	if cert, ok := opts.ClientCertificate.(tls.Certificate); ok {
		tlsConfig.Certificates = []tls.Certificate{cert}
	}

	base := &http.Transport{
		TLSClientConfig: tlsConfig,
	}
	if opts.MaxConnectionsPerServerSet {
		base.MaxConnsPerHost = opts.MaxConnectionsPerServer
		base.MaxIdleConnsPerHost = opts.MaxConnectionsPerServer
	}

	if err := http2.ConfigureTransport(base); err != nil {
		// HTTP/2 upgrade is best-effort; base remains a valid HTTP/1.1
		// transport either way.
		return base
	}
	return base
}

func minTLSVersion(protocols config.SSLProtocol) uint16 {
	switch {
	case protocols&config.SSLProtocolTLS10 != 0:
		return tls.VersionTLS10
	case protocols&config.SSLProtocolTLS11 != 0:
		return tls.VersionTLS11
	case protocols&config.SSLProtocolTLS12 != 0:
		return tls.VersionTLS12
	case protocols&config.SSLProtocolTLS13 != 0:
		return tls.VersionTLS13
	default:
		return tls.VersionTLS12
	}
}

func maxTLSVersion(protocols config.SSLProtocol) uint16 {
	switch {
	case protocols&config.SSLProtocolTLS13 != 0:
		return tls.VersionTLS13
	case protocols&config.SSLProtocolTLS12 != 0:
		return tls.VersionTLS12
	case protocols&config.SSLProtocolTLS11 != 0:
		return tls.VersionTLS11
	case protocols&config.SSLProtocolTLS10 != 0:
		return tls.VersionTLS10
	default:
		return tls.VersionTLS13
	}
}
