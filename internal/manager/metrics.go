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

import "github.com/prometheus/client_golang/prometheus"

const (
	ReloadTotal            = "dynamicproxy_reload_total"
	ReloadFailureTotal     = "dynamicproxy_reload_failure_total"
	ReloadDurationSummary  = "dynamicproxy_reload_duration_seconds"
	SnapshotEndpointsGauge = "dynamicproxy_snapshot_endpoints"
)

// Metrics provides Prometheus metrics for the Config Manager, mirroring the
// one-struct-per-subsystem shape of Contour's internal/metrics.Metrics.
type Metrics struct {
	ReloadTotal        prometheus.Counter
	ReloadFailureTotal prometheus.Counter
	ReloadDuration     prometheus.Summary
	SnapshotEndpoints  prometheus.Gauge
}

// NewMetrics creates and registers a fresh Metrics against registry.
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		ReloadTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: ReloadTotal,
			Help: "Total number of configuration reload attempts.",
		}),
		ReloadFailureTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: ReloadFailureTotal,
			Help: "Total number of configuration reload attempts that failed.",
		}),
		ReloadDuration: prometheus.NewSummary(prometheus.SummaryOpts{
			Name: ReloadDurationSummary,
			Help: "Duration in seconds of each configuration reload attempt.",
		}),
		SnapshotEndpoints: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: SnapshotEndpointsGauge,
			Help: "Number of endpoints in the currently published snapshot.",
		}),
	}
	registry.MustRegister(m.ReloadTotal, m.ReloadFailureTotal, m.ReloadDuration, m.SnapshotEndpoints)
	return m
}
