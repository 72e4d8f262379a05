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

// Package yamlprovider is a demo implementation of the manager.ConfigProvider
// contract. It is an
// external collaborator of the core, not part of it, the way Contour's own
// Kubernetes informer-backed cache sits outside internal/dag's translation
// logic.
package yamlprovider

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/dynamicproxy/core/pkg/config"
)

// pollInterval is how often Start checks the backing file's modification
// time. A real deployment would watch the file with inotify; polling keeps
// this demo provider free of a file-watching dependency.
const pollInterval = 2 * time.Second

// document is the on-disk YAML shape this provider understands.
type document struct {
	Routes   []routeDocument   `yaml:"routes"`
	Clusters []clusterDocument `yaml:"clusters"`
}

type routeDocument struct {
	RouteID             string            `yaml:"route_id"`
	ClusterID           string            `yaml:"cluster_id"`
	Hosts               []string          `yaml:"hosts"`
	Path                *string           `yaml:"path"`
	Methods             []string          `yaml:"methods"`
	Order               *int32            `yaml:"order"`
	AuthorizationPolicy string            `yaml:"authorization_policy"`
	CorsPolicy          string            `yaml:"cors_policy"`
	Metadata            map[string]string `yaml:"metadata"`
}

func (d routeDocument) toRouteSpec() config.RouteSpec {
	r := config.RouteSpec{
		RouteID:   d.RouteID,
		ClusterID: d.ClusterID,
		Match: config.RouteMatch{
			Hosts:   d.Hosts,
			Methods: d.Methods,
		},
		AuthorizationPolicy: d.AuthorizationPolicy,
		CorsPolicy:          d.CorsPolicy,
		Metadata:            d.Metadata,
	}
	if d.Path != nil {
		r.Match.Path = *d.Path
		r.Match.PathSet = true
	}
	if d.Order != nil {
		r.Order = *d.Order
		r.OrderSet = true
	}
	return r
}

type clusterDocument struct {
	ClusterID           string            `yaml:"cluster_id"`
	Destinations        map[string]string `yaml:"destinations"`
	LoadBalancingPolicy string            `yaml:"load_balancing_policy"`
	HTTPRequestVersion  string            `yaml:"http_request_version"`
}

func (d clusterDocument) toClusterSpec() config.ClusterSpec {
	c := config.ClusterSpec{
		ClusterID:           d.ClusterID,
		LoadBalancingPolicy: d.LoadBalancingPolicy,
	}
	if len(d.Destinations) > 0 {
		c.Destinations = make(map[string]config.DestinationSpec, len(d.Destinations))
		for id, address := range d.Destinations {
			c.Destinations[id] = config.DestinationSpec{Address: address}
		}
	}
	if d.HTTPRequestVersion != "" {
		c.HTTPRequest = &config.HttpRequestOptions{Version: d.HTTPRequestVersion, VersionSet: true}
	}
	return c
}

// Provider reads (routes, clusters) from a YAML file and polls it for
// changes.
type Provider struct {
	Path string
	Log  logrus.FieldLogger

	changes chan struct{}

	mu      sync.Mutex
	modTime time.Time
}

// New returns a Provider that reads path. Call Start to begin polling for
// changes; Fetch works without Start having been called.
func New(path string, log logrus.FieldLogger) *Provider {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Provider{Path: path, Log: log, changes: make(chan struct{}, 1)}
}

// Fetch implements manager.ConfigProvider.
func (p *Provider) Fetch(_ context.Context) ([]config.RouteSpec, []config.ClusterSpec, error) {
	raw, err := os.ReadFile(p.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("read %s: %w", p.Path, err)
	}

	var doc document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, nil, fmt.Errorf("parse %s: %w", p.Path, err)
	}

	routes := make([]config.RouteSpec, 0, len(doc.Routes))
	for _, r := range doc.Routes {
		routes = append(routes, r.toRouteSpec())
	}
	clusters := make([]config.ClusterSpec, 0, len(doc.Clusters))
	for _, c := range doc.Clusters {
		clusters = append(clusters, c.toClusterSpec())
	}
	return routes, clusters, nil
}

// Changes implements manager.ConfigProvider.
func (p *Provider) Changes() <-chan struct{} {
	return p.changes
}

// Start polls Path's modification time until ctx is canceled, notifying
// Changes on every observed change. Compatible with
// internal/workgroup.Group's Add contract.
func (p *Provider) Start(ctx context.Context) error {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			info, err := os.Stat(p.Path)
			if err != nil {
				p.Log.WithError(err).Warn("could not stat config file")
				continue
			}
			p.mu.Lock()
			changed := !info.ModTime().Equal(p.modTime)
			p.modTime = info.ModTime()
			p.mu.Unlock()
			if !changed {
				continue
			}
			select {
			case p.changes <- struct{}{}:
			default:
			}
		}
	}
}
