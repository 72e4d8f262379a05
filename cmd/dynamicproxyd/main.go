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

// dynamicproxyd is a demo embedding host: it wires the config manager
// to a YAML file on disk and exposes its reload metrics over HTTP. It
// exists to exercise the module end to end, not as a production proxy —
// a real embedder supplies its own ConfigProvider, policyapi.Registry and
// validation.PathMatcher.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kingpin/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"go.uber.org/automaxprocs/maxprocs"

	"github.com/dynamicproxy/core/internal/filter"
	"github.com/dynamicproxy/core/internal/httpsvc"
	"github.com/dynamicproxy/core/internal/manager"
	"github.com/dynamicproxy/core/internal/transport"
	"github.com/dynamicproxy/core/internal/validation"
	"github.com/dynamicproxy/core/internal/workgroup"
	"github.com/dynamicproxy/core/internal/yamlprovider"
)

func main() {
	log := logrus.StandardLogger()
	if _, err := maxprocs.Set(maxprocs.Logger(log.Infof)); err != nil {
		log.WithError(err).Warn("could not set GOMAXPROCS")
	}

	app := kingpin.New("dynamicproxyd", "Demo host for the dynamic proxy configuration core.")
	app.HelpFlag.Short('h')

	var (
		configPath  string
		metricsAddr string
		metricsPort int
	)
	app.Flag("config", "Path to the YAML route/cluster configuration file.").
		Default("config.yaml").Envar("DYNAMICPROXYD_CONFIG").StringVar(&configPath)
	app.Flag("metrics-address", "Address the metrics HTTP server listens on.").
		Default("0.0.0.0").Envar("DYNAMICPROXYD_METRICS_ADDRESS").StringVar(&metricsAddr)
	app.Flag("metrics-port", "Port the metrics HTTP server listens on.").
		Default("8002").Envar("DYNAMICPROXYD_METRICS_PORT").IntVar(&metricsPort)

	kingpin.MustParse(app.Parse(os.Args[1:]))

	registry := prometheus.NewRegistry()
	metrics := manager.NewMetrics(registry)

	provider := yamlprovider.New(configPath, log.WithField("context", "yamlprovider"))
	mgr := manager.New(
		provider,
		filter.NewChain(),
		validation.NewStaticRegistry(),
		alwaysValidPaths{},
		transport.NewFactory(),
		nil,
		log.WithField("context", "manager"),
		metrics,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := mgr.InitialLoad(ctx); err != nil {
		log.WithError(err).Fatal("initial configuration load failed")
	}
	log.WithField("endpoints", len(mgr.Endpoints())).Info("loaded initial configuration")

	metricsvc := httpsvc.Service{
		Addr:        metricsAddr,
		Port:        metricsPort,
		FieldLogger: log.WithField("context", "metricsvc"),
	}
	metricsvc.ServeMux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	var group workgroup.Group
	group.Add(provider.Start)
	group.Add(mgr.Run)
	group.Add(metricsvc.Start)

	if err := group.Run(ctx); err != nil {
		log.WithError(err).Fatal("dynamicproxyd exited with error")
	}
}

// alwaysValidPaths is a placeholder validation.PathMatcher: it accepts every
// pattern. A real embedder delegates this to its request matcher's own
// pattern grammar; this demo host has no such matcher to delegate to.
type alwaysValidPaths struct{}

func (alwaysValidPaths) ValidatePattern(string) error { return nil }
