/*
Copyright 2019 The MayaData Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    https://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Command incopt replays a directory of scenario steps through
// successive IncOptimizer.Update calls, printing which methods each
// step re-processed. It is a demo/debug harness, not the optimizer
// itself.
package main

import (
	"context"
	"flag"
	"io/ioutil"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"contrib.go.opencensus.io/exporter/prometheus"
	"github.com/golang/glog"
	"go.opencensus.io/stats/view"

	"github.com/metac/incopt/incoptimizer"
	"github.com/metac/incopt/ir"
	"github.com/metac/incopt/methodimpl"
	"github.com/metac/incopt/scenario"
)

var (
	scenarioDir = flag.String(
		"scenario-dir",
		"",
		"Directory of scenario step files (*.yaml or *.jsonnet), applied in lexical order",
	)
	debugAddr = flag.String(
		"debug-addr",
		":9999",
		"The address to bind the debug http endpoints (/metrics)",
	)
)

func main() {
	flag.Parse()

	if *scenarioDir == "" {
		glog.Fatal("--scenario-dir is required")
	}

	if err := view.Register(incoptimizer.DefaultViews...); err != nil {
		glog.Fatalf("Can't register opencensus views: %v", err)
	}
	exporter, err := prometheus.NewExporter(prometheus.Options{})
	if err != nil {
		glog.Fatalf("Can't create prometheus exporter: %v", err)
	}
	view.RegisterExporter(exporter)

	mux := http.NewServeMux()
	mux.Handle("/metrics", exporter)
	httpServer := &http.Server{
		Addr:    *debugAddr,
		Handler: mux,
	}
	go func() {
		glog.Errorf("Error serving metrics endpoint: %v", httpServer.ListenAndServe())
	}()

	steps, err := loadSteps(*scenarioDir)
	if err != nil {
		glog.Fatalf("Failed to load scenario %s: %v", *scenarioDir, err)
	}

	opt := incoptimizer.New(
		incoptimizer.WithBodyOptimizer(scenario.Optimize),
		incoptimizer.WithEmitter(loggingEmitter{}),
		incoptimizer.WithStats(incoptimizer.NewStats(context.Background())),
	)

	for i, path := range steps {
		step, err := loadStep(path)
		if err != nil {
			glog.Fatalf("Failed to load step %s: %v", path, err)
		}
		graph, err := scenario.BuildStep(step)
		if err != nil {
			glog.Fatalf("Failed to build step %s: %v", path, err)
		}
		glog.Infof("Applying step %d: %s", i, path)
		if err := opt.Update(graph, graph); err != nil {
			glog.Fatalf("Update failed on step %s: %v", path, err)
		}
	}

	sigchan := make(chan os.Signal, 2)
	signal.Notify(sigchan, os.Interrupt, syscall.SIGTERM)
	sig := <-sigchan
	glog.Infof("Received %q signal. Shutting down...", sig)
	opt.Shutdown()
	httpServer.Shutdown(context.Background())
}

func loadSteps(dir string) ([]string, error) {
	entries, err := ioutil.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := filepath.Ext(e.Name())
		if ext != ".yaml" && ext != ".yml" && ext != ".jsonnet" {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

func loadStep(path string) (scenario.Step, error) {
	if strings.HasSuffix(path, ".jsonnet") {
		return scenario.LoadStepJsonnet(path, nil)
	}
	return scenario.LoadStepYAML(path)
}

// loggingEmitter logs every method the body optimizer produced output
// for, at glog.V(2).
type loggingEmitter struct{}

func (loggingEmitter) Emit(ownerName string, owner methodimpl.OwnerKind, methodName string, optimized *ir.MethodDef) {
	glog.V(2).Infof("emit %s %s.%s", owner, ownerName, methodName)
}
