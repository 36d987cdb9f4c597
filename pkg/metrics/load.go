/*
Copyright 2025.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"sigs.k8s.io/controller-runtime/pkg/metrics"
)

// Outcome labels for libload_library_loads_total
const (
	ResultLoaded  = "loaded"
	ResultSkipped = "skipped"
	ResultFailed  = "failed"
)

var (
	// Library load metrics
	libraryLoadsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "libload_library_loads_total",
		Help: "Total number of library load outcomes",
	}, []string{"result"})

	libraryLoadDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "libload_library_load_duration_seconds",
		Help:    "Duration of native library load attempts",
		Buckets: prometheus.ExponentialBuckets(0.0001, 2, 14), // 100us to ~1.6s
	}, []string{"result"})

	librariesLoaded = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "libload_libraries_loaded",
		Help: "Number of libraries loaded through the process-wide status table",
	})

	// Plan metrics
	planSize = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "libload_plan_size",
		Help:    "Number of libraries in computed load plans",
		Buckets: prometheus.LinearBuckets(1, 8, 8),
	})

	cyclesDetectedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "libload_cycles_detected_total",
		Help: "Total number of dependency cycles detected while planning",
	})
)

func init() {
	// Register load metrics with controller-runtime's registry
	metrics.Registry.MustRegister(
		libraryLoadsTotal,
		libraryLoadDuration,
		librariesLoaded,
		planSize,
		cyclesDetectedTotal,
	)
}

// RecordLoad records a native load attempt
// result: ResultLoaded or ResultFailed
func RecordLoad(result string, durationSeconds float64) {
	libraryLoadsTotal.WithLabelValues(result).Inc()
	libraryLoadDuration.WithLabelValues(result).Observe(durationSeconds)
}

// RecordSkip records a library that was already loaded
func RecordSkip() {
	libraryLoadsTotal.WithLabelValues(ResultSkipped).Inc()
}

// RecordPlan records the size of a computed load plan
func RecordPlan(size int) {
	planSize.Observe(float64(size))
}

// RecordCycle records a detected dependency cycle
func RecordCycle() {
	cyclesDetectedTotal.Inc()
}

// SetLibrariesLoaded sets the gauge for libraries loaded through the
// process-wide status table
func SetLibrariesLoaded(count int) {
	librariesLoaded.Set(float64(count))
}
