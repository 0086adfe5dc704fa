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

package incoptimizer

import (
	"context"

	"go.opencensus.io/stats"
	"go.opencensus.io/stats/view"
	"go.opencensus.io/tag"
)

var (
	methodsProcessed = stats.Int64(
		"incopt/methods_processed",
		"Number of MethodImpl.Process calls completed by a run",
		stats.UnitDimensionless,
	)
	methodsTagged = stats.Int64(
		"incopt/methods_tagged",
		"Number of methods added to the work queue during a run",
		stats.UnitDimensionless,
	)
	classesConstructed = stats.Int64(
		"incopt/classes_constructed",
		"Number of Class values constructed during a run",
		stats.UnitDimensionless,
	)
	classesDeleted = stats.Int64(
		"incopt/classes_deleted",
		"Number of Class values deleted during a run",
		stats.UnitDimensionless,
	)
	updateDurationSeconds = stats.Float64(
		"incopt/update_duration_seconds",
		"Wall-clock duration of a single Update call",
		stats.UnitSeconds,
	)

	// BatchModeKey tags every recorded measurement with whether the run
	// that produced it was the batch (first) run.
	BatchModeKey = tag.MustNewKey("batch_mode")
)

// DefaultViews are the opencensus views an embedding binary should
// register with view.Register before the first Update call, ahead of
// serving /metrics (cmd/incopt wires this through
// contrib.go.opencensus.io/exporter/prometheus the same way a
// controller runtime registers its own views).
var DefaultViews = []*view.View{
	{
		Name:        "incopt/methods_processed_total",
		Measure:     methodsProcessed,
		Aggregation: view.Sum(),
		TagKeys:     []tag.Key{BatchModeKey},
	},
	{
		Name:        "incopt/methods_tagged_total",
		Measure:     methodsTagged,
		Aggregation: view.Sum(),
		TagKeys:     []tag.Key{BatchModeKey},
	},
	{
		Name:        "incopt/classes_constructed_total",
		Measure:     classesConstructed,
		Aggregation: view.Sum(),
		TagKeys:     []tag.Key{BatchModeKey},
	},
	{
		Name:        "incopt/classes_deleted_total",
		Measure:     classesDeleted,
		Aggregation: view.Sum(),
		TagKeys:     []tag.Key{BatchModeKey},
	},
	{
		Name:        "incopt/update_duration_seconds",
		Measure:     updateDurationSeconds,
		Aggregation: view.Distribution(0, .005, .01, .05, .1, .5, 1, 5, 10, 30),
		TagKeys:     []tag.Key{BatchModeKey},
	},
}

// Stats records opencensus measurements for one IncOptimizer. A nil
// *Stats is valid and records nothing, so constructing an IncOptimizer
// without WithStats costs nothing beyond the nil check.
type Stats struct {
	ctx context.Context
}

// NewStats returns a Stats bound to ctx, which should already carry
// any process-wide tags (pod name, controller name, ...) the embedding
// binary wants attached to every measurement.
func NewStats(ctx context.Context) *Stats {
	return &Stats{ctx: ctx}
}

func (s *Stats) recordRun(batchMode bool, seconds float64, processed, tagged, constructed, deleted int64) {
	if s == nil {
		return
	}
	ctx, err := tag.New(s.ctx, tag.Upsert(BatchModeKey, boolTagValue(batchMode)))
	if err != nil {
		// Tag construction only fails on malformed keys, which are
		// compile-time constants here; treat as unreachable.
		return
	}
	stats.Record(
		ctx,
		methodsProcessed.M(processed),
		methodsTagged.M(tagged),
		classesConstructed.M(constructed),
		classesDeleted.M(deleted),
		updateDurationSeconds.M(seconds),
	)
}

func boolTagValue(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
