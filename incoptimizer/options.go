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
	"github.com/metac/incopt/methodimpl"
)

// Option represents the functional way to construct an IncOptimizer.
//
// This follows a functional option pattern.
type Option func(*IncOptimizer)

// WithBodyOptimizer sets the external method-body optimizer every
// MethodImpl.Process call should invoke.
func WithBodyOptimizer(optimize methodimpl.BodyOptimizer) Option {
	return func(o *IncOptimizer) {
		o.optimize = optimize
	}
}

// WithEmitter sets the collaborator that receives every method's
// optimized IR once processed.
func WithEmitter(emit methodimpl.Emitter) Option {
	return func(o *IncOptimizer) {
		o.emit = emit
	}
}

// WithStats attaches an opencensus-backed Stats recorder to the
// optimizer. Without this option Update runs with metrics disabled.
func WithStats(stats *Stats) Option {
	return func(o *IncOptimizer) {
		o.stats = stats
	}
}
