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

// Package incoptimizer holds IncOptimizer, the driver that ties the
// InterfaceType/MethodImpl/MethodContainer/Class/TraitImpl components
// together into the incremental whole-program optimizer described by
// this repository.
package incoptimizer

import (
	"sort"
	"time"

	"github.com/golang/glog"
	"github.com/pkg/errors"
	"k8s.io/client-go/util/workqueue"

	"github.com/metac/incopt/class"
	"github.com/metac/incopt/interfacetype"
	"github.com/metac/incopt/invariant"
	"github.com/metac/incopt/ir"
	"github.com/metac/incopt/methodimpl"
)

// ErrMissingDependency is returned by Update when the analyzer reports
// a class whose superclass is absent from the current run's needed
// set. Per the error-handling design, this is fatal to the run but not
// to the process: the caller should rebuild a fresh IncOptimizer (forcing
// the next Update into batch mode) rather than reuse this one.
var ErrMissingDependency = errors.New("incoptimizer: missing dependency")

// IncOptimizer owns the entire program graph. Every MethodImpl,
// Class and TraitImpl constructed through it holds a reference back to
// it (as a methodimpl.Queue and methodimpl.Hooks), never to a
// package-level global: the lifetime of the graph is the lifetime of
// this value.
type IncOptimizer struct {
	classes     map[string]*class.Class
	traitImpls  map[string]*class.TraitImpl
	interfaces  *interfacetype.Registry
	objectClass *class.Class

	queue workqueue.Interface

	optimize methodimpl.BodyOptimizer
	emit     methodimpl.Emitter
	stats    *Stats
}

// New constructs an empty IncOptimizer. The first Update call runs in
// batch mode.
func New(opts ...Option) *IncOptimizer {
	o := &IncOptimizer{
		classes:    make(map[string]*class.Class),
		traitImpls: make(map[string]*class.TraitImpl),
		interfaces: interfacetype.NewRegistry(),
		queue:      workqueue.New(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Add implements methodimpl.Queue.
func (o *IncOptimizer) Add(m *methodimpl.MethodImpl) {
	o.queue.Add(m)
}

// Forget implements methodimpl.Queue. The underlying workqueue has no
// primitive to evict an item that is already sitting in its internal
// queue but not yet popped, so a deleted method is instead skipped at
// drain time (see drain below); Forget only needs to exist to satisfy
// the interface and to document that a physical removal was
// considered and is unnecessary under the single-threaded drain
// discipline this package relies on.
func (o *IncOptimizer) Forget(m *methodimpl.MethodImpl) {}

// Shutdown releases the optimizer's work queue. Call once the
// optimizer itself is being discarded (e.g. after ErrMissingDependency
// forces a rebuild in batch mode).
func (o *IncOptimizer) Shutdown() {
	o.queue.ShutDown()
}

// ObjectClass returns the root class, or nil before the first
// successful Update.
func (o *IncOptimizer) ObjectClass() *class.Class {
	return o.objectClass
}

// Classes exposes the current class index. Callers must not mutate
// the returned map; exported for tests and diagnostics.
func (o *IncOptimizer) Classes() map[string]*class.Class {
	return o.classes
}

// Update runs one incremental pass: diff the new analysis against
// stored state, mutate the graph, tag stale methods, then drain the
// tagged set through the body optimizer.
//
// Update is the sole recovery boundary for this package: an
// invariant.Assert failure partway through a pass can leave the graph
// with a partial mutation applied, so Update recovers exactly once
// here, flips objectClass back to nil to force the next call into
// batch mode (a full rebuild, the only state this package trusts
// after a partial mutation), and then re-panics so the failure still
// reaches the caller.
func (o *IncOptimizer) Update(analyzer ir.Analyzer, fetchTree ir.TreeSupplier) (err error) {
	defer func() {
		if r := recover(); r != nil {
			o.objectClass = nil
			panic(r)
		}
	}()
	return o.update(analyzer, fetchTree)
}

func (o *IncOptimizer) update(analyzer ir.Analyzer, fetchTree ir.TreeSupplier) error {
	start := time.Now()
	batchMode := o.objectClass == nil
	glog.V(3).Infof("Update starting (batchMode=%t)", batchMode)

	infos := analyzer.ClassInfos()
	neededClasses := make(map[string]*ir.ClassInfo)
	neededTraitImpls := make(map[string]*ir.ClassInfo)
	for name, info := range infos {
		if info.IsImplClass {
			neededTraitImpls[name] = info
			continue
		}
		if info.IsNeededAtAll {
			neededClasses[name] = info
		}
	}

	deletedCount := 0
	if !batchMode {
		deletedCount = o.walkDeletionsAndChanges(neededClasses, fetchTree)
	}

	o.reconcileTraitImpls(neededTraitImpls, fetchTree)

	constructedCount, err := o.constructAdditions(neededClasses, fetchTree, batchMode)
	if err != nil {
		return err
	}

	tagged := o.queue.Len()
	processed := o.drain()

	o.stats.recordRun(
		batchMode,
		time.Since(start).Seconds(),
		int64(processed),
		int64(tagged),
		int64(constructedCount),
		int64(deletedCount),
	)
	glog.V(3).Infof(
		"Update done (batchMode=%t, constructed=%d, deleted=%d, processed=%d)",
		batchMode, constructedCount, deletedCount, processed,
	)
	return nil
}

// walkDeletionsAndChanges runs the two top-down walks over the
// existing tree and returns the number of classes deleted.
func (o *IncOptimizer) walkDeletionsAndChanges(
	neededClasses map[string]*ir.ClassInfo,
	fetchTree ir.TreeSupplier,
) int {
	deleted := 0
	// The deletion walk only looks names up; the change walk below is
	// the one that removes every retained class from neededClasses, so
	// a deleted or moved class stays behind for the additions phase.
	get := func(name string) (*ir.ClassInfo, bool) {
		info, ok := neededClasses[name]
		return info, ok
	}
	o.objectClass.WalkClassesForDeletions(get, func(c *class.Class) {
		delete(o.classes, c.Name)
		deleted++
	})

	takeOrFail := func(name string) *ir.ClassInfo {
		info, ok := neededClasses[name]
		invariant.Assert(ok, "class %s missing from needed set during the change walk", name)
		delete(neededClasses, name)
		return info
	}
	o.objectClass.WalkForChanges(takeOrFail, fetchTree, nil)
	return deleted
}

// reconcileTraitImpls reconciles every trait impl against the needed
// set. Run unconditionally — in batch mode o.traitImpls starts empty, so the delete-absent half
// is a no-op and every needed impl lands in the create-new half below,
// which is exactly what batch mode requires anyway.
func (o *IncOptimizer) reconcileTraitImpls(needed map[string]*ir.ClassInfo, fetchTree ir.TreeSupplier) {
	for name, ti := range o.traitImpls {
		if _, ok := needed[name]; ok {
			continue
		}
		glog.V(4).Infof("%s: trait impl no longer needed", name)
		ti.DeleteAllMethods()
		delete(o.traitImpls, name)
	}
	for name, ti := range o.traitImpls {
		ti.Reconcile(needed[name], fetchTree)
	}

	var freshNames []string
	for name := range needed {
		if _, ok := o.traitImpls[name]; !ok {
			freshNames = append(freshNames, name)
		}
	}
	sort.Strings(freshNames)
	for _, name := range freshNames {
		ti := class.NewTraitImpl(name, o.interfaces.Get(name), o)
		ti.Reconcile(needed[name], fetchTree)
		o.traitImpls[name] = ti
	}
}

// constructAdditions constructs every remaining needed class, sorted
// ascending by ancestor count so a parent is
// always built before its children — the root itself, having ancestor
// count zero, is simply the first element processed.
func (o *IncOptimizer) constructAdditions(
	neededClasses map[string]*ir.ClassInfo,
	fetchTree ir.TreeSupplier,
	batchMode bool,
) (int, error) {
	remaining := make([]*ir.ClassInfo, 0, len(neededClasses))
	for _, info := range neededClasses {
		remaining = append(remaining, info)
	}
	sort.Slice(remaining, func(i, j int) bool {
		return remaining[i].AncestorCount < remaining[j].AncestorCount
	})

	for _, info := range remaining {
		var super *class.Class
		if info.SuperClass != nil {
			var ok bool
			super, ok = o.classes[info.SuperClass.EncodedName]
			if !ok {
				return 0, errors.Wrapf(
					ErrMissingDependency,
					"class %s: superclass %s not yet constructed",
					info.EncodedName, info.SuperClass.EncodedName,
				)
			}
		} else if o.objectClass != nil {
			invariant.Failf("second root class %s constructed; objectClass already set to %s", info.EncodedName, o.objectClass.Name)
		}

		c := class.New(info.EncodedName, super, o, o.interfaces)
		o.classes[info.EncodedName] = c
		if super == nil {
			o.objectClass = c
		}
		c.AfterConstruct(info, fetchTree, batchMode)
	}
	return len(remaining), nil
}

// drain pops elements from the work queue until it is empty, calling
// Process on each. New methods may be enqueued while draining — by
// body-optimizer callbacks registering fresh dependencies that
// immediately resolve to a stale tag, or in principle by a delete
// triggered mid-pass — so the loop re-checks length rather than
// iterating a fixed snapshot.
func (o *IncOptimizer) drain() int {
	processed := 0
	for o.queue.Len() > 0 {
		item, shutdown := o.queue.Get()
		if shutdown {
			return processed
		}
		m := item.(*methodimpl.MethodImpl)
		o.queue.Done(m)
		if m.Deleted() {
			continue
		}
		m.Process(o.optimize, o, o.emit)
		processed++
	}
	return processed
}
