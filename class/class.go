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

// Package class holds the two concrete MethodContainer variants —
// Class and TraitImpl — and the hierarchy-maintenance walks that are
// the heart of the invalidation engine.
package class

import (
	"github.com/golang/glog"
	"k8s.io/apimachinery/pkg/util/diff"

	"github.com/metac/incopt/container"
	"github.com/metac/incopt/interfacetype"
	"github.com/metac/incopt/invariant"
	"github.com/metac/incopt/ir"
	"github.com/metac/incopt/methodimpl"
)

// InfoLookupFunc looks up the remaining-needed ClassInfo for name. The
// driver's lookup leaves the name in neededClasses: a class the
// deletion walk removes (deleted or moved) must still be there for the
// additions phase, and the change walk that follows is the one that
// takes each retained name out.
type InfoLookupFunc func(name string) (info *ir.ClassInfo, present bool)

// InfoLookupOrFailFunc is the changes-walk counterpart: by the time
// WalkForChanges runs, every remaining name is expected present; a
// miss is an invariant violation, not a recoverable case.
type InfoLookupOrFailFunc func(name string) *ir.ClassInfo

// Class participates in a class hierarchy tree with parent/child
// links and tracks its implemented interfaces and instantiation
// status.
type Class struct {
	container.MethodContainer

	registry *interfacetype.Registry

	SuperClass *Class
	Subclasses []*Class

	// Interfaces holds the InterfaceType of every interface this class
	// implements, keyed by encoded name: every ancestor reported by the
	// last analysis, plus the class's own entry (MyInterface) — a class
	// is always a subtype of itself, so a dynamic call whose static
	// receiver type happens to be this exact class must still resolve
	// through it.
	Interfaces map[string]*interfacetype.InterfaceType

	// MyInterface is this class's own InterfaceType — the target of
	// static calls against this class by name. Always also present in
	// Interfaces under c.Name; kept as its own field because static
	// calls and self-construction need it before Interfaces is first
	// populated.
	MyInterface *interfacetype.InterfaceType

	IsInstantiated bool
}

// New constructs a Class. super must be non-nil for every class
// except the root; the caller (the driver) is responsible for having
// already confirmed super exists in its own class index — construction
// itself only enforces the link once super is supplied.
func New(name string, super *Class, queue methodimpl.Queue, registry *interfacetype.Registry) *Class {
	myInterface := registry.Get(name)
	c := &Class{
		MethodContainer: container.New(name, methodimpl.OwnerClass, queue),
		registry:        registry,
		SuperClass:      super,
		Interfaces:      map[string]*interfacetype.InterfaceType{name: myInterface},
		MyInterface:     myInterface,
	}
	if super != nil {
		super.Subclasses = append(super.Subclasses, c)
	}
	return c
}

// EncodedName implements interfacetype.InstantiatedSubclass.
func (c *Class) EncodedName() string {
	return c.Name
}

// LookupMethod walks the parent chain from this class upward,
// returning the first concrete definition found.
func (c *Class) LookupMethod(name string) (*methodimpl.MethodImpl, bool) {
	for cur := c; cur != nil; cur = cur.SuperClass {
		if m, ok := cur.Lookup(name); ok {
			return m, true
		}
	}
	return nil, false
}

// AllMethods flattens the reverse parent chain into a name → impl map,
// with children overriding parents. Not cached: callers either walk it
// once per step or accept the cost as amortized against ingestion.
func (c *Class) AllMethods() map[string]*methodimpl.MethodImpl {
	var chain []*Class
	for cur := c; cur != nil; cur = cur.SuperClass {
		chain = append(chain, cur)
	}
	out := make(map[string]*methodimpl.MethodImpl)
	for i := len(chain) - 1; i >= 0; i-- {
		for name, m := range chain[i].Methods() {
			out[name] = m
		}
	}
	return out
}

// NotInstantiatedAnymore flips IsInstantiated to false and, for every
// interface this class implements (including MyInterface — a class is
// always a subtype of itself, so Interfaces carries its own entry),
// removes it from that interface's instantiated-subclass set and tags
// every dynamic caller of every method name this class exposes — a
// dynamic dispatch that previously could resolve to c may now resolve
// elsewhere, or not at all.
func (c *Class) NotInstantiatedAnymore() {
	c.IsInstantiated = false
	allNames := c.AllMethods()
	for _, it := range c.Interfaces {
		it.RemoveInstantiatedSubclass(c)
		for name := range allNames {
			it.TagDynamicCallersOf(name)
		}
	}
}

// WalkClassesForDeletions walks top-down from c, comparing against
// getInfoIfNeeded. onDeleted is invoked once per class removed from
// the tree (c itself or any descendant) so the driver can drop it
// from its own class index. Returns false iff c itself was deleted.
func (c *Class) WalkClassesForDeletions(getInfoIfNeeded InfoLookupFunc, onDeleted func(*Class)) bool {
	info, present := getInfoIfNeeded(c.Name)

	moved := present && !sameSuperclassName(c.SuperClass, info.SuperClass)
	if !present || moved {
		invariant.Assert(c.SuperClass != nil, "root class %s must never be deleted", c.Name)
		glog.V(4).Infof("%s: deleting subtree (present=%t moved=%t)", c.Name, present, moved)
		c.deleteSubtree(onDeleted)
		return false
	}

	var retained []*Class
	for _, child := range c.Subclasses {
		if child.WalkClassesForDeletions(getInfoIfNeeded, onDeleted) {
			retained = append(retained, child)
		}
	}
	c.Subclasses = retained

	if c.IsInstantiated && !info.IsInstantiated {
		c.NotInstantiatedAnymore()
	}
	return true
}

func sameSuperclassName(super *Class, infoSuper *ir.ClassInfo) bool {
	if super == nil {
		return infoSuper == nil
	}
	if infoSuper == nil {
		return false
	}
	return super.Name == infoSuper.EncodedName
}

// deleteSubtree depth-first deletes c and every descendant.
func (c *Class) deleteSubtree(onDeleted func(*Class)) {
	for _, child := range c.Subclasses {
		child.deleteSubtree(onDeleted)
	}
	c.Subclasses = nil
	if c.IsInstantiated {
		c.NotInstantiatedAnymore()
	}
	c.DeleteAllMethods()
	onDeleted(c)
}

// WalkForChanges runs top-down over the retained tree, reconciling
// methods, recomputing implemented interfaces, propagating the
// inlineable-method-change set, and tagging callers.
func (c *Class) WalkForChanges(
	getInfo InfoLookupOrFailFunc,
	fetchTree ir.TreeSupplier,
	parentInlineableMethodChanges map[string]struct{},
) {
	info := getInfo(c.Name)

	added, changed, removed := c.UpdateMethodsWith(info, fetchTree)

	oldInterfaces := c.Interfaces
	newInterfaces := computeInterfaces(info, c.registry)
	c.Interfaces = newInterfaces

	childChanges := make(map[string]struct{})
	methodKeys := c.Methods()
	for name := range parentInlineableMethodChanges {
		if _, overridden := methodKeys[name]; !overridden {
			childChanges[name] = struct{}{}
		}
	}
	for _, name := range added {
		childChanges[name] = struct{}{}
	}
	for _, name := range changed {
		childChanges[name] = struct{}{}
	}
	for _, name := range removed {
		childChanges[name] = struct{}{}
	}

	wasInstantiated := c.IsInstantiated
	invariant.Assert(
		!(wasInstantiated && !info.IsInstantiated),
		"class %s: instantiation turned off reached WalkForChanges; the deletion walk must handle this first",
		c.Name,
	)
	c.IsInstantiated = info.IsInstantiated

	if c.IsInstantiated {
		if wasInstantiated {
			// newInterfaces always carries c.Name (MyInterface never
			// drops out of a class's own interface set), so this loop
			// also covers the c.MyInterface case without a separate
			// special-case branch.
			for name, it := range newInterfaces {
				if _, stillThere := oldInterfaces[name]; !stillThere {
					continue
				}
				for methodName := range childChanges {
					it.TagDynamicCallersOf(methodName)
				}
			}
			if changedSet, sym := symmetricDifference(oldInterfaces, newInterfaces); changedSet {
				if glog.V(5) {
					glog.Infof(
						"%s: interface set changed:\n%s",
						c.Name,
						diff.ObjectReflectDiff(interfaceNames(oldInterfaces), interfaceNames(newInterfaces)),
					)
				}
				all := c.AllMethods()
				for _, it := range sym {
					for methodName := range all {
						it.TagDynamicCallersOf(methodName)
					}
				}
			}
		} else {
			all := c.AllMethods()
			for _, it := range newInterfaces {
				it.AddInstantiatedSubclass(c)
				for methodName := range all {
					it.TagDynamicCallersOf(methodName)
				}
			}
		}
	}

	for methodName := range childChanges {
		c.MyInterface.TagStaticCallersOf(methodName)
	}

	for _, child := range c.Subclasses {
		child.WalkForChanges(getInfo, fetchTree, childChanges)
	}
}

// AfterConstruct runs the additions-phase bookkeeping for a freshly
// constructed class. batchMode suppresses caller notifications —
// there are no callers yet during the first run.
func (c *Class) AfterConstruct(info *ir.ClassInfo, fetchTree ir.TreeSupplier, batchMode bool) {
	c.Interfaces = computeInterfaces(info, c.registry)
	c.IsInstantiated = info.IsInstantiated
	c.UpdateMethodsWith(info, fetchTree)

	if c.IsInstantiated {
		for _, it := range c.Interfaces {
			it.AddInstantiatedSubclass(c)
		}
		if !batchMode {
			all := c.AllMethods()
			for _, it := range c.Interfaces {
				for methodName := range all {
					it.TagDynamicCallersOf(methodName)
				}
			}
		}
	}

	if !batchMode {
		all := c.AllMethods()
		for methodName := range all {
			// The class may be a move: something out there may have
			// statically referenced this name already.
			c.MyInterface.TagStaticCallersOf(methodName)
		}
	}
}

// computeInterfaces returns every interface info's class implements:
// its ancestors, plus its own entry — a class is always a subtype of
// itself, so the map this feeds (Class.Interfaces) must carry that
// entry directly rather than via a parallel helper.
func computeInterfaces(info *ir.ClassInfo, registry *interfacetype.Registry) map[string]*interfacetype.InterfaceType {
	out := make(map[string]*interfacetype.InterfaceType, len(info.Ancestors)+1)
	for _, ancestor := range info.Ancestors {
		out[ancestor.EncodedName] = registry.Get(ancestor.EncodedName)
	}
	out[info.EncodedName] = registry.Get(info.EncodedName)
	return out
}

func symmetricDifference(
	old, new map[string]*interfacetype.InterfaceType,
) (changed bool, sym []*interfacetype.InterfaceType) {
	for name, it := range old {
		if _, ok := new[name]; !ok {
			sym = append(sym, it)
		}
	}
	for name, it := range new {
		if _, ok := old[name]; !ok {
			sym = append(sym, it)
		}
	}
	return len(sym) > 0, sym
}

func interfaceNames(m map[string]*interfacetype.InterfaceType) []string {
	out := make([]string, 0, len(m))
	for name := range m {
		out = append(out, name)
	}
	return out
}
