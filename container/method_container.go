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

// Package container holds MethodContainer, the common substrate
// shared by Class and TraitImpl: a map of method name to MethodImpl,
// and the last-seen version token of the containing class tree.
//
// The reconciliation shape (delete-not-desired, create-missing,
// update-changed) is the same observed-vs-desired triple
// controller/common's attachment manager runs for Kubernetes child
// objects, here run over method names instead.
package container

import (
	"sort"

	"github.com/golang/glog"

	"github.com/metac/incopt/ir"
	"github.com/metac/incopt/methodimpl"
)

// MethodContainer is embedded by class.Class and class.TraitImpl.
type MethodContainer struct {
	Name string

	OwnerKind methodimpl.OwnerKind

	methods     map[string]*methodimpl.MethodImpl
	lastVersion *ir.VersionToken

	queue methodimpl.Queue
}

// New constructs an empty MethodContainer for name.
func New(name string, owner methodimpl.OwnerKind, queue methodimpl.Queue) MethodContainer {
	return MethodContainer{
		Name:      name,
		OwnerKind: owner,
		methods:   make(map[string]*methodimpl.MethodImpl),
		queue:     queue,
	}
}

// Methods returns the live (non-deleted) method map. Callers must not
// mutate it.
func (c *MethodContainer) Methods() map[string]*methodimpl.MethodImpl {
	return c.methods
}

// Lookup returns the method named name if this container has one.
func (c *MethodContainer) Lookup(name string) (*methodimpl.MethodImpl, bool) {
	m, ok := c.methods[name]
	return m, ok
}

// DeleteAllMethods removes and deletes every method, used when this
// container itself is being torn down.
func (c *MethodContainer) DeleteAllMethods() {
	for name, m := range c.methods {
		m.Delete()
		delete(c.methods, name)
	}
}

// reachableSet returns the set of method names that are reachable and
// not abstract.
func reachableSet(classInfo *ir.ClassInfo) map[string]*ir.MethodInfo {
	out := make(map[string]*ir.MethodInfo)
	for name, mi := range classInfo.MethodInfos {
		if mi.IsReachable && !mi.IsAbstract {
			out[name] = mi
		}
	}
	return out
}

// sameKeys reports whether the container's stored method names match
// exactly the reachable set.
func (c *MethodContainer) sameKeys(reachable map[string]*ir.MethodInfo) bool {
	if len(c.methods) != len(reachable) {
		return false
	}
	for name := range c.methods {
		if _, ok := reachable[name]; !ok {
			return false
		}
	}
	return true
}

// UpdateMethodsWith reconciles this container's methods against
// classInfo's reachability verdict and, if needed, a freshly fetched
// class tree.
func (c *MethodContainer) UpdateMethodsWith(
	classInfo *ir.ClassInfo,
	fetchTree ir.TreeSupplier,
) (added, changed, removed []string) {

	reachable := reachableSet(classInfo)

	if !c.sameKeys(reachable) {
		for name, m := range c.methods {
			if _, ok := reachable[name]; ok {
				continue
			}
			glog.V(4).Infof("%s: removing method %s (no longer reachable)", c.Name, name)
			m.Delete()
			delete(c.methods, name)
			removed = append(removed, name)
		}
		for name := range reachable {
			if _, ok := c.methods[name]; !ok {
				// A new reachable name showed up: the tree must be
				// refetched to learn its definition, even if the
				// supplier thinks its version token is unchanged.
				c.lastVersion = nil
				break
			}
		}
	}

	def, version := fetchTree.FetchTree(c.Name, c.lastVersion)
	if def == nil {
		// Either the supplier says nothing changed, or it refused a
		// fetch with no lastVersion to go on — both are treated as an
		// empty class, never as a failure.
		sort.Strings(added)
		sort.Strings(changed)
		sort.Strings(removed)
		return added, changed, removed
	}
	c.lastVersion = version

	for name, methodDef := range def.MethodDefs {
		mi, ok := reachable[name]
		if !ok {
			continue
		}
		m, exists := c.methods[name]
		if !exists {
			m = methodimpl.New(c.Name, c.OwnerKind, name, c.queue)
			c.methods[name] = m
			m.UpdateWith(mi.OptimizerHints, methodDef)
			added = append(added, name)
			continue
		}
		if changedNow := m.UpdateWith(mi.OptimizerHints, methodDef); changedNow {
			changed = append(changed, name)
		}
	}

	sort.Strings(added)
	sort.Strings(changed)
	sort.Strings(removed)
	return added, changed, removed
}
