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

// Package interfacetype holds InterfaceType, the per-name dependency
// ledger: who depends on which method name of a class or interface.
// Pure bookkeeping; it never sees an IR tree.
package interfacetype

import (
	"github.com/golang/glog"

	"github.com/metac/incopt/methodimpl"
)

// callerSet is a set of methods, keyed by method name.
type callerSet map[string]map[*methodimpl.MethodImpl]struct{}

func (s callerSet) add(methodName string, caller *methodimpl.MethodImpl) {
	members := s[methodName]
	if members == nil {
		members = make(map[*methodimpl.MethodImpl]struct{})
		s[methodName] = members
	}
	members[caller] = struct{}{}
}

func (s callerSet) remove(caller *methodimpl.MethodImpl) {
	for name, members := range s {
		if _, ok := members[caller]; ok {
			delete(members, caller)
			if len(members) == 0 {
				delete(s, name)
			}
		}
	}
}

// take removes and returns the whole caller set for methodName.
func (s callerSet) take(methodName string) []*methodimpl.MethodImpl {
	members := s[methodName]
	delete(s, methodName)
	if len(members) == 0 {
		return nil
	}
	out := make([]*methodimpl.MethodImpl, 0, len(members))
	for m := range members {
		out = append(out, m)
	}
	return out
}

// InstantiatedSubclass is the narrow view of a Class that
// InterfaceType needs: its name, for set membership and logging. The
// concrete *class.Class lives one layer up the dependency order, so
// InterfaceType depends on this interface instead of the concrete
// type.
type InstantiatedSubclass interface {
	EncodedName() string
}

// InterfaceType is a per-name record of who depends on which method
// name of this class/interface.
type InterfaceType struct {
	Name string

	dynamicCallers callerSet
	staticCallers  callerSet

	instantiatedSubclasses map[string]InstantiatedSubclass
}

// New constructs an InterfaceType for name. Interfaces are otherwise
// only ever created lazily by Registry.Get; this constructor is
// exported for tests that want one in isolation.
func New(name string) *InterfaceType {
	return &InterfaceType{
		Name:                   name,
		dynamicCallers:         make(callerSet),
		staticCallers:          make(callerSet),
		instantiatedSubclasses: make(map[string]InstantiatedSubclass),
	}
}

// RegisterDynamicCaller adds caller to the dynamic-caller set for
// methodName. Idempotent.
func (it *InterfaceType) RegisterDynamicCaller(methodName string, caller *methodimpl.MethodImpl) {
	it.dynamicCallers.add(methodName, caller)
	caller.RegisterCallerSet(it)
}

// RegisterStaticCaller adds caller to the static-caller set for
// methodName. Idempotent.
func (it *InterfaceType) RegisterStaticCaller(methodName string, caller *methodimpl.MethodImpl) {
	it.staticCallers.add(methodName, caller)
	caller.RegisterCallerSet(it)
}

// UnregisterCaller removes caller from every set (both dynamic and
// static, all method names) of this interface. Implements
// methodimpl.CallerSet.
func (it *InterfaceType) UnregisterCaller(caller *methodimpl.MethodImpl) {
	it.dynamicCallers.remove(caller)
	it.staticCallers.remove(caller)
}

// TagDynamicCallersOf removes the whole dynamic-caller set for
// methodName and tags each member for reprocessing. Removal (not
// iteration-only) is essential: after tagging, the callers will
// re-register themselves during re-optimization, so the pre-existing
// set is stale the moment tagging starts.
func (it *InterfaceType) TagDynamicCallersOf(methodName string) {
	callers := it.dynamicCallers.take(methodName)
	glog.V(4).Infof("%s: tagging %d dynamic caller(s) of %s", it.Name, len(callers), methodName)
	for _, c := range callers {
		c.Tag()
	}
}

// TagStaticCallersOf is the static-caller symmetric of
// TagDynamicCallersOf.
func (it *InterfaceType) TagStaticCallersOf(methodName string) {
	callers := it.staticCallers.take(methodName)
	glog.V(4).Infof("%s: tagging %d static caller(s) of %s", it.Name, len(callers), methodName)
	for _, c := range callers {
		c.Tag()
	}
}

// AddInstantiatedSubclass records that c implements this interface and
// is instantiated.
func (it *InterfaceType) AddInstantiatedSubclass(c InstantiatedSubclass) {
	it.instantiatedSubclasses[c.EncodedName()] = c
}

// RemoveInstantiatedSubclass undoes AddInstantiatedSubclass.
func (it *InterfaceType) RemoveInstantiatedSubclass(c InstantiatedSubclass) {
	delete(it.instantiatedSubclasses, c.EncodedName())
}

// InstantiatedSubclasses returns the current instantiated-subclass
// set. Callers must not mutate the returned map.
func (it *InterfaceType) InstantiatedSubclasses() map[string]InstantiatedSubclass {
	return it.instantiatedSubclasses
}

// HasInstantiatedSubclasses reports whether any class implementing
// this interface is currently instantiated. Exposed for tests and
// diagnostics.
func (it *InterfaceType) HasInstantiatedSubclasses() bool {
	return len(it.instantiatedSubclasses) > 0
}

// DynamicCallerMethodNames returns the method names with at least one
// registered dynamic caller. Exposed for tests and diagnostics only.
func (it *InterfaceType) DynamicCallerMethodNames() []string {
	names := make([]string, 0, len(it.dynamicCallers))
	for name := range it.dynamicCallers {
		names = append(names, name)
	}
	return names
}
