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
	"github.com/metac/incopt/class"
	"github.com/metac/incopt/methodimpl"
)

// DynamicCall implements methodimpl.Hooks. It registers caller as a
// dynamic caller of (intfName, methodName) and resolves, for every
// currently-instantiated class implementing intfName, the method impl
// that dispatch would currently pick.
func (o *IncOptimizer) DynamicCall(caller *methodimpl.MethodImpl, intfName, methodName string) []*methodimpl.MethodImpl {
	it := o.interfaces.Get(intfName)
	it.RegisterDynamicCaller(methodName, caller)

	var resolved []*methodimpl.MethodImpl
	for _, sub := range it.InstantiatedSubclasses() {
		c, ok := sub.(*class.Class)
		if !ok {
			continue
		}
		if m, found := c.LookupMethod(methodName); found {
			resolved = append(resolved, m)
		}
	}
	return resolved
}

// StaticCall implements methodimpl.Hooks. It registers caller as a
// static caller on className's own interface and resolves methodName
// up className's parent chain.
func (o *IncOptimizer) StaticCall(caller *methodimpl.MethodImpl, className, methodName string) *methodimpl.MethodImpl {
	it := o.interfaces.Get(className)
	it.RegisterStaticCaller(methodName, caller)

	c, ok := o.classes[className]
	if !ok {
		return nil
	}
	m, found := c.LookupMethod(methodName)
	if !found {
		return nil
	}
	return m
}

// TraitImplCall implements methodimpl.Hooks. It registers caller as a
// static caller on the trait impl's interface and returns its direct
// entry.
func (o *IncOptimizer) TraitImplCall(caller *methodimpl.MethodImpl, traitImplName, methodName string) *methodimpl.MethodImpl {
	ti, ok := o.traitImpls[traitImplName]
	if !ok {
		return nil
	}
	ti.Interface.RegisterStaticCaller(methodName, caller)
	m, found := ti.Lookup(methodName)
	if !found {
		return nil
	}
	return m
}
