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

package class

import (
	"github.com/metac/incopt/container"
	"github.com/metac/incopt/interfacetype"
	"github.com/metac/incopt/ir"
	"github.com/metac/incopt/methodimpl"
)

// TraitImpl is the second MethodContainer variant: a flat bag of
// static forwarder bodies attached to one InterfaceType, with no
// parent/child relationship to other containers.
type TraitImpl struct {
	container.MethodContainer

	Interface *interfacetype.InterfaceType
}

// NewTraitImpl constructs a TraitImpl bound to intf.
func NewTraitImpl(name string, intf *interfacetype.InterfaceType, queue methodimpl.Queue) *TraitImpl {
	return &TraitImpl{
		MethodContainer: container.New(name, methodimpl.OwnerTraitImpl, queue),
		Interface:       intf,
	}
}

// Reconcile runs the container-level method reconciliation and, for
// every method whose body actually changed, tags the static callers
// registered against this trait impl's interface — trait impls are
// never reached via dynamic dispatch, so only the static-caller set
// is relevant here.
func (t *TraitImpl) Reconcile(info *ir.ClassInfo, fetchTree ir.TreeSupplier) (added, changed, removed []string) {
	added, changed, removed = t.UpdateMethodsWith(info, fetchTree)
	for _, name := range changed {
		t.Interface.TagStaticCallersOf(name)
	}
	return added, changed, removed
}
