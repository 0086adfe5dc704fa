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
	"testing"

	"github.com/metac/incopt/interfacetype"
	"github.com/metac/incopt/ir"
	"github.com/metac/incopt/methodimpl"
)

type fakeQueue struct {
	added []*methodimpl.MethodImpl
}

func (q *fakeQueue) Add(m *methodimpl.MethodImpl)    { q.added = append(q.added, m) }
func (q *fakeQueue) Forget(m *methodimpl.MethodImpl) {}

// emptyTree always reports an empty, never-changing class tree: these
// tests exercise the hierarchy walks, not method-body reconciliation.
type emptyTree struct{}

func (emptyTree) FetchTree(name string, last *ir.VersionToken) (*ir.ClassDef, *ir.VersionToken) {
	return nil, nil
}

func buildChain(t *testing.T, q methodimpl.Queue, reg *interfacetype.Registry) (object, a, b *Class) {
	t.Helper()
	object = New("Object", nil, q, reg)
	a = New("A", object, q, reg)
	b = New("B", a, q, reg)
	return
}

func TestLookupMethodWalksParentChain(t *testing.T) {
	q := &fakeQueue{}
	reg := interfacetype.NewRegistry()
	object, a, b := buildChain(t, q, reg)

	mFoo := methodimpl.New("Object", methodimpl.OwnerClass, "foo", q)
	object.Methods()["foo"] = mFoo
	mBar := methodimpl.New("A", methodimpl.OwnerClass, "bar", q)
	a.Methods()["bar"] = mBar

	if m, ok := b.LookupMethod("foo"); !ok || m != mFoo {
		t.Fatalf("expected B.lookupMethod(foo) to resolve to Object.foo")
	}
	if m, ok := b.LookupMethod("bar"); !ok || m != mBar {
		t.Fatalf("expected B.lookupMethod(bar) to resolve to A.bar")
	}
	if _, ok := b.LookupMethod("missing"); ok {
		t.Fatalf("expected lookup of an undeclared method to fail")
	}
}

func TestAllMethodsChildOverridesParent(t *testing.T) {
	q := &fakeQueue{}
	reg := interfacetype.NewRegistry()
	object, a, b := buildChain(t, q, reg)

	object.Methods()["foo"] = methodimpl.New("Object", methodimpl.OwnerClass, "foo", q)
	aFoo := methodimpl.New("A", methodimpl.OwnerClass, "foo", q)
	a.Methods()["foo"] = aFoo
	bBar := methodimpl.New("B", methodimpl.OwnerClass, "bar", q)
	b.Methods()["bar"] = bBar

	all := b.AllMethods()
	if all["foo"] != aFoo {
		t.Fatalf("expected A's override of foo to win over Object's")
	}
	if all["bar"] != bBar {
		t.Fatalf("expected bar from B to be present")
	}
}

func TestWalkClassesForDeletionsDeletesMovedClass(t *testing.T) {
	q := &fakeQueue{}
	reg := interfacetype.NewRegistry()
	object, a, b := buildChain(t, q, reg)
	bFoo := methodimpl.New("B", methodimpl.OwnerClass, "foo", q)
	b.Methods()["foo"] = bFoo

	needed := map[string]*ir.ClassInfo{
		"Object": {EncodedName: "Object", IsInstantiated: true},
		"A":      {EncodedName: "A", SuperClass: &ir.ClassInfo{EncodedName: "Object"}, IsInstantiated: true},
		// B is reported moved: same name, new superclass (Object instead of A).
		"B": {EncodedName: "B", SuperClass: &ir.ClassInfo{EncodedName: "Object"}, IsInstantiated: true},
	}
	take := func(name string) (*ir.ClassInfo, bool) {
		info, ok := needed[name]
		if ok {
			delete(needed, name)
		}
		return info, ok
	}

	var deleted []string
	object.WalkClassesForDeletions(take, func(c *Class) { deleted = append(deleted, c.Name) })

	if len(deleted) != 1 || deleted[0] != "B" {
		t.Fatalf("expected B to be deleted as moved, got %v", deleted)
	}
	if len(a.Subclasses) != 0 {
		t.Fatalf("expected A to have no retained subclasses after B moved away")
	}
	// B itself is not a MethodImpl; check its methods were torn down instead.
	if !bFoo.Deleted() || len(b.Methods()) != 0 {
		t.Fatalf("expected B's methods to be deleted along with B")
	}
}

func TestNotInstantiatedAnymoreUntagsInstantiation(t *testing.T) {
	q := &fakeQueue{}
	reg := interfacetype.NewRegistry()
	object, a, b := buildChain(t, q, reg)
	_ = a

	bIntf := reg.Get("B")
	b.IsInstantiated = true
	bIntf.AddInstantiatedSubclass(b)

	bFoo := methodimpl.New("B", methodimpl.OwnerClass, "foo", q)
	b.Methods()["foo"] = bFoo

	caller := methodimpl.New("Other", methodimpl.OwnerClass, "caller", q)
	bIntf.RegisterDynamicCaller("foo", caller)

	b.NotInstantiatedAnymore()

	if b.IsInstantiated {
		t.Fatalf("expected IsInstantiated to be false")
	}
	if bIntf.HasInstantiatedSubclasses() {
		t.Fatalf("expected B removed from its interface's instantiated-subclass set")
	}
	found := false
	for _, m := range q.added {
		if m == caller {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected the dynamic caller of B.foo to be tagged")
	}
	_ = object
}

func TestWalkForChangesPropagatesChildChanges(t *testing.T) {
	q := &fakeQueue{}
	reg := interfacetype.NewRegistry()
	object, a, b := buildChain(t, q, reg)

	objectInfo := &ir.ClassInfo{
		EncodedName:    "Object",
		IsInstantiated: true,
		MethodInfos:    map[string]*ir.MethodInfo{"foo": {EncodedName: "foo", IsReachable: true}},
	}
	aInfo := &ir.ClassInfo{
		EncodedName:    "A",
		SuperClass:     objectInfo,
		Ancestors:      []*ir.ClassInfo{objectInfo},
		AncestorCount:  1,
		IsInstantiated: true,
	}
	bInfo := &ir.ClassInfo{
		EncodedName:    "B",
		SuperClass:     aInfo,
		Ancestors:      []*ir.ClassInfo{objectInfo, aInfo},
		AncestorCount:  2,
		IsInstantiated: true,
	}
	infos := map[string]*ir.ClassInfo{"Object": objectInfo, "A": aInfo, "B": bInfo}
	getInfo := func(name string) *ir.ClassInfo { return infos[name] }

	object.WalkForChanges(getInfo, emptyTree{}, nil)

	// emptyTree serves no tree, so Object is reconciled as an empty
	// class even though its ClassInfo lists foo as reachable.
	if _, ok := object.Lookup("foo"); ok {
		t.Fatalf("expected Object.foo to stay absent when no tree is served")
	}
	if len(a.Interfaces) != 2 {
		t.Fatalf("expected A to have Object and itself among its interfaces, got %d", len(a.Interfaces))
	}
	if len(b.Interfaces) != 3 {
		t.Fatalf("expected B to have Object, A and itself among its interfaces, got %d", len(b.Interfaces))
	}
}
