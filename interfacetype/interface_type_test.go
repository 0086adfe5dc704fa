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

package interfacetype

import (
	"testing"

	"github.com/metac/incopt/methodimpl"
)

type fakeQueue struct {
	added []*methodimpl.MethodImpl
}

func (q *fakeQueue) Add(m *methodimpl.MethodImpl)    { q.added = append(q.added, m) }
func (q *fakeQueue) Forget(m *methodimpl.MethodImpl) {}

type fakeSubclass struct{ name string }

func (f fakeSubclass) EncodedName() string { return f.name }

func TestTagDynamicCallersOfRemovesAndTags(t *testing.T) {
	q := &fakeQueue{}
	caller := methodimpl.New("A", methodimpl.OwnerClass, "foo", q)

	it := New("I")
	it.RegisterDynamicCaller("bar", caller)

	it.TagDynamicCallersOf("bar")

	if len(q.added) != 1 || q.added[0] != caller {
		t.Fatalf("expected caller to be tagged once, got %v", q.added)
	}
	if len(it.DynamicCallerMethodNames()) != 0 {
		t.Fatalf("expected the dynamic-caller set for bar to be removed after tagging")
	}

	// Tagging again with nobody registered must be a no-op, not a panic.
	it.TagDynamicCallersOf("bar")
	if len(q.added) != 1 {
		t.Fatalf("expected no additional tag on an empty caller set")
	}
}

func TestUnregisterCallerRemovesFromBothSets(t *testing.T) {
	q := &fakeQueue{}
	caller := methodimpl.New("A", methodimpl.OwnerClass, "foo", q)

	it := New("I")
	it.RegisterDynamicCaller("bar", caller)
	it.RegisterStaticCaller("baz", caller)

	it.UnregisterCaller(caller)

	it.TagDynamicCallersOf("bar")
	it.TagStaticCallersOf("baz")
	if len(q.added) != 0 {
		t.Fatalf("expected no tags after UnregisterCaller removed every registration, got %d", len(q.added))
	}
}

func TestInstantiatedSubclassTracking(t *testing.T) {
	it := New("I")
	a := fakeSubclass{"A"}
	b := fakeSubclass{"B"}

	it.AddInstantiatedSubclass(a)
	it.AddInstantiatedSubclass(b)
	if !it.HasInstantiatedSubclasses() {
		t.Fatalf("expected HasInstantiatedSubclasses to be true")
	}
	if len(it.InstantiatedSubclasses()) != 2 {
		t.Fatalf("expected 2 instantiated subclasses, got %d", len(it.InstantiatedSubclasses()))
	}

	it.RemoveInstantiatedSubclass(a)
	if len(it.InstantiatedSubclasses()) != 1 {
		t.Fatalf("expected 1 instantiated subclass after removal, got %d", len(it.InstantiatedSubclasses()))
	}
}

func TestRegistryGetIsLazyAndStable(t *testing.T) {
	r := NewRegistry()
	if r.Peek("I") != nil {
		t.Fatalf("expected Peek to return nil before any Get")
	}

	it1 := r.Get("I")
	it2 := r.Get("I")
	if it1 != it2 {
		t.Fatalf("expected Get to return the same InterfaceType on repeated lookups")
	}
	if r.Len() != 1 {
		t.Fatalf("expected registry length 1, got %d", r.Len())
	}
	if r.Peek("I") != it1 {
		t.Fatalf("expected Peek to return the same instance once created")
	}
}
