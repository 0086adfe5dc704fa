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

package methodimpl

import (
	"testing"

	"github.com/metac/incopt/ir"
)

type fakeQueue struct {
	added    []*MethodImpl
	forgotten []*MethodImpl
}

func (q *fakeQueue) Add(m *MethodImpl)    { q.added = append(q.added, m) }
func (q *fakeQueue) Forget(m *MethodImpl) { q.forgotten = append(q.forgotten, m) }

type fakeCallerSet struct {
	unregistered []*MethodImpl
}

func (c *fakeCallerSet) UnregisterCaller(m *MethodImpl) {
	c.unregistered = append(c.unregistered, m)
}

func TestUpdateWithDetectsChange(t *testing.T) {
	q := &fakeQueue{}
	m := New("A", OwnerClass, "foo", q)

	def1 := &ir.MethodDef{EncodedName: "foo", Def: "body-v1"}
	if changed := m.UpdateWith("", def1); !changed {
		t.Fatalf("expected first UpdateWith to report a change")
	}
	if len(q.added) != 1 {
		t.Fatalf("expected one tag after first UpdateWith, got %d", len(q.added))
	}

	if changed := m.UpdateWith("", def1); changed {
		t.Fatalf("expected identical UpdateWith to be a no-op")
	}
	if len(q.added) != 1 {
		t.Fatalf("expected no extra tag for a no-op update, got %d", len(q.added))
	}

	def2 := &ir.MethodDef{EncodedName: "foo", Def: "body-v2"}
	if changed := m.UpdateWith("", def2); !changed {
		t.Fatalf("expected a body change to report a change")
	}
	if len(q.added) != 2 {
		t.Fatalf("expected a second tag after the body changed, got %d", len(q.added))
	}
}

func TestTagUnregistersFromAllCallerSets(t *testing.T) {
	q := &fakeQueue{}
	m := New("A", OwnerClass, "foo", q)
	cs1, cs2 := &fakeCallerSet{}, &fakeCallerSet{}
	m.RegisterCallerSet(cs1)
	m.RegisterCallerSet(cs2)

	m.Tag()

	if len(cs1.unregistered) != 1 || cs1.unregistered[0] != m {
		t.Fatalf("expected cs1 to be unregistered once, got %v", cs1.unregistered)
	}
	if len(cs2.unregistered) != 1 || cs2.unregistered[0] != m {
		t.Fatalf("expected cs2 to be unregistered once, got %v", cs2.unregistered)
	}
}

func TestDeleteTwiceAsserts(t *testing.T) {
	q := &fakeQueue{}
	m := New("A", OwnerClass, "foo", q)
	m.Delete()

	defer func() {
		if recover() == nil {
			t.Fatalf("expected double delete to panic")
		}
	}()
	m.Delete()
}

func TestProcessInvokesOptimizerAndEmitter(t *testing.T) {
	q := &fakeQueue{}
	m := New("A", OwnerClass, "foo", q)
	m.UpdateWith("", &ir.MethodDef{EncodedName: "foo", Def: "body"})

	var emitted string
	emit := emitterFunc(func(ownerName string, owner OwnerKind, methodName string, optimized *ir.MethodDef) {
		emitted = optimized.Def
	})

	optimize := func(def *ir.MethodDef, hints string, hooks CallHooks) (*ir.MethodDef, bool) {
		hooks.StaticCall("Other", "bar")
		return def, true
	}

	m.Process(optimize, recordingHooks{}, emit)

	if emitted != "body" {
		t.Fatalf("expected emitted body %q, got %q", "body", emitted)
	}
	if !m.Inlineable() {
		t.Fatalf("expected method to be inlineable after Process")
	}
}

type emitterFunc func(ownerName string, owner OwnerKind, methodName string, optimized *ir.MethodDef)

func (f emitterFunc) Emit(ownerName string, owner OwnerKind, methodName string, optimized *ir.MethodDef) {
	f(ownerName, owner, methodName, optimized)
}

type recordingHooks struct{}

func (recordingHooks) DynamicCall(caller *MethodImpl, intfName, methodName string) []*MethodImpl {
	return nil
}
func (recordingHooks) StaticCall(caller *MethodImpl, className, methodName string) *MethodImpl {
	return nil
}
func (recordingHooks) TraitImplCall(caller *MethodImpl, traitImplName, methodName string) *MethodImpl {
	return nil
}
