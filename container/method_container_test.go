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

package container

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/metac/incopt/ir"
	"github.com/metac/incopt/methodimpl"
)

type fakeQueue struct{}

func (fakeQueue) Add(*methodimpl.MethodImpl)    {}
func (fakeQueue) Forget(*methodimpl.MethodImpl) {}

func classInfo(methods map[string]*ir.MethodInfo) *ir.ClassInfo {
	return &ir.ClassInfo{EncodedName: "A", MethodInfos: methods}
}

func reachable(name string) *ir.MethodInfo {
	return &ir.MethodInfo{EncodedName: name, IsReachable: true}
}

func TestUpdateMethodsWithAddsChangesAndRemoves(t *testing.T) {
	c := New("A", methodimpl.OwnerClass, fakeQueue{})

	info1 := classInfo(map[string]*ir.MethodInfo{"foo": reachable("foo")})
	tree1 := ir.TreeSupplierFunc(func(name string, last *ir.VersionToken) (*ir.ClassDef, *ir.VersionToken) {
		v := ir.VersionToken("v1")
		return &ir.ClassDef{
			EncodedName: "A",
			MethodDefs:  map[string]*ir.MethodDef{"foo": {EncodedName: "foo", Def: "body-v1"}},
		}, &v
	})

	added, changed, removed := c.UpdateMethodsWith(info1, tree1)
	if len(added) != 1 || added[0] != "foo" {
		t.Fatalf("expected foo added, got %v", added)
	}
	if len(changed) != 0 || len(removed) != 0 {
		t.Fatalf("expected no changes/removals on first ingestion, got %v %v", changed, removed)
	}

	info2 := classInfo(map[string]*ir.MethodInfo{
		"foo": reachable("foo"),
		"bar": reachable("bar"),
	})
	tree2 := ir.TreeSupplierFunc(func(name string, last *ir.VersionToken) (*ir.ClassDef, *ir.VersionToken) {
		v := ir.VersionToken("v2")
		return &ir.ClassDef{
			EncodedName: "A",
			MethodDefs: map[string]*ir.MethodDef{
				"foo": {EncodedName: "foo", Def: "body-v2"},
				"bar": {EncodedName: "bar", Def: "body-bar"},
			},
		}, &v
	})
	added, changed, removed = c.UpdateMethodsWith(info2, tree2)
	if diff := cmp.Diff([]string{"bar"}, added); diff != "" {
		t.Fatalf("unexpected added set (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"foo"}, changed); diff != "" {
		t.Fatalf("unexpected changed set (-want +got):\n%s", diff)
	}
	if len(removed) != 0 {
		t.Fatalf("expected no removals, got %v", removed)
	}

	info3 := classInfo(map[string]*ir.MethodInfo{"bar": reachable("bar")})
	tree3 := ir.TreeSupplierFunc(func(name string, last *ir.VersionToken) (*ir.ClassDef, *ir.VersionToken) {
		return nil, nil
	})
	added, changed, removed = c.UpdateMethodsWith(info3, tree3)
	if len(added) != 0 || len(changed) != 0 {
		t.Fatalf("expected no additions/changes on a pure removal, got %v %v", added, changed)
	}
	if len(removed) != 1 || removed[0] != "foo" {
		t.Fatalf("expected foo removed, got %v", removed)
	}
	if _, ok := c.Lookup("foo"); ok {
		t.Fatalf("expected foo to be gone from the container")
	}
}

func TestUpdateMethodsWithReconcilesNothingWhenSupplierReportsUnchanged(t *testing.T) {
	c := New("A", methodimpl.OwnerClass, fakeQueue{})
	info := classInfo(map[string]*ir.MethodInfo{"foo": reachable("foo")})

	calls := 0
	tree := ir.TreeSupplierFunc(func(name string, last *ir.VersionToken) (*ir.ClassDef, *ir.VersionToken) {
		calls++
		return nil, nil
	})

	added, changed, removed := c.UpdateMethodsWith(info, tree)
	if len(added) != 0 || len(changed) != 0 || len(removed) != 0 {
		t.Fatalf("expected no reconciliation when the tree supplier reports nothing, got %v %v %v", added, changed, removed)
	}
	if calls != 1 {
		t.Fatalf("expected exactly one fetch attempt, got %d", calls)
	}
}
