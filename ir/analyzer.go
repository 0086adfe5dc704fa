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

package ir

// Analyzer is the reachability analysis collaborator. ClassInfos is
// read once per run; the optimizer never mutates it.
type Analyzer interface {
	ClassInfos() map[string]*ClassInfo
}

// TreeSupplier lazily serves class trees. It returns a nil ClassDef
// when lastVersion is already current; the caller must treat "no
// tree, no lastVersion given" as an empty class rather than an error.
type TreeSupplier interface {
	FetchTree(encodedName string, lastVersion *VersionToken) (*ClassDef, *VersionToken)
}

// TreeSupplierFunc adapts a function to TreeSupplier.
type TreeSupplierFunc func(encodedName string, lastVersion *VersionToken) (*ClassDef, *VersionToken)

// FetchTree implements TreeSupplier.
func (f TreeSupplierFunc) FetchTree(encodedName string, lastVersion *VersionToken) (*ClassDef, *VersionToken) {
	return f(encodedName, lastVersion)
}
