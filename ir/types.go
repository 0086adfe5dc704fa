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

// Package ir declares the shapes the incremental optimizer consumes
// from its external collaborators: the reachability analyzer and the
// lazy class-tree supplier. Nothing in this package mutates state; it
// is pure bookkeeping data handed to us once per run.
package ir

// VersionToken is opaque to the optimizer. Only equality is ever
// checked against it; never parse it.
type VersionToken string

// MethodInfo is the analyzer's per-method reachability verdict.
type MethodInfo struct {
	EncodedName string
	IsReachable bool
	IsAbstract  bool

	// OptimizerHints carries whatever the body optimizer consults to
	// decide inlineability. Opaque to this engine beyond equality.
	OptimizerHints string
}

// ClassInfo is the analyzer's per-class verdict for one run.
type ClassInfo struct {
	EncodedName string

	// SuperClass is nil only for the root (Object).
	SuperClass *ClassInfo

	// Ancestors lists this class's ancestors, root-most first.
	// AncestorCount is len(Ancestors); kept as a separate field since
	// the additions phase needs to sort by it without re-deriving.
	Ancestors     []*ClassInfo
	AncestorCount int

	IsNeededAtAll             bool
	HasInstantiation          bool
	IsAnySubclassInstantiated bool
	IsInstantiated            bool
	IsImplClass               bool

	MethodInfos map[string]*MethodInfo
}

// ClassDef is one version of a class's IR tree, as served by the tree
// supplier. MethodDefs is keyed by encoded method name.
type ClassDef struct {
	EncodedName string
	MethodDefs  map[string]*MethodDef
}

// MethodDef is the IR body of one method, as served by the tree
// supplier.
type MethodDef struct {
	EncodedName string

	// Def is the original (not yet desugared/optimized) IR form.
	// Opaque to this engine beyond equality; the body optimizer is the
	// only consumer that interprets it.
	Def string
}
