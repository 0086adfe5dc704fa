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

// Package scenario turns a declarative fixture — a sequence of
// "steps", each the full desired program graph at that point in time
// — into the ir.Analyzer/ir.TreeSupplier pair IncOptimizer.Update
// consumes. It exists so a demo binary and tests can replay an
// end-to-end sequence of runs without hand-building ir.ClassInfo
// graphs by hand at every call site.
package scenario

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"

	"github.com/pkg/errors"

	"github.com/metac/incopt/ir"
)

// MethodFixture is one method definition within a ClassFixture.
type MethodFixture struct {
	Name       string `json:"name"`
	Reachable  bool   `json:"reachable"`
	Abstract   bool   `json:"abstract"`
	Hints      string `json:"hints,omitempty"`
	Body       string `json:"body"`
}

// ClassFixture is one class or trait impl as it exists at a given
// step. Super and Ancestors name other ClassFixtures within the same
// Step.
type ClassFixture struct {
	Name         string          `json:"name"`
	Super        string          `json:"super,omitempty"`
	Ancestors    []string        `json:"ancestors,omitempty"`
	Instantiated bool            `json:"instantiated"`
	ImplClass    bool            `json:"implClass,omitempty"`
	Methods      []MethodFixture `json:"methods,omitempty"`
}

// Step is the desired program graph for a single IncOptimizer.Update
// call. A class absent from a Step that was present in a previous one
// is treated as no longer needed.
type Step struct {
	Classes []ClassFixture `json:"classes"`
}

// Graph is a built Step, ready to drive one Update call: it
// implements both ir.Analyzer and ir.TreeSupplier.
type Graph struct {
	infos   map[string]*ir.ClassInfo
	defs    map[string]*ir.ClassDef
	version map[string]ir.VersionToken
}

// ClassInfos implements ir.Analyzer.
func (g *Graph) ClassInfos() map[string]*ir.ClassInfo {
	return g.infos
}

// FetchTree implements ir.TreeSupplier. Returns (nil, nil) when the
// token the caller already holds still matches, or when name is not
// present in this step's graph at all.
func (g *Graph) FetchTree(encodedName string, lastVersion *ir.VersionToken) (*ir.ClassDef, *ir.VersionToken) {
	def, ok := g.defs[encodedName]
	if !ok {
		return nil, nil
	}
	token := g.version[encodedName]
	if lastVersion != nil && *lastVersion == token {
		return nil, nil
	}
	return def, &token
}

// BuildStep compiles a Step into a Graph, linking superclass and
// ancestor names into ir.ClassInfo pointers and content-hashing every
// class tree into a version token.
func BuildStep(step Step) (*Graph, error) {
	byName := make(map[string]ClassFixture, len(step.Classes))
	for _, cf := range step.Classes {
		if _, dup := byName[cf.Name]; dup {
			return nil, errors.Errorf("scenario: duplicate class %q in step", cf.Name)
		}
		byName[cf.Name] = cf
	}

	g := &Graph{
		infos:   make(map[string]*ir.ClassInfo, len(step.Classes)),
		defs:    make(map[string]*ir.ClassDef, len(step.Classes)),
		version: make(map[string]ir.VersionToken, len(step.Classes)),
	}

	// Pass 1: construct every ClassInfo without cross-links.
	for _, cf := range byName {
		info := &ir.ClassInfo{
			EncodedName:       cf.Name,
			IsNeededAtAll:     true,
			HasInstantiation:  cf.Instantiated,
			IsInstantiated:    cf.Instantiated,
			IsImplClass:       cf.ImplClass,
			MethodInfos:       make(map[string]*ir.MethodInfo, len(cf.Methods)),
		}
		for _, mf := range cf.Methods {
			info.MethodInfos[mf.Name] = &ir.MethodInfo{
				EncodedName:    mf.Name,
				IsReachable:    mf.Reachable,
				IsAbstract:     mf.Abstract,
				OptimizerHints: mf.Hints,
			}
		}
		g.infos[cf.Name] = info
	}

	// Pass 2: link superclass/ancestor pointers now that every
	// ClassInfo exists.
	for _, cf := range byName {
		info := g.infos[cf.Name]
		if cf.Super != "" {
			super, ok := g.infos[cf.Super]
			if !ok {
				return nil, errors.Errorf("scenario: class %q has unknown superclass %q", cf.Name, cf.Super)
			}
			info.SuperClass = super
		}
		for _, ancestorName := range cf.Ancestors {
			ancestor, ok := g.infos[ancestorName]
			if !ok {
				return nil, errors.Errorf("scenario: class %q has unknown ancestor %q", cf.Name, ancestorName)
			}
			info.Ancestors = append(info.Ancestors, ancestor)
		}
		info.AncestorCount = len(info.Ancestors)
	}

	// Pass 3: IsAnySubclassInstantiated, derived from the now-linked
	// ancestor lists.
	for _, cf := range byName {
		if !cf.Instantiated {
			continue
		}
		for _, ancestorName := range cf.Ancestors {
			g.infos[ancestorName].IsAnySubclassInstantiated = true
		}
	}

	// Pass 4: class trees and version tokens.
	for _, cf := range byName {
		def := &ir.ClassDef{
			EncodedName: cf.Name,
			MethodDefs:  make(map[string]*ir.MethodDef, len(cf.Methods)),
		}
		for _, mf := range cf.Methods {
			def.MethodDefs[mf.Name] = &ir.MethodDef{
				EncodedName: mf.Name,
				Def:         mf.Body,
			}
		}
		g.defs[cf.Name] = def
		g.version[cf.Name] = hashClass(cf)
	}

	return g, nil
}

func hashClass(cf ClassFixture) ir.VersionToken {
	methods := append([]MethodFixture(nil), cf.Methods...)
	sort.Slice(methods, func(i, j int) bool { return methods[i].Name < methods[j].Name })

	h := sha256.New()
	fmt.Fprintf(h, "%s\x00%s\x00", cf.Name, cf.Super)
	for _, mf := range methods {
		fmt.Fprintf(h, "%s\x00%t\x00%t\x00%s\x00%s\x00", mf.Name, mf.Reachable, mf.Abstract, mf.Hints, mf.Body)
	}
	return ir.VersionToken(hex.EncodeToString(h.Sum(nil)))
}
