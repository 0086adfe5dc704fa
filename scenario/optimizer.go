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

package scenario

import (
	"strings"

	"github.com/metac/incopt/ir"
	"github.com/metac/incopt/methodimpl"
)

// Optimize is a stand-in body optimizer for fixtures and the demo
// binary: the actual optimizer/inliner is out of scope, and this
// engine only specifies the registration hooks a real one must call.
// A MethodFixture's body is a tiny whitespace-separated DSL
// of call markers — "static:Class.method", "dynamic:Interface.method",
// "trait:TraitImpl.method" — each of which drives the matching Hooks
// call the way a real optimizer's inliner would when it resolves a
// call site. A body with no call markers is a leaf and stays
// inlineable; any call marker makes it conservatively non-inlineable.
func Optimize(def *ir.MethodDef, hints string, hooks methodimpl.CallHooks) (*ir.MethodDef, bool) {
	if def == nil {
		return nil, true
	}

	inlineable := true
	for _, token := range strings.Fields(def.Def) {
		kind, target, ok := splitToken(token)
		if !ok {
			continue
		}
		owner, name, ok := splitTarget(target)
		if !ok {
			continue
		}
		inlineable = false
		switch kind {
		case "static":
			hooks.StaticCall(owner, name)
		case "dynamic":
			hooks.DynamicCall(owner, name)
		case "trait":
			hooks.TraitImplCall(owner, name)
		}
	}
	return def, inlineable
}

func splitToken(token string) (kind, target string, ok bool) {
	for _, prefix := range []string{"static:", "dynamic:", "trait:"} {
		if strings.HasPrefix(token, prefix) {
			return strings.TrimSuffix(prefix, ":"), strings.TrimPrefix(token, prefix), true
		}
	}
	return "", "", false
}

func splitTarget(target string) (owner, name string, ok bool) {
	parts := strings.SplitN(target, ".", 2)
	if len(parts) != 2 {
		return "", "", false
	}
	return parts[0], parts[1], true
}

// NopEmitter discards every optimized method body. Useful for demos
// and tests where only the invalidation decisions matter, not the
// emitted IR itself.
type NopEmitter struct{}

// Emit implements methodimpl.Emitter.
func (NopEmitter) Emit(ownerName string, owner methodimpl.OwnerKind, methodName string, optimized *ir.MethodDef) {
}
