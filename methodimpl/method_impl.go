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

// Package methodimpl holds MethodImpl, the unit of optimization: one
// concrete method body, its optimizer hints, and the set of
// interfaces it has registered itself with as a caller.
package methodimpl

import (
	"github.com/golang/glog"
	apiequality "k8s.io/apimachinery/pkg/api/equality"

	"github.com/metac/incopt/invariant"
	"github.com/metac/incopt/ir"
)

// OwnerKind discriminates the two MethodContainer variants a
// MethodImpl can belong to. The emitter picks its strategy off this
// field rather than off a type switch.
type OwnerKind int

const (
	// OwnerClass means this method lives on a Class.
	OwnerClass OwnerKind = iota
	// OwnerTraitImpl means this method lives on a TraitImpl.
	OwnerTraitImpl
)

func (k OwnerKind) String() string {
	if k == OwnerTraitImpl {
		return "TraitImpl"
	}
	return "Class"
}

// CallerSet is the narrow view of interfacetype.InterfaceType that
// MethodImpl needs in order to unregister itself. Keeping this
// interface here (rather than importing interfacetype) is what lets
// interfacetype hold *MethodImpl in its caller sets without a import
// cycle.
type CallerSet interface {
	// UnregisterCaller removes caller from every caller set (dynamic
	// and static, all method names) it was added to.
	UnregisterCaller(caller *MethodImpl)
}

// Hooks is the callback surface the driver implements to resolve
// calls on behalf of a specific caller method. Implemented by the
// driver (incoptimizer.IncOptimizer); kept here as a narrow interface
// so methodimpl never imports the driver.
type Hooks interface {
	// DynamicCall registers caller as a dynamic caller of
	// (intfName, methodName) and resolves, for every currently
	// instantiated class implementing intfName, the method impl that
	// would be dispatched to.
	DynamicCall(caller *MethodImpl, intfName, methodName string) []*MethodImpl
	// StaticCall registers caller as a static caller on className's
	// interface and resolves methodName up the parent chain.
	StaticCall(caller *MethodImpl, className, methodName string) *MethodImpl
	// TraitImplCall registers caller as a static caller on the trait
	// impl's interface and returns its direct entry.
	TraitImplCall(caller *MethodImpl, traitImplName, methodName string) *MethodImpl
}

// CallHooks is the callback surface a body optimizer sees during
// Process: Hooks with the caller already curried in, so a
// BodyOptimizer never has to thread its own MethodImpl through by
// hand.
type CallHooks interface {
	DynamicCall(intfName, methodName string) []*MethodImpl
	StaticCall(className, methodName string) *MethodImpl
	TraitImplCall(traitImplName, methodName string) *MethodImpl
}

// BodyOptimizer is the external method-body optimizer collaborator,
// out of scope beyond this registration contract. It receives the
// stored IR definition and hints, consults the graph via hooks, and
// returns the optimized IR plus whether the result is inlineable.
type BodyOptimizer func(def *ir.MethodDef, hints string, hooks CallHooks) (optimized *ir.MethodDef, inlineable bool)

// Emitter hands the optimized IR to the code emitter. Its output is
// not consumed by this engine.
type Emitter interface {
	Emit(ownerName string, owner OwnerKind, methodName string, optimized *ir.MethodDef)
}

// Queue is the narrow view of the driver's work queue a MethodImpl
// needs: enqueue itself when tagged, drop itself when deleted mid-run.
// Held per-instance (set at construction) rather than as a
// process-wide singleton — every MethodImpl belongs to exactly one
// IncOptimizer for its whole lifetime, and that optimizer is the
// Queue.
type Queue interface {
	Add(*MethodImpl)
	Forget(*MethodImpl)
}

// MethodImpl is one concrete method body.
type MethodImpl struct {
	OwnerName string
	OwnerKind OwnerKind
	Name      string

	queue Queue

	hints        string
	def          *ir.MethodDef
	desugaredDef *ir.MethodDef
	inlineable   bool
	deleted      bool
	registeredTo map[CallerSet]struct{}
}

// New constructs a MethodImpl with no definition yet. Callers must
// follow up with UpdateWith to populate its definition, hints and
// inlineability the same way the container's reconciliation loop does for every newly
// discovered method.
func New(ownerName string, owner OwnerKind, name string, queue Queue) *MethodImpl {
	return &MethodImpl{
		OwnerName:    ownerName,
		OwnerKind:    owner,
		Name:         name,
		queue:        queue,
		registeredTo: make(map[CallerSet]struct{}),
	}
}

// UpdateWith replaces the stored hints/definition if they differ from
// what is currently stored, recomputes inlineability, tags this
// method, and returns true iff the method was inlineable before or is
// inlineable now. No-op (returns false) otherwise.
//
// Inlineability itself is decided by the body optimizer during
// Process; until the first Process call, a freshly constructed method
// is conservatively inlineable so that its first tag always
// propagates (matching the "before OR now" rule for a method nobody
// has opinions on yet).
func (m *MethodImpl) UpdateWith(hints string, def *ir.MethodDef) bool {
	invariant.Assert(!m.deleted, "UpdateWith called on deleted method %s.%s", m.OwnerName, m.Name)

	if m.def != nil && m.hints == hints && apiequality.Semantic.DeepEqual(m.def, def) {
		return false
	}

	wasInlineable := m.inlineable || m.def == nil
	m.hints = hints
	m.def = def
	// Recomputed for real once Process runs the body optimizer; until
	// then assume inlineable so the change is never silently dropped.
	m.inlineable = true

	m.tag()
	return wasInlineable || m.inlineable
}

// Inlineable reports whether the last optimization pass found this
// method inlineable.
func (m *MethodImpl) Inlineable() bool {
	return m.inlineable
}

// Deleted reports whether Delete has been called.
func (m *MethodImpl) Deleted() bool {
	return m.deleted
}

// DesugaredDef returns the last emitted optimized IR, or nil if this
// method has never been processed.
func (m *MethodImpl) DesugaredDef() *ir.MethodDef {
	return m.desugaredDef
}

// RegisterCallerSet records that this method registered itself with
// cs (an InterfaceType's dynamic or static caller set). Idempotent.
func (m *MethodImpl) RegisterCallerSet(cs CallerSet) {
	m.registeredTo[cs] = struct{}{}
}

// unregisterAll removes this method from every caller set it
// previously registered with, then clears the reverse index. Correct
// to call unconditionally: a tagged or deleted method is about to
// re-register fresh dependencies (or never run again), so stale
// registrations must go first.
func (m *MethodImpl) unregisterAll() {
	for cs := range m.registeredTo {
		cs.UnregisterCaller(m)
	}
	m.registeredTo = make(map[CallerSet]struct{})
}

// tag adds this method to the work queue and drops its current
// dependency registrations: a tagged method is about to be
// reprocessed and will register fresh dependencies.
func (m *MethodImpl) tag() {
	invariant.Assert(!m.deleted, "tag called on deleted method %s.%s", m.OwnerName, m.Name)
	m.unregisterAll()
	if m.queue != nil {
		m.queue.Add(m)
	}
}

// Tag is the exported form used by callers outside this package
// (InterfaceType.TagDynamicCallersOf/TagStaticCallersOf, the
// instantiation-change paths in package class).
func (m *MethodImpl) Tag() {
	m.tag()
}

// Delete marks this method deleted, unregisters it from every
// interface, and removes it from the work queue. Double-delete is a
// bug and asserts.
func (m *MethodImpl) Delete() {
	invariant.Assert(!m.deleted, "double delete of method %s.%s", m.OwnerName, m.Name)
	m.deleted = true
	m.unregisterAll()
	if m.queue != nil {
		m.queue.Forget(m)
	}
}

// Process runs the external body optimizer on the stored IR, then
// hands the result to the emitter. During this pass the optimizer
// calls back into hooks, which re-registers this method's fresh
// dependencies.
func (m *MethodImpl) Process(optimize BodyOptimizer, hooks Hooks, emit Emitter) {
	invariant.Assert(!m.deleted, "process called on deleted method %s.%s", m.OwnerName, m.Name)

	glog.V(4).Infof("Processing %s.%s", m.OwnerName, m.Name)

	optimized, inlineable := optimize(m.def, m.hints, methodScopedHooks{owner: m, hooks: hooks})
	m.desugaredDef = optimized
	m.inlineable = inlineable

	if emit != nil {
		emit.Emit(m.OwnerName, m.OwnerKind, m.Name, optimized)
	}
}

// methodScopedHooks curries the calling MethodImpl into Hooks so the
// body optimizer's callback signature can stay (intfName, methodName)
// without threading the caller through by hand at every call site.
type methodScopedHooks struct {
	owner *MethodImpl
	hooks Hooks
}

func (h methodScopedHooks) DynamicCall(intfName, methodName string) []*MethodImpl {
	return h.hooks.DynamicCall(h.owner, intfName, methodName)
}

func (h methodScopedHooks) StaticCall(className, methodName string) *MethodImpl {
	return h.hooks.StaticCall(h.owner, className, methodName)
}

func (h methodScopedHooks) TraitImplCall(traitImplName, methodName string) *MethodImpl {
	return h.hooks.TraitImplCall(h.owner, traitImplName, methodName)
}
