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
	"sync"

	"github.com/golang/glog"
)

// Registry is the lazy, never-delete lookup for InterfaceType, mirroring
// the discovery.ResourceMap pattern: a single RWMutex-guarded map with
// insert-on-miss Get. Interfaces are never deleted — an interface
// outlives any particular class carrying the name, so that stale
// caller registrations targeting a no-longer-populated name are
// harmless: they will simply never be tagged.
type Registry struct {
	mutex sync.RWMutex
	byName map[string]*InterfaceType
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		byName: make(map[string]*InterfaceType),
	}
}

// Get returns the InterfaceType for name, creating it on first lookup.
func (r *Registry) Get(name string) *InterfaceType {
	r.mutex.RLock()
	it, ok := r.byName[name]
	r.mutex.RUnlock()
	if ok {
		return it
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()
	// Re-check: another goroutine may have inserted it while we waited
	// for the write lock. The optimizer itself is single-threaded, but
	// this registry is intentionally defensive the same way
	// discovery.ResourceMap is against its own refresh cycle.
	if it, ok := r.byName[name]; ok {
		return it
	}
	glog.V(7).Infof("Creating interface type %s", name)
	it = New(name)
	r.byName[name] = it
	return it
}

// Peek returns the InterfaceType for name without creating it, or nil
// if it has never been looked up.
func (r *Registry) Peek(name string) *InterfaceType {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return r.byName[name]
}

// Len returns the number of interfaces ever created. Exposed for
// metrics and tests only.
func (r *Registry) Len() int {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return len(r.byName)
}
