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

// Package invariant centralizes the panic-on-corruption behaviour the
// incremental optimizer relies on. An invariant violation means the
// graph is already inconsistent: there is no safe way to return an
// error and keep going, so every package here panics through this one
// entry point instead of inventing its own.
package invariant

import "fmt"

// Assert panics with the formatted message if cond is false.
func Assert(cond bool, format string, args ...interface{}) {
	if !cond {
		panic(fmt.Sprintf(format, args...))
	}
}

// Failf always panics with the formatted message.
func Failf(format string, args ...interface{}) {
	panic(fmt.Sprintf(format, args...))
}
