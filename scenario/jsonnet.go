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
	"github.com/google/go-jsonnet"
	"github.com/pkg/errors"
	"k8s.io/apimachinery/pkg/util/json"
)

// LoadStepJsonnet evaluates the jsonnet program at path into JSON and
// unmarshals the result into a Step. extVars are bound as jsonnet
// external string variables, letting a single template fixture
// generate a whole family of steps (e.g. varying class counts for
// scale scenarios) without duplicating YAML by hand.
func LoadStepJsonnet(path string, extVars map[string]string) (Step, error) {
	vm := jsonnet.MakeVM()
	for k, v := range extVars {
		vm.ExtVar(k, v)
	}

	out, err := vm.EvaluateFile(path)
	if err != nil {
		return Step{}, errors.Wrapf(err, "failed to evaluate scenario step %s", path)
	}

	var step Step
	if err := json.Unmarshal([]byte(out), &step); err != nil {
		return Step{}, errors.Wrapf(err, "failed to unmarshal evaluated scenario step %s", path)
	}
	return step, nil
}
