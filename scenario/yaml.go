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
	"io/ioutil"

	"github.com/ghodss/yaml"
	"github.com/pkg/errors"
)

// LoadStepYAML reads a single YAML document from path and unmarshals
// it into a Step, round-tripping through JSON rather than decoding
// YAML directly.
func LoadStepYAML(path string) (Step, error) {
	raw, err := ioutil.ReadFile(path)
	if err != nil {
		return Step{}, errors.Wrapf(err, "failed to read scenario step %s", path)
	}
	var step Step
	if err := yaml.Unmarshal(raw, &step); err != nil {
		return Step{}, errors.Wrapf(err, "failed to unmarshal scenario step %s", path)
	}
	return step, nil
}
