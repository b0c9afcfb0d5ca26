// Copyright 2024 Institute of the Czech National Corpus,
//                Faculty of Arts, Charles University
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package taxonomy

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Dimension is a level of Bloom's taxonomy of educational objectives
type Dimension int

const (
	Remember Dimension = iota
	Understand
	Apply
	Analyze
	Evaluate
	Create
)

var dimensionNames = [...]string{
	"remember",
	"understand",
	"apply",
	"analyze",
	"evaluate",
	"create",
}

func (d Dimension) IsValid() bool {
	return d >= Remember && d <= Create
}

func (d Dimension) String() string {
	if !d.IsValid() {
		return fmt.Sprintf("Dimension(%d)", int(d))
	}
	return dimensionNames[d]
}

func (d Dimension) MarshalJSON() ([]byte, error) {
	if !d.IsValid() {
		return nil, fmt.Errorf("cannot marshal invalid taxonomy dimension %d", int(d))
	}
	return json.Marshal(d.String())
}

// UnmarshalJSON accepts both the numeric form used in taxonomy
// files and the lowercase name produced by MarshalJSON.
func (d *Dimension) UnmarshalJSON(data []byte) error {
	var num int
	if err := json.Unmarshal(data, &num); err == nil {
		if !Dimension(num).IsValid() {
			return fmt.Errorf("invalid taxonomy dimension %d", num)
		}
		*d = Dimension(num)
		return nil
	}
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return fmt.Errorf("invalid taxonomy dimension %s", string(data))
	}
	v, err := ParseDimension(name)
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// ParseDimension finds a dimension by its (case insensitive) name
func ParseDimension(name string) (Dimension, error) {
	srch := strings.ToLower(strings.TrimSpace(name))
	for i, v := range dimensionNames {
		if v == srch {
			return Dimension(i), nil
		}
	}
	return -1, fmt.Errorf("unknown taxonomy dimension `%s`", name)
}
