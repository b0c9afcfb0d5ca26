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
	"io"
	"os"
	"sort"
)

type dimensionEntry struct {
	Dimension Dimension `json:"dimension"`
	Verbs     []string  `json:"verbs"`
}

// Provider provides a current version of a dictionary
type Provider interface {
	Dictionary() Dictionary
}

// Dictionary maps competency verbs to their taxonomy dimension.
// An empty (or nil) dictionary means "no taxonomy filtering".
type Dictionary map[string]Dimension

func (dict Dictionary) Lookup(verb string) (Dimension, bool) {
	v, ok := dict[verb]
	return v, ok
}

// Verbs returns all verbs of a dimension, sorted alphabetically
func (dict Dictionary) Verbs(dim Dimension) []string {
	ans := make([]string, 0, len(dict)/6)
	for verb, d := range dict {
		if d == dim {
			ans = append(ans, verb)
		}
	}
	sort.Strings(ans)
	return ans
}

// MarshalJSON writes the dictionary back in the grouped
// file format (one entry per dimension).
func (dict Dictionary) MarshalJSON() ([]byte, error) {
	ans := make([]dimensionEntry, 0, 6)
	for d := Remember; d <= Create; d++ {
		verbs := dict.Verbs(d)
		if len(verbs) > 0 {
			ans = append(ans, dimensionEntry{Dimension: d, Verbs: verbs})
		}
	}
	return json.Marshal(ans)
}

// ReadJSON parses a taxonomy document of the form
//
//	[{"dimension": 0, "verbs": ["erkennen", ...]}, ...]
//
// In case a verb is listed under more dimensions, the last one wins.
func ReadJSON(r io.Reader) (Dictionary, error) {
	var entries []dimensionEntry
	if err := json.NewDecoder(r).Decode(&entries); err != nil {
		return nil, fmt.Errorf("failed to decode taxonomy: %w", err)
	}
	ans := make(Dictionary)
	for _, entry := range entries {
		for _, verb := range entry.Verbs {
			ans[verb] = entry.Dimension
		}
	}
	return ans, nil
}

func LoadFile(path string) (Dictionary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open taxonomy file: %w", err)
	}
	defer f.Close()
	return ReadJSON(f)
}
