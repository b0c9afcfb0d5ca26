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

// Package extractor provides automatic competency extraction
// from plain sentences.
package extractor

import (
	"context"

	"compex/competency"
	"compex/taxonomy"
)

// Extractor finds competencies in sentences. If dict is not empty,
// only competencies with a head verb present in the dictionary
// are returned and they are tagged with a respective dimension.
type Extractor interface {
	Annotate(ctx context.Context, sentences []string, dict taxonomy.Dictionary) (competency.Sentences, error)
}

// filterByTaxonomy keeps only competencies with known head verbs
// and attaches the taxonomy dimension to them. With an empty
// dictionary, the original slice is returned.
func filterByTaxonomy(comps []competency.Competency, dict taxonomy.Dictionary) []competency.Competency {
	if len(dict) == 0 {
		return comps
	}
	ans := make([]competency.Competency, 0, len(comps))
	for _, c := range comps {
		dim, ok := dict.Lookup(c.Word.Text)
		if !ok {
			continue
		}
		ans = append(ans, c.WithDimension(dim))
	}
	return ans
}
