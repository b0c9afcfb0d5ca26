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

// Package competency contains the competency triple model shared
// by gold data reconstructed from annotated corpora and by data
// produced by automatic extractors.
package competency

import (
	"fmt"
	"sort"
	"strings"

	"compex/taxonomy"
)

// Word is a token of a sentence. Index is the zero based
// position of the token within its sentence.
type Word struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
}

func (w Word) String() string {
	return fmt.Sprintf("<%d: %s>", w.Index, w.Text)
}

// WordChunk is an ordered (by index) sequence of words
type WordChunk []Word

// Equal tests sequence equality
func (wc WordChunk) Equal(other WordChunk) bool {
	if len(wc) != len(other) {
		return false
	}
	for i, w := range wc {
		if w != other[i] {
			return false
		}
	}
	return true
}

// Contains tests whether the chunk contains a word
// (index and text must both match).
func (wc WordChunk) Contains(w Word) bool {
	for _, v := range wc {
		if v == w {
			return true
		}
	}
	return false
}

// Sorted returns a copy of the chunk ordered by word index
func (wc WordChunk) Sorted() WordChunk {
	ans := make(WordChunk, len(wc))
	copy(ans, wc)
	sort.SliceStable(ans, func(i, j int) bool { return ans[i].Index < ans[j].Index })
	return ans
}

// FirstIndex returns index of the first word or -1
// for an empty chunk.
func (wc WordChunk) FirstIndex() int {
	if len(wc) == 0 {
		return -1
	}
	return wc[0].Index
}

func (wc WordChunk) String() string {
	tmp := make([]string, len(wc))
	for i, w := range wc {
		tmp[i] = w.Text
	}
	return strings.Join(tmp, " ")
}

// ObjectContext is a contextual modifier of a competency object
type ObjectContext struct {
	Words WordChunk `json:"words"`
}

func (oc ObjectContext) Equal(other ObjectContext) bool {
	return oc.Words.Equal(other.Words)
}

func (oc ObjectContext) String() string {
	return oc.Words.String()
}

// CompetencyObject is an object phrase of a competency verb
type CompetencyObject struct {
	Words    WordChunk       `json:"words"`
	Contexts []ObjectContext `json:"contexts"`
}

// Equal compares object phrases only, contexts are not considered.
func (co CompetencyObject) Equal(other CompetencyObject) bool {
	return co.Words.Equal(other.Words)
}

func (co CompetencyObject) String() string {
	return co.Words.String()
}

// Competency is a competency triple - a head verb with its
// objects and their contexts.
type Competency struct {
	Word              Word                `json:"word"`
	Objects           []CompetencyObject  `json:"objects"`
	TaxonomyDimension *taxonomy.Dimension `json:"taxonomyDimension,omitempty"`
}

// Equal compares head words only. Objects are not considered
// here; evaluation implements its own deeper comparison.
func (c Competency) Equal(other Competency) bool {
	return c.Word == other.Word
}

// WithDimension returns a copy of the competency tagged
// with the provided taxonomy dimension.
func (c Competency) WithDimension(d taxonomy.Dimension) Competency {
	c.TaxonomyDimension = &d
	return c
}

func (c Competency) String() string {
	objs := make([]string, len(c.Objects))
	for i, o := range c.Objects {
		objs[i] = o.String()
	}
	return fmt.Sprintf("%s: [%s]", c.Word.Text, strings.Join(objs, ", "))
}

// Sentences maps sentence text to competencies found in the sentence.
// This is the common shape of both gold (annotated) and predicted data.
type Sentences map[string][]Competency

// Texts returns sentence texts in alphabetical order
func (s Sentences) Texts() []string {
	ans := make([]string, 0, len(s))
	for k := range s {
		ans = append(ans, k)
	}
	sort.Strings(ans)
	return ans
}

// NumCompetencies returns the total number of competencies
// over all the sentences.
func (s Sentences) NumCompetencies() int {
	var ans int
	for _, v := range s {
		ans += len(v)
	}
	return ans
}

// MergeWith adds all the sentences from other. In case a sentence
// is present in both, competencies of other replace the current ones.
func (s Sentences) MergeWith(other Sentences) {
	for k, v := range other {
		s[k] = v
	}
}

// Clone creates a deep copy of the data
func (s Sentences) Clone() Sentences {
	ans := make(Sentences, len(s))
	for k, comps := range s {
		cc := make([]Competency, len(comps))
		for i, c := range comps {
			cc[i] = c.Clone()
		}
		ans[k] = cc
	}
	return ans
}

// Clone creates a deep copy of the competency
func (c Competency) Clone() Competency {
	ans := Competency{Word: c.Word}
	if c.TaxonomyDimension != nil {
		d := *c.TaxonomyDimension
		ans.TaxonomyDimension = &d
	}
	if c.Objects != nil {
		ans.Objects = make([]CompetencyObject, len(c.Objects))
		for i, o := range c.Objects {
			no := CompetencyObject{Words: append(WordChunk{}, o.Words...)}
			if o.Contexts != nil {
				no.Contexts = make([]ObjectContext, len(o.Contexts))
				for j, ctx := range o.Contexts {
					no.Contexts[j] = ObjectContext{Words: append(WordChunk{}, ctx.Words...)}
				}
			}
			ans.Objects[i] = no
		}
	}
	return ans
}
