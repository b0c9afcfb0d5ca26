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

// Package converter reconstructs competency triples from
// span annotations of a parsed TSV document.
package converter

import (
	"compex/competency"
	"compex/tsv"

	"github.com/rs/zerolog/log"
)

// Markers specify which span annotation values mark
// competencies, objects and contexts.
type Markers struct {

	// Feature limits the markers to a span feature of the
	// specified name. If empty, any span feature is accepted.
	Feature string `json:"feature"`

	Competency string `json:"competency"`
	Object     string `json:"object"`
	Context    string `json:"context"`
}

// IsZero tests whether no marker value is set
func (m Markers) IsZero() bool {
	return m.Competency == "" && m.Object == "" && m.Context == ""
}

func DefaultMarkers() Markers {
	return Markers{
		Competency: "competency",
		Object:     "object",
		Context:    "context",
	}
}

func (m Markers) isMarkerFeature(ch *tsv.TokenChunk) bool {
	def := ch.Feature().Definition
	return def.Layer.Type == tsv.LayerSpan && (m.Feature == "" || def.Name == m.Feature)
}

func (m Markers) marks(ch *tsv.TokenChunk, value string) bool {
	return m.isMarkerFeature(ch) && ch.Value() == value
}

func (m Markers) isKnown(value string) bool {
	return value == m.Competency || value == m.Object || value == m.Context
}

// ----

func wordIndex(t tsv.Token) int {
	return t.TokenNumber - 1
}

func chunkWords(ch *tsv.TokenChunk) competency.WordChunk {
	ans := make(competency.WordChunk, len(ch.Tokens()))
	for i, t := range ch.Tokens() {
		ans[i] = competency.Word{Index: wordIndex(t), Text: t.Text}
	}
	return ans
}

// SentenceCompetencies reconstructs competencies of a single
// resolved sentence.
func SentenceCompetencies(sent *tsv.Sentence, markers Markers) []competency.Competency {
	chunks := sent.Chunks()
	ans := make([]competency.Competency, 0, 4)

	for _, ch := range chunks {
		if markers.marks(ch, markers.Competency) {
			head := ch.FirstToken()
			ans = append(
				ans,
				competency.Competency{
					Word:    competency.Word{Index: wordIndex(head), Text: head.Text},
					Objects: []competency.CompetencyObject{},
				},
			)

		} else if markers.isMarkerFeature(ch) && !markers.isKnown(ch.Value()) {
			log.Debug().
				Str("value", ch.Value()).
				Str("sentence", sent.Text).
				Msg("ignoring unknown span value")
		}
	}

	for _, ch := range chunks {
		if !markers.marks(ch, markers.Object) {
			continue
		}
		for _, rel := range ch.Relations() {
			if !markers.marks(rel, markers.Competency) {
				continue
			}
			idx := wordIndex(rel.FirstToken())
			for i := range ans {
				if ans[i].Word.Index == idx {
					ans[i].Objects = append(
						ans[i].Objects,
						competency.CompetencyObject{
							Words:    chunkWords(ch),
							Contexts: []competency.ObjectContext{},
						},
					)
				}
			}
		}
	}

	for _, ch := range chunks {
		if !markers.marks(ch, markers.Context) {
			continue
		}
		for _, rel := range ch.Relations() {
			if !markers.marks(rel, markers.Object) {
				continue
			}
			idx := wordIndex(rel.FirstToken())
			for i := range ans {
				for j := range ans[i].Objects {
					obj := &ans[i].Objects[j]
					if obj.Words.FirstIndex() == idx {
						obj.Contexts = append(obj.Contexts, competency.ObjectContext{Words: chunkWords(ch)})
					}
				}
			}
		}
	}
	return ans
}

// TsvToCompetencies reconstructs competencies of all the document
// sentences. Sentences without any competency are mapped to an empty list.
// In case two sentences share the same text, the latter one is used.
func TsvToCompetencies(doc *tsv.Document, markers Markers) competency.Sentences {
	ans := make(competency.Sentences)
	for _, sent := range doc.Sentences {
		if _, ok := ans[sent.Text]; ok {
			log.Warn().
				Str("sentence", sent.Text).
				Msg("duplicate sentence text, replacing previous competencies")
		}
		ans[sent.Text] = SentenceCompetencies(sent, markers)
	}
	return ans
}
