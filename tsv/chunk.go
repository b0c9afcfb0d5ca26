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

package tsv

import (
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
)

type chunkKey struct {
	def     *FeatureDefinition
	groupID int
}

// TokenChunk is a span made of all the tokens annotated with
// the same feature and group. Chunks are read-only once their
// sentence is resolved.
type TokenChunk struct {
	feature   Feature
	tokens    []Token
	relations []*TokenChunk
}

func (ch *TokenChunk) Feature() Feature {
	return ch.feature
}

func (ch *TokenChunk) Value() string {
	return ch.feature.Value
}

func (ch *TokenChunk) LayerName() string {
	return ch.feature.Definition.Layer.Name
}

// Tokens returns the chunk's tokens ordered by their position
func (ch *TokenChunk) Tokens() []Token {
	return ch.tokens
}

func (ch *TokenChunk) FirstToken() Token {
	return ch.tokens[0]
}

// Relations returns chunks this chunk points to
func (ch *TokenChunk) Relations() []*TokenChunk {
	return ch.relations
}

func (ch *TokenChunk) IsRelation() bool {
	return ch.feature.IsRelation()
}

func (ch *TokenChunk) Text() string {
	words := make([]string, len(ch.tokens))
	for i, t := range ch.tokens {
		words[i] = t.Text
	}
	return strings.Join(words, " ")
}

// ----

// Sentence is a parsed sentence with its tokens and resolved chunks
type Sentence struct {
	Text   string
	Tokens []Token

	chunks     []*TokenChunk
	chunkIndex map[chunkKey]*TokenChunk
}

// Chunks returns all the non-relation chunks in the order
// of their first occurrence in the sentence
func (s *Sentence) Chunks() []*TokenChunk {
	return s.chunks
}

// Chunk returns a chunk the feature belongs to
func (s *Sentence) Chunk(f Feature) (*TokenChunk, bool) {
	ch, ok := s.chunkIndex[chunkKey{def: f.Definition, groupID: f.SpanGroupID}]
	return ch, ok
}

// ----

// spanResolver groups sentence tokens into chunks and links
// the chunks according to relation annotations
type spanResolver struct {
	schema *Schema
}

func (sr *spanResolver) findAnchored(chunks []*TokenChunk, coord string, layerName string) *TokenChunk {
	for _, ch := range chunks {
		if ch.IsRelation() {
			continue
		}
		if layerName != "" && ch.LayerName() != layerName {
			continue
		}
		if ch.FirstToken().Coordinate() == coord {
			return ch
		}
	}
	return nil
}

// baseLayerOf returns the span layer the relation chunk is
// declared to connect or an empty string if the layer is unknown.
func (sr *spanResolver) baseLayerOf(ch *TokenChunk) string {
	for _, fd := range ch.feature.Definition.Layer.Features {
		if name := fd.BaseLayerName(); name != "" && sr.schema.Layer(name) != nil {
			return name
		}
	}
	return ""
}

func (sr *spanResolver) resolve(sent *Sentence) {
	index := make(map[chunkKey]*TokenChunk)
	ordered := make([]*TokenChunk, 0, len(sent.Tokens))
	for _, tok := range sent.Tokens {
		for _, feat := range tok.Features {
			key := chunkKey{def: feat.Definition, groupID: feat.SpanGroupID}
			ch, ok := index[key]
			if !ok {
				ch = &TokenChunk{feature: feat}
				index[key] = ch
				ordered = append(ordered, ch)
			}
			ch.tokens = append(ch.tokens, tok)
		}
	}
	for _, ch := range ordered {
		sort.SliceStable(ch.tokens, func(i, j int) bool {
			return ch.tokens[i].TokenNumber < ch.tokens[j].TokenNumber
		})
	}

	for _, rel := range ordered {
		if !rel.IsRelation() {
			continue
		}
		baseLayer := sr.baseLayerOf(rel)
		target := sr.findAnchored(ordered, rel.Value(), baseLayer)
		source := sr.findAnchored(ordered, rel.FirstToken().Coordinate(), baseLayer)
		if target == nil || source == nil {
			log.Debug().
				Str("relation", rel.Value()).
				Str("anchor", rel.FirstToken().Coordinate()).
				Msg("skipping unresolvable relation")
			continue
		}
		source.relations = append(source.relations, target)
	}

	sent.chunks = make([]*TokenChunk, 0, len(ordered))
	sent.chunkIndex = make(map[chunkKey]*TokenChunk)
	for _, ch := range ordered {
		if ch.IsRelation() {
			continue
		}
		sent.chunks = append(sent.chunks, ch)
		sent.chunkIndex[chunkKey{def: ch.feature.Definition, groupID: ch.feature.SpanGroupID}] = ch
	}
}
