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

// Package tsv reads documents encoded in the WebAnno TSV 3
// format (see https://webanno.github.io/webanno/releases/3.4.5/docs/user-guide.html#sect_webannotsv).
//
// A document starts with a header declaring annotation layers:
//
//	#FORMAT=WebAnno TSV 3.2
//	#T_SP=webanno.custom.TestLayer|CompType
//	#T_RL=webanno.custom.TestLayerRelation|BT_webanno.custom.TestLayer
//
// followed by sentences:
//
//	#Text=Die Studierenden beherrschen die grundlegenden Techniken.
//	1-1	0-3	Die	_	_
//	1-2	4-16	Studierenden	_	_
//	1-3	17-28	beherrschen	competency	_
//	1-4	29-32	die	object[4]	1-3[0_4]
//	1-5	33-46	grundlegenden	object[4]	_
//	1-6	47-56	Techniken	object[4]	_
//	1-7	56-57	.	_	_
//
// Each token line carries one column per declared feature.
package tsv

import (
	"bufio"
	"io"
	"strings"
)

const (
	headerLayerPrefixSeparator = "="
	headerPrefixFormat         = "#FORMAT" + headerLayerPrefixSeparator
	headerPrefixChainLayer     = "#T_CH" + headerLayerPrefixSeparator
	headerPrefixRelationLayer  = "#T_RL" + headerLayerPrefixSeparator
	headerPrefixSpanLayer      = "#T_SP" + headerLayerPrefixSeparator
	layerFeatureSeparator      = "|"

	SentenceTextPrefix = "#Text="
	FieldSeparator     = "\t"
	RangeSeparator     = "-"
	NullColumn         = "_"

	// RelationBaseTypePrefix marks the feature of a relation layer
	// pointing to the span layer the relation connects.
	RelationBaseTypePrefix = "BT_"

	maxLineSize = 10 * 1024 * 1024
)

// LayerType distinguishes the three kinds of annotation layers
type LayerType int

const (
	LayerSpan LayerType = iota
	LayerChain
	LayerRelation
)

func (lt LayerType) String() string {
	switch lt {
	case LayerSpan:
		return "span"
	case LayerChain:
		return "chain"
	case LayerRelation:
		return "relation"
	}
	return "unknown"
}

// LayerDefinition is an annotation layer declared in the document header
type LayerDefinition struct {
	Name     string
	Type     LayerType
	Features []*FeatureDefinition
}

// FeatureDefinition is a named attribute of a layer. Each feature
// definition is encoded as one column of token lines.
type FeatureDefinition struct {
	Name  string
	Layer *LayerDefinition
}

func (fd *FeatureDefinition) String() string {
	return fd.Layer.Name + layerFeatureSeparator + fd.Name
}

// BaseLayerName returns the name of the span layer a relation
// feature points to (e.g. `BT_webanno.custom.TestLayer`). For other
// features, an empty string is returned.
func (fd *FeatureDefinition) BaseLayerName() string {
	if fd.Layer.Type != LayerRelation || !strings.HasPrefix(fd.Name, RelationBaseTypePrefix) {
		return ""
	}
	return strings.TrimPrefix(fd.Name, RelationBaseTypePrefix)
}

// Schema describes the layers of a document
type Schema struct {
	Format         string
	SpanLayers     []*LayerDefinition
	ChainLayers    []*LayerDefinition
	RelationLayers []*LayerDefinition

	// features holds all the feature definitions in the order
	// of their columns
	features []*FeatureDefinition
}

// Features returns feature definitions in the order of token line columns
func (s *Schema) Features() []*FeatureDefinition {
	return s.features
}

// Layer finds a layer definition by its name
func (s *Schema) Layer(name string) *LayerDefinition {
	for _, group := range [][]*LayerDefinition{s.SpanLayers, s.ChainLayers, s.RelationLayers} {
		for _, layer := range group {
			if layer.Name == name {
				return layer
			}
		}
	}
	return nil
}

func (s *Schema) addLayer(decl string, lt LayerType) {
	items := strings.Split(decl, layerFeatureSeparator)
	layer := &LayerDefinition{Name: items[0], Type: lt}
	for _, fname := range items[1:] {
		fd := &FeatureDefinition{Name: fname, Layer: layer}
		layer.Features = append(layer.Features, fd)
		s.features = append(s.features, fd)
	}
	switch lt {
	case LayerSpan:
		s.SpanLayers = append(s.SpanLayers, layer)
	case LayerChain:
		s.ChainLayers = append(s.ChainLayers, layer)
	case LayerRelation:
		s.RelationLayers = append(s.RelationLayers, layer)
	}
}

// ----

// LineReader is a line iterator able to return one line back
// so a reader can stop right before a line it does not handle.
type LineReader struct {
	scanner *bufio.Scanner
	pending *string
	lineNo  int
}

// Next returns the next line without the trailing line break
func (lr *LineReader) Next() (string, bool) {
	if lr.pending != nil {
		ans := *lr.pending
		lr.pending = nil
		lr.lineNo++
		return ans, true
	}
	if !lr.scanner.Scan() {
		return "", false
	}
	lr.lineNo++
	return strings.TrimSuffix(lr.scanner.Text(), "\r"), true
}

// Unread pushes the line back so the next call of Next returns it again
func (lr *LineReader) Unread(line string) {
	lr.pending = &line
	lr.lineNo--
}

// LineNo returns the (1-based) number of the last line returned by Next
func (lr *LineReader) LineNo() int {
	return lr.lineNo
}

func (lr *LineReader) Err() error {
	return lr.scanner.Err()
}

func NewLineReader(r io.Reader) *LineReader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxLineSize)
	return &LineReader{scanner: sc}
}

// ReadSchema consumes consecutive header lines. The first line
// which is not a header line ends the header and it is left
// in the reader.
func ReadSchema(lr *LineReader) (*Schema, error) {
	schema := new(Schema)
	for {
		line, ok := lr.Next()
		if !ok {
			break
		}
		if strings.HasPrefix(line, headerPrefixFormat) {
			schema.Format = strings.TrimPrefix(line, headerPrefixFormat)

		} else if strings.HasPrefix(line, headerPrefixSpanLayer) {
			schema.addLayer(strings.TrimPrefix(line, headerPrefixSpanLayer), LayerSpan)

		} else if strings.HasPrefix(line, headerPrefixChainLayer) {
			schema.addLayer(strings.TrimPrefix(line, headerPrefixChainLayer), LayerChain)

		} else if strings.HasPrefix(line, headerPrefixRelationLayer) {
			schema.addLayer(strings.TrimPrefix(line, headerPrefixRelationLayer), LayerRelation)

		} else {
			lr.Unread(line)
			break
		}
	}
	return schema, lr.Err()
}
