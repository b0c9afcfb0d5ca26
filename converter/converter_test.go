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

package converter

import (
	"strings"
	"testing"

	"compex/competency"
	"compex/tsv"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func word(idx int, text string) competency.Word {
	return competency.Word{Index: idx, Text: text}
}

func object(words ...competency.Word) competency.CompetencyObject {
	return competency.CompetencyObject{Words: words, Contexts: []competency.ObjectContext{}}
}

func comp(w competency.Word, objs ...competency.CompetencyObject) competency.Competency {
	if objs == nil {
		objs = []competency.CompetencyObject{}
	}
	return competency.Competency{Word: w, Objects: objs}
}

func loadTestDoc(t *testing.T) *tsv.Document {
	doc, err := tsv.ReadFile("testdata/test.tsv")
	require.NoError(t, err)
	return doc
}

func TestTsvToCompetencies(t *testing.T) {
	ans := TsvToCompetencies(loadTestDoc(t), DefaultMarkers())
	assert.Len(t, ans, 4)

	obj := object(word(3, "die"), word(4, "grundlegenden"), word(5, "Techniken"))
	obj.Contexts = []competency.ObjectContext{
		{Words: competency.WordChunk{word(6, "zum"), word(7, "wissenschaftlichen"), word(8, "Arbeiten")}},
	}
	assert.Equal(
		t,
		[]competency.Competency{comp(word(2, "beherrschen"), obj)},
		ans["Die Studierenden beherrschen die grundlegenden Techniken zum wissenschaftlichen Arbeiten."],
	)
	assert.Equal(
		t,
		[]competency.Competency{comp(word(1, "implementieren"), object(word(2, "Anwendungen")))},
		ans["Studierende implementieren Anwendungen."],
	)
	empty, ok := ans["Das ist ein Satz."]
	assert.True(t, ok)
	assert.Len(t, empty, 0)

	assert.Equal(
		t,
		[]competency.Competency{
			comp(word(4, "konzipieren"), object(word(3, "Anwendungen"))),
			comp(word(6, "umsetzen"), object(word(3, "Anwendungen"))),
		},
		ans["Die Studierenden können Anwendungen konzipieren und umsetzen."],
	)
}

func TestIndexConversion(t *testing.T) {
	doc := loadTestDoc(t)
	for _, sent := range doc.Sentences {
		for _, c := range SentenceCompetencies(sent, DefaultMarkers()) {
			found := false
			for _, tok := range sent.Tokens {
				if tok.Text == c.Word.Text && tok.TokenNumber-1 == c.Word.Index {
					found = true
				}
			}
			assert.True(t, found, "competency %s not anchored properly", c.Word)
		}
	}
}

func TestCustomMarkers(t *testing.T) {
	src := "#FORMAT=WebAnno TSV 3.2\n" +
		"#T_SP=webanno.custom.Comp|Kind|Note\n" +
		"#T_RL=webanno.custom.CompRel|BT_webanno.custom.Comp\n\n\n" +
		"#Text=Sie lernen Sprachen\n" +
		"1-1\t0-3\tSie\t_\t_\t_\t\n" +
		"1-2\t4-10\tlernen\tK\tO\t_\t\n" +
		"1-3\t11-19\tSprachen\tO\tK\t1-2\t\n"
	doc, err := tsv.ReadDocument(strings.NewReader(src))
	require.NoError(t, err)

	markers := Markers{Feature: "Kind", Competency: "K", Object: "O", Context: "C"}
	ans := TsvToCompetencies(doc, markers)
	assert.Equal(
		t,
		[]competency.Competency{comp(word(1, "lernen"), object(word(2, "Sprachen")))},
		ans["Sie lernen Sprachen"],
	)

	markers.Feature = "Note"
	ans = TsvToCompetencies(doc, markers)
	assert.Equal(
		t,
		[]competency.Competency{comp(word(2, "Sprachen"))},
		ans["Sie lernen Sprachen"],
	)
}

func TestUnknownMarkerIsIgnored(t *testing.T) {
	src := "#FORMAT=WebAnno TSV 3.2\n" +
		"#T_SP=webanno.custom.TestLayer|CompType\n" +
		"#T_RL=webanno.custom.TestLayerRelation|BT_webanno.custom.TestLayer\n\n\n" +
		"#Text=a b c\n" +
		"1-1\t0-1\ta\tcompetency\t_\t\n" +
		"1-2\t2-3\tb\tsomethingElse\t1-1\t\n" +
		"1-3\t4-5\tc\tcontext\t1-2\t\n"
	doc, err := tsv.ReadDocument(strings.NewReader(src))
	require.NoError(t, err)
	ans := TsvToCompetencies(doc, DefaultMarkers())
	assert.Equal(t, []competency.Competency{comp(word(0, "a"))}, ans["a b c"])
}

func TestDuplicateSentenceTextLastWins(t *testing.T) {
	src := "#FORMAT=WebAnno TSV 3.2\n" +
		"#T_SP=webanno.custom.TestLayer|CompType\n" +
		"#T_RL=webanno.custom.TestLayerRelation|BT_webanno.custom.TestLayer\n\n\n" +
		"#Text=a b\n" +
		"1-1\t0-1\ta\tcompetency\t_\t\n" +
		"1-2\t2-3\tb\t_\t_\t\n\n" +
		"#Text=a b\n" +
		"2-1\t4-5\ta\t_\t_\t\n" +
		"2-2\t6-7\tb\tcompetency\t_\t\n"
	doc, err := tsv.ReadDocument(strings.NewReader(src))
	require.NoError(t, err)
	ans := TsvToCompetencies(doc, DefaultMarkers())
	assert.Len(t, ans, 1)
	assert.Equal(t, []competency.Competency{comp(word(1, "b"))}, ans["a b"])
}

func TestRelationToStackedToken(t *testing.T) {
	header := "#FORMAT=WebAnno TSV 3.2\n" +
		"#T_SP=webanno.custom.TestLayer|CompType\n" +
		"#T_RL=webanno.custom.TestLayerRelation|BT_webanno.custom.TestLayer\n\n\n"

	src := header +
		"#Text=a b\n" +
		"1-1\t0-1\ta\tcompetency|object[5]\t_\t\n" +
		"1-2\t2-3\tb\tobject\t1-1\t\n"
	doc, err := tsv.ReadDocument(strings.NewReader(src))
	require.NoError(t, err)
	ans := TsvToCompetencies(doc, DefaultMarkers())
	assert.Equal(t, []competency.Competency{comp(word(0, "a"), object(word(1, "b")))}, ans["a b"])

	src = header +
		"#Text=a b\n" +
		"1-1\t0-1\ta\tobject[5]|competency\t_\t\n" +
		"1-2\t2-3\tb\tobject\t1-1\t\n"
	doc, err = tsv.ReadDocument(strings.NewReader(src))
	require.NoError(t, err)
	ans = TsvToCompetencies(doc, DefaultMarkers())
	assert.Equal(t, []competency.Competency{comp(word(0, "a"))}, ans["a b"])
}
