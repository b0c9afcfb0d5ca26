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

package evaluation

import (
	"testing"

	"compex/competency"

	"github.com/stretchr/testify/assert"
)

const (
	sentence1 = "Die Studierenden sollen in der Lage sein, eine komplexe Anwendung mit " +
		"projektspezifischen Basistechniken in Teamarbeit zu konzipieren und umzusetzen."
	sentence2 = "Die Studierenden beherrschen die grundlegenden Techniken zum wissenschaftlichen Arbeiten."
	sentence3 = "Sie kennen und verstehen die Grundlagen der Informatik."
)

func word(idx int, text string) competency.Word {
	return competency.Word{Index: idx, Text: text}
}

func chunk(words ...competency.Word) competency.WordChunk {
	return competency.WordChunk(words)
}

func object(words competency.WordChunk, contexts ...competency.WordChunk) competency.CompetencyObject {
	ans := competency.CompetencyObject{Words: words}
	for _, c := range contexts {
		ans.Contexts = append(ans.Contexts, competency.ObjectContext{Words: c})
	}
	return ans
}

func comp(w competency.Word, objs ...competency.CompetencyObject) competency.Competency {
	return competency.Competency{Word: w, Objects: objs}
}

// baseData contains six competencies, each one fully correct when
// compared with itself
func baseData() competency.Sentences {
	return competency.Sentences{
		sentence1: {
			comp(
				word(16, "konzipieren"),
				object(
					chunk(word(8, "eine"), word(9, "komplexe"), word(10, "Anwendung")),
					chunk(word(11, "mit"), word(12, "projektspezifischen"), word(13, "Basistechniken")),
				),
			),
			comp(
				word(18, "umzusetzen"),
				object(chunk(word(8, "eine"), word(9, "komplexe"), word(10, "Anwendung"))),
			),
		},
		sentence2: {
			comp(
				word(2, "beherrschen"),
				object(
					chunk(word(3, "die"), word(4, "grundlegenden"), word(5, "Techniken")),
					chunk(word(6, "zum"), word(7, "wissenschaftlichen"), word(8, "Arbeiten")),
				),
			),
		},
		sentence3: {
			comp(word(1, "kennen"), object(chunk(word(5, "Grundlagen")))),
			comp(word(3, "verstehen"), object(chunk(word(5, "Grundlagen")))),
			comp(word(0, "Sie")),
		},
	}
}

func TestScenarioHeadsOnly(t *testing.T) {
	gold := competency.Sentences{"S": {comp(word(3, "kennen"))}}
	predicted := competency.Sentences{"S": {comp(word(3, "kennen")), comp(word(9, "FalsePositive"))}}
	ans := FMeasureEvaluator{}.Evaluate(NewEvaluationSet(gold, predicted), false, false)
	assert.Equal(t, 1.0, ans.TruePositives())
	assert.Equal(t, 1.0, ans.FalsePositives())
	assert.Equal(t, 0.0, ans.FalseNegatives())
	assert.Equal(t, 0.5, ans.Precision)
	assert.Equal(t, 1.0, ans.Recall)
	assert.InDelta(t, 0.667, ans.F1, 0.001)
}

func TestScenarioPartialObject(t *testing.T) {
	gold := competency.Sentences{"S": {comp(word(9, "wow"), object(chunk(word(3, "nice"))))}}
	predicted := competency.Sentences{
		"S": {comp(word(9, "wow"), object(chunk(word(3, "nice"), word(4, "extra"))))},
	}
	ans := FMeasureEvaluator{}.Evaluate(NewEvaluationSet(gold, predicted), true, false)
	assert.InDelta(t, 2.0/3.0, ans.Positives.True, 1e-12)
	assert.InDelta(t, 1.0/3.0, ans.Positives.False, 1e-12)
	assert.Equal(t, 1.0, ans.Negatives.True)
	assert.Equal(t, 0.0, ans.Negatives.False)
}

func TestIdenticalData(t *testing.T) {
	gold := baseData()
	ans := FMeasureEvaluator{}.Evaluate(NewEvaluationSet(gold, gold.Clone()), true, true)
	assert.Equal(t, 6.0, ans.TruePositives())
	assert.Equal(t, 0.0, ans.FalsePositives())
	assert.Equal(t, 0.0, ans.FalseNegatives())
	assert.Equal(t, 1.0, ans.Precision)
	assert.Equal(t, 1.0, ans.Recall)
	assert.Equal(t, 1.0, ans.F1)
}

func TestHeadsOnlyWithInjectedErrors(t *testing.T) {
	gold := baseData()
	predicted := gold.Clone()
	predicted[sentence1] = append(predicted[sentence1], comp(word(9, "False Positive")))
	gold[sentence1] = append(
		gold[sentence1],
		comp(word(8, "False negative1")),
		comp(word(7, "False negative2")),
	)
	ans := FMeasureEvaluator{}.Evaluate(NewEvaluationSet(gold, predicted), false, false)
	assert.Equal(t, 6.0, ans.TruePositives())
	assert.Equal(t, 1.0, ans.FalsePositives())
	assert.Equal(t, 2.0, ans.FalseNegatives())
	assert.InDelta(t, 0.8571428571428571, ans.Precision, 1e-12)
	assert.InDelta(t, 0.75, ans.Recall, 1e-12)
	assert.InDelta(t, 0.8, ans.F1, 1e-12)
}

func TestObjectsWithInjectedErrors(t *testing.T) {
	gold := baseData()
	predicted := gold.Clone()
	predicted[sentence1] = append(
		predicted[sentence1],
		comp(
			word(9, "wow"),
			object(chunk(word(3, "nice"), word(4, "false positive"))),
			object(chunk(word(64, "false positive"), word(65, "false positive"))),
		),
	)
	gold[sentence1] = append(
		gold[sentence1],
		comp(
			word(9, "wow"),
			object(chunk(
				word(3, "nice"),
				word(5, "false negative1"),
				word(6, "false negative2"),
				word(7, "false negative3"),
			)),
			object(chunk(word(48, "false negative4"), word(49, "false negative5"))),
		),
	)
	ans := FMeasureEvaluator{}.Evaluate(NewEvaluationSet(gold, predicted), true, false)
	assert.InDelta(t, 6.4, ans.TruePositives(), 1e-9)
	assert.InDelta(t, 0.6, ans.FalsePositives(), 1e-9)
	assert.InDelta(t, 0.7142857142857143, ans.FalseNegatives(), 1e-9)
	assert.InDelta(t, 0.9142857142857144, ans.Precision, 1e-9)
	assert.InDelta(t, 0.8995983935742972, ans.Recall, 1e-9)
	assert.InDelta(t, 0.9068825910931175, ans.F1, 1e-9)
}

func TestObjectsAndContextsWithInjectedErrors(t *testing.T) {
	gold := baseData()
	predicted := gold.Clone()
	predicted[sentence1] = append(
		predicted[sentence1],
		comp(
			word(9, "wow"),
			object(
				chunk(word(3, "nice"), word(4, "false positive")),
				chunk(word(12, "nice word"), word(13, "false positive context1")),
				chunk(word(45, "false positive context2"), word(46, "false positive context3")),
			),
		),
	)
	gold[sentence1] = append(
		gold[sentence1],
		comp(
			word(9, "wow"),
			object(
				chunk(word(3, "nice"), word(5, "false negative1"), word(6, "false negative2")),
				chunk(word(11, "false negative context 1"), word(12, "nice word")),
				chunk(word(78, "false negative context 2"), word(79, "false negative context 3")),
			),
		),
	)
	ans := FMeasureEvaluator{}.Evaluate(NewEvaluationSet(gold, predicted), true, true)
	assert.InDelta(t, 6.0+3.0/7.0, ans.TruePositives(), 1e-9)
	assert.InDelta(t, 4.0/7.0, ans.FalsePositives(), 1e-9)
	assert.InDelta(t, 6.0+3.0/8.0, ans.Negatives.True, 1e-9)
	assert.InDelta(t, 5.0/8.0, ans.FalseNegatives(), 1e-9)
	assert.InDelta(t, 0.9183673469387755, ans.Precision, 1e-9)
	assert.InDelta(t, 0.9113924050632911, ans.Recall, 1e-9)
	assert.InDelta(t, 0.914866581956798, ans.F1, 1e-9)
}

func TestContextsRequireObjects(t *testing.T) {
	gold := competency.Sentences{
		"S": {comp(word(1, "a"), object(chunk(word(2, "b")), chunk(word(3, "c"))))},
	}
	predicted := competency.Sentences{
		"S": {comp(word(1, "a"), object(chunk(word(2, "b")), chunk(word(4, "x"))))},
	}
	ans := FMeasureEvaluator{}.Evaluate(NewEvaluationSet(gold, predicted), false, true)
	assert.Equal(t, 1.0, ans.Precision)
	assert.Equal(t, 1.0, ans.Recall)

	ans = FMeasureEvaluator{}.Evaluate(NewEvaluationSet(gold, predicted), true, true)
	assert.InDelta(t, 2.0/3.0, ans.Positives.True, 1e-12)
}

func TestEqualContextCountedOnce(t *testing.T) {
	ctx := chunk(word(5, "im"), word(6, "Team"))
	gold := competency.Sentences{
		"S": {comp(word(1, "a"), object(chunk(word(2, "b"), word(7, "z")), ctx))},
	}
	predicted := competency.Sentences{
		"S": {comp(
			word(1, "a"),
			object(chunk(word(2, "b")), ctx),
			object(chunk(word(3, "c")), ctx),
		)},
	}
	ans := FMeasureEvaluator{}.Evaluate(NewEvaluationSet(gold, predicted), true, true)
	// head + "b" + whole context (2 words) vs. missing "z"
	assert.InDelta(t, 0.8, ans.Negatives.True, 1e-12)
	assert.InDelta(t, 0.2, ans.Negatives.False, 1e-12)
}

func TestContextsScoredAcrossMatchedObjects(t *testing.T) {
	gold := competency.Sentences{
		"S": {comp(word(1, "a"), object(chunk(word(2, "b")), chunk(word(3, "c"))))},
	}
	predicted := competency.Sentences{
		"S": {comp(
			word(1, "a"),
			object(chunk(word(2, "b")), chunk(word(4, "x"))),
			object(chunk(word(5, "d")), chunk(word(3, "c"))),
		)},
	}
	ans := FMeasureEvaluator{}.Evaluate(NewEvaluationSet(gold, predicted), true, true)
	// head + "b" + context "c" vs. context "x" of the matched object and object "d"
	assert.InDelta(t, 0.6, ans.Positives.True, 1e-12)
	assert.InDelta(t, 0.4, ans.Positives.False, 1e-12)
	// gold context "c" is found with another predicted object
	assert.Equal(t, 1.0, ans.Negatives.True)
	assert.Equal(t, 0.0, ans.Negatives.False)
}

func TestUnmatchedSentencesAreExcluded(t *testing.T) {
	gold := baseData()
	predicted := baseData()
	delete(predicted, sentence2)
	gold["only in gold"] = []competency.Competency{comp(word(0, "x"))}
	predicted["only in predicted"] = []competency.Competency{comp(word(0, "y"))}

	set := NewEvaluationSet(gold, predicted)
	assert.Equal(t, 2, set.Len())
	assert.Equal(t, 2, set.NumGoldOnly())
	assert.Equal(t, 1, set.NumPredictedOnly())
	assert.Equal(t, []string{sentence1, sentence3}, set.Texts())
	_, ok := set.Pair(sentence2)
	assert.False(t, ok)

	ans := FMeasureEvaluator{}.Evaluate(set, true, true)
	assert.Equal(t, 5.0, ans.TruePositives())
	assert.Equal(t, 0.0, ans.FalsePositives())
	assert.Equal(t, 0.0, ans.FalseNegatives())
}

func TestOnlyUnmatchedSentences(t *testing.T) {
	gold := competency.Sentences{"A": {comp(word(0, "x"))}}
	predicted := competency.Sentences{"B": {comp(word(0, "x"))}}
	ans := FMeasureEvaluator{}.Evaluate(NewEvaluationSet(gold, predicted), true, true)
	assert.Equal(t, Result{}, ans)
}

func TestEmptyData(t *testing.T) {
	ans := FMeasureEvaluator{}.Evaluate(
		NewEvaluationSet(competency.Sentences{}, competency.Sentences{}), true, true)
	assert.Equal(t, 0.0, ans.Precision)
	assert.Equal(t, 0.0, ans.Recall)
	assert.Equal(t, 0.0, ans.F1)
}

func TestCompetencyContributionIsBounded(t *testing.T) {
	gold := baseData()
	predicted := competency.Sentences{
		sentence1: {
			comp(word(16, "konzipieren"), object(chunk(word(8, "eine"), word(99, "x")))),
			comp(word(17, "und")),
		},
		sentence2: {
			comp(word(2, "beherrschen")),
		},
		sentence3: {},
	}
	ans := FMeasureEvaluator{}.Evaluate(NewEvaluationSet(gold, predicted), true, true)
	assert.InDelta(t, 3.0, ans.Positives.True+ans.Positives.False, 1e-12)
	assert.InDelta(t, 6.0, ans.Negatives.True+ans.Negatives.False, 1e-12)
}
