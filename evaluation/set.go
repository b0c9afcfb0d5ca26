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

// Package evaluation compares competencies found by an extractor
// with manually annotated ones and calculates precision, recall
// and F1 score.
package evaluation

import (
	"sort"

	"compex/competency"
)

// SentencePair holds both the gold and the predicted competencies
// of a sentence
type SentencePair struct {
	Gold      []competency.Competency
	Predicted []competency.Competency
}

// EvaluationSet contains sentences available both in gold and
// predicted data. Other sentences are not evaluable and they are
// only counted.
type EvaluationSet struct {
	pairs         map[string]SentencePair
	texts         []string
	goldOnly      int
	predictedOnly int
}

// Texts returns evaluated sentences in a stable (sorted) order
func (es *EvaluationSet) Texts() []string {
	return es.texts
}

func (es *EvaluationSet) Pair(text string) (SentencePair, bool) {
	v, ok := es.pairs[text]
	return v, ok
}

func (es *EvaluationSet) Len() int {
	return len(es.texts)
}

// NumGoldOnly returns number of gold sentences missing in predicted data
func (es *EvaluationSet) NumGoldOnly() int {
	return es.goldOnly
}

// NumPredictedOnly returns number of predicted sentences missing in gold data
func (es *EvaluationSet) NumPredictedOnly() int {
	return es.predictedOnly
}

func NewEvaluationSet(gold, predicted competency.Sentences) *EvaluationSet {
	ans := &EvaluationSet{
		pairs: make(map[string]SentencePair),
		texts: make([]string, 0, len(gold)),
	}
	for text, comps := range gold {
		pred, ok := predicted[text]
		if !ok {
			ans.goldOnly++
			continue
		}
		ans.pairs[text] = SentencePair{Gold: comps, Predicted: pred}
		ans.texts = append(ans.texts, text)
	}
	for text := range predicted {
		if _, ok := gold[text]; !ok {
			ans.predictedOnly++
		}
	}
	sort.Strings(ans.texts)
	return ans
}
