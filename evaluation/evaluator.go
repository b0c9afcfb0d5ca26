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
	"compex/competency"
)

type Counts struct {
	True  float64 `json:"true"`
	False float64 `json:"false"`
}

type Result struct {
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	Positives Counts  `json:"positives"`
	Negatives Counts  `json:"negatives"`
}

// TruePositives, FalsePositives and FalseNegatives are
// shortcuts to the underlying counts.

func (r Result) TruePositives() float64 {
	return r.Positives.True
}

func (r Result) FalsePositives() float64 {
	return r.Positives.False
}

func (r Result) FalseNegatives() float64 {
	return r.Negatives.False
}

// ----

type passType int

const (
	passPositive passType = iota
	passNegative
)

// FMeasureEvaluator scores competencies with a partial credit.
// Each competency contributes at most 1.0 to the counts - its head
// verb and (optionally) each word of its objects and contexts are
// scored separately and the score is normalized by the number
// of scored units.
type FMeasureEvaluator struct {
}

type scoring struct {
	objects  bool
	contexts bool
}

func wordInObjects(w competency.Word, objects []competency.CompetencyObject) bool {
	for _, obj := range objects {
		if obj.Words.Contains(w) {
			return true
		}
	}
	return false
}

func wordInContexts(w competency.Word, objects []competency.CompetencyObject) bool {
	for _, obj := range objects {
		for _, ctx := range obj.Contexts {
			if ctx.Words.Contains(w) {
				return true
			}
		}
	}
	return false
}

func hasObject(obj competency.CompetencyObject, objects []competency.CompetencyObject) bool {
	for _, other := range objects {
		if other.Equal(obj) {
			return true
		}
	}
	return false
}

func hasContext(ctx competency.ObjectContext, objects []competency.CompetencyObject) bool {
	for _, obj := range objects {
		for _, other := range obj.Contexts {
			if other.Equal(ctx) {
				return true
			}
		}
	}
	return false
}

// scoreCompetency returns numbers of correct and incorrect units
// of comp when compared with the candidates. With contexts enabled,
// contexts are scored even if the whole object matched, and they are
// looked up among the contexts of all the matched competency's objects.
func (sc scoring) scoreCompetency(
	comp competency.Competency,
	candidates []competency.Competency,
) (int, int) {
	var trues, falses int
	for _, match := range candidates {
		if match.Word != comp.Word {
			continue
		}
		trues++
		if !sc.objects {
			return trues, falses
		}
		for _, obj := range comp.Objects {
			if hasObject(obj, match.Objects) {
				trues += len(obj.Words)

			} else {
				for _, w := range obj.Words {
					if wordInObjects(w, match.Objects) {
						trues++

					} else {
						falses++
					}
				}
			}
			if !sc.contexts {
				continue
			}
			for _, ctx := range obj.Contexts {
				if hasContext(ctx, match.Objects) {
					trues += len(ctx.Words)
					continue
				}
				for _, w := range ctx.Words {
					if wordInContexts(w, match.Objects) {
						trues++

					} else {
						falses++
					}
				}
			}
		}
		return trues, falses
	}
	return 0, 1
}

func (sc scoring) count(set *EvaluationSet, pt passType) Counts {
	var ans Counts
	for _, text := range set.Texts() {
		pair := set.pairs[text]
		primary, secondary := pair.Predicted, pair.Gold
		if pt == passNegative {
			primary, secondary = pair.Gold, pair.Predicted
		}
		for _, comp := range primary {
			trues, falses := sc.scoreCompetency(comp, secondary)
			total := float64(trues + falses)
			ans.True += float64(trues) / total
			ans.False += float64(falses) / total
		}
	}
	return ans
}

func precision(tp, fp float64) float64 {
	if tp == 0 && fp == 0 {
		return 0
	}
	return tp / (tp + fp)
}

func recall(tp, fn float64) float64 {
	if tp == 0 && fn == 0 {
		return 0
	}
	return tp / (tp + fn)
}

func f1Score(p, r float64) float64 {
	if p == 0 && r == 0 {
		return 0
	}
	return 2 * ((p * r) / (p + r))
}

// Evaluate calculates the scores of predicted competencies. Positives
// are obtained by searching predicted competencies in gold data,
// negatives by searching gold competencies in predicted data.
// Contexts are considered only along with objects.
func (fme FMeasureEvaluator) Evaluate(set *EvaluationSet, considerObjects, considerContexts bool) Result {
	sc := scoring{objects: considerObjects, contexts: considerObjects && considerContexts}
	var ans Result
	ans.Positives = sc.count(set, passPositive)
	ans.Negatives = sc.count(set, passNegative)
	ans.Precision = precision(ans.Positives.True, ans.Positives.False)
	ans.Recall = recall(ans.Positives.True, ans.Negatives.False)
	ans.F1 = f1Score(ans.Precision, ans.Recall)
	return ans
}
