// Copyright 2023 Tomas Machalek <tomas.machalek@gmail.com>
// Copyright 2023 Institute of the Czech National Corpus,
//                Faculty of Arts, Charles University
// Copyright 2026 The COMPEX authors
//   This file is part of COMPEX.
//
//  COMPEX is free software: you can redistribute it and/or modify
//  it under the terms of the GNU General Public License as published by
//  the Free Software Foundation, either version 3 of the License, or
//  (at your option) any later version.
//
//  COMPEX is distributed in the hope that it will be useful,
//  but WITHOUT ANY WARRANTY; without even the implied warranty of
//  MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
//  GNU General Public License for more details.
//
//  You should have received a copy of the GNU General Public License
//  along with COMPEX.  If not, see <https://www.gnu.org/licenses/>.

package results

import (
	"math"

	"compex/competency"
	"compex/evaluation"
	"compex/rdb"

	"github.com/bytedance/sonic"
)

func errToStr(err error) string {
	if err != nil {
		return err.Error()
	}
	return ""
}

// NormRound performs a normalized rounding to
// the three decimal places so we can provide
// consistent rounding across all the results
func NormRound(val float64) float64 {
	return math.Round(val*1000) / 1000
}

// ----

type EvaluationResponse struct {
	Precision              float64           `json:"precision"`
	Recall                 float64           `json:"recall"`
	F1                     float64           `json:"f1"`
	Positives              evaluation.Counts `json:"positives"`
	Negatives              evaluation.Counts `json:"negatives"`
	EvaluatedSentences     int               `json:"evaluatedSentences"`
	GoldOnlySentences      int               `json:"goldOnlySentences"`
	PredictedOnlySentences int               `json:"predictedOnlySentences"`
	ConsiderObjects        bool              `json:"considerObjects"`
	ConsiderContexts       bool              `json:"considerContexts"`
	ResultType             rdb.ResultType    `json:"resultType"`
	Error                  string            `json:"error,omitempty"`
} // @name Evaluation

type Evaluation struct {
	Result evaluation.Result

	// EvaluatedSentences is the number of sentences found
	// in both gold and predicted data
	EvaluatedSentences int

	GoldOnlySentences      int
	PredictedOnlySentences int
	ConsiderObjects        bool
	ConsiderContexts       bool
	Error                  error
}

func (res Evaluation) Err() error {
	return res.Error
}

func (res Evaluation) Type() rdb.ResultType {
	return rdb.ResultTypeEvaluation
}

func (res Evaluation) MarshalJSON() ([]byte, error) {
	return sonic.Marshal(EvaluationResponse{
		Precision: NormRound(res.Result.Precision),
		Recall:    NormRound(res.Result.Recall),
		F1:        NormRound(res.Result.F1),
		Positives: evaluation.Counts{
			True:  NormRound(res.Result.Positives.True),
			False: NormRound(res.Result.Positives.False),
		},
		Negatives: evaluation.Counts{
			True:  NormRound(res.Result.Negatives.True),
			False: NormRound(res.Result.Negatives.False),
		},
		EvaluatedSentences:     res.EvaluatedSentences,
		GoldOnlySentences:      res.GoldOnlySentences,
		PredictedOnlySentences: res.PredictedOnlySentences,
		ConsiderObjects:        res.ConsiderObjects,
		ConsiderContexts:       res.ConsiderContexts,
		ResultType:             res.Type(),
		Error:                  errToStr(res.Error),
	})
}

// NewEvaluation evaluates the set and wraps the result
func NewEvaluation(set *evaluation.EvaluationSet, considerObjects, considerContexts bool) Evaluation {
	return Evaluation{
		Result:                 evaluation.FMeasureEvaluator{}.Evaluate(set, considerObjects, considerContexts),
		EvaluatedSentences:     set.Len(),
		GoldOnlySentences:      set.NumGoldOnly(),
		PredictedOnlySentences: set.NumPredictedOnly(),
		ConsiderObjects:        considerObjects,
		ConsiderContexts:       considerContexts,
	}
}

// ----

type ExtractionResponse struct {
	Sentences       competency.Sentences `json:"sentences"`
	NumCompetencies int                  `json:"numCompetencies"`
	ResultType      rdb.ResultType       `json:"resultType"`
	Error           string               `json:"error,omitempty"`
} // @name Extraction

type Extraction struct {
	Sentences competency.Sentences
	Error     error
}

func (res Extraction) Err() error {
	return res.Error
}

func (res Extraction) Type() rdb.ResultType {
	return rdb.ResultTypeExtraction
}

func (res Extraction) MarshalJSON() ([]byte, error) {
	sents := res.Sentences
	if sents == nil {
		sents = make(competency.Sentences)
	}
	return sonic.Marshal(ExtractionResponse{
		Sentences:       sents,
		NumCompetencies: sents.NumCompetencies(),
		ResultType:      res.Type(),
		Error:           errToStr(res.Error),
	})
}
