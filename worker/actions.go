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

package worker

import (
	"context"
	"fmt"
	"strings"

	"compex/competency"
	"compex/converter"
	"compex/evaluation"
	"compex/extractor"
	"compex/merror"
	"compex/rdb"
	"compex/rdb/results"
	"compex/taxonomy"
	"compex/tsv"

	"github.com/rs/zerolog/log"
)

func (w *Worker) dictionary(useTaxonomy bool) (taxonomy.Dictionary, error) {
	if !useTaxonomy {
		return nil, nil
	}
	if w.taxonomy == nil {
		return nil, merror.InputError{Msg: "taxonomy requested but no taxonomy dictionary is configured"}
	}
	return w.taxonomy.Dictionary(), nil
}

func (w *Worker) predicted(
	ctx context.Context,
	args rdb.EvaluateArgs,
	doc *tsv.Document,
	dict taxonomy.Dictionary,
) (competency.Sentences, error) {
	if args.Predicted != nil {
		src := extractor.NewFileSource(args.Predicted)
		return src.Annotate(ctx, args.Predicted.Texts(), dict)
	}
	if w.extractor == nil {
		return nil, merror.InputError{Msg: "no predicted data provided and no extractor is available"}
	}
	return w.extractor.Annotate(ctx, doc.SentenceTexts(), dict)
}

func (w *Worker) evaluate(ctx context.Context, args rdb.EvaluateArgs) results.Evaluation {
	ans := results.Evaluation{
		ConsiderObjects:  args.ConsiderObjects,
		ConsiderContexts: args.ConsiderContexts,
	}
	dict, err := w.dictionary(args.UseTaxonomy)
	if err != nil {
		ans.Error = err
		return ans
	}
	doc, err := tsv.ReadDocument(strings.NewReader(args.GoldTSV))
	if err != nil {
		ans.Error = merror.InputError{Msg: fmt.Sprintf("failed to read gold data: %s", err)}
		return ans
	}
	markers := args.Markers
	if markers.IsZero() {
		markers = w.markers
	}
	gold := converter.TsvToCompetencies(doc, markers)
	pred, err := w.predicted(ctx, args, doc, dict)
	if err != nil {
		ans.Error = fmt.Errorf("failed to obtain predicted data: %w", err)
		return ans
	}
	set := evaluation.NewEvaluationSet(gold, pred)
	log.Debug().
		Int("goldSentences", len(gold)).
		Int("predictedSentences", len(pred)).
		Int("evaluatedSentences", set.Len()).
		Msg("prepared evaluation set")
	return results.NewEvaluation(set, args.ConsiderObjects, args.ConsiderContexts)
}

func (w *Worker) extract(ctx context.Context, args rdb.ExtractArgs) results.Extraction {
	var ans results.Extraction
	if len(args.Sentences) == 0 {
		ans.Error = merror.InputError{Msg: "no sentences to process"}
		return ans
	}
	if w.extractor == nil {
		ans.Error = merror.InternalError{Msg: "worker has no extractor configured"}
		return ans
	}
	dict, err := w.dictionary(args.UseTaxonomy)
	if err != nil {
		ans.Error = err
		return ans
	}
	ans.Sentences, ans.Error = w.extractor.Annotate(ctx, args.Sentences, dict)
	return ans
}
