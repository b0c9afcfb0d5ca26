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
	"errors"
	"os"
	"testing"
	"time"

	"compex/competency"
	"compex/converter"
	"compex/extractor"
	"compex/rdb"
	"compex/rdb/results"
	"compex/taxonomy"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeQueue struct {
	queries      []rdb.Query
	published    map[string]*rdb.WorkerResult
	inactive     bool
	publishErr   error
	publishCalls int
}

func (q *fakeQueue) DequeueQuery() (rdb.Query, error) {
	if len(q.queries) == 0 {
		return rdb.Query{}, rdb.ErrorEmptyQueue
	}
	ans := q.queries[0]
	q.queries = q.queries[1:]
	return ans, nil
}

func (q *fakeQueue) SomeoneListens(query rdb.Query) (bool, error) {
	return !q.inactive, nil
}

func (q *fakeQueue) PublishResult(channelName string, value *rdb.WorkerResult) error {
	q.publishCalls++
	if q.publishErr != nil {
		return q.publishErr
	}
	q.published[channelName] = value
	return nil
}

type fakeExtractor struct {
	data      competency.Sentences
	lastDict  taxonomy.Dictionary
	mustPanic bool
}

func (fe *fakeExtractor) Annotate(
	ctx context.Context,
	sentences []string,
	dict taxonomy.Dictionary,
) (competency.Sentences, error) {
	if fe.mustPanic {
		panic("extractor failure")
	}
	fe.lastDict = dict
	ans := make(competency.Sentences)
	for _, s := range sentences {
		if v, ok := fe.data[s]; ok {
			ans[s] = v
		}
	}
	return ans, nil
}

type staticDict taxonomy.Dictionary

func (sd staticDict) Dictionary() taxonomy.Dictionary {
	return taxonomy.Dictionary(sd)
}

func loadGold(t *testing.T) string {
	data, err := os.ReadFile("testdata/gold.tsv")
	require.NoError(t, err)
	return string(data)
}

func newTestWorker(q *fakeQueue, ext *fakeExtractor, tax taxonomy.Provider) *Worker {
	if q.published == nil {
		q.published = make(map[string]*rdb.WorkerResult)
	}
	var ex extractor.Extractor
	if ext != nil {
		ex = ext
	}
	w := newWorker("test-worker", q, nil, ex, tax, converter.DefaultMarkers(), time.Minute)
	w.ticker.Stop()
	return w
}

func enqueue(t *testing.T, q *fakeQueue, channel, fn string, args any) {
	query, err := rdb.NewQuery(fn, args)
	require.NoError(t, err)
	query.Channel = channel
	q.queries = append(q.queries, query)
}

func decodeEvaluation(t *testing.T, res *rdb.WorkerResult) results.EvaluationResponse {
	require.NotNil(t, res)
	var ans results.EvaluationResponse
	require.NoError(t, sonic.Unmarshal(res.Value, &ans))
	return ans
}

func TestEvaluateWithProvidedPredictions(t *testing.T) {
	gold := loadGold(t)
	q := &fakeQueue{}
	w := newTestWorker(q, nil, nil)
	predicted := map[string][]competency.Competency{
		"Studierende implementieren Anwendungen.": {
			{Word: competency.Word{Index: 1, Text: "implementieren"}},
		},
		"Das ist ein Satz.": {},
	}
	enqueue(t, q, "ch1", rdb.FuncEvaluate, rdb.EvaluateArgs{
		GoldTSV:   gold,
		Predicted: predicted,
	})
	require.NoError(t, w.tryNextQuery(context.Background()))

	res := q.published["ch1"]
	ans := decodeEvaluation(t, res)
	assert.Equal(t, rdb.ResultTypeEvaluation, res.ResultType)
	assert.Equal(t, "test-worker", res.WorkerID)
	assert.Equal(t, rdb.FuncEvaluate, res.Func)
	assert.Empty(t, ans.Error)
	assert.Equal(t, 2, ans.EvaluatedSentences)
	assert.Equal(t, 2, ans.GoldOnlySentences)
	assert.Equal(t, 0, ans.PredictedOnlySentences)
	assert.Equal(t, 1.0, ans.Precision)
	assert.Equal(t, 1.0, ans.Recall)
	assert.Equal(t, 1.0, ans.F1)
}

func TestEvaluateUsesExtractor(t *testing.T) {
	gold := loadGold(t)
	q := &fakeQueue{}
	ext := &fakeExtractor{
		data: competency.Sentences{
			"Studierende implementieren Anwendungen.": {
				{Word: competency.Word{Index: 1, Text: "implementieren"}},
				{Word: competency.Word{Index: 2, Text: "Anwendungen"}},
			},
		},
	}
	w := newTestWorker(q, ext, nil)
	enqueue(t, q, "ch1", rdb.FuncEvaluate, rdb.EvaluateArgs{GoldTSV: gold})
	require.NoError(t, w.tryNextQuery(context.Background()))

	ans := decodeEvaluation(t, q.published["ch1"])
	assert.Equal(t, 1, ans.EvaluatedSentences)
	assert.Equal(t, 0.5, ans.Precision)
	assert.Equal(t, 1.0, ans.Recall)
	assert.Nil(t, ext.lastDict)
}

func TestEvaluateInvalidGoldData(t *testing.T) {
	q := &fakeQueue{}
	w := newTestWorker(q, &fakeExtractor{}, nil)
	enqueue(t, q, "ch1", rdb.FuncEvaluate, rdb.EvaluateArgs{
		GoldTSV: "#FORMAT=WebAnno TSV 3.2\n#T_SP=webanno.custom.Comp|Label\n\n#Text=A b\n1-1\t0-1\tA\tx\ty\t\n",
	})
	require.NoError(t, w.tryNextQuery(context.Background()))
	res := q.published["ch1"]
	require.NotNil(t, res)
	assert.True(t, res.HasUserError)
	assert.Contains(t, res.ErrorMessage(), "failed to read gold data")
}

func TestEvaluateTaxonomyNotConfigured(t *testing.T) {
	q := &fakeQueue{}
	w := newTestWorker(q, &fakeExtractor{}, nil)
	enqueue(t, q, "ch1", rdb.FuncEvaluate, rdb.EvaluateArgs{GoldTSV: loadGold(t), UseTaxonomy: true})
	require.NoError(t, w.tryNextQuery(context.Background()))
	res := q.published["ch1"]
	require.NotNil(t, res)
	assert.True(t, res.HasUserError)
}

func TestExtract(t *testing.T) {
	q := &fakeQueue{}
	ext := &fakeExtractor{
		data: competency.Sentences{
			"Studierende implementieren Anwendungen.": {
				{Word: competency.Word{Index: 1, Text: "implementieren"}},
			},
		},
	}
	dict := staticDict{"implementieren": taxonomy.Apply}
	w := newTestWorker(q, ext, dict)
	enqueue(t, q, "ch2", rdb.FuncExtract, rdb.ExtractArgs{
		Sentences:   []string{"Studierende implementieren Anwendungen."},
		UseTaxonomy: true,
	})
	require.NoError(t, w.tryNextQuery(context.Background()))

	res := q.published["ch2"]
	require.NotNil(t, res)
	assert.Equal(t, rdb.ResultTypeExtraction, res.ResultType)
	var ans results.ExtractionResponse
	require.NoError(t, sonic.Unmarshal(res.Value, &ans))
	assert.Equal(t, 1, ans.NumCompetencies)
	assert.Equal(t, taxonomy.Dictionary(dict), ext.lastDict)
}

func TestExtractNoSentences(t *testing.T) {
	q := &fakeQueue{}
	w := newTestWorker(q, &fakeExtractor{}, nil)
	enqueue(t, q, "ch2", rdb.FuncExtract, rdb.ExtractArgs{})
	require.NoError(t, w.tryNextQuery(context.Background()))
	res := q.published["ch2"]
	require.NotNil(t, res)
	assert.True(t, res.HasUserError)
	assert.Equal(t, "no sentences to process", res.ErrorMessage())
}

func TestUnknownFunction(t *testing.T) {
	q := &fakeQueue{}
	w := newTestWorker(q, &fakeExtractor{}, nil)
	enqueue(t, q, "ch3", "frobnicate", struct{}{})
	require.NoError(t, w.tryNextQuery(context.Background()))
	res := q.published["ch3"]
	require.NotNil(t, res)
	assert.Equal(t, rdb.ResultTypeError, res.ResultType)
	assert.False(t, res.HasUserError)
	assert.Contains(t, res.ErrorMessage(), "unknown query function")
}

func TestPanicIsRecovered(t *testing.T) {
	q := &fakeQueue{}
	w := newTestWorker(q, &fakeExtractor{mustPanic: true}, nil)
	enqueue(t, q, "ch4", rdb.FuncExtract, rdb.ExtractArgs{Sentences: []string{"a"}})
	require.NoError(t, w.tryNextQuery(context.Background()))
	res := q.published["ch4"]
	require.NotNil(t, res)
	assert.Equal(t, rdb.ResultTypeError, res.ResultType)
	assert.Contains(t, res.ErrorMessage(), "extractor failure")
}

func TestInvalidArgsArePublishedAsError(t *testing.T) {
	q := &fakeQueue{}
	w := newTestWorker(q, &fakeExtractor{}, nil)
	q.queries = append(q.queries, rdb.Query{
		Channel: "ch6",
		Func:    rdb.FuncExtract,
		Args:    []byte(`{"sentences": 5}`),
	})
	require.NoError(t, w.tryNextQuery(context.Background()))
	assert.Equal(t, 1, q.publishCalls)
	res := q.published["ch6"]
	require.NotNil(t, res)
	assert.Equal(t, rdb.ResultTypeError, res.ResultType)
	assert.Contains(t, res.ErrorMessage(), "failed to decode query args")
}

func TestPublishingFailureReportedOnce(t *testing.T) {
	q := &fakeQueue{publishErr: errors.New("connection lost")}
	w := newTestWorker(q, &fakeExtractor{}, nil)
	enqueue(t, q, "ch7", rdb.FuncExtract, rdb.ExtractArgs{Sentences: []string{"a"}})
	err := w.tryNextQuery(context.Background())
	assert.ErrorContains(t, err, "connection lost")
	// the result itself plus a single error notification
	assert.Equal(t, 2, q.publishCalls)
	assert.Empty(t, q.published)
}

func TestInactiveQueryIsSkipped(t *testing.T) {
	q := &fakeQueue{inactive: true}
	w := newTestWorker(q, &fakeExtractor{}, nil)
	enqueue(t, q, "ch5", rdb.FuncExtract, rdb.ExtractArgs{Sentences: []string{"a"}})
	require.NoError(t, w.tryNextQuery(context.Background()))
	assert.Empty(t, q.published)
}

func TestEmptyQueue(t *testing.T) {
	q := &fakeQueue{}
	w := newTestWorker(q, &fakeExtractor{}, nil)
	assert.NoError(t, w.tryNextQuery(context.Background()))
	assert.Empty(t, q.published)
}
