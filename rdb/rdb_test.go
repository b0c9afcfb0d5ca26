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

package rdb

import (
	"context"
	"errors"
	"testing"
	"time"

	"compex/merror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testResult struct {
	Value string `json:"value"`
	Error error  `json:"-"`
}

func (tr testResult) Err() error {
	return tr.Error
}

func (tr testResult) Type() ResultType {
	return ResultTypeExtraction
}

func resultChan(res *WorkerResult) <-chan *WorkerResult {
	ans := make(chan *WorkerResult, 1)
	ans <- res
	close(ans)
	return ans
}

func TestCreateWorkerResult(t *testing.T) {
	begin := time.Now().Add(-time.Second)
	res, err := CreateWorkerResult(testResult{Value: "foo"}, "w1", FuncExtract, begin)
	require.NoError(t, err)
	assert.Equal(t, "w1", res.WorkerID)
	assert.Equal(t, FuncExtract, res.Func)
	assert.Equal(t, ResultTypeExtraction, res.ResultType)
	assert.JSONEq(t, `{"value": "foo"}`, string(res.Value))
	assert.False(t, res.HasUserError)
	assert.Empty(t, res.ErrorMessage())
	assert.True(t, res.ProcEnd.After(begin))
}

func TestUserErrorDetection(t *testing.T) {
	res, err := CreateWorkerResult(
		&ErrorResult{Func: FuncEvaluate, Error: "boom"}, "w1", FuncEvaluate, time.Now())
	require.NoError(t, err)
	assert.False(t, res.HasUserError)
	assert.Equal(t, ResultTypeError, res.ResultType)
	assert.Equal(t, "boom", res.ErrorMessage())

	res, err = CreateWorkerResult(
		testResult{Error: merror.InputError{Msg: "bad input"}}, "w1", FuncExtract, time.Now())
	require.NoError(t, err)
	assert.True(t, res.HasUserError)
}

func TestJobLog(t *testing.T) {
	begin := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	res := &WorkerResult{
		WorkerID:  "w1",
		Func:      FuncEvaluate,
		ProcBegin: begin,
		ProcEnd:   begin.Add(3 * time.Second),
		Value:     []byte(`{"error": "failed"}`),
	}
	jl := res.JobLog()
	assert.Equal(t, 3*time.Second, jl.TimeSpent())
	assert.EqualError(t, jl.Err, "failed")

	data, err := jl.MarshalJSON()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"error":"failed"`)
}

func TestNewQuery(t *testing.T) {
	q, err := NewQuery(FuncExtract, ExtractArgs{Sentences: []string{"a"}})
	require.NoError(t, err)
	assert.Equal(t, FuncExtract, q.Func)
	assert.Empty(t, q.Channel)
	assert.JSONEq(t, `{"sentences": ["a"], "useTaxonomy": false}`, string(q.Args))
}

func TestCacheResult(t *testing.T) {
	a := &Adapter{cachePath: t.TempDir()}
	query, err := NewQuery(FuncEvaluate, EvaluateArgs{GoldTSV: "x"})
	require.NoError(t, err)

	var numCalls int
	fn := func(q Query) (<-chan *WorkerResult, error) {
		numCalls++
		res, err := CreateWorkerResult(testResult{Value: "v1"}, "w1", q.Func, time.Now())
		if err != nil {
			return nil, err
		}
		return resultChan(res), nil
	}

	ch, err := a.CacheResult(fn, query)
	require.NoError(t, err)
	first := <-ch
	require.NotNil(t, first)

	ch, err = a.CacheResult(fn, query)
	require.NoError(t, err)
	second := <-ch
	require.NotNil(t, second)

	assert.Equal(t, 1, numCalls)
	assert.JSONEq(t, string(first.Value), string(second.Value))
}

func TestCacheResultSkipsErrors(t *testing.T) {
	a := &Adapter{cachePath: t.TempDir()}
	query, err := NewQuery(FuncEvaluate, EvaluateArgs{GoldTSV: "y"})
	require.NoError(t, err)

	var numCalls int
	fn := func(q Query) (<-chan *WorkerResult, error) {
		numCalls++
		res, err := CreateWorkerResult(&ErrorResult{Func: q.Func, Error: "failed"}, "w1", q.Func, time.Now())
		if err != nil {
			return nil, err
		}
		return resultChan(res), nil
	}
	for i := 0; i < 2; i++ {
		ch, err := a.CacheResult(fn, query)
		require.NoError(t, err)
		<-ch
	}
	assert.Equal(t, 2, numCalls)
}

func TestCacheResultPropagatesPublishError(t *testing.T) {
	a := &Adapter{cachePath: t.TempDir()}
	fn := func(q Query) (<-chan *WorkerResult, error) {
		return nil, errors.New("redis down")
	}
	_, err := a.CacheResult(fn, Query{Func: FuncEvaluate})
	assert.Error(t, err)
}

func TestConfDefaults(t *testing.T) {
	conf := &Conf{}
	require.NoError(t, conf.ValidateAndDefaults())
	assert.Equal(t, "localhost", conf.Host)
	assert.Equal(t, DefaultRedisPort, conf.Port)
	assert.Equal(t, DefaultQueryChannel, conf.ChannelQuery)
	assert.Equal(t, DefaultResultChannelPrefix, conf.ChannelResultPrefix)
	assert.Equal(t, DefaultQueryAnswerTimeoutSecs, conf.QueryAnswerTimeoutSecs)
	assert.Equal(t, "localhost:6379", conf.ServerInfo())

	var nilConf *Conf
	assert.Error(t, nilConf.ValidateAndDefaults())

	conf = &Conf{CachePath: "/nonexistent/compex/cache"}
	assert.Error(t, conf.ValidateAndDefaults())
}

func TestAwaitResultReleasesUnreadSubscription(t *testing.T) {
	a := &Adapter{ctx: context.Background(), queryAnswerTimeout: 10 * time.Millisecond}
	released := make(chan struct{})
	ans := a.awaitResult(Query{Func: FuncExtract}, nil, func() error {
		close(released)
		return nil
	})
	select {
	case <-released:
	case <-time.After(2 * time.Second):
		t.Fatal("subscription not released while the result was not consumed")
	}
	res, ok := <-ans
	require.True(t, ok)
	require.NotNil(t, res)
	assert.Equal(t, ResultTypeError, res.ResultType)
	assert.Contains(t, res.ErrorMessage(), "worker result timeout")
}
