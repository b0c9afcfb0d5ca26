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

package worker

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"compex/converter"
	"compex/extractor"
	"compex/merror"
	"compex/rdb"
	"compex/taxonomy"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	DefaultTickerInterval = 2 * time.Second
)

type queue interface {
	DequeueQuery() (rdb.Query, error)
	SomeoneListens(query rdb.Query) (bool, error)
	PublishResult(channelName string, value *rdb.WorkerResult) error
}

type jobInfo struct {
	fn    string
	begin time.Time
}

type Worker struct {
	ID         string
	messages   <-chan *redis.Message
	radapter   queue
	ticker     *time.Ticker
	extractor  extractor.Extractor
	taxonomy   taxonomy.Provider
	markers    converter.Markers
	currJob    *jobInfo
	jobTimeout time.Duration
}

func (w *Worker) publishResult(res rdb.FuncResult, channel string) error {
	job := w.currJob
	if job == nil {
		job = &jobInfo{begin: time.Now()}
	}
	ans, err := rdb.CreateWorkerResult(res, w.ID, job.fn, job.begin)
	if err != nil {
		return err
	}
	w.currJob = nil
	if res.Err() != nil {
		log.Error().
			Err(res.Err()).
			Str("func", job.fn).
			Bool("userError", ans.HasUserError).
			Msg("job finished with error")

	} else {
		log.Info().
			Str("func", job.fn).
			Dur("duration", ans.ProcEnd.Sub(ans.ProcBegin)).
			Msg("job finished")
	}
	return w.radapter.PublishResult(channel, ans)
}

func (w *Worker) sendPublishingErr(query rdb.Query, err error) {
	if err := w.publishResult(&rdb.ErrorResult{Func: query.Func, Error: err.Error()}, query.Channel); err != nil {
		log.Error().Err(err).Msg("failed to publish general publishing error")
	}
}

func argsDecodingErr(query rdb.Query, err error) *rdb.ErrorResult {
	return &rdb.ErrorResult{
		Func:  query.Func,
		Error: fmt.Sprintf("failed to decode query args: %s", err),
	}
}

func (w *Worker) runQueryProtected(ctx context.Context, query rdb.Query) (ansErr error) {
	defer func() {
		if r := recover(); r != nil {
			ansErr = merror.RecoveredError{Msg: merror.PanicValueToErr(r).Error()}
			return
		}
	}()
	var ans rdb.FuncResult
	switch query.Func {
	case rdb.FuncEvaluate:
		var args rdb.EvaluateArgs
		if err := sonic.Unmarshal(query.Args, &args); err != nil {
			ans = argsDecodingErr(query, err)
			break
		}
		ans = w.evaluate(ctx, args)
	case rdb.FuncExtract:
		var args rdb.ExtractArgs
		if err := sonic.Unmarshal(query.Args, &args); err != nil {
			ans = argsDecodingErr(query, err)
			break
		}
		ans = w.extract(ctx, args)
	default:
		ans = &rdb.ErrorResult{Func: query.Func, Error: fmt.Sprintf("unknown query function: %s", query.Func)}
	}
	if err := w.publishResult(ans, query.Channel); err != nil {
		w.sendPublishingErr(query, err)
		return err
	}
	return nil
}

func (w *Worker) tryNextQuery(ctx context.Context) error {
	time.Sleep(time.Duration(rand.Intn(40)) * time.Millisecond)
	query, err := w.radapter.DequeueQuery()
	if err == rdb.ErrorEmptyQueue {
		return nil

	} else if err != nil {
		return err
	}
	log.Debug().
		Str("channel", query.Channel).
		Str("func", query.Func).
		Msg("received query")

	isActive, err := w.radapter.SomeoneListens(query)
	if err != nil {
		return err
	}
	if !isActive {
		log.Warn().
			Str("func", query.Func).
			Str("channel", query.Channel).
			Msg("worker found an inactive query")
		return nil
	}

	w.currJob = &jobInfo{fn: query.Func, begin: time.Now()}
	jobCtx, cancel := context.WithTimeout(ctx, w.jobTimeout)
	defer cancel()
	err = w.runQueryProtected(jobCtx, query)
	var rcvErr merror.RecoveredError
	if errors.As(err, &rcvErr) {
		ans := &rdb.ErrorResult{
			Error: fmt.Sprintf("worker panicked: %s", rcvErr.Error()),
			Func:  query.Func,
		}
		if err := w.publishResult(ans, query.Channel); err != nil {
			return err
		}

	} else if err != nil {
		return err
	}
	return nil
}

func (w *Worker) listen(ctx context.Context) {
	for {
		select {
		case <-w.ticker.C:
			if err := w.tryNextQuery(ctx); err != nil {
				log.Error().Err(err).Msg("failed to process query")
			}
		case <-ctx.Done():
			log.Info().Msg("worker exiting")
			return
		case msg := <-w.messages:
			if msg.Payload == rdb.MsgNewQuery {
				if err := w.tryNextQuery(ctx); err != nil {
					log.Error().Err(err).Msg("failed to process query")
				}
			}
		}
	}
}

func (w *Worker) Start(ctx context.Context) {
	log.Info().Str("workerId", w.ID).Msg("starting worker")
	go w.listen(ctx)
}

func (w *Worker) Stop(ctx context.Context) error {
	log.Warn().Str("workerId", w.ID).Msg("stopping worker")
	w.ticker.Stop()
	return nil
}

// NewWorker creates a new worker. The taxonomy provider
// can be nil in which case jobs requiring taxonomy fail.
func NewWorker(
	workerID string,
	radapter *rdb.Adapter,
	messages <-chan *redis.Message,
	ext extractor.Extractor,
	tax taxonomy.Provider,
	markers converter.Markers,
	jobTimeout time.Duration,
) *Worker {
	return newWorker(workerID, radapter, messages, ext, tax, markers, jobTimeout)
}

func newWorker(
	workerID string,
	radapter queue,
	messages <-chan *redis.Message,
	ext extractor.Extractor,
	tax taxonomy.Provider,
	markers converter.Markers,
	jobTimeout time.Duration,
) *Worker {
	return &Worker{
		ID:         workerID,
		radapter:   radapter,
		messages:   messages,
		ticker:     time.NewTicker(DefaultTickerInterval),
		extractor:  ext,
		taxonomy:   tax,
		markers:    markers,
		jobTimeout: jobTimeout,
	}
}
