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

package rdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"compex/merror"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	MsgNewQuery                = "newQuery"
	MsgNewResult               = "newResult"
	DefaultQueueKey            = "compexQueue"
	DefaultResultChannelPrefix = "compexResults"
	DefaultQueryChannel        = "compexQueries"
	DefaultResultExpiration    = 10 * time.Minute
	connectionRetryInterval    = 2 * time.Second
)

var (
	ErrorEmptyQueue = errors.New("no queries in the queue")
)

type JobLogger interface {
	Log(rec JobLog)
}

type Query struct {
	Channel string          `json:"channel"`
	Func    string          `json:"func"`
	Args    json.RawMessage `json:"args"`
}

func (q Query) ToJSON() (string, error) {
	ans, err := sonic.Marshal(q)
	if err != nil {
		return "", err
	}
	return string(ans), nil
}

func NewQuery(fn string, args any) (Query, error) {
	rawArgs, err := sonic.Marshal(args)
	if err != nil {
		return Query{}, fmt.Errorf("failed to encode query args: %w", err)
	}
	return Query{Func: fn, Args: rawArgs}, nil
}

func DecodeQuery(q string) (Query, error) {
	var ans Query
	err := sonic.Unmarshal([]byte(q), &ans)
	return ans, err
}

// Adapter provides access to the Redis based job queue. The API
// server publishes queries and waits for results, workers dequeue
// queries and publish results.
type Adapter struct {
	ctx                 context.Context
	c                   *redis.Client
	channelQuery        string
	channelResultPrefix string
	cachePath           string
	queryAnswerTimeout  time.Duration
	jobLogger           JobLogger
}

// TestConnection tries to ping Redis until it succeeds
// or the timeout elapses
func (a *Adapter) TestConnection(timeout time.Duration) error {
	tick := time.NewTicker(connectionRetryInterval)
	defer tick.Stop()
	timeoutCh := time.After(timeout)
	for {
		select {
		case <-timeoutCh:
			return fmt.Errorf("failed to connect to Redis within %s", timeout)
		case <-a.ctx.Done():
			return a.ctx.Err()
		case <-tick.C:
			if err := a.c.Ping(a.ctx).Err(); err != nil {
				log.Error().Err(err).Msg("failed to ping Redis, will try again")

			} else {
				log.Info().Msg("successfully connected to Redis")
				return nil
			}
		}
	}
}

func (a *Adapter) SomeoneListens(query Query) (bool, error) {
	cmd := a.c.PubSubNumSub(a.ctx, query.Channel)
	if cmd.Err() != nil {
		return false, fmt.Errorf("failed to check channel listeners: %w", cmd.Err())
	}
	return cmd.Val()[query.Channel] > 0, nil
}

func (a *Adapter) errorResult(query Query, err error) *WorkerResult {
	result := &WorkerResult{Func: query.Func}
	result.AttachValue(&ErrorResult{Func: query.Func, Error: err.Error()})
	return result
}

// PublishQuery publishes a new query and returns a channel
// where the result will be sent once available
func (a *Adapter) PublishQuery(query Query) (<-chan *WorkerResult, error) {
	query.Channel = fmt.Sprintf("%s:%s", a.channelResultPrefix, uuid.New().String())
	log.Debug().
		Str("channel", query.Channel).
		Str("func", query.Func).
		Msg("publishing query")

	msg, err := query.ToJSON()
	if err != nil {
		return nil, err
	}
	sub := a.c.Subscribe(a.ctx, query.Channel)
	if err := a.c.LPush(a.ctx, DefaultQueueKey, msg).Err(); err != nil {
		sub.Close()
		return nil, err
	}
	ans := a.awaitResult(query, sub.Channel(), sub.Close)
	return ans, a.c.Publish(a.ctx, a.channelQuery, MsgNewQuery).Err()
}

// awaitResult waits for the worker's notification on the query
// result channel and passes the result via the returned channel.
// The result is buffered and the subscription is released even
// if the caller never reads the channel.
func (a *Adapter) awaitResult(
	query Query,
	messages <-chan *redis.Message,
	release func() error,
) <-chan *WorkerResult {
	ans := make(chan *WorkerResult, 1)
	go func() {
		defer close(ans)
		defer release()
		var result *WorkerResult
		select {
		case item := <-messages:
			cmd := a.c.Get(a.ctx, item.Payload)
			if cmd.Err() != nil {
				result = a.errorResult(query, cmd.Err())

			} else {
				result = new(WorkerResult)
				if err := sonic.Unmarshal([]byte(cmd.Val()), result); err != nil {
					result = a.errorResult(query, err)
				}
			}
		case <-time.After(a.queryAnswerTimeout):
			result = a.errorResult(
				query,
				merror.TimeoutError{
					Msg: fmt.Sprintf("worker result timeout (%s)", a.queryAnswerTimeout),
				},
			)
		case <-a.ctx.Done():
			result = a.errorResult(query, a.ctx.Err())
		}
		if a.jobLogger != nil && result.WorkerID != "" {
			a.jobLogger.Log(result.JobLog())
		}
		ans <- result
	}()
	return ans
}

// DequeueQuery takes the oldest query from the queue. In case
// the queue is empty, ErrorEmptyQueue is returned.
func (a *Adapter) DequeueQuery() (Query, error) {
	cmd := a.c.RPop(a.ctx, DefaultQueueKey)
	if errors.Is(cmd.Err(), redis.Nil) {
		return Query{}, ErrorEmptyQueue

	} else if cmd.Err() != nil {
		return Query{}, fmt.Errorf("failed to dequeue query: %w", cmd.Err())
	}
	q, err := DecodeQuery(cmd.Val())
	if err != nil {
		return Query{}, fmt.Errorf("failed to deserialize query: %w", err)
	}
	return q, nil
}

func (a *Adapter) PublishResult(channelName string, value *WorkerResult) error {
	log.Debug().
		Str("channel", channelName).
		Str("resultType", value.ResultType.String()).
		Msg("publishing result")
	value.ID = channelName
	data, err := sonic.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to serialize result: %w", err)
	}
	if err := a.c.Set(a.ctx, channelName, string(data), DefaultResultExpiration).Err(); err != nil {
		return fmt.Errorf("failed to store result: %w", err)
	}
	return a.c.Publish(a.ctx, channelName, channelName).Err()
}

func (a *Adapter) Subscribe() <-chan *redis.Message {
	sub := a.c.Subscribe(a.ctx, a.channelQuery)
	return sub.Channel()
}

func (a *Adapter) Close() error {
	return a.c.Close()
}

// NewAdapter creates a new Redis adapter. The jobLogger is
// used by API servers to record finished jobs and it can be nil.
func NewAdapter(conf *Conf, ctx context.Context, jobLogger JobLogger) *Adapter {
	answerTimeout := time.Duration(conf.QueryAnswerTimeoutSecs) * time.Second
	if answerTimeout <= 0 {
		answerTimeout = DefaultQueryAnswerTimeoutSecs * time.Second
	}
	return &Adapter{
		c: redis.NewClient(&redis.Options{
			Addr:     conf.ServerInfo(),
			Password: conf.Password,
			DB:       conf.DB,
		}),
		ctx:                 ctx,
		channelQuery:        conf.ChannelQuery,
		channelResultPrefix: conf.ChannelResultPrefix,
		cachePath:           conf.CachePath,
		queryAnswerTimeout:  answerTimeout,
		jobLogger:           jobLogger,
	}
}
