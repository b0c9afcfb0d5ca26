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
	"encoding/json"
	"errors"
	"time"

	"compex/merror"

	"github.com/bytedance/sonic"
)

const (
	ResultTypeEvaluation ResultType = "evaluation"
	ResultTypeExtraction ResultType = "extraction"
	ResultTypeError      ResultType = "error"
)

type ResultType string // @name ResultType

func (rt ResultType) String() string {
	return string(rt)
}

// ----------------

type FuncResult interface {
	Err() error
	Type() ResultType
}

// WorkerResult is an envelope of a job result passed
// from a worker back to the API server
type WorkerResult struct {
	ID           string          `json:"id"`
	WorkerID     string          `json:"workerId"`
	Func         string          `json:"func"`
	ResultType   ResultType      `json:"resultType"`
	Value        json.RawMessage `json:"value"`
	HasUserError bool            `json:"hasUserError"`
	ProcBegin    time.Time       `json:"procBegin"`
	ProcEnd      time.Time       `json:"procEnd"`
}

// ErrorMessage returns an error message contained
// in the result value (if any)
func (wr *WorkerResult) ErrorMessage() string {
	var tmp struct {
		Error string `json:"error"`
	}
	if err := sonic.Unmarshal(wr.Value, &tmp); err != nil {
		return "failed to decode worker result: " + err.Error()
	}
	return tmp.Error
}

// AttachValue serializes the value into the result
func (wr *WorkerResult) AttachValue(value FuncResult) error {
	data, err := sonic.Marshal(value)
	if err != nil {
		return err
	}
	wr.Value = data
	wr.ResultType = value.Type()
	var inputErr merror.InputError
	wr.HasUserError = errors.As(value.Err(), &inputErr)
	return nil
}

// JobLog returns a job log record for monitoring purposes
func (wr *WorkerResult) JobLog() JobLog {
	var err error
	if msg := wr.ErrorMessage(); msg != "" {
		err = errors.New(msg)
	}
	return JobLog{
		WorkerID: wr.WorkerID,
		Func:     wr.Func,
		Begin:    wr.ProcBegin,
		End:      wr.ProcEnd,
		Err:      err,
	}
}

func CreateWorkerResult(value FuncResult, workerID, fn string, procBegin time.Time) (*WorkerResult, error) {
	ans := &WorkerResult{
		WorkerID:  workerID,
		Func:      fn,
		ProcBegin: procBegin,
		ProcEnd:   time.Now(),
	}
	if err := ans.AttachValue(value); err != nil {
		return nil, err
	}
	return ans, nil
}

// ----------------

type ErrorResult struct {
	Func  string `json:"func"`
	Error string `json:"error"`
}

func (res *ErrorResult) Err() error {
	if res.Error == "" {
		return nil
	}
	return errors.New(res.Error)
}

func (res *ErrorResult) Type() ResultType {
	return ResultTypeError
}

// ----------------

type JobLog struct {
	WorkerID string    `json:"workerId"`
	Func     string    `json:"func"`
	Begin    time.Time `json:"begin"`
	End      time.Time `json:"end"`
	Err      error     `json:"error"`
}

func (jl JobLog) TimeSpent() time.Duration {
	return jl.End.Sub(jl.Begin)
}

func (jl JobLog) MarshalJSON() ([]byte, error) {
	var errMsg string
	if jl.Err != nil {
		errMsg = jl.Err.Error()
	}
	return sonic.Marshal(
		struct {
			WorkerID string    `json:"workerId"`
			Func     string    `json:"func"`
			Begin    time.Time `json:"begin"`
			End      time.Time `json:"end"`
			Err      string    `json:"error,omitempty"`
		}{
			WorkerID: jl.WorkerID,
			Func:     jl.Func,
			Begin:    jl.Begin,
			End:      jl.End,
			Err:      errMsg,
		},
	)
}
