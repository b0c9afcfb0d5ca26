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

package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"compex/rdb"

	"github.com/bytedance/sonic"
	"github.com/czcorpus/cnc-gokit/uniresp"
	"github.com/gin-gonic/gin"
)

// HandleWorkerError writes an error response in case the worker
// result contains an error. Errors caused by invalid user input
// are reported as 400, all the others as 500.
func HandleWorkerError(ctx *gin.Context, result *rdb.WorkerResult) bool {
	if result == nil {
		uniresp.WriteJSONErrorResponse(
			ctx.Writer,
			uniresp.NewActionErrorFrom(errors.New("no result received from worker")),
			http.StatusInternalServerError,
		)
		return false
	}
	if msg := result.ErrorMessage(); msg != "" {
		status := http.StatusInternalServerError
		if result.HasUserError {
			status = http.StatusBadRequest
		}
		uniresp.WriteJSONErrorResponse(
			ctx.Writer,
			uniresp.NewActionErrorFrom(errors.New(msg)),
			status,
		)
		return false
	}
	return true
}

// TypedOrRespondError decodes worker result value into T. On
// failure, an error response is written.
func TypedOrRespondError[T any](ctx *gin.Context, result *rdb.WorkerResult, expected rdb.ResultType) (T, bool) {
	var ans T
	if result.ResultType != expected {
		uniresp.RespondWithErrorJSON(
			ctx,
			fmt.Errorf("unexpected result type %s (expected %s)", result.ResultType, expected),
			http.StatusInternalServerError,
		)
		return ans, false
	}
	if err := sonic.Unmarshal(result.Value, &ans); err != nil {
		uniresp.RespondWithErrorJSON(
			ctx,
			fmt.Errorf("failed to decode worker result: %w", err),
			http.StatusInternalServerError,
		)
		return ans, false
	}
	return ans, true
}
