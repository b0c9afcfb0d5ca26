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

package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"compex/competency"
	"compex/converter"
	"compex/rdb"
	"compex/rdb/results"
	"compex/taxonomy"
	"compex/tsv"

	"github.com/czcorpus/cnc-gokit/uniresp"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const (
	maxSentencesPerRequest = 1000
)

type jobQueue interface {
	PublishQuery(query rdb.Query) (<-chan *rdb.WorkerResult, error)
	CacheResult(
		fn func(rdb.Query) (<-chan *rdb.WorkerResult, error),
		query rdb.Query,
	) (<-chan *rdb.WorkerResult, error)
}

// ---

type EvaluateRequest struct {
	GoldTSV          string               `json:"goldTsv"`
	Predicted        competency.Sentences `json:"predicted,omitempty"`
	ConsiderObjects  bool                 `json:"considerObjects"`
	ConsiderContexts bool                 `json:"considerContexts"`
	UseTaxonomy      bool                 `json:"useTaxonomy"`
} // @name EvaluateRequest

type ExtractRequest struct {
	Sentences   []string `json:"sentences"`
	UseTaxonomy bool     `json:"useTaxonomy"`
} // @name ExtractRequest

type ConvertResponse struct {
	Sentences       competency.Sentences `json:"sentences"`
	NumSentences    int                  `json:"numSentences"`
	NumCompetencies int                  `json:"numCompetencies"`
} // @name ConvertResponse

// ---

type Actions struct {
	radapter jobQueue
	taxonomy taxonomy.Provider
	markers  converter.Markers
}

func (a *Actions) markersFromQuery(ctx *gin.Context) converter.Markers {
	ans := a.markers
	if v := ctx.Query("feature"); v != "" {
		ans.Feature = v
	}
	return ans
}

// Convert godoc
// @Summary      Convert
// @Description  Convert WebAnno TSV 3.2 annotated data into competency triples (competency, object, context).
// @Accept       plain
// @Produce      json
// @Param        feature query string false "limit markers to a span feature of this name"
// @Success      200 {object} ConvertResponse
// @Router       /convert [post]
func (a *Actions) Convert(ctx *gin.Context) {
	doc, err := tsv.ReadDocument(ctx.Request.Body)
	if err != nil {
		uniresp.RespondWithErrorJSON(
			ctx,
			fmt.Errorf("failed to read TSV data: %w", err),
			http.StatusBadRequest,
		)
		return
	}
	sents := converter.TsvToCompetencies(doc, a.markersFromQuery(ctx))
	uniresp.WriteJSONResponse(
		ctx.Writer,
		&ConvertResponse{
			Sentences:       sents,
			NumSentences:    len(sents),
			NumCompetencies: sents.NumCompetencies(),
		},
	)
}

// Evaluate godoc
// @Summary      Evaluate
// @Description  Evaluate predicted competency triples against gold data in the WebAnno TSV 3.2 format. If no predicted data are provided, the configured extractor annotates the gold data sentences.
// @Accept       json
// @Produce      json
// @Param        request body EvaluateRequest true "gold data and evaluation options"
// @Param        feature query string false "limit markers to a span feature of this name"
// @Success      200 {object} results.EvaluationResponse
// @Router       /evaluate [post]
func (a *Actions) Evaluate(ctx *gin.Context) {
	var req EvaluateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		uniresp.RespondWithErrorJSON(
			ctx, fmt.Errorf("invalid request: %w", err), http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.GoldTSV) == "" {
		uniresp.RespondWithErrorJSON(
			ctx, errors.New("missing gold data (goldTsv)"), http.StatusBadRequest)
		return
	}
	if req.ConsiderContexts && !req.ConsiderObjects {
		log.Debug().Msg("considerContexts without considerObjects, contexts will be ignored")
	}
	query, err := rdb.NewQuery(rdb.FuncEvaluate, rdb.EvaluateArgs{
		GoldTSV:          req.GoldTSV,
		Predicted:        req.Predicted,
		ConsiderObjects:  req.ConsiderObjects,
		ConsiderContexts: req.ConsiderContexts,
		UseTaxonomy:      req.UseTaxonomy,
		Markers:          a.markersFromQuery(ctx),
	})
	if err != nil {
		uniresp.RespondWithErrorJSON(ctx, err, http.StatusInternalServerError)
		return
	}
	wait, err := a.radapter.CacheResult(a.radapter.PublishQuery, query)
	if err != nil {
		uniresp.WriteJSONErrorResponse(
			ctx.Writer,
			uniresp.NewActionErrorFrom(err),
			http.StatusInternalServerError,
		)
		return
	}
	rawResult := <-wait
	if ok := HandleWorkerError(ctx, rawResult); !ok {
		return
	}
	result, ok := TypedOrRespondError[results.EvaluationResponse](
		ctx, rawResult, rdb.ResultTypeEvaluation)
	if !ok {
		return
	}
	uniresp.WriteJSONResponse(ctx.Writer, &result)
}

// Extract godoc
// @Summary      Extract
// @Description  Extract competency triples from raw sentences using the configured extractor.
// @Accept       json
// @Produce      json
// @Param        request body ExtractRequest true "sentences to process"
// @Success      200 {object} results.ExtractionResponse
// @Router       /extract [post]
func (a *Actions) Extract(ctx *gin.Context) {
	var req ExtractRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		uniresp.RespondWithErrorJSON(
			ctx, fmt.Errorf("invalid request: %w", err), http.StatusBadRequest)
		return
	}
	if len(req.Sentences) == 0 {
		uniresp.RespondWithErrorJSON(
			ctx, errors.New("no sentences to process"), http.StatusBadRequest)
		return
	}
	if len(req.Sentences) > maxSentencesPerRequest {
		uniresp.RespondWithErrorJSON(
			ctx,
			fmt.Errorf("too many sentences (max. %d)", maxSentencesPerRequest),
			http.StatusBadRequest,
		)
		return
	}
	query, err := rdb.NewQuery(rdb.FuncExtract, rdb.ExtractArgs{
		Sentences:   req.Sentences,
		UseTaxonomy: req.UseTaxonomy,
	})
	if err != nil {
		uniresp.RespondWithErrorJSON(ctx, err, http.StatusInternalServerError)
		return
	}
	wait, err := a.radapter.PublishQuery(query)
	if err != nil {
		uniresp.WriteJSONErrorResponse(
			ctx.Writer,
			uniresp.NewActionErrorFrom(err),
			http.StatusInternalServerError,
		)
		return
	}
	rawResult := <-wait
	if ok := HandleWorkerError(ctx, rawResult); !ok {
		return
	}
	result, ok := TypedOrRespondError[results.ExtractionResponse](
		ctx, rawResult, rdb.ResultTypeExtraction)
	if !ok {
		return
	}
	uniresp.WriteJSONResponse(ctx.Writer, &result)
}

// Taxonomy godoc
// @Summary      Taxonomy
// @Description  Show the verb dictionary used to assign taxonomy dimensions to competencies.
// @Produce      json
// @Success      200 {array} object
// @Router       /taxonomy [get]
func (a *Actions) Taxonomy(ctx *gin.Context) {
	if a.taxonomy == nil {
		uniresp.RespondWithErrorJSON(
			ctx, errors.New("no taxonomy configured"), http.StatusNotFound)
		return
	}
	uniresp.WriteJSONResponse(ctx.Writer, a.taxonomy.Dictionary())
}

// NewActions creates HTTP actions. The taxonomy provider
// can be nil.
func NewActions(
	radapter *rdb.Adapter,
	tax taxonomy.Provider,
	markers converter.Markers,
) *Actions {
	return &Actions{
		radapter: radapter,
		taxonomy: tax,
		markers:  markers,
	}
}
