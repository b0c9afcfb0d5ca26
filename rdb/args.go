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
	"compex/competency"
	"compex/converter"
)

const (
	FuncEvaluate = "evaluate"
	FuncExtract  = "extract"
)

// EvaluateArgs are arguments of the `evaluate` job. In case
// Predicted is nil, the worker obtains predicted competencies
// by running the extractor on the gold data sentences.
type EvaluateArgs struct {
	GoldTSV          string               `json:"goldTsv"`
	Predicted        competency.Sentences `json:"predicted,omitempty"`
	ConsiderObjects  bool                 `json:"considerObjects"`
	ConsiderContexts bool                 `json:"considerContexts"`
	UseTaxonomy      bool                 `json:"useTaxonomy"`
	Markers          converter.Markers    `json:"markers"`
}

type ExtractArgs struct {
	Sentences   []string `json:"sentences"`
	UseTaxonomy bool     `json:"useTaxonomy"`
}
