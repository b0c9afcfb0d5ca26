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

package extractor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"compex/competency"
	"compex/taxonomy"

	"github.com/bytedance/sonic"
	"github.com/czcorpus/cnc-gokit/httpclient"
	"github.com/rs/zerolog/log"
)

const (
	DefaultSemgrexPattern = `{tag:/VVINF|VVFIN|VVIZU/}=competency ` +
		`?>dobj ({}=object ?>amod {tag:ADJA}=objectadja ` +
		`?>det ({tag:NN}=objectdet ?>amod {tag:ADJA}=objectdetadja ?>det {tag:ART}=objectdetart)) ` +
		`?>nmod ({}=context ?>/conj:.*/ {}=context2 ?>amod {tag:ADJA}=contextadja) ` +
		`?>/conj:.*/ {tag:/VVINF|VVFIN|VVIZU/}=competency2`

	DefaultCoreNLPLanguage     = "de"
	DefaultCoreNLPServerURL    = "http://localhost:9000"
	DefaultRequestTimeoutSecs  = 30
	defaultIdleConnTimeoutSecs = 60
	semgrexAnnotators          = "tokenize,ssplit,depparse"
	semgrexSentenceLengthKey   = "length"
	maxReportedErrorBodySize   = 512
	captureCompetency          = "$competency"
	captureObject              = "$object"
	captureObjectAdja          = "$objectadja"
	captureObjectDet           = "$objectdet"
	captureObjectDetAdja       = "$objectdetadja"
	captureObjectDetArt        = "$objectdetart"
	captureContext             = "$context"
	captureContextAdja         = "$contextadja"
)

// CoreNLPConf configures access to a CoreNLP server
type CoreNLPConf struct {
	ServerURL          string `json:"serverUrl"`
	Pattern            string `json:"pattern"`
	Language           string `json:"language"`
	RequestTimeoutSecs int    `json:"requestTimeoutSecs"`
}

func (conf *CoreNLPConf) ValidateAndDefaults() error {
	if conf.ServerURL == "" {
		conf.ServerURL = DefaultCoreNLPServerURL
		log.Warn().
			Str("value", conf.ServerURL).
			Msg("coreNlp.serverUrl not specified, using default")
	}
	if _, err := url.Parse(conf.ServerURL); err != nil {
		return fmt.Errorf("invalid coreNlp.serverUrl: %w", err)
	}
	if conf.Pattern == "" {
		conf.Pattern = DefaultSemgrexPattern
	}
	if conf.Language == "" {
		conf.Language = DefaultCoreNLPLanguage
	}
	if conf.RequestTimeoutSecs <= 0 {
		conf.RequestTimeoutSecs = DefaultRequestTimeoutSecs
		log.Warn().
			Int("value", conf.RequestTimeoutSecs).
			Msg("coreNlp.requestTimeoutSecs not specified, using default")
	}
	return nil
}

// ----

type semgrexNode struct {
	Text  string `json:"text"`
	Begin int    `json:"begin"`
	End   int    `json:"end"`
}

func (n semgrexNode) word() competency.Word {
	return competency.Word{Index: n.Begin, Text: n.Text}
}

type semgrexMatch map[string]semgrexNode

type semgrexResponse struct {
	Sentences []map[string]json.RawMessage `json:"sentences"`
}

// matches returns sentence matches ordered by their numeric keys
func (sr semgrexResponse) matches() ([]semgrexMatch, error) {
	ans := make([]semgrexMatch, 0, 4)
	for _, sent := range sr.Sentences {
		keys := make([]int, 0, len(sent))
		for k := range sent {
			if k == semgrexSentenceLengthKey {
				continue
			}
			ik, err := strconv.Atoi(k)
			if err != nil {
				return nil, fmt.Errorf("unexpected semgrex match key %s", k)
			}
			keys = append(keys, ik)
		}
		sort.Ints(keys)
		for _, k := range keys {
			var match semgrexMatch
			if err := sonic.Unmarshal(sent[strconv.Itoa(k)], &match); err != nil {
				return nil, fmt.Errorf("failed to decode semgrex match: %w", err)
			}
			ans = append(ans, match)
		}
	}
	return ans, nil
}

func (m semgrexMatch) toCompetency() (competency.Competency, bool) {
	head, ok := m[captureCompetency]
	if !ok {
		return competency.Competency{}, false
	}
	ans := competency.Competency{Word: head.word(), Objects: []competency.CompetencyObject{}}
	obj, ok := m[captureObject]
	if !ok {
		return ans, true
	}
	words := competency.WordChunk{obj.word()}
	if v, ok := m[captureObjectAdja]; ok {
		words = append(words, v.word())
	}
	if det, ok := m[captureObjectDet]; ok {
		if v, ok := m[captureObjectDetAdja]; ok {
			words = append(words, v.word())
		}
		if v, ok := m[captureObjectDetArt]; ok {
			words = append(words, v.word())
		}
		words = append(words, det.word())
	}
	object := competency.CompetencyObject{
		Words:    words.Sorted(),
		Contexts: []competency.ObjectContext{},
	}
	if ctx, ok := m[captureContext]; ok {
		cwords := competency.WordChunk{ctx.word()}
		if v, ok := m[captureContextAdja]; ok {
			cwords = append(cwords, v.word())
		}
		object.Contexts = append(object.Contexts, competency.ObjectContext{Words: cwords.Sorted()})
	}
	ans.Objects = append(ans.Objects, object)
	return ans, true
}

// ----

// CoreNLPSemgrex extracts competencies by running a Semgrex
// query over dependency trees produced by a CoreNLP server.
// Sentences are sent one by one as the server's sentence
// splitter may not respect sentence boundaries of the input.
type CoreNLPSemgrex struct {
	conf   CoreNLPConf
	client *http.Client

	// OnSentenceDone is called after each processed sentence
	OnSentenceDone func(done, total int)
}

func (ext *CoreNLPSemgrex) requestURL() (string, error) {
	props, err := sonic.Marshal(map[string]string{
		"annotators":   semgrexAnnotators,
		"outputFormat": "json",
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode CoreNLP properties: %w", err)
	}
	args := make(url.Values)
	args.Add("pattern", ext.conf.Pattern)
	args.Add("properties", string(props))
	args.Add("pipelineLanguage", ext.conf.Language)
	return strings.TrimRight(ext.conf.ServerURL, "/") + "/semgrex?" + args.Encode(), nil
}

func (ext *CoreNLPSemgrex) querySentence(ctx context.Context, sentence string) (semgrexResponse, error) {
	var ans semgrexResponse
	reqURL, err := ext.requestURL()
	if err != nil {
		return ans, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewBufferString(sentence))
	if err != nil {
		return ans, fmt.Errorf("failed to create CoreNLP request: %w", err)
	}
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	resp, err := ext.client.Do(req)
	if err != nil {
		return ans, fmt.Errorf("failed to query CoreNLP server: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return ans, fmt.Errorf("failed to read CoreNLP response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		if len(body) > maxReportedErrorBodySize {
			body = body[:maxReportedErrorBodySize]
		}
		return ans, fmt.Errorf("CoreNLP server returned status %d: %s", resp.StatusCode, body)
	}
	if err := sonic.Unmarshal(body, &ans); err != nil {
		return ans, fmt.Errorf("failed to decode CoreNLP response: %w", err)
	}
	return ans, nil
}

func (ext *CoreNLPSemgrex) Annotate(
	ctx context.Context,
	sentences []string,
	dict taxonomy.Dictionary,
) (competency.Sentences, error) {
	ans := make(competency.Sentences)
	t0 := time.Now()
	for i, sent := range sentences {
		sent = strings.TrimSpace(sent)
		resp, err := ext.querySentence(ctx, sent)
		if err != nil {
			return nil, fmt.Errorf("failed to annotate sentence %d: %w", i, err)
		}
		matches, err := resp.matches()
		if err != nil {
			return nil, fmt.Errorf("failed to annotate sentence %d: %w", i, err)
		}
		comps := make([]competency.Competency, 0, len(matches))
		for _, m := range matches {
			if c, ok := m.toCompetency(); ok {
				comps = append(comps, c)
			}
		}
		ans[sent] = filterByTaxonomy(comps, dict)
		if ext.OnSentenceDone != nil {
			ext.OnSentenceDone(i+1, len(sentences))
		}
	}
	log.Debug().
		Int("sentences", len(sentences)).
		Int("competencies", ans.NumCompetencies()).
		Dur("duration", time.Since(t0)).
		Msg("finished CoreNLP Semgrex extraction")
	return ans, nil
}

func NewCoreNLPSemgrex(conf CoreNLPConf) *CoreNLPSemgrex {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxIdleConns = httpclient.TransportMaxIdleConns
	transport.MaxConnsPerHost = httpclient.TransportMaxConnsPerHost
	transport.MaxIdleConnsPerHost = httpclient.TransportMaxIdleConnsPerHost
	transport.IdleConnTimeout = time.Duration(defaultIdleConnTimeoutSecs) * time.Second
	return &CoreNLPSemgrex{
		conf: conf,
		client: &http.Client{
			Timeout:   time.Duration(conf.RequestTimeoutSecs) * time.Second,
			Transport: transport,
		},
	}
}
