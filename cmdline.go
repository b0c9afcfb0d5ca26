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

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"compex/cnf"
	"compex/competency"
	"compex/converter"
	"compex/evaluation"
	"compex/extractor"
	"compex/rdb/results"
	"compex/taxonomy"
	"compex/tsv"

	"github.com/bytedance/sonic"
	"github.com/czcorpus/cnc-gokit/fs"
	"github.com/gosuri/uiprogress"
	"github.com/rs/zerolog/log"
)

const (
	tsvFileSuffix = ".tsv"
)

type cmdlineOptions struct {
	considerObjects  bool
	considerContexts bool
	taxonomyFile     string
	confPath         string
	outputPath       string
}

// progressBar shows progress on stderr so it does
// not interfere with data written to stdout
func progressBar(total int) (*uiprogress.Progress, *uiprogress.Bar) {
	progress := uiprogress.New()
	progress.SetOut(os.Stderr)
	bar := progress.AddBar(total)
	bar.AppendCompleted()
	bar.PrependElapsed()
	progress.Start()
	return progress, bar
}

func listTSVFiles(dirPath string) ([]string, error) {
	files, err := filepath.Glob(filepath.Join(dirPath, "*"+tsvFileSuffix))
	if err != nil {
		return nil, fmt.Errorf("failed to list TSV files: %w", err)
	}
	sort.Strings(files)
	return files, nil
}

// readGold reads annotated competencies from a TSV file or
// from all the TSV files of a directory.
func readGold(path string, markers converter.Markers, showProgress bool) (competency.Sentences, error) {
	isDir, err := fs.IsDir(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read gold data: %w", err)
	}
	if !isDir {
		doc, err := tsv.ReadFile(path)
		if err != nil {
			return nil, err
		}
		return converter.TsvToCompetencies(doc, markers), nil
	}
	files, err := listTSVFiles(path)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no %s files found in %s", tsvFileSuffix, path)
	}
	var bar *uiprogress.Bar
	if showProgress {
		var progress *uiprogress.Progress
		progress, bar = progressBar(len(files))
		defer progress.Stop()
	}
	ans := make(competency.Sentences)
	for _, file := range files {
		doc, err := tsv.ReadFile(file)
		if err != nil {
			return nil, err
		}
		ans.MergeWith(converter.TsvToCompetencies(doc, markers))
		if bar != nil {
			bar.Incr()
		}
	}
	log.Info().
		Int("files", len(files)).
		Int("sentences", len(ans)).
		Msg("gold data loaded")
	return ans, nil
}

func loadDictionary(conf *cnf.Conf, opts *cmdlineOptions) (taxonomy.Dictionary, error) {
	path := opts.taxonomyFile
	if path == "" {
		path = conf.TaxonomyFile
	}
	if path == "" {
		return nil, nil
	}
	return taxonomy.LoadFile(path)
}

func newCmdlineExtractor(conf *cnf.Conf, numSentences int) (*extractor.CoreNLPSemgrex, func()) {
	ext := extractor.NewCoreNLPSemgrex(conf.CoreNLP)
	progress, bar := progressBar(numSentences)
	ext.OnSentenceDone = func(done, total int) {
		bar.Incr()
	}
	return ext, progress.Stop
}

func readSentences(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sentences file: %w", err)
	}
	defer f.Close()
	ans := make([]string, 0, 100)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			ans = append(ans, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read sentences file: %w", err)
	}
	return ans, nil
}

func writeEvaluation(w io.Writer, res results.Evaluation) error {
	data, err := sonic.ConfigStd.MarshalIndent(res, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode evaluation: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func runConvert(conf *cnf.Conf, out io.Writer, args []string) error {
	if len(args) < 1 {
		return errors.New("missing TSV file")
	}
	sents, err := readGold(args[0], conf.Markers, true)
	if err != nil {
		return err
	}
	return extractor.WriteJSON(out, sents)
}

func runExtract(ctx context.Context, conf *cnf.Conf, opts *cmdlineOptions, out io.Writer, args []string) error {
	if len(args) < 1 {
		return errors.New("missing sentences file")
	}
	sents, err := readSentences(args[0])
	if err != nil {
		return err
	}
	dict, err := loadDictionary(conf, opts)
	if err != nil {
		return err
	}
	ext, stopProgress := newCmdlineExtractor(conf, len(sents))
	ans, err := ext.Annotate(ctx, sents, dict)
	stopProgress()
	if err != nil {
		return err
	}
	return extractor.WriteJSON(out, ans)
}

// evaluateFiles evaluates gold data (TSV file or directory) against
// predictions loaded from a JSON file.
func evaluateFiles(
	ctx context.Context,
	conf *cnf.Conf,
	opts *cmdlineOptions,
	goldPath, predictedPath string,
) (results.Evaluation, error) {
	var ans results.Evaluation
	gold, err := readGold(goldPath, conf.Markers, predictedPath != "")
	if err != nil {
		return ans, err
	}
	dict, err := loadDictionary(conf, opts)
	if err != nil {
		return ans, err
	}
	var pred competency.Sentences
	if predictedPath != "" {
		src, err := extractor.NewFileSourceFromFile(predictedPath)
		if err != nil {
			return ans, err
		}
		pred, err = src.Annotate(ctx, gold.Texts(), dict)
		if err != nil {
			return ans, err
		}

	} else {
		texts := gold.Texts()
		ext, stopProgress := newCmdlineExtractor(conf, len(texts))
		pred, err = ext.Annotate(ctx, texts, dict)
		stopProgress()
		if err != nil {
			return ans, err
		}
	}
	set := evaluation.NewEvaluationSet(gold, pred)
	if set.NumGoldOnly() > 0 || set.NumPredictedOnly() > 0 {
		log.Warn().
			Int("goldOnly", set.NumGoldOnly()).
			Int("predictedOnly", set.NumPredictedOnly()).
			Msg("some sentences are not available in both gold and predicted data, they will be ignored")
	}
	return results.NewEvaluation(set, opts.considerObjects, opts.considerContexts), nil
}

func runEvaluate(ctx context.Context, conf *cnf.Conf, opts *cmdlineOptions, out io.Writer, args []string) error {
	if len(args) < 1 {
		return errors.New("missing gold data")
	}
	var predictedPath string
	if len(args) > 1 {
		predictedPath = args[1]
	}
	if opts.considerContexts && !opts.considerObjects {
		log.Warn().Msg("-contexts has no effect without -objects")
	}
	res, err := evaluateFiles(ctx, conf, opts, args[0], predictedPath)
	if err != nil {
		return err
	}
	return writeEvaluation(out, res)
}

func runCmdlineAction(action string, conf *cnf.Conf, opts *cmdlineOptions, args []string) error {
	var out io.Writer = os.Stdout
	if opts.outputPath != "" {
		f, err := os.Create(opts.outputPath)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		out = f
	}
	ctx := context.Background()
	switch action {
	case "evaluate":
		return runEvaluate(ctx, conf, opts, out, args)
	case "convert":
		return runConvert(conf, out, args)
	case "extract":
		return runExtract(ctx, conf, opts, out, args)
	default:
		return fmt.Errorf("unknown action %s", action)
	}
}
