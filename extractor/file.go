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
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"compex/competency"
	"compex/taxonomy"

	"github.com/bytedance/sonic"
	"github.com/rs/zerolog/log"
)

// ReadJSON reads competencies stored as a JSON object
// with sentences as keys
func ReadJSON(r io.Reader) (competency.Sentences, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read competencies: %w", err)
	}
	var ans competency.Sentences
	if err := sonic.Unmarshal(data, &ans); err != nil {
		return nil, fmt.Errorf("failed to decode competencies: %w", err)
	}
	if ans == nil {
		ans = make(competency.Sentences)
	}
	return ans, nil
}

func WriteJSON(w io.Writer, data competency.Sentences) error {
	enc, err := sonic.ConfigStd.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode competencies: %w", err)
	}
	if _, err := w.Write(enc); err != nil {
		return fmt.Errorf("failed to write competencies: %w", err)
	}
	return nil
}

func LoadFile(path string) (competency.Sentences, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open competencies file: %w", err)
	}
	defer f.Close()
	return ReadJSON(f)
}

func SaveFile(path string, data competency.Sentences) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create competencies file: %w", err)
	}
	defer f.Close()
	return WriteJSON(f, data)
}

// ----

// FileSource serves competencies extracted in advance
// and stored in a JSON file.
type FileSource struct {
	data competency.Sentences
}

// Annotate returns stored competencies of the sentences. Sentences
// missing in the stored data are omitted from the result so they
// cannot be evaluated.
func (fs *FileSource) Annotate(
	ctx context.Context,
	sentences []string,
	dict taxonomy.Dictionary,
) (competency.Sentences, error) {
	ans := make(competency.Sentences)
	for _, sent := range sentences {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		sent = strings.TrimSpace(sent)
		comps, ok := fs.data[sent]
		if !ok {
			log.Debug().Str("sentence", sent).Msg("sentence not found in stored competencies")
			continue
		}
		ans[sent] = filterByTaxonomy(comps, dict)
	}
	return ans, nil
}

func NewFileSource(data competency.Sentences) *FileSource {
	return &FileSource{data: data}
}

func NewFileSourceFromFile(path string) (*FileSource, error) {
	data, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	return &FileSource{data: data}, nil
}
