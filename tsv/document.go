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

package tsv

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
)

// Document is a parsed TSV document
type Document struct {
	Schema    *Schema
	Sentences []*Sentence
}

// SentenceTexts returns texts of all the sentences in document order
func (doc *Document) SentenceTexts() []string {
	ans := make([]string, len(doc.Sentences))
	for i, s := range doc.Sentences {
		ans[i] = s.Text
	}
	return ans
}

// ReadSentences reads sentences following the document header.
// Each sentence is resolved (i.e. its chunks and relations are
// available) once it is returned.
func ReadSentences(schema *Schema, lr *LineReader) ([]*Sentence, error) {
	parser := &tokenParser{schema: schema}
	resolver := &spanResolver{schema: schema}
	ans := make([]*Sentence, 0, 100)
	var curr *Sentence
	finish := func() {
		if curr != nil {
			resolver.resolve(curr)
			ans = append(ans, curr)
			curr = nil
		}
	}

	for {
		line, ok := lr.Next()
		if !ok {
			break
		}
		switch {
		case strings.HasPrefix(line, SentenceTextPrefix):
			text := strings.TrimPrefix(line, SentenceTextPrefix)
			if curr != nil && len(curr.Tokens) == 0 {
				// multi-line sentence text is split into
				// multiple consecutive #Text= lines
				curr.Text += "\n" + text
				continue
			}
			finish()
			curr = &Sentence{Text: text}
		case strings.TrimSpace(line) == "":
			finish()
		case strings.HasPrefix(line, "#"):
			// other comments (e.g. #Sentence.id=) carry nothing we need
		default:
			if curr == nil {
				return nil, ParseError{
					Line: lr.LineNo(),
					Err:  fmt.Errorf("%w: token line outside of a sentence", ErrMalformedLine),
				}
			}
			if isSubTokenLine(line) {
				log.Debug().
					Int("line", lr.LineNo()).
					Str("sentence", curr.Text).
					Msg("skipping sub-token line")
				continue
			}
			token, err := parser.parseLine(line)
			if err != nil {
				return nil, ParseError{Line: lr.LineNo(), Err: err}
			}
			curr.Tokens = append(curr.Tokens, token)
		}
	}
	if err := lr.Err(); err != nil {
		return nil, err
	}
	finish()
	return ans, nil
}

// ReadDocument parses a whole TSV document
func ReadDocument(r io.Reader) (*Document, error) {
	lr := NewLineReader(r)
	schema, err := ReadSchema(lr)
	if err != nil {
		return nil, fmt.Errorf("failed to read document schema: %w", err)
	}
	sents, err := ReadSentences(schema, lr)
	if err != nil {
		return nil, fmt.Errorf("failed to read document sentences: %w", err)
	}
	return &Document{Schema: schema, Sentences: sents}, nil
}

// ReadFile parses a TSV document stored in a file
func ReadFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open TSV file: %w", err)
	}
	defer f.Close()
	doc, err := ReadDocument(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return doc, nil
}
