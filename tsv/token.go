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
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	// ErrSchemaMismatch reports a token line whose feature columns
	// do not correspond to the features declared in the header.
	ErrSchemaMismatch = errors.New("token line does not match document schema")

	// ErrMalformedLine reports a line which cannot be parsed
	ErrMalformedLine = errors.New("malformed line")

	annotationRegexp = regexp.MustCompile(`^(.*)\[(\d+)(_\d+)?\]$`)
)

// ParseError describes a failure on a specific line of an input document
type ParseError struct {
	Line int
	Err  error
}

func (err ParseError) Error() string {
	return fmt.Sprintf("line %d: %s", err.Line, err.Err)
}

func (err ParseError) Unwrap() error {
	return err.Err
}

// Feature is a single annotation attached to a token.
type Feature struct {
	Definition *FeatureDefinition

	// SpanGroupID identifies the chunk the annotated token belongs to.
	// Negative values are synthetic ids assigned to annotations without
	// an explicit group.
	SpanGroupID int

	// Ref is the raw content of the bracketed suffix (e.g. `0_4`).
	Ref string

	Value string
}

// IsRelation tests whether the feature belongs to a relation layer
func (f Feature) IsRelation() bool {
	return f.Definition.Layer.Type == LayerRelation
}

// Token is one token line of a sentence
type Token struct {
	SentenceNumber int
	TokenNumber    int
	Begin          int
	End            int
	Text           string
	Features       []Feature
}

// Coordinate returns the token's address in the form
// used by relation values (e.g. `1-3`).
func (t Token) Coordinate() string {
	return fmt.Sprintf("%d%s%d", t.SentenceNumber, RangeSeparator, t.TokenNumber)
}

// isSubTokenLine tells whether the line addresses a part of a token
// (e.g. `1-3.1`). Such lines are written when an annotation boundary
// falls inside a token.
func isSubTokenLine(line string) bool {
	id, _, _ := strings.Cut(line, FieldSeparator)
	return strings.Contains(id, ".")
}

func parseIntPair(s string) (int, int, error) {
	items := strings.SplitN(s, RangeSeparator, 2)
	if len(items) != 2 {
		return 0, 0, fmt.Errorf("%w: invalid range %s", ErrMalformedLine, s)
	}
	v1, err := strconv.Atoi(items[0])
	if err != nil {
		return 0, 0, fmt.Errorf("%w: invalid range %s", ErrMalformedLine, s)
	}
	v2, err := strconv.Atoi(items[1])
	if err != nil {
		return 0, 0, fmt.Errorf("%w: invalid range %s", ErrMalformedLine, s)
	}
	return v1, v2, nil
}

// splitEscaped splits s by sep, skipping separators escaped
// by a backslash. Escape sequences are resolved in the returned items.
func splitEscaped(s string, sep byte) []string {
	ans := make([]string, 0, 2)
	var curr strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			i++
			curr.WriteByte(s[i])
			continue
		}
		if s[i] == sep {
			ans = append(ans, curr.String())
			curr.Reset()
			continue
		}
		curr.WriteByte(s[i])
	}
	ans = append(ans, curr.String())
	return ans
}

// tokenParser turns token lines into Tokens. It holds the counter
// of synthetic group ids which must be unique within a document.
type tokenParser struct {
	schema      *Schema
	lastSynthID int
}

func (tp *tokenParser) nextSyntheticID() int {
	tp.lastSynthID--
	return tp.lastSynthID
}

func (tp *tokenParser) parseAnnotation(fd *FeatureDefinition, raw string) Feature {
	feat := Feature{Definition: fd}
	srch := annotationRegexp.FindStringSubmatch(raw)
	if len(srch) > 0 {
		feat.Value = srch[1]
		feat.Ref = srch[2] + srch[3]
		feat.SpanGroupID, _ = strconv.Atoi(srch[2])

	} else {
		feat.Value = raw
		feat.SpanGroupID = tp.nextSyntheticID()
	}
	if fd.Layer.Type == LayerRelation {
		// each relation annotation is a chunk of its own
		feat.SpanGroupID = tp.nextSyntheticID()
	}
	return feat
}

func (tp *tokenParser) parseLine(line string) (Token, error) {
	fields := strings.Split(line, FieldSeparator)
	if len(fields) < 3 {
		return Token{}, fmt.Errorf("%w: token line must contain at least 3 columns", ErrMalformedLine)
	}
	var token Token
	var err error
	token.SentenceNumber, token.TokenNumber, err = parseIntPair(fields[0])
	if err != nil {
		return Token{}, err
	}
	token.Begin, token.End, err = parseIntPair(fields[1])
	if err != nil {
		return Token{}, err
	}
	token.Text = fields[2]

	columns := make([]string, 0, len(fields)-3)
	for _, col := range fields[3:] {
		if col != "" {
			columns = append(columns, col)
		}
	}
	defs := tp.schema.Features()
	if len(columns) != len(defs) {
		return Token{}, fmt.Errorf(
			"%w: expected %d feature columns, found %d", ErrSchemaMismatch, len(defs), len(columns))
	}
	for i, col := range columns {
		if col == NullColumn {
			continue
		}
		for _, raw := range splitEscaped(col, '|') {
			if raw == "" || raw == NullColumn {
				continue
			}
			token.Features = append(token.Features, tp.parseAnnotation(defs[i], raw))
		}
	}
	return token, nil
}
