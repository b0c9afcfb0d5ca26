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

package taxonomy

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFile(t *testing.T) {
	dict, err := LoadFile("testdata/taxonomy.json")
	require.NoError(t, err)
	assert.Equal(t, Remember, dict["erkennen"])
	assert.Equal(t, Apply, dict["erkunden"])
	assert.Equal(t, Analyze, dict["prüfen"])
	assert.Equal(t, Evaluate, dict["kritisieren"])
	assert.Equal(t, Create, dict["komponieren"])
	_, ok := dict.Lookup("schlafen")
	assert.False(t, ok)
}

func TestReadJSONInvalidDimension(t *testing.T) {
	_, err := ReadJSON(strings.NewReader(`[{"dimension": 7, "verbs": ["x"]}]`))
	assert.Error(t, err)
}

func TestReadJSONLastDimensionWins(t *testing.T) {
	dict, err := ReadJSON(strings.NewReader(
		`[{"dimension": 0, "verbs": ["a"]}, {"dimension": "create", "verbs": ["a"]}]`))
	require.NoError(t, err)
	assert.Equal(t, Create, dict["a"])
}

func TestDimensionJSON(t *testing.T) {
	data, err := json.Marshal(Analyze)
	require.NoError(t, err)
	assert.Equal(t, `"analyze"`, string(data))

	var d Dimension
	assert.NoError(t, json.Unmarshal([]byte(`"Evaluate"`), &d))
	assert.Equal(t, Evaluate, d)
	assert.NoError(t, json.Unmarshal([]byte(`1`), &d))
	assert.Equal(t, Understand, d)
	assert.Error(t, json.Unmarshal([]byte(`"memorize"`), &d))
}

func TestDictionaryMarshalGroupsVerbs(t *testing.T) {
	dict := Dictionary{"b": Apply, "a": Apply, "c": Remember}
	data, err := json.Marshal(dict)
	require.NoError(t, err)
	assert.JSONEq(
		t,
		`[{"dimension": "remember", "verbs": ["c"]}, {"dimension": "apply", "verbs": ["a", "b"]}]`,
		string(data),
	)
	back, err := ReadJSON(strings.NewReader(string(data)))
	require.NoError(t, err)
	assert.Equal(t, dict, back)
}

func TestWatcherReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "taxonomy.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"dimension": 0, "verbs": ["kennen"]}]`), 0644))

	reloaded := make(chan Dictionary, 4)
	w, err := NewWatcher(path, func(d Dictionary) { reloaded <- d })
	require.NoError(t, err)
	<-reloaded // initial load
	assert.Equal(t, Remember, w.Dictionary()["kennen"])

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	w.Start(ctx)
	defer w.Stop(ctx)

	require.NoError(t, os.WriteFile(path, []byte(`[{"dimension": 5, "verbs": ["kennen"]}]`), 0644))
	for {
		select {
		case d := <-reloaded:
			if d["kennen"] == Create {
				assert.Equal(t, Create, w.Dictionary()["kennen"])
				return
			}
		case <-ctx.Done():
			t.Fatal("timeout waiting for taxonomy reload")
		}
	}
}
