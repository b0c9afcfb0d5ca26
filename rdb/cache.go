// Copyright 2023 Martin Zimandl <martin.zimandl@gmail.com>
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
	"crypto/sha1"
	"encoding/hex"
	"os"
	"path/filepath"

	"github.com/bytedance/sonic"
	"github.com/czcorpus/cnc-gokit/fs"
	"github.com/rs/zerolog/log"
)

func (a *Adapter) cacheFilePath(query Query) string {
	hashKey := sha1.Sum(append([]byte(query.Func), query.Args...))
	return filepath.Join(a.cachePath, query.Func+"-"+hex.EncodeToString(hashKey[:]))
}

func (a *Adapter) readCachedResult(path string) (*WorkerResult, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	result := new(WorkerResult)
	if err := sonic.Unmarshal(content, result); err != nil {
		return nil, err
	}
	return result, nil
}

func (a *Adapter) writeCachedResult(path string, result *WorkerResult) {
	data, err := sonic.Marshal(result)
	if err != nil {
		log.Err(err).Msgf("Error while encoding cache file %s", path)
		return
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		log.Err(err).Msgf("Error while writing cache file %s", path)
	}
}

// CacheResult returns a cached result of the query if available.
// Otherwise, fn is called and its successful result is cached.
// Without a configured cache path, fn is called directly.
func (a *Adapter) CacheResult(fn func(Query) (<-chan *WorkerResult, error), query Query) (<-chan *WorkerResult, error) {
	if len(a.cachePath) == 0 {
		return fn(query)
	}
	path := a.cacheFilePath(query)
	pe := fs.PathExists(path)
	isf, _ := fs.IsFile(path)
	if pe && isf {
		result, err := a.readCachedResult(path)
		if err == nil {
			log.Debug().Str("path", path).Msg("using cached result")
			ans := make(chan *WorkerResult, 1)
			ans <- result
			close(ans)
			return ans, nil
		}
		log.Err(err).Msgf("Error while reading cache file %s", path)
	}

	wr, err := fn(query)
	if err != nil {
		return nil, err
	}
	ans := make(chan *WorkerResult)
	go func() {
		defer close(ans)
		rawResult := <-wr
		if rawResult != nil && rawResult.ErrorMessage() == "" {
			a.writeCachedResult(path, rawResult)
		}
		ans <- rawResult
	}()
	return ans, nil
}
