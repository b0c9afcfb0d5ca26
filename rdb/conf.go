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
	"fmt"

	"github.com/czcorpus/cnc-gokit/fs"
	"github.com/rs/zerolog/log"
)

const (
	DefaultRedisPort              = 6379
	DefaultQueryAnswerTimeoutSecs = 120
)

// Conf configures Redis connection and the job queue
type Conf struct {
	Host                   string `json:"host"`
	Port                   int    `json:"port"`
	DB                     int    `json:"db"`
	Password               string `json:"password"`
	ChannelQuery           string `json:"channelQuery"`
	ChannelResultPrefix    string `json:"channelResultPrefix"`
	QueryAnswerTimeoutSecs int    `json:"queryAnswerTimeoutSecs"`

	// CachePath is a directory where evaluation results
	// are cached. If empty, no caching is performed.
	CachePath string `json:"cachePath"`
}

func (conf *Conf) ServerInfo() string {
	return fmt.Sprintf("%s:%d", conf.Host, conf.Port)
}

func (conf *Conf) ValidateAndDefaults() error {
	if conf == nil {
		return fmt.Errorf("missing `redis` section")
	}
	if conf.Host == "" {
		conf.Host = "localhost"
		log.Warn().Str("value", conf.Host).Msg("redis.host not specified, using default")
	}
	if conf.Port == 0 {
		conf.Port = DefaultRedisPort
		log.Warn().Int("value", conf.Port).Msg("redis.port not specified, using default")
	}
	if conf.ChannelQuery == "" {
		conf.ChannelQuery = DefaultQueryChannel
		log.Warn().
			Str("channel", conf.ChannelQuery).
			Msg("Redis channel for queries not specified, using default")
	}
	if conf.ChannelResultPrefix == "" {
		conf.ChannelResultPrefix = DefaultResultChannelPrefix
		log.Warn().
			Str("channel", conf.ChannelResultPrefix).
			Msg("Redis channel for results not specified, using default")
	}
	if conf.QueryAnswerTimeoutSecs <= 0 {
		conf.QueryAnswerTimeoutSecs = DefaultQueryAnswerTimeoutSecs
		log.Warn().
			Int("value", conf.QueryAnswerTimeoutSecs).
			Msg("redis.queryAnswerTimeoutSecs not specified, using default")
	}
	if conf.CachePath != "" {
		isDir, err := fs.IsDir(conf.CachePath)
		if err != nil {
			return fmt.Errorf("failed to check redis.cachePath: %w", err)
		}
		if !isDir {
			return fmt.Errorf("redis.cachePath %s is not a directory", conf.CachePath)
		}
	}
	return nil
}
