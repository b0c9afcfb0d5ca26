// Copyright 2019 Tomas Machalek <tomas.machalek@gmail.com>
// Copyright 2019 Institute of the Czech National Corpus,
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

package cnf

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"compex/converter"
	"compex/extractor"
	"compex/monitoring"
	"compex/rdb"

	"github.com/bytedance/sonic"
	"github.com/czcorpus/cnc-gokit/fs"
	"github.com/czcorpus/cnc-gokit/logging"
	"github.com/rs/zerolog/log"
)

const (
	dfltListenAddress          = "127.0.0.1"
	dfltListenPort             = 8990
	dfltServerReadTimeoutSecs  = 30
	dfltServerWriteTimeoutSecs = 130
	dfltTimeZone               = "Europe/Prague"
	dfltAuthHeaderName         = "X-Api-Key"
)

// Conf is a global configuration of the app
type Conf struct {
	ListenAddress          string                `json:"listenAddress"`
	ListenPort             int                   `json:"listenPort"`
	ServerReadTimeoutSecs  int                   `json:"serverReadTimeoutSecs"`
	ServerWriteTimeoutSecs int                   `json:"serverWriteTimeoutSecs"`
	CorsAllowedOrigins     []string              `json:"corsAllowedOrigins"`
	AuthHeaderName         string                `json:"authHeaderName"`
	AuthTokens             []string              `json:"authTokens"`
	LogFile                string                `json:"logFile"`
	LogLevel               logging.LogLevel      `json:"logLevel"`
	TimeZone               string                `json:"timeZone"`
	Redis                  *rdb.Conf             `json:"redis"`
	CoreNLP                extractor.CoreNLPConf `json:"coreNlp"`

	// TaxonomyFile is an optional JSON verb dictionary. The file
	// is watched and reloaded on change.
	TaxonomyFile string `json:"taxonomyFile"`

	// Markers specify annotation values of gold data. If not set,
	// converter.DefaultMarkers() are used.
	Markers    converter.Markers `json:"markers"`
	Monitoring *monitoring.Conf  `json:"monitoring"`

	srcPath string
}

func (conf *Conf) IsDebugMode() bool {
	return conf.LogLevel == "debug"
}

func (conf *Conf) TimezoneLocation() *time.Location {
	// we can ignore the error here as we always call ValidateAndDefaults()
	// first (which also tries to load the location and report possible
	// error)
	loc, _ := time.LoadLocation(conf.TimeZone)
	return loc
}

// GetSourcePath returns an absolute path of a file
// the config was loaded from.
func (conf *Conf) GetSourcePath() string {
	if conf.srcPath == "" || filepath.IsAbs(conf.srcPath) {
		return conf.srcPath
	}
	var cwd string
	cwd, err := os.Getwd()
	if err != nil {
		cwd = "[failed to get working dir]"
	}
	return filepath.Join(cwd, conf.srcPath)
}

// DefaultConf returns a configuration suitable for
// local command line actions (no Redis, no API server)
func DefaultConf() *Conf {
	return &Conf{
		LogLevel: "info",
		TimeZone: dfltTimeZone,
		Markers:  converter.DefaultMarkers(),
	}
}

func readConfig(path string) (*Conf, error) {
	rawData, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	var conf Conf
	conf.srcPath = path
	if err := sonic.Unmarshal(rawData, &conf); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return &conf, nil
}

func LoadConfig(path string) *Conf {
	if path == "" {
		log.Fatal().Msg("Cannot load config - path not specified")
	}
	conf, err := readConfig(path)
	if err != nil {
		log.Fatal().Err(err).Msg("Cannot load config")
	}
	return conf
}

// ValidateAndDefaults checks the configuration and fills in
// default values of missing items. The `requireRedis` argument
// should be set for the API server and workers.
func ValidateAndDefaults(conf *Conf, requireRedis bool) error {
	if conf.ListenAddress == "" {
		conf.ListenAddress = dfltListenAddress
	}
	if conf.ListenPort == 0 {
		conf.ListenPort = dfltListenPort
	}
	if conf.ServerReadTimeoutSecs == 0 {
		conf.ServerReadTimeoutSecs = dfltServerReadTimeoutSecs
	}
	if conf.ServerWriteTimeoutSecs == 0 {
		conf.ServerWriteTimeoutSecs = dfltServerWriteTimeoutSecs
		log.Warn().Msgf(
			"serverWriteTimeoutSecs not specified, using default: %d",
			dfltServerWriteTimeoutSecs,
		)
	}
	if len(conf.AuthTokens) > 0 && conf.AuthHeaderName == "" {
		conf.AuthHeaderName = dfltAuthHeaderName
		log.Warn().
			Str("value", conf.AuthHeaderName).
			Msg("authHeaderName not specified, using default")
	}
	if conf.TimeZone == "" {
		conf.TimeZone = dfltTimeZone
		log.Warn().
			Str("timeZone", dfltTimeZone).
			Msg("time zone not specified, using default")
	}
	if _, err := time.LoadLocation(conf.TimeZone); err != nil {
		return fmt.Errorf("invalid time zone: %w", err)
	}
	if conf.Redis != nil || requireRedis {
		if err := conf.Redis.ValidateAndDefaults(); err != nil {
			return fmt.Errorf("invalid redis configuration: %w", err)
		}
	}
	if err := conf.CoreNLP.ValidateAndDefaults(); err != nil {
		return err
	}
	if conf.TaxonomyFile != "" {
		isFile, err := fs.IsFile(conf.TaxonomyFile)
		if err != nil {
			return fmt.Errorf("failed to test taxonomyFile: %w", err)
		}
		if !isFile {
			return fmt.Errorf("taxonomyFile %s is not a file", conf.TaxonomyFile)
		}
	}
	if conf.Markers.IsZero() {
		conf.Markers = converter.DefaultMarkers()

	} else if conf.Markers.Competency == "" || conf.Markers.Object == "" || conf.Markers.Context == "" {
		return fmt.Errorf("all of markers.competency, markers.object, markers.context must be set")
	}
	return nil
}
