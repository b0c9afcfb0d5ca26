// Copyright 2023 Tomas Machalek <tomas.machalek@gmail.com>
// Copyright 2023 Martin Zimandl <martin.zimandl@gmail.com>
// Copyright 2023 Institute of the Czech National Corpus,
//                Faculty of Arts, Charles University
// Copyright 2026 The COMPEX authors
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
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/czcorpus/cnc-gokit/collections"
	"github.com/czcorpus/cnc-gokit/logging"
	"github.com/czcorpus/cnc-gokit/uniresp"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"compex/cnf"
)

const (
	redisConnectionTestTimeout = 120 * time.Second
	shutdownTimeout            = 10 * time.Second
)

var (
	version   string
	buildDate string
	gitCommit string
)

type versionInfo struct {
	Version   string `json:"version"`
	BuildDate string `json:"buildDate"`
	GitCommit string `json:"gitCommit"`
}

type service interface {
	Start(ctx context.Context)
	Stop(ctx context.Context) error
}

func getEnv(name string) string {
	for _, p := range os.Environ() {
		items := strings.SplitN(p, "=", 2)
		if len(items) == 2 && items[0] == name {
			return items[1]
		}
	}
	return ""
}

func getRequestOrigin(ctx *gin.Context) string {
	currOrigin, ok := ctx.Request.Header["Origin"]
	if ok {
		return currOrigin[0]
	}
	return ""
}

func additionalLogEvents() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		logging.AddLogEvent(ctx, "userAgent", ctx.Request.UserAgent())
		ctx.Next()
	}
}

func CORSMiddleware(conf *cnf.Conf) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if strings.HasSuffix(ctx.Request.URL.Path, "/openapi") {
			ctx.Header("Access-Control-Allow-Origin", "*")
			ctx.Header("Access-Control-Allow-Methods", "GET")
			ctx.Header("Access-Control-Allow-Headers", "Content-Type")

		} else {
			var allowedOrigin string
			currOrigin := getRequestOrigin(ctx)
			for _, origin := range conf.CorsAllowedOrigins {
				if currOrigin == origin {
					allowedOrigin = origin
					break
				}
			}
			if allowedOrigin != "" {
				ctx.Writer.Header().Set("Access-Control-Allow-Origin", allowedOrigin)
				ctx.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
				ctx.Writer.Header().Set(
					"Access-Control-Allow-Headers",
					"Content-Type, Content-Length, Accept-Encoding, Authorization, Accept, Origin, Cache-Control, X-Requested-With",
				)
				ctx.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET")
			}

			if ctx.Request.Method == "OPTIONS" {
				ctx.AbortWithStatus(204)
				return
			}
		}
		ctx.Next()
	}
}

func AuthRequired(conf *cnf.Conf) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if len(conf.AuthTokens) > 0 && !collections.SliceContains(conf.AuthTokens, ctx.GetHeader(conf.AuthHeaderName)) {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		ctx.Next()
	}
}

func mkServerInfo(conf *cnf.Conf, ver versionInfo) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		uniresp.WriteJSONResponse(
			ctx.Writer,
			map[string]any{
				"name":        "Compex",
				"version":     ver,
				"taxonomy":    conf.TaxonomyFile != "",
				"markers":     conf.Markers,
				"extractor":   "CoreNLP semgrex",
				"currentTime": time.Now().In(conf.TimezoneLocation()),
			},
		)
	}
}

func cleanVersionInfo(v string) string {
	return strings.TrimLeft(strings.Trim(v, "'"), "v")
}

func main() {
	ver := versionInfo{
		Version:   cleanVersionInfo(version),
		BuildDate: cleanVersionInfo(buildDate),
		GitCommit: cleanVersionInfo(gitCommit),
	}
	cmdOpts := new(cmdlineOptions)
	flag.BoolVar(&cmdOpts.considerObjects, "objects", false, "evaluate also competency objects")
	flag.BoolVar(&cmdOpts.considerContexts, "contexts", false, "evaluate also object contexts (requires -objects)")
	flag.StringVar(&cmdOpts.taxonomyFile, "taxonomy", "", "a JSON verb dictionary used to filter and tag extracted competencies")
	flag.StringVar(&cmdOpts.confPath, "conf", "", "an optional config file for local actions (evaluate, convert, extract)")
	flag.StringVar(&cmdOpts.outputPath, "output", "", "write the result to a file instead of stdout")

	flag.Usage = func() {
		bin := filepath.Base(os.Args[0])
		fmt.Fprintf(os.Stderr, "COMPEX - competency triples conversion, extraction and evaluation\n\n")
		fmt.Fprintf(os.Stderr, "Usage:\n\t%s [options] evaluate <gold.tsv|gold dir> [predicted.json]\n\t", bin)
		fmt.Fprintf(os.Stderr, "%s [options] convert <data.tsv>\n\t", bin)
		fmt.Fprintf(os.Stderr, "%s [options] extract <sentences.txt>\n\t", bin)
		fmt.Fprintf(os.Stderr, "%s [options] server [config.json]\n\t", bin)
		fmt.Fprintf(os.Stderr, "%s [options] worker [config.json]\n\t", bin)
		fmt.Fprintf(os.Stderr, "%s [options] test [config.json]\n\t", bin)
		fmt.Fprintf(os.Stderr, "%s [options] version\n", bin)
		flag.PrintDefaults()
	}
	flag.Parse()
	action := flag.Arg(0)

	switch action {
	case "version":
		fmt.Printf("compex %s\nbuild date: %s\nlast commit: %s\n", ver.Version, ver.BuildDate, ver.GitCommit)
		return
	case "evaluate", "convert", "extract":
		conf := cnf.DefaultConf()
		if cmdOpts.confPath != "" {
			conf = cnf.LoadConfig(cmdOpts.confPath)
		}
		logging.SetupLogging(logging.LoggingConf{Path: conf.LogFile, Level: conf.LogLevel})
		if err := cnf.ValidateAndDefaults(conf, false); err != nil {
			log.Fatal().Err(err).Msg("invalid configuration")
		}
		if err := runCmdlineAction(action, conf, cmdOpts, flag.Args()[1:]); err != nil {
			fmt.Fprintf(os.Stderr, "%s failed: %s\n", action, err)
			os.Exit(1)
		}
		return
	}

	conf := cnf.LoadConfig(flag.Arg(1))

	if action == "worker" {
		var wPath string
		if conf.LogFile != "" {
			wPath = filepath.Join(filepath.Dir(conf.LogFile), "worker.log")
		}
		logging.SetupLogging(logging.LoggingConf{Path: wPath, Level: conf.LogLevel})
		log.Logger = log.Logger.With().Str("worker", getWorkerID()).Logger()

	} else if action == "test" {
		if err := cnf.ValidateAndDefaults(conf, true); err != nil {
			log.Fatal().Err(err).Msg("invalid configuration")
		}
		log.Info().Msg("config OK")
		return

	} else {
		logging.SetupLogging(logging.LoggingConf{Path: conf.LogFile, Level: conf.LogLevel})
	}

	log.Info().Msg("Starting Compex")
	if err := cnf.ValidateAndDefaults(conf, true); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	switch action {
	case "server":
		runApiServer(conf, ver)
	case "worker":
		runWorker(conf)
	default:
		log.Fatal().Msgf("Unknown action %s", action)
	}
}
