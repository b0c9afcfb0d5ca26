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
	"embed"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"compex/cnf"
	"compex/docs"
	"compex/handlers"
	"compex/monitoring"
	monitoringActions "compex/monitoring/handlers"
	"compex/rdb"
	"compex/taxonomy"

	"github.com/czcorpus/cnc-gokit/logging"
	"github.com/czcorpus/cnc-gokit/uniresp"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

type apiServer struct {
	server    *http.Server
	conf      *cnf.Conf
	version   versionInfo
	radapter  *rdb.Adapter
	jobLogger *monitoring.WorkerJobLogger
	taxonomy  taxonomy.Provider
}

//go:embed docs/swagger.json
var swaggerJSON embed.FS

func (api *apiServer) Start(ctx context.Context) {
	if !api.conf.IsDebugMode() {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(additionalLogEvents())
	engine.Use(logging.GinMiddleware())
	engine.Use(uniresp.AlwaysJSONContentType())
	engine.Use(CORSMiddleware(api.conf))
	engine.NoMethod(uniresp.NoMethodHandler)
	engine.NoRoute(uniresp.NotFoundHandler)

	cpActions := handlers.NewActions(api.radapter, api.taxonomy, api.conf.Markers)

	engine.GET("/", mkServerInfo(api.conf, api.version))

	docs.SwaggerInfo.Version = api.version.Version
	engine.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// also serve the JSON variant of the docs
	engine.GET(
		"/openapi",
		func(ctx *gin.Context) {
			jsonFile, err := swaggerJSON.ReadFile("docs/swagger.json")
			if err != nil {
				err = fmt.Errorf("failed to read Swagger file: %w", err)
				uniresp.RespondWithErrorJSON(ctx, err, http.StatusInternalServerError)
				return
			}
			uniresp.WriteRawJSONResponse(ctx.Writer, jsonFile)
		},
	)

	engine.POST(
		"/convert", cpActions.Convert)

	engine.POST(
		"/evaluate", cpActions.Evaluate)

	engine.POST(
		"/extract", cpActions.Extract)

	engine.GET(
		"/taxonomy", cpActions.Taxonomy)

	monActions := monitoringActions.NewActions(api.jobLogger, api.conf.TimezoneLocation())
	protected := engine.Group("/monitoring").Use(AuthRequired(api.conf))

	protected.GET(
		"/workers-load", monActions.WorkersLoad)

	protected.GET(
		"/workers-load/:workerId", monActions.SingleWorkerLoad)

	protected.GET(
		"/recent-records", monActions.RecentRecords)

	protected.GET(
		"/func-calls", monActions.FuncCalls)

	log.Info().Msgf("starting to listen at %s:%d", api.conf.ListenAddress, api.conf.ListenPort)
	api.server = &http.Server{
		Handler:      engine,
		Addr:         fmt.Sprintf("%s:%d", api.conf.ListenAddress, api.conf.ListenPort),
		WriteTimeout: time.Duration(api.conf.ServerWriteTimeoutSecs) * time.Second,
		ReadTimeout:  time.Duration(api.conf.ServerReadTimeoutSecs) * time.Second,
	}
	go func() {
		if err := api.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()
}

func (api *apiServer) Stop(ctx context.Context) error {
	log.Warn().Msg("shutting down Compex HTTP API server")
	return api.server.Shutdown(ctx)
}

// taxonomyService starts a taxonomy watcher in case
// a taxonomy file is configured. Both return values
// are nil otherwise.
func taxonomyService(conf *cnf.Conf) (*taxonomy.Watcher, error) {
	if conf.TaxonomyFile == "" {
		log.Warn().Msg("taxonomy file not specified, taxonomy will not be available")
		return nil, nil
	}
	return taxonomy.NewWatcher(conf.TaxonomyFile, nil)
}

func runApiServer(
	conf *cnf.Conf,
	ver versionInfo,
) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	services := make([]service, 0, 4)

	var statusWriter monitoring.StatusWriter
	if conf.Monitoring != nil {
		tsWriter, err := monitoring.NewTimescaleDBWriter(ctx, conf.Monitoring.DB, conf.TimezoneLocation())
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize TimescaleDB status writer")
			return
		}
		services = append(services, tsWriter)
		statusWriter = tsWriter

	} else {
		log.Warn().Msg("monitoring database not configured, job statistics will be kept in memory only")
		statusWriter = &monitoring.NullStatusWriter{}
	}
	jobLogger := monitoring.NewWorkerJobLogger(statusWriter, conf.TimezoneLocation())
	services = append(services, jobLogger)

	radapter := rdb.NewAdapter(conf.Redis, ctx, jobLogger)
	err := radapter.TestConnection(redisConnectionTestTimeout)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to Redis")
		return
	}

	server := &apiServer{
		conf:      conf,
		version:   ver,
		radapter:  radapter,
		jobLogger: jobLogger,
	}
	watcher, err := taxonomyService(conf)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load taxonomy")
		return
	}
	if watcher != nil {
		server.taxonomy = watcher
		services = append(services, watcher)
	}
	services = append(services, server)
	runServices(ctx, services)
}
