package main

import (
	"context"

	"renfe-backend/lib/archive"
	"renfe-backend/lib/configutil"
	"renfe-backend/lib/restyutil"
	"renfe-backend/lib/scrapers/renfe"
	"renfe-backend/lib/scrapers/renfe/flow"
	"renfe-backend/lib/serviceutil"
	"renfe-backend/lib/telemetry"
	"renfe-backend/services/trains"
	"renfe-backend/services/trains/server"
)

type Config struct {
	Port         int    `json:"port"`
	ResponsesDir string `json:"responses_dir"`
	// overrides the production search endpoint, useful against a
	// recorded upstream
	SearchURL string `json:"search_url"`
	Verbose   bool   `json:"verbose"`
	// when true, every upstream exchange is dumped under .dev/resty
	DumpHttp bool        `json:"dump_http"`
	Flow     flow.Config `json:"flow"`
}

func main() {
	ctx := serviceutil.SignalContext()

	config, err := configutil.ReadConfig[Config]("trains.json5")
	if err != nil {
		serviceutil.Fatal("failed to read config", err)
	}
	if config.Port == 0 {
		config.Port = 8000
	}
	if config.ResponsesDir == "" {
		config.ResponsesDir = "responses"
	}
	if config.Flow == (flow.Config{}) {
		config.Flow = flow.DefaultConfig()
	}

	telemetry.InitSlog(config.Verbose)
	err = telemetry.SetupFromEnv(ctx, "trains")
	if err != nil {
		serviceutil.Fatal("failed to setup telemetry", err)
	}
	defer telemetry.Shutdown(context.Background())
	telemetry.InstrumentPerfStats(ctx)

	store, err := archive.NewStore(config.ResponsesDir)
	if err != nil {
		serviceutil.Fatal("failed to open response archive", err)
	}
	defer store.Close()

	var output restyutil.InstrumentOutput
	if config.DumpHttp {
		output = restyutil.NewFilesystemOutput(".dev/resty/trains")
	}
	client, err := renfe.NewClient(renfe.ClientOptions{
		SearchURL: config.SearchURL,
		Output:    output,
	})
	if err != nil {
		serviceutil.Fatal("failed to initialize renfe client", err)
	}

	service := trains.NewService(client, flow.NewRunner(config.Flow), store)
	serviceutil.StartHttpServer(ctx, config.Port, server.New(service).Routes())
}
