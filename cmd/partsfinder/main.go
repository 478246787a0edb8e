package main

import (
	"flag"
	"partsfinder-backend/internal/agent"
	"partsfinder-backend/internal/components/chrono"
	"partsfinder-backend/internal/components/telemetry"
	"partsfinder-backend/internal/notifications"
	"partsfinder-backend/internal/relevance"
	"partsfinder-backend/internal/scrapers/craigslist"
	"partsfinder-backend/internal/scrapers/ebay"
	"partsfinder-backend/internal/search"
	"partsfinder-backend/internal/searchlog"
	"partsfinder-backend/internal/server"
	"partsfinder-backend/internal/store"
	"partsfinder-backend/pkg/configutil"
	"partsfinder-backend/pkg/serviceutil"
)

func main() {
	verbose := flag.Bool("v", false, "Enable verbose logging/instrumentation.")
	configPath := flag.String("config", "config.json5", "Path to the config file.")
	flag.Parse()

	ctx := serviceutil.SignalContext()

	err := configutil.LoadDotEnv(".env")
	if err != nil {
		serviceutil.Fatal("load .env", err)
	}
	cfg, err := LoadConfig(*configPath, configutil.OSEnv())
	if err != nil {
		serviceutil.Fatal("load config", err)
	}

	tel, shutdown := InitTelemetry(ctx, cfg.Telemetry, *verbose)
	defer shutdown()

	clock := chrono.NewStandardImpl()

	db, err := store.Open(ctx, cfg.Database, clock)
	if err != nil {
		serviceutil.Fatal("open database", err)
	}
	defer db.Close()

	persister := store.NewPersister(db, cfg.PersistQueue, tel)
	defer persister.Close()

	marketplace, deletion := InitEbay(cfg.Ebay, db, clock, tel)
	classifieds := craigslist.Source{
		Client: craigslist.NewClient(craigslist.ClientOptions{
			Timeout: cfg.Craigslist.Timeout(),
		}, tel),
	}

	var filter relevance.Filter = relevance.Identity{}
	if cfg.Relevance.Enabled() {
		filter = relevance.NewLLMFilter(relevance.LLMOptions{
			APIKey:  cfg.Relevance.APIKey,
			BaseURL: cfg.Relevance.BaseURL,
			Model:   cfg.Relevance.Model,
			Timeout: cfg.Relevance.Timeout(),
		}, tel)
	}

	agentHandler := agent.NewHandler(agent.NewClient(cfg.Agent, tel))

	srv := server.New(server.Options{
		Aggregator: search.NewAggregator(tel, 0, marketplace, classifieds),
		Storage:    db,
		Filter:     filter,
		Persister:  persister,
		SearchLog:  searchlog.New(cfg.SearchLog, clock, tel),
		Deletion:   &deletion,
		Agent:      &agentHandler,
	}, clock, tel)

	err = srv.Schedule(chrono.NewRobfigCron(ctx, tel), cfg.Schedule)
	if err != nil {
		serviceutil.Fatal("schedule searches", err)
	}

	err = serviceutil.ServeUntilDone(ctx, serviceutil.NewHttpServer(cfg.Port, srv.Handler()))
	if err != nil {
		serviceutil.Fatal("serve", err)
	}
}

// InitEbay creates the browse api source and the account deletion webhook, both share
// one application token cache.
func InitEbay(
	cfg EbayConfig,
	eraser notifications.SellerEraser,
	clock chrono.API,
	tel telemetry.API,
) (ebay.Client, notifications.Handler) {
	baseUrl := cfg.BaseURL
	if baseUrl == "" {
		baseUrl = ebay.BaseURLFor(cfg.AppId)
	}

	tokens := ebay.NewCredentialCache(ebay.CredentialOptions{
		BaseURL: baseUrl,
		AppId:   cfg.AppId,
		CertId:  cfg.CertId,
	}, clock, tel)
	client := ebay.NewClient(ebay.ClientOptions{
		BaseURL: baseUrl,
		Limit:   cfg.Limit,
	}, tokens, tel)

	deletion := notifications.NewHandler(
		notifications.Config{
			VerificationToken: cfg.VerificationToken,
			Endpoint:          cfg.DeletionEndpoint,
		},
		notifications.NewVerifier(client),
		eraser,
		tel,
	)
	return client, deletion
}

