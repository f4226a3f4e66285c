package main

import (
	"context"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog/log"

	capabilityx "github.com/tanpawarit/Paiduay-Guarded-Travel-Assistant/agent/agents/capability"
	pipelinex "github.com/tanpawarit/Paiduay-Guarded-Travel-Assistant/agent/agents/pipeline"
	llmx "github.com/tanpawarit/Paiduay-Guarded-Travel-Assistant/agent/llm"
	statex "github.com/tanpawarit/Paiduay-Guarded-Travel-Assistant/agent/state"
	toolx "github.com/tanpawarit/Paiduay-Guarded-Travel-Assistant/agent/tool"
	configx "github.com/tanpawarit/Paiduay-Guarded-Travel-Assistant/pkg/config"
	groqx "github.com/tanpawarit/Paiduay-Guarded-Travel-Assistant/pkg/groq"
	_ "github.com/tanpawarit/Paiduay-Guarded-Travel-Assistant/pkg/logger/autoload"
	serverx "github.com/tanpawarit/Paiduay-Guarded-Travel-Assistant/server"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	llmCfg := configx.MustNew[llmx.Config]("GROQ")
	toolCfg := configx.MustNew[toolx.Config]("TOOLS")
	postgresCfg := configx.MustNew[statex.PostgresConfig]("POSTGRES")
	serverCfg := configx.MustNew[serverx.Config]("SERVER")

	pingGroq(ctx, *llmCfg)

	store, closeStore, err := newStore(ctx, *postgresCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("init thread store")
	}
	defer closeStore()

	catalog := toolx.NewCatalog(*toolCfg)

	registry, err := capabilityx.NewRegistry(ctx, *llmCfg, catalog.Tools())
	if err != nil {
		log.Fatal().Err(err).Msg("build model registry")
	}

	pipe, err := pipelinex.New(store, registry)
	if err != nil {
		log.Fatal().Err(err).Msg("build conversation pipeline")
	}

	srv, err := serverx.New(*serverCfg, pipe)
	if err != nil {
		log.Fatal().Err(err).Msg("build http server")
	}

	if err := srv.Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("http server failed")
	}
	log.Info().Msg("shutdown complete")
}

// pingGroq checks the configured models are reachable. Startup continues on
// failure; the first real request surfaces the same problem with more context.
func pingGroq(ctx context.Context, cfg llmx.Config) {
	client := groqx.NewClient(groqx.Config{
		BaseURL: cfg.BaseURL,
		APIKey:  cfg.APIKey,
	})
	if client == nil {
		log.Warn().Msg("groq api key missing, skipping startup ping")
		return
	}

	for _, modelName := range []string{cfg.GuardModel, cfg.ChatModel} {
		if err := groqx.Ping(ctx, client, modelName); err != nil {
			log.Warn().Err(err).Str("model", modelName).Msg("groq model unreachable at startup")
			continue
		}
		log.Info().Str("model", modelName).Msg("groq model reachable")
	}
}

func newStore(ctx context.Context, cfg statex.PostgresConfig) (statex.Store, func(), error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		log.Info().Msg("no postgres dsn configured, using in-memory thread store")
		return statex.NewMemoryStore(), func() {}, nil
	}

	pg, err := statex.NewPostgresStore(cfg)
	if err != nil {
		return nil, nil, err
	}
	if err := pg.Init(ctx); err != nil {
		return nil, nil, err
	}

	log.Info().Msg("postgres thread store ready")
	return pg, func() {
		if err := pg.Close(); err != nil {
			log.Warn().Err(err).Msg("close postgres store")
		}
	}, nil
}
