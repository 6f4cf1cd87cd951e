package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/brightdesk/chatrelay/internal/config"
	"github.com/brightdesk/chatrelay/internal/handler"
	"github.com/brightdesk/chatrelay/internal/hub"
	"github.com/brightdesk/chatrelay/internal/service/ai"
	chatsvc "github.com/brightdesk/chatrelay/internal/service/chat"
	"github.com/brightdesk/chatrelay/internal/service/notify"
	"github.com/brightdesk/chatrelay/internal/service/relay"
	"github.com/brightdesk/chatrelay/internal/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	setupLogging()

	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("no .env file loaded, using system environment only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	gateway, closeStore, err := openStore(cfg.Store)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open session store")
	}
	defer closeStore()

	var gen relay.Generator
	if cfg.AI.Enabled() {
		aiSvc, err := ai.NewService(ctx, cfg.AI)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize AI service")
		}
		gen = aiSvc
		log.Info().Str("model", cfg.AI.Model).Msg("AI service initialized")
	} else {
		gen = unavailableGenerator{}
		log.Warn().Msg("model credentials not configured; responses will surface errors")
	}

	registry := chatsvc.NewRegistry(gateway)
	rooms := hub.New()
	alerter := notify.New(cfg.Notify.URL)
	relayRouter := relay.New(registry, gen, gateway, rooms, alerter, ai.DefaultProfile())

	router := handler.NewRouter(relayRouter, gateway)

	if err := runServer(ctx, cfg.Server, router); err != nil {
		log.Fatal().Err(err).Msg("server error")
	}
}

func setupLogging() {
	level := zerolog.InfoLevel
	if raw := os.Getenv("LOG_LEVEL"); raw != "" {
		if parsed, err := zerolog.ParseLevel(raw); err == nil {
			level = parsed
		}
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
}

func openStore(cfg config.StoreConfig) (store.Gateway, func(), error) {
	switch cfg.Driver {
	case "memory":
		log.Warn().Msg("using in-memory session store; transcripts will not survive restarts")
		return store.NewMemoryStore(), func() {}, nil
	case "sqlite":
		s, err := store.OpenSQLite(cfg.DSN)
		if err != nil {
			return nil, nil, err
		}
		log.Info().Str("dsn", cfg.DSN).Msg("opened sqlite session store")
		return s, func() { _ = s.Close() }, nil
	default:
		return nil, nil, errors.New("unknown STORE_DRIVER: " + cfg.Driver)
	}
}

func runServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) error {
	srv := &http.Server{
		Addr:              serverCfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	eg, egCtx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		log.Info().Str("addr", serverCfg.Addr).Msg("chatrelay backend listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	eg.Go(func() error {
		<-egCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("server shutdown error")
			return err
		}
		log.Info().Msg("server shutdown complete")
		return nil
	})

	return eg.Wait()
}

// unavailableGenerator stands in when no model credentials are present;
// every generation fails and surfaces the standard error notice.
type unavailableGenerator struct{}

func (unavailableGenerator) Generate(context.Context, ai.Request) (string, error) {
	return "", errors.New("language model not configured")
}
