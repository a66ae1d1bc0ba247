package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/go-chi/chi/v5"

	"github.com/ecotrail/ecotrail/internal/assistant"
	"github.com/ecotrail/ecotrail/internal/config"
	"github.com/ecotrail/ecotrail/internal/eco"
	"github.com/ecotrail/ecotrail/internal/httpapi"
	"github.com/ecotrail/ecotrail/internal/reports"
	"github.com/ecotrail/ecotrail/internal/storage"
	"github.com/ecotrail/ecotrail/internal/tips"
	"github.com/ecotrail/ecotrail/internal/trails"
	sharedauth "github.com/ecotrail/ecotrail/shared/auth"
	"github.com/ecotrail/ecotrail/shared/events"
	"github.com/ecotrail/ecotrail/shared/logging"
	sharedserver "github.com/ecotrail/ecotrail/shared/server"
)

const serviceName = "ecotrail-service"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Errorf("config error: %w", err))
	}

	logger := logging.NewLogger(serviceName)

	catalog, err := eco.LoadCatalogFile(cfg.Eco.CatalogFile)
	if err != nil {
		panic(fmt.Errorf("eco catalog error: %w", err))
	}

	store, cleanup, err := newProgressStore(ctx, cfg)
	if err != nil {
		panic(fmt.Errorf("progress store init error: %w", err))
	}
	defer cleanup()

	publisher := events.NewLogPublisher(logger)
	registry := eco.NewRegistry(catalog,
		eco.WithStore(store),
		eco.WithPublisher(publisher),
		eco.WithLogger(logger),
	)
	go expireSessions(ctx, registry, cfg.Eco.SessionIdle, logger)

	ai, err := newAssistant(ctx, cfg, logger)
	if err != nil {
		panic(fmt.Errorf("assistant init error: %w", err))
	}
	defer ai.Close()

	locations, err := reports.LoadLocations(cfg.Reports.LocationsFile)
	if err != nil {
		panic(fmt.Errorf("trail locations error: %w", err))
	}

	reportOpts := []reports.Option{reports.WithPublisher(publisher)}
	var tipStore tips.ObjectStore
	if cfg.Storage.Bucket != "" {
		objects, err := storage.NewService(ctx, storage.Config{
			Bucket:   cfg.Storage.Bucket,
			Endpoint: cfg.Storage.Endpoint,
		})
		if err != nil {
			panic(fmt.Errorf("storage init error: %w", err))
		}
		defer objects.Close()
		reportOpts = append(reportOpts, reports.WithObjectStore(objects))
		tipStore = objects
	} else {
		logger.Warn("REPORT_STORAGE_BUCKET not set; reports are returned inline only")
	}

	services := httpapi.Services{
		Eco:     registry,
		Trails:  trails.NewService(ai, logger),
		Reports: reports.NewService(ai, locations, logger, reportOpts...),
		Tips:    tips.NewService(ai, tipStore, logger),
	}

	verifier, err := sharedauth.NewVerifier(sharedauth.Config{
		Mode:     cfg.Auth.Mode,
		JWKSURL:  cfg.Auth.JWKSURL,
		Audience: cfg.Auth.Audience,
		Issuer:   cfg.Auth.Issuer,
	})
	if err != nil {
		panic(fmt.Errorf("auth verifier error: %w", err))
	}

	router := sharedserver.NewRouter(serviceName, func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(sharedauth.Middleware(verifier))
			httpapi.RegisterRoutes(r, services, logger)
		})
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	if err := sharedserver.Run(ctx, srv, logger); err != nil && !errors.Is(err, http.ErrServerClosed) {
		panic(err)
	}
}

func newProgressStore(ctx context.Context, cfg config.Config) (eco.ProgressStore, func(), error) {
	switch cfg.DataStore {
	case config.DataStoreFirestore:
		if cfg.Firestore.EmulatorHost != "" {
			if err := os.Setenv("FIRESTORE_EMULATOR_HOST", cfg.Firestore.EmulatorHost); err != nil {
				return nil, nil, fmt.Errorf("set FIRESTORE_EMULATOR_HOST: %w", err)
			}
		}

		client, err := firestore.NewClientWithDatabase(ctx, cfg.GCPProjectID, cfg.Firestore.Database)
		if err != nil {
			return nil, nil, fmt.Errorf("firestore client: %w", err)
		}
		return eco.NewFirestoreStore(client, nil), func() { _ = client.Close() }, nil
	case config.DataStoreSQLite:
		db, err := eco.OpenSQLite(cfg.SQLite.Path)
		if err != nil {
			return nil, nil, err
		}
		return eco.NewSQLiteStore(db, nil), func() { _ = db.Close() }, nil
	default:
		return eco.NewMemoryStore(), func() {}, nil
	}
}

func newAssistant(ctx context.Context, cfg config.Config, logger *slog.Logger) (assistant.Assistant, error) {
	if !cfg.LLM.Enabled() {
		logger.Warn("Gemini credentials not configured; using template responses")
		return assistant.NewTemplateAssistant(), nil
	}
	return assistant.NewGeminiAssistant(ctx, assistant.Config{
		APIKey:          cfg.LLM.APIKey,
		Model:           cfg.LLM.Model,
		VisionModel:     cfg.LLM.VisionModel,
		ImageModel:      cfg.LLM.ImageModel,
		MaxOutputTokens: cfg.LLM.MaxOutputTokens,
		UseVertex:       cfg.LLM.UseVertex,
		Project:         cfg.GCPProjectID,
		Location:        cfg.LLM.Location,
	})
}

// expireSessions drops idle in-memory sessions; stored progress survives for resume.
func expireSessions(ctx context.Context, registry *eco.Registry, idle time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(idle / 4)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := registry.Expire(ctx, idle); n > 0 {
				logger.Info("expired idle eco sessions", slog.Int("count", n), slog.Int("active", registry.Active()))
			}
		}
	}
}
