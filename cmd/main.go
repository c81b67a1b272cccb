package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"grapeguard/config"
	telegram "grapeguard/internal/api"
	httpapi "grapeguard/internal/api/http"
	"grapeguard/internal/container"
	"grapeguard/internal/infrastructure/imageio"
	"grapeguard/internal/infrastructure/storage"
	"grapeguard/internal/infrastructure/vision"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	infra, cleanup := buildInfrastructure(ctx, cfg)
	defer cleanup()

	// Собираем сервисы приложения
	appContainer := container.New(cfg, infra)
	defer appContainer.Tracker.Close()

	// Модель загружается один раз до приёма запросов
	state := appContainer.Tracker.Initialize(ctx)
	if state.Ready() {
		log.Printf("Serving with model %s (threshold %.2f, device %s)", state.WeightsPath, state.Threshold, state.Device)
	} else {
		log.Printf("Model unavailable (%s: %s), fallback enabled: %v", state.Failure, state.FailureReason, cfg.FallbackEnabled)
	}

	server := httpapi.NewServer(appContainer.DiagnosisService, httpapi.Options{
		Port:          cfg.Port,
		CORSOrigins:   cfg.CORSOrigins,
		MaxImageBytes: cfg.MaxImageBytes,
	})
	go func() {
		if err := server.Run(); err != nil {
			log.Printf("HTTP server error: %v", err)
			stop()
		}
	}()

	if cfg.TelegramToken != "" {
		bot, err := telegram.NewBot(cfg.TelegramToken, appContainer.SessionService, appContainer.InspectionService)
		if err != nil {
			log.Printf("Failed to create bot, continuing without it: %v", err)
		} else {
			go func() {
				log.Println("Bot is running...")
				if err := bot.Run(ctx); err != nil {
					log.Printf("Bot error: %v", err)
				}
			}()
		}
	} else {
		log.Println("TELEGRAM_TOKEN is not set, bot is disabled")
	}

	<-ctx.Done()
	log.Println("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP shutdown error: %v", err)
	}
}

// buildInfrastructure создаёт адаптеры. Недоступные Redis, PostgreSQL и MinIO отключаются с предупреждением.
func buildInfrastructure(ctx context.Context, cfg *config.Config) (container.Infrastructure, func()) {
	var closers []func()
	infra := container.Infrastructure{
		Images:    imageio.NewDecoder(cfg.MaxImageBytes, cfg.ImageFetchTimeout),
		Heuristic: vision.NewHeuristicClassifier(),
		Sessions:  storage.NewMemorySessionRepository(),
		History:   storage.NewMemoryReportRepository(0),
	}

	var objects vision.ObjectSource
	if cfg.MinioEndpoint != "" {
		src, err := storage.NewMinioObjectSource(storage.MinioConfig{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Secure:    cfg.MinioSecure,
		})
		if err != nil {
			log.Printf("Warning: MinIO disabled: %v", err)
		} else {
			objects = src
		}
	}

	infra.Loader = vision.NewDNNLoader(vision.NewSegmenterConfig(cfg.ModelConfigPath, cfg.ModelOutputLayer, cfg.Threshold, cfg.ModelInputSize))
	infra.Weights = vision.NewWeightsFile(cfg.ModelPath, cfg.ModelURL, cfg.ModelMinSizeBytes, objects)

	if cfg.RedisAddr != "" {
		client, err := storage.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			log.Printf("Warning: Redis disabled: %v", err)
		} else {
			infra.Cache = storage.NewRedisReportCache(client, cfg.CacheTTL)
			infra.Sessions = storage.NewRedisSessionRepository(client, storage.DefaultSessionTTL)
			closers = append(closers, func() { _ = client.Close() })
			log.Printf("Redis connected at %s", cfg.RedisAddr)
		}
	}

	if cfg.DatabaseURL != "" {
		db, err := storage.ConnectPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Printf("Warning: PostgreSQL history disabled: %v", err)
		} else {
			repo := storage.NewPostgresReportRepository(db)
			if err := repo.EnsureSchema(ctx); err != nil {
				log.Printf("Warning: %v", err)
			}
			infra.History = repo
			closers = append(closers, func() { _ = db.Close() })
			log.Println("PostgreSQL report history enabled")
		}
	}

	return infra, func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
}
