// File: cmd/app/main.go
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"shorts-factory/internal/config"
	"shorts-factory/internal/infra/adapters/media"
	"shorts-factory/internal/infra/adapters/speech"
	"shorts-factory/internal/infra/adapters/transcript"
	"shorts-factory/internal/infra/adapters/youtube"
	pg "shorts-factory/internal/infra/db/postgres"
	"shorts-factory/internal/infra/logging"
	"shorts-factory/internal/infra/metrics"
	red "shorts-factory/internal/infra/redis"
	"shorts-factory/internal/infra/security"
	"shorts-factory/internal/infra/storage"
	"shorts-factory/internal/infra/web"
	"shorts-factory/internal/infra/worker"
	"shorts-factory/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("development mode enabled")
	}

	metrics.MustRegister()

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres")
	}
	defer pool.Close()
	tm := pg.NewTxManager(pool)

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis")
	}
	defer redisClient.Close()
	locker := red.NewLocker(redisClient)

	// ---- Encryption ----
	cipher, err := security.NewCipher(cfg.Security.EncryptionKey)
	if err != nil {
		logger.Fatal().Err(err).Msg("cipher")
	}

	// ---- Repositories ----
	jobRepo := pg.NewJobRepoCacheDecorator(
		pg.NewJobRepo(pool, tm, cfg.Worker.StaleAfter),
		redisClient,
		cfg.Redis.TTL,
	)
	credRepo := pg.NewCredentialRepo(pool)

	// ---- Object storage ----
	blobs, err := storage.NewMinioBlobStore(&cfg.Storage, cfg.Media.WorkDir, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("storage")
	}
	if err := blobs.EnsureBucket(ctx); err != nil {
		logger.Fatal().Err(err).Msg("storage bucket")
	}

	// ---- Stage adapters ----
	tts, err := speech.NewOpenAITTS(cfg.Speech.OpenAIKey, cfg.Speech.Model, cfg.Media.WorkDir)
	if err != nil {
		logger.Fatal().Err(err).Msg("speech adapter")
	}
	ffmpeg, err := media.NewFFmpeg(cfg.Media.FFmpegPath, cfg.Media.FFprobePath, cfg.Media.WorkDir,
		cfg.Media.EncodeTimeout, cfg.Media.ProbeTimeout, blobs, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("media adapter")
	}
	uploader := youtube.NewUploader(cfg.Upload.BaseURL, cfg.Upload.ChunkSize, cfg.Upload.RetryDelay, logger)
	refresher := youtube.NewOAuthRefresher(cfg.Upload.RedirectURL)
	gemini, err := transcript.NewGemini(ctx, cfg.Transcript.GeminiKey, cfg.Transcript.Model, cfg.Transcript.MaxTokens, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("transcript adapter")
	}

	// ---- Use cases ----
	vaultUC := usecase.NewVaultUseCase(credRepo, tm, cipher, refresher, locker, logger)
	pipelineUC := usecase.NewPipelineUseCase(jobRepo, tts, ffmpeg, uploader, blobs, vaultUC,
		cfg.Speech.Voice, cfg.Upload.RetryDelay, logger)
	transcriptUC := usecase.NewTranscriptUseCase(gemini, logger)

	// ---- Worker pool & processor ----
	pool2 := worker.NewPool(cfg.Worker.Workers, cfg.Worker.QueueSize, logger)
	pool2.Start(ctx)
	defer pool2.Stop()
	processor := worker.NewPipelineProcessor(jobRepo, pipelineUC, pool2, cfg.Worker.RecoveryInterval, logger)
	go processor.Start(ctx)

	jobUC := usecase.NewJobUseCase(jobRepo, processor, logger)

	// ---- HTTP API ----
	srv := web.NewServer(jobUC, vaultUC, transcriptUC, cfg.Server.JWTSecret, logger)
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("http listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("http server")
		}
	}()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}
	cancel()
}
