package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Tokebay/shorturl/config"
	"github.com/Tokebay/shorturl/internal/app/auth"
	"github.com/Tokebay/shorturl/internal/app/handlers"
	"github.com/Tokebay/shorturl/internal/app/shortcode"
	"github.com/Tokebay/shorturl/internal/app/storage"
	"github.com/Tokebay/shorturl/internal/app/token"
	"github.com/Tokebay/shorturl/internal/logger"
	"github.com/Tokebay/shorturl/internal/metrics"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Println("Error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.NewConfig()
	if err != nil {
		return err
	}

	if err := logger.Initialize(cfg.LogLevel); err != nil {
		return err
	}
	defer logger.Log.Sync() //nolint:errcheck
	logger.Log.Info("Config loaded", zap.String("config", cfg.String()))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := newStorage(ctx, cfg)
	if err != nil {
		logger.Log.Error("Error init storage", zap.Error(err))
		return err
	}
	defer st.Close()

	codec, err := token.NewCodec([]byte(cfg.Secret))
	if err != nil {
		return err
	}

	shortener, err := handlers.NewURLShortener(cfg, st, codec, auth.NewBcryptHasher(bcrypt.DefaultCost), metrics.New())
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.ServerAddress,
		Handler:           shortener.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Log.Info("Server is starting", zap.String("address", cfg.ServerAddress))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Log.Error("Failed to start server", zap.Error(err))
			return err
		}
	case <-ctx.Done():
	}

	logger.Log.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// newStorage выбирает хранилище: PostgreSQL, если задан DSN, затем Redis,
// иначе память с необязательным журналом в файле.
func newStorage(ctx context.Context, cfg *config.Config) (storage.Storage, error) {
	gen := shortcode.NewGenerator(shortcode.WithMaxAttempts(cfg.CodeMaxAttempts))

	switch {
	case cfg.DSN != "":
		logger.Log.Info("Using PostgreSQL storage")
		return storage.NewPostgreSQLStorage(ctx, cfg.DSN, gen)
	case cfg.RedisAddr != "":
		logger.Log.Info("Using Redis storage", zap.String("addr", cfg.RedisAddr))
		return storage.NewRedisStorage(ctx, cfg.RedisAddr, gen)
	}

	ms := storage.NewMapStorage(gen)
	if cfg.FileStoragePath == "" {
		logger.Log.Info("Using in-memory storage")
		return ms, nil
	}

	events, err := storage.LoadEvents(cfg.FileStoragePath)
	if err != nil {
		return nil, err
	}
	if err := ms.Restore(events); err != nil {
		return nil, err
	}
	journal, err := storage.NewProducer(cfg.FileStoragePath)
	if err != nil {
		return nil, err
	}
	ms.SetJournal(journal)
	logger.Log.Info("Using in-memory storage with journal",
		zap.String("file", cfg.FileStoragePath),
		zap.Int("events", len(events)),
	)
	return ms, nil
}
