package main

import (
	"context"
	"coursechat/backend/internal/api/handler"
	"coursechat/backend/internal/chathub"
	"coursechat/backend/internal/config"
	"coursechat/backend/internal/storage"
	"errors"
	"log"
	"net/http"
	"os"
	"time"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

func setupDependencies(ctx context.Context, cfg config.Config) (*gorm.DB, *redis.Client) {
	// 1. PostgreSQL
	db, err := storage.Open(cfg)
	if err != nil {
		log.Fatalf("%v", err)
	}

	// 2. Redis (необов'язковий: без нього relay працює в одному інстансі)
	rdb, err := storage.OpenRedis(ctx, cfg)
	if err != nil {
		log.Fatalf("%v", err)
	}

	// 3. Міграції (Створення таблиць)
	if err := storage.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	log.Println("Database connection established, migrations complete.")
	return db, rdb
}

func main() {
	log.Println("Starting coursechat relay...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("%v", err)
	}

	// 1. Ініціалізація залежностей
	db, rdb := setupDependencies(context.Background(), cfg)
	s := storage.NewStorageService(db, rdb)

	// 2. Ініціалізація Chat Hub
	hub := chathub.NewManagerService(s)
	hub.SetPersistTimeout(cfg.PersistTimeout)

	hubCtx, stopHub := context.WithCancel(context.Background())
	go hub.Run(hubCtx) // Головний диспетчер

	// 3. Налаштування Gin та роутингу
	r := gin.Default()
	handler.NewHandler(hub, s, cfg.JWTSecret, cfg.TokenTTL, cfg.SendBufferSize).Register(r)

	server := &http.Server{
		Addr:           cfg.Addr(),
		Handler:        r,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		log.Printf("INFO: Listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("HTTP server failed: %v", err)
		}
	}()

	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		cfg.ShutdownTimeout,
		map[string]gfshutdown.Operation{
			"http-server": func(ctx context.Context) error {
				return server.Shutdown(ctx)
			},
			"relay-hub": func(ctx context.Context) error {
				// Закриває всі з'єднання і чекає завершення збереження повідомлень
				stopHub()
				hub.Wait()
				return nil
			},
			"redis": func(ctx context.Context) error {
				if rdb == nil {
					return nil
				}
				return rdb.Close()
			},
		},
	)

	exitCode := <-wait
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	log.Printf("Relay exited with code: %d", exitCode)
	os.Exit(exitCode)
}
