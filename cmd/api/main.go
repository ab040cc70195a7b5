package main

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/utamuwetu/storefront/internal/config"
	"github.com/utamuwetu/storefront/internal/database"
	"github.com/utamuwetu/storefront/internal/httpx"
)

func main() {
	log, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("load config", zap.Error(err))
	}

	db, err := database.NewConnection(&cfg.Database)
	if err != nil {
		log.Fatal("connect to database", zap.Error(err))
	}
	defer db.Close()

	log.Info("connected to database")

	router := httpx.NewRouter(db, cfg, log)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	log.Info("server starting", zap.String("port", cfg.Server.Port))
	if err := server.ListenAndServe(); err != nil {
		log.Fatal("server error", zap.Error(err))
	}
}
