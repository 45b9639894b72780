package main

import (
	"flag"
	"os"
	"sync"
	"time"

	"github.com/emzola/libris/clients"
	"github.com/emzola/libris/config"
	_ "github.com/emzola/libris/docs"
	"github.com/emzola/libris/handler"
	"github.com/emzola/libris/internal/jsonlog"
	"github.com/emzola/libris/repository"
	"github.com/emzola/libris/repository/memory"
	"github.com/emzola/libris/repository/postgres"
	"github.com/emzola/libris/service"
	"github.com/jellydator/ttlcache/v3"
	"golang.org/x/time/rate"
)

// app defines the application's layers and shared resources.
type app struct {
	config  config.Config
	repo    repository.Repository
	service service.Service
	handler *handler.Handler
}

// @title  Libris API
// @version 1.0.0
// @description This is an API service for lending books from a shared catalog.
// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html
// @BasePath /
func main() {
	configPath := flag.String("config", "config.yaml", "Path to YAML configuration file")
	flag.Parse()

	logger := jsonlog.New(os.Stdout, jsonlog.LevelInfo)

	// Initialize configuration
	cfg, err := config.Decode(*configPath)
	if err != nil {
		logger.PrintFatal(err, nil)
	}
	level, err := jsonlog.ParseLevel(cfg.Logger.Level)
	if err != nil {
		logger.PrintFatal(err, nil)
	}
	logger = jsonlog.New(os.Stdout, level)

	// Initialize store
	var repo repository.Repository
	if cfg.Database.DSN != "" {
		db, err := postgres.OpenDBConn(cfg)
		if err != nil {
			logger.PrintFatal(err, nil)
		}
		defer db.Close()
		logger.PrintInfo("database connection pool established", nil)
		repo = repository.New(db)
	} else {
		logger.PrintWarn("no database configured, books are kept in memory", nil)
		repo = memory.New()
	}

	// Optional cover storage
	var covers service.CoverStore
	if cfg.CoversEnabled() {
		client, err := clients.NewS3Client(cfg)
		if err != nil {
			logger.PrintFatal(err, nil)
		}
		covers = clients.NewCoverBucket(client, cfg)
		logger.PrintInfo("cover storage enabled", map[string]string{"bucket": cfg.S3.Bucket})
	}

	// Other shared resources: waitgroup and per-client rate limiters
	var wg sync.WaitGroup
	limiters := ttlcache.New(ttlcache.WithTTL[string, *rate.Limiter](3 * time.Minute))
	go limiters.Start()
	defer limiters.Stop()

	// Application layers
	service := service.New(cfg, &wg, logger, repo, covers)
	handler := handler.New(cfg, logger, limiters, service)

	// Instantiate application
	app := &app{
		config:  cfg,
		repo:    repo,
		service: service,
		handler: handler,
	}

	// Start HTTP server
	err = app.serve(&wg, logger)
	if err != nil {
		logger.PrintFatal(err, nil)
	}
}
