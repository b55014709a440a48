package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"propshot/api"
	"propshot/compose"
	"propshot/config"
	"propshot/httputil"
	"propshot/logging"
	"propshot/scraper"
	"propshot/sessions"
	"propshot/storage"
	"propshot/workers"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logFile, err := logging.Setup(cfg.LogPath)
	if err != nil {
		log.Printf("Warning: could not set up file logging: %v", err)
	} else {
		defer logFile.Close()
	}

	log.Println("Starting propshot...")
	log.Printf("Site: %s (%s)", cfg.Site.Name, cfg.Site.BaseURL)

	clients, err := httputil.NewClients()
	if err != nil {
		log.Fatalf("Failed to build HTTP clients: %v", err)
	}

	orchestrator := scraper.NewOrchestrator(cfg, clients)
	defer orchestrator.Close()

	store := sessions.NewStore(cfg.SessionTTL, time.Now)

	loader := compose.NewLoader(clients.Images)
	engine, err := compose.NewEngine(loader, cfg.DefaultLayout)
	if err != nil {
		log.Fatalf("Failed to build composition engine: %v", err)
	}

	var publisher storage.Publisher = storage.NoOpPublisher{}
	if cfg.S3.Bucket != "" {
		s3pub, err := storage.NewS3Publisher(context.Background(), cfg.S3)
		if err != nil {
			log.Fatalf("Failed to build S3 publisher: %v", err)
		}
		publisher = s3pub
		log.Printf("Publishing posts to bucket %s", cfg.S3.Bucket)
	}

	janitor, err := workers.NewJanitor(cfg.DownloadDir, cfg.JanitorCron, cfg.JanitorMaxAge)
	if err != nil {
		log.Fatalf("Failed to build janitor: %v", err)
	}
	janitor.Start()
	defer janitor.Stop()
	log.Printf("Janitor scheduled (%s), pruning %s after %s", cfg.JanitorCron, cfg.DownloadDir, cfg.JanitorMaxAge)

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	handler := api.NewHandler(orchestrator, engine, store, publisher, cfg.DownloadDir)
	handler.RegisterRoutes(e)

	if _, err := os.Stat(cfg.FrontendDir); err == nil {
		e.Static("/", cfg.FrontendDir)
		log.Printf("Serving frontend from %s", cfg.FrontendDir)
	}

	go func() {
		if err := e.Start(cfg.ListenAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()
	log.Printf("Listening on %s", cfg.ListenAddr)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("Shutdown: %v", err)
	}
	log.Println("Goodbye!")
}
