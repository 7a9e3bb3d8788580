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

	"github.com/arqmanager/portfolio-web/config"
	"github.com/arqmanager/portfolio-web/internal/auth"
	authhttp "github.com/arqmanager/portfolio-web/internal/auth/http"
	"github.com/arqmanager/portfolio-web/internal/auth/repository"
	authservice "github.com/arqmanager/portfolio-web/internal/auth/service"
	"github.com/arqmanager/portfolio-web/internal/backend"
	"github.com/arqmanager/portfolio-web/internal/bootstrap"
	cronjob "github.com/arqmanager/portfolio-web/internal/cron"
	"github.com/arqmanager/portfolio-web/internal/projects/domain"
	projecthttp "github.com/arqmanager/portfolio-web/internal/projects/http"
	"github.com/arqmanager/portfolio-web/internal/projects/service"
	"github.com/arqmanager/portfolio-web/internal/projects/validation"
)

const serviceName = "portfolio-web"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	bootstrap.SetGinMode(cfg.App.Environment)

	ctx := context.Background()

	catalog := domain.DefaultCatalog()
	if cfg.Forms.CategoriesFile != "" {
		catalog, err = domain.LoadCatalog(cfg.Forms.CategoriesFile)
		if err != nil {
			log.Fatalf("categories: %v", err)
		}
	}

	rdb, err := bootstrap.OpenRedis(ctx, bootstrap.RedisOptions{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	defer rdb.Close()

	api := backend.NewClient(backend.Options{
		BaseURL:    cfg.Backend.BaseURL,
		Timeout:    cfg.Backend.Timeout,
		RatePerSec: cfg.Backend.RatePerSec,
		Burst:      cfg.Backend.Burst,
	})

	var verifier authservice.TokenVerifier
	fb, err := auth.InitializeFirebase(ctx, &cfg.Firebase)
	if err != nil {
		log.Fatalf("firebase: %v", err)
	}
	if fb != nil {
		verifier = fb
	} else {
		log.Println("firebase not configured, google tokens are checked by the backend only")
	}

	store := repository.NewSessionRepository(rdb, cfg.Redis.SessionTTL)
	sessions := authservice.NewSessionService(store, authservice.BackendAccounts{Client: api}, verifier)

	forms := service.NewRegistry(service.RegistryOptions{
		Schema:         validation.NewSchema(cfg.Forms.MinDescriptionLen, catalog.Default()),
		MaxAttachments: cfg.Forms.MaxAttachments,
		FilesBaseURL:   cfg.Backend.FilesBaseURL,
		RedirectDelay:  cfg.Forms.RedirectDelay,
		IdleTTL:        cfg.Forms.IdleTTL,
	})

	sched, err := cronjob.NewScheduler(cfg.Forms.SweepSchedule, forms)
	if err != nil {
		log.Fatalf("scheduler: %v", err)
	}
	sched.Start()

	router := bootstrap.BuildRouter(bootstrap.RouterDeps{
		ServiceName:    serviceName,
		Version:        cfg.App.Version,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Redis:          rdb,
		Backend:        api,
		Sessions:       sessions,
		Forms:          forms,
		Auth:           authhttp.New(sessions, cfg.Redis.SessionTTL, cfg.Server.CookieSecure),
		Projects: projecthttp.New(
			forms,
			service.NewGalleryService(cfg.Backend.FilesBaseURL),
			projecthttp.BackendClients(api),
			catalog,
			cfg.Server.SpoolDir,
		),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("%s %s listening on %s (env=%s)", serviceName, cfg.App.Version, srv.Addr, cfg.App.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Println("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("server shutdown: %v", err)
	}
	sched.Stop(shutdownCtx)
	log.Printf("discarded %d open form(s)", forms.CloseAll())
}
