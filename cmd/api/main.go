package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/bryanwahyu/fixgate/internal/application"
	"github.com/bryanwahyu/fixgate/internal/application/review"
	"github.com/bryanwahyu/fixgate/internal/config"
	"github.com/bryanwahyu/fixgate/internal/domain/audit"
	"github.com/bryanwahyu/fixgate/internal/domain/failures"
	"github.com/bryanwahyu/fixgate/internal/domain/submissions"
	mysqlp "github.com/bryanwahyu/fixgate/internal/infra/db/mysql"
	postgresp "github.com/bryanwahyu/fixgate/internal/infra/db/postgres"
	"github.com/bryanwahyu/fixgate/internal/infra/engine/enginehttp"
	openaiengine "github.com/bryanwahyu/fixgate/internal/infra/engine/openai"
	"github.com/bryanwahyu/fixgate/internal/infra/httpserver"
	minioStore "github.com/bryanwahyu/fixgate/internal/infra/storage"
	"github.com/bryanwahyu/fixgate/internal/middleware"
)

func main() {
	// path config.yaml
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	// load config
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	ctx := context.Background()

	// pick the analysis engine adapter
	var engine submissions.Engine
	switch cfg.Engine.Kind {
	case "openai":
		engine = openaiengine.NewClient(cfg.Engine.OpenAI.APIKey, cfg.Engine.OpenAI.Model)
	default:
		if cfg.Engine.BaseURL == "" {
			log.Fatalf("engine.baseURL is required for the http engine")
		}
		engine = enginehttp.NewClient(cfg.Engine.BaseURL)
	}

	// durable audit + failure stores (optional)
	var auditRepo audit.Repository
	var failureRepo failures.Repository
	var db *sql.DB
	switch cfg.Database.Driver {
	case "mysql":
		db, err = mysqlp.Connect(ctx, cfg.MySQLDSN())
		if err != nil {
			log.Fatalf("mysql connect error: %v", err)
		}
		auditRepo = mysqlp.NewAuditRepository(db)
		failureRepo = mysqlp.NewFailureRepository(db)
	case "postgres":
		db, err = postgresp.Connect(ctx, cfg.PostgresDSN())
		if err != nil {
			log.Fatalf("postgres connect error: %v", err)
		}
		auditRepo = postgresp.NewAuditRepository(db)
	case "":
		log.Println("no database driver configured, audit trail is session-scoped only")
	default:
		log.Fatalf("unknown database driver: %s", cfg.Database.Driver)
	}
	if db != nil {
		defer db.Close()
	}

	// snapshot archive (optional)
	var snapshots submissions.SnapshotStore
	if cfg.Minio.Enabled {
		store, err := minioStore.New(ctx,
			cfg.Minio.Endpoint,
			cfg.Minio.Region,
			cfg.Minio.BucketName,
			cfg.Minio.AccessKey,
			cfg.Minio.SecretKey,
			cfg.Minio.UseSSL,
		)
		if err != nil {
			log.Fatalf("minio init error: %v", err)
		}
		snapshots = store
	}

	// per-session review services
	sessions := &review.Sessions{
		Engine:    engine,
		AuditRepo: auditRepo,
		Failures:  failureRepo,
		Snapshots: snapshots,
		Clock:     application.SystemClock{},
	}

	// health checks cover the configured backing stores
	checkers := map[string]middleware.HealthChecker{}
	if db != nil {
		checkers["database"] = &middleware.DatabaseHealthChecker{DB: db}
	}

	// init router
	mux := chi.NewRouter()
	mux.Use(middleware.PayloadSizeLimit)
	if len(cfg.Auth.APIKeys) > 0 {
		mux.Use(middleware.APIKeyAuth(cfg.Auth.APIKeys))
	}
	mux.Use(middleware.RateLimitMiddleware(30, 10))
	mux.Mount("/", httpserver.NewRouter(sessions, failureRepo, checkers))

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:        addr,
		Handler:     mux,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
		// no WriteTimeout: the analysis call has no timeout of its own and
		// may hold the response open until the engine answers
	}

	// run server
	go func() {
		log.Printf("server listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	log.Println("shutting down server...")

	ctx2, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}
