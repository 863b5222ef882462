package main

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	assethandler "assetledger/internal/asset/handler"
	assetservice "assetledger/internal/asset/service"
	assetstore "assetledger/internal/asset/store"
	"assetledger/internal/catalog"
	"assetledger/internal/certificate"
	certhandler "assetledger/internal/certificate/handler"
	"assetledger/internal/certificate/render"
	artifactstore "assetledger/internal/certificate/store"
	"assetledger/internal/evidence"
	"assetledger/internal/export"
	httpapi "assetledger/internal/http"
	"assetledger/internal/identifier"
	ledgerstore "assetledger/internal/ledger/store"
	"assetledger/internal/lifecycle"
	lifecyclehandler "assetledger/internal/lifecycle/handler"
	"assetledger/internal/platform/config"
	"assetledger/internal/platform/httpserver"
	"assetledger/internal/platform/logger"
	"assetledger/internal/platform/metrics"
	"assetledger/internal/platform/middleware"
	"assetledger/internal/platform/redis"
	"assetledger/internal/summary"
	summaryhandler "assetledger/internal/summary/handler"
	"assetledger/pkg/platform/tx"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Server, log *slog.Logger) error {
	cat, err := loadCatalog(cfg.CatalogPath)
	if err != nil {
		return err
	}

	var (
		assets    assetstore.Store
		ledger    ledgerstore.Store
		artifacts artifactstore.Store
		sequences identifier.SequenceStore
		boundary  tx.Boundary
	)
	if cfg.DatabaseURL != "" {
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := db.Ping(); err != nil {
			return err
		}
		assets = assetstore.NewPostgres(db)
		ledger = ledgerstore.NewPostgres(db)
		artifacts = artifactstore.NewPostgres(db)
		sequences = identifier.NewPostgresSequenceStore(db)
		boundary = tx.NewRunner(db)
		log.Info("using postgres registry")
	} else {
		assets = assetstore.NewInMemory()
		ledger = ledgerstore.NewInMemory()
		artifacts = artifactstore.NewInMemory()
		sequences = identifier.NewInMemorySequenceStore()
		boundary = tx.NewMemoryRunner()
		log.Info("using in-memory registry")
	}

	redisClient, err := redis.New(cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		sequences = identifier.NewRedisSequenceStore(redisClient.Client)
		log.Info("using redis sequence counters")
	}

	var evidenceIndex evidence.Index = evidence.NullIndex{}
	if cfg.EvidenceDir != "" {
		evidenceIndex = evidence.NewDirIndex(cfg.EvidenceDir)
	}
	renderer, err := render.NewTemplateRenderer()
	if err != nil {
		return err
	}
	archive, err := render.NewDirArchive(cfg.CertificatesDir)
	if err != nil {
		return err
	}

	allocator := identifier.NewAllocator(cat, sequences)
	machine := lifecycle.NewMachine(cat)

	assetSvc := assetservice.NewService(assets, ledger, allocator, boundary, log)
	lifecycleSvc := lifecycle.NewService(assets, ledger, machine, boundary, log)
	gateSvc := certificate.NewService(assets, ledger, artifacts, cat, evidenceIndex,
		renderer, archive, render.DefaultOrganisation(), boundary, log)
	summarySvc := summary.NewService(assets, artifacts, cat, boundary)
	exporter := export.NewExporter(assets, ledger, artifacts, cat, boundary)

	m := metrics.New()
	jwtSvc := middleware.NewJWTService(cfg.JWTSigningKey, "assetledger")

	router := httpapi.NewRouter(httpapi.Deps{
		TokenValidator: jwtSvc,
		Logger:         log,
		Handlers: []httpapi.Registrar{
			assethandler.New(assetSvc, log, m),
			lifecyclehandler.New(lifecycleSvc, log, m),
			certhandler.New(gateSvc, log, m),
			summaryhandler.New(summarySvc, exporter, log),
		},
	})
	srv := httpserver.New(cfg.Addr, router)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("server listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func loadCatalog(path string) (*catalog.Catalog, error) {
	if path != "" {
		return catalog.Load(path)
	}
	return catalog.New(catalog.Defaults())
}
