// Command catalogstub serves the demo sneaker catalog on /stock and
// /products for running the cart service locally.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/rocketshoes/internal/catalog/stubserver"
	pkgconfig "github.com/utafrali/rocketshoes/pkg/config"
	"github.com/utafrali/rocketshoes/pkg/logger"
	"github.com/utafrali/rocketshoes/pkg/middleware"
)

type config struct {
	Port     int    `env:"CATALOG_STUB_PORT" envDefault:"3333"`
	DataFile string `env:"CATALOG_STUB_DATA"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

func main() {
	var cfg config
	if err := pkgconfig.Load(&cfg, ".env"); err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	log := logger.New("catalog-stub", cfg.LogLevel)

	catalog, err := loadCatalog(cfg.DataFile)
	if err != nil {
		log.Error("failed to load catalog", slog.String("error", err.Error()))
		os.Exit(1)
	}

	r := chi.NewRouter()
	r.Use(middleware.Recovery(log))
	r.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	r.Use(middleware.RequestLogging(log))
	r.Mount("/", catalog.Handler())

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info("starting catalog stub",
		slog.String("addr", srv.Addr),
		slog.Int("products", len(catalog.Products())),
	)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("catalog stub error", slog.String("error", err.Error()))
		os.Exit(1)
	}
	log.Info("catalog stub stopped")
}

func loadCatalog(path string) (*stubserver.Catalog, error) {
	if path == "" {
		return stubserver.Seed(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return stubserver.Load(f)
}
