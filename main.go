package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
	"golang.org/x/crypto/acme/autocert"

	"github.com/padraicbc/f1sim/config"
	"github.com/padraicbc/f1sim/db"
	"github.com/padraicbc/f1sim/handlers"
	applog "github.com/padraicbc/f1sim/logger"
	mw "github.com/padraicbc/f1sim/middleware"
	"github.com/padraicbc/f1sim/observability"
	"github.com/padraicbc/f1sim/process"
	"github.com/padraicbc/f1sim/service"
	"github.com/padraicbc/f1sim/store/postgres"
)

func main() {
	cfg := config.Load()
	logger, err := applog.New(cfg.Debug)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	ctx := context.Background()
	bdb, err := db.Setup(ctx, cfg)
	if err != nil {
		logger.Fatal("database setup failed", zap.Error(err))
	}
	defer bdb.Close()

	if err := db.CreateTables(ctx, bdb); err != nil {
		logger.Fatal("create tables failed", zap.Error(err))
	}

	st := postgres.New(bdb)
	metrics := observability.NewMetrics(cfg.MetricsNamespace, nil)
	factory := process.NewFactory(process.FactoryOptions{
		Profiles: st,
		Defaults: process.Defaults(
			cfg.Sim.DefaultLapTime,
			cfg.Sim.DefaultLapStdDev,
			cfg.Sim.DefaultPitStop,
			cfg.Sim.DefaultOvertakeProb,
		),
		MinObservations: cfg.Sim.MinObservations,
		Logger:          logger.Named("process"),
	})
	svc := service.New(service.Options{
		Factory:  factory,
		Profiles: st,
		Circuits: st,
		Runs:     st,
		Metrics:  metrics,
		Logger:   logger.Named("service"),
		GridGap:  cfg.Sim.GridGap,
		Workers:  cfg.Sim.Workers,

		MaxLaps:     cfg.Sim.MaxLaps,
		MaxEntrants: cfg.Sim.MaxEntrants,
	})

	h := handlers.New(svc, st, cfg.AdminUsers, logger.Named("http"), cfg.JWTKey())

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogError:   true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.Int("status", v.Status),
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Duration("latency", v.Latency),
			}
			if v.Error != nil {
				fields = append(fields, zap.Error(v.Error))
			}
			switch {
			case v.Status >= 500:
				logger.Error("http request", fields...)
			case v.Status >= 400:
				logger.Warn("http request", fields...)
			default:
				logger.Info("http request", fields...)
			}
			return nil
		},
	}))
	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:     []string{"*", "Authorization"},
		AllowCredentials: true,
	}))

	// Public
	e.POST("/sim/signin", h.Signin)
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))

	// Protected – require valid JWT in Authorization header or token param
	h.Register(e.Group("/sim", mw.JWT(cfg.JWTKey())))

	if cfg.Debug {
		logger.Info("starting server", zap.String("mode", "debug"), zap.String("addr", cfg.Port))
		if err := e.Start(cfg.Port); err != nil {
			logger.Fatal("server exited", zap.Error(err))
		}
		return
	}

	autoTLS := &autocert.Manager{
		Prompt:     autocert.AcceptTOS,
		Cache:      autocert.DirCache(".cache"),
		HostPolicy: autocert.HostWhitelist(cfg.TLSDomains...),
	}

	// Whole races are simulated inside one request, so writes get a generous timeout.
	s := &http.Server{
		Addr:         ":443",
		Handler:      e,
		TLSConfig:    autoTLS.TLSConfig(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 300 * time.Second,
		IdleTimeout:  15 * time.Second,
	}

	logger.Info("starting server", zap.String("mode", "tls"), zap.Strings("domains", cfg.TLSDomains))
	if err := s.ListenAndServeTLS("", ""); err != http.ErrServerClosed {
		logger.Error("tls server exited", zap.Error(err))
		os.Exit(1)
	}
}
