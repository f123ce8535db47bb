package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	cronrunner "boardwatch/internal/cron"
	"boardwatch/internal/handler"
	"boardwatch/internal/pipeline"
	"boardwatch/internal/repository"
	"boardwatch/internal/service"
)

func newServeCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the scheduled pipeline and the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			defer a.Close()
			if addr != "" {
				a.cfg.Server.HTTPAddr = addr
			}
			return serve(a)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "HTTP listen address (overrides server.http_addr)")
	return cmd
}

func serve(a *app) error {
	log := a.logger
	svc := &service.PipelineService{
		Runner:   a.pipeline,
		Defaults: pipeline.Options{Days: a.cfg.Board.Days},
		Logger:   log,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	engine := newEngine(a, svc)
	srv := &http.Server{
		Addr:    a.cfg.Server.HTTPAddr,
		Handler: engine,
	}

	cronRunner := cronrunner.New(log, ctx)
	if a.cfg.Cron.Enabled {
		if _, err := cronRunner.Add("pipeline", a.cfg.Cron.Pipeline, svc.RunScheduled); err != nil {
			return err
		}
		cronRunner.Start()
		defer cronRunner.Stop()
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http shutdown", zap.Error(err))
	}
	return nil
}

func newEngine(a *app, svc *service.PipelineService) *gin.Engine {
	if strings.EqualFold(a.cfg.App.Env, "dev") {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(corsMiddleware())

	var repo repository.Repository
	health := &handler.HealthHandler{Cache: a.cache}
	if a.store != nil {
		repo = a.store
		health.DB = a.db.Gorm
	}
	health.Register(engine)
	(&handler.BoardHandler{Repo: repo, Pipeline: svc}).Register(engine)
	(&handler.NewsHandler{Repo: repo, Pipeline: svc}).Register(engine)
	(&handler.PipelineHandler{Service: svc, Repo: repo, Location: a.cfg.App.Location()}).Register(engine)
	return engine
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
