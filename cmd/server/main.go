// In file: cmd/server/main.go

// Command server exposes the claims table, its summaries and the assistant
// as a JSON API.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dileep-u-k/femachat/internal/app"
	"github.com/dileep-u-k/femachat/internal/config"
	"github.com/dileep-u-k/femachat/internal/logger"
	"github.com/dileep-u-k/femachat/internal/version"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	defer logger.Sync()

	configPath := flag.String("config", config.DefaultPath, "path to the YAML config file")
	zip := flag.String("zip", "", "zip code to load at startup")
	flag.Parse()

	buildInfo := version.GetBuildInfo()
	logger.Info("Starting FEMAChat server", zap.String("version", buildInfo.Version), zap.String("commit", buildInfo.GitCommit))

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("Configuration error", zap.Error(err))
	}

	a, err := app.New(context.Background(), cfg)
	if err != nil {
		logger.Fatal("Could not initialize services", zap.Error(err))
	}
	defer a.Close()

	if z := strings.TrimSpace(*zip); z != "" {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.FEMA.Timeout)
		if _, err := a.LoadZip(ctx, z); err != nil {
			logger.Warn("Initial claims load failed", zap.String("zip", z), zap.Error(err))
		}
		cancel()
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           newEngine(a),
		ReadHeaderTimeout: 10 * time.Second,
	}
	runServerWithGracefulShutdown(srv)
}

func newEngine(a *app.App) *gin.Engine {
	if os.Getenv("APP_ENV") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery(), requestLogger())
	NewClaimsHandler(a).Register(engine)
	return engine
}

// requestLogger logs one line per request through zap.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)))
	}
}

func runServerWithGracefulShutdown(srv *http.Server) {
	go func() {
		logger.Info("Server listening", zap.String("addr", "http://localhost"+srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Listen error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server shutdown failed", zap.Error(err))
		return
	}
	logger.Info("Server exited gracefully")
}
