// Package api serves the Aegis HTTP+JSON surface.
package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/zulandar/aegis/internal/auth"
	"github.com/zulandar/aegis/internal/notify"
	"gorm.io/gorm"
)

// Deps are the collaborators every handler reaches through.
type Deps struct {
	DB       *gorm.DB
	Issuer   *auth.Issuer
	Notifier notify.Notifier // optional; told about sprint completions
}

// StartOpts holds configuration for the API server.
type StartOpts struct {
	Deps
	Port           int
	Mode           string // gin mode: debug, release or test
	AllowedOrigins []string
	Out            io.Writer
}

// Start launches the API server. It blocks until ctx is cancelled,
// then shuts down gracefully.
func Start(ctx context.Context, opts StartOpts) error {
	if opts.DB == nil {
		return fmt.Errorf("api: db is required")
	}
	if opts.Issuer == nil {
		return fmt.Errorf("api: token issuer is required")
	}
	if opts.Port <= 0 {
		opts.Port = 5000
	}
	if opts.Mode == "" {
		opts.Mode = gin.ReleaseMode
	}

	gin.SetMode(opts.Mode)
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())
	router.Use(cors.New(corsConfig(opts.AllowedOrigins)))
	registerRoutes(router, opts.Deps)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", opts.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown on context cancellation.
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	if opts.Out != nil {
		fmt.Fprintf(opts.Out, "Aegis API listening on http://localhost:%d/api\n", opts.Port)
	}

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("api: %w", err)
	}
	return nil
}

// NewRouter builds the engine without middleware for logging or CORS.
// Tests drive it through httptest.
func NewRouter(deps Deps) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	registerRoutes(router, deps)
	return router
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.DefaultConfig()
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
		cfg.AllowCredentials = true
	}
	cfg.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	cfg.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "x-auth-token"}
	return cfg
}
