// Package server - HTTP-Router und Server-Setup fuer patchseq
// Beinhaltet: Server-Struct, Router-Registrierung, Server-Start mit Shutdown
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/ollama/patchseq/envconfig"
	"github.com/ollama/patchseq/logutil"
	"github.com/ollama/patchseq/params"
	"github.com/ollama/patchseq/version"
)

// shutdownTimeout begrenzt das Warten auf laufende Requests beim Beenden
const shutdownTimeout = 10 * time.Second

var mode string = gin.DebugMode

// Server haelt die Basis-Parameter, Requests koennen sie einzeln ueberschreiben
type Server struct {
	addr   net.Addr
	params params.Params
	strict bool
}

func init() {
	switch mode {
	case gin.DebugMode:
	case gin.ReleaseMode:
	case gin.TestMode:
	default:
		mode = gin.DebugMode
	}

	gin.SetMode(mode)
}

// NewServer erstellt einen Server fuer addr (nil deaktiviert die Host-Pruefung)
func NewServer(addr net.Addr, p params.Params, strict bool) (*Server, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &Server{addr: addr, params: p, strict: strict}, nil
}

// GenerateRoutes erstellt und konfiguriert den HTTP-Router
func (s *Server) GenerateRoutes() (http.Handler, error) {
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowWildcard = true
	corsConfig.AllowBrowserExtensions = true
	corsConfig.AllowHeaders = []string{
		"Authorization",
		"Content-Type",
		"User-Agent",
		"Accept",
		"X-Requested-With",
		requestIDHeader,
	}
	corsConfig.ExposeHeaders = []string{requestIDHeader}
	corsConfig.AllowOrigins = envconfig.AllowedOrigins()

	r := gin.Default()
	r.HandleMethodNotAllowed = true
	r.Use(
		cors.New(corsConfig),
		allowedHostsMiddleware(s.addr),
		requestIDMiddleware(),
	)

	// General
	r.HEAD("/", func(c *gin.Context) { c.String(http.StatusOK, "patchseq is running") })
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, "patchseq is running") })
	r.HEAD("/api/version", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"version": version.Version}) })
	r.GET("/api/version", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"version": version.Version}) })
	r.GET("/api/params", s.ParamsHandler)

	// Patches
	r.POST("/api/patches", s.PatchHandler)
	r.POST("/api/patches/batch", s.BatchHandler)

	return r, nil
}

// Serve startet den Server auf ln und blockiert bis SIGINT/SIGTERM
func Serve(ln net.Listener) error {
	slog.SetDefault(logutil.NewLogger(os.Stderr, envconfig.LogLevel()))
	slog.Info("server config", "env", envconfig.Values())

	p, err := params.FromEnv()
	if err != nil {
		return err
	}

	s, err := NewServer(ln.Addr(), p, envconfig.Strict())
	if err != nil {
		return err
	}

	h, err := s.GenerateRoutes()
	if err != nil {
		return err
	}

	ctx, done := context.WithCancel(context.Background())
	srvr := &http.Server{Handler: h}

	// auf ctrl+c warten und laufende Requests noch abschliessen
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-signals
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srvr.Shutdown(shutdownCtx); err != nil {
			slog.Warn("shutdown", "error", err)
		}
		done()
	}()

	slog.Info(fmt.Sprintf("Listening on %s (version %s)", ln.Addr(), version.Version),
		"patch_dim", p.PatchDim, "width", p.Width, "height", p.Height, "channels", p.Channels)

	err = srvr.Serve(ln)
	// Nach Shutdown aus dem Signal-Handler auf den Context warten, sonst sofort Fehler
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	<-ctx.Done()
	return nil
}
