package internal

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/dgellow/mailgate/internal/config"
	"github.com/dgellow/mailgate/internal/emailutil"
	jsonwriter "github.com/dgellow/mailgate/internal/json"
	"github.com/dgellow/mailgate/internal/log"
	"github.com/dgellow/mailgate/internal/mcptools"
	"github.com/dgellow/mailgate/internal/server"
	"github.com/dgellow/mailgate/internal/validation"
)

// Mailgate is the complete email validation service
type Mailgate struct {
	config     config.Config
	validator  *validation.Validator
	handler    http.Handler
	httpServer *server.HTTPServer
	mcpTools   *mcptools.Server
}

// NewMailgate builds the service with all dependencies wired
func NewMailgate(ctx context.Context, cfg config.Config) (*Mailgate, error) {
	log.LogInfoWithFields("mailgate", "Building mailgate", map[string]any{
		"addr":             cfg.Server.Addr,
		"checkDisposable":  cfg.Validation.CheckDisposable,
		"extraDisposable":  len(cfg.Validation.ExtraDisposableDomains),
		"mcpEnabled":       cfg.MCP != nil && cfg.MCP.Enabled,
		"serviceAuthCount": len(cfg.ServiceAuths),
	})

	if cfg.Validation.MaxBatchSize <= 0 {
		return nil, fmt.Errorf("maxBatchSize must be positive, got %d", cfg.Validation.MaxBatchSize)
	}

	disposable := emailutil.NewDomainSet(cfg.Validation.ExtraDisposableDomains...)
	validator := validation.New(disposable)

	var mcpTools *mcptools.Server
	if cfg.MCP != nil && cfg.MCP.Enabled {
		mcpTools = mcptools.NewServer(cfg.MCP.Name, cfg.MCP.TransportType, cfg.Server.BaseURL, validator, cfg.Validation.CheckDisposable)
	}

	handler := buildHTTPHandler(cfg, validator, mcpTools)

	return &Mailgate{
		config:     cfg,
		validator:  validator,
		handler:    handler,
		httpServer: server.NewHTTPServer(handler, cfg.Server.Addr),
		mcpTools:   mcpTools,
	}, nil
}

// Handler returns the fully wrapped HTTP handler
func (m *Mailgate) Handler() http.Handler {
	return m.handler
}

// Run listens on the configured address and serves until ctx is done,
// SIGINT or SIGTERM arrives, or the server fails
func (m *Mailgate) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", m.config.Server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", m.config.Server.Addr, err)
	}
	return m.Serve(ctx, ln)
}

// Serve is Run on an existing listener
func (m *Mailgate) Serve(ctx context.Context, ln net.Listener) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.LogInfoWithFields("mailgate", "Starting mailgate", map[string]any{
		"addr": ln.Addr().String(),
	})

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := m.httpServer.Serve(ln); err != nil {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		reason := "shutdown requested"
		if ctx.Err() == nil {
			reason = "server error"
		}
		log.LogInfoWithFields("mailgate", "Starting graceful shutdown", map[string]any{
			"reason":  reason,
			"timeout": m.config.Server.ShutdownTimeout.String(),
		})

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.config.Server.ShutdownTimeout)
		defer cancel()

		if m.mcpTools != nil {
			if err := m.mcpTools.Shutdown(shutdownCtx); err != nil {
				log.LogWarnWithFields("mailgate", "MCP shutdown error", map[string]any{
					"error": err.Error(),
				})
			}
		}
		if err := m.httpServer.Stop(shutdownCtx); err != nil {
			return fmt.Errorf("HTTP server shutdown error: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.LogErrorWithFields("mailgate", "Shut down with error", map[string]any{
			"error": err.Error(),
		})
		return err
	}

	log.LogInfoWithFields("mailgate", "Shutdown complete", nil)
	return nil
}

func buildHTTPHandler(cfg config.Config, validator *validation.Validator, mcpTools *mcptools.Server) http.Handler {
	mux := http.NewServeMux()

	apiLogger := server.NewLoggerMiddleware("api")
	apiRecover := server.NewRecoverMiddleware("api")
	cors := server.NewCORSMiddleware(cfg.Server.AllowedOrigins)
	bodyLimit := server.NewBodyLimitMiddleware(cfg.Server.MaxBodyBytes)
	serviceAuth := server.NewServiceAuthMiddleware(cfg.ServiceAuths)

	mux.Handle("/health", server.NewHealthHandler())

	handlers := server.NewValidationHandlers(validator, cfg.Validation.CheckDisposable, cfg.Validation.MaxBatchSize)

	// The registration form posts here straight from the browser, so no service auth
	mux.Handle("/api/email/validate", server.ChainMiddleware(
		http.HandlerFunc(handlers.ValidateHandler),
		bodyLimit,
		cors,
		apiLogger,
		apiRecover,
	))

	mux.Handle("/api/email/validate-batch", server.ChainMiddleware(
		http.HandlerFunc(handlers.ValidateBatchHandler),
		serviceAuth,
		bodyLimit,
		cors,
		apiLogger,
		apiRecover,
	))

	if mcpTools != nil {
		path := "/" + cfg.MCP.Name + "/"
		mux.Handle(path, server.ChainMiddleware(
			mcpTools.Handler(),
			serviceAuth,
			bodyLimit,
			cors,
			server.NewLoggerMiddleware("mcp"),
			server.NewRecoverMiddleware("mcp"),
		))
		log.LogInfoWithFields("mailgate", "Mounted MCP tools", map[string]any{
			"path":      path,
			"transport": string(cfg.MCP.TransportType),
		})
	}

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		jsonwriter.WriteNotFound(w, "Not found")
	})

	return mux
}
