// Package main is the entry point for the harmonic-mcp server.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jamesprial/harmonic-mcp/internal/auth"
	"github.com/jamesprial/harmonic-mcp/internal/config"
	"github.com/jamesprial/harmonic-mcp/internal/graphql"
	"github.com/jamesprial/harmonic-mcp/internal/notifications"
	"github.com/jamesprial/harmonic-mcp/internal/profile"
	"github.com/jamesprial/harmonic-mcp/internal/safety"
	"github.com/jamesprial/harmonic-mcp/internal/search"
	"github.com/jamesprial/harmonic-mcp/internal/tools"
	"github.com/mark3labs/mcp-go/server"
)

const defaultConfigPath = "/config/config.yaml"

func main() {
	if loaded, err := config.LoadDotEnv(".env"); err != nil {
		log.Printf("warning: %v", err)
	} else if len(loaded) > 0 {
		log.Printf("loaded environment from %v", loaded)
	}

	cfg := loadConfig()
	config.ApplyEnvOverrides(cfg)

	tokenBefore := cfg.Server.AuthToken
	token, err := config.EnsureAuthToken(cfg)
	if err != nil {
		log.Printf("warning: could not generate auth token: %v; running without authentication", err)
	} else if tokenBefore == "" {
		log.Printf("generated auth token (set %s to persist): %s", config.EnvMCPAuthToken, token)
	}

	if cfg.GraphQL.Token == "" {
		log.Printf("warning: no Harmonic API token; set %s or graphql.token", config.EnvAPIToken)
	}

	// Open audit log writer if enabled.
	var auditLogger *safety.AuditLogger
	if cfg.Audit.Enabled {
		f, err := os.OpenFile(cfg.Audit.LogPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			log.Printf("warning: could not open audit log %q: %v; audit logging disabled", cfg.Audit.LogPath, err)
		} else {
			auditLogger = safety.NewAuditLogger(f)
			defer f.Close()
		}
	}

	searchFilter := safety.NewFilter(
		cfg.Safety.SavedSearches.Allowlist,
		cfg.Safety.SavedSearches.Denylist,
	)

	notifier := notifications.NewNotifier(log.Default())

	var clientOpts []graphql.Option
	if cfg.Notify.Enabled {
		clientOpts = append(clientOpts, graphql.WithErrorObserver(notifier.Observe))
	}
	client, err := graphql.NewHTTPClient(cfg.GraphQL, clientOpts...)
	if err != nil {
		log.Fatalf("failed to create GraphQL client: %v", err)
	}

	profiles := profile.NewGraphQLProfileManager(client)
	searches := search.NewGraphQLSearchManager(client)

	mcpServer := server.NewMCPServer(
		"harmonic-mcp",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	var registrations []tools.Registration
	registrations = append(registrations, profile.ProfileTools(profiles, auditLogger)...)
	registrations = append(registrations, search.SearchTools(searches, searchFilter, auditLogger)...)
	registrations = append(registrations, graphql.GraphQLTools(client, auditLogger)...)
	if cfg.Notify.Enabled {
		registrations = append(registrations, notifications.NotificationTools(notifier, auditLogger)...)
	}

	tools.RegisterAll(mcpServer, registrations)

	// Build Streamable HTTP server and wrap with auth middleware.
	httpHandler := server.NewStreamableHTTPServer(mcpServer)
	authMiddleware := auth.NewAuthMiddleware(cfg.Server.AuthToken)
	wrappedHandler := authMiddleware(httpHandler)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           wrappedHandler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("harmonic-mcp listening on %s (%d tools)", addr, len(registrations))
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	<-stop
	log.Println("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(ctx); err != nil {
		log.Printf("graceful shutdown error: %v", err)
	}
	log.Println("server stopped")
}

// loadConfig reads the config file named by HARMONIC_MCP_CONFIG_PATH, or
// /config/config.yaml. If the file cannot be read, DefaultConfig is returned.
func loadConfig() *config.Config {
	path := os.Getenv("HARMONIC_MCP_CONFIG_PATH")
	if path == "" {
		path = defaultConfigPath
	}

	cfg, err := config.LoadConfig(path)
	if err != nil {
		log.Printf("could not load config from %q (%v), using defaults", path, err)
		return config.DefaultConfig()
	}

	log.Printf("loaded config from %q", path)
	return cfg
}
