package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/taskboard/internal/config"
	"github.com/rpggio/taskboard/internal/mcp"
	"github.com/spf13/cobra"
)

func serveCmd(a *app) *cobra.Command {
	var (
		transport string
		host      string
		port      int
		auth      bool
		username  string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the board over MCP (stdio or streamable HTTP)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := a.cfg
			fs := cmd.Flags()
			if fs.Changed("transport") {
				cfg.Transport.Mode = transport
			}
			if fs.Changed("host") {
				cfg.Server.Host = host
			}
			if fs.Changed("port") {
				cfg.Server.Port = port
			}
			if fs.Changed("auth") {
				cfg.Auth.Enabled = auth
			}
			if fs.Changed("user") {
				cfg.MCP.User = username
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("config error: %w", err)
			}

			mcpServer := mcp.NewServer(mcp.Config{
				Services: mcp.Services{
					Users:    a.users,
					Projects: a.projects,
					Tasks:    a.tasks,
				},
				AuthEnabled:   cfg.Auth.Enabled,
				TransportMode: cfg.Transport.Mode,
				DefaultUser:   cfg.MCP.User,
				Logger:        a.logger,
			})

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if cfg.Transport.Mode == config.TransportStdio {
				return runStdioMode(ctx, a.logger, mcpServer)
			}
			return runHTTPMode(ctx, a.logger, mcpServer, cfg.Server.Host, cfg.Server.Port)
		},
	}

	cmd.Flags().StringVar(&transport, "transport", "", "Transport mode (stdio, http)")
	cmd.Flags().StringVar(&host, "host", "", "HTTP listen host")
	cmd.Flags().IntVar(&port, "port", 0, "HTTP listen port")
	cmd.Flags().BoolVar(&auth, "auth", false, "Require HTTP Basic credentials")
	cmd.Flags().StringVar(&username, "user", "", "Acting user when credentials are not checked")

	return cmd
}

func runStdioMode(ctx context.Context, logger *slog.Logger, mcpServer *sdkmcp.Server) error {
	logger.Info("starting stdio transport", "auth", "disabled")

	// Run blocks until stdin closes or ctx is canceled.
	if err := mcpServer.Run(ctx, &sdkmcp.StdioTransport{}); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("stdio server error: %w", err)
	}
	logger.Info("shutting down")
	return nil
}

func runHTTPMode(ctx context.Context, logger *slog.Logger, mcpServer *sdkmcp.Server, host string, port int) error {
	mcpHandler := mcp.NewHTTPHandler(mcpServer, logger)

	router := http.NewServeMux()
	router.Handle("/mcp", mcpHandler)
	router.Handle("/mcp/", mcpHandler)
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	addr := fmt.Sprintf("%s:%d", host, port)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	logger.Info("shutting down")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}
	return nil
}
