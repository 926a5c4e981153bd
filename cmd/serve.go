package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/desertthunder/cantus/internal/auth"
	"github.com/desertthunder/cantus/internal/server"
	"github.com/desertthunder/cantus/internal/shared"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"
)

const (
	purgeInterval   = time.Hour
	shutdownTimeout = 10 * time.Second
)

// Serve runs the HTTP API until SIGINT or SIGTERM.
//
// Expired sessions are purged hourly alongside the listener. Shutdown drains in-flight requests.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	st, err := r.store(ctx)
	if err != nil {
		return err
	}

	cfg := r.config.Server
	if addr := cmd.String("addr"); addr != "" {
		host, port, err := net.SplitHostPort(addr)
		if err != nil {
			return fmt.Errorf("%w: --addr must be host:port", shared.ErrInvalidArgument)
		}
		if cfg.Port, err = strconv.Atoi(port); err != nil {
			return fmt.Errorf("%w: invalid port %q", shared.ErrInvalidArgument, port)
		}
		cfg.Host = host
	}

	var provider *auth.Provider
	if r.config.Auth.Enabled() {
		if provider, err = auth.NewProvider(r.config.Auth); err != nil {
			return fmt.Errorf("failed to configure sign-in: %w", err)
		}
	} else {
		r.logger.Warn("sign-in disabled, auth client credentials are not configured")
	}

	srv := server.New(st.db, server.Options{
		Config:     cfg,
		SessionTTL: r.config.Auth.TTL(),
		Provider:   provider,
		Logger:     shared.WithLogger(r.logger, "component", "http"),
	}).HTTPServer()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		r.logger.Info("listening", "addr", srv.Addr, "base_url", cfg.BaseURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		r.logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		ticker := time.NewTicker(purgeInterval)
		defer ticker.Stop()
		for {
			r.purgeSessions(ctx, st.sessions)
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
			}
		}
	})

	return g.Wait()
}

type sessionPurger interface {
	Purge(ctx context.Context, now time.Time) (int64, error)
}

func (r *Runner) purgeSessions(ctx context.Context, p sessionPurger) {
	n, err := p.Purge(ctx, time.Now())
	switch {
	case err != nil && ctx.Err() == nil:
		r.logger.Warn("failed to purge sessions", "error", err)
	case n > 0:
		r.logger.Info("purged expired sessions", "count", n)
	}
}

// Health calls /health on a running server.
func (r *Runner) Health(ctx context.Context, cmd *cli.Command) error {
	base := cmd.String("url")
	if base == "" {
		base = r.config.Server.BaseURL
	}
	url := strings.TrimSuffix(base, "/") + "/health"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: status %d", shared.ErrServiceUnavailable, resp.StatusCode)
	}

	r.writePlain("✓ Service is healthy\n")
	return r.writePlain("Status: %s\n", strings.TrimSpace(string(body)))
}
