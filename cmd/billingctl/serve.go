package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/sony/gobreaker/v2"
	"github.com/spf13/cobra"

	"github.com/gestaonuvem/entitlements/pkg/httpserver"
	"github.com/gestaonuvem/entitlements/svc/entitlement"
)

var errBreakerOpen = errors.New("backend circuit breaker is open")

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the entitlement API for a local UI shell",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a := current
		if _, err := a.svc.Load(ctx); err != nil {
			// The first request retries the load.
			a.log.WarnContext(ctx, "initial subscription load failed", slog.String("severity", entitlement.Classify(err).String()))
		}

		r := chi.NewRouter()
		r.Get("/healthz", httpserver.HealthCheckHandler(a.log))
		r.Get("/readyz", httpserver.HealthCheckHandler(a.log,
			httpserver.Check{Name: "backend", Fn: func(context.Context) error {
				if a.client.BreakerState() == gobreaker.StateOpen {
					return errBreakerOpen
				}
				return nil
			}},
		))
		r.Mount("/api", entitlement.Handler(a.svc))

		// Prompt streams never end on their own; closing the service ends them
		// so shutdown can drain.
		context.AfterFunc(ctx, func() { _ = a.svc.Close() })

		return httpserver.New(a.cfg.HTTP, httpserver.WithLogger(a.log)).Run(ctx, r)
	},
}
