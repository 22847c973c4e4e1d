// Command billingctl inspects and drives a tenant's subscription from the
// terminal, and can serve the entitlement HTTP surface for a local UI shell.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/gestaonuvem/entitlements/pkg/backend"
	"github.com/gestaonuvem/entitlements/pkg/cache"
	"github.com/gestaonuvem/entitlements/pkg/config"
	"github.com/gestaonuvem/entitlements/pkg/logger"
	"github.com/gestaonuvem/entitlements/pkg/payment"
	"github.com/gestaonuvem/entitlements/pkg/plan"
	"github.com/gestaonuvem/entitlements/pkg/subscription"
	"github.com/gestaonuvem/entitlements/svc/entitlement"
)

// Version is set at build time with -ldflags.
var Version = "dev"

var (
	envFiles   []string
	tenantID   string
	jsonOutput bool
)

// app holds everything a command needs. It is built once per invocation.
type app struct {
	cfg     config.Config
	log     *slog.Logger
	client  *backend.Client
	store   cache.Store[*subscription.Record]
	catalog *plan.Catalog
	svc     *entitlement.Service
}

var current *app

var rootCmd = &cobra.Command{
	Use:           "billingctl",
	Short:         "Subscription and entitlement tool",
	Long:          `billingctl shows a tenant's plan, usage and access, previews plan changes and runs card, PIX and boleto payments.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		a, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		current = a
		return nil
	},
	PersistentPostRunE: func(*cobra.Command, []string) error {
		if current == nil {
			return nil
		}
		return current.close()
	},
}

func init() {
	rootCmd.PersistentFlags().StringSliceVar(&envFiles, "env-file", nil, "env files to load before reading the environment")
	rootCmd.PersistentFlags().StringVar(&tenantID, "tenant", "", "tenant ID (overrides TENANT_ID)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "print JSON instead of text")

	rootCmd.AddCommand(statusCmd, usageCmd, accessCmd, quoteCmd, downgradeCmd, payCmd, serveCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if current != nil {
			_ = current.close()
		}
		os.Exit(exitCode(err))
	}
}

// exitCode lets scripts tell an upsell outcome from a real failure.
func exitCode(err error) int {
	switch entitlement.Classify(err) {
	case entitlement.SeverityUpsell:
		return 2
	case entitlement.SeverityUser:
		return 3
	default:
		return 1
	}
}

func bootstrap(ctx context.Context) (*app, error) {
	cfg, err := config.Load(envFiles...)
	if err != nil {
		return nil, err
	}
	if tenantID != "" {
		cfg.TenantID = tenantID
	}

	log, err := logger.FromConfig(cfg.Logger, logger.WithOutput(os.Stderr))
	if err != nil {
		return nil, err
	}

	catalog := plan.Default()
	if cfg.CatalogFile != "" {
		f, err := os.Open(cfg.CatalogFile)
		if err != nil {
			return nil, fmt.Errorf("open plan catalog: %w", err)
		}
		catalog, err = plan.LoadYAML(f)
		_ = f.Close()
		if err != nil {
			return nil, err
		}
		log.Info("loaded plan catalog", slog.String("file", cfg.CatalogFile))
	}

	client, err := backend.New(cfg.Backend, backend.WithLogger(log))
	if err != nil {
		return nil, err
	}

	store, err := cache.Open[*subscription.Record](ctx, cfg.Cache, nil)
	if err != nil {
		log.Warn("cache unavailable, reading through to the backend", logger.Error(err))
		store = cache.Nop[*subscription.Record]{}
	}

	svc := entitlement.New(catalog, client,
		entitlement.WithLogger(log),
		entitlement.WithTenantID(cfg.TenantID),
		entitlement.WithCache(store, cfg.Cache.TTL),
		entitlement.WithPaymentOptions(payment.WithConfig(cfg.Payment)),
	)

	return &app{
		cfg:     cfg,
		log:     log,
		client:  client,
		store:   store,
		catalog: catalog,
		svc:     svc,
	}, nil
}

func (a *app) close() error {
	current = nil
	return errors.Join(a.svc.Close(), a.store.Close())
}
