// Package main is the entrypoint for the subdash operator CLI.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/MacJediWizard/subdash/internal/bootstrap"
	"github.com/MacJediWizard/subdash/internal/config"
	"github.com/MacJediWizard/subdash/internal/db"
	"github.com/MacJediWizard/subdash/internal/models"
	"github.com/MacJediWizard/subdash/internal/service"
	"github.com/MacJediWizard/subdash/internal/subscription"
)

// Build-time variables set via ldflags.
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// cli holds the options shared by every command.
type cli struct {
	configFile string
	verbose    bool
	logger     zerolog.Logger
	cfg        config.ServerConfig
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	rootCmd := &cobra.Command{
		Use:   "subdash",
		Short: "Subscription dashboard administration",
		Long: `subdash manages the customer and package records behind the
subscription dashboard server. It reads the same environment variables
and .env file as subdash-server.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.load(cmd.ErrOrStderr())
		},
	}

	rootCmd.PersistentFlags().StringVar(&c.configFile, "config", "", "YAML config file applied over the environment")
	rootCmd.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "Log at debug level")

	rootCmd.AddCommand(
		newVersionCmd(),
		newRefreshCmd(c),
		newSeedCmd(c),
		newCustomersCmd(c),
		newPackagesCmd(c),
		newMigrateCmd(c),
	)

	return rootCmd
}

func (c *cli) load(stderr io.Writer) error {
	level := zerolog.WarnLevel
	if c.verbose {
		level = zerolog.DebugLevel
	}
	c.logger = zerolog.New(zerolog.ConsoleWriter{Out: stderr, TimeFormat: time.RFC3339}).
		Level(level).
		With().
		Timestamp().
		Logger()

	if err := config.LoadDotEnv(); err != nil {
		return err
	}
	c.cfg = config.LoadServerConfig()
	if c.configFile != "" {
		fc, err := config.LoadFile(c.configFile)
		if err != nil {
			return err
		}
		fc.Apply(&c.cfg)
	}
	return nil
}

func (c *cli) openStores(ctx context.Context) (*bootstrap.Stores, error) {
	stores, err := bootstrap.OpenStores(ctx, c.cfg, false, c.logger)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return stores, nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "subdash %s\n", Version)
			fmt.Fprintf(out, "  Commit:     %s\n", Commit)
			fmt.Fprintf(out, "  Built:      %s\n", BuildDate)
			fmt.Fprintf(out, "  Go version: %s\n", runtime.Version())
			fmt.Fprintf(out, "  OS/Arch:    %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}

func newRefreshCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh-statuses",
		Short: "Recompute the status of every customer",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			stores, err := c.openStores(ctx)
			if err != nil {
				return err
			}
			defer stores.Close()

			svc := service.NewCustomerService(stores.Store, nil, nil, c.logger)
			updated, err := svc.RefreshAllStatuses(ctx)
			fmt.Fprintf(cmd.OutOrStdout(), "Updated %d customer(s)\n", updated)
			return err
		},
	}
}

func newSeedCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create the default packages if none exist",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			stores, err := c.openStores(ctx)
			if err != nil {
				return err
			}
			defer stores.Close()

			svc := service.NewPackageService(stores.Store, nil, nil, c.logger)
			n, err := svc.SeedDefaults(ctx)
			if err != nil {
				return err
			}
			if n == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Packages already exist, nothing seeded")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d package(s)\n", n)
			return nil
		},
	}
}

func newCustomersCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "customers",
		Short: "Inspect customers",
	}

	var filter models.CustomerFilter
	var sort, direction string

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List customers",
		RunE: func(cmd *cobra.Command, args []string) error {
			filter.Sort = models.SortField(sort)
			filter.Direction = models.SortDirection(direction)
			if filter.Sort != "" && !filter.Sort.Valid() {
				return fmt.Errorf("invalid sort field %q", sort)
			}
			if filter.Direction != "" && filter.Direction != models.SortAsc && filter.Direction != models.SortDesc {
				return fmt.Errorf("invalid sort direction %q", direction)
			}

			ctx := cmd.Context()
			stores, err := c.openStores(ctx)
			if err != nil {
				return err
			}
			defer stores.Close()

			svc := service.NewCustomerService(stores.Store, nil, nil, c.logger)
			customers, err := svc.List(ctx, filter)
			if err != nil {
				return err
			}
			printCustomers(cmd.OutOrStdout(), customers, time.Now())
			return nil
		},
	}
	listCmd.Flags().StringVar(&filter.Status, "status", "", "Only show customers with this status (active, expiring-soon, expired)")
	listCmd.Flags().StringVar(&filter.PackageID, "package", "", "Only show customers on this package ID")
	listCmd.Flags().StringVar(&filter.Search, "search", "", "Match name, email or phone")
	listCmd.Flags().StringVar(&sort, "sort", "", "Sort by name, email, startDate, endDate or status")
	listCmd.Flags().StringVar(&direction, "direction", "", "Sort direction (asc or desc)")

	cmd.AddCommand(listCmd)
	return cmd
}

func printCustomers(w io.Writer, customers []*models.Customer, now time.Time) {
	if len(customers) == 0 {
		fmt.Fprintln(w, "No customers found")
		return
	}
	fmt.Fprintf(w, "%-24s %-32s %-10s %-10s %-9s %5s\n", "NAME", "EMAIL", "START", "END", "STATUS", "DAYS")
	for _, cust := range customers {
		days := "-"
		if !cust.EndDate.IsZero() {
			days = fmt.Sprintf("%d", subscription.DaysUntilExpiry(cust.EndDate.Time(), now))
		}
		fmt.Fprintf(w, "%-24s %-32s %-10s %-10s %-9s %5s\n",
			truncate(cust.Name, 24),
			truncate(cust.Email, 32),
			formatDate(cust.StartDate),
			formatDate(cust.EndDate),
			cust.Status,
			days,
		)
	}
}

func newPackagesCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "packages",
		Short: "Inspect packages",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List packages",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			stores, err := c.openStores(ctx)
			if err != nil {
				return err
			}
			defer stores.Close()

			svc := service.NewPackageService(stores.Store, nil, nil, c.logger)
			packages, err := svc.List(ctx)
			if err != nil {
				return err
			}
			printPackages(cmd.OutOrStdout(), packages)
			return nil
		},
	})
	return cmd
}

func printPackages(w io.Writer, packages []*models.Package) {
	if len(packages) == 0 {
		fmt.Fprintln(w, "No packages found")
		return
	}
	fmt.Fprintf(w, "%-36s %-24s %-12s %s\n", "ID", "NAME", "DURATION", "DEFAULT")
	for _, p := range packages {
		fmt.Fprintf(w, "%-36s %-24s %-12s %t\n",
			p.ID,
			truncate(p.Name, 24),
			fmt.Sprintf("%d %s", p.Duration, p.DurationType),
			p.IsDefault,
		)
	}
}

func newMigrateCmd(c *cli) *cobra.Command {
	var list, showVersion bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply PostgreSQL schema migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if list {
				return listMigrations(out)
			}
			if c.cfg.StoreDriver != config.StorePostgres {
				return fmt.Errorf("migrate requires STORE_DRIVER=%s, got %q", config.StorePostgres, c.cfg.StoreDriver)
			}
			if c.cfg.DatabaseURL == "" {
				return errors.New("DATABASE_URL is required")
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
			defer cancel()

			dbCfg := db.DefaultConfig(c.cfg.DatabaseURL)
			dbCfg.MaxConns = 5
			dbCfg.MinConns = 1
			database, err := db.New(ctx, dbCfg, c.logger)
			if err != nil {
				return fmt.Errorf("connect to database: %w", err)
			}
			defer database.Close()

			if !showVersion {
				if err := database.Migrate(ctx); err != nil {
					return fmt.Errorf("migrate: %w", err)
				}
			}
			version, err := database.CurrentVersion(ctx)
			if err != nil {
				return fmt.Errorf("get schema version: %w", err)
			}
			fmt.Fprintf(out, "Current schema version: %d\n", version)
			return nil
		},
	}
	cmd.Flags().BoolVar(&list, "list", false, "List embedded migrations and exit")
	cmd.Flags().BoolVar(&showVersion, "version", false, "Show the current schema version without migrating")
	return cmd
}

func listMigrations(w io.Writer) error {
	migrations, err := db.GetMigrations()
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}
	fmt.Fprintln(w, "Available migrations:")
	for _, m := range migrations {
		fmt.Fprintf(w, "  %s\n", m.Name)
	}
	return nil
}

func formatDate(ts models.Timestamp) string {
	if ts.IsZero() {
		return "-"
	}
	return ts.Time().Format(models.DateLayout)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "~"
}
