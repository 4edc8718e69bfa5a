package commands

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/openbooks-dev/openbooks/internal/auditlog"
	"github.com/openbooks-dev/openbooks/internal/config"
	"github.com/openbooks-dev/openbooks/internal/model"
	"github.com/openbooks-dev/openbooks/internal/registry"
	"github.com/openbooks-dev/openbooks/internal/store/bolt"
)

func newInitCommand() *cobra.Command {
	var name string
	var currency string
	var noSeed bool

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new openbooks project",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}
			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}
			return runInit(cmd.Context(), absDir, name, currency, !noSeed)
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "company name (required)")
	_ = cmd.MarkFlagRequired("name")
	cmd.Flags().StringVar(&currency, "currency", "USD", "company currency")
	cmd.Flags().BoolVar(&noSeed, "no-seed", false, "skip seeding the default chart of accounts")

	return cmd
}

// runInit writes openbooks.yaml, creates the store, the first company and
// (unless disabled) the default chart of accounts.
func runInit(ctx context.Context, dir, name, currency string, seed bool) error {
	cfg := config.Default(name)
	cfg.Company.Currency = currency
	cfg.Store.Path = filepath.Join(dir, cfg.Store.Path)
	cfg.Audit.Path = filepath.Join(dir, cfg.Audit.Path)
	if err := config.Save(filepath.Join(dir, "openbooks.yaml"), cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	st, err := bolt.Open(cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("creating store: %w", err)
	}
	defer st.Close()

	company := &model.Company{Name: name, Currency: currency}
	if err := st.CreateCompany(ctx, company); err != nil {
		return fmt.Errorf("creating company: %w", err)
	}

	if seed {
		reg := registry.NewService(st, auditlog.New(cfg.Audit.Path))
		res, err := reg.BulkCreate(ctx, company.ID, "init", registry.DefaultChart())
		if err != nil {
			return fmt.Errorf("seeding chart of accounts: %w", err)
		}
		for _, e := range res.Errors {
			fmt.Printf("warning: %s\n", e)
		}
		fmt.Printf("Seeded %d accounts\n", res.Created)
	}

	fmt.Printf("Initialized %q (company ID %d) in %s\n", name, company.ID, dir)
	return nil
}
