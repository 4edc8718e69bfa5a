package commands

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/openbooks-dev/openbooks/internal/model"
	"github.com/openbooks-dev/openbooks/internal/registry"
)

func newAccountCommand(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Manage the chart of accounts",
	}

	cmd.AddCommand(newAccountAddCommand(flags))
	cmd.AddCommand(newAccountBulkCommand(flags))
	cmd.AddCommand(newAccountListCommand(flags))
	cmd.AddCommand(newAccountChartCommand(flags))
	cmd.AddCommand(newAccountDeactivateCommand(flags))
	cmd.AddCommand(newAccountRmCommand(flags))

	return cmd
}

func newAccountAddCommand(flags *rootFlags) *cobra.Command {
	var params registry.CreateParams
	var accountType string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add an account",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), flags.configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			params.Type = model.AccountType(accountType)
			account, err := a.registry.Create(cmd.Context(), flags.companyID, flags.actor, params)
			if err != nil {
				return err
			}
			fmt.Printf("Created account %s %q (ID %d)\n", account.Code, account.Name, account.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&params.Code, "code", "", "account code (required)")
	_ = cmd.MarkFlagRequired("code")
	cmd.Flags().StringVar(&params.Name, "name", "", "account name (required)")
	_ = cmd.MarkFlagRequired("name")
	cmd.Flags().StringVar(&accountType, "type", "", "asset|liability|equity|revenue|expense (required)")
	_ = cmd.MarkFlagRequired("type")
	cmd.Flags().Int64Var(&params.ParentID, "parent", 0, "parent account ID")
	cmd.Flags().StringVar(&params.Description, "description", "", "account description")

	return cmd
}

func newAccountBulkCommand(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "bulk <file.csv>",
		Short: "Bulk-create accounts from a CSV file",
		Long: `Bulk-create accounts from a CSV file with the header
"` + registry.ChartHeader + `". Rows are validated independently:
valid rows are created and invalid rows are reported, so a partial
import succeeds for the rows that pass.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), flags.configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := runAccountBulk(cmd.Context(), a.registry, flags.companyID, flags.actor, args[0])
			if err != nil {
				return err
			}
			for _, e := range res.Errors {
				fmt.Printf("warning: %s\n", e)
			}
			fmt.Printf("Created %d accounts (%d failed)\n", res.Created, len(res.Errors))
			return nil
		},
	}
}

// runAccountBulk loads chart rows from a CSV file and creates them,
// continuing past per-row failures.
func runAccountBulk(ctx context.Context, reg *registry.Service, companyID int64, actor, path string) (registry.BulkResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return registry.BulkResult{}, fmt.Errorf("opening chart CSV: %w", err)
	}
	defer f.Close()

	rows, err := registry.ReadChart(f)
	if err != nil {
		return registry.BulkResult{}, err
	}
	return reg.BulkCreate(ctx, companyID, actor, rows)
}

func newAccountListCommand(flags *rootFlags) *cobra.Command {
	var accountType string
	var activeOnly bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), flags.configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			accounts, err := a.registry.List(cmd.Context(), flags.companyID, registry.ListFilter{
				Type:       model.AccountType(accountType),
				ActiveOnly: activeOnly,
			})
			if err != nil {
				return err
			}
			printAccounts(accounts)
			return nil
		},
	}

	cmd.Flags().StringVar(&accountType, "type", "", "filter by account type")
	cmd.Flags().BoolVar(&activeOnly, "active-only", false, "only active accounts")

	return cmd
}

func newAccountChartCommand(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "chart",
		Short: "Print the full chart of accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), flags.configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			accounts, err := a.registry.ChartOfAccounts(cmd.Context(), flags.companyID)
			if err != nil {
				return err
			}
			printAccounts(accounts)
			return nil
		},
	}
}

func newAccountDeactivateCommand(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "deactivate <account-id>",
		Short: "Deactivate an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid account id %q", args[0])
			}

			a, err := openApp(cmd.Context(), flags.configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			account, err := a.registry.Deactivate(cmd.Context(), flags.companyID, id, flags.actor)
			if err != nil {
				return err
			}
			fmt.Printf("Deactivated account %s %q\n", account.Code, account.Name)
			return nil
		},
	}
}

func newAccountRmCommand(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <account-id>",
		Short: "Delete an unreferenced account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid account id %q", args[0])
			}

			a, err := openApp(cmd.Context(), flags.configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.registry.Delete(cmd.Context(), flags.companyID, id, flags.actor); err != nil {
				return err
			}
			fmt.Printf("Deleted account %d\n", id)
			return nil
		},
	}
}

func printAccounts(accounts []*model.Account) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCODE\tNAME\tTYPE\tACTIVE")
	for _, a := range accounts {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%t\n", a.ID, a.Code, a.Name, a.Type, a.Active)
	}
	w.Flush()
}
