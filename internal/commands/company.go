package commands

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/openbooks-dev/openbooks/internal/model"
)

func newCompanyCommand(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "company",
		Short: "Manage companies (tenants)",
	}

	cmd.AddCommand(newCompanyAddCommand(flags))
	cmd.AddCommand(newCompanyListCommand(flags))

	return cmd
}

func newCompanyAddCommand(flags *rootFlags) *cobra.Command {
	var name string
	var currency string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a company",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), flags.configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			company := &model.Company{Name: name, Currency: currency}
			if err := a.store.CreateCompany(cmd.Context(), company); err != nil {
				return err
			}
			fmt.Printf("Created company %q (ID %d)\n", company.Name, company.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "company name (required)")
	_ = cmd.MarkFlagRequired("name")
	cmd.Flags().StringVar(&currency, "currency", "USD", "company currency")

	return cmd
}

func newCompanyListCommand(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List companies",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), flags.configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			companies, err := a.store.ListCompanies(cmd.Context())
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tCURRENCY")
			for _, c := range companies {
				fmt.Fprintf(w, "%d\t%s\t%s\n", c.ID, c.Name, c.Currency)
			}
			return w.Flush()
		},
	}
}
