package commands

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/openbooks-dev/openbooks/internal/report"
)

var (
	heading  = color.New(color.Bold)
	negative = color.New(color.FgRed)
)

func newReportCommand(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Generate financial reports",
	}

	cmd.AddCommand(newTrialBalanceCommand(flags))
	cmd.AddCommand(newBalanceSheetCommand(flags))
	cmd.AddCommand(newIncomeStatementCommand(flags))
	cmd.AddCommand(newGeneralLedgerCommand(flags))
	cmd.AddCommand(newJournalCommand(flags))

	return cmd
}

func newTrialBalanceCommand(flags *rootFlags) *cobra.Command {
	var asOf string

	cmd := &cobra.Command{
		Use:   "trial-balance",
		Short: "Trial balance as of a date",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := parseDate(asOf)
			if err != nil {
				return err
			}

			a, err := openApp(cmd.Context(), flags.configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			tb, err := a.reports.TrialBalance(cmd.Context(), flags.companyID, d)
			if err != nil {
				return err
			}

			heading.Printf("Trial Balance as of %s\n\n", d.Format("2006-01-02"))
			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', tabwriter.AlignRight)
			fmt.Fprintln(w, "CODE\tACCOUNT\tDEBIT\tCREDIT\t")
			for _, r := range tb.Rows {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t\n", r.Account.Code, r.Account.Name, money(r.DebitTotal), money(r.CreditTotal))
			}
			fmt.Fprintf(w, "\tTOTAL\t%s\t%s\t\n", money(tb.TotalDebits), money(tb.TotalCredits))
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&asOf, "as-of", "", "report date YYYY-MM-DD (required)")
	_ = cmd.MarkFlagRequired("as-of")

	return cmd
}

func newBalanceSheetCommand(flags *rootFlags) *cobra.Command {
	var asOf string

	cmd := &cobra.Command{
		Use:   "balance-sheet",
		Short: "Balance sheet as of a date",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := parseDate(asOf)
			if err != nil {
				return err
			}

			a, err := openApp(cmd.Context(), flags.configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			bs, err := a.reports.BalanceSheet(cmd.Context(), flags.companyID, d)
			if err != nil {
				return err
			}

			heading.Printf("Balance Sheet as of %s\n\n", d.Format("2006-01-02"))
			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', tabwriter.AlignRight)
			printSection(w, "ASSETS", bs.Assets, false)
			fmt.Fprintf(w, "\tTotal Assets\t%s\t\n\n", money(bs.TotalAssets))
			printSection(w, "LIABILITIES", bs.Liabilities, true)
			fmt.Fprintf(w, "\tTotal Liabilities\t%s\t\n\n", money(bs.TotalLiabilities))
			printSection(w, "EQUITY", bs.Equity, true)
			fmt.Fprintf(w, "\tTotal Equity\t%s\t\n", money(bs.TotalEquity))
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&asOf, "as-of", "", "report date YYYY-MM-DD (required)")
	_ = cmd.MarkFlagRequired("as-of")

	return cmd
}

func newIncomeStatementCommand(flags *rootFlags) *cobra.Command {
	var start, end string

	cmd := &cobra.Command{
		Use:   "income",
		Short: "Income statement for a period",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, e, err := parsePeriod(start, end)
			if err != nil {
				return err
			}

			a, err := openApp(cmd.Context(), flags.configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			is, err := a.reports.IncomeStatement(cmd.Context(), flags.companyID, s, e)
			if err != nil {
				return err
			}

			heading.Printf("Income Statement %s .. %s\n\n", s.Format("2006-01-02"), e.Format("2006-01-02"))
			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', tabwriter.AlignRight)
			printSection(w, "REVENUE", is.Revenues, true)
			fmt.Fprintf(w, "\tTotal Revenue\t%s\t\n\n", money(is.TotalRevenue))
			printSection(w, "EXPENSES", is.Expenses, false)
			fmt.Fprintf(w, "\tTotal Expenses\t%s\t\n\n", money(is.TotalExpenses))
			fmt.Fprintf(w, "\tNET INCOME\t%s\t\n", money(is.NetIncome))
			return w.Flush()
		},
	}

	addPeriodFlags(cmd, &start, &end)
	return cmd
}

func newGeneralLedgerCommand(flags *rootFlags) *cobra.Command {
	var start, end string
	var accountID int64

	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "General ledger for one account",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, e, err := parsePeriod(start, end)
			if err != nil {
				return err
			}

			a, err := openApp(cmd.Context(), flags.configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			gl, err := a.reports.GeneralLedger(cmd.Context(), flags.companyID, accountID, s, e)
			if err != nil {
				return err
			}

			heading.Printf("General Ledger %s %q, %s .. %s\n\n",
				gl.Account.Code, gl.Account.Name, s.Format("2006-01-02"), e.Format("2006-01-02"))
			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', tabwriter.AlignRight)
			fmt.Fprintf(w, "\tOpening Balance\t\t\t%s\t\n", money(gl.OpeningBalance))
			fmt.Fprintln(w, "DATE\tDESCRIPTION\tDEBIT\tCREDIT\tBALANCE\t")
			for _, entry := range gl.Entries {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t\n",
					entry.Date.Format("2006-01-02"), entry.Description,
					money(entry.Debit), money(entry.Credit), money(entry.Balance))
			}
			fmt.Fprintf(w, "\tClosing Balance\t\t\t%s\t\n", money(gl.ClosingBalance))
			return w.Flush()
		},
	}

	addPeriodFlags(cmd, &start, &end)
	cmd.Flags().Int64Var(&accountID, "account", 0, "account ID (required)")
	_ = cmd.MarkFlagRequired("account")

	return cmd
}

func newJournalCommand(flags *rootFlags) *cobra.Command {
	var start, end string

	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Journal of posted transactions for a period",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, e, err := parsePeriod(start, end)
			if err != nil {
				return err
			}

			a, err := openApp(cmd.Context(), flags.configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			j, err := a.reports.Journal(cmd.Context(), flags.companyID, s, e)
			if err != nil {
				return err
			}

			heading.Printf("Journal %s .. %s\n\n", s.Format("2006-01-02"), e.Format("2006-01-02"))
			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', tabwriter.AlignRight)
			for _, entry := range j.Entries {
				t := entry.Transaction
				fmt.Fprintf(w, "#%d\t%s\t%s\t\t\n", t.ID, t.Date.Format("2006-01-02"), t.Description)
				for _, d := range entry.Debits {
					fmt.Fprintf(w, "\t%s %s\t%s\t\t\n", d.Account.Code, d.Account.Name, money(d.Amount))
				}
				for _, c := range entry.Credits {
					fmt.Fprintf(w, "\t    %s %s\t\t%s\t\n", c.Account.Code, c.Account.Name, money(c.Amount))
				}
			}
			return w.Flush()
		},
	}

	addPeriodFlags(cmd, &start, &end)
	return cmd
}

func addPeriodFlags(cmd *cobra.Command, start, end *string) {
	cmd.Flags().StringVar(start, "start", "", "period start YYYY-MM-DD (required)")
	_ = cmd.MarkFlagRequired("start")
	cmd.Flags().StringVar(end, "end", "", "period end YYYY-MM-DD (required)")
	_ = cmd.MarkFlagRequired("end")
}

func parsePeriod(start, end string) (s, e time.Time, err error) {
	if s, err = parseDate(start); err != nil {
		return
	}
	e, err = parseDate(end)
	return
}

func printSection(w *tabwriter.Writer, title string, rows []report.AccountBalance, creditNormal bool) {
	fmt.Fprintf(w, "%s\t\t\t\n", title)
	for _, r := range rows {
		bal := r.Balance
		if creditNormal {
			bal = bal.Neg()
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t\n", r.Account.Code, r.Account.Name, money(bal))
	}
}

// money formats an amount at two decimal places, coloring negatives.
func money(d decimal.Decimal) string {
	s := d.StringFixed(2)
	if d.IsNegative() {
		return negative.Sprint(s)
	}
	return s
}
