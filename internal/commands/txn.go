package commands

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/openbooks-dev/openbooks/internal/ledger"
	"github.com/openbooks-dev/openbooks/internal/model"
)

func newTxnCommand(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "txn",
		Short: "Manage ledger transactions",
	}

	cmd.AddCommand(newTxnAddCommand(flags))
	cmd.AddCommand(newTxnListCommand(flags))
	cmd.AddCommand(newTxnPostCommand(flags))
	cmd.AddCommand(newTxnUnpostCommand(flags))
	cmd.AddCommand(newTxnRmCommand(flags))

	return cmd
}

func newTxnAddCommand(flags *rootFlags) *cobra.Command {
	var date string
	var description string
	var reference string
	var lineSpecs []string
	var post bool

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a transaction",
		Long: `Add a balanced transaction. Each --line is ACCOUNT_ID:AMOUNT[:DESCRIPTION];
positive amounts debit the account, negative amounts credit it. The signed
amounts must sum to exactly zero.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := parseDate(date)
			if err != nil {
				return err
			}
			lines := make([]ledger.LineParams, 0, len(lineSpecs))
			for _, spec := range lineSpecs {
				line, err := parseLine(spec)
				if err != nil {
					return err
				}
				lines = append(lines, line)
			}

			a, err := openApp(cmd.Context(), flags.configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			txn, err := a.ledger.Create(cmd.Context(), flags.companyID, ledger.CreateParams{
				Date:        d,
				Description: description,
				Reference:   reference,
				CreatedBy:   flags.actor,
				Lines:       lines,
			})
			if err != nil {
				return err
			}

			if post {
				if txn, err = a.ledger.Post(cmd.Context(), flags.companyID, txn.ID, flags.actor); err != nil {
					return err
				}
			}
			fmt.Printf("Created transaction %d (%s)\n", txn.ID, txn.State)
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "transaction date YYYY-MM-DD (required)")
	_ = cmd.MarkFlagRequired("date")
	cmd.Flags().StringVar(&description, "description", "", "transaction description")
	cmd.Flags().StringVar(&reference, "reference", "", "external reference")
	cmd.Flags().StringArrayVar(&lineSpecs, "line", nil, "transaction line ACCOUNT_ID:AMOUNT[:DESCRIPTION] (repeatable)")
	_ = cmd.MarkFlagRequired("line")
	cmd.Flags().BoolVar(&post, "post", false, "post the transaction immediately")

	return cmd
}

func newTxnListCommand(flags *rootFlags) *cobra.Command {
	var start, end string
	var accountID int64
	var postedOnly, draftOnly bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List transactions",
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := ledger.ListFilter{
				AccountID:  accountID,
				PostedOnly: postedOnly,
				DraftOnly:  draftOnly,
			}
			var err error
			if start != "" {
				if filter.Start, err = parseDate(start); err != nil {
					return err
				}
			}
			if end != "" {
				if filter.End, err = parseDate(end); err != nil {
					return err
				}
			}

			a, err := openApp(cmd.Context(), flags.configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			txns, err := a.ledger.List(cmd.Context(), flags.companyID, filter)
			if err != nil {
				return err
			}
			printTransactions(txns)
			return nil
		},
	}

	cmd.Flags().StringVar(&start, "start", "", "start date YYYY-MM-DD")
	cmd.Flags().StringVar(&end, "end", "", "end date YYYY-MM-DD")
	cmd.Flags().Int64Var(&accountID, "account", 0, "only transactions touching this account")
	cmd.Flags().BoolVar(&postedOnly, "posted", false, "only posted transactions")
	cmd.Flags().BoolVar(&draftOnly, "draft", false, "only draft transactions")

	return cmd
}

func newTxnPostCommand(flags *rootFlags) *cobra.Command {
	return txnStateCommand(flags, "post", "Post a draft transaction",
		func(a *app, cmd *cobra.Command, companyID, id int64, actor string) error {
			txn, err := a.ledger.Post(cmd.Context(), companyID, id, actor)
			if err != nil {
				return err
			}
			fmt.Printf("Posted transaction %d\n", txn.ID)
			return nil
		})
}

func newTxnUnpostCommand(flags *rootFlags) *cobra.Command {
	return txnStateCommand(flags, "unpost", "Return a posted transaction to draft",
		func(a *app, cmd *cobra.Command, companyID, id int64, actor string) error {
			txn, err := a.ledger.Unpost(cmd.Context(), companyID, id, actor)
			if err != nil {
				return err
			}
			fmt.Printf("Unposted transaction %d\n", txn.ID)
			return nil
		})
}

func newTxnRmCommand(flags *rootFlags) *cobra.Command {
	return txnStateCommand(flags, "rm", "Delete a draft transaction",
		func(a *app, cmd *cobra.Command, companyID, id int64, actor string) error {
			if err := a.ledger.Delete(cmd.Context(), companyID, id, actor); err != nil {
				return err
			}
			fmt.Printf("Deleted transaction %d\n", id)
			return nil
		})
}

func txnStateCommand(flags *rootFlags, use, short string, run func(a *app, cmd *cobra.Command, companyID, id int64, actor string) error) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <transaction-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid transaction id %q", args[0])
			}

			a, err := openApp(cmd.Context(), flags.configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			return run(a, cmd, flags.companyID, id, flags.actor)
		},
	}
}

func printTransactions(txns []*model.Transaction) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDATE\tSTATE\tDESCRIPTION\tLINES")
	for _, t := range txns {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d\n", t.ID, t.Date.Format("2006-01-02"), t.State, t.Description, len(t.Lines))
	}
	w.Flush()
}
