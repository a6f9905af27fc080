package cmd

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/meridies/eventbid/internal/cli"
	"github.com/meridies/eventbid/internal/model"
	"github.com/meridies/eventbid/internal/session"
	"github.com/meridies/eventbid/internal/store"
)

var (
	flagExpenseProjected string
	flagExpenseActual    string
	flagExpenseCategory  string
)

var expenseCmd = &cobra.Command{
	Use:   "expense",
	Short: "Manage a bid's operational expense ledger",
}

var expenseAddCmd = &cobra.Command{
	Use:   "add KEY NAME",
	Short: "Add or update an expense line",
	Long: "Add or update an expense line. Updating keeps the amounts whose flags are not given.\n\n" +
		"  eventbid expense add barony--spring-war Insurance --projected 150 --category Fees",
	Args: cobra.ExactArgs(2),
	RunE: runExpenseAdd,
}

var expenseRmCmd = &cobra.Command{
	Use:     "rm KEY NAME",
	Aliases: []string{"remove"},
	Short:   "Remove an expense line",
	Args:    cobra.ExactArgs(2),
	RunE:    runExpenseRm,
}

var expenseListCmd = &cobra.Command{
	Use:     "list KEY",
	Aliases: []string{"ls"},
	Short:   "List expense lines with projected and actual totals",
	Args:    cobra.ExactArgs(1),
	RunE:    runExpenseList,
}

func init() {
	expenseAddCmd.Flags().StringVar(&flagExpenseProjected, "projected", "", "Projected amount")
	expenseAddCmd.Flags().StringVar(&flagExpenseActual, "actual", "", "Actual amount")
	expenseAddCmd.Flags().StringVar(&flagExpenseCategory, "category", "", "Optional category")

	expenseCmd.AddCommand(expenseAddCmd, expenseRmCmd, expenseListCmd)
	rootCmd.AddCommand(expenseCmd)
}

func parseAmount(flag, s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimPrefix(strings.TrimSpace(s), "$"))
	if err != nil {
		return decimal.Zero, fmt.Errorf("--%s: invalid amount %q", flag, s)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("--%s: amount must not be negative", flag)
	}
	return d, nil
}

func runExpenseAdd(cmd *cobra.Command, args []string) error {
	name := strings.TrimSpace(args[1])
	flags := cmd.Flags()

	return withSession(cmd.Context(), args[0], func(_ store.Store, sess *session.Session) error {
		e := sess.Bid().Expenses[name]
		if flags.Changed("projected") {
			d, err := parseAmount("projected", flagExpenseProjected)
			if err != nil {
				return err
			}
			e.Projected = d
		}
		if flags.Changed("actual") {
			d, err := parseAmount("actual", flagExpenseActual)
			if err != nil {
				return err
			}
			e.Actual = d
		}
		if flags.Changed("category") {
			e.Category = strings.TrimSpace(flagExpenseCategory)
		}
		if err := sess.Apply(session.PutExpense(name, e)); err != nil {
			return err
		}
		return saveAndReport(cmd, sess, false)
	})
}

func runExpenseRm(cmd *cobra.Command, args []string) error {
	return withSession(cmd.Context(), args[0], func(_ store.Store, sess *session.Session) error {
		if err := sess.Apply(session.RemoveExpense(args[1])); err != nil {
			return err
		}
		return saveAndReport(cmd, sess, false)
	})
}

func runExpenseList(cmd *cobra.Command, args []string) error {
	return withSession(cmd.Context(), args[0], func(_ store.Store, sess *session.Session) error {
		b := sess.Bid()
		if len(b.Expenses) == 0 {
			fmt.Println("\n  No expenses recorded.")
			return nil
		}
		fmt.Println()
		fmt.Print(cli.RenderTable(expenseTable(b)))
		return nil
	})
}

func expenseTable(b model.BidRecord) cli.Table {
	t := cli.Table{
		Title:   "Expenses",
		Headers: []string{"Expense", "Category", "Projected", "Actual"},
	}
	for _, name := range b.Expenses.Names() {
		e := b.Expenses[name]
		t.Rows = append(t.Rows, []string{name, cli.FormatOr(e.Category, "-"), cli.FormatMoney(e.Projected), cli.FormatMoney(e.Actual)})
	}
	t.Rows = append(t.Rows,
		[]string{"---"},
		[]string{"Total", "", cli.FormatMoney(b.Expenses.Total(model.ModeProjected)), cli.FormatMoney(b.Expenses.Total(model.ModeActual))},
	)
	return t
}
