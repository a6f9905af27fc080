package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/meridies/eventbid/internal/cli"
	"github.com/meridies/eventbid/internal/model"
	"github.com/meridies/eventbid/internal/session"
	"github.com/meridies/eventbid/internal/sites"
	"github.com/meridies/eventbid/internal/store"
)

var (
	flagBidGroup     string
	flagBidEvent     string
	flagBidType      string
	flagBidYear      int
	flagBidSite      string
	flagJSON         bool
	flagYes          bool
	flagOverwrite    bool
	flagShowAllStaff bool
)

var bidCmd = &cobra.Command{
	Use:   "bid",
	Short: "Create, inspect and change event bids",
}

var bidNewCmd = &cobra.Command{
	Use:   "new",
	Short: "Create a bid",
	Args:  cobra.NoArgs,
	RunE:  runBidNew,
}

var bidShowCmd = &cobra.Command{
	Use:   "show KEY",
	Short: "Show a bid",
	Args:  cobra.ExactArgs(1),
	RunE:  runBidShow,
}

var bidListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List stored bids",
	Args:    cobra.NoArgs,
	RunE:    runBidList,
}

var bidDeleteCmd = &cobra.Command{
	Use:     "delete KEY",
	Aliases: []string{"rm"},
	Short:   "Delete a bid",
	Args:    cobra.ExactArgs(1),
	RunE:    runBidDelete,
}

var bidSetCmd = &cobra.Command{
	Use:   "set KEY FIELD=VALUE...",
	Short: "Set bid fields by their persisted names",
	Long: "Set bid fields by their persisted names, e.g.\n\n" +
		"  eventbid bid set barony--spring-war price_full=25 feast_capacity=120\n\n" +
		"Changing group_name or event_name saves the bid under a new key.",
	Args: cobra.MinimumNArgs(2),
	RunE: runBidSet,
}

var bidImportCmd = &cobra.Command{
	Use:   "import FILE",
	Short: "Import a bid from JSON (- reads stdin)",
	Args:  cobra.ExactArgs(1),
	RunE:  runBidImport,
}

func init() {
	bidNewCmd.Flags().StringVar(&flagBidGroup, "group", "", "Hosting group (default from config)")
	bidNewCmd.Flags().StringVar(&flagBidEvent, "event", "", "Event name")
	bidNewCmd.Flags().StringVar(&flagBidType, "type", "local", "Event type: local or kingdom")
	bidNewCmd.Flags().IntVar(&flagBidYear, "year", 0, "Bid year (default this year)")
	bidNewCmd.Flags().StringVar(&flagBidSite, "site", "", "Apply a site profile")

	bidShowCmd.Flags().BoolVar(&flagJSON, "json", false, "Print the persisted JSON")
	bidShowCmd.Flags().BoolVar(&flagShowAllStaff, "all-staff", false, "Include unfilled staff roles")
	bidListCmd.Flags().BoolVar(&flagJSON, "json", false, "Print JSON")
	bidDeleteCmd.Flags().BoolVarP(&flagYes, "yes", "y", false, "Do not ask for confirmation")
	bidSetCmd.Flags().BoolVar(&flagOverwrite, "overwrite", false, "Save even if someone else changed the bid")
	bidImportCmd.Flags().BoolVar(&flagOverwrite, "overwrite", false, "Replace a stored bid with the same key")

	bidCmd.AddCommand(bidNewCmd, bidShowCmd, bidListCmd, bidDeleteCmd, bidSetCmd, bidImportCmd)
	rootCmd.AddCommand(bidCmd)
}

func runBidNew(cmd *cobra.Command, _ []string) error {
	eventType, err := model.ParseEventType(flagBidType)
	if err != nil {
		return err
	}
	group := flagBidGroup
	if group == "" {
		group = cfg.General.DefaultGroup
	}

	ctx := cmd.Context()
	return withSession(ctx, "", func(st store.Store, sess *session.Session) error {
		updates := []session.Update{func(b *model.BidRecord) error {
			b.OriginKingdom = cfg.General.OriginKingdom
			b.GroupName = strings.TrimSpace(group)
			b.EventName = strings.TrimSpace(flagBidEvent)
			b.EventType = eventType
			if flagBidYear > 0 {
				b.BidForYear = flagBidYear
			}
			return nil
		}}
		if flagBidSite != "" {
			e, err := sites.NewCatalog(st).Get(ctx, flagBidSite)
			if err != nil {
				return err
			}
			updates = append(updates, session.ApplyProfile(e.Profile))
		}
		if err := sess.Apply(updates...); err != nil {
			return err
		}

		v, err := sess.Save(ctx)
		if err != nil {
			if errors.Is(err, store.ErrConflict) {
				return fmt.Errorf("a bid named %q already exists: %w", sess.Bid().Key(), err)
			}
			return err
		}
		fmt.Printf("  Created %s (v%d)\n", sess.Key(), v)
		printIssues(sess.Issues())
		return nil
	})
}

func runBidShow(cmd *cobra.Command, args []string) error {
	return withSession(cmd.Context(), args[0], func(_ store.Store, sess *session.Session) error {
		b := sess.Bid()
		if flagJSON {
			data, err := model.EncodeIndent(b)
			if err != nil {
				return err
			}
			fmt.Println(string(data))
			return nil
		}

		title := strings.TrimSpace(b.GroupName + "  " + b.EventName)
		fmt.Println()
		fmt.Println(cli.RenderTitle(strings.ToUpper(title)))
		fmt.Println()
		fmt.Print(cli.RenderTable(cli.Table{
			Title:   fmt.Sprintf("Event Information  %s v%d", sess.Key(), sess.Version()),
			Headers: []string{"Field", "Value"},
			Rows: [][]string{
				{"Origin kingdom", b.OriginKingdom},
				{"Event type", string(b.EventType)},
				{"Bid for year", fmt.Sprintf("%d", b.BidForYear)},
				{"Start", strings.TrimSpace(b.StartDate.String() + " " + b.StartTime.String())},
				{"End", strings.TrimSpace(b.EndDate.String() + " " + b.EndTime.String())},
				{"Gate opens", b.GateTime.String()},
				{"Expected attendance", cli.FormatNumber(int64(b.ExpectedAttendance))},
				{"Website", cli.FormatOr(b.WebsiteURL, "-")},
			},
		}))
		fmt.Println()
		fmt.Print(cli.RenderTable(cli.Table{
			Title:   "Site Information",
			Headers: []string{"Field", "Value"},
			Rows: [][]string{
				{"Site", cli.FormatOr(b.SiteName, "-")},
				{"Address", cli.FormatOr(b.SiteAddress, "-")},
				{"Parking", fmt.Sprintf("%d spaces, %d%% shaded", b.ParkingSpaces, b.ParkingShadedPct)},
				{"Bathrooms", fmt.Sprintf("%d, %d%% shaded", b.BathroomsCount, b.BathroomsShadedPct)},
				{"Kitchen", b.KitchenSize},
				{"Camping", campingSummary(b)},
			},
		}))
		fmt.Println()
		fmt.Print(cli.RenderTable(pricingTable(b)))
		fmt.Println()
		if staff := staffTable(b, flagShowAllStaff); len(staff.Rows) > 0 {
			fmt.Print(cli.RenderTable(staff))
			fmt.Println()
		}
		if len(b.Expenses) > 0 {
			fmt.Print(cli.RenderTable(expenseTable(b)))
			fmt.Println()
		}
		printIssues(sess.Issues())
		return nil
	})
}

func campingSummary(b model.BidRecord) string {
	if !b.CampingAllowed {
		return "no"
	}
	return fmt.Sprintf("%d tents, %d RV", b.CampingTents, b.CampingRV)
}

func pricingTable(b model.BidRecord) cli.Table {
	money := cli.FormatMoney
	return cli.Table{
		Title:   "Pricing",
		Headers: []string{"Item", "Amount"},
		Rows: [][]string{
			{"Site flat fee", money(b.SiteFlatFee)},
			{"Site cost per person", money(b.SiteCostPerPerson)},
			{"Full event price", money(b.PriceFull)},
			{"Day trip price", money(b.PricePartial)},
			{"Non-member surcharge", money(b.NonMemberSurcharge)},
			{"---"},
			{"Feast price", money(b.FeastPrice)},
			{"Feast cost per person", money(b.FeastCostPerPerson)},
			{"Feast capacity", cli.FormatNumber(int64(b.FeastCapacity))},
			{"---"},
			{"Top bunks", fmt.Sprintf("%d at %s", b.BedsTopQty, money(b.BedsTopPrice))},
			{"Bottom bunks", fmt.Sprintf("%d at %s", b.BedsBottomQty, money(b.BedsBottomPrice))},
		},
	}
}

func staffTable(b model.BidRecord, all bool) cli.Table {
	t := cli.Table{Title: "Staffing", Headers: []string{"Role", "Name", "Contact"}}
	for _, s := range b.Staff {
		if s.Name == "" && s.Contact == "" && !all {
			continue
		}
		t.Rows = append(t.Rows, []string{s.Role, cli.FormatOr(s.Name, "-"), cli.FormatOr(s.Contact, "-")})
	}
	return t
}

func runBidList(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	st, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	list, err := session.List(ctx, st)
	if err != nil {
		return err
	}
	if flagJSON {
		return printJSON(list)
	}
	if len(list) == 0 {
		fmt.Println("\n  No bids yet. Create one with `eventbid bid new --group ... --event ...`.")
		return nil
	}

	t := cli.Table{
		Title:   fmt.Sprintf("Bids (%s store)", cfg.Store.Driver),
		Headers: []string{"Key", "Event", "Group", "Type", "Start", "Site", "Ver"},
	}
	for _, s := range list {
		if s.Invalid {
			t.Rows = append(t.Rows, []string{s.Key, "(unreadable)", "", "", "", "", fmt.Sprintf("%d", s.Version)})
			continue
		}
		t.Rows = append(t.Rows, []string{
			s.Key,
			s.EventName,
			s.GroupName,
			string(s.EventType),
			cli.FormatOr(s.StartDate.String(), "-"),
			cli.FormatOr(s.SiteName, "-"),
			fmt.Sprintf("%d", s.Version),
		})
	}
	fmt.Println()
	fmt.Print(cli.RenderTable(t))
	return nil
}

func runBidDelete(cmd *cobra.Command, args []string) error {
	key := args[0]
	if !flagYes {
		confirmed := false
		err := huh.NewConfirm().
			Title(fmt.Sprintf("Delete bid %s?", key)).
			Affirmative("Delete").
			Negative("Keep").
			Value(&confirmed).
			Run()
		if err != nil {
			return err
		}
		if !confirmed {
			fmt.Println("  Kept.")
			return nil
		}
	}
	return withSession(cmd.Context(), key, func(_ store.Store, sess *session.Session) error {
		if err := sess.Delete(cmd.Context()); err != nil {
			return err
		}
		fmt.Printf("  Deleted %s\n", key)
		return nil
	})
}

// parseAssignments splits FIELD=VALUE arguments.
func parseAssignments(args []string) ([]session.Update, error) {
	updates := make([]session.Update, 0, len(args))
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("expected FIELD=VALUE, got %q", arg)
		}
		updates = append(updates, session.SetField(key, value))
	}
	return updates, nil
}

func runBidSet(cmd *cobra.Command, args []string) error {
	updates, err := parseAssignments(args[1:])
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	return withSession(ctx, args[0], func(_ store.Store, sess *session.Session) error {
		if err := sess.Apply(updates...); err != nil {
			return err
		}
		return saveAndReport(cmd, sess, flagOverwrite)
	})
}

func runBidImport(cmd *cobra.Command, args []string) error {
	var (
		data []byte
		err  error
	)
	if args[0] == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(args[0]) //nolint:gosec // user-chosen import file
	}
	if err != nil {
		return fmt.Errorf("reading %s: %w", args[0], err)
	}

	return withSession(cmd.Context(), "", func(_ store.Store, sess *session.Session) error {
		warnings, err := sess.Import(data)
		if err != nil {
			return err
		}
		for _, w := range warnings {
			fmt.Printf("  skipped %s\n", w)
		}
		return saveAndReport(cmd, sess, flagOverwrite)
	})
}

// saveAndReport saves the session and prints the key, version and issues.
func saveAndReport(cmd *cobra.Command, sess *session.Session, overwrite bool) error {
	save := sess.Save
	if overwrite {
		save = sess.Overwrite
	}
	v, err := save(cmd.Context())
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return fmt.Errorf("%w: the stored bid changed or the key is taken; rerun with --overwrite to replace it", err)
		}
		return err
	}
	fmt.Printf("  Saved %s (v%d)\n", sess.Key(), v)
	printIssues(sess.Issues())
	return nil
}

func printIssues(issues []model.Issue) {
	if len(issues) == 0 {
		return
	}
	fmt.Println()
	fmt.Print(cli.RenderIssues(issues))
}
